package trilemma

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"trilemma/internal/config"
	"trilemma/internal/strategy"
)

func newTestClient(t *testing.T, storeKind string) (*Client, string) {
	t.Helper()
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:    storeKind,
		DBPath:       filepath.Join(base, "trilemma.db"),
		ArtifactsDir: filepath.Join(base, "artifacts"),
		ExportsDir:   filepath.Join(base, "exports"),
		Logger:       zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, base
}

func niceNastyConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Rounds = config.RoundsConfig{Min: 100, Max: 100}
	cfg.Workers = 2
	cfg.Record = true
	cfg.Roster = []config.RosterEntry{
		{Strategy: strategy.NameAlwaysCooperate, Count: 1},
		{Strategy: strategy.NameAlwaysDefect, Count: 1},
	}
	return cfg
}

func TestClientRunRunsAndExport(t *testing.T) {
	for _, kind := range []string{"memory", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			ctx := context.Background()
			client, base := newTestClient(t, kind)

			summary, err := client.Run(ctx, RunRequest{Config: niceNastyConfig()})
			require.NoError(t, err)

			_, err = uuid.Parse(summary.RunID)
			require.NoError(t, err, "run id should default to a uuid")
			assert.Equal(t, 2, summary.PopulationSize)
			assert.Equal(t, 4, summary.MatchCount)
			require.Len(t, summary.Standings, 2)
			for _, file := range []string{"config.json", "standings.json", "strategy_summary.json", "matches.csv"} {
				_, err := os.Stat(filepath.Join(summary.ArtifactsDir, file))
				require.NoError(t, err, file)
			}

			runs, err := client.Runs(ctx, RunsRequest{})
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, summary.RunID, runs[0].RunID)
			assert.Equal(t, summary.Standings[0].Name, runs[0].Winner)

			standings, err := client.Standings(ctx, StandingsRequest{Latest: true})
			require.NoError(t, err)
			assert.Equal(t, summary.Standings, standings)

			matches, err := client.Matches(ctx, MatchesRequest{RunID: summary.RunID})
			require.NoError(t, err)
			require.Len(t, matches, 4)
			for _, m := range matches {
				assert.Equal(t, 100, m.Rounds)
			}

			limited, err := client.Matches(ctx, MatchesRequest{RunID: summary.RunID, Limit: 2})
			require.NoError(t, err)
			assert.Len(t, limited, 2)

			exported, err := client.Export(ctx, ExportRequest{Latest: true})
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(base, "exports", summary.RunID), exported.Directory)
			_, err = os.Stat(filepath.Join(exported.Directory, "standings.json"))
			assert.NoError(t, err)
		})
	}
}

func TestClientRunNiceVersusNasty(t *testing.T) {
	client, _ := newTestClient(t, "memory")
	summary, err := client.Run(context.Background(), RunRequest{Config: niceNastyConfig(), RunID: "nice-nasty"})
	require.NoError(t, err)
	assert.Equal(t, "nice-nasty", summary.RunID)

	var nice, nasty float64
	for _, st := range summary.Standings {
		switch st.Name {
		case strategy.NameAlwaysCooperate:
			nice = st.Score
		case strategy.NameAlwaysDefect:
			nasty = st.Score
		}
		assert.Equal(t, 6, st.Seats)
	}
	assert.GreaterOrEqual(t, nasty, nice)
}

func TestClientRunVerboseWritesMatchLog(t *testing.T) {
	client, _ := newTestClient(t, "memory")
	var buf bytes.Buffer
	_, err := client.Run(context.Background(), RunRequest{
		Config:   niceNastyConfig(),
		Verbose:  true,
		MatchLog: &buf,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 4, strings.Count(out, "Out of 100 times\n"))
	assert.Contains(t, out, "AlwaysCooperate scored 6 points, AlwaysCooperate scored 6 points, and AlwaysCooperate scored 6 points.\n")
	assert.Contains(t, out, "AlwaysDefect scored 2 points, AlwaysDefect scored 2 points, and AlwaysDefect scored 2 points.\n")
}

func TestClientRunRejectsInvalidConfig(t *testing.T) {
	client, _ := newTestClient(t, "memory")
	cfg := niceNastyConfig()
	cfg.Roster = append(cfg.Roster, config.RosterEntry{Strategy: "Nobody", Count: 1})

	_, err := client.Run(context.Background(), RunRequest{Config: cfg})
	require.ErrorIs(t, err, strategy.ErrStrategyNotFound)

	runs, err := client.Runs(context.Background(), RunsRequest{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestClientStandingsFallsBackToArtifacts(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	opts := Options{StoreKind: "memory", ArtifactsDir: filepath.Join(base, "artifacts")}

	first, err := New(opts)
	require.NoError(t, err)
	summary, err := first.Run(ctx, RunRequest{Config: niceNastyConfig()})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(opts)
	require.NoError(t, err)
	defer second.Close()

	standings, err := second.Standings(ctx, StandingsRequest{RunID: summary.RunID})
	require.NoError(t, err)
	assert.Equal(t, summary.Standings, standings)

	matches, err := second.Matches(ctx, MatchesRequest{Latest: true})
	require.NoError(t, err)
	assert.Len(t, matches, 4)
}

func TestClientRunWithoutRecording(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t, "memory")
	cfg := niceNastyConfig()
	cfg.Record = false

	summary, err := client.Run(ctx, RunRequest{Config: cfg})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(summary.ArtifactsDir, "matches.csv"))
	assert.True(t, os.IsNotExist(err))

	_, err = client.Matches(ctx, MatchesRequest{RunID: summary.RunID})
	assert.Error(t, err)
}

func TestClientRunIDSelection(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t, "memory")

	_, err := client.Standings(ctx, StandingsRequest{Latest: true})
	assert.Error(t, err, "no runs yet")
	_, err = client.Standings(ctx, StandingsRequest{})
	assert.Error(t, err)
	_, err = client.Standings(ctx, StandingsRequest{RunID: "x", Latest: true})
	assert.Error(t, err)
	_, err = client.Export(ctx, ExportRequest{})
	assert.Error(t, err)
	_, err = client.Matches(ctx, MatchesRequest{RunID: "x", Limit: -1})
	assert.Error(t, err)
	_, err = client.Standings(ctx, StandingsRequest{RunID: "missing"})
	assert.Error(t, err)
}

func TestClientDelete(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t, "sqlite")

	summary, err := client.Run(ctx, RunRequest{Config: niceNastyConfig()})
	require.NoError(t, err)
	require.NoError(t, client.Delete(ctx, summary.RunID))

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	assert.Empty(t, runs)
	_, err = client.Standings(ctx, StandingsRequest{RunID: summary.RunID})
	assert.Error(t, err)
	_, err = os.Stat(summary.ArtifactsDir)
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, client.Delete(ctx, ""))
}

func TestClientStrategies(t *testing.T) {
	client, _ := newTestClient(t, "memory")
	infos := client.Strategies()

	byName := make(map[string][]string)
	for _, info := range infos {
		byName[info.Name] = info.Aliases
	}
	assert.Contains(t, byName, strategy.NameEchoConsensus)
	assert.Equal(t, []string{"NastyPlayer"}, byName[strategy.NameAlwaysDefect])
	assert.Equal(t, []string{"NicePlayer"}, byName[strategy.NameAlwaysCooperate])
}

func TestClientSeries(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t, "memory")
	cfg := niceNastyConfig()
	cfg.Record = false
	cfg.Rounds = config.RoundsConfig{Min: 5, Max: 15}

	summary, err := client.Series(ctx, SeriesRequest{Config: cfg, SeriesID: "s1", Replicates: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1-001", "s1-002", "s1-003"}, summary.RunIDs)
	require.Len(t, summary.Stats, 2)
	for _, st := range summary.Stats {
		assert.Equal(t, 3, st.Runs)
		assert.LessOrEqual(t, st.Min, st.Mean)
		assert.LessOrEqual(t, st.Mean, st.Max)
	}

	require.Len(t, summary.Graphs, 2)
	for _, path := range summary.Graphs {
		_, err := os.Stat(path)
		require.NoError(t, err, path)
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	list, err := client.ListSeries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []int64{1, 2, 3}, list[0].Seeds)

	_, err = client.Series(ctx, SeriesRequest{Config: cfg, Replicates: 0})
	assert.Error(t, err)
}

func TestClientRejectsRunIDsOutsideArtifacts(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	keep := filepath.Join(root, "keep.txt")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))

	client, err := New(Options{StoreKind: "memory", ArtifactsDir: filepath.Join(root, "artifacts")})
	require.NoError(t, err)
	defer client.Close()

	for _, id := range []string{".", "..", "../escape", "a/b", `a\b`, "series", "run_index.json", strings.Repeat("x", 129)} {
		t.Run(id[:min(len(id), 16)], func(t *testing.T) {
			assert.ErrorIs(t, client.Delete(ctx, id), ErrInvalidRunID)

			_, err := client.Run(ctx, RunRequest{Config: niceNastyConfig(), RunID: id})
			assert.ErrorIs(t, err, ErrInvalidRunID)

			_, err = client.Standings(ctx, StandingsRequest{RunID: id})
			assert.ErrorIs(t, err, ErrInvalidRunID)

			_, err = client.Export(ctx, ExportRequest{RunID: id, OutDir: filepath.Join(root, "out")})
			assert.ErrorIs(t, err, ErrInvalidRunID)

			_, err = client.Series(ctx, SeriesRequest{Config: niceNastyConfig(), SeriesID: id, Replicates: 1})
			assert.ErrorIs(t, err, ErrInvalidRunID)
		})
	}

	_, err = os.Stat(keep)
	assert.NoError(t, err)
	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestClientDeleteUnknownRun(t *testing.T) {
	client, _ := newTestClient(t, "sqlite")
	assert.ErrorIs(t, client.Delete(context.Background(), "never-ran"), ErrRunNotFound)
}

func TestClientRunsReadsSQLiteStore(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	dbPath := filepath.Join(base, "trilemma.db")

	writer, err := New(Options{StoreKind: "sqlite", DBPath: dbPath, ArtifactsDir: filepath.Join(base, "a")})
	require.NoError(t, err)
	first, err := writer.Run(ctx, RunRequest{Config: niceNastyConfig(), RunID: "first"})
	require.NoError(t, err)
	cfg := niceNastyConfig()
	cfg.Seed = 9
	_, err = writer.Run(ctx, RunRequest{Config: cfg, RunID: "second"})
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	// A client with its own, empty artifacts directory only has the store.
	reader, err := New(Options{StoreKind: "sqlite", DBPath: dbPath, ArtifactsDir: filepath.Join(base, "b")})
	require.NoError(t, err)
	defer reader.Close()

	runs, err := reader.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "second", runs[0].RunID)
	assert.Equal(t, int64(9), runs[0].Seed)
	assert.Equal(t, "first", runs[1].RunID)
	assert.Equal(t, 2, runs[1].Population)
	assert.Equal(t, 4, runs[1].MatchCount)
	assert.Equal(t, 100, runs[1].MinRounds)
	assert.Equal(t, first.Standings[0].Name, runs[1].Winner)

	limited, err := reader.Runs(ctx, RunsRequest{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "second", limited[0].RunID)

	standings, err := reader.Standings(ctx, StandingsRequest{Latest: true})
	require.NoError(t, err)
	assert.Len(t, standings, 2)
}
