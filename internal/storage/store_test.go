package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trilemma/internal/model"
)

func sampleTournament(id, createdAt string) model.Tournament {
	return model.Tournament{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		Seed:            11,
		Workers:         4,
		MinRounds:       90,
		MaxRounds:       110,
		Roster: []model.RosterGroup{
			{Strategy: "AlwaysCooperate", Count: 1},
			{Strategy: "AlwaysDefect", Count: 1},
		},
		PopulationSize: 2,
		MatchCount:     4,
		Winner:         "AlwaysDefect",
		WinnerScore:    30.5,
		CreatedAtUTC:   createdAt,
	}
}

// exerciseStore runs the behaviour every Store backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.GetTournament(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	first := sampleTournament("run-1", "2026-01-01T00:00:00Z")
	second := sampleTournament("run-2", "2026-01-02T00:00:00Z")
	third := sampleTournament("run-3", "2026-01-02T00:00:00Z")
	for _, tr := range []model.Tournament{first, second, third} {
		require.NoError(t, store.SaveTournament(ctx, tr))
	}

	got, ok, err := store.GetTournament(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, got)

	first.Winner = "MajorityRule"
	require.NoError(t, store.SaveTournament(ctx, first))
	got, _, err = store.GetTournament(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "MajorityRule", got.Winner)

	list, err := store.ListTournaments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"run-2", "run-3", "run-1"}, []string{list[0].ID, list[1].ID, list[2].ID})

	list, err = store.ListTournaments(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "run-2", list[0].ID)

	standings := []model.Standing{
		{Rank: 1, Slot: 1, Name: "AlwaysDefect", Score: 30.5, Seats: 6, MeanPerSeat: 30.5 / 6},
		{Rank: 2, Slot: 0, Name: "AlwaysCooperate", Score: 24, Seats: 6, MeanPerSeat: 4},
	}
	require.NoError(t, store.SaveStandings(ctx, "run-1", standings))
	gotStandings, ok, err := store.GetStandings(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, standings, gotStandings)

	matches := []model.Match{
		{Index: 0, Slots: [3]int{0, 0, 1}, Names: [3]string{"AlwaysCooperate", "AlwaysCooperate", "AlwaysDefect"}, Rounds: 100, Scores: [3]float64{3, 3, 8}},
	}
	require.NoError(t, store.SaveMatches(ctx, "run-1", matches))
	gotMatches, ok, err := store.GetMatches(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, matches, gotMatches)

	_, ok, err = store.GetMatches(ctx, "run-2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.DeleteTournament(ctx, "run-1"))
	_, ok, err = store.GetTournament(ctx, "run-1")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.GetStandings(ctx, "run-1")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.GetMatches(ctx, "run-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.DeleteTournament(ctx, "never-saved"))
}
