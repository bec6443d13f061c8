package trilemma

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trilemma/internal/config"
	"trilemma/internal/model"
	"trilemma/internal/stats"
	"trilemma/internal/storage"
	"trilemma/internal/strategy"
	"trilemma/internal/tournament"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultExportsDir   = "exports"
	defaultDBPath       = "trilemma.db"
	defaultRunsLimit    = 20

	// timestampLayout is fixed width so timestamps order as strings.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *zap.Logger
}

type Client struct {
	store storage.Store
	log   *zap.Logger

	artifactsDir string
	exportsDir   string

	initMu      sync.Mutex
	initialized bool

	now func() time.Time
}

type RunRequest struct {
	// Config defaults to config.DefaultConfig when nil.
	Config *config.Config
	RunID  string
	// Verbose writes a two-line summary of every match to MatchLog.
	Verbose  bool
	MatchLog io.Writer
}

type RunSummary struct {
	RunID          string
	Standings      []stats.Standing
	Summary        []stats.StrategySummary
	PopulationSize int
	MatchCount     int
	Elapsed        time.Duration
	ArtifactsDir   string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Seed         int64
	Population   int
	MatchCount   int
	MinRounds    int
	MaxRounds    int
	Winner       string
	WinnerScore  float64
}

type StandingsRequest struct {
	RunID  string
	Latest bool
}

type MatchesRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type StrategyInfo struct {
	Name    string
	Aliases []string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		log:          log,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
		now:          time.Now,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureStore(ctx)
}

// Run validates the configuration, plays the whole tournament, then
// persists the result to the store and the artifacts directory.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := req.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, fmt.Errorf("invalid config: %w", err)
	}
	roster, err := tournament.BuildRoster(cfg.Groups())
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	if err := validateRunID(runID); err != nil {
		return RunSummary{}, err
	}
	log := c.log.With(zap.String("run_id", runID))

	verbose := req.Verbose || cfg.Verbose
	matchLog := req.MatchLog
	if matchLog == nil {
		matchLog = io.Discard
	}
	var logErr error
	tcfg := tournament.Config{
		Roster:  roster,
		Rounds:  cfg.RoundRange(),
		Workers: cfg.Workers,
		Seed:    cfg.Seed,
		Record:  cfg.Record,
		Logger:  log,
	}
	if verbose {
		tcfg.OnMatch = func(m tournament.MatchReport) {
			if logErr == nil {
				logErr = stats.WriteMatchLog(matchLog, m)
			}
		}
	}

	engine, err := tournament.New(tcfg)
	if err != nil {
		return RunSummary{}, err
	}
	result, err := engine.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	if logErr != nil {
		return RunSummary{}, fmt.Errorf("write match log: %w", logErr)
	}

	standings, err := stats.BuildStandings(roster.Names(), result.Scores, result.Participation)
	if err != nil {
		return RunSummary{}, err
	}
	summary := stats.SummarizeByStrategy(standings)
	now := c.now().UTC()

	winner := standings[0]
	if err := c.store.SaveTournament(ctx, model.Tournament{
		VersionedRecord: storage.CurrentVersion(),
		ID:              runID,
		Seed:            cfg.Seed,
		Workers:         engine.Config().Workers,
		MinRounds:       cfg.Rounds.Min,
		MaxRounds:       cfg.Rounds.Max,
		Roster:          modelRoster(cfg.Roster),
		PopulationSize:  len(roster),
		MatchCount:      result.MatchCount,
		Winner:          winner.Name,
		WinnerScore:     winner.Score,
		ElapsedMS:       result.Elapsed.Milliseconds(),
		CreatedAtUTC:    now.Format(timestampLayout),
	}); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveStandings(ctx, runID, toModelStandings(standings)); err != nil {
		return RunSummary{}, err
	}
	if len(result.Matches) > 0 {
		if err := c.store.SaveMatches(ctx, runID, toModelMatches(result.Matches)); err != nil {
			return RunSummary{}, err
		}
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:          runID,
			Seed:           cfg.Seed,
			Workers:        engine.Config().Workers,
			MinRounds:      cfg.Rounds.Min,
			MaxRounds:      cfg.Rounds.Max,
			Roster:         statsRoster(cfg.Roster),
			PopulationSize: len(roster),
			MatchCount:     result.MatchCount,
		},
		Standings: standings,
		Summary:   summary,
		Matches:   result.Matches,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:          runID,
		PopulationSize: len(roster),
		MatchCount:     result.MatchCount,
		Seed:           cfg.Seed,
		Workers:        engine.Config().Workers,
		MinRounds:      cfg.Rounds.Min,
		MaxRounds:      cfg.Rounds.Max,
		Winner:         winner.Name,
		WinnerScore:    winner.Score,
		CreatedAtUTC:   now.Format(timestampLayout),
	}); err != nil {
		return RunSummary{}, err
	}

	log.Info("run persisted",
		zap.String("winner", winner.Name),
		zap.Float64("winner_score", winner.Score),
		zap.String("artifacts_dir", runDir),
	)
	return RunSummary{
		RunID:          runID,
		Standings:      standings,
		Summary:        summary,
		PopulationSize: len(roster),
		MatchCount:     result.MatchCount,
		Elapsed:        result.Elapsed,
		ArtifactsDir:   filepath.Clean(runDir),
	}, nil
}

// Runs lists recorded runs, newest first. Tournaments held by the store
// take precedence; the run index supplies runs the store does not know, such
// as those made by other processes with the in-memory store.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	stored, err := c.store.ListTournaments(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}

	out := make([]RunItem, 0, len(stored)+len(entries))
	seen := make(map[string]bool, len(stored))
	for _, t := range stored {
		seen[t.ID] = true
		out = append(out, RunItem{
			RunID:        t.ID,
			CreatedAtUTC: t.CreatedAtUTC,
			Seed:         t.Seed,
			Population:   t.PopulationSize,
			MatchCount:   t.MatchCount,
			MinRounds:    t.MinRounds,
			MaxRounds:    t.MaxRounds,
			Winner:       t.Winner,
			WinnerScore:  t.WinnerScore,
		})
	}
	for _, e := range entries {
		if seen[e.RunID] {
			continue
		}
		seen[e.RunID] = true
		out = append(out, RunItem{
			RunID:        e.RunID,
			CreatedAtUTC: e.CreatedAtUTC,
			Seed:         e.Seed,
			Population:   e.PopulationSize,
			MatchCount:   e.MatchCount,
			MinRounds:    e.MinRounds,
			MaxRounds:    e.MaxRounds,
			Winner:       e.Winner,
			WinnerScore:  e.WinnerScore,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAtUTC > out[j].CreatedAtUTC
	})
	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

// Standings returns a run's ranked standings, from the store when it holds
// the run and from the artifacts directory otherwise.
func (c *Client) Standings(ctx context.Context, req StandingsRequest) ([]stats.Standing, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	stored, ok, err := c.store.GetStandings(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return fromModelStandings(stored), nil
	}
	standings, ok, err := stats.ReadStandings(c.artifactsDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("standings not found for run id: %s", runID)
	}
	return standings, nil
}

// Matches returns the recorded per-match totals of a run. Runs played
// without recording have none.
func (c *Client) Matches(ctx context.Context, req MatchesRequest) ([]tournament.MatchReport, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	var matches []tournament.MatchReport
	stored, ok, err := c.store.GetMatches(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		matches = fromModelMatches(stored)
	} else {
		matches, ok, err = stats.ReadMatches(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("matches not recorded for run id: %s", runID)
		}
	}
	if req.Limit > 0 && len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}
	return matches, nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Delete removes a run from the store, the artifacts directory and the run
// index. A run unknown to both the store and the artifacts directory is
// ErrRunNotFound.
func (c *Client) Delete(ctx context.Context, runID string) error {
	if err := validateRunID(runID); err != nil {
		return err
	}
	if err := c.ensureStore(ctx); err != nil {
		return err
	}
	_, inStore, err := c.store.GetTournament(ctx, runID)
	if err != nil {
		return err
	}
	_, onDisk, err := stats.ReadRunConfig(c.artifactsDir, runID)
	if err != nil {
		return err
	}
	if !inStore && !onDisk {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err := c.store.DeleteTournament(ctx, runID); err != nil {
		return err
	}
	if err := stats.RemoveRun(c.artifactsDir, runID); err != nil {
		return err
	}
	c.log.Info("run deleted", zap.String("run_id", runID))
	return nil
}

// Strategies lists every registered strategy with the aliases that resolve
// to it.
func (c *Client) Strategies() []StrategyInfo {
	aliases := make(map[string][]string)
	for alias, name := range strategy.Aliases() {
		aliases[name] = append(aliases[name], alias)
	}

	names := strategy.Names()
	out := make([]StrategyInfo, 0, len(names))
	for _, name := range names {
		list := aliases[name]
		sort.Strings(list)
		out = append(out, StrategyInfo{Name: name, Aliases: list})
	}
	return out
}

// resolveRunID picks the run named by runID or, with latest, the newest run.
// It also initialises the store.
func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if err := c.ensureStore(ctx); err != nil {
		return "", err
	}
	if runID != "" {
		if err := validateRunID(runID); err != nil {
			return "", err
		}
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}
	runs, err := c.Runs(ctx, RunsRequest{Limit: 1})
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs available")
	}
	return runs[0].RunID, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}
