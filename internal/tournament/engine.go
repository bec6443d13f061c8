package tournament

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trilemma/internal/game"
)

type Config struct {
	Roster  Roster
	Rounds  RoundRange
	Workers int
	Seed    int64
	// Record keeps every MatchReport in the Result.
	Record bool
	// OnMatch is called once per match, in enumeration order, after all
	// matches have been played.
	OnMatch func(MatchReport)
	Logger  *zap.Logger
}

type MatchReport struct {
	Index  int        `json:"index"`
	Slots  Triple     `json:"slots"`
	Names  [3]string  `json:"names"`
	Rounds int        `json:"rounds"`
	Scores [3]float64 `json:"scores"`
}

// ScoreTable is the cumulative score per slot.
type ScoreTable []float64

type Result struct {
	Scores ScoreTable
	// Participation counts the seats each slot filled; a slot appearing
	// twice in one match counts twice.
	Participation []int
	MatchCount    int
	Matches       []MatchReport
	Elapsed       time.Duration
}

type Engine struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config) (*Engine, error) {
	if err := cfg.Roster.validate(); err != nil {
		return nil, err
	}
	if cfg.Rounds == (RoundRange{}) {
		cfg.Rounds = DefaultRoundRange()
	}
	if err := cfg.Rounds.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, log: log}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Run plays every match of the tournament and accumulates per-slot scores.
// Matches may run concurrently; the score table is reduced in enumeration
// order so results do not depend on the worker count.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	triples := Triples(len(e.cfg.Roster))
	e.log.Info("tournament started",
		zap.Int("slots", len(e.cfg.Roster)),
		zap.Int("matches", len(triples)),
		zap.Int("workers", e.cfg.Workers),
		zap.Int("min_rounds", e.cfg.Rounds.Min),
		zap.Int("max_rounds", e.cfg.Rounds.Max),
		zap.Int64("seed", e.cfg.Seed),
	)

	reports := make([]MatchReport, len(triples))
	if err := e.playAll(ctx, triples, reports); err != nil {
		return Result{}, err
	}

	result := Result{
		Scores:        make(ScoreTable, len(e.cfg.Roster)),
		Participation: make([]int, len(e.cfg.Roster)),
		MatchCount:    len(triples),
	}
	for _, rep := range reports {
		for seat, slot := range rep.Slots {
			result.Scores[slot] += rep.Scores[seat]
			result.Participation[slot]++
		}
		if e.cfg.OnMatch != nil {
			e.cfg.OnMatch(rep)
		}
	}
	if e.cfg.Record {
		result.Matches = reports
	}
	result.Elapsed = time.Since(start)

	e.log.Info("tournament finished",
		zap.Int("matches", result.MatchCount),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (e *Engine) playAll(ctx context.Context, triples []Triple, reports []MatchReport) error {
	if e.cfg.Workers == 1 {
		for idx, tr := range triples {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, err := e.playMatch(ctx, idx, tr)
			if err != nil {
				return err
			}
			reports[idx] = rep
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for idx, tr := range triples {
		if gctx.Err() != nil {
			break
		}
		idx, tr := idx, tr
		g.Go(func() error {
			rep, err := e.playMatch(gctx, idx, tr)
			if err != nil {
				return err
			}
			reports[idx] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (e *Engine) playMatch(ctx context.Context, idx int, tr Triple) (MatchReport, error) {
	rng := rand.New(rand.NewSource(matchSeed(e.cfg.Seed, idx)))

	var players [game.Seats]game.Player
	var names [3]string
	for seat, slot := range tr {
		entry := e.cfg.Roster[slot]
		agent := entry.Factory(rand.New(rand.NewSource(rng.Int63())))
		if agent == nil {
			return MatchReport{}, fmt.Errorf("match %d: slot %d (%s) factory returned nil", idx, slot, entry.Name)
		}
		players[seat] = agent
		names[seat] = entry.Name
	}
	rounds := e.cfg.Rounds.Draw(rng)

	res, err := game.PlayMatch(ctx, players, rounds)
	if err != nil {
		return MatchReport{}, fmt.Errorf("match %d %v: %w", idx, tr, err)
	}

	if ce := e.log.Check(zap.DebugLevel, "match played"); ce != nil {
		ce.Write(
			zap.Int("index", idx),
			zap.Ints("slots", tr[:]),
			zap.Int("rounds", rounds),
			zap.Float64s("scores", res.Scores[:]),
		)
	}
	return MatchReport{
		Index:  idx,
		Slots:  tr,
		Names:  names,
		Rounds: rounds,
		Scores: res.Scores,
	}, nil
}

// matchSeed derives an independent stream per match (splitmix64 finaliser).
func matchSeed(seed int64, index int) int64 {
	z := uint64(seed) + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}
