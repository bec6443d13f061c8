package trilemma

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trilemma/internal/config"
	"trilemma/internal/stats"
)

type SeriesRequest struct {
	Config     *config.Config
	SeriesID   string
	Replicates int
}

type SeriesSummary struct {
	SeriesID string
	RunIDs   []string
	Stats    []stats.SeriesStat
	Graphs   []string
}

// Series replays one roster under Replicates consecutive seeds, starting at
// the configured seed. Every replicate is a full persisted run.
func (c *Client) Series(ctx context.Context, req SeriesRequest) (SeriesSummary, error) {
	if req.Replicates <= 0 {
		return SeriesSummary{}, errors.New("replicates must be > 0")
	}
	base := req.Config
	if base == nil {
		base = config.DefaultConfig()
	}
	if err := base.Validate(); err != nil {
		return SeriesSummary{}, fmt.Errorf("invalid config: %w", err)
	}
	seriesID := req.SeriesID
	if seriesID == "" {
		seriesID = uuid.NewString()
	}
	if err := validateRunID(seriesID); err != nil {
		return SeriesSummary{}, fmt.Errorf("series id: %w", err)
	}

	series := stats.Series{
		ID:           seriesID,
		StartedAtUTC: c.now().UTC().Format(timestampLayout),
		Replicates:   req.Replicates,
	}
	perRun := make([][]stats.StrategySummary, 0, req.Replicates)
	for i := 0; i < req.Replicates; i++ {
		cfg := *base
		cfg.Seed = base.Seed + int64(i)
		cfg.Verbose = false

		run, err := c.Run(ctx, RunRequest{
			Config: &cfg,
			RunID:  fmt.Sprintf("%s-%03d", seriesID, i+1),
		})
		if err != nil {
			return SeriesSummary{}, fmt.Errorf("replicate %d: %w", i+1, err)
		}
		series.Seeds = append(series.Seeds, cfg.Seed)
		series.RunIDs = append(series.RunIDs, run.RunID)
		perRun = append(perRun, run.Summary)
	}
	series.Stats = stats.SummarizeSeries(perRun)
	series.CompletedAtUTC = c.now().UTC().Format(timestampLayout)

	if err := stats.WriteSeries(c.artifactsDir, series); err != nil {
		return SeriesSummary{}, err
	}
	graphs, err := stats.WriteSeriesGraphs(c.artifactsDir, seriesID, stats.BuildSeriesGraphs(perRun))
	if err != nil {
		return SeriesSummary{}, err
	}
	c.log.Info("series completed",
		zap.String("series_id", seriesID),
		zap.Int("replicates", req.Replicates),
	)
	return SeriesSummary{
		SeriesID: seriesID,
		RunIDs:   append([]string(nil), series.RunIDs...),
		Stats:    series.Stats,
		Graphs:   graphs,
	}, nil
}

// ListSeries returns stored series, most recently started first.
func (c *Client) ListSeries(_ context.Context) ([]stats.Series, error) {
	return stats.ListSeries(c.artifactsDir)
}
