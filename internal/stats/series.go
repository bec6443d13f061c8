package stats

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

const seriesDir = "series"

// Series records a batch of replicate tournaments run over the same roster
// with consecutive seeds.
type Series struct {
	ID             string       `json:"id"`
	StartedAtUTC   string       `json:"started_at_utc,omitempty"`
	CompletedAtUTC string       `json:"completed_at_utc,omitempty"`
	Replicates     int          `json:"replicates"`
	Seeds          []int64      `json:"seeds,omitempty"`
	RunIDs         []string     `json:"run_ids,omitempty"`
	Stats          []SeriesStat `json:"stats,omitempty"`
}

// SeriesStat describes how one strategy's mean per slot varied across
// replicates. Wins counts replicates where a slot of the strategy ranked
// first.
type SeriesStat struct {
	Name string  `json:"name"`
	Runs int     `json:"runs"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Max  float64 `json:"max"`
	Min  float64 `json:"min"`
	Wins int     `json:"wins"`
}

// SummarizeSeries folds per-run strategy summaries into one SeriesStat per
// strategy, ordered by descending mean then name.
func SummarizeSeries(runs [][]StrategySummary) []SeriesStat {
	values := make(map[string][]float64)
	wins := make(map[string]int)
	for _, run := range runs {
		for _, sum := range run {
			values[sum.Name] = append(values[sum.Name], sum.MeanPerSlot)
			if sum.BestRank == 1 {
				wins[sum.Name]++
			}
		}
	}

	out := make([]SeriesStat, 0, len(values))
	for name, vals := range values {
		mean, std, max, min := seriesStats(vals)
		out = append(out, SeriesStat{
			Name: name,
			Runs: len(vals),
			Mean: mean,
			Std:  std,
			Max:  max,
			Min:  min,
			Wins: wins[name],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mean == out[j].Mean {
			return out[i].Name < out[j].Name
		}
		return out[i].Mean > out[j].Mean
	})
	return out
}

func seriesStats(values []float64) (mean, std, max, min float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	min = values[0]
	max = values[0]
	total := 0.0
	for _, value := range values {
		total += value
		if value > max {
			max = value
		}
		if value < min {
			min = value
		}
	}
	mean = total / float64(len(values))
	sumSq := 0.0
	for _, value := range values {
		diff := mean - value
		sumSq += diff * diff
	}
	std = math.Sqrt(sumSq / float64(len(values)))
	return mean, std, max, min
}

func WriteSeries(baseDir string, s Series) error {
	if s.ID == "" {
		return fmt.Errorf("series id is required")
	}
	path := seriesPath(baseDir, s.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeJSON(path, s)
}

func ReadSeries(baseDir, id string) (Series, bool, error) {
	if id == "" {
		return Series{}, false, fmt.Errorf("series id is required")
	}
	var s Series
	ok, err := readJSON(seriesPath(baseDir, id), &s)
	if err != nil || !ok {
		return Series{}, ok, err
	}
	return s, true, nil
}

// ListSeries returns stored series, most recently started first.
func ListSeries(baseDir string) ([]Series, error) {
	root := filepath.Join(baseDir, seriesDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []Series{}, nil
		}
		return nil, err
	}

	out := make([]Series, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		s, ok, err := ReadSeries(baseDir, entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		switch {
		case out[i].StartedAtUTC == out[j].StartedAtUTC:
			return out[i].ID < out[j].ID
		case out[i].StartedAtUTC == "":
			return false
		case out[j].StartedAtUTC == "":
			return true
		default:
			return out[i].StartedAtUTC > out[j].StartedAtUTC
		}
	})
	return out, nil
}

func seriesPath(baseDir, id string) string {
	return filepath.Join(baseDir, seriesDir, id, "series.json")
}
