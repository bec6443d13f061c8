package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// SeriesGraph is the per-replicate trace of one strategy within a series.
// Index is the 1-based replicate number.
type SeriesGraph struct {
	Strategy    string    `json:"strategy"`
	Index       []int     `json:"index"`
	MeanPerSlot []float64 `json:"mean_per_slot"`
	RunningAvg  []float64 `json:"running_avg"`
	RunningStd  []float64 `json:"running_std"`
	BestRank    []float64 `json:"best_rank"`
}

// BuildSeriesGraphs turns per-replicate strategy summaries into one graph per
// strategy, ordered by name. A strategy missing from a replicate is skipped
// for that replicate.
func BuildSeriesGraphs(runs [][]StrategySummary) []SeriesGraph {
	byName := make(map[string]*SeriesGraph)
	for i, run := range runs {
		for _, sum := range run {
			graph, ok := byName[sum.Name]
			if !ok {
				graph = &SeriesGraph{Strategy: sum.Name}
				byName[sum.Name] = graph
			}
			graph.Index = append(graph.Index, i+1)
			graph.MeanPerSlot = append(graph.MeanPerSlot, sum.MeanPerSlot)
			graph.BestRank = append(graph.BestRank, float64(sum.BestRank))

			mean, std, _, _ := seriesStats(graph.MeanPerSlot)
			graph.RunningAvg = append(graph.RunningAvg, mean)
			graph.RunningStd = append(graph.RunningStd, std)
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	graphs := make([]SeriesGraph, 0, len(names))
	for _, name := range names {
		graphs = append(graphs, *byName[name])
	}
	return graphs
}

// WriteSeriesGraphs writes one gnuplot-friendly data file per strategy under
// the series directory and returns the paths written, sorted.
func WriteSeriesGraphs(baseDir, seriesID string, graphs []SeriesGraph) ([]string, error) {
	if seriesID == "" {
		return nil, fmt.Errorf("series id is required")
	}
	outputDir := filepath.Join(baseDir, seriesDir, seriesID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(graphs))
	for _, graph := range graphs {
		path := filepath.Join(outputDir, "graph_"+sanitizeGraphToken(graph.Strategy)+".dat")
		if err := writeSeriesGraphFile(path, graph); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func writeSeriesGraphFile(path string, graph SeriesGraph) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "#Mean Per Slot Vs Replicate, Strategy:%s\n", graph.Strategy); err != nil {
		return err
	}
	if err := writeSeries(file, graph.Index, graph.MeanPerSlot); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(file, "\n\n#Running Avg Mean Per Slot Vs Replicate, Strategy:%s\n", graph.Strategy); err != nil {
		return err
	}
	if err := writeSeriesWithStd(file, graph.Index, graph.RunningAvg, graph.RunningStd); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(file, "\n\n#Best Rank Vs Replicate, Strategy:%s\n", graph.Strategy); err != nil {
		return err
	}
	if err := writeSeries(file, graph.Index, graph.BestRank); err != nil {
		return err
	}
	return file.Close()
}

func writeSeriesWithStd(file *os.File, index []int, values, std []float64) error {
	length := min(len(index), len(values), len(std))
	for i := 0; i < length; i++ {
		if _, err := fmt.Fprintf(file, "%d %g %g\n", index[i], values[i], std[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeSeries(file *os.File, index []int, values []float64) error {
	length := min(len(index), len(values))
	for i := 0; i < length; i++ {
		if _, err := fmt.Fprintf(file, "%d %g\n", index[i], values[i]); err != nil {
			return err
		}
	}
	return nil
}

func sanitizeGraphToken(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	token := strings.Trim(b.String(), "_")
	if token == "" {
		return "unknown"
	}
	return token
}
