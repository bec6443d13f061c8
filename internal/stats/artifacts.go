package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"trilemma/internal/tournament"
)

const (
	runIndexFile        = "run_index.json"
	configFile          = "config.json"
	standingsFile       = "standings.json"
	strategySummaryFile = "strategy_summary.json"
	matchesFile         = "matches.csv"
)

var matchesHeader = []string{
	"index",
	"slot_a", "slot_b", "slot_c",
	"name_a", "name_b", "name_c",
	"rounds",
	"score_a", "score_b", "score_c",
}

type RosterGroup struct {
	Strategy string `json:"strategy"`
	Count    int    `json:"count"`
}

type RunConfig struct {
	RunID          string        `json:"run_id"`
	Seed           int64         `json:"seed"`
	Workers        int           `json:"workers"`
	MinRounds      int           `json:"min_rounds"`
	MaxRounds      int           `json:"max_rounds"`
	Roster         []RosterGroup `json:"roster"`
	PopulationSize int           `json:"population_size"`
	MatchCount     int           `json:"match_count"`
}

type RunArtifacts struct {
	Config    RunConfig                `json:"config"`
	Standings []Standing               `json:"standings"`
	Summary   []StrategySummary        `json:"summary"`
	Matches   []tournament.MatchReport `json:"matches,omitempty"`
}

type RunIndexEntry struct {
	RunID          string  `json:"run_id"`
	PopulationSize int     `json:"population_size"`
	MatchCount     int     `json:"match_count"`
	Seed           int64   `json:"seed"`
	Workers        int     `json:"workers"`
	MinRounds      int     `json:"min_rounds"`
	MaxRounds      int     `json:"max_rounds"`
	Winner         string  `json:"winner"`
	WinnerScore    float64 `json:"winner_score"`
	CreatedAtUTC   string  `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, standingsFile), artifacts.Standings); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, strategySummaryFile), artifacts.Summary); err != nil {
		return "", err
	}
	if len(artifacts.Matches) > 0 {
		if err := WriteMatches(runDir, artifacts.Matches); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs, newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Later appends win ties.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// RemoveRun deletes a run's artifact directory and its index entry. It is
// not an error if neither exists.
func RemoveRun(baseDir, runID string) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if runID == "." || runID == ".." || filepath.Base(runID) != runID || strings.ContainsAny(runID, `/\`) {
		return fmt.Errorf("run id must name a single directory: %q", runID)
	}
	if err := os.RemoveAll(filepath.Join(baseDir, runID)); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}
	kept := index[:0]
	for _, entry := range index {
		if entry.RunID != runID {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(index) {
		return nil
	}
	return writeJSON(filepath.Join(baseDir, runIndexFile), kept)
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, standingsFile, strategySummaryFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	matchesPath := filepath.Join(src, matchesFile)
	if _, err := os.Stat(matchesPath); err == nil {
		if err := copyFile(matchesPath, filepath.Join(dst, matchesFile)); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &cfg)
	if err != nil || !ok {
		return RunConfig{}, ok, err
	}
	return cfg, true, nil
}

func ReadStandings(baseDir, runID string) ([]Standing, bool, error) {
	var standings []Standing
	ok, err := readJSON(filepath.Join(baseDir, runID, standingsFile), &standings)
	if err != nil || !ok {
		return nil, ok, err
	}
	return standings, true, nil
}

func ReadStrategySummary(baseDir, runID string) ([]StrategySummary, bool, error) {
	var summary []StrategySummary
	ok, err := readJSON(filepath.Join(baseDir, runID, strategySummaryFile), &summary)
	if err != nil || !ok {
		return nil, ok, err
	}
	return summary, true, nil
}

// WriteMatches stores per-match totals as CSV, one row per match.
func WriteMatches(runDir string, matches []tournament.MatchReport) error {
	file, err := os.Create(filepath.Join(runDir, matchesFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(matchesHeader); err != nil {
		return err
	}
	for _, m := range matches {
		row := make([]string, 0, len(matchesHeader))
		row = append(row, strconv.Itoa(m.Index))
		for _, slot := range m.Slots {
			row = append(row, strconv.Itoa(slot))
		}
		row = append(row, m.Names[:]...)
		row = append(row, strconv.Itoa(m.Rounds))
		for _, score := range m.Scores {
			row = append(row, strconv.FormatFloat(score, 'f', -1, 64))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadMatches(baseDir, runID string) ([]tournament.MatchReport, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, matchesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(matchesHeader)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []tournament.MatchReport{}, true, nil
		}
		return nil, false, err
	}
	if strings.Join(header, ",") != strings.Join(matchesHeader, ",") {
		return nil, false, fmt.Errorf("unexpected matches header: %v", header)
	}

	matches := make([]tournament.MatchReport, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		m, err := parseMatchRow(record)
		if err != nil {
			return nil, false, err
		}
		matches = append(matches, m)
	}
	return matches, true, nil
}

func parseMatchRow(record []string) (tournament.MatchReport, error) {
	var m tournament.MatchReport
	ints := make([]int, 5)
	for i, col := range []int{0, 1, 2, 3, 7} {
		v, err := strconv.Atoi(record[col])
		if err != nil {
			return tournament.MatchReport{}, fmt.Errorf("parse %s: %w", matchesHeader[col], err)
		}
		ints[i] = v
	}
	m.Index = ints[0]
	m.Slots = tournament.Triple{ints[1], ints[2], ints[3]}
	m.Rounds = ints[4]
	copy(m.Names[:], record[4:7])
	for i := range m.Scores {
		v, err := strconv.ParseFloat(record[8+i], 64)
		if err != nil {
			return tournament.MatchReport{}, fmt.Errorf("parse %s: %w", matchesHeader[8+i], err)
		}
		m.Scores[i] = v
	}
	return m, nil
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
