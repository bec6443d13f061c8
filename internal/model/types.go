package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type RosterGroup struct {
	Strategy string `json:"strategy"`
	Count    int    `json:"count"`
}

// Tournament is the stored header of a completed run.
type Tournament struct {
	VersionedRecord
	ID             string        `json:"id"`
	Seed           int64         `json:"seed"`
	Workers        int           `json:"workers"`
	MinRounds      int           `json:"min_rounds"`
	MaxRounds      int           `json:"max_rounds"`
	Roster         []RosterGroup `json:"roster"`
	PopulationSize int           `json:"population_size"`
	MatchCount     int           `json:"match_count"`
	Winner         string        `json:"winner"`
	WinnerScore    float64       `json:"winner_score"`
	ElapsedMS      int64         `json:"elapsed_ms"`
	CreatedAtUTC   string        `json:"created_at_utc"`
}

type Standing struct {
	Rank        int     `json:"rank"`
	Slot        int     `json:"slot"`
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Seats       int     `json:"seats"`
	MeanPerSeat float64 `json:"mean_per_seat"`
}

type StandingsRecord struct {
	VersionedRecord
	RunID     string     `json:"run_id"`
	Standings []Standing `json:"standings"`
}

// Match is one played triple: slots and names are in seat order.
type Match struct {
	Index  int        `json:"index"`
	Slots  [3]int     `json:"slots"`
	Names  [3]string  `json:"names"`
	Rounds int        `json:"rounds"`
	Scores [3]float64 `json:"scores"`
}

type MatchesRecord struct {
	VersionedRecord
	RunID   string  `json:"run_id"`
	Matches []Match `json:"matches"`
}
