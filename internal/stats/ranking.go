package stats

import (
	"fmt"
	"sort"
)

// Ranking lists slot indices from best to worst total score.
type Ranking []int

// Rank orders slots by descending score. Equal scores keep the smaller slot
// first.
func Rank(scores []float64) Ranking {
	order := make(Ranking, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	return order
}

type Standing struct {
	Rank        int     `json:"rank"`
	Slot        int     `json:"slot"`
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Seats       int     `json:"seats"`
	MeanPerSeat float64 `json:"mean_per_seat"`
}

// BuildStandings joins per-slot names, totals and seat counts into rank
// order. seats may be nil.
func BuildStandings(names []string, scores []float64, seats []int) ([]Standing, error) {
	if len(names) != len(scores) {
		return nil, fmt.Errorf("names/scores length mismatch: %d != %d", len(names), len(scores))
	}
	if seats != nil && len(seats) != len(scores) {
		return nil, fmt.Errorf("seats/scores length mismatch: %d != %d", len(seats), len(scores))
	}

	order := Rank(scores)
	standings := make([]Standing, 0, len(order))
	for i, slot := range order {
		st := Standing{
			Rank:  i + 1,
			Slot:  slot,
			Name:  names[slot],
			Score: scores[slot],
		}
		if seats != nil {
			st.Seats = seats[slot]
			if st.Seats > 0 {
				st.MeanPerSeat = st.Score / float64(st.Seats)
			}
		}
		standings = append(standings, st)
	}
	return standings, nil
}

// StrategySummary aggregates every slot running the same strategy.
type StrategySummary struct {
	Name        string  `json:"name"`
	Slots       int     `json:"slots"`
	Total       float64 `json:"total"`
	MeanPerSlot float64 `json:"mean_per_slot"`
	BestRank    int     `json:"best_rank"`
	WorstRank   int     `json:"worst_rank"`
}

// SummarizeByStrategy groups standings by name. The result is ordered by
// descending mean per slot, then by name.
func SummarizeByStrategy(standings []Standing) []StrategySummary {
	byName := make(map[string]*StrategySummary)
	for _, st := range standings {
		sum, ok := byName[st.Name]
		if !ok {
			sum = &StrategySummary{Name: st.Name, BestRank: st.Rank, WorstRank: st.Rank}
			byName[st.Name] = sum
		}
		sum.Slots++
		sum.Total += st.Score
		if st.Rank < sum.BestRank {
			sum.BestRank = st.Rank
		}
		if st.Rank > sum.WorstRank {
			sum.WorstRank = st.Rank
		}
	}

	out := make([]StrategySummary, 0, len(byName))
	for _, sum := range byName {
		sum.MeanPerSlot = sum.Total / float64(sum.Slots)
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanPerSlot == out[j].MeanPerSlot {
			return out[i].Name < out[j].Name
		}
		return out[i].MeanPerSlot > out[j].MeanPerSlot
	})
	return out
}
