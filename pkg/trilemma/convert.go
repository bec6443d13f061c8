package trilemma

import (
	"trilemma/internal/config"
	"trilemma/internal/model"
	"trilemma/internal/stats"
	"trilemma/internal/tournament"
)

func modelRoster(entries []config.RosterEntry) []model.RosterGroup {
	out := make([]model.RosterGroup, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.RosterGroup{Strategy: e.Strategy, Count: e.Count})
	}
	return out
}

func statsRoster(entries []config.RosterEntry) []stats.RosterGroup {
	out := make([]stats.RosterGroup, 0, len(entries))
	for _, e := range entries {
		out = append(out, stats.RosterGroup{Strategy: e.Strategy, Count: e.Count})
	}
	return out
}

func toModelStandings(in []stats.Standing) []model.Standing {
	out := make([]model.Standing, 0, len(in))
	for _, st := range in {
		out = append(out, model.Standing(st))
	}
	return out
}

func fromModelStandings(in []model.Standing) []stats.Standing {
	out := make([]stats.Standing, 0, len(in))
	for _, st := range in {
		out = append(out, stats.Standing(st))
	}
	return out
}

func toModelMatches(in []tournament.MatchReport) []model.Match {
	out := make([]model.Match, 0, len(in))
	for _, m := range in {
		out = append(out, model.Match{
			Index:  m.Index,
			Slots:  [3]int(m.Slots),
			Names:  m.Names,
			Rounds: m.Rounds,
			Scores: m.Scores,
		})
	}
	return out
}

func fromModelMatches(in []model.Match) []tournament.MatchReport {
	out := make([]tournament.MatchReport, 0, len(in))
	for _, m := range in {
		out = append(out, tournament.MatchReport{
			Index:  m.Index,
			Slots:  tournament.Triple(m.Slots),
			Names:  m.Names,
			Rounds: m.Rounds,
			Scores: m.Scores,
		})
	}
	return out
}
