package strategy

import (
	"math/rand"

	"trilemma/internal/game"
)

const (
	NameAlwaysCooperate   = "AlwaysCooperate"
	NameAlwaysDefect      = "AlwaysDefect"
	NameRandomChoice      = "RandomChoice"
	NameMajorityRule      = "MajorityRule"
	NameFixedDisposition  = "FixedDisposition"
	NameEchoConsensus     = "EchoConsensus"
	NameRandomTitForTat   = "RandomTitForTat"
	NameOpportunist       = "Opportunist"
	NameLegacyOpportunist = "LegacyOpportunist"
)

func initializeBuiltInStrategies() {
	MustRegister(NameAlwaysCooperate, func(*rand.Rand) Strategy { return AlwaysCooperate{} })
	MustRegister(NameAlwaysDefect, func(*rand.Rand) Strategy { return AlwaysDefect{} })
	MustRegister(NameRandomChoice, func(rng *rand.Rand) Strategy { return &RandomChoice{rng: rng} })
	MustRegister(NameMajorityRule, func(*rand.Rand) Strategy { return MajorityRule{} })
	MustRegister(NameFixedDisposition, func(rng *rand.Rand) Strategy { return NewFixedDisposition(rng) })
	MustRegister(NameEchoConsensus, func(*rand.Rand) Strategy { return EchoConsensus{} })
	MustRegister(NameRandomTitForTat, func(rng *rand.Rand) Strategy { return &RandomTitForTat{rng: rng} })
	MustRegister(NameOpportunist, func(*rand.Rand) Strategy { return NewOpportunist() })
	MustRegister(NameLegacyOpportunist, func(*rand.Rand) Strategy { return NewLegacyOpportunist() })

	// Class names used by rosters written for the classroom tournament.
	for alias, name := range map[string]string{
		"NicePlayer":     NameAlwaysCooperate,
		"NastyPlayer":    NameAlwaysDefect,
		"RandomPlayer":   NameRandomChoice,
		"TolerantPlayer": NameMajorityRule,
		"FreakyPlayer":   NameFixedDisposition,
		"T4TPlayer":      NameRandomTitForTat,
	} {
		if err := RegisterAlias(alias, name); err != nil {
			panic(err)
		}
	}
}

type AlwaysCooperate struct{}

func (AlwaysCooperate) Name() string { return NameAlwaysCooperate }

func (AlwaysCooperate) NextAction(int, game.History, game.History, game.History) game.Action {
	return game.Cooperate
}

type AlwaysDefect struct{}

func (AlwaysDefect) Name() string { return NameAlwaysDefect }

func (AlwaysDefect) NextAction(int, game.History, game.History, game.History) game.Action {
	return game.Defect
}

// RandomChoice flips a fair coin every round.
type RandomChoice struct {
	rng *rand.Rand
}

func (*RandomChoice) Name() string { return NameRandomChoice }

func (s *RandomChoice) NextAction(int, game.History, game.History, game.History) game.Action {
	return coinFlip(s.rng)
}

// FixedDisposition picks one action when it is built and keeps it for the
// whole match.
type FixedDisposition struct {
	action game.Action
}

func NewFixedDisposition(rng *rand.Rand) FixedDisposition {
	return FixedDisposition{action: coinFlip(rng)}
}

func (FixedDisposition) Name() string { return NameFixedDisposition }

func (s FixedDisposition) Disposition() game.Action { return s.action }

func (s FixedDisposition) NextAction(int, game.History, game.History, game.History) game.Action {
	return s.action
}

func coinFlip(rng *rand.Rand) game.Action {
	if rng.Float64() < 0.5 {
		return game.Cooperate
	}
	return game.Defect
}
