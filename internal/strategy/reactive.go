package strategy

import (
	"math/rand"

	"trilemma/internal/game"
)

// MajorityRule defects only when defections strictly outnumber cooperations
// across both opponents' complete histories.
type MajorityRule struct{}

func (MajorityRule) Name() string { return NameMajorityRule }

func (MajorityRule) NextAction(_ int, _ game.History, opp1, opp2 game.History) game.Action {
	defects := opp1.Count(game.Defect) + opp2.Count(game.Defect)
	cooperates := len(opp1) + len(opp2) - defects
	if defects > cooperates {
		return game.Defect
	}
	return game.Cooperate
}

// EchoConsensus follows the opponents when they agreed last round and
// otherwise repeats its own previous action.
type EchoConsensus struct{}

func (EchoConsensus) Name() string { return NameEchoConsensus }

func (EchoConsensus) NextAction(round int, mine, opp1, opp2 game.History) game.Action {
	if round == 0 {
		return game.Cooperate
	}
	if opp1[round-1] == opp2[round-1] {
		return opp1[round-1]
	}
	return mine[round-1]
}

// RandomTitForTat plays tit-for-tat against an opponent chosen at random
// each round.
type RandomTitForTat struct {
	rng *rand.Rand
}

func (*RandomTitForTat) Name() string { return NameRandomTitForTat }

func (s *RandomTitForTat) NextAction(round int, _ game.History, opp1, opp2 game.History) game.Action {
	if round == 0 {
		return game.Cooperate
	}
	if s.rng.Float64() < 0.5 {
		return opp1[round-1]
	}
	return opp2[round-1]
}
