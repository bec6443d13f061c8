package strategy

import "trilemma/internal/game"

// shareFunc converts count out of n into a percentage.
type shareFunc func(count, n int) float64

func exactShare(count, n int) float64 {
	return 100 * float64(count) / float64(n)
}

// truncatedShare reproduces count/n*100 in integer arithmetic, which is 0
// for every count below n.
func truncatedShare(count, n int) float64 {
	return float64(count / n * 100)
}

// Opportunist profiles both opponents from their cooperation shares and
// exploits cooperative tables while matching hostile ones.
type Opportunist struct {
	name  string
	share shareFunc
}

func NewOpportunist() Opportunist {
	return Opportunist{name: NameOpportunist, share: exactShare}
}

// NewLegacyOpportunist keeps the truncating percentage arithmetic of the
// historical classroom entry.
func NewLegacyOpportunist() Opportunist {
	return Opportunist{name: NameLegacyOpportunist, share: truncatedShare}
}

func (s Opportunist) Name() string { return s.name }

func (s Opportunist) NextAction(round int, mine, opp1, opp2 game.History) game.Action {
	if round == 0 {
		return game.Cooperate
	}
	if opp1[round-1] == opp2[round-1] {
		return opp1[round-1]
	}

	n := round
	myCoop := mine.Count(game.Cooperate)
	coop1 := opp1.Count(game.Cooperate)
	coop2 := opp2.Count(game.Cooperate)

	coopShare1 := s.share(coop1, n)
	coopShare2 := s.share(coop2, n)
	defectShare1 := s.share(n-coop1, n)
	defectShare2 := s.share(n-coop2, n)
	jointShare1 := s.share(myCoop+coop1, 2*n)
	jointShare2 := s.share(myCoop+coop2, 2*n)

	switch {
	case coopShare1 == 100 && coopShare2 == 0, coopShare2 == 100 && coopShare1 == 0:
		return game.Cooperate
	case coopShare1 == 0 && coopShare2 == 0:
		return game.Defect
	case jointShare1 > 51 || jointShare2 > 51:
		return game.Defect
	case coopShare1 > 85 && coopShare2 > 85:
		return game.Defect
	case coopShare1 > 66 && coopShare2 > 66:
		return game.Cooperate
	case defectShare1 > 35 && defectShare2 > 35:
		return game.Defect
	default:
		return game.Cooperate
	}
}
