package game

import "fmt"

// payoffTable[self][other1][other2] is the payoff to the first position.
//
// With one player's action held fixed the remaining two face the classic
// dilemma ordering, and the two "other" roles are interchangeable:
//
//	U(DCC) > U(CCC) > U(DDC) > U(CDC) > U(DDD) > U(CDD)
var payoffTable = [2][2][2]float64{
	{
		{6, 3},
		{3, 0},
	},
	{
		{8, 5},
		{5, 2},
	},
}

// Payoff returns the payoff to self given the simultaneous actions of the
// other two players. It panics on actions outside the Action domain.
func Payoff(self, other1, other2 Action) float64 {
	if !self.Valid() || !other1.Valid() || !other2.Valid() {
		panic(fmt.Sprintf("game: payoff lookup with invalid action (%s, %s, %s)", self, other1, other2))
	}
	return payoffTable[self][other1][other2]
}

func MinPayoff() float64 {
	return tableBound(func(a, b float64) bool { return a < b })
}

func MaxPayoff() float64 {
	return tableBound(func(a, b float64) bool { return a > b })
}

func tableBound(better func(a, b float64) bool) float64 {
	bound := payoffTable[0][0][0]
	for i := range payoffTable {
		for j := range payoffTable[i] {
			for k := range payoffTable[i][j] {
				if better(payoffTable[i][j][k], bound) {
					bound = payoffTable[i][j][k]
				}
			}
		}
	}
	return bound
}
