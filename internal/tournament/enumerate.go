package tournament

// Triple holds the slot indices of one match, in seat order, i <= j <= k.
type Triple [3]int

// MatchCount is the number of 3-combinations with repetition from p slots.
func MatchCount(p int) int {
	if p <= 0 {
		return 0
	}
	return p * (p + 1) * (p + 2) / 6
}

// Triples lists every (i, j, k) with 0 <= i <= j <= k < p in lexicographic
// order. A match's index in this list is its identity for seeding.
func Triples(p int) []Triple {
	out := make([]Triple, 0, MatchCount(p))
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			for k := j; k < p; k++ {
				out = append(out, Triple{i, j, k})
			}
		}
	}
	return out
}
