package tournament

import (
	"errors"
	"fmt"
	"math/rand"

	"trilemma/internal/strategy"
)

var (
	ErrEmptyRoster  = errors.New("roster must contain at least one slot")
	ErrInvalidRange = errors.New("invalid round range")
)

// Entry is one population slot: the display name and how to build a fresh
// agent for it.
type Entry struct {
	Name    string
	Factory strategy.Factory
}

// Roster maps slot index to strategy. It is static configuration.
type Roster []Entry

// Group assigns Count consecutive slots to one registered strategy.
type Group struct {
	Strategy string
	Count    int
}

// BuildRoster resolves groups through the strategy registry in order.
func BuildRoster(groups []Group) (Roster, error) {
	var roster Roster
	for i, g := range groups {
		if g.Count < 0 {
			return nil, fmt.Errorf("roster group %d (%s): count must be >= 0", i, g.Strategy)
		}
		name, factory, err := strategy.Resolve(g.Strategy)
		if err != nil {
			return nil, fmt.Errorf("roster group %d: %w", i, err)
		}
		for n := 0; n < g.Count; n++ {
			roster = append(roster, Entry{Name: name, Factory: factory})
		}
	}
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	return roster, nil
}

func (r Roster) Names() []string {
	names := make([]string, len(r))
	for i, e := range r {
		names[i] = e.Name
	}
	return names
}

func (r Roster) validate() error {
	if len(r) == 0 {
		return ErrEmptyRoster
	}
	for i, e := range r {
		if e.Factory == nil {
			return fmt.Errorf("roster slot %d (%s): factory is required", i, e.Name)
		}
		if e.Name == "" {
			return fmt.Errorf("roster slot %d: name is required", i)
		}
	}
	return nil
}

// RoundRange is a closed interval of per-match round counts.
type RoundRange struct {
	Min int
	Max int
}

func DefaultRoundRange() RoundRange {
	return RoundRange{Min: 90, Max: 110}
}

func FixedRounds(n int) RoundRange {
	return RoundRange{Min: n, Max: n}
}

func (r RoundRange) Validate() error {
	if r.Min < 1 {
		return fmt.Errorf("%w: min rounds must be >= 1, got %d", ErrInvalidRange, r.Min)
	}
	if r.Max < r.Min {
		return fmt.Errorf("%w: max rounds %d below min %d", ErrInvalidRange, r.Max, r.Min)
	}
	return nil
}

// Draw picks a round count uniformly from the closed interval.
func (r RoundRange) Draw(rng *rand.Rand) int {
	if r.Max == r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}
