package game

import (
	"context"
	"errors"
	"fmt"
)

// Seats is the number of players in every match.
const Seats = 3

var (
	ErrInvalidRounds = errors.New("match rounds must be >= 1")
	ErrInvalidAction = errors.New("strategy returned an invalid action")
	ErrNilPlayer     = errors.New("match player is nil")
)

// Player is the decision capability the simulator needs from an agent.
//
// round is the number of completed rounds. Each history holds exactly round
// actions: the player's own, then its two opponents in seat rotation order.
// Implementations must treat the histories as read-only.
type Player interface {
	NextAction(round int, mine, opp1, opp2 History) Action
}

type MatchResult struct {
	Rounds int
	Scores [Seats]float64
	// Actions is populated only when the match was played WithRecording.
	Actions [Seats]History
}

type MatchOption func(*matchOptions)

type matchOptions struct {
	record bool
}

// WithRecording keeps the full action histories in the MatchResult.
func WithRecording() MatchOption {
	return func(o *matchOptions) {
		o.record = true
	}
}

// PlayMatch runs one encounter of the given number of rounds and returns each
// seat's average per-round payoff.
//
// Seat s sees its own history first, then seats s+1 and s+2 (mod 3); payoffs
// are looked up with the same rotation. All actions of a round are chosen from
// the state before that round.
func PlayMatch(ctx context.Context, players [Seats]Player, rounds int, opts ...MatchOption) (MatchResult, error) {
	if rounds < 1 {
		return MatchResult{}, fmt.Errorf("%w: got %d", ErrInvalidRounds, rounds)
	}
	for seat, p := range players {
		if p == nil {
			return MatchResult{}, fmt.Errorf("%w: seat %d", ErrNilPlayer, seat)
		}
	}
	if err := ctx.Err(); err != nil {
		return MatchResult{}, err
	}

	var o matchOptions
	for _, opt := range opts {
		opt(&o)
	}

	var histories [Seats]History
	for seat := range histories {
		histories[seat] = make(History, 0, rounds)
	}

	var totals [Seats]float64
	var actions [Seats]Action
	for round := 0; round < rounds; round++ {
		for seat := 0; seat < Seats; seat++ {
			mine, opp1, opp2 := seatView(histories, seat)
			action := players[seat].NextAction(round, mine, opp1, opp2)
			if !action.Valid() {
				return MatchResult{}, fmt.Errorf("%w: seat=%d round=%d action=%s", ErrInvalidAction, seat, round, action)
			}
			actions[seat] = action
		}
		for seat := 0; seat < Seats; seat++ {
			totals[seat] += Payoff(actions[seat], actions[(seat+1)%Seats], actions[(seat+2)%Seats])
		}
		for seat := 0; seat < Seats; seat++ {
			histories[seat] = append(histories[seat], actions[seat])
		}
	}

	result := MatchResult{Rounds: rounds}
	for seat := range totals {
		result.Scores[seat] = totals[seat] / float64(rounds)
	}
	if o.record {
		result.Actions = histories
	}
	return result, nil
}

// seatView hands a seat private copies of the histories, so neither an
// append nor an in-place write by a strategy reaches the match state.
func seatView(h [Seats]History, seat int) (mine, opp1, opp2 History) {
	return h[seat].Clone(), h[(seat+1)%Seats].Clone(), h[(seat+2)%Seats].Clone()
}
