package game

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constantPlayer Action

func (p constantPlayer) NextAction(int, History, History, History) Action { return Action(p) }

type randomPlayer struct{ rng *rand.Rand }

func (p randomPlayer) NextAction(int, History, History, History) Action {
	if p.rng.Intn(2) == 0 {
		return Cooperate
	}
	return Defect
}

// lengthChecker fails the test if any history does not match the round index.
type lengthChecker struct {
	t     *testing.T
	calls int
}

func (p *lengthChecker) NextAction(round int, mine, opp1, opp2 History) Action {
	p.t.Helper()
	if round != p.calls {
		p.t.Fatalf("round index %d, expected %d", round, p.calls)
	}
	for _, h := range []History{mine, opp1, opp2} {
		if len(h) != round {
			p.t.Fatalf("history length %d at round %d", len(h), round)
		}
	}
	p.calls++
	return Cooperate
}

// viewRecorder keeps the last views it was given.
type viewRecorder struct {
	action           Action
	mine, opp1, opp2 History
}

func (p *viewRecorder) NextAction(_ int, mine, opp1, opp2 History) Action {
	p.mine, p.opp1, p.opp2 = mine.Clone(), opp1.Clone(), opp2.Clone()
	return p.action
}

// appender tries to write through the views it is handed.
type appender struct{}

func (appender) NextAction(_ int, mine, opp1, opp2 History) Action {
	_ = append(mine, Defect)
	_ = append(opp1, Defect)
	_ = append(opp2, Defect)
	return Cooperate
}

func TestPlayMatchAllCooperateFixedPoint(t *testing.T) {
	c := constantPlayer(Cooperate)
	for _, rounds := range []int{1, 7, 100} {
		res, err := PlayMatch(context.Background(), [Seats]Player{c, c, c}, rounds)
		require.NoError(t, err)
		assert.Equal(t, [Seats]float64{6, 6, 6}, res.Scores)
		assert.Equal(t, rounds, res.Rounds)
	}
}

func TestPlayMatchAllDefectFixedPoint(t *testing.T) {
	d := constantPlayer(Defect)
	res, err := PlayMatch(context.Background(), [Seats]Player{d, d, d}, 93)
	require.NoError(t, err)
	assert.Equal(t, [Seats]float64{2, 2, 2}, res.Scores)
}

func TestPlayMatchRotation(t *testing.T) {
	a := &viewRecorder{action: Defect}
	b := &viewRecorder{action: Cooperate}
	c := &viewRecorder{action: Cooperate}

	res, err := PlayMatch(context.Background(), [Seats]Player{a, b, c}, 2, WithRecording())
	require.NoError(t, err)

	assert.Equal(t, Payoff(Defect, Cooperate, Cooperate), res.Scores[0])
	assert.Equal(t, Payoff(Cooperate, Cooperate, Defect), res.Scores[1])
	assert.Equal(t, Payoff(Cooperate, Defect, Cooperate), res.Scores[2])

	// Second round views: B sees (B, C, A), C sees (C, A, B).
	assert.Equal(t, History{Defect}, a.mine)
	assert.Equal(t, History{Cooperate}, a.opp1)
	assert.Equal(t, History{Cooperate}, a.opp2)
	assert.Equal(t, History{Cooperate}, b.mine)
	assert.Equal(t, History{Defect}, b.opp2)
	assert.Equal(t, History{Defect}, c.opp1)
	assert.Equal(t, History{Cooperate}, c.opp2)

	assert.Equal(t, "DD", res.Actions[0].String())
	assert.Equal(t, "CC", res.Actions[1].String())
}

func TestPlayMatchHistoryLengthInvariant(t *testing.T) {
	checkers := [Seats]*lengthChecker{{t: t}, {t: t}, {t: t}}
	_, err := PlayMatch(context.Background(), [Seats]Player{checkers[0], checkers[1], checkers[2]}, 25)
	require.NoError(t, err)
	for _, p := range checkers {
		assert.Equal(t, 25, p.calls)
	}
}

func TestPlayMatchScoresWithinPayoffBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		players := [Seats]Player{randomPlayer{rng}, randomPlayer{rng}, constantPlayer(Defect)}
		res, err := PlayMatch(context.Background(), players, 90+rng.Intn(21))
		require.NoError(t, err)
		for _, s := range res.Scores {
			assert.GreaterOrEqual(t, s, MinPayoff())
			assert.LessOrEqual(t, s, MaxPayoff())
		}
	}
}

func TestPlayMatchViewsAreAppendSafe(t *testing.T) {
	c := constantPlayer(Cooperate)
	res, err := PlayMatch(context.Background(), [Seats]Player{appender{}, c, c}, 10, WithRecording())
	require.NoError(t, err)
	assert.Equal(t, [Seats]float64{6, 6, 6}, res.Scores)
	for _, h := range res.Actions {
		assert.Equal(t, 10, h.Count(Cooperate))
	}
}

// overwriter rewrites every entry of the views it is handed.
type overwriter struct{}

func (overwriter) NextAction(_ int, mine, opp1, opp2 History) Action {
	for _, h := range []History{mine, opp1, opp2} {
		for i := range h {
			h[i] = Defect
		}
	}
	return Cooperate
}

func TestPlayMatchViewsAreWriteSafe(t *testing.T) {
	c := constantPlayer(Cooperate)
	spy := &viewRecorder{action: Cooperate}
	res, err := PlayMatch(context.Background(), [Seats]Player{overwriter{}, c, spy}, 5, WithRecording())
	require.NoError(t, err)

	assert.Equal(t, [Seats]float64{6, 6, 6}, res.Scores)
	for seat, h := range res.Actions {
		assert.Equal(t, "CCCCC", h.String(), "seat %d", seat)
	}
	assert.Equal(t, "CCCC", spy.opp1.String())
	assert.Equal(t, "CCCC", spy.opp2.String())
}

func TestPlayMatchErrors(t *testing.T) {
	c := constantPlayer(Cooperate)
	_, err := PlayMatch(context.Background(), [Seats]Player{c, c, c}, 0)
	assert.True(t, errors.Is(err, ErrInvalidRounds))

	_, err = PlayMatch(context.Background(), [Seats]Player{c, constantPlayer(9), c}, 3)
	assert.True(t, errors.Is(err, ErrInvalidAction))

	_, err = PlayMatch(context.Background(), [Seats]Player{c, nil, c}, 3)
	assert.True(t, errors.Is(err, ErrNilPlayer))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = PlayMatch(ctx, [Seats]Player{c, c, c}, 3)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPlayMatchWithoutRecordingLeavesActionsEmpty(t *testing.T) {
	c := constantPlayer(Cooperate)
	res, err := PlayMatch(context.Background(), [Seats]Player{c, c, c}, 4)
	require.NoError(t, err)
	for _, h := range res.Actions {
		assert.Nil(t, h)
	}
}
