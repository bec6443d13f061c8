package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// history builds a History from a string of C and D.
func history(t *testing.T, raw string) History {
	t.Helper()
	h := make(History, 0, len(raw))
	for _, r := range raw {
		switch r {
		case 'C':
			h = append(h, Cooperate)
		case 'D':
			h = append(h, Defect)
		default:
			t.Fatalf("bad action %q in %q", r, raw)
		}
	}
	return h
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "C", Cooperate.String())
	assert.Equal(t, "D", Defect.String())
	assert.Equal(t, "Action(5)", Action(5).String())
	assert.True(t, Defect.Valid())
	assert.False(t, Action(5).Valid())
}

func TestHistoryHelpers(t *testing.T) {
	h := history(t, "CCDC")
	assert.Equal(t, 3, h.Count(Cooperate))
	assert.Equal(t, 1, h.Count(Defect))
	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, Cooperate, last)
	assert.Equal(t, "CCDC", h.String())

	_, ok = History(nil).Last()
	assert.False(t, ok)

	clone := h.Clone()
	clone[0] = Defect
	assert.Equal(t, Cooperate, h[0])
}
