package game

import (
	"fmt"
	"strings"
)

// Action is the per-round decision of a single agent.
type Action uint8

const (
	Cooperate Action = iota
	Defect
)

func (a Action) Valid() bool {
	return a == Cooperate || a == Defect
}

func (a Action) String() string {
	switch a {
	case Cooperate:
		return "C"
	case Defect:
		return "D"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// History is the chronological action sequence of one agent within a match.
// Histories handed to strategies are read-only views.
type History []Action

func (h History) Last() (Action, bool) {
	if len(h) == 0 {
		return 0, false
	}
	return h[len(h)-1], true
}

func (h History) Count(a Action) int {
	n := 0
	for _, x := range h {
		if x == a {
			n++
		}
	}
	return n
}

func (h History) Clone() History {
	if h == nil {
		return nil
	}
	return append(History(nil), h...)
}

func (h History) String() string {
	var b strings.Builder
	b.Grow(len(h))
	for _, a := range h {
		b.WriteString(a.String())
	}
	return b.String()
}
