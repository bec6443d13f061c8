package stats

import (
	"fmt"
	"io"
	"strconv"

	"trilemma/internal/tournament"
)

const reportHeader = "Tournament Results"

// FormatScore renders a total in its shortest single-precision form.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 32)
}

// WriteReport prints standings in the order given, one line per slot.
func WriteReport(w io.Writer, standings []Standing) error {
	if _, err := fmt.Fprintln(w, reportHeader); err != nil {
		return err
	}
	for _, st := range standings {
		if _, err := fmt.Fprintf(w, "%s: %s points.\n", st.Name, FormatScore(st.Score)); err != nil {
			return err
		}
	}
	return nil
}

// WriteMatchLog prints the verbose two-line summary of a single match.
func WriteMatchLog(w io.Writer, m tournament.MatchReport) error {
	_, err := fmt.Fprintf(w,
		"Out of %d times\n%s scored %s points, %s scored %s points, and %s scored %s points.\n",
		m.Rounds,
		m.Names[0], FormatScore(m.Scores[0]),
		m.Names[1], FormatScore(m.Scores[1]),
		m.Names[2], FormatScore(m.Scores[2]),
	)
	return err
}
