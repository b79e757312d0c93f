package tagging

import (
	"sort"
	"strings"

	"callscope/tagging-gateway/internal/transcript"
)

// NextTurnSuggestion is the inferred follow-up to an annotated range: the
// label of the next differing turn and its full verbatim. Computed on demand,
// never stored.
type NextTurnSuggestion struct {
	Turn     string `json:"turn"`
	Verbatim string `json:"verbatim"`
}

// InferNextTurn scans forward from endTime for the first word whose turn
// differs from currentTurn, then collects that turn's contiguous run of words
// into a verbatim. Words belonging to other intervening turns before the
// candidate are never collected. Returns nil when no differing turn starts at
// or after endTime, which is a valid outcome (selection at the end of the
// call), not a failure.
//
// Single forward pass from the selection end; earlier words are not
// revisited.
func InferNextTurn(m *transcript.Model, currentTurn string, endTime float64) *NextTurnSuggestion {
	words := m.Words()

	lo := sort.Search(len(words), func(i int) bool {
		return words[i].StartTime >= endTime
	})

	candidate := ""
	var parts []string
	for i := lo; i < len(words); i++ {
		w := words[i]
		if candidate == "" {
			if w.Turn != currentTurn && w.Turn != "" {
				candidate = w.Turn
			} else {
				continue
			}
		}
		if w.Turn != candidate {
			break
		}
		parts = append(parts, w.Text)
	}

	if candidate == "" {
		return nil
	}
	return &NextTurnSuggestion{
		Turn:     candidate,
		Verbatim: strings.Join(parts, " "),
	}
}
