package tagging

import (
	"strings"

	"callscope/tagging-gateway/internal/transcript"
	"callscope/tagging-gateway/models"
)

// Mode distinguishes tagging a fresh selection from retagging an existing
// annotation.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// SelectionTarget is the resolved form of one user gesture: either a text
// selection over the rendered transcript or a click on an existing tag. It
// lives for the duration of one popover interaction and is discarded on
// commit or cancel.
type SelectionTarget struct {
	Mode           Mode               `json:"mode"`
	StartWordIndex int                `json:"start_word_index"`
	EndWordIndex   int                `json:"end_word_index"`
	StartTime      float64            `json:"start_time"`
	EndTime        float64            `json:"end_time"`
	Text           string             `json:"text"`
	Turn           string             `json:"turn"`
	Existing       *models.TaggedTurn `json:"existing,omitempty"`
}

// ResolveRange maps a word-index pair supplied by the host UI to a create-mode
// target. The render layer owns the mapping from rendered spans to word
// indices; this stays rendering-agnostic. Invalid or whitespace-only
// selections yield ErrNoSelection.
//
// When a selection legitimately spans a turn boundary, the first selected
// word with a turn label wins. That matches the historical behavior of the
// tagging screen and is locked in by test.
func ResolveRange(m *transcript.Model, startIdx, endIdx int) (SelectionTarget, error) {
	if startIdx < 0 || endIdx < startIdx || endIdx >= m.Len() {
		return SelectionTarget{}, ErrNoSelection
	}

	words := m.Words()[startIdx : endIdx+1]

	parts := make([]string, 0, len(words))
	turn := ""
	for _, w := range words {
		parts = append(parts, w.Text)
		if turn == "" && w.Turn != "" {
			turn = w.Turn
		}
	}

	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" || turn == "" {
		return SelectionTarget{}, ErrNoSelection
	}

	return SelectionTarget{
		Mode:           ModeCreate,
		StartWordIndex: startIdx,
		EndWordIndex:   endIdx,
		StartTime:      words[0].StartTime,
		EndTime:        words[len(words)-1].EndTime,
		Text:           text,
		Turn:           turn,
	}, nil
}

// ResolveAnnotation maps a click on an existing tag to an edit-mode target.
// The annotation carries its own time range, so no index derivation is
// needed.
func ResolveAnnotation(ann models.TaggedTurn) SelectionTarget {
	a := ann
	return SelectionTarget{
		Mode:           ModeEdit,
		StartWordIndex: -1,
		EndWordIndex:   -1,
		StartTime:      ann.StartTime,
		EndTime:        ann.EndTime,
		Text:           ann.Verbatim,
		Turn:           ann.Speaker,
		Existing:       &a,
	}
}
