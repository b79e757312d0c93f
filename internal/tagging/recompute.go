package tagging

import (
	"math"
	"sort"

	"callscope/tagging-gateway/internal/transcript"
	"callscope/tagging-gateway/models"
)

// backfillTolerance is the maximum distance in seconds between the word that
// opens an earlier annotation's following turn and the start of a newly
// created annotation for the two to be considered the same turn.
const backfillTolerance = 3.0

// BackfillNextTurnTags runs after a create commit: earlier annotations on the
// same call whose next_turn_tag is still empty, and whose following
// differing-turn word belongs to the new annotation's speaker and starts
// within backfillTolerance of it, get their next_turn_tag set to the new
// annotation's label. Returns the number of annotations updated. Failures on
// individual rows are skipped; the new annotation itself is already
// committed.
func BackfillNextTurnTags(store AnnotationStore, m *transcript.Model, created models.TaggedTurn) (int, error) {
	existing, err := store.FetchAnnotations(created.CallID)
	if err != nil {
		return 0, &StoreError{Op: "fetch", Err: err}
	}

	updated := 0
	for _, prev := range existing {
		if prev.ID == created.ID || prev.EndTime > created.StartTime {
			continue
		}
		if prev.NextTurnTag != nil && *prev.NextTurnTag != "" {
			continue
		}

		next := firstDifferingWord(m, prev.Speaker, prev.EndTime)
		if next == nil || next.Turn != created.Speaker {
			continue
		}
		if math.Abs(next.StartTime-created.StartTime) > backfillTolerance {
			continue
		}

		if _, err := store.UpdateAnnotation(prev.ID, map[string]interface{}{
			"next_turn_tag": created.Tag,
		}); err != nil {
			continue
		}
		updated++
	}
	return updated, nil
}

// firstDifferingWord returns the first word at or after t whose turn differs
// from turn, nil when none exists.
func firstDifferingWord(m *transcript.Model, turn string, t float64) *models.TranscriptWord {
	words := m.Words()
	lo := sort.Search(len(words), func(i int) bool {
		return words[i].StartTime >= t
	})
	for i := lo; i < len(words); i++ {
		if words[i].Turn != turn && words[i].Turn != "" {
			return &words[i]
		}
	}
	return nil
}

// RecomputeNextTurnTags rebuilds next_turn_tag for every annotation of a call
// from the annotations themselves: each one points at the next annotation
// with a different speaker starting after its end. Candidate labels missing
// from the lpltag catalog are rejected and recorded as null. Rows already
// carrying the right value are left alone. Returns the number of rows
// updated.
func RecomputeNextTurnTags(store AnnotationStore, callID string, validLabels map[string]bool) (int, error) {
	anns, err := store.FetchAnnotations(callID)
	if err != nil {
		return 0, &StoreError{Op: "fetch", Err: err}
	}
	sort.SliceStable(anns, func(i, j int) bool {
		return anns[i].StartTime < anns[j].StartTime
	})

	updated := 0
	for i, current := range anns {
		var nextLabel *string
		for _, later := range anns[i+1:] {
			if later.Speaker != current.Speaker && later.StartTime > current.EndTime {
				if validLabels[later.Tag] {
					l := later.Tag
					nextLabel = &l
				}
				break
			}
		}

		if equalLabel(current.NextTurnTag, nextLabel) {
			continue
		}

		var patchValue interface{}
		if nextLabel != nil {
			patchValue = *nextLabel
		}
		if _, err := store.UpdateAnnotation(current.ID, map[string]interface{}{
			"next_turn_tag": patchValue,
		}); err != nil {
			return updated, &StoreError{Op: "update", Err: err}
		}
		updated++
	}
	return updated, nil
}

func equalLabel(a, b *string) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil:
		return *b == ""
	case b == nil:
		return *a == ""
	default:
		return *a == *b
	}
}
