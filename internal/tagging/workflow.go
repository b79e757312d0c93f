package tagging

import (
	"callscope/tagging-gateway/internal/transcript"
	"callscope/tagging-gateway/models"
)

// State is the workflow's position in its two-state machine: Idle (no popover
// shown) or Pending (popover open, awaiting a tag choice or cancel).
type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
)

// Anchor is the screen-space position the host UI should attach the tag
// popover to: a selection's bounding box or a click point. The workflow
// carries it back to the UI untouched.
type Anchor struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Workflow coordinates the create/edit annotation interaction for one call.
// A single Pending exists at a time: a new selection while one is open
// replaces it (last writer wins on the popover, never on stored data). Store
// failures keep the workflow Pending so the user can retry or cancel.
type Workflow struct {
	callID string
	model  *transcript.Model
	store  AnnotationStore

	state      State
	pending    *SelectionTarget
	anchor     Anchor
	suggestion *NextTurnSuggestion
}

// NewWorkflow returns an idle workflow for callID over the loaded model.
func NewWorkflow(callID string, model *transcript.Model, store AnnotationStore) *Workflow {
	return &Workflow{
		callID: callID,
		model:  model,
		store:  store,
		state:  StateIdle,
	}
}

// State returns the current machine state.
func (w *Workflow) State() State {
	return w.state
}

// Pending returns the open selection target, nil when idle.
func (w *Workflow) Pending() *SelectionTarget {
	return w.pending
}

// Anchor returns the popover anchor of the open selection.
func (w *Workflow) Anchor() Anchor {
	return w.anchor
}

// Suggestion returns the next-turn inference for the open create-mode
// selection, nil in edit mode or when no next turn exists.
func (w *Workflow) Suggestion() *NextTurnSuggestion {
	return w.suggestion
}

// SelectRange opens a create-mode pending selection from a word-index pair,
// anchored to the selection's bounding box, and infers the follow-up turn.
// Any previously pending selection is discarded without touching the store.
func (w *Workflow) SelectRange(startIdx, endIdx int, anchor Anchor) (SelectionTarget, *NextTurnSuggestion, error) {
	target, err := ResolveRange(w.model, startIdx, endIdx)
	if err != nil {
		return SelectionTarget{}, nil, err
	}

	w.pending = &target
	w.anchor = anchor
	w.suggestion = InferNextTurn(w.model, target.Turn, target.EndTime)
	w.state = StatePending
	return target, w.suggestion, nil
}

// SelectAnnotation opens an edit-mode pending selection from a click on an
// existing tag, anchored to the click point.
func (w *Workflow) SelectAnnotation(ann models.TaggedTurn, anchor Anchor) SelectionTarget {
	target := ResolveAnnotation(ann)
	w.pending = &target
	w.anchor = anchor
	w.suggestion = nil
	w.state = StatePending
	return target
}

// Commit closes the pending selection with the chosen tag label. In create
// mode it writes a new annotation carrying the selection's time range, its
// verbatim and the inferred next-turn fields; in edit mode it dispatches an
// update of the existing annotation's tag, even when the label is unchanged
// (an idempotent re-commit is not suppressed). On store failure the workflow
// stays Pending and the error is surfaced; the caller decides whether to
// retry. A commit that resolves after the popover was already dismissed still
// returns the annotation so the overlay can be refreshed.
func (w *Workflow) Commit(tagLabel string) (models.TaggedTurn, error) {
	if w.pending == nil {
		return models.TaggedTurn{}, ErrNoPending
	}

	if w.pending.Mode == ModeEdit {
		ann, err := w.store.UpdateAnnotation(w.pending.Existing.ID, map[string]interface{}{
			"tag": tagLabel,
		})
		if err != nil {
			return models.TaggedTurn{}, &StoreError{Op: "update", Err: err}
		}
		w.reset()
		return ann, nil
	}

	draft := models.NewTaggedTurn{
		CallID:    w.callID,
		StartTime: w.pending.StartTime,
		EndTime:   w.pending.EndTime,
		Tag:       tagLabel,
		Verbatim:  w.pending.Text,
		Speaker:   w.pending.Turn,
	}
	if w.suggestion != nil {
		draft.NextTurnTag = &w.suggestion.Turn
		draft.NextTurnVerbatim = &w.suggestion.Verbatim
	}

	ann, err := w.store.CreateAnnotation(draft)
	if err != nil {
		return models.TaggedTurn{}, &StoreError{Op: "create", Err: err}
	}
	w.reset()
	return ann, nil
}

// Remove deletes the annotation under edit and closes the popover. Only valid
// in edit mode; a create-mode selection has nothing to delete. On store
// failure the workflow stays Pending.
func (w *Workflow) Remove() error {
	if w.pending == nil {
		return ErrNoPending
	}
	if w.pending.Mode != ModeEdit {
		return ErrNotEditing
	}

	if err := w.store.DeleteAnnotation(w.pending.Existing.ID); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	w.reset()
	return nil
}

// Cancel discards the pending selection. Never calls the store.
func (w *Workflow) Cancel() {
	w.reset()
}

func (w *Workflow) reset() {
	w.state = StateIdle
	w.pending = nil
	w.suggestion = nil
	w.anchor = Anchor{}
}
