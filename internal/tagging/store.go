package tagging

import (
	"errors"
	"fmt"

	"callscope/tagging-gateway/models"
)

// AnnotationStore is the backing store for tagged turns. The production
// implementation lives in internal/store on top of Supabase; tests use an
// in-memory fake.
type AnnotationStore interface {
	FetchAnnotations(callID string) ([]models.TaggedTurn, error)
	CreateAnnotation(draft models.NewTaggedTurn) (models.TaggedTurn, error)
	UpdateAnnotation(id int64, patch map[string]interface{}) (models.TaggedTurn, error)
	DeleteAnnotation(id int64) error
}

var (
	// ErrNoSelection is returned when a selection is empty, whitespace-only or
	// out of range. Surfaced to the user as "nothing to tag".
	ErrNoSelection = errors.New("nothing to tag")

	// ErrNoPending is returned for commit/cancel/remove with no open selection.
	ErrNoPending = errors.New("no pending selection")

	// ErrNotEditing is returned when remove is requested outside edit mode.
	ErrNotEditing = errors.New("not editing an existing annotation")
)

// StoreError wraps a failure of the annotation store collaborator. The
// workflow stays in its pending state when one occurs so the user can retry
// or cancel.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("annotation store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
