package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"callscope/tagging-gateway/internal/tagging"
	"callscope/tagging-gateway/internal/transcript"
	"callscope/tagging-gateway/utils"
)

// CreateSessionPayload opens a tagging session for one call.
type CreateSessionPayload struct {
	CallID string `json:"call_id" validate:"required"`
}

// SelectionPayload carries the word-index pair of a text selection plus the
// popover anchor supplied by the render layer.
type SelectionPayload struct {
	StartWordIndex int            `json:"start_word_index" validate:"gte=0"`
	EndWordIndex   int            `json:"end_word_index" validate:"gte=0"`
	Anchor         tagging.Anchor `json:"anchor"`
}

// AnnotationClickPayload identifies an existing annotation being retagged.
type AnnotationClickPayload struct {
	AnnotationID int64          `json:"annotation_id" validate:"required"`
	Anchor       tagging.Anchor `json:"anchor"`
}

// CommitPayload carries the chosen tag label.
type CommitPayload struct {
	Tag string `json:"tag" validate:"required"`
}

// CreateSession loads a call's transcript into a model and opens a tagging
// session over it.
// POST /api/v1/tagging/sessions
func (h *ApplicationHandler) CreateSession(c *fiber.Ctx) error {
	var payload CreateSessionPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse JSON: %v", err))
	}

	validate := validator.New()
	if err := validate.Struct(payload); err != nil {
		errs := utils.FormatValidationErrors(err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(errs, ", "))
	}

	words, err := h.Transcripts.FetchTranscript(payload.CallID)
	if err != nil {
		h.Logger.WithField("call_id", payload.CallID).WithError(err).Error("Could not fetch transcript")
		return utils.RespondWithError(c, fiber.StatusNotFound, "Transcript not found for call")
	}

	model := transcript.NewModel()
	defects := model.Load(words)
	if model.Len() == 0 {
		h.Logger.WithField("call_id", payload.CallID).WithError(transcript.ErrEmptyTranscript).Warn("Refusing session over empty transcript")
		return utils.RespondWithError(c, fiber.StatusUnprocessableEntity, "Transcript has no words to tag")
	}
	if defects > 0 {
		h.Logger.WithFields(logrus.Fields{
			"call_id": payload.CallID,
			"defects": defects,
		}).Warn("Transcript loaded with timing defects; order normalized best-effort")
	}

	annotations, err := h.Annotations.FetchAnnotations(payload.CallID)
	if err != nil {
		h.Logger.WithField("call_id", payload.CallID).WithError(err).Error("Could not fetch annotations")
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Could not fetch annotations for call")
	}

	session := &Session{
		ID:       uuid.NewString(),
		CallID:   payload.CallID,
		Defects:  defects,
		Model:    model,
		Workflow: tagging.NewWorkflow(payload.CallID, model, h.Annotations),
	}
	h.Sessions.Add(session)

	return utils.RespondWithJSON(c, fiber.StatusCreated, fiber.Map{
		"session_id":  session.ID,
		"call_id":     session.CallID,
		"word_count":  model.Len(),
		"defects":     defects,
		"turn_groups": model.GroupByTurn(),
		"annotations": annotations,
	})
}

// Selection resolves a text selection into a pending create-mode target with
// its next-turn suggestion. A selection made while another is pending
// replaces it.
// POST /api/v1/tagging/sessions/:id/selection
func (h *ApplicationHandler) Selection(c *fiber.Ctx) error {
	session, ok := h.Sessions.Get(c.Params("id"))
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Tagging session not found")
	}

	var payload SelectionPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse JSON: %v", err))
	}

	session.Lock()
	defer session.Unlock()

	target, suggestion, err := session.Workflow.SelectRange(payload.StartWordIndex, payload.EndWordIndex, payload.Anchor)
	if err != nil {
		if errors.Is(err, tagging.ErrNoSelection) {
			return utils.RespondWithError(c, fiber.StatusBadRequest, "Nothing to tag in the selection")
		}
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not resolve selection")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"target":     target,
		"suggestion": suggestion,
		"anchor":     session.Workflow.Anchor(),
	})
}

// AnnotationClick opens an edit-mode pending target from a click on an
// existing tag overlay.
// POST /api/v1/tagging/sessions/:id/annotation
func (h *ApplicationHandler) AnnotationClick(c *fiber.Ctx) error {
	session, ok := h.Sessions.Get(c.Params("id"))
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Tagging session not found")
	}

	var payload AnnotationClickPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse JSON: %v", err))
	}

	validate := validator.New()
	if err := validate.Struct(payload); err != nil {
		errs := utils.FormatValidationErrors(err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(errs, ", "))
	}

	anns, err := h.Annotations.FetchAnnotations(session.CallID)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Could not fetch annotations for call")
	}

	for _, ann := range anns {
		if ann.ID == payload.AnnotationID {
			session.Lock()
			target := session.Workflow.SelectAnnotation(ann, payload.Anchor)
			session.Unlock()
			return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
				"target": target,
				"anchor": payload.Anchor,
			})
		}
	}
	return utils.RespondWithError(c, fiber.StatusNotFound, "Annotation not found on this call")
}

// CommitSelection closes the pending selection with the chosen tag. After a
// create commit, earlier annotations with an empty next_turn_tag pointing at
// the new annotation's turn are backfilled; backfill failures are logged, not
// surfaced, since the commit itself already succeeded.
// POST /api/v1/tagging/sessions/:id/commit
func (h *ApplicationHandler) CommitSelection(c *fiber.Ctx) error {
	session, ok := h.Sessions.Get(c.Params("id"))
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Tagging session not found")
	}

	var payload CommitPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse JSON: %v", err))
	}

	validate := validator.New()
	if err := validate.Struct(payload); err != nil {
		errs := utils.FormatValidationErrors(err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(errs, ", "))
	}

	session.Lock()
	defer session.Unlock()

	var mode tagging.Mode
	if pending := session.Workflow.Pending(); pending != nil {
		mode = pending.Mode
	}

	ann, err := session.Workflow.Commit(payload.Tag)
	if err != nil {
		var storeErr *tagging.StoreError
		switch {
		case errors.Is(err, tagging.ErrNoPending):
			return utils.RespondWithError(c, fiber.StatusConflict, "No pending selection to commit")
		case errors.As(err, &storeErr):
			// Workflow stays pending; the user can retry or cancel.
			h.Logger.WithField("session_id", session.ID).WithError(err).Error("Annotation commit failed")
			return utils.RespondWithError(c, fiber.StatusBadGateway, "Annotation store rejected the commit; selection kept open")
		default:
			return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not commit annotation")
		}
	}

	backfilled := 0
	if mode == tagging.ModeCreate {
		backfilled, err = tagging.BackfillNextTurnTags(h.Annotations, session.Model, ann)
		if err != nil {
			h.Logger.WithField("call_id", session.CallID).WithError(err).Warn("Next-turn backfill failed")
		}
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"annotation": ann,
		"backfilled": backfilled,
	})
}

// CancelSelection discards the pending selection without touching the store.
// POST /api/v1/tagging/sessions/:id/cancel
func (h *ApplicationHandler) CancelSelection(c *fiber.Ctx) error {
	session, ok := h.Sessions.Get(c.Params("id"))
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Tagging session not found")
	}

	session.Lock()
	session.Workflow.Cancel()
	session.Unlock()
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"state": tagging.StateIdle})
}

// RemoveSelection deletes the annotation under edit.
// POST /api/v1/tagging/sessions/:id/remove
func (h *ApplicationHandler) RemoveSelection(c *fiber.Ctx) error {
	session, ok := h.Sessions.Get(c.Params("id"))
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Tagging session not found")
	}

	session.Lock()
	defer session.Unlock()

	if err := session.Workflow.Remove(); err != nil {
		var storeErr *tagging.StoreError
		switch {
		case errors.Is(err, tagging.ErrNoPending):
			return utils.RespondWithError(c, fiber.StatusConflict, "No pending selection")
		case errors.Is(err, tagging.ErrNotEditing):
			return utils.RespondWithError(c, fiber.StatusBadRequest, "Only an existing annotation can be removed")
		case errors.As(err, &storeErr):
			h.Logger.WithField("session_id", session.ID).WithError(err).Error("Annotation delete failed")
			return utils.RespondWithError(c, fiber.StatusBadGateway, "Annotation store rejected the delete; selection kept open")
		default:
			return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not delete annotation")
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CloseSession drops a tagging session.
// DELETE /api/v1/tagging/sessions/:id
func (h *ApplicationHandler) CloseSession(c *fiber.Ctx) error {
	h.Sessions.Remove(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}
