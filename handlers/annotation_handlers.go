package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"callscope/tagging-gateway/internal/tagging"
	"callscope/tagging-gateway/models"
	"callscope/tagging-gateway/utils"
)

// CreateAnnotationPayload defines the structure for creating an annotation
// directly, outside a tagging session. CallID comes from the URL path.
type CreateAnnotationPayload struct {
	StartTime        float64 `json:"start_time" validate:"gte=0"`
	EndTime          float64 `json:"end_time" validate:"required,gtfield=StartTime"`
	Tag              string  `json:"tag" validate:"required"`
	Verbatim         string  `json:"verbatim" validate:"required"`
	Speaker          string  `json:"speaker" validate:"required"`
	NextTurnTag      *string `json:"next_turn_tag,omitempty"`
	NextTurnVerbatim *string `json:"next_turn_verbatim,omitempty"`
}

// UpdateAnnotationPayload defines the structure for patching an annotation.
type UpdateAnnotationPayload struct {
	Tag              *string `json:"tag,omitempty"`
	Verbatim         *string `json:"verbatim,omitempty"`
	NextTurnTag      *string `json:"next_turn_tag,omitempty"`
	NextTurnVerbatim *string `json:"next_turn_verbatim,omitempty"`
}

// ListAnnotations retrieves all annotations of a call, ordered by start time.
// GET /api/v1/calls/:callId/annotations
func (h *ApplicationHandler) ListAnnotations(c *fiber.Ctx) error {
	callID := c.Params("callId")

	anns, err := h.Annotations.FetchAnnotations(callID)
	if err != nil {
		h.Logger.WithField("call_id", callID).WithError(err).Error("Could not list annotations")
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Could not retrieve annotations")
	}
	if anns == nil {
		anns = []models.TaggedTurn{}
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, anns)
}

// CreateAnnotation inserts an annotation from an explicit payload. The
// session commit route is the usual path; this one exists for imports and
// repair scripts.
// POST /api/v1/calls/:callId/annotations
func (h *ApplicationHandler) CreateAnnotation(c *fiber.Ctx) error {
	callID := c.Params("callId")

	var payload CreateAnnotationPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse JSON: %v", err))
	}

	validate := validator.New()
	if err := validate.Struct(payload); err != nil {
		errs := utils.FormatValidationErrors(err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(errs, ", "))
	}

	if utils.SanitizeInput(payload.Verbatim) == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Verbatim must not be blank")
	}

	ann, err := h.Annotations.CreateAnnotation(models.NewTaggedTurn{
		CallID:           callID,
		StartTime:        payload.StartTime,
		EndTime:          payload.EndTime,
		Tag:              payload.Tag,
		Verbatim:         utils.SanitizeInput(payload.Verbatim),
		Speaker:          payload.Speaker,
		NextTurnTag:      payload.NextTurnTag,
		NextTurnVerbatim: payload.NextTurnVerbatim,
	})
	if err != nil {
		h.Logger.WithField("call_id", callID).WithError(err).Error("Could not create annotation")
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Could not create annotation")
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, ann)
}

// UpdateAnnotation patches an annotation's fields. An unchanged tag value is
// still dispatched; idempotent re-commits are not suppressed.
// PATCH /api/v1/calls/:callId/annotations/:annotationId
func (h *ApplicationHandler) UpdateAnnotation(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("annotationId"), 10, 64)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid annotation ID format")
	}

	var payload UpdateAnnotationPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse JSON: %v", err))
	}

	updateData := make(map[string]interface{})
	if payload.Tag != nil {
		updateData["tag"] = *payload.Tag
	}
	if payload.Verbatim != nil {
		updateData["verbatim"] = *payload.Verbatim
	}
	if payload.NextTurnTag != nil {
		updateData["next_turn_tag"] = *payload.NextTurnTag
	}
	if payload.NextTurnVerbatim != nil {
		updateData["next_turn_verbatim"] = *payload.NextTurnVerbatim
	}
	if len(updateData) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No fields to update")
	}

	ann, err := h.Annotations.UpdateAnnotation(id, updateData)
	if err != nil {
		h.Logger.WithField("annotation_id", id).WithError(err).Error("Could not update annotation")
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Could not update annotation")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, ann)
}

// DeleteAnnotation removes an annotation.
// DELETE /api/v1/calls/:callId/annotations/:annotationId
func (h *ApplicationHandler) DeleteAnnotation(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("annotationId"), 10, 64)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid annotation ID format")
	}

	if err := h.Annotations.DeleteAnnotation(id); err != nil {
		h.Logger.WithField("annotation_id", id).WithError(err).Error("Could not delete annotation")
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Could not delete annotation")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecomputeNextTurns rebuilds next_turn_tag for every annotation of a call
// from the stored annotations and the tag catalog.
// POST /api/v1/calls/:callId/annotations/recompute
func (h *ApplicationHandler) RecomputeNextTurns(c *fiber.Ctx) error {
	callID := c.Params("callId")

	validLabels, err := h.Tags.ValidLabels()
	if err != nil {
		h.Logger.WithError(err).Error("Could not load tag catalog")
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Could not load tag catalog")
	}

	updated, err := tagging.RecomputeNextTurnTags(h.Annotations, callID, validLabels)
	if err != nil {
		h.Logger.WithField("call_id", callID).WithError(err).Error("Next-turn recompute failed")
		return utils.RespondWithError(c, fiber.StatusBadGateway, fmt.Sprintf("Recompute failed after %d updates", updated))
	}

	h.Logger.WithField("call_id", callID).WithField("updated", updated).Info("Next-turn tags recomputed")
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"updated": updated})
}
