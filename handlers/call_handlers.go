package handlers

import (
	"github.com/gofiber/fiber/v2"

	"callscope/tagging-gateway/models"
	"callscope/tagging-gateway/utils"
)

// ListCalls retrieves the calls flagged for tagging.
// GET /api/v1/calls
func (h *ApplicationHandler) ListCalls(c *fiber.Ctx) error {
	calls, err := h.Calls.FetchTaggingCalls()
	if err != nil {
		h.Logger.WithError(err).Error("Could not list tagging calls")
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Could not retrieve calls")
	}
	if calls == nil {
		calls = []models.Call{}
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, calls)
}
