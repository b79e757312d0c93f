package handlers

import (
	"github.com/gofiber/fiber/v2"

	"callscope/tagging-gateway/models"
	"callscope/tagging-gateway/utils"
)

// ListTags retrieves the tag catalog for the tag picker.
// GET /api/v1/tags
func (h *ApplicationHandler) ListTags(c *fiber.Ctx) error {
	tags, err := h.Tags.FetchTags()
	if err != nil {
		h.Logger.WithError(err).Error("Could not list tags")
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Could not retrieve tag catalog")
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, tags)
}
