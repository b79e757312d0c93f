package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"callscope/tagging-gateway/internal/transcript"
	"callscope/tagging-gateway/utils"
)

// GetTranscript returns a call's word sequence grouped into speaker turns,
// ready for the transcript view to render.
// GET /api/v1/calls/:callId/transcript
func (h *ApplicationHandler) GetTranscript(c *fiber.Ctx) error {
	callID := c.Params("callId")

	words, err := h.Transcripts.FetchTranscript(callID)
	if err != nil {
		h.Logger.WithField("call_id", callID).WithError(err).Error("Could not fetch transcript")
		return utils.RespondWithError(c, fiber.StatusNotFound, "Transcript not found for call")
	}

	model := transcript.NewModel()
	defects := model.Load(words)
	if defects > 0 {
		h.Logger.WithFields(logrus.Fields{
			"call_id": callID,
			"defects": defects,
		}).Warn("Transcript served with timing defects")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"call_id":     callID,
		"words":       model.Words(),
		"turn_groups": model.GroupByTurn(),
		"defects":     defects,
	})
}
