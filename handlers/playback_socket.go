package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"callscope/tagging-gateway/internal/transcript"
)

// playbackMessage is what the browser sends over the playback socket: clock
// ticks while the audio plays, and clicks on rendered words.
type playbackMessage struct {
	Type      string  `json:"type"` // "tick" or "click"
	Time      float64 `json:"time,omitempty"`
	WordIndex int     `json:"word_index,omitempty"`
}

// playbackEvent is what the gateway pushes back: highlight changes and seek
// commands for the audio element.
type playbackEvent struct {
	Type      string  `json:"type"` // "highlight", "seek", "play" or "error"
	WordIndex int     `json:"word_index,omitempty"`
	Time      float64 `json:"time,omitempty"`
	Message   string  `json:"message,omitempty"`
}

// socketTransport steers the browser's audio element from the server side of
// the playback socket.
type socketTransport struct {
	conn *websocket.Conn
}

func (t *socketTransport) Seek(sec float64) {
	_ = t.conn.WriteJSON(playbackEvent{Type: "seek", Time: sec})
}

func (t *socketTransport) Play() error {
	return t.conn.WriteJSON(playbackEvent{Type: "play"})
}

// PlaybackUpgrade gates the playback route to websocket requests.
func PlaybackUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// PlaybackSocket drives word highlighting for one client. Each connection
// owns its synchronizer, so two viewers of the same session highlight
// independently. The read loop is the only goroutine touching the connection;
// ticks are cheap and do no I/O unless the highlighted word changes.
// GET /api/v1/tagging/sessions/:id/playback
func (h *ApplicationHandler) PlaybackSocket(c *websocket.Conn) {
	defer c.Close()

	session, ok := h.Sessions.Get(c.Params("id"))
	if !ok {
		_ = c.WriteJSON(playbackEvent{Type: "error", Message: "tagging session not found"})
		return
	}

	syncer := transcript.NewSynchronizer(session.Model, &socketTransport{conn: c})
	log := h.Logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"call_id":    session.CallID,
	})
	log.Info("Playback socket connected")

	for {
		var msg playbackMessage
		if err := c.ReadJSON(&msg); err != nil {
			log.WithError(err).Debug("Playback socket closed")
			return
		}

		switch msg.Type {
		case "tick":
			index, changed := syncer.OnClockTick(msg.Time)
			if !changed {
				continue
			}
			if err := c.WriteJSON(playbackEvent{Type: "highlight", WordIndex: index, Time: msg.Time}); err != nil {
				return
			}
		case "click":
			seekTime, err := syncer.OnWordClicked(msg.WordIndex)
			if err != nil {
				log.WithError(err).Warn("Word click rejected")
				_ = c.WriteJSON(playbackEvent{Type: "error", Message: err.Error()})
				continue
			}
			if err := c.WriteJSON(playbackEvent{Type: "highlight", WordIndex: syncer.Current(), Time: seekTime}); err != nil {
				return
			}
		default:
			_ = c.WriteJSON(playbackEvent{Type: "error", Message: "unknown message type"})
		}
	}
}
