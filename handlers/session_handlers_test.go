package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callscope/tagging-gateway/models"
)

type fakeAnnotationStore struct {
	nextID      int64
	annotations map[int64]models.TaggedTurn
	creates     int
	updates     int
	deletes     int
	failCreate  bool
}

func newFakeAnnotationStore() *fakeAnnotationStore {
	return &fakeAnnotationStore{nextID: 1, annotations: map[int64]models.TaggedTurn{}}
}

func (f *fakeAnnotationStore) FetchAnnotations(callID string) ([]models.TaggedTurn, error) {
	var out []models.TaggedTurn
	for _, ann := range f.annotations {
		if ann.CallID == callID {
			out = append(out, ann)
		}
	}
	return out, nil
}

func (f *fakeAnnotationStore) CreateAnnotation(draft models.NewTaggedTurn) (models.TaggedTurn, error) {
	f.creates++
	if f.failCreate {
		return models.TaggedTurn{}, errors.New("insert refused")
	}
	ann := models.TaggedTurn{
		ID:               f.nextID,
		CallID:           draft.CallID,
		StartTime:        draft.StartTime,
		EndTime:          draft.EndTime,
		Tag:              draft.Tag,
		Verbatim:         draft.Verbatim,
		NextTurnTag:      draft.NextTurnTag,
		NextTurnVerbatim: draft.NextTurnVerbatim,
		Speaker:          draft.Speaker,
	}
	f.nextID++
	f.annotations[ann.ID] = ann
	return ann, nil
}

func (f *fakeAnnotationStore) UpdateAnnotation(id int64, patch map[string]interface{}) (models.TaggedTurn, error) {
	f.updates++
	ann, ok := f.annotations[id]
	if !ok {
		return models.TaggedTurn{}, errors.New("not found")
	}
	if tag, ok := patch["tag"].(string); ok {
		ann.Tag = tag
	}
	f.annotations[id] = ann
	return ann, nil
}

func (f *fakeAnnotationStore) DeleteAnnotation(id int64) error {
	f.deletes++
	if _, ok := f.annotations[id]; !ok {
		return errors.New("not found")
	}
	delete(f.annotations, id)
	return nil
}

type fakeTranscripts struct {
	words map[string][]models.TranscriptWord
}

func (f *fakeTranscripts) FetchTranscript(callID string) ([]models.TranscriptWord, error) {
	words, ok := f.words[callID]
	if !ok {
		return nil, errors.New("no transcript")
	}
	return words, nil
}

type fakeTags struct{ tags []models.Tag }

func (f *fakeTags) FetchTags() ([]models.Tag, error) { return f.tags, nil }

func (f *fakeTags) ValidLabels() (map[string]bool, error) {
	labels := map[string]bool{}
	for _, tag := range f.tags {
		labels[tag.Label] = true
	}
	return labels, nil
}

type fakeCalls struct{ calls []models.Call }

func (f *fakeCalls) FetchTaggingCalls() ([]models.Call, error) { return f.calls, nil }

func fixtureWords() []models.TranscriptWord {
	mk := func(text string, start, end float64, turn string) models.TranscriptWord {
		return models.TranscriptWord{Text: text, StartTime: start, EndTime: end, Turn: turn}
	}
	return []models.TranscriptWord{
		mk("a", 0, 1, "turn1"),
		mk("b", 1, 2, "turn1"),
		mk("c", 2, 3, "turn2"),
		mk("d", 3, 4, "turn2"),
		mk("e", 4, 5, "turn3"),
	}
}

func newTestApp(store *fakeAnnotationStore) *fiber.App {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	h := NewApplicationHandler(
		store,
		&fakeTranscripts{words: map[string][]models.TranscriptWord{
			"call-1":     fixtureWords(),
			"call-empty": {},
		}},
		&fakeTags{tags: []models.Tag{{Label: "OUVERTURE"}, {Label: "REFLET"}}},
		&fakeCalls{},
		logger,
	)

	app := fiber.New()
	sessions := app.Group("/api/v1/tagging/sessions")
	sessions.Post("", h.CreateSession)
	sessions.Post("/:id/selection", h.Selection)
	sessions.Post("/:id/annotation", h.AnnotationClick)
	sessions.Post("/:id/commit", h.CommitSelection)
	sessions.Post("/:id/cancel", h.CancelSelection)
	sessions.Post("/:id/remove", h.RemoveSelection)
	sessions.Delete("/:id", h.CloseSession)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func openSession(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp := postJSON(t, app, "/api/v1/tagging/sessions", fiber.Map{"call_id": "call-1"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var data struct {
		SessionID string `json:"session_id"`
		WordCount int    `json:"word_count"`
	}
	decodeData(t, resp, &data)
	require.NotEmpty(t, data.SessionID)
	require.Equal(t, 5, data.WordCount)
	return data.SessionID
}

func TestSessionFlow_SelectionCommit(t *testing.T) {
	store := newFakeAnnotationStore()
	app := newTestApp(store)
	sessionID := openSession(t, app)

	resp := postJSON(t, app, fmt.Sprintf("/api/v1/tagging/sessions/%s/selection", sessionID), fiber.Map{
		"start_word_index": 0,
		"end_word_index":   1,
		"anchor":           fiber.Map{"x": 12, "y": 40},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var selData struct {
		Target struct {
			Mode string  `json:"mode"`
			Text string  `json:"text"`
			Turn string  `json:"turn"`
			End  float64 `json:"end_time"`
		} `json:"target"`
		Suggestion *struct {
			Turn     string `json:"turn"`
			Verbatim string `json:"verbatim"`
		} `json:"suggestion"`
	}
	decodeData(t, resp, &selData)
	assert.Equal(t, "create", selData.Target.Mode)
	assert.Equal(t, "a b", selData.Target.Text)
	assert.Equal(t, "turn1", selData.Target.Turn)
	require.NotNil(t, selData.Suggestion)
	assert.Equal(t, "turn2", selData.Suggestion.Turn)
	assert.Equal(t, "c d", selData.Suggestion.Verbatim)

	resp = postJSON(t, app, fmt.Sprintf("/api/v1/tagging/sessions/%s/commit", sessionID), fiber.Map{"tag": "OUVERTURE"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var commitData struct {
		Annotation models.TaggedTurn `json:"annotation"`
	}
	decodeData(t, resp, &commitData)
	assert.Equal(t, "OUVERTURE", commitData.Annotation.Tag)
	assert.Equal(t, 0.0, commitData.Annotation.StartTime)
	assert.Equal(t, 2.0, commitData.Annotation.EndTime)
	assert.Equal(t, "a b", commitData.Annotation.Verbatim)
	require.NotNil(t, commitData.Annotation.NextTurnTag)
	assert.Equal(t, "turn2", *commitData.Annotation.NextTurnTag)

	assert.Equal(t, 1, store.creates)
	assert.Len(t, store.annotations, 1)
}

func TestSessionFlow_InvalidSelection(t *testing.T) {
	app := newTestApp(newFakeAnnotationStore())
	sessionID := openSession(t, app)

	resp := postJSON(t, app, fmt.Sprintf("/api/v1/tagging/sessions/%s/selection", sessionID), fiber.Map{
		"start_word_index": 3,
		"end_word_index":   1,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSessionFlow_CancelTouchesNothing(t *testing.T) {
	store := newFakeAnnotationStore()
	app := newTestApp(store)
	sessionID := openSession(t, app)

	resp := postJSON(t, app, fmt.Sprintf("/api/v1/tagging/sessions/%s/selection", sessionID), fiber.Map{
		"start_word_index": 0,
		"end_word_index":   1,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = postJSON(t, app, fmt.Sprintf("/api/v1/tagging/sessions/%s/cancel", sessionID), fiber.Map{})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Zero(t, store.creates+store.updates+store.deletes)

	// Committing after the cancel finds nothing pending.
	resp = postJSON(t, app, fmt.Sprintf("/api/v1/tagging/sessions/%s/commit", sessionID), fiber.Map{"tag": "OUVERTURE"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestSessionFlow_CommitFailureKeepsSelectionOpen(t *testing.T) {
	store := newFakeAnnotationStore()
	store.failCreate = true
	app := newTestApp(store)
	sessionID := openSession(t, app)

	resp := postJSON(t, app, fmt.Sprintf("/api/v1/tagging/sessions/%s/selection", sessionID), fiber.Map{
		"start_word_index": 0,
		"end_word_index":   1,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = postJSON(t, app, fmt.Sprintf("/api/v1/tagging/sessions/%s/commit", sessionID), fiber.Map{"tag": "OUVERTURE"})
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	// The selection survived the store failure; a retry succeeds.
	store.failCreate = false
	resp = postJSON(t, app, fmt.Sprintf("/api/v1/tagging/sessions/%s/commit", sessionID), fiber.Map{"tag": "OUVERTURE"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, store.annotations, 1)
}

func TestSessionFlow_EditAndRemove(t *testing.T) {
	store := newFakeAnnotationStore()
	existing, err := store.CreateAnnotation(models.NewTaggedTurn{
		CallID: "call-1", StartTime: 2, EndTime: 4, Tag: "REFLET", Verbatim: "c d", Speaker: "turn2",
	})
	require.NoError(t, err)
	store.creates = 0

	app := newTestApp(store)
	sessionID := openSession(t, app)

	resp := postJSON(t, app, fmt.Sprintf("/api/v1/tagging/sessions/%s/annotation", sessionID), fiber.Map{
		"annotation_id": existing.ID,
		"anchor":        fiber.Map{"x": 5, "y": 9},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var clickData struct {
		Target struct {
			Mode string `json:"mode"`
		} `json:"target"`
	}
	decodeData(t, resp, &clickData)
	assert.Equal(t, "edit", clickData.Target.Mode)

	resp = postJSON(t, app, fmt.Sprintf("/api/v1/tagging/sessions/%s/remove", sessionID), fiber.Map{})
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Empty(t, store.annotations)
	assert.Zero(t, store.creates)
}

func TestCreateSession_EmptyTranscript(t *testing.T) {
	app := newTestApp(newFakeAnnotationStore())
	resp := postJSON(t, app, "/api/v1/tagging/sessions", fiber.Map{"call_id": "call-empty"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSessionFlow_UnknownSession(t *testing.T) {
	app := newTestApp(newFakeAnnotationStore())
	resp := postJSON(t, app, "/api/v1/tagging/sessions/nope/selection", fiber.Map{
		"start_word_index": 0, "end_word_index": 1,
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
