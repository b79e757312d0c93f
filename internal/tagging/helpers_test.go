package tagging

import (
	"errors"
	"testing"

	"callscope/tagging-gateway/internal/transcript"
	"callscope/tagging-gateway/models"
)

func word(text string, start, end float64, turn string) models.TranscriptWord {
	return models.TranscriptWord{Text: text, StartTime: start, EndTime: end, Turn: turn}
}

func buildModel(t *testing.T, words ...models.TranscriptWord) *transcript.Model {
	t.Helper()
	m := transcript.NewModel()
	if defects := m.Load(words); defects != 0 {
		t.Fatalf("fixture has %d timing defects", defects)
	}
	return m
}

// fiveWordModel is the canonical two-speaker-change fixture: turn1 (a b),
// turn2 (c d), turn3 (e).
func fiveWordModel(t *testing.T) *transcript.Model {
	t.Helper()
	return buildModel(t,
		word("a", 0, 1, "turn1"),
		word("b", 1, 2, "turn1"),
		word("c", 2, 3, "turn2"),
		word("d", 3, 4, "turn2"),
		word("e", 4, 5, "turn3"),
	)
}

func annFixture(id int64, callID string, start, end float64, tag, verbatim, speaker string) models.TaggedTurn {
	return models.TaggedTurn{
		ID:        id,
		CallID:    callID,
		StartTime: start,
		EndTime:   end,
		Tag:       tag,
		Verbatim:  verbatim,
		Speaker:   speaker,
	}
}

// fakeAnnotationStore is an in-memory AnnotationStore recording every call.
type fakeAnnotationStore struct {
	nextID      int64
	annotations map[int64]models.TaggedTurn

	creates int
	updates []int64
	deletes []int64
	fetches int

	failCreate bool
	failUpdate bool
	failDelete bool
	failFetch  bool
}

func newFakeStore() *fakeAnnotationStore {
	return &fakeAnnotationStore{nextID: 1, annotations: map[int64]models.TaggedTurn{}}
}

func (f *fakeAnnotationStore) mutations() int {
	return f.creates + len(f.updates) + len(f.deletes)
}

func (f *fakeAnnotationStore) add(ann models.TaggedTurn) models.TaggedTurn {
	ann.ID = f.nextID
	f.nextID++
	f.annotations[ann.ID] = ann
	return ann
}

func (f *fakeAnnotationStore) FetchAnnotations(callID string) ([]models.TaggedTurn, error) {
	f.fetches++
	if f.failFetch {
		return nil, errors.New("fetch refused")
	}
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
	return f.add(models.TaggedTurn{
		CallID:           draft.CallID,
		StartTime:        draft.StartTime,
		EndTime:          draft.EndTime,
		Tag:              draft.Tag,
		Verbatim:         draft.Verbatim,
		NextTurnTag:      draft.NextTurnTag,
		NextTurnVerbatim: draft.NextTurnVerbatim,
		Speaker:          draft.Speaker,
	}), nil
}

func (f *fakeAnnotationStore) UpdateAnnotation(id int64, patch map[string]interface{}) (models.TaggedTurn, error) {
	f.updates = append(f.updates, id)
	if f.failUpdate {
		return models.TaggedTurn{}, errors.New("update refused")
	}
	ann, ok := f.annotations[id]
	if !ok {
		return models.TaggedTurn{}, errors.New("not found")
	}
	for col, v := range patch {
		switch col {
		case "tag":
			ann.Tag = v.(string)
		case "verbatim":
			ann.Verbatim = v.(string)
		case "next_turn_tag":
			if v == nil {
				ann.NextTurnTag = nil
			} else {
				s := v.(string)
				ann.NextTurnTag = &s
			}
		case "next_turn_verbatim":
			if v == nil {
				ann.NextTurnVerbatim = nil
			} else {
				s := v.(string)
				ann.NextTurnVerbatim = &s
			}
		}
	}
	f.annotations[id] = ann
	return ann, nil
}

func (f *fakeAnnotationStore) DeleteAnnotation(id int64) error {
	f.deletes = append(f.deletes, id)
	if f.failDelete {
		return errors.New("delete refused")
	}
	if _, ok := f.annotations[id]; !ok {
		return errors.New("not found")
	}
	delete(f.annotations, id)
	return nil
}
