package store

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"callscope/tagging-gateway/models"
)

// duplicateTolerance is the slack in seconds used when probing for an
// existing annotation covering the same range. Two rapid commits over the
// same turn update the first row in place instead of stacking a near-exact
// duplicate.
const duplicateTolerance = 0.1

const turntaggedTable = "turntagged"

// AnnotationStore reads and writes turntagged rows. Annotation colors live in
// the lpltag catalog and are joined in on reads.
type AnnotationStore struct {
	db  *supa.Client
	log *logrus.Logger
}

// NewAnnotationStore returns a store over the given Supabase client.
func NewAnnotationStore(db *supa.Client, log *logrus.Logger) *AnnotationStore {
	return &AnnotationStore{db: db, log: log}
}

// taggedTurnRow carries the lpltag color join alongside the turntagged
// columns.
type taggedTurnRow struct {
	models.TaggedTurn
	Lpltag *struct {
		Color *string `json:"color"`
	} `json:"lpltag"`
}

func (r taggedTurnRow) flatten() models.TaggedTurn {
	ann := r.TaggedTurn
	if r.Lpltag != nil {
		ann.Color = r.Lpltag.Color
	}
	return ann
}

// FetchAnnotations returns all annotations of a call ordered by start time,
// with their catalog colors attached.
func (s *AnnotationStore) FetchAnnotations(callID string) ([]models.TaggedTurn, error) {
	var rows []taggedTurnRow
	_, err := s.db.From(turntaggedTable).
		Select("*, lpltag:tag (color)", "", false).
		Eq("call_id", callID).
		Order("start_time", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("fetch annotations for call %s: %w", callID, err)
	}

	anns := make([]models.TaggedTurn, 0, len(rows))
	for _, r := range rows {
		anns = append(anns, r.flatten())
	}
	return anns, nil
}

// CreateAnnotation inserts a new turntagged row. When a row for the same call
// and speaker already covers the draft's time range within
// duplicateTolerance, that row is updated in place instead; overlapping
// commits then converge on one row rather than piling up duplicates.
func (s *AnnotationStore) CreateAnnotation(draft models.NewTaggedTurn) (models.TaggedTurn, error) {
	var existing []models.TaggedTurn
	_, err := s.db.From(turntaggedTable).
		Select("*", "", false).
		Eq("call_id", draft.CallID).
		Eq("speaker", draft.Speaker).
		Gte("start_time", formatSeconds(draft.StartTime-duplicateTolerance)).
		Lte("end_time", formatSeconds(draft.EndTime+duplicateTolerance)).
		ExecuteTo(&existing)
	if err != nil {
		return models.TaggedTurn{}, fmt.Errorf("probe existing annotations: %w", err)
	}

	var ann models.TaggedTurn
	if len(existing) > 0 {
		patch := map[string]interface{}{
			"tag":      draft.Tag,
			"verbatim": draft.Verbatim,
		}
		if draft.NextTurnVerbatim != nil {
			patch["next_turn_verbatim"] = *draft.NextTurnVerbatim
		}
		if draft.NextTurnTag != nil {
			patch["next_turn_tag"] = *draft.NextTurnTag
		}
		ann, err = s.UpdateAnnotation(existing[0].ID, patch)
		if err != nil {
			return models.TaggedTurn{}, err
		}
		s.log.WithFields(logrus.Fields{
			"annotation_id": ann.ID,
			"call_id":       draft.CallID,
		}).Info("Annotation updated in place of near-duplicate insert")
	} else {
		var inserted []models.TaggedTurn
		_, err = s.db.From(turntaggedTable).
			Insert(draft, false, "", "representation", "").
			ExecuteTo(&inserted)
		if err != nil {
			return models.TaggedTurn{}, fmt.Errorf("insert annotation: %w", err)
		}
		if len(inserted) == 0 {
			return models.TaggedTurn{}, fmt.Errorf("insert annotation: no row returned")
		}
		ann = inserted[0]
	}

	ann.Color = s.tagColor(ann.Tag)
	return ann, nil
}

// UpdateAnnotation applies a column patch to one turntagged row and returns
// the updated annotation.
func (s *AnnotationStore) UpdateAnnotation(id int64, patch map[string]interface{}) (models.TaggedTurn, error) {
	var rows []models.TaggedTurn
	_, err := s.db.From(turntaggedTable).
		Update(patch, "representation", "").
		Eq("id", strconv.FormatInt(id, 10)).
		ExecuteTo(&rows)
	if err != nil {
		return models.TaggedTurn{}, fmt.Errorf("update annotation %d: %w", id, err)
	}
	if len(rows) == 0 {
		return models.TaggedTurn{}, fmt.Errorf("update annotation %d: not found", id)
	}

	ann := rows[0]
	ann.Color = s.tagColor(ann.Tag)
	return ann, nil
}

// DeleteAnnotation removes one turntagged row.
func (s *AnnotationStore) DeleteAnnotation(id int64) error {
	_, count, err := s.db.From(turntaggedTable).
		Delete("minimal", "exact").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return fmt.Errorf("delete annotation %d: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("delete annotation %d: not found", id)
	}
	return nil
}

// tagColor looks up the catalog color for a label. A missing catalog row is
// not an error; the annotation just renders uncolored.
func (s *AnnotationStore) tagColor(label string) *string {
	var tags []models.Tag
	_, err := s.db.From(lpltagTable).
		Select("color", "", false).
		Eq("label", label).
		ExecuteTo(&tags)
	if err != nil {
		s.log.WithField("tag", label).WithError(err).Warn("Could not fetch tag color")
		return nil
	}
	if len(tags) == 0 {
		return nil
	}
	return tags[0].Color
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
