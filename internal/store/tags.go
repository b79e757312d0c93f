package store

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"callscope/tagging-gateway/models"
)

const lpltagTable = "lpltag"

// TagStore reads the lpltag catalog.
type TagStore struct {
	db  *supa.Client
	log *logrus.Logger
}

// NewTagStore returns a store over the given Supabase client.
func NewTagStore(db *supa.Client, log *logrus.Logger) *TagStore {
	return &TagStore{db: db, log: log}
}

// FetchTags returns the full tag catalog ordered by label.
func (s *TagStore) FetchTags() ([]models.Tag, error) {
	var tags []models.Tag
	_, err := s.db.From(lpltagTable).
		Select("*", "", false).
		Order("label", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&tags)
	if err != nil {
		return nil, fmt.Errorf("fetch tag catalog: %w", err)
	}
	return tags, nil
}

// ValidLabels returns the catalog labels as a set, used to reject unknown
// labels during next-turn recomputes.
func (s *TagStore) ValidLabels() (map[string]bool, error) {
	tags, err := s.FetchTags()
	if err != nil {
		return nil, err
	}
	labels := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t.Label != "" {
			labels[t.Label] = true
		}
	}
	return labels, nil
}
