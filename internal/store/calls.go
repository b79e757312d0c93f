package store

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"callscope/tagging-gateway/models"
)

// CallStore reads the call table.
type CallStore struct {
	db  *supa.Client
	log *logrus.Logger
}

// NewCallStore returns a store over the given Supabase client.
func NewCallStore(db *supa.Client, log *logrus.Logger) *CallStore {
	return &CallStore{db: db, log: log}
}

// FetchTaggingCalls returns the calls flagged for tagging, most recent first.
// Calls not yet prepared for transcript display are included so the UI can
// show their preparation state.
func (s *CallStore) FetchTaggingCalls() ([]models.Call, error) {
	var calls []models.Call
	_, err := s.db.From("call").
		Select("*", "", false).
		Eq("is_tagging_call", "true").
		Order("callid", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&calls)
	if err != nil {
		return nil, fmt.Errorf("fetch tagging calls: %w", err)
	}
	return calls, nil
}
