package store

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"callscope/tagging-gateway/models"
)

// TranscriptStore resolves a call to its transcript and word rows.
type TranscriptStore struct {
	db  *supa.Client
	log *logrus.Logger
}

// NewTranscriptStore returns a store over the given Supabase client.
func NewTranscriptStore(db *supa.Client, log *logrus.Logger) *TranscriptStore {
	return &TranscriptStore{db: db, log: log}
}

// FetchTranscript returns the word sequence of a call ordered by start time.
// Word rows predating the turn column fall back to their speaker label, and
// rows storing the word under the legacy `word` column are mapped to Text, so
// old transcripts stay taggable.
func (s *TranscriptStore) FetchTranscript(callID string) ([]models.TranscriptWord, error) {
	var transcripts []models.Transcript
	_, err := s.db.From("transcript").
		Select("transcriptid", "", false).
		Eq("callid", callID).
		ExecuteTo(&transcripts)
	if err != nil {
		return nil, fmt.Errorf("resolve transcript for call %s: %w", callID, err)
	}
	if len(transcripts) == 0 {
		return nil, fmt.Errorf("no transcript for call %s", callID)
	}

	var words []models.TranscriptWord
	_, err = s.db.From("word").
		Select("*", "", false).
		Eq("transcriptid", transcripts[0].TranscriptID).
		Order("startTime", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&words)
	if err != nil {
		return nil, fmt.Errorf("fetch words for transcript %s: %w", transcripts[0].TranscriptID, err)
	}

	for i := range words {
		if words[i].Text == "" {
			words[i].Text = words[i].Word
		}
		if words[i].Turn == "" {
			words[i].Turn = words[i].Speaker
		}
		words[i].Index = i
	}

	s.log.WithFields(logrus.Fields{
		"call_id":    callID,
		"word_count": len(words),
	}).Info("Transcript fetched")
	return words, nil
}
