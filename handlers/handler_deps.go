package handlers

import (
	"github.com/sirupsen/logrus"

	"callscope/tagging-gateway/internal/tagging"
	"callscope/tagging-gateway/models"
)

// TranscriptSource resolves a call to its ordered word sequence.
type TranscriptSource interface {
	FetchTranscript(callID string) ([]models.TranscriptWord, error)
}

// TagSource reads the tag catalog.
type TagSource interface {
	FetchTags() ([]models.Tag, error)
	ValidLabels() (map[string]bool, error)
}

// CallSource lists the calls available for tagging.
type CallSource interface {
	FetchTaggingCalls() ([]models.Call, error)
}

// ApplicationHandler holds shared dependencies for handlers. The stores are
// interfaces so handler tests can run against in-memory fakes.
type ApplicationHandler struct {
	Annotations tagging.AnnotationStore
	Transcripts TranscriptSource
	Tags        TagSource
	Calls       CallSource
	Logger      *logrus.Logger
	Sessions    *SessionRegistry
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(
	annotations tagging.AnnotationStore,
	transcripts TranscriptSource,
	tags TagSource,
	calls CallSource,
	logger *logrus.Logger,
) *ApplicationHandler {
	return &ApplicationHandler{
		Annotations: annotations,
		Transcripts: transcripts,
		Tags:        tags,
		Calls:       calls,
		Logger:      logger,
		Sessions:    NewSessionRegistry(),
	}
}
