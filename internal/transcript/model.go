package transcript

import (
	"errors"
	"sort"

	"callscope/tagging-gateway/models"
)

// ErrEmptyTranscript is returned when a call's transcript resolves to zero
// words. There is nothing to tag or play back on such a call.
var ErrEmptyTranscript = errors.New("transcript has no words")

// tailTolerance is how far past the last word's end time a clock position may
// fall and still map to the last word. Audio players routinely report a final
// currentTime slightly beyond the last transcribed word.
const tailTolerance = 0.5

// Model owns the ordered word sequence of one loaded transcript. The sequence
// is immutable between Load calls; a new transcript load replaces it entirely.
type Model struct {
	words []models.TranscriptWord
}

// NewModel returns an empty transcript model.
func NewModel() *Model {
	return &Model{}
}

// Load replaces the model with a new word sequence. Words are re-indexed to
// their position in the sequence. Timing defects (start after end, start time
// decreasing across the sequence) are tolerated: the sequence is stable-sorted
// back into start-time order and the number of defects is returned so the
// caller can log them. Source transcripts vary in quality and a hard reject
// would make whole calls untaggable.
func (m *Model) Load(words []models.TranscriptWord) int {
	defects := 0
	ordered := true
	for i := range words {
		if words[i].StartTime > words[i].EndTime {
			defects++
		}
		if i > 0 && words[i].StartTime < words[i-1].StartTime {
			defects++
			ordered = false
		}
	}

	seq := make([]models.TranscriptWord, len(words))
	copy(seq, words)
	if !ordered {
		sort.SliceStable(seq, func(i, j int) bool {
			return seq[i].StartTime < seq[j].StartTime
		})
	}
	for i := range seq {
		seq[i].Index = i
	}

	m.words = seq
	return defects
}

// Words returns the loaded word sequence. Callers must not mutate it.
func (m *Model) Words() []models.TranscriptWord {
	return m.words
}

// Len returns the number of loaded words.
func (m *Model) Len() int {
	return len(m.words)
}

// Word returns the word at index i, or false when i is out of range.
func (m *Model) Word(i int) (models.TranscriptWord, bool) {
	if i < 0 || i >= len(m.words) {
		return models.TranscriptWord{}, false
	}
	return m.words[i], true
}

// GroupByTurn segments the word sequence into maximal contiguous runs sharing
// the same turn label. A speaker returning to an earlier label later in the
// call starts a new group; grouping is purely sequential. Concatenating the
// groups' word slices in order reproduces the sequence exactly.
func (m *Model) GroupByTurn() []models.TurnGroup {
	var groups []models.TurnGroup
	for i := 0; i < len(m.words); {
		j := i + 1
		for j < len(m.words) && m.words[j].Turn == m.words[i].Turn {
			j++
		}
		groups = append(groups, models.TurnGroup{
			Turn:      m.words[i].Turn,
			Words:     m.words[i:j],
			StartTime: m.words[i].StartTime,
			EndTime:   m.words[j-1].EndTime,
		})
		i = j
	}
	return groups
}

// WordAt returns the index of the word whose half-open interval
// [StartTime, EndTime) contains t. Zero-length words (inserted markers) are
// skipped. A position at or past the last word's end maps to the last
// displayable word within tailTolerance; gaps between words and an empty
// model return -1.
func (m *Model) WordAt(t float64) int {
	if len(m.words) == 0 {
		return -1
	}

	last := m.words[len(m.words)-1]
	if t >= last.EndTime {
		if t > last.EndTime+tailTolerance {
			return -1
		}
		for i := len(m.words) - 1; i >= 0; i-- {
			if m.words[i].EndTime > m.words[i].StartTime {
				return i
			}
		}
		return -1
	}

	// First word whose interval can still contain t.
	i := sort.Search(len(m.words), func(i int) bool {
		return m.words[i].EndTime > t
	})
	for ; i < len(m.words); i++ {
		w := m.words[i]
		if w.StartTime == w.EndTime {
			continue
		}
		if t >= w.StartTime && t < w.EndTime {
			return i
		}
		return -1
	}
	return -1
}
