package transcript

import (
	"fmt"
)

// Transport is the audio player the synchronizer steers. The real transport is
// the browser's audio element on the other side of the playback socket; tests
// inject a fake.
type Transport interface {
	// Seek moves the playhead to t seconds.
	Seek(t float64)
	// Play resumes playback. A transport error is reported to the caller of
	// OnWordClicked but does not affect the synchronizer's own state.
	Play() error
}

// Synchronizer keeps a single current-word index consistent with an external
// audio clock. It is the only owner of that index: the host UI reads it from
// highlight events, never writes it.
type Synchronizer struct {
	model     *Model
	transport Transport
	current   int
}

// NewSynchronizer returns a synchronizer over model driving transport.
// transport may be nil when there is nothing to steer (tests, detached
// sessions); seeks then only update the highlight.
func NewSynchronizer(model *Model, transport Transport) *Synchronizer {
	return &Synchronizer{model: model, transport: transport, current: -1}
}

// Current returns the last emitted word index, -1 before the first tick.
func (s *Synchronizer) Current() int {
	return s.current
}

// Reset clears the highlight. Must be called when the transcript is reloaded.
func (s *Synchronizer) Reset() {
	s.current = -1
}

// OnClockTick maps the clock position to a word index. changed reports whether
// the index differs from the previously emitted one; ticks that land on the
// same word are absorbed here so callers re-render at most once per word.
// Runs on every playback time update and does no I/O.
func (s *Synchronizer) OnClockTick(t float64) (index int, changed bool) {
	index = s.model.WordAt(t)
	if index == -1 || index == s.current {
		return s.current, false
	}
	s.current = index
	return index, true
}

// OnWordClicked seeks the transport to the clicked word's start time and
// resumes playback. The returned seek time is valid even when Play fails; a
// transport error never corrupts the highlight state.
func (s *Synchronizer) OnWordClicked(index int) (float64, error) {
	w, ok := s.model.Word(index)
	if !ok {
		return 0, fmt.Errorf("word index %d out of range", index)
	}

	seekTime := w.StartTime
	var playErr error
	if s.transport != nil {
		s.transport.Seek(seekTime)
		playErr = s.transport.Play()
	}
	s.OnClockTick(seekTime)

	if playErr != nil {
		return seekTime, fmt.Errorf("resume playback at %.3f: %w", seekTime, playErr)
	}
	return seekTime, nil
}
