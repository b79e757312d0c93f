package models

// TranscriptWord represents one word row of a call transcript in the database.
// StartTime/EndTime are seconds from the beginning of the audio. Index is the
// position of the word in the loaded sequence and is assigned when the
// transcript is fetched, not stored.
type TranscriptWord struct {
	ID           int64   `json:"id,omitempty"`
	TranscriptID string  `json:"transcriptid,omitempty"`
	Word         string  `json:"word,omitempty"`
	Text         string  `json:"text"`
	StartTime    float64 `json:"startTime"`
	EndTime      float64 `json:"endTime"`
	Speaker      string  `json:"speaker,omitempty"`
	Turn         string  `json:"turn"`
	Index        int     `json:"index"`
}

// Transcript maps a call to its word rows.
type Transcript struct {
	TranscriptID string `json:"transcriptid"`
	CallID       string `json:"callid"`
}

// TurnGroup is a maximal contiguous run of words sharing the same turn label.
// Derived from the word sequence, never stored.
type TurnGroup struct {
	Turn      string           `json:"turn"`
	Words     []TranscriptWord `json:"words"`
	StartTime float64          `json:"start_time"`
	EndTime   float64          `json:"end_time"`
}
