package models

// Call represents an imported call in the database. Only calls flagged for
// tagging and prepared for transcript display show up in the annotation UI.
type Call struct {
	CallID                string  `json:"callid"`
	AudioURL              *string `json:"audiourl,omitempty"`
	Filename              *string `json:"filename,omitempty"`
	Description           *string `json:"description,omitempty"`
	IsTaggingCall         bool    `json:"is_tagging_call"`
	PreparedForTranscript bool    `json:"preparedfortranscript"`
}
