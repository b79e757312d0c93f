package models

// TaggedTurn represents an annotation attached to a time range of a call
// transcript, stored in the turntagged table. Color is joined in from the
// lpltag catalog and is not a column of turntagged itself.
type TaggedTurn struct {
	ID               int64   `json:"id"`
	CallID           string  `json:"call_id"`
	StartTime        float64 `json:"start_time"`
	EndTime          float64 `json:"end_time"`
	Tag              string  `json:"tag"`
	Verbatim         string  `json:"verbatim"`
	NextTurnTag      *string `json:"next_turn_tag,omitempty"`
	NextTurnVerbatim *string `json:"next_turn_verbatim,omitempty"`
	Speaker          string  `json:"speaker"`
	Color            *string `json:"color,omitempty"`
}

// NewTaggedTurn is the insert payload for a turntagged row.
type NewTaggedTurn struct {
	CallID           string  `json:"call_id"`
	StartTime        float64 `json:"start_time"`
	EndTime          float64 `json:"end_time"`
	Tag              string  `json:"tag"`
	Verbatim         string  `json:"verbatim"`
	NextTurnTag      *string `json:"next_turn_tag,omitempty"`
	NextTurnVerbatim *string `json:"next_turn_verbatim,omitempty"`
	Speaker          string  `json:"speaker"`
}
