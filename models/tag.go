package models

// Tag is a row of the lpltag catalog: the labels annotators can choose from.
type Tag struct {
	ID          int64   `json:"id,omitempty"`
	Label       string  `json:"label"`
	Color       *string `json:"color,omitempty"`
	Description *string `json:"description,omitempty"`
	Family      *string `json:"family,omitempty"`
}
