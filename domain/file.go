package domain

import "time"

// File is an artifact associated with a publication.
type File struct {
	Identifier         string     `json:"identifier"`
	Name               string     `json:"name,omitempty"`
	MimeType           string     `json:"mimeType,omitempty"`
	Size               int64      `json:"size,omitempty"`
	VisibleForNonOwner bool       `json:"visibleForNonOwner"`
	EmbargoDate        *time.Time `json:"embargoDate,omitempty"`
}
