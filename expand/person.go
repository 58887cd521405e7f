package expand

import "context"

// ExpandedPerson is the display identity attached to tickets and messages.
// When the person directory has no record for a username, every name field
// is empty and only the username is populated; a directory miss is never an
// expansion failure.
type ExpandedPerson struct {
	Username           string `json:"username"`
	FirstName          string `json:"firstName,omitempty"`
	LastName           string `json:"lastName,omitempty"`
	PreferredFirstName string `json:"preferredFirstName,omitempty"`
	PreferredLastName  string `json:"preferredLastName,omitempty"`
}

// FallbackPerson returns the minimal identity used when a directory lookup
// yields nothing.
func FallbackPerson(username string) *ExpandedPerson {
	return &ExpandedPerson{Username: username}
}

// PersonResolver resolves a username reference into a display identity.
// Implementations are expected to be total: a lookup miss returns the
// fallback identity, not an error. The expansion layer still degrades to the
// fallback on error so that one unreachable directory member never poisons
// the document being assembled.
type PersonResolver interface {
	ResolvePerson(ctx context.Context, username string) (*ExpandedPerson, error)
}
