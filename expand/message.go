package expand

import (
	"context"
	"time"

	"github.com/openarchive/repository-index-adapter/domain"
)

// ExpandedMessage is the expanded form of a single conversation message,
// both as a nested member of an expanded ticket and as a standalone entry.
type ExpandedMessage struct {
	Type               EntryType       `json:"type"`
	ID                 string          `json:"id"`
	Identifier         string          `json:"identifier"`
	ResourceIdentifier string          `json:"resourceIdentifier"`
	TicketIdentifier   string          `json:"ticketIdentifier,omitempty"`
	CustomerID         string          `json:"customerId,omitempty"`
	Sender             *ExpandedPerson `json:"sender,omitempty"`
	Text               string          `json:"text,omitempty"`
	CreatedDate        time.Time       `json:"createdDate"`
	OrganizationIDs    []string        `json:"organizationIds"`
}

// EntryType implements Entry.
func (m *ExpandedMessage) EntryType() EntryType {
	return EntryTypeMessage
}

// EntryID implements Entry.
func (m *ExpandedMessage) EntryID() string {
	return m.ID
}

// ExpandMessage expands one message. Every message carries its own viewing
// scope, resolved independently of any ticket that nests it; a scope
// resolution failure here is transient and degrades to the bare owning
// organization rather than failing the surrounding expansion.
func (e *TicketExpander) ExpandMessage(ctx context.Context, m domain.Message) ExpandedMessage {
	scope, err := e.organizations.ResolveScope(ctx, m.OwnerOrganizationID)
	if err != nil {
		e.logger.WithField("organization", m.OwnerOrganizationID).
			Warn("Viewing scope of message could not be resolved: ", err)
		scope = []string{m.OwnerOrganizationID}
	}
	return ExpandedMessage{
		Type:               EntryTypeMessage,
		ID:                 TicketID(e.baseURL, m.ResourceIdentifier, m.TicketIdentifier) + "/message/" + m.Identifier,
		Identifier:         m.Identifier,
		ResourceIdentifier: m.ResourceIdentifier,
		TicketIdentifier:   m.TicketIdentifier,
		CustomerID:         m.CustomerID,
		Sender:             e.resolvePerson(ctx, m.Sender),
		Text:               m.Text,
		CreatedDate:        m.CreatedDate,
		OrganizationIDs:    scope,
	}
}
