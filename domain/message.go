package domain

import "time"

// Message is a single entry in a ticket conversation.
type Message struct {
	Identifier          string    `json:"identifier"`
	ResourceIdentifier  string    `json:"resourceIdentifier"`
	TicketIdentifier    string    `json:"ticketIdentifier"`
	CustomerID          string    `json:"customerId,omitempty"`
	OwnerOrganizationID string    `json:"ownerOrganizationId"`
	Sender              string    `json:"sender"`
	Text                string    `json:"text"`
	CreatedDate         time.Time `json:"createdDate"`
}
