package domain

import "time"

// TicketType discriminates the kinds of cases that users can open against a
// publication.
type TicketType string

const (
	TicketTypeDoiRequest            TicketType = "DoiRequest"
	TicketTypePublishingRequest     TicketType = "PublishingRequest"
	TicketTypeUnpublishRequest      TicketType = "UnpublishRequest"
	TicketTypeFileApprovalThesis    TicketType = "FileApprovalThesis"
	TicketTypeGeneralSupportRequest TicketType = "GeneralSupportRequest"
	TicketTypeResourceConversation  TicketType = "ResourceConversation"
)

// TicketStatus is the internal state machine of a ticket as persisted by the
// repository.
type TicketStatus string

const (
	TicketStatusNew           TicketStatus = "New"
	TicketStatusPending       TicketStatus = "Pending"
	TicketStatusAssigned      TicketStatus = "Assigned"
	TicketStatusCompleted     TicketStatus = "Completed"
	TicketStatusClosed        TicketStatus = "Closed"
	TicketStatusNotApplicable TicketStatus = "NotApplicable"
)

// TicketStatuses lists every internal status value. Status mapping is
// required to be total over this list.
var TicketStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusPending,
	TicketStatusAssigned,
	TicketStatusCompleted,
	TicketStatusClosed,
	TicketStatusNotApplicable,
}

// Ticket is a stored case opened against a publication. The zero value of the
// optional person references (Assignee, FinalizedBy) is the empty string.
type Ticket struct {
	Identifier          string       `json:"identifier"`
	Type                TicketType   `json:"type"`
	Status              TicketStatus `json:"status"`
	ResourceIdentifier  string       `json:"resourceIdentifier"`
	CustomerID          string       `json:"customerId,omitempty"`
	OwnerOrganizationID string       `json:"ownerOrganizationId"`
	Owner               string       `json:"owner"`
	Assignee            string       `json:"assignee,omitempty"`
	FinalizedBy         string       `json:"finalizedBy,omitempty"`
	ViewedBy            []string     `json:"viewedBy,omitempty"`
	CreatedDate         time.Time    `json:"createdDate"`
	ModifiedDate        time.Time    `json:"modifiedDate"`

	// DoiRequest only.
	DOI string `json:"doi,omitempty"`

	// PublishingRequest and FileApprovalThesis only.
	Workflow         string   `json:"workflow,omitempty"`
	ApprovedFiles    []string `json:"approvedFiles,omitempty"`
	FilesForApproval []string `json:"filesForApproval,omitempty"`
}
