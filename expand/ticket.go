package expand

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/openarchive/repository-index-adapter/document"
	"github.com/openarchive/repository-index-adapter/domain"
)

// ResourceReader fetches the stored publication a ticket refers to. A ticket
// is meaningless without its publication, so a read failure here is fatal to
// the one expansion that needed it.
type ResourceReader interface {
	GetResource(ctx context.Context, identifier string) (document.Document, error)
}

// MessageLister lists the stored conversation of a ticket.
type MessageLister interface {
	MessagesByTicket(ctx context.Context, ticketIdentifier string) ([]domain.Message, error)
}

// ExpandedTicket carries the fields shared by every ticket variant. Variants
// embed it and add their own data; the discriminator in Type selects the
// variant explicitly rather than through subtype dispatch.
type ExpandedTicket struct {
	Type            EntryType          `json:"type"`
	ID              string             `json:"id"`
	Identifier      string             `json:"identifier"`
	CustomerID      string             `json:"customerId,omitempty"`
	Status          Status             `json:"status"`
	CreatedDate     time.Time          `json:"createdDate"`
	ModifiedDate    time.Time          `json:"modifiedDate"`
	Publication     PublicationSummary `json:"publication"`
	OrganizationIDs []string           `json:"organizationIds"`
	Owner           *ExpandedPerson    `json:"owner,omitempty"`
	Assignee        *ExpandedPerson    `json:"assignee,omitempty"`
	FinalizedBy     *ExpandedPerson    `json:"finalizedBy,omitempty"`
	ViewedBy        []ExpandedPerson   `json:"viewedBy,omitempty"`
	Messages        []ExpandedMessage  `json:"messages,omitempty"`
}

// EntryType implements Entry.
func (t *ExpandedTicket) EntryType() EntryType {
	return t.Type
}

// EntryID implements Entry.
func (t *ExpandedTicket) EntryID() string {
	return t.ID
}

// ExpandedDoiRequest is a ticket requesting a DOI for a publication.
type ExpandedDoiRequest struct {
	ExpandedTicket
	DOI string `json:"doi,omitempty"`
}

// ExpandedPublishingRequest is a ticket requesting publication of a resource
// under a publishing workflow.
type ExpandedPublishingRequest struct {
	ExpandedTicket
	Workflow         string   `json:"workflow,omitempty"`
	ApprovedFiles    []string `json:"approvedFiles,omitempty"`
	FilesForApproval []string `json:"filesForApproval,omitempty"`
}

// ExpandedFileApprovalThesis is the thesis variant of a file approval
// workflow; structurally a publishing request with its own discriminator.
type ExpandedFileApprovalThesis struct {
	ExpandedTicket
	Workflow         string   `json:"workflow,omitempty"`
	ApprovedFiles    []string `json:"approvedFiles,omitempty"`
	FilesForApproval []string `json:"filesForApproval,omitempty"`
}

// ExpandedUnpublishRequest is a ticket requesting removal of a published
// resource. It carries no structured fields beyond the common skeleton.
type ExpandedUnpublishRequest struct {
	ExpandedTicket
}

// ExpandedGeneralSupportRequest is a free-form support ticket.
type ExpandedGeneralSupportRequest struct {
	ExpandedTicket
}

// ExpandedResourceConversation is the message thread attached directly to a
// publication. Its discriminator value is PublicationConversation.
type ExpandedResourceConversation struct {
	ExpandedTicket
}

// TicketExpander assembles the expanded form of every ticket variant. It is
// stateless between calls; the injected collaborators must be safe for
// concurrent use by multiple in-flight expansions.
type TicketExpander struct {
	logger        logrus.FieldLogger
	resources     ResourceReader
	messages      MessageLister
	persons       PersonResolver
	organizations OrganizationScopeResolver
	baseURL       *url.URL
}

// NewTicketExpander returns a usable TicketExpander.
func NewTicketExpander(
	logger logrus.FieldLogger,
	resources ResourceReader, messages MessageLister,
	persons PersonResolver, organizations OrganizationScopeResolver,
	baseURL *url.URL) *TicketExpander {
	return &TicketExpander{
		logger:        logger,
		resources:     resources,
		messages:      messages,
		persons:       persons,
		organizations: organizations,
		baseURL:       baseURL,
	}
}

// Expand builds the expanded document of a ticket. The underlying
// publication and the owning organization are required aggregates: if either
// cannot be resolved the expansion fails. Person directory misses and
// unreachable viewed-by members degrade to fallback identities instead.
func (e *TicketExpander) Expand(ctx context.Context, t *domain.Ticket) (Entry, error) {
	common, err := e.expandCommon(ctx, t)
	if err != nil {
		return nil, err
	}
	switch t.Type {
	case domain.TicketTypeDoiRequest:
		common.Type = EntryTypeDoiRequest
		return &ExpandedDoiRequest{ExpandedTicket: *common, DOI: t.DOI}, nil
	case domain.TicketTypePublishingRequest:
		common.Type = EntryTypePublishingRequest
		return &ExpandedPublishingRequest{
			ExpandedTicket:   *common,
			Workflow:         t.Workflow,
			ApprovedFiles:    t.ApprovedFiles,
			FilesForApproval: t.FilesForApproval,
		}, nil
	case domain.TicketTypeFileApprovalThesis:
		common.Type = EntryTypeFileApprovalThesis
		return &ExpandedFileApprovalThesis{
			ExpandedTicket:   *common,
			Workflow:         t.Workflow,
			ApprovedFiles:    t.ApprovedFiles,
			FilesForApproval: t.FilesForApproval,
		}, nil
	case domain.TicketTypeUnpublishRequest:
		common.Type = EntryTypeUnpublishRequest
		return &ExpandedUnpublishRequest{ExpandedTicket: *common}, nil
	case domain.TicketTypeGeneralSupportRequest:
		common.Type = EntryTypeGeneralSupportRequest
		return &ExpandedGeneralSupportRequest{ExpandedTicket: *common}, nil
	case domain.TicketTypeResourceConversation:
		common.Type = EntryTypePublicationConversation
		return &ExpandedResourceConversation{ExpandedTicket: *common}, nil
	}
	return nil, errors.Errorf("unknown ticket type %q", t.Type)
}

func (e *TicketExpander) expandCommon(ctx context.Context, t *domain.Ticket) (*ExpandedTicket, error) {
	doc, err := e.resources.GetResource(ctx, t.ResourceIdentifier)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching publication %s for ticket %s", t.ResourceIdentifier, t.Identifier)
	}
	if doc.ID() == "" {
		doc.SetID(PublicationID(e.baseURL, t.ResourceIdentifier))
	}
	summary := SummarizePublication(doc)

	scope, err := e.organizations.ResolveScope(ctx, t.OwnerOrganizationID)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving viewing scope of %s", t.OwnerOrganizationID)
	}

	common := &ExpandedTicket{
		ID:              TicketID(e.baseURL, t.ResourceIdentifier, t.Identifier),
		Identifier:      t.Identifier,
		CustomerID:      t.CustomerID,
		Status:          MapStatus(t.Status),
		CreatedDate:     t.CreatedDate,
		ModifiedDate:    t.ModifiedDate,
		Publication:     summary,
		OrganizationIDs: scope,
		Owner:           e.resolvePerson(ctx, t.Owner),
		Assignee:        e.resolvePerson(ctx, t.Assignee),
		FinalizedBy:     e.resolvePerson(ctx, t.FinalizedBy),
	}

	// Each viewed-by member resolves independently; one failed lookup must
	// not drop the others.
	for _, member := range t.ViewedBy {
		if p := e.resolvePerson(ctx, member); p != nil {
			common.ViewedBy = append(common.ViewedBy, *p)
		}
	}

	msgs, err := e.messages.MessagesByTicket(ctx, t.Identifier)
	if err != nil {
		return nil, errors.Wrapf(err, "listing messages of ticket %s", t.Identifier)
	}
	for _, m := range msgs {
		common.Messages = append(common.Messages, e.ExpandMessage(ctx, m))
	}

	return common, nil
}

// resolvePerson short-circuits on an absent reference and degrades to the
// fallback identity when the resolver fails regardless of its contract.
func (e *TicketExpander) resolvePerson(ctx context.Context, username string) *ExpandedPerson {
	if username == "" {
		return nil
	}
	p, err := e.persons.ResolvePerson(ctx, username)
	if err != nil || p == nil {
		if err != nil {
			e.logger.WithField("username", username).Warn("Person lookup failed: ", err)
		}
		return FallbackPerson(username)
	}
	return p
}

// TicketID composes the externally visible identifier of a ticket from the
// publication identifier and the ticket's own identifier.
func TicketID(base *url.URL, resourceIdentifier, ticketIdentifier string) string {
	return PublicationID(base, resourceIdentifier) + "/ticket/" + ticketIdentifier
}
