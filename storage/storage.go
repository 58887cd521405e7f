// Package storage is the read boundary over the repository's persistent
// store: a key-value table of domain aggregates keyed by identifier. The
// expansion pipeline never writes through it.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/openarchive/repository-index-adapter/document"
	"github.com/openarchive/repository-index-adapter/domain"
)

// ErrNotFound is returned when the requested aggregate does not exist.
// Callers treat it as fatal for the one expansion that needed the aggregate.
var ErrNotFound = errors.New("entity not found")

// Kinds of stored aggregates.
const (
	KindResource        = "Resource"
	KindTicket          = "Ticket"
	KindMessage         = "Message"
	KindImportCandidate = "ImportCandidate"
)

// Storage reads stored aggregates.
type Storage interface {
	GetResource(ctx context.Context, identifier string) (document.Document, error)
	GetTicket(ctx context.Context, identifier string) (*domain.Ticket, error)
	GetMessage(ctx context.Context, identifier string) (*domain.Message, error)
	GetImportCandidate(ctx context.Context, identifier string) (*domain.ImportCandidate, error)
	MessagesByTicket(ctx context.Context, ticketIdentifier string) ([]domain.Message, error)
}
