package expand

import (
	"fmt"

	"github.com/openarchive/repository-index-adapter/domain"
)

// Status is the externally visible ticket status exposed to the index.
type Status string

const (
	StatusNew       Status = "New"
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusClosed    Status = "Closed"
)

// MapStatus maps the internal ticket state machine onto the externally
// visible status. The mapping is total over domain.TicketStatuses; an
// unmapped internal status is a programming error, not a runtime condition,
// and panics so it surfaces in testing.
func MapStatus(s domain.TicketStatus) Status {
	switch s {
	case domain.TicketStatusNew:
		return StatusNew
	case domain.TicketStatusPending, domain.TicketStatusAssigned:
		return StatusPending
	case domain.TicketStatusCompleted:
		return StatusCompleted
	case domain.TicketStatusClosed, domain.TicketStatusNotApplicable:
		return StatusClosed
	}
	panic(fmt.Sprintf("unmapped ticket status %q", s))
}
