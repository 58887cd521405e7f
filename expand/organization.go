package expand

import (
	"context"

	"github.com/pkg/errors"
)

// ErrOrganizationNotFound is returned by scope resolvers when the owning
// organization itself cannot be located. Unlike a missing sub-unit, this is
// fatal to the one expansion that needed it.
var ErrOrganizationNotFound = errors.New("organization not found")

// OrganizationScopeResolver computes the viewing scope of an entity: the set
// of organization identifiers permitted to see it, derived from the owning
// organization plus its sub-units one level down. The returned set always
// contains the organization's own identifier. Deeper hierarchy levels are
// deliberately not expanded; the one-level contract bounds the computation
// to O(sub-units) external calls.
type OrganizationScopeResolver interface {
	ResolveScope(ctx context.Context, organizationID string) ([]string, error)
}
