package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/openarchive/repository-index-adapter/expand"
)

// OrganizationRegistry resolves viewing scopes against the organization
// registry. Organization identifiers are absolute URIs.
type OrganizationRegistry struct {
	logger logrus.FieldLogger
	client *client
}

var _ expand.OrganizationScopeResolver = (*OrganizationRegistry)(nil)

// NewOrganizationRegistry returns a usable OrganizationRegistry.
func NewOrganizationRegistry(logger logrus.FieldLogger, userAgent string) (*OrganizationRegistry, error) {
	c, err := newClient("", userAgent)
	if err != nil {
		return nil, err
	}
	return &OrganizationRegistry{logger: logger, client: c}, nil
}

type organizationRecord struct {
	ID      string               `json:"id"`
	HasPart []organizationRecord `json:"hasPart"`
}

// ResolveScope implements expand.OrganizationScopeResolver. The scope is the
// organization itself plus its sub-units one level down; deeper levels are
// not walked. A missing organization is the only not-found condition.
func (r *OrganizationRegistry) ResolveScope(ctx context.Context, organizationID string) ([]string, error) {
	resp, err := r.client.get(ctx, organizationID, "application/json")
	if err != nil {
		return nil, errors.Wrapf(err, "fetching organization %s", organizationID)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Wrap(expand.ErrOrganizationNotFound, organizationID)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("unexpected response status %d for organization %s", resp.StatusCode, organizationID)
	}

	record := organizationRecord{}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, errors.Wrapf(err, "decoding organization %s", organizationID)
	}

	// The requested identifier is always a member of its own scope.
	seen := map[string]bool{organizationID: true}
	scope := []string{organizationID}
	for _, part := range record.HasPart {
		if part.ID == "" || seen[part.ID] {
			continue
		}
		seen[part.ID] = true
		scope = append(scope, part.ID)
	}
	sort.Strings(scope)
	return scope, nil
}
