package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
	"github.com/sirupsen/logrus"

	"github.com/openarchive/repository-index-adapter/expand"
)

var queryEncoder = schema.NewEncoder()

// PersonRegistry resolves username references against the person directory.
// Resolution is total: any miss or failure yields the fallback identity
// carrying only the username, never an error.
type PersonRegistry struct {
	logger logrus.FieldLogger
	client *client
}

var _ expand.PersonResolver = (*PersonRegistry)(nil)

// NewPersonRegistry returns a usable PersonRegistry.
func NewPersonRegistry(logger logrus.FieldLogger, baseURL, userAgent string) (*PersonRegistry, error) {
	c, err := newClient(baseURL, userAgent)
	if err != nil {
		return nil, err
	}
	return &PersonRegistry{logger: logger, client: c}, nil
}

type personQuery struct {
	Username string `schema:"name"`
}

type personRecord struct {
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	PreferredFirstName string `json:"preferredFirstName"`
	PreferredLastName  string `json:"preferredLastName"`
}

// ResolvePerson implements expand.PersonResolver.
func (r *PersonRegistry) ResolvePerson(ctx context.Context, username string) (*expand.ExpandedPerson, error) {
	logger := r.logger.WithField("username", username)

	values := url.Values{}
	if err := queryEncoder.Encode(&personQuery{Username: username}, values); err != nil {
		logger.Warn("Person query could not be encoded: ", err)
		return expand.FallbackPerson(username), nil
	}

	resp, err := r.client.get(ctx, "person?"+values.Encode(), "application/json")
	if err != nil {
		logger.Warn("Person directory unreachable: ", err)
		return expand.FallbackPerson(username), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.WithField("status", resp.StatusCode).Debug("Person not found in the directory")
		return expand.FallbackPerson(username), nil
	}

	record := personRecord{}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		logger.Warn("Person record could not be decoded: ", err)
		return expand.FallbackPerson(username), nil
	}
	return &expand.ExpandedPerson{
		Username:           username,
		FirstName:          record.FirstName,
		LastName:           record.LastName,
		PreferredFirstName: record.PreferredFirstName,
		PreferredLastName:  record.PreferredLastName,
	}, nil
}
