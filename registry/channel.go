package registry

import (
	"context"
	"io/ioutil"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/openarchive/repository-index-adapter/linkeddata"
)

// ChannelRegistry fetches linked-data fragments from the publication-channel
// registry. Channel identifiers are absolute URIs, so the client needs no
// base URL of its own.
type ChannelRegistry struct {
	logger logrus.FieldLogger
	client *client
}

var _ linkeddata.ContentResolver = (*ChannelRegistry)(nil)

// NewChannelRegistry returns a usable ChannelRegistry.
func NewChannelRegistry(logger logrus.FieldLogger, userAgent string) (*ChannelRegistry, error) {
	c, err := newClient("", userAgent)
	if err != nil {
		return nil, err
	}
	return &ChannelRegistry{logger: logger, client: c}, nil
}

// Fetch implements linkeddata.ContentResolver. An ordinary non-success
// response is absence, signalled with a nil body and a nil error; only
// transport failures surface as errors.
func (r *ChannelRegistry) Fetch(ctx context.Context, uri, mediaType string) ([]byte, error) {
	resp, err := r.client.get(ctx, uri, mediaType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.WithFields(logrus.Fields{"uri": uri, "status": resp.StatusCode}).
			Debug("Channel registry returned a non-success response")
		return nil, nil
	}
	return ioutil.ReadAll(resp.Body)
}
