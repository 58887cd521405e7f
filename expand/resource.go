package expand

import (
	"context"
	"encoding/json"
	"net/url"
	"path"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/openarchive/repository-index-adapter/document"
	"github.com/openarchive/repository-index-adapter/linkeddata"
)

// ExpandedResource is the self-contained index document of a publication:
// the stored document with a globally addressable id injected and every
// resolvable channel fragment embedded inline. It stays an open field map
// because publication shapes vary by instance type.
type ExpandedResource struct {
	document.Document
}

var _ Entry = (*ExpandedResource)(nil)

// EntryType implements Entry.
func (r *ExpandedResource) EntryType() EntryType {
	return EntryTypePublication
}

// EntryID implements Entry.
func (r *ExpandedResource) EntryID() string {
	return r.Document.ID()
}

// MarshalJSON inlines the underlying document.
func (r ExpandedResource) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Document)
}

// UnmarshalJSON implements Unmarshaler.
func (r *ExpandedResource) UnmarshalJSON(data []byte) error {
	d, err := document.FromJSON(data)
	if err != nil {
		return err
	}
	r.Document = d
	return nil
}

// ResourceAssembler builds ExpandedResource documents. It is stateless
// between calls; the injected merger must be safe for concurrent use.
type ResourceAssembler struct {
	logger  logrus.FieldLogger
	merger  *linkeddata.Merger
	baseURL *url.URL
}

// NewResourceAssembler returns a usable ResourceAssembler.
func NewResourceAssembler(logger logrus.FieldLogger, merger *linkeddata.Merger, baseURL *url.URL) *ResourceAssembler {
	return &ResourceAssembler{logger: logger, merger: merger, baseURL: baseURL}
}

// Assemble expands a stored publication document. A publication that cannot
// be identified at all is a data error and fails the call; a channel
// fragment that cannot be fetched is omitted and the assembly still
// succeeds.
func (a *ResourceAssembler) Assemble(ctx context.Context, publication document.Document) (*ExpandedResource, error) {
	if publication.ID() == "" {
		identifier := publication.Identifier()
		if identifier == "" {
			return nil, errors.New("publication has neither id nor identifier")
		}
		publication.SetID(PublicationID(a.baseURL, identifier))
	}

	framed, err := a.merger.Merge(ctx, publication)
	if err != nil {
		return nil, errors.Wrap(err, "merging linked data")
	}
	doc, err := document.FromJSON(framed)
	if err != nil {
		return nil, errors.Wrap(err, "decoding framed document")
	}
	doc["type"] = string(EntryTypePublication)

	return &ExpandedResource{Document: doc}, nil
}

// PublicationID composes the globally addressable identifier of a
// publication from the public base URL and the short identifier. The short
// identifier is always recoverable as the final path segment.
func PublicationID(base *url.URL, identifier string) string {
	u := *base
	u.Path = path.Join(u.Path, "publication", identifier)
	return u.String()
}
