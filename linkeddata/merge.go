package linkeddata

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/openarchive/repository-index-adapter/document"
)

// MediaTypeJSONLD is the media type requested from the channel registry.
const MediaTypeJSONLD = "application/ld+json"

// channelPathMarker identifies channel-registry identifiers. Only URIs
// carrying this path segment are fetchable; anything else found in a
// publication context is plain data.
const channelPathMarker = "/publication-channels/"

// ContentResolver fetches external linked-data fragments. Absence is
// signalled with a nil body and a nil error; it is the only failure mode the
// merger reacts to besides transport errors, which are treated the same way.
type ContentResolver interface {
	Fetch(ctx context.Context, uri, mediaType string) ([]byte, error)
}

// Merger folds a publication document and the external channel fragments it
// references into one graph and frames the result back into a single nested
// JSON document. A merger carries no state between calls and is safe for
// concurrent use.
type Merger struct {
	logger   logrus.FieldLogger
	resolver ContentResolver
}

// NewMerger returns a usable Merger.
func NewMerger(logger logrus.FieldLogger, resolver ContentResolver) *Merger {
	return &Merger{logger: logger, resolver: resolver}
}

// Merge returns the framed JSON form of the root document with every
// resolvable channel fragment embedded inline. A fragment that cannot be
// fetched or parsed contributes nothing; the merge itself only fails when
// the root document carries no id to frame against.
func (m *Merger) Merge(ctx context.Context, root document.Document) ([]byte, error) {
	id := root.ID()
	if id == "" {
		return nil, errors.New("document has no id")
	}

	g := &Graph{}
	g.AddDocument(root)

	for _, ref := range ChannelReferences(root) {
		logger := m.logger.WithField("uri", ref)
		body, err := m.resolver.Fetch(ctx, ref, MediaTypeJSONLD)
		if err != nil {
			logger.Warn("Channel fragment could not be fetched: ", err)
			continue
		}
		if body == nil {
			logger.Debug("Channel fragment not present in the registry")
			continue
		}
		frag, err := document.FromJSON(body)
		if err != nil {
			logger.Warn("Channel fragment could not be parsed: ", err)
			continue
		}
		g.AddDocument(frag)
	}

	// Anchor the root subject with a generic ontology type so that framing
	// always has a statement to start from, then strip it from the output.
	g.Add(Statement{Subject: id, Predicate: "type", Object: Object{Literal: "Publication"}})
	framed := Frame(g, id)
	if t, ok := framed["type"].(string); ok && t == "Publication" {
		delete(framed, "type")
	}

	data, err := json.Marshal(framed)
	return data, errors.Wrap(err, "encoding framed document")
}

// ChannelReferences returns the channel-registry identifiers found in the
// publication context of the document, in fetch order: the context itself
// (journal), then publisher, then series. Duplicates are dropped.
func ChannelReferences(d document.Document) []string {
	context := d.Map("entityDescription").Map("reference").Map("publicationContext")
	if context == nil {
		return nil
	}
	var refs []string
	seen := map[string]bool{}
	for _, candidate := range []string{
		context.ID(),
		context.Map("publisher").ID(),
		context.Map("series").ID(),
	} {
		if !isChannelReference(candidate) || seen[candidate] {
			continue
		}
		seen[candidate] = true
		refs = append(refs, candidate)
	}
	return refs
}

func isChannelReference(uri string) bool {
	return uri != "" && strings.Contains(uri, channelPathMarker)
}
