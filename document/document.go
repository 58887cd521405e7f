package document

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Document is the open representation of a stored publication. Publication
// shapes vary by instance type, so the document is a field map rather than a
// fixed schema: every field the upstream model produced must round-trip,
// known or unknown. Only the handful of fields the expansion pipeline reads
// get typed accessors.
type Document map[string]interface{}

// FromJSON decodes a document from its canonical JSON form.
func FromJSON(data []byte) (Document, error) {
	d := Document{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&d); err != nil {
		return nil, errors.Wrap(err, "decoding document")
	}
	return d, nil
}

// JSON returns the canonical JSON form of the document. Keys are serialized
// in lexical order, so the output is deterministic for a given document.
func (d Document) JSON() ([]byte, error) {
	data, err := json.Marshal(d)
	return data, errors.Wrap(err, "encoding document")
}

// ID returns the globally addressable identifier of the document, or the
// empty string when none has been injected yet.
func (d Document) ID() string {
	return cast.ToString(d["id"])
}

// SetID injects the globally addressable identifier.
func (d Document) SetID(id string) {
	d["id"] = id
}

// Identifier returns the short internal identifier, recoverable as the final
// path segment of the document id.
func (d Document) Identifier() string {
	id := d.ID()
	if id == "" {
		return cast.ToString(d["identifier"])
	}
	return id[strings.LastIndex(id, "/")+1:]
}

// String returns the named field as a string, or the empty string when the
// field is missing or not scalar.
func (d Document) String(key string) string {
	return cast.ToString(d[key])
}

// Map returns the named field as a nested document. A missing or non-object
// field yields nil, which is safe to chain further lookups on.
func (d Document) Map(key string) Document {
	m, ok := d[key].(map[string]interface{})
	if !ok {
		return nil
	}
	return Document(m)
}

// Slice returns the named field as a list of nested documents, skipping any
// member that is not an object.
func (d Document) Slice(key string) []Document {
	items, ok := d[key].([]interface{})
	if !ok {
		return nil
	}
	docs := make([]Document, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			docs = append(docs, Document(m))
		}
	}
	return docs
}

// Bool returns the named field as a boolean. Missing fields are false.
func (d Document) Bool(key string) bool {
	return cast.ToBool(d[key])
}
