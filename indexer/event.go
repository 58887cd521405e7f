package indexer

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/openarchive/repository-index-adapter/expand"
)

// Event is the envelope delivered by the repository every time an aggregate
// changes and needs (re-)expansion. Delivery to the index is fire-and-forget
// and eventually consistent.
type Event struct {
	ID         string           `json:"eventId"`
	EntryType  expand.EntryType `json:"entryType"`
	Identifier string           `json:"identifier"`
}

const eventSchema = `{
	"$schema": "http://json-schema.org/draft-04/schema#",
	"type": "object",
	"required": ["eventId", "entryType", "identifier"],
	"properties": {
		"eventId": {"type": "string", "minLength": 1},
		"entryType": {
			"type": "string",
			"enum": [
				"Publication",
				"DoiRequest",
				"PublishingRequest",
				"UnpublishRequest",
				"FileApprovalThesis",
				"GeneralSupportRequest",
				"PublicationConversation",
				"Message",
				"ImportCandidateSummary"
			]
		},
		"identifier": {"type": "string", "minLength": 1}
	}
}`

var eventSchemaLoader = gojsonschema.NewStringLoader(eventSchema)

// ValidationError describes why an incoming event was rejected.
type ValidationError struct {
	Errors []string
}

func (err ValidationError) Error() string {
	return fmt.Sprintf("validation issues: %+v", err.Errors)
}

// OpenEvent validates and decodes an incoming event payload.
func OpenEvent(stream []byte) (*Event, error) {
	result, err := gojsonschema.Validate(eventSchemaLoader, gojsonschema.NewBytesLoader(stream))
	if err != nil {
		return nil, errors.Wrap(err, "validating event")
	}
	if !result.Valid() {
		verr := ValidationError{}
		for _, issue := range result.Errors() {
			verr.Errors = append(verr.Errors, issue.String())
		}
		return nil, verr
	}
	event := &Event{}
	if err := json.Unmarshal(stream, event); err != nil {
		return nil, errors.Wrap(err, "decoding event")
	}
	return event, nil
}
