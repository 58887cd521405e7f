package expand

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// EntryType is the discriminator carried by every expanded document in its
// "type" field. Index consumers dispatch on this value.
type EntryType string

const (
	EntryTypePublication             EntryType = "Publication"
	EntryTypeDoiRequest              EntryType = "DoiRequest"
	EntryTypePublishingRequest       EntryType = "PublishingRequest"
	EntryTypeUnpublishRequest        EntryType = "UnpublishRequest"
	EntryTypeFileApprovalThesis      EntryType = "FileApprovalThesis"
	EntryTypeGeneralSupportRequest   EntryType = "GeneralSupportRequest"
	EntryTypePublicationConversation EntryType = "PublicationConversation"
	EntryTypeMessage                 EntryType = "Message"
	EntryTypeImportCandidateSummary  EntryType = "ImportCandidateSummary"
)

// EntryTypes lists every known discriminator value.
var EntryTypes = []EntryType{
	EntryTypePublication,
	EntryTypeDoiRequest,
	EntryTypePublishingRequest,
	EntryTypeUnpublishRequest,
	EntryTypeFileApprovalThesis,
	EntryTypeGeneralSupportRequest,
	EntryTypePublicationConversation,
	EntryTypeMessage,
	EntryTypeImportCandidateSummary,
}

// Entry is one fully assembled, self-contained document ready for hand-off
// to the index. Every variant exposes its discriminator and a stable,
// globally unique identifier without further external calls.
type Entry interface {
	// EntryType returns the discriminator value of the variant.
	EntryType() EntryType

	// EntryID returns the globally resolvable identifier of the document. The
	// short internal identifier is recoverable as its final path segment.
	EntryID() string
}

// entryAlias delays decoding of the payload until the discriminator is known.
type entryAlias struct {
	Type EntryType `json:"type"`
}

// UnmarshalEntry decodes an expanded document into the variant selected by
// its "type" field. An unknown discriminator is a programming or data error
// and is never masked.
func UnmarshalEntry(data []byte) (Entry, error) {
	alias := entryAlias{}
	if err := json.Unmarshal(data, &alias); err != nil {
		return nil, errors.Wrap(err, "reading entry discriminator")
	}
	entry := typedEntry(alias.Type)
	if entry == nil {
		return nil, errors.Errorf("unknown entry type %q", alias.Type)
	}
	if err := json.Unmarshal(data, entry); err != nil {
		return nil, errors.Wrapf(err, "decoding %s entry", alias.Type)
	}
	return entry, nil
}

// typedEntry returns a pointer to the zero value of the variant selected by
// the discriminator, or nil when the discriminator is unknown.
func typedEntry(t EntryType) Entry {
	switch t {
	case EntryTypePublication:
		return &ExpandedResource{}
	case EntryTypeDoiRequest:
		return &ExpandedDoiRequest{}
	case EntryTypePublishingRequest:
		return &ExpandedPublishingRequest{}
	case EntryTypeUnpublishRequest:
		return &ExpandedUnpublishRequest{}
	case EntryTypeFileApprovalThesis:
		return &ExpandedFileApprovalThesis{}
	case EntryTypeGeneralSupportRequest:
		return &ExpandedGeneralSupportRequest{}
	case EntryTypePublicationConversation:
		return &ExpandedResourceConversation{}
	case EntryTypeMessage:
		return &ExpandedMessage{}
	case EntryTypeImportCandidateSummary:
		return &ExpandedImportCandidate{}
	}
	return nil
}
