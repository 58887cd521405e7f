package expand

import (
	"net/url"
	"path"

	"github.com/openarchive/repository-index-adapter/domain"
)

// ExpandedImportCandidate is the index summary of a harvested publication
// awaiting curation. Assembly is pure: everything comes from the stored
// candidate, no external calls.
type ExpandedImportCandidate struct {
	Type            EntryType   `json:"type"`
	ID              string      `json:"id"`
	Identifier      string      `json:"identifier"`
	Title           string      `json:"title,omitempty"`
	DOI             string      `json:"doi,omitempty"`
	ImportStatus    string      `json:"importStatus"`
	InstanceType    string      `json:"instanceType,omitempty"`
	PublicationYear string      `json:"publicationYear,omitempty"`
	Organizations   []string    `json:"organizations,omitempty"`
	FilesStatus     FilesStatus `json:"filesStatus"`
}

// EntryType implements Entry.
func (c *ExpandedImportCandidate) EntryType() EntryType {
	return EntryTypeImportCandidateSummary
}

// EntryID implements Entry.
func (c *ExpandedImportCandidate) EntryID() string {
	return c.ID
}

// ExpandImportCandidate builds the summary entry of an import candidate.
func ExpandImportCandidate(base *url.URL, candidate *domain.ImportCandidate) *ExpandedImportCandidate {
	u := *base
	u.Path = path.Join(u.Path, "import-candidate", candidate.Identifier)
	return &ExpandedImportCandidate{
		Type:            EntryTypeImportCandidateSummary,
		ID:              u.String(),
		Identifier:      candidate.Identifier,
		Title:           candidate.Title,
		DOI:             candidate.DOI,
		ImportStatus:    candidate.ImportStatus,
		InstanceType:    candidate.InstanceType,
		PublicationYear: candidate.PublicationYear,
		Organizations:   candidate.Organizations,
		FilesStatus:     ClassifyFiles(candidate.Files),
	}
}
