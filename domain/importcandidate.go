package domain

// ImportCandidate is a publication harvested from an external source that is
// awaiting curation before it becomes a repository publication.
type ImportCandidate struct {
	Identifier      string   `json:"identifier"`
	Title           string   `json:"title,omitempty"`
	DOI             string   `json:"doi,omitempty"`
	ImportStatus    string   `json:"importStatus"`
	InstanceType    string   `json:"instanceType,omitempty"`
	PublicationYear string   `json:"publicationYear,omitempty"`
	Organizations   []string `json:"organizations,omitempty"`
	Files           []File   `json:"files,omitempty"`
}
