package expand

import (
	"github.com/openarchive/repository-index-adapter/document"
	"github.com/openarchive/repository-index-adapter/domain"
)

// PublicationSummary is the projection of a publication attached to tickets
// and messages. It is copied out of the owning document at expansion time
// and never independently persisted.
type PublicationSummary struct {
	Type            string           `json:"type"`
	ID              string           `json:"id"`
	Identifier      string           `json:"identifier"`
	Title           string           `json:"title,omitempty"`
	Status          string           `json:"status,omitempty"`
	InstanceType    string           `json:"instanceType,omitempty"`
	PublicationDate *PublicationDate `json:"publicationDate,omitempty"`
	ModifiedDate    string           `json:"modifiedDate,omitempty"`
	Contributors    []Contributor    `json:"contributors,omitempty"`
	FilesStatus     FilesStatus      `json:"filesStatus"`
}

// PublicationDate is the partial date of a publication; any member may be
// empty.
type PublicationDate struct {
	Year  string `json:"year,omitempty"`
	Month string `json:"month,omitempty"`
	Day   string `json:"day,omitempty"`
}

// Contributor is the display name of one publication contributor.
type Contributor struct {
	Name string `json:"name"`
}

// SummarizePublication copies the summary fields out of a publication
// document. Unknown or missing fields simply stay empty.
func SummarizePublication(d document.Document) PublicationSummary {
	description := d.Map("entityDescription")
	summary := PublicationSummary{
		Type:         string(EntryTypePublication),
		ID:           d.ID(),
		Identifier:   d.Identifier(),
		Title:        description.String("mainTitle"),
		Status:       d.String("status"),
		InstanceType: description.Map("reference").Map("publicationInstance").String("type"),
		ModifiedDate: d.String("modifiedDate"),
		FilesStatus:  ClassifyFiles(AssociatedFiles(d)),
	}
	if date := description.Map("publicationDate"); date != nil {
		summary.PublicationDate = &PublicationDate{
			Year:  date.String("year"),
			Month: date.String("month"),
			Day:   date.String("day"),
		}
	}
	for _, contributor := range description.Slice("contributors") {
		if name := contributor.Map("identity").String("name"); name != "" {
			summary.Contributors = append(summary.Contributors, Contributor{Name: name})
		}
	}
	return summary
}

// AssociatedFiles extracts the artifact list of a publication document for
// classification.
func AssociatedFiles(d document.Document) []domain.File {
	var files []domain.File
	for _, artifact := range d.Slice("associatedArtifacts") {
		files = append(files, domain.File{
			Identifier:         artifact.String("identifier"),
			Name:               artifact.String("name"),
			MimeType:           artifact.String("mimeType"),
			VisibleForNonOwner: artifact.Bool("visibleForNonOwner"),
		})
	}
	return files
}
