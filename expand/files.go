package expand

import "github.com/openarchive/repository-index-adapter/domain"

// FilesStatus is a two-valued classification of the artifacts associated
// with a publication. It is recomputed on every expansion and never persisted
// on the source aggregate: visibility flags change between expansions, e.g.
// when an embargo expires.
type FilesStatus string

const (
	FilesStatusNoFiles        FilesStatus = "noFiles"
	FilesStatusHasPublicFiles FilesStatus = "hasPublicFiles"
)

// HasFile reports whether the artifact list contains at least one file
// visible to non-owners.
func HasFile(files []domain.File) bool {
	for _, f := range files {
		if f.VisibleForNonOwner {
			return true
		}
	}
	return false
}

// ClassifyFiles derives the FilesStatus of an artifact list.
func ClassifyFiles(files []domain.File) FilesStatus {
	if HasFile(files) {
		return FilesStatusHasPublicFiles
	}
	return FilesStatusNoFiles
}
