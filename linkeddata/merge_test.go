package linkeddata_test

import (
	"context"
	"io/ioutil"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarchive/repository-index-adapter/document"
	"github.com/openarchive/repository-index-adapter/internal/testutil"
	"github.com/openarchive/repository-index-adapter/linkeddata"
)

// fakeResolver serves fragments from memory. A missing URI is absence, the
// same signal the channel registry client produces on a not-found response.
type fakeResolver struct {
	fragments map[string][]byte
	err       error
}

func (r *fakeResolver) Fetch(ctx context.Context, uri, mediaType string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.fragments[uri], nil
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)
	return logger
}

const (
	journalURI   = "https://api.repository.example/publication-channels/journal/4F39AE6E/2024"
	publisherURI = "https://api.repository.example/publication-channels/publisher/01C2B7A0"
	seriesURI    = "https://api.repository.example/publication-channels/series/77D1E3F2/2024"
)

func publicationFixture(t *testing.T) document.Document {
	t.Helper()
	doc, err := document.FromJSON(testutil.Fixture(t, "publication.json"))
	require.NoError(t, err)
	doc.SetID("https://api.repository.example/publication/" + doc.Identifier())
	return doc
}

func TestMergeEmbedsChannelFragments(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{fragments: map[string][]byte{
		journalURI:   testutil.Fixture(t, "journal.json"),
		publisherURI: testutil.Fixture(t, "publisher.json"),
	}}
	merger := linkeddata.NewMerger(discardLogger(), resolver)

	blob, err := merger.Merge(context.Background(), publicationFixture(t))
	require.NoError(t, err)

	merged, err := document.FromJSON(blob)
	require.NoError(t, err)

	pubContext := merged.Map("entityDescription").Map("reference").Map("publicationContext")
	require.NotNil(t, pubContext)

	// The journal fragment is embedded in place of the bare reference.
	assert.Equal(t, "Journal of Marine Ecophysiology", pubContext.String("name"))
	assert.Equal(t, "2044-1908", pubContext.String("onlineIssn"))
	assert.Equal(t, journalURI, pubContext.ID())

	// So is the publisher fragment, nested one level deeper.
	publisher := pubContext.Map("publisher")
	require.NotNil(t, publisher)
	assert.Equal(t, "Coastal Academic Press", publisher.String("name"))

	// The series fragment was absent: the reference keeps its stored fields.
	series := pubContext.Map("series")
	require.NotNil(t, series)
	assert.Equal(t, seriesURI, series.ID())
	assert.Equal(t, "Series", series.String("type"))

	// Everything outside the publication context is untouched.
	assert.Equal(t, "PUBLISHED", merged.String("status"))
	assert.Len(t, merged.Slice("associatedArtifacts"), 2)
}

func TestMergeIsDeterministic(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{fragments: map[string][]byte{
		journalURI:   testutil.Fixture(t, "journal.json"),
		publisherURI: testutil.Fixture(t, "publisher.json"),
	}}
	merger := linkeddata.NewMerger(discardLogger(), resolver)

	first, err := merger.Merge(context.Background(), publicationFixture(t))
	require.NoError(t, err)
	second, err := merger.Merge(context.Background(), publicationFixture(t))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestMergeDegradesWhenEveryFragmentIsAbsent(t *testing.T) {
	t.Parallel()

	merger := linkeddata.NewMerger(discardLogger(), &fakeResolver{})
	doc := publicationFixture(t)

	blob, err := merger.Merge(context.Background(), doc)
	require.NoError(t, err)

	// With nothing to embed, the merge reproduces the stored document.
	want, err := doc.JSON()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(blob))
}

func TestMergeDegradesWhenTheRegistryIsUnreachable(t *testing.T) {
	t.Parallel()

	merger := linkeddata.NewMerger(discardLogger(), &fakeResolver{err: errors.New("connection refused")})
	doc := publicationFixture(t)

	blob, err := merger.Merge(context.Background(), doc)
	require.NoError(t, err)

	want, err := doc.JSON()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(blob))
}

func TestMergeSkipsUnparsableFragments(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{fragments: map[string][]byte{
		journalURI:   []byte(`<html>gateway timeout</html>`),
		publisherURI: testutil.Fixture(t, "publisher.json"),
	}}
	merger := linkeddata.NewMerger(discardLogger(), resolver)

	blob, err := merger.Merge(context.Background(), publicationFixture(t))
	require.NoError(t, err)

	merged, err := document.FromJSON(blob)
	require.NoError(t, err)
	pubContext := merged.Map("entityDescription").Map("reference").Map("publicationContext")

	// The broken fragment contributes nothing; the good one still lands.
	assert.Equal(t, "", pubContext.String("name"))
	assert.Equal(t, "Coastal Academic Press", pubContext.Map("publisher").String("name"))
}

func TestMergeFragmentOverridesStoredFields(t *testing.T) {
	t.Parallel()

	root, err := document.FromJSON([]byte(`{
		"id": "https://api.repository.example/publication/p1",
		"entityDescription": {"reference": {"publicationContext": {
			"id": "` + journalURI + `",
			"type": "Journal",
			"name": "Stale Journal Name"
		}}}
	}`))
	require.NoError(t, err)

	resolver := &fakeResolver{fragments: map[string][]byte{
		journalURI: []byte(`{"id": "` + journalURI + `", "name": "Journal of Marine Ecophysiology"}`),
	}}
	merger := linkeddata.NewMerger(discardLogger(), resolver)

	blob, err := merger.Merge(context.Background(), root)
	require.NoError(t, err)

	merged, err := document.FromJSON(blob)
	require.NoError(t, err)
	pubContext := merged.Map("entityDescription").Map("reference").Map("publicationContext")

	// The fragment is merged after the stored document and wins.
	assert.Equal(t, "Journal of Marine Ecophysiology", pubContext.String("name"))
	assert.Equal(t, "Journal", pubContext.String("type"))
}

func TestMergeErrorsWithoutID(t *testing.T) {
	t.Parallel()

	merger := linkeddata.NewMerger(discardLogger(), &fakeResolver{})
	_, err := merger.Merge(context.Background(), document.Document{"identifier": "p1"})
	require.EqualError(t, err, "document has no id")
}

func TestChannelReferences(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		doc  document.Document
		want []string
	}{
		"Journal, publisher and series in fetch order": {
			contextDoc(journalURI, publisherURI, seriesURI),
			[]string{journalURI, publisherURI, seriesURI},
		},
		"Duplicates are dropped": {
			contextDoc(journalURI, journalURI, seriesURI),
			[]string{journalURI, seriesURI},
		},
		"Identifiers outside the channel registry are plain data": {
			contextDoc(journalURI, "https://publisher.example/about", ""),
			[]string{journalURI},
		},
		"No publication context": {
			document.Document{"id": "x"},
			nil,
		},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, linkeddata.ChannelReferences(tc.doc))
		})
	}
}

func contextDoc(contextID, publisherID, seriesID string) document.Document {
	pubContext := map[string]interface{}{}
	if contextID != "" {
		pubContext["id"] = contextID
	}
	if publisherID != "" {
		pubContext["publisher"] = map[string]interface{}{"id": publisherID}
	}
	if seriesID != "" {
		pubContext["series"] = map[string]interface{}{"id": seriesID}
	}
	return document.Document{
		"entityDescription": map[string]interface{}{
			"reference": map[string]interface{}{
				"publicationContext": pubContext,
			},
		},
	}
}
