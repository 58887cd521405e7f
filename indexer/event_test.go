package indexer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarchive/repository-index-adapter/expand"
)

func TestOpenEvent(t *testing.T) {
	t.Parallel()

	event, err := OpenEvent([]byte(`{
		"eventId": "ab0f8186-4b68-430e-a07e-b517300e6f9f",
		"entryType": "DoiRequest",
		"identifier": "t1"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "ab0f8186-4b68-430e-a07e-b517300e6f9f", event.ID)
	assert.Equal(t, expand.EntryTypeDoiRequest, event.EntryType)
	assert.Equal(t, "t1", event.Identifier)
}

func TestOpenEventRejectsIncompletePayloads(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Missing identifier":  `{"eventId": "x", "entryType": "Publication"}`,
		"Unknown entry type":  `{"eventId": "x", "entryType": "Banana", "identifier": "p1"}`,
		"Empty event id":      `{"eventId": "", "entryType": "Publication", "identifier": "p1"}`,
		"Wrong payload shape": `[1, 2, 3]`,
	}
	for name, payload := range tests {
		payload := payload
		t.Run(name, func(t *testing.T) {
			_, err := OpenEvent([]byte(payload))
			require.Error(t, err)

			var validErr = &ValidationError{}
			assert.True(t, errors.As(err, validErr))
			assert.NotEmpty(t, validErr.Errors)
		})
	}
}

func TestOpenEventEnumMatchesKnownEntryTypes(t *testing.T) {
	t.Parallel()

	for _, entryType := range expand.EntryTypes {
		entryType := entryType
		t.Run(string(entryType), func(t *testing.T) {
			_, err := OpenEvent([]byte(`{"eventId": "x", "entryType": "` + string(entryType) + `", "identifier": "p1"}`))
			require.NoError(t, err)
		})
	}
}
