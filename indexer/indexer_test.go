package indexer

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarchive/repository-index-adapter/document"
	"github.com/openarchive/repository-index-adapter/domain"
	"github.com/openarchive/repository-index-adapter/expand"
	"github.com/openarchive/repository-index-adapter/linkeddata"
	"github.com/openarchive/repository-index-adapter/storage"
)

type fakeStorage struct {
	docs       map[string]document.Document
	tickets    map[string]*domain.Ticket
	messages   map[string]*domain.Message
	candidates map[string]*domain.ImportCandidate
	threads    map[string][]domain.Message
}

func (f *fakeStorage) GetResource(ctx context.Context, identifier string) (document.Document, error) {
	doc, ok := f.docs[identifier]
	if !ok {
		return nil, errors.Wrap(storage.ErrNotFound, identifier)
	}
	return doc, nil
}

func (f *fakeStorage) GetTicket(ctx context.Context, identifier string) (*domain.Ticket, error) {
	ticket, ok := f.tickets[identifier]
	if !ok {
		return nil, errors.Wrap(storage.ErrNotFound, identifier)
	}
	return ticket, nil
}

func (f *fakeStorage) GetMessage(ctx context.Context, identifier string) (*domain.Message, error) {
	message, ok := f.messages[identifier]
	if !ok {
		return nil, errors.Wrap(storage.ErrNotFound, identifier)
	}
	return message, nil
}

func (f *fakeStorage) GetImportCandidate(ctx context.Context, identifier string) (*domain.ImportCandidate, error) {
	candidate, ok := f.candidates[identifier]
	if !ok {
		return nil, errors.Wrap(storage.ErrNotFound, identifier)
	}
	return candidate, nil
}

func (f *fakeStorage) MessagesByTicket(ctx context.Context, ticketIdentifier string) ([]domain.Message, error) {
	return f.threads[ticketIdentifier], nil
}

type fakeObjectStorage struct {
	uploads map[string][]byte
}

func (f *fakeObjectStorage) Upload(ctx context.Context, key string, body []byte) (string, error) {
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[key] = body
	return "https://objects.example/" + key, nil
}

type mockSQSClient struct {
	sqsiface.SQSAPI
	deleted int
}

func (m *mockSQSClient) ReceiveMessageWithContext(ctx aws.Context, input *sqs.ReceiveMessageInput, opts ...request.Option) (*sqs.ReceiveMessageOutput, error) {
	time.Sleep(time.Millisecond)
	return &sqs.ReceiveMessageOutput{}, nil
}

func (m *mockSQSClient) DeleteMessageWithContext(ctx aws.Context, input *sqs.DeleteMessageInput, opts ...request.Option) (*sqs.DeleteMessageOutput, error) {
	m.deleted++
	return &sqs.DeleteMessageOutput{}, nil
}

type mockSNSClient struct {
	snsiface.SNSAPI
	published []*sns.PublishInput
}

func (m *mockSNSClient) PublishWithContext(ctx aws.Context, input *sns.PublishInput, opts ...request.Option) (*sns.PublishOutput, error) {
	m.published = append(m.published, input)
	return &sns.PublishOutput{}, nil
}

func (m *mockSNSClient) toTopic(topicARN string) []string {
	var payloads []string
	for _, input := range m.published {
		if aws.StringValue(input.TopicArn) == topicARN {
			payloads = append(payloads, aws.StringValue(input.Message))
		}
	}
	return payloads
}

type absentResolver struct{}

func (absentResolver) Fetch(ctx context.Context, uri, mediaType string) ([]byte, error) {
	return nil, nil
}

type fakePersons struct{}

func (fakePersons) ResolvePerson(ctx context.Context, username string) (*expand.ExpandedPerson, error) {
	return expand.FallbackPerson(username), nil
}

type fakeOrganizations struct{}

func (fakeOrganizations) ResolveScope(ctx context.Context, organizationID string) ([]string, error) {
	return []string{organizationID}, nil
}

type testIndexer struct {
	*Indexer
	store   *fakeStorage
	objects *fakeObjectStorage
	sqs     *mockSQSClient
	sns     *mockSNSClient
}

func newTestIndexer(t *testing.T, store *fakeStorage) *testIndexer {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)

	baseURL, err := url.Parse("https://api.repository.example")
	require.NoError(t, err)

	merger := linkeddata.NewMerger(logger, absentResolver{})
	resources := expand.NewResourceAssembler(logger, merger, baseURL)
	tickets := expand.NewTicketExpander(logger, store, store, fakePersons{}, fakeOrganizations{}, baseURL)

	objects := &fakeObjectStorage{}
	sqsClient := &mockSQSClient{}
	snsClient := &mockSNSClient{}

	i := New(
		logger,
		store,
		resources, tickets,
		objects, baseURL,
		sqsClient, "https://queue.example/main",
		snsClient, "arn:main", "arn:invalid", "arn:error",
		&mockDynamoDBClient{}, "events",
		prometheus.NewCounter(prometheus.CounterOpts{Name: "incoming_events_total_test"}),
		prometheus.NewCounter(prometheus.CounterOpts{Name: "failed_expansions_total_test"}))

	go i.Run()
	t.Cleanup(i.Stop)

	return &testIndexer{Indexer: i, store: store, objects: objects, sqs: sqsClient, sns: snsClient}
}

func Test_handleEvent_Publication(t *testing.T) {
	i := newTestIndexer(t, &fakeStorage{docs: map[string]document.Document{
		"p1": {"identifier": "p1", "status": "PUBLISHED"},
	}})

	err := i.handleEvent(&Event{ID: "e1", EntryType: expand.EntryTypePublication, Identifier: "p1"})
	require.NoError(t, err)

	blob, ok := i.objects.uploads["Publication/p1.json"]
	require.True(t, ok)
	entry, err := expand.UnmarshalEntry(blob)
	require.NoError(t, err)
	assert.Equal(t, "https://api.repository.example/publication/p1", entry.EntryID())

	notifications := i.sns.toTopic("arn:main")
	require.Len(t, notifications, 1)
	notification := map[string]string{}
	require.NoError(t, json.Unmarshal([]byte(notifications[0]), &notification))
	assert.Equal(t, "Publication", notification["type"])
	assert.Equal(t, "https://api.repository.example/publication/p1", notification["id"])
	assert.Equal(t, "https://objects.example/Publication/p1.json", notification["location"])
	assert.NotEmpty(t, notification["notificationId"])
}

func Test_handleEvent_Ticket(t *testing.T) {
	store := &fakeStorage{
		docs: map[string]document.Document{"p1": {"identifier": "p1"}},
		tickets: map[string]*domain.Ticket{"t1": {
			Identifier:          "t1",
			Type:                domain.TicketTypeDoiRequest,
			Status:              domain.TicketStatusNew,
			ResourceIdentifier:  "p1",
			OwnerOrganizationID: "https://api.repository.example/organization/o1",
			Owner:               "astrid@uni.example",
		}},
	}
	i := newTestIndexer(t, store)

	err := i.handleEvent(&Event{ID: "e1", EntryType: expand.EntryTypeDoiRequest, Identifier: "t1"})
	require.NoError(t, err)

	blob, ok := i.objects.uploads["DoiRequest/t1.json"]
	require.True(t, ok)
	entry, err := expand.UnmarshalEntry(blob)
	require.NoError(t, err)
	assert.Equal(t, expand.EntryTypeDoiRequest, entry.EntryType())
}

func Test_handleEvent_Message(t *testing.T) {
	i := newTestIndexer(t, &fakeStorage{messages: map[string]*domain.Message{
		"m1": {
			Identifier:          "m1",
			ResourceIdentifier:  "p1",
			TicketIdentifier:    "t1",
			OwnerOrganizationID: "https://api.repository.example/organization/o1",
			Sender:              "astrid@uni.example",
			Text:                "hello",
		},
	}})

	err := i.handleEvent(&Event{ID: "e1", EntryType: expand.EntryTypeMessage, Identifier: "m1"})
	require.NoError(t, err)

	_, ok := i.objects.uploads["Message/m1.json"]
	assert.True(t, ok)
}

func Test_handleEvent_ImportCandidate(t *testing.T) {
	i := newTestIndexer(t, &fakeStorage{candidates: map[string]*domain.ImportCandidate{
		"ic1": {Identifier: "ic1", ImportStatus: "NOT_IMPORTED"},
	}})

	err := i.handleEvent(&Event{ID: "e1", EntryType: expand.EntryTypeImportCandidateSummary, Identifier: "ic1"})
	require.NoError(t, err)

	_, ok := i.objects.uploads["ImportCandidateSummary/ic1.json"]
	assert.True(t, ok)
}

func Test_handleEvent_MissingAggregate(t *testing.T) {
	i := newTestIndexer(t, &fakeStorage{})

	err := i.handleEvent(&Event{ID: "e1", EntryType: expand.EntryTypePublication, Identifier: "ghost"})
	require.Error(t, err)
	assert.Equal(t, storage.ErrNotFound, errors.Cause(err))
	assert.Empty(t, i.objects.uploads)
}

func Test_handleEvent_UnknownEntryType(t *testing.T) {
	i := newTestIndexer(t, &fakeStorage{})

	err := i.handleEvent(&Event{ID: "e1", EntryType: "Banana", Identifier: "x"})
	require.EqualError(t, err, `no expansion registered for entry type "Banana"`)
}

func Test_openEvent_InvalidPayload(t *testing.T) {
	i := newTestIndexer(t, &fakeStorage{})

	_, err := i.openEvent(&sqs.Message{
		Body:          aws.String(`{"entryType": "Publication"}`),
		ReceiptHandle: aws.String("rh"),
	})
	require.Error(t, err)

	// The raw payload lands on the invalid topic untouched.
	invalid := i.sns.toTopic("arn:invalid")
	require.Len(t, invalid, 1)
	assert.Equal(t, `{"entryType": "Publication"}`, invalid[0])
}

func Test_openEvent_Deduplicates(t *testing.T) {
	i := newTestIndexer(t, &fakeStorage{})
	m := &sqs.Message{
		Body:          aws.String(`{"eventId": "e1", "entryType": "Publication", "identifier": "p1"}`),
		ReceiptHandle: aws.String("rh"),
	}

	event, err := i.openEvent(m)
	require.NoError(t, err)
	assert.Equal(t, "e1", event.ID)

	_, err = i.openEvent(m)
	require.EqualError(t, err, "event seen")
}

func Test_processEvent_RecoversFromPanics(t *testing.T) {
	store := &fakeStorage{
		docs: map[string]document.Document{"p1": {"identifier": "p1"}},
		tickets: map[string]*domain.Ticket{"t1": {
			Identifier:         "t1",
			Type:               domain.TicketTypeDoiRequest,
			Status:             "Corrupted", // Unmapped status panics during expansion.
			ResourceIdentifier: "p1",
		}},
	}
	i := newTestIndexer(t, store)

	i.processEvent(aws.String("rh"), &Event{ID: "e1", EntryType: expand.EntryTypeDoiRequest, Identifier: "t1"})

	failures := i.sns.toTopic("arn:error")
	require.Len(t, failures, 1)
	assert.True(t, strings.Contains(failures[0], "errorDescription"))
	assert.True(t, strings.Contains(failures[0], "panic"))
	assert.Equal(t, 1, i.sqs.deleted)
	assert.Empty(t, i.objects.uploads)
}
