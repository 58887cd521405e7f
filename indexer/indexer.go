package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/openarchive/repository-index-adapter/expand"
	"github.com/openarchive/repository-index-adapter/objectstore"
	"github.com/openarchive/repository-index-adapter/storage"
)

const (
	// maxNumberOfMessages is the number of events that we want to receive
	// from SQS incoming batches.
	maxNumberOfMessages = 1

	// waitTimeSeconds is the longest we're waiting on each SQS receive poll.
	waitTimeSeconds = 1
)

// Indexer consumes repository change events from SQS, expands the changed
// aggregate and hands the result off to the index: the expanded entry is
// persisted to the object store and announced on the main SNS topic.
//
// Events are received from sqsQueueURL and sent to an internal channel
// (events). The channel is unbuffered so the receiver controls how often we
// are going to receive from SQS. Each event is processed on its own
// goroutine; expansion is request-scoped and shares no mutable state, so
// in-flight expansions never interfere.
//
// The event processor will:
//
// * Extract, unmarshal and validate the event payload.
//
// * Reject events that have been received before.
//
// * Expand the referenced aggregate and deliver the result.
//
// In case of errors, events are sent to the {Invalid,Error} queue. Events
// are deleted from SQS as soon as they're processed, including cases where
// the processing has failed.
type Indexer struct {
	logger           logrus.FieldLogger
	store            storage.Storage
	resources        *expand.ResourceAssembler
	tickets          *expand.TicketExpander
	objects          objectstore.ObjectStorage
	baseURL          *url.URL
	sqsClient        sqsiface.SQSAPI
	sqsQueueURL      string
	snsClient        snsiface.SNSAPI
	snsTopicMainARN  string
	snsTopicInvalid  string
	snsTopicError    string
	ctx              context.Context
	cancel           context.CancelFunc
	events           chan *sqs.Message
	stop             chan chan struct{}
	incomingEvents   prometheus.Counter
	failedExpansions prometheus.Counter
	repository
}

// New returns a usable Indexer.
func New(
	logger logrus.FieldLogger,
	store storage.Storage,
	resources *expand.ResourceAssembler, tickets *expand.TicketExpander,
	objects objectstore.ObjectStorage, baseURL *url.URL,
	sqsClient sqsiface.SQSAPI, sqsQueueURL string,
	snsClient snsiface.SNSAPI, snsTopicMainARN, snsTopicInvalidARN, snsTopicErrorARN string,
	dynamodbClient dynamodbiface.DynamoDBAPI, dynamodbTable string,
	incomingEvents, failedExpansions prometheus.Counter) *Indexer {
	i := &Indexer{
		logger:           logger,
		store:            store,
		resources:        resources,
		tickets:          tickets,
		objects:          objects,
		baseURL:          baseURL,
		sqsClient:        sqsClient,
		sqsQueueURL:      sqsQueueURL,
		snsClient:        snsClient,
		snsTopicMainARN:  snsTopicMainARN,
		snsTopicInvalid:  snsTopicInvalidARN,
		snsTopicError:    snsTopicErrorARN,
		events:           make(chan *sqs.Message),
		stop:             make(chan chan struct{}),
		incomingEvents:   incomingEvents,
		failedExpansions: failedExpansions,
		repository:       repository{client: dynamodbClient, table: dynamodbTable},
	}
	i.ctx, i.cancel = context.WithCancel(context.Background())

	go i.processor()

	return i
}

// Run starts the processing.
func (i *Indexer) Run() {
	i.loop()
}

// processor of delivered events. Phase 1 extracts and validates the payload
// and records the event ID in the local data repository; this is blocking so
// the dedup check always precedes processing. Phase 2 launches a goroutine
// per event and performs the expansion asynchronously.
func (i *Indexer) processor() {
	for m := range i.events {
		event, err := i.openEvent(m)
		if err != nil {
			i.deleteMessage(m.ReceiptHandle)
			continue
		}
		go i.processEvent(m.ReceiptHandle, event)
	}
}

// loop sends events received from sqsQueueURL to the internal events channel
// which is unbuffered so the receiver has control over how often we receive.
func (i *Indexer) loop() {
	for {
		select {
		case ch := <-i.stop:
			i.cancel()
			close(i.events)
			close(ch)
			return
		default:
			out, err := i.sqsClient.ReceiveMessageWithContext(i.ctx, &sqs.ReceiveMessageInput{
				QueueUrl:            aws.String(i.sqsQueueURL),
				MaxNumberOfMessages: aws.Int64(maxNumberOfMessages),
				WaitTimeSeconds:     aws.Int64(waitTimeSeconds),
			})
			if err != nil {
				i.logger.Errorf("Error receiving a message from SQS: %s", err)
				time.Sleep(1 * time.Second)
			} else {
				for _, m := range out.Messages {
					i.events <- m
				}
			}
		}
	}
}

// openEvent performs initial validation and returns the underlying event.
func (i *Indexer) openEvent(m *sqs.Message) (*Event, error) {
	i.incomingEvents.Inc()

	event, err := OpenEvent([]byte(*m.Body))
	var validErr = &ValidationError{}
	if errors.As(err, validErr) {
		i.invalidMessage(m)
		i.logger.Warning("Event rejected with schema issues: ", validErr)
		return nil, err
	}
	if err != nil {
		i.invalidMessage(m)
		return nil, err
	}

	seen, err := i.seenBeforeOrStore(event)

	// Not having access to the local data repository should not be a reason
	// to prevent processing hence we return nil.
	if err != nil {
		i.logger.Warning("Local data repository check failed: ", err)
		return nil, err
	}

	// Giving up on known events.
	if seen {
		i.logger.Warning("Event found in the local data repository.")
		return nil, errors.New("event seen")
	}

	return event, nil
}

// processEvent expands the aggregate the event refers to. The event is
// deleted from the queue when processing completes, regardless of outcome.
func (i *Indexer) processEvent(receiptHandle *string, event *Event) {
	logger := i.logger.WithFields(logrus.Fields{
		"eventID":    event.ID,
		"entryType":  string(event.EntryType),
		"identifier": event.Identifier,
	})

	var (
		err error
		wg  sync.WaitGroup
	)

	// Run the expansion in panic recovery mode: an invariant violation such
	// as an unmapped ticket status must surface as an error on the error
	// queue rather than take the consumer down.
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("expansion goroutine panic! %s %s", r, debug.Stack())
			}
		}()
		err = i.handleEvent(event)
	}()
	wg.Wait()

	if err != nil {
		i.failedExpansions.Inc()
		logger.Error("Expansion failure: ", err)
		i.errorMessage(event, err, receiptHandle)
		return
	}

	i.deleteMessage(receiptHandle)
}

// handleEvent loads, expands and delivers one aggregate.
func (i *Indexer) handleEvent(event *Event) error {
	var (
		entry expand.Entry
		err   error
	)
	switch event.EntryType {
	case expand.EntryTypePublication:
		doc, gerr := i.store.GetResource(i.ctx, event.Identifier)
		if gerr != nil {
			return gerr
		}
		entry, err = i.resources.Assemble(i.ctx, doc)
	case expand.EntryTypeDoiRequest,
		expand.EntryTypePublishingRequest,
		expand.EntryTypeUnpublishRequest,
		expand.EntryTypeFileApprovalThesis,
		expand.EntryTypeGeneralSupportRequest,
		expand.EntryTypePublicationConversation:
		ticket, gerr := i.store.GetTicket(i.ctx, event.Identifier)
		if gerr != nil {
			return gerr
		}
		entry, err = i.tickets.Expand(i.ctx, ticket)
	case expand.EntryTypeMessage:
		message, gerr := i.store.GetMessage(i.ctx, event.Identifier)
		if gerr != nil {
			return gerr
		}
		expanded := i.tickets.ExpandMessage(i.ctx, *message)
		entry = &expanded
	case expand.EntryTypeImportCandidateSummary:
		candidate, gerr := i.store.GetImportCandidate(i.ctx, event.Identifier)
		if gerr != nil {
			return gerr
		}
		entry = expand.ExpandImportCandidate(i.baseURL, candidate)
	default:
		return fmt.Errorf("no expansion registered for entry type %q", event.EntryType)
	}
	if err != nil {
		return err
	}
	return i.deliver(entry)
}

// deliver persists the expanded entry and announces it on the main topic.
// Delivery is fire-and-forget: the announcement carries the object location,
// not the document itself.
func (i *Indexer) deliver(entry expand.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s/%s.json", entry.EntryType(), shortIdentifier(entry.EntryID()))
	location, err := i.objects.Upload(i.ctx, key, data)
	if err != nil {
		return err
	}

	notification, err := json.Marshal(map[string]string{
		"notificationId": uuid.New().String(),
		"type":           string(entry.EntryType()),
		"id":             entry.EntryID(),
		"location":       location,
	})
	if err != nil {
		return err
	}
	return i.publishMessage(i.snsTopicMainARN, string(notification))
}

// shortIdentifier recovers the internal identifier from the final path
// segment of a document id.
func shortIdentifier(id string) string {
	return id[strings.LastIndex(id, "/")+1:]
}

// deleteMessage does best effort to delete an event from SQS.
func (i *Indexer) deleteMessage(receiptHandle *string) {
	_, err := i.sqsClient.DeleteMessageWithContext(i.ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(i.sqsQueueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		i.logger.Error("Event could not be removed from SQS: ", err)
	}
}

// publishMessage puts a payload into a SNS topic.
func (i *Indexer) publishMessage(topicARN string, payload string) error {
	_, err := i.snsClient.PublishWithContext(i.ctx, &sns.PublishInput{
		Message:  aws.String(payload),
		TopicArn: aws.String(topicARN),
	})
	return err
}

// invalidMessage puts an event into the Invalid Message Queue.
func (i *Indexer) invalidMessage(m *sqs.Message) {
	arn := i.snsTopicInvalid
	if arn == "" {
		i.logger.WithField("error-queue", "invalid[disabled]").Warn("Invalid event dropped")
		return
	}
	if err := i.publishMessage(arn, *m.Body); err != nil {
		i.logger.Error("An event could not be sent to the Invalid Message Queue: ", err)
	}
	i.logger.Debug("Event sent to the Invalid Message Queue")
}

// errorMessage puts an event into the Error Message Queue.
func (i *Indexer) errorMessage(event *Event, expErr error, receiptHandle *string) {
	defer i.deleteMessage(receiptHandle)

	arn := i.snsTopicError
	if arn == "" {
		i.logger.WithField("error-queue", "error[disabled]").Warn(expErr)
		return
	}

	logger := i.logger.WithFields(logrus.Fields{"eventID": event.ID, "expErr": expErr})
	data, err := json.Marshal(struct {
		Event
		ErrorDescription string `json:"errorDescription"`
	}{Event: *event, ErrorDescription: expErr.Error()})
	if err != nil {
		logger.Error("An event could not be marshalled before sending to the Error Message Queue: ", err)
		return
	}
	if err = i.publishMessage(arn, string(data)); err != nil {
		logger.Error("An event could not be sent to the Error Message Queue: ", err)
	}
	i.logger.Debug("Event sent to the Error Message Queue")
}

// Stop blocks until the indexer terminates.
func (i *Indexer) Stop() {
	ch := make(chan struct{})
	i.stop <- ch
	<-ch
}
