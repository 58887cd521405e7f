package storage

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/pkg/errors"

	"github.com/openarchive/repository-index-adapter/document"
	"github.com/openarchive/repository-index-adapter/domain"
)

// messagesByTicketIndex is the global secondary index used to list the
// conversation of a ticket.
const messagesByTicketIndex = "ticketIdentifier-index"

// record is the stored shape of every aggregate: the identifier key, the
// aggregate kind and the serialized body.
type record struct {
	Identifier       string `dynamodbav:"identifier"`
	Kind             string `dynamodbav:"kind"`
	TicketIdentifier string `dynamodbav:"ticketIdentifier,omitempty"`
	Body             string `dynamodbav:"body"`
}

// DynamoDB implements Storage on a single DynamoDB table.
type DynamoDB struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

var _ Storage = (*DynamoDB)(nil)

// NewDynamoDB returns a usable DynamoDB storage.
func NewDynamoDB(client dynamodbiface.DynamoDBAPI, table string) *DynamoDB {
	return &DynamoDB{client: client, table: table}
}

func (s *DynamoDB) getRecord(ctx context.Context, identifier, kind string) (*record, error) {
	output, err := s.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"identifier": {S: aws.String(identifier)},
		},
	})
	if err != nil {
		return nil, err
	}
	if output.Item == nil {
		return nil, errors.Wrapf(ErrNotFound, "%s %s", kind, identifier)
	}
	rec := &record{}
	if err := dynamodbattribute.UnmarshalMap(output.Item, rec); err != nil {
		return nil, err
	}
	if rec.Kind != kind {
		return nil, errors.Wrapf(ErrNotFound, "%s is a %s, expected %s", identifier, rec.Kind, kind)
	}
	return rec, nil
}

// GetResource implements Storage.
func (s *DynamoDB) GetResource(ctx context.Context, identifier string) (document.Document, error) {
	rec, err := s.getRecord(ctx, identifier, KindResource)
	if err != nil {
		return nil, err
	}
	return document.FromJSON([]byte(rec.Body))
}

// GetTicket implements Storage.
func (s *DynamoDB) GetTicket(ctx context.Context, identifier string) (*domain.Ticket, error) {
	rec, err := s.getRecord(ctx, identifier, KindTicket)
	if err != nil {
		return nil, err
	}
	t := &domain.Ticket{}
	if err := json.Unmarshal([]byte(rec.Body), t); err != nil {
		return nil, errors.Wrapf(err, "decoding ticket %s", identifier)
	}
	return t, nil
}

// GetMessage implements Storage.
func (s *DynamoDB) GetMessage(ctx context.Context, identifier string) (*domain.Message, error) {
	rec, err := s.getRecord(ctx, identifier, KindMessage)
	if err != nil {
		return nil, err
	}
	m := &domain.Message{}
	if err := json.Unmarshal([]byte(rec.Body), m); err != nil {
		return nil, errors.Wrapf(err, "decoding message %s", identifier)
	}
	return m, nil
}

// GetImportCandidate implements Storage.
func (s *DynamoDB) GetImportCandidate(ctx context.Context, identifier string) (*domain.ImportCandidate, error) {
	rec, err := s.getRecord(ctx, identifier, KindImportCandidate)
	if err != nil {
		return nil, err
	}
	c := &domain.ImportCandidate{}
	if err := json.Unmarshal([]byte(rec.Body), c); err != nil {
		return nil, errors.Wrapf(err, "decoding import candidate %s", identifier)
	}
	return c, nil
}

// MessagesByTicket implements Storage.
func (s *DynamoDB) MessagesByTicket(ctx context.Context, ticketIdentifier string) ([]domain.Message, error) {
	output, err := s.client.QueryWithContext(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(messagesByTicketIndex),
		KeyConditionExpression: aws.String("ticketIdentifier = :t"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":t": {S: aws.String(ticketIdentifier)},
		},
	})
	if err != nil {
		return nil, err
	}
	var messages []domain.Message
	for _, item := range output.Items {
		rec := &record{}
		if err := dynamodbattribute.UnmarshalMap(item, rec); err != nil {
			return nil, err
		}
		m := domain.Message{}
		if err := json.Unmarshal([]byte(rec.Body), &m); err != nil {
			return nil, errors.Wrapf(err, "decoding message %s", rec.Identifier)
		}
		messages = append(messages, m)
	}
	return messages, nil
}
