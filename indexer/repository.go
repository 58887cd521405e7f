package indexer

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/pkg/errors"
)

// repositoryEvent is the minified form of an event stored in the local data
// repository for deduplication.
type repositoryEvent struct {
	EventID    string `dynamodbav:"ID"`
	EntryType  string `dynamodbav:"entryType"`
	Identifier string `dynamodbav:"identifier"`
}

type repository struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

// seenBeforeOrStore decides whether an event is known to this repository.
func (r *repository) seenBeforeOrStore(e *Event) (bool, error) {
	item, err := r.getRecord(e.ID)
	if err != nil {
		return false, err
	}
	if item != nil {
		return true, nil
	}
	if err := r.putRecord(e); err != nil {
		return false, err
	}
	return false, nil
}

func (r *repository) getRecord(ID string) (*repositoryEvent, error) {
	output, err := r.client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]*dynamodb.AttributeValue{
			"ID": {S: aws.String(ID)},
		},
	})
	if err != nil {
		return nil, err
	}
	if output.Item == nil {
		return nil, nil
	}
	event := &repositoryEvent{}
	if err := dynamodbattribute.UnmarshalMap(output.Item, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (r *repository) putRecord(e *Event) error {
	rEvent, err := toRepoEvent(e)
	if err != nil {
		return err
	}
	item, err := dynamodbattribute.MarshalMap(rEvent)
	if err != nil {
		return err
	}
	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}
	_, err = r.client.PutItem(input)
	return err
}

func toRepoEvent(e *Event) (*repositoryEvent, error) {
	if e == nil {
		return nil, errors.New("event is nil")
	}
	return &repositoryEvent{
		EventID:    e.ID,
		EntryType:  string(e.EntryType),
		Identifier: e.Identifier,
	}, nil
}
