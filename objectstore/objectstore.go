package objectstore

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// ObjectStorage persists expanded entries as S3 objects.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body []byte) (location string, err error)
}

// ObjectStorageImpl is our implementation of the ObjectStorage interface.
type ObjectStorageImpl struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
}

// New returns a pointer to a new ObjectStorageImpl.
func New(sess *session.Session, bucket string) *ObjectStorageImpl {
	return &ObjectStorageImpl{
		uploader: s3manager.NewUploaderWithClient(s3.New(sess)),
		bucket:   bucket,
	}
}

// Upload writes the body under the given key and returns the object
// location.
func (s *ObjectStorageImpl) Upload(ctx context.Context, key string, body []byte) (string, error) {
	output, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", err
	}
	return output.Location, nil
}
