// Package archive uploads completions the validator rejected to S3.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pageza/macrochef/backend/internal/service"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "rejected-completions"

// ObjectPutter is the part of the S3 client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive writes one JSON object per rejected completion.
type S3Archive struct {
	client  ObjectPutter
	bucket  string
	timeout time.Duration
	log     *logrus.Entry
}

// NewS3Archive creates a new S3Archive instance
func NewS3Archive(client ObjectPutter, bucket string, timeout time.Duration, log *logrus.Entry) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, timeout: timeout, log: log}
}

// ArchiveRejected uploads the completion. Failures are logged only.
func (a *S3Archive) ArchiveRejected(ctx context.Context, rejected service.RejectedCompletion) {
	key, err := a.put(ctx, rejected)
	if err != nil {
		a.log.WithError(err).WithField("user_id", rejected.UserID).Warn("Failed to archive rejected completion")
		return
	}
	a.log.WithFields(logrus.Fields{"bucket": a.bucket, "key": key}).Debug("Archived rejected completion")
}

func (a *S3Archive) put(ctx context.Context, rejected service.RejectedCompletion) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	body, err := json.Marshal(rejected)
	if err != nil {
		return "", fmt.Errorf("failed to marshal rejected completion: %w", err)
	}

	key := Key(rejected.RejectedAt, uuid.New())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// Key builds rejected-completions/<yyyy-mm-dd>/<id>.json.
func Key(at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s.json", keyPrefix, at.UTC().Format("2006-01-02"), id)
}
