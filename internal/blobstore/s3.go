// Package blobstore reads and moves scanned envelopes held in S3 buckets.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"

	"formloader/internal/logger"
)

// ErrNotFound is returned when the envelope is not in the container, usually
// because an earlier delivery already moved it.
var ErrNotFound = errors.New("envelope not found")

// S3Store keeps envelope archives in S3, one bucket per container.
type S3Store struct {
	client s3iface.S3API
	log    *zap.Logger
}

// NewS3Store returns an S3Store backed by client.
func NewS3Store(client s3iface.S3API, log *zap.Logger) (*S3Store, error) {
	if client == nil {
		return nil, errors.New("blobstore: s3 client is required")
	}
	return &S3Store{client: client, log: logger.OrNop(log)}, nil
}

// List returns the object keys in container.
func (s *S3Store) List(ctx context.Context, container string) ([]string, error) {
	var names []string
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(container),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			names = append(names, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list %q: %w", container, err)
	}
	return names, nil
}

// Download reads the whole object.
func (s *S3Store) Download(ctx context.Context, container, name string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(name),
	})
	if isNoSuchKey(err) {
		return nil, fmt.Errorf("%w: %q in %q", ErrNotFound, name, container)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to download %q from %q: %w", name, container, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read %q from %q: %w", name, container, err)
	}
	s.log.Debug("Downloaded envelope",
		zap.String("container", container),
		zap.String("name", name),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

// Move copies the object into container to, then deletes the source.
func (s *S3Store) Move(ctx context.Context, from, to, name string) error {
	if from == to {
		return nil
	}
	_, err := s.client.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(to),
		Key:        aws.String(name),
		CopySource: aws.String(copySource(from, name)),
	})
	if isNoSuchKey(err) {
		return fmt.Errorf("%w: %q in %q", ErrNotFound, name, from)
	}
	if err != nil {
		return fmt.Errorf("unable to copy %q from %q to %q: %w", name, from, to, err)
	}

	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(from),
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("unable to delete %q from %q: %w", name, from, err)
	}

	s.log.Info("Moved envelope",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("name", name),
	)
	return nil
}

func copySource(bucket, key string) string {
	return (&url.URL{Path: bucket + "/" + key}).EscapedPath()
}

func isNoSuchKey(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey
}
