package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"formloader/internal/notify"
	"formloader/internal/service"
)

// envelopeProcessor is the part of the loader the Lambda drives.
type envelopeProcessor interface {
	ProcessEnvelope(ctx context.Context, name string) (notify.Outcome, error)
}

type handler struct {
	loader   envelopeProcessor
	incoming string
	log      *zap.Logger
}

// Handle processes the S3 object-created notifications carried by an SQS batch.
// Messages whose envelope was left for retry are reported back as batch item
// failures so SQS redelivers only those; the event source mapping must have
// ReportBatchItemFailures enabled. The returned error is always nil.
func (h *handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse

	for _, message := range sqsEvent.Records {
		log := h.log.With(zap.String("message_id", message.MessageId))

		names, err := envelopesFromMessage(message.Body, h.incoming)
		if err != nil {
			// Redelivery cannot fix a malformed notification.
			log.Error("Discarding unreadable message", zap.Error(err))
			continue
		}

		for _, name := range names {
			if _, err := h.loader.ProcessEnvelope(ctx, name); err != nil {
				if errors.Is(err, service.ErrRetryable) {
					resp.BatchItemFailures = append(resp.BatchItemFailures,
						events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
					break
				}
				log.Error("Envelope processing failed", zap.String("envelope", name), zap.Error(err))
			}
		}
	}

	return resp, nil
}

// envelopesFromMessage returns the keys of the objects created in bucket named
// by an S3 event notification body. S3 test events carry no records.
func envelopesFromMessage(body, bucket string) ([]string, error) {
	var s3Event events.S3Event
	if err := json.Unmarshal([]byte(body), &s3Event); err != nil {
		return nil, fmt.Errorf("not an S3 event notification: %w", err)
	}

	var names []string
	for _, record := range s3Event.Records {
		if record.S3.Bucket.Name != bucket {
			continue
		}
		// Keys arrive URL encoded, with spaces as '+'.
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("invalid object key %q: %w", record.S3.Object.Key, err)
		}
		names = append(names, key)
	}
	return names, nil
}
