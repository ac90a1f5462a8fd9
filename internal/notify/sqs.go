// Package notify publishes the outcome of each loaded envelope to SQS.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"formloader/internal/logger"
)

// Outcome statuses.
const (
	StatusSubmitted = "submitted"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
)

// Outcome describes what happened to one envelope.
type Outcome struct {
	ID         string    `json:"id"`
	Envelope   string    `json:"envelope"`
	DcnNumber  string    `json:"dcnNumber,omitempty"`
	AnswerID   string    `json:"answerId,omitempty"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Notifier publishes outcomes.
type Notifier interface {
	Publish(ctx context.Context, outcome Outcome) error
}

// SQSNotifier sends one message per outcome to a named queue.
type SQSNotifier struct {
	client    sqsiface.SQSAPI
	queueName string
	log       *zap.Logger

	mu       sync.Mutex
	queueURL string
}

// NewSQSNotifier returns a Notifier for queueName. The queue URL is looked up
// on first use.
func NewSQSNotifier(client sqsiface.SQSAPI, queueName string, log *zap.Logger) (*SQSNotifier, error) {
	if client == nil {
		return nil, errors.New("notify: sqs client is required")
	}
	if queueName == "" {
		return nil, errors.New("notify: queue name is required")
	}
	return &SQSNotifier{client: client, queueName: queueName, log: logger.OrNop(log)}, nil
}

// Publish sends outcome, stamping its id and time when unset.
func (n *SQSNotifier) Publish(ctx context.Context, outcome Outcome) error {
	if outcome.ID == "" {
		outcome.ID = uuid.NewString()
	}
	if outcome.OccurredAt.IsZero() {
		outcome.OccurredAt = time.Now().UTC()
	}

	queueURL, err := n.resolveQueueURL(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("unable to encode outcome for %q: %w", outcome.Envelope, err)
	}

	_, err = n.client.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			"Status": {
				DataType:    aws.String("String"),
				StringValue: aws.String(outcome.Status),
			},
			"Envelope": {
				DataType:    aws.String("String"),
				StringValue: aws.String(outcome.Envelope),
			},
		},
		MessageBody: aws.String(string(body)),
		QueueUrl:    aws.String(queueURL),
	})
	if err != nil {
		return fmt.Errorf("unable to send outcome to %q: %w", n.queueName, err)
	}

	n.log.Debug("Published outcome",
		zap.String("envelope", outcome.Envelope),
		zap.String("status", outcome.Status),
	)
	return nil
}

func (n *SQSNotifier) resolveQueueURL(ctx context.Context) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.queueURL != "" {
		return n.queueURL, nil
	}
	out, err := n.client.GetQueueUrlWithContext(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(n.queueName),
	})
	if err != nil {
		return "", fmt.Errorf("unable to find queue %q: %w", n.queueName, err)
	}
	n.queueURL = aws.StringValue(out.QueueUrl)
	return n.queueURL, nil
}
