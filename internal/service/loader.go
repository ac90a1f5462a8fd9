package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"formloader/internal/blobstore"
	"formloader/internal/config"
	"formloader/internal/logger"
	"formloader/internal/models"
	"formloader/internal/notify"
	"formloader/internal/submission"
)

var (
	// ErrRetryable marks an envelope left in the incoming container for a later attempt.
	ErrRetryable = errors.New("envelope left for retry")
	// ErrNotFiled marks a submitted envelope that could not be moved out of the
	// incoming container. Retrying it would submit the answers again.
	ErrNotFiled = errors.New("submitted envelope not filed")
)

// StatusAlreadyFiled is the outcome status of an envelope that is no longer in
// the incoming container. It is not published.
const StatusAlreadyFiled = "already_filed"

// BlobStore is the envelope storage the loader needs.
type BlobStore interface {
	List(ctx context.Context, container string) ([]string, error)
	Download(ctx context.Context, container, name string) ([]byte, error)
	Move(ctx context.Context, from, to, name string) error
}

// MetadataExtractor pulls the metadata JSON out of an envelope archive.
type MetadataExtractor interface {
	ExtractMetadata(data []byte) (string, error)
}

// AnswerMapper turns metadata JSON into an answer request.
type AnswerMapper interface {
	Map(metadataJSON, dcn string) (*models.AnswerRequest, error)
	MapWithOriginatingDCN(metadataJSON string) (*models.AnswerRequest, error)
}

// Submitter sends an answer request to the answers API.
type Submitter interface {
	Submit(ctx context.Context, req *models.AnswerRequest) (submission.Response, error)
}

// Loader moves envelopes from the incoming container through mapping and
// submission, filing each into the processed or rejected container.
type Loader struct {
	cfg       *config.Config
	store     BlobStore
	extractor MetadataExtractor
	mapper    AnswerMapper
	submitter Submitter
	notifier  notify.Notifier
	log       *zap.Logger
}

// NewLoader wires a Loader.
func NewLoader(cfg *config.Config, store BlobStore, extractor MetadataExtractor, mapper AnswerMapper,
	submitter Submitter, notifier notify.Notifier, log *zap.Logger) *Loader {
	return &Loader{
		cfg:       cfg,
		store:     store,
		extractor: extractor,
		mapper:    mapper,
		submitter: submitter,
		notifier:  notifier,
		log:       logger.OrNop(log),
	}
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Submitted int
	Rejected  int
	Failed    int
	Skipped   int
}

func (s *Summary) add(status string) {
	switch status {
	case notify.StatusSubmitted:
		s.Submitted++
	case notify.StatusRejected:
		s.Rejected++
	case StatusAlreadyFiled:
		s.Skipped++
	default:
		s.Failed++
	}
}

// ProcessContainer loads every envelope in the incoming container, one at a time.
// A failed envelope does not stop the batch.
func (l *Loader) ProcessContainer(ctx context.Context) (Summary, error) {
	var summary Summary

	names, err := l.store.List(ctx, l.cfg.Buckets.Incoming)
	if err != nil {
		return summary, err
	}
	l.log.Info("Processing container",
		zap.String("container", l.cfg.Buckets.Incoming),
		zap.Int("envelopes", len(names)),
	)

	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome, err := l.ProcessEnvelope(ctx, name)
		summary.add(outcome.Status)
		if err != nil {
			errs = append(errs, err)
		}
	}

	l.log.Info("Container processed",
		zap.Int("submitted", summary.Submitted),
		zap.Int("rejected", summary.Rejected),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, errors.Join(errs...)
}

// ProcessEnvelope loads one envelope. The returned error is non-nil only when
// the envelope was left in the incoming container. An envelope missing from the
// incoming container was filed by an earlier delivery and is skipped.
func (l *Loader) ProcessEnvelope(ctx context.Context, name string) (notify.Outcome, error) {
	log := l.log.With(zap.String("envelope", name))
	outcome := notify.Outcome{Envelope: name}

	data, err := l.store.Download(ctx, l.cfg.Buckets.Incoming, name)
	if errors.Is(err, blobstore.ErrNotFound) {
		return l.skip(outcome, log)
	}
	if err != nil {
		return l.reject(ctx, outcome, err.Error(), log)
	}

	req, reason := l.buildRequest(name, data)
	if req == nil {
		return l.reject(ctx, outcome, reason, log)
	}
	outcome.DcnNumber = req.DcnNumber
	outcome.AnswerID = req.ID

	resp, err := l.submitter.Submit(ctx, req)
	switch {
	case err != nil:
		return l.fail(ctx, outcome, err, log)
	case resp.Accepted():
		return l.fileSubmitted(ctx, outcome, log)
	case resp.Refused():
		reason := fmt.Sprintf("answers API refused the request: %d %s", resp.StatusCode, resp.Body)
		return l.reject(ctx, outcome, reason, log)
	default:
		return l.fail(ctx, outcome, fmt.Errorf("answers API replied %d", resp.StatusCode), log)
	}
}

// buildRequest returns the mapped request, or nil and the reason it could not be built.
func (l *Loader) buildRequest(name string, data []byte) (*models.AnswerRequest, string) {
	metadata, err := l.extractor.ExtractMetadata(data)
	if err != nil {
		return nil, err.Error()
	}

	var req *models.AnswerRequest
	if l.cfg.DcnSource == config.DcnFromMetadata {
		req, err = l.mapper.MapWithOriginatingDCN(metadata)
	} else {
		req, err = l.mapper.Map(metadata, DcnFromEnvelope(name))
	}
	if err != nil {
		return nil, err.Error()
	}
	if req == nil {
		return nil, "no answers mapped"
	}
	return req, ""
}

func (l *Loader) reject(ctx context.Context, outcome notify.Outcome, reason string, log *zap.Logger) (notify.Outcome, error) {
	log.Warn("Rejecting envelope", zap.String("reason", reason))
	outcome.Reason = reason
	return l.file(ctx, outcome, notify.StatusRejected, l.cfg.Buckets.Rejected, log)
}

func (l *Loader) fail(ctx context.Context, outcome notify.Outcome, cause error, log *zap.Logger) (notify.Outcome, error) {
	log.Error("Envelope left for retry", zap.Error(cause))
	outcome.Status = notify.StatusFailed
	outcome.Reason = cause.Error()
	l.publish(ctx, outcome, log)
	return outcome, fmt.Errorf("%w: %s: %v", ErrRetryable, outcome.Envelope, cause)
}

func (l *Loader) skip(outcome notify.Outcome, log *zap.Logger) (notify.Outcome, error) {
	log.Info("Envelope no longer in incoming container, skipping")
	outcome.Status = StatusAlreadyFiled
	return outcome, nil
}

// fileSubmitted moves an accepted envelope to the processed container. A failed
// move is not retried because the answers are already with the API.
func (l *Loader) fileSubmitted(ctx context.Context, outcome notify.Outcome, log *zap.Logger) (notify.Outcome, error) {
	container := l.cfg.Buckets.Processed
	outcome.Status = notify.StatusSubmitted
	err := l.store.Move(ctx, l.cfg.Buckets.Incoming, container, outcome.Envelope)
	switch {
	case errors.Is(err, blobstore.ErrNotFound):
		log.Warn("Submitted envelope already moved", zap.Error(err))
	case err != nil:
		log.Error("Submitted envelope could not be filed", zap.String("container", container), zap.Error(err))
		outcome.Reason = err.Error()
		l.publish(ctx, outcome, log)
		return outcome, fmt.Errorf("%w: %s: %v", ErrNotFiled, outcome.Envelope, err)
	default:
		log.Info("Envelope filed", zap.String("status", outcome.Status), zap.String("container", container))
	}
	l.publish(ctx, outcome, log)
	return outcome, nil
}

// file moves the envelope to container and publishes the outcome.
func (l *Loader) file(ctx context.Context, outcome notify.Outcome, status, container string, log *zap.Logger) (notify.Outcome, error) {
	err := l.store.Move(ctx, l.cfg.Buckets.Incoming, container, outcome.Envelope)
	if errors.Is(err, blobstore.ErrNotFound) {
		return l.skip(outcome, log)
	}
	if err != nil {
		return l.fail(ctx, outcome, err, log)
	}
	outcome.Status = status
	log.Info("Envelope filed", zap.String("status", status), zap.String("container", container))
	l.publish(ctx, outcome, log)
	return outcome, nil
}

func (l *Loader) publish(ctx context.Context, outcome notify.Outcome, log *zap.Logger) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Publish(ctx, outcome); err != nil {
		log.Warn("Unable to publish outcome", zap.Error(err))
	}
}

// DcnFromEnvelope derives the document control number from an envelope name:
// the base name without its extension.
func DcnFromEnvelope(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}
