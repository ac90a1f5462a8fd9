package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/sqs"
	"go.uber.org/zap"

	"formloader/internal/archive"
	"formloader/internal/blobstore"
	"formloader/internal/config"
	logpkg "formloader/internal/logger"
	"formloader/internal/mapping"
	"formloader/internal/notify"
	"formloader/internal/service"
	"formloader/internal/submission"
)

// Runs as an SQS-triggered Lambda. "form-loader sweep" instead processes the
// whole incoming bucket once and exits.
func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code. Deferred calls, the log flush included,
// complete before main exits.
func run(args []string) int {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log, err := logpkg.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	loader, err := newLoader(cfg, log)
	if err != nil {
		log.Error("Failed to create loader", zap.Error(err))
		return 1
	}

	if len(args) > 0 && args[0] == "sweep" {
		return sweep(loader, log)
	}

	h := &handler{loader: loader, incoming: cfg.Buckets.Incoming, log: log}
	lambda.Start(h.Handle)
	return 0
}

type containerProcessor interface {
	ProcessContainer(ctx context.Context) (service.Summary, error)
}

func sweep(loader containerProcessor, log *zap.Logger) int {
	summary, err := loader.ProcessContainer(context.Background())
	log.Info("Sweep finished",
		zap.Int("submitted", summary.Submitted),
		zap.Int("rejected", summary.Rejected),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Error(err),
	)
	if err != nil {
		return 1
	}
	return 0
}

func newLoader(cfg *config.Config, log *zap.Logger) (*service.Loader, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create AWS session: %w", err)
	}

	store, err := blobstore.NewS3Store(s3.New(sess), log)
	if err != nil {
		return nil, err
	}
	notifier, err := notify.NewSQSNotifier(sqs.New(sess), cfg.OutcomeQueue, log)
	if err != nil {
		return nil, err
	}

	return service.NewLoader(
		cfg,
		store,
		archive.NewExtractor(cfg.MetadataFileName),
		mapping.NewMapper(log),
		submission.NewClient(cfg.Submission.BaseURL, cfg.Submission.Path, cfg.Submission.Timeout, log),
		notifier,
		log,
	), nil
}
