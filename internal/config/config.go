package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// DCN sources.
const (
	DcnFromFilename = "filename"
	DcnFromMetadata = "metadata"
)

// Config holds the loader settings, read from the Lambda environment.
type Config struct {
	Region string

	Buckets struct {
		Incoming  string
		Processed string
		Rejected  string
	}

	OutcomeQueue string

	Submission struct {
		BaseURL string
		Path    string
		Timeout time.Duration
	}

	MetadataFileName string
	// DcnSource picks where the document control number comes from:
	// the envelope name ("filename") or the metadata ("metadata").
	DcnSource string

	Log struct {
		Level       string
		Format      string
		ServiceName string
	}
}

// Load reads the configuration from environment variables, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Region = getEnv("AWS_REGION", "eu-west-2")

	cfg.Buckets.Incoming = getEnv("INCOMING_BUCKET", "")
	cfg.Buckets.Processed = getEnv("PROCESSED_BUCKET", "")
	cfg.Buckets.Rejected = getEnv("REJECTED_BUCKET", "")
	cfg.OutcomeQueue = getEnv("OUTCOME_QUEUE", "form-loader-outcomes")

	cfg.Submission.BaseURL = getEnv("SUBMISSION_BASE_URL", "")
	cfg.Submission.Path = getEnv("SUBMISSION_PATH", "/pcq/submitAnswers")
	timeoutStr := getEnv("SUBMISSION_TIMEOUT_SECONDS", "30")
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid SUBMISSION_TIMEOUT_SECONDS %q", timeoutStr)
	}
	cfg.Submission.Timeout = time.Duration(timeout) * time.Second

	cfg.MetadataFileName = getEnv("METADATA_FILE_NAME", "metadata.json")
	cfg.DcnSource = getEnv("DCN_SOURCE", DcnFromFilename)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	cfg.Log.ServiceName = getEnv("SERVICE_NAME", "form-loader")

	return cfg, nil
}

// Validate reports settings the loader cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Buckets.Incoming == "" {
		errs = append(errs, errors.New("INCOMING_BUCKET is required"))
	}
	if c.Buckets.Processed == "" {
		errs = append(errs, errors.New("PROCESSED_BUCKET is required"))
	}
	if c.Buckets.Rejected == "" {
		errs = append(errs, errors.New("REJECTED_BUCKET is required"))
	}
	if c.Submission.BaseURL == "" {
		errs = append(errs, errors.New("SUBMISSION_BASE_URL is required"))
	}
	if c.DcnSource != DcnFromFilename && c.DcnSource != DcnFromMetadata {
		errs = append(errs, fmt.Errorf("DCN_SOURCE must be %q or %q, got %q", DcnFromFilename, DcnFromMetadata, c.DcnSource))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
