package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formloader/internal/archive"
	"formloader/internal/blobstore"
	"formloader/internal/config"
	"formloader/internal/mapping"
	"formloader/internal/models"
	"formloader/internal/notify"
	"formloader/internal/submission"
)

type memStore struct {
	containers map[string]map[string][]byte
	moveErr    error
}

func newMemStore() *memStore {
	return &memStore{containers: map[string]map[string][]byte{
		"incoming": {}, "processed": {}, "rejected": {},
	}}
}

func (m *memStore) List(_ context.Context, container string) ([]string, error) {
	var names []string
	for name := range m.containers[container] {
		names = append(names, name)
	}
	return names, nil
}

func (m *memStore) Download(_ context.Context, container, name string) ([]byte, error) {
	data, ok := m.containers[container][name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %q", blobstore.ErrNotFound, name, container)
	}
	return data, nil
}

func (m *memStore) Move(_ context.Context, from, to, name string) error {
	if m.moveErr != nil {
		return m.moveErr
	}
	if _, ok := m.containers[from][name]; !ok {
		return fmt.Errorf("%w: %q in %q", blobstore.ErrNotFound, name, from)
	}
	m.containers[to][name] = m.containers[from][name]
	delete(m.containers[from], name)
	return nil
}

type stubSubmitter struct {
	status int
	err    error
	got    []*models.AnswerRequest
}

func (s *stubSubmitter) Submit(_ context.Context, req *models.AnswerRequest) (submission.Response, error) {
	s.got = append(s.got, req)
	if s.err != nil {
		return submission.Response{}, s.err
	}
	return submission.Response{StatusCode: s.status}, nil
}

type submitterFunc func(ctx context.Context, req *models.AnswerRequest) (submission.Response, error)

func (f submitterFunc) Submit(ctx context.Context, req *models.AnswerRequest) (submission.Response, error) {
	return f(ctx, req)
}

type recordingNotifier struct {
	outcomes []notify.Outcome
}

func (r *recordingNotifier) Publish(_ context.Context, outcome notify.Outcome) error {
	r.outcomes = append(r.outcomes, outcome)
	return nil
}

func testConfig(dcnSource string) *config.Config {
	cfg := &config.Config{MetadataFileName: "metadata.json", DcnSource: dcnSource}
	cfg.Buckets.Incoming = "incoming"
	cfg.Buckets.Processed = "processed"
	cfg.Buckets.Rejected = "rejected"
	return cfg
}

func envelope(t *testing.T, metadata string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("metadata.json")
	require.NoError(t, err)
	_, err = f.Write([]byte(metadata))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func formMetadata(t *testing.T, fields ...models.RawField) string {
	t.Helper()
	ocr, err := json.Marshal(models.OcrPayload{MetadataFile: fields})
	require.NoError(t, err)
	raw, err := json.Marshal(models.PayloadMetaData{
		Jurisdiction:                     "DIVORCE",
		OriginatingDocumentControlNumber: "9000000009",
		ScannableItems: []models.ScannableItem{{
			DocumentType: "PCQ",
			OcrData:      base64.StdEncoding.EncodeToString(ocr),
		}},
	})
	require.NoError(t, err)
	return string(raw)
}

type harness struct {
	store     *memStore
	submitter *stubSubmitter
	notifier  *recordingNotifier
	loader    *Loader
}

func newHarness(t *testing.T, dcnSource string, status int) *harness {
	t.Helper()
	h := &harness{
		store:     newMemStore(),
		submitter: &stubSubmitter{status: status},
		notifier:  &recordingNotifier{},
	}
	cfg := testConfig(dcnSource)
	h.loader = NewLoader(cfg, h.store, archive.NewExtractor(cfg.MetadataFileName), mapping.NewMapper(nil),
		h.submitter, h.notifier, nil)
	return h
}

func TestProcessEnvelopeSubmitted(t *testing.T) {
	h := newHarness(t, config.DcnFromFilename, http.StatusCreated)
	h.store.containers["incoming"]["1000000001.zip"] = envelope(t, formMetadata(t, models.RawField{Name: "sex", Value: "1"}))

	outcome, err := h.loader.ProcessEnvelope(context.Background(), "1000000001.zip")
	require.NoError(t, err)

	assert.Equal(t, notify.StatusSubmitted, outcome.Status)
	assert.Contains(t, h.store.containers["processed"], "1000000001.zip")
	assert.Empty(t, h.store.containers["incoming"])
	require.Len(t, h.submitter.got, 1)
	assert.Equal(t, "1000000001", h.submitter.got[0].DcnNumber)
	assert.Equal(t, "DIVORCE", h.submitter.got[0].ServiceID)
	require.Len(t, h.notifier.outcomes, 1)
	assert.Equal(t, h.submitter.got[0].ID, h.notifier.outcomes[0].AnswerID)
}

func TestProcessEnvelopeDcnFromMetadata(t *testing.T) {
	h := newHarness(t, config.DcnFromMetadata, http.StatusOK)
	h.store.containers["incoming"]["env.zip"] = envelope(t, formMetadata(t))

	_, err := h.loader.ProcessEnvelope(context.Background(), "env.zip")
	require.NoError(t, err)
	assert.Equal(t, "9000000009", h.submitter.got[0].DcnNumber)
}

func TestProcessEnvelopeRejected(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		status int
	}{
		{"not a zip", []byte("garbage"), http.StatusCreated},
		{"no scannable items", nil, http.StatusCreated},
		{"answers API refused", nil, http.StatusBadRequest},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := newHarness(t, config.DcnFromFilename, test.status)
			data := test.data
			if data == nil {
				metadata := formMetadata(t)
				if test.status == http.StatusCreated {
					metadata = `{"jurisdiction":"SSCS","scannable_items":[]}`
				}
				data = envelope(t, metadata)
			}
			h.store.containers["incoming"]["1.zip"] = data

			outcome, err := h.loader.ProcessEnvelope(context.Background(), "1.zip")
			require.NoError(t, err)
			assert.Equal(t, notify.StatusRejected, outcome.Status)
			assert.NotEmpty(t, outcome.Reason)
			assert.Contains(t, h.store.containers["rejected"], "1.zip")
			require.Len(t, h.notifier.outcomes, 1)
			assert.Equal(t, notify.StatusRejected, h.notifier.outcomes[0].Status)
		})
	}
}

func TestProcessEnvelopeLeftForRetry(t *testing.T) {
	tests := []struct {
		name      string
		submitErr error
		status    int
		moveErr   error
	}{
		{name: "answers API down", submitErr: errors.New("connection refused")},
		{name: "answers API error", status: http.StatusBadGateway},
		{name: "rejected envelope cannot be filed", status: http.StatusBadRequest, moveErr: errors.New("AccessDenied")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := newHarness(t, config.DcnFromFilename, test.status)
			h.submitter.err = test.submitErr
			h.store.moveErr = test.moveErr
			h.store.containers["incoming"]["1.zip"] = envelope(t, formMetadata(t))

			outcome, err := h.loader.ProcessEnvelope(context.Background(), "1.zip")
			assert.ErrorIs(t, err, ErrRetryable)
			assert.Equal(t, notify.StatusFailed, outcome.Status)
			assert.Contains(t, h.store.containers["incoming"], "1.zip")
		})
	}
}

func TestProcessEnvelopeSubmittedButNotFiled(t *testing.T) {
	h := newHarness(t, config.DcnFromFilename, http.StatusCreated)
	h.store.moveErr = errors.New("s3 throttled")
	h.store.containers["incoming"]["1.zip"] = envelope(t, formMetadata(t))

	outcome, err := h.loader.ProcessEnvelope(context.Background(), "1.zip")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFiled)
	assert.NotErrorIs(t, err, ErrRetryable)

	assert.Equal(t, notify.StatusSubmitted, outcome.Status)
	assert.Len(t, h.submitter.got, 1)
	assert.Contains(t, h.store.containers["incoming"], "1.zip")
	require.Len(t, h.notifier.outcomes, 1)
	assert.Equal(t, notify.StatusSubmitted, h.notifier.outcomes[0].Status)
	assert.Equal(t, h.submitter.got[0].ID, h.notifier.outcomes[0].AnswerID)
}

func TestProcessEnvelopeRedeliveredAfterFiling(t *testing.T) {
	h := newHarness(t, config.DcnFromFilename, http.StatusCreated)
	h.store.containers["incoming"]["1.zip"] = envelope(t, formMetadata(t))

	_, err := h.loader.ProcessEnvelope(context.Background(), "1.zip")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		outcome, err := h.loader.ProcessEnvelope(context.Background(), "1.zip")
		require.NoError(t, err)
		assert.Equal(t, StatusAlreadyFiled, outcome.Status)
	}

	assert.Len(t, h.submitter.got, 1)
	assert.Contains(t, h.store.containers["processed"], "1.zip")
	assert.Empty(t, h.store.containers["rejected"])
	require.Len(t, h.notifier.outcomes, 1)
	assert.Equal(t, notify.StatusSubmitted, h.notifier.outcomes[0].Status)
}

func TestProcessEnvelopeMovedByConcurrentDelivery(t *testing.T) {
	h := newHarness(t, config.DcnFromFilename, http.StatusBadRequest)
	h.store.containers["incoming"]["1.zip"] = envelope(t, formMetadata(t))
	// Another delivery files the envelope while this one is at the answers API.
	h.loader.submitter = submitterFunc(func(ctx context.Context, req *models.AnswerRequest) (submission.Response, error) {
		require.NoError(t, h.store.Move(ctx, "incoming", "rejected", "1.zip"))
		return submission.Response{StatusCode: http.StatusBadRequest}, nil
	})

	outcome, err := h.loader.ProcessEnvelope(context.Background(), "1.zip")
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyFiled, outcome.Status)
	assert.Empty(t, h.notifier.outcomes)
}

func TestProcessContainerContinuesPastBadEnvelopes(t *testing.T) {
	h := newHarness(t, config.DcnFromFilename, http.StatusCreated)
	h.store.containers["incoming"]["1.zip"] = envelope(t, formMetadata(t))
	h.store.containers["incoming"]["2.zip"] = []byte("garbage")
	h.store.containers["incoming"]["3.zip"] = envelope(t, formMetadata(t, models.RawField{Name: "sex", Value: "x"}))
	h.store.containers["incoming"]["4.zip"] = envelope(t, formMetadata(t, models.RawField{Name: "sex", Value: "2"}))

	summary, err := h.loader.ProcessContainer(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Submitted: 2, Rejected: 2}, summary)
	assert.Len(t, h.store.containers["processed"], 2)
	assert.Len(t, h.store.containers["rejected"], 2)
	assert.Empty(t, h.store.containers["incoming"])
}

func TestProcessContainerStopsWhenCancelled(t *testing.T) {
	h := newHarness(t, config.DcnFromFilename, http.StatusCreated)
	h.store.containers["incoming"]["1.zip"] = envelope(t, formMetadata(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.loader.ProcessContainer(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.submitter.got)
}

func TestDcnFromEnvelope(t *testing.T) {
	tests := map[string]string{
		"1000000001.zip":          "1000000001",
		"2026/03/1000000002.zip":  "1000000002",
		"1000000003":              "1000000003",
		"1000000004.envelope.zip": "1000000004.envelope",
	}
	for in, want := range tests {
		assert.Equal(t, want, DcnFromEnvelope(in), in)
	}
}
