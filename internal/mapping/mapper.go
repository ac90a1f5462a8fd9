// Package mapping turns the OCR payload of a scanned paper questionnaire into
// an answer request for the answers API.
//
// A form that cannot be mapped yields a nil request and an error; callers route
// it to the rejected container and carry on with the batch.
package mapping

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"formloader/internal/logger"
	"formloader/internal/models"
)

var (
	ErrMalformedMetadata   = errors.New("malformed metadata")
	ErrNoScannableItems    = errors.New("no scannable items")
	ErrInvalidNumericValue = errors.New("invalid numeric value")
)

// Mapper builds answer requests. It keeps no per-form state and is safe for
// concurrent use.
type Mapper struct {
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// Option customises a Mapper.
type Option func(*Mapper)

// WithClock injects the clock used for the completed date.
func WithClock(clock func() time.Time) Option {
	return func(m *Mapper) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithIDGenerator injects the request identifier generator.
func WithIDGenerator(newID func() string) Option {
	return func(m *Mapper) {
		if newID != nil {
			m.newID = newID
		}
	}
}

// NewMapper creates a Mapper logging to log.
func NewMapper(log *zap.Logger, opts ...Option) *Mapper {
	m := &Mapper{
		log:   logger.OrNop(log),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Map builds the answer request for metadataJSON, stamped with dcn.
func (m *Mapper) Map(metadataJSON, dcn string) (*models.AnswerRequest, error) {
	meta, err := m.decodeMetaData(metadataJSON, dcn)
	if err != nil {
		return nil, err
	}
	return m.build(meta, dcn)
}

// MapWithOriginatingDCN is Map with the document control number taken from the
// metadata itself.
func (m *Mapper) MapWithOriginatingDCN(metadataJSON string) (*models.AnswerRequest, error) {
	meta, err := m.decodeMetaData(metadataJSON, "")
	if err != nil {
		return nil, err
	}
	return m.build(meta, meta.OriginatingDocumentControlNumber)
}

func (m *Mapper) decodeMetaData(metadataJSON, dcn string) (*models.PayloadMetaData, error) {
	var meta models.PayloadMetaData
	if err := json.Unmarshal([]byte(metadataJSON), &meta); err != nil {
		m.log.Error("Unable to decode metadata", zap.String("dcn", dcn), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}
	return &meta, nil
}

func (m *Mapper) build(meta *models.PayloadMetaData, dcn string) (*models.AnswerRequest, error) {
	log := m.log.With(zap.String("dcn", dcn))

	if len(meta.ScannableItems) == 0 {
		log.Error("Metadata has no scannable items")
		return nil, ErrNoScannableItems
	}
	item := meta.ScannableItems[0]

	fields, err := decodeOcrData(item.OcrData)
	if err != nil {
		log.Error("Unable to decode OCR data", zap.Error(err))
		return nil, err
	}

	answers, err := mapAnswers(fields, log)
	if err != nil {
		log.Error("Unable to map answers", zap.Error(err))
		return nil, err
	}

	return &models.AnswerRequest{
		ID:            m.newID(),
		DcnNumber:     dcn,
		FormID:        item.DocumentType,
		ServiceID:     meta.Jurisdiction,
		PartyID:       models.PartyIDPaperForm,
		Channel:       models.ChannelPaper,
		Actor:         models.ActorUnknown,
		CompletedDate: m.now().UTC().Format(timestampLayout),
		VersionNo:     models.VersionNumber,
		Answers:       answers,
	}, nil
}

func decodeOcrData(ocrData string) ([]models.RawField, error) {
	raw, err := base64.StdEncoding.DecodeString(ocrData)
	if err != nil {
		return nil, fmt.Errorf("%w: ocr_data is not base64: %v", ErrMalformedMetadata, err)
	}
	var payload models.OcrPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: ocr_data is not a field list: %v", ErrMalformedMetadata, err)
	}
	return payload.MetadataFile, nil
}

// mapAnswers runs the mapping steps over one form's fields with fresh scratch state.
func mapAnswers(fields []models.RawField, log *zap.Logger) (*models.AnswerRecord, error) {
	mc := newMappingContext(log)
	answers := &models.AnswerRecord{}

	mc.detectDuplicates(fields)
	if err := mc.mapNumeric(fields, answers); err != nil {
		return nil, err
	}
	mc.mapFreeText(fields, answers)
	mc.mapDob(fields, answers)
	mc.validate(answers)

	return answers, nil
}
