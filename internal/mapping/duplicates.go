package mapping

import (
	"go.uber.org/zap"

	"formloader/internal/models"
)

// mappingContext is the scratch state of one mapping call.
type mappingContext struct {
	log        *zap.Logger
	seen       map[string]struct{}
	duplicates map[string]struct{}
	// ethnicityOthers counts filled ethnicity "other" boxes.
	ethnicityOthers int
}

func newMappingContext(log *zap.Logger) *mappingContext {
	return &mappingContext{
		log:        log,
		seen:       make(map[string]struct{}),
		duplicates: make(map[string]struct{}),
	}
}

// detectDuplicates records every numeric field name that occurs more than once.
func (mc *mappingContext) detectDuplicates(fields []models.RawField) {
	for _, f := range fields {
		if !isNumericField(f.Name) {
			continue
		}
		if _, ok := mc.seen[f.Name]; !ok {
			mc.seen[f.Name] = struct{}{}
			continue
		}
		if _, ok := mc.duplicates[f.Name]; !ok {
			mc.log.Warn("Multiple answers for single-choice field", zap.String("field", f.Name))
		}
		mc.duplicates[f.Name] = struct{}{}
	}
}

func (mc *mappingContext) isDuplicate(name string) bool {
	_, ok := mc.duplicates[name]
	return ok
}
