package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"formloader/internal/models"
)

// mapNumeric writes single-choice answers; duplicated fields get the Conflicting sentinel.
func (mc *mappingContext) mapNumeric(fields []models.RawField, answers *models.AnswerRecord) error {
	for _, f := range fields {
		field, ok := numericByName[f.Name]
		if !ok {
			continue
		}
		slot := field.slot(answers)

		if mc.isDuplicate(f.Name) {
			*slot = models.IntPtr(models.Conflicting)
			continue
		}

		value := strings.TrimSpace(f.Value)
		if value == "" {
			continue
		}
		code, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidNumericValue, f.Name, f.Value)
		}
		*slot = models.IntPtr(code)
	}
	return nil
}
