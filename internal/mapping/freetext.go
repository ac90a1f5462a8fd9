package mapping

import (
	"strings"

	"go.uber.org/zap"

	"formloader/internal/models"
)

// mapFreeText copies the "other" text boxes. Only one ethnicity box may be filled;
// a second one makes the whole ethnicity answer Conflicting.
func (mc *mappingContext) mapFreeText(fields []models.RawField, answers *models.AnswerRecord) {
	for _, f := range fields {
		text := strings.TrimSpace(f.Value)
		if text == "" {
			continue
		}

		if field, ok := textByName[f.Name]; ok {
			*field.slot(answers) = models.StringPtr(text)
			continue
		}

		if _, ok := ethnicityOtherNames[f.Name]; ok {
			mc.mapEthnicityOther(f.Name, text, answers)
		}
	}
}

func (mc *mappingContext) mapEthnicityOther(name, text string, answers *models.AnswerRecord) {
	mc.ethnicityOthers++
	if mc.ethnicityOthers > 1 {
		mc.log.Warn("Multiple ethnicity other answers", zap.String("field", name))
		answers.EthnicityOther = nil
		answers.Ethnicity = models.IntPtr(models.Conflicting)
		return
	}
	if answers.Ethnicity != nil && *answers.Ethnicity == models.Conflicting {
		return
	}
	answers.EthnicityOther = models.StringPtr(text)
}
