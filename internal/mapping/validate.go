package mapping

import (
	"slices"

	"go.uber.org/zap"

	"formloader/internal/models"
)

// validate enforces the cross-field rules once all answers are mapped.
func (mc *mappingContext) validate(answers *models.AnswerRecord) {
	for _, pair := range otherPairs {
		mc.checkOtherPair(pair, answers)
	}
	mc.suppressDisabilityDetails(answers)
}

// checkOtherPair clears a free-text answer whose numeric choice does not allow one.
// A text answer with no numeric choice is left as is.
func (mc *mappingContext) checkOtherPair(pair otherPair, answers *models.AnswerRecord) {
	other := pair.other(answers)
	num := pair.num(answers)
	if *other == nil || *num == nil {
		return
	}
	if slices.Contains(pair.allowed, **num) {
		return
	}

	mc.log.Warn("Other text does not match selected option",
		zap.String("field", pair.numeric),
		zap.String("other_field", pair.text),
		zap.Int("code", **num),
	)
	*other = nil
	*num = models.IntPtr(models.Conflicting)
}

func (mc *mappingContext) suppressDisabilityDetails(answers *models.AnswerRecord) {
	if answers.DisabilityNone == nil || *answers.DisabilityNone <= 0 {
		return
	}
	for _, slot := range disabilityDetailSlots {
		*slot(answers) = nil
	}
	answers.DisabilityConditionOther = nil
}
