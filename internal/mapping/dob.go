package mapping

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"formloader/internal/models"
)

const (
	dobLayout       = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// mapDob composes dob_day, dob_month and dob_year. A missing or impossible
// date is a valid answer: DobProvided is 0 and Dob stays nil.
func (mc *mappingContext) mapDob(fields []models.RawField, answers *models.AnswerRecord) {
	var day, month, year string
	for _, f := range fields {
		switch f.Name {
		case fieldDobDay:
			day = strings.TrimSpace(f.Value)
		case fieldDobMonth:
			month = strings.TrimSpace(f.Value)
		case fieldDobYear:
			year = strings.TrimSpace(f.Value)
		}
	}

	dob, err := composeDob(day, month, year)
	if err != nil {
		mc.log.Info("Date of birth not provided or invalid",
			zap.String("day", day),
			zap.String("month", month),
			zap.String("year", year),
			zap.Error(err),
		)
		answers.DobProvided = models.IntPtr(0)
		answers.Dob = nil
		return
	}

	answers.DobProvided = models.IntPtr(1)
	answers.Dob = models.StringPtr(dob.Format(timestampLayout))
}

func composeDob(day, month, year string) (time.Time, error) {
	return time.Parse(dobLayout, year+"-"+padTwo(month)+"-"+padTwo(day))
}

func padTwo(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
