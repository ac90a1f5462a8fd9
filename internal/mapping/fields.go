package mapping

import "formloader/internal/models"

// numericField binds an OCR single-choice field to its answer slot.
type numericField struct {
	name string
	slot func(*models.AnswerRecord) **int
}

// textField binds an OCR free-text field to its answer slot.
type textField struct {
	name string
	slot func(*models.AnswerRecord) **string
}

// otherPair ties a free-text answer to the numeric codes that allow it.
type otherPair struct {
	numeric string
	text    string
	allowed []int
	num     func(*models.AnswerRecord) **int
	other   func(*models.AnswerRecord) **string
}

const (
	fieldDobDay   = "dob_day"
	fieldDobMonth = "dob_month"
	fieldDobYear  = "dob_year"
)

var numericFields = []numericField{
	{"language_main", func(a *models.AnswerRecord) **int { return &a.LanguageMain }},
	{"english_language_level", func(a *models.AnswerRecord) **int { return &a.EnglishLanguageLevel }},
	{"sex", func(a *models.AnswerRecord) **int { return &a.Sex }},
	{"gender_different", func(a *models.AnswerRecord) **int { return &a.GenderDifferent }},
	{"sexuality", func(a *models.AnswerRecord) **int { return &a.Sexuality }},
	{"marriage", func(a *models.AnswerRecord) **int { return &a.Marriage }},
	{"ethnicity", func(a *models.AnswerRecord) **int { return &a.Ethnicity }},
	{"religion", func(a *models.AnswerRecord) **int { return &a.Religion }},
	{"disability_conditions", func(a *models.AnswerRecord) **int { return &a.DisabilityConditions }},
	{"disability_impact", func(a *models.AnswerRecord) **int { return &a.DisabilityImpact }},
	{"disability_vision", func(a *models.AnswerRecord) **int { return &a.DisabilityVision }},
	{"disability_hearing", func(a *models.AnswerRecord) **int { return &a.DisabilityHearing }},
	{"disability_mobility", func(a *models.AnswerRecord) **int { return &a.DisabilityMobility }},
	{"disability_dexterity", func(a *models.AnswerRecord) **int { return &a.DisabilityDexterity }},
	{"disability_learning", func(a *models.AnswerRecord) **int { return &a.DisabilityLearning }},
	{"disability_memory", func(a *models.AnswerRecord) **int { return &a.DisabilityMemory }},
	{"disability_mental_health", func(a *models.AnswerRecord) **int { return &a.DisabilityMentalHealth }},
	{"disability_stamina", func(a *models.AnswerRecord) **int { return &a.DisabilityStamina }},
	{"disability_social", func(a *models.AnswerRecord) **int { return &a.DisabilitySocial }},
	{"disability_other", func(a *models.AnswerRecord) **int { return &a.DisabilityOther }},
	{"disability_none", func(a *models.AnswerRecord) **int { return &a.DisabilityNone }},
	{"pregnancy", func(a *models.AnswerRecord) **int { return &a.Pregnancy }},
}

var textFields = []textField{
	{"language_other", func(a *models.AnswerRecord) **string { return &a.LanguageOther }},
	{"other_religion_text", func(a *models.AnswerRecord) **string { return &a.ReligionOther }},
	{"other_disability_details", func(a *models.AnswerRecord) **string { return &a.DisabilityConditionOther }},
	{"other_sexuality_text", func(a *models.AnswerRecord) **string { return &a.SexualityOther }},
	{"gender_different_text", func(a *models.AnswerRecord) **string { return &a.GenderOther }},
}

// ethnicityOtherFields all write ethnicity_other; at most one may be filled.
var ethnicityOtherFields = []string{
	"other_white_ethnicity_text",
	"other_mixed_ethnicity_text",
	"other_asian_ethnicity_text",
	"other_african_caribbean_ethnicity_text",
	"other_ethnicity_text",
}

// otherPairs are checked in this order after mapping.
var otherPairs = []otherPair{
	{
		numeric: "language_main",
		text:    "language_other",
		allowed: []int{2},
		num:     func(a *models.AnswerRecord) **int { return &a.LanguageMain },
		other:   func(a *models.AnswerRecord) **string { return &a.LanguageOther },
	},
	{
		numeric: "gender_different",
		text:    "gender_other",
		allowed: []int{2},
		num:     func(a *models.AnswerRecord) **int { return &a.GenderDifferent },
		other:   func(a *models.AnswerRecord) **string { return &a.GenderOther },
	},
	{
		numeric: "sexuality",
		text:    "sexuality_other",
		allowed: []int{4},
		num:     func(a *models.AnswerRecord) **int { return &a.Sexuality },
		other:   func(a *models.AnswerRecord) **string { return &a.SexualityOther },
	},
	{
		numeric: "religion",
		text:    "religion_other",
		allowed: []int{8},
		num:     func(a *models.AnswerRecord) **int { return &a.Religion },
		other:   func(a *models.AnswerRecord) **string { return &a.ReligionOther },
	},
	{
		numeric: "ethnicity",
		text:    "ethnicity_other",
		allowed: []int{4, 8, 13, 16, 18},
		num:     func(a *models.AnswerRecord) **int { return &a.Ethnicity },
		other:   func(a *models.AnswerRecord) **string { return &a.EthnicityOther },
	},
}

// disabilityDetailSlots are cleared when "no disability" is ticked.
// disability_conditions and disability_impact are summary answers and stay.
var disabilityDetailSlots = []func(*models.AnswerRecord) **int{
	func(a *models.AnswerRecord) **int { return &a.DisabilityVision },
	func(a *models.AnswerRecord) **int { return &a.DisabilityHearing },
	func(a *models.AnswerRecord) **int { return &a.DisabilityMobility },
	func(a *models.AnswerRecord) **int { return &a.DisabilityDexterity },
	func(a *models.AnswerRecord) **int { return &a.DisabilityLearning },
	func(a *models.AnswerRecord) **int { return &a.DisabilityMemory },
	func(a *models.AnswerRecord) **int { return &a.DisabilityMentalHealth },
	func(a *models.AnswerRecord) **int { return &a.DisabilityStamina },
	func(a *models.AnswerRecord) **int { return &a.DisabilitySocial },
	func(a *models.AnswerRecord) **int { return &a.DisabilityOther },
}

var (
	numericByName       = indexNumeric(numericFields)
	textByName          = indexText(textFields)
	ethnicityOtherNames = toSet(ethnicityOtherFields)
)

func indexNumeric(fields []numericField) map[string]numericField {
	m := make(map[string]numericField, len(fields))
	for _, f := range fields {
		m[f.name] = f
	}
	return m
}

func indexText(fields []textField) map[string]textField {
	m := make(map[string]textField, len(fields))
	for _, f := range fields {
		m[f.name] = f
	}
	return m
}

func toSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func isNumericField(name string) bool {
	_, ok := numericByName[name]
	return ok
}
