package models

// Answer record codes shared by the mapper and its consumers.
const (
	// Conflicting marks a single-choice answer that was ticked more than once
	// or contradicts its free-text companion.
	Conflicting = -1

	PartyIDPaperForm = "PaperForm"
	ActorUnknown     = "UNKNOWN"
	ChannelPaper     = 2
	VersionNumber    = 1
)

// AnswerRecord holds one questionnaire's answers. A nil field was never answered.
type AnswerRecord struct {
	DobProvided *int    `json:"dobProvided"`
	Dob         *string `json:"dob"`

	LanguageMain         *int    `json:"languageMain"`
	LanguageOther        *string `json:"languageOther"`
	EnglishLanguageLevel *int    `json:"englishLanguageLevel"`

	Sex             *int    `json:"sex"`
	GenderDifferent *int    `json:"genderDifferent"`
	GenderOther     *string `json:"genderOther"`
	Sexuality       *int    `json:"sexuality"`
	SexualityOther  *string `json:"sexualityOther"`
	Marriage        *int    `json:"marriage"`

	Ethnicity      *int    `json:"ethnicity"`
	EthnicityOther *string `json:"ethnicityOther"`
	Religion       *int    `json:"religion"`
	ReligionOther  *string `json:"religionOther"`

	DisabilityConditions     *int    `json:"disabilityConditions"`
	DisabilityImpact         *int    `json:"disabilityImpact"`
	DisabilityVision         *int    `json:"disabilityVision"`
	DisabilityHearing        *int    `json:"disabilityHearing"`
	DisabilityMobility       *int    `json:"disabilityMobility"`
	DisabilityDexterity      *int    `json:"disabilityDexterity"`
	DisabilityLearning       *int    `json:"disabilityLearning"`
	DisabilityMemory         *int    `json:"disabilityMemory"`
	DisabilityMentalHealth   *int    `json:"disabilityMentalHealth"`
	DisabilityStamina        *int    `json:"disabilityStamina"`
	DisabilitySocial         *int    `json:"disabilitySocial"`
	DisabilityOther          *int    `json:"disabilityOther"`
	DisabilityConditionOther *string `json:"disabilityConditionOther"`
	DisabilityNone           *int    `json:"disabilityNone"`

	Pregnancy *int `json:"pregnancy"`
}

// AnswerRequest is the body submitted to the answers API for one paper form.
type AnswerRequest struct {
	ID            string        `json:"id"`
	DcnNumber     string        `json:"dcnNumber"`
	FormID        string        `json:"formId"`
	ServiceID     string        `json:"serviceId"`
	PartyID       string        `json:"partyId"`
	Channel       int           `json:"channel"`
	Actor         string        `json:"actor"`
	CompletedDate string        `json:"completedDate"`
	VersionNo     int           `json:"versionNo"`
	Answers       *AnswerRecord `json:"answers"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }
