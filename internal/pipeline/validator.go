package pipeline

import (
	"strings"

	"github.com/adforge/backend/internal/models"
	"github.com/adforge/backend/internal/sanitize"
)

const (
	MaxPrimaryTextLength = 125
	MaxHeadlineLength    = 40
)

// CandidateRow is one untrusted import row. Field names follow the CSV header.
type CandidateRow struct {
	TemplateName     string
	PrimaryText      string
	Headline         string
	CTA              string
	Industry         string
	Goal             string
	Description      string
	Headline2        string
	Headline3        string
	PrimaryText2     string
	PrimaryText3     string
	Description2     string
	Description3     string
	Budget           string
	AgeMin           string
	AgeMax           string
	Interests        string
	IsLocal          string
	Radius           string
	Currency         string
	BudgetReasoning  string
	ImageURL         string
	Objective        string
	ConversionMethod string
}

// Sanitized returns a copy with every text field passed through
// sanitize.String. ImageURL is only trimmed; Validate checks it.
func (r CandidateRow) Sanitized() CandidateRow {
	fields := r.fieldPtrs()
	out := r
	outFields := out.fieldPtrs()
	for i, f := range fields {
		*outFields[i] = sanitize.String(*f)
	}
	out.ImageURL = strings.TrimSpace(r.ImageURL)
	return out
}

func (r *CandidateRow) fieldPtrs() []*string {
	return []*string{
		&r.TemplateName, &r.PrimaryText, &r.Headline, &r.CTA, &r.Industry, &r.Goal,
		&r.Description, &r.Headline2, &r.Headline3, &r.PrimaryText2, &r.PrimaryText3,
		&r.Description2, &r.Description3, &r.Budget, &r.AgeMin, &r.AgeMax,
		&r.Interests, &r.IsLocal, &r.Radius, &r.Currency, &r.BudgetReasoning,
		&r.Objective, &r.ConversionMethod,
	}
}

// NormalizeCTA upper-cases cta and joins whitespace runs with underscores,
// so "shop now" becomes "SHOP_NOW".
func NormalizeCTA(cta string) string {
	return strings.Join(strings.Fields(strings.ToUpper(cta)), "_")
}

// Validate checks the structural rules of a row and stops at the first
// failure. It never modifies the row.
func Validate(row CandidateRow) *ValidationError {
	required := []struct {
		column string
		value  string
	}{
		{"TemplateName", row.TemplateName},
		{"PrimaryText", row.PrimaryText},
		{"Headline", row.Headline},
		{"CTA", row.CTA},
		{"Industry", row.Industry},
		{"Goal", row.Goal},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return newValidationError(RuleRequired, f.column, "missing required field %s", f.column)
		}
	}

	if n := sanitize.Length(row.PrimaryText); n > MaxPrimaryTextLength {
		return newValidationError(RulePrimaryTextLen, "PrimaryText",
			"primary text is %d characters, maximum is %d", n, MaxPrimaryTextLength)
	}
	if n := sanitize.Length(row.Headline); n > MaxHeadlineLength {
		return newValidationError(RuleHeadlineLen, "Headline",
			"headline is %d characters, maximum is %d", n, MaxHeadlineLength)
	}

	if cta := NormalizeCTA(row.CTA); !models.IsValidCTA(cta) {
		return newValidationError(RuleCallToAction, "CTA",
			"invalid CTA %q, must be one of: %s", row.CTA, strings.Join(models.AllCTAs, ", "))
	}

	if row.ImageURL != "" && sanitize.URL(row.ImageURL) == "" {
		return newValidationError(RuleImageURL, "ImageURL", "image URL must be an absolute http or https address")
	}

	return nil
}
