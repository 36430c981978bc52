package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adforge/backend/internal/models"
	"github.com/adforge/backend/internal/sanitize"
)

// NormalizePatch sanitizes an owner edit and applies the same constraints
// imported templates satisfy. Sub-objects are replaced whole, so each one
// supplied must be complete.
func NormalizePatch(p models.TemplatePatch) (models.TemplatePatch, error) {
	out := p

	if p.Name != nil {
		name := sanitize.String(*p.Name)
		if name == "" {
			return out, newValidationError(RuleName, "name", "template name cannot be blank")
		}
		out.Name = &name
	}
	if p.Description != nil {
		d := sanitize.String(*p.Description)
		out.Description = &d
	}
	if p.Category != nil {
		c := models.Category(strings.ToUpper(strings.TrimSpace(string(*p.Category))))
		if !models.IsValidCategory(c) {
			return out, newValidationError(RuleCategory, "category", "unknown category %q", *p.Category)
		}
		out.Category = &c
	}
	if p.Objective != nil {
		o := sanitize.String(*p.Objective)
		if o == "" {
			return out, newValidationError(RuleRequired, "objective", "objective cannot be blank")
		}
		out.Objective = &o
	}
	if p.ConversionMethod != nil {
		cm := sanitize.String(*p.ConversionMethod)
		if cm == "" {
			return out, newValidationError(RuleRequired, "conversion_method", "conversion method cannot be blank")
		}
		out.ConversionMethod = &cm
	}
	if p.Visibility != nil {
		v, err := models.ParseVisibility(strings.ToUpper(strings.TrimSpace(string(*p.Visibility))))
		if err != nil {
			return out, newValidationError(RuleVisibility, "visibility", "%s", err.Error())
		}
		out.Visibility = &v
	}

	if p.Targeting != nil {
		t := copyTargeting(*p.Targeting)
		t.Interests = sanitize.Strings(t.Interests)
		if t.Locality != nil && t.Locality.City != nil {
			t.Locality.City = optional(sanitize.String(*t.Locality.City))
		}
		if err := validateTargeting(t); err != nil {
			return out, err
		}
		out.Targeting = &t
	}
	if p.Budget != nil {
		b := copyBudget(*p.Budget)
		if n := sanitize.Number(b.DailyAmount, nil, nil); n == nil || *n <= 0 {
			return out, newValidationError(RuleBudget, "daily_amount", "daily budget must be a positive number")
		}
		b.Currency = normalizeCurrency(b.Currency)
		if b.Reasoning != nil {
			b.Reasoning = optional(sanitize.String(*b.Reasoning))
		}
		out.Budget = &b
	}
	if p.AdCopy != nil {
		a := copyAdCopy(*p.AdCopy)
		a.Headlines = sanitize.Strings(a.Headlines)
		a.PrimaryTexts = sanitize.Strings(a.PrimaryTexts)
		a.Descriptions = sanitize.Strings(a.Descriptions)
		a.CallToAction = NormalizeCTA(a.CallToAction)
		if a.ImageURL != nil {
			a.ImageURL = optional(*a.ImageURL)
		}
		if a.ImageURL != nil && sanitize.URL(*a.ImageURL) == "" {
			return out, newValidationError(RuleImageURL, "image_url", "image URL must be an absolute http or https address")
		}
		if err := validateAdCopy(a, true); err != nil {
			return out, err
		}
		if err := validateCopyLengths(a); err != nil {
			return out, err
		}
		out.AdCopy = &a
	}

	return out, nil
}

func validateCopyLengths(a models.AdCopy) *ValidationError {
	for _, h := range a.Headlines {
		if n := sanitize.Length(h); n > MaxHeadlineLength {
			return newValidationError(RuleHeadlineLen, "headlines",
				"headline is %d characters, maximum is %d", n, MaxHeadlineLength)
		}
	}
	for _, pt := range a.PrimaryTexts {
		if n := sanitize.Length(pt); n > MaxPrimaryTextLength {
			return newValidationError(RulePrimaryTextLen, "primary_texts",
				"primary text is %d characters, maximum is %d", n, MaxPrimaryTextLength)
		}
	}
	return nil
}

// DecodeRecommendations parses the AI recommendations document and scrubs
// every string in it before it is mapped onto typed fields.
func DecodeRecommendations(raw []byte) (models.Recommendations, error) {
	var rec models.Recommendations
	if len(raw) == 0 || string(raw) == "null" {
		return rec, nil
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return rec, fmt.Errorf("decode recommendations: %w", err)
	}
	clean, err := json.Marshal(sanitize.Object(generic))
	if err != nil {
		return rec, fmt.Errorf("encode recommendations: %w", err)
	}
	if err := json.Unmarshal(clean, &rec); err != nil {
		return rec, fmt.Errorf("decode recommendations: %w", err)
	}
	return rec, nil
}
