package pipeline

import (
	"math"
	"strings"

	"github.com/adforge/backend/internal/models"
	"github.com/adforge/backend/internal/sanitize"
)

// ForLaunch merges overrides onto a stored template and checks that the
// result can be handed to the publisher. Overrides replace individual
// fields: a new daily amount keeps the stored currency and reasoning.
// The template itself is not modified.
func ForLaunch(t *models.Template, o models.LaunchOverrides) (*models.LaunchPayload, error) {
	p := &models.LaunchPayload{
		TemplateID:       t.ID,
		Name:             t.Name,
		Category:         t.Category,
		Objective:        t.Objective,
		ConversionMethod: t.ConversionMethod,
		Targeting:        copyTargeting(t.Targeting),
		Budget:           copyBudget(t.Budget),
		AdCopy:           copyAdCopy(t.AdCopy),
	}

	if o.Objective != nil {
		p.Objective = orDefault(sanitize.String(*o.Objective), p.Objective)
	}
	if o.ConversionMethod != nil {
		p.ConversionMethod = orDefault(sanitize.String(*o.ConversionMethod), p.ConversionMethod)
	}

	if o.DailyAmount != nil {
		p.Budget.DailyAmount = *o.DailyAmount
	}
	if o.Currency != nil {
		if c := strings.TrimSpace(*o.Currency); c != "" {
			p.Budget.Currency = strings.ToUpper(c)
		}
	}
	if o.BudgetReasoning != nil {
		p.Budget.Reasoning = optional(sanitize.String(*o.BudgetReasoning))
	}

	if o.AgeMin != nil {
		p.Targeting.AgeMin = *o.AgeMin
	}
	if o.AgeMax != nil {
		p.Targeting.AgeMax = *o.AgeMax
	}
	if o.Interests != nil {
		p.Targeting.Interests = sanitize.Strings(o.Interests)
	}
	if o.IsLocal != nil || o.RadiusKM != nil || o.City != nil {
		if p.Targeting.Locality == nil {
			p.Targeting.Locality = &models.Locality{IsLocal: true}
		}
		if o.IsLocal != nil {
			p.Targeting.Locality.IsLocal = *o.IsLocal
		}
		if o.RadiusKM != nil {
			r := *o.RadiusKM
			p.Targeting.Locality.RadiusKM = &r
		}
		if o.City != nil {
			p.Targeting.Locality.City = optional(sanitize.String(*o.City))
		}
	}

	if o.CallToAction != nil {
		p.AdCopy.CallToAction = NormalizeCTA(*o.CallToAction)
	}
	if o.Headlines != nil {
		p.AdCopy.Headlines = sanitize.Strings(o.Headlines)
	}
	if o.PrimaryTexts != nil {
		p.AdCopy.PrimaryTexts = sanitize.Strings(o.PrimaryTexts)
	}
	if o.Descriptions != nil {
		p.AdCopy.Descriptions = sanitize.Strings(o.Descriptions)
	}

	if err := validatePayload(p); err != nil {
		return nil, err
	}
	return p, nil
}

func validatePayload(p *models.LaunchPayload) *ValidationError {
	amount := p.Budget.DailyAmount
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return newValidationError(RuleBudget, "daily_amount", "daily budget must be a positive number")
	}
	if len(p.Budget.Currency) != 3 {
		return newValidationError(RuleBudget, "currency", "currency must be a 3-letter code, got %q", p.Budget.Currency)
	}
	if err := validateTargeting(p.Targeting); err != nil {
		return err
	}
	if p.Targeting.Locality != nil && p.Targeting.Locality.RadiusKM != nil && *p.Targeting.Locality.RadiusKM <= 0 {
		return newValidationError(RuleTargeting, "radius_km", "radius must be positive")
	}
	return validateAdCopy(p.AdCopy, true)
}

func validateTargeting(t models.Targeting) *ValidationError {
	if !validAge(t.AgeMin) || !validAge(t.AgeMax) {
		return newValidationError(RuleAgeRange, "age_min",
			"ages must be between %d and %d", minAudienceAge, maxAudienceAge)
	}
	if t.AgeMin > t.AgeMax {
		return newValidationError(RuleAgeRange, "age_min",
			"age min %d is greater than age max %d", t.AgeMin, t.AgeMax)
	}
	return nil
}

// validateAdCopy checks the CTA. When requireCopy is set at least one
// headline and one primary text must be present.
func validateAdCopy(a models.AdCopy, requireCopy bool) *ValidationError {
	if !models.IsValidCTA(a.CallToAction) {
		return newValidationError(RuleCallToAction, "call_to_action",
			"invalid CTA %q, must be one of: %s", a.CallToAction, strings.Join(models.AllCTAs, ", "))
	}
	if requireCopy && (len(a.Headlines) == 0 || len(a.PrimaryTexts) == 0) {
		return newValidationError(RuleRequired, "ad_copy", "at least one headline and one primary text are required")
	}
	return nil
}

func copyTargeting(t models.Targeting) models.Targeting {
	out := t
	out.Interests = append([]string{}, t.Interests...)
	if t.Locality != nil {
		loc := *t.Locality
		if loc.RadiusKM != nil {
			r := *loc.RadiusKM
			loc.RadiusKM = &r
		}
		if loc.City != nil {
			c := *loc.City
			loc.City = &c
		}
		out.Locality = &loc
	}
	return out
}

func copyBudget(b models.Budget) models.Budget {
	out := b
	if b.Reasoning != nil {
		r := *b.Reasoning
		out.Reasoning = &r
	}
	return out
}

func copyAdCopy(a models.AdCopy) models.AdCopy {
	out := a
	out.Headlines = append([]string{}, a.Headlines...)
	out.PrimaryTexts = append([]string{}, a.PrimaryTexts...)
	out.Descriptions = append([]string{}, a.Descriptions...)
	if a.ImageURL != nil {
		u := *a.ImageURL
		out.ImageURL = &u
	}
	return out
}
