package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/adforge/backend/internal/models"
	"github.com/adforge/backend/internal/sanitize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults applied when an import row or task recommendation leaves a field out.
const (
	DefaultDailyBudget      = 500.0
	DefaultCurrency         = "INR"
	DefaultAgeMin           = 25
	DefaultAgeMax           = 45
	DefaultRadiusKM         = 10
	DefaultObjective        = models.ObjectiveLeadGeneration
	DefaultConversionMethod = models.ConversionMethodLeadForm
	DefaultCallToAction     = models.CTASignUp

	minAudienceAge = 13
	maxAudienceAge = 65
)

// TaskTemplateInput is what the user supplies when saving a task as a template.
type TaskTemplateInput struct {
	Name        string
	Category    string
	Description string
	Visibility  string
}

// Materializer turns import rows and completed tasks into templates ready to
// be stored. It does not persist anything itself.
type Materializer struct {
	duplicates *DuplicateDetector
	log        *zap.Logger
}

func NewMaterializer(duplicates *DuplicateDetector, log *zap.Logger) *Materializer {
	return &Materializer{duplicates: duplicates, log: log}
}

// FromCSV sanitizes, validates, classifies and de-duplicates one import row.
func (m *Materializer) FromCSV(ctx context.Context, row CandidateRow, owner models.Ownership) (*models.Template, error) {
	row = row.Sanitized()
	if verr := Validate(row); verr != nil {
		return nil, verr
	}

	name := strings.TrimSpace(row.TemplateName)
	category := Classify(strings.Join([]string{name, row.PrimaryText, row.Industry}, " "))

	dup, err := m.duplicates.IsDuplicate(ctx, name, category)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if dup {
		return nil, &DuplicateError{Name: name, Category: category}
	}

	return buildFromRow(row, name, category, owner)
}

func buildFromRow(row CandidateRow, name string, category models.Category, owner models.Ownership) (*models.Template, error) {
	ageMin := parseAge(row.AgeMin, DefaultAgeMin)
	ageMax := parseAge(row.AgeMax, DefaultAgeMax)
	if ageMin > ageMax {
		return nil, newValidationError(RuleAgeRange, "AgeMin",
			"age min %d is greater than age max %d", ageMin, ageMax)
	}

	radius := parsePositiveInt(row.Radius, DefaultRadiusKM)
	targeting := models.Targeting{
		AgeMin:    ageMin,
		AgeMax:    ageMax,
		Interests: splitInterests(row.Interests),
		Locality: &models.Locality{
			IsLocal:  !strings.EqualFold(strings.TrimSpace(row.IsLocal), "false"),
			RadiusKM: &radius,
		},
	}

	budget := models.Budget{
		DailyAmount: parseDailyBudget(row.Budget),
		Currency:    normalizeCurrency(row.Currency),
		Reasoning:   optional(row.BudgetReasoning),
	}

	adCopy := models.AdCopy{
		Headlines:    withVariants(row.Headline, row.Headline2, row.Headline3),
		PrimaryTexts: withVariants(row.PrimaryText, row.PrimaryText2, row.PrimaryText3),
		Descriptions: withVariants(row.Description, row.Description2, row.Description3),
		CallToAction: NormalizeCTA(row.CTA),
		ImageURL:     optional(row.ImageURL),
	}

	description := strings.TrimSpace(row.Description)
	if description == "" {
		description = fmt.Sprintf("%s - %s", strings.TrimSpace(row.Industry), strings.TrimSpace(row.Goal))
	}

	return &models.Template{
		Ownership:        owner,
		Name:             name,
		Category:         category,
		Description:      &description,
		Objective:        orDefault(row.Objective, DefaultObjective),
		ConversionMethod: orDefault(row.ConversionMethod, DefaultConversionMethod),
		Targeting:        targeting,
		Budget:           budget,
		AdCopy:           adCopy,
	}, nil
}

// FromTask builds a template owned by requesterID from a completed task. The
// caller-curated name, category and description are used as given; no
// classification runs on this path.
func (m *Materializer) FromTask(task *models.CompletedTask, input TaskTemplateInput, requesterID uuid.UUID) (*models.Template, error) {
	if task.Status != models.TaskStatusCompleted {
		return nil, newValidationError(RuleTaskStatus, "status",
			"task %s is %s, only completed tasks can be saved as templates", task.ID, task.Status)
	}

	name := sanitize.String(input.Name)
	if name == "" {
		return nil, newValidationError(RuleName, "name", "template name is required")
	}

	category := models.CategoryGeneral
	if c := strings.TrimSpace(input.Category); c != "" {
		category = models.Category(strings.ToUpper(c))
		if !models.IsValidCategory(category) {
			return nil, newValidationError(RuleCategory, "category", "unknown category %q", input.Category)
		}
	}

	visibility := models.VisibilityPrivate
	if v := strings.TrimSpace(input.Visibility); v != "" {
		parsed, err := models.ParseVisibility(strings.ToUpper(v))
		if err != nil {
			return nil, newValidationError(RuleVisibility, "visibility", "%s", err.Error())
		}
		visibility = parsed
	}
	owner, err := models.UserOwnership(requesterID, visibility)
	if err != nil {
		return nil, &UnauthorizedError{Reason: err.Error()}
	}

	selected := SelectCreatives(task)
	rec := task.Recommendations

	cta := DefaultCallToAction
	if rec.CallToAction != nil && strings.TrimSpace(*rec.CallToAction) != "" {
		if normalized := NormalizeCTA(*rec.CallToAction); models.IsValidCTA(normalized) {
			cta = normalized
		} else {
			m.log.Warn("recommended CTA not supported, using default",
				zap.String("task_id", task.ID.String()),
				zap.String("cta", *rec.CallToAction),
			)
		}
	}

	tmpl := &models.Template{
		Ownership:        owner,
		Name:             name,
		Category:         category,
		Description:      optional(sanitize.String(input.Description)),
		Objective:        orDefault(deref(rec.Objective), DefaultObjective),
		ConversionMethod: orDefault(deref(rec.ConversionMethod), DefaultConversionMethod),
		Targeting:        m.targetingFromAudience(task.ID, rec.Audience),
		Budget:           budgetFromRecommendation(rec.Budget),
		AdCopy: models.AdCopy{
			Headlines:    sanitize.Strings(selected.Headlines),
			PrimaryTexts: sanitize.Strings(selected.PrimaryTexts),
			Descriptions: sanitize.Strings(selected.Descriptions),
			CallToAction: cta,
		},
	}
	return tmpl, nil
}

func (m *Materializer) targetingFromAudience(taskID uuid.UUID, a *models.AudienceRecommendation) models.Targeting {
	radius := DefaultRadiusKM
	t := models.Targeting{
		AgeMin:    DefaultAgeMin,
		AgeMax:    DefaultAgeMax,
		Interests: []string{},
		Locality:  &models.Locality{IsLocal: true, RadiusKM: &radius},
	}
	if a == nil {
		return t
	}

	if a.AgeMin != nil && validAge(*a.AgeMin) {
		t.AgeMin = *a.AgeMin
	}
	if a.AgeMax != nil && validAge(*a.AgeMax) {
		t.AgeMax = *a.AgeMax
	}
	if t.AgeMin > t.AgeMax {
		m.log.Warn("recommended age range inverted, using default",
			zap.String("task_id", taskID.String()),
			zap.Int("age_min", t.AgeMin),
			zap.Int("age_max", t.AgeMax),
		)
		t.AgeMin, t.AgeMax = DefaultAgeMin, DefaultAgeMax
	}

	t.Interests = sanitize.Strings(a.Interests)
	if a.IsLocal != nil {
		t.Locality.IsLocal = *a.IsLocal
	}
	if a.RadiusKM != nil && *a.RadiusKM > 0 {
		r := *a.RadiusKM
		t.Locality.RadiusKM = &r
	}
	return t
}

func budgetFromRecommendation(b *models.BudgetRecommendation) models.Budget {
	out := models.Budget{DailyAmount: DefaultDailyBudget, Currency: DefaultCurrency}
	if b == nil {
		return out
	}
	if b.DailyAmount != nil {
		if v := sanitize.Number(*b.DailyAmount, nil, nil); v != nil && *v > 0 {
			out.DailyAmount = *v
		}
	}
	if b.Currency != nil {
		out.Currency = normalizeCurrency(*b.Currency)
	}
	if b.Reasoning != nil {
		out.Reasoning = optional(sanitize.String(*b.Reasoning))
	}
	return out
}

// withVariants returns [primary, second, third] where an absent variant
// repeats the primary value. Empty entries are dropped.
func withVariants(primary, second, third string) []string {
	primary = strings.TrimSpace(primary)
	out := make([]string, 0, 3)
	for _, v := range []string{primary, second, third} {
		v = strings.TrimSpace(v)
		if v == "" {
			v = primary
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func splitInterests(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDailyBudget(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return DefaultDailyBudget
	}
	if n := sanitize.Number(v, nil, nil); n == nil || *n <= 0 {
		return DefaultDailyBudget
	}
	return v
}

func parseAge(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !validAge(v) {
		return fallback
	}
	return v
}

func validAge(v int) bool {
	lo, hi := float64(minAudienceAge), float64(maxAudienceAge)
	return sanitize.Number(float64(v), &lo, &hi) != nil
}

func parsePositiveInt(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func normalizeCurrency(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return DefaultCurrency
	}
	return s
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
