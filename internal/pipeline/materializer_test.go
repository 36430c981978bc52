package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/adforge/backend/internal/models"
	"github.com/adforge/backend/internal/sanitize"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type fakeFinder struct {
	existing map[string]bool
	err      error
	calls    []string
}

func (f *fakeFinder) FindByNameAndCategory(_ context.Context, name string, category models.Category) ([]models.Template, error) {
	f.calls = append(f.calls, name+"|"+string(category))
	if f.err != nil {
		return nil, f.err
	}
	if f.existing[name+"|"+string(category)] {
		return []models.Template{{Name: name, Category: category}}, nil
	}
	return nil, nil
}

func newTestMaterializer(t *testing.T, finder *fakeFinder) *Materializer {
	return NewMaterializer(NewDuplicateDetector(finder), zaptest.NewLogger(t))
}

func intPtr(v int) *int           { return &v }
func strPtr(s string) *string     { return &s }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestFromCSVAppliesDefaults(t *testing.T) {
	m := newTestMaterializer(t, &fakeFinder{})

	tmpl, err := m.FromCSV(context.Background(), validRow(), models.SystemOwnership())
	if err != nil {
		t.Fatalf("FromCSV() error = %v", err)
	}

	if tmpl.Category != models.CategoryRestaurant {
		t.Errorf("Category = %s, want RESTAURANT", tmpl.Category)
	}
	if tmpl.Name != "Pizza Deal" {
		t.Errorf("Name = %q", tmpl.Name)
	}
	if !tmpl.Ownership.IsSystem() || tmpl.Ownership.Visibility() != models.VisibilityPublic {
		t.Errorf("Ownership = %+v, want public system", tmpl.Ownership)
	}
	if tmpl.Description == nil || *tmpl.Description != "Restaurant - Leads" {
		t.Errorf("Description = %v, want %q", tmpl.Description, "Restaurant - Leads")
	}
	if tmpl.Objective != models.ObjectiveLeadGeneration || tmpl.ConversionMethod != models.ConversionMethodLeadForm {
		t.Errorf("Objective/ConversionMethod = %s/%s", tmpl.Objective, tmpl.ConversionMethod)
	}

	wantTargeting := models.Targeting{
		AgeMin:    25,
		AgeMax:    45,
		Interests: []string{},
		Locality:  &models.Locality{IsLocal: true, RadiusKM: intPtr(10)},
	}
	if diff := cmp.Diff(wantTargeting, tmpl.Targeting); diff != "" {
		t.Errorf("Targeting mismatch (-want +got):\n%s", diff)
	}

	wantBudget := models.Budget{DailyAmount: 500, Currency: "INR"}
	if diff := cmp.Diff(wantBudget, tmpl.Budget); diff != "" {
		t.Errorf("Budget mismatch (-want +got):\n%s", diff)
	}

	wantCopy := models.AdCopy{
		Headlines:    []string{"Order Now", "Order Now", "Order Now"},
		PrimaryTexts: []string{"Hot pizza delivered fast", "Hot pizza delivered fast", "Hot pizza delivered fast"},
		Descriptions: []string{},
		CallToAction: "SIGN_UP",
	}
	if diff := cmp.Diff(wantCopy, tmpl.AdCopy); diff != "" {
		t.Errorf("AdCopy mismatch (-want +got):\n%s", diff)
	}
}

func TestFromCSVOptionalColumns(t *testing.T) {
	m := newTestMaterializer(t, &fakeFinder{})
	owner, _ := models.UserOwnership(uuid.New(), models.VisibilityPrivate)

	row := validRow()
	row.CTA = "shop now"
	row.Headline2 = "Second headline"
	row.PrimaryText3 = "Third text"
	row.Description = "Fresh from the oven"
	row.Budget = "750.5"
	row.Currency = "usd"
	row.BudgetReasoning = "Weekend push"
	row.AgeMin = "18"
	row.AgeMax = "30"
	row.Interests = " pizza , , fast food "
	row.IsLocal = "FALSE"
	row.Radius = "3"
	row.ImageURL = "https://cdn.example.com/pizza.png"
	row.Objective = models.ObjectiveSales
	row.ConversionMethod = models.ConversionMethodWebsite

	tmpl, err := m.FromCSV(context.Background(), row, owner)
	if err != nil {
		t.Fatalf("FromCSV() error = %v", err)
	}

	if tmpl.AdCopy.CallToAction != "SHOP_NOW" {
		t.Errorf("CallToAction = %q, want SHOP_NOW", tmpl.AdCopy.CallToAction)
	}
	if diff := cmp.Diff([]string{"Order Now", "Second headline", "Order Now"}, tmpl.AdCopy.Headlines); diff != "" {
		t.Errorf("Headlines mismatch (-want +got):\n%s", diff)
	}
	wantTexts := []string{"Hot pizza delivered fast", "Hot pizza delivered fast", "Third text"}
	if diff := cmp.Diff(wantTexts, tmpl.AdCopy.PrimaryTexts); diff != "" {
		t.Errorf("PrimaryTexts mismatch (-want +got):\n%s", diff)
	}
	wantDesc := []string{"Fresh from the oven", "Fresh from the oven", "Fresh from the oven"}
	if diff := cmp.Diff(wantDesc, tmpl.AdCopy.Descriptions); diff != "" {
		t.Errorf("Descriptions mismatch (-want +got):\n%s", diff)
	}
	if *tmpl.Description != "Fresh from the oven" {
		t.Errorf("Description = %q", *tmpl.Description)
	}

	wantBudget := models.Budget{DailyAmount: 750.5, Currency: "USD", Reasoning: strPtr("Weekend push")}
	if diff := cmp.Diff(wantBudget, tmpl.Budget); diff != "" {
		t.Errorf("Budget mismatch (-want +got):\n%s", diff)
	}

	wantTargeting := models.Targeting{
		AgeMin:    18,
		AgeMax:    30,
		Interests: []string{"pizza", "fast food"},
		Locality:  &models.Locality{IsLocal: false, RadiusKM: intPtr(3)},
	}
	if diff := cmp.Diff(wantTargeting, tmpl.Targeting); diff != "" {
		t.Errorf("Targeting mismatch (-want +got):\n%s", diff)
	}
	if tmpl.AdCopy.ImageURL == nil || *tmpl.AdCopy.ImageURL != row.ImageURL {
		t.Errorf("ImageURL = %v", tmpl.AdCopy.ImageURL)
	}
	if tmpl.Objective != models.ObjectiveSales || tmpl.ConversionMethod != models.ConversionMethodWebsite {
		t.Errorf("Objective/ConversionMethod = %s/%s", tmpl.Objective, tmpl.ConversionMethod)
	}
	if !tmpl.Ownership.IsOwnedBy(*owner.OwnerID()) {
		t.Error("template should keep the supplied owner")
	}
}

func TestFromCSVFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CandidateRow)
		check  func(*testing.T, *models.Template)
	}{
		{
			name:   "unparseable budget",
			mutate: func(r *CandidateRow) { r.Budget = "lots" },
			check: func(t *testing.T, tmpl *models.Template) {
				if tmpl.Budget.DailyAmount != DefaultDailyBudget {
					t.Errorf("DailyAmount = %v", tmpl.Budget.DailyAmount)
				}
			},
		},
		{
			name:   "negative budget",
			mutate: func(r *CandidateRow) { r.Budget = "-20" },
			check: func(t *testing.T, tmpl *models.Template) {
				if tmpl.Budget.DailyAmount != DefaultDailyBudget {
					t.Errorf("DailyAmount = %v", tmpl.Budget.DailyAmount)
				}
			},
		},
		{
			name:   "age outside audience range",
			mutate: func(r *CandidateRow) { r.AgeMin = "8"; r.AgeMax = "90" },
			check: func(t *testing.T, tmpl *models.Template) {
				if tmpl.Targeting.AgeMin != DefaultAgeMin || tmpl.Targeting.AgeMax != DefaultAgeMax {
					t.Errorf("ages = %d-%d", tmpl.Targeting.AgeMin, tmpl.Targeting.AgeMax)
				}
			},
		},
		{
			name:   "currency not three letters",
			mutate: func(r *CandidateRow) { r.Currency = "dollars" },
			check: func(t *testing.T, tmpl *models.Template) {
				if tmpl.Budget.Currency != DefaultCurrency {
					t.Errorf("Currency = %q", tmpl.Budget.Currency)
				}
			},
		},
		{
			name:   "is local only disabled by false",
			mutate: func(r *CandidateRow) { r.IsLocal = "no" },
			check: func(t *testing.T, tmpl *models.Template) {
				if !tmpl.Targeting.Locality.IsLocal {
					t.Error("IsLocal = false, want true")
				}
			},
		},
		{
			name:   "zero radius",
			mutate: func(r *CandidateRow) { r.Radius = "0" },
			check: func(t *testing.T, tmpl *models.Template) {
				if *tmpl.Targeting.Locality.RadiusKM != DefaultRadiusKM {
					t.Errorf("RadiusKM = %d", *tmpl.Targeting.Locality.RadiusKM)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(&row)
			tmpl, err := newTestMaterializer(t, &fakeFinder{}).FromCSV(context.Background(), row, models.SystemOwnership())
			if err != nil {
				t.Fatalf("FromCSV() error = %v", err)
			}
			tt.check(t, tmpl)
		})
	}
}

func TestFromCSVKeepsTypedText(t *testing.T) {
	row := validRow()
	row.Headline = "Don't miss our chef's special today!!!!!"
	row.Headline2 = "Don't miss our chef's special today!!"
	row.PrimaryText = "Buy 2<get 1 free pizza"
	row.ImageURL = "https://cdn.example.com/img.png?w=1&h=2"

	tmpl, err := newTestMaterializer(t, &fakeFinder{}).FromCSV(context.Background(), row, models.SystemOwnership())
	if err != nil {
		t.Fatalf("FromCSV() error = %v", err)
	}

	var lengths []int
	for _, h := range tmpl.AdCopy.Headlines {
		lengths = append(lengths, sanitize.Length(h))
	}
	if diff := cmp.Diff([]int{40, 37, 40}, lengths); diff != "" {
		t.Errorf("headline lengths mismatch (-want +got):\n%s", diff)
	}
	if got := tmpl.AdCopy.PrimaryTexts[0]; got != "Buy 2&lt;get 1 free pizza" {
		t.Errorf("PrimaryTexts[0] = %q", got)
	}
	if tmpl.AdCopy.ImageURL == nil || *tmpl.AdCopy.ImageURL != row.ImageURL {
		t.Errorf("ImageURL = %v, want %q", tmpl.AdCopy.ImageURL, row.ImageURL)
	}
}

func TestFromCSVRejects(t *testing.T) {
	t.Run("bad image url", func(t *testing.T) {
		finder := &fakeFinder{}
		row := validRow()
		row.ImageURL = "javascript:alert(1)"
		_, err := newTestMaterializer(t, finder).FromCSV(context.Background(), row, models.SystemOwnership())

		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Rule != RuleImageURL {
			t.Fatalf("FromCSV() error = %v, want image URL validation error", err)
		}
		if len(finder.calls) != 0 {
			t.Error("duplicate check should not run for invalid rows")
		}
	})


	t.Run("invalid row", func(t *testing.T) {
		finder := &fakeFinder{}
		row := validRow()
		row.CTA = "whatever"
		_, err := newTestMaterializer(t, finder).FromCSV(context.Background(), row, models.SystemOwnership())

		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Rule != RuleCallToAction {
			t.Fatalf("FromCSV() error = %v, want CTA validation error", err)
		}
		if len(finder.calls) != 0 {
			t.Error("duplicate check should not run for invalid rows")
		}
	})

	t.Run("inverted age range", func(t *testing.T) {
		row := validRow()
		row.AgeMin, row.AgeMax = "40", "20"
		_, err := newTestMaterializer(t, &fakeFinder{}).FromCSV(context.Background(), row, models.SystemOwnership())

		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Rule != RuleAgeRange {
			t.Fatalf("FromCSV() error = %v, want age range error", err)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		finder := &fakeFinder{existing: map[string]bool{"Pizza Deal|RESTAURANT": true}}
		row := validRow()
		row.TemplateName = "  Pizza Deal  "
		_, err := newTestMaterializer(t, finder).FromCSV(context.Background(), row, models.SystemOwnership())

		var derr *DuplicateError
		if !errors.As(err, &derr) {
			t.Fatalf("FromCSV() error = %v, want DuplicateError", err)
		}
		if derr.Name != "Pizza Deal" || derr.Category != models.CategoryRestaurant {
			t.Errorf("DuplicateError = %+v", derr)
		}
	})

	t.Run("case differs is not a duplicate", func(t *testing.T) {
		finder := &fakeFinder{existing: map[string]bool{"Pizza Deal|RESTAURANT": true}}
		row := validRow()
		row.TemplateName = "pizza deal"
		if _, err := newTestMaterializer(t, finder).FromCSV(context.Background(), row, models.SystemOwnership()); err != nil {
			t.Fatalf("FromCSV() error = %v", err)
		}
	})

	t.Run("lookup failure", func(t *testing.T) {
		boom := errors.New("connection reset")
		_, err := newTestMaterializer(t, &fakeFinder{err: boom}).FromCSV(context.Background(), validRow(), models.SystemOwnership())
		if !errors.Is(err, boom) {
			t.Fatalf("FromCSV() error = %v, want wrapped lookup error", err)
		}
	})
}

func completedTask(userID uuid.UUID) *models.CompletedTask {
	return &models.CompletedTask{
		ID:     uuid.New(),
		UserID: userID,
		Status: models.TaskStatusCompleted,
		Creatives: []models.GeneratedCreative{
			creative(models.CreativeTypeHeadline, "Get fit fast", true),
			creative(models.CreativeTypeHeadline, "Unused", false),
			creative(models.CreativeTypePrimaryText, "Join the best gym in town", false),
			creative(models.CreativeTypeDescription, "First week free", false),
		},
	}
}

func TestFromTaskDefaults(t *testing.T) {
	userID := uuid.New()
	task := completedTask(userID)

	tmpl, err := newTestMaterializer(t, &fakeFinder{}).FromTask(task, TaskTemplateInput{Name: "Gym launch"}, userID)
	if err != nil {
		t.Fatalf("FromTask() error = %v", err)
	}

	if tmpl.Category != models.CategoryGeneral {
		t.Errorf("Category = %s, want GENERAL", tmpl.Category)
	}
	if !tmpl.Ownership.IsOwnedBy(userID) || tmpl.Ownership.Visibility() != models.VisibilityPrivate {
		t.Errorf("Ownership = %+v, want private owned by requester", tmpl.Ownership)
	}
	if tmpl.Description != nil {
		t.Errorf("Description = %q, want nil", *tmpl.Description)
	}

	want := models.AdCopy{
		Headlines:    []string{"Get fit fast"},
		PrimaryTexts: []string{"Join the best gym in town"},
		Descriptions: []string{"First week free"},
		CallToAction: DefaultCallToAction,
	}
	if diff := cmp.Diff(want, tmpl.AdCopy); diff != "" {
		t.Errorf("AdCopy mismatch (-want +got):\n%s", diff)
	}
	if tmpl.Budget.DailyAmount != DefaultDailyBudget || tmpl.Budget.Currency != DefaultCurrency {
		t.Errorf("Budget = %+v", tmpl.Budget)
	}
	if tmpl.Targeting.AgeMin != DefaultAgeMin || tmpl.Targeting.AgeMax != DefaultAgeMax {
		t.Errorf("ages = %d-%d", tmpl.Targeting.AgeMin, tmpl.Targeting.AgeMax)
	}
}

func TestFromTaskUsesRecommendations(t *testing.T) {
	userID := uuid.New()
	task := completedTask(userID)
	task.Recommendations = models.Recommendations{
		Objective:        strPtr(models.ObjectiveTraffic),
		ConversionMethod: strPtr(models.ConversionMethodWebsite),
		CallToAction:     strPtr("learn more"),
		Audience: &models.AudienceRecommendation{
			AgeMin:    intPtr(18),
			AgeMax:    intPtr(35),
			Interests: []string{"fitness", " ", "<b>gym</b>"},
			IsLocal:   boolPtr(false),
			RadiusKM:  intPtr(5),
		},
		Budget: &models.BudgetRecommendation{
			DailyAmount: floatPtr(1200),
			Currency:    strPtr("usd"),
			Reasoning:   strPtr("Competitive market"),
		},
	}

	input := TaskTemplateInput{Name: "Gym launch", Category: "fitness", Description: "From chat", Visibility: "public"}
	tmpl, err := newTestMaterializer(t, &fakeFinder{}).FromTask(task, input, userID)
	if err != nil {
		t.Fatalf("FromTask() error = %v", err)
	}

	if tmpl.Category != models.CategoryFitness {
		t.Errorf("Category = %s", tmpl.Category)
	}
	if tmpl.Ownership.Visibility() != models.VisibilityPublic {
		t.Errorf("Visibility = %s", tmpl.Ownership.Visibility())
	}
	if tmpl.Objective != models.ObjectiveTraffic || tmpl.ConversionMethod != models.ConversionMethodWebsite {
		t.Errorf("Objective/ConversionMethod = %s/%s", tmpl.Objective, tmpl.ConversionMethod)
	}
	if tmpl.AdCopy.CallToAction != models.CTALearnMore {
		t.Errorf("CallToAction = %s", tmpl.AdCopy.CallToAction)
	}

	wantTargeting := models.Targeting{
		AgeMin:    18,
		AgeMax:    35,
		Interests: []string{"fitness", "gym"},
		Locality:  &models.Locality{IsLocal: false, RadiusKM: intPtr(5)},
	}
	if diff := cmp.Diff(wantTargeting, tmpl.Targeting); diff != "" {
		t.Errorf("Targeting mismatch (-want +got):\n%s", diff)
	}
	wantBudget := models.Budget{DailyAmount: 1200, Currency: "USD", Reasoning: strPtr("Competitive market")}
	if diff := cmp.Diff(wantBudget, tmpl.Budget); diff != "" {
		t.Errorf("Budget mismatch (-want +got):\n%s", diff)
	}
}

func TestFromTaskRecoversFromBadRecommendations(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := NewMaterializer(NewDuplicateDetector(&fakeFinder{}), zap.New(core))

	userID := uuid.New()
	task := completedTask(userID)
	task.Recommendations = models.Recommendations{
		CallToAction: strPtr("PURCHASE"),
		Audience:     &models.AudienceRecommendation{AgeMin: intPtr(50), AgeMax: intPtr(30), RadiusKM: intPtr(-1)},
		Budget:       &models.BudgetRecommendation{DailyAmount: floatPtr(-5)},
	}

	tmpl, err := m.FromTask(task, TaskTemplateInput{Name: "Gym"}, userID)
	if err != nil {
		t.Fatalf("FromTask() error = %v", err)
	}
	if tmpl.AdCopy.CallToAction != DefaultCallToAction {
		t.Errorf("CallToAction = %s, want default", tmpl.AdCopy.CallToAction)
	}
	if tmpl.Targeting.AgeMin != DefaultAgeMin || tmpl.Targeting.AgeMax != DefaultAgeMax {
		t.Errorf("ages = %d-%d, want defaults", tmpl.Targeting.AgeMin, tmpl.Targeting.AgeMax)
	}
	if *tmpl.Targeting.Locality.RadiusKM != DefaultRadiusKM {
		t.Errorf("RadiusKM = %d", *tmpl.Targeting.Locality.RadiusKM)
	}
	if tmpl.Budget.DailyAmount != DefaultDailyBudget {
		t.Errorf("DailyAmount = %v", tmpl.Budget.DailyAmount)
	}
	if logs.Len() != 2 {
		t.Errorf("expected 2 warnings, got %d: %v", logs.Len(), logs.All())
	}
}

func TestFromTaskRejects(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		mutate   func(*models.CompletedTask)
		input    TaskTemplateInput
		wantRule string
	}{
		{"in progress", func(tk *models.CompletedTask) { tk.Status = models.TaskStatusInProgress }, TaskTemplateInput{Name: "x"}, RuleTaskStatus},
		{"abandoned", func(tk *models.CompletedTask) { tk.Status = models.TaskStatusAbandoned }, TaskTemplateInput{Name: "x"}, RuleTaskStatus},
		{"blank name", func(*models.CompletedTask) {}, TaskTemplateInput{Name: "  "}, RuleName},
		{"markup only name", func(*models.CompletedTask) {}, TaskTemplateInput{Name: "<br>"}, RuleName},
		{"unknown category", func(*models.CompletedTask) {}, TaskTemplateInput{Name: "x", Category: "pets"}, RuleCategory},
		{"bad visibility", func(*models.CompletedTask) {}, TaskTemplateInput{Name: "x", Visibility: "hidden"}, RuleVisibility},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := completedTask(userID)
			tt.mutate(task)
			_, err := newTestMaterializer(t, &fakeFinder{}).FromTask(task, tt.input, userID)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("FromTask() error = %v, want ValidationError", err)
			}
			if verr.Rule != tt.wantRule {
				t.Errorf("rule = %s, want %s", verr.Rule, tt.wantRule)
			}
		})
	}
}

func TestWithVariants(t *testing.T) {
	tests := []struct {
		name                   string
		primary, second, third string
		want                   []string
	}{
		{"all present", "a", "b", "c", []string{"a", "b", "c"}},
		{"missing variants repeat primary", "a", "", " ", []string{"a", "a", "a"}},
		{"no primary keeps variants", "", "b", "", []string{"b"}},
		{"nothing", "", "", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := withVariants(tt.primary, tt.second, tt.third)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("withVariants() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
