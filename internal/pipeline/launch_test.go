package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/adforge/backend/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func storedTemplate() *models.Template {
	return &models.Template{
		ID:               uuid.New(),
		Ownership:        models.SystemOwnership(),
		Name:             "Pizza Deal",
		Category:         models.CategoryRestaurant,
		Objective:        models.ObjectiveLeadGeneration,
		ConversionMethod: models.ConversionMethodLeadForm,
		Targeting: models.Targeting{
			AgeMin:    25,
			AgeMax:    45,
			Interests: []string{"pizza"},
			Locality:  &models.Locality{IsLocal: true, RadiusKM: intPtr(10)},
		},
		Budget: models.Budget{DailyAmount: 500, Currency: "INR", Reasoning: strPtr("Local reach")},
		AdCopy: models.AdCopy{
			Headlines:    []string{"Order Now"},
			PrimaryTexts: []string{"Hot pizza delivered fast"},
			Descriptions: []string{},
			CallToAction: models.CTASignUp,
		},
	}
}

func TestForLaunchWithoutOverrides(t *testing.T) {
	tmpl := storedTemplate()

	p, err := ForLaunch(tmpl, models.LaunchOverrides{})
	if err != nil {
		t.Fatalf("ForLaunch() error = %v", err)
	}

	want := &models.LaunchPayload{
		TemplateID:       tmpl.ID,
		Name:             tmpl.Name,
		Category:         tmpl.Category,
		Objective:        tmpl.Objective,
		ConversionMethod: tmpl.ConversionMethod,
		Targeting:        tmpl.Targeting,
		Budget:           tmpl.Budget,
		AdCopy:           tmpl.AdCopy,
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("ForLaunch() mismatch (-want +got):\n%s", diff)
	}
}

func TestForLaunchMergesFieldByField(t *testing.T) {
	tmpl := storedTemplate()

	p, err := ForLaunch(tmpl, models.LaunchOverrides{
		DailyAmount:  floatPtr(800),
		AgeMax:       intPtr(55),
		City:         strPtr("Pune"),
		CallToAction: strPtr("book now"),
		Headlines:    []string{"Two for one", " "},
	})
	if err != nil {
		t.Fatalf("ForLaunch() error = %v", err)
	}

	wantBudget := models.Budget{DailyAmount: 800, Currency: "INR", Reasoning: strPtr("Local reach")}
	if diff := cmp.Diff(wantBudget, p.Budget); diff != "" {
		t.Errorf("Budget mismatch (-want +got):\n%s", diff)
	}
	if p.Targeting.AgeMin != 25 || p.Targeting.AgeMax != 55 {
		t.Errorf("ages = %d-%d, want 25-55", p.Targeting.AgeMin, p.Targeting.AgeMax)
	}
	wantLocality := &models.Locality{IsLocal: true, RadiusKM: intPtr(10), City: strPtr("Pune")}
	if diff := cmp.Diff(wantLocality, p.Targeting.Locality); diff != "" {
		t.Errorf("Locality mismatch (-want +got):\n%s", diff)
	}
	if p.AdCopy.CallToAction != models.CTABookNow {
		t.Errorf("CallToAction = %s, want BOOK_NOW", p.AdCopy.CallToAction)
	}
	if diff := cmp.Diff([]string{"Two for one"}, p.AdCopy.Headlines); diff != "" {
		t.Errorf("Headlines mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(tmpl.AdCopy.PrimaryTexts, p.AdCopy.PrimaryTexts); diff != "" {
		t.Errorf("PrimaryTexts should be kept (-want +got):\n%s", diff)
	}
}

func TestForLaunchLeavesTemplateUntouched(t *testing.T) {
	tmpl := storedTemplate()
	before := storedTemplate()
	before.ID = tmpl.ID

	p, err := ForLaunch(tmpl, models.LaunchOverrides{
		RadiusKM:  intPtr(25),
		Interests: []string{"pasta"},
	})
	if err != nil {
		t.Fatalf("ForLaunch() error = %v", err)
	}
	p.AdCopy.Headlines[0] = "changed"
	*p.Budget.Reasoning = "changed"

	if diff := cmp.Diff(before, tmpl, cmp.AllowUnexported(models.Ownership{})); diff != "" {
		t.Errorf("template modified (-before +after):\n%s", diff)
	}
}

func TestForLaunchCreatesLocality(t *testing.T) {
	tmpl := storedTemplate()
	tmpl.Targeting.Locality = nil

	p, err := ForLaunch(tmpl, models.LaunchOverrides{City: strPtr("Goa")})
	if err != nil {
		t.Fatalf("ForLaunch() error = %v", err)
	}
	want := &models.Locality{IsLocal: true, City: strPtr("Goa")}
	if diff := cmp.Diff(want, p.Targeting.Locality); diff != "" {
		t.Errorf("Locality mismatch (-want +got):\n%s", diff)
	}
	if tmpl.Targeting.Locality != nil {
		t.Error("template locality should stay nil")
	}
}

func TestForLaunchRejects(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.Template)
		overrides models.LaunchOverrides
		wantRule  string
	}{
		{"zero budget", nil, models.LaunchOverrides{DailyAmount: floatPtr(0)}, RuleBudget},
		{"NaN budget", nil, models.LaunchOverrides{DailyAmount: floatPtr(math.NaN())}, RuleBudget},
		{"infinite budget", nil, models.LaunchOverrides{DailyAmount: floatPtr(math.Inf(1))}, RuleBudget},
		{"short currency", nil, models.LaunchOverrides{Currency: strPtr("US")}, RuleBudget},
		{"age below audience", nil, models.LaunchOverrides{AgeMin: intPtr(10)}, RuleAgeRange},
		{"age above audience", nil, models.LaunchOverrides{AgeMax: intPtr(70)}, RuleAgeRange},
		{"inverted ages", nil, models.LaunchOverrides{AgeMin: intPtr(50), AgeMax: intPtr(30)}, RuleAgeRange},
		{"zero radius", nil, models.LaunchOverrides{RadiusKM: intPtr(0)}, RuleTargeting},
		{"unknown cta", nil, models.LaunchOverrides{CallToAction: strPtr("buy it")}, RuleCallToAction},
		{"headlines cleared", nil, models.LaunchOverrides{Headlines: []string{}}, RuleRequired},
		{"primary texts blank", nil, models.LaunchOverrides{PrimaryTexts: []string{"  "}}, RuleRequired},
		{
			name:     "stored template without copy",
			mutate:   func(tm *models.Template) { tm.AdCopy.PrimaryTexts = nil },
			wantRule: RuleRequired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := storedTemplate()
			if tt.mutate != nil {
				tt.mutate(tmpl)
			}
			p, err := ForLaunch(tmpl, tt.overrides)
			if p != nil {
				t.Errorf("ForLaunch() payload = %+v, want nil", p)
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("ForLaunch() error = %v, want ValidationError", err)
			}
			if verr.Rule != tt.wantRule {
				t.Errorf("rule = %s, want %s", verr.Rule, tt.wantRule)
			}
		})
	}
}

func TestForLaunchSkipsCopyLengthChecks(t *testing.T) {
	tmpl := storedTemplate()
	tmpl.AdCopy.Headlines = []string{"This headline is deliberately longer than forty characters"}

	if _, err := ForLaunch(tmpl, models.LaunchOverrides{}); err != nil {
		t.Fatalf("ForLaunch() error = %v", err)
	}
}
