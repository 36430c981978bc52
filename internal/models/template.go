package models

import (
	"time"

	"github.com/google/uuid"
)

// Categories
const (
	CategoryRestaurant   Category = "RESTAURANT"
	CategoryFitness      Category = "FITNESS"
	CategoryBeauty       Category = "BEAUTY"
	CategoryRealEstate   Category = "REAL_ESTATE"
	CategoryEcommerce    Category = "ECOMMERCE"
	CategoryAgency       Category = "AGENCY"
	CategoryHomeServices Category = "HOME_SERVICES"
	CategoryHealthcare   Category = "HEALTHCARE"
	CategoryEducation    Category = "EDUCATION"
	CategoryAutomotive   Category = "AUTOMOTIVE"
	CategoryTravel       Category = "TRAVEL"
	CategoryGeneral      Category = "GENERAL"
)

type Category string

var AllCategories = []Category{
	CategoryRestaurant, CategoryFitness, CategoryBeauty, CategoryRealEstate,
	CategoryEcommerce, CategoryAgency, CategoryHomeServices, CategoryHealthcare,
	CategoryEducation, CategoryAutomotive, CategoryTravel, CategoryGeneral,
}

func IsValidCategory(c Category) bool {
	for _, known := range AllCategories {
		if known == c {
			return true
		}
	}
	return false
}

// Call-to-action values accepted by the ad platform.
const (
	CTASignUp     = "SIGN_UP"
	CTALearnMore  = "LEARN_MORE"
	CTAShopNow    = "SHOP_NOW"
	CTAContactUs  = "CONTACT_US"
	CTAApplyNow   = "APPLY_NOW"
	CTAGetStarted = "GET_STARTED"
	CTABookNow    = "BOOK_NOW"
	CTACallNow    = "CALL_NOW"
	CTADownload   = "DOWNLOAD"
	CTAGetQuote   = "GET_QUOTE"
)

var AllCTAs = []string{
	CTASignUp, CTALearnMore, CTAShopNow, CTAContactUs, CTAApplyNow,
	CTAGetStarted, CTABookNow, CTACallNow, CTADownload, CTAGetQuote,
}

func IsValidCTA(cta string) bool {
	for _, known := range AllCTAs {
		if known == cta {
			return true
		}
	}
	return false
}

const (
	ObjectiveLeadGeneration = "LEAD_GENERATION"
	ObjectiveSales          = "SALES"
	ObjectiveTraffic        = "TRAFFIC"
	ObjectiveAwareness      = "AWARENESS"

	ConversionMethodLeadForm = "LEAD_FORM"
	ConversionMethodWebsite  = "WEBSITE"
)

type Template struct {
	ID               uuid.UUID `json:"id"`
	Ownership        Ownership `json:"ownership"`
	Name             string    `json:"name"`
	Category         Category  `json:"category"`
	Description      *string   `json:"description,omitempty"`
	Objective        string    `json:"objective"`
	ConversionMethod string    `json:"conversion_method"`
	Targeting        Targeting `json:"targeting"`
	Budget           Budget    `json:"budget"`
	AdCopy           AdCopy    `json:"ad_copy"`
	UsageCount       int64     `json:"usage_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CanMutate reports whether userID may update, toggle or delete the template.
// System templates have no owner and are never mutable through tenant calls.
func (t *Template) CanMutate(userID uuid.UUID) bool {
	return t.Ownership.IsOwnedBy(userID)
}

// CanRead reports whether userID may see the template.
func (t *Template) CanRead(userID uuid.UUID) bool {
	return t.Ownership.Visibility() == VisibilityPublic || t.Ownership.IsOwnedBy(userID)
}

type Targeting struct {
	AgeMin    int       `json:"age_min"`
	AgeMax    int       `json:"age_max"`
	Interests []string  `json:"interests"`
	Locality  *Locality `json:"locality,omitempty"`
}

type Locality struct {
	IsLocal  bool    `json:"is_local"`
	RadiusKM *int    `json:"radius_km,omitempty"`
	City     *string `json:"city,omitempty"`
}

type Budget struct {
	DailyAmount float64 `json:"daily_amount"`
	Currency    string  `json:"currency"`
	Reasoning   *string `json:"reasoning,omitempty"`
}

type AdCopy struct {
	Headlines    []string `json:"headlines"`
	PrimaryTexts []string `json:"primary_texts"`
	Descriptions []string `json:"descriptions"`
	CallToAction string   `json:"call_to_action"`
	ImageURL     *string  `json:"image_url,omitempty"`
}

// TemplatePatch carries owner edits; nil fields are left untouched.
type TemplatePatch struct {
	Name             *string     `json:"name,omitempty"`
	Category         *Category   `json:"category,omitempty"`
	Description      *string     `json:"description,omitempty"`
	Objective        *string     `json:"objective,omitempty"`
	ConversionMethod *string     `json:"conversion_method,omitempty"`
	Targeting        *Targeting  `json:"targeting,omitempty"`
	Budget           *Budget     `json:"budget,omitempty"`
	AdCopy           *AdCopy     `json:"ad_copy,omitempty"`
	Visibility       *Visibility `json:"visibility,omitempty"`
}

func (p TemplatePatch) IsEmpty() bool {
	return p.Name == nil && p.Category == nil && p.Description == nil &&
		p.Objective == nil && p.ConversionMethod == nil && p.Targeting == nil &&
		p.Budget == nil && p.AdCopy == nil && p.Visibility == nil
}

// LaunchPayload is the campaign definition handed to the ad-platform publisher.
type LaunchPayload struct {
	TemplateID       uuid.UUID `json:"template_id"`
	Name             string    `json:"name"`
	Category         Category  `json:"category"`
	Objective        string    `json:"objective"`
	ConversionMethod string    `json:"conversion_method"`
	Targeting        Targeting `json:"targeting"`
	Budget           Budget    `json:"budget"`
	AdCopy           AdCopy    `json:"ad_copy"`
}

// LaunchOverrides are merged onto a stored template field by field.
type LaunchOverrides struct {
	DailyAmount      *float64 `json:"daily_amount,omitempty"`
	Currency         *string  `json:"currency,omitempty"`
	BudgetReasoning  *string  `json:"budget_reasoning,omitempty"`
	AgeMin           *int     `json:"age_min,omitempty"`
	AgeMax           *int     `json:"age_max,omitempty"`
	Interests        []string `json:"interests,omitempty"`
	IsLocal          *bool    `json:"is_local,omitempty"`
	RadiusKM         *int     `json:"radius_km,omitempty"`
	City             *string  `json:"city,omitempty"`
	Objective        *string  `json:"objective,omitempty"`
	ConversionMethod *string  `json:"conversion_method,omitempty"`
	CallToAction     *string  `json:"call_to_action,omitempty"`
	Headlines        []string `json:"headlines,omitempty"`
	PrimaryTexts     []string `json:"primary_texts,omitempty"`
	Descriptions     []string `json:"descriptions,omitempty"`
}
