package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/adforge/backend/internal/models"
)

type keywordGroup struct {
	category models.Category
	keywords []string
	// words only match as whole words, so "spa" does not fire on "space".
	// A plural "s" or "es" suffix still matches.
	words []string
}

// categoryGroups is evaluated top to bottom and the first hit wins. Some
// keywords appear in more than one group ("training" is both fitness and
// education); the earlier group takes them.
var categoryGroups = []keywordGroup{
	{
		category: models.CategoryRestaurant,
		keywords: []string{"restaurant", "food", "pizza", "cafe", "bakery", "catering", "burger", "dining", "kitchen", "meal", "biryani"},
	},
	{
		category: models.CategoryFitness,
		keywords: []string{"gym", "fitness", "yoga", "workout", "training", "crossfit", "pilates", "personal trainer", "zumba"},
	},
	{
		category: models.CategoryBeauty,
		keywords: []string{"salon", "beauty", "makeup", "haircut", "hairstyl", "skincare", "cosmetic", "parlour", "parlor", "manicure"},
		words:    []string{"spa", "hair", "nail"},
	},
	{
		category: models.CategoryRealEstate,
		keywords: []string{"real estate", "property", "apartment", "realtor", "villa", "housing", "condo", "bhk"},
	},
	{
		category: models.CategoryEcommerce,
		keywords: []string{"ecommerce", "e-commerce", "online store", "shopping", "product", "retail", "boutique"},
		words:    []string{"shop", "store"},
	},
	{
		category: models.CategoryAgency,
		keywords: []string{"agency", "marketing", "digital marketing", "branding", "advertising", "social media"},
		words:    []string{"seo"},
	},
	{
		category: models.CategoryHomeServices,
		keywords: []string{"plumbing", "plumber", "electrician", "repair", "cleaning", "pest control", "renovation", "carpenter", "painting", "hvac"},
	},
	{
		category: models.CategoryHealthcare,
		keywords: []string{"clinic", "doctor", "dental", "dentist", "hospital", "health", "medical", "physiotherapy", "pharmacy"},
	},
	{
		category: models.CategoryEducation,
		keywords: []string{"course", "coaching", "tuition", "school", "education", "academy", "training", "learn", "tutor"},
		words:    []string{"class"},
	},
	{
		category: models.CategoryAutomotive,
		keywords: []string{"car wash", "car service", "cars", "automobile", "automotive", "vehicle", "bike", "garage", "dealership", "motor", "tyre"},
	},
	{
		category: models.CategoryTravel,
		keywords: []string{"travel", "hotel", "tour", "resort", "holiday", "vacation", "booking", "trip", "homestay"},
	},
}

// Classify maps free text to a category. Text is typically the template name,
// primary text and industry hint joined together.
func Classify(text string) models.Category {
	lower := strings.ToLower(text)
	for _, g := range categoryGroups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g.category
			}
		}
		for _, w := range g.words {
			if containsWord(lower, w) {
				return g.category
			}
		}
	}
	return models.CategoryGeneral
}

func containsWord(text, word string) bool {
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], word)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(word)
		if !letterBefore(text, start) {
			for _, suffix := range []string{"", "s", "es"} {
				if strings.HasPrefix(text[end:], suffix) && !letterAt(text, end+len(suffix)) {
					return true
				}
			}
		}
		i = start + 1
	}
	return false
}

func letterBefore(text string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsLetter(r)
}

func letterAt(text string, i int) bool {
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsLetter(r)
}
