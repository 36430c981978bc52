package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/adforge/backend/internal/models"
)

// Targeting, budget and ad copy live in JSONB columns. These helpers are the
// only place their encoded form exists; everything above the repository
// works with the structs.

type encodedTemplateFields struct {
	Targeting string
	Budget    string
	AdCopy    string
}

func encodeTemplateFields(targeting models.Targeting, budget models.Budget, adCopy models.AdCopy) (encodedTemplateFields, error) {
	var enc encodedTemplateFields

	t, err := json.Marshal(targeting)
	if err != nil {
		return enc, fmt.Errorf("encode targeting: %w", err)
	}
	b, err := json.Marshal(budget)
	if err != nil {
		return enc, fmt.Errorf("encode budget: %w", err)
	}
	a, err := json.Marshal(adCopy)
	if err != nil {
		return enc, fmt.Errorf("encode ad copy: %w", err)
	}

	enc.Targeting, enc.Budget, enc.AdCopy = string(t), string(b), string(a)
	return enc, nil
}

func decodeTemplateFields(tmpl *models.Template, targeting, budget, adCopy []byte) error {
	if err := json.Unmarshal(targeting, &tmpl.Targeting); err != nil {
		return fmt.Errorf("decode targeting: %w", err)
	}
	if err := json.Unmarshal(budget, &tmpl.Budget); err != nil {
		return fmt.Errorf("decode budget: %w", err)
	}
	if err := json.Unmarshal(adCopy, &tmpl.AdCopy); err != nil {
		return fmt.Errorf("decode ad copy: %w", err)
	}

	if tmpl.Targeting.Interests == nil {
		tmpl.Targeting.Interests = []string{}
	}
	if tmpl.AdCopy.Headlines == nil {
		tmpl.AdCopy.Headlines = []string{}
	}
	if tmpl.AdCopy.PrimaryTexts == nil {
		tmpl.AdCopy.PrimaryTexts = []string{}
	}
	if tmpl.AdCopy.Descriptions == nil {
		tmpl.AdCopy.Descriptions = []string{}
	}
	return nil
}
