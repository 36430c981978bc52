package pipeline

import "github.com/adforge/backend/internal/models"

const maxCreativesPerType = 3

type SelectedCreatives struct {
	Headlines    []string
	PrimaryTexts []string
	Descriptions []string
}

// SelectCreatives picks up to three creatives per type. Creatives the user
// marked as selected win; if none of a type are marked, every creative of
// that type is eligible. Source order is kept.
func SelectCreatives(task *models.CompletedTask) SelectedCreatives {
	return SelectedCreatives{
		Headlines:    selectOfType(task.Creatives, models.CreativeTypeHeadline),
		PrimaryTexts: selectOfType(task.Creatives, models.CreativeTypePrimaryText),
		Descriptions: selectOfType(task.Creatives, models.CreativeTypeDescription),
	}
}

func selectOfType(creatives []models.GeneratedCreative, t models.CreativeType) []string {
	var selected, all []string
	for _, c := range creatives {
		if c.Type != t {
			continue
		}
		all = append(all, c.Content)
		if c.IsSelected {
			selected = append(selected, c.Content)
		}
	}

	out := selected
	if len(out) == 0 {
		out = all
	}
	if len(out) > maxCreativesPerType {
		out = out[:maxCreativesPerType]
	}
	if out == nil {
		return []string{}
	}
	return out
}
