package pipeline

import (
	"context"
	"strings"

	"github.com/adforge/backend/internal/models"
)

// TemplateFinder is the lookup the duplicate check needs from storage.
type TemplateFinder interface {
	FindByNameAndCategory(ctx context.Context, name string, category models.Category) ([]models.Template, error)
}

// DuplicateDetector matches on exact trimmed name and category only. Near
// duplicates ("Pizza Deal" vs "pizza deal") are allowed through.
//
// The check is not atomic with the following insert; the templates table
// carries a unique (name, category) index for the concurrent case.
type DuplicateDetector struct {
	finder TemplateFinder
}

func NewDuplicateDetector(finder TemplateFinder) *DuplicateDetector {
	return &DuplicateDetector{finder: finder}
}

func (d *DuplicateDetector) IsDuplicate(ctx context.Context, name string, category models.Category) (bool, error) {
	matches, err := d.finder.FindByNameAndCategory(ctx, strings.TrimSpace(name), category)
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}
