package dto

import (
	"strings"

	"github.com/adforge/backend/internal/models"
)

type CreateFromTaskRequest struct {
	TaskID      string `json:"task_id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
}

type UpdateTemplateRequest struct {
	Name             *string           `json:"name,omitempty"`
	Category         *string           `json:"category,omitempty"`
	Description      *string           `json:"description,omitempty"`
	Objective        *string           `json:"objective,omitempty"`
	ConversionMethod *string           `json:"conversion_method,omitempty"`
	Targeting        *models.Targeting `json:"targeting,omitempty"`
	Budget           *models.Budget    `json:"budget,omitempty"`
	AdCopy           *models.AdCopy    `json:"ad_copy,omitempty"`
	Visibility       *string           `json:"visibility,omitempty"`
}

func (r UpdateTemplateRequest) ToPatch() models.TemplatePatch {
	p := models.TemplatePatch{
		Name:             r.Name,
		Description:      r.Description,
		Objective:        r.Objective,
		ConversionMethod: r.ConversionMethod,
		Targeting:        r.Targeting,
		Budget:           r.Budget,
		AdCopy:           r.AdCopy,
	}
	if r.Category != nil {
		c := models.Category(strings.TrimSpace(*r.Category))
		p.Category = &c
	}
	if r.Visibility != nil {
		v := models.Visibility(strings.TrimSpace(*r.Visibility))
		p.Visibility = &v
	}
	return p
}

type SetVisibilityRequest struct {
	Visibility string `json:"visibility"`
}
