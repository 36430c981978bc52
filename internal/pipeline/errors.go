package pipeline

import (
	"fmt"

	"github.com/adforge/backend/internal/models"
)

// Validation rules, reported in ValidationError.Rule.
const (
	RuleRequired       = "required"
	RulePrimaryTextLen = "primary_text_length"
	RuleHeadlineLen    = "headline_length"
	RuleCallToAction   = "call_to_action"
	RuleAgeRange       = "age_range"
	RuleBudget         = "budget"
	RuleCategory       = "category"
	RuleTaskStatus     = "task_status"
	RuleVisibility     = "visibility"
	RuleName           = "name"
	RuleTargeting      = "targeting"
	RuleFile           = "file"
	RuleImageURL       = "image_url"
)

// ValidationError means the input must be corrected by the caller.
type ValidationError struct {
	Rule    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(rule, field, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Field: field, Message: fmt.Sprintf(format, args...)}
}

// DuplicateError means a template with the same name and category exists.
type DuplicateError struct {
	Name     string
	Category models.Category
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("template %q already exists in category %s", e.Name, e.Category)
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return e.Reason
}
