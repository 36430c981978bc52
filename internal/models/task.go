package models

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses produced by the conversational flow.
const (
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusCompleted  = "COMPLETED"
	TaskStatusAbandoned  = "ABANDONED"
)

type CreativeType string

const (
	CreativeTypeHeadline    CreativeType = "HEADLINE"
	CreativeTypePrimaryText CreativeType = "PRIMARY_TEXT"
	CreativeTypeDescription CreativeType = "DESCRIPTION"
)

// CompletedTask is read-only input produced outside this service.
type CompletedTask struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	Status          string              `json:"status"`
	Recommendations Recommendations     `json:"recommendations"`
	Creatives       []GeneratedCreative `json:"creatives"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
}

type GeneratedCreative struct {
	ID         uuid.UUID    `json:"id"`
	Type       CreativeType `json:"type"`
	Content    string       `json:"content"`
	IsSelected bool         `json:"is_selected"`
}

// Recommendations mirrors the AI output; every field may be absent.
type Recommendations struct {
	Objective        *string                 `json:"objective,omitempty"`
	ConversionMethod *string                 `json:"conversion_method,omitempty"`
	Audience         *AudienceRecommendation `json:"audience,omitempty"`
	Budget           *BudgetRecommendation   `json:"budget,omitempty"`
	CallToAction     *string                 `json:"call_to_action,omitempty"`
}

type AudienceRecommendation struct {
	AgeMin    *int     `json:"age_min,omitempty"`
	AgeMax    *int     `json:"age_max,omitempty"`
	Interests []string `json:"interests,omitempty"`
	IsLocal   *bool    `json:"is_local,omitempty"`
	RadiusKM  *int     `json:"radius_km,omitempty"`
}

type BudgetRecommendation struct {
	DailyAmount *float64 `json:"daily_amount,omitempty"`
	Currency    *string  `json:"currency,omitempty"`
	Reasoning   *string  `json:"reasoning,omitempty"`
}
