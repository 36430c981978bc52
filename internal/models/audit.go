package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActorUser   = "user"
	ActorSystem = "system"
)

const (
	AuditTemplateImported  = "template_imported"
	AuditTemplateFromTask  = "template_created_from_task"
	AuditTemplateUpdated   = "template_updated"
	AuditTemplateDeleted   = "template_deleted"
	AuditVisibilityChanged = "template_visibility_changed"
	AuditTemplateLaunched  = "template_launched"
	AuditEntityTemplate    = "template"
)

type AuditLog struct {
	ID          uuid.UUID  `json:"id"`
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
	ActorType   string     `json:"actor_type"`
	Action      string     `json:"action"`
	EntityType  string     `json:"entity_type"`
	EntityID    *uuid.UUID `json:"entity_id,omitempty"`
	Meta        any        `json:"meta,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TemplateAudit builds an entry for an action on template id. A nil actor
// records a system action.
func TemplateAudit(actor *uuid.UUID, action string, id uuid.UUID, meta map[string]any) AuditLog {
	actorType := ActorUser
	if actor == nil {
		actorType = ActorSystem
	}
	return AuditLog{
		ActorUserID: actor,
		ActorType:   actorType,
		Action:      action,
		EntityType:  AuditEntityTemplate,
		EntityID:    &id,
		Meta:        meta,
	}
}
