package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// StreamTemplates is the pub/sub channel template lifecycle events go to.
const StreamTemplates = "templates"

// Event types
const (
	EventTemplateCreated  = "template_created"
	EventTemplateUpdated  = "template_updated"
	EventTemplateDeleted  = "template_deleted"
	EventTemplateLaunched = "template_launched"
	EventImportFinished   = "import_finished"
)

type Event struct {
	Type    string         `json:"type"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }

// encode stamps events that carry no time with now.
func encode(e Event, now time.Time) ([]byte, error) {
	if e.At.IsZero() {
		e.At = now.UTC()
	}
	if e.Payload == nil {
		e.Payload = map[string]any{}
	}
	return json.Marshal(e)
}

func decode(payload string) (Event, error) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return e, fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" {
		return e, fmt.Errorf("decode event: missing type")
	}
	return e, nil
}
