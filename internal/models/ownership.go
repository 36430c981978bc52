package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(s); v {
	case VisibilityPublic, VisibilityPrivate:
		return v, nil
	default:
		return "", fmt.Errorf("invalid visibility %q, must be PUBLIC or PRIVATE", s)
	}
}

// Ownership pairs a template owner with its visibility. The zero value is a
// public system-owned template; a private template always has an owner.
type Ownership struct {
	ownerID    *uuid.UUID
	visibility Visibility
}

func SystemOwnership() Ownership {
	return Ownership{visibility: VisibilityPublic}
}

func UserOwnership(ownerID uuid.UUID, visibility Visibility) (Ownership, error) {
	if ownerID == uuid.Nil {
		return Ownership{}, fmt.Errorf("owner id is required")
	}
	if _, err := ParseVisibility(string(visibility)); err != nil {
		return Ownership{}, err
	}
	id := ownerID
	return Ownership{ownerID: &id, visibility: visibility}, nil
}

// RestoreOwnership rebuilds ownership from stored columns.
func RestoreOwnership(ownerID *uuid.UUID, visibility Visibility) (Ownership, error) {
	if ownerID == nil {
		return SystemOwnership(), nil
	}
	return UserOwnership(*ownerID, visibility)
}

func (o Ownership) OwnerID() *uuid.UUID {
	if o.ownerID == nil {
		return nil
	}
	id := *o.ownerID
	return &id
}

func (o Ownership) Visibility() Visibility {
	if o.visibility == "" {
		return VisibilityPublic
	}
	return o.visibility
}

func (o Ownership) IsSystem() bool {
	return o.ownerID == nil
}

func (o Ownership) IsOwnedBy(userID uuid.UUID) bool {
	return o.ownerID != nil && *o.ownerID == userID
}

// WithVisibility returns a copy with the visibility changed. Setting the
// current value again is a no-op.
func (o Ownership) WithVisibility(v Visibility) (Ownership, error) {
	if o.ownerID == nil {
		if v == VisibilityPublic {
			return o, nil
		}
		return Ownership{}, fmt.Errorf("system templates are always public")
	}
	return UserOwnership(*o.ownerID, v)
}

type ownershipJSON struct {
	OwnerID    *uuid.UUID `json:"owner_id"`
	Visibility Visibility `json:"visibility"`
}

func (o Ownership) MarshalJSON() ([]byte, error) {
	return json.Marshal(ownershipJSON{OwnerID: o.ownerID, Visibility: o.Visibility()})
}

func (o *Ownership) UnmarshalJSON(data []byte) error {
	var raw ownershipJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Visibility == "" {
		raw.Visibility = VisibilityPrivate
	}
	restored, err := RestoreOwnership(raw.OwnerID, raw.Visibility)
	if err != nil {
		return err
	}
	*o = restored
	return nil
}
