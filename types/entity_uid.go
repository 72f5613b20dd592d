package types

import (
	"encoding/json"
	"strconv"
)

// An EntityType is the name of a kind of entity, e.g. User or PhotoApp::Album.
type EntityType string

// A PolicyID is a string identifier naming a policy within a PolicySet.
type PolicyID string

// An EntityUID is the unique identifier for an entity: a type name paired
// with an identifier. Both parts are opaque strings; equality is by both
// fields. EntityUIDs are value types and safe to use as map keys.
type EntityUID struct {
	Type EntityType
	ID   String
}

// NewEntityUID returns an EntityUID with the given type name and identifier.
func NewEntityUID(typ EntityType, id String) EntityUID {
	return EntityUID{Type: typ, ID: id}
}

// IsZero reports whether the UID has neither a type nor an identifier.
func (a EntityUID) IsZero() bool {
	return a == EntityUID{}
}

func (a EntityUID) Equal(bi Value) bool {
	b, ok := bi.(EntityUID)
	return ok && a == b
}

func (a EntityUID) String() string {
	return string(a.Type) + "::" + strconv.Quote(string(a.ID))
}

type entityUIDJSON struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// entityEscapeJSON is the explicit `{"__entity": {...}}` form that
// distinguishes an entity reference from a plain record in attribute and
// context documents.
type entityEscapeJSON struct {
	Entity *entityUIDJSON `json:"__entity"`
}

func (a EntityUID) MarshalJSON() ([]byte, error) {
	return json.Marshal(entityUIDJSON{
		Type: string(a.Type),
		ID:   string(a.ID),
	})
}

// UnmarshalJSON accepts either the plain `{"type": ..., "id": ...}` form or
// the escaped `{"__entity": {"type": ..., "id": ...}}` form.
func (a *EntityUID) UnmarshalJSON(b []byte) error {
	var escaped entityEscapeJSON
	if err := json.Unmarshal(b, &escaped); err == nil && escaped.Entity != nil {
		a.Type = EntityType(escaped.Entity.Type)
		a.ID = String(escaped.Entity.ID)
		return nil
	}
	var plain entityUIDJSON
	if err := json.Unmarshal(b, &plain); err != nil {
		return err
	}
	if plain.Type == "" {
		return errJSONEntityNotFound
	}
	a.Type = EntityType(plain.Type)
	a.ID = String(plain.ID)
	return nil
}
