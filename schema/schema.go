// Package schema describes the entity types and actions an authorization
// store is allowed to contain. A schema drives static policy validation and
// structural validation of entities and requests.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/tidwall/jsonc"

	"github.com/gavel-authz/gavel/types"
)

// ErrInvalidSchema is returned when a schema document cannot be decoded or
// its declarations cannot be resolved.
var ErrInvalidSchema = errors.New("invalid schema")

// Schema is a set of entity type and action declarations in resolved, typed
// form. All resolution (namespace qualification, common type aliases, flat
// format normalization) happens at Unmarshal time; afterwards a Schema is
// immutable and safe for concurrent use by multiple goroutines.
type Schema struct {
	mu          sync.RWMutex
	raw         map[string]*jsonNamespace // normalized document, kept for MarshalJSON
	entityTypes map[types.EntityType]*EntityTypeInfo
	actionTypes map[types.EntityUID]*ActionTypeInfo
}

// ParseJSON builds a Schema from a Cedar JSON schema document. The document
// may contain comments and trailing commas (JSONC); both the namespaced and
// the flat single-namespace layouts are accepted.
func ParseJSON(src []byte) (*Schema, error) {
	var s Schema
	if err := s.UnmarshalJSON(jsonc.ToJSON(src)); err != nil {
		return nil, err
	}
	return &s, nil
}

// UnmarshalJSON decodes and resolves a schema document, replacing any
// declarations the Schema already holds.
func (s *Schema) UnmarshalJSON(src []byte) error {
	namespaces, err := decodeNamespaces(src)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = namespaces
	s.entityTypes = make(map[types.EntityType]*EntityTypeInfo)
	s.actionTypes = make(map[types.EntityUID]*ActionTypeInfo)
	if err := s.resolveNamespaces(namespaces); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return nil
}

// MarshalJSON serializes the schema in the namespaced JSON layout.
func (s *Schema) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.raw == nil {
		return nil, nil
	}
	return json.Marshal(s.raw)
}

// EntityTypeInfo returns the declaration for an entity type.
func (s *Schema) EntityTypeInfo(t types.EntityType) (*EntityTypeInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.entityTypes[t]
	return info, ok
}

// ActionInfo returns the declaration for an action.
func (s *Schema) ActionInfo(uid types.EntityUID) (*ActionTypeInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.actionTypes[uid]
	return info, ok
}

// EntityTypes iterates over all declared entity types.
func (s *Schema) EntityTypes() iter.Seq2[types.EntityType, *EntityTypeInfo] {
	return func(yield func(types.EntityType, *EntityTypeInfo) bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for t, info := range s.entityTypes {
			if !yield(t, info) {
				return
			}
		}
	}
}

// Actions iterates over all declared actions.
func (s *Schema) Actions() iter.Seq2[types.EntityUID, *ActionTypeInfo] {
	return func(yield func(types.EntityUID, *ActionTypeInfo) bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for uid, info := range s.actionTypes {
			if !yield(uid, info) {
				return
			}
		}
	}
}

// RequestEnvs iterates over every valid principal-type / action /
// resource-type combination the schema declares.
func (s *Schema) RequestEnvs() iter.Seq[RequestEnv] {
	return func(yield func(RequestEnv) bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for uid, info := range s.actionTypes {
			for _, pt := range info.PrincipalTypes {
				for _, rt := range info.ResourceTypes {
					if !yield(RequestEnv{PrincipalType: pt, Action: uid, ResourceType: rt}) {
						return
					}
				}
			}
		}
	}
}
