package gavel

import (
	"fmt"

	"github.com/gavel-authz/gavel/internal/mapset"
	"github.com/gavel-authz/gavel/schema"
	"github.com/gavel-authz/gavel/types"
	"github.com/gavel-authz/gavel/validator"
)

// Entities is the read-only entity store a request batch is evaluated
// against.
type Entities = types.EntityMap

// NewEntities builds an entity store from the given entities, optionally
// validating each against a schema. Two entities sharing a UID is an error,
// as is any schema mismatch; the error names the offending UID. Hierarchy
// cycles are not checked here, they surface from ancestor resolution.
func NewEntities(entities []types.Entity, s *schema.Schema) (Entities, error) {
	em := make(types.EntityMap, len(entities))
	for _, e := range entities {
		if _, exists := em[e.UID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, e.UID)
		}
		em[e.UID] = e
	}
	if s != nil {
		result := validator.ValidateEntities(s, em)
		if !result.Valid {
			first := result.Errors[0]
			return nil, fmt.Errorf("%w: %s: %s", ErrEntitySchemaMismatch, first.EntityUID, first.Message)
		}
	}
	return em, nil
}

// IsAncestor reports whether candidate is reachable from of by following
// parents edges zero or more times. An entity is its own ancestor, matching
// the reflexive semantics of the "in" operator. Entities absent from the
// store have no parents. A traversal that revisits an entity already on the
// current path fails with types.ErrCyclicHierarchy.
func IsAncestor(entities types.EntityGetter, candidate, of types.EntityUID) (bool, error) {
	if candidate == of {
		return true, nil
	}
	if entities == nil {
		return false, nil
	}
	path := mapset.Make[types.EntityUID]()
	done := mapset.Make[types.EntityUID]()
	var walk func(uid types.EntityUID) (bool, error)
	walk = func(uid types.EntityUID) (bool, error) {
		if uid == candidate {
			return true, nil
		}
		if path.Contains(uid) {
			return false, fmt.Errorf("%w: %s", types.ErrCyclicHierarchy, uid)
		}
		if done.Contains(uid) {
			return false, nil
		}
		ent, ok := entities.Get(uid)
		if !ok {
			done.Add(uid)
			return false, nil
		}
		path.Add(uid)
		defer path.Remove(uid)
		for parent := range ent.Parents.All() {
			if found, err := walk(parent); found || err != nil {
				return found, err
			}
		}
		done.Add(uid)
		return false, nil
	}
	return walk(of)
}
