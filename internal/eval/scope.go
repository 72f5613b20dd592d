package eval

import (
	"fmt"

	"github.com/gavel-authz/gavel/ast"
	"github.com/gavel-authz/gavel/internal/mapset"
	"github.com/gavel-authz/gavel/types"
)

// ScopeMatch reports whether an entity satisfies a scope constraint.
// Hierarchy constraints use the same reflexive "in" semantics as the in
// operator, so a traversal error (depth limit) propagates to the caller.
func ScopeMatch(env Env, ent types.EntityUID, scope ast.IsScopeNode) (bool, error) {
	switch t := scope.(type) {
	case ast.ScopeTypeAll:
		return true, nil
	case ast.ScopeTypeEq:
		return ent == t.Entity, nil
	case ast.ScopeTypeIn:
		return entityInOne(env, ent, t.Entity)
	case ast.ScopeTypeInSet:
		return entityInSet(env, ent, mapset.FromSlice(t.Entities))
	case ast.ScopeTypeIs:
		return ent.Type == t.Type, nil
	case ast.ScopeTypeIsIn:
		if ent.Type != t.Type {
			return false, nil
		}
		return entityInOne(env, ent, t.Entity)
	default:
		panic(fmt.Sprintf("unknown scope type %T", t))
	}
}
