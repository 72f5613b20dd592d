package eval

import (
	"github.com/gavel-authz/gavel/internal/mapset"
	"github.com/gavel-authz/gavel/types"
)

// entityIn walks the parent graph breadth-first from entity, reporting
// whether any reachable ancestor satisfies query. The walk is reflexive:
// entity itself is tested first. A visited set makes cyclic graphs safe; the
// depth limit bounds work on adversarial hierarchies.
func entityIn(env Env, entity types.EntityUID, query func(types.EntityUID) bool) (bool, error) {
	if query(entity) {
		return true, nil
	}
	if env.Entities == nil {
		return false, nil
	}
	visited := mapset.Make[types.EntityUID]()
	visited.Add(entity)
	frontier := []types.EntityUID{entity}
	for depth := 0; len(frontier) > 0; depth++ {
		if env.Limits.MaxEntityGraphDepth > 0 && depth >= env.Limits.MaxEntityGraphDepth {
			return false, ErrEntityDepthExceeded
		}
		var next []types.EntityUID
		for _, uid := range frontier {
			ent, ok := env.Entities.Get(uid)
			if !ok {
				continue
			}
			for parent := range ent.Parents.All() {
				if !visited.Add(parent) {
					continue
				}
				if query(parent) {
					return true, nil
				}
				next = append(next, parent)
			}
		}
		frontier = next
	}
	return false, nil
}

// entityInOne reports whether entity is in parent. When the entity getter
// carries a precomputed ancestry cache the test is O(1).
func entityInOne(env Env, entity, parent types.EntityUID) (bool, error) {
	if entity == parent {
		return true, nil
	}
	if c, ok := env.Entities.(types.AncestryCacheGetter); ok {
		return c.GetAncestryCache().IsAncestor(entity, parent), nil
	}
	return entityIn(env, entity, func(uid types.EntityUID) bool { return uid == parent })
}

// entityInSet reports whether entity is in any member of parents.
func entityInSet(env Env, entity types.EntityUID, parents *mapset.MapSet[types.EntityUID]) (bool, error) {
	if parents.Contains(entity) {
		return true, nil
	}
	if c, ok := env.Entities.(types.AncestryCacheGetter); ok {
		cache := c.GetAncestryCache()
		for parent := range parents.All() {
			if cache.IsAncestor(entity, parent) {
				return true, nil
			}
		}
		return false, nil
	}
	return entityIn(env, entity, parents.Contains)
}
