package types

import (
	"errors"
	"fmt"

	"github.com/gavel-authz/gavel/internal/mapset"
)

// ErrCyclicHierarchy is returned when ancestor resolution revisits an entity
// already on the current traversal path.
var ErrCyclicHierarchy = errors.New("cyclic entity hierarchy")

// AncestryCache stores precomputed transitive ancestors for each entity.
// Using this cache converts O(d) hierarchy traversals to O(1) set lookups,
// where d is the depth of the entity graph.
type AncestryCache struct {
	// ancestors maps each entity to all of its ancestors (transitive closure of parents)
	ancestors map[EntityUID]EntityUIDSet
}

// NewAncestryCache computes and returns an ancestry cache for the given
// entities. This performs a traversal of the entity graph to compute the
// transitive closure of the parent relationship for all entities. A cycle in
// the parent graph is an error.
func NewAncestryCache(entities EntityGetter, allUIDs func(yield func(EntityUID) bool)) (*AncestryCache, error) {
	cache := &AncestryCache{
		ancestors: make(map[EntityUID]EntityUIDSet),
	}

	visiting := mapset.Make[EntityUID]()
	for uid := range allUIDs {
		if _, err := cache.computeAncestors(entities, uid, visiting); err != nil {
			return nil, err
		}
	}
	return cache, nil
}

// computeAncestors computes all ancestors of a single entity using
// memoization. The visiting set tracks nodes currently on the traversal path
// so a back edge is reported as a cycle rather than recursed into forever.
func (c *AncestryCache) computeAncestors(entities EntityGetter, uid EntityUID, visiting *mapset.MapSet[EntityUID]) (EntityUIDSet, error) {
	if ancestors, ok := c.ancestors[uid]; ok {
		return ancestors, nil
	}

	if visiting.Contains(uid) {
		return EntityUIDSet{}, fmt.Errorf("%w: %s", ErrCyclicHierarchy, uid)
	}

	visiting.Add(uid)
	defer visiting.Remove(uid)

	entity, ok := entities.Get(uid)
	if !ok {
		// Entity doesn't exist, no ancestors
		c.ancestors[uid] = EntityUIDSet{}
		return c.ancestors[uid], nil
	}

	ancestorSet := mapset.Make[EntityUID]()
	for parent := range entity.Parents.All() {
		ancestorSet.Add(parent)
		parentAncestors, err := c.computeAncestors(entities, parent, visiting)
		if err != nil {
			return EntityUIDSet{}, err
		}
		for ancestor := range parentAncestors.All() {
			ancestorSet.Add(ancestor)
		}
	}

	ancestors := NewEntityUIDSet(ancestorSet.Slice()...)
	c.ancestors[uid] = ancestors
	return ancestors, nil
}

// GetAncestors returns the precomputed ancestors for the given entity.
// Returns an empty set if the entity is not in the cache.
func (c *AncestryCache) GetAncestors(uid EntityUID) EntityUIDSet {
	if ancestors, ok := c.ancestors[uid]; ok {
		return ancestors
	}
	return EntityUIDSet{}
}

// IsAncestor checks if 'ancestor' is an ancestor of 'entity'. An entity is
// its own ancestor, matching the reflexive semantics of the "in" operator.
// This is an O(1) operation using the precomputed cache.
func (c *AncestryCache) IsAncestor(entity, ancestor EntityUID) bool {
	if entity == ancestor {
		return true
	}
	ancestors := c.GetAncestors(entity)
	return ancestors.Contains(ancestor)
}

// CachedEntityGetter wraps an EntityGetter with an ancestry cache for faster
// "in" operator evaluation. Because the cache is precomputed, construction
// fails on a cyclic hierarchy instead of deferring the error to evaluation.
type CachedEntityGetter struct {
	Entities EntityGetter
	Cache    *AncestryCache
}

// NewCachedEntityGetter creates a CachedEntityGetter from an EntityMap.
// The ancestry cache is computed during construction.
func NewCachedEntityGetter(entities EntityMap) (*CachedEntityGetter, error) {
	cache, err := NewAncestryCache(entities, entities.UIDs())
	if err != nil {
		return nil, err
	}
	return &CachedEntityGetter{Entities: entities, Cache: cache}, nil
}

// Get retrieves an entity by UID, implementing the EntityGetter interface.
func (c *CachedEntityGetter) Get(uid EntityUID) (Entity, bool) {
	return c.Entities.Get(uid)
}

// GetAncestryCache returns the precomputed ancestry cache.
func (c *CachedEntityGetter) GetAncestryCache() *AncestryCache {
	return c.Cache
}

// AncestryCacheGetter is an interface for EntityGetters that have an ancestry cache.
type AncestryCacheGetter interface {
	EntityGetter
	GetAncestryCache() *AncestryCache
}

var _ AncestryCacheGetter = (*CachedEntityGetter)(nil)
