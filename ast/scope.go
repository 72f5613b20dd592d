package ast

import "github.com/gavel-authz/gavel/types"

// The scope node kinds form a closed set: unconstrained, equals,
// in-hierarchy, in-set (actions only), is-type, is-type-in-hierarchy, and
// template slots. Evaluation dispatches over them with an exhaustive switch.

// IsScopeNode is implemented by every scope constraint kind.
type IsScopeNode interface {
	isScope()
}

// IsPrincipalScopeNode is implemented by scope kinds valid in principal
// position.
type IsPrincipalScopeNode interface {
	IsScopeNode
	isPrincipalScope()
}

// IsActionScopeNode is implemented by scope kinds valid in action position.
type IsActionScopeNode interface {
	IsScopeNode
	isActionScope()
}

// IsResourceScopeNode is implemented by scope kinds valid in resource
// position.
type IsResourceScopeNode interface {
	IsScopeNode
	isResourceScope()
}

type ScopeNode struct{}

func (ScopeNode) isScope() {}

type PrincipalScopeNode struct{}

func (PrincipalScopeNode) isPrincipalScope() {}

type ActionScopeNode struct{}

func (ActionScopeNode) isActionScope() {}

type ResourceScopeNode struct{}

func (ResourceScopeNode) isResourceScope() {}

// ScopeTypeAll matches any entity.
type ScopeTypeAll struct {
	ScopeNode
	PrincipalScopeNode
	ActionScopeNode
	ResourceScopeNode
}

// ScopeTypeEq matches exactly one entity.
type ScopeTypeEq struct {
	ScopeNode
	PrincipalScopeNode
	ActionScopeNode
	ResourceScopeNode
	Entity types.EntityUID
}

// ScopeTypeIn matches an entity equal to, or a descendant of, Entity.
type ScopeTypeIn struct {
	ScopeNode
	PrincipalScopeNode
	ActionScopeNode
	ResourceScopeNode
	Entity types.EntityUID
}

// ScopeTypeInSet matches an action contained in any of Entities. Only valid
// in action position.
type ScopeTypeInSet struct {
	ScopeNode
	ActionScopeNode
	Entities []types.EntityUID
}

// ScopeTypeIs matches any entity of the given type.
type ScopeTypeIs struct {
	ScopeNode
	PrincipalScopeNode
	ResourceScopeNode
	Type types.EntityType
}

// ScopeTypeIsIn matches an entity of the given type that is equal to, or a
// descendant of, Entity.
type ScopeTypeIsIn struct {
	ScopeNode
	PrincipalScopeNode
	ResourceScopeNode
	Type   types.EntityType
	Entity types.EntityUID
}

// Scope is a builder for scope constraint nodes.
type Scope struct{}

func (Scope) All() ScopeTypeAll {
	return ScopeTypeAll{}
}

func (Scope) Eq(entity types.EntityUID) ScopeTypeEq {
	return ScopeTypeEq{Entity: entity}
}

func (Scope) In(entity types.EntityUID) ScopeTypeIn {
	return ScopeTypeIn{Entity: entity}
}

func (Scope) InSet(entities []types.EntityUID) ScopeTypeInSet {
	return ScopeTypeInSet{Entities: entities}
}

func (Scope) Is(entityType types.EntityType) ScopeTypeIs {
	return ScopeTypeIs{Type: entityType}
}

func (Scope) IsIn(entityType types.EntityType, entity types.EntityUID) ScopeTypeIsIn {
	return ScopeTypeIsIn{Type: entityType, Entity: entity}
}

// PrincipalEq restricts the policy to a single principal.
func (p *Policy) PrincipalEq(entity types.EntityUID) *Policy {
	p.Principal = Scope{}.Eq(entity)
	return p
}

// PrincipalIn restricts the policy to principals in the hierarchy of entity.
func (p *Policy) PrincipalIn(entity types.EntityUID) *Policy {
	p.Principal = Scope{}.In(entity)
	return p
}

// PrincipalIs restricts the policy to principals of the given type.
func (p *Policy) PrincipalIs(entityType types.EntityType) *Policy {
	p.Principal = Scope{}.Is(entityType)
	return p
}

// PrincipalIsIn restricts the policy to principals of the given type in the
// hierarchy of entity.
func (p *Policy) PrincipalIsIn(entityType types.EntityType, entity types.EntityUID) *Policy {
	p.Principal = Scope{}.IsIn(entityType, entity)
	return p
}

// ActionEq restricts the policy to a single action.
func (p *Policy) ActionEq(entity types.EntityUID) *Policy {
	p.Action = Scope{}.Eq(entity)
	return p
}

// ActionIn restricts the policy to actions in the hierarchy of entity.
func (p *Policy) ActionIn(entity types.EntityUID) *Policy {
	p.Action = Scope{}.In(entity)
	return p
}

// ActionInSet restricts the policy to the given set of actions.
func (p *Policy) ActionInSet(entities ...types.EntityUID) *Policy {
	p.Action = Scope{}.InSet(entities)
	return p
}

// ResourceEq restricts the policy to a single resource.
func (p *Policy) ResourceEq(entity types.EntityUID) *Policy {
	p.Resource = Scope{}.Eq(entity)
	return p
}

// ResourceIn restricts the policy to resources in the hierarchy of entity.
func (p *Policy) ResourceIn(entity types.EntityUID) *Policy {
	p.Resource = Scope{}.In(entity)
	return p
}

// ResourceIs restricts the policy to resources of the given type.
func (p *Policy) ResourceIs(entityType types.EntityType) *Policy {
	p.Resource = Scope{}.Is(entityType)
	return p
}

// ResourceIsIn restricts the policy to resources of the given type in the
// hierarchy of entity.
func (p *Policy) ResourceIsIn(entityType types.EntityType, entity types.EntityUID) *Policy {
	p.Resource = Scope{}.IsIn(entityType, entity)
	return p
}
