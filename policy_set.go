package gavel

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/gavel-authz/gavel/ast"
	"github.com/gavel-authz/gavel/types"
)

// PolicyMap is a map of policy IDs to policy.
type PolicyMap map[PolicyID]*Policy

// All returns an iterator over the policy IDs and policies in the PolicyMap.
func (p PolicyMap) All() iter.Seq2[PolicyID, *Policy] {
	return maps.All(p)
}

// PolicySet is a set of named policies against which a request can be
// authorized. Identifiers are unique across static and template-linked
// policies. A PolicySet is safe for concurrent authorization once built;
// Add and Remove must not race with evaluation.
type PolicySet struct {
	policies PolicyMap
	order    []PolicyID

	// Candidate index for fast policy lookup, built lazily on first
	// authorization and guarded so concurrent evaluations stay race-free.
	mu         sync.Mutex
	index      *policyIndex
	indexDirty bool
}

// NewPolicySet creates a new, empty PolicySet.
func NewPolicySet() *PolicySet {
	return &PolicySet{policies: PolicyMap{}, indexDirty: true}
}

// NewPolicySetFromSlice builds a PolicySet from the given policies, keeping
// their order for enumeration. Two policies sharing an identifier is an
// error.
func NewPolicySetFromSlice(policies []*Policy) (*PolicySet, error) {
	ps := NewPolicySet()
	for _, policy := range policies {
		if _, exists := ps.policies[policy.ID()]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePolicyID, policy.ID())
		}
		ps.Add(policy)
	}
	return ps, nil
}

// Get returns the Policy with the given ID. If a policy with the given ID
// does not exist, nil is returned.
func (p *PolicySet) Get(policyID PolicyID) *Policy {
	return p.policies[policyID]
}

// Add inserts or updates a policy under its own identifier. Returns true if
// a policy with that identifier did not already exist in the set. Updating
// keeps the policy's original position in enumeration order.
func (p *PolicySet) Add(policy *Policy) bool {
	_, exists := p.policies[policy.ID()]
	p.policies[policy.ID()] = policy
	if !exists {
		p.order = append(p.order, policy.ID())
	}
	p.invalidateIndex()
	return !exists
}

// Remove removes a policy from the PolicySet. Returns true if a policy with
// the given ID existed in the set.
func (p *PolicySet) Remove(policyID PolicyID) bool {
	_, exists := p.policies[policyID]
	if exists {
		delete(p.policies, policyID)
		p.order = slices.DeleteFunc(p.order, func(id PolicyID) bool { return id == policyID })
		p.invalidateIndex()
	}
	return exists
}

// Len returns the number of policies in the set.
func (p *PolicySet) Len() int {
	return len(p.policies)
}

// NormalizeIDs returns a new PolicySet in which every static policy carrying
// the given annotation is re-keyed by the annotation's value. Template-linked
// policies pass through unchanged because their identifier is their link.
// All non-identifier fields are preserved exactly. Two policies colliding on
// an identifier after normalization is an error.
func (p *PolicySet) NormalizeIDs(annotationKey types.String) (*PolicySet, error) {
	out := NewPolicySet()
	for _, id := range p.order {
		policy := p.policies[id]
		next := policy.ID()
		if policy.IsStatic() {
			if v, ok := policy.Annotation(annotationKey); ok {
				next = PolicyID(v)
			}
		}
		if _, exists := out.policies[next]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePolicyID, next)
		}
		if next != policy.ID() {
			policy = policy.withID(next)
		}
		out.Add(policy)
	}
	return out, nil
}

// All returns an iterator over the (PolicyID, *Policy) tuples in the
// PolicySet, in insertion order. The order is for enumeration only; decision
// semantics are order-independent.
func (p *PolicySet) All() iter.Seq2[PolicyID, *Policy] {
	return func(yield func(PolicyID, *Policy) bool) {
		for _, id := range p.order {
			if !yield(id, p.policies[id]) {
				return
			}
		}
	}
}

// Policies returns an iterator over the policies in insertion order.
func (p *PolicySet) Policies() iter.Seq[*Policy] {
	return func(yield func(*Policy) bool) {
		for _, id := range p.order {
			if !yield(p.policies[id]) {
				return
			}
		}
	}
}

// ASTs returns an iterator over the abstract representations of the policies
// in insertion order, keyed by identifier. This is the form the validator
// consumes.
func (p *PolicySet) ASTs() iter.Seq2[types.PolicyID, *ast.Policy] {
	return func(yield func(types.PolicyID, *ast.Policy) bool) {
		for _, id := range p.order {
			if !yield(id, p.policies[id].ast) {
				return
			}
		}
	}
}

// policyIndex narrows the policies worth evaluating for a request by action
// UID, principal entity type, and resource entity type. Policies whose scope
// cannot be keyed on a dimension land in that dimension's any set.
type policyIndex struct {
	byAction        map[types.EntityUID]map[PolicyID]struct{}
	byPrincipalType map[types.EntityType]map[PolicyID]struct{}
	byResourceType  map[types.EntityType]map[PolicyID]struct{}
	actionAny       map[PolicyID]struct{}
	principalAny    map[PolicyID]struct{}
	resourceAny     map[PolicyID]struct{}
}

// BuildIndex pre-builds the candidate index. Optional; the index is built on
// first authorization. Useful to amortize the build before a batch.
func (p *PolicySet) BuildIndex() {
	p.ensureIndex()
}

func (p *PolicySet) invalidateIndex() {
	p.mu.Lock()
	p.indexDirty = true
	p.mu.Unlock()
}

func (p *PolicySet) ensureIndex() *policyIndex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.indexDirty && p.index != nil {
		return p.index
	}
	idx := &policyIndex{
		byAction:        make(map[types.EntityUID]map[PolicyID]struct{}),
		byPrincipalType: make(map[types.EntityType]map[PolicyID]struct{}),
		byResourceType:  make(map[types.EntityType]map[PolicyID]struct{}),
		actionAny:       make(map[PolicyID]struct{}),
		principalAny:    make(map[PolicyID]struct{}),
		resourceAny:     make(map[PolicyID]struct{}),
	}
	for id, policy := range p.policies {
		idx.addAction(id, policy.ast.Action)
		addEntityScope(idx.byPrincipalType, idx.principalAny, id, policy.ast.Principal)
		addEntityScope(idx.byResourceType, idx.resourceAny, id, policy.ast.Resource)
	}
	p.index = idx
	p.indexDirty = false
	return idx
}

func (idx *policyIndex) addAction(id PolicyID, scope ast.IsActionScopeNode) {
	switch s := scope.(type) {
	case ast.ScopeTypeEq:
		addIndexed(idx.byAction, s.Entity, id)
	case ast.ScopeTypeInSet:
		for _, entity := range s.Entities {
			addIndexed(idx.byAction, entity, id)
		}
	default:
		// All and In scopes can match actions of any UID.
		idx.actionAny[id] = struct{}{}
	}
}

func addEntityScope(indexed map[types.EntityType]map[PolicyID]struct{}, anySet map[PolicyID]struct{}, id PolicyID, scope ast.IsScopeNode) {
	switch s := scope.(type) {
	case ast.ScopeTypeEq:
		addIndexed(indexed, s.Entity.Type, id)
	case ast.ScopeTypeIs:
		addIndexed(indexed, s.Type, id)
	case ast.ScopeTypeIsIn:
		addIndexed(indexed, s.Type, id)
	default:
		// All and In scopes admit entities of any type.
		anySet[id] = struct{}{}
	}
}

func addIndexed[K comparable](m map[K]map[PolicyID]struct{}, key K, id PolicyID) {
	if m[key] == nil {
		m[key] = make(map[PolicyID]struct{})
	}
	m[key][id] = struct{}{}
}

// indexDimension is one of the three candidate filters: the ids keyed under
// the request's value plus the ids that match any value.
type indexDimension struct {
	indexed map[PolicyID]struct{}
	anySet  map[PolicyID]struct{}
}

func (d indexDimension) size() int {
	return len(d.indexed) + len(d.anySet)
}

func (d indexDimension) contains(id PolicyID) bool {
	if _, ok := d.anySet[id]; ok {
		return true
	}
	_, ok := d.indexed[id]
	return ok
}

// forRequest returns an iterator over the policies whose scope could match
// the request: the smallest dimension drives iteration and the other two
// filter. Iteration order is unspecified; Authorize sorts its outputs.
func (p *PolicySet) forRequest(req Request) iter.Seq2[PolicyID, *Policy] {
	idx := p.ensureIndex()
	dims := [3]indexDimension{
		{idx.byAction[req.Action], idx.actionAny},
		{idx.byPrincipalType[req.Principal.Type], idx.principalAny},
		{idx.byResourceType[req.Resource.Type], idx.resourceAny},
	}
	smallest := 0
	for i := 1; i < len(dims); i++ {
		if dims[i].size() < dims[smallest].size() {
			smallest = i
		}
	}
	return func(yield func(PolicyID, *Policy) bool) {
		emit := func(id PolicyID) bool {
			for i, dim := range dims {
				if i != smallest && !dim.contains(id) {
					return true
				}
			}
			policy := p.policies[id]
			if policy == nil {
				return true
			}
			return yield(id, policy)
		}
		for id := range dims[smallest].indexed {
			if !emit(id) {
				return
			}
		}
		for id := range dims[smallest].anySet {
			if !emit(id) {
				return
			}
		}
	}
}
