// Package ast defines the abstract representation of policies: effect,
// annotations, scope constraints, and condition expressions. Policies arrive
// here already parsed; this package is the boundary between upstream policy
// ingestion and the evaluator.
package ast

import "github.com/gavel-authz/gavel/types"

// Effect is the outcome a policy contributes when satisfied.
type Effect bool

const (
	EffectPermit Effect = true
	EffectForbid Effect = false
)

// A ConditionEnum distinguishes when clauses from unless clauses.
type ConditionEnum bool

const (
	// ConditionWhen holds a condition that must evaluate true for the policy
	// to be satisfied.
	ConditionWhen ConditionEnum = true
	// ConditionUnless holds a condition that must evaluate false for the
	// policy to be satisfied.
	ConditionUnless ConditionEnum = false
)

// ConditionType pairs a when/unless marker with its body expression.
type ConditionType struct {
	Condition ConditionEnum
	Body      IsNode
}

// AnnotationType is a single key/value annotation on a policy or template.
type AnnotationType struct {
	Key   types.String
	Value types.String
}

// A Policy is the abstract representation of a single permit or forbid
// statement: scope constraints over principal/action/resource and zero or
// more conditions.
type Policy struct {
	Effect      Effect
	Annotations []AnnotationType
	Principal   IsPrincipalScopeNode
	Action      IsActionScopeNode
	Resource    IsResourceScopeNode
	Conditions  []ConditionType
}

func newPolicy(effect Effect, annotations []AnnotationType) *Policy {
	return &Policy{
		Effect:      effect,
		Annotations: annotations,
		Principal:   ScopeTypeAll{},
		Action:      ScopeTypeAll{},
		Resource:    ScopeTypeAll{},
	}
}

// Permit returns a policy with the Permit effect and an unconstrained scope.
func Permit() *Policy {
	return newPolicy(EffectPermit, nil)
}

// Forbid returns a policy with the Forbid effect and an unconstrained scope.
func Forbid() *Policy {
	return newPolicy(EffectForbid, nil)
}

func addAnnotation(annotations []AnnotationType, key, value types.String) []AnnotationType {
	for i, a := range annotations {
		if a.Key == key {
			annotations[i].Value = value
			return annotations
		}
	}
	return append(annotations, AnnotationType{Key: key, Value: value})
}

// Annotate adds or replaces an annotation on the policy.
func (p *Policy) Annotate(key, value types.String) *Policy {
	p.Annotations = addAnnotation(p.Annotations, key, value)
	return p
}

// Annotation returns the value of the named annotation, if present.
func (p *Policy) Annotation(key types.String) (types.String, bool) {
	for _, a := range p.Annotations {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// When adds a when condition to the policy.
func (p *Policy) When(node Node) *Policy {
	p.Conditions = append(p.Conditions, ConditionType{Condition: ConditionWhen, Body: node.v})
	return p
}

// Unless adds an unless condition to the policy.
func (p *Policy) Unless(node Node) *Policy {
	p.Conditions = append(p.Conditions, ConditionType{Condition: ConditionUnless, Body: node.v})
	return p
}

// Clone returns a deep-enough copy of the policy: scope nodes and condition
// bodies are immutable and shared, slices are copied.
func (p *Policy) Clone() *Policy {
	c := *p
	c.Annotations = append([]AnnotationType(nil), p.Annotations...)
	c.Conditions = append([]ConditionType(nil), p.Conditions...)
	return &c
}
