package gavel

import (
	"maps"

	"github.com/gavel-authz/gavel/ast"
	"github.com/gavel-authz/gavel/internal/eval"
	"github.com/gavel-authz/gavel/types"
)

//revive:disable-next-line:exported
type PolicyID = types.PolicyID

//revive:disable-next-line:exported
type Effect = ast.Effect

// Permit and Forbid are the two policy effects.
const (
	Permit = ast.EffectPermit
	Forbid = ast.EffectForbid
)

// A Policy is an immutable permit or forbid statement ready for evaluation.
// Its conditions are compiled once at construction; an identifier is assigned
// at construction and only changes through PolicySet.NormalizeIDs.
type Policy struct {
	id         PolicyID
	ast        *ast.Policy
	conditions []compiledCondition
	templateID string
	slotValues map[ast.SlotID]types.EntityUID
}

// compiledCondition pairs a compiled condition body with the boolean it must
// produce for the policy to be satisfied: true for when, false for unless.
type compiledCondition struct {
	want types.Boolean
	body eval.Evaler
}

func compileConditions(p *ast.Policy) []compiledCondition {
	out := make([]compiledCondition, 0, len(p.Conditions))
	for _, c := range p.Conditions {
		out = append(out, compiledCondition{
			want: types.Boolean(c.Condition == ast.ConditionWhen),
			body: eval.ToEval(c.Body),
		})
	}
	return out
}

// NewPolicy creates a static policy from its abstract representation.
func NewPolicy(id PolicyID, p *ast.Policy) *Policy {
	return &Policy{id: id, ast: p, conditions: compileConditions(p)}
}

// LinkTemplate fills the template's slots with the given values and compiles
// the result into a policy identified by linkID. The template is never
// mutated; the returned policy remembers its template and slot bindings.
func LinkTemplate(t *ast.Template, linkID string, values map[ast.SlotID]types.EntityUID) (*Policy, error) {
	linked, err := t.Link(linkID, values)
	if err != nil {
		return nil, err
	}
	return &Policy{
		id:         PolicyID(linkID),
		ast:        linked,
		conditions: compileConditions(linked),
		templateID: t.ID,
		slotValues: maps.Clone(values),
	}, nil
}

// ID returns the policy's identifier.
func (p *Policy) ID() PolicyID {
	return p.id
}

// Effect returns Permit or Forbid.
func (p *Policy) Effect() Effect {
	return p.ast.Effect
}

// Annotation returns the value of the annotation with the given key.
func (p *Policy) Annotation(key types.String) (types.String, bool) {
	return p.ast.Annotation(key)
}

// IsStatic reports whether the policy is fully concrete rather than linked
// from a template.
func (p *Policy) IsStatic() bool {
	return p.templateID == ""
}

// TemplateID returns the identifier of the template this policy was linked
// from, or "" for a static policy.
func (p *Policy) TemplateID() string {
	return p.templateID
}

// SlotValues returns a copy of the slot bindings for a template-linked
// policy, or nil for a static policy.
func (p *Policy) SlotValues() map[ast.SlotID]types.EntityUID {
	return maps.Clone(p.slotValues)
}

// AST returns the policy's abstract representation.
func (p *Policy) AST() *ast.Policy {
	return p.ast
}

// withID returns a shallow copy of the policy under a different identifier.
// All other fields, including slot bindings, are shared unchanged.
func (p *Policy) withID(id PolicyID) *Policy {
	c := *p
	c.id = id
	return &c
}

// satisfied reports whether the policy's scope matches the request and every
// condition evaluates to its required boolean. An evaluation error means the
// policy is not satisfied; the caller records the error.
func (p *Policy) satisfied(env eval.Env) (bool, error) {
	if ok, err := eval.ScopeMatch(env, env.Principal, p.ast.Principal); err != nil || !ok {
		return false, err
	}
	if ok, err := eval.ScopeMatch(env, env.Action, p.ast.Action); err != nil || !ok {
		return false, err
	}
	if ok, err := eval.ScopeMatch(env, env.Resource, p.ast.Resource); err != nil || !ok {
		return false, err
	}
	for _, c := range p.conditions {
		v, err := c.body.Eval(env)
		if err != nil {
			return false, err
		}
		b, err := eval.ValueToBool(v)
		if err != nil {
			return false, err
		}
		if b != c.want {
			return false, nil
		}
	}
	return true, nil
}
