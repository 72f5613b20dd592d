// Package gavel is a policy-based authorization engine. Policies permit or
// forbid a principal performing an action on a resource; entities form a
// hierarchy the policies can query; an optional schema constrains all three.
// A request is decided by evaluating every applicable policy and combining
// the results: any satisfied forbid denies, otherwise any satisfied permit
// allows, otherwise the request is denied.
package gavel

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/gavel-authz/gavel/internal/eval"
	"github.com/gavel-authz/gavel/schema"
	"github.com/gavel-authz/gavel/types"
	"github.com/gavel-authz/gavel/validator"
)

// Authorize decides a single request against the policies and entities. The
// call is a pure function of its inputs: no state persists across requests,
// and the same inputs always produce the same response. Evaluation errors
// are recorded in the diagnostic, never raised.
func Authorize(policies *PolicySet, entities types.EntityGetter, req Request) (Decision, Diagnostic) {
	return authorize(policies, entities, req, eval.DefaultLimits())
}

func authorize(policies *PolicySet, entities types.EntityGetter, req Request, limits eval.Limits) (Decision, Diagnostic) {
	env := eval.Env{
		Entities:  entities,
		Principal: req.Principal,
		Action:    req.Action,
		Resource:  req.Resource,
		Context:   req.Context,
		Limits:    limits,
	}
	var forbids, permits []PolicyID
	var diag Diagnostic
	for id, policy := range policies.forRequest(req) {
		ok, err := policy.satisfied(env)
		if err != nil {
			diag.Errors = append(diag.Errors, DiagnosticError{PolicyID: id, Message: err.Error()})
			continue
		}
		if !ok {
			continue
		}
		if policy.Effect() == Forbid {
			forbids = append(forbids, id)
		} else {
			permits = append(permits, id)
		}
	}
	// Candidate iteration order is unstable; sort so identical inputs yield
	// identical responses.
	slices.Sort(forbids)
	slices.Sort(permits)
	slices.SortFunc(diag.Errors, func(a, b DiagnosticError) int {
		return cmp.Or(cmp.Compare(a.PolicyID, b.PolicyID), cmp.Compare(a.Message, b.Message))
	})
	switch {
	case len(forbids) > 0:
		diag.Reasons = forbids
		return Deny, diag
	case len(permits) > 0:
		diag.Reasons = permits
		return Allow, diag
	default:
		return Deny, diag
	}
}

// An Authorizer binds a policy set, an entity store, and an optional schema
// for reuse across many requests. When a schema is supplied the policies are
// validated once at construction and every request is validated before
// evaluation. The bound state is read-only, so a single Authorizer is safe
// for concurrent use.
type Authorizer struct {
	policies *PolicySet
	entities types.EntityGetter
	schema   *schema.Schema
	limits   eval.Limits
}

// AuthorizerOption configures an Authorizer.
type AuthorizerOption func(*Authorizer)

// WithSchema validates the policies at construction and every request before
// evaluation.
func WithSchema(s *schema.Schema) AuthorizerOption {
	return func(a *Authorizer) {
		a.schema = s
	}
}

// WithMaxEntityGraphDepth bounds hierarchy traversal during evaluation.
// Zero disables the bound; the default is eval's conservative limit.
func WithMaxEntityGraphDepth(depth int) AuthorizerOption {
	return func(a *Authorizer) {
		a.limits.MaxEntityGraphDepth = depth
	}
}

// NewAuthorizer creates an Authorizer over the given policies and entities.
// When a schema is supplied and any policy fails static validation the
// construction fails with ErrPolicyValidation; validation warnings do not
// fail construction.
func NewAuthorizer(policies *PolicySet, entities types.EntityGetter, opts ...AuthorizerOption) (*Authorizer, error) {
	a := &Authorizer{policies: policies, entities: entities, limits: eval.DefaultLimits()}
	for _, opt := range opts {
		opt(a)
	}
	if a.policies == nil {
		a.policies = NewPolicySet()
	}
	if a.schema != nil {
		result := validator.ValidatePolicies(a.schema, a.policies.ASTs())
		if !result.Passed {
			return nil, fmt.Errorf("%w: %s", ErrPolicyValidation, joinPolicyErrors(result.Errors))
		}
	}
	return a, nil
}

func joinPolicyErrors(errs []validator.PolicyError) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = fmt.Sprintf("%s: %s", e.PolicyID, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// IsAuthorized decides a single request. When the Authorizer carries a
// schema the request is validated first; a request failing validation fails
// the call with ErrRequestValidation before any policy is evaluated.
func (a *Authorizer) IsAuthorized(req Request) (Response, error) {
	if a.schema != nil {
		result := validator.ValidateRequest(a.schema, req.Principal, req.Action, req.Resource, req.Context)
		if !result.Valid {
			return Response{}, fmt.Errorf("%w: %s", ErrRequestValidation, result.Error)
		}
	}
	decision, diag := authorize(a.policies, a.entities, req, a.limits)
	return Response{Decision: decision, Diagnostic: diag, CorrelationID: req.CorrelationID}, nil
}

// IsAuthorizedBatch decides each request independently against the same
// policies and entities. Responses are returned in input order even though
// evaluation fans out in parallel. A request that fails validation yields a
// Deny response carrying the error; it never affects its siblings.
func (a *Authorizer) IsAuthorizedBatch(reqs []Request) []Response {
	a.policies.BuildIndex()
	out := make([]Response, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := a.IsAuthorized(req)
			if err != nil {
				resp = errorResponse(req, err)
			}
			out[i] = resp
		}()
	}
	wg.Wait()
	return out
}

// errorResponse denies a request whose validation failed, carrying the error
// in the diagnostic with the correlation ID echoed as usual.
func errorResponse(req Request, err error) Response {
	return Response{
		Decision:      Deny,
		Diagnostic:    Diagnostic{Errors: []DiagnosticError{{Message: err.Error()}}},
		CorrelationID: req.CorrelationID,
	}
}

// IsAuthorized is the functional form of Authorizer.IsAuthorized: schema and
// policy validation happen on this call instead of being cached on a
// constructed Authorizer. The schema may be nil.
func IsAuthorized(req Request, policies *PolicySet, entities Entities, s *schema.Schema) (Response, error) {
	a, err := newSchemaAuthorizer(policies, entities, s)
	if err != nil {
		return Response{}, err
	}
	return a.IsAuthorized(req)
}

// IsAuthorizedBatch is the functional form of Authorizer.IsAuthorizedBatch.
// Construction errors (policy validation against the schema) fail the whole
// call; per-request errors are contained in the corresponding response.
func IsAuthorizedBatch(reqs []Request, policies *PolicySet, entities Entities, s *schema.Schema) ([]Response, error) {
	a, err := newSchemaAuthorizer(policies, entities, s)
	if err != nil {
		return nil, err
	}
	return a.IsAuthorizedBatch(reqs), nil
}

func newSchemaAuthorizer(policies *PolicySet, entities Entities, s *schema.Schema) (*Authorizer, error) {
	if s == nil {
		return NewAuthorizer(policies, entities)
	}
	return NewAuthorizer(policies, entities, WithSchema(s))
}
