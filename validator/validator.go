// Package validator performs static validation of policies, entities, and
// requests against a schema. Policy validation is strict: references to
// unknown entity types or actions are errors, scopes that no declared
// action environment can satisfy are errors, and conditions are type-checked.
// Access to an optional attribute without a preceding has check is reported
// as a warning.
package validator

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/gavel-authz/gavel/ast"
	"github.com/gavel-authz/gavel/schema"
	"github.com/gavel-authz/gavel/types"
)

// ValidationResult contains the result of validating a set of policies.
type ValidationResult struct {
	// Passed is true when no policy produced an error.
	Passed bool
	// PassedWithoutWarnings is true when no policy produced an error or a
	// warning.
	PassedWithoutWarnings bool
	Errors                []PolicyError
	Warnings              []PolicyWarning
}

// PolicyError represents a validation error for a specific policy.
type PolicyError struct {
	PolicyID types.PolicyID
	Message  string
}

// PolicyWarning represents a validation warning for a specific policy.
type PolicyWarning struct {
	PolicyID types.PolicyID
	Message  string
}

// EntityValidationResult contains the result of validating entities.
type EntityValidationResult struct {
	Valid  bool
	Errors []EntityError
}

// EntityError represents a validation error for a specific entity.
type EntityError struct {
	EntityUID types.EntityUID
	Message   string
}

// RequestValidationResult contains the result of validating a request.
type RequestValidationResult struct {
	Valid bool
	Error string
}

// Validator validates policies, entities, and requests against a schema.
type Validator struct {
	schema      *schema.Schema
	entityTypes map[types.EntityType]*schema.EntityTypeInfo
	actionTypes map[types.EntityUID]*schema.ActionTypeInfo
	// maxAttributeLevel bounds the depth of attribute access chains in
	// policy conditions. Zero means no limit.
	maxAttributeLevel int
	// strictEntityValidation rejects entity and context attributes that the
	// schema does not declare.
	strictEntityValidation bool
	// allowUnknownEntityTypes defers unknown type references in the schema's
	// own declarations to policy validation instead of rejecting them at
	// construction.
	allowUnknownEntityTypes bool
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithMaxAttributeLevel bounds the depth of attribute access chains allowed
// in policy conditions. Level 1 allows principal.name, level 2 also allows
// principal.manager.name, and so on. The default of 0 places no bound.
func WithMaxAttributeLevel(level int) ValidatorOption {
	return func(v *Validator) {
		v.maxAttributeLevel = level
	}
}

// WithStrictEntityValidation makes ValidateEntities and ValidateRequest
// reject attributes that the schema does not declare. By default extra
// attributes are allowed.
func WithStrictEntityValidation() ValidatorOption {
	return func(v *Validator) {
		v.strictEntityValidation = true
	}
}

// WithAllowUnknownEntityTypes accepts schemas whose memberOfTypes,
// principalTypes, or resourceTypes reference undeclared entity types. The
// references surface later as impossible-policy errors instead of failing
// Validator construction.
func WithAllowUnknownEntityTypes() ValidatorOption {
	return func(v *Validator) {
		v.allowUnknownEntityTypes = true
	}
}

// New creates a Validator from a schema, checking the schema's internal
// references along the way.
func New(s *schema.Schema, opts ...ValidatorOption) (*Validator, error) {
	if s == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}

	v := &Validator{
		schema:      s,
		entityTypes: maps.Collect(s.EntityTypes()),
		actionTypes: maps.Collect(s.Actions()),
	}

	for _, opt := range opts {
		opt(v)
	}

	if err := v.checkSchemaReferences(); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	return v, nil
}

// ValidatePolicies validates every policy in the sequence against the schema.
func (v *Validator) ValidatePolicies(policies iter.Seq2[types.PolicyID, *ast.Policy]) ValidationResult {
	result := ValidationResult{Passed: true, PassedWithoutWarnings: true}

	for id, policy := range policies {
		errs, warns := v.validatePolicy(policy)
		for _, msg := range errs {
			result.Errors = append(result.Errors, PolicyError{PolicyID: id, Message: msg})
		}
		for _, msg := range warns {
			result.Warnings = append(result.Warnings, PolicyWarning{PolicyID: id, Message: msg})
		}
	}

	result.Passed = len(result.Errors) == 0
	result.PassedWithoutWarnings = result.Passed && len(result.Warnings) == 0
	return result
}

// ValidateEntities validates every entity in the map against the schema.
func (v *Validator) ValidateEntities(entities types.EntityMap) EntityValidationResult {
	result := EntityValidationResult{Valid: true}

	for uid, entity := range entities {
		if errs := v.validateEntity(uid, entity); len(errs) > 0 {
			result.Valid = false
			result.Errors = append(result.Errors, errs...)
		}
	}

	return result
}

// ValidateRequest checks that the request's action is declared, that the
// principal and resource types are allowed for it, and that the context
// matches the action's declared shape.
func (v *Validator) ValidateRequest(principal, action, resource types.EntityUID, context types.Record) RequestValidationResult {
	actionInfo, ok := v.actionTypes[action]
	if !ok {
		return RequestValidationResult{
			Valid: false,
			Error: fmt.Sprintf("action %s is not defined in schema", action),
		}
	}

	if !v.typeInList(principal.Type, actionInfo.PrincipalTypes) {
		return RequestValidationResult{
			Valid: false,
			Error: fmt.Sprintf("principal type %s is not allowed for action %s", principal.Type, action),
		}
	}

	if !v.typeInList(resource.Type, actionInfo.ResourceTypes) {
		return RequestValidationResult{
			Valid: false,
			Error: fmt.Sprintf("resource type %s is not allowed for action %s", resource.Type, action),
		}
	}

	if err := v.validateContext(context, actionInfo.Context); err != nil {
		return RequestValidationResult{
			Valid: false,
			Error: fmt.Sprintf("context validation failed: %v", err),
		}
	}

	return RequestValidationResult{Valid: true}
}

// validatePolicy validates a single policy, returning error and warning
// messages.
func (v *Validator) validatePolicy(policy *ast.Policy) (errs, warns []string) {
	// A schema with no complete appliesTo declaration has no valid request
	// environment, so no policy can ever apply.
	if v.isSchemaEmpty() {
		return []string{"impossiblePolicy: schema declares no valid request environment"}, nil
	}

	errs = append(errs, v.validatePolicyScope(policy)...)

	if v.hasImpossibleCondition(policy) {
		errs = append(errs, "impossiblePolicy: condition can never be satisfied")
	}

	typeErrs, typeWarns := v.typecheckPolicy(policy)
	errs = append(errs, typeErrs...)
	warns = append(warns, typeWarns...)

	return errs, warns
}

// checkSchemaReferences validates that the schema's own type references
// resolve to declared entity types.
func (v *Validator) checkSchemaReferences() error {
	if v.allowUnknownEntityTypes {
		return nil
	}

	var errs []string
	for entityType, info := range v.entityTypes {
		for _, mot := range info.MemberOfTypes {
			if _, exists := v.entityTypes[mot]; !exists {
				errs = append(errs, fmt.Sprintf("entity type %s references unknown memberOfTypes: %s", entityType, mot))
			}
		}
	}
	for actionUID, info := range v.actionTypes {
		for _, pt := range info.PrincipalTypes {
			if _, exists := v.entityTypes[pt]; !exists {
				errs = append(errs, fmt.Sprintf("action %s references unknown principalType: %s", actionUID, pt))
			}
		}
		for _, rt := range info.ResourceTypes {
			if _, exists := v.entityTypes[rt]; !exists {
				errs = append(errs, fmt.Sprintf("action %s references unknown resourceType: %s", actionUID, rt))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// isActionEntityType reports whether a type name follows the action entity
// naming pattern, "Action" or "Namespace::Action".
func (v *Validator) isActionEntityType(t types.EntityType) bool {
	s := string(t)
	return s == "Action" || strings.HasSuffix(s, "::Action")
}

// typeInList checks if a type is in a list of types. An empty list allows
// any type.
func (v *Validator) typeInList(t types.EntityType, list []types.EntityType) bool {
	if len(list) == 0 {
		return true
	}
	return slices.Contains(list, t)
}
