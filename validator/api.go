package validator

import (
	"iter"

	"github.com/gavel-authz/gavel/ast"
	"github.com/gavel-authz/gavel/schema"
	"github.com/gavel-authz/gavel/types"
)

// ValidatePolicies validates policies against a schema, creating a Validator
// for the call.
//
//	result := validator.ValidatePolicies(s, policies.ASTs())
//	if !result.Passed {
//	    for _, err := range result.Errors {
//	        log.Printf("policy %s: %s", err.PolicyID, err.Message)
//	    }
//	}
func ValidatePolicies(s *schema.Schema, policies iter.Seq2[types.PolicyID, *ast.Policy], opts ...ValidatorOption) ValidationResult {
	v, err := New(s, opts...)
	if err != nil {
		return ValidationResult{
			Errors: []PolicyError{{Message: err.Error()}},
		}
	}
	return v.ValidatePolicies(policies)
}

// ValidateEntities validates entities against a schema, creating a Validator
// for the call.
func ValidateEntities(s *schema.Schema, entities types.EntityMap, opts ...ValidatorOption) EntityValidationResult {
	v, err := New(s, opts...)
	if err != nil {
		return EntityValidationResult{
			Errors: []EntityError{{Message: err.Error()}},
		}
	}
	return v.ValidateEntities(entities)
}

// ValidateRequest validates a request against a schema, creating a Validator
// for the call.
func ValidateRequest(s *schema.Schema, principal, action, resource types.EntityUID, context types.Record) RequestValidationResult {
	v, err := New(s)
	if err != nil {
		return RequestValidationResult{Error: err.Error()}
	}
	return v.ValidateRequest(principal, action, resource, context)
}
