package gavel

import "errors"

// Construction errors. These abort the operation that triggered them;
// evaluation errors never do, they are recorded in the response diagnostics
// instead.
var (
	// ErrDuplicatePolicyID is returned when two policies share an identifier,
	// including after identifier normalization.
	ErrDuplicatePolicyID = errors.New("duplicate policy id")

	// ErrDuplicateEntity is returned when two input entities share a UID.
	ErrDuplicateEntity = errors.New("duplicate entity uid")

	// ErrEntitySchemaMismatch is returned when an entity fails structural
	// validation against a supplied schema.
	ErrEntitySchemaMismatch = errors.New("entity schema mismatch")

	// ErrPolicyValidation is returned by authorizer construction when a
	// policy fails static validation against the schema.
	ErrPolicyValidation = errors.New("policy validation failed")

	// ErrRequestValidation is returned when a request fails schema-based
	// validation before the decision algorithm runs.
	ErrRequestValidation = errors.New("request validation failed")
)
