package gavel

import "github.com/gavel-authz/gavel/types"

// A Request is the question "can this principal perform this action on this
// resource" together with a context record the policies may inspect. The
// correlation ID is opaque: it is never interpreted, only echoed back on the
// corresponding Response, including across batch calls.
type Request struct {
	Principal     types.EntityUID `json:"principal"`
	Action        types.EntityUID `json:"action"`
	Resource      types.EntityUID `json:"resource"`
	Context       types.Record    `json:"context"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}
