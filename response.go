package gavel

import "fmt"

// A Decision is the result of an authorization: Allow or Deny.
type Decision bool

const (
	// Allow is returned when at least one permit policy is satisfied and no
	// forbid policy is.
	Allow = Decision(true)
	// Deny is returned when a forbid policy is satisfied or when no policy
	// is, the default.
	Deny = Decision(false)
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

func (d Decision) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Decision) UnmarshalJSON(b []byte) error {
	*d = string(b) == `"allow"`
	return nil
}

// A DiagnosticError records a runtime fault while evaluating one policy's
// condition. Such a fault never aborts a decision; the policy is treated as
// not satisfied and the fault is reported here.
type DiagnosticError struct {
	PolicyID PolicyID `json:"policy_id"`
	Message  string   `json:"message"`
}

func (e DiagnosticError) Error() string {
	return fmt.Sprintf("while evaluating policy %q: %s", e.PolicyID, e.Message)
}

// A Diagnostic explains a Decision. Reasons names the policies that
// determined the outcome: the satisfied forbids on Deny, the satisfied
// permits on Allow, empty on a default deny.
type Diagnostic struct {
	Reasons []PolicyID        `json:"reasons,omitempty"`
	Errors  []DiagnosticError `json:"errors,omitempty"`
}

// A Response is the answer to a Request: the decision, its explanation, and
// the request's correlation ID passed through unchanged.
type Response struct {
	Decision      Decision   `json:"decision"`
	Diagnostic    Diagnostic `json:"diagnostics"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}
