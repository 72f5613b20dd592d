package gavel_test

import (
	"encoding/json"
	"testing"

	"github.com/gavel-authz/gavel"
	"github.com/gavel-authz/gavel/internal/testutil"
)

func TestDecisionJSON(t *testing.T) {
	t.Parallel()
	testutil.JSONMarshalsTo(t, gavel.Allow, `"allow"`)
	testutil.JSONMarshalsTo(t, gavel.Deny, `"deny"`)

	var d gavel.Decision
	testutil.OK(t, json.Unmarshal([]byte(`"allow"`), &d))
	testutil.Equals(t, d, gavel.Allow)
	testutil.OK(t, json.Unmarshal([]byte(`"deny"`), &d))
	testutil.Equals(t, d, gavel.Deny)
}

func TestResponseJSON(t *testing.T) {
	t.Parallel()

	t.Run("Full", func(t *testing.T) {
		t.Parallel()
		resp := gavel.Response{
			Decision: gavel.Deny,
			Diagnostic: gavel.Diagnostic{
				Reasons: []gavel.PolicyID{"no-delete"},
				Errors:  []gavel.DiagnosticError{{PolicyID: "broken", Message: "type error"}},
			},
			CorrelationID: "req-7",
		}
		testutil.JSONMarshalsTo(t, resp,
			`{"decision":"deny","diagnostics":{"reasons":["no-delete"],"errors":[{"policy_id":"broken","message":"type error"}]},"correlation_id":"req-7"}`)
	})

	t.Run("DefaultDeny", func(t *testing.T) {
		t.Parallel()
		resp := gavel.Response{Decision: gavel.Deny}
		testutil.JSONMarshalsTo(t, resp, `{"decision":"deny","diagnostics":{}}`)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		t.Parallel()
		resp := gavel.Response{
			Decision:      gavel.Allow,
			Diagnostic:    gavel.Diagnostic{Reasons: []gavel.PolicyID{"a", "b"}},
			CorrelationID: "req-8",
		}
		data, err := json.Marshal(resp)
		testutil.OK(t, err)
		var got gavel.Response
		testutil.OK(t, json.Unmarshal(data, &got))
		testutil.Equals(t, got, resp)
	})
}

func TestDiagnosticErrorMessage(t *testing.T) {
	t.Parallel()
	err := gavel.DiagnosticError{PolicyID: "p0", Message: "does not have the attribute"}
	testutil.Equals(t, err.Error(), `while evaluating policy "p0": does not have the attribute`)
}
