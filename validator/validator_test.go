package validator_test

import (
	"iter"
	"maps"
	"strings"
	"testing"

	"github.com/gavel-authz/gavel/ast"
	"github.com/gavel-authz/gavel/internal/testutil"
	"github.com/gavel-authz/gavel/schema"
	"github.com/gavel-authz/gavel/types"
	"github.com/gavel-authz/gavel/validator"
)

const testSchema = `{
	"entityTypes": {
		"User": {
			"shape": {
				"type": "Record",
				"attributes": {
					"department": {"type": "String"},
					"level": {"type": "Long", "required": false}
				}
			},
			"memberOfTypes": ["Group"]
		},
		"Group": {},
		"Document": {
			"shape": {
				"type": "Record",
				"attributes": {
					"owner": {"type": "Entity", "name": "User"},
					"public": {"type": "Boolean"}
				}
			},
			"memberOfTypes": ["Folder"]
		},
		"Folder": {}
	},
	"actions": {
		"view": {
			"appliesTo": {
				"principalTypes": ["User"],
				"resourceTypes": ["Document"],
				"context": {
					"type": "Record",
					"attributes": {
						"mfa": {"type": "Boolean", "required": false}
					}
				}
			}
		},
		"delete": {
			"appliesTo": {
				"principalTypes": ["User"],
				"resourceTypes": ["Document"]
			}
		}
	}
}`

func mustSchema(t *testing.T, src string) *schema.Schema {
	t.Helper()
	s, err := schema.ParseJSON([]byte(src))
	testutil.OK(t, err)
	return s
}

func onePolicy(p *ast.Policy) iter.Seq2[types.PolicyID, *ast.Policy] {
	return maps.All(map[types.PolicyID]*ast.Policy{"policy0": p})
}

func viewAction() types.EntityUID   { return types.NewEntityUID("Action", "view") }
func deleteAction() types.EntityUID { return types.NewEntityUID("Action", "delete") }

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("NilSchema", func(t *testing.T) {
		t.Parallel()
		_, err := validator.New(nil)
		testutil.Error(t, err)
	})

	t.Run("UnknownMemberOfType", func(t *testing.T) {
		t.Parallel()
		s := mustSchema(t, `{
			"entityTypes": {"User": {"memberOfTypes": ["Team"]}},
			"actions": {}
		}`)
		_, err := validator.New(s)
		testutil.Error(t, err)

		_, err = validator.New(s, validator.WithAllowUnknownEntityTypes())
		testutil.OK(t, err)
	})

	t.Run("UnknownAppliesToType", func(t *testing.T) {
		t.Parallel()
		s := mustSchema(t, `{
			"entityTypes": {"User": {}},
			"actions": {
				"view": {"appliesTo": {"principalTypes": ["User"], "resourceTypes": ["Document"]}}
			}
		}`)
		_, err := validator.New(s)
		testutil.Error(t, err)
	})
}

func TestValidatePolicies(t *testing.T) {
	t.Parallel()
	v, err := validator.New(mustSchema(t, testSchema))
	testutil.OK(t, err)

	t.Run("ValidPolicy", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().
			PrincipalIn(types.NewEntityUID("Group", "staff")).
			ActionEq(viewAction()).
			ResourceIs("Document").
			When(ast.Resource().Access("owner").Equal(ast.Principal()))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, true)
		testutil.Equals(t, res.PassedWithoutWarnings, true)
	})

	t.Run("UnknownPrincipalType", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().
			PrincipalEq(types.NewEntityUID("Robot", "r2")).
			ActionEq(viewAction())
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, false)
		testutil.Equals(t, res.Errors[0].PolicyID, types.PolicyID("policy0"))
	})

	t.Run("UnknownAction", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().ActionEq(types.NewEntityUID("Action", "fly"))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, false)
	})

	t.Run("PrincipalTypeNotAllowedForAction", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().
			PrincipalIs("Folder").
			ActionEq(viewAction())
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, false)
		found := false
		for _, e := range res.Errors {
			if strings.Contains(e.Message, "impossiblePolicy") {
				found = true
			}
		}
		testutil.Equals(t, found, true)
	})

	t.Run("ResourceInGroupSatisfiable", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().
			ActionEq(viewAction()).
			ResourceIn(types.NewEntityUID("Folder", "root"))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, true)
	})

	t.Run("PrincipalInUnreachableGroup", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().
			ActionEq(viewAction()).
			PrincipalIn(types.NewEntityUID("Folder", "root"))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, false)
	})

	t.Run("EmptyActionSet", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().ActionInSet()
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, false)
	})

	t.Run("ConstantFalseWhen", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().When(ast.True().And(ast.Not(ast.True())))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, false)
	})

	t.Run("ConstantTrueUnless", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().Unless(ast.True().Or(ast.False()))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, false)
	})

	t.Run("NonBooleanCondition", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().When(ast.Long(1))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, false)
	})

	t.Run("ComparisonOnString", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().
			ActionEq(viewAction()).
			When(ast.Principal().Access("department").GreaterThan(ast.Long(3)))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, false)
	})

	t.Run("UnknownAttribute", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().
			ActionEq(viewAction()).
			When(ast.Principal().Access("shoeSize").Equal(ast.Long(42)))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, false)
	})

	t.Run("MultiplePolicies", func(t *testing.T) {
		t.Parallel()
		policies := map[types.PolicyID]*ast.Policy{
			"good": ast.Permit().ActionEq(viewAction()),
			"bad":  ast.Forbid().When(ast.False()),
		}
		res := v.ValidatePolicies(maps.All(policies))
		testutil.Equals(t, res.Passed, false)
		testutil.Equals(t, len(res.Errors), 1)
		testutil.Equals(t, res.Errors[0].PolicyID, types.PolicyID("bad"))
	})
}

func TestOptionalAttributeWarnings(t *testing.T) {
	t.Parallel()
	v, err := validator.New(mustSchema(t, testSchema))
	testutil.OK(t, err)

	t.Run("UnguardedAccessWarns", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().
			ActionEq(viewAction()).
			When(ast.Principal().Access("level").GreaterThan(ast.Long(3)))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, true)
		testutil.Equals(t, res.PassedWithoutWarnings, false)
		testutil.Equals(t, len(res.Warnings), 1)
		testutil.Equals(t, res.Warnings[0].PolicyID, types.PolicyID("policy0"))
	})

	t.Run("HasGuardSuppresses", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().
			ActionEq(viewAction()).
			When(ast.Principal().Has("level").And(
				ast.Principal().Access("level").GreaterThan(ast.Long(3))))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, true)
		testutil.Equals(t, res.PassedWithoutWarnings, true)
	})

	t.Run("GuardForOtherAttributeStillWarns", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().
			ActionEq(viewAction()).
			When(ast.Principal().Has("department").And(
				ast.Principal().Access("level").GreaterThan(ast.Long(3))))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, true)
		testutil.Equals(t, res.PassedWithoutWarnings, false)
	})

	t.Run("GuardOnRightDoesNotCoverLeft", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().
			ActionEq(viewAction()).
			When(ast.Principal().Access("level").GreaterThan(ast.Long(3)).And(
				ast.Principal().Has("level")))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.PassedWithoutWarnings, false)
	})

	t.Run("OptionalContextAttribute", func(t *testing.T) {
		t.Parallel()
		p := ast.Permit().
			ActionEq(viewAction()).
			When(ast.Context().Access("mfa"))
		res := v.ValidatePolicies(onePolicy(p))
		testutil.Equals(t, res.Passed, true)
		testutil.Equals(t, res.PassedWithoutWarnings, false)

		guarded := ast.Permit().
			ActionEq(viewAction()).
			When(ast.Context().Has("mfa").And(ast.Context().Access("mfa")))
		res = v.ValidatePolicies(onePolicy(guarded))
		testutil.Equals(t, res.PassedWithoutWarnings, true)
	})
}

func TestMaxAttributeLevel(t *testing.T) {
	t.Parallel()
	v, err := validator.New(mustSchema(t, testSchema), validator.WithMaxAttributeLevel(1))
	testutil.OK(t, err)

	ok := ast.Permit().
		ActionEq(viewAction()).
		When(ast.Principal().Access("department").Equal(ast.String("eng")))
	res := v.ValidatePolicies(onePolicy(ok))
	testutil.Equals(t, res.Passed, true)

	deep := ast.Permit().
		ActionEq(viewAction()).
		When(ast.Resource().Access("owner").Access("department").Equal(ast.String("eng")))
	res = v.ValidatePolicies(onePolicy(deep))
	testutil.Equals(t, res.Passed, false)
}

func TestEmptySchemaImpossible(t *testing.T) {
	t.Parallel()
	v, err := validator.New(mustSchema(t, `{
		"entityTypes": {"User": {}},
		"actions": {"ping": {}}
	}`))
	testutil.OK(t, err)

	res := v.ValidatePolicies(onePolicy(ast.Permit()))
	testutil.Equals(t, res.Passed, false)
	testutil.Equals(t, strings.Contains(res.Errors[0].Message, "impossiblePolicy"), true)
}

func TestValidateEntities(t *testing.T) {
	t.Parallel()
	v, err := validator.New(mustSchema(t, testSchema))
	testutil.OK(t, err)

	alice := types.NewEntityUID("User", "alice")

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateEntities(types.EntityMap{
			alice: {
				UID:     alice,
				Parents: types.NewEntityUIDSet(types.NewEntityUID("Group", "staff")),
				Attributes: types.NewRecord(types.RecordMap{
					"department": types.String("eng"),
					"level":      types.Long(5),
				}),
			},
		})
		testutil.Equals(t, res.Valid, true)
	})

	t.Run("MissingRequiredAttribute", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateEntities(types.EntityMap{
			alice: {UID: alice},
		})
		testutil.Equals(t, res.Valid, false)
		testutil.Equals(t, res.Errors[0].EntityUID, alice)
	})

	t.Run("WrongAttributeType", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateEntities(types.EntityMap{
			alice: {
				UID:        alice,
				Attributes: types.NewRecord(types.RecordMap{"department": types.Long(7)}),
			},
		})
		testutil.Equals(t, res.Valid, false)
	})

	t.Run("DisallowedParentType", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateEntities(types.EntityMap{
			alice: {
				UID:        alice,
				Parents:    types.NewEntityUIDSet(types.NewEntityUID("Folder", "root")),
				Attributes: types.NewRecord(types.RecordMap{"department": types.String("eng")}),
			},
		})
		testutil.Equals(t, res.Valid, false)
	})

	t.Run("UnknownEntityType", func(t *testing.T) {
		t.Parallel()
		ghost := types.NewEntityUID("Ghost", "g")
		res := v.ValidateEntities(types.EntityMap{ghost: {UID: ghost}})
		testutil.Equals(t, res.Valid, false)
	})

	t.Run("StrictModeUndeclaredAttribute", func(t *testing.T) {
		t.Parallel()
		strict, err := validator.New(mustSchema(t, testSchema), validator.WithStrictEntityValidation())
		testutil.OK(t, err)
		entities := types.EntityMap{
			alice: {
				UID: alice,
				Attributes: types.NewRecord(types.RecordMap{
					"department": types.String("eng"),
					"nickname":   types.String("al"),
				}),
			},
		}
		testutil.Equals(t, strict.ValidateEntities(entities).Valid, false)
		testutil.Equals(t, v.ValidateEntities(entities).Valid, true)
	})
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()
	v, err := validator.New(mustSchema(t, testSchema))
	testutil.OK(t, err)

	alice := types.NewEntityUID("User", "alice")
	doc := types.NewEntityUID("Document", "readme")

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateRequest(alice, viewAction(), doc, types.NewRecord(types.RecordMap{"mfa": types.True}))
		testutil.Equals(t, res.Valid, true)
	})

	t.Run("OptionalContextOmitted", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateRequest(alice, deleteAction(), doc, types.Record{})
		testutil.Equals(t, res.Valid, true)
	})

	t.Run("UnknownAction", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateRequest(alice, types.NewEntityUID("Action", "fly"), doc, types.Record{})
		testutil.Equals(t, res.Valid, false)
	})

	t.Run("BadPrincipalType", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateRequest(doc, viewAction(), doc, types.Record{})
		testutil.Equals(t, res.Valid, false)
	})

	t.Run("BadResourceType", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateRequest(alice, viewAction(), alice, types.Record{})
		testutil.Equals(t, res.Valid, false)
	})

	t.Run("BadContextAttributeType", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateRequest(alice, viewAction(), doc, types.NewRecord(types.RecordMap{"mfa": types.Long(1)}))
		testutil.Equals(t, res.Valid, false)
	})
}

func TestConvenienceFunctions(t *testing.T) {
	t.Parallel()
	s := mustSchema(t, testSchema)

	res := validator.ValidatePolicies(s, onePolicy(ast.Permit().ActionEq(viewAction())))
	testutil.Equals(t, res.Passed, true)

	alice := types.NewEntityUID("User", "alice")
	eres := validator.ValidateEntities(s, types.EntityMap{alice: {UID: alice}})
	testutil.Equals(t, eres.Valid, false)

	rres := validator.ValidateRequest(s, alice, viewAction(), types.NewEntityUID("Document", "d"), types.Record{})
	testutil.Equals(t, rres.Valid, true)
}
