package eval

import (
	"math"
	"testing"

	"github.com/gavel-authz/gavel/ast"
	"github.com/gavel-authz/gavel/internal/mapset"
	"github.com/gavel-authz/gavel/internal/testutil"
	"github.com/gavel-authz/gavel/types"
)

func testEnv(entities types.EntityMap) Env {
	return Env{
		Entities:  entities,
		Principal: types.NewEntityUID("User", "alice"),
		Action:    types.NewEntityUID("Action", "view"),
		Resource:  types.NewEntityUID("Document", "report.pdf"),
		Context:   types.NewRecord(types.RecordMap{"mfa": types.True}),
	}
}

func newEntity(uid types.EntityUID, parents []types.EntityUID, attrs types.RecordMap) types.Entity {
	return types.Entity{
		UID:        uid,
		Parents:    types.NewEntityUIDSet(parents...),
		Attributes: types.NewRecord(attrs),
	}
}

func TestLiteralAndVariable(t *testing.T) {
	t.Parallel()
	env := testEnv(nil)

	t.Run("Literal", func(t *testing.T) {
		t.Parallel()
		v, err := newLiteralEval(types.Long(42)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.Long(42)))
	})

	t.Run("Principal", func(t *testing.T) {
		t.Parallel()
		v, err := newVariableEval("principal").Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(env.Principal))
	})

	t.Run("Action", func(t *testing.T) {
		t.Parallel()
		v, err := newVariableEval("action").Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(env.Action))
	})

	t.Run("Resource", func(t *testing.T) {
		t.Parallel()
		v, err := newVariableEval("resource").Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(env.Resource))
	})

	t.Run("Context", func(t *testing.T) {
		t.Parallel()
		v, err := newVariableEval("context").Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, env.Context)
	})

	t.Run("NilContextDefaultsToEmptyRecord", func(t *testing.T) {
		t.Parallel()
		bare := env
		bare.Context = nil
		v, err := newVariableEval("context").Eval(bare)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.Record{}))
	})

	t.Run("UnknownVariable", func(t *testing.T) {
		t.Parallel()
		_, err := newVariableEval("bogus").Eval(env)
		testutil.ErrorIs(t, err, ErrUnknownVariable)
	})
}

func TestAttributeAccess(t *testing.T) {
	t.Parallel()

	doc := types.NewEntityUID("Document", "report.pdf")
	entities := types.EntityMap{
		doc: newEntity(doc, nil, types.RecordMap{"owner": types.String("alice")}),
	}
	env := testEnv(entities)

	t.Run("EntityAttribute", func(t *testing.T) {
		t.Parallel()
		e := newAttributeAccessEval(newLiteralEval(doc), "owner")
		v, err := e.Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.String("alice")))
	})

	t.Run("RecordAttribute", func(t *testing.T) {
		t.Parallel()
		rec := types.NewRecord(types.RecordMap{"k": types.Long(7)})
		e := newAttributeAccessEval(newLiteralEval(rec), "k")
		v, err := e.Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.Long(7)))
	})

	t.Run("MissingAttribute", func(t *testing.T) {
		t.Parallel()
		e := newAttributeAccessEval(newLiteralEval(doc), "missing")
		_, err := e.Eval(env)
		testutil.ErrorIs(t, err, ErrAttributeAccess)
	})

	t.Run("UnknownEntityHasNoAttributes", func(t *testing.T) {
		t.Parallel()
		ghost := types.NewEntityUID("Document", "ghost")
		e := newAttributeAccessEval(newLiteralEval(ghost), "owner")
		_, err := e.Eval(env)
		testutil.ErrorIs(t, err, ErrAttributeAccess)
	})

	t.Run("TypeError", func(t *testing.T) {
		t.Parallel()
		e := newAttributeAccessEval(newLiteralEval(types.Long(1)), "owner")
		_, err := e.Eval(env)
		testutil.ErrorIs(t, err, ErrType)
	})
}

func TestHas(t *testing.T) {
	t.Parallel()

	doc := types.NewEntityUID("Document", "report.pdf")
	entities := types.EntityMap{
		doc: newEntity(doc, nil, types.RecordMap{"owner": types.String("alice")}),
	}
	env := testEnv(entities)

	tests := []struct {
		name   string
		object types.Value
		attr   types.String
		want   types.Boolean
	}{
		{"EntityHas", doc, "owner", true},
		{"EntityHasNot", doc, "missing", false},
		{"UnknownEntity", types.NewEntityUID("Document", "ghost"), "owner", false},
		{"RecordHas", types.NewRecord(types.RecordMap{"k": types.Long(1)}), "k", true},
		{"RecordHasNot", types.NewRecord(nil), "k", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := newHasEval(newLiteralEval(tt.object), tt.attr).Eval(env)
			testutil.OK(t, err)
			testutil.Equals(t, v, types.Value(tt.want))
		})
	}

	t.Run("TypeError", func(t *testing.T) {
		t.Parallel()
		_, err := newHasEval(newLiteralEval(types.Long(1)), "k").Eval(env)
		testutil.ErrorIs(t, err, ErrType)
	})
}

func TestBooleanOps(t *testing.T) {
	t.Parallel()
	env := testEnv(nil)

	errEval := newAttributeAccessEval(newLiteralEval(types.Long(1)), "x")

	t.Run("Not", func(t *testing.T) {
		t.Parallel()
		v, err := newNotEval(newLiteralEval(types.True)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.False))
	})

	t.Run("AndShortCircuitSkipsError", func(t *testing.T) {
		t.Parallel()
		v, err := newAndEval(newLiteralEval(types.False), errEval).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.False))
	})

	t.Run("AndEvaluatesRight", func(t *testing.T) {
		t.Parallel()
		_, err := newAndEval(newLiteralEval(types.True), errEval).Eval(env)
		testutil.Error(t, err)
	})

	t.Run("AndRightMustBeBool", func(t *testing.T) {
		t.Parallel()
		_, err := newAndEval(newLiteralEval(types.True), newLiteralEval(types.Long(1))).Eval(env)
		testutil.ErrorIs(t, err, ErrType)
	})

	t.Run("OrShortCircuitSkipsError", func(t *testing.T) {
		t.Parallel()
		v, err := newOrEval(newLiteralEval(types.True), errEval).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("OrEvaluatesRight", func(t *testing.T) {
		t.Parallel()
		v, err := newOrEval(newLiteralEval(types.False), newLiteralEval(types.True)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("NotTypeError", func(t *testing.T) {
		t.Parallel()
		_, err := newNotEval(newLiteralEval(types.String("x"))).Eval(env)
		testutil.ErrorIs(t, err, ErrType)
	})
}

func TestEquality(t *testing.T) {
	t.Parallel()
	env := testEnv(nil)

	tests := []struct {
		name string
		lhs  types.Value
		rhs  types.Value
		want types.Boolean
	}{
		{"LongEqual", types.Long(1), types.Long(1), true},
		{"LongNotEqual", types.Long(1), types.Long(2), false},
		{"CrossTypeNotEqual", types.Long(1), types.String("1"), false},
		{"EntityEqual", types.NewEntityUID("User", "a"), types.NewEntityUID("User", "a"), true},
		{"SetEqualUnordered", types.NewSet(types.Long(1), types.Long(2)), types.NewSet(types.Long(2), types.Long(1)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := newEqualEval(newLiteralEval(tt.lhs), newLiteralEval(tt.rhs)).Eval(env)
			testutil.OK(t, err)
			testutil.Equals(t, v, types.Value(tt.want))

			v, err = newNotEqualEval(newLiteralEval(tt.lhs), newLiteralEval(tt.rhs)).Eval(env)
			testutil.OK(t, err)
			testutil.Equals(t, v, types.Value(!tt.want))
		})
	}
}

func TestComparisonsAndArithmetic(t *testing.T) {
	t.Parallel()
	env := testEnv(nil)

	t.Run("LessThan", func(t *testing.T) {
		t.Parallel()
		v, err := newLessThanEval(newLiteralEval(types.Long(1)), newLiteralEval(types.Long(2))).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("GreaterThanOrEqual", func(t *testing.T) {
		t.Parallel()
		v, err := newGreaterThanOrEqualEval(newLiteralEval(types.Long(2)), newLiteralEval(types.Long(2))).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("OrderingOnStringsIsTypeError", func(t *testing.T) {
		t.Parallel()
		_, err := newLessThanEval(newLiteralEval(types.String("a")), newLiteralEval(types.String("b"))).Eval(env)
		testutil.ErrorIs(t, err, ErrType)
	})

	t.Run("Add", func(t *testing.T) {
		t.Parallel()
		v, err := newAddEval(newLiteralEval(types.Long(40)), newLiteralEval(types.Long(2))).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.Long(42)))
	})

	t.Run("AddOverflow", func(t *testing.T) {
		t.Parallel()
		_, err := newAddEval(newLiteralEval(types.Long(math.MaxInt64)), newLiteralEval(types.Long(1))).Eval(env)
		testutil.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("SubtractOverflow", func(t *testing.T) {
		t.Parallel()
		_, err := newSubtractEval(newLiteralEval(types.Long(math.MinInt64)), newLiteralEval(types.Long(1))).Eval(env)
		testutil.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("Multiply", func(t *testing.T) {
		t.Parallel()
		v, err := newMultiplyEval(newLiteralEval(types.Long(6)), newLiteralEval(types.Long(7))).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.Long(42)))
	})

	t.Run("MultiplyOverflow", func(t *testing.T) {
		t.Parallel()
		_, err := newMultiplyEval(newLiteralEval(types.Long(math.MaxInt64)), newLiteralEval(types.Long(2))).Eval(env)
		testutil.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("NegateOverflow", func(t *testing.T) {
		t.Parallel()
		_, err := newNegateEval(newLiteralEval(types.Long(math.MinInt64))).Eval(env)
		testutil.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("Negate", func(t *testing.T) {
		t.Parallel()
		v, err := newNegateEval(newLiteralEval(types.Long(5))).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.Long(-5)))
	})
}

func TestSetOps(t *testing.T) {
	t.Parallel()
	env := testEnv(nil)

	set := types.NewSet(types.Long(1), types.Long(2), types.Long(3))

	t.Run("Contains", func(t *testing.T) {
		t.Parallel()
		v, err := newContainsEval(newLiteralEval(set), newLiteralEval(types.Long(2))).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("ContainsNot", func(t *testing.T) {
		t.Parallel()
		v, err := newContainsEval(newLiteralEval(set), newLiteralEval(types.Long(9))).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.False))
	})

	t.Run("ContainsAll", func(t *testing.T) {
		t.Parallel()
		sub := types.NewSet(types.Long(1), types.Long(3))
		v, err := newContainsAllEval(newLiteralEval(set), newLiteralEval(sub)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("ContainsAllMissing", func(t *testing.T) {
		t.Parallel()
		sub := types.NewSet(types.Long(1), types.Long(9))
		v, err := newContainsAllEval(newLiteralEval(set), newLiteralEval(sub)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.False))
	})

	t.Run("ContainsAny", func(t *testing.T) {
		t.Parallel()
		other := types.NewSet(types.Long(9), types.Long(3))
		v, err := newContainsAnyEval(newLiteralEval(set), newLiteralEval(other)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("ContainsOnNonSet", func(t *testing.T) {
		t.Parallel()
		_, err := newContainsEval(newLiteralEval(types.Long(1)), newLiteralEval(types.Long(1))).Eval(env)
		testutil.ErrorIs(t, err, ErrType)
	})
}

func hierarchyEntities() types.EntityMap {
	alice := types.NewEntityUID("User", "alice")
	eng := types.NewEntityUID("Group", "engineering")
	all := types.NewEntityUID("Group", "everyone")
	return types.EntityMap{
		alice: newEntity(alice, []types.EntityUID{eng}, nil),
		eng:   newEntity(eng, []types.EntityUID{all}, nil),
		all:   newEntity(all, nil, nil),
	}
}

func TestIn(t *testing.T) {
	t.Parallel()

	alice := types.NewEntityUID("User", "alice")
	eng := types.NewEntityUID("Group", "engineering")
	all := types.NewEntityUID("Group", "everyone")
	env := testEnv(hierarchyEntities())

	t.Run("Reflexive", func(t *testing.T) {
		t.Parallel()
		v, err := newInEval(newLiteralEval(alice), newLiteralEval(alice)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("DirectParent", func(t *testing.T) {
		t.Parallel()
		v, err := newInEval(newLiteralEval(alice), newLiteralEval(eng)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("TransitiveAncestor", func(t *testing.T) {
		t.Parallel()
		v, err := newInEval(newLiteralEval(alice), newLiteralEval(all)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("NotAnAncestor", func(t *testing.T) {
		t.Parallel()
		v, err := newInEval(newLiteralEval(all), newLiteralEval(alice)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.False))
	})

	t.Run("SetRHS", func(t *testing.T) {
		t.Parallel()
		rhs := types.NewSet(types.NewEntityUID("Group", "other"), all)
		v, err := newInEval(newLiteralEval(alice), newLiteralEval(rhs)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("SetRHSWithNonEntity", func(t *testing.T) {
		t.Parallel()
		rhs := types.NewSet(types.Long(1))
		_, err := newInEval(newLiteralEval(alice), newLiteralEval(rhs)).Eval(env)
		testutil.ErrorIs(t, err, ErrType)
	})

	t.Run("NonEntityRHS", func(t *testing.T) {
		t.Parallel()
		_, err := newInEval(newLiteralEval(alice), newLiteralEval(types.Long(1))).Eval(env)
		testutil.ErrorIs(t, err, ErrType)
	})

	t.Run("UnknownEntityHasNoParents", func(t *testing.T) {
		t.Parallel()
		ghost := types.NewEntityUID("User", "ghost")
		v, err := newInEval(newLiteralEval(ghost), newLiteralEval(eng)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.False))
	})

	t.Run("CyclicGraphTerminates", func(t *testing.T) {
		t.Parallel()
		a := types.NewEntityUID("Group", "a")
		b := types.NewEntityUID("Group", "b")
		cyclic := types.EntityMap{
			a: newEntity(a, []types.EntityUID{b}, nil),
			b: newEntity(b, []types.EntityUID{a}, nil),
		}
		cenv := testEnv(cyclic)
		v, err := newInEval(newLiteralEval(a), newLiteralEval(eng)).Eval(cenv)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.False))
	})

	t.Run("DepthLimit", func(t *testing.T) {
		t.Parallel()
		limited := testEnv(hierarchyEntities())
		limited.Limits = Limits{MaxEntityGraphDepth: 1}
		_, err := newInEval(newLiteralEval(alice), newLiteralEval(all)).Eval(limited)
		testutil.ErrorIs(t, err, ErrEntityDepthExceeded)
	})

	t.Run("CachedGetterFastPath", func(t *testing.T) {
		t.Parallel()
		getter, err := types.NewCachedEntityGetter(hierarchyEntities())
		testutil.OK(t, err)
		cenv := testEnv(nil)
		cenv.Entities = getter
		v, err := newInEval(newLiteralEval(alice), newLiteralEval(all)).Eval(cenv)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})
}

func TestIsAndIsIn(t *testing.T) {
	t.Parallel()

	alice := types.NewEntityUID("User", "alice")
	eng := types.NewEntityUID("Group", "engineering")
	env := testEnv(hierarchyEntities())

	t.Run("IsMatch", func(t *testing.T) {
		t.Parallel()
		v, err := newIsEval(newLiteralEval(alice), "User").Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("IsMismatch", func(t *testing.T) {
		t.Parallel()
		v, err := newIsEval(newLiteralEval(alice), "Group").Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.False))
	})

	t.Run("IsInMatch", func(t *testing.T) {
		t.Parallel()
		v, err := newIsInEval(newLiteralEval(alice), "User", newLiteralEval(eng)).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.True))
	})

	t.Run("IsInTypeMismatchShortCircuits", func(t *testing.T) {
		t.Parallel()
		v, err := newIsInEval(newLiteralEval(alice), "Group", newLiteralEval(types.Long(1))).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.False))
	})
}

func TestIfThenElse(t *testing.T) {
	t.Parallel()
	env := testEnv(nil)

	t.Run("Then", func(t *testing.T) {
		t.Parallel()
		v, err := newIfThenElseEval(newLiteralEval(types.True), newLiteralEval(types.Long(1)), newLiteralEval(types.Long(2))).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.Long(1)))
	})

	t.Run("Else", func(t *testing.T) {
		t.Parallel()
		v, err := newIfThenElseEval(newLiteralEval(types.False), newLiteralEval(types.Long(1)), newLiteralEval(types.Long(2))).Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.Long(2)))
	})

	t.Run("NonBoolCondition", func(t *testing.T) {
		t.Parallel()
		_, err := newIfThenElseEval(newLiteralEval(types.Long(0)), newLiteralEval(types.Long(1)), newLiteralEval(types.Long(2))).Eval(env)
		testutil.ErrorIs(t, err, ErrType)
	})
}

func TestLiteralCollections(t *testing.T) {
	t.Parallel()
	env := testEnv(nil)

	t.Run("SetLiteral", func(t *testing.T) {
		t.Parallel()
		e := newSetLiteralEval([]Evaler{newLiteralEval(types.Long(1)), newLiteralEval(types.Long(2))})
		v, err := e.Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.NewSet(types.Long(1), types.Long(2))))
	})

	t.Run("RecordLiteral", func(t *testing.T) {
		t.Parallel()
		e := newRecordLiteralEval(map[types.String]Evaler{"k": newLiteralEval(types.Long(1))})
		v, err := e.Eval(env)
		testutil.OK(t, err)
		testutil.Equals(t, v, types.Value(types.NewRecord(types.RecordMap{"k": types.Long(1)})))
	})
}

func TestToEval(t *testing.T) {
	t.Parallel()

	doc := types.NewEntityUID("Document", "report.pdf")
	entities := types.EntityMap{
		doc: newEntity(doc, nil, types.RecordMap{"owner": types.String("alice")}),
	}
	env := testEnv(entities)

	tests := []struct {
		name string
		node ast.Node
		want types.Value
	}{
		{"AccessEqual", ast.Resource().Access("owner").Equal(ast.String("alice")), types.True},
		{"HasAnd", ast.Resource().Has("owner").And(ast.True()), types.True},
		{"Arithmetic", ast.Long(2).Multiply(ast.Long(3)).Add(ast.Long(4)), types.Long(10)},
		{"Comparison", ast.Long(1).LessThanOrEqual(ast.Long(1)), types.True},
		{"NotPrincipalIs", ast.Not(ast.Principal().Is("Robot")), types.True},
		{"IfThenElse", ast.IfThenElse(ast.False(), ast.Long(1), ast.Long(2)), types.Long(2)},
		{"SetContains", ast.Set(ast.Long(1), ast.Long(2)).Contains(ast.Long(2)), types.True},
		{"RecordAccess", ast.Record(ast.Pairs{{Key: "a", Value: ast.Long(5)}}).Access("a"), types.Long(5)},
		{"ContextAccess", ast.Context().Access("mfa"), types.True},
		{"Negate", ast.Negate(ast.Long(3)), types.Long(-3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := ToEval(tt.node.AsIsNode()).Eval(env)
			testutil.OK(t, err)
			testutil.Equals(t, v, tt.want)
		})
	}
}

func TestScopeMatch(t *testing.T) {
	t.Parallel()

	alice := types.NewEntityUID("User", "alice")
	eng := types.NewEntityUID("Group", "engineering")
	all := types.NewEntityUID("Group", "everyone")
	env := testEnv(hierarchyEntities())

	tests := []struct {
		name  string
		ent   types.EntityUID
		scope ast.IsScopeNode
		want  bool
	}{
		{"All", alice, ast.Scope{}.All(), true},
		{"EqMatch", alice, ast.Scope{}.Eq(alice), true},
		{"EqMismatch", alice, ast.Scope{}.Eq(eng), false},
		{"InDirect", alice, ast.Scope{}.In(eng), true},
		{"InTransitive", alice, ast.Scope{}.In(all), true},
		{"InMismatch", eng, ast.Scope{}.In(alice), false},
		{"InSetMatch", alice, ast.Scope{}.InSet([]types.EntityUID{eng, all}), true},
		{"InSetMismatch", all, ast.Scope{}.InSet([]types.EntityUID{alice}), false},
		{"IsMatch", alice, ast.Scope{}.Is("User"), true},
		{"IsMismatch", alice, ast.Scope{}.Is("Group"), false},
		{"IsInMatch", alice, ast.Scope{}.IsIn("User", eng), true},
		{"IsInTypeMismatch", alice, ast.Scope{}.IsIn("Group", eng), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ScopeMatch(env, tt.ent, tt.scope)
			testutil.OK(t, err)
			testutil.Equals(t, got, tt.want)
		})
	}
}

func TestHierarchyVisitedSet(t *testing.T) {
	t.Parallel()

	// Diamond: alice -> {teamA, teamB} -> org. The visited set must not
	// terminate the walk before org is reached through the second branch.
	alice := types.NewEntityUID("User", "alice")
	teamA := types.NewEntityUID("Group", "teamA")
	teamB := types.NewEntityUID("Group", "teamB")
	org := types.NewEntityUID("Org", "acme")
	entities := types.EntityMap{
		alice: newEntity(alice, []types.EntityUID{teamA, teamB}, nil),
		teamA: newEntity(teamA, nil, nil),
		teamB: newEntity(teamB, []types.EntityUID{org}, nil),
		org:   newEntity(org, nil, nil),
	}
	env := testEnv(entities)

	got, err := entityInOne(env, alice, org)
	testutil.OK(t, err)
	testutil.Equals(t, got, true)

	set := mapset.FromSlice([]types.EntityUID{org})
	got, err = entityInSet(env, alice, set)
	testutil.OK(t, err)
	testutil.Equals(t, got, true)
}
