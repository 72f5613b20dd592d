package gavel_test

import (
	"strings"
	"testing"

	"github.com/gavel-authz/gavel"
	"github.com/gavel-authz/gavel/internal/testutil"
	"github.com/gavel-authz/gavel/types"
)

func TestNewEntities(t *testing.T) {
	t.Parallel()

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()
		entities, err := gavel.NewEntities([]types.Entity{
			newEntity(alice, []types.EntityUID{admins}, nil),
			newEntity(admins, nil, nil),
		}, nil)
		testutil.OK(t, err)
		testutil.Equals(t, entities.Len(), 2)
		got, ok := entities.Get(alice)
		testutil.Equals(t, ok, true)
		testutil.Equals(t, got.Parents.Contains(admins), true)
	})

	t.Run("DuplicateUID", func(t *testing.T) {
		t.Parallel()
		_, err := gavel.NewEntities([]types.Entity{
			newEntity(alice, nil, nil),
			newEntity(alice, nil, nil),
		}, nil)
		testutil.ErrorIs(t, err, gavel.ErrDuplicateEntity)
	})

	t.Run("SchemaMismatchNamesUID", func(t *testing.T) {
		t.Parallel()
		s := mustAuthzSchema(t)
		_, err := gavel.NewEntities([]types.Entity{
			newEntity(report, nil, types.RecordMap{"owner": types.String("alice")}),
		}, s)
		testutil.ErrorIs(t, err, gavel.ErrEntitySchemaMismatch)
		testutil.Equals(t, strings.Contains(err.Error(), report.String()), true)
	})

	t.Run("SchemaValid", func(t *testing.T) {
		t.Parallel()
		s := mustAuthzSchema(t)
		entities, err := gavel.NewEntities([]types.Entity{
			newEntity(alice, []types.EntityUID{admins}, types.RecordMap{"level": types.Long(3)}),
			newEntity(report, nil, types.RecordMap{"owner": alice}),
		}, s)
		testutil.OK(t, err)
		testutil.Equals(t, entities.Len(), 2)
	})

	t.Run("CyclicHierarchyAccepted", func(t *testing.T) {
		t.Parallel()
		a := types.NewEntityUID("Group", "a")
		b := types.NewEntityUID("Group", "b")
		entities, err := gavel.NewEntities([]types.Entity{
			newEntity(a, []types.EntityUID{b}, nil),
			newEntity(b, []types.EntityUID{a}, nil),
		}, nil)
		testutil.OK(t, err)
		// The cycle surfaces from ancestor resolution, not construction.
		_, err = gavel.IsAncestor(entities, types.NewEntityUID("Group", "other"), a)
		testutil.ErrorIs(t, err, types.ErrCyclicHierarchy)
	})
}

func TestIsAncestor(t *testing.T) {
	t.Parallel()
	eng := types.NewEntityUID("Group", "engineering")
	all := types.NewEntityUID("Group", "everyone")
	entities, err := gavel.NewEntities([]types.Entity{
		newEntity(alice, []types.EntityUID{eng}, nil),
		newEntity(eng, []types.EntityUID{all}, nil),
		newEntity(all, nil, nil),
		newEntity(bob, nil, nil),
	}, nil)
	testutil.OK(t, err)

	t.Run("Reflexive", func(t *testing.T) {
		t.Parallel()
		ok, err := gavel.IsAncestor(entities, alice, alice)
		testutil.OK(t, err)
		testutil.Equals(t, ok, true)
	})

	t.Run("DirectParent", func(t *testing.T) {
		t.Parallel()
		ok, err := gavel.IsAncestor(entities, eng, alice)
		testutil.OK(t, err)
		testutil.Equals(t, ok, true)
	})

	t.Run("Transitive", func(t *testing.T) {
		t.Parallel()
		ok, err := gavel.IsAncestor(entities, all, alice)
		testutil.OK(t, err)
		testutil.Equals(t, ok, true)
	})

	t.Run("NotAnAncestor", func(t *testing.T) {
		t.Parallel()
		ok, err := gavel.IsAncestor(entities, alice, all)
		testutil.OK(t, err)
		testutil.Equals(t, ok, false)
	})

	t.Run("AbsentEntityHasNoParents", func(t *testing.T) {
		t.Parallel()
		ghost := types.NewEntityUID("User", "ghost")
		ok, err := gavel.IsAncestor(entities, eng, ghost)
		testutil.OK(t, err)
		testutil.Equals(t, ok, false)
	})

	t.Run("DiamondIsNotACycle", func(t *testing.T) {
		t.Parallel()
		left := types.NewEntityUID("Group", "left")
		right := types.NewEntityUID("Group", "right")
		top := types.NewEntityUID("Group", "top")
		diamond, err := gavel.NewEntities([]types.Entity{
			newEntity(bob, []types.EntityUID{left, right}, nil),
			newEntity(left, []types.EntityUID{top}, nil),
			newEntity(right, []types.EntityUID{top}, nil),
		}, nil)
		testutil.OK(t, err)
		ok, err := gavel.IsAncestor(diamond, top, bob)
		testutil.OK(t, err)
		testutil.Equals(t, ok, true)
		ok, err = gavel.IsAncestor(diamond, alice, bob)
		testutil.OK(t, err)
		testutil.Equals(t, ok, false)
	})

	t.Run("CycleOnPathErrors", func(t *testing.T) {
		t.Parallel()
		a := types.NewEntityUID("Group", "a")
		b := types.NewEntityUID("Group", "b")
		cyclic, err := gavel.NewEntities([]types.Entity{
			newEntity(a, []types.EntityUID{b}, nil),
			newEntity(b, []types.EntityUID{a}, nil),
		}, nil)
		testutil.OK(t, err)
		_, err = gavel.IsAncestor(cyclic, all, a)
		testutil.ErrorIs(t, err, types.ErrCyclicHierarchy)
	})

	t.Run("FoundBeforeCycle", func(t *testing.T) {
		t.Parallel()
		a := types.NewEntityUID("Group", "a")
		b := types.NewEntityUID("Group", "b")
		cyclic, err := gavel.NewEntities([]types.Entity{
			newEntity(a, []types.EntityUID{b}, nil),
			newEntity(b, []types.EntityUID{a}, nil),
		}, nil)
		testutil.OK(t, err)
		ok, err := gavel.IsAncestor(cyclic, b, a)
		testutil.OK(t, err)
		testutil.Equals(t, ok, true)
	})
}
