// Package eval compiles condition expression nodes into evaluators and runs
// them against a request environment.
package eval

import (
	"errors"
	"fmt"

	"github.com/gavel-authz/gavel/types"
)

// Evaluation errors. Condition errors never abort an authorization; callers
// record them and treat the failing policy as not satisfied.
var (
	ErrType            = errors.New("type error")
	ErrAttributeAccess = errors.New("does not have the attribute")
	ErrOverflow        = errors.New("integer overflow")
	ErrUnknownVariable = errors.New("unknown variable")
)

// Env is the environment a single request is evaluated in. Entities is shared
// read-only state; the remaining fields bind the request variables.
type Env struct {
	Entities  types.EntityGetter
	Principal types.EntityUID
	Action    types.EntityUID
	Resource  types.EntityUID
	Context   types.Value
	Limits    Limits
}

// Evaler is the interface implemented by all compiled expression nodes.
type Evaler interface {
	Eval(Env) (types.Value, error)
}

func zeroValue() types.Value {
	return nil
}

// TypeName returns a human-readable name for a value's type, used in error
// messages.
func TypeName(v types.Value) string {
	switch v.(type) {
	case types.Boolean:
		return "bool"
	case types.Long:
		return "long"
	case types.String:
		return "string"
	case types.Set:
		return "set"
	case types.Record:
		return "record"
	case types.EntityUID:
		return "entity"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ValueToBool coerces a value to a Boolean or returns a type error.
func ValueToBool(v types.Value) (types.Boolean, error) {
	bv, ok := v.(types.Boolean)
	if !ok {
		return false, fmt.Errorf("%w: expected bool, got %v", ErrType, TypeName(v))
	}
	return bv, nil
}

// ValueToLong coerces a value to a Long or returns a type error.
func ValueToLong(v types.Value) (types.Long, error) {
	lv, ok := v.(types.Long)
	if !ok {
		return 0, fmt.Errorf("%w: expected long, got %v", ErrType, TypeName(v))
	}
	return lv, nil
}

// ValueToString coerces a value to a String or returns a type error.
func ValueToString(v types.Value) (types.String, error) {
	sv, ok := v.(types.String)
	if !ok {
		return "", fmt.Errorf("%w: expected string, got %v", ErrType, TypeName(v))
	}
	return sv, nil
}

// ValueToSet coerces a value to a Set or returns a type error.
func ValueToSet(v types.Value) (types.Set, error) {
	sv, ok := v.(types.Set)
	if !ok {
		return types.Set{}, fmt.Errorf("%w: expected set, got %v", ErrType, TypeName(v))
	}
	return sv, nil
}

// ValueToRecord coerces a value to a Record or returns a type error.
func ValueToRecord(v types.Value) (types.Record, error) {
	rv, ok := v.(types.Record)
	if !ok {
		return types.Record{}, fmt.Errorf("%w: expected record, got %v", ErrType, TypeName(v))
	}
	return rv, nil
}

// ValueToEntity coerces a value to an EntityUID or returns a type error.
func ValueToEntity(v types.Value) (types.EntityUID, error) {
	ev, ok := v.(types.EntityUID)
	if !ok {
		return types.EntityUID{}, fmt.Errorf("%w: expected entity, got %v", ErrType, TypeName(v))
	}
	return ev, nil
}

func evalBool(n Evaler, env Env) (types.Boolean, error) {
	v, err := n.Eval(env)
	if err != nil {
		return false, err
	}
	return ValueToBool(v)
}

func evalLong(n Evaler, env Env) (types.Long, error) {
	v, err := n.Eval(env)
	if err != nil {
		return 0, err
	}
	return ValueToLong(v)
}

func evalString(n Evaler, env Env) (types.String, error) {
	v, err := n.Eval(env)
	if err != nil {
		return "", err
	}
	return ValueToString(v)
}

func evalSet(n Evaler, env Env) (types.Set, error) {
	v, err := n.Eval(env)
	if err != nil {
		return types.Set{}, err
	}
	return ValueToSet(v)
}

func evalEntity(n Evaler, env Env) (types.EntityUID, error) {
	v, err := n.Eval(env)
	if err != nil {
		return types.EntityUID{}, err
	}
	return ValueToEntity(v)
}
