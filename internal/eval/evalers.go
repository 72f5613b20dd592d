package eval

import (
	"fmt"

	"github.com/gavel-authz/gavel/internal/consts"
	"github.com/gavel-authz/gavel/internal/mapset"
	"github.com/gavel-authz/gavel/types"
)

func checkedAddI64(lhs, rhs types.Long) (types.Long, bool) {
	result := lhs + rhs
	if (result > lhs) == (rhs > 0) {
		return result, true
	}
	return result, false
}

func checkedSubI64(lhs, rhs types.Long) (types.Long, bool) {
	result := lhs - rhs
	if (result < lhs) == (rhs > 0) {
		return result, true
	}
	return result, false
}

func checkedMulI64(lhs, rhs types.Long) (types.Long, bool) {
	if lhs == 0 || rhs == 0 {
		return 0, true
	}
	result := lhs * rhs
	if (result < 0) != ((lhs < 0) != (rhs < 0)) {
		return result, false
	}
	if result/lhs != rhs {
		return result, false
	}
	return result, true
}

// literalEval
type literalEval struct {
	value types.Value
}

func newLiteralEval(value types.Value) *literalEval {
	return &literalEval{value: value}
}

func (n *literalEval) Eval(_ Env) (types.Value, error) {
	return n.value, nil
}

// variableEval
type variableEval struct {
	name types.String
}

func newVariableEval(name types.String) *variableEval {
	return &variableEval{name: name}
}

func (n *variableEval) Eval(env Env) (types.Value, error) {
	switch n.name {
	case consts.Principal:
		return env.Principal, nil
	case consts.Action:
		return env.Action, nil
	case consts.Resource:
		return env.Resource, nil
	case consts.Context:
		if env.Context == nil {
			return types.Record{}, nil
		}
		return env.Context, nil
	default:
		return zeroValue(), fmt.Errorf("%w: %s", ErrUnknownVariable, n.name)
	}
}

// attributeAccessEval
type attributeAccessEval struct {
	object    Evaler
	attribute types.String
}

func newAttributeAccessEval(object Evaler, attribute types.String) *attributeAccessEval {
	return &attributeAccessEval{object: object, attribute: attribute}
}

func (n *attributeAccessEval) Eval(env Env) (types.Value, error) {
	v, err := n.object.Eval(env)
	if err != nil {
		return zeroValue(), err
	}
	var record types.Record
	switch vv := v.(type) {
	case types.EntityUID:
		// An entity that is not in the store behaves as if it has no
		// attributes.
		if env.Entities != nil {
			if ent, ok := env.Entities.Get(vv); ok {
				record = ent.Attributes
			}
		}
	case types.Record:
		record = vv
	default:
		return zeroValue(), fmt.Errorf("%w: expected one of [record, entity], got %v", ErrType, TypeName(v))
	}
	val, ok := record.Get(n.attribute)
	if !ok {
		return zeroValue(), fmt.Errorf("`%s` %w `%s`", v.String(), ErrAttributeAccess, n.attribute)
	}
	return val, nil
}

// hasEval
type hasEval struct {
	object    Evaler
	attribute types.String
}

func newHasEval(object Evaler, attribute types.String) *hasEval {
	return &hasEval{object: object, attribute: attribute}
}

func (n *hasEval) Eval(env Env) (types.Value, error) {
	v, err := n.object.Eval(env)
	if err != nil {
		return zeroValue(), err
	}
	var record types.Record
	switch vv := v.(type) {
	case types.EntityUID:
		if env.Entities != nil {
			if ent, ok := env.Entities.Get(vv); ok {
				record = ent.Attributes
			}
		}
	case types.Record:
		record = vv
	default:
		return zeroValue(), fmt.Errorf("%w: expected one of [record, entity], got %v", ErrType, TypeName(v))
	}
	return types.Boolean(record.Has(n.attribute)), nil
}

// notEval
type notEval struct {
	inner Evaler
}

func newNotEval(inner Evaler) *notEval {
	return &notEval{inner: inner}
}

func (n *notEval) Eval(env Env) (types.Value, error) {
	b, err := evalBool(n.inner, env)
	if err != nil {
		return zeroValue(), err
	}
	return !b, nil
}

// negateEval
type negateEval struct {
	inner Evaler
}

func newNegateEval(inner Evaler) *negateEval {
	return &negateEval{inner: inner}
}

func (n *negateEval) Eval(env Env) (types.Value, error) {
	l, err := evalLong(n.inner, env)
	if err != nil {
		return zeroValue(), err
	}
	res, ok := checkedSubI64(0, l)
	if !ok {
		return zeroValue(), fmt.Errorf("%w while negating %d", ErrOverflow, l)
	}
	return res, nil
}

// andEval
type andEval struct {
	lhs Evaler
	rhs Evaler
}

func newAndEval(lhs, rhs Evaler) *andEval {
	return &andEval{lhs: lhs, rhs: rhs}
}

func (n *andEval) Eval(env Env) (types.Value, error) {
	b, err := evalBool(n.lhs, env)
	if err != nil {
		return zeroValue(), err
	}
	if !b {
		return types.False, nil
	}
	return evalBool(n.rhs, env)
}

// orEval
type orEval struct {
	lhs Evaler
	rhs Evaler
}

func newOrEval(lhs, rhs Evaler) *orEval {
	return &orEval{lhs: lhs, rhs: rhs}
}

func (n *orEval) Eval(env Env) (types.Value, error) {
	b, err := evalBool(n.lhs, env)
	if err != nil {
		return zeroValue(), err
	}
	if b {
		return types.True, nil
	}
	return evalBool(n.rhs, env)
}

// equalEval
type equalEval struct {
	lhs Evaler
	rhs Evaler
}

func newEqualEval(lhs, rhs Evaler) *equalEval {
	return &equalEval{lhs: lhs, rhs: rhs}
}

func (n *equalEval) Eval(env Env) (types.Value, error) {
	lv, err := n.lhs.Eval(env)
	if err != nil {
		return zeroValue(), err
	}
	rv, err := n.rhs.Eval(env)
	if err != nil {
		return zeroValue(), err
	}
	return types.Boolean(lv.Equal(rv)), nil
}

// notEqualEval
type notEqualEval struct {
	lhs Evaler
	rhs Evaler
}

func newNotEqualEval(lhs, rhs Evaler) *notEqualEval {
	return &notEqualEval{lhs: lhs, rhs: rhs}
}

func (n *notEqualEval) Eval(env Env) (types.Value, error) {
	lv, err := n.lhs.Eval(env)
	if err != nil {
		return zeroValue(), err
	}
	rv, err := n.rhs.Eval(env)
	if err != nil {
		return zeroValue(), err
	}
	return types.Boolean(!lv.Equal(rv)), nil
}

// longComparator compares two long operands. Ordering is defined on longs
// only; other operand types are a type error.
type longComparator struct {
	lhs     Evaler
	rhs     Evaler
	compare func(a, b types.Long) bool
}

func (n *longComparator) Eval(env Env) (types.Value, error) {
	lv, err := evalLong(n.lhs, env)
	if err != nil {
		return zeroValue(), err
	}
	rv, err := evalLong(n.rhs, env)
	if err != nil {
		return zeroValue(), err
	}
	return types.Boolean(n.compare(lv, rv)), nil
}

func newLessThanEval(lhs, rhs Evaler) *longComparator {
	return &longComparator{lhs: lhs, rhs: rhs, compare: func(a, b types.Long) bool { return a < b }}
}

func newLessThanOrEqualEval(lhs, rhs Evaler) *longComparator {
	return &longComparator{lhs: lhs, rhs: rhs, compare: func(a, b types.Long) bool { return a <= b }}
}

func newGreaterThanEval(lhs, rhs Evaler) *longComparator {
	return &longComparator{lhs: lhs, rhs: rhs, compare: func(a, b types.Long) bool { return a > b }}
}

func newGreaterThanOrEqualEval(lhs, rhs Evaler) *longComparator {
	return &longComparator{lhs: lhs, rhs: rhs, compare: func(a, b types.Long) bool { return a >= b }}
}

// addEval
type addEval struct {
	lhs Evaler
	rhs Evaler
}

func newAddEval(lhs, rhs Evaler) *addEval {
	return &addEval{lhs: lhs, rhs: rhs}
}

func (n *addEval) Eval(env Env) (types.Value, error) {
	lv, err := evalLong(n.lhs, env)
	if err != nil {
		return zeroValue(), err
	}
	rv, err := evalLong(n.rhs, env)
	if err != nil {
		return zeroValue(), err
	}
	res, ok := checkedAddI64(lv, rv)
	if !ok {
		return zeroValue(), fmt.Errorf("%w while attempting to add `%d` with `%d`", ErrOverflow, lv, rv)
	}
	return res, nil
}

// subtractEval
type subtractEval struct {
	lhs Evaler
	rhs Evaler
}

func newSubtractEval(lhs, rhs Evaler) *subtractEval {
	return &subtractEval{lhs: lhs, rhs: rhs}
}

func (n *subtractEval) Eval(env Env) (types.Value, error) {
	lv, err := evalLong(n.lhs, env)
	if err != nil {
		return zeroValue(), err
	}
	rv, err := evalLong(n.rhs, env)
	if err != nil {
		return zeroValue(), err
	}
	res, ok := checkedSubI64(lv, rv)
	if !ok {
		return zeroValue(), fmt.Errorf("%w while attempting to subtract `%d` from `%d`", ErrOverflow, rv, lv)
	}
	return res, nil
}

// multiplyEval
type multiplyEval struct {
	lhs Evaler
	rhs Evaler
}

func newMultiplyEval(lhs, rhs Evaler) *multiplyEval {
	return &multiplyEval{lhs: lhs, rhs: rhs}
}

func (n *multiplyEval) Eval(env Env) (types.Value, error) {
	lv, err := evalLong(n.lhs, env)
	if err != nil {
		return zeroValue(), err
	}
	rv, err := evalLong(n.rhs, env)
	if err != nil {
		return zeroValue(), err
	}
	res, ok := checkedMulI64(lv, rv)
	if !ok {
		return zeroValue(), fmt.Errorf("%w while attempting to multiply `%d` by `%d`", ErrOverflow, lv, rv)
	}
	return res, nil
}

// containsEval
type containsEval struct {
	lhs Evaler
	rhs Evaler
}

func newContainsEval(lhs, rhs Evaler) *containsEval {
	return &containsEval{lhs: lhs, rhs: rhs}
}

func (n *containsEval) Eval(env Env) (types.Value, error) {
	lv, err := evalSet(n.lhs, env)
	if err != nil {
		return zeroValue(), err
	}
	rv, err := n.rhs.Eval(env)
	if err != nil {
		return zeroValue(), err
	}
	return types.Boolean(lv.Contains(rv)), nil
}

// containsAllEval
type containsAllEval struct {
	lhs Evaler
	rhs Evaler
}

func newContainsAllEval(lhs, rhs Evaler) *containsAllEval {
	return &containsAllEval{lhs: lhs, rhs: rhs}
}

func (n *containsAllEval) Eval(env Env) (types.Value, error) {
	lv, err := evalSet(n.lhs, env)
	if err != nil {
		return zeroValue(), err
	}
	rv, err := evalSet(n.rhs, env)
	if err != nil {
		return zeroValue(), err
	}
	for e := range rv.All() {
		if !lv.Contains(e) {
			return types.False, nil
		}
	}
	return types.True, nil
}

// containsAnyEval
type containsAnyEval struct {
	lhs Evaler
	rhs Evaler
}

func newContainsAnyEval(lhs, rhs Evaler) *containsAnyEval {
	return &containsAnyEval{lhs: lhs, rhs: rhs}
}

func (n *containsAnyEval) Eval(env Env) (types.Value, error) {
	lv, err := evalSet(n.lhs, env)
	if err != nil {
		return zeroValue(), err
	}
	rv, err := evalSet(n.rhs, env)
	if err != nil {
		return zeroValue(), err
	}
	for e := range rv.All() {
		if lv.Contains(e) {
			return types.True, nil
		}
	}
	return types.False, nil
}

// inEval
type inEval struct {
	lhs Evaler
	rhs Evaler
}

func newInEval(lhs, rhs Evaler) *inEval {
	return &inEval{lhs: lhs, rhs: rhs}
}

func (n *inEval) Eval(env Env) (types.Value, error) {
	lv, err := evalEntity(n.lhs, env)
	if err != nil {
		return zeroValue(), err
	}
	rv, err := n.rhs.Eval(env)
	if err != nil {
		return zeroValue(), err
	}
	switch rr := rv.(type) {
	case types.EntityUID:
		ok, err := entityInOne(env, lv, rr)
		if err != nil {
			return zeroValue(), err
		}
		return types.Boolean(ok), nil
	case types.Set:
		query := mapset.Make[types.EntityUID]()
		for e := range rr.All() {
			uid, err := ValueToEntity(e)
			if err != nil {
				return zeroValue(), fmt.Errorf("%w: in rhs set contains %v", ErrType, TypeName(e))
			}
			query.Add(uid)
		}
		ok, err := entityInSet(env, lv, query)
		if err != nil {
			return zeroValue(), err
		}
		return types.Boolean(ok), nil
	default:
		return zeroValue(), fmt.Errorf("%w: expected one of [entity, set of entities], got %v", ErrType, TypeName(rv))
	}
}

// isEval
type isEval struct {
	lhs Evaler
	rhs types.EntityType
}

func newIsEval(lhs Evaler, rhs types.EntityType) *isEval {
	return &isEval{lhs: lhs, rhs: rhs}
}

func (n *isEval) Eval(env Env) (types.Value, error) {
	lv, err := evalEntity(n.lhs, env)
	if err != nil {
		return zeroValue(), err
	}
	return types.Boolean(lv.Type == n.rhs), nil
}

// isInEval
type isInEval struct {
	is *isEval
	in *inEval
}

func newIsInEval(lhs Evaler, is types.EntityType, rhs Evaler) *isInEval {
	return &isInEval{is: newIsEval(lhs, is), in: newInEval(lhs, rhs)}
}

func (n *isInEval) Eval(env Env) (types.Value, error) {
	v, err := n.is.Eval(env)
	if err != nil {
		return zeroValue(), err
	}
	if v == types.False {
		return v, nil
	}
	return n.in.Eval(env)
}

// ifThenElseEval
type ifThenElseEval struct {
	if_   Evaler
	then  Evaler
	else_ Evaler
}

func newIfThenElseEval(if_, then, else_ Evaler) *ifThenElseEval {
	return &ifThenElseEval{if_: if_, then: then, else_: else_}
}

func (n *ifThenElseEval) Eval(env Env) (types.Value, error) {
	cond, err := evalBool(n.if_, env)
	if err != nil {
		return zeroValue(), err
	}
	if cond {
		return n.then.Eval(env)
	}
	return n.else_.Eval(env)
}

// setLiteralEval
type setLiteralEval struct {
	elements []Evaler
}

func newSetLiteralEval(elements []Evaler) *setLiteralEval {
	return &setLiteralEval{elements: elements}
}

func (n *setLiteralEval) Eval(env Env) (types.Value, error) {
	vals := make([]types.Value, len(n.elements))
	for i, e := range n.elements {
		v, err := e.Eval(env)
		if err != nil {
			return zeroValue(), err
		}
		vals[i] = v
	}
	return types.NewSet(vals...), nil
}

// recordLiteralEval
type recordLiteralEval struct {
	elements map[types.String]Evaler
}

func newRecordLiteralEval(elements map[types.String]Evaler) *recordLiteralEval {
	return &recordLiteralEval{elements: elements}
}

func (n *recordLiteralEval) Eval(env Env) (types.Value, error) {
	m := types.RecordMap{}
	for k, e := range n.elements {
		v, err := e.Eval(env)
		if err != nil {
			return zeroValue(), err
		}
		m[k] = v
	}
	return types.NewRecord(m), nil
}
