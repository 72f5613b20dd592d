package types

import (
	"encoding/json"
	"iter"
	"strings"
)

// A Set is an immutable collection of values. Duplicates (by Equal) are
// removed at construction. Element order is insertion order of the first
// occurrence; set equality ignores order.
type Set struct {
	s []Value
}

// NewSet returns a Set containing the distinct values in v.
func NewSet(v ...Value) Set {
	var elems []Value
	for _, e := range v {
		if !sliceContains(elems, e) {
			elems = append(elems, e)
		}
	}
	return Set{s: elems}
}

func sliceContains(s []Value, v Value) bool {
	for _, e := range s {
		if e.Equal(v) {
			return true
		}
	}
	return false
}

// Len returns the number of elements in the Set.
func (s Set) Len() int {
	return len(s.s)
}

// Contains reports whether v is an element of the Set.
func (s Set) Contains(v Value) bool {
	return sliceContains(s.s, v)
}

// All returns an iterator over the elements of the Set.
func (s Set) All() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, v := range s.s {
			if !yield(v) {
				return
			}
		}
	}
}

// Equal reports set equality: mutual containment, regardless of order.
func (s Set) Equal(v Value) bool {
	o, ok := v.(Set)
	if !ok || len(s.s) != len(o.s) {
		return false
	}
	for _, e := range s.s {
		if !o.Contains(e) {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	var sb strings.Builder
	sb.WriteRune('[')
	for i, v := range s.s {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteRune(']')
	return sb.String()
}

func (s Set) MarshalJSON() ([]byte, error) {
	if s.s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.s)
}

func (s *Set) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	elems := make([]Value, 0, len(raw))
	for _, r := range raw {
		var v Value
		if err := UnmarshalJSON(r, &v); err != nil {
			return err
		}
		if !sliceContains(elems, v) {
			elems = append(elems, v)
		}
	}
	s.s = elems
	return nil
}
