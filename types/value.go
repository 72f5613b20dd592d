// Package types holds the value model shared by the policy AST, the entity
// store, and the evaluator: primitives, sets, records, and entity references.
// All values are immutable once constructed.
package types

import (
	"encoding/json"
	"strconv"
)

// A Value is a Cedar-style runtime value: Boolean, Long, String, EntityUID,
// Set, or Record.
type Value interface {
	// Equal reports whether the receiver and the argument represent the same
	// value.
	Equal(Value) bool
	String() string
	MarshalJSON() ([]byte, error)
}

// A Boolean is a true/false value.
type Boolean bool

const (
	True  = Boolean(true)
	False = Boolean(false)
)

func (b Boolean) Equal(v Value) bool {
	o, ok := v.(Boolean)
	return ok && b == o
}

func (b Boolean) String() string {
	return strconv.FormatBool(bool(b))
}

func (b Boolean) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

// A Long is a signed 64-bit integer.
type Long int64

func (l Long) Equal(v Value) bool {
	o, ok := v.(Long)
	return ok && l == o
}

func (l Long) String() string {
	return strconv.FormatInt(int64(l), 10)
}

func (l Long) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(l))
}

// A String is a sequence of characters consisting of letters, numbers, or
// symbols.
type String string

func (s String) Equal(v Value) bool {
	o, ok := v.(String)
	return ok && s == o
}

func (s String) String() string {
	return string(s)
}

func (s String) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}
