package types

import (
	"bytes"
	"encoding/json"
	"iter"
	"slices"
	"strings"
)

// A RecordMap is a map of attribute names to values, used to construct
// Records.
type RecordMap map[String]Value

// A Record is an immutable mapping from attribute names to values.
type Record struct {
	m RecordMap
}

// NewRecord returns a Record holding a copy of the given attributes.
func NewRecord(attrs RecordMap) Record {
	m := make(RecordMap, len(attrs))
	for k, v := range attrs {
		m[k] = v
	}
	return Record{m: m}
}

// Len returns the number of attributes in the Record.
func (r Record) Len() int {
	return len(r.m)
}

// Get returns the value of the named attribute and whether it is present.
func (r Record) Get(key String) (Value, bool) {
	v, ok := r.m[key]
	return v, ok
}

// Has reports whether the named attribute is present.
func (r Record) Has(key String) bool {
	_, ok := r.m[key]
	return ok
}

// All returns an iterator over the attributes of the Record.
// The iteration order is not guaranteed.
func (r Record) All() iter.Seq2[String, Value] {
	return func(yield func(String, Value) bool) {
		for k, v := range r.m {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Keys returns the attribute names in sorted order.
func (r Record) Keys() []String {
	keys := make([]String, 0, len(r.m))
	for k := range r.m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (r Record) Equal(v Value) bool {
	o, ok := v.(Record)
	if !ok || len(r.m) != len(o.m) {
		return false
	}
	for k, rv := range r.m {
		ov, ok := o.m[k]
		if !ok || !rv.Equal(ov) {
			return false
		}
	}
	return true
}

func (r Record) String() string {
	var sb strings.Builder
	sb.WriteRune('{')
	for i, k := range r.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(k))
		sb.WriteString(": ")
		sb.WriteString(r.m[k].String())
	}
	sb.WriteRune('}')
	return sb.String()
}

// MarshalJSON emits attributes in sorted key order so that equal Records
// marshal to identical bytes.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteRune('{')
	for i, k := range r.Keys() {
		if i > 0 {
			buf.WriteRune(',')
		}
		kb, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteRune(':')
		vb, err := r.m[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m := make(RecordMap, len(raw))
	for k, rv := range raw {
		var v Value
		if err := UnmarshalJSON(rv, &v); err != nil {
			return err
		}
		m[String(k)] = v
	}
	r.m = m
	return nil
}
