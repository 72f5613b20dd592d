package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var (
	errJSONDecode          = fmt.Errorf("error decoding json")
	errJSONLongOutOfRange  = fmt.Errorf("long out of range")
	errJSONUnsupportedType = fmt.Errorf("unsupported type")
	errJSONEntityNotFound  = fmt.Errorf("json entity not found")
)

// unmarshalPrimitiveFromJSON unmarshals primitive JSON values (string, bool, number).
func unmarshalPrimitiveFromJSON(b []byte) (Value, error) {
	var res any
	dec := json.NewDecoder(bytes.NewBuffer(b))
	dec.UseNumber()
	if err := dec.Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: %w", errJSONDecode, err)
	}

	switch vv := res.(type) {
	case string:
		return String(vv), nil
	case bool:
		return Boolean(vv), nil
	case json.Number:
		l, err := vv.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errJSONLongOutOfRange, err)
		}
		return Long(l), nil
	default:
		return nil, errJSONUnsupportedType
	}
}

// looksLikeEntityJSON reports whether an object's key set marks it as an
// entity reference rather than a record.
func looksLikeEntityJSON(b []byte) bool {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return false
	}
	if _, ok := keys["__entity"]; ok && len(keys) == 1 {
		return true
	}
	_, hasType := keys["type"]
	_, hasID := keys["id"]
	return hasType && hasID && len(keys) == 2
}

// UnmarshalJSON decodes a JSON document into a Value. Entity references are
// recognized in both the `{"type": ..., "id": ...}` and `{"__entity": ...}`
// forms; other objects decode as Records, arrays as Sets, and primitives as
// String, Boolean, or Long.
func UnmarshalJSON(b []byte, v *Value) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return errJSONDecode
	}

	switch trimmed[0] {
	case '{':
		// Entity UID first, in either encoding. Only an object whose keys
		// are exactly {type, id} or {__entity} decodes as an entity
		// reference; anything else is a record.
		if looksLikeEntityJSON(trimmed) {
			var uid EntityUID
			if err := uid.UnmarshalJSON(trimmed); err != nil {
				return err
			}
			*v = uid
			return nil
		}
		var rec Record
		if err := rec.UnmarshalJSON(trimmed); err != nil {
			return err
		}
		*v = rec
		return nil
	case '[':
		var set Set
		if err := set.UnmarshalJSON(trimmed); err != nil {
			return err
		}
		*v = set
		return nil
	default:
		res, err := unmarshalPrimitiveFromJSON(trimmed)
		if err != nil {
			return err
		}
		*v = res
		return nil
	}
}
