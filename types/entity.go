package types

import (
	"encoding/json"
	"iter"
	"slices"
	"strings"
)

// An EntityUIDSet is an immutable set of EntityUIDs.
type EntityUIDSet struct {
	s map[EntityUID]struct{}
}

// NewEntityUIDSet returns an EntityUIDSet containing the given UIDs.
func NewEntityUIDSet(uids ...EntityUID) EntityUIDSet {
	s := make(map[EntityUID]struct{}, len(uids))
	for _, uid := range uids {
		s[uid] = struct{}{}
	}
	return EntityUIDSet{s: s}
}

// Contains reports whether uid is in the set.
func (e EntityUIDSet) Contains(uid EntityUID) bool {
	_, ok := e.s[uid]
	return ok
}

// Len returns the number of UIDs in the set.
func (e EntityUIDSet) Len() int {
	return len(e.s)
}

// All returns an iterator over the UIDs in the set.
// The iteration order is not guaranteed.
func (e EntityUIDSet) All() iter.Seq[EntityUID] {
	return func(yield func(EntityUID) bool) {
		for uid := range e.s {
			if !yield(uid) {
				return
			}
		}
	}
}

// Slice returns the UIDs sorted by their string form.
func (e EntityUIDSet) Slice() []EntityUID {
	res := make([]EntityUID, 0, len(e.s))
	for uid := range e.s {
		res = append(res, uid)
	}
	slices.SortFunc(res, func(a, b EntityUID) int {
		return strings.Compare(a.String(), b.String())
	})
	return res
}

// Equal reports whether two sets contain the same UIDs.
func (e EntityUIDSet) Equal(o EntityUIDSet) bool {
	if len(e.s) != len(o.s) {
		return false
	}
	for uid := range e.s {
		if !o.Contains(uid) {
			return false
		}
	}
	return true
}

func (e EntityUIDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Slice())
}

func (e *EntityUIDSet) UnmarshalJSON(b []byte) error {
	var uids []EntityUID
	if err := json.Unmarshal(b, &uids); err != nil {
		return err
	}
	*e = NewEntityUIDSet(uids...)
	return nil
}

// An Entity is a stored object representing a principal, action, or resource:
// a UID, the UIDs of its parents in the hierarchy, and its attributes.
// Entities are immutable once constructed.
type Entity struct {
	UID        EntityUID    `json:"uid"`
	Parents    EntityUIDSet `json:"parents"`
	Attributes Record       `json:"attrs"`
}
