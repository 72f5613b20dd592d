package schema

import "github.com/gavel-authz/gavel/types"

// CedarType is the closed set of types the schema can declare and the
// validator can infer.
type CedarType interface {
	isCedarType()
	String() string
}

// Primitive types
type (
	BoolType   struct{}
	LongType   struct{}
	StringType struct{}
)

func (BoolType) isCedarType()   {}
func (LongType) isCedarType()   {}
func (StringType) isCedarType() {}

func (BoolType) String() string   { return "Bool" }
func (LongType) String() string   { return "Long" }
func (StringType) String() string { return "String" }

// EntityType represents a reference to a specific entity type.
type EntityType struct {
	Name types.EntityType
}

func (EntityType) isCedarType() {}
func (e EntityType) String() string {
	return "Entity<" + string(e.Name) + ">"
}

// AnyEntityType matches any entity type.
type AnyEntityType struct{}

func (AnyEntityType) isCedarType()   {}
func (AnyEntityType) String() string { return "Entity" }

// SetType represents a set of elements of a given type.
type SetType struct {
	Element CedarType
}

func (SetType) isCedarType() {}
func (s SetType) String() string {
	return "Set<" + s.Element.String() + ">"
}

// RecordType represents a record with typed attributes.
type RecordType struct {
	Attributes map[string]AttributeType
	// OpenRecord allows attributes beyond those declared.
	OpenRecord bool
}

func (RecordType) isCedarType() {}
func (RecordType) String() string {
	return "Record"
}

// AttributeType represents a typed attribute, which may be required or optional.
type AttributeType struct {
	Type     CedarType
	Required bool
}

// UnknownType represents a type that cannot be determined from the schema,
// for example the context shape when the action scope is unconstrained.
// Unknown types are treated leniently during type checking.
type UnknownType struct{}

func (UnknownType) isCedarType()   {}
func (UnknownType) String() string { return "Unknown" }

// UnspecifiedType marks an attribute whose declared type could not be
// resolved. Unlike UnknownType it indicates a malformed or incomplete schema,
// and using such an attribute where a concrete type is needed is an error.
type UnspecifiedType struct{}

func (UnspecifiedType) isCedarType()   {}
func (UnspecifiedType) String() string { return "Unspecified" }

// EntityTypeInfo is the resolved declaration of an entity type.
type EntityTypeInfo struct {
	// Attributes declared on this entity type.
	Attributes map[string]AttributeType
	// MemberOfTypes lists the types entities of this type may be parented under.
	MemberOfTypes []types.EntityType
	// OpenRecord when true allows attributes beyond those declared.
	OpenRecord bool
}

// ActionTypeInfo is the resolved declaration of an action.
type ActionTypeInfo struct {
	// PrincipalTypes this action applies to.
	PrincipalTypes []types.EntityType
	// ResourceTypes this action applies to.
	ResourceTypes []types.EntityType
	// Context shape for requests using this action.
	Context RecordType
	// MemberOf lists action groups this action belongs to.
	MemberOf []types.EntityUID
}

// RequestEnv is one valid principal-type / action / resource-type combination
// per the schema's appliesTo declarations.
type RequestEnv struct {
	PrincipalType types.EntityType
	Action        types.EntityUID
	ResourceType  types.EntityType
}

// TypesMatch reports whether a value of the actual type is acceptable where
// the expected type is declared.
func TypesMatch(expected, actual CedarType) bool {
	switch e := expected.(type) {
	case BoolType:
		_, ok := actual.(BoolType)
		return ok
	case LongType:
		_, ok := actual.(LongType)
		return ok
	case StringType:
		_, ok := actual.(StringType)
		return ok
	case EntityType:
		return matchEntityType(e, actual)
	case AnyEntityType:
		return matchAnyEntityType(actual)
	case SetType:
		return matchSetType(e, actual)
	case RecordType:
		return matchRecordType(e, actual)
	case UnknownType:
		// Unknown matches anything.
		return true
	default:
		return false
	}
}

func matchEntityType(expected EntityType, actual CedarType) bool {
	a, ok := actual.(EntityType)
	if !ok {
		_, ok = actual.(AnyEntityType)
		return ok
	}
	return expected.Name == a.Name
}

func matchAnyEntityType(actual CedarType) bool {
	switch actual.(type) {
	case EntityType, AnyEntityType:
		return true
	default:
		return false
	}
}

func matchSetType(expected SetType, actual CedarType) bool {
	a, ok := actual.(SetType)
	if !ok {
		return false
	}
	return TypesMatch(expected.Element, a.Element)
}

func matchRecordType(expected RecordType, actual CedarType) bool {
	a, ok := actual.(RecordType)
	if !ok {
		return false
	}
	for name, attr := range expected.Attributes {
		aAttr, exists := a.Attributes[name]
		if !exists {
			if attr.Required {
				return false
			}
			continue
		}
		if !TypesMatch(attr.Type, aAttr.Type) {
			return false
		}
	}
	return true
}
