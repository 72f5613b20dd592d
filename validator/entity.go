package validator

import (
	"fmt"

	"github.com/gavel-authz/gavel/schema"
	"github.com/gavel-authz/gavel/types"
)

// validateEntity validates a single entity against its type declaration.
func (v *Validator) validateEntity(uid types.EntityUID, entity types.Entity) []EntityError {
	info, ok := v.entityTypes[uid.Type]
	if !ok {
		if v.isActionEntityType(uid.Type) {
			// Action entities are declared in the actions section.
			return nil
		}
		return []EntityError{{
			EntityUID: uid,
			Message:   fmt.Sprintf("entity type %s is not defined in schema", uid.Type),
		}}
	}

	var errs []EntityError
	errs = append(errs, v.validateEntityAttributes(uid, entity, info)...)
	errs = append(errs, v.validateUndeclaredAttributes(uid, entity, info)...)
	errs = append(errs, v.validateParentRelationships(uid, entity, info)...)
	return errs
}

// validateEntityAttributes validates the declared attributes of an entity.
func (v *Validator) validateEntityAttributes(uid types.EntityUID, entity types.Entity, info *schema.EntityTypeInfo) []EntityError {
	var errs []EntityError
	for attrName, attrType := range info.Attributes {
		attrVal, exists := entity.Attributes.Get(types.String(attrName))
		if !exists {
			if attrType.Required {
				errs = append(errs, EntityError{EntityUID: uid, Message: fmt.Sprintf("required attribute %s is missing", attrName)})
			}
			continue
		}
		if err := v.validateValue(attrVal, attrType.Type); err != nil {
			errs = append(errs, EntityError{EntityUID: uid, Message: fmt.Sprintf("attribute %s: %v", attrName, err)})
		}
	}
	return errs
}

// validateUndeclaredAttributes checks for undeclared attributes in strict mode.
func (v *Validator) validateUndeclaredAttributes(uid types.EntityUID, entity types.Entity, info *schema.EntityTypeInfo) []EntityError {
	if !v.strictEntityValidation || info.OpenRecord {
		return nil
	}
	var errs []EntityError
	for attrName := range entity.Attributes.All() {
		if _, declared := info.Attributes[string(attrName)]; !declared {
			errs = append(errs, EntityError{
				EntityUID: uid,
				Message:   fmt.Sprintf("attribute %s is not declared in schema", attrName),
			})
		}
	}
	return errs
}

// validateParentRelationships validates that each parent's type is allowed by
// memberOfTypes.
func (v *Validator) validateParentRelationships(uid types.EntityUID, entity types.Entity, info *schema.EntityTypeInfo) []EntityError {
	var errs []EntityError
	for parent := range entity.Parents.All() {
		if !v.typeInList(parent.Type, info.MemberOfTypes) {
			errs = append(errs, EntityError{
				EntityUID: uid,
				Message:   fmt.Sprintf("entity cannot be member of type %s", parent.Type),
			})
		}
	}
	return errs
}

// validateContext validates a request context against an action's declared
// context shape.
func (v *Validator) validateContext(context types.Record, expected schema.RecordType) error {
	for attrName, attrType := range expected.Attributes {
		val, exists := context.Get(types.String(attrName))
		if !exists {
			if attrType.Required {
				return fmt.Errorf("required context attribute %s is missing", attrName)
			}
			continue
		}
		if err := v.validateValue(val, attrType.Type); err != nil {
			return fmt.Errorf("context attribute %s: %v", attrName, err)
		}
	}

	if !v.strictEntityValidation || expected.OpenRecord {
		return nil
	}
	for attrName := range context.All() {
		if _, declared := expected.Attributes[string(attrName)]; !declared {
			return fmt.Errorf("context attribute %s is not declared in schema", attrName)
		}
	}
	return nil
}

// validateValue validates a value against an expected type.
func (v *Validator) validateValue(val types.Value, expected schema.CedarType) error {
	actual := inferType(val)
	if !schema.TypesMatch(expected, actual) {
		return fmt.Errorf("expected %s, got %s", expected, actual)
	}
	return nil
}

// inferType infers the schema type of a value.
func inferType(val types.Value) schema.CedarType {
	switch typedVal := val.(type) {
	case types.Boolean:
		return schema.BoolType{}
	case types.Long:
		return schema.LongType{}
	case types.String:
		return schema.StringType{}
	case types.EntityUID:
		return schema.EntityType{Name: typedVal.Type}
	case types.Set:
		return inferSetType(typedVal)
	case types.Record:
		return inferRecordType(typedVal)
	default:
		return schema.UnknownType{}
	}
}

func inferSetType(s types.Set) schema.CedarType {
	// The element type is taken from the first element; heterogeneous sets
	// degrade to Set<Unknown> behavior at the mismatching element.
	for elem := range s.All() {
		return schema.SetType{Element: inferType(elem)}
	}
	return schema.SetType{Element: schema.UnknownType{}}
}

func inferRecordType(r types.Record) schema.CedarType {
	attrs := make(map[string]schema.AttributeType)
	for k, rv := range r.All() {
		attrs[string(k)] = schema.AttributeType{Type: inferType(rv), Required: true}
	}
	return schema.RecordType{Attributes: attrs}
}
