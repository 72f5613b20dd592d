package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gavel-authz/gavel/types"
)

// jsonNamespace mirrors one namespace of the Cedar JSON schema format.
type jsonNamespace struct {
	EntityTypes map[string]jsonEntityType `json:"entityTypes"`
	Actions     map[string]jsonAction     `json:"actions"`
	CommonTypes map[string]jsonType       `json:"commonTypes,omitempty"`
}

type jsonEntityType struct {
	Shape         *jsonType `json:"shape,omitempty"`
	MemberOfTypes []string  `json:"memberOfTypes,omitempty"`
}

type jsonAction struct {
	AppliesTo *jsonAppliesTo  `json:"appliesTo,omitempty"`
	MemberOf  []jsonActionRef `json:"memberOf,omitempty"`
	// Context may appear at the action level as well as inside appliesTo;
	// the action-level declaration wins when both are present.
	Context *jsonType `json:"context,omitempty"`
}

type jsonAppliesTo struct {
	PrincipalTypes []string  `json:"principalTypes,omitempty"`
	ResourceTypes  []string  `json:"resourceTypes,omitempty"`
	Context        *jsonType `json:"context,omitempty"`
}

type jsonActionRef struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id"`
}

type jsonType struct {
	Type       string              `json:"type"`
	Element    *jsonType           `json:"element,omitempty"`
	Attributes map[string]jsonAttr `json:"attributes,omitempty"`
	Name       string              `json:"name,omitempty"`
}

type jsonAttr struct {
	Type       string              `json:"type,omitempty"`
	Element    *jsonType           `json:"element,omitempty"`
	Required   *bool               `json:"required,omitempty"`
	Name       string              `json:"name,omitempty"`
	Attributes map[string]jsonAttr `json:"attributes,omitempty"`
}

// decodeNamespaces decodes src as either the namespaced schema format or the
// flat single-namespace format ({"entityTypes": ..., "actions": ...}), which
// is normalized into the empty namespace.
func decodeNamespaces(src []byte) (map[string]*jsonNamespace, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(src, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	if isFlatSchema(top) {
		var ns jsonNamespace
		if err := json.Unmarshal(src, &ns); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
		}
		return map[string]*jsonNamespace{"": &ns}, nil
	}
	var namespaces map[string]*jsonNamespace
	if err := json.Unmarshal(src, &namespaces); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return namespaces, nil
}

// isFlatSchema reports whether the top-level keys look like a single
// namespace body rather than a map of namespaces.
func isFlatSchema(top map[string]json.RawMessage) bool {
	if len(top) == 0 {
		return false
	}
	for key := range top {
		switch key {
		case "entityTypes", "actions", "commonTypes":
		default:
			return false
		}
	}
	return true
}

// resolver turns the decoded JSON declarations of one namespace into typed
// schema information.
type resolver struct {
	ns          string
	commonTypes map[string]CedarType
}

func (s *Schema) resolveNamespaces(namespaces map[string]*jsonNamespace) error {
	commonTypes := make(map[string]CedarType)
	for nsName, ns := range namespaces {
		if ns == nil {
			continue
		}
		r := &resolver{ns: nsName, commonTypes: commonTypes}
		if err := r.resolveCommonTypes(ns.CommonTypes); err != nil {
			return err
		}
		if err := r.resolveEntityTypes(ns.EntityTypes, s.entityTypes); err != nil {
			return err
		}
		if err := r.resolveActions(ns.Actions, s.actionTypes); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolveCommonTypes(commonTypes map[string]jsonType) error {
	for name, jt := range commonTypes {
		fullName := qualifiedName(r.ns, name)
		ct, err := r.resolveType(&jt)
		if err != nil {
			return fmt.Errorf("common type %s: %w", fullName, err)
		}
		r.commonTypes[fullName] = ct
	}
	return nil
}

func (r *resolver) resolveEntityTypes(entityTypes map[string]jsonEntityType, out map[types.EntityType]*EntityTypeInfo) error {
	for name, et := range entityTypes {
		fullName := qualifiedName(r.ns, name)
		info, err := r.resolveEntityType(fullName, &et)
		if err != nil {
			return err
		}
		out[types.EntityType(fullName)] = info
	}
	return nil
}

func (r *resolver) resolveEntityType(fullName string, et *jsonEntityType) (*EntityTypeInfo, error) {
	info := &EntityTypeInfo{
		Attributes:    make(map[string]AttributeType),
		MemberOfTypes: make([]types.EntityType, 0, len(et.MemberOfTypes)),
	}

	if err := r.resolveEntityShape(info, fullName, et.Shape); err != nil {
		return nil, err
	}

	// Qualify and deduplicate memberOfTypes; repeated declarations are
	// redundant, not invalid.
	seen := make(map[types.EntityType]struct{})
	for _, mot := range et.MemberOfTypes {
		qualified := types.EntityType(qualifyTypeName(r.ns, mot))
		if _, exists := seen[qualified]; !exists {
			info.MemberOfTypes = append(info.MemberOfTypes, qualified)
			seen[qualified] = struct{}{}
		}
	}

	return info, nil
}

func (r *resolver) resolveEntityShape(info *EntityTypeInfo, entityName string, shape *jsonType) error {
	if shape == nil {
		// No shape declared means any attributes are allowed.
		info.OpenRecord = true
		return nil
	}
	for attrName, attr := range shape.Attributes {
		at, err := r.resolveAttr(&attr)
		if err != nil {
			return fmt.Errorf("attribute %s.%s: %w", entityName, attrName, err)
		}
		info.Attributes[attrName] = at
	}
	return nil
}

func (r *resolver) resolveActions(actions map[string]jsonAction, out map[types.EntityUID]*ActionTypeInfo) error {
	for name, act := range actions {
		info, err := r.resolveAction(name, &act)
		if err != nil {
			return err
		}
		actionType := qualifiedName(r.ns, "Action")
		uid := types.EntityUID{Type: types.EntityType(actionType), ID: types.String(name)}
		out[uid] = info
	}
	return nil
}

func (r *resolver) resolveAction(name string, act *jsonAction) (*ActionTypeInfo, error) {
	info := &ActionTypeInfo{
		PrincipalTypes: make([]types.EntityType, 0),
		ResourceTypes:  make([]types.EntityType, 0),
		Context:        RecordType{Attributes: make(map[string]AttributeType)},
		MemberOf:       make([]types.EntityUID, 0),
	}

	if err := r.resolveAppliesTo(info, name, act.AppliesTo); err != nil {
		return nil, err
	}

	if act.Context != nil {
		ctx, err := r.resolveRecordShape(act.Context)
		if err != nil {
			return nil, fmt.Errorf("action %s context: %w", name, err)
		}
		info.Context = ctx
	}

	for _, mo := range act.MemberOf {
		typ := qualifiedName(r.ns, "Action")
		if mo.Type != "" {
			typ = mo.Type
		}
		info.MemberOf = append(info.MemberOf, types.EntityUID{
			Type: types.EntityType(typ),
			ID:   types.String(mo.ID),
		})
	}

	return info, nil
}

func (r *resolver) resolveAppliesTo(info *ActionTypeInfo, actionName string, appliesTo *jsonAppliesTo) error {
	if appliesTo == nil {
		return nil
	}

	seenPrincipal := make(map[types.EntityType]struct{})
	for _, pt := range appliesTo.PrincipalTypes {
		qualified := types.EntityType(qualifyTypeName(r.ns, pt))
		if _, exists := seenPrincipal[qualified]; !exists {
			info.PrincipalTypes = append(info.PrincipalTypes, qualified)
			seenPrincipal[qualified] = struct{}{}
		}
	}

	seenResource := make(map[types.EntityType]struct{})
	for _, rt := range appliesTo.ResourceTypes {
		qualified := types.EntityType(qualifyTypeName(r.ns, rt))
		if _, exists := seenResource[qualified]; !exists {
			info.ResourceTypes = append(info.ResourceTypes, qualified)
			seenResource[qualified] = struct{}{}
		}
	}

	if appliesTo.Context != nil {
		ctx, err := r.resolveRecordShape(appliesTo.Context)
		if err != nil {
			return fmt.Errorf("action %s context: %w", actionName, err)
		}
		info.Context = ctx
	}

	return nil
}

// qualifiedName creates a fully-qualified name from namespace and local name.
func qualifiedName(namespace, localName string) string {
	if namespace == "" {
		return localName
	}
	return namespace + "::" + localName
}

// qualifyTypeName prefixes the namespace unless the name already carries one.
func qualifyTypeName(namespace, typeName string) string {
	if namespace == "" || strings.Contains(typeName, "::") {
		return typeName
	}
	return namespace + "::" + typeName
}

func (r *resolver) resolveType(jt *jsonType) (CedarType, error) {
	if jt == nil {
		return RecordType{Attributes: make(map[string]AttributeType)}, nil
	}

	switch jt.Type {
	case "Boolean", "Bool":
		return BoolType{}, nil
	case "Long":
		return LongType{}, nil
	case "String":
		return StringType{}, nil
	case "Entity":
		return r.resolveEntityRef(jt.Name), nil
	case "Set":
		return r.resolveSetType(jt.Element)
	case "Record":
		return r.resolveRecordType(jt.Attributes)
	default:
		return r.resolveTypeReference(jt.Type), nil
	}
}

func (r *resolver) resolveEntityRef(name string) CedarType {
	if name != "" {
		return EntityType{Name: types.EntityType(qualifyTypeName(r.ns, name))}
	}
	return AnyEntityType{}
}

func (r *resolver) resolveSetType(element *jsonType) (CedarType, error) {
	if element == nil {
		return SetType{Element: UnknownType{}}, nil
	}
	elem, err := r.resolveType(element)
	if err != nil {
		return nil, err
	}
	return SetType{Element: elem}, nil
}

func (r *resolver) resolveRecordType(attributes map[string]jsonAttr) (CedarType, error) {
	rec := RecordType{Attributes: make(map[string]AttributeType)}
	for name, attr := range attributes {
		at, err := r.resolveAttr(&attr)
		if err != nil {
			return nil, err
		}
		rec.Attributes[name] = at
	}
	return rec, nil
}

func (r *resolver) resolveRecordShape(jt *jsonType) (RecordType, error) {
	rec := RecordType{Attributes: make(map[string]AttributeType)}
	if jt == nil {
		return rec, nil
	}
	for name, attr := range jt.Attributes {
		at, err := r.resolveAttr(&attr)
		if err != nil {
			return rec, err
		}
		rec.Attributes[name] = at
	}
	return rec, nil
}

// resolveTypeReference handles references to common types and entity types.
// References that resolve to neither become UnspecifiedType, which turns into
// a validation error only if the attribute is actually used somewhere that
// needs a concrete type.
func (r *resolver) resolveTypeReference(typeName string) CedarType {
	if ct, ok := r.commonTypes[typeName]; ok {
		return ct
	}
	if ct, ok := r.commonTypes[qualifiedName(r.ns, typeName)]; ok {
		return ct
	}
	if typeName == "" || !isValidTypeReference(typeName) {
		return UnspecifiedType{}
	}
	// Entity types may not all be declared yet when attributes are resolved,
	// so a plausible name is taken as an entity type reference. The validator
	// checks existence when the attribute is accessed.
	return EntityType{Name: types.EntityType(qualifyTypeName(r.ns, typeName))}
}

// isValidTypeReference reports whether name is a well-formed type reference:
// a possibly namespace-qualified chain of identifiers.
func isValidTypeReference(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, "::") {
		if !isValidIdent(part) {
			return false
		}
	}
	return true
}

func isValidIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '_':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func (r *resolver) resolveAttr(ja *jsonAttr) (AttributeType, error) {
	required := true
	if ja.Required != nil {
		required = *ja.Required
	}

	ct, err := r.resolveAttrType(ja)
	if err != nil {
		return AttributeType{}, err
	}

	return AttributeType{Type: ct, Required: required}, nil
}

func (r *resolver) resolveAttrType(ja *jsonAttr) (CedarType, error) {
	switch ja.Type {
	case "Boolean", "Bool":
		return BoolType{}, nil
	case "Long":
		return LongType{}, nil
	case "String":
		return StringType{}, nil
	case "Entity":
		return r.resolveEntityRef(ja.Name), nil
	case "Set":
		return r.resolveSetType(ja.Element)
	case "Record":
		return r.resolveRecordType(ja.Attributes)
	default:
		return r.resolveTypeReference(ja.Type), nil
	}
}
