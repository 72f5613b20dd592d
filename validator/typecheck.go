package validator

import (
	"fmt"

	"github.com/gavel-authz/gavel/ast"
	"github.com/gavel-authz/gavel/schema"
	"github.com/gavel-authz/gavel/types"
)

// typeContext holds the type environment while checking one policy's
// conditions.
type typeContext struct {
	v              *Validator
	principalTypes []types.EntityType // possible types for principal
	resourceTypes  []types.EntityType // possible types for resource
	actionUID      *types.EntityUID   // specific action, if the scope pins one
	errors         []string
	warnings       []string
	// guards holds the access paths proven present by a has check on the
	// left side of an enclosing &&, keyed by their textual path.
	guards map[string]int
	// currentLevel is the attribute dereference depth of the access chain
	// being checked.
	currentLevel int
}

// typecheckPolicy type-checks every condition of a policy, returning error
// and warning messages.
func (v *Validator) typecheckPolicy(p *ast.Policy) (errs, warns []string) {
	ctx := &typeContext{
		v:              v,
		principalTypes: v.extractPrincipalTypes(p.Principal, p.Action),
		resourceTypes:  v.extractResourceTypes(p.Resource, p.Action),
		actionUID:      extractActionUID(p.Action),
		guards:         make(map[string]int),
	}

	for _, cond := range p.Conditions {
		inferredType := ctx.typecheck(cond.Body)
		if !isTypeBoolean(inferredType) && !isTypeUnknown(inferredType) {
			ctx.errors = append(ctx.errors,
				fmt.Sprintf("condition must be boolean, got %s", inferredType))
		}
	}

	return ctx.errors, ctx.warnings
}

// extractPrincipalTypes determines the possible principal types from the
// principal scope, narrowed by the action's appliesTo declaration.
func (v *Validator) extractPrincipalTypes(scope ast.IsPrincipalScopeNode, actionScope ast.IsActionScopeNode) []types.EntityType {
	var actionTypes []types.EntityType
	for _, info := range v.getActionInfos(actionScope) {
		actionTypes = append(actionTypes, info.PrincipalTypes...)
	}
	return v.resolveEntityScopeTypes(scope, actionTypes)
}

// extractResourceTypes determines the possible resource types from the
// resource scope, narrowed by the action's appliesTo declaration.
func (v *Validator) extractResourceTypes(scope ast.IsResourceScopeNode, actionScope ast.IsActionScopeNode) []types.EntityType {
	var actionTypes []types.EntityType
	for _, info := range v.getActionInfos(actionScope) {
		actionTypes = append(actionTypes, info.ResourceTypes...)
	}
	return v.resolveEntityScopeTypes(scope, actionTypes)
}

// resolveEntityScopeTypes resolves the possible entity types of a scope.
func (v *Validator) resolveEntityScopeTypes(scope ast.IsScopeNode, actionTypes []types.EntityType) []types.EntityType {
	switch s := scope.(type) {
	case ast.ScopeTypeAll:
		if len(actionTypes) > 0 {
			return actionTypes
		}
		return v.allEntityTypes()
	case ast.ScopeTypeEq:
		return []types.EntityType{s.Entity.Type}
	case ast.ScopeTypeIn:
		// The variable is some descendant of the group, so the action's
		// appliesTo declaration is the best available bound.
		return actionTypes
	case ast.ScopeTypeIs:
		return []types.EntityType{s.Type}
	case ast.ScopeTypeIsIn:
		return []types.EntityType{s.Type}
	}
	return nil
}

// extractActionUID returns the specific action UID when the scope is Eq.
func extractActionUID(scope ast.IsActionScopeNode) *types.EntityUID {
	if s, ok := scope.(ast.ScopeTypeEq); ok {
		return &s.Entity
	}
	return nil
}

func (v *Validator) allEntityTypes() []types.EntityType {
	var result []types.EntityType
	for t := range v.entityTypes {
		result = append(result, t)
	}
	return result
}

// typecheck infers the type of an expression node, recording type errors and
// unguarded optional attribute warnings along the way.
func (ctx *typeContext) typecheck(node ast.IsNode) schema.CedarType {
	if node == nil {
		return schema.UnknownType{}
	}

	switch n := node.(type) {
	case ast.NodeValue:
		return inferType(n.Value)
	case ast.NodeTypeVariable:
		return ctx.typecheckVariable(n)
	case ast.NodeTypeAnd:
		return ctx.typecheckAnd(n)
	case ast.NodeTypeOr:
		return ctx.typecheckBoolPair(n.Left, n.Right)
	case ast.NodeTypeEquals:
		return ctx.typecheckEquality(n.Left, n.Right)
	case ast.NodeTypeNotEquals:
		return ctx.typecheckEquality(n.Left, n.Right)
	case ast.NodeTypeLessThan:
		return ctx.typecheckComparison(n.Left, n.Right)
	case ast.NodeTypeLessThanOrEqual:
		return ctx.typecheckComparison(n.Left, n.Right)
	case ast.NodeTypeGreaterThan:
		return ctx.typecheckComparison(n.Left, n.Right)
	case ast.NodeTypeGreaterThanOrEqual:
		return ctx.typecheckComparison(n.Left, n.Right)
	case ast.NodeTypeNot:
		return ctx.typecheckUnaryBool(n.Arg)
	case ast.NodeTypeNegate:
		return ctx.typecheckUnaryLong(n.Arg, "negation")
	case ast.NodeTypeAdd:
		return ctx.typecheckArithmetic(n.Left, n.Right)
	case ast.NodeTypeSub:
		return ctx.typecheckArithmetic(n.Left, n.Right)
	case ast.NodeTypeMult:
		return ctx.typecheckArithmetic(n.Left, n.Right)
	case ast.NodeTypeIn:
		return ctx.typecheckIn(n)
	case ast.NodeTypeIs:
		ctx.typecheck(n.Left)
		return schema.BoolType{}
	case ast.NodeTypeIsIn:
		ctx.typecheck(n.Left)
		ctx.typecheck(n.Entity)
		return schema.BoolType{}
	case ast.NodeTypeAccess:
		return ctx.typecheckAccess(n)
	case ast.NodeTypeHas:
		ctx.typecheck(n.Arg)
		return schema.BoolType{}
	case ast.NodeTypeContains:
		return ctx.typecheckSetOp(n.Left, n.Right)
	case ast.NodeTypeContainsAll:
		return ctx.typecheckSetOp(n.Left, n.Right)
	case ast.NodeTypeContainsAny:
		return ctx.typecheckSetOp(n.Left, n.Right)
	case ast.NodeTypeIfThenElse:
		return ctx.typecheckConditional(n)
	case ast.NodeTypeSet:
		return ctx.typecheckSetLiteral(n)
	case ast.NodeTypeRecord:
		return ctx.typecheckRecordLiteral(n)
	default:
		return schema.UnknownType{}
	}
}

// typecheckAnd checks a conjunction. A has check on the left side guards
// attribute accesses on the right side, so matching accesses there do not
// warn.
func (ctx *typeContext) typecheckAnd(n ast.NodeTypeAnd) schema.CedarType {
	leftType := ctx.typecheck(n.Left)
	ctx.requireBool(leftType)

	added := collectGuards(n.Left, nil)
	for _, key := range added {
		ctx.guards[key]++
	}
	rightType := ctx.typecheck(n.Right)
	for _, key := range added {
		if ctx.guards[key]--; ctx.guards[key] == 0 {
			delete(ctx.guards, key)
		}
	}

	ctx.requireBool(rightType)
	return schema.BoolType{}
}

// collectGuards gathers the access paths proven by has checks in conjunctive
// positions of a node.
func collectGuards(node ast.IsNode, keys []string) []string {
	switch n := node.(type) {
	case ast.NodeTypeHas:
		if base, ok := accessPath(n.Arg); ok {
			keys = append(keys, base+"."+string(n.Value))
		}
	case ast.NodeTypeAnd:
		keys = collectGuards(n.Left, keys)
		keys = collectGuards(n.Right, keys)
	}
	return keys
}

// accessPath renders a variable or attribute access chain as a dotted path.
// Other expression shapes have no stable path and are not tracked.
func accessPath(node ast.IsNode) (string, bool) {
	switch n := node.(type) {
	case ast.NodeTypeVariable:
		return string(n.Name), true
	case ast.NodeTypeAccess:
		base, ok := accessPath(n.Arg)
		if !ok {
			return "", false
		}
		return base + "." + string(n.Value), true
	default:
		return "", false
	}
}

func (ctx *typeContext) typecheckBoolPair(left, right ast.IsNode) schema.CedarType {
	ctx.requireBool(ctx.typecheck(left))
	ctx.requireBool(ctx.typecheck(right))
	return schema.BoolType{}
}

func (ctx *typeContext) requireBool(t schema.CedarType) {
	if !isTypeBoolean(t) && !isTypeUnknown(t) {
		ctx.errors = append(ctx.errors,
			fmt.Sprintf("boolean operator requires boolean operands, got %s", t))
	}
}

func (ctx *typeContext) typecheckUnaryBool(arg ast.IsNode) schema.CedarType {
	argType := ctx.typecheck(arg)
	if !isTypeBoolean(argType) && !isTypeUnknown(argType) {
		ctx.errors = append(ctx.errors, fmt.Sprintf("! operator requires boolean operand, got %s", argType))
	}
	return schema.BoolType{}
}

func (ctx *typeContext) typecheckUnaryLong(arg ast.IsNode, opName string) schema.CedarType {
	argType := ctx.typecheck(arg)
	if !isTypeLong(argType) && !isTypeUnknown(argType) {
		ctx.errors = append(ctx.errors, fmt.Sprintf("%s requires Long operand, got %s", opName, argType))
	}
	return schema.LongType{}
}

// typecheckEquality handles == and !=. Equality between any two types is
// permitted; mismatched types simply compare unequal at evaluation time.
func (ctx *typeContext) typecheckEquality(left, right ast.IsNode) schema.CedarType {
	ctx.typecheck(left)
	ctx.typecheck(right)
	return schema.BoolType{}
}

func (ctx *typeContext) typecheckComparison(left, right ast.IsNode) schema.CedarType {
	ctx.requireLong(ctx.typecheck(left), "comparison operator")
	ctx.requireLong(ctx.typecheck(right), "comparison operator")
	return schema.BoolType{}
}

func (ctx *typeContext) typecheckArithmetic(left, right ast.IsNode) schema.CedarType {
	ctx.requireLong(ctx.typecheck(left), "arithmetic operator")
	ctx.requireLong(ctx.typecheck(right), "arithmetic operator")
	return schema.LongType{}
}

func (ctx *typeContext) requireLong(t schema.CedarType, opName string) {
	if !isTypeLong(t) && !isTypeUnknown(t) {
		ctx.errors = append(ctx.errors,
			fmt.Sprintf("%s requires Long operands, got %s", opName, t))
	}
}

// typecheckIn handles the hierarchy membership operator.
func (ctx *typeContext) typecheckIn(n ast.NodeTypeIn) schema.CedarType {
	leftType := ctx.typecheck(n.Left)
	rightType := ctx.typecheck(n.Right)

	if !isTypeEntity(leftType) && !isTypeUnknown(leftType) {
		ctx.errors = append(ctx.errors,
			fmt.Sprintf("'in' operator left operand must be entity, got %s", leftType))
	}
	if !isTypeEntity(rightType) && !isTypeSet(rightType) && !isTypeUnknown(rightType) {
		ctx.errors = append(ctx.errors,
			fmt.Sprintf("'in' operator right operand must be entity or set, got %s", rightType))
	}

	return schema.BoolType{}
}

// typecheckAccess handles attribute access such as principal.department.
func (ctx *typeContext) typecheckAccess(n ast.NodeTypeAccess) schema.CedarType {
	ctx.currentLevel++
	defer func() { ctx.currentLevel-- }()

	if ctx.v.maxAttributeLevel > 0 && ctx.currentLevel > ctx.v.maxAttributeLevel {
		ctx.errors = append(ctx.errors,
			fmt.Sprintf("attribute access exceeds maximum level %d", ctx.v.maxAttributeLevel))
	}

	baseType := ctx.typecheck(n.Arg)
	attrName := string(n.Value)

	switch t := baseType.(type) {
	case schema.EntityType:
		if t.Name == "" {
			return schema.UnknownType{}
		}
		info, ok := ctx.v.entityTypes[t.Name]
		if !ok {
			return schema.UnknownType{}
		}
		attr, ok := info.Attributes[attrName]
		if !ok {
			if !info.OpenRecord {
				ctx.errors = append(ctx.errors,
					fmt.Sprintf("entity type %s does not have attribute %q", t.Name, attrName))
			}
			return schema.UnknownType{}
		}
		ctx.warnIfUnguardedOptional(n, attrName, attr)
		return attr.Type

	case schema.RecordType:
		attr, ok := t.Attributes[attrName]
		if !ok {
			// The record shape may be incomplete; leave it to evaluation.
			return schema.UnknownType{}
		}
		ctx.warnIfUnguardedOptional(n, attrName, attr)
		return attr.Type

	case schema.UnknownType:
		return schema.UnknownType{}

	default:
		ctx.errors = append(ctx.errors,
			fmt.Sprintf("cannot access attribute %q on type %s", attrName, baseType))
		return schema.UnknownType{}
	}
}

// warnIfUnguardedOptional warns on access to an optional attribute that is
// not covered by a has check on the left of an enclosing &&.
func (ctx *typeContext) warnIfUnguardedOptional(n ast.NodeTypeAccess, attrName string, attr schema.AttributeType) {
	if attr.Required {
		return
	}
	if key, ok := accessPath(n); ok && ctx.guards[key] > 0 {
		return
	}
	ctx.warnings = append(ctx.warnings,
		fmt.Sprintf("access to optional attribute %q is not guarded by a has check", attrName))
}

func (ctx *typeContext) typecheckSetOp(left, right ast.IsNode) schema.CedarType {
	leftType := ctx.typecheck(left)
	ctx.typecheck(right)

	if !isTypeSet(leftType) && !isTypeUnknown(leftType) {
		ctx.errors = append(ctx.errors,
			fmt.Sprintf("set operation requires Set operand, got %s", leftType))
	}
	return schema.BoolType{}
}

func (ctx *typeContext) typecheckConditional(n ast.NodeTypeIfThenElse) schema.CedarType {
	condType := ctx.typecheck(n.If)
	if !isTypeBoolean(condType) && !isTypeUnknown(condType) {
		ctx.errors = append(ctx.errors, fmt.Sprintf("if condition must be boolean, got %s", condType))
	}
	thenType := ctx.typecheck(n.Then)
	elseType := ctx.typecheck(n.Else)
	return unifyTypes(thenType, elseType)
}

func (ctx *typeContext) typecheckSetLiteral(n ast.NodeTypeSet) schema.CedarType {
	if len(n.Elements) == 0 {
		return schema.SetType{Element: schema.UnknownType{}}
	}
	var elemType schema.CedarType = schema.UnknownType{}
	for _, elem := range n.Elements {
		elemType = unifyTypes(elemType, ctx.typecheck(elem))
	}
	return schema.SetType{Element: elemType}
}

func (ctx *typeContext) typecheckRecordLiteral(n ast.NodeTypeRecord) schema.CedarType {
	attrs := make(map[string]schema.AttributeType)
	for _, elem := range n.Elements {
		attrs[string(elem.Key)] = schema.AttributeType{Type: ctx.typecheck(elem.Value), Required: true}
	}
	return schema.RecordType{Attributes: attrs}
}

// typecheckVariable handles the request variables.
func (ctx *typeContext) typecheckVariable(n ast.NodeTypeVariable) schema.CedarType {
	switch string(n.Name) {
	case "principal":
		if len(ctx.principalTypes) == 1 {
			return schema.EntityType{Name: ctx.principalTypes[0]}
		}
		return schema.EntityType{}
	case "action":
		if ctx.actionUID != nil {
			return schema.EntityType{Name: ctx.actionUID.Type}
		}
		return schema.EntityType{Name: "Action"}
	case "resource":
		if len(ctx.resourceTypes) == 1 {
			return schema.EntityType{Name: ctx.resourceTypes[0]}
		}
		return schema.EntityType{}
	case "context":
		if ctx.actionUID != nil {
			if info, ok := ctx.v.actionTypes[*ctx.actionUID]; ok {
				return info.Context
			}
		}
		return schema.RecordType{OpenRecord: true}
	default:
		return schema.UnknownType{}
	}
}

func isTypeBoolean(t schema.CedarType) bool {
	_, ok := t.(schema.BoolType)
	return ok
}

func isTypeLong(t schema.CedarType) bool {
	_, ok := t.(schema.LongType)
	return ok
}

func isTypeEntity(t schema.CedarType) bool {
	switch t.(type) {
	case schema.EntityType, schema.AnyEntityType:
		return true
	}
	return false
}

func isTypeSet(t schema.CedarType) bool {
	_, ok := t.(schema.SetType)
	return ok
}

func isTypeUnknown(t schema.CedarType) bool {
	switch t.(type) {
	case schema.UnknownType, schema.UnspecifiedType:
		return true
	}
	return false
}

// unifyTypes returns a type that represents both inputs, degrading to
// Unknown when they disagree.
func unifyTypes(t1, t2 schema.CedarType) schema.CedarType {
	if isTypeUnknown(t1) {
		return t2
	}
	if isTypeUnknown(t2) {
		return t1
	}
	if schema.TypesMatch(t1, t2) {
		return t1
	}
	return schema.UnknownType{}
}
