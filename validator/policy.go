package validator

import (
	"fmt"
	"slices"

	"github.com/gavel-authz/gavel/ast"
	"github.com/gavel-authz/gavel/schema"
	"github.com/gavel-authz/gavel/types"
)

// validatePolicyScope validates the scope constraints of a policy.
func (v *Validator) validatePolicyScope(policy *ast.Policy) []string {
	var errs []string

	v.validateEntityScope(policy.Principal, "principal", &errs)
	v.validateActionScope(policy.Action, &errs)
	v.validateEntityScope(policy.Resource, "resource", &errs)
	v.validateActionAppliesTo(policy, &errs)

	return errs
}

// validateEntityScope validates a principal or resource scope.
func (v *Validator) validateEntityScope(scope ast.IsScopeNode, scopeName string, errs *[]string) {
	switch s := scope.(type) {
	case ast.ScopeTypeEq:
		v.checkEntityType(s.Entity.Type, scopeName, errs)
	case ast.ScopeTypeIn:
		v.checkEntityType(s.Entity.Type, scopeName, errs)
	case ast.ScopeTypeIs:
		v.checkEntityTypeStrict(s.Type, scopeName, errs)
	case ast.ScopeTypeIsIn:
		v.checkEntityTypeStrict(s.Type, scopeName, errs)
	}
}

// checkEntityType validates an entity type, allowing action types as a
// special case.
func (v *Validator) checkEntityType(t types.EntityType, scopeName string, errs *[]string) {
	if _, ok := v.entityTypes[t]; !ok && !v.isActionEntityType(t) {
		*errs = append(*errs, fmt.Sprintf("%s scope references unknown entity type: %s", scopeName, t))
	}
}

// checkEntityTypeStrict validates an entity type without special cases.
func (v *Validator) checkEntityTypeStrict(t types.EntityType, scopeName string, errs *[]string) {
	if _, ok := v.entityTypes[t]; !ok {
		*errs = append(*errs, fmt.Sprintf("%s scope references unknown entity type: %s", scopeName, t))
	}
}

// validateActionScope validates the action scope.
func (v *Validator) validateActionScope(scope ast.IsScopeNode, errs *[]string) {
	switch s := scope.(type) {
	case ast.ScopeTypeEq:
		v.validateActionScopeEq(s, errs)
	case ast.ScopeTypeIn:
		// Action groups need not be declared explicitly.
	case ast.ScopeTypeInSet:
		v.validateActionScopeInSet(s, errs)
	}
}

func (v *Validator) validateActionScopeEq(s ast.ScopeTypeEq, errs *[]string) {
	info, ok := v.actionTypes[s.Entity]
	if !ok {
		*errs = append(*errs, fmt.Sprintf("action scope references unknown action: %s", s.Entity))
		return
	}
	if !actionHasValidAppliesTo(info) {
		*errs = append(*errs, fmt.Sprintf("impossiblePolicy: action %s has no valid appliesTo configuration", s.Entity))
	}
}

func (v *Validator) validateActionScopeInSet(s ast.ScopeTypeInSet, errs *[]string) {
	if len(s.Entities) == 0 {
		*errs = append(*errs, "impossiblePolicy: action in empty set can never match")
		return
	}

	allInvalid := true
	for _, entity := range s.Entities {
		info, ok := v.actionTypes[entity]
		if !ok {
			*errs = append(*errs, fmt.Sprintf("action scope references unknown action: %s", entity))
		} else if actionHasValidAppliesTo(info) {
			allInvalid = false
		}
	}

	if allInvalid {
		*errs = append(*errs, "impossiblePolicy: no action in set has valid appliesTo configuration")
	}
}

// actionHasValidAppliesTo reports whether an action declares at least one
// principal type and at least one resource type.
func actionHasValidAppliesTo(info *schema.ActionTypeInfo) bool {
	return len(info.PrincipalTypes) > 0 && len(info.ResourceTypes) > 0
}

// validateActionAppliesTo checks that the policy's principal and resource
// constraints are satisfiable for at least one of the actions in scope.
func (v *Validator) validateActionAppliesTo(policy *ast.Policy, errs *[]string) {
	actionInfos := v.getActionInfos(policy.Action)
	if len(actionInfos) == 0 {
		return
	}

	for _, info := range actionInfos {
		principalOK := v.isScopeSatisfiable(policy.Principal, info.PrincipalTypes)
		resourceOK := v.isScopeSatisfiable(policy.Resource, info.ResourceTypes)
		if principalOK && resourceOK {
			return
		}
	}

	v.reportAppliesToError(policy, actionInfos, errs)
}

// reportAppliesToError pins down which side of the scope made the policy
// impossible.
func (v *Validator) reportAppliesToError(policy *ast.Policy, actionInfos []*schema.ActionTypeInfo, errs *[]string) {
	principalTypes := unionTypes(actionInfos, func(info *schema.ActionTypeInfo) []types.EntityType { return info.PrincipalTypes })
	resourceTypes := unionTypes(actionInfos, func(info *schema.ActionTypeInfo) []types.EntityType { return info.ResourceTypes })

	principalOK := v.isScopeSatisfiable(policy.Principal, principalTypes)
	resourceOK := v.isScopeSatisfiable(policy.Resource, resourceTypes)

	if !principalOK {
		v.checkScopeTypeAllowed(policy.Principal, principalTypes, "principal", errs)
	}
	if !resourceOK {
		v.checkScopeTypeAllowed(policy.Resource, resourceTypes, "resource", errs)
	}
	if principalOK && resourceOK {
		*errs = append(*errs, "impossiblePolicy: no action supports the combination of principal and resource types in this policy")
	}
}

// getActionInfos returns the declarations of every action the scope can
// match. An unconstrained action scope matches all declared actions.
func (v *Validator) getActionInfos(scope ast.IsScopeNode) []*schema.ActionTypeInfo {
	switch s := scope.(type) {
	case ast.ScopeTypeAll:
		var infos []*schema.ActionTypeInfo
		for _, info := range v.actionTypes {
			infos = append(infos, info)
		}
		return infos
	case ast.ScopeTypeEq:
		if info, ok := v.actionTypes[s.Entity]; ok {
			return []*schema.ActionTypeInfo{info}
		}
	case ast.ScopeTypeInSet:
		var infos []*schema.ActionTypeInfo
		for _, entity := range s.Entities {
			if info, ok := v.actionTypes[entity]; ok {
				infos = append(infos, info)
			}
		}
		return infos
	}
	return nil
}

// unionTypes returns the deduplicated union of one type list per action.
func unionTypes(infos []*schema.ActionTypeInfo, pick func(*schema.ActionTypeInfo) []types.EntityType) []types.EntityType {
	seen := make(map[types.EntityType]bool)
	var result []types.EntityType
	for _, info := range infos {
		for _, t := range pick(info) {
			if !seen[t] {
				seen[t] = true
				result = append(result, t)
			}
		}
	}
	return result
}

// isScopeSatisfiable checks whether a scope constraint can be satisfied by
// some entity of one of the allowed types.
func (v *Validator) isScopeSatisfiable(scope ast.IsScopeNode, allowed []types.EntityType) bool {
	if len(allowed) == 0 {
		return false
	}

	switch s := scope.(type) {
	case ast.ScopeTypeAll:
		return true
	case ast.ScopeTypeEq:
		if v.isActionEntityType(s.Entity.Type) {
			return true
		}
		return v.typeInList(s.Entity.Type, allowed)
	case ast.ScopeTypeIs:
		return v.typeInList(s.Type, allowed)
	case ast.ScopeTypeIsIn:
		return v.typeInList(s.Type, allowed)
	case ast.ScopeTypeIn:
		return v.typeInList(s.Entity.Type, allowed) || v.canAnyTypeBeDescendantOf(allowed, s.Entity.Type)
	}
	return true
}

// checkScopeTypeAllowed reports why a scope's entity type cannot satisfy the
// allowed list.
func (v *Validator) checkScopeTypeAllowed(scope ast.IsScopeNode, allowed []types.EntityType, scopeName string, errs *[]string) {
	if len(allowed) == 0 {
		return
	}

	switch s := scope.(type) {
	case ast.ScopeTypeEq:
		if v.isActionEntityType(s.Entity.Type) {
			return
		}
		if !v.typeInList(s.Entity.Type, allowed) {
			*errs = append(*errs, fmt.Sprintf("impossiblePolicy: %s type %s is not allowed for this action (allowed: %v)", scopeName, s.Entity.Type, allowed))
		}
	case ast.ScopeTypeIs:
		v.checkScopeTypeIs(s.Type, allowed, scopeName, errs)
	case ast.ScopeTypeIsIn:
		v.checkScopeTypeIs(s.Type, allowed, scopeName, errs)
	case ast.ScopeTypeIn:
		v.checkScopeTypeIn(s, allowed, scopeName, errs)
	}
}

func (v *Validator) checkScopeTypeIs(entityType types.EntityType, allowed []types.EntityType, scopeName string, errs *[]string) {
	if !v.typeInList(entityType, allowed) {
		*errs = append(*errs, fmt.Sprintf("impossiblePolicy: %s type %s is not allowed for this action (allowed: %v)", scopeName, entityType, allowed))
	}
}

// checkScopeTypeIn validates "principal/resource in Entity" constraints. The
// group's type must be allowed for the action, and at least one allowed type
// must be able to sit below it in the hierarchy per memberOfTypes.
func (v *Validator) checkScopeTypeIn(s ast.ScopeTypeIn, allowed []types.EntityType, scopeName string, errs *[]string) {
	entityType := s.Entity.Type

	if !v.typeInList(entityType, allowed) && !v.canAnyTypeBeDescendantOf(allowed, entityType) {
		*errs = append(*errs, fmt.Sprintf("impossiblePolicy: %s in %s::%q is not satisfiable (no allowed type can be in %s)", scopeName, entityType, s.Entity.ID, entityType))
	}
}

func (v *Validator) canAnyTypeBeDescendantOf(typeList []types.EntityType, target types.EntityType) bool {
	for _, t := range typeList {
		if t == target {
			// "in" is reflexive, an entity is in itself.
			return true
		}
		if v.canBeDescendantOf(t, target, make(map[types.EntityType]bool)) {
			return true
		}
	}
	return false
}

// canBeDescendantOf checks whether sourceType's memberOfTypes chain can
// transitively reach targetType.
func (v *Validator) canBeDescendantOf(sourceType, targetType types.EntityType, visited map[types.EntityType]bool) bool {
	if visited[sourceType] {
		return false
	}
	visited[sourceType] = true

	info := v.entityTypes[sourceType]
	if info == nil {
		return false
	}

	for _, memberOf := range info.MemberOfTypes {
		if memberOf == targetType {
			return true
		}
		if v.canBeDescendantOf(memberOf, targetType, visited) {
			return true
		}
	}

	return false
}

// hasImpossibleCondition checks for conditions that constant-fold to a value
// that can never let the policy apply: when { false } or unless { true },
// including composites like when { true && !true }.
func (v *Validator) hasImpossibleCondition(policy *ast.Policy) bool {
	return slices.ContainsFunc(policy.Conditions, isConditionImpossible)
}

func isConditionImpossible(cond ast.ConditionType) bool {
	boolVal, isConst := foldConstantBool(cond.Body)
	if !isConst {
		return false
	}
	return (cond.Condition == ast.ConditionWhen && !boolVal) ||
		(cond.Condition == ast.ConditionUnless && boolVal)
}

// foldConstantBool evaluates a condition body as a constant boolean where
// possible. The second return reports whether the expression was constant.
func foldConstantBool(node ast.IsNode) (bool, bool) {
	switch n := node.(type) {
	case ast.NodeValue:
		if boolVal, ok := n.Value.(types.Boolean); ok {
			return bool(boolVal), true
		}
		return false, false
	case ast.NodeTypeNot:
		if val, isConst := foldConstantBool(n.Arg); isConst {
			return !val, true
		}
		return false, false
	case ast.NodeTypeAnd:
		return foldConstantAnd(n)
	case ast.NodeTypeOr:
		return foldConstantOr(n)
	case ast.NodeTypeIfThenElse:
		return foldConstantIfThenElse(n)
	default:
		return false, false
	}
}

func foldConstantAnd(n ast.NodeTypeAnd) (bool, bool) {
	leftVal, leftConst := foldConstantBool(n.Left)
	rightVal, rightConst := foldConstantBool(n.Right)

	if leftConst && rightConst {
		return leftVal && rightVal, true
	}
	// A constant false on either side short-circuits.
	if leftConst && !leftVal {
		return false, true
	}
	if rightConst && !rightVal {
		return false, true
	}
	return false, false
}

func foldConstantOr(n ast.NodeTypeOr) (bool, bool) {
	leftVal, leftConst := foldConstantBool(n.Left)
	rightVal, rightConst := foldConstantBool(n.Right)

	if leftConst && rightConst {
		return leftVal || rightVal, true
	}
	// A constant true on either side short-circuits.
	if leftConst && leftVal {
		return true, true
	}
	if rightConst && rightVal {
		return true, true
	}
	return false, false
}

func foldConstantIfThenElse(n ast.NodeTypeIfThenElse) (bool, bool) {
	condVal, condConst := foldConstantBool(n.If)
	if !condConst {
		return false, false
	}
	if condVal {
		return foldConstantBool(n.Then)
	}
	return foldConstantBool(n.Else)
}

// isSchemaEmpty reports whether no action declares a complete appliesTo, in
// which case there is no valid request environment at all.
func (v *Validator) isSchemaEmpty() bool {
	for _, info := range v.actionTypes {
		if actionHasValidAppliesTo(info) {
			return false
		}
	}
	return true
}
