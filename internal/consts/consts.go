// Package consts holds the variable names shared by the AST and the
// evaluator.
package consts

import "github.com/gavel-authz/gavel/types"

const (
	Principal types.String = "principal"
	Action    types.String = "action"
	Resource  types.String = "resource"
	Context   types.String = "context"
)
