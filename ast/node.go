package ast

import (
	"github.com/gavel-authz/gavel/internal/consts"
	"github.com/gavel-authz/gavel/types"
)

// IsNode is implemented by every condition expression node.
type IsNode interface {
	isNode()
}

type node struct{}

func (node) isNode() {}

// UnaryNode is embedded by nodes with a single argument.
type UnaryNode struct {
	node
	Arg IsNode
}

// BinaryNode is embedded by nodes with two arguments.
type BinaryNode struct {
	node
	Left, Right IsNode
}

// StrOpNode is embedded by nodes that take an argument and an attribute name.
type StrOpNode struct {
	node
	Arg   IsNode
	Value types.String
}

// NodeValue is a literal value.
type NodeValue struct {
	node
	Value types.Value
}

// NodeTypeVariable references one of the request variables: principal,
// action, resource, or context.
type NodeTypeVariable struct {
	node
	Name types.String
}

// NodeTypeAccess reads an attribute from an entity or record.
type NodeTypeAccess struct{ StrOpNode }

// NodeTypeHas tests whether an entity or record has an attribute.
type NodeTypeHas struct{ StrOpNode }

// NodeTypeNot is boolean negation.
type NodeTypeNot struct{ UnaryNode }

// NodeTypeNegate is arithmetic negation.
type NodeTypeNegate struct{ UnaryNode }

type NodeTypeAnd struct{ BinaryNode }

type NodeTypeOr struct{ BinaryNode }

type NodeTypeEquals struct{ BinaryNode }

type NodeTypeNotEquals struct{ BinaryNode }

type NodeTypeLessThan struct{ BinaryNode }

type NodeTypeLessThanOrEqual struct{ BinaryNode }

type NodeTypeGreaterThan struct{ BinaryNode }

type NodeTypeGreaterThanOrEqual struct{ BinaryNode }

type NodeTypeAdd struct{ BinaryNode }

type NodeTypeSub struct{ BinaryNode }

type NodeTypeMult struct{ BinaryNode }

// NodeTypeIn tests hierarchy membership: left entity in right entity or set
// of entities.
type NodeTypeIn struct{ BinaryNode }

type NodeTypeContains struct{ BinaryNode }

type NodeTypeContainsAll struct{ BinaryNode }

type NodeTypeContainsAny struct{ BinaryNode }

// NodeTypeIs tests whether the left entity has the given type.
type NodeTypeIs struct {
	node
	Left       IsNode
	EntityType types.EntityType
}

// NodeTypeIsIn combines an is-type test with hierarchy membership.
type NodeTypeIsIn struct {
	node
	Left       IsNode
	EntityType types.EntityType
	Entity     IsNode
}

type NodeTypeIfThenElse struct {
	node
	If, Then, Else IsNode
}

type NodeTypeSet struct {
	node
	Elements []IsNode
}

type RecordElementNode struct {
	Key   types.String
	Value IsNode
}

type NodeTypeRecord struct {
	node
	Elements []RecordElementNode
}

// Node is the fluent wrapper used to build condition expressions, e.g.
//
//	ast.Resource().Access("owner").Equal(ast.Principal())
type Node struct {
	v IsNode
}

// NewNode wraps an already-built expression node.
func NewNode(v IsNode) Node { return Node{v: v} }

// AsIsNode unwraps the underlying expression node.
func (n Node) AsIsNode() IsNode { return n.v }

// Principal is the principal variable of the request under evaluation.
func Principal() Node {
	return NewNode(NodeTypeVariable{Name: consts.Principal})
}

// Action is the action variable of the request under evaluation.
func Action() Node {
	return NewNode(NodeTypeVariable{Name: consts.Action})
}

// Resource is the resource variable of the request under evaluation.
func Resource() Node {
	return NewNode(NodeTypeVariable{Name: consts.Resource})
}

// Context is the context record of the request under evaluation.
func Context() Node {
	return NewNode(NodeTypeVariable{Name: consts.Context})
}

// Value wraps a literal value.
func Value(v types.Value) Node {
	return NewNode(NodeValue{Value: v})
}

func Boolean(b types.Boolean) Node { return Value(b) }

func True() Node { return Boolean(true) }

func False() Node { return Boolean(false) }

func Long(l types.Long) Node { return Value(l) }

func String(s types.String) Node { return Value(s) }

func EntityUID(typ types.EntityType, id types.String) Node {
	return Value(types.NewEntityUID(typ, id))
}

// Set builds a set literal from the given element expressions.
func Set(nodes ...Node) Node {
	elements := make([]IsNode, len(nodes))
	for i, n := range nodes {
		elements[i] = n.v
	}
	return NewNode(NodeTypeSet{Elements: elements})
}

// Pair is a key/value element of a record literal.
type Pair struct {
	Key   types.String
	Value Node
}

// Pairs is the element list of a record literal.
type Pairs []Pair

// Record builds a record literal from the given pairs.
func Record(pairs Pairs) Node {
	elements := make([]RecordElementNode, len(pairs))
	for i, p := range pairs {
		elements[i] = RecordElementNode{Key: p.Key, Value: p.Value.v}
	}
	return NewNode(NodeTypeRecord{Elements: elements})
}

// Not negates a boolean expression.
func Not(n Node) Node {
	return NewNode(NodeTypeNot{UnaryNode: UnaryNode{Arg: n.v}})
}

// Negate negates an arithmetic expression.
func Negate(n Node) Node {
	return NewNode(NodeTypeNegate{UnaryNode: UnaryNode{Arg: n.v}})
}

// IfThenElse builds a conditional expression.
func IfThenElse(condition, thenNode, elseNode Node) Node {
	return NewNode(NodeTypeIfThenElse{If: condition.v, Then: thenNode.v, Else: elseNode.v})
}

// Access reads the named attribute of the receiver.
func (lhs Node) Access(attr types.String) Node {
	return NewNode(NodeTypeAccess{StrOpNode: StrOpNode{Arg: lhs.v, Value: attr}})
}

// Has tests whether the receiver has the named attribute.
func (lhs Node) Has(attr types.String) Node {
	return NewNode(NodeTypeHas{StrOpNode: StrOpNode{Arg: lhs.v, Value: attr}})
}

func (lhs Node) And(rhs Node) Node {
	return NewNode(NodeTypeAnd{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

func (lhs Node) Or(rhs Node) Node {
	return NewNode(NodeTypeOr{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

func (lhs Node) Equal(rhs Node) Node {
	return NewNode(NodeTypeEquals{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

func (lhs Node) NotEqual(rhs Node) Node {
	return NewNode(NodeTypeNotEquals{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

func (lhs Node) LessThan(rhs Node) Node {
	return NewNode(NodeTypeLessThan{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

func (lhs Node) LessThanOrEqual(rhs Node) Node {
	return NewNode(NodeTypeLessThanOrEqual{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

func (lhs Node) GreaterThan(rhs Node) Node {
	return NewNode(NodeTypeGreaterThan{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

func (lhs Node) GreaterThanOrEqual(rhs Node) Node {
	return NewNode(NodeTypeGreaterThanOrEqual{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

func (lhs Node) Add(rhs Node) Node {
	return NewNode(NodeTypeAdd{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

func (lhs Node) Subtract(rhs Node) Node {
	return NewNode(NodeTypeSub{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

func (lhs Node) Multiply(rhs Node) Node {
	return NewNode(NodeTypeMult{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

// In tests hierarchy membership of the receiver in rhs, which may be an
// entity or a set of entities.
func (lhs Node) In(rhs Node) Node {
	return NewNode(NodeTypeIn{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

// Is tests whether the receiver is an entity of the given type.
func (lhs Node) Is(entityType types.EntityType) Node {
	return NewNode(NodeTypeIs{Left: lhs.v, EntityType: entityType})
}

// IsIn combines Is with In.
func (lhs Node) IsIn(entityType types.EntityType, rhs Node) Node {
	return NewNode(NodeTypeIsIn{Left: lhs.v, EntityType: entityType, Entity: rhs.v})
}

func (lhs Node) Contains(rhs Node) Node {
	return NewNode(NodeTypeContains{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

func (lhs Node) ContainsAll(rhs Node) Node {
	return NewNode(NodeTypeContainsAll{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}

func (lhs Node) ContainsAny(rhs Node) Node {
	return NewNode(NodeTypeContainsAny{BinaryNode: BinaryNode{Left: lhs.v, Right: rhs.v}})
}
