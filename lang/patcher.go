package lang

import (
	"log/slog"

	"github.com/expr-lang/expr/ast"

	"github.com/ardnew/artmpl/log"
)

// Names of the functions the patcher calls. They are registered with
// every compiled expression.
const (
	fnTruthy = "$truthy"
	fnNot    = "$not"
	fnAdd    = "$add"
	fnLength = "$length"
)

// jsPatcher rewrites expr-lang operators to their loose counterparts:
//
//	a || b   $truthy(a) ? a : b
//	a && b   $truthy(a) ? b : a
//	!a       $not(a)
//	c ? x : y  $truthy(c) ? x : y
//	a + b    $add(a, b)
//	a.length $length(a)
//
// The logical operators return the deciding operand instead of a bool.
type jsPatcher struct {
	logger log.Logger
}

// Visit implements ast.Visitor. Nodes are visited after their children.
func (p *jsPatcher) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.BinaryNode:
		switch n.Operator {
		case "||", "or":
			p.patch(node, "or", &ast.ConditionalNode{
				Cond: call(fnTruthy, n.Left),
				Exp1: n.Left,
				Exp2: n.Right,
			})
		case "&&", "and":
			p.patch(node, "and", &ast.ConditionalNode{
				Cond: call(fnTruthy, n.Left),
				Exp1: n.Right,
				Exp2: n.Left,
			})
		case "+":
			p.patch(node, "add", call(fnAdd, n.Left, n.Right))
		}

	case *ast.UnaryNode:
		if n.Operator == "!" || n.Operator == "not" {
			p.patch(node, "not", call(fnNot, n.Node))
		}

	case *ast.ConditionalNode:
		if !isCall(n.Cond, fnTruthy) {
			n.Cond = call(fnTruthy, n.Cond)
		}

	case *ast.MemberNode:
		if s, ok := n.Property.(*ast.StringNode); ok && s.Value == "length" && !n.Method {
			p.patch(node, "length", call(fnLength, n.Node))
		}
	}
}

func (p *jsPatcher) patch(node *ast.Node, kind string, with ast.Node) {
	ast.Patch(node, with)
	p.logger.Trace("patch operator", slog.String("patch_type", kind))
}

func call(name string, args ...ast.Node) *ast.CallNode {
	return &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: name},
		Arguments: args,
	}
}

func isCall(node ast.Node, name string) bool {
	c, ok := node.(*ast.CallNode)
	if !ok {
		return false
	}

	id, ok := c.Callee.(*ast.IdentifierNode)

	return ok && id.Value == name
}
