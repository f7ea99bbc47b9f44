package bci

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeType tags a syntax tree node. The names follow the Ruby parser gem so
// trees print the way Ruby tooling prints them.
type NodeType string

const (
	NodeStr    NodeType = "str"
	NodeBegin  NodeType = "begin"
	NodeLvasgn NodeType = "lvasgn"
	NodeLvar   NodeType = "lvar"
	NodeIvasgn NodeType = "ivasgn"
	NodeIvar   NodeType = "ivar"
	NodeSelf   NodeType = "self"
	NodeNil    NodeType = "nil"
	NodeClass  NodeType = "class"
	NodeDef    NodeType = "def"
	NodeArgs   NodeType = "args"
	NodeArg    NodeType = "arg"
	NodeSend   NodeType = "send"
	NodeConst  NodeType = "const"

	// Produced by the parser but not evaluated.
	NodeInt   NodeType = "int"
	NodeFloat NodeType = "float"
	NodeSym   NodeType = "sym"
	NodeTrue  NodeType = "true"
	NodeFalse NodeType = "false"
	NodeDefs  NodeType = "defs"
	NodeCasgn NodeType = "casgn"
)

// Symbol is an interned name child, printed as :name.
type Symbol string

// Node is one syntax tree node. Children holds nested *Node values (nil for
// an absent optional child) and literals: string, Symbol, int64, float64.
type Node struct {
	Type     NodeType
	Children []any
	Pos      Position
}

// NewNode builds a node without position information.
func NewNode(tt NodeType, children ...any) *Node {
	return &Node{Type: tt, Children: children}
}

// Child returns the i-th child as a node. ok is false when the child is
// missing or is not a node; an explicit nil child reports ok with a nil node.
func (n *Node) Child(i int) (*Node, bool) {
	if i < 0 || i >= len(n.Children) {
		return nil, false
	}
	switch c := n.Children[i].(type) {
	case *Node:
		return c, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

// SymbolChild returns the i-th child as a symbol.
func (n *Node) SymbolChild(i int) (Symbol, bool) {
	if i < 0 || i >= len(n.Children) {
		return "", false
	}
	sym, ok := n.Children[i].(Symbol)
	return sym, ok
}

// StringChild returns the i-th child as a string literal.
func (n *Node) StringChild(i int) (string, bool) {
	if i < 0 || i >= len(n.Children) {
		return "", false
	}
	s, ok := n.Children[i].(string)
	return s, ok
}

// String renders the node as an s-expression, e.g. (send nil :puts (str "abc")).
func (n *Node) String() string {
	var b strings.Builder
	writeSexp(&b, n)
	return b.String()
}

func writeSexp(b *strings.Builder, n *Node) {
	if n == nil {
		b.WriteString("nil")
		return
	}
	b.WriteString("(")
	b.WriteString(string(n.Type))
	for _, child := range n.Children {
		b.WriteString(" ")
		switch c := child.(type) {
		case *Node:
			writeSexp(b, c)
		case nil:
			b.WriteString("nil")
		case Symbol:
			b.WriteString(":" + string(c))
		case string:
			b.WriteString(strconv.Quote(c))
		case int64:
			b.WriteString(strconv.FormatInt(c, 10))
		case float64:
			b.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
		default:
			fmt.Fprintf(b, "%v", c)
		}
	}
	b.WriteString(")")
}
