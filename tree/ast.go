// Package tree builds syntax trees from the reductions of a parser.
package tree

import (
	"fmt"
	"io"

	"github.com/nihei9/grove/lexer"
	"github.com/nihei9/grove/spec"
)

type NodeKind int

const (
	NodeKindToken    = NodeKind(0)
	NodeKindVariable = NodeKind(1)
	NodeKindVirtual  = NodeKind(2)
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindToken:
		return "token"
	case NodeKindVariable:
		return "variable"
	case NodeKindVirtual:
		return "virtual"
	}
	return "unknown"
}

type astNode struct {
	kind     NodeKind
	symbol   spec.Symbol
	token    int
	children []int

	// replaceable is true when the parent of the node takes the children of the node in place of the node.
	replaceable bool
}

// AST is a syntax tree. Nodes are stored in an arena and are addressed by their index.
type AST struct {
	nodes  []*astNode
	root   int
	tokens *lexer.TokenRepository
}

func newAST(tokens *lexer.TokenRepository) *AST {
	return &AST{
		root:   -1,
		tokens: tokens,
	}
}

func (t *AST) add(n *astNode) int {
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

func (t *AST) newToken(index int) int {
	return t.add(&astNode{
		kind:   NodeKindToken,
		symbol: t.tokens.Symbol(index),
		token:  index,
	})
}

func (t *AST) newVirtual(sym spec.Symbol) int {
	return t.add(&astNode{
		kind:   NodeKindVirtual,
		symbol: sym,
		token:  -1,
	})
}

func (t *AST) newVariable(sym spec.Symbol, children []int) int {
	return t.add(&astNode{
		kind:     NodeKindVariable,
		symbol:   sym,
		token:    -1,
		children: children,
	})
}

// Root returns the root of the tree. ok is false when the tree is empty.
func (t *AST) Root() (Node, bool) {
	if t == nil || t.root < 0 {
		return Node{}, false
	}
	return Node{ast: t, id: t.root}, true
}

// Tokens returns the repository of the tokens the tree refers to.
func (t *AST) Tokens() *lexer.TokenRepository {
	return t.tokens
}

// Node is a handle of a node of an AST.
type Node struct {
	ast *AST
	id  int
}

func (n Node) ID() int {
	return n.id
}

func (n Node) Kind() NodeKind {
	return n.ast.nodes[n.id].kind
}

func (n Node) Symbol() spec.Symbol {
	return n.ast.nodes[n.id].symbol
}

// Token returns the index of the token of a token node, or -1.
func (n Node) Token() int {
	return n.ast.nodes[n.id].token
}

// Value returns the text of a token node. The other nodes have no value.
func (n Node) Value() string {
	tok := n.Token()
	if tok < 0 {
		return ""
	}
	return n.ast.tokens.Value(tok)
}

// Position returns the position of the first token under the node. ok is false when there is no token
// under the node.
func (n Node) Position() (lexer.Position, bool) {
	if tok := n.Token(); tok >= 0 {
		return n.ast.tokens.Position(tok), true
	}
	for _, c := range n.Children() {
		if pos, ok := c.Position(); ok {
			return pos, true
		}
	}
	return lexer.Position{}, false
}

func (n Node) ChildCount() int {
	return len(n.ast.nodes[n.id].children)
}

func (n Node) Child(i int) Node {
	return Node{
		ast: n.ast,
		id:  n.ast.nodes[n.id].children[i],
	}
}

func (n Node) Children() []Node {
	ids := n.ast.nodes[n.id].children
	children := make([]Node, len(ids))
	for i, id := range ids {
		children[i] = Node{
			ast: n.ast,
			id:  id,
		}
	}
	return children
}

// PrintTree writes a tree in a human-readable form.
func PrintTree(w io.Writer, t *AST) {
	root, ok := t.Root()
	if !ok {
		return
	}
	printTree(w, root, "", "")
}

func printTree(w io.Writer, node Node, ruledLine string, childRuledLinePrefix string) {
	name := node.Symbol().Name
	if name == "" {
		name = fmt.Sprintf("#%v", node.Symbol().ID)
	}

	switch node.Kind() {
	case NodeKindToken:
		fmt.Fprintf(w, "%v%v %#v\n", ruledLine, name, node.Value())
	case NodeKindVirtual:
		fmt.Fprintf(w, "%v<%v>\n", ruledLine, name)
	default:
		fmt.Fprintf(w, "%v%v\n", ruledLine, name)
	}

	num := node.ChildCount()
	for i := 0; i < num; i++ {
		var line string
		if num > 1 && i < num-1 {
			line = "├─ "
		} else {
			line = "└─ "
		}

		var prefix string
		if i >= num-1 {
			prefix = "   "
		} else {
			prefix = "│  "
		}

		printTree(w, node.Child(i), childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}
