package tree

import (
	"github.com/nihei9/grove/lexer"
	"github.com/nihei9/grove/spec"
)

// ForestChild is a child of a reduction together with the tree action shaping it.
type ForestChild struct {
	Node   int
	Action spec.TreeAction
}

// Version is one derivation of a forest node. A node deriving its span in several ways has several
// versions. Kind, Symbol, and Token differ from the ones of the node only when a child was promoted.
type Version struct {
	Kind     NodeKind
	Symbol   spec.Symbol
	Token    int
	Children []int
}

type forestNode struct {
	kind     NodeKind
	symbol   spec.Symbol
	token    int
	versions []Version

	// A replaceable node puts its pending children in place of itself wherever it becomes a child.
	replaceable bool
	pending     []ForestChild

	labels int
}

// Forest is a shared packed parse forest. Sub-trees shared by several stacks of a GLR parser are stored
// once.
type Forest struct {
	nodes    []*forestNode
	tokens   *lexer.TokenRepository
	released int
}

func (f *Forest) add(n *forestNode) int {
	f.nodes = append(f.nodes, n)
	return len(f.nodes) - 1
}

func (f *Forest) NodeCount() int {
	return len(f.nodes)
}

// Versions returns the derivations of a node.
func (f *Forest) Versions(node int) []Version {
	return f.nodes[node].versions
}

// Ambiguities returns the nodes having more than one derivation.
func (f *Forest) Ambiguities() []int {
	var nodes []int
	for i, n := range f.nodes {
		if len(n.versions) > 1 {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// Released returns the number of labels freed so far.
func (f *Forest) Released() int {
	return f.released
}

// LiveLabels returns the number of labels of a node not freed yet.
func (f *Forest) LiveLabels(node int) int {
	return f.nodes[node].labels
}

// Label attaches a forest node to an edge of a graph-structured stack.
type Label struct {
	forest *Forest
	Node   int
}

func (l *Label) Free() {
	l.forest.nodes[l.Node].labels--
	l.forest.released++
}

// SPPFBuilder builds a Forest from the reductions of a GLR parser.
type SPPFBuilder struct {
	forest   *Forest
	virtuals []spec.Symbol
}

func NewSPPFBuilder(tokens *lexer.TokenRepository, virtuals []spec.Symbol) *SPPFBuilder {
	return &SPPFBuilder{
		forest: &Forest{
			tokens: tokens,
		},
		virtuals: virtuals,
	}
}

func (b *SPPFBuilder) Forest() *Forest {
	return b.forest
}

// Label returns a new label of a node.
func (b *SPPFBuilder) Label(node int) *Label {
	b.forest.nodes[node].labels++
	return &Label{
		forest: b.forest,
		Node:   node,
	}
}

func (b *SPPFBuilder) NewToken(index int) int {
	sym := b.forest.tokens.Symbol(index)
	return b.forest.add(&forestNode{
		kind:   NodeKindToken,
		symbol: sym,
		token:  index,
		versions: []Version{
			{Kind: NodeKindToken, Symbol: sym, Token: index},
		},
	})
}

func (b *SPPFBuilder) NewVirtual(index int) int {
	sym := b.virtuals[index]
	return b.forest.add(&forestNode{
		kind:   NodeKindVirtual,
		symbol: sym,
		token:  -1,
		versions: []Version{
			{Kind: NodeKindVirtual, Symbol: sym, Token: -1},
		},
	})
}

// NewVariable returns a node of a variable having no derivation yet.
func (b *SPPFBuilder) NewVariable(sym spec.Symbol) int {
	return b.forest.add(&forestNode{
		kind:   NodeKindVariable,
		symbol: sym,
		token:  -1,
	})
}

// IsReplaceable reports whether a node puts its children in place of itself.
func (b *SPPFBuilder) IsReplaceable(node int) bool {
	return b.forest.nodes[node].replaceable
}

// HasDerivation reports whether a node has a version or is replaceable.
func (b *SPPFBuilder) HasDerivation(node int) bool {
	n := b.forest.nodes[node]
	return n.replaceable || len(n.versions) > 0
}

// Element returns a node as an element of a semantic body.
func (b *SPPFBuilder) Element(node int) Element {
	n := b.forest.nodes[node]
	e := Element{
		Symbol: n.symbol,
		Token:  n.token,
	}
	if n.token >= 0 {
		e.Value = b.forest.tokens.Value(n.token)
	}
	return e
}

// AddVersion adds a derivation to a node and reports whether the derivation is new. `headAction` is the
// head action of the production deriving the node.
func (b *SPPFBuilder) AddVersion(node int, children []ForestChild, headAction spec.TreeAction) bool {
	n := b.forest.nodes[node]

	if headAction == spec.TreeActionReplaceByChildren {
		if n.replaceable || len(n.versions) > 0 {
			return false
		}
		n.replaceable = true
		n.pending = children
		return true
	}

	v := b.shape(n, children)
	if headAction == spec.TreeActionReplaceByEpsilon && len(v.Children) == 0 {
		if n.replaceable || len(n.versions) > 0 {
			return false
		}
		n.replaceable = true
		return true
	}
	for _, w := range n.versions {
		if sameVersion(v, w) {
			return false
		}
	}
	n.versions = append(n.versions, v)
	return true
}

func sameVersion(v, w Version) bool {
	if v.Symbol.ID != w.Symbol.ID || v.Token != w.Token || len(v.Children) != len(w.Children) {
		return false
	}
	for i := range v.Children {
		if v.Children[i] != w.Children[i] {
			return false
		}
	}
	return true
}

// shape applies tree actions to children and returns the resulting version of a node.
func (b *SPPFBuilder) shape(n *forestNode, children []ForestChild) Version {
	f := b.forest
	var out []int
	promoted := -1

	var place func(c ForestChild)
	place = func(c ForestChild) {
		child := f.nodes[c.Node]
		switch {
		case c.Action == spec.TreeActionDrop:
		case child.replaceable:
			for _, p := range child.pending {
				place(p)
			}
		case c.Action == spec.TreeActionReplaceByChildren:
			if len(child.versions) > 0 {
				out = append(out, child.versions[0].Children...)
			}
		case c.Action == spec.TreeActionPromote:
			if promoted >= 0 {
				prev := f.nodes[promoted]
				out = []int{f.add(&forestNode{
					kind:   prev.kind,
					symbol: prev.symbol,
					token:  prev.token,
					versions: []Version{
						{Kind: prev.kind, Symbol: prev.symbol, Token: prev.token, Children: out},
					},
				})}
			}
			promoted = c.Node
			if len(child.versions) > 0 {
				out = append(out, child.versions[0].Children...)
			}
		default:
			out = append(out, c.Node)
		}
	}
	for _, c := range children {
		place(c)
	}

	if promoted >= 0 {
		p := f.nodes[promoted]
		return Version{Kind: p.kind, Symbol: p.symbol, Token: p.token, Children: out}
	}
	return Version{Kind: n.kind, Symbol: n.symbol, Token: n.token, Children: out}
}

// BuildAST converts the first derivation of each node under a root into an AST.
func (b *SPPFBuilder) BuildAST(root int) *AST {
	t := newAST(b.forest.tokens)
	visiting := map[int]bool{}
	var build func(node int) (int, bool)
	build = func(node int) (int, bool) {
		if visiting[node] {
			return 0, false
		}
		n := b.forest.nodes[node]
		if len(n.versions) == 0 {
			if n.replaceable {
				return t.newVariable(n.symbol, nil), true
			}
			return 0, false
		}
		visiting[node] = true
		defer delete(visiting, node)

		v := n.versions[0]
		var children []int
		for _, c := range v.Children {
			if id, ok := build(c); ok {
				children = append(children, id)
			}
		}
		return t.add(&astNode{
			kind:     v.Kind,
			symbol:   v.Symbol,
			token:    v.Token,
			children: children,
		}), true
	}
	if id, ok := build(root); ok {
		t.root = id
	}
	return t
}
