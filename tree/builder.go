package tree

import (
	"github.com/nihei9/grove/lexer"
	"github.com/nihei9/grove/spec"
)

// Element is a symbol of the body of a reduction. Token is -1 unless the element is a token.
type Element struct {
	Symbol spec.Symbol
	Token  int
	Value  string
}

// SemanticBody gives a semantic action access to the children of the reduction in progress.
type SemanticBody interface {
	Length() int
	At(i int) Element
}

// SemanticAction runs in the middle of a reduction. `head` is the variable being reduced.
type SemanticAction func(head spec.Symbol, body SemanticBody)

type semanticStack struct {
	frames []int
}

func newSemanticStack() *semanticStack {
	return &semanticStack{}
}

func (s *semanticStack) push(node int) {
	s.frames = append(s.frames, node)
}

func (s *semanticStack) pop(n int) []int {
	fs := s.frames[len(s.frames)-n:]
	s.frames = s.frames[:len(s.frames)-n]

	return fs
}

func (s *semanticStack) len() int {
	return len(s.frames)
}

type reduction struct {
	head       spec.Symbol
	headAction spec.TreeAction

	// handle holds the sub-trees the reduction pops in the order of the body.
	handle []int
	popped int

	children []int

	// promoted is the node taking the place of the head, or -1.
	promoted int
}

var _ SemanticBody = &LRkBuilder{}

// LRkBuilder builds an AST from the reductions of a deterministic parser. The sub-trees waiting for a
// reduction are kept on a stack mirroring the state stack of the parser.
type LRkBuilder struct {
	ast      *AST
	virtuals []spec.Symbol
	stack    *semanticStack
	red      *reduction
}

func NewLRkBuilder(tokens *lexer.TokenRepository, virtuals []spec.Symbol) *LRkBuilder {
	return &LRkBuilder{
		ast:      newAST(tokens),
		virtuals: virtuals,
		stack:    newSemanticStack(),
	}
}

// PushToken pushes a leaf of a shifted token.
func (b *LRkBuilder) PushToken(index int) {
	b.stack.push(b.ast.newToken(index))
}

// PrepareReduction starts a reduction of `length` sub-trees on the top of the stack.
func (b *LRkBuilder) PrepareReduction(head spec.Symbol, length int, headAction spec.TreeAction) {
	handle := make([]int, length)
	copy(handle, b.stack.pop(length))
	b.red = &reduction{
		head:       head,
		headAction: headAction,
		handle:     handle,
		promoted:   -1,
	}
}

// PopChild takes the next sub-tree of the reduction.
func (b *LRkBuilder) PopChild(action spec.TreeAction) {
	node := b.red.handle[b.red.popped]
	b.red.popped++
	b.place(node, action)
}

// AddVirtualChild inserts a virtual symbol into the reduction.
func (b *LRkBuilder) AddVirtualChild(index int, action spec.TreeAction) {
	if action == spec.TreeActionDrop {
		return
	}
	b.place(b.ast.newVirtual(b.virtuals[index]), action)
}

func (b *LRkBuilder) place(node int, action spec.TreeAction) {
	r := b.red
	n := b.ast.nodes[node]
	switch {
	case action == spec.TreeActionDrop:
	case n.replaceable || action == spec.TreeActionReplaceByChildren:
		r.children = append(r.children, n.children...)
	case action == spec.TreeActionPromote:
		if r.promoted >= 0 {
			// The node promoted before becomes a child of the new one.
			prev := b.ast.nodes[r.promoted]
			r.children = []int{b.ast.add(&astNode{
				kind:     prev.kind,
				symbol:   prev.symbol,
				token:    prev.token,
				children: r.children,
			})}
		}
		r.promoted = node
		r.children = append(r.children, n.children...)
	default:
		r.children = append(r.children, node)
	}
}

// CommitReduction pushes the sub-tree the reduction built.
func (b *LRkBuilder) CommitReduction() {
	r := b.red
	var n *astNode
	if r.promoted >= 0 {
		p := b.ast.nodes[r.promoted]
		n = &astNode{
			kind:     p.kind,
			symbol:   p.symbol,
			token:    p.token,
			children: r.children,
		}
	} else {
		n = &astNode{
			kind:     NodeKindVariable,
			symbol:   r.head,
			token:    -1,
			children: r.children,
		}
	}
	switch r.headAction {
	case spec.TreeActionReplaceByChildren:
		n.replaceable = true
	case spec.TreeActionReplaceByEpsilon:
		n.replaceable = len(n.children) == 0
	}
	b.stack.push(b.ast.add(n))
	b.red = nil
}

// Length returns the number of children the reduction in progress has so far.
func (b *LRkBuilder) Length() int {
	if b.red == nil {
		return 0
	}
	return len(b.red.children)
}

func (b *LRkBuilder) At(i int) Element {
	n := b.ast.nodes[b.red.children[i]]
	e := Element{
		Symbol: n.symbol,
		Token:  n.token,
	}
	if n.token >= 0 {
		e.Value = b.ast.tokens.Value(n.token)
	}
	return e
}

// Finish returns the tree whose root is the sub-tree on the top of the stack.
func (b *LRkBuilder) Finish() *AST {
	if b.stack.len() > 0 {
		b.ast.root = b.stack.pop(1)[0]
		b.ast.nodes[b.ast.root].replaceable = false
	}
	return b.ast
}
