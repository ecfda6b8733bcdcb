package driver

import (
	"errors"
	"fmt"

	"github.com/nihei9/grove/automaton"
	"github.com/nihei9/grove/gss"
	"github.com/nihei9/grove/lexer"
	"github.com/nihei9/grove/spec"
	"github.com/nihei9/grove/tree"
)

var _ lexer.ContextProvider = &GLRParser{}

// glrReduction is a reduction waiting for the reducer. It reduces along the paths starting at `node`. first
// is the forest node labeling the edge already traversed above `node`, or -1 for an empty reduction.
type glrReduction struct {
	node  int
	prod  int
	first int
}

type glrShift struct {
	from  int
	state int
}

type historyKey struct {
	gen  int
	head int
}

// GLRParser is a generalized parser following the RNGLR algorithm. It processes the input one token at a
// time: the reducer runs all reductions on the lookahead, and then the shifter moves every stack over the
// token at once. Derivations are collected into a shared packed parse forest.
type GLRParser struct {
	automaton *automaton.RNGLR
	lex       lexer.Lexer
	gss       *gss.GSS
	sppf      *tree.SPPFBuilder

	// nullables holds the forest node of the empty sub-tree of each variable, or -1.
	nullables []int

	reductions []glrReduction
	shifts     []glrShift

	// history maps a variable and the generation its span starts at to a forest node. The reducer shares
	// one node among the derivations of the same span.
	history map[historyKey]int

	tok     lexer.Token
	state   State
	errs    []error
	started bool
	*config
}

func NewGLRParser(a *automaton.RNGLR, lex lexer.Lexer, opts ...ParserOption) (*GLRParser, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if c.recovery != nil {
		return nil, errors.New("a GLR parser doesn't support error recovery")
	}
	if c.builder != nil {
		return nil, errors.New("a GLR parser builds a parse forest and cannot use a tree builder")
	}

	p := &GLRParser{
		automaton: a,
		lex:       lex,
		gss:       gss.New(),
		sppf:      tree.NewSPPFBuilder(lex.Output(), a.Virtuals()),
		history:   map[historyKey]int{},
		state:     StateShifting,
		config:    c,
	}
	err = p.buildNullables()
	if err != nil {
		return nil, err
	}
	return p, nil
}

// buildNullables builds the empty sub-tree of every nullable variable. The sub-trees of the variables an
// empty production refers to are built first.
func (p *GLRParser) buildNullables() error {
	vars := p.automaton.Variables()
	p.nullables = make([]int, len(vars))
	for i := range p.nullables {
		p.nullables[i] = -1
	}

	visiting := make([]bool, len(vars))
	var build func(v int) (int, error)
	build = func(v int) (int, error) {
		if v < 0 || v >= len(vars) {
			return 0, fmt.Errorf("nullable variable #%v doesn't exist", v)
		}
		if p.nullables[v] >= 0 {
			return p.nullables[v], nil
		}
		prodNum, ok := p.automaton.Nullable(v)
		if !ok {
			return 0, fmt.Errorf("%v is not nullable", symbolName(vars[v]))
		}
		if visiting[v] {
			return 0, fmt.Errorf("the empty sub-tree of %v contains itself", symbolName(vars[v]))
		}
		visiting[v] = true
		defer func() {
			visiting[v] = false
		}()

		prod := p.automaton.Production(prodNum)
		ops, err := automaton.DecodeAll(prod.Bytecode)
		if err != nil {
			return 0, fmt.Errorf("production #%v: %w", prodNum, err)
		}
		var children []tree.ForestChild
		var acts []int
		for _, op := range ops {
			switch op.Kind {
			case automaton.OpKindAddNullable:
				n, err := build(op.Operand)
				if err != nil {
					return 0, err
				}
				children = append(children, tree.ForestChild{Node: n, Action: op.Tree})
			case automaton.OpKindAddVirtual:
				if op.Operand >= len(p.automaton.Virtuals()) {
					return 0, fmt.Errorf("production #%v: virtual symbol #%v doesn't exist", prodNum, op.Operand)
				}
				children = append(children, tree.ForestChild{Node: p.sppf.NewVirtual(op.Operand), Action: op.Tree})
			case automaton.OpKindSemanticAction:
				acts = append(acts, op.Operand)
			default:
				return 0, fmt.Errorf("production #%v derives the empty sub-tree of %v but pops a child", prodNum, symbolName(vars[v]))
			}
		}

		node := p.sppf.NewVariable(vars[v])
		err = p.derive(node, prod, children, acts)
		if err != nil {
			return 0, fmt.Errorf("production #%v: %w", prodNum, err)
		}
		p.nullables[v] = node
		return node, nil
	}

	for v := range vars {
		if _, ok := p.automaton.Nullable(v); !ok {
			continue
		}
		_, err := build(v)
		if err != nil {
			return err
		}
	}
	return nil
}

// forestBody exposes the children of a derivation to semantic actions.
type forestBody struct {
	sppf     *tree.SPPFBuilder
	children []tree.ForestChild
}

func (b *forestBody) Length() int {
	return len(b.children)
}

func (b *forestBody) At(i int) tree.Element {
	return b.sppf.Element(b.children[i].Node)
}

// derive adds a derivation to a forest node. The semantic actions of the production run only when the
// derivation is new.
func (p *GLRParser) derive(node int, prod *spec.Production, children []tree.ForestChild, acts []int) error {
	if !p.sppf.AddVersion(node, children, prod.HeadAction) {
		return nil
	}
	head := p.automaton.Variables()[prod.Head]
	for _, act := range acts {
		err := p.invokeAction(act, head, &forestBody{
			sppf:     p.sppf,
			children: children,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// State returns the state the parser is in.
func (p *GLRParser) State() State {
	return p.state
}

func (p *GLRParser) Parse() (*Result, error) {
	if p.started {
		return nil, errParsed
	}
	p.started = true

	p.gss.CreateGeneration()
	v0 := p.newNode(p.automaton.InitialState())
	tok, err := p.lex.NextToken(p)
	if err != nil {
		return nil, err
	}
	p.tok = tok
	p.queueShift(v0)
	p.queueReductions(v0, -1, -1)

	for {
		p.state = StateReducing
		for k := range p.history {
			delete(p.history, k)
		}
		err := p.reduce()
		if err != nil {
			p.state = StateFailed
			p.errs = append(p.errs, &ParseError{
				Position: p.lex.Output().Position(p.tok.Index),
				Message:  "cannot reduce",
				Cause:    err,
			})
			tracer().Errorf("%v", err)
			return p.result(nil), nil
		}

		if p.tok.SymbolID == spec.SymbolIDDollar {
			if root, ok := p.acceptedRoot(); ok {
				p.state = StateAccepted
				tracer().Infof("accept; %v ambiguous nodes", len(p.sppf.Forest().Ambiguities()))
				return p.result(p.sppf.BuildAST(root)), nil
			}
			p.onUnexpectedToken()
			return p.result(nil), nil
		}
		if len(p.shifts) == 0 {
			p.onUnexpectedToken()
			return p.result(nil), nil
		}

		p.state = StateShifting
		err = p.shift()
		if err != nil {
			return nil, err
		}
	}
}

func (p *GLRParser) result(ast *tree.AST) *Result {
	return &Result{
		Accepted: p.state == StateAccepted,
		Errors:   p.errs,
		Tree:     ast,
		Tokens:   p.lex.Output(),
		Forest:   p.sppf.Forest(),
	}
}

// onUnexpectedToken reports the lookahead. The expected terminals are the ones some head has an action for.
func (p *GLRParser) onUnexpectedToken() {
	var syms []spec.Symbol
	seen := map[int]bool{}
	p.eachHead(func(node int) {
		e := p.automaton.Expected(p.gss.RepresentedState(node), p.lex.Terminals())
		for _, set := range [][]spec.Symbol{e.Shifts, e.Reductions} {
			for _, sym := range set {
				if seen[sym.ID] {
					continue
				}
				seen[sym.ID] = true
				syms = append(syms, sym)
			}
		}
	})

	e := newUnexpectedTokenError(p.tok, p.lex.Output(), syms)
	p.errs = append(p.errs, e)
	p.state = StateFailed
	tracer().Infof("%v", e)
}

// acceptedRoot returns the forest node derived by an accepting head.
func (p *GLRParser) acceptedRoot() (int, bool) {
	root := -1
	p.eachHead(func(node int) {
		if root >= 0 || !p.automaton.IsAccepting(p.gss.RepresentedState(node)) {
			return
		}
		eg := p.gss.EdgeGeneration(p.gss.CurrentGeneration())
		for i := eg.Start; i < eg.Start+eg.Count; i++ {
			e := p.gss.EdgeAt(i)
			if e.From != node || e.Dead {
				continue
			}
			if l, ok := e.Label.(*tree.Label); ok {
				root = l.Node
				return
			}
		}
	})
	return root, root >= 0
}

func (p *GLRParser) eachHead(f func(node int)) {
	g := p.gss.Generation(p.gss.CurrentGeneration())
	for node := g.Start; node < g.Start+g.Count; node++ {
		f(node)
	}
}

// IsWithin reports whether some head of the current generation is within a context.
func (p *GLRParser) IsWithin(context int) bool {
	if context == spec.ContextDefault {
		return true
	}
	if context < 0 || p.gss.CurrentGeneration() < 0 {
		return false
	}
	within := false
	p.eachHead(func(node int) {
		if !within && p.gss.Contexts(node).Test(uint(context)) {
			within = true
		}
	})
	return within
}

func (p *GLRParser) newNode(state int) int {
	return p.gss.CreateNode(state, p.automaton.Contexts(state), p.automaton.ContextCount())
}

// queueShift queues the shifts of a node on the lookahead.
func (p *GLRParser) queueShift(node int) {
	state := p.gss.RepresentedState(node)
	n := p.automaton.ActionCount(state, p.tok.SymbolID)
	for i := 0; i < n; i++ {
		act := p.automaton.ActionAt(state, p.tok.SymbolID, i)
		if act.Code != spec.ActionCodeShift {
			continue
		}
		p.shifts = append(p.shifts, glrShift{
			from:  node,
			state: act.Data,
		})
	}
}

// queueReductions queues the reductions of a node on the lookahead. When `below` is a node, it queues the
// reductions of positive length along the edge from `node` to `below` labeled with the forest node `label`.
// Otherwise, it queues the empty reductions.
func (p *GLRParser) queueReductions(node int, below int, label int) {
	state := p.gss.RepresentedState(node)
	n := p.automaton.ActionCount(state, p.tok.SymbolID)
	for i := 0; i < n; i++ {
		act := p.automaton.ActionAt(state, p.tok.SymbolID, i)
		if act.Code != spec.ActionCodeReduce {
			continue
		}
		prod := p.automaton.Production(act.Data)
		switch {
		case below < 0 && prod.ReductionLength == 0:
			p.reductions = append(p.reductions, glrReduction{
				node:  node,
				prod:  act.Data,
				first: -1,
			})
		case below >= 0 && prod.ReductionLength > 0:
			p.reductions = append(p.reductions, glrReduction{
				node:  below,
				prod:  act.Data,
				first: label,
			})
		}
	}
}

func (p *GLRParser) reduce() error {
	for len(p.reductions) > 0 {
		r := p.reductions[len(p.reductions)-1]
		p.reductions = p.reductions[:len(p.reductions)-1]
		err := p.executeReduction(r)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *GLRParser) executeReduction(r glrReduction) error {
	prod := p.automaton.Production(r.prod)
	head := p.automaton.Variables()[prod.Head]
	tracer().Debugf("reduce production #%v from node %v", r.prod, r.node)

	var ops []automaton.Op
	length := 0
	if prod.ReductionLength > 0 {
		var err error
		ops, err = automaton.DecodeAll(prod.Bytecode)
		if err != nil {
			return fmt.Errorf("production #%v: %w", r.prod, err)
		}
		length = prod.ReductionLength - 1
	}

	paths := p.gss.GetPaths(r.node, length)
	for i := 0; i < paths.Count; i++ {
		path := paths.Content[i]

		var subRoot int
		if prod.ReductionLength == 0 {
			subRoot = p.nullables[prod.Head]
			if subRoot < 0 {
				return fmt.Errorf("production #%v: %v has no empty sub-tree", r.prod, symbolName(head))
			}
		} else {
			children, acts, err := p.children(r, prod, ops, path.Labels)
			if err != nil {
				return err
			}
			key := historyKey{
				gen:  path.Generation,
				head: prod.Head,
			}
			var ok bool
			subRoot, ok = p.history[key]
			if !ok {
				subRoot = p.sppf.NewVariable(head)
				p.history[key] = subRoot
			}
			err = p.derive(subRoot, prod, children, acts)
			if err != nil {
				return fmt.Errorf("production #%v: %w", r.prod, err)
			}
		}

		state := p.automaton.Goto(p.gss.RepresentedState(path.Last), head.ID)
		if state < 0 {
			return fmt.Errorf("state %v has no transition by %v", p.gss.RepresentedState(path.Last), symbolName(head))
		}
		gen := p.gss.CurrentGeneration()
		w, ok := p.gss.FindNode(gen, state)
		if ok {
			if p.gss.HasEdge(gen, w, path.Last) {
				continue
			}
			p.gss.CreateEdge(w, path.Last, p.sppf.Label(subRoot))
		} else {
			w = p.newNode(state)
			p.gss.CreateEdge(w, path.Last, p.sppf.Label(subRoot))
			p.queueShift(w)
			p.queueReductions(w, -1, -1)
		}
		if prod.ReductionLength > 0 {
			p.queueReductions(w, path.Last, subRoot)
		}
	}
	return nil
}

// children returns the children of a reduction along a path. The labels of a path run from the top down, so
// the first child is the last label, and the last child is the edge the reduction started above.
func (p *GLRParser) children(r glrReduction, prod *spec.Production, ops []automaton.Op, labels []gss.Label) ([]tree.ForestChild, []int, error) {
	var children []tree.ForestChild
	var acts []int
	popped := 0
	for _, op := range ops {
		switch op.Kind {
		case automaton.OpKindPop:
			if popped >= prod.ReductionLength {
				return nil, nil, fmt.Errorf("production #%v pops more than %v children", r.prod, prod.ReductionLength)
			}
			node := r.first
			if i := len(labels) - popped - 1; i >= 0 {
				l, ok := labels[i].(*tree.Label)
				if !ok {
					return nil, nil, fmt.Errorf("production #%v: an edge has no sub-tree", r.prod)
				}
				node = l.Node
			}
			popped++
			children = append(children, tree.ForestChild{Node: node, Action: op.Tree})
		case automaton.OpKindAddNullable:
			if op.Operand < 0 || op.Operand >= len(p.nullables) || p.nullables[op.Operand] < 0 {
				return nil, nil, fmt.Errorf("production #%v: variable #%v has no empty sub-tree", r.prod, op.Operand)
			}
			children = append(children, tree.ForestChild{Node: p.nullables[op.Operand], Action: op.Tree})
		case automaton.OpKindAddVirtual:
			if op.Operand >= len(p.automaton.Virtuals()) {
				return nil, nil, fmt.Errorf("production #%v: virtual symbol #%v doesn't exist", r.prod, op.Operand)
			}
			children = append(children, tree.ForestChild{Node: p.sppf.NewVirtual(op.Operand), Action: op.Tree})
		case automaton.OpKindSemanticAction:
			acts = append(acts, op.Operand)
		}
	}
	if popped != prod.ReductionLength {
		return nil, nil, fmt.Errorf("production #%v pops %v of %v children", r.prod, popped, prod.ReductionLength)
	}
	return children, acts, nil
}

// shift moves every head having a shift over the lookahead. The lexer reads the next token only after all
// shifts, so that it sees the contexts of the new heads.
func (p *GLRParser) shift() error {
	shifts := p.shifts
	p.shifts = nil

	gen := p.gss.CreateGeneration()
	tokNode := p.sppf.NewToken(p.tok.Index)
	tracer().Debugf("shift %v into generation %v", p.tok, gen)

	type newEdge struct {
		from int
		to   int
	}
	var created []int
	var edges []newEdge
	for _, s := range shifts {
		w, ok := p.gss.FindNode(gen, s.state)
		if !ok {
			w = p.newNode(s.state)
			created = append(created, w)
		}
		if p.gss.HasEdge(gen, w, s.from) {
			continue
		}
		p.gss.CreateEdge(w, s.from, p.sppf.Label(tokNode))
		edges = append(edges, newEdge{from: w, to: s.from})
	}

	tok, err := p.lex.NextToken(p)
	if err != nil {
		return err
	}
	p.tok = tok

	for _, w := range created {
		p.queueShift(w)
		p.queueReductions(w, -1, -1)
	}
	for _, e := range edges {
		p.queueReductions(e.from, e.to, tokNode)
	}
	return nil
}
