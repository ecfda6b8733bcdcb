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

var errParsed = errors.New("a parser can parse its input only once")

var _ lexer.ContextProvider = &Parser{}

// Parser is a deterministic LR(k) parser. Its state stack is a single stack of a graph-structured stack, and
// `cursor` holds the nodes of the stack from the bottom to the top.
type Parser struct {
	automaton *automaton.LRk
	lex       lexer.Lexer
	builder   TreeBuilder
	gss       *gss.GSS
	cursor    []int
	state     State
	errs      []error
	started   bool
	*config
}

func NewParser(a *automaton.LRk, lex lexer.Lexer, opts ...ParserOption) (*Parser, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	b := c.builder
	if b == nil {
		b = tree.NewLRkBuilder(lex.Output(), a.Virtuals())
	}

	return &Parser{
		automaton: a,
		lex:       lex,
		builder:   b,
		gss:       gss.New(),
		state:     StateShifting,
		config:    c,
	}, nil
}

// State returns the state the parser is in.
func (p *Parser) State() State {
	return p.state
}

func (p *Parser) Parse() (*Result, error) {
	if p.started {
		return nil, errParsed
	}
	p.started = true

	p.gss.CreateGeneration()
	p.push(p.automaton.InitialState())
	tok, err := p.lex.NextToken(p)
	if err != nil {
		return nil, err
	}

	for {
		act := p.automaton.Action(p.top(), tok.SymbolID)
		switch act.Code {
		case spec.ActionCodeShift:
			p.state = StateShifting
			tracer().Debugf("shift %v; state: %v -> %v", tok, p.top(), act.Data)

			p.gss.CreateGeneration()
			p.push(act.Data)
			p.builder.PushToken(tok.Index)

			tok, err = p.lex.NextToken(p)
			if err != nil {
				return nil, err
			}
		case spec.ActionCodeReduce:
			p.state = StateReducing
			tracer().Debugf("reduce production #%v on %v; state: %v", act.Data, tok, p.top())

			err := p.reduce(act.Data)
			if err != nil {
				p.state = StateFailed
				p.errs = append(p.errs, p.newParseError(tok, err))
				tracer().Errorf("%v", err)
				return p.result(nil), nil
			}
		case spec.ActionCodeAccept:
			p.state = StateAccepted
			tracer().Infof("accept; %v errors", len(p.errs))
			return p.result(p.builder.Finish()), nil
		default:
			p.state = StateErrorRecovery

			var ok bool
			tok, ok, err = p.onUnexpectedToken(tok)
			if err != nil {
				return nil, err
			}
			if !ok {
				p.state = StateFailed
				tracer().Infof("give up; %v errors", len(p.errs))
				return p.result(nil), nil
			}
		}
	}
}

func (p *Parser) result(ast *tree.AST) *Result {
	return &Result{
		Accepted: p.state == StateAccepted,
		Errors:   p.errs,
		Tree:     ast,
		Tokens:   p.lex.Output(),
	}
}

func (p *Parser) newParseError(tok lexer.Token, cause error) *ParseError {
	return &ParseError{
		Position: p.lex.Output().Position(tok.Index),
		Message:  "cannot reduce",
		Cause:    cause,
	}
}

// reduce pops the body of a production, runs its bytecode, and pushes the state the head leads to.
func (p *Parser) reduce(prodNum int) error {
	prod := p.automaton.Production(prodNum)
	head := p.automaton.Variables()[prod.Head]
	if prod.ReductionLength >= len(p.cursor) {
		return fmt.Errorf("production #%v pops %v states, but the stack has only %v", prodNum, prod.ReductionLength, len(p.cursor)-1)
	}

	p.builder.PrepareReduction(head, prod.ReductionLength, prod.HeadAction)
	err := p.execute(prodNum, prod, head)
	if err != nil {
		return err
	}
	p.builder.CommitReduction()

	p.pop(prod.ReductionLength)
	next := p.automaton.Action(p.top(), head.ID)
	if next.Code != spec.ActionCodeShift {
		return fmt.Errorf("state %v has no transition by %v", p.top(), symbolName(head))
	}
	p.push(next.Data)

	return nil
}

func (p *Parser) execute(prodNum int, prod *spec.Production, head spec.Symbol) error {
	popped := 0
	for i := 0; i < len(prod.Bytecode); {
		op, next, err := automaton.Decode(prod.Bytecode, i)
		if err != nil {
			return fmt.Errorf("production #%v: %w", prodNum, err)
		}
		i = next

		switch op.Kind {
		case automaton.OpKindSemanticAction:
			err := p.invokeAction(op.Operand, head, p.builder)
			if err != nil {
				return fmt.Errorf("production #%v: %w", prodNum, err)
			}
		case automaton.OpKindAddVirtual:
			if op.Operand >= len(p.automaton.Virtuals()) {
				return fmt.Errorf("production #%v: virtual symbol #%v doesn't exist", prodNum, op.Operand)
			}
			p.builder.AddVirtualChild(op.Operand, op.Tree)
		case automaton.OpKindPop:
			if popped >= prod.ReductionLength {
				return fmt.Errorf("production #%v pops more than %v children", prodNum, prod.ReductionLength)
			}
			popped++
			p.builder.PopChild(op.Tree)
		default:
			return fmt.Errorf("production #%v: %w: %v is available only to GLR parsers", prodNum, automaton.ErrUnknownOpcode, op.Kind)
		}
	}
	if popped != prod.ReductionLength {
		return fmt.Errorf("production #%v pops %v of %v children", prodNum, popped, prod.ReductionLength)
	}
	return nil
}

// onUnexpectedToken records an error and returns the token to continue with. ok is false when the parser
// must stop.
func (p *Parser) onUnexpectedToken(tok lexer.Token) (lexer.Token, bool, error) {
	e := newUnexpectedTokenError(tok, p.lex.Output(), p.expected())
	p.errs = append(p.errs, e)
	tracer().Debugf("%v", e)

	if tok.SymbolID == spec.SymbolIDDollar || len(p.errs) >= p.maxErrors || p.recovery == nil {
		return tok, false, nil
	}
	return p.recovery(e, p.lex, p)
}

// IsWithin reports whether a context is in effect. A node of the stack carries the contexts of all nodes
// below it, so the top node answers for the whole stack.
func (p *Parser) IsWithin(context int) bool {
	if context == spec.ContextDefault {
		return true
	}
	if len(p.cursor) == 0 || context < 0 {
		return false
	}
	return p.gss.Contexts(p.cursor[len(p.cursor)-1]).Test(uint(context))
}

func (p *Parser) top() int {
	return p.gss.RepresentedState(p.cursor[len(p.cursor)-1])
}

// push creates a node on the current generation and links it to the node on the top.
func (p *Parser) push(state int) {
	node := p.gss.CreateNode(state, p.automaton.Contexts(state), p.automaton.ContextCount())
	if len(p.cursor) > 0 {
		p.gss.CreateEdge(node, p.cursor[len(p.cursor)-1], nil)
	}
	p.cursor = append(p.cursor, node)
}

func (p *Parser) pop(n int) {
	p.cursor = p.cursor[:len(p.cursor)-n]
}
