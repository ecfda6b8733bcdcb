// Package driver runs parsers over compiled automata.
package driver

import (
	"fmt"

	"github.com/nihei9/grove/lexer"
	"github.com/nihei9/grove/spec"
	"github.com/nihei9/grove/tree"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("grove.driver")
}

// TreeBuilder receives the shifts and the reductions of a deterministic parser. During a reduction, a
// builder serves as the body passed to semantic actions.
type TreeBuilder interface {
	tree.SemanticBody

	PushToken(index int)
	PrepareReduction(head spec.Symbol, length int, headAction spec.TreeAction)
	PopChild(action spec.TreeAction)
	AddVirtualChild(index int, action spec.TreeAction)
	CommitReduction()
	Finish() *tree.AST
}

var _ TreeBuilder = &tree.LRkBuilder{}

type State int

const (
	StateShifting      = State(0)
	StateReducing      = State(1)
	StateAccepted      = State(2)
	StateErrorRecovery = State(3)
	StateFailed        = State(4)
)

func (s State) String() string {
	switch s {
	case StateShifting:
		return "shifting"
	case StateReducing:
		return "reducing"
	case StateAccepted:
		return "accepted"
	case StateErrorRecovery:
		return "error recovery"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the outcome of parsing. Errors holds *UnexpectedTokenError and *ParseError values in the order
// the parser found them. Tree is nil unless the parser accepted the input.
type Result struct {
	Accepted bool
	Errors   []error
	Tree     *tree.AST
	Tokens   *lexer.TokenRepository

	// Forest is the parse forest of a GLR parser.
	Forest *tree.Forest
}

// RecoveryFunc decides how a parser continues after an unexpected token. It returns the token the parser
// evaluates in place of the unexpected one. When ok is false, the parser stops.
type RecoveryFunc func(e *UnexpectedTokenError, lex lexer.Lexer, p lexer.ContextProvider) (tok lexer.Token, ok bool, err error)

const defaultMaxErrorCount = 100

type config struct {
	maxErrors int
	recovery  RecoveryFunc
	actions   []tree.SemanticAction
	builder   TreeBuilder
}

func newConfig(opts []ParserOption) (*config, error) {
	c := &config{
		maxErrors: defaultMaxErrorCount,
	}
	for _, opt := range opts {
		err := opt(c)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

type ParserOption func(c *config) error

// MaxErrorCount sets the number of unexpected tokens after which a parser gives up.
func MaxErrorCount(n int) ParserOption {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("the max error count must be >= 1; got: %v", n)
		}
		c.maxErrors = n
		return nil
	}
}

// Recovery makes a parser continue after an unexpected token as the function decides. Without this
// option, a parser stops at the first unexpected token.
func Recovery(f RecoveryFunc) ParserOption {
	return func(c *config) error {
		c.recovery = f
		return nil
	}
}

// SkipUnexpectedTokens makes a parser drop an unexpected token and continue with the next one.
func SkipUnexpectedTokens() ParserOption {
	return Recovery(func(e *UnexpectedTokenError, lex lexer.Lexer, p lexer.ContextProvider) (lexer.Token, bool, error) {
		tok, err := lex.NextToken(p)
		if err != nil {
			return lexer.Token{}, false, err
		}
		return tok, true, nil
	})
}

// SemanticActions binds semantic actions. Bytecode refers to an action by its index in `actions`. Without
// this option, a parser ignores semantic actions.
func SemanticActions(actions []tree.SemanticAction) ParserOption {
	return func(c *config) error {
		c.actions = actions
		return nil
	}
}

// WithTreeBuilder replaces the builder of a deterministic parser.
func WithTreeBuilder(b TreeBuilder) ParserOption {
	return func(c *config) error {
		c.builder = b
		return nil
	}
}

// invokeAction runs the semantic action having an index. It does nothing when no action is bound.
func (c *config) invokeAction(index int, head spec.Symbol, body tree.SemanticBody) error {
	if c.actions == nil {
		return nil
	}
	if index < 0 || index >= len(c.actions) {
		return fmt.Errorf("semantic action #%v is not bound; %v actions are bound", index, len(c.actions))
	}
	if act := c.actions[index]; act != nil {
		act(head, body)
	}
	return nil
}
