package driver

import (
	"fmt"
	"strings"

	"github.com/nihei9/grove/lexer"
	"github.com/nihei9/grove/spec"
)

type ErrorKind int

const (
	ErrorKindUnexpectedToken = ErrorKind(0)
	ErrorKindParse           = ErrorKind(1)
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindUnexpectedToken:
		return "unexpected token"
	case ErrorKindParse:
		return "parse error"
	}
	return "unknown"
}

// UnexpectedTokenError reports a token for which the parser has no action.
type UnexpectedTokenError struct {
	// Token is an index of the token in the token repository.
	Token    int
	Symbol   spec.Symbol
	Value    string
	Position lexer.Position

	// Expected lists the terminals the parser could have accepted instead.
	Expected []spec.Symbol
}

func newUnexpectedTokenError(tok lexer.Token, repo *lexer.TokenRepository, expected []spec.Symbol) *UnexpectedTokenError {
	return &UnexpectedTokenError{
		Token:    tok.Index,
		Symbol:   repo.Symbol(tok.Index),
		Value:    repo.Value(tok.Index),
		Position: repo.Position(tok.Index),
		Expected: expected,
	}
}

func (e *UnexpectedTokenError) Kind() ErrorKind {
	return ErrorKindUnexpectedToken
}

func (e *UnexpectedTokenError) Error() string {
	var b strings.Builder
	if e.Symbol.ID == spec.SymbolIDDollar {
		fmt.Fprintf(&b, "%v: unexpected end of input", e.Position)
	} else {
		fmt.Fprintf(&b, "%v: unexpected token %#v", e.Position, e.Value)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, "; expected: %v", symbolName(e.Expected[0]))
		for _, sym := range e.Expected[1:] {
			fmt.Fprintf(&b, ", %v", symbolName(sym))
		}
	}
	return b.String()
}

func symbolName(sym spec.Symbol) string {
	if sym.ID == spec.SymbolIDDollar {
		return "<eof>"
	}
	if sym.Name == "" {
		return fmt.Sprintf("#%v", sym.ID)
	}
	return sym.Name
}

// ParseError reports a failure that stops parsing, such as malformed bytecode of a production.
type ParseError struct {
	Position lexer.Position
	Message  string
	Cause    error
}

func (e *ParseError) Kind() ErrorKind {
	return ErrorKindParse
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v: %v", e.Position, e.Message, e.Cause)
	}
	return fmt.Sprintf("%v: %v", e.Position, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
