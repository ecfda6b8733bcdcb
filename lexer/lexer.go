// Package lexer provides token sources for parsers.
package lexer

import (
	"fmt"

	"github.com/nihei9/grove/spec"
)

// ContextProvider answers whether a lexical context is in effect. A parser provides it to a lexer so that
// the lexer recognizes only the terminals the parser can accept.
type ContextProvider interface {
	IsWithin(context int) bool
}

// Token is a token a lexer yields. Index locates the token in the TokenRepository of the lexer.
type Token struct {
	SymbolID int
	Index    int
}

func (t Token) String() string {
	return fmt.Sprintf("#%v (symbol %v)", t.Index, t.SymbolID)
}

type Lexer interface {
	// NextToken returns the next token. After the end of the input, NextToken keeps returning a token
	// whose symbol is spec.SymbolIDDollar.
	NextToken(p ContextProvider) (Token, error)

	// Output returns the repository holding all tokens yielded so far.
	Output() *TokenRepository

	// Terminals returns the terminals the lexer can yield.
	Terminals() []spec.Symbol
}

// resolve returns the first candidate terminal whose context is in effect. It returns spec.SymbolIDNil when
// no candidate is available.
func resolve(cands []spec.KindTerminal, p ContextProvider) int {
	for _, c := range cands {
		if c.Context == spec.ContextDefault || (p != nil && p.IsWithin(c.Context)) {
			return c.Terminal
		}
	}
	return spec.SymbolIDNil
}

// Position is a position in a text. Line and Column are 1-based.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%v:%v", p.Line, p.Column)
}

// Span is a range of bytes in a text.
type Span struct {
	Index  int
	Length int
}

// TokenRepository stores the tokens of a text.
type TokenRepository struct {
	symbols   []int
	values    []string
	positions []Position
	spans     []Span
	terminals map[int]spec.Symbol
}

func NewTokenRepository(terminals []spec.Symbol) *TokenRepository {
	m := make(map[int]spec.Symbol, len(terminals))
	for _, t := range terminals {
		m[t.ID] = t
	}
	return &TokenRepository{
		terminals: m,
	}
}

// Add stores a token and returns its index.
func (r *TokenRepository) Add(symbol int, value string, pos Position, span Span) int {
	r.symbols = append(r.symbols, symbol)
	r.values = append(r.values, value)
	r.positions = append(r.positions, pos)
	r.spans = append(r.spans, span)
	return len(r.symbols) - 1
}

func (r *TokenRepository) Count() int {
	return len(r.symbols)
}

// Symbol returns the terminal of a token. A token the lexer failed to classify has a symbol whose ID is
// spec.SymbolIDNil.
func (r *TokenRepository) Symbol(index int) spec.Symbol {
	id := r.symbols[index]
	if sym, ok := r.terminals[id]; ok {
		return sym
	}
	return spec.Symbol{ID: id}
}

func (r *TokenRepository) Value(index int) string {
	return r.values[index]
}

func (r *TokenRepository) Position(index int) Position {
	return r.positions[index]
}

func (r *TokenRepository) Span(index int) Span {
	return r.spans[index]
}
