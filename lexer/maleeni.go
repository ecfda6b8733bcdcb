package lexer

import (
	"fmt"
	"io"

	"github.com/nihei9/grove/spec"
	mldriver "github.com/nihei9/maleeni/driver"
)

type LexerOption func(l *MaleeniLexer) error

// SkipInvalid makes the lexer drop lexemes matching no pattern instead of yielding them as tokens whose
// symbol is spec.SymbolIDNil.
func SkipInvalid() LexerOption {
	return func(l *MaleeniLexer) error {
		l.skipInvalid = true
		return nil
	}
}

// MaleeniLexer is a context-sensitive lexer built on a maleeni DFA. maleeni classifies a lexeme into a
// kind, and the lexer maps the kind to a terminal. When a kind stands for several terminals, the lexer
// picks the first one whose context is in effect.
type MaleeniLexer struct {
	lex             *mldriver.Lexer
	kindToTerminals [][]spec.KindTerminal
	skip            map[int]struct{}
	terminals       []spec.Symbol
	repo            *TokenRepository
	offset          int
	eof             *Token
	skipInvalid     bool
}

func NewMaleeniLexer(a *spec.CompiledAutomaton, src io.Reader, opts ...LexerOption) (*MaleeniLexer, error) {
	if a.Lexical == nil || a.Lexical.Maleeni == nil || a.Lexical.Maleeni.Spec == nil {
		return nil, fmt.Errorf("the automaton %v has no lexical specification", a.Name)
	}
	ml := a.Lexical.Maleeni

	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(ml.Spec), src)
	if err != nil {
		return nil, err
	}

	skip := make(map[int]struct{}, len(ml.Skip))
	for _, k := range ml.Skip {
		skip[k] = struct{}{}
	}

	l := &MaleeniLexer{
		lex:             lex,
		kindToTerminals: ml.KindToTerminals,
		skip:            skip,
		terminals:       a.Terminals,
		repo:            NewTokenRepository(a.Terminals),
	}
	for _, opt := range opts {
		err := opt(l)
		if err != nil {
			return nil, err
		}
	}

	return l, nil
}

func (l *MaleeniLexer) NextToken(p ContextProvider) (Token, error) {
	if l.eof != nil {
		return *l.eof, nil
	}

	for {
		tok, err := l.lex.Next()
		if err != nil {
			return Token{}, err
		}
		span := Span{
			Index:  l.offset,
			Length: len(tok.Lexeme),
		}
		l.offset += len(tok.Lexeme)
		pos := Position{
			Line:   tok.Row + 1,
			Column: tok.Col + 1,
		}

		if tok.EOF {
			t := Token{
				SymbolID: spec.SymbolIDDollar,
				Index:    l.repo.Add(spec.SymbolIDDollar, "", pos, span),
			}
			l.eof = &t
			return t, nil
		}
		if tok.Invalid {
			if l.skipInvalid {
				continue
			}
			return Token{
				SymbolID: spec.SymbolIDNil,
				Index:    l.repo.Add(spec.SymbolIDNil, string(tok.Lexeme), pos, span),
			}, nil
		}

		kind := int(tok.KindID)
		if _, ok := l.skip[kind]; ok {
			continue
		}
		sym := spec.SymbolIDNil
		if kind < len(l.kindToTerminals) {
			sym = resolve(l.kindToTerminals[kind], p)
		}
		return Token{
			SymbolID: sym,
			Index:    l.repo.Add(sym, string(tok.Lexeme), pos, span),
		}, nil
	}
}

func (l *MaleeniLexer) Output() *TokenRepository {
	return l.repo
}

func (l *MaleeniLexer) Terminals() []spec.Symbol {
	return l.terminals
}
