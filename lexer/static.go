package lexer

import "github.com/nihei9/grove/spec"

// StaticToken is a token of a StaticLexer. Candidates are resolved the same way as maleeni kinds.
type StaticToken struct {
	Value      string
	Candidates []spec.KindTerminal
}

// StaticLexer yields tokens prepared in advance. The tokens are laid out on one line separated by a space.
type StaticLexer struct {
	tokens    []StaticToken
	terminals []spec.Symbol
	repo      *TokenRepository
	next      int
	offset    int
	eof       *Token
}

func NewStaticLexer(terminals []spec.Symbol, tokens []StaticToken) *StaticLexer {
	return &StaticLexer{
		tokens:    tokens,
		terminals: terminals,
		repo:      NewTokenRepository(terminals),
	}
}

// NewStaticLexerFromNames returns a StaticLexer yielding terminals having the names in the default
// context. A name that no terminal has yields a token whose symbol is spec.SymbolIDNil.
func NewStaticLexerFromNames(terminals []spec.Symbol, names ...string) *StaticLexer {
	ids := make(map[string]int, len(terminals))
	for _, t := range terminals {
		ids[t.Name] = t.ID
	}
	tokens := make([]StaticToken, len(names))
	for i, name := range names {
		tokens[i] = StaticToken{
			Value: name,
		}
		if id, ok := ids[name]; ok {
			tokens[i].Candidates = []spec.KindTerminal{
				{Terminal: id, Context: spec.ContextDefault},
			}
		}
	}
	return NewStaticLexer(terminals, tokens)
}

func (l *StaticLexer) NextToken(p ContextProvider) (Token, error) {
	if l.eof != nil {
		return *l.eof, nil
	}

	if l.next >= len(l.tokens) {
		t := Token{
			SymbolID: spec.SymbolIDDollar,
			Index: l.repo.Add(spec.SymbolIDDollar, "", Position{Line: 1, Column: l.offset + 1}, Span{
				Index: l.offset,
			}),
		}
		l.eof = &t
		return t, nil
	}

	tok := l.tokens[l.next]
	l.next++
	sym := resolve(tok.Candidates, p)
	idx := l.repo.Add(sym, tok.Value, Position{Line: 1, Column: l.offset + 1}, Span{
		Index:  l.offset,
		Length: len(tok.Value),
	})
	l.offset += len(tok.Value) + 1
	return Token{
		SymbolID: sym,
		Index:    idx,
	}, nil
}

func (l *StaticLexer) Output() *TokenRepository {
	return l.repo
}

func (l *StaticLexer) Terminals() []spec.Symbol {
	return l.terminals
}
