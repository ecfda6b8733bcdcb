package lexer

import (
	"strings"
	"testing"

	"github.com/nihei9/grove/spec"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"
)

const (
	symKeyword = spec.SymbolIDMin + iota
	symID
)

const ctxKeyword = 1

var testTerminals = []spec.Symbol{
	{ID: spec.SymbolIDDollar, Name: "$"},
	{ID: symKeyword, Name: "keyword"},
	{ID: symID, Name: "id"},
}

type testContexts map[int]bool

func (c testContexts) IsWithin(context int) bool {
	return c[context]
}

func genAutomaton(t *testing.T) *spec.CompiledAutomaton {
	t.Helper()

	lexSpec, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name: "words",
		Entries: []*mlspec.LexEntry{
			{
				Kind:    mlspec.LexKindName("word"),
				Pattern: mlspec.LexPattern("[a-z]+"),
			},
			{
				Kind:    mlspec.LexKindName("ws"),
				Pattern: mlspec.LexPattern(`[\u{0020}\u{000A}]+`),
			},
		},
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		t.Fatalf("failed to compile a lexical specification: %v %v", err, cErrs)
	}

	kindToTerminals := make([][]spec.KindTerminal, len(lexSpec.KindNames))
	var skip []int
	for kind, name := range lexSpec.KindNames {
		switch name.String() {
		case "word":
			// A word is a keyword only within the keyword context.
			kindToTerminals[kind] = []spec.KindTerminal{
				{Terminal: symKeyword, Context: ctxKeyword},
				{Terminal: symID, Context: spec.ContextDefault},
			}
		case "ws":
			skip = append(skip, kind)
		}
	}

	return &spec.CompiledAutomaton{
		Name:         "test",
		Terminals:    testTerminals,
		ContextCount: 2,
		Lexical: &spec.LexicalSpecification{
			Maleeni: &spec.Maleeni{
				Spec:            lexSpec,
				KindToTerminals: kindToTerminals,
				Skip:            skip,
			},
		},
	}
}

type expectedToken struct {
	symbol int
	value  string
	pos    Position
	span   Span
}

func TestMaleeniLexer(t *testing.T) {
	a := genAutomaton(t)
	l, err := NewMaleeniLexer(a, strings.NewReader("foo bar\nbaz#"))
	if err != nil {
		t.Fatal(err)
	}

	contexts := []testContexts{
		{},
		{ctxKeyword: true},
		{},
		{},
		{},
		{},
	}
	expected := []expectedToken{
		{symbol: symID, value: "foo", pos: Position{1, 1}, span: Span{0, 3}},
		{symbol: symKeyword, value: "bar", pos: Position{1, 5}, span: Span{4, 3}},
		{symbol: symID, value: "baz", pos: Position{2, 1}, span: Span{8, 3}},
		{symbol: spec.SymbolIDNil, value: "#", pos: Position{2, 4}, span: Span{11, 1}},
		{symbol: spec.SymbolIDDollar, value: "", span: Span{12, 0}},
		// The end of the input repeats.
		{symbol: spec.SymbolIDDollar, value: "", span: Span{12, 0}},
	}
	for i, eTok := range expected {
		tok, err := l.NextToken(contexts[i])
		if err != nil {
			t.Fatal(err)
		}
		if tok.SymbolID != eTok.symbol {
			t.Fatalf("unexpected symbol of token #%v; want: %v, got: %v", i, eTok.symbol, tok.SymbolID)
		}
		repo := l.Output()
		if repo.Symbol(tok.Index).ID != eTok.symbol {
			t.Fatalf("unexpected symbol in the repository; want: %v, got: %v", eTok.symbol, repo.Symbol(tok.Index).ID)
		}
		if v := repo.Value(tok.Index); v != eTok.value {
			t.Fatalf("unexpected value; want: %#v, got: %#v", eTok.value, v)
		}
		if p := repo.Position(tok.Index); eTok.pos != (Position{}) && p != eTok.pos {
			t.Fatalf("unexpected position; want: %v, got: %v", eTok.pos, p)
		}
		if s := repo.Span(tok.Index); s != eTok.span {
			t.Fatalf("unexpected span; want: %+v, got: %+v", eTok.span, s)
		}
	}
	if n := l.Output().Count(); n != 5 {
		t.Fatalf("unexpected token count; want: 5, got: %v", n)
	}
}

func TestMaleeniLexer_SkipInvalid(t *testing.T) {
	a := genAutomaton(t)
	l, err := NewMaleeniLexer(a, strings.NewReader("#foo"), SkipInvalid())
	if err != nil {
		t.Fatal(err)
	}
	tok, err := l.NextToken(nil)
	if err != nil {
		t.Fatal(err)
	}
	if tok.SymbolID != symID {
		t.Fatalf("unexpected symbol; want: %v, got: %v", symID, tok.SymbolID)
	}
	if s := l.Output().Span(tok.Index); s.Index != 1 {
		t.Fatalf("a dropped lexeme must still advance the offset; got: %+v", s)
	}
}

func TestNewMaleeniLexer_NoLexicalSpecification(t *testing.T) {
	_, err := NewMaleeniLexer(&spec.CompiledAutomaton{Name: "test"}, strings.NewReader(""))
	if err == nil {
		t.Fatalf("expected error didn't occur")
	}
}

func TestStaticLexer(t *testing.T) {
	l := NewStaticLexer(testTerminals, []StaticToken{
		{
			Value: "if",
			Candidates: []spec.KindTerminal{
				{Terminal: symKeyword, Context: ctxKeyword},
				{Terminal: symID, Context: spec.ContextDefault},
			},
		},
		{
			Value: "if",
			Candidates: []spec.KindTerminal{
				{Terminal: symKeyword, Context: ctxKeyword},
			},
		},
	})

	tok, _ := l.NextToken(testContexts{ctxKeyword: true})
	if tok.SymbolID != symKeyword {
		t.Fatalf("unexpected symbol; want: %v, got: %v", symKeyword, tok.SymbolID)
	}
	// No candidate is available outside the keyword context.
	tok, _ = l.NextToken(testContexts{})
	if tok.SymbolID != spec.SymbolIDNil {
		t.Fatalf("unexpected symbol; want: %v, got: %v", spec.SymbolIDNil, tok.SymbolID)
	}
	tok, _ = l.NextToken(nil)
	if tok.SymbolID != spec.SymbolIDDollar {
		t.Fatalf("unexpected symbol; want: %v, got: %v", spec.SymbolIDDollar, tok.SymbolID)
	}
	if p := l.Output().Position(tok.Index); p != (Position{Line: 1, Column: 7}) {
		t.Fatalf("unexpected position; want: 1:7, got: %v", p)
	}
}

func TestNewStaticLexerFromNames(t *testing.T) {
	l := NewStaticLexerFromNames(testTerminals, "id", "keyword", "unknown")
	expected := []int{symID, symKeyword, spec.SymbolIDNil, spec.SymbolIDDollar}
	for i, sym := range expected {
		tok, err := l.NextToken(nil)
		if err != nil {
			t.Fatal(err)
		}
		if tok.SymbolID != sym {
			t.Fatalf("unexpected symbol of token #%v; want: %v, got: %v", i, sym, tok.SymbolID)
		}
	}
	if name := l.Output().Symbol(1).Name; name != "keyword" {
		t.Fatalf("unexpected symbol name; want: keyword, got: %v", name)
	}
}
