package tester

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nihei9/grove/spec"
	tspec "github.com/nihei9/grove/spec/test"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"
)

const (
	symA = spec.SymbolIDMin + iota
	symB
	symS
)

// genAnBn returns an automaton of `S → a S b | ε` whose lexer skips white spaces.
func genAnBn(t *testing.T) *spec.CompiledAutomaton {
	t.Helper()

	lexSpec, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name: "anbn",
		Entries: []*mlspec.LexEntry{
			{
				Kind:    mlspec.LexKindName("a"),
				Pattern: mlspec.LexPattern("a"),
			},
			{
				Kind:    mlspec.LexKindName("b"),
				Pattern: mlspec.LexPattern("b"),
			},
			{
				Kind:    mlspec.LexKindName("ws"),
				Pattern: mlspec.LexPattern(`[\u{0009}\u{000A}\u{0020}]+`),
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
		case "a":
			kindToTerminals[kind] = []spec.KindTerminal{{Terminal: symA}}
		case "b":
			kindToTerminals[kind] = []spec.KindTerminal{{Terminal: symB}}
		case "ws":
			skip = append(skip, kind)
		}
	}

	shift := func(s int) []spec.Action {
		return []spec.Action{{Code: spec.ActionCodeShift, Data: s}}
	}
	reduce := func(p int) []spec.Action {
		return []spec.Action{{Code: spec.ActionCodeReduce, Data: p}}
	}
	return &spec.CompiledAutomaton{
		Name:         "anbn",
		Method:       spec.MethodLRk,
		InitialState: 0,
		Axiom:        0,
		Terminals: []spec.Symbol{
			{ID: spec.SymbolIDDollar, Name: "$"},
			{ID: symA, Name: "a"},
			{ID: symB, Name: "b"},
		},
		Variables: []spec.Symbol{
			{ID: symS, Name: "S"},
		},
		Columns: []int{spec.SymbolIDDollar, symA, symB, symS},
		States: [][][]spec.Action{
			{reduce(1), shift(2), reduce(1), shift(1)},
			{{{Code: spec.ActionCodeAccept}}, nil, nil, nil},
			{nil, shift(2), reduce(1), shift(3)},
			{nil, nil, shift(4), nil},
			{reduce(0), nil, reduce(0), nil},
		},
		Productions: []*spec.Production{
			{
				Head:            0,
				ReductionLength: 3,
				Bytecode: spec.Bytecode(
					spec.OpPop(spec.TreeActionNone),
					spec.OpPop(spec.TreeActionNone),
					spec.OpPop(spec.TreeActionNone),
				),
			},
			{
				Head:            0,
				ReductionLength: 0,
			},
		},
		Nullables: []int{1},
		Lexical: &spec.LexicalSpecification{
			Maleeni: &spec.Maleeni{
				Spec:            lexSpec,
				KindToTerminals: kindToTerminals,
				Skip:            skip,
			},
		},
	}
}

func TestTester_Run(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		err     string
		diff    bool
	}{
		{
			caption: "the tree matches",
			src: `nested pairs
---
a a b b
---
(S
    (a 'a')
    (S
        (a)
        (S)
        (b))
    (b 'b'))
`,
		},
		{
			caption: "a wildcard matches any sub-tree",
			src: `wildcard
---
a b
---
(S (a) (_) (b 'b'))
`,
		},
		{
			caption: "an empty source",
			src: `empty
---
---
(S)
`,
		},
		{
			caption: "a lexeme differs",
			src: `mismatched lexeme
---
a b
---
(S (a 'b') (S) (b))
`,
			err:  "output mismatch",
			diff: true,
		},
		{
			caption: "a node count differs",
			src: `mismatched count
---
a b
---
(S (a) (b))
`,
			err:  "output mismatch",
			diff: true,
		},
		{
			caption: "the source has a syntax error",
			src: `syntax error
---
a b b
---
(S (a) (S) (b))
`,
			err: `1:5: unexpected token "b"`,
		},
	}
	for _, tt := range tests {
		for _, glr := range []bool{false, true} {
			mode := "LR(k)"
			if glr {
				mode = "GLR"
			}
			t.Run(tt.caption+" with "+mode, func(t *testing.T) {
				c, err := tspec.ParseTestCase(strings.NewReader(tt.src))
				if err != nil {
					t.Fatal(err)
				}
				tester := &Tester{
					Automaton: genAnBn(t),
					Cases: []*TestCaseWithMetadata{
						{
							TestCase: c,
							FilePath: "test.txt",
						},
					},
					GLR: glr,
				}
				rs := tester.Run()
				if len(rs) != 1 {
					t.Fatalf("unexpected result count; want: 1, got: %v", len(rs))
				}
				r := rs[0]
				if tt.err == "" {
					if r.Error != nil {
						t.Fatalf("unexpected error: %v", r)
					}
					if s := r.String(); s != "Passed test.txt" {
						t.Fatalf("unexpected result; want: Passed test.txt, got: %v", s)
					}
					return
				}
				if r.Error == nil {
					t.Fatalf("an expected error didn't occur")
				}
				if !strings.Contains(r.Error.Error(), tt.err) {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.err, r.Error)
				}
				if tt.diff && len(r.Diffs) == 0 {
					t.Fatalf("diffs must be reported")
				}
				if !strings.HasPrefix(r.String(), "Failed test.txt:") {
					t.Fatalf("unexpected result: %v", r)
				}
			})
		}
	}
}

func TestListTestCases(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"pass.txt":       "test\n---\na b\n---\n(S (a) (S) (b))\n",
		"sub/broken.txt": "test\n---\na b\n",
	}
	for name, src := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cs := ListTestCases(dir)
	if len(cs) != 2 {
		t.Fatalf("unexpected test case count; want: 2, got: %v", len(cs))
	}
	// os.ReadDir sorts entries by name, so pass.txt precedes the sub directory.
	if cs[0].Error != nil || cs[0].TestCase == nil {
		t.Fatalf("the test case must be read: %v", cs[0].Error)
	}
	if cs[1].Error == nil {
		t.Fatalf("the broken test case must have an error")
	}
	if cs[1].FilePath != filepath.Join(dir, "sub", "broken.txt") {
		t.Fatalf("unexpected file path; want: %v, got: %v", filepath.Join(dir, "sub", "broken.txt"), cs[1].FilePath)
	}

	cs = ListTestCases(filepath.Join(dir, "missing.txt"))
	if len(cs) != 1 || cs[0].Error == nil {
		t.Fatalf("a missing file must have an error")
	}
}
