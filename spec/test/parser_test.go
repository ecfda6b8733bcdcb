package test

import (
	"reflect"
	"strings"
	"testing"
)

func TestDiffTree(t *testing.T) {
	tests := []struct {
		caption   string
		expected  *Tree
		actual    *Tree
		different bool
	}{
		{
			caption:  "same leaves",
			expected: NewTree("a"),
			actual:   NewTree("a"),
		},
		{
			caption: "same nested trees",
			expected: NewTree("a",
				NewTree("b",
					NewTree("c"),
				),
				NewTree("d"),
			),
			actual: NewTree("a",
				NewTree("b",
					NewTree("c"),
				),
				NewTree("d"),
			),
		},
		{
			caption:  "a wildcard matches any kind",
			expected: NewTree("a", NewTree("_")),
			actual:   NewTree("a", NewTree("b")),
		},
		{
			caption:  "a leaf without a lexeme matches any token",
			expected: NewTree("a", NewTree("b")),
			actual:   NewTree("a", NewTerminalNode("b", "x")),
		},
		{
			caption:  "same lexemes",
			expected: NewTree("a", NewTerminalNode("b", "x")),
			actual:   NewTree("a", NewTerminalNode("b", "x")),
		},
		{
			caption:   "different kinds",
			expected:  NewTree("a"),
			actual:    NewTree("b"),
			different: true,
		},
		{
			caption:   "different lexemes",
			expected:  NewTree("a", NewTerminalNode("b", "x")),
			actual:    NewTree("a", NewTerminalNode("b", "y")),
			different: true,
		},
		{
			caption:   "a missing child",
			expected:  NewTree("a", NewTree("b"), NewTree("c")),
			actual:    NewTree("a", NewTree("b")),
			different: true,
		},
		{
			caption:   "an extra child",
			expected:  NewTree("a"),
			actual:    NewTree("a", NewTree("b")),
			different: true,
		},
		{
			caption:   "a different grandchild",
			expected:  NewTree("a", NewTree("b", NewTree("c"))),
			actual:    NewTree("a", NewTree("b", NewTree("d"))),
			different: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			diffs := DiffTree(tt.expected.Fill(), tt.actual.Fill())
			if tt.different && len(diffs) == 0 {
				t.Fatalf("the trees must differ")
			} else if !tt.different && len(diffs) > 0 {
				t.Fatalf("the trees must match; diffs: %v %v", diffs[0].Message, diffs[0].ActualPath)
			}
		})
	}
}

func TestParseTestCase(t *testing.T) {
	tests := []struct {
		caption  string
		src      string
		tc       *TestCase
		parseErr string
	}{
		{
			caption: "a simple test case",
			src: `test
---
foo
---
(foo)
`,
			tc: &TestCase{
				Description: "test",
				Source:      []byte("foo"),
				Output:      NewTree("foo").Fill(),
			},
		},
		{
			caption: "a nested tree having lexemes",
			src: `anbn
---
a b
---
(S
    (a 'a')
    (S)
    (b 'b'))
`,
			tc: &TestCase{
				Description: "anbn",
				Source:      []byte("a b"),
				Output: NewTree("S",
					NewTerminalNode("a", "a"),
					NewTree("S"),
					NewTerminalNode("b", "b"),
				).Fill(),
			},
		},
		{
			caption: "blank lines belong to the parts",
			src: `
test

---

foo

---

(foo)

`,
			tc: &TestCase{
				Description: "\ntest\n",
				Source:      []byte("\nfoo\n"),
				Output:      NewTree("foo").Fill(),
			},
		},
		{
			caption: "a delimiter may be longer than three hyphens",
			src: `test
-----
foo
----
(foo (<none>) ($ ''))
`,
			tc: &TestCase{
				Description: "test",
				Source:      []byte("foo"),
				Output:      NewTree("foo", NewTree("<none>"), NewTerminalNode("$", "")).Fill(),
			},
		},
		{
			caption: "the description and the source may be empty",
			src: `---
---
(foo)
`,
			tc: &TestCase{
				Description: "",
				Source:      []byte{},
				Output:      NewTree("foo").Fill(),
			},
		},
		{
			caption:  "an empty file",
			src:      ``,
			parseErr: "parts found",
		},
		{
			caption: "a missing tree",
			src: `test
---
foo
---
`,
			parseErr: "parts found",
		},
		{
			caption: "a short delimiter",
			src: `test
--
foo
--
(foo)
`,
			parseErr: "parts found",
		},
		{
			caption: "a malformed tree",
			src: `test
---
foo
---
(foo
    (bar)
`,
			parseErr: "unexpected end of input",
		},
		{
			caption: "a tree without a name",
			src: `test
---
foo
---
('foo')
`,
			parseErr: "5:2: unexpected token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			tc, err := ParseTestCase(strings.NewReader(tt.src))
			if tt.parseErr != "" {
				if err == nil {
					t.Fatalf("an expected error didn't occur")
				}
				if !strings.Contains(err.Error(), tt.parseErr) {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.parseErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			testTestCase(t, tt.tc, tc)
		})
	}
}

func testTestCase(t *testing.T, expected, actual *TestCase) {
	t.Helper()

	if expected.Description != actual.Description ||
		!reflect.DeepEqual(expected.Source, actual.Source) ||
		len(DiffTree(expected.Output, actual.Output)) > 0 {
		t.Fatalf("unexpected test case: want: %#v, got: %#v\n%s", expected, actual, actual.Output.Format())
	}
}

func TestTree_Format(t *testing.T) {
	tr := NewTree("S",
		NewTerminalNode("a", "a"),
		NewTree("S"),
	)
	expected := `(S
    (a 'a')
    (S))`
	if s := string(tr.Format()); s != expected {
		t.Fatalf("unexpected format; want: %v, got: %v", expected, s)
	}
}
