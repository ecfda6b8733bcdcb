// Package test reads test cases of compiled automata. A test case consists of a description, a source text,
// and the tree the source text must yield, separated by lines of three or more hyphens.
//
//	description
//	---
//	a a b b
//	---
//	(S (a 'a') (S (a) (S) (b)) (b 'b'))
package test

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/nihei9/grove/automaton"
	"github.com/nihei9/grove/driver"
	"github.com/nihei9/grove/lexer"
	"github.com/nihei9/grove/tree"
)

type TreeDiff struct {
	ExpectedPath string
	ActualPath   string
	Message      string
}

func newTreeDiff(expected, actual *Tree, message string) *TreeDiff {
	return &TreeDiff{
		ExpectedPath: expected.path(),
		ActualPath:   actual.path(),
		Message:      message,
	}
}

// Tree is a tree of symbol names. A leaf having a lexeme matches only a token having the same lexeme.
type Tree struct {
	Parent    *Tree
	Offset    int
	Kind      string
	Children  []*Tree
	Lexeme    string
	HasLexeme bool
}

func NewTree(kind string, children ...*Tree) *Tree {
	return &Tree{
		Kind:     kind,
		Children: children,
	}
}

func NewTerminalNode(kind string, lexeme string) *Tree {
	return &Tree{
		Kind:      kind,
		Lexeme:    lexeme,
		HasLexeme: true,
	}
}

// ConvertAST converts an AST into a Tree. Every token of the result has a lexeme, and a virtual node is
// named `<name>`.
func ConvertAST(ast *tree.AST) *Tree {
	root, ok := ast.Root()
	if !ok {
		return nil
	}
	return convertNode(root).Fill()
}

func convertNode(n tree.Node) *Tree {
	kind := n.Symbol().Name
	switch n.Kind() {
	case tree.NodeKindToken:
		return NewTerminalNode(kind, n.Value())
	case tree.NodeKindVirtual:
		return NewTree("<" + kind + ">")
	}
	var children []*Tree
	for _, c := range n.Children() {
		children = append(children, convertNode(c))
	}
	return NewTree(kind, children...)
}

func (t *Tree) Fill() *Tree {
	for i, c := range t.Children {
		c.Parent = t
		c.Offset = i
		c.Fill()
	}
	return t
}

func (t *Tree) path() string {
	if t.Parent == nil {
		return t.Kind
	}
	return fmt.Sprintf("%v.[%v]%v", t.Parent.path(), t.Offset, t.Kind)
}

func (t *Tree) Format() []byte {
	var b bytes.Buffer
	t.format(&b, 0)
	return b.Bytes()
}

func (t *Tree) format(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("    ")
	}
	buf.WriteString("(")
	buf.WriteString(t.Kind)
	if t.HasLexeme {
		fmt.Fprintf(buf, " '%v'", t.Lexeme)
	}
	if len(t.Children) > 0 {
		buf.WriteString("\n")
		for i, c := range t.Children {
			c.format(buf, depth+1)
			if i < len(t.Children)-1 {
				buf.WriteString("\n")
			}
		}
	}
	buf.WriteString(")")
}

// DiffTree compares an expected tree with an actual one. The kind `_` matches any symbol, and a lexeme is
// compared only when the expected tree specifies one.
func DiffTree(expected, actual *Tree) []*TreeDiff {
	if expected == nil && actual == nil {
		return nil
	}
	if expected == nil || actual == nil {
		return []*TreeDiff{
			{
				Message: "either tree is missing",
			},
		}
	}
	if expected.Kind != "_" && actual.Kind != expected.Kind {
		msg := fmt.Sprintf("unexpected kind: expected '%v' but got '%v'", expected.Kind, actual.Kind)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if expected.HasLexeme && expected.Lexeme != actual.Lexeme {
		msg := fmt.Sprintf("unexpected lexeme: expected '%v' but got '%v'", expected.Lexeme, actual.Lexeme)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if len(actual.Children) != len(expected.Children) {
		msg := fmt.Sprintf("unexpected node count: expected %v but got %v", len(expected.Children), len(actual.Children))
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	var diffs []*TreeDiff
	for i, exp := range expected.Children {
		if ds := DiffTree(exp, actual.Children[i]); len(ds) > 0 {
			diffs = append(diffs, ds...)
		}
	}
	return diffs
}

type TestCase struct {
	Description string
	Source      []byte
	Output      *Tree
}

func ParseTestCase(r io.Reader) (*TestCase, error) {
	parts, err := splitIntoParts(r)
	if err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("too many or too few part delimiters: a test case consists of just three parts: %v parts found", len(parts))
	}

	tp := &treeParser{
		lineOffset: parts[0].lineCount + parts[1].lineCount + 2,
	}
	tree, err := tp.parseTree(bytes.NewReader(parts[2].buf))
	if err != nil {
		return nil, err
	}

	return &TestCase{
		Description: string(parts[0].buf),
		Source:      parts[1].buf,
		Output:      tree,
	}, nil
}

type testCasePart struct {
	buf       []byte
	lineCount int
}

func splitIntoParts(r io.Reader) ([]*testCasePart, error) {
	var bufs []*testCasePart
	s := bufio.NewScanner(r)
	for {
		buf, lineCount, err := readPart(s)
		if err != nil {
			return nil, err
		}
		if buf == nil {
			break
		}
		bufs = append(bufs, &testCasePart{
			buf:       buf,
			lineCount: lineCount,
		})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return bufs, nil
}

var reDelim = regexp.MustCompile(`^\s*---+\s*$`)

func readPart(s *bufio.Scanner) ([]byte, int, error) {
	if !s.Scan() {
		return nil, 0, s.Err()
	}
	buf := &bytes.Buffer{}
	line := s.Bytes()
	if reDelim.Match(line) {
		// (*bytes.Buffer).Bytes() returns nil until something is written, and nil means the end of the parts.
		return []byte{}, 0, nil
	}
	_, err := buf.Write(line)
	if err != nil {
		return nil, 0, err
	}
	lineCount := 1
	for s.Scan() {
		line := s.Bytes()
		if reDelim.Match(line) {
			return buf.Bytes(), lineCount, nil
		}
		_, err := buf.Write([]byte("\n"))
		if err != nil {
			return nil, 0, err
		}
		_, err = buf.Write(line)
		if err != nil {
			return nil, 0, err
		}
		lineCount++
	}
	if err := s.Err(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), lineCount, nil
}

type treeParser struct {
	lineOffset int
}

// parseTree parses the tree part with an LR(k) parser of the tree syntax.
func (tp *treeParser) parseTree(src io.Reader) (*Tree, error) {
	syntax, err := treeSyntaxAutomaton()
	if err != nil {
		return nil, err
	}
	a, err := automaton.NewLRk(syntax)
	if err != nil {
		return nil, err
	}
	lex, err := lexer.NewMaleeniLexer(syntax, src)
	if err != nil {
		return nil, err
	}
	p, err := driver.NewParser(a, lex)
	if err != nil {
		return nil, err
	}
	res, err := p.Parse()
	if err != nil {
		return nil, err
	}
	if !res.Accepted {
		var msgs []string
		for _, e := range res.Errors {
			msgs = append(msgs, tp.formatError(e))
		}
		return nil, errors.New(strings.Join(msgs, "\n"))
	}

	root, _ := res.Tree.Root()
	return genTree(root).Fill(), nil
}

// formatError shifts the line of an error so that it points into the test case file.
func (tp *treeParser) formatError(err error) string {
	var pos lexer.Position
	var msg string
	switch e := err.(type) {
	case *driver.UnexpectedTokenError:
		pos = e.Position
		msg = strings.TrimPrefix(e.Error(), e.Position.String()+": ")
	case *driver.ParseError:
		pos = e.Position
		msg = strings.TrimPrefix(e.Error(), e.Position.String()+": ")
	default:
		return err.Error()
	}
	pos.Line += tp.lineOffset
	return fmt.Sprintf("%v: %v", pos, msg)
}

// genTree converts a node of the tree syntax. Its first child is the name, and the rest is either a string
// or sub-trees.
func genTree(n tree.Node) *Tree {
	children := n.Children()
	kind := children[0].Value()
	if len(children) == 2 && children[1].Symbol().ID == symString {
		return NewTerminalNode(kind, strings.Trim(children[1].Value(), "'"))
	}

	var subTrees []*Tree
	for _, c := range children[1:] {
		subTrees = append(subTrees, genTree(c))
	}
	return NewTree(kind, subTrees...)
}
