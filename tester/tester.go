// Package tester runs test cases against a compiled automaton.
package tester

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nihei9/grove/automaton"
	"github.com/nihei9/grove/driver"
	"github.com/nihei9/grove/lexer"
	"github.com/nihei9/grove/spec"
	tspec "github.com/nihei9/grove/spec/test"
)

type TestResult struct {
	TestCasePath string
	Error        error
	Diffs        []*tspec.TreeDiff
}

func (r *TestResult) String() string {
	if r.Error != nil {
		const indent1 = "    "
		const indent2 = indent1 + indent1

		msgLines := strings.Split(r.Error.Error(), "\n")
		msg := fmt.Sprintf("Failed %v:\n%v%v", r.TestCasePath, indent1, strings.Join(msgLines, "\n"+indent1))
		if len(r.Diffs) == 0 {
			return msg
		}
		var diffLines []string
		for _, diff := range r.Diffs {
			diffLines = append(diffLines, diff.Message)
			diffLines = append(diffLines, fmt.Sprintf("%vexpected path: %v", indent1, diff.ExpectedPath))
			diffLines = append(diffLines, fmt.Sprintf("%vactual path:   %v", indent1, diff.ActualPath))
		}
		return fmt.Sprintf("%v\n%v%v", msg, indent2, strings.Join(diffLines, "\n"+indent2))
	}
	return fmt.Sprintf("Passed %v", r.TestCasePath)
}

type TestCaseWithMetadata struct {
	TestCase *tspec.TestCase
	FilePath string
	Error    error
}

// ListTestCases reads a test case file, or all test case files under a directory.
func ListTestCases(testPath string) []*TestCaseWithMetadata {
	fi, err := os.Stat(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	if !fi.IsDir() {
		c, err := parseTestCase(testPath)
		return []*TestCaseWithMetadata{
			{
				TestCase: c,
				FilePath: testPath,
				Error:    err,
			},
		}
	}

	es, err := os.ReadDir(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	var cases []*TestCaseWithMetadata
	for _, e := range es {
		cs := ListTestCases(filepath.Join(testPath, e.Name()))
		cases = append(cases, cs...)
	}
	return cases
}

func parseTestCase(testCasePath string) (*tspec.TestCase, error) {
	f, err := os.Open(testCasePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tspec.ParseTestCase(f)
}

// Tester parses the source of each test case and compares the tree with the expected one. With GLR set,
// it parses with a GLR parser, which compares the first derivation of an ambiguous input.
type Tester struct {
	Automaton *spec.CompiledAutomaton
	Cases     []*TestCaseWithMetadata
	GLR       bool
}

func (t *Tester) Run() []*TestResult {
	var rs []*TestResult
	for _, c := range t.Cases {
		rs = append(rs, t.runTest(c))
	}
	return rs
}

func (t *Tester) runTest(c *TestCaseWithMetadata) *TestResult {
	res, err := t.parse(c.TestCase.Source)
	if err != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        err,
		}
	}

	if !res.Accepted {
		var msgs []string
		for _, e := range res.Errors {
			msgs = append(msgs, e.Error())
		}
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("the source was not accepted:\n%v", strings.Join(msgs, "\n")),
		}
	}

	diffs := tspec.DiffTree(c.TestCase.Output, tspec.ConvertAST(res.Tree))
	if len(diffs) > 0 {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("output mismatch"),
			Diffs:        diffs,
		}
	}
	return &TestResult{
		TestCasePath: c.FilePath,
	}
}

func (t *Tester) parse(src []byte) (*driver.Result, error) {
	lex, err := lexer.NewMaleeniLexer(t.Automaton, bytes.NewReader(src))
	if err != nil {
		return nil, err
	}

	if t.GLR {
		a, err := automaton.NewRNGLR(t.Automaton)
		if err != nil {
			return nil, err
		}
		p, err := driver.NewGLRParser(a, lex)
		if err != nil {
			return nil, err
		}
		return p.Parse()
	}

	a, err := automaton.NewLRk(t.Automaton)
	if err != nil {
		return nil, err
	}
	p, err := driver.NewParser(a, lex)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}
