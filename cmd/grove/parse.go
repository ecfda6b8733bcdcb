package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/nihei9/grove/automaton"
	"github.com/nihei9/grove/driver"
	verr "github.com/nihei9/grove/error"
	"github.com/nihei9/grove/lexer"
	"github.com/nihei9/grove/spec"
	"github.com/nihei9/grove/tree"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	source    *string
	maxErrors *int
	recover   *bool
	glr       *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <automaton file path>",
		Short:   "Parse a text stream",
		Example: `  cat src | grove parse automaton.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.maxErrors = cmd.Flags().Int("max-errors", 100, "the number of syntax errors after which the parser stops")
	parseFlags.recover = cmd.Flags().Bool("recover", false, "skip unexpected tokens and continue parsing")
	parseFlags.glr = cmd.Flags().Bool("glr", false, "parse with a GLR parser")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) (retErr error) {
	defer func() {
		v := recover()
		if v != nil {
			err, ok := v.(error)
			if !ok {
				err = fmt.Errorf("an unexpected error occurred: %v", v)
			}
			fmt.Fprintf(os.Stderr, "%v:\n%v", err, string(debug.Stack()))
			retErr = err
		}
	}()

	a, err := readAutomaton(args[0])
	if err != nil {
		return err
	}

	src := os.Stdin
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return fmt.Errorf("Cannot open the source file %s: %w", *parseFlags.source, err)
		}
		defer f.Close()
		src = f
	}

	lex, err := lexer.NewMaleeniLexer(a, src)
	if err != nil {
		return err
	}

	var res *driver.Result
	if *parseFlags.glr {
		res, err = parseGLR(a, lex)
	} else {
		res, err = parseLRk(a, lex)
	}
	if err != nil {
		return err
	}

	for _, e := range res.Errors {
		fmt.Fprintln(os.Stderr, e)
	}
	if !res.Accepted {
		return errors.New("the source was not accepted")
	}
	if res.Forest != nil {
		if n := len(res.Forest.Ambiguities()); n > 0 {
			fmt.Fprintf(os.Stderr, "the source is ambiguous: %v nodes have more than one derivation; the tree shows the first one\n", n)
		}
	}
	tree.PrintTree(os.Stdout, res.Tree)

	return nil
}

func parseLRk(a *spec.CompiledAutomaton, lex lexer.Lexer) (*driver.Result, error) {
	lrk, err := automaton.NewLRk(a)
	if err != nil {
		return nil, err
	}
	p, err := driver.NewParser(lrk, lex, parserOptions()...)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

func parseGLR(a *spec.CompiledAutomaton, lex lexer.Lexer) (*driver.Result, error) {
	g, err := automaton.NewRNGLR(a)
	if err != nil {
		return nil, err
	}
	p, err := driver.NewGLRParser(g, lex, parserOptions()...)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

func parserOptions() []driver.ParserOption {
	opts := []driver.ParserOption{
		driver.MaxErrorCount(*parseFlags.maxErrors),
	}
	if *parseFlags.recover {
		opts = append(opts, driver.SkipUnexpectedTokens())
	}
	return opts
}

func readAutomaton(path string) (*spec.CompiledAutomaton, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open the automaton file %s: %w", path, err)
	}
	defer f.Close()
	return decodeAutomaton(f, path)
}

func decodeAutomaton(r io.Reader, path string) (*spec.CompiledAutomaton, error) {
	a, err := spec.ReadAutomaton(r)
	if err != nil {
		var specErrs verr.SpecErrors
		if errors.As(err, &specErrs) {
			specErrs.SetFilePath(path)
			return nil, specErrs
		}
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return a, nil
}
