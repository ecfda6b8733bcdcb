package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nihei9/grove/tester"
	"github.com/spf13/cobra"
)

var testFlags = struct {
	glr *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "test <automaton file path> <test file path>|<test directory path>",
		Short:   "Test an automaton",
		Example: `  grove test automaton.json test`,
		Args:    cobra.ExactArgs(2),
		RunE:    runTest,
	}
	testFlags.glr = cmd.Flags().Bool("glr", false, "parse test cases with a GLR parser")
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	a, err := readAutomaton(args[0])
	if err != nil {
		return err
	}

	var cs []*tester.TestCaseWithMetadata
	{
		cs = tester.ListTestCases(args[1])
		errOccurred := false
		for _, c := range cs {
			if c.Error != nil {
				fmt.Fprintf(os.Stderr, "Failed to read a test case or a directory: %v\n%v\n", c.FilePath, c.Error)
				errOccurred = true
			}
		}
		if errOccurred {
			return errors.New("Cannot run test")
		}
	}

	t := &tester.Tester{
		Automaton: a,
		Cases:     cs,
		GLR:       *testFlags.glr,
	}
	rs := t.Run()
	testFailed := false
	for _, r := range rs {
		fmt.Fprintln(os.Stdout, r)
		if r.Error != nil {
			testFailed = true
		}
	}
	if testFailed {
		return errors.New("Test failed")
	}
	return nil
}
