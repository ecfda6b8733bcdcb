package error

import (
	"fmt"
	"strings"
)

// SpecError reports a defect found in a compiled automaton.
type SpecError struct {
	Cause error

	// FilePath is a path of the file the automaton was read from. It is empty when the automaton was
	// passed in memory.
	FilePath string

	// Field locates the defect inside the automaton, such as `states[3][1]` or `productions[7].bytecode`.
	Field string
}

func (e *SpecError) Error() string {
	var b strings.Builder
	if e.FilePath != "" {
		fmt.Fprintf(&b, "%v: ", e.FilePath)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%v: ", e.Field)
	}
	fmt.Fprintf(&b, "error: %v", e.Cause)

	return b.String()
}

func (e *SpecError) Unwrap() error {
	return e.Cause
}

// SpecErrors is a list of defects. The automaton loader reports all defects it finds at once instead of
// stopping at the first one.
type SpecErrors []*SpecError

func (e SpecErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%v", e[0])
	for _, err := range e[1:] {
		fmt.Fprintf(&b, "\n%v", err)
	}

	return b.String()
}

// SetFilePath sets a file path to all errors.
func (e SpecErrors) SetFilePath(path string) {
	for _, err := range e {
		err.FilePath = path
	}
}
