package spec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	verr "github.com/nihei9/grove/error"
)

var (
	errUnknownMethod    = errors.New("unknown parsing method")
	errNoState          = errors.New("an automaton must have at least one state")
	errNoColumn         = errors.New("an automaton must have at least one column")
	errDuplicateColumn  = errors.New("a symbol is mapped to multiple columns")
	errNoEOFColumn      = errors.New("the end-of-input symbol must have a column")
	errColumnCount      = errors.New("column count mismatch")
	errOutOfRange       = errors.New("index out of range")
	errMultipleActions  = errors.New("an LR(k) automaton allows at most one action per cell")
	errNegativeLength   = errors.New("reduction length must be >= 0")
	errContextOutOfSpan = errors.New("context ID is out of range")
)

// ReadAutomaton decodes a JSON-encoded compiled automaton and validates it.
func ReadAutomaton(r io.Reader) (*CompiledAutomaton, error) {
	a := &CompiledAutomaton{}
	err := json.NewDecoder(r).Decode(a)
	if err != nil {
		return nil, fmt.Errorf("cannot decode a compiled automaton: %w", err)
	}
	err = a.Validate()
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Validate reports all structural defects of the automaton as verr.SpecErrors.
func (a *CompiledAutomaton) Validate() error {
	var errs verr.SpecErrors
	add := func(cause error, format string, args ...interface{}) {
		errs = append(errs, &verr.SpecError{
			Cause: cause,
			Field: fmt.Sprintf(format, args...),
		})
	}

	switch a.Method {
	case MethodLRk, MethodRNGLR:
	default:
		add(errUnknownMethod, "method")
	}

	stateCount := len(a.States)
	if stateCount == 0 {
		add(errNoState, "states")
	}
	if len(a.Columns) == 0 {
		add(errNoColumn, "columns")
	}
	if a.InitialState < 0 || a.InitialState >= stateCount {
		add(errOutOfRange, "initial_state")
	}
	if a.Axiom < 0 || a.Axiom >= len(a.Variables) {
		add(errOutOfRange, "axiom")
	}

	{
		known := map[int]struct{}{}
		for i, sym := range a.Columns {
			if _, ok := known[sym]; ok {
				add(errDuplicateColumn, "columns[%v]", i)
			}
			known[sym] = struct{}{}
		}
		if _, ok := known[SymbolIDDollar]; !ok && len(a.Columns) > 0 {
			add(errNoEOFColumn, "columns")
		}
	}

	for s, row := range a.States {
		if len(row) != len(a.Columns) {
			add(errColumnCount, "states[%v]", s)
			continue
		}
		for c, cell := range row {
			if a.Method == MethodLRk && len(cell) > 1 {
				add(errMultipleActions, "states[%v][%v]", s, c)
			}
			for i, act := range cell {
				switch act.Code {
				case ActionCodeShift:
					if act.Data < 0 || act.Data >= stateCount {
						add(errOutOfRange, "states[%v][%v][%v].data", s, c, i)
					}
				case ActionCodeReduce:
					if act.Data < 0 || act.Data >= len(a.Productions) {
						add(errOutOfRange, "states[%v][%v][%v].data", s, c, i)
					}
				case ActionCodeNone, ActionCodeAccept:
				default:
					add(errOutOfRange, "states[%v][%v][%v].code", s, c, i)
				}
			}
		}
	}

	if len(a.Contexts) > 0 && len(a.Contexts) != stateCount {
		add(errColumnCount, "contexts")
	}
	for s, ctxs := range a.Contexts {
		for i, ctx := range ctxs {
			if ctx < 0 || ctx >= a.ContextCount {
				add(errContextOutOfSpan, "contexts[%v][%v]", s, i)
			}
		}
	}

	for i, prod := range a.Productions {
		if prod == nil {
			add(errOutOfRange, "productions[%v]", i)
			continue
		}
		if prod.Head < 0 || prod.Head >= len(a.Variables) {
			add(errOutOfRange, "productions[%v].head", i)
		}
		if prod.ReductionLength < 0 {
			add(errNegativeLength, "productions[%v].reduction_length", i)
		}
	}

	if len(a.Nullables) > 0 && len(a.Nullables) != len(a.Variables) {
		add(errColumnCount, "nullables")
	}
	for i, prod := range a.Nullables {
		if prod < -1 || prod >= len(a.Productions) {
			add(errOutOfRange, "nullables[%v]", i)
		}
	}

	if a.Lexical != nil && a.Lexical.Maleeni != nil {
		known := map[int]struct{}{}
		for _, t := range a.Terminals {
			known[t.ID] = struct{}{}
		}
		for k, cands := range a.Lexical.Maleeni.KindToTerminals {
			for i, cand := range cands {
				if _, ok := known[cand.Terminal]; !ok {
					add(errOutOfRange, "lexical.maleeni.kind_to_terminals[%v][%v].terminal", k, i)
				}
				if cand.Context < 0 || (cand.Context != ContextDefault && cand.Context >= a.ContextCount) {
					add(errContextOutOfSpan, "lexical.maleeni.kind_to_terminals[%v][%v].context", k, i)
				}
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
