package automaton

import (
	"fmt"

	"github.com/nihei9/grove/compressor"
	"github.com/nihei9/grove/spec"
)

// RNGLR is an automaton whose cells may hold several actions. A conflict of an LR table becomes a cell with
// many actions, and a GLR parser follows all of them.
type RNGLR struct {
	base
	actions []spec.Action

	// starts and counts locate the actions of a cell in `actions`.
	starts *compressor.UniqueEntriesTable
	counts *compressor.UniqueEntriesTable
}

func NewRNGLR(a *spec.CompiledAutomaton) (*RNGLR, error) {
	if a.Method != spec.MethodRNGLR && a.Method != spec.MethodLRk {
		return nil, fmt.Errorf("a GLR parser cannot use an automaton of method %v", a.Method)
	}

	colCount := len(a.Columns)
	var actions []spec.Action
	starts := make([]int, len(a.States)*colCount)
	counts := make([]int, len(a.States)*colCount)
	for state, row := range a.States {
		for col, cell := range row {
			starts[state*colCount+col] = len(actions)
			counts[state*colCount+col] = len(cell)
			actions = append(actions, cell...)
		}
	}

	compress := func(entries []int) (*compressor.UniqueEntriesTable, error) {
		orig, err := compressor.NewOriginalTable(entries, colCount)
		if err != nil {
			return nil, err
		}
		tab := compressor.NewUniqueEntriesTable()
		err = tab.Compress(orig)
		if err != nil {
			return nil, err
		}
		return tab, nil
	}
	startTab, err := compress(starts)
	if err != nil {
		return nil, err
	}
	countTab, err := compress(counts)
	if err != nil {
		return nil, err
	}

	return &RNGLR{
		base:    newBase(a),
		actions: actions,
		starts:  startTab,
		counts:  countTab,
	}, nil
}

// ActionCount returns the number of actions for a state and a symbol.
func (a *RNGLR) ActionCount(state int, symbol int) int {
	col, ok := a.column(symbol)
	if !ok {
		return 0
	}
	return a.counts.Get(state, col)
}

// ActionAt returns the i-th action for a state and a symbol.
func (a *RNGLR) ActionAt(state int, symbol int, i int) spec.Action {
	col, _ := a.column(symbol)
	return a.actions[a.starts.Get(state, col)+i]
}

// Goto returns the state reached from a state by a variable, or -1.
func (a *RNGLR) Goto(state int, variable int) int {
	n := a.ActionCount(state, variable)
	for i := 0; i < n; i++ {
		act := a.ActionAt(state, variable, i)
		if act.Code == spec.ActionCodeShift {
			return act.Data
		}
	}
	return -1
}

// IsAccepting reports whether a state accepts at the end of the input.
func (a *RNGLR) IsAccepting(state int) bool {
	n := a.ActionCount(state, spec.SymbolIDDollar)
	for i := 0; i < n; i++ {
		if a.ActionAt(state, spec.SymbolIDDollar, i).Code == spec.ActionCodeAccept {
			return true
		}
	}
	return false
}

// Nullable returns the production deriving the empty sub-tree of a variable.
func (a *RNGLR) Nullable(variable int) (int, bool) {
	if variable < 0 || variable >= len(a.spec.Nullables) {
		return 0, false
	}
	prod := a.spec.Nullables[variable]
	return prod, prod >= 0
}

func (a *RNGLR) Expected(state int, terminals []spec.Symbol) Expected {
	var e Expected
	for _, t := range terminals {
		n := a.ActionCount(state, t.ID)
		for i := 0; i < n; i++ {
			switch a.ActionAt(state, t.ID, i).Code {
			case spec.ActionCodeShift, spec.ActionCodeAccept:
				e.addShift(t)
			case spec.ActionCodeReduce:
				e.addReduction(t)
			}
		}
	}
	return e
}
