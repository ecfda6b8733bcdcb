package automaton

import (
	"fmt"

	"github.com/nihei9/grove/compressor"
	"github.com/nihei9/grove/spec"
)

// An LR(k) table entry packs an action into one int: the code in the lower two bits and the data above
// them. The empty entry is 0, that is, ActionCodeNone.
const codeBits = 2

func encodeAction(act spec.Action) int {
	return act.Data<<codeBits | int(act.Code)
}

func decodeAction(e int) spec.Action {
	return spec.Action{
		Code: spec.ActionCode(e & (1<<codeBits - 1)),
		Data: e >> codeBits,
	}
}

// LRk is a deterministic automaton. Each cell has at most one action.
type LRk struct {
	base
	table *compressor.RowDisplacementTable
}

func NewLRk(a *spec.CompiledAutomaton) (*LRk, error) {
	if a.Method != spec.MethodLRk {
		return nil, fmt.Errorf("an LR(k) parser cannot use an automaton of method %v", a.Method)
	}

	colCount := len(a.Columns)
	entries := make([]int, len(a.States)*colCount)
	for state, row := range a.States {
		for col, cell := range row {
			if len(cell) == 0 {
				continue
			}
			entries[state*colCount+col] = encodeAction(cell[0])
		}
	}
	orig, err := compressor.NewOriginalTable(entries, colCount)
	if err != nil {
		return nil, err
	}
	tab := compressor.NewRowDisplacementTable(encodeAction(spec.Action{Code: spec.ActionCodeNone}))
	err = tab.Compress(orig)
	if err != nil {
		return nil, err
	}

	return &LRk{
		base:  newBase(a),
		table: tab,
	}, nil
}

// Action returns the action for a state and a symbol. Symbols without a column have no action.
func (a *LRk) Action(state int, symbol int) spec.Action {
	col, ok := a.column(symbol)
	if !ok {
		return spec.Action{Code: spec.ActionCodeNone}
	}
	return decodeAction(a.table.Get(state, col))
}

// Expected returns the terminals a state can shift (or accept) and the terminals it reduces on.
func (a *LRk) Expected(state int, terminals []spec.Symbol) Expected {
	var e Expected
	for _, t := range terminals {
		switch a.Action(state, t.ID).Code {
		case spec.ActionCodeShift, spec.ActionCodeAccept:
			e.addShift(t)
		case spec.ActionCodeReduce:
			e.addReduction(t)
		}
	}
	return e
}
