// Package automaton provides read-only access to compiled parsing automata.
package automaton

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/nihei9/grove/spec"
)

// Expected holds the terminals a state has an action for, split by the kind of the action.
type Expected struct {
	Shifts     []spec.Symbol
	Reductions []spec.Symbol
}

func (e *Expected) addShift(sym spec.Symbol) {
	if !contains(e.Shifts, sym) {
		e.Shifts = append(e.Shifts, sym)
	}
}

func (e *Expected) addReduction(sym spec.Symbol) {
	if !contains(e.Reductions, sym) {
		e.Reductions = append(e.Reductions, sym)
	}
}

func contains(syms []spec.Symbol, sym spec.Symbol) bool {
	for _, s := range syms {
		if s.ID == sym.ID {
			return true
		}
	}
	return false
}

// base holds what LR(k) and RNGLR automata have in common.
type base struct {
	spec *spec.CompiledAutomaton

	// sym2Col maps a symbol ID to a column. -1 means the symbol has no column.
	sym2Col []int

	contexts []*bitset.BitSet
}

func newBase(a *spec.CompiledAutomaton) base {
	maxID := 0
	for _, sym := range a.Columns {
		if sym > maxID {
			maxID = sym
		}
	}
	sym2Col := make([]int, maxID+1)
	for i := range sym2Col {
		sym2Col[i] = -1
	}
	for col, sym := range a.Columns {
		sym2Col[sym] = col
	}

	contexts := make([]*bitset.BitSet, len(a.States))
	for state := range contexts {
		bs := bitset.New(uint(a.ContextCount))
		if state < len(a.Contexts) {
			for _, ctx := range a.Contexts[state] {
				bs.Set(uint(ctx))
			}
		}
		contexts[state] = bs
	}

	return base{
		spec:     a,
		sym2Col:  sym2Col,
		contexts: contexts,
	}
}

func (b *base) column(symbol int) (int, bool) {
	if symbol < 0 || symbol >= len(b.sym2Col) {
		return 0, false
	}
	col := b.sym2Col[symbol]
	return col, col >= 0
}

func (b *base) Name() string {
	return b.spec.Name
}

func (b *base) InitialState() int {
	return b.spec.InitialState
}

func (b *base) StateCount() int {
	return len(b.spec.States)
}

func (b *base) Axiom() int {
	return b.spec.Axiom
}

func (b *base) Production(prod int) *spec.Production {
	return b.spec.Productions[prod]
}

func (b *base) Terminals() []spec.Symbol {
	return b.spec.Terminals
}

func (b *base) Variables() []spec.Symbol {
	return b.spec.Variables
}

func (b *base) Virtuals() []spec.Symbol {
	return b.spec.Virtuals
}

func (b *base) ContextCount() int {
	return b.spec.ContextCount
}

// Contexts returns the lexical contexts a state opens.
func (b *base) Contexts(state int) []int {
	if state >= len(b.spec.Contexts) {
		return nil
	}
	return b.spec.Contexts[state]
}

// HasContext reports whether a state opens a context.
func (b *base) HasContext(state int, context int) bool {
	if context < 0 {
		return false
	}
	return b.contexts[state].Test(uint(context))
}
