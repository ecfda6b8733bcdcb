package main

import (
	"strings"
	"testing"

	"github.com/nihei9/grove/spec"
)

func TestWriteDescription(t *testing.T) {
	const (
		symA = spec.SymbolIDMin + iota
		symB
		symS
	)
	a := &spec.CompiledAutomaton{
		Name:   "anbn",
		Method: spec.MethodRNGLR,
		Terminals: []spec.Symbol{
			{ID: spec.SymbolIDDollar, Name: "$"},
			{ID: symA, Name: "a"},
			{ID: symB, Name: "b"},
		},
		Variables: []spec.Symbol{
			{ID: symS, Name: "S"},
		},
		Virtuals: []spec.Symbol{
			{Name: "none"},
		},
		Columns:  []int{spec.SymbolIDDollar, symA, symB, symS},
		Contexts: [][]int{nil, nil, {1}},
		States: [][][]spec.Action{
			{
				{{Code: spec.ActionCodeReduce, Data: 1}},
				{{Code: spec.ActionCodeShift, Data: 2}, {Code: spec.ActionCodeReduce, Data: 1}},
				nil,
				{{Code: spec.ActionCodeShift, Data: 1}},
			},
			{{{Code: spec.ActionCodeAccept}}, nil, nil, nil},
			{nil, nil, nil, nil},
		},
		Productions: []*spec.Production{
			{
				Head:            0,
				ReductionLength: 3,
				Bytecode: spec.Bytecode(
					spec.OpPop(spec.TreeActionDrop),
					spec.OpAddVirtual(0, spec.TreeActionNone),
					spec.OpPop(spec.TreeActionNone),
					spec.OpPop(spec.TreeActionDrop),
					spec.OpSemanticAction(2),
				),
			},
			{
				Head:       0,
				HeadAction: spec.TreeActionReplaceByEpsilon,
			},
			{
				Head:     0,
				Bytecode: []uint16{spec.OpBaseSemanticAction << spec.OpTreeActionBits},
			},
		},
	}

	var b strings.Builder
	err := writeDescription(&b, a)
	if err != nil {
		t.Fatal(err)
	}
	desc := b.String()
	for _, line := range []string{
		"anbn (rnglr)",
		"1 cell has multiple actions.",
		"   3 a",
		"   5 S",
		"   0 <none>",
		"   0 S pops 3: pop/drop virtual(<none>) pop pop/drop action(2)",
		"   1 S [epsilon] pops 0: ε",
		"   2 S pops 0: <",
		"## State 2 (contexts: 1)",
		"shift     2 | reduce    1 on a",
		"accept on <eof>",
		"reduce    1 on <eof>",
		"shift     1 on S",
	} {
		if !strings.Contains(desc, line) {
			t.Fatalf("the description lacks a line; want: %v, got:\n%v", line, desc)
		}
	}
}
