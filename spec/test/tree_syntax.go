package test

import (
	"fmt"
	"sync"

	"github.com/nihei9/grove/spec"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"
)

// Symbols of the tree syntax.
const (
	symLParen = spec.SymbolIDMin + iota
	symRParen
	symName
	symString
	symTree
	symBody
	symTrees
)

var (
	treeSyntax     *spec.CompiledAutomaton
	treeSyntaxErr  error
	treeSyntaxOnce sync.Once
)

// treeSyntaxAutomaton returns an SLR automaton of the following grammar. The lexical specification is
// compiled on the first call.
//
//	tree  → ( name body )
//	body  → string | trees
//	trees → trees tree | ε
func treeSyntaxAutomaton() (*spec.CompiledAutomaton, error) {
	treeSyntaxOnce.Do(func() {
		treeSyntax, treeSyntaxErr = genTreeSyntaxAutomaton()
	})
	return treeSyntax, treeSyntaxErr
}

func genTreeSyntaxAutomaton() (*spec.CompiledAutomaton, error) {
	lexSpec, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name: "tree",
		Entries: []*mlspec.LexEntry{
			{
				Kind:    mlspec.LexKindName("ws"),
				Pattern: mlspec.LexPattern(`[\u{0009}\u{000A}\u{000D}\u{0020}]+`),
			},
			{
				Kind:    mlspec.LexKindName("l_paren"),
				Pattern: mlspec.LexPattern(`\(`),
			},
			{
				Kind:    mlspec.LexKindName("r_paren"),
				Pattern: mlspec.LexPattern(`\)`),
			},
			{
				Kind:    mlspec.LexKindName("string"),
				Pattern: mlspec.LexPattern(`'[^']*'`),
			},
			{
				Kind:    mlspec.LexKindName("name"),
				Pattern: mlspec.LexPattern(`[^\u{0009}\u{000A}\u{000D}\u{0020}()']+`),
			},
		},
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		return nil, fmt.Errorf("cannot compile the tree syntax: %w %v", err, cErrs)
	}

	kindToTerminals := make([][]spec.KindTerminal, len(lexSpec.KindNames))
	var skip []int
	for kind, name := range lexSpec.KindNames {
		var term int
		switch name.String() {
		case "ws":
			skip = append(skip, kind)
			continue
		case "l_paren":
			term = symLParen
		case "r_paren":
			term = symRParen
		case "string":
			term = symString
		case "name":
			term = symName
		default:
			continue
		}
		kindToTerminals[kind] = []spec.KindTerminal{
			{Terminal: term, Context: spec.ContextDefault},
		}
	}

	shift := func(s int) []spec.Action {
		return []spec.Action{{Code: spec.ActionCodeShift, Data: s}}
	}
	reduce := func(p int) []spec.Action {
		return []spec.Action{{Code: spec.ActionCodeReduce, Data: p}}
	}
	accept := []spec.Action{{Code: spec.ActionCodeAccept}}

	return &spec.CompiledAutomaton{
		Name:         "tree",
		Method:       spec.MethodLRk,
		InitialState: 0,
		Axiom:        0,
		Terminals: []spec.Symbol{
			{ID: spec.SymbolIDDollar, Name: "$"},
			{ID: symLParen, Name: "l_paren"},
			{ID: symRParen, Name: "r_paren"},
			{ID: symName, Name: "name"},
			{ID: symString, Name: "string"},
		},
		Variables: []spec.Symbol{
			{ID: symTree, Name: "tree"},
			{ID: symBody, Name: "body"},
			{ID: symTrees, Name: "trees"},
		},
		Columns: []int{spec.SymbolIDDollar, symLParen, symRParen, symName, symString, symTree, symBody, symTrees},
		States: [][][]spec.Action{
			{nil, shift(2), nil, nil, nil, shift(1), nil, nil},
			{accept, nil, nil, nil, nil, nil, nil, nil},
			{nil, nil, nil, shift(3), nil, nil, nil, nil},
			{nil, reduce(4), reduce(4), nil, shift(4), nil, shift(5), shift(6)},
			{nil, nil, reduce(1), nil, nil, nil, nil, nil},
			{nil, nil, shift(7), nil, nil, nil, nil, nil},
			{nil, shift(2), reduce(2), nil, nil, shift(8), nil, nil},
			{reduce(0), reduce(0), reduce(0), nil, nil, nil, nil, nil},
			{nil, reduce(3), reduce(3), nil, nil, nil, nil, nil},
		},
		Productions: []*spec.Production{
			// tree → ( name body )
			{
				Head:            0,
				ReductionLength: 4,
				Bytecode: spec.Bytecode(
					spec.OpPop(spec.TreeActionDrop),
					spec.OpPop(spec.TreeActionNone),
					spec.OpPop(spec.TreeActionNone),
					spec.OpPop(spec.TreeActionDrop),
				),
			},
			// body → string
			{
				Head:            1,
				HeadAction:      spec.TreeActionReplaceByChildren,
				ReductionLength: 1,
				Bytecode:        spec.OpPop(spec.TreeActionNone),
			},
			// body → trees
			{
				Head:            1,
				HeadAction:      spec.TreeActionReplaceByChildren,
				ReductionLength: 1,
				Bytecode:        spec.OpPop(spec.TreeActionNone),
			},
			// trees → trees tree
			{
				Head:            2,
				HeadAction:      spec.TreeActionReplaceByChildren,
				ReductionLength: 2,
				Bytecode: spec.Bytecode(
					spec.OpPop(spec.TreeActionNone),
					spec.OpPop(spec.TreeActionNone),
				),
			},
			// trees → ε
			{
				Head:            2,
				HeadAction:      spec.TreeActionReplaceByEpsilon,
				ReductionLength: 0,
			},
		},
		Nullables: []int{-1, -1, 4},
		Lexical: &spec.LexicalSpecification{
			Maleeni: &spec.Maleeni{
				Spec:            lexSpec,
				KindToTerminals: kindToTerminals,
				Skip:            skip,
			},
		},
	}, nil
}
