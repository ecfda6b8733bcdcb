package spec

import mlspec "github.com/nihei9/maleeni/spec"

// Reserved symbol IDs. Generated automata number their own symbols starting from SymbolIDMin.
const (
	// SymbolIDNil is the ID of a token the lexer failed to classify. No automaton has an entry for it,
	// so a parser always reports such a token as unexpected.
	SymbolIDNil = 0

	SymbolIDEpsilon = 1

	// SymbolIDDollar marks the end of the input.
	SymbolIDDollar = 2

	SymbolIDMin = 3
)

// ContextDefault is the lexical context that is always in effect.
const ContextDefault = 0

type Method string

const (
	MethodLRk   = Method("lrk")
	MethodRNGLR = Method("rnglr")
)

type Symbol struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ActionCode int

const (
	ActionCodeNone   = ActionCode(0)
	ActionCodeReduce = ActionCode(1)
	ActionCodeShift  = ActionCode(2)
	ActionCodeAccept = ActionCode(3)
)

func (c ActionCode) String() string {
	switch c {
	case ActionCodeNone:
		return "none"
	case ActionCodeReduce:
		return "reduce"
	case ActionCodeShift:
		return "shift"
	case ActionCodeAccept:
		return "accept"
	}
	return "unknown"
}

// Action is an entry of a parsing table. For a shift action, Data is the next state. For a reduce action,
// Data is the index of the production.
type Action struct {
	Code ActionCode `json:"code"`
	Data int        `json:"data"`
}

// TreeAction decides how a node takes its place in the tree built by a reduction.
type TreeAction int

const (
	// TreeActionNone keeps the node as a single child.
	TreeActionNone = TreeAction(0)

	// TreeActionReplaceByChildren puts the children of the node in place of the node.
	TreeActionReplaceByChildren = TreeAction(1)

	// TreeActionDrop removes the node and its children.
	TreeActionDrop = TreeAction(2)

	// TreeActionPromote makes the node the root of the reduction. The previous root becomes a child of
	// the promoted node.
	TreeActionPromote = TreeAction(3)

	// TreeActionReplaceByEpsilon is only valid as a head action and marks the head as removable when it
	// has no children.
	TreeActionReplaceByEpsilon = TreeAction(4)
)

func (a TreeAction) String() string {
	switch a {
	case TreeActionNone:
		return "none"
	case TreeActionReplaceByChildren:
		return "replace"
	case TreeActionDrop:
		return "drop"
	case TreeActionPromote:
		return "promote"
	case TreeActionReplaceByEpsilon:
		return "epsilon"
	}
	return "unknown"
}

// Bytecode layout. A word consists of a base in the upper bits and a tree action in the lower three bits.
// The bases other than OpBasePop are followed by one operand word.
const (
	OpBasePop            = uint16(0)
	OpBaseSemanticAction = uint16(1)
	OpBaseAddVirtual     = uint16(2)
	OpBaseAddNullable    = uint16(3)

	OpTreeActionBits = 3
	OpTreeActionMask = uint16(1<<OpTreeActionBits - 1)
)

// OpPop returns bytecode popping the next child of a reduction.
func OpPop(act TreeAction) []uint16 {
	return []uint16{OpBasePop<<OpTreeActionBits | uint16(act)}
}

// OpSemanticAction returns bytecode invoking the semantic action having the index.
func OpSemanticAction(index int) []uint16 {
	return []uint16{OpBaseSemanticAction << OpTreeActionBits, uint16(index)}
}

// OpAddVirtual returns bytecode inserting the virtual symbol having the index.
func OpAddVirtual(index int, act TreeAction) []uint16 {
	return []uint16{OpBaseAddVirtual<<OpTreeActionBits | uint16(act), uint16(index)}
}

// OpAddNullable returns bytecode inserting the empty sub-tree of the nullable variable having the index.
func OpAddNullable(index int, act TreeAction) []uint16 {
	return []uint16{OpBaseAddNullable<<OpTreeActionBits | uint16(act), uint16(index)}
}

// Bytecode concatenates opcodes.
func Bytecode(ops ...[]uint16) []uint16 {
	var code []uint16
	for _, op := range ops {
		code = append(code, op...)
	}
	return code
}

type Production struct {
	// Head is an index of Variables.
	Head       int        `json:"head"`
	HeadAction TreeAction `json:"head_action"`

	// ReductionLength is the number of states a reduction pops. An RNGLR automaton uses reductions shorter
	// than the body of the production when the tail of the body is nullable.
	ReductionLength int      `json:"reduction_length"`
	Bytecode        []uint16 `json:"bytecode"`
}

// KindTerminal is a terminal a lexical kind can stand for. The lexer picks the first candidate whose
// context is in effect.
type KindTerminal struct {
	Terminal int `json:"terminal"`
	Context  int `json:"context"`
}

type Maleeni struct {
	Spec *mlspec.CompiledLexSpec `json:"spec"`

	// KindToTerminals is indexed by a kind ID of Spec.
	KindToTerminals [][]KindTerminal `json:"kind_to_terminals"`

	// Skip lists the kind IDs whose lexemes a lexer drops, such as white spaces and comments.
	Skip []int `json:"skip"`
}

type LexicalSpecification struct {
	Maleeni *Maleeni `json:"maleeni"`
}

type CompiledAutomaton struct {
	Name         string `json:"name"`
	Method       Method `json:"method"`
	InitialState int    `json:"initial_state"`

	// Axiom is an index of Variables.
	Axiom int `json:"axiom"`

	Terminals []Symbol `json:"terminals"`
	Variables []Symbol `json:"variables"`
	Virtuals  []Symbol `json:"virtuals"`

	// Columns maps a column of States to a symbol ID.
	Columns []int `json:"columns"`

	ContextCount int     `json:"context_count"`
	Contexts     [][]int `json:"contexts"`

	// States is indexed by a state number and then by a column.
	States      [][][]Action  `json:"states"`
	Productions []*Production `json:"productions"`

	// Nullables maps a variable to the production deriving its empty sub-tree, or -1.
	Nullables []int `json:"nullables"`

	Lexical *LexicalSpecification `json:"lexical"`
}
