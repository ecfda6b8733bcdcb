package automaton

import (
	"errors"
	"fmt"

	"github.com/nihei9/grove/spec"
)

var (
	ErrTruncatedOpcode   = errors.New("an opcode lacks its operand")
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrUnknownTreeAction = errors.New("unknown tree action")
)

type OpKind int

const (
	OpKindPop            = OpKind(spec.OpBasePop)
	OpKindSemanticAction = OpKind(spec.OpBaseSemanticAction)
	OpKindAddVirtual     = OpKind(spec.OpBaseAddVirtual)
	OpKindAddNullable    = OpKind(spec.OpBaseAddNullable)
)

func (k OpKind) String() string {
	switch k {
	case OpKindPop:
		return "pop"
	case OpKindSemanticAction:
		return "semantic action"
	case OpKindAddVirtual:
		return "add virtual"
	case OpKindAddNullable:
		return "add nullable"
	}
	return "unknown"
}

// Op is a decoded opcode of a production. Operand is the index of a semantic action, of a virtual symbol,
// or of a nullable variable depending on Kind. A pop has no operand.
type Op struct {
	Kind    OpKind
	Tree    spec.TreeAction
	Operand int
}

// Decode decodes the opcode starting at code[i] and returns it together with the position of the next
// opcode.
func Decode(code []uint16, i int) (Op, int, error) {
	if i < 0 || i >= len(code) {
		return Op{}, i, fmt.Errorf("%w: position %v", ErrTruncatedOpcode, i)
	}
	w := code[i]
	kind := OpKind(w >> spec.OpTreeActionBits)
	tree := spec.TreeAction(w & spec.OpTreeActionMask)
	if tree > spec.TreeActionPromote {
		return Op{}, i, fmt.Errorf("%w: %v at position %v", ErrUnknownTreeAction, tree, i)
	}

	switch kind {
	case OpKindPop:
		return Op{
			Kind: kind,
			Tree: tree,
		}, i + 1, nil
	case OpKindSemanticAction, OpKindAddVirtual, OpKindAddNullable:
		if i+1 >= len(code) {
			return Op{}, i, fmt.Errorf("%w: %v at position %v", ErrTruncatedOpcode, kind, i)
		}
		return Op{
			Kind:    kind,
			Tree:    tree,
			Operand: int(code[i+1]),
		}, i + 2, nil
	}

	return Op{}, i, fmt.Errorf("%w: %#04x at position %v", ErrUnknownOpcode, w, i)
}

// DecodeAll decodes whole bytecode.
func DecodeAll(code []uint16) ([]Op, error) {
	var ops []Op
	for i := 0; i < len(code); {
		op, next, err := Decode(code, i)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		i = next
	}
	return ops, nil
}
