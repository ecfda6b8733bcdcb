package driver

import (
	"github.com/nihei9/grove/spec"
)

// maxSimulationSteps bounds a simulation so that a malformed automaton reducing in a loop cannot hang a
// parser.
const maxSimulationSteps = 1 << 16

// expected returns the terminals the parser could accept in its current configuration. The terminals with a
// shift are always expected. A terminal with a reduction is expected only when the reductions it triggers
// end in a shift. A merged state of an LALR automaton may reduce on a terminal no stack below it accepts.
func (p *Parser) expected() []spec.Symbol {
	e := p.automaton.Expected(p.top(), p.lex.Terminals())
	syms := e.Shifts
	for _, t := range e.Reductions {
		if p.checkIsExpected(t.ID) {
			syms = append(syms, t)
		}
	}
	return syms
}

// checkIsExpected replays the actions for a terminal over a copy of the state stack.
func (p *Parser) checkIsExpected(terminal int) bool {
	stack := make([]int, len(p.cursor))
	for i, node := range p.cursor {
		stack[i] = p.gss.RepresentedState(node)
	}

	for step := 0; step < maxSimulationSteps; step++ {
		act := p.automaton.Action(stack[len(stack)-1], terminal)
		switch act.Code {
		case spec.ActionCodeShift, spec.ActionCodeAccept:
			return true
		case spec.ActionCodeReduce:
			prod := p.automaton.Production(act.Data)
			if prod.ReductionLength >= len(stack) {
				return false
			}
			stack = stack[:len(stack)-prod.ReductionLength]
			head := p.automaton.Variables()[prod.Head]
			next := p.automaton.Action(stack[len(stack)-1], head.ID)
			if next.Code != spec.ActionCodeShift {
				return false
			}
			stack = append(stack, next.Data)
		default:
			return false
		}
	}
	tracer().Errorf("the simulation for terminal %v doesn't settle in %v steps", terminal, maxSimulationSteps)
	return false
}
