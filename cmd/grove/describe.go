package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/nihei9/grove/automaton"
	"github.com/nihei9/grove/spec"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "describe <automaton file path>",
		Short:   "Print an automaton in readable format",
		Example: `  grove describe automaton.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runDescribe,
	}
	rootCmd.AddCommand(cmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	a, err := readAutomaton(args[0])
	if err != nil {
		return err
	}
	return writeDescription(os.Stdout, a)
}

type productionView struct {
	Number int
	*spec.Production
}

type stateView struct {
	Number  int
	Actions []cellView
}

type cellView struct {
	Symbol  int
	Actions []spec.Action
}

type automatonView struct {
	*spec.CompiledAutomaton
	ProductionViews []productionView
	StateViews      []stateView
}

func newAutomatonView(a *spec.CompiledAutomaton) *automatonView {
	v := &automatonView{
		CompiledAutomaton: a,
	}
	for i, prod := range a.Productions {
		v.ProductionViews = append(v.ProductionViews, productionView{
			Number:     i,
			Production: prod,
		})
	}
	for i, row := range a.States {
		s := stateView{
			Number: i,
		}
		for col, cell := range row {
			if len(cell) == 0 || col >= len(a.Columns) {
				continue
			}
			s.Actions = append(s.Actions, cellView{
				Symbol:  a.Columns[col],
				Actions: cell,
			})
		}
		v.StateViews = append(v.StateViews, s)
	}
	return v
}

const descTemplate = `# Automaton

{{ .Name }} ({{ .Method }})

# Conflicts

{{ printConflictSummary . }}

# Terminals

{{ range .Terminals -}}
{{ printSymbol . }}
{{ end }}
# Variables

{{ range .Variables -}}
{{ printSymbol . }}
{{ end }}
{{- if .Virtuals }}
# Virtuals

{{ range $i, $v := .Virtuals -}}
{{ printVirtual $i $v }}
{{ end }}
{{- end }}
# Productions

{{ range .ProductionViews -}}
{{ printProduction . }}
{{ end }}
# States
{{ range .StateViews }}
## State {{ .Number }}{{ printContexts .Number }}

{{ range .Actions -}}
{{ printCell . }}
{{ end -}}
{{ end }}`

func writeDescription(w io.Writer, a *spec.CompiledAutomaton) error {
	names := map[int]string{
		spec.SymbolIDEpsilon: "ε",
		spec.SymbolIDDollar:  "<eof>",
	}
	for _, syms := range [][]spec.Symbol{a.Terminals, a.Variables} {
		for _, sym := range syms {
			if sym.ID == spec.SymbolIDDollar {
				continue
			}
			names[sym.ID] = sym.Name
		}
	}
	symName := func(id int) string {
		if name, ok := names[id]; ok && name != "" {
			return name
		}
		return fmt.Sprintf("#%v", id)
	}
	varName := func(index int) string {
		if index < 0 || index >= len(a.Variables) {
			return fmt.Sprintf("<variable %v>", index)
		}
		return symName(a.Variables[index].ID)
	}

	fns := template.FuncMap{
		"printConflictSummary": func(v *automatonView) string {
			count := 0
			for _, s := range v.StateViews {
				for _, c := range s.Actions {
					if len(c.Actions) > 1 {
						count++
					}
				}
			}

			if count == 1 {
				return "1 cell has multiple actions."
			} else if count > 1 {
				return fmt.Sprintf("%v cells have multiple actions.", count)
			}
			return "No conflict was detected."
		},
		"printSymbol": func(sym spec.Symbol) string {
			return fmt.Sprintf("%4v %v", sym.ID, symName(sym.ID))
		},
		"printVirtual": func(index int, sym spec.Symbol) string {
			return fmt.Sprintf("%4v <%v>", index, sym.Name)
		},
		"printProduction": func(prod productionView) string {
			var b strings.Builder
			fmt.Fprintf(&b, "%4v %v", prod.Number, varName(prod.Head))
			if prod.HeadAction != spec.TreeActionNone {
				fmt.Fprintf(&b, " [%v]", prod.HeadAction)
			}
			fmt.Fprintf(&b, " pops %v:", prod.ReductionLength)
			ops, err := automaton.DecodeAll(prod.Bytecode)
			if err != nil {
				fmt.Fprintf(&b, " <%v>", err)
				return b.String()
			}
			if len(ops) == 0 {
				fmt.Fprintf(&b, " ε")
			}
			for _, op := range ops {
				fmt.Fprintf(&b, " %v", formatOp(a, op, varName))
			}
			return b.String()
		},
		"printContexts": func(state int) string {
			if state >= len(a.Contexts) || len(a.Contexts[state]) == 0 {
				return ""
			}
			var b strings.Builder
			fmt.Fprintf(&b, " (contexts: %v", a.Contexts[state][0])
			for _, c := range a.Contexts[state][1:] {
				fmt.Fprintf(&b, ", %v", c)
			}
			fmt.Fprintf(&b, ")")
			return b.String()
		},
		"printCell": func(c cellView) string {
			var b strings.Builder
			for i, act := range c.Actions {
				if i > 0 {
					fmt.Fprintf(&b, " | ")
				}
				switch act.Code {
				case spec.ActionCodeShift:
					fmt.Fprintf(&b, "shift  %4v", act.Data)
				case spec.ActionCodeReduce:
					fmt.Fprintf(&b, "reduce %4v", act.Data)
				default:
					fmt.Fprintf(&b, "%v", act.Code)
				}
			}
			return fmt.Sprintf("%v on %v", b.String(), symName(c.Symbol))
		},
	}

	tmpl, err := template.New("").Funcs(fns).Parse(descTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, newAutomatonView(a))
}

func formatOp(a *spec.CompiledAutomaton, op automaton.Op, varName func(int) string) string {
	var s string
	switch op.Kind {
	case automaton.OpKindPop:
		s = "pop"
	case automaton.OpKindSemanticAction:
		return fmt.Sprintf("action(%v)", op.Operand)
	case automaton.OpKindAddVirtual:
		if op.Operand < len(a.Virtuals) {
			s = fmt.Sprintf("virtual(<%v>)", a.Virtuals[op.Operand].Name)
		} else {
			s = fmt.Sprintf("virtual(%v)", op.Operand)
		}
	case automaton.OpKindAddNullable:
		s = fmt.Sprintf("nullable(%v)", varName(op.Operand))
	default:
		s = op.Kind.String()
	}
	if op.Tree != spec.TreeActionNone {
		s += "/" + op.Tree.String()
	}
	return s
}
