// Package gss implements a graph-structured stack.
//
// A graph-structured stack represents many parser stacks at once. Stacks sharing a bottom part share the
// nodes of that part, and stacks that reach the same state at the same input position are merged into one
// node. Nodes and edges are stored in arenas and are grouped into generations, one generation per parsing
// step.
package gss

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("grove.gss")
}

const (
	// initialPathCount is the initial size of the path buffer. The buffer grows by this size.
	initialPathCount = 64

	// initialStackSize is the initial size of the work-list of the cleanup. The work-list grows by this
	// size.
	initialStackSize = 128

	// cleanupWindow is the number of generations a cleanup inspects. A cleanup runs every time this many
	// generations have been opened.
	cleanupWindow = 16
)

// Label is attached to an edge. A GLR parser labels an edge with the sub-tree built along it, and the GSS
// frees the label once the edge becomes unreachable. A label can be nil.
type Label interface {
	Free()
}

// Generation is a range [Start, Start+Count) of an arena.
type Generation struct {
	Start int
	Count int
}

func (g Generation) contains(i int) bool {
	return i >= g.Start && i < g.Start+g.Count
}

// Edge connects a node to a node below it in a stack.
type Edge struct {
	From  int
	To    int
	Label Label

	// Dead is true once a cleanup has reclaimed the edge.
	Dead bool
}

// GSS is a graph-structured stack. A GSS is owned by one parser and is not safe for concurrent use.
type GSS struct {
	nodeStates      []int
	nodeIncomings   []int
	nodeContexts    []*bitset.BitSet
	nodeGens        []int
	nodeGenerations []Generation

	edges           []*Edge
	edgeGenerations []Generation

	generation int

	paths *PathSet
	stack []int
}

func New() *GSS {
	return &GSS{
		generation: -1,
		paths: &PathSet{
			Content: make([]*Path, initialPathCount),
		},
		stack: make([]int, initialStackSize),
	}
}

// CurrentGeneration returns the generation opened last, or -1 when no generation has been opened.
func (g *GSS) CurrentGeneration() int {
	return g.generation
}

// Generation returns the node range of a generation.
func (g *GSS) Generation(gen int) Generation {
	return g.nodeGenerations[gen]
}

// EdgeGeneration returns the edge range of a generation.
func (g *GSS) EdgeGeneration(gen int) Generation {
	return g.edgeGenerations[gen]
}

// RepresentedState returns the automaton state a node represents.
func (g *GSS) RepresentedState(node int) int {
	return g.nodeStates[node]
}

// Contexts returns the contexts reachable from a node. The caller must not modify the returned set.
func (g *GSS) Contexts(node int) *bitset.BitSet {
	return g.nodeContexts[node]
}

// Incoming returns the number of live edges whose target is a node.
func (g *GSS) Incoming(node int) int {
	return g.nodeIncomings[node]
}

// GenerationOf returns the generation a node belongs to.
func (g *GSS) GenerationOf(node int) int {
	return g.nodeGens[node]
}

func (g *GSS) NodeCount() int {
	return len(g.nodeStates)
}

func (g *GSS) EdgeCount() int {
	return len(g.edges)
}

func (g *GSS) EdgeAt(i int) *Edge {
	return g.edges[i]
}

// FindNode returns a node of a generation representing a state.
func (g *GSS) FindNode(gen int, state int) (int, bool) {
	data := g.nodeGenerations[gen]
	for i := data.Start; i < data.Start+data.Count; i++ {
		if g.nodeStates[i] == state {
			return i, true
		}
	}
	return 0, false
}

// HasEdge reports whether a generation already has an edge from `from` to `to`.
func (g *GSS) HasEdge(gen int, from int, to int) bool {
	data := g.edgeGenerations[gen]
	for i := data.Start; i < data.Start+data.Count; i++ {
		e := g.edges[i]
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// CreateGeneration opens a new generation and returns its ID. Opening every 16th generation reclaims
// unreachable nodes of the preceding 16 generations first.
func (g *GSS) CreateGeneration() int {
	if g.generation != 0 && g.generation&(cleanupWindow-1) == 0 {
		g.cleanup()
	}
	g.nodeGenerations = append(g.nodeGenerations, Generation{Start: len(g.nodeStates)})
	g.edgeGenerations = append(g.edgeGenerations, Generation{Start: len(g.edges)})
	g.generation++
	return g.generation
}

// CreateNode appends a node representing a state to the current generation. contexts are the contexts the
// state opens, and contextCount is the number of contexts of the automaton.
func (g *GSS) CreateNode(state int, contexts []int, contextCount int) int {
	node := len(g.nodeStates)
	g.nodeStates = append(g.nodeStates, state)
	g.nodeIncomings = append(g.nodeIncomings, 0)
	bs := bitset.New(uint(contextCount))
	for _, ctx := range contexts {
		bs.Set(uint(ctx))
	}
	g.nodeContexts = append(g.nodeContexts, bs)
	g.nodeGens = append(g.nodeGens, g.generation)
	g.nodeGenerations[g.generation].Count++
	return node
}

// CreateEdge appends an edge to the current generation. The contexts reachable from `to` become reachable
// from `from` too.
func (g *GSS) CreateEdge(from int, to int, label Label) {
	g.edges = append(g.edges, &Edge{
		From:  from,
		To:    to,
		Label: label,
	})
	g.edgeGenerations[g.generation].Count++
	g.nodeIncomings[to]++
	g.nodeContexts[from].InPlaceUnion(g.nodeContexts[to])
}

// cleanup reclaims the nodes of the last 16 generations that no live edge targets, and then the nodes
// only those nodes kept alive. The current generation holds the stack tops and is never inspected.
func (g *GSS) cleanup() {
	top := -1
	push := func(node int) {
		top++
		if top == len(g.stack) {
			g.stack = append(g.stack, make([]int, initialStackSize)...)
		}
		g.stack[top] = node
	}

	last := g.nodeGenerations[g.generation].Start - 1
	first := g.nodeGenerations[g.generation-cleanupWindow].Start
	for i := last; i >= first; i-- {
		if g.nodeIncomings[i] == 0 {
			push(i)
		}
	}

	reclaimed := 0
	for top >= 0 {
		origin := g.stack[top]
		top--
		reclaimed++

		gen := g.edgeGenerations[g.nodeGens[origin]]
		for i := gen.Start; i < gen.Start+gen.Count; i++ {
			e := g.edges[i]
			if e.From != origin || e.Dead {
				continue
			}
			if e.Label != nil {
				e.Label.Free()
				e.Label = nil
			}
			e.Dead = true
			g.nodeIncomings[e.To]--
			if g.nodeIncomings[e.To] == 0 {
				push(e.To)
			}
		}
	}

	tracer().Debugf("gss: cleanup before generation %v reclaimed %v nodes from %v..%v", g.generation+1, reclaimed, first, last)
}
