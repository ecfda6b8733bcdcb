package gss

import (
	"fmt"
	"sort"
	"strings"
	"testing"
)

type testLabel struct {
	name  string
	frees map[string]int
}

func (l *testLabel) Free() {
	l.frees[l.name]++
}

type labelFactory struct {
	frees map[string]int
}

func newLabelFactory() *labelFactory {
	return &labelFactory{
		frees: map[string]int{},
	}
}

func (f *labelFactory) label(name string) Label {
	return &testLabel{
		name:  name,
		frees: f.frees,
	}
}

func pathString(p *Path) string {
	var b strings.Builder
	for i, l := range p.Labels {
		if i > 0 {
			fmt.Fprint(&b, " ")
		}
		fmt.Fprint(&b, l.(*testLabel).name)
	}
	return b.String()
}

func pathStrings(ps *PathSet) []string {
	var s []string
	for _, p := range ps.Content[:ps.Count] {
		s = append(s, pathString(p))
	}
	sort.Strings(s)
	return s
}

// genLadder builds a GSS having two nodes at each generation. Both nodes of a generation have edges to
// both nodes of the preceding generation, so a top node reaches 2^n paths of length n. The edge from the
// i-th node of generation g to the j-th node of generation g-1 is labeled `g:ij`.
func genLadder(gens int, f *labelFactory) (*GSS, int) {
	g := New()
	g.CreateGeneration()
	prev := []int{g.CreateNode(0, nil, 1), g.CreateNode(1, nil, 1)}
	for gen := 1; gen <= gens; gen++ {
		g.CreateGeneration()
		cur := []int{g.CreateNode(0, nil, 1), g.CreateNode(1, nil, 1)}
		for i, from := range cur {
			for j, to := range prev {
				g.CreateEdge(from, to, f.label(fmt.Sprintf("%v:%v%v", gen, i, j)))
			}
		}
		prev = cur
	}
	g.CreateGeneration()
	top := g.CreateNode(2, nil, 1)
	g.CreateEdge(top, prev[0], f.label("t0"))
	g.CreateEdge(top, prev[1], f.label("t1"))
	return g, top
}

func TestGetPaths(t *testing.T) {
	tests := []struct {
		caption  string
		gens     int
		length   int
		expected int
	}{
		{caption: "two edges at each of 3 hops", gens: 2, length: 3, expected: 8},
		{caption: "a prefix of the ladder", gens: 2, length: 2, expected: 4},
		{caption: "one hop", gens: 2, length: 1, expected: 2},
		{caption: "paths longer than the graph", gens: 2, length: 4, expected: 0},
		{caption: "the path buffer grows", gens: 7, length: 8, expected: 256},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			g, top := genLadder(tt.gens, newLabelFactory())
			ps := g.GetPaths(top, tt.length)
			if ps.Count != tt.expected {
				t.Fatalf("unexpected path count; want: %v, got: %v", tt.expected, ps.Count)
			}
			seen := map[string]struct{}{}
			for _, p := range ps.Content[:ps.Count] {
				if len(p.Labels) != tt.length {
					t.Fatalf("unexpected path length; want: %v, got: %v", tt.length, len(p.Labels))
				}
				s := pathString(p)
				if _, ok := seen[s]; ok {
					t.Fatalf("duplicate path: %v", s)
				}
				seen[s] = struct{}{}
				if p.Generation != g.GenerationOf(p.Last) {
					t.Fatalf("unexpected generation of a path; want: %v, got: %v", g.GenerationOf(p.Last), p.Generation)
				}
			}
		})
	}
}

func TestGetPaths_DeadEnd(t *testing.T) {
	f := newLabelFactory()
	g := New()
	g.CreateGeneration()
	a0 := g.CreateNode(0, nil, 1)
	b0 := g.CreateNode(1, nil, 1)
	g.CreateGeneration()
	a1 := g.CreateNode(0, nil, 1)
	b1 := g.CreateNode(1, nil, 1)
	g.CreateEdge(a1, a0, f.label("a1a0"))
	g.CreateEdge(a1, b0, f.label("a1b0"))
	g.CreateGeneration()
	top := g.CreateNode(2, nil, 1)
	g.CreateEdge(top, a1, f.label("ta1"))
	g.CreateEdge(top, b1, f.label("tb1"))

	// b1 has no edges, so the paths through it end early.
	ps := g.GetPaths(top, 2)
	got := pathStrings(ps)
	expected := []string{"ta1 a1a0", "ta1 a1b0"}
	if len(got) != len(expected) {
		t.Fatalf("unexpected paths; want: %v, got: %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("unexpected paths; want: %v, got: %v", expected, got)
		}
	}
	for _, p := range ps.Content[:ps.Count] {
		if p.Last != a0 && p.Last != b0 {
			t.Fatalf("unexpected last node: %v", p.Last)
		}
	}
}

func TestGetPaths_ZeroLength(t *testing.T) {
	g, top := genLadder(2, newLabelFactory())
	for _, node := range []int{top, 0, 3} {
		ps := g.GetPaths(node, 0)
		if ps.Count != 1 {
			t.Fatalf("unexpected path count; want: 1, got: %v", ps.Count)
		}
		if ps.Content[0].Last != node {
			t.Fatalf("unexpected last node; want: %v, got: %v", node, ps.Content[0].Last)
		}
		if len(ps.Content[0].Labels) != 0 {
			t.Fatalf("a path of length 0 cannot have labels: %v", ps.Content[0].Labels)
		}
	}
}

func TestGetPaths_ReusesBuffer(t *testing.T) {
	g, top := genLadder(2, newLabelFactory())
	ps1 := g.GetPaths(top, 3)
	ps2 := g.GetPaths(top, 1)
	if ps1 != ps2 {
		t.Fatalf("a GSS must reuse its path set")
	}
	if ps2.Count != 2 {
		t.Fatalf("unexpected path count; want: 2, got: %v", ps2.Count)
	}
}

func countLiveIncomings(g *GSS) []int {
	counts := make([]int, g.NodeCount())
	for i := 0; i < g.EdgeCount(); i++ {
		e := g.EdgeAt(i)
		if e.Dead {
			continue
		}
		counts[e.To]++
	}
	return counts
}

func checkIncomings(t *testing.T, g *GSS) {
	t.Helper()
	counts := countLiveIncomings(g)
	for node, c := range counts {
		if g.Incoming(node) != c {
			t.Fatalf("unexpected incoming count of node %v; want: %v, got: %v", node, c, g.Incoming(node))
		}
		if g.Incoming(node) < 0 {
			t.Fatalf("incoming count of node %v is negative", node)
		}
	}
}

func TestIncomingCount(t *testing.T) {
	g, _ := genLadder(5, newLabelFactory())
	checkIncomings(t, g)
}

func TestFindNodeAndHasEdge(t *testing.T) {
	g := New()
	g.CreateGeneration()
	n0 := g.CreateNode(10, nil, 1)
	g.CreateGeneration()
	n1 := g.CreateNode(11, nil, 1)
	n2 := g.CreateNode(12, nil, 1)
	g.CreateEdge(n1, n0, nil)

	if n, ok := g.FindNode(1, 12); !ok || n != n2 {
		t.Fatalf("unexpected node; want: %v, got: %v (%v)", n2, n, ok)
	}
	if _, ok := g.FindNode(1, 10); ok {
		t.Fatalf("state 10 must be found only in generation 0")
	}
	if n, ok := g.FindNode(0, 10); !ok || n != n0 {
		t.Fatalf("unexpected node; want: %v, got: %v (%v)", n0, n, ok)
	}
	if !g.HasEdge(1, n1, n0) {
		t.Fatalf("the edge %v -> %v must exist", n1, n0)
	}
	if g.HasEdge(1, n2, n0) || g.HasEdge(0, n1, n0) {
		t.Fatalf("unexpected edge")
	}
}

func TestContexts(t *testing.T) {
	g := New()
	g.CreateGeneration()
	bottom := g.CreateNode(0, []int{2}, 4)
	g.CreateGeneration()
	middle := g.CreateNode(1, []int{1}, 4)
	g.CreateEdge(middle, bottom, nil)
	g.CreateGeneration()
	top := g.CreateNode(2, nil, 4)
	g.CreateEdge(top, middle, nil)

	for _, ctx := range []uint{1, 2} {
		if !g.Contexts(top).Test(ctx) {
			t.Fatalf("context %v must be reachable from the top", ctx)
		}
	}
	if g.Contexts(top).Test(3) {
		t.Fatalf("context 3 is not reachable from the top")
	}
	if g.Contexts(bottom).Test(1) {
		t.Fatalf("contexts must not propagate upward")
	}
}

func TestCleanup(t *testing.T) {
	f := newLabelFactory()
	g := New()
	g.CreateGeneration()
	bottom := g.CreateNode(0, nil, 1)

	head := bottom
	var d1, d2 int
	for gen := 1; gen <= 16; gen++ {
		g.CreateGeneration()
		n := g.CreateNode(gen, nil, 1)
		g.CreateEdge(n, head, f.label(fmt.Sprintf("h%v", gen)))
		head = n

		// A branch that dies: d2 -> d1 -> bottom
		switch gen {
		case 1:
			d1 = g.CreateNode(100, nil, 1)
			g.CreateEdge(d1, bottom, f.label("d1"))
		case 2:
			d2 = g.CreateNode(101, nil, 1)
			g.CreateEdge(d2, d1, f.label("d2"))
		}
	}
	if g.Incoming(bottom) != 2 {
		t.Fatalf("unexpected incoming count; want: 2, got: %v", g.Incoming(bottom))
	}
	checkIncomings(t, g)

	// Opening generation 17 sweeps generations 0 to 15.
	if gen := g.CreateGeneration(); gen != 17 {
		t.Fatalf("unexpected generation; want: 17, got: %v", gen)
	}
	for _, name := range []string{"d1", "d2"} {
		if f.frees[name] != 1 {
			t.Fatalf("label %v must be freed exactly once; got: %v", name, f.frees[name])
		}
	}
	for gen := 1; gen <= 16; gen++ {
		name := fmt.Sprintf("h%v", gen)
		if f.frees[name] != 0 {
			t.Fatalf("a reachable label %v must not be freed", name)
		}
	}
	if g.Incoming(d1) != 0 || g.Incoming(bottom) != 1 {
		t.Fatalf("unexpected incoming counts; d1: %v, bottom: %v", g.Incoming(d1), g.Incoming(bottom))
	}
	checkIncomings(t, g)

	// The stack from the head reaches the bottom only through the main chain.
	ps := g.GetPaths(head, 16)
	if ps.Count != 1 || ps.Content[0].Last != bottom {
		t.Fatalf("unexpected paths from the head: %v", pathStrings(ps))
	}
	for _, l := range ps.Content[0].Labels {
		if strings.HasPrefix(l.(*testLabel).name, "d") {
			t.Fatalf("a path must not go through a reclaimed edge")
		}
	}
	if ps := g.GetPaths(d2, 1); ps.Count != 0 {
		t.Fatalf("a reclaimed edge must not be enumerated")
	}

	// Later sweeps never free a label again.
	for gen := 18; gen <= 40; gen++ {
		g.CreateGeneration()
		n := g.CreateNode(gen, nil, 1)
		g.CreateEdge(n, head, f.label(fmt.Sprintf("h%v", gen)))
		head = n
	}
	for name, c := range f.frees {
		if c != 1 {
			t.Fatalf("label %v is freed %v times", name, c)
		}
	}
	checkIncomings(t, g)
}
