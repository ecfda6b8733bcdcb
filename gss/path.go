package gss

// Path is a sequence of edges from a node down to Last. Labels[i] is the label of the i-th edge from the
// starting node.
type Path struct {
	Last       int
	Generation int
	Labels     []Label
}

func (p *Path) ensure(length int) {
	if cap(p.Labels) < length {
		p.Labels = make([]Label, length)
	}
	p.Labels = p.Labels[:length]
}

// PathSet holds the result of a path enumeration. Content[:Count] are the paths. A GSS reuses one PathSet
// for all enumerations, so a caller must consume the paths before enumerating paths again.
type PathSet struct {
	Content []*Path
	Count   int
}

func (g *GSS) setupPath(index int, last int, length int) {
	if index >= len(g.paths.Content) {
		g.paths.Content = append(g.paths.Content, make([]*Path, initialPathCount)...)
	}
	p := g.paths.Content[index]
	if p == nil {
		p = &Path{}
		g.paths.Content[index] = p
	}
	p.ensure(length)
	p.Last = last
	p.Generation = g.nodeGens[last]
}

// GetPaths enumerates all paths of `length` edges starting at `from`. A branch ending before `length` edges
// is not a path and is dropped. When length is 0, the set consists of one path ending at `from`.
func (g *GSS) GetPaths(from int, length int) *PathSet {
	if length == 0 {
		g.setupPath(0, from, 0)
		g.paths.Count = 1
		return g.paths
	}

	g.setupPath(0, from, length)
	paths := g.paths
	total := 1
	for i := 0; i < length; i++ {
		// m is the insertion position of the compaction, and next is the insertion position of cloned paths.
		m := 0
		next := total
		for p := 0; p < total; p++ {
			last := paths.Content[p].Last
			gen := g.edgeGenerations[paths.Content[p].Generation]
			firstTo := -1
			var firstLabel Label
			for e := gen.Start; e < gen.Start+gen.Count; e++ {
				edge := g.edges[e]
				if edge.From != last || edge.Dead {
					continue
				}
				if firstTo == -1 {
					firstTo = edge.To
					firstLabel = edge.Label
					continue
				}
				g.setupPath(next, edge.To, length)
				// setupPath may have grown the buffer.
				paths = g.paths
				copy(paths.Content[next].Labels[:i], paths.Content[p].Labels[:i])
				paths.Content[next].Labels[i] = edge.Label
				next++
			}

			if firstTo == -1 {
				continue
			}
			if m != p {
				paths.Content[m], paths.Content[p] = paths.Content[p], paths.Content[m]
			}
			paths.Content[m].Last = firstTo
			paths.Content[m].Generation = g.nodeGens[firstTo]
			paths.Content[m].Labels[i] = firstLabel
			m++
		}

		if m != total {
			// Some paths ended. Move the cloned paths next to the surviving ones.
			for p := total; p < next; p++ {
				paths.Content[m], paths.Content[p] = paths.Content[p], paths.Content[m]
				m++
			}
			total = m
		} else {
			total = next
		}
	}
	paths.Count = total
	return paths
}
