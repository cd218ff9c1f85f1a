package graph

// Ancestors returns the proper ancestors of the given vertices:
// every vertex reachable from a member of `of`
// by following one or more parent edges.
// A member of `of` appears in the result
// only if it is also an ancestor of another member.
// Members not present in g are ignored.
// The result maps vertex keys to vertices.
func (g *Graph[V, K]) Ancestors(of ...V) map[K]V {
	var (
		res   = make(map[K]V)
		queue []K
	)

	for _, v := range of {
		k := g.key(v)
		if _, ok := g.vertices[k]; !ok {
			continue
		}
		queue = append(queue, g.parents[k]...)
	}

	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if _, ok := res[k]; ok {
			continue
		}
		res[k] = g.vertices[k]
		queue = append(queue, g.parents[k]...)
	}

	return res
}

// Cut returns the region of g reachable from the vertices in max,
// bounded by the vertices in roots.
// A vertex in roots is included in the result when reached,
// but its parent edges are not followed.
// A nil or empty roots means the region is unbounded:
// the result is the full ancestor closure of max.
// Vertices in max or roots that are not in g are ignored.
//
// Each vertex in the region appears in the result exactly once,
// no matter how many paths lead to it,
// and every parent edge between two included vertices is preserved,
// except the outgoing edges of roots vertices.
func (g *Graph[V, K]) Cut(max, roots []V) *Graph[V, K] {
	var (
		res      = New(g.key)
		rootKeys = make(map[K]bool)
		seen     = make(map[K]bool)
		queue    []K
	)

	for _, r := range roots {
		rootKeys[g.key(r)] = true
	}

	for _, m := range max {
		k := g.key(m)
		if _, ok := g.vertices[k]; !ok {
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		queue = append(queue, k)
	}

	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]

		v := g.vertices[k]
		res.Add(v)

		if rootKeys[k] {
			continue
		}

		for _, pk := range g.parents[k] {
			res.AddEdge(v, g.vertices[pk])
			if !seen[pk] {
				seen[pk] = true
				queue = append(queue, pk)
			}
		}
	}

	return res
}
