// Package graph implements directed graphs over arbitrary vertex types.
package graph

// A Graph is a directed graph.
// V is the vertex type.
// Each vertex is identified by a key of comparable type K,
// computed by the key function given to New.
// Two vertices are the same vertex exactly when their keys are equal.
//
// An edge points from a vertex to one of its "parents."
// Duplicate edges collapse:
// adding an edge that is already present has no effect.
//
// The zero value of Graph is not usable; call New.
// A Graph is not safe for concurrent use.
type Graph[V any, K comparable] struct {
	key      func(V) K
	vertices map[K]V
	order    []K
	parents  map[K][]K
	edges    map[edge[K]]struct{}
}

type edge[K comparable] struct {
	from, to K
}

// New produces a new empty Graph
// whose vertices are identified by the given key function.
func New[V any, K comparable](key func(V) K) *Graph[V, K] {
	return &Graph[V, K]{
		key:      key,
		vertices: make(map[K]V),
		parents:  make(map[K][]K),
		edges:    make(map[edge[K]]struct{}),
	}
}

// Add adds v to g.
// It returns true if v was newly added,
// false if a vertex with v's key was already present.
func (g *Graph[V, K]) Add(v V) bool {
	k := g.key(v)
	if _, ok := g.vertices[k]; ok {
		return false
	}
	g.vertices[k] = v
	g.order = append(g.order, k)
	return true
}

// AddEdge adds an edge from a vertex to one of its parents,
// first adding either vertex if not already present.
// It returns true if the edge was newly added,
// false if it was already present.
func (g *Graph[V, K]) AddEdge(from, to V) bool {
	g.Add(from)
	g.Add(to)

	var (
		fk = g.key(from)
		tk = g.key(to)
		e  = edge[K]{from: fk, to: tk}
	)
	if _, ok := g.edges[e]; ok {
		return false
	}
	g.edges[e] = struct{}{}
	g.parents[fk] = append(g.parents[fk], tk)
	return true
}

// Len is the number of vertices in g.
func (g *Graph[V, K]) Len() int {
	return len(g.vertices)
}

// NumEdges is the number of edges in g.
func (g *Graph[V, K]) NumEdges() int {
	return len(g.edges)
}

// Contains tells whether g contains a vertex with v's key.
func (g *Graph[V, K]) Contains(v V) bool {
	return g.ContainsKey(g.key(v))
}

// ContainsKey tells whether g contains a vertex with the given key.
func (g *Graph[V, K]) ContainsKey(k K) bool {
	_, ok := g.vertices[k]
	return ok
}

// ByKey returns the vertex with the given key,
// and a boolean telling whether it is present.
func (g *Graph[V, K]) ByKey(k K) (V, bool) {
	v, ok := g.vertices[k]
	return v, ok
}

// Parents returns the parents of v,
// in the order their edges were added.
// It is nil if v is not in g or has no parents.
func (g *Graph[V, K]) Parents(v V) []V {
	pks := g.parents[g.key(v)]
	if len(pks) == 0 {
		return nil
	}
	out := make([]V, 0, len(pks))
	for _, pk := range pks {
		out = append(out, g.vertices[pk])
	}
	return out
}

// Vertices returns the vertices of g in the order they were added.
func (g *Graph[V, K]) Vertices() []V {
	out := make([]V, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.vertices[k])
	}
	return out
}

// Each calls f on each vertex of g in the order they were added.
// If f returns an error,
// Each exits with that error.
func (g *Graph[V, K]) Each(f func(V) error) error {
	for _, k := range g.order {
		if err := f(g.vertices[k]); err != nil {
			return err
		}
	}
	return nil
}
