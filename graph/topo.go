package graph

import "errors"

// ErrCycle is the error returned by EachTopological and FoldTopological
// when the graph contains a cycle.
var ErrCycle = errors.New("graph contains a cycle")

// EachTopological calls f on each vertex of g in topological order:
// every vertex is visited before any of its parents.
// Vertices not ordered relative to each other by the edges of g
// are visited according to less,
// which makes the traversal deterministic
// when less is a strict total order on vertices.
// A nil less breaks ties in an unspecified
// (but still deterministic)
// order.
// If f returns an error,
// EachTopological exits with that error.
// If g contains a cycle,
// EachTopological returns ErrCycle.
func (g *Graph[V, K]) EachTopological(less func(V, V) bool, f func(V) error) error {
	indegree := make(map[K]int, len(g.vertices))
	for e := range g.edges {
		indegree[e.to]++
	}

	var ready []K
	for _, k := range g.order {
		if indegree[k] == 0 {
			ready = append(ready, k)
		}
	}

	for visited := 0; visited < len(g.order); visited++ {
		if len(ready) == 0 {
			return ErrCycle
		}

		best := 0
		if less != nil {
			for i := 1; i < len(ready); i++ {
				if less(g.vertices[ready[i]], g.vertices[ready[best]]) {
					best = i
				}
			}
		}
		k := ready[best]
		ready = append(ready[:best], ready[best+1:]...)

		if err := f(g.vertices[k]); err != nil {
			return err
		}

		for _, pk := range g.parents[k] {
			indegree[pk]--
			if indegree[pk] == 0 {
				ready = append(ready, pk)
			}
		}
	}

	return nil
}

// FoldTopological folds f over the vertices of g in topological order
// (see EachTopological),
// threading an accumulator from init through each call.
// It returns the final accumulator value.
// If f returns an error,
// the fold stops and returns that error
// along with the accumulator value so far.
func FoldTopological[V any, K comparable, A any](g *Graph[V, K], less func(V, V) bool, init A, f func(A, V) (A, error)) (A, error) {
	acc := init
	err := g.EachTopological(less, func(v V) error {
		var ferr error
		acc, ferr = f(acc, v)
		return ferr
	})
	return acc, err
}
