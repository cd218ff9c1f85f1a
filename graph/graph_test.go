package graph_test

import (
	"errors"
	"sort"
	"testing"
	"testing/quick"

	"github.com/google/go-cmp/cmp"

	"github.com/bobg/rs/graph"
)

func newStringGraph() *graph.Graph[string, string] {
	return graph.New(func(s string) string { return s })
}

func TestAdd(t *testing.T) {
	g := newStringGraph()
	if !g.Add("a") {
		t.Error("first Add reported not added")
	}
	if g.Add("a") {
		t.Error("second Add reported added")
	}
	if g.Len() != 1 {
		t.Errorf("got %d vertices, want 1", g.Len())
	}
	if !g.Contains("a") {
		t.Error("graph does not contain a")
	}
	if g.Contains("b") {
		t.Error("graph contains b")
	}
}

func TestAddEdge(t *testing.T) {
	g := newStringGraph()
	if !g.AddEdge("b", "a") {
		t.Error("first AddEdge reported not added")
	}
	if !g.Contains("a") || !g.Contains("b") {
		t.Error("AddEdge did not add endpoints")
	}
	if g.AddEdge("b", "a") {
		t.Error("duplicate AddEdge reported added")
	}
	if g.Len() != 2 {
		t.Errorf("got %d vertices, want 2", g.Len())
	}
	if g.NumEdges() != 1 {
		t.Errorf("got %d edges, want 1", g.NumEdges())
	}
}

func TestParentsOrder(t *testing.T) {
	g := newStringGraph()
	g.AddEdge("m", "p3")
	g.AddEdge("m", "p1")
	g.AddEdge("m", "p2")

	got := g.Parents("m")
	want := []string{"p3", "p1", "p2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if p := g.Parents("p1"); p != nil {
		t.Errorf("got parents %v for p1, want none", p)
	}
}

func diamond() *graph.Graph[string, string] {
	g := newStringGraph()
	g.AddEdge("d", "b")
	g.AddEdge("d", "c")
	g.AddEdge("b", "a")
	g.AddEdge("c", "a")
	return g
}

func TestAncestors(t *testing.T) {
	g := diamond()

	cases := []struct {
		name string
		of   []string
		want []string
	}{
		{name: "apex", of: []string{"d"}, want: []string{"a", "b", "c"}},
		{name: "base", of: []string{"a"}, want: nil},
		{name: "proper", of: []string{"b", "a"}, want: []string{"a"}},
		{name: "absent", of: []string{"zz"}, want: nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			anc := g.Ancestors(c.of...)
			var got []string
			for k := range anc {
				got = append(got, k)
			}
			sort.Strings(got)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCut(t *testing.T) {
	cases := []struct {
		name      string
		vertices  []string
		edges     [][2]string
		max       []string
		roots     []string
		want      []string
		wantEdges int
	}{
		{
			name:     "single vertex",
			vertices: []string{"a"},
			max:      []string{"a"},
			want:     []string{"a"},
		},
		{
			name:      "linear chain",
			edges:     [][2]string{{"c", "b"}, {"b", "a"}},
			max:       []string{"c"},
			want:      []string{"a", "b", "c"},
			wantEdges: 2,
		},
		{
			name:      "diamond",
			edges:     [][2]string{{"d", "b"}, {"d", "c"}, {"b", "a"}, {"c", "a"}},
			max:       []string{"d"},
			want:      []string{"a", "b", "c", "d"},
			wantEdges: 4,
		},
		{
			name:      "chain with root",
			edges:     [][2]string{{"c", "b"}, {"b", "a"}},
			max:       []string{"c"},
			roots:     []string{"b"},
			want:      []string{"b", "c"},
			wantEdges: 1,
		},
		{
			name:  "max is root",
			edges: [][2]string{{"b", "a"}},
			max:   []string{"b"},
			roots: []string{"b"},
			want:  []string{"b"},
		},
		{
			name:  "empty max",
			edges: [][2]string{{"b", "a"}},
		},
		{
			name:  "unknown max ignored",
			edges: [][2]string{{"b", "a"}},
			max:   []string{"zz"},
		},
		{
			name:      "two maxes shared ancestor",
			edges:     [][2]string{{"b", "a"}, {"c", "a"}},
			max:       []string{"b", "c"},
			want:      []string{"a", "b", "c"},
			wantEdges: 2,
		},
		{
			name:      "duplicate max",
			edges:     [][2]string{{"b", "a"}},
			max:       []string{"b", "b"},
			want:      []string{"a", "b"},
			wantEdges: 1,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := newStringGraph()
			for _, v := range c.vertices {
				g.Add(v)
			}
			for _, e := range c.edges {
				g.AddEdge(e[0], e[1])
			}

			cut := g.Cut(c.max, c.roots)

			var got []string
			cut.Each(func(v string) error {
				got = append(got, v)
				return nil
			})
			sort.Strings(got)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("vertex mismatch (-want +got):\n%s", diff)
			}
			if cut.NumEdges() != c.wantEdges {
				t.Errorf("got %d edges, want %d", cut.NumEdges(), c.wantEdges)
			}
		})
	}
}

func TestCutRootEdges(t *testing.T) {
	g := newStringGraph()
	g.AddEdge("c", "b")
	g.AddEdge("b", "a")

	cut := g.Cut([]string{"c"}, []string{"b"})

	if diff := cmp.Diff([]string{"b"}, cut.Parents("c")); diff != "" {
		t.Errorf("parents of c mismatch (-want +got):\n%s", diff)
	}
	if p := cut.Parents("b"); p != nil {
		t.Errorf("got parents %v for boundary vertex b, want none", p)
	}
}

func TestEachTopological(t *testing.T) {
	less := func(x, y string) bool { return x < y }

	t.Run("chain", func(t *testing.T) {
		g := newStringGraph()
		g.AddEdge("c", "b")
		g.AddEdge("b", "a")

		var got []string
		err := g.EachTopological(less, func(v string) error {
			got = append(got, v)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"c", "b", "a"}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ties broken by less", func(t *testing.T) {
		g := newStringGraph()
		g.AddEdge("b", "a")
		g.AddEdge("d", "c")

		var got []string
		err := g.EachTopological(less, func(v string) error {
			got = append(got, v)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"b", "a", "d", "c"}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		g := newStringGraph()
		g.AddEdge("a", "b")
		g.AddEdge("b", "a")

		err := g.EachTopological(less, func(string) error { return nil })
		if !errors.Is(err, graph.ErrCycle) {
			t.Errorf("got error %v, want %v", err, graph.ErrCycle)
		}
	})

	t.Run("callback error", func(t *testing.T) {
		g := newStringGraph()
		g.AddEdge("b", "a")

		errStop := errors.New("stop")
		var calls int
		err := g.EachTopological(less, func(string) error {
			calls++
			return errStop
		})
		if !errors.Is(err, errStop) {
			t.Errorf("got error %v, want %v", err, errStop)
		}
		if calls != 1 {
			t.Errorf("got %d calls, want 1", calls)
		}
	})
}

func TestFoldTopological(t *testing.T) {
	g := newStringGraph()
	g.AddEdge("c", "b")
	g.AddEdge("b", "a")

	got, err := graph.FoldTopological(g, func(x, y string) bool { return x < y }, "", func(acc string, v string) (string, error) {
		return acc + v, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "cba" {
		t.Errorf("got %q, want %q", got, "cba")
	}
}

func TestTopologicalProperty(t *testing.T) {
	f := func(pairs [][2]uint8) bool {
		g := graph.New(func(i int) int { return i })
		for _, p := range pairs {
			a, b := int(p[0]), int(p[1])
			if a == b {
				continue
			}
			if a < b {
				a, b = b, a
			}
			// Edges always point from the larger vertex to the smaller,
			// so the graph is acyclic by construction.
			g.AddEdge(a, b)
		}

		var (
			pos = make(map[int]int)
			i   int
		)
		err := g.EachTopological(func(x, y int) bool { return x < y }, func(v int) error {
			pos[v] = i
			i++
			return nil
		})
		if err != nil {
			t.Log(err)
			return false
		}
		if len(pos) != g.Len() {
			t.Logf("visited %d vertices, want %d", len(pos), g.Len())
			return false
		}

		ok := true
		g.Each(func(v int) error {
			for _, p := range g.Parents(v) {
				if pos[v] >= pos[p] {
					ok = false
				}
			}
			return nil
		})
		return ok
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}
