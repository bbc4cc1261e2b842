package seeder

import (
	"sort"

	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/schema"
)

// InsertionOrder is the result of ordering a schema's tables.
type InsertionOrder struct {
	// Tables lists node indexes; every hard-edge parent precedes its child.
	Tables []int
	// Levels groups Tables into ready frontiers: a table is in level k when
	// all its hard parents are in levels below k. Tables of one level can be
	// generated concurrently.
	Levels [][]int
	// Deferred lists the soft edges, filled by the patch pass.
	Deferred []schema.Edge
}

// Names returns the table names of the linear order.
func (o *InsertionOrder) Names(g *schema.Graph) []string {
	names := make([]string, len(o.Tables))
	for i, n := range o.Tables {
		names[i] = g.Name(n)
	}
	return names
}

// LevelNames returns the table names of each level.
func (o *InsertionOrder) LevelNames(g *schema.Graph) [][]string {
	out := make([][]string, len(o.Levels))
	for i, level := range o.Levels {
		for _, n := range level {
			out[i] = append(out[i], g.Name(n))
		}
	}
	return out
}

// DependencyGraph orders tables for insertion over a schema graph.
type DependencyGraph struct {
	graph *schema.Graph
	order *InsertionOrder
}

func NewDependencyGraph(g *schema.Graph) *DependencyGraph {
	return &DependencyGraph{graph: g}
}

// BuildInsertionOrder rejects cycles of NOT NULL foreign keys and otherwise
// eliminates ready tables frontier by frontier. Only hard edges constrain the
// order; within a frontier tables keep their declaration order.
func (d *DependencyGraph) BuildInsertionOrder() (*InsertionOrder, error) {
	g := d.graph
	if cyclic := hardCycles(g); len(cyclic) > 0 {
		return nil, errors.WithHint(
			errors.WithStack(&errors.CycleError{Tables: cyclic}),
			"make one of the foreign key columns nullable so it can be filled after insertion")
	}

	order := &InsertionOrder{}
	pending := make([]int, g.Len())
	for _, e := range g.Edges {
		switch {
		case !e.Hard:
			order.Deferred = append(order.Deferred, e)
		case !e.SelfLoop():
			pending[e.Child]++
		}
	}

	var frontier []int
	for n := 0; n < g.Len(); n++ {
		if pending[n] == 0 {
			frontier = append(frontier, n)
		}
	}
	for len(frontier) > 0 {
		order.Levels = append(order.Levels, frontier)
		order.Tables = append(order.Tables, frontier...)
		var next []int
		for _, n := range frontier {
			for _, e := range g.In(n) {
				if !e.Hard || e.SelfLoop() {
					continue
				}
				pending[e.Child]--
				if pending[e.Child] == 0 {
					next = append(next, e.Child)
				}
			}
		}
		sort.Ints(next)
		frontier = next
	}

	d.order = order
	return order, nil
}

func (d *DependencyGraph) GetOrder() *InsertionOrder {
	return d.order
}

// hardCycles returns, sorted by name, every table on a cycle of hard edges:
// members of strongly connected components with more than one table, and
// tables with a NOT NULL reference to themselves.
func hardCycles(g *schema.Graph) []string {
	var names []string
	for _, scc := range tarjan(g) {
		if len(scc) > 1 {
			for _, n := range scc {
				names = append(names, g.Name(n))
			}
		}
	}
	for _, e := range g.Edges {
		if e.Hard && e.SelfLoop() {
			names = append(names, g.Name(e.Child))
		}
	}
	sort.Strings(names)
	return dedupeSorted(names)
}

// tarjan finds the strongly connected components of the hard-edge subgraph.
func tarjan(g *schema.Graph) [][]int {
	var (
		index   = 0
		indices = make([]int, g.Len())
		lowlink = make([]int, g.Len())
		onStack = make([]bool, g.Len())
		stack   []int
		sccs    [][]int
	)
	for i := range indices {
		indices[i] = -1
	}

	var connect func(v int)
	connect = func(v int) {
		indices[v], lowlink[v] = index, index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, e := range g.Out(v) {
			if !e.Hard || e.SelfLoop() {
				continue
			}
			w := e.Parent
			if indices[w] < 0 {
				connect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := 0; v < g.Len(); v++ {
		if indices[v] < 0 {
			connect(v)
		}
	}
	return sccs
}

func dedupeSorted(names []string) []string {
	out := names[:0]
	for i, n := range names {
		if i == 0 || n != names[i-1] {
			out = append(out, n)
		}
	}
	return out
}
