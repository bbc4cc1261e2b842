package schema

// Edge is one foreign key as a graph edge, directed child -> parent.
type Edge struct {
	ID     int
	Child  int
	Parent int
	// FK indexes the child table's ForeignKeys.
	FK   int
	Hard bool
}

// SelfLoop reports whether the edge references its own table.
func (e Edge) SelfLoop() bool {
	return e.Child == e.Parent
}

// Graph is the table-level dependency graph. Nodes are table indexes into
// Schema.Tables; adjacency lists hold edge ids, so no node points at another.
type Graph struct {
	Schema *Schema
	Edges  []Edge
	out    [][]int
	in     [][]int
	index  map[string]int
}

// BuildGraph derives the graph from a validated schema.
func BuildGraph(s *Schema) *Graph {
	g := &Graph{
		Schema: s,
		out:    make([][]int, len(s.Tables)),
		in:     make([][]int, len(s.Tables)),
		index:  make(map[string]int, len(s.Tables)),
	}
	for i, t := range s.Tables {
		g.index[t.Name] = i
	}
	for child := range s.Tables {
		t := &s.Tables[child]
		for k := range t.ForeignKeys {
			fk := &t.ForeignKeys[k]
			parent, ok := g.index[fk.RefTable]
			if !ok {
				continue
			}
			e := Edge{ID: len(g.Edges), Child: child, Parent: parent, FK: k, Hard: t.IsHard(fk)}
			g.Edges = append(g.Edges, e)
			g.out[child] = append(g.out[child], e.ID)
			g.in[parent] = append(g.in[parent], e.ID)
		}
	}
	return g
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.Schema.Tables) }

// Name returns the table name of a node.
func (g *Graph) Name(node int) string { return g.Schema.Tables[node].Name }

// Table returns the table of a node.
func (g *Graph) Table(node int) *Table { return &g.Schema.Tables[node] }

// Index looks a node up by table name.
func (g *Graph) Index(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Out returns the edges leaving a node (its foreign keys).
func (g *Graph) Out(node int) []Edge {
	return g.collect(g.out[node])
}

// In returns the edges entering a node (foreign keys referencing it).
func (g *Graph) In(node int) []Edge {
	return g.collect(g.in[node])
}

// HardParents returns the distinct parents reached through hard edges,
// excluding the node itself, in edge order.
func (g *Graph) HardParents(node int) []int {
	var parents []int
	seen := make(map[int]bool)
	for _, id := range g.out[node] {
		e := g.Edges[id]
		if e.Hard && !e.SelfLoop() && !seen[e.Parent] {
			seen[e.Parent] = true
			parents = append(parents, e.Parent)
		}
	}
	return parents
}

// EdgeFor returns the edge of a child table's foreign key.
func (g *Graph) EdgeFor(child, fk int) (Edge, bool) {
	for _, id := range g.out[child] {
		if g.Edges[id].FK == fk {
			return g.Edges[id], true
		}
	}
	return Edge{}, false
}

func (g *Graph) collect(ids []int) []Edge {
	edges := make([]Edge, len(ids))
	for i, id := range ids {
		edges[i] = g.Edges[id]
	}
	return edges
}
