package forms

// Graph indexes the blocks of a single analysis response. It is built once
// with NewGraph and never modified afterwards, so it can be shared between
// goroutines.
type Graph struct {
	all    map[string]Block
	keys   []string
	values map[string]Block
}

// NewGraph partitions blocks into key, value and lookup indices.
//
// A KEY_VALUE_SET block goes to the key partition iff its entity types contain
// KEY, otherwise to the value partition. Every block, whatever its type, is
// reachable through Lookup. If an id repeats, the later block wins but keeps
// the position of the first occurrence.
func NewGraph(blocks []Block) *Graph {
	g := &Graph{
		all:    make(map[string]Block, len(blocks)),
		values: make(map[string]Block),
	}

	order := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if _, ok := g.all[b.ID]; !ok {
			order = append(order, b.ID)
		}
		g.all[b.ID] = b
	}

	for _, id := range order {
		b := g.all[id]
		if !b.IsKeyValueSet() {
			continue
		}
		if b.Role() == RoleKey {
			g.keys = append(g.keys, id)
		} else {
			g.values[id] = b
		}
	}

	return g
}

// Keys returns the KEY-role blocks in the order they appeared in the response.
func (g *Graph) Keys() []Block {
	out := make([]Block, 0, len(g.keys))
	for _, id := range g.keys {
		out = append(out, g.all[id])
	}
	return out
}

// Values returns the VALUE-role blocks. Order is unspecified.
func (g *Graph) Values() []Block {
	out := make([]Block, 0, len(g.values))
	for _, b := range g.values {
		out = append(out, b)
	}
	return out
}

// Lookup returns any block by id.
func (g *Graph) Lookup(id string) (Block, bool) {
	b, ok := g.all[id]
	return b, ok
}

// LookupValue returns a VALUE-role block by id.
func (g *Graph) LookupValue(id string) (Block, bool) {
	b, ok := g.values[id]
	return b, ok
}

// Len returns the number of distinct blocks in the graph.
func (g *Graph) Len() int {
	return len(g.all)
}

// KeyCount returns the number of KEY-role blocks.
func (g *Graph) KeyCount() int {
	return len(g.keys)
}

// ValueCount returns the number of VALUE-role blocks.
func (g *Graph) ValueCount() int {
	return len(g.values)
}
