package schema

import "sort"

// Edge is a resolved relation edge as seen from one entity field.
type Edge struct {
	// Target is the entity the field points to.
	Target string
	// Cardinality of the edge as seen from this side.
	Cardinality Cardinality
}

// Graph is the complete, immutable relation graph of a schema: for every
// entity it maps each relation field name to the target entity and the
// edge cardinality, covering both forward and mirror edges. A Graph is
// built once and is safe for concurrent readers.
type Graph struct {
	schema *Schema
	edges  map[string]map[string]Edge
}

// NewGraph builds the relation graph for a schema.
func NewGraph(s *Schema) *Graph {
	g := &Graph{
		schema: s,
		edges:  make(map[string]map[string]Edge, len(s.Entities)),
	}
	for _, e := range s.Entities {
		fields := make(map[string]Edge, len(e.Relations))
		for _, r := range e.Relations {
			fields[r.Name] = Edge{Target: r.Target, Cardinality: r.Cardinality}
		}
		g.edges[e.Name] = fields
	}
	return g
}

// Entity returns the entity with the given name.
func (g *Graph) Entity(name string) (*Entity, bool) {
	return g.schema.Entity(name)
}

// Entities returns all entities, sorted by name.
func (g *Graph) Entities() []*Entity {
	return g.schema.Entities
}

// Edge returns the edge reachable from the given entity field.
func (g *Graph) Edge(entity, field string) (Edge, bool) {
	e, ok := g.edges[entity][field]
	return e, ok
}

// RelationFields returns the relation field names of an entity, sorted.
func (g *Graph) RelationFields(entity string) []string {
	fields := g.edges[entity]
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
