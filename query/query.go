// Package query compiles declarative expand specs into nested query shapes
// validated against the relation graph, and normalizes the heterogeneous
// relation encodings found in query responses into one canonical form.
package query

import (
	"sort"
	"strings"

	"github.com/syssam/instant"
	"github.com/syssam/instant/schema"
)

// Shape is the nested wire representation of a query: entity name to node,
// where a node maps "$" to query options and relation field names to child
// shapes.
type Shape map[string]any

// Spec describes which related entities to include in a query result,
// either as an ordered list of dotted paths or as a nested map.
type Spec interface {
	expand(g *schema.Graph, entity string, node map[string]any) error
}

// Paths is the dotted-path form of an expand spec, e.g.
// Paths{"comments.author", "tags"}. Paths sharing a prefix merge into one
// shared subtree.
type Paths []string

// Nested is the nested-map form of an expand spec. An empty map value is a
// leaf.
type Nested map[string]Nested

// Build compiles a query shape for the root entity. The root must be a
// known entity of the graph. The where filter, if non-nil, is attached
// verbatim under the "$" node; it is an opaque equality map, not
// interpreted here. The expand spec, if non-nil, is validated against the
// relation graph before any node is visible to the caller: a validation
// failure aborts compilation atomically and no partial shape is returned.
func Build(g *schema.Graph, root string, where map[string]any, spec Spec) (Shape, error) {
	if _, ok := g.Entity(root); !ok {
		return nil, instant.NewSchemaError(root, "", "unknown entity")
	}
	node := make(map[string]any)
	if where != nil {
		node["$"] = map[string]any{"where": where}
	}
	if spec != nil {
		if err := spec.expand(g, root, node); err != nil {
			return nil, err
		}
	}
	return Shape{root: node}, nil
}

func (p Paths) expand(g *schema.Graph, entity string, node map[string]any) error {
	// Validate every path before mutating the shared node so a failure in a
	// later path cannot leave earlier ones applied.
	for _, path := range p {
		if err := validatePath(g, entity, path); err != nil {
			return err
		}
	}
	for _, path := range p {
		if path == "" {
			continue
		}
		current := node
		for _, seg := range strings.Split(path, ".") {
			current = childNode(current, seg)
		}
	}
	return nil
}

func validatePath(g *schema.Graph, entity, path string) error {
	if path == "" {
		return nil
	}
	segments := strings.Split(path, ".")
	edge, ok := g.Edge(entity, segments[0])
	if !ok {
		return instant.NewIllegalExpandKeyError(entity, segments[0])
	}
	current := edge.Target
	for _, seg := range segments[1:] {
		edge, ok = g.Edge(current, seg)
		if !ok {
			return instant.NewIllegalNestedExpandError(path, seg, current)
		}
		current = edge.Target
	}
	return nil
}

func (n Nested) expand(g *schema.Graph, entity string, node map[string]any) error {
	if err := n.validate(g, entity); err != nil {
		return err
	}
	n.apply(node)
	return nil
}

func (n Nested) validate(g *schema.Graph, entity string) error {
	for _, key := range n.keys() {
		edge, ok := g.Edge(entity, key)
		if !ok {
			return instant.NewIllegalExpandKeyError(entity, key)
		}
		if child := n[key]; len(child) > 0 {
			if err := child.validate(g, edge.Target); err != nil {
				return err
			}
		}
	}
	return nil
}

func (n Nested) apply(node map[string]any) {
	for _, key := range n.keys() {
		child := childNode(node, key)
		if sub := n[key]; len(sub) > 0 {
			sub.apply(child)
		}
	}
}

func (n Nested) keys() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// childNode returns node[key] as a child node, creating it when absent so
// shared prefixes merge into a single subtree.
func childNode(node map[string]any, key string) map[string]any {
	if child, ok := node[key].(map[string]any); ok {
		return child
	}
	child := make(map[string]any)
	node[key] = child
	return child
}
