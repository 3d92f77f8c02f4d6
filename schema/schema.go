// Package schema models the entity and relation structure of an InstantDB
// application. It parses the raw schema returned by the admin API into
// normalized Entity and Relation records and builds the immutable relation
// Graph shared by the query compiler, the response normalizer and the
// client generator.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Type is the semantic type of an attribute.
type Type int

// Semantic attribute types. Attributes whose declared and inferred types
// cannot be resolved are kept as TypeUntyped rather than dropped.
const (
	TypeUntyped Type = iota
	TypeString
	TypeNumber
	TypeInt
	TypeBool
	TypeTime
	TypeJSON
)

var typeNames = [...]string{
	TypeUntyped: "untyped",
	TypeString:  "string",
	TypeNumber:  "number",
	TypeInt:     "int",
	TypeBool:    "bool",
	TypeTime:    "time",
	TypeJSON:    "json",
}

// String returns the name of the type.
func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Cardinality is the declared cardinality of a relation edge.
type Cardinality int

// Relation cardinalities.
const (
	One Cardinality = iota + 1
	Many
)

// String returns the wire name of the cardinality.
func (c Cardinality) String() string {
	switch c {
	case One:
		return "one"
	case Many:
		return "many"
	default:
		return fmt.Sprintf("Cardinality(%d)", int(c))
	}
}

// Attribute is a primitive (non-relation) field of an entity.
type Attribute struct {
	// Name is the field name on the wire.
	Name string
	// Type holds the resolved semantic type.
	Type Type
	// Required indicates the attribute must be present on create.
	Required bool
}

// Relation is one end of a directional edge between two entities. The
// forward end lives on the declaring entity; the mirror end is installed on
// the target entity with Inverse set.
type Relation struct {
	// Name is the relation field name on this entity.
	Name string
	// Target is the entity this edge points to.
	Target string
	// Cardinality of the edge as seen from this side.
	Cardinality Cardinality
	// Required indicates the forward edge must be present on create.
	// Mirror edges are never required.
	Required bool
	// Inverse marks the mirror end of a declared edge.
	Inverse bool
}

// Entity is a named record type with attributes and relation ends. Field
// names are unique across both sets; a later duplicate is skipped during
// parsing rather than overriding an earlier field.
type Entity struct {
	// Name is the collection name on the wire (e.g. "posts", "$users").
	Name string
	// Attributes holds the primitive fields, sorted by name.
	Attributes []*Attribute
	// Relations holds the relation ends in declaration order.
	Relations []*Relation
}

// Attribute returns the attribute with the given name.
func (e *Entity) Attribute(name string) (*Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Relation returns the relation end with the given field name.
func (e *Entity) Relation(name string) (*Relation, bool) {
	for _, r := range e.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

func (e *Entity) hasField(name string) bool {
	if _, ok := e.Attribute(name); ok {
		return true
	}
	_, ok := e.Relation(name)
	return ok
}

// Schema is a normalized snapshot of the application schema.
type Schema struct {
	// Entities holds all entities, sorted by name.
	Entities []*Entity

	index map[string]*Entity
}

// New creates a schema from pre-built entities. It is used by generated
// clients to embed their schema snapshot; entities with duplicate names are
// skipped.
func New(entities ...*Entity) *Schema {
	s := &Schema{index: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if e == nil || e.Name == "" {
			continue
		}
		if _, ok := s.index[e.Name]; ok {
			continue
		}
		s.index[e.Name] = e
		s.Entities = append(s.Entities, e)
	}
	sort.Slice(s.Entities, func(i, j int) bool { return s.Entities[i].Name < s.Entities[j].Name })
	return s
}

// Entity returns the entity with the given name.
func (s *Schema) Entity(name string) (*Entity, bool) {
	e, ok := s.index[name]
	return e, ok
}

// Parse decodes a raw schema document into a normalized Schema. Malformed
// blob or ref entries are skipped, not fatal; only a document that is not
// valid JSON is an error.
func Parse(data []byte) (*Schema, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("instant: parsing schema document: %w", err)
	}
	return FromMap(raw), nil
}

// FromMap builds a normalized Schema from a decoded schema document of the
// form {"blobs": {entity: {field: meta}}, "refs": {id: descriptor}}.
func FromMap(raw map[string]any) *Schema {
	s := &Schema{index: make(map[string]*Entity)}
	blobs, _ := raw["blobs"].(map[string]any)
	for _, name := range sortedKeys(blobs) {
		fields, ok := blobs[name].(map[string]any)
		if !ok {
			continue
		}
		e := &Entity{Name: name}
		for _, fname := range sortedKeys(fields) {
			meta, ok := fields[fname].(map[string]any)
			if !ok {
				continue
			}
			// Relation placeholders are carried by the refs section.
			if vt, _ := meta["value-type"].(string); vt == "ref" {
				continue
			}
			if e.hasField(fname) {
				continue
			}
			e.Attributes = append(e.Attributes, &Attribute{
				Name:     fname,
				Type:     resolveType(meta),
				Required: boolField(meta, "required?"),
			})
		}
		s.index[name] = e
		s.Entities = append(s.Entities, e)
	}
	refs, _ := raw["refs"].(map[string]any)
	for _, id := range sortedKeys(refs) {
		desc, ok := refs[id].(map[string]any)
		if !ok {
			continue
		}
		s.addRef(desc)
	}
	sort.Slice(s.Entities, func(i, j int) bool { return s.Entities[i].Name < s.Entities[j].Name })
	return s
}

// addRef resolves one relation descriptor and installs the forward edge on
// the declaring entity and the mirror edge on the target. Descriptors naming
// an entity outside the introspected set are dropped silently: system
// entities may be referenced without being part of the snapshot.
func (s *Schema) addRef(desc map[string]any) {
	fromEntity, fwdName, ok := identity(desc["forward-identity"])
	if !ok {
		return
	}
	toEntity, revName, ok := identity(desc["reverse-identity"])
	if !ok {
		return
	}
	from, ok := s.index[fromEntity]
	if !ok {
		return
	}
	to, ok := s.index[toEntity]
	if !ok {
		return
	}
	card := Many
	if c, _ := desc["cardinality"].(string); c == "one" {
		card = One
	}
	if !from.hasField(fwdName) {
		from.Relations = append(from.Relations, &Relation{
			Name:        fwdName,
			Target:      toEntity,
			Cardinality: card,
			Required:    boolField(desc, "required?"),
		})
	}
	// A forward "one" mirrors to "many". A forward "many" also mirrors to
	// "many": both sides of a many-to-many edge are many, and the snapshot
	// does not distinguish many-to-one edges recorded from the many side.
	if !to.hasField(revName) {
		to.Relations = append(to.Relations, &Relation{
			Name:        revName,
			Target:      fromEntity,
			Cardinality: Many,
			Inverse:     true,
		})
	}
}

// resolveType resolves the semantic type of an attribute from its declared
// checked type, falling back to the first inferred type.
func resolveType(meta map[string]any) Type {
	name, _ := meta["checked-data-type"].(string)
	if name == "" {
		if inferred, ok := meta["inferred-types"].([]any); ok && len(inferred) > 0 {
			name, _ = inferred[0].(string)
		}
	}
	switch name {
	case "string":
		return TypeString
	case "number":
		return TypeNumber
	case "integer", "int":
		return TypeInt
	case "boolean", "bool":
		return TypeBool
	case "date", "datetime", "timestamp":
		return TypeTime
	case "json":
		return TypeJSON
	default:
		return TypeUntyped
	}
}

// identity extracts (entity, field) from a [id, entity, field] identity
// triple.
func identity(v any) (entity, field string, ok bool) {
	arr, isArr := v.([]any)
	if !isArr || len(arr) < 3 {
		return "", "", false
	}
	entity, _ = arr[1].(string)
	field, _ = arr[2].(string)
	if entity == "" || field == "" {
		return "", "", false
	}
	return entity, field, true
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
