package query

import "github.com/syssam/instant/schema"

// relValue is a relation value decoded once at the boundary into its wire
// kind; normalization branches on the kind instead of re-probing the raw
// value.
type relValue struct {
	kind     relKind
	id       any            // identifier or scalar kinds
	object   map[string]any // object kind
	sequence []any          // sequence kind
}

type relKind int

const (
	relNull relKind = iota
	relIdentifier
	relObject
	relSequence
	relScalar
)

func decodeRelValue(v any) relValue {
	switch v := v.(type) {
	case nil:
		return relValue{kind: relNull}
	case string:
		return relValue{kind: relIdentifier, id: v}
	case map[string]any:
		return relValue{kind: relObject, object: v}
	case []any:
		return relValue{kind: relSequence, sequence: v}
	default:
		return relValue{kind: relScalar, id: v}
	}
}

// Normalize canonicalizes every relation field of a record in place, using
// the relation graph for the given entity and recursing into expanded
// objects with the relation's target entity. After normalization every
// non-null relation field holds a sequence of objects carrying at least an
// "id" key, regardless of the relation's declared cardinality: only the
// representation is canonicalized, cardinality is not enforced here.
//
// Normalization must run before strict decoding; a one-valued relation
// returned as a bare id string or single object would otherwise fail to
// decode against a sequence-of-object field.
func Normalize(g *schema.Graph, entity string, record map[string]any) {
	for _, field := range g.RelationFields(entity) {
		raw, ok := record[field]
		if !ok {
			continue
		}
		edge, _ := g.Edge(entity, field)
		switch v := decodeRelValue(raw); v.kind {
		case relNull:
			// Left unchanged.
		case relIdentifier, relScalar:
			record[field] = []any{map[string]any{"id": v.id}}
		case relObject:
			Normalize(g, edge.Target, v.object)
			record[field] = []any{v.object}
		case relSequence:
			record[field] = normalizeSequence(g, edge.Target, v.sequence)
		}
	}
}

func normalizeSequence(g *schema.Graph, target string, seq []any) []any {
	out := make([]any, 0, len(seq))
	for _, item := range seq {
		switch v := decodeRelValue(item); v.kind {
		case relObject:
			Normalize(g, target, v.object)
			out = append(out, v.object)
		default:
			// Identifier strings and, best effort, any other scalar.
			out = append(out, map[string]any{"id": item})
		}
	}
	return out
}
