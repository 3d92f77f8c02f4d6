package transact

import (
	"fmt"

	"github.com/syssam/instant"
)

// EncodeSteps validates every step and returns the wire form of the whole
// transaction. Validation failure aborts before any step is encoded.
func EncodeSteps(steps ...Step) ([][]any, error) {
	for _, s := range steps {
		if s == nil {
			return nil, instant.NewStepFormatError("", "", "step must not be nil")
		}
		if err := s.validate(); err != nil {
			return nil, err
		}
	}
	out := make([][]any, len(steps))
	for i, s := range steps {
		out[i] = s.Encode()
	}
	return out, nil
}

// DecodeStep parses a raw wire step back into its typed form. Decoding an
// encoded step and re-encoding it reproduces the original value for all
// five kinds.
func DecodeStep(raw []any) (Step, error) {
	if len(raw) == 0 {
		return nil, instant.NewStepFormatError("", "", "step must be a non-empty array")
	}
	kind, ok := raw[0].(string)
	if !ok {
		return nil, instant.NewStepFormatError("", "kind", "must be a string")
	}
	switch kind {
	case KindUpdate:
		return decodeUpdate(raw)
	case KindMerge:
		return decodeMerge(raw)
	case KindDelete:
		return decodeDelete(raw)
	case KindLink:
		collection, id, edges, err := decodeEdgeStep(KindLink, raw)
		if err != nil {
			return nil, err
		}
		return &Link{Collection: collection, ID: id, Edges: edges}, nil
	case KindUnlink:
		collection, id, edges, err := decodeEdgeStep(KindUnlink, raw)
		if err != nil {
			return nil, err
		}
		return &Unlink{Collection: collection, ID: id, Edges: edges}, nil
	default:
		return nil, instant.NewStepFormatError(kind, "kind", "unknown step kind")
	}
}

func decodeUpdate(raw []any) (*Update, error) {
	if len(raw) != 4 {
		return nil, instant.NewStepFormatError(KindUpdate, "",
			"must have 4 elements: [\"update\", collection, id|null, data]")
	}
	collection, ok := raw[1].(string)
	if !ok || collection == "" {
		return nil, instant.NewStepFormatError(KindUpdate, "collection", "must be a non-empty string")
	}
	step := &Update{Collection: collection}
	switch id := raw[2].(type) {
	case nil:
	case string:
		step.ID = &id
	default:
		return nil, instant.NewStepFormatError(KindUpdate, "id", "must be a string or null")
	}
	data, ok := raw[3].(map[string]any)
	if !ok {
		return nil, instant.NewStepFormatError(KindUpdate, "data", "must be a mapping")
	}
	step.Data = data
	return step, nil
}

func decodeMerge(raw []any) (*Merge, error) {
	if len(raw) != 4 {
		return nil, instant.NewStepFormatError(KindMerge, "",
			"must have 4 elements: [\"merge\", collection, id, data]")
	}
	collection, id, err := decodeAddress(KindMerge, raw)
	if err != nil {
		return nil, err
	}
	data, ok := raw[3].(map[string]any)
	if !ok {
		return nil, instant.NewStepFormatError(KindMerge, "data", "must be a mapping")
	}
	return &Merge{Collection: collection, ID: id, Data: data}, nil
}

func decodeDelete(raw []any) (*Delete, error) {
	if len(raw) != 3 {
		return nil, instant.NewStepFormatError(KindDelete, "",
			"must have 3 elements: [\"delete\", collection, id]")
	}
	collection, id, err := decodeAddress(KindDelete, raw)
	if err != nil {
		return nil, err
	}
	return &Delete{Collection: collection, ID: id}, nil
}

func decodeEdgeStep(kind string, raw []any) (collection, id string, edges Edges, err error) {
	if len(raw) != 4 {
		return "", "", nil, instant.NewStepFormatError(kind, "",
			fmt.Sprintf("must have 4 elements: [%q, collection, id, edges]", kind))
	}
	collection, id, err = decodeAddress(kind, raw)
	if err != nil {
		return "", "", nil, err
	}
	rawEdges, ok := raw[3].(map[string]any)
	if !ok {
		return "", "", nil, instant.NewStepFormatError(kind, "edges", "must be a mapping")
	}
	edges = Edges(rawEdges)
	if err := validateEdgeStep(kind, collection, id, edges); err != nil {
		return "", "", nil, err
	}
	return collection, id, edges, nil
}

// decodeAddress extracts the (collection, id) pair shared by every kind but
// update.
func decodeAddress(kind string, raw []any) (string, string, error) {
	collection, ok := raw[1].(string)
	if !ok || collection == "" {
		return "", "", instant.NewStepFormatError(kind, "collection", "must be a non-empty string")
	}
	id, ok := raw[2].(string)
	if !ok || id == "" {
		return "", "", instant.NewStepFormatError(kind, "id", "must be a non-empty string")
	}
	return collection, id, nil
}
