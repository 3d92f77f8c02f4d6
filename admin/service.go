package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/syssam/instant"
	"github.com/syssam/instant/query"
	"github.com/syssam/instant/schema"
	"github.com/syssam/instant/transact"
)

// Service is the generic entity service generated clients instantiate once
// per collection: M is the full model, C the create shape, U the update
// shape. One Service value is shared by all calls for its entity; it holds
// no mutable state beyond the immutable relation graph.
type Service[M, C, U any] struct {
	entity string
	client *Client
	graph  *schema.Graph
}

// NewService creates the service for one entity.
func NewService[M, C, U any](client *Client, graph *schema.Graph, entity string) *Service[M, C, U] {
	return &Service[M, C, U]{entity: entity, client: client, graph: graph}
}

type findConfig struct {
	where    map[string]any
	whereErr error
	spec     query.Spec
}

// FindOption configures a Find or FindRaw call.
type FindOption func(*findConfig)

// Where filters the query with an equality map. A generated Where struct is
// accepted and converted through its JSON form; nil fields are omitted.
func Where(where any) FindOption {
	return func(cfg *findConfig) {
		switch w := where.(type) {
		case nil:
		case map[string]any:
			cfg.where = w
		default:
			m, err := toMap(where)
			if err != nil {
				cfg.whereErr = fmt.Errorf("instant: converting where filter: %w", err)
				return
			}
			cfg.where = m
		}
	}
}

// Expand requests related entities by dotted paths, e.g.
// Expand("comments.author", "tags").
func Expand(paths ...string) FindOption {
	return func(cfg *findConfig) {
		cfg.spec = query.Paths(paths)
	}
}

// ExpandNested requests related entities with a nested spec.
func ExpandNested(spec query.Nested) FindOption {
	return func(cfg *findConfig) {
		cfg.spec = spec
	}
}

// shape compiles the query shape for this entity. All expand validation
// happens here, before any request is issued.
func (s *Service[M, C, U]) shape(opts []FindOption) (query.Shape, error) {
	var cfg findConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.whereErr != nil {
		return nil, cfg.whereErr
	}
	return query.Build(s.graph, s.entity, cfg.where, cfg.spec)
}

// Find queries the collection, normalizes every record's relation encodings
// and strict-decodes into the model type.
func (s *Service[M, C, U]) Find(ctx context.Context, opts ...FindOption) ([]M, error) {
	records, err := s.fetch(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([]M, 0, len(records))
	for _, rec := range records {
		query.Normalize(s.graph, s.entity, rec)
		m, err := decodeRecord[M](s.entity, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// FindRaw queries the collection and returns the raw records without
// normalization or decoding. It is the escape hatch for diagnostic reads
// where nested bare-id relation values would fail strict decoding.
func (s *Service[M, C, U]) FindRaw(ctx context.Context, opts ...FindOption) ([]map[string]any, error) {
	return s.fetch(ctx, opts)
}

func (s *Service[M, C, U]) fetch(ctx context.Context, opts []FindOption) ([]map[string]any, error) {
	shape, err := s.shape(opts)
	if err != nil {
		return nil, err
	}
	res, err := s.client.Query(ctx, shape)
	if err != nil {
		return nil, err
	}
	return res[s.entity], nil
}

// Create writes a new record and returns its id, generating one when the
// payload does not carry its own.
func (s *Service[M, C, U]) Create(ctx context.Context, data C) (string, error) {
	payload, err := toMap(data)
	if err != nil {
		return "", instant.NewDecodeError(s.entity, err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		id = uuid.NewString()
		payload["id"] = id
	}
	resp, err := s.client.Transact(ctx, transact.NewUpdate(s.entity, id, payload))
	if err != nil {
		return "", err
	}
	if len(resp.IDs) > 0 {
		return resp.IDs[0], nil
	}
	return id, nil
}

// Update overwrites fields of an existing record.
func (s *Service[M, C, U]) Update(ctx context.Context, id string, data U) error {
	payload, err := toMap(data)
	if err != nil {
		return instant.NewDecodeError(s.entity, err)
	}
	_, err = s.client.Transact(ctx, transact.NewUpdate(s.entity, id, payload))
	return err
}

// Delete removes a record.
func (s *Service[M, C, U]) Delete(ctx context.Context, id string) error {
	_, err := s.client.Transact(ctx, transact.NewDelete(s.entity, id))
	return err
}

// Link adds one relation edge. Exactly one edge key must be supplied and it
// must be a one-cardinality relation field of the entity, mirroring the
// one-edge-per-call wire shape.
func (s *Service[M, C, U]) Link(ctx context.Context, id string, edges transact.Edges) error {
	if err := s.checkLinkEdges(edges); err != nil {
		return err
	}
	_, err := s.client.Transact(ctx, transact.NewLink(s.entity, id, edges))
	return err
}

// Unlink removes one relation edge under the same discipline as Link.
func (s *Service[M, C, U]) Unlink(ctx context.Context, id string, edges transact.Edges) error {
	if err := s.checkLinkEdges(edges); err != nil {
		return err
	}
	_, err := s.client.Transact(ctx, transact.NewUnlink(s.entity, id, edges))
	return err
}

func (s *Service[M, C, U]) checkLinkEdges(edges transact.Edges) error {
	keys := make([]string, 0, len(edges))
	for k := range edges {
		keys = append(keys, k)
	}
	if len(keys) != 1 {
		return instant.NewLinkArgumentError(s.entity, keys)
	}
	edge, ok := s.graph.Edge(s.entity, keys[0])
	if !ok || edge.Cardinality != schema.One {
		return instant.NewLinkArgumentError(s.entity, keys)
	}
	return nil
}

// toMap converts a typed payload to its JSON object form; optional nil
// fields drop out through omitempty tags.
func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

// decodeRecord strict-decodes a normalized record into the model type.
func decodeRecord[M any](entity string, rec map[string]any) (M, error) {
	var m M
	b, err := json.Marshal(rec)
	if err != nil {
		return m, instant.NewDecodeError(entity, err)
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, instant.NewDecodeError(entity, err)
	}
	return m, nil
}
