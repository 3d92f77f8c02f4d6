// Package transact defines the transaction steps accepted by the admin
// transact endpoint and their wire codec. Steps are validated structurally
// before serialization so a malformed step never reaches the transport.
package transact

import (
	"fmt"

	"github.com/syssam/instant"
)

// Step kinds as they appear on the wire.
const (
	KindUpdate = "update"
	KindMerge  = "merge"
	KindDelete = "delete"
	KindLink   = "link"
	KindUnlink = "unlink"
)

// Step is one atomic mutation or link operation. The five implementations
// are Update, Merge, Delete, Link and Unlink; the interface is sealed.
type Step interface {
	// Kind returns the wire tag of the step.
	Kind() string
	// Encode returns the tagged positional array sent on the wire. The
	// step must have been validated first.
	Encode() []any

	validate() error
}

// Edges maps a relation field name to the id, or list of ids, being linked
// or unlinked.
type Edges map[string]any

// Update writes a full record: a nil ID lets the backend assign one, though
// callers supply the id in practice so the write is addressable.
type Update struct {
	Collection string
	ID         *string
	Data       map[string]any
}

// NewUpdate returns an update step addressing an existing or caller-chosen
// id.
func NewUpdate(collection, id string, data map[string]any) *Update {
	return &Update{Collection: collection, ID: &id, Data: data}
}

// Kind returns the wire tag of the step.
func (s *Update) Kind() string { return KindUpdate }

// Encode returns ["update", collection, id|null, data].
func (s *Update) Encode() []any {
	var id any
	if s.ID != nil {
		id = *s.ID
	}
	return []any{KindUpdate, s.Collection, id, copyData(s.Data)}
}

func (s *Update) validate() error {
	if s.Collection == "" {
		return instant.NewStepFormatError(KindUpdate, "collection", "must be a non-empty string")
	}
	if s.Data == nil {
		return instant.NewStepFormatError(KindUpdate, "data", "must be a mapping")
	}
	return nil
}

// Merge applies a partial update to an existing record.
type Merge struct {
	Collection string
	ID         string
	Data       map[string]any
}

// NewMerge returns a merge step.
func NewMerge(collection, id string, data map[string]any) *Merge {
	return &Merge{Collection: collection, ID: id, Data: data}
}

// Kind returns the wire tag of the step.
func (s *Merge) Kind() string { return KindMerge }

// Encode returns ["merge", collection, id, data].
func (s *Merge) Encode() []any {
	return []any{KindMerge, s.Collection, s.ID, copyData(s.Data)}
}

func (s *Merge) validate() error {
	if s.Collection == "" {
		return instant.NewStepFormatError(KindMerge, "collection", "must be a non-empty string")
	}
	if s.ID == "" {
		return instant.NewStepFormatError(KindMerge, "id", "must be a non-empty string")
	}
	if s.Data == nil {
		return instant.NewStepFormatError(KindMerge, "data", "must be a mapping")
	}
	return nil
}

// Delete removes a record.
type Delete struct {
	Collection string
	ID         string
}

// NewDelete returns a delete step.
func NewDelete(collection, id string) *Delete {
	return &Delete{Collection: collection, ID: id}
}

// Kind returns the wire tag of the step.
func (s *Delete) Kind() string { return KindDelete }

// Encode returns ["delete", collection, id].
func (s *Delete) Encode() []any {
	return []any{KindDelete, s.Collection, s.ID}
}

func (s *Delete) validate() error {
	if s.Collection == "" {
		return instant.NewStepFormatError(KindDelete, "collection", "must be a non-empty string")
	}
	if s.ID == "" {
		return instant.NewStepFormatError(KindDelete, "id", "must be a non-empty string")
	}
	return nil
}

// Link adds relation edges from a record to one or more targets.
type Link struct {
	Collection string
	ID         string
	Edges      Edges
}

// NewLink returns a link step.
func NewLink(collection, id string, edges Edges) *Link {
	return &Link{Collection: collection, ID: id, Edges: edges}
}

// Kind returns the wire tag of the step.
func (s *Link) Kind() string { return KindLink }

// Encode returns ["link", collection, id, edges].
func (s *Link) Encode() []any {
	return []any{KindLink, s.Collection, s.ID, copyEdges(s.Edges)}
}

func (s *Link) validate() error {
	return validateEdgeStep(KindLink, s.Collection, s.ID, s.Edges)
}

// Unlink removes relation edges; it shares the link wire shape.
type Unlink struct {
	Collection string
	ID         string
	Edges      Edges
}

// NewUnlink returns an unlink step.
func NewUnlink(collection, id string, edges Edges) *Unlink {
	return &Unlink{Collection: collection, ID: id, Edges: edges}
}

// Kind returns the wire tag of the step.
func (s *Unlink) Kind() string { return KindUnlink }

// Encode returns ["unlink", collection, id, edges].
func (s *Unlink) Encode() []any {
	return []any{KindUnlink, s.Collection, s.ID, copyEdges(s.Edges)}
}

func (s *Unlink) validate() error {
	return validateEdgeStep(KindUnlink, s.Collection, s.ID, s.Edges)
}

func validateEdgeStep(kind, collection, id string, edges Edges) error {
	if collection == "" {
		return instant.NewStepFormatError(kind, "collection", "must be a non-empty string")
	}
	if id == "" {
		return instant.NewStepFormatError(kind, "id", "must be a non-empty string")
	}
	if edges == nil {
		return instant.NewStepFormatError(kind, "edges", "must be a mapping")
	}
	for field, v := range edges {
		switch v := v.(type) {
		case string:
		case []string:
		case []any:
			for _, item := range v {
				if _, ok := item.(string); !ok {
					return instant.NewStepFormatError(kind, "edges",
						fmt.Sprintf("field %q must hold an id or a list of ids", field))
				}
			}
		default:
			return instant.NewStepFormatError(kind, "edges",
				fmt.Sprintf("field %q must hold an id or a list of ids", field))
		}
	}
	return nil
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func copyEdges(edges Edges) map[string]any {
	out := make(map[string]any, len(edges))
	for k, v := range edges {
		out[k] = v
	}
	return out
}
