package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/instant/schema"
)

// demoSchema mirrors the introspected snapshot of a small blog app: posts,
// tags, comments, profiles plus the system $users and $files namespaces.
const demoSchema = `{
	"blobs": {
		"posts": {
			"id": {"checked-data-type": "string", "required?": true},
			"title": {"checked-data-type": "string", "required?": true},
			"status": {"inferred-types": ["string"]},
			"published_at": {"checked-data-type": "date"},
			"views": {"checked-data-type": "number"},
			"meta": {"checked-data-type": "json"},
			"tags": {"value-type": "ref"}
		},
		"tags": {
			"id": {"checked-data-type": "string", "required?": true},
			"name": {"checked-data-type": "string", "required?": true}
		},
		"comments": {
			"id": {"checked-data-type": "string", "required?": true},
			"body": {"checked-data-type": "string", "required?": true},
			"likes": {"inferred-types": ["number"]},
			"pinned": {"checked-data-type": "boolean"},
			"rank": {"checked-data-type": "integer"},
			"blob": {"inferred-types": []}
		},
		"profiles": {
			"id": {"checked-data-type": "string", "required?": true},
			"handle": {"checked-data-type": "string", "required?": true},
			"bio": {"inferred-types": ["string"]},
			"broken": "not-a-map"
		},
		"$users": {
			"id": {"checked-data-type": "string", "required?": true},
			"email": {"checked-data-type": "string"}
		},
		"$files": {
			"id": {"checked-data-type": "string", "required?": true},
			"path": {"checked-data-type": "string"}
		}
	},
	"refs": {
		"r1": {
			"forward-identity": ["f1", "posts", "author"],
			"reverse-identity": ["f1r", "profiles", "authored_posts"],
			"cardinality": "one",
			"required?": true
		},
		"r2": {
			"forward-identity": ["f2", "posts", "tags"],
			"reverse-identity": ["f2r", "tags", "posts"],
			"cardinality": "many"
		},
		"r3": {
			"forward-identity": ["f3", "comments", "post"],
			"reverse-identity": ["f3r", "posts", "comments"],
			"cardinality": "one"
		},
		"r4": {
			"forward-identity": ["f4", "comments", "author"],
			"reverse-identity": ["f4r", "profiles", "authored_comments"],
			"cardinality": "one"
		},
		"r5": {
			"forward-identity": ["f5", "profiles", "user"],
			"reverse-identity": ["f5r", "$users", "profile"],
			"cardinality": "one"
		},
		"r6": {
			"forward-identity": ["f6", "audit_log", "actor"],
			"reverse-identity": ["f6r", "$users", "audit_entries"],
			"cardinality": "one"
		},
		"r7": "not-a-map",
		"r8": {
			"forward-identity": ["f8", "posts"],
			"reverse-identity": ["f8r", "tags", "whatever"],
			"cardinality": "many"
		}
	}
}`

func parseDemo(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Parse([]byte(demoSchema))
	require.NoError(t, err)
	return s
}

func TestParse(t *testing.T) {
	s := parseDemo(t)

	t.Run("Entities", func(t *testing.T) {
		names := make([]string, 0, len(s.Entities))
		for _, e := range s.Entities {
			names = append(names, e.Name)
		}
		assert.Equal(t, []string{"$files", "$users", "comments", "posts", "profiles", "tags"}, names)
	})

	t.Run("AttributeTypes", func(t *testing.T) {
		posts, ok := s.Entity("posts")
		require.True(t, ok)

		title, ok := posts.Attribute("title")
		require.True(t, ok)
		assert.Equal(t, schema.TypeString, title.Type)
		assert.True(t, title.Required)

		// Falls back to the first inferred type.
		status, ok := posts.Attribute("status")
		require.True(t, ok)
		assert.Equal(t, schema.TypeString, status.Type)
		assert.False(t, status.Required)

		published, ok := posts.Attribute("published_at")
		require.True(t, ok)
		assert.Equal(t, schema.TypeTime, published.Type)

		views, ok := posts.Attribute("views")
		require.True(t, ok)
		assert.Equal(t, schema.TypeNumber, views.Type)

		meta, ok := posts.Attribute("meta")
		require.True(t, ok)
		assert.Equal(t, schema.TypeJSON, meta.Type)

		comments, ok := s.Entity("comments")
		require.True(t, ok)
		pinned, _ := comments.Attribute("pinned")
		assert.Equal(t, schema.TypeBool, pinned.Type)
		rank, _ := comments.Attribute("rank")
		assert.Equal(t, schema.TypeInt, rank.Type)

		// No checked type, no inferred types: untyped.
		blob, ok := comments.Attribute("blob")
		require.True(t, ok)
		assert.Equal(t, schema.TypeUntyped, blob.Type)
	})

	t.Run("RefPlaceholderDropped", func(t *testing.T) {
		posts, _ := s.Entity("posts")
		_, ok := posts.Attribute("tags")
		assert.False(t, ok, "value-type ref fields must not become attributes")
	})

	t.Run("MalformedFieldSkipped", func(t *testing.T) {
		profiles, _ := s.Entity("profiles")
		_, ok := profiles.Attribute("broken")
		assert.False(t, ok)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		_, err := schema.Parse([]byte("{"))
		assert.Error(t, err)
	})
}

func TestParseRelations(t *testing.T) {
	s := parseDemo(t)

	t.Run("ForwardEdge", func(t *testing.T) {
		posts, _ := s.Entity("posts")
		author, ok := posts.Relation("author")
		require.True(t, ok)
		assert.Equal(t, "profiles", author.Target)
		assert.Equal(t, schema.One, author.Cardinality)
		assert.True(t, author.Required)
		assert.False(t, author.Inverse)
	})

	t.Run("MirrorOfOneIsMany", func(t *testing.T) {
		profiles, _ := s.Entity("profiles")
		authored, ok := profiles.Relation("authored_posts")
		require.True(t, ok)
		assert.Equal(t, "posts", authored.Target)
		assert.Equal(t, schema.Many, authored.Cardinality)
		assert.False(t, authored.Required, "mirror edges are never required")
		assert.True(t, authored.Inverse)
	})

	t.Run("MirrorOfManyIsMany", func(t *testing.T) {
		tags, _ := s.Entity("tags")
		rel, ok := tags.Relation("posts")
		require.True(t, ok)
		assert.Equal(t, schema.Many, rel.Cardinality)

		posts, _ := s.Entity("posts")
		fwd, ok := posts.Relation("tags")
		require.True(t, ok)
		assert.Equal(t, schema.Many, fwd.Cardinality)
	})

	t.Run("UnknownEntityDropped", func(t *testing.T) {
		// r6 names audit_log, which is outside the snapshot: both ends are
		// dropped, including the $users mirror.
		users, _ := s.Entity("$users")
		_, ok := users.Relation("audit_entries")
		assert.False(t, ok)

		profile, ok := users.Relation("profile")
		require.True(t, ok)
		assert.Equal(t, "profiles", profile.Target)
	})

	t.Run("MalformedRefsSkipped", func(t *testing.T) {
		tags, _ := s.Entity("tags")
		_, ok := tags.Relation("whatever")
		assert.False(t, ok)
	})
}

func TestDerivedFields(t *testing.T) {
	s := parseDemo(t)
	posts, _ := s.Entity("posts")

	t.Run("CreateFields", func(t *testing.T) {
		fields := posts.CreateFields()
		byName := make(map[string]schema.FieldDef, len(fields))
		for _, f := range fields {
			byName[f.Name] = f
		}

		title := byName["title"]
		assert.True(t, title.Required)
		assert.False(t, title.Relation)

		// One-cardinality relation surfaces as a required id string.
		author := byName["author"]
		assert.True(t, author.Relation)
		assert.True(t, author.Required)
		assert.Equal(t, schema.TypeString, author.Type)

		// Many-cardinality relations never appear.
		_, ok := byName["tags"]
		assert.False(t, ok)
		_, ok = byName["comments"]
		assert.False(t, ok)
	})

	t.Run("UpdateFields", func(t *testing.T) {
		for _, f := range posts.UpdateFields() {
			assert.False(t, f.Required, "update field %s must be optional", f.Name)
		}
		assert.Len(t, posts.UpdateFields(), len(posts.CreateFields()))
	})

	t.Run("WhereFields", func(t *testing.T) {
		var names []string
		for _, f := range posts.WhereFields() {
			names = append(names, f.Name)
		}
		// string, number and time attributes only: no json, no bool.
		assert.ElementsMatch(t, []string{"id", "title", "status", "published_at", "views"}, names)
	})

	t.Run("ExpandKeys", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"author", "tags", "comments"}, posts.ExpandKeys())
	})

	t.Run("LinkKeys", func(t *testing.T) {
		assert.Equal(t, []string{"author"}, posts.LinkKeys())

		comments, _ := s.Entity("comments")
		assert.ElementsMatch(t, []string{"post", "author"}, comments.LinkKeys())

		tags, _ := s.Entity("tags")
		assert.Empty(t, tags.LinkKeys())
	})
}

func TestNew(t *testing.T) {
	s := schema.New(
		&schema.Entity{
			Name: "posts",
			Attributes: []*schema.Attribute{
				{Name: "id", Type: schema.TypeString, Required: true},
				{Name: "title", Type: schema.TypeString, Required: true},
			},
			Relations: []*schema.Relation{
				{Name: "tags", Target: "tags", Cardinality: schema.Many},
			},
		},
		&schema.Entity{
			Name: "tags",
			Attributes: []*schema.Attribute{
				{Name: "id", Type: schema.TypeString, Required: true},
				{Name: "name", Type: schema.TypeString, Required: true},
			},
			Relations: []*schema.Relation{
				{Name: "posts", Target: "posts", Cardinality: schema.Many, Inverse: true},
			},
		},
		nil,
		&schema.Entity{Name: "posts"}, // duplicate, skipped
	)
	assert.Len(t, s.Entities, 2)
	posts, ok := s.Entity("posts")
	require.True(t, ok)
	assert.Len(t, posts.Attributes, 2)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "string", schema.TypeString.String())
	assert.Equal(t, "untyped", schema.TypeUntyped.String())
	assert.Equal(t, "one", schema.One.String())
	assert.Equal(t, "many", schema.Many.String())
}
