package instant_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/instant"
)

func TestIllegalExpandKeyError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := instant.NewIllegalExpandKeyError("posts", "bogus")
		assert.Equal(t, `instant: illegal expand key "bogus" for entity "posts"`, err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := instant.NewIllegalExpandKeyError("posts", "bogus")
		assert.True(t, errors.Is(err, instant.ErrExpand))
	})

	t.Run("IsIllegalExpand", func(t *testing.T) {
		err := instant.NewIllegalExpandKeyError("posts", "bogus")
		assert.True(t, instant.IsIllegalExpand(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, instant.IsIllegalExpand(wrapped))

		// Sentinel error
		assert.True(t, instant.IsIllegalExpand(instant.ErrExpand))

		// Non-matching error
		assert.False(t, instant.IsIllegalExpand(errors.New("other error")))
		assert.False(t, instant.IsIllegalExpand(nil))
	})
}

func TestIllegalNestedExpandError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := instant.NewIllegalNestedExpandError("comments.writer", "writer", "comments")
		assert.Equal(t,
			`instant: illegal nested expand "writer" under entity "comments" in path "comments.writer"`,
			err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := instant.NewIllegalNestedExpandError("a.b", "b", "")
		assert.True(t, errors.Is(err, instant.ErrExpand))
		assert.True(t, instant.IsIllegalExpand(err))
	})
}

func TestStepFormatError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := instant.NewStepFormatError("merge", "id", "must be a string")
		assert.Equal(t, "instant: malformed merge step field id: must be a string", err.Error())
	})

	t.Run("IsStepFormat", func(t *testing.T) {
		err := instant.NewStepFormatError("delete", "", "must have 3 elements")
		assert.True(t, instant.IsStepFormat(err))
		assert.True(t, errors.Is(err, instant.ErrStepFormat))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, instant.IsStepFormat(wrapped))

		assert.False(t, instant.IsStepFormat(errors.New("other error")))
		assert.False(t, instant.IsStepFormat(nil))
	})
}

func TestDecodeError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := instant.NewDecodeError("posts", errors.New("title is not a string"))
		assert.Equal(t, "instant: decoding posts record: title is not a string", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		cause := errors.New("boom")
		err := instant.NewDecodeError("tags", cause)
		assert.Equal(t, cause, errors.Unwrap(err))
	})

	t.Run("IsDecode", func(t *testing.T) {
		err := instant.NewDecodeError("tags", nil)
		assert.True(t, instant.IsDecode(err))
		assert.True(t, errors.Is(err, instant.ErrDecode))
		assert.False(t, instant.IsDecode(errors.New("other error")))
	})
}

func TestAPIError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := &instant.APIError{
			StatusCode: 500,
			Method:     "POST",
			URL:        "https://api.example.com/admin/query",
		}
		assert.Equal(t,
			"instant: api request failed; status=500; method=POST; url=https://api.example.com/admin/query",
			err.Error())
	})

	t.Run("IsAPIError", func(t *testing.T) {
		err := &instant.APIError{StatusCode: 429}
		assert.True(t, instant.IsAPIError(err))
		assert.True(t, errors.Is(err, instant.ErrAPI))

		wrapped := fmt.Errorf("querying: %w", err)
		assert.True(t, instant.IsAPIError(wrapped))

		assert.False(t, instant.IsAPIError(nil))
	})
}

func TestLinkArgumentError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := instant.NewLinkArgumentError("posts", []string{"tags", "author"})
		assert.Equal(t, `instant: link on "posts" requires exactly one relation field, got [author, tags]`, err.Error())
	})

	t.Run("Empty", func(t *testing.T) {
		err := instant.NewLinkArgumentError("posts", nil)
		assert.Equal(t, `instant: link on "posts" requires exactly one relation field, got []`, err.Error())
	})

	t.Run("IsLinkArgument", func(t *testing.T) {
		err := instant.NewLinkArgumentError("posts", []string{"author", "tags"})
		assert.True(t, instant.IsLinkArgument(err))
		assert.True(t, errors.Is(err, instant.ErrLinkArgument))
		assert.False(t, instant.IsLinkArgument(errors.New("other error")))
	})
}

func TestSchemaError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := instant.NewSchemaError("posts", "author", "unknown target entity")
		assert.Equal(t, "instant: schema error on entity posts field author: unknown target entity", err.Error())
	})

	t.Run("IsSchemaError", func(t *testing.T) {
		err := instant.NewSchemaError("", "", "empty schema")
		assert.True(t, instant.IsSchemaError(err))

		wrapped := fmt.Errorf("loading: %w", err)
		assert.True(t, instant.IsSchemaError(wrapped))

		assert.False(t, instant.IsSchemaError(nil))
	})
}
