package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/instant"
	"github.com/syssam/instant/admin"
	"github.com/syssam/instant/query"
	"github.com/syssam/instant/transact"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...admin.Option) *admin.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]admin.Option{
		admin.WithBaseURL(srv.URL),
		admin.WithBackoffFactor(time.Millisecond),
	}, opts...)
	return admin.NewClient("app-1", "secret", opts...)
}

func TestClientQuery(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/query", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "app-1", r.Header.Get("App-Id"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"posts": [{"id": "p1", "title": "T"}]}`))
	}))

	res, err := c.Query(context.Background(), query.Shape{"posts": map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, admin.QueryResult{
		"posts": {{"id": "p1", "title": "T"}},
	}, res)
	assert.Equal(t, map[string]any{"query": map[string]any{"posts": map[string]any{}}}, gotBody)
}

func TestClientTransact(t *testing.T) {
	t.Run("SendsValidatedSteps", func(t *testing.T) {
		var gotBody map[string]any
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/transact", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Write([]byte(`{"ids": ["p1"]}`))
		}))

		resp, err := c.Transact(context.Background(),
			transact.NewUpdate("posts", "p1", map[string]any{"title": "T"}),
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"p1"}, resp.IDs)
		assert.Equal(t, map[string]any{
			"steps": []any{[]any{"update", "posts", "p1", map[string]any{"title": "T"}}},
		}, gotBody)
	})

	t.Run("MalformedStepNeverSent", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))

		_, err := c.Transact(context.Background(), transact.NewDelete("posts", ""))
		assert.True(t, instant.IsStepFormat(err))
		assert.Zero(t, calls.Load())
	})
}

func TestClientRetry(t *testing.T) {
	t.Run("RetriesServerErrors", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{"posts": []}`))
		}), admin.WithMaxRetries(3))

		_, err := c.Query(context.Background(), query.Shape{"posts": map[string]any{}})
		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("HonorsRetryAfter", func(t *testing.T) {
		var calls atomic.Int32
		start := time.Now()
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.Header().Set("Retry-After", "0.05")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{"posts": []}`))
		}), admin.WithMaxRetries(1))

		_, err := c.Query(context.Background(), query.Shape{"posts": map[string]any{}})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("ExhaustedRetriesSurfaceAPIError", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message": "boom"}`, http.StatusServiceUnavailable)
		}), admin.WithMaxRetries(1))

		_, err := c.Query(context.Background(), query.Shape{"posts": map[string]any{}})
		require.Error(t, err)
		var apiErr *instant.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		assert.Equal(t, http.MethodPost, apiErr.Method)
		assert.Contains(t, apiErr.Body, "boom")
	})

	t.Run("ClientErrorsAreNotRetried", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}), admin.WithMaxRetries(3))

		_, err := c.Query(context.Background(), query.Shape{"posts": map[string]any{}})
		assert.True(t, instant.IsAPIError(err))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}), admin.WithMaxRetries(5), admin.WithBackoffFactor(time.Second))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := c.Query(ctx, query.Shape{"posts": map[string]any{}})
		assert.Error(t, err)
	})
}

func TestAuthService(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/runtime/auth/send_magic_code":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "app-1", body["app-id"])
			assert.Equal(t, "ann@example.com", body["email"])
			w.Write([]byte(`{}`))
		case "/runtime/auth/verify_refresh_token":
			w.Write([]byte(`{"user": {"id": "u1", "email": "ann@example.com"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	require.NoError(t, c.Auth.SendMagicCode(context.Background(), "ann@example.com"))

	user, err := c.Auth.VerifyRefreshToken(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestAuthOAuth(t *testing.T) {
	t.Run("AuthorizationURL", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}))

		url := c.Auth.CreateAuthorizationURL("google", "https://app.example.com/cb")
		assert.True(t, strings.HasSuffix(url,
			"/runtime/oauth/start?client_name=google&redirect_uri=https%3A%2F%2Fapp.example.com%2Fcb"))
		assert.True(t, strings.HasPrefix(url, "http://"))
	})

	t.Run("ExchangeOAuthCode", func(t *testing.T) {
		var gotBody map[string]any
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/runtime/oauth/token", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Write([]byte(`{"user": {"id": "u1", "email": "ann@example.com", "refresh_token": "rt-1"}}`))
		}))

		user, err := c.Auth.ExchangeOAuthCode(context.Background(), "code-1", "verifier-1")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "rt-1", user.RefreshToken)
		assert.Equal(t, map[string]any{
			"app_id":        "app-1",
			"code":          "code-1",
			"code_verifier": "verifier-1",
		}, gotBody)
	})

	t.Run("ExchangeOAuthCodeWithoutVerifier", func(t *testing.T) {
		var gotBody map[string]any
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Write([]byte(`{"user": {"id": "u1"}}`))
		}))

		_, err := c.Auth.ExchangeOAuthCode(context.Background(), "code-1", "")
		require.NoError(t, err)
		assert.NotContains(t, gotBody, "code_verifier")
	})

	t.Run("ExchangeIDToken", func(t *testing.T) {
		var gotBody map[string]any
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/runtime/oauth/id_token", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Write([]byte(`{"user": {"id": "u2", "email": "bob@example.com"}}`))
		}))

		user, err := c.Auth.ExchangeIDToken(context.Background(), "google", "nonce-1", "idt-1", "rt-1")
		require.NoError(t, err)
		assert.Equal(t, "u2", user.ID)
		assert.Equal(t, map[string]any{
			"app_id":        "app-1",
			"client_name":   "google",
			"nonce":         "nonce-1",
			"id_token":      "idt-1",
			"refresh_token": "rt-1",
		}, gotBody)
	})
}

func TestStorageService(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/admin/storage/upload":
			assert.Equal(t, "avatars/ann.png", r.Header.Get("path"))
			assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
			w.Write([]byte(`{"data": {"id": "f1", "path": "avatars/ann.png"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/admin/storage/signed-download-url":
			assert.Equal(t, "avatars/ann.png", r.URL.Query().Get("filename"))
			w.Write([]byte(`{"data": "https://cdn.example.com/signed"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/admin/storage/signed-upload-url":
			// These calls authenticate as the end user, not the admin.
			assert.Equal(t, "Bearer rt-1", r.Header.Get("Authorization"))
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "app-1", body["app_id"])
			assert.Equal(t, "avatars/ann.png", body["file_name"])
			assert.Equal(t, map[string]any{}, body["metadata"])
			w.Write([]byte(`{"data": {"id": "f1", "path": "avatars/ann.png", "url": "https://cdn.example.com/put"}}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/admin/storage/files":
			w.Write([]byte(`{"data": {}}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	info, err := c.Storage.Upload(context.Background(), "avatars/ann.png", []byte("png"),
		&admin.UploadOptions{ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "f1", info.ID)

	url, err := c.Storage.SignedDownloadURL(context.Background(), "avatars/ann.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/signed", url)

	upload, err := c.Storage.SignedUploadURL(context.Background(), "avatars/ann.png", "rt-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/put", upload.URL)

	require.NoError(t, c.Storage.Delete(context.Background(), "avatars/ann.png"))
}
