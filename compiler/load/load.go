// Package load retrieves the schema snapshot that drives client
// generation, either from the admin API, from a local JSON file, or from
// the on-disk snapshot cache written after a successful fetch.
package load

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/instant/admin"
	"github.com/syssam/instant/schema"
)

// Config describes where the schema snapshot comes from.
type Config struct {
	// AppID is the application whose schema is fetched.
	AppID string
	// AdminToken is the bearer token of the superadmin schema endpoint.
	AdminToken string
	// BaseURL overrides the API base URL; empty means the hosted default.
	BaseURL string
	// HTTPClient overrides the HTTP client used for the fetch.
	HTTPClient *http.Client
	// CacheDir, when set, holds msgpack-encoded snapshots keyed by app id.
	// Fetch writes through to it; FromCache reads from it for offline
	// regeneration.
	CacheDir string
	// Logger receives fetch progress; nil means slog.Default.
	Logger *slog.Logger
}

func (cfg Config) logger() *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return slog.Default()
}

// Fetch retrieves the schema snapshot from the admin API and, when a cache
// dir is configured, writes the raw document through to the snapshot cache.
func Fetch(ctx context.Context, cfg Config) (*schema.Schema, error) {
	base := cfg.BaseURL
	if base == "" {
		base = admin.DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: admin.DefaultTimeout}
	}

	url := base + admin.SchemaPath(cfg.AppID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("instant: building schema request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.AdminToken)

	cfg.logger().Info("fetching schema", "url", url)
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("instant: fetching schema: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("instant: reading schema response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("instant: fetching schema: status %d: %s", resp.StatusCode, data)
	}

	raw, err := unwrap(data)
	if err != nil {
		return nil, err
	}
	if cfg.CacheDir != "" {
		if err := writeCache(cfg.CacheDir, cfg.AppID, raw); err != nil {
			// Cache misses are recoverable; a failed write only costs the
			// next offline run.
			cfg.logger().Warn("writing schema snapshot cache failed", "error", err)
		}
	}
	return schema.FromMap(raw), nil
}

// FromFile reads a schema snapshot from a local JSON file, accepting both
// the {"schema": ...} envelope served by the API and the bare document.
func FromFile(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("instant: reading schema file: %w", err)
	}
	raw, err := unwrap(data)
	if err != nil {
		return nil, err
	}
	return schema.FromMap(raw), nil
}

// FromCache reads the cached snapshot written by a previous Fetch.
func FromCache(cfg Config) (*schema.Schema, error) {
	data, err := os.ReadFile(cachePath(cfg.CacheDir, cfg.AppID))
	if err != nil {
		return nil, fmt.Errorf("instant: reading schema snapshot cache: %w", err)
	}
	var raw map[string]any
	if err := msgpack.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("instant: decoding schema snapshot cache: %w", err)
	}
	return schema.FromMap(raw), nil
}

// unwrap decodes a schema document, unwrapping the {"schema": ...} envelope
// when present.
func unwrap(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("instant: parsing schema document: %w", err)
	}
	if inner, ok := raw["schema"].(map[string]any); ok {
		return inner, nil
	}
	return raw, nil
}

func writeCache(dir, appID string, raw map[string]any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := msgpack.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(cachePath(dir, appID), data, 0o644)
}

func cachePath(dir, appID string) string {
	return filepath.Join(dir, appID+".schema.msgpack")
}
