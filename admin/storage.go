package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// StorageService exposes the admin file storage endpoints.
type StorageService struct {
	client *Client
}

// UploadOptions carries the optional headers of an upload.
type UploadOptions struct {
	ContentType        string
	ContentDisposition string
}

// FileInfo describes a stored file.
type FileInfo struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
}

type fileEnvelope struct {
	Data *FileInfo `json:"data"`
}

// Upload stores file contents under the given path. The destination path
// travels in a header, per the admin upload endpoint.
func (s *StorageService) Upload(ctx context.Context, path string, contents []byte, opts *UploadOptions) (*FileInfo, error) {
	header := http.Header{}
	header.Set("path", path)
	if opts != nil {
		if opts.ContentType != "" {
			header.Set("Content-Type", opts.ContentType)
		}
		if opts.ContentDisposition != "" {
			header.Set("Content-Disposition", opts.ContentDisposition)
		}
	}
	var out fileEnvelope
	if err := s.client.request(ctx, http.MethodPut, uploadPath(), header, contents, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// SignedUploadURL creates a pre-signed upload URL on behalf of an end
// user. The call authenticates with the user's refresh token in place of
// the admin token; metadata, when non-nil, is stored with the file.
func (s *StorageService) SignedUploadURL(ctx context.Context, fileName, refreshToken string, metadata map[string]any) (*FileInfo, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	body, err := json.Marshal(map[string]any{
		"app_id":    s.client.appID,
		"file_name": fileName,
		"metadata":  metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("instant: encoding request body: %w", err)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", "Bearer "+refreshToken)
	var out fileEnvelope
	if err := s.client.request(ctx, http.MethodPost, signedUploadURLPath(), header, body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// SignedDownloadURL returns a short-lived URL serving the file.
func (s *StorageService) SignedDownloadURL(ctx context.Context, filename string) (string, error) {
	var out struct {
		Data string `json:"data"`
	}
	if err := s.client.request(ctx, http.MethodGet, signedDownloadURLPath(filename), nil, nil, &out); err != nil {
		return "", err
	}
	return out.Data, nil
}

// Delete removes a stored file.
func (s *StorageService) Delete(ctx context.Context, filename string) error {
	return s.client.request(ctx, http.MethodDelete, deleteFilePath(filename), nil, nil, nil)
}
