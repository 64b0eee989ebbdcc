package github

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:    server.URL,
		UploadURL:  server.URL,
		Token:      "test-token",
		Repository: "owner/my-plugin",
	})
	if err != nil {
		t.Fatal(err)
	}
	return client, server
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "missing token", config: Config{Repository: "o/r"}},
		{name: "missing repository", config: Config{Token: "t"}},
		{name: "slug without owner", config: Config{Token: "t", Repository: "/r"}},
		{name: "slug without separator", config: Config{Token: "t", Repository: "repo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.config); err == nil {
				t.Error("NewClient succeeded, want error")
			}
		})
	}
}

func TestCreateRelease(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Release{ID: 42, TagName: "v1.0.0"})
	}))

	release, err := client.CreateRelease(context.Background(), "v1.0.0", "my-plugin v1.0.0", "")
	if err != nil {
		t.Fatalf("CreateRelease: %v", err)
	}

	if release.ID != 42 {
		t.Errorf("release ID = %d, want 42", release.ID)
	}
	if gotPath != "/repos/owner/my-plugin/releases" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody["tag_name"] != "v1.0.0" {
		t.Errorf("tag_name = %v", gotBody["tag_name"])
	}
	if gotBody["generate_release_notes"] != true {
		t.Error("empty notes should request auto-generated notes")
	}
}

func TestUploadAsset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my-plugin-linux-amd64")
	if err := os.WriteFile(path, []byte("binary-bytes"), 0755); err != nil {
		t.Fatal(err)
	}

	var gotName, gotContentType string
	var gotBytes []byte

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotName = r.URL.Query().Get("name")
		gotContentType = r.Header.Get("Content-Type")
		gotBytes, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Asset{ID: 7, Name: gotName, Size: int64(len(gotBytes))})
	}))

	asset, err := client.UploadAsset(context.Background(), &Release{ID: 42}, path)
	if err != nil {
		t.Fatalf("UploadAsset: %v", err)
	}

	if asset.Name != "my-plugin-linux-amd64" || gotName != "my-plugin-linux-amd64" {
		t.Errorf("asset name = %q / %q", asset.Name, gotName)
	}
	if gotContentType != "application/octet-stream" {
		t.Errorf("content type = %q", gotContentType)
	}
	if string(gotBytes) != "binary-bytes" {
		t.Errorf("uploaded bytes = %q", gotBytes)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "Resource not accessible by integration"})
	}))

	_, err := client.CreateRelease(context.Background(), "v1.0.0", "r", "notes")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if apiErr.StatusCode != 403 {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if apiErr.Message != "Resource not accessible by integration" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		permission bool
		transient  bool
	}{
		{
			name:       "unauthorized",
			err:        &APIError{StatusCode: 401, Message: "Bad credentials"},
			permission: true,
		},
		{
			name:       "forbidden",
			err:        &APIError{StatusCode: 403, Message: "Resource not accessible"},
			permission: true,
		},
		{
			name:      "rate limited 403",
			err:       &APIError{StatusCode: 403, Message: "API rate limit exceeded"},
			transient: true,
		},
		{
			name:      "secondary rate limit",
			err:       &APIError{StatusCode: 429, Message: "too many requests"},
			transient: true,
		},
		{
			name:      "server error",
			err:       &APIError{StatusCode: 502, Message: "bad gateway"},
			transient: true,
		},
		{
			name:      "transport failure",
			err:       &TransportError{Err: errors.New("connection reset")},
			transient: true,
		},
		{
			name: "validation failure is neither",
			err:  &APIError{StatusCode: 422, Message: "already_exists"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermission(tt.err); got != tt.permission {
				t.Errorf("IsPermission = %v, want %v", got, tt.permission)
			}
			if got := IsTransient(tt.err); got != tt.transient {
				t.Errorf("IsTransient = %v, want %v", got, tt.transient)
			}
		})
	}
}
