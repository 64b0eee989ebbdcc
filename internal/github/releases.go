package github

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// A tagged release record. Immutable once created: the pipeline only
// ever creates releases and attaches assets, never edits them in place.
type Release struct {
	ID      int64  `json:"id"`
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// A downloadable file attached to a release.
type Asset struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Creates an immutable release for a tag.
//
// When notes is empty, GitHub's auto-generated notes are requested so
// the release body is never blank.
func (c *Client) CreateRelease(ctx context.Context, tag, name, notes string) (*Release, error) {
	body := map[string]any{
		"tag_name":               tag,
		"name":                   name,
		"body":                   notes,
		"generate_release_notes": notes == "",
	}

	var release Release
	url := fmt.Sprintf("%s/repos/%s/releases", c.baseURL, c.repository)
	if err := c.doJSON(ctx, http.MethodPost, url, body, &release); err != nil {
		return nil, fmt.Errorf("creating release for %s: %w", tag, err)
	}

	c.logger.Info("release created", "tag", tag, "url", release.HTMLURL)
	return &release, nil
}

// Uploads a file as a release asset.
//
// The asset name is the file's basename; the content type is guessed
// from the extension and defaults to a raw byte stream for binaries.
func (c *Client) UploadAsset(ctx context.Context, release *Release, path string) (*Asset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening asset %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stating asset %s: %w", path, err)
	}

	name := filepath.Base(path)
	uploadURL := fmt.Sprintf("%s/repos/%s/releases/%d/assets?name=%s",
		c.uploadURL, c.repository, release.ID, url.QueryEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, file)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", assetContentType(name))

	var asset Asset
	if err := c.do(req, &asset); err != nil {
		return nil, fmt.Errorf("uploading asset %s: %w", name, err)
	}

	c.logger.Debug("asset uploaded", "name", name, "size", info.Size())
	return &asset, nil
}

// Returns the MIME type for an asset filename, defaulting to a raw byte
// stream for extensionless binaries.
func assetContentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
