package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// apiVersion is the GitHub REST API version header. Pinning the version
// keeps behavior stable as GitHub evolves the API.
const apiVersion = "2022-11-28"

// defaultBaseURL is the base URL for the public GitHub API.
const defaultBaseURL = "https://api.github.com"

// Holds configuration for creating a Client.
type Config struct {
	// BaseURL is the root URL for API requests. Defaults to
	// "https://api.github.com".
	BaseURL string

	// UploadURL is the root URL for asset uploads. Defaults to the
	// public uploads host. Tests point both URLs at a local server.
	UploadURL string

	// Token is a personal access token or workflow token. Required.
	Token string

	// Repository is the "owner/name" slug all requests target.
	Repository string

	// HTTPClient is used for all requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// A typed GitHub REST client scoped to a single repository, covering the
// release operations the publisher needs.
type Client struct {
	baseURL    string
	uploadURL  string
	token      string
	repository string
	httpClient *http.Client
	logger     *slog.Logger
}

// Creates a client from the given configuration.
func NewClient(config Config) (*Client, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("github: no token configured")
	}
	if owner, name, ok := strings.Cut(config.Repository, "/"); !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("github: invalid repository %q: expected \"owner/name\"", config.Repository)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	uploadURL := config.UploadURL
	if uploadURL == "" {
		uploadURL = "https://uploads.github.com"
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		uploadURL:  strings.TrimRight(uploadURL, "/"),
		token:      config.Token,
		repository: config.Repository,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Performs a JSON API request and decodes the response into out.
//
// Non-2xx responses are returned as *APIError with GitHub's structured
// error body decoded when present.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("github: encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("github: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

// Sends a prepared request with auth headers and decodes the response.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	c.logger.Debug("github request", "method", req.Method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github: decoding response: %w", err)
	}
	return nil
}

// Decodes a non-2xx response into an *APIError.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(body) > 0 {
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
	}

	return apiErr
}
