// Package gist talks to the GitHub gist API, which markstash uses as the
// shared storage backend. Every read carries back the gist ETag and every
// write sends it as a precondition, so two daemons can never silently
// overwrite each other.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/markstash/markstash/internal/utils"
	"github.com/markstash/markstash/internal/version"
)

const DefaultBaseURL = "https://api.github.com"

// Document is one bookmark file read from a gist, together with the
// version token the server handed out for it.
type Document struct {
	Content string
	ETag    string
}

// Client provides HTTP access to the gist API. All methods are safe for
// concurrent use.
type Client struct {
	BaseURL    string
	Token      string
	File       string
	HTTPClient *http.Client
}

// NewClient creates a client for one bookmark file name. baseURL defaults
// to the public GitHub API when empty.
func NewClient(baseURL, token, file string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		File:    file,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch reads the bookmark file of a gist.
func (c *Client) Fetch(ctx context.Context, gistID string) (*Document, error) {
	resp, err := c.do(ctx, http.MethodGet, "/gists/"+gistID, nil, nil)
	if err != nil {
		return nil, err
	}
	defer utils.Close(resp.Body)

	if err := checkStatus(resp, "fetch", http.StatusOK); err != nil {
		return nil, err
	}
	content, err := c.fileContent(resp.Body, gistID)
	if err != nil {
		return nil, err
	}
	return &Document{Content: content, ETag: resp.Header.Get("ETag")}, nil
}

// Changed asks the server whether the gist moved past the given version.
// It uses a conditional request, so an unchanged gist costs no body
// transfer and no API rate budget.
func (c *Client) Changed(ctx context.Context, gistID, etag string) (bool, error) {
	if etag == "" {
		return true, nil
	}
	headers := map[string]string{"If-None-Match": etag}
	resp, err := c.do(ctx, http.MethodGet, "/gists/"+gistID, nil, headers)
	if err != nil {
		return false, err
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode == http.StatusNotModified {
		return false, nil
	}
	if err := checkStatus(resp, "check", http.StatusOK); err != nil {
		return false, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return true, nil
}

// Update writes new content to the bookmark file, conditional on the
// gist still being at the given version. A stale etag yields
// ErrVersionConflict and writes nothing.
func (c *Client) Update(ctx context.Context, gistID, content, etag string) (*Document, error) {
	body, err := json.Marshal(gistPayload{
		Files: map[string]filePayload{c.File: {Content: content}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode gist payload: %w", err)
	}
	headers := map[string]string{}
	if etag != "" {
		headers["If-Match"] = etag
	}
	resp, err := c.do(ctx, http.MethodPatch, "/gists/"+gistID, body, headers)
	if err != nil {
		return nil, err
	}
	defer utils.Close(resp.Body)

	if err := checkStatus(resp, "update", http.StatusOK); err != nil {
		return nil, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return &Document{Content: content, ETag: resp.Header.Get("ETag")}, nil
}

// Create makes a new secret gist holding the bookmark file and returns
// its id.
func (c *Client) Create(ctx context.Context, description, content string) (string, *Document, error) {
	body, err := json.Marshal(gistPayload{
		Description: description,
		Public:      false,
		Files:       map[string]filePayload{c.File: {Content: content}},
	})
	if err != nil {
		return "", nil, fmt.Errorf("encode gist payload: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/gists", body, nil)
	if err != nil {
		return "", nil, err
	}
	defer utils.Close(resp.Body)

	if err := checkStatus(resp, "create", http.StatusCreated); err != nil {
		return "", nil, err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", nil, fmt.Errorf("decode create response: %w", err)
	}
	return created.ID, &Document{Content: content, ETag: resp.Header.Get("ETag")}, nil
}

type gistPayload struct {
	Description string                 `json:"description,omitempty"`
	Public      bool                   `json:"public"`
	Files       map[string]filePayload `json:"files"`
}

type filePayload struct {
	Content string `json:"content"`
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	return resp, nil
}

// checkStatus maps response codes onto the package error taxonomy.
// The body is consumed on failure so the connection can be reused.
func checkStatus(resp *http.Response, op string, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %s", op, ErrUnauthorized, strings.TrimSpace(string(snippet)))
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case http.StatusPreconditionFailed:
		return fmt.Errorf("%s: %w", op, ErrVersionConflict)
	}
	if resp.StatusCode >= 500 {
		return &TransportError{Op: op, Err: fmt.Errorf("server returned %d: %s", resp.StatusCode, snippet)}
	}
	return fmt.Errorf("gist: %s: unexpected status %d: %s", op, resp.StatusCode, snippet)
}

// fileContent digs the configured file out of the gist response.
func (c *Client) fileContent(r io.Reader, gistID string) (string, error) {
	var payload struct {
		Files map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode gist %s: %w", gistID, err)
	}
	file, ok := payload.Files[c.File]
	if !ok {
		return "", fmt.Errorf("gist %s has no file %q: %w", gistID, c.File, ErrNotFound)
	}
	return file.Content, nil
}
