package gist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/gists/abc123" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
		w.Header().Set("ETag", `W/"v1"`)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"files": map[string]any{
				"bookmarks.md": map[string]any{"content": "# Work\n"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "bookmarks.md")
	doc, err := c.Fetch(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if doc.Content != "# Work\n" {
		t.Errorf("Fetch() content = %q", doc.Content)
	}
	if doc.ETag != `W/"v1"` {
		t.Errorf("Fetch() etag = %q", doc.ETag)
	}
}

func TestFetchStatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		want      error
		retryable bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, want: ErrUnauthorized},
		{name: "not found", status: http.StatusNotFound, want: ErrNotFound},
		{name: "server error", status: http.StatusBadGateway, want: nil, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "tok", "bookmarks.md")
			_, err := c.Fetch(context.Background(), "abc123")
			if err == nil {
				t.Fatal("Fetch() expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Fetch() error = %v, want %v", err, tt.want)
			}
			if got := IsRetryable(err); got != tt.retryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", err, got, tt.retryable)
			}
		})
	}
}

func TestFetchMissingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"files": map[string]any{
				"other.txt": map[string]any{"content": "hi"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "bookmarks.md")
	_, err := c.Fetch(context.Background(), "abc123")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound", err)
	}
}

func TestChanged(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `W/"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `W/"v2"`)
		_ = json.NewEncoder(w).Encode(map[string]any{"files": map[string]any{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "bookmarks.md")

	changed, err := c.Changed(context.Background(), "abc123", `W/"v1"`)
	if err != nil {
		t.Fatalf("Changed() error = %v", err)
	}
	if changed {
		t.Error("Changed() with current etag = true, want false")
	}

	changed, err = c.Changed(context.Background(), "abc123", `W/"v0"`)
	if err != nil {
		t.Fatalf("Changed() error = %v", err)
	}
	if !changed {
		t.Error("Changed() with stale etag = false, want true")
	}

	// an empty etag means we never read, so there is nothing to ask
	changed, err = c.Changed(context.Background(), "abc123", "")
	if err != nil || !changed {
		t.Errorf("Changed() with empty etag = (%v, %v), want (true, nil)", changed, err)
	}
	if requests != 2 {
		t.Errorf("Changed() with empty etag should skip the request, got %d requests", requests)
	}
}

func TestUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		if got := r.Header.Get("If-Match"); got != `W/"v1"` {
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		var payload gistPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if got := payload.Files["bookmarks.md"].Content; got != "# New\n" {
			t.Errorf("payload content = %q", got)
		}
		w.Header().Set("ETag", `W/"v2"`)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "bookmarks.md")

	doc, err := c.Update(context.Background(), "abc123", "# New\n", `W/"v1"`)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if doc.ETag != `W/"v2"` {
		t.Errorf("Update() etag = %q, want W/\"v2\"", doc.ETag)
	}

	_, err = c.Update(context.Background(), "abc123", "# New\n", `W/"stale"`)
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("Update() stale error = %v, want ErrVersionConflict", err)
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable(version conflict) = false, want true")
	}
}

func TestCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/gists" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload gistPayload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Public {
			t.Error("Create() should make a secret gist")
		}
		if payload.Description != "markstash bookmarks" {
			t.Errorf("description = %q", payload.Description)
		}
		w.Header().Set("ETag", `W/"v1"`)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "fresh1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "bookmarks.md")
	id, doc, err := c.Create(context.Background(), "markstash bookmarks", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != "fresh1" {
		t.Errorf("Create() id = %q, want fresh1", id)
	}
	if doc.ETag != `W/"v1"` {
		t.Errorf("Create() etag = %q", doc.ETag)
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(ErrUnauthorized) || !IsFatal(ErrNotFound) {
		t.Error("IsFatal() should flag auth and missing-gist errors")
	}
	if IsFatal(ErrVersionConflict) || IsFatal(nil) {
		t.Error("IsFatal() should pass conflicts and nil through")
	}
}
