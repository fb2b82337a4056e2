// Package testsupport holds fixtures shared by package tests: a recording
// consent backend, preset loading and golden files.
package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-consentform/pkg/preset"
)

// Call is one request received by a Backend.
type Call struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// Backend is an httptest consent backend answering each path with a fixed
// JSON body. Unknown paths get a 404 with a plain body.
type Backend struct {
	URL string

	mu      sync.Mutex
	replies map[string]string
	status  map[string]int
	calls   []Call
}

// NewBackend starts a backend closed at the end of the test.
func NewBackend(t *testing.T, replies map[string]string) *Backend {
	t.Helper()
	b := &Backend{replies: map[string]string{}, status: map[string]int{}}
	for path, body := range replies {
		b.replies[path] = body
	}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	b.URL = srv.URL
	return b
}

// Reply sets the status and body returned for path.
func (b *Backend) Reply(path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[path] = body
	b.status[path] = status
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, Call{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
	reply, ok := b.replies[r.URL.Path]
	status := b.status[r.URL.Path]
	b.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_, _ = io.WriteString(w, reply)
}

// Calls returns every request received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Body returns the body of the latest request to path, or nil.
func (b *Backend) Body(path string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.calls) - 1; i >= 0; i-- {
		if b.calls[i].Path == path {
			return b.calls[i].Body
		}
	}
	return nil
}

// Last returns the latest request and fails the test when there is none.
func (b *Backend) Last(t *testing.T) Call {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.calls) == 0 {
		t.Fatalf("expected a backend call")
	}
	return b.calls[len(b.calls)-1]
}

// MustLoadPreset reads a preset fixture.
func MustLoadPreset(t *testing.T, path string) preset.Preset {
	t.Helper()
	p, err := preset.LoadFile(path)
	if err != nil {
		t.Fatalf("load preset: %v", err)
	}
	return p
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareJSONGolden decodes got and the golden file at path and returns
// their difference. Formatting and key order do not matter.
func CompareJSONGolden(t *testing.T, path string, got []byte) string {
	t.Helper()
	if WriteMaybeGolden(t, path, got) {
		return ""
	}
	var want, have any
	if err := json.Unmarshal(MustReadGolden(t, path), &want); err != nil {
		t.Fatalf("decode golden %s: %v", path, err)
	}
	if err := json.Unmarshal(got, &have); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return cmp.Diff(want, have)
}
