package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// FakeBackend is an httptest server that answers POS backend paths
// with the {success, data} envelope.
type FakeBackend struct {
	*httptest.Server

	mu       sync.Mutex
	data     map[string]any
	statuses map[string]int
	hits     map[string]int
	queries  map[string]url.Values
	auth     map[string]string

	// Gate, when set, blocks every request until it is closed
	Gate chan struct{}
}

// NewFakeBackend starts a fake backend closed on test cleanup
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{
		data:     make(map[string]any),
		statuses: make(map[string]int),
		hits:     make(map[string]int),
		queries:  make(map[string]url.Values),
		auth:     make(map[string]string),
	}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.Close)
	return fb
}

// Respond sets the data returned for path
func (fb *FakeBackend) Respond(path string, data any) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.data[path] = data
	delete(fb.statuses, path)
}

// Fail makes path answer with status
func (fb *FakeBackend) Fail(path string, status int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.statuses[path] = status
}

// Hits returns how many requests reached path
func (fb *FakeBackend) Hits(path string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.hits[path]
}

// LastQuery returns the query of the last request to path
func (fb *FakeBackend) LastQuery(path string) url.Values {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.queries[path]
}

// LastAuthorization returns the Authorization header of the last request to path
func (fb *FakeBackend) LastAuthorization(path string) string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.auth[path]
}

func (fb *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	if fb.Gate != nil {
		<-fb.Gate
	}

	path := r.URL.Path
	fb.mu.Lock()
	fb.hits[path]++
	fb.queries[path] = r.URL.Query()
	fb.auth[path] = r.Header.Get("Authorization")
	status, failed := fb.statuses[path]
	data, ok := fb.data[path]
	fb.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case failed:
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": http.StatusText(status)})
	case !ok:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "route not found"})
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
	}
}
