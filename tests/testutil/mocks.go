package testutil

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// MockTokenStore implements domain.TokenStore for testing
type MockTokenStore struct {
	mu    sync.Mutex
	Token string

	// Hooks for custom behavior
	GetFunc   func(ctx context.Context) (string, error)
	SaveFunc  func(ctx context.Context, token string) error
	ClearFunc func(ctx context.Context) error

	Cleared int
}

// NewMockTokenStore creates a token store holding token
func NewMockTokenStore(token string) *MockTokenStore {
	return &MockTokenStore{Token: token}
}

func (m *MockTokenStore) Get(ctx context.Context) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Token, nil
}

func (m *MockTokenStore) Save(ctx context.Context, token string) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Token = token
	return nil
}

func (m *MockTokenStore) Clear(ctx context.Context) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Token = ""
	m.Cleared++
	return nil
}

// BackendCall records one call made through MockBackend
type BackendCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// MockBackend implements domain.BackendClient for testing. Responses maps
// a path to the payload that is JSON-encoded into out.
type MockBackend struct {
	mu        sync.Mutex
	Responses map[string]any
	Errors    map[string]error
	Calls     []BackendCall

	// Hooks for custom behavior
	GetFunc      func(ctx context.Context, path string, query url.Values, out any) error
	SendFunc     func(ctx context.Context, method, path string, query url.Values, body, out any) error
	DownloadFunc func(ctx context.Context, path string, query url.Values) (*domain.ExportFile, error)
}

// NewMockBackend creates a new mock backend
func NewMockBackend() *MockBackend {
	return &MockBackend{
		Responses: make(map[string]any),
		Errors:    make(map[string]error),
	}
}

func (m *MockBackend) record(call BackendCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

// LastCall returns the most recent call, or zero value if none
func (m *MockBackend) LastCall() BackendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return BackendCall{}
	}
	return m.Calls[len(m.Calls)-1]
}

// CallCount returns the number of calls made to path
func (m *MockBackend) CallCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.Path == path {
			n++
		}
	}
	return n
}

func (m *MockBackend) respond(path string, out any) error {
	m.mu.Lock()
	err, hasErr := m.Errors[path]
	payload, ok := m.Responses[path]
	m.mu.Unlock()

	if hasErr {
		return err
	}
	if !ok || out == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (m *MockBackend) Get(ctx context.Context, path string, query url.Values, out any) error {
	m.record(BackendCall{Method: "GET", Path: path, Query: query})
	if m.GetFunc != nil {
		return m.GetFunc(ctx, path, query, out)
	}
	return m.respond(path, out)
}

func (m *MockBackend) Send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	m.record(BackendCall{Method: method, Path: path, Query: query, Body: body})
	if m.SendFunc != nil {
		return m.SendFunc(ctx, method, path, query, body, out)
	}
	return m.respond(path, out)
}

func (m *MockBackend) Download(ctx context.Context, path string, query url.Values) (*domain.ExportFile, error) {
	m.record(BackendCall{Method: "GET", Path: path, Query: query})
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, path, query)
	}
	m.mu.Lock()
	err, ok := m.Errors[path]
	m.mu.Unlock()
	if ok {
		return nil, err
	}
	return &domain.ExportFile{ContentType: "text/csv", Data: []byte("date,recettes\n")}, nil
}
