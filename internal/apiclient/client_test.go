package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/domain"
	"github.com/KruglovEgor/RestoStats/internal/repository/memory"
	"github.com/KruglovEgor/RestoStats/internal/telemetry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string, opts ...Option) (*Client, *memory.TokenStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := memory.NewTokenStore(token)
	noSleep := WithSleep(func(ctx context.Context, d time.Duration) error { return nil })
	opts = append([]Option{noSleep}, opts...)
	c, err := New(Config{BaseURL: srv.URL + "/api", MaxRetries: DefaultMaxRetries}, tokens, zap.NewNop(), telemetry.NewNoop(), opts...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c, tokens
}

func TestGet_AttachesBearerTokenAndQuery(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"success":true,"data":{"commandes":12,"recettes":54000}}`))
	}, "secret")

	var out domain.OverviewStats
	params := NewParams().Set("periode", "today").Set("startDate", "").SetInt("limit", 0)
	if err := c.Get(context.Background(), "/stats/overview", params.Values(), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	if gotPath != "/api/stats/overview" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotQuery != "periode=today" {
		t.Errorf("empty parameters must be omitted, got %q", gotQuery)
	}
	if out.Commandes != 12 || out.Recettes != 54000 {
		t.Errorf("unexpected payload %+v", out)
	}
}

func TestGet_UnauthorizedClearsToken(t *testing.T) {
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"Token expiré"}`))
	}, "expired")

	err := c.Get(context.Background(), "/stats/overview", nil, nil)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if StatusCode(err) != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", StatusCode(err))
	}

	token, _ := tokens.Get(context.Background())
	if token != "" {
		t.Errorf("token should be cleared after 401, got %q", token)
	}
}

func TestGet_RetriesTooManyRequests(t *testing.T) {
	var calls int32
	var delays []time.Duration
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"success":true,"data":[]}`))
	}, "", WithSleep(func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}))

	if err := c.Get(context.Background(), "/recettes", nil, nil); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Errorf("expected doubling delays 1s, 2s; got %v", delays)
	}
}

func TestGet_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, "")

	err := c.Get(context.Background(), "/recettes", nil, nil)
	if !errors.Is(err, domain.ErrTooManyRequests) {
		t.Fatalf("expected ErrTooManyRequests, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected initial call plus 2 retries, got %d", calls)
	}
}

func TestGet_NoRetryOnServerError(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("database down"))
	}, "")

	err := c.Get(context.Background(), "/stats/sales", nil, nil)
	if !errors.Is(err, domain.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "database down" {
		t.Errorf("expected message from body, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestGet_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}, "")

	err := c.Get(context.Background(), "/stats/unknown", nil, nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSend_EncodesBody(t *testing.T) {
	var gotMethod, gotBody, gotContentType string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"success":true}`))
	}, "")

	err := c.Send(context.Background(), http.MethodPost, "/scheduler/run/backup", nil, map[string]string{"source": "statsctl"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPost || gotContentType != "application/json" {
		t.Errorf("unexpected request %s %s", gotMethod, gotContentType)
	}
	if gotBody != `{"source":"statsctl"}` {
		t.Errorf("unexpected body %s", gotBody)
	}
}

func TestDownload_ReturnsFile(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="stats-2024-06.csv"`)
		w.Write([]byte("date,recettes\n2024-06-01,54000\n"))
	}, "")

	file, err := c.Download(context.Background(), "/stats/export", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Filename != "stats-2024-06.csv" || file.ContentType != "text/csv" {
		t.Errorf("unexpected file metadata %+v", file)
	}
	if string(file.Data) != "date,recettes\n2024-06-01,54000\n" {
		t.Errorf("unexpected data %q", file.Data)
	}
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "single envelope", body: `{"success":true,"data":[1,2]}`, want: `[1,2]`},
		{name: "nested envelope", body: `{"success":true,"data":{"data":{"commandes":3}}}`, want: `{"commandes":3}`},
		{name: "nested with success flag", body: `{"success":true,"data":{"success":true,"data":[]}}`, want: `[]`},
		{name: "payload with data field among others", body: `{"success":true,"data":{"data":1,"total":2}}`, want: `{"data":1,"total":2}`},
		{name: "bare array", body: `[{"a":1}]`, want: `[{"a":1}]`},
		{name: "no envelope", body: `{"commandes":1}`, want: `{"commandes":1}`},
		{name: "missing data", body: `{"success":true}`, want: ``},
		{name: "null data", body: `{"success":true,"data":null}`, want: ``},
		{name: "empty body", body: ``, want: ``},
		{name: "unsuccessful", body: `{"success":false,"message":"boom"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unwrap([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, domain.ErrBackend) {
					t.Fatalf("expected ErrBackend, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestGet_ShapeMismatchLeavesDefault(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"unexpected":"object"}}`))
	}, "")

	var out []domain.DateGroupRecord
	if err := c.Get(context.Background(), "/recettes", nil, &out); err != nil {
		t.Fatalf("shape mismatch must not be an error, got %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty result, got %v", out)
	}
}

func TestNew_RejectsInvalidBaseURL(t *testing.T) {
	if _, err := New(Config{BaseURL: "not a url"}, nil, zap.NewNop(), telemetry.NewNoop()); err == nil {
		t.Error("expected error for base URL without scheme")
	}
}
