package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(Logger(zerolog.New(&buf)))
	r.Get("/api/views/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"abc"}`))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/views/abc", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	entry := decodeEntry(t, &buf)
	if entry["method"] != "GET" || entry["path"] != "/api/views/abc" {
		t.Errorf("unexpected request fields %v", entry)
	}
	if entry["status"] != float64(200) || entry["bytes"] != float64(12) {
		t.Errorf("unexpected response fields %v", entry)
	}
	if entry["level"] != "info" || entry["message"] != "request completed" {
		t.Errorf("unexpected level or message %v", entry)
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("expected request_id from the RequestID middleware")
	}
}

func TestLoggerStatusLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusNotFound, "info"},
		{http.StatusBadGateway, "error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			handler := Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

			entry := decodeEntry(t, &buf)
			if entry["status"] != float64(tt.status) || entry["level"] != tt.level {
				t.Errorf("expected status %d at %s, got %v", tt.status, tt.level, entry)
			}
		})
	}
}

func TestRoutePattern(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/api/admin/roles/{role}/{email}", func(w http.ResponseWriter, req *http.Request) {
		got = routePattern(req)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/admin/roles/admin/a@example.com", nil))

	if got != "/api/admin/roles/{role}/{email}" {
		t.Errorf("expected route pattern, got %q", got)
	}

	if p := routePattern(httptest.NewRequest(http.MethodGet, "/health", nil)); p != "/health" {
		t.Errorf("expected raw path without a route context, got %q", p)
	}
}
