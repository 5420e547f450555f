package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/api"
	"github.com/dennisdiepolder/dropboard/internal/auth"
	"github.com/dennisdiepolder/dropboard/internal/cache"
	"github.com/dennisdiepolder/dropboard/internal/dashboard"
	"github.com/dennisdiepolder/dropboard/internal/roles"
	"github.com/dennisdiepolder/dropboard/internal/source"
	"github.com/dennisdiepolder/dropboard/internal/storage"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type stubRefresher struct{}

func (stubRefresher) RunOnce(ctx context.Context) types.RefreshNotice {
	return types.RefreshNotice{Type: types.NoticeTypeRefreshed, RecordCount: 5}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zerolog.New(&bytes.Buffer{})
	opts := dashboard.DefaultOptions()
	opts.Location = time.UTC
	sources := dashboard.Sources{dashboard.KindDashboard: source.NewMockSource()}
	roleService := roles.NewService(storage.NewNoopStore(), types.RoleConfig{}, logger)

	handlers := api.Handlers{
		Snapshot: api.NewSnapshotHandler(sources, opts, logger),
		Views:    api.NewViewsHandler(cache.NewViewRegistry[*dashboard.View](), sources, opts, "USD", logger),
		Admin:    api.NewAdminHandler(roleService, stubRefresher{}, logger),
	}

	r := chi.NewRouter()
	r.Use(auth.Middleware(auth.Config{SkipAuth: true}, roleService, logger))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/api", handlers.Routes)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestClientSnapshotsAndRoles(t *testing.T) {
	server := newTestServer(t)
	c := NewClient(server.URL, "")
	ctx := context.Background()

	if err := c.Health(ctx); err != nil {
		t.Fatalf("health failed: %v", err)
	}

	me, err := c.Me(ctx)
	if err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if !me.IsAdmin {
		t.Errorf("expected dev admin, got %+v", me)
	}

	snap, err := c.Dashboard(ctx, url.Values{"range": {"custom"}, "start": {"2025-01-01"}, "end": {"2025-12-31"}})
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if !snap.RangeApplied || snap.Summary.RecordCount != 5 || snap.Summary.TotalDrops != 261 {
		t.Errorf("unexpected snapshot summary %+v", snap.Summary)
	}

	if err := c.AddRole(ctx, types.RoleUser, "new.hire@example.com"); err != nil {
		t.Fatalf("add role failed: %v", err)
	}
	cfg, err := c.Roles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.UserEmails) != 1 || cfg.UserEmails[0] != "new.hire@example.com" {
		t.Errorf("unexpected roles %+v", cfg)
	}

	err = c.AddRole(ctx, types.Role("owner"), "a@example.com")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 status error, got %v", err)
	}

	notice, err := c.Refresh(ctx)
	if err != nil || notice.RecordCount != 5 {
		t.Errorf("unexpected refresh result %+v, %v", notice, err)
	}
}

func TestClientViewLifecycle(t *testing.T) {
	server := newTestServer(t)
	c := NewClient(server.URL, "")
	ctx := context.Background()

	state, err := c.CreateView(ctx, dashboard.KindPerformance)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if state.Kind != dashboard.KindPerformance || state.ID == "" {
		t.Fatalf("unexpected view %+v", state)
	}

	res, err := c.UpdateView(ctx, state.ID, api.ViewPatch{CustomStart: "2025-01-01", CustomEnd: "2025-12-31", ApplyCustom: true})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !res.Applied || res.View.Summary.RecordCount != 5 {
		t.Errorf("expected custom range applied with 5 records, got %+v", res.View.Summary)
	}

	if _, err := c.RefreshView(ctx, state.ID); err != nil {
		t.Errorf("refresh failed: %v", err)
	}

	data, err := c.ExportView(ctx, state.ID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if len(data) < 4 || string(data[:2]) != "PK" {
		t.Error("expected a zip-based workbook")
	}

	if err := c.DeleteView(ctx, state.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_, err = c.GetView(ctx, state.ID)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %v", err)
	}
}
