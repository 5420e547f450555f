package roles

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dennisdiepolder/dropboard/internal/storage"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/rs/zerolog"
)

var defaults = types.RoleConfig{
	AdminEmails: []string{"Boss@Example.com"},
	UserEmails:  []string{"worker@example.com", " "},
}

func newTestService(t *testing.T) (*Service, storage.Store) {
	t.Helper()
	store, err := storage.NewSQLiteStore(context.Background(), ":memory:", zerolog.New(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(store, defaults, zerolog.New(&bytes.Buffer{})), store
}

func TestRoleFor(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Add(context.Background(), types.RoleUser, "boss@example.com")

	tests := []struct {
		email string
		want  types.Role
		ok    bool
	}{
		{"boss@example.com", types.RoleAdmin, true},
		{"  BOSS@example.com ", types.RoleAdmin, true},
		{"Worker@Example.com", types.RoleUser, true},
		{"stranger@example.com", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got, ok := svc.RoleFor(tt.email)
			if got != tt.want || ok != tt.ok {
				t.Errorf("RoleFor(%q) = %q, %v; want %q, %v", tt.email, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestAddRemovePersist(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	if err := svc.Add(ctx, types.RoleAdmin, " New.Admin@Example.com "); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := svc.Add(ctx, types.RoleAdmin, "new.admin@example.com"); err != nil {
		t.Fatalf("duplicate Add() error = %v", err)
	}
	want := []string{"boss@example.com", "new.admin@example.com"}
	if got := svc.Config().AdminEmails; !reflect.DeepEqual(got, want) {
		t.Errorf("AdminEmails = %v, want %v", got, want)
	}

	if err := svc.Remove(ctx, types.RoleAdmin, "NEW.ADMIN@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, ok := svc.RoleFor("new.admin@example.com"); ok {
		t.Error("expected role revoked")
	}

	svc.Add(ctx, types.RoleUser, "kept@example.com")
	reloaded := NewService(store, defaults, zerolog.New(&bytes.Buffer{}))
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if role, ok := reloaded.RoleFor("kept@example.com"); !ok || role != types.RoleUser {
		t.Errorf("expected stored user after reload, got %q %v", role, ok)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Add(ctx, "owner", "a@example.com"); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole, got %v", err)
	}
	if err := svc.Remove(ctx, "owner", "a@example.com"); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole, got %v", err)
	}
	if err := svc.Add(ctx, types.RoleUser, "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestLoadEmptyStoreKeepsDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	cfg := svc.Config()
	if !reflect.DeepEqual(cfg.AdminEmails, []string{"boss@example.com"}) || !reflect.DeepEqual(cfg.UserEmails, []string{"worker@example.com"}) {
		t.Errorf("expected normalized defaults, got %+v", cfg)
	}
}

func TestSaveValidatesAndReset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	err := svc.Save(ctx, types.RoleConfig{AdminEmails: []string{"ok@example.com", "broken"}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if fields := ValidationErrors(err); fields["AdminEmails[1]"] != "email" {
		t.Errorf("unexpected validation fields %v", fields)
	}
	if got := svc.Config().AdminEmails; !reflect.DeepEqual(got, []string{"boss@example.com"}) {
		t.Errorf("failed save must not change config, got %v", got)
	}

	if err := svc.Save(ctx, types.RoleConfig{AdminEmails: []string{"A@example.com"}, UserEmails: []string{"b@example.com", "B@example.com"}}); err != nil {
		t.Fatal(err)
	}
	cfg := svc.Config()
	if !reflect.DeepEqual(cfg.UserEmails, []string{"b@example.com"}) {
		t.Errorf("expected deduplicated users, got %v", cfg.UserEmails)
	}
	if _, ok := svc.RoleFor("boss@example.com"); ok {
		t.Error("expected old admin replaced")
	}

	if err := svc.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if role, _ := svc.RoleFor("boss@example.com"); role != types.RoleAdmin {
		t.Error("expected defaults restored")
	}
}
