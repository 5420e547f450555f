package auth

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/dashboard"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

type staticRoles map[string]types.Role

func (s staticRoles) RoleFor(email string) (types.Role, bool) {
	role, ok := s[email]
	return role, ok
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestMiddleware(t *testing.T) {
	roles := staticRoles{
		"boss@example.com":   types.RoleAdmin,
		"worker@example.com": types.RoleUser,
	}
	future := float64(time.Now().Add(time.Hour).Unix())
	past := float64(time.Now().Add(-time.Hour).Unix())

	tests := []struct {
		name       string
		token      string
		query      bool
		wantStatus int
		want       dashboard.Identity
	}{
		{
			name:       "missing token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "configured admin",
			token:      signedToken(t, jwt.MapClaims{"email": "Boss@Example.com", "exp": future}),
			wantStatus: http.StatusOK,
			want:       dashboard.Identity{Email: "boss@example.com", IsAdmin: true},
		},
		{
			name:       "configured user via query parameter",
			token:      signedToken(t, jwt.MapClaims{"email": "worker@example.com"}),
			query:      true,
			wantStatus: http.StatusOK,
			want:       dashboard.Identity{Email: "worker@example.com"},
		},
		{
			name: "token role fallback",
			token: signedToken(t, jwt.MapClaims{
				"email":        "new@example.com",
				"realm_access": map[string]interface{}{"roles": []interface{}{"offline_access", "dropboard-user"}},
			}),
			wantStatus: http.StatusOK,
			want:       dashboard.Identity{Email: "new@example.com"},
		},
		{
			name:       "user without email keeps empty identity",
			token:      signedToken(t, jwt.MapClaims{"groups": []interface{}{"/dropboard/user"}}),
			wantStatus: http.StatusOK,
			want:       dashboard.Identity{},
		},
		{
			name:       "no role",
			token:      signedToken(t, jwt.MapClaims{"email": "stranger@example.com"}),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "expired",
			token:      signedToken(t, jwt.MapClaims{"email": "boss@example.com", "exp": past}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got dashboard.Identity
			handler := Middleware(Config{Env: "development"}, roles, zerolog.New(&bytes.Buffer{}))(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					got = IdentityFrom(r.Context())
				}))

			target := "/api/me"
			if tt.query && tt.token != "" {
				target += "?token=" + tt.token
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if !tt.query && tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got != tt.want {
				t.Errorf("identity = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMiddlewareSkipAuthAndHealth(t *testing.T) {
	var got dashboard.Identity
	handler := Middleware(Config{SkipAuth: true}, staticRoles{}, zerolog.New(&bytes.Buffer{}))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = IdentityFrom(r.Context())
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if rec.Code != http.StatusOK || !got.IsAdmin {
		t.Errorf("expected dev admin, got %d %+v", rec.Code, got)
	}

	strict := Middleware(Config{}, staticRoles{}, zerolog.New(&bytes.Buffer{}))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec = httptest.NewRecorder()
	strict.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health must bypass auth, got %d", rec.Code)
	}
}

func TestVerifyRequiredOutsideDevelopment(t *testing.T) {
	tests := []struct {
		cfg  Config
		want bool
	}{
		{Config{}, false},
		{Config{Env: "development"}, false},
		{Config{Env: "development", VerifySignature: true}, true},
		{Config{Env: "production"}, true},
	}
	for _, tt := range tests {
		if got := tt.cfg.verify(); got != tt.want {
			t.Errorf("%+v.verify() = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		claims *Claims
		want   int
	}{
		{"no user", nil, http.StatusForbidden},
		{"user", &Claims{Email: "w@example.com", Role: types.RoleUser}, http.StatusForbidden},
		{"admin", &Claims{Email: "b@example.com", Role: types.RoleAdmin}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/roles", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestExtractRoleFromMapClaims(t *testing.T) {
	realm := func(roles ...interface{}) jwt.MapClaims {
		return jwt.MapClaims{"realm_access": map[string]interface{}{"roles": roles}}
	}

	tests := []struct {
		name   string
		claims jwt.MapClaims
		groups []string
		want   types.Role
	}{
		{"realm admin", realm("offline_access", "admin"), nil, types.RoleAdmin},
		{"prefixed realm user", realm("Dropboard-User"), nil, types.RoleUser},
		{"admin wins over user", realm("user", "dropboard-admin"), nil, types.RoleAdmin},
		{"suffix is not a role", realm("notadmin", "sysadmin", "superuser"), nil, ""},
		{"group last segment", jwt.MapClaims{}, []string{"/dropboard/admin"}, types.RoleAdmin},
		{"group with admin suffix", jwt.MapClaims{}, []string{"/billing-nonadmin"}, ""},
		{"nested group user", jwt.MapClaims{}, []string{"/billing/team", "/dropboard/user"}, types.RoleUser},
		{"nothing", jwt.MapClaims{}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractRoleFromMapClaims(tt.claims, tt.groups); got != tt.want {
				t.Errorf("role = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddlewareRejectsLookalikeRoles(t *testing.T) {
	handler := Middleware(Config{Env: "development"}, staticRoles{}, zerolog.New(&bytes.Buffer{}))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	token := signedToken(t, jwt.MapClaims{
		"email":        "intruder@example.com",
		"realm_access": map[string]interface{}{"roles": []interface{}{"sysadmin"}},
		"groups":       []interface{}{"/billing-nonadmin"},
	})
	req := httptest.NewRequest(http.MethodGet, "/api/admin/roles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
