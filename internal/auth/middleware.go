package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/dennisdiepolder/dropboard/internal/dashboard"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

type Claims struct {
	Email  string     `json:"email"`
	Name   string     `json:"name"`
	Role   types.Role `json:"role"`
	Groups []string   `json:"groups"`
	jwt.RegisteredClaims
}

type contextKey string

const UserContextKey contextKey = "user"

// RoleResolver looks up the configured role of an email
type RoleResolver interface {
	RoleFor(email string) (types.Role, bool)
}

// Config controls token validation
type Config struct {
	SkipAuth        bool
	Env             string
	VerifySignature bool
	OIDCIssuer      string
}

// verify reports whether signatures must be checked. Anything but a
// development environment always verifies.
func (c Config) verify() bool {
	if c.Env != "development" && c.Env != "" {
		return true
	}
	return c.VerifySignature
}

// JWKSManager handles JWKS fetching and caching
type JWKSManager struct {
	jwks       keyfunc.Keyfunc
	issuerURL  string
	mu         sync.RWMutex
	lastUpdate time.Time
}

var (
	jwksManager *JWKSManager
	jwksOnce    sync.Once
)

// InitJWKS initializes the JWKS manager for token verification
func InitJWKS(issuerURL string) error {
	var initErr error
	jwksOnce.Do(func() {
		jwksManager = &JWKSManager{issuerURL: issuerURL}
		initErr = jwksManager.refresh()
	})
	return initErr
}

// refresh fetches the JWKS from the OIDC provider
func (m *JWKSManager) refresh() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Keycloak layout
	jwksURL := strings.TrimSuffix(m.issuerURL, "/") + "/protocol/openid-connect/certs"

	k, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return fmt.Errorf("failed to create keyfunc: %w", err)
	}

	m.jwks = k
	m.lastUpdate = time.Now()
	return nil
}

func (m *JWKSManager) getKeyfunc() jwt.Keyfunc {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.jwks == nil {
		return nil
	}
	return m.jwks.Keyfunc
}

// Middleware validates bearer tokens and resolves the caller's role. The
// role configured for the email wins; the token's own role claim is the
// fallback. Callers with neither are rejected.
func Middleware(cfg Config, roles RoleResolver, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "auth").Logger()
	if cfg.SkipAuth {
		logger.Warn().Msg("SKIP_AUTH enabled, bypassing authentication")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			if cfg.SkipAuth {
				ctx := WithClaims(r.Context(), &Claims{
					Email: "dev@dropboard.local",
					Name:  "Dev User",
					Role:  types.RoleAdmin,
				})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			tokenString := extractToken(r)
			if tokenString == "" {
				logger.Debug().Str("path", r.URL.Path).Msg("missing authorization token")
				writeError(w, http.StatusUnauthorized, "missing token")
				return
			}

			claims, err := validateToken(tokenString, cfg, logger)
			if err != nil {
				logger.Warn().Err(err).Msg("token validation failed")
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			if role, ok := roles.RoleFor(claims.Email); ok {
				claims.Role = role
			}
			if !claims.Role.Valid() {
				logger.Warn().Str("email", claims.Email).Msg("no role assigned")
				writeError(w, http.StatusForbidden, "no role assigned")
				return
			}

			logger.Debug().
				Str("email", claims.Email).
				Str("role", string(claims.Role)).
				Msg("user authenticated")

			ctx := WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken gets the token from the Authorization header or, for
// websocket upgrades, the token query parameter
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString != authHeader {
			return tokenString
		}
	}

	return r.URL.Query().Get("token")
}

func validateToken(tokenString string, cfg Config, logger zerolog.Logger) (*Claims, error) {
	verifySignature := cfg.verify()

	var token *jwt.Token
	var err error

	if verifySignature {
		token, err = parseAndVerifyToken(tokenString, cfg.OIDCIssuer)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Debug().Msg("JWT signature verification disabled")
		token, _, err = new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
		if err != nil {
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	claims := &Claims{}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = strings.ToLower(strings.TrimSpace(email))
	}
	if name, ok := mapClaims["name"].(string); ok {
		claims.Name = name
	} else if preferredUsername, ok := mapClaims["preferred_username"].(string); ok {
		claims.Name = preferredUsername
	}
	claims.Groups = extractGroupsFromMapClaims(mapClaims)
	claims.Role = extractRoleFromMapClaims(mapClaims, claims.Groups)
	if sub, ok := mapClaims["sub"].(string); ok {
		claims.Subject = sub
	}

	// verified tokens have exp checked by the parser
	if !verifySignature {
		if exp, ok := mapClaims["exp"].(float64); ok {
			expTime := time.Unix(int64(exp), 0)
			claims.ExpiresAt = jwt.NewNumericDate(expTime)
			if expTime.Before(time.Now()) {
				return nil, fmt.Errorf("token expired")
			}
		}
	}

	return claims, nil
}

func parseAndVerifyToken(tokenString, issuer string) (*jwt.Token, error) {
	if jwksManager == nil {
		if issuer == "" {
			return nil, fmt.Errorf("OIDC_ISSUER not configured for JWT verification")
		}
		if err := InitJWKS(issuer); err != nil {
			return nil, fmt.Errorf("failed to initialize JWKS: %w", err)
		}
	}

	keyfunc := jwksManager.getKeyfunc()
	if keyfunc == nil {
		return nil, fmt.Errorf("JWKS not available")
	}

	token, err := jwt.Parse(tokenString, keyfunc, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}))
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return token, nil
}

// tokenRoleNames maps the exact realm role or group names that grant a
// dashboard role
var tokenRoleNames = map[types.Role][]string{
	types.RoleAdmin: {"admin", "dropboard-admin"},
	types.RoleUser:  {"user", "dropboard-user"},
}

// extractRoleFromMapClaims reads a dashboard role from Keycloak realm roles
// or group names. Groups are matched on their last path segment. Admin takes
// priority. Empty when neither is present.
func extractRoleFromMapClaims(mapClaims jwt.MapClaims, groups []string) types.Role {
	var names []string
	if realmAccess, ok := mapClaims["realm_access"].(map[string]interface{}); ok {
		if roles, ok := realmAccess["roles"].([]interface{}); ok {
			for _, role := range roles {
				if roleStr, ok := role.(string); ok {
					names = append(names, roleStr)
				}
			}
		}
	}
	for _, group := range groups {
		names = append(names, group[strings.LastIndex(group, "/")+1:])
	}

	for _, priority := range []types.Role{types.RoleAdmin, types.RoleUser} {
		for _, name := range names {
			for _, accepted := range tokenRoleNames[priority] {
				if strings.EqualFold(name, accepted) {
					return priority
				}
			}
		}
	}
	return ""
}

func extractGroupsFromMapClaims(mapClaims jwt.MapClaims) []string {
	var groups []string
	for _, key := range []string{"groups", "cognito:groups"} {
		if claim, ok := mapClaims[key].([]interface{}); ok {
			for _, group := range claim {
				if groupStr, ok := group.(string); ok {
					groups = append(groups, groupStr)
				}
			}
		}
	}
	return groups
}

// GetUserFromContext retrieves user claims from request context
func GetUserFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	return claims, ok
}

// WithClaims returns ctx carrying claims as the authenticated user
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// HasRole checks if user has specific role
func HasRole(claims *Claims, role types.Role) bool {
	return claims.Role == role
}

// IdentityFrom returns the pipeline identity of the request's user. The
// zero Identity (no email, not admin) is returned when there is none.
func IdentityFrom(ctx context.Context) dashboard.Identity {
	claims, ok := GetUserFromContext(ctx)
	if !ok {
		return dashboard.Identity{}
	}
	return dashboard.Identity{
		Email:   claims.Email,
		IsAdmin: claims.Role == types.RoleAdmin,
	}
}

// RequireAdmin middleware allows only the admin role
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetUserFromContext(r.Context())
		if !ok || !HasRole(claims, types.RoleAdmin) {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
