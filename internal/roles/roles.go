package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dennisdiepolder/dropboard/internal/storage"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownRole  = errors.New("unknown role")
	ErrInvalidEmail = errors.New("invalid email")
)

// Service holds the email -> role configuration in memory and writes every
// change through to the store. Defaults apply until anything is stored.
type Service struct {
	mu       sync.RWMutex
	config   types.RoleConfig
	defaults types.RoleConfig
	store    storage.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewService creates a service seeded with defaults. Call Load to read the
// stored configuration.
func NewService(store storage.Store, defaults types.RoleConfig, logger zerolog.Logger) *Service {
	defaults = normalizeConfig(defaults)
	return &Service{
		config:   cloneConfig(defaults),
		defaults: defaults,
		store:    store,
		validate: validator.New(),
		logger:   logger.With().Str("component", "roles").Logger(),
	}
}

// Load replaces the in-memory configuration with the stored one. An empty
// store keeps the defaults.
func (s *Service) Load(ctx context.Context) error {
	assignments, err := s.store.ListRoleAssignments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load role assignments: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(assignments) == 0 {
		s.config = cloneConfig(s.defaults)
		s.logger.Info().Msg("no stored role assignments, using defaults")
		return nil
	}

	var cfg types.RoleConfig
	for _, a := range assignments {
		switch a.Role {
		case types.RoleAdmin:
			cfg.AdminEmails = append(cfg.AdminEmails, a.Email)
		case types.RoleUser:
			cfg.UserEmails = append(cfg.UserEmails, a.Email)
		default:
			s.logger.Warn().Str("role", string(a.Role)).Str("email", a.Email).Msg("skipping stored assignment with unknown role")
		}
	}
	s.config = normalizeConfig(cfg)
	s.logger.Info().
		Int("admins", len(s.config.AdminEmails)).
		Int("users", len(s.config.UserEmails)).
		Msg("role assignments loaded")
	return nil
}

// Save validates cfg and stores it in place of the current configuration.
// Blank entries are dropped before validation.
func (s *Service) Save(ctx context.Context, cfg types.RoleConfig) error {
	cfg = normalizeConfig(cfg)
	if err := s.validate.Struct(cfg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ReplaceRoleAssignments(ctx, assignments(cfg)); err != nil {
		return fmt.Errorf("failed to save role assignments: %w", err)
	}
	s.config = cfg
	return nil
}

// Config returns a copy of the current configuration
func (s *Service) Config() types.RoleConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConfig(s.config)
}

// RoleFor resolves the role of email. Admin wins when an email is listed
// under both roles; ok is false when it is listed under neither.
func (s *Service) RoleFor(email string) (types.Role, bool) {
	email = normalizeEmail(email)
	if email == "" {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if contains(s.config.AdminEmails, email) {
		return types.RoleAdmin, true
	}
	if contains(s.config.UserEmails, email) {
		return types.RoleUser, true
	}
	return "", false
}

// Add grants role to email. Adding an existing entry is a no-op.
func (s *Service) Add(ctx context.Context, role types.Role, email string) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.list(role)
	if contains(*list, email) {
		return nil
	}
	if err := s.store.PutRoleAssignment(ctx, types.RoleAssignment{Email: email, Role: role}); err != nil {
		return fmt.Errorf("failed to add %s %s: %w", role, email, err)
	}
	*list = append(*list, email)
	s.logger.Info().Str("role", string(role)).Str("email", email).Msg("role granted")
	return nil
}

// Remove revokes role from email. Removing a missing entry is a no-op.
func (s *Service) Remove(ctx context.Context, role types.Role, email string) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.list(role)
	if !contains(*list, email) {
		return nil
	}
	if err := s.store.DeleteRoleAssignment(ctx, types.RoleAssignment{Email: email, Role: role}); err != nil {
		return fmt.Errorf("failed to remove %s %s: %w", role, email, err)
	}
	kept := make([]string, 0, len(*list))
	for _, e := range *list {
		if e != email {
			kept = append(kept, e)
		}
	}
	*list = kept
	s.logger.Info().Str("role", string(role)).Str("email", email).Msg("role revoked")
	return nil
}

// Reset restores and stores the defaults
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ReplaceRoleAssignments(ctx, assignments(s.defaults)); err != nil {
		return fmt.Errorf("failed to reset role assignments: %w", err)
	}
	s.config = cloneConfig(s.defaults)
	s.logger.Info().Msg("role assignments reset to defaults")
	return nil
}

// list must be called with mu held
func (s *Service) list(role types.Role) *[]string {
	if role == types.RoleAdmin {
		return &s.config.AdminEmails
	}
	return &s.config.UserEmails
}

// ValidationErrors maps validator failures to field -> failed tag
func ValidationErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, ve := range verrs {
		out[ve.Field()] = ve.Tag()
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeConfig lowercases, drops blanks and removes duplicates
func normalizeConfig(cfg types.RoleConfig) types.RoleConfig {
	return types.RoleConfig{
		AdminEmails: normalizeList(cfg.AdminEmails),
		UserEmails:  normalizeList(cfg.UserEmails),
	}
}

func normalizeList(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = normalizeEmail(e)
		if e != "" && !contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}

func cloneConfig(cfg types.RoleConfig) types.RoleConfig {
	return types.RoleConfig{
		AdminEmails: append([]string{}, cfg.AdminEmails...),
		UserEmails:  append([]string{}, cfg.UserEmails...),
	}
}

func assignments(cfg types.RoleConfig) []types.RoleAssignment {
	out := make([]types.RoleAssignment, 0, len(cfg.AdminEmails)+len(cfg.UserEmails))
	for _, e := range cfg.AdminEmails {
		out = append(out, types.RoleAssignment{Email: e, Role: types.RoleAdmin})
	}
	for _, e := range cfg.UserEmails {
		out = append(out, types.RoleAssignment{Email: e, Role: types.RoleUser})
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
