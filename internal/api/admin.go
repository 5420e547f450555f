package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dennisdiepolder/dropboard/internal/roles"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Refresher runs one refresh cycle on demand
type Refresher interface {
	RunOnce(ctx context.Context) types.RefreshNotice
}

// AdminHandler serves the role configuration and manual refresh endpoints.
// Routes are expected behind auth.RequireAdmin.
type AdminHandler struct {
	roles     *roles.Service
	refresher Refresher
	logger    zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(roleService *roles.Service, refresher Refresher, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		roles:     roleService,
		refresher: refresher,
		logger:    logger.With().Str("component", "admin_api").Logger(),
	}
}

// GetRoles handles GET /api/admin/roles
func (h *AdminHandler) GetRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.roles.Config())
}

// PutRoles handles PUT /api/admin/roles
func (h *AdminHandler) PutRoles(w http.ResponseWriter, r *http.Request) {
	var cfg types.RoleConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.roles.Save(r.Context(), cfg); err != nil {
		if fields := roles.ValidationErrors(err); fields != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": fields,
			})
			return
		}
		h.logger.Error().Err(err).Msg("failed to save roles")
		writeError(w, http.StatusInternalServerError, "failed to save roles")
		return
	}

	h.logger.Info().
		Int("admins", len(cfg.AdminEmails)).
		Int("users", len(cfg.UserEmails)).
		Msg("role configuration replaced")
	writeJSON(w, http.StatusOK, h.roles.Config())
}

// AddRole handles POST /api/admin/roles/{role}/{email}
func (h *AdminHandler) AddRole(w http.ResponseWriter, r *http.Request) {
	role := types.Role(chi.URLParam(r, "role"))
	if err := h.roles.Add(r.Context(), role, chi.URLParam(r, "email")); err != nil {
		h.roleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.roles.Config())
}

// RemoveRole handles DELETE /api/admin/roles/{role}/{email}
func (h *AdminHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	role := types.Role(chi.URLParam(r, "role"))
	if err := h.roles.Remove(r.Context(), role, chi.URLParam(r, "email")); err != nil {
		h.roleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.roles.Config())
}

// ResetRoles handles POST /api/admin/roles/reset
func (h *AdminHandler) ResetRoles(w http.ResponseWriter, r *http.Request) {
	if err := h.roles.Reset(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("failed to reset roles")
		writeError(w, http.StatusInternalServerError, "failed to reset roles")
		return
	}
	writeJSON(w, http.StatusOK, h.roles.Config())
}

// Refresh handles POST /api/admin/refresh
func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	notice := h.refresher.RunOnce(r.Context())
	h.logger.Info().Int("records", notice.RecordCount).Str("error", notice.Error).Msg("manual refresh")
	writeJSON(w, http.StatusOK, notice)
}

func (h *AdminHandler) roleError(w http.ResponseWriter, err error) {
	if errors.Is(err, roles.ErrUnknownRole) || errors.Is(err, roles.ErrInvalidEmail) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error().Err(err).Msg("role change failed")
	writeError(w, http.StatusInternalServerError, "role change failed")
}
