package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dennisdiepolder/dropboard/internal/auth"
	"github.com/dennisdiepolder/dropboard/internal/cache"
	"github.com/dennisdiepolder/dropboard/internal/dashboard"
	"github.com/dennisdiepolder/dropboard/internal/daterange"
	"github.com/dennisdiepolder/dropboard/internal/filter"
	"github.com/dennisdiepolder/dropboard/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ViewsHandler manages live dashboard views. A view belongs to the email
// that created it and is invisible to everyone else.
type ViewsHandler struct {
	views    *cache.ViewRegistry[*dashboard.View]
	sources  dashboard.Sources
	opts     dashboard.Options
	currency string
	logger   zerolog.Logger
}

// NewViewsHandler creates a new ViewsHandler
func NewViewsHandler(views *cache.ViewRegistry[*dashboard.View], sources dashboard.Sources, opts dashboard.Options, currency string, logger zerolog.Logger) *ViewsHandler {
	return &ViewsHandler{
		views:    views,
		sources:  sources,
		opts:     opts,
		currency: currency,
		logger:   logger.With().Str("component", "views_api").Logger(),
	}
}

// CreateViewRequest is the body of POST /api/views
type CreateViewRequest struct {
	Kind string `json:"kind"`
}

// ViewPatch is a batch of view input changes. Nil and empty fields are
// left alone. Clears run before sets.
type ViewPatch struct {
	Range        daterange.Range   `json:"range,omitempty"`
	CustomStart  string            `json:"customStart,omitempty"`
	CustomEnd    string            `json:"customEnd,omitempty"`
	ApplyCustom  bool              `json:"applyCustom,omitempty"`
	Selected     *string           `json:"selected,omitempty"`
	Query        *filter.Query     `json:"query,omitempty"`
	Filters      map[string]string `json:"filters,omitempty"`
	ToggleSort   string            `json:"toggleSort,omitempty"`
	Search       *string           `json:"search,omitempty"`
	Page         *int              `json:"page,omitempty"`
	ClearFilters bool              `json:"clearFilters,omitempty"`
	ClearSort    bool              `json:"clearSort,omitempty"`

	// By-date table
	GroupedFilters    map[string]string `json:"groupedFilters,omitempty"`
	ToggleGroupedSort string            `json:"toggleGroupedSort,omitempty"`
	GroupedPage       *int              `json:"groupedPage,omitempty"`
}

// PatchResponse reports whether a range change was accepted alongside the
// resulting view
type PatchResponse struct {
	Applied bool                `json:"applied"`
	View    dashboard.ViewState `json:"view"`
}

// Create handles POST /api/views
func (h *ViewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateViewRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	identity := auth.IdentityFrom(r.Context())
	kind := dashboard.ParseKind(req.Kind)
	if kind == dashboard.KindPerformance && !identity.IsAdmin {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}

	id := uuid.New().String()
	view := dashboard.NewView(id, kind, identity, h.opts, h.logger)
	h.views.Put(id, identity.Email, view)
	metrics.Get().RecordViewCreated()
	metrics.Get().SetActiveViews(h.views.Count())

	// a failed first fetch is reported inside the view state
	view.Refresh(r.Context(), h.sources.For(kind))

	h.logger.Info().Str("view_id", id).Str("kind", string(kind)).Str("owner", identity.Email).Msg("view created")
	writeJSON(w, http.StatusCreated, view.State())
}

// Get handles GET /api/views/{id}
func (h *ViewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view.State())
}

// Update handles PATCH /api/views/{id}
func (h *ViewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	view, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var patch ViewPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if patch.ClearFilters {
		view.ClearFilters()
	}
	if patch.ClearSort {
		view.ClearSort()
	}

	applied := true
	view.SetCustomDraft(patch.CustomStart, patch.CustomEnd)
	switch {
	case patch.ApplyCustom || patch.Range == daterange.Custom:
		applied = view.ApplyCustom()
	case patch.Range != "":
		applied = view.SetRange(patch.Range)
	}

	if patch.Selected != nil {
		view.Select(*patch.Selected)
	}
	if patch.Query != nil {
		view.SetQuery(*patch.Query)
	}
	for key, value := range patch.Filters {
		if !view.SetColumnFilter(key, value) {
			writeError(w, http.StatusBadRequest, "unknown column: "+key)
			return
		}
	}
	if patch.ToggleSort != "" && !view.ToggleSort(patch.ToggleSort) {
		writeError(w, http.StatusBadRequest, "unknown column: "+patch.ToggleSort)
		return
	}
	if patch.Search != nil {
		view.SetSearch(*patch.Search)
	}
	if patch.Page != nil {
		view.SetPage(*patch.Page)
	}
	for key, value := range patch.GroupedFilters {
		if !view.SetGroupedFilter(key, value) {
			writeError(w, http.StatusBadRequest, "unknown column: "+key)
			return
		}
	}
	if patch.ToggleGroupedSort != "" && !view.ToggleGroupedSort(patch.ToggleGroupedSort) {
		writeError(w, http.StatusBadRequest, "unknown column: "+patch.ToggleGroupedSort)
		return
	}
	if patch.GroupedPage != nil {
		view.SetGroupedPage(*patch.GroupedPage)
	}

	writeJSON(w, http.StatusOK, PatchResponse{Applied: applied, View: view.State()})
}

// Refresh handles POST /api/views/{id}/refresh
func (h *ViewsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := view.Refresh(r.Context(), h.sources.For(view.Kind())); err != nil {
		h.logger.Warn().Err(err).Str("view_id", view.ID()).Msg("view refresh failed")
	}
	writeJSON(w, http.StatusOK, view.State())
}

// Delete handles DELETE /api/views/{id}
func (h *ViewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFrom(r.Context())
	if !h.views.Delete(chi.URLParam(r, "id"), identity.Email) {
		writeError(w, http.StatusNotFound, cache.ErrViewNotFound.Error())
		return
	}
	metrics.Get().SetActiveViews(h.views.Count())
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/views/{id}/export.xlsx
func (h *ViewsHandler) Export(w http.ResponseWriter, r *http.Request) {
	view, ok := h.lookup(w, r)
	if !ok {
		return
	}

	state, rows := view.ExportRows()
	f, err := buildWorkbook(state, rows, h.currency)
	if err != nil {
		h.logger.Error().Err(err).Str("view_id", view.ID()).Msg("failed to build workbook")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename(state))
	if err := f.Write(w); err != nil {
		h.logger.Error().Err(err).Str("view_id", view.ID()).Msg("failed to write workbook")
	}
}

func (h *ViewsHandler) lookup(w http.ResponseWriter, r *http.Request) (*dashboard.View, bool) {
	identity := auth.IdentityFrom(r.Context())
	view, err := h.views.Get(chi.URLParam(r, "id"), identity.Email)
	if err != nil {
		if errors.Is(err, cache.ErrViewNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return nil, false
	}
	return view, true
}
