package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/auth"
	"github.com/dennisdiepolder/dropboard/internal/dashboard"
	"github.com/dennisdiepolder/dropboard/internal/daterange"
	"github.com/dennisdiepolder/dropboard/internal/filter"
	"github.com/dennisdiepolder/dropboard/internal/metrics"
	"github.com/dennisdiepolder/dropboard/internal/normalize"
	"github.com/dennisdiepolder/dropboard/internal/source"
	"github.com/dennisdiepolder/dropboard/internal/table"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/rs/zerolog"
)

// SnapshotHandler serves stateless dashboard snapshots. Every request
// fetches the source (usually through the row cache) and runs one pipeline
// pass from the query string.
type SnapshotHandler struct {
	sources dashboard.Sources
	opts    dashboard.Options
	logger  zerolog.Logger
	now     func() time.Time
}

// NewSnapshotHandler creates a new SnapshotHandler
func NewSnapshotHandler(sources dashboard.Sources, opts dashboard.Options, logger zerolog.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		sources: sources,
		opts:    opts,
		logger:  logger.With().Str("component", "snapshot_api").Logger(),
		now:     time.Now,
	}
}

// SnapshotResponse is a stateless snapshot plus whether the requested
// range was accepted
type SnapshotResponse struct {
	RangeApplied bool `json:"rangeApplied"`
	dashboard.Snapshot
}

// MeResponse describes the signed-in user
type MeResponse struct {
	Email   string     `json:"email"`
	Name    string     `json:"name,omitempty"`
	Role    types.Role `json:"role"`
	IsAdmin bool       `json:"isAdmin"`
}

// Me handles GET /api/me
func (h *SnapshotHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{
		Email:   claims.Email,
		Name:    claims.Name,
		Role:    claims.Role,
		IsAdmin: claims.Role == types.RoleAdmin,
	})
}

// Dashboard handles GET /api/dashboard
func (h *SnapshotHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, dashboard.KindDashboard)
}

// Performance handles GET /api/performance
func (h *SnapshotHandler) Performance(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, dashboard.KindPerformance)
}

func (h *SnapshotHandler) serve(w http.ResponseWriter, r *http.Request, kind dashboard.Kind) {
	identity := auth.IdentityFrom(r.Context())
	in, applied := inputsFromQuery(r.URL.Query(), identity, h.opts.Location, h.now())

	src := h.sources.For(kind)
	payload, err := src.Fetch(r.Context())
	if err != nil {
		// the failure is part of the snapshot, not an HTTP error
		h.logger.Warn().Err(err).Str("source", src.Name()).Msg("snapshot fetch failed")
		in.Records = []types.DropRecord{}
		in.Error = source.ErrorMessage(err, kind.Fallback())
	} else {
		in.Records = normalize.Normalize(payload, h.opts.Location)
	}

	snap := dashboard.Compute(in, h.opts, h.logger)
	if snap.IdentityFailOpen {
		metrics.Get().RecordIdentityFailOpen()
	}

	writeJSON(w, http.StatusOK, SnapshotResponse{RangeApplied: applied, Snapshot: snap})
}

// inputsFromQuery builds pipeline inputs from the stateless query string.
// The returned flag is false when a requested range was rejected and the
// default range was used instead.
func inputsFromQuery(q url.Values, identity dashboard.Identity, loc *time.Location, now time.Time) (dashboard.Inputs, bool) {
	sel := daterange.NewSelector(loc)
	applied := true
	switch rng := daterange.Range(strings.ToLower(q.Get("range"))); {
	case rng == daterange.Custom:
		sel.SetCustomStart(q.Get("start"))
		sel.SetCustomEnd(q.Get("end"))
		applied = sel.ApplyCustom()
	case rng != "":
		applied = sel.SetRange(rng)
	}

	projector := table.NewProjector(table.RecordColumns(identity.IsAdmin))
	page := tableQuery(projector, q, "")
	grouped := dashboard.GroupedProjector(identity)
	groupedPage := tableQuery(grouped, q, "grouped.")

	return dashboard.Inputs{
		Identity: identity,
		Range:    sel.Range,
		Bounds:   sel.Bounds(now),
		Query: filter.Query{
			Month: q.Get("month"),
			Shift: q.Get("shift"),
			Email: q.Get("email"),
		},
		Selected: q.Get("employee"),
		Table:    projector,
		Page:     page,

		Grouped:     grouped,
		GroupedPage: groupedPage,
	}, applied
}

// tableQuery applies the <prefix>filter.<col>, <prefix>search, <prefix>sort,
// <prefix>dir keys to p and returns the <prefix>page value
func tableQuery[T any](p *table.Projector[T], q url.Values, prefix string) int {
	for key, values := range q {
		if col, ok := strings.CutPrefix(key, prefix+"filter."); ok && len(values) > 0 {
			p.SetFilter(col, values[0])
		}
	}
	p.SetSearch(q.Get(prefix + "search"))
	if key := q.Get(prefix + "sort"); key != "" {
		dir := table.SortDirection(strings.ToLower(q.Get(prefix + "dir")))
		if dir == table.SortNone {
			dir = table.SortAsc
		}
		p.SetSort(key, dir)
	}
	page, _ := strconv.Atoi(q.Get(prefix + "page"))
	return page
}
