// Package http provides http transport for sync controls
package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"lifesync/internal/modkit/httpkit"
	perr "lifesync/internal/platform/errors"
	tim "lifesync/internal/platform/time"
	statedom "lifesync/internal/services/state/domain"
	"lifesync/internal/services/sync/domain"
)

// Register mounts sync endpoints on the given router
func Register(r httpkit.Router, run domain.Runner) {
	h := &handlers{run: run}

	httpkit.Get(r, "/", h.status)
	httpkit.PostJSON(r, "/", h.start)
	httpkit.Delete(r, "/", h.cancel)

	httpkit.Get(r, "/cursor", h.cursor)
	httpkit.Delete(r, "/cursor", h.resetCursor)

	httpkit.Get(r, "/days", h.days)
}

type handlers struct{ run domain.Runner }

// StatusView is the body of GET /sync
type StatusView struct {
	domain.Snapshot
	Cursor *time.Time `json:"cursor"`
}

// StartView is the body of POST /sync
type StartView struct {
	Accepted bool            `json:"accepted"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// @Summary  Sync run state and cursor
// @Tags     Sync
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} StatusView
// @Router   /sync [get]
func (h *handlers) status(r *stdhttp.Request) (any, error) {
	cur, err := h.run.Cursor(r.Context())
	if err != nil {
		return nil, err
	}
	return StatusView{Snapshot: h.run.Snapshot(), Cursor: tim.Ptr(cur)}, nil
}

// @Summary  Start a sync run in the background
// @Tags     Sync
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body domain.Request true "mode, optional start date"
// @Success  202 {object} StartView
// @Success  200 {object} StartView "a run is already active"
// @Failure  422 {object} map[string]any "error envelope"
// @Router   /sync [post]
func (h *handlers) start(r *stdhttp.Request, in domain.Request) (any, error) {
	ok, err := h.run.Launch(r.Context(), in)
	if err != nil {
		return nil, err
	}
	v := StartView{Accepted: ok, Snapshot: h.run.Snapshot()}
	if !ok {
		return v, nil
	}
	return httpkit.Accepted(v), nil
}

// @Summary  Cancel the active sync run
// @Tags     Sync
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} map[string]bool
// @Router   /sync [delete]
func (h *handlers) cancel(*stdhttp.Request) (any, error) {
	return map[string]bool{"cancelled": h.run.Cancel()}, nil
}

// @Summary  Stored incremental cursor
// @Tags     Sync
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} map[string]string
// @Router   /sync/cursor [get]
func (h *handlers) cursor(r *stdhttp.Request) (any, error) {
	cur, err := h.run.Cursor(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]*time.Time{"cursor": tim.Ptr(cur)}, nil
}

// @Summary  Clear the cursor so the next incremental run starts over
// @Tags     Sync
// @Security BearerAuth
// @Success  204
// @Failure  409 {object} map[string]any "error envelope"
// @Router   /sync/cursor [delete]
func (h *handlers) resetCursor(r *stdhttp.Request) (any, error) {
	if err := h.run.ResetCursor(r.Context()); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// @Summary  Recent per day ledger rows
// @Tags     Sync
// @Produce  json
// @Security BearerAuth
// @Param    limit query int false "rows to return, 1 to 400" default(30)
// @Success  200 {array} statedom.DayRecord
// @Router   /sync/days [get]
func (h *handlers) days(r *stdhttp.Request) (any, error) {
	limit := 30
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 400 {
			return nil, perr.WithField(perr.InvalidArgf("limit must be between 1 and 400"), "limit")
		}
		limit = n
	}
	rows, err := h.run.RecentDays(r.Context(), limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []statedom.DayRecord{}
	}
	return rows, nil
}
