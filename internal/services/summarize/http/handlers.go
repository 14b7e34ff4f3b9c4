// Package http provides http transport for summary controls
package http

import (
	stdhttp "net/http"

	"lifesync/internal/modkit/httpkit"
	"lifesync/internal/services/summarize/domain"
)

// Register mounts summary endpoints on the given router
func Register(r httpkit.Router, run domain.Runner) {
	h := &handlers{run: run}

	httpkit.Get(r, "/", h.status)
	httpkit.PostJSON(r, "/", h.start)
	httpkit.Delete(r, "/", h.cancel)
	httpkit.Get(r, "/models", h.models)
}

type handlers struct{ run domain.Runner }

// StatusView is the body of GET /summaries
type StatusView struct {
	domain.Snapshot
	Enabled bool `json:"enabled"`
}

// StartView is the body of POST /summaries
type StartView struct {
	Accepted bool            `json:"accepted"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// @Summary  Summary run state
// @Tags     Summaries
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} StatusView
// @Router   /summaries [get]
func (h *handlers) status(*stdhttp.Request) (any, error) {
	return StatusView{Snapshot: h.run.Snapshot(), Enabled: h.run.Enabled()}, nil
}

// @Summary  Summarize changed documents in the background
// @Tags     Summaries
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body domain.Request true "force_all re-summarizes every document"
// @Success  202 {object} StartView
// @Success  200 {object} StartView "a run is already active"
// @Failure  422 {object} map[string]any "error envelope"
// @Router   /summaries [post]
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

// @Summary  Cancel the active summary run
// @Tags     Summaries
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} map[string]bool
// @Router   /summaries [delete]
func (h *handlers) cancel(*stdhttp.Request) (any, error) {
	return map[string]bool{"cancelled": h.run.Cancel()}, nil
}

// @Summary  Chat models visible to the LLM key
// @Tags     Summaries
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} map[string][]string
// @Failure  503 {object} map[string]any "error envelope"
// @Router   /summaries/models [get]
func (h *handlers) models(r *stdhttp.Request) (any, error) {
	ids, err := h.run.Models(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]any{"models": ids}, nil
}
