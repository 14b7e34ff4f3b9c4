// Package http provides credential checks and the notification feed
package http

import (
	stdctx "context"
	stdhttp "net/http"
	"strconv"

	"lifesync/internal/adapters/lifelog"
	"lifesync/internal/modkit/httpkit"
	perr "lifesync/internal/platform/errors"
	"lifesync/internal/platform/notify"
	sumdom "lifesync/internal/services/summarize/domain"
)

// LifelogChecker tests the lifelog API key
type LifelogChecker interface {
	CheckCredential(ctx stdctx.Context) lifelog.Check
}

// LLMChecker tests the LLM API key
type LLMChecker interface {
	ValidateCredential(ctx stdctx.Context) sumdom.CredentialCheck
}

// Feed returns recent notices, newest first
type Feed interface {
	Recent(limit int) []notify.Notice
}

// Deps are the handler dependencies
type Deps struct {
	Lifelog LifelogChecker
	LLM     LLMChecker
	Feed    Feed
}

// Register mounts the control routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.Post(r, "/checks/lifelog", h.checkLifelog)
	httpkit.Post(r, "/checks/llm", h.checkLLM)
	httpkit.Get(r, "/notifications", h.notifications)
}

type handlers struct{ deps Deps }

// @Summary  Test the lifelog API key
// @Tags     Control
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} lifelog.Check
// @Router   /checks/lifelog [post]
func (h *handlers) checkLifelog(r *stdhttp.Request) (any, error) {
	return h.deps.Lifelog.CheckCredential(r.Context()), nil
}

// @Summary  Test the LLM API key
// @Tags     Control
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} sumdom.CredentialCheck
// @Router   /checks/llm [post]
func (h *handlers) checkLLM(r *stdhttp.Request) (any, error) {
	return h.deps.LLM.ValidateCredential(r.Context()), nil
}

// @Summary  Recent notices, newest first
// @Tags     Control
// @Produce  json
// @Security BearerAuth
// @Param    limit query int false "notices to return, 1 to 200" default(20)
// @Success  200 {array} notify.Notice
// @Router   /notifications [get]
func (h *handlers) notifications(r *stdhttp.Request) (any, error) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 200 {
			return nil, perr.WithField(perr.InvalidArgf("limit must be between 1 and 200"), "limit")
		}
		limit = n
	}
	if h.deps.Feed == nil {
		return []notify.Notice{}, nil
	}
	return h.deps.Feed.Recent(limit), nil
}
