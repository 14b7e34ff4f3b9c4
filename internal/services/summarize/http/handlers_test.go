package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lifesync/internal/core/runstate"
	perr "lifesync/internal/platform/errors"
	phttp "lifesync/internal/platform/net/http"
	"lifesync/internal/services/summarize/domain"

	"github.com/go-chi/chi/v5"
)

type fakeRunner struct {
	active   bool
	launched []domain.Request
	models   []string
	modelErr error
}

func (f *fakeRunner) SummarizeAll(context.Context, bool) (domain.Outcome, error) {
	return domain.Outcome{}, nil
}

func (f *fakeRunner) Launch(_ context.Context, req domain.Request) (bool, error) {
	if f.active {
		return false, nil
	}
	f.launched = append(f.launched, req)
	return true, nil
}

func (f *fakeRunner) Cancel() bool { return f.active }

func (f *fakeRunner) Snapshot() domain.Snapshot {
	if f.active {
		return domain.Snapshot{Phase: runstate.Running, Active: true, Current: 1, Total: 4, Percent: 25}
	}
	return domain.Snapshot{Phase: runstate.Idle}
}

func (f *fakeRunner) Active() bool  { return f.active }
func (f *fakeRunner) Enabled() bool { return true }

func (f *fakeRunner) ValidateCredential(context.Context) domain.CredentialCheck {
	return domain.CredentialCheck{Status: domain.CredentialValid, Models: f.models}
}

func (f *fakeRunner) Models(context.Context) ([]string, error) { return f.models, f.modelErr }

func router(run domain.Runner) stdhttp.Handler {
	mux := chi.NewRouter()
	phttp.AdaptChi(mux).Route("/summaries", func(r phttp.Router) { Register(r, run) })
	return mux
}

func do(t *testing.T, h stdhttp.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, rd))
	var env map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: bad body %q", method, path, rec.Body.String())
	}
	return rec.Code, env
}

func TestStartAndStatus(t *testing.T) {
	run := &fakeRunner{}
	h := router(run)

	if code, env := do(t, h, stdhttp.MethodPost, "/summaries", `{"force":true}`); code != stdhttp.StatusAccepted {
		t.Fatalf("code = %d env = %v", code, env)
	}
	if len(run.launched) != 1 || !run.launched[0].Force {
		t.Fatalf("launched = %+v", run.launched)
	}
	if code, _ := do(t, h, stdhttp.MethodPost, "/summaries", `{"force":"yes"}`); code != stdhttp.StatusBadRequest {
		t.Fatalf("bad body = %d", code)
	}

	run.active = true
	code, env := do(t, h, stdhttp.MethodPost, "/summaries", "")
	if code != stdhttp.StatusOK || env["data"].(map[string]any)["accepted"] != false {
		t.Fatalf("busy start = %d %v", code, env)
	}

	_, env = do(t, h, stdhttp.MethodGet, "/summaries", "")
	data := env["data"].(map[string]any)
	if data["phase"] != "running" || data["enabled"] != true || data["percent"] != float64(25) {
		t.Fatalf("status = %v", data)
	}

	_, env = do(t, h, stdhttp.MethodDelete, "/summaries", "")
	if env["data"].(map[string]any)["cancelled"] != true {
		t.Fatalf("cancel = %v", env)
	}
}

func TestModels(t *testing.T) {
	run := &fakeRunner{models: []string{"gpt-4o", "o3-mini"}}
	h := router(run)

	_, env := do(t, h, stdhttp.MethodGet, "/summaries/models", "")
	if got := env["data"].(map[string]any)["models"].([]any); len(got) != 2 {
		t.Fatalf("models = %v", got)
	}

	run.modelErr = perr.Unavailablef("list models: dial")
	if code, _ := do(t, h, stdhttp.MethodGet, "/summaries/models", ""); code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("unreachable = %d", code)
	}
}
