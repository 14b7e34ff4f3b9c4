package module

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"lifesync/internal/adapters/docstore"
	"lifesync/internal/core/runstate"
	"lifesync/internal/modkit"
	"lifesync/internal/modkit/module"
	"lifesync/internal/platform/config"
	perr "lifesync/internal/platform/errors"
	phttp "lifesync/internal/platform/net/http"
	"lifesync/internal/services/state/repo"

	"github.com/go-chi/chi/v5"
)

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(config.New(), "/data/logs/")
	if o.SourceDir != "/data/logs" || o.SummaryDir != filepath.Join("/data/logs", "summaries") {
		t.Fatalf("dirs = %q %q", o.SourceDir, o.SummaryDir)
	}
	if o.Enabled || o.LLM.Model != "gpt-4o-mini" || o.LLM.Temperature != 0.3 || o.LLM.MaxTokens != 1500 {
		t.Fatalf("options = %+v", o)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestFromConfig_Overrides(t *testing.T) {
	t.Setenv("CORE_SUMMARY_ENABLED", "true")
	t.Setenv("CORE_SUMMARY_DIR", "/data/digests")
	t.Setenv("CORE_SUMMARY_TEMPERATURE", "5")
	t.Setenv("SERVICE_LLM_MODEL", "o3-mini")

	o := FromConfig(config.New(), "/data/logs")
	if !o.Enabled || o.SummaryDir != "/data/digests" || o.LLM.Model != "o3-mini" {
		t.Fatalf("options = %+v", o)
	}
	if err := o.Validate(); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("temperature 5 should fail validation, got %v", err)
	}
}

func TestNew_MountsRoutesAndRunsWithoutKey(t *testing.T) {
	t.Setenv("SERVICE_LLM_KEY", "")
	dir := t.TempDir()
	o := FromConfig(config.New(), dir)

	m, err := New(modkit.Deps{}, o, repo.NewFile(docstore.New(), t.TempDir()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if module.MustPortsOf[Ports](m).Runner == nil || m.Name() != "summarize" {
		t.Fatalf("ports not exposed")
	}

	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/summaries", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /summaries = %d %s", rec.Code, rec.Body.String())
	}

	out, err := m.Runner().SummarizeAll(context.Background(), false)
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) || out.Phase != runstate.Failed {
		t.Fatalf("SummarizeAll without key = %+v, %v", out, err)
	}
	if chk := m.Runner().ValidateCredential(context.Background()); chk.Usable() {
		t.Fatalf("missing key reported usable: %+v", chk)
	}
}
