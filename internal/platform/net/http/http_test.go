package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lifesync/internal/platform/config"
	perr "lifesync/internal/platform/errors"
	phttp "lifesync/internal/platform/net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func serve(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, phttp.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(context.WithValue(req.Context(), chimw.RequestIDKey, "rid-1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env phttp.Envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestResponses(t *testing.T) {
	r := phttp.NewServer(config.New()).Router()
	r.Get("/status", phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.OK(map[string]string{"phase": "idle"})
	}))
	r.Post("/sync", phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.Response{Status: http.StatusAccepted, Body: map[string]bool{"accepted": true}, Header: http.Header{"Location": {"/sync"}}}
	}))
	r.Post("/busy", phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.Error(perr.Conflictf("a sync run is already active"))
	}))
	r.Delete("/cursor", phttp.Handle(func(*http.Request) phttp.Response { return phttp.NoContent() }))

	rec, env := serve(t, r.Mux(), http.MethodGet, "/status")
	if rec.Code != 200 || env.RequestID != "rid-1" || env.Data.(map[string]any)["phase"] != "idle" {
		t.Fatalf("ok = %d %+v", rec.Code, env)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}

	rec, env = serve(t, r.Mux(), http.MethodPost, "/sync")
	if rec.Code != http.StatusAccepted || env.Status != "Accepted" || rec.Header().Get("Location") != "/sync" {
		t.Fatalf("accepted = %d %+v", rec.Code, env)
	}

	rec, env = serve(t, r.Mux(), http.MethodPost, "/busy")
	if rec.Code != http.StatusConflict || env.Code != perr.ErrorCodeConflict || env.Error == "" || env.Data != nil {
		t.Fatalf("error = %d %+v", rec.Code, env)
	}

	rec, _ = serve(t, r.Mux(), http.MethodDelete, "/cursor")
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("no content = %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouter_GroupRouteUse(t *testing.T) {
	r := phttp.NewServer(config.New()).Router()
	r.Route("/api/v1", func(api phttp.Router) {
		api.Group(func(g phttp.Router) {
			g.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					w.Header().Set("X-Guarded", "yes")
					next.ServeHTTP(w, req)
				})
			})
			g.Get("/sync", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "sync") })
		})
		api.Get("/meta/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "ok") })
	})

	rec, _ := serveRaw(r.Mux(), "/api/v1/sync")
	if rec.Body.String() != "sync" || rec.Header().Get("X-Guarded") != "yes" {
		t.Fatalf("group = %q %v", rec.Body.String(), rec.Header())
	}
	rec, _ = serveRaw(r.Mux(), "/api/v1/meta/health")
	if rec.Body.String() != "ok" || rec.Header().Get("X-Guarded") != "" {
		t.Fatalf("group middleware leaked: %v", rec.Header())
	}
}

func serveRaw(h http.Handler, path string) (*httptest.ResponseRecorder, *http.Request) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, req
}

func TestMountProfiler(t *testing.T) {
	on := phttp.NewServer(config.New()).Router()
	phttp.MountProfiler(on, "/debug", true)
	if rec, _ := serveRaw(on.Mux(), "/debug/pprof/cmdline"); rec.Code != http.StatusOK {
		t.Fatalf("enabled = %d", rec.Code)
	}

	off := phttp.NewServer(config.New()).Router()
	phttp.MountProfiler(off, "/debug", false)
	if rec, _ := serveRaw(off.Mux(), "/debug/pprof/cmdline"); rec.Code != http.StatusNotFound {
		t.Fatalf("disabled = %d", rec.Code)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Setenv("CORE_API_PORT", "127.0.0.1:0")
	srv := phttp.NewServer(config.New().Prefix("CORE_"))
	if srv.Addr() != "127.0.0.1:0" {
		t.Fatalf("addr = %q", srv.Addr())
	}
	srv.Router().Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "pong") })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(context.Background(), ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(b) != "pong" {
		t.Fatalf("body = %q", b)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("serve returned %v", err)
	}
}
