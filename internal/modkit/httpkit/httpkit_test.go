package httpkit

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	phttp "lifesync/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type startIn struct {
	Mode string `json:"mode" validate:"omitempty,oneof=incremental full"`
}

func serve(t *testing.T, h http.Handler, method, path, body string, hdr ...string) (int, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code, rec.Body.String()
}

func TestJSON_BindsValidatesAndWraps(t *testing.T) {
	var got startIn
	h := JSON(func(_ *http.Request, in startIn) (any, error) {
		got = in
		return Accepted(map[string]bool{"accepted": true}), nil
	})
	mux := http.HandlerFunc(h)

	cases := []struct {
		name string
		body string
		code int
		mode string
	}{
		{"empty body binds zero", "", http.StatusAccepted, ""},
		{"valid", `{"mode":"full"}`, http.StatusAccepted, "full"},
		{"bad enum", `{"mode":"sideways"}`, http.StatusBadRequest, ""},
		{"unknown field", `{"nope":1}`, http.StatusBadRequest, ""},
		{"malformed", `{`, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got = startIn{}
			code, body := serve(t, mux, http.MethodPost, "/", tc.body)
			if code != tc.code {
				t.Fatalf("code = %d, want %d (%s)", code, tc.code, body)
			}
			if got.Mode != tc.mode {
				t.Fatalf("mode = %q, want %q", got.Mode, tc.mode)
			}
		})
	}
}

func TestCall_PlainValueAndError(t *testing.T) {
	ok := http.HandlerFunc(Call(func(*http.Request) (any, error) { return map[string]int{"n": 3}, nil }))
	if code, body := serve(t, ok, http.MethodGet, "/", ""); code != http.StatusOK || !strings.Contains(body, `"n":3`) {
		t.Fatalf("ok = %d %s", code, body)
	}
	bad := http.HandlerFunc(Call(func(*http.Request) (any, error) { return nil, io.ErrUnexpectedEOF }))
	if code, _ := serve(t, bad, http.MethodGet, "/", ""); code < 400 {
		t.Fatalf("error path = %d", code)
	}
}

func TestNewTokenPort(t *testing.T) {
	if NewTokenPort() != nil || NewTokenPort(" ", "name=") != nil {
		t.Fatalf("no usable tokens should give a nil port")
	}
	p := NewTokenPort("cron=s3cret", "bare-token")

	cases := []struct {
		header string
		op     string
		fails  bool
	}{
		{"Bearer s3cret", "cron", false},
		{"bearer   bare-token ", "operator", false},
		{"Bearer wrong", "", true},
		{"Bearer", "", true},
		{"Basic s3cret", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		op, err := p.Parse(r)
		if (err != nil) != tc.fails || op != tc.op {
			t.Fatalf("%q: op=%q err=%v", tc.header, op, err)
		}
	}
}

func TestProtectedUnderAPIV1(t *testing.T) {
	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	ping := func(*http.Request) (any, error) { return "pong", nil }

	MountAPIV1(r, nil, func(api Router) {
		Get(api, "/open", ping)
		Protected(api, NewTokenPort("t0k"), func(pr Router) {
			Get(pr, "/closed", ping)
		})
		Protected(api, nil, func(pr Router) {
			Get(pr, "/loopback", ping)
		})
	})

	if code, _ := serve(t, mux, http.MethodGet, "/api/v1/open", ""); code != http.StatusOK {
		t.Fatalf("open = %d", code)
	}
	if code, _ := serve(t, mux, http.MethodGet, "/api/v1/closed", ""); code != http.StatusUnauthorized {
		t.Fatalf("closed without token = %d", code)
	}
	if code, _ := serve(t, mux, http.MethodGet, "/api/v1/closed", "", "Authorization", "Bearer t0k"); code != http.StatusOK {
		t.Fatalf("closed with token = %d", code)
	}
	if code, _ := serve(t, mux, http.MethodGet, "/api/v1/loopback", ""); code != http.StatusOK {
		t.Fatalf("nil port should stay open, got %d", code)
	}
}

func TestCommonStack_Heartbeat(t *testing.T) {
	var h http.Handler = http.NotFoundHandler()
	stack := CommonStack()
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}
	if code, _ := serve(t, h, http.MethodGet, "/health", ""); code != http.StatusOK {
		t.Fatalf("/health = %d", code)
	}
}
