package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Seednode/truthordare/content"
	"github.com/julienschmidt/httprouter"
)

func newTestRouter(t *testing.T, cfg *Config, loader *ContentLoader) *httprouter.Router {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return newRouter(ctx, cfg, loader, make(chan error, 64))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

func TestStaticRoutes(t *testing.T) {
	cfg := testConfig(writeContent(t), 10)
	mux := newTestRouter(t, cfg, newReadyLoader(t, cfg))

	cases := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"/", http.StatusOK, "text/html", `href="/truthordare"`},
		{"/healthz", http.StatusOK, "text/plain", "Ok"},
		{"/readyz", http.StatusOK, "text/plain", "ready"},
		{"/version", http.StatusOK, "text/plain", "truthordare v" + releaseVersion},
		{"/robots.txt", http.StatusOK, "text/plain", "User-agent: GPTBot"},
		{"/favicon.svg", http.StatusOK, "image/svg+xml", "<svg"},
		{"/assets/truthordare/app.js", http.StatusOK, "text/javascript", "WebSocket"},
		{"/assets/truthordare/app.css", http.StatusOK, "text/css", ".prompt"},
		{"/truthordare/ABCDEFGH", http.StatusOK, "text/html", "app.js"},
		{"/assets/missing.js", http.StatusNotFound, "", ""},
		{"/nowhere", http.StatusNotFound, "text/html", "Not Found"},
	}

	for _, tc := range cases {
		rec := get(t, mux, tc.path)

		if rec.Code != tc.status {
			t.Fatalf("GET %s status = %d, want %d", tc.path, rec.Code, tc.status)
		}
		if !strings.HasPrefix(rec.Header().Get("Content-Type"), tc.contentType) {
			t.Fatalf("GET %s content type = %q, want %q", tc.path, rec.Header().Get("Content-Type"), tc.contentType)
		}
		if !strings.Contains(rec.Body.String(), tc.contains) {
			t.Fatalf("GET %s body does not contain %q", tc.path, tc.contains)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	cfg := testConfig(writeContent(t), 10)
	mux := newTestRouter(t, cfg, newReadyLoader(t, cfg))

	rec := get(t, mux, "/healthz")

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header: %v", rec.Header())
	}
	if rec.Header().Get("Content-Security-Policy") != "default-src 'self'" {
		t.Fatalf("unexpected csp: %q", rec.Header().Get("Content-Security-Policy"))
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("hsts set without tls")
	}
}

// TestNewGameRedirect ensures the game root hands out a fresh game id under the prefix.
func TestNewGameRedirect(t *testing.T) {
	cfg := testConfig(writeContent(t), 10)
	cfg.prefix = "/party/"
	mux := newTestRouter(t, cfg, newReadyLoader(t, cfg))

	rec := get(t, mux, "/party/truthordare")
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d", rec.Code)
	}

	location := rec.Header().Get("Location")
	id := strings.TrimPrefix(location, "/party/truthordare/")
	if id == location || len(id) != 8 {
		t.Fatalf("unexpected redirect %q", location)
	}

	if again := get(t, mux, "/party/truthordare").Header().Get("Location"); again == location {
		t.Fatalf("two redirects shared game id %q", location)
	}

	if rec := get(t, mux, "/party/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("prefixed healthz status = %d", rec.Code)
	}
}

func TestGamePageSetsPlayerCookie(t *testing.T) {
	cfg := testConfig(writeContent(t), 10)
	mux := newTestRouter(t, cfg, newReadyLoader(t, cfg))

	rec := get(t, mux, "/truthordare/ABCDEFGH")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != playerCookieName || len(cookies[0].Value) != 36 {
		t.Fatalf("unexpected cookies: %v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/truthordare/ABCDEFGH", nil)
	req.AddCookie(cookies[0])
	again := httptest.NewRecorder()
	mux.ServeHTTP(again, req)

	if len(again.Result().Cookies()) != 0 {
		t.Fatal("existing player id was replaced")
	}
}

func TestQRCode(t *testing.T) {
	cfg := testConfig(writeContent(t), 10)
	mux := newTestRouter(t, cfg, newReadyLoader(t, cfg))

	rec := get(t, mux, "/truthordare/ABCDEFGH/qr")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("status = %d, content type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	body, _ := io.ReadAll(rec.Body)
	if len(body) < 8 || string(body[1:4]) != "PNG" {
		t.Fatal("body is not a png")
	}
}

func TestReadinessReflectsLoader(t *testing.T) {
	cfg := testConfig(writeContent(t), 10)
	loader := newContentLoader(cfg, content.Anonymous{}, content.NewFileProvider(cfg.contentPath))
	mux := newTestRouter(t, cfg, loader)

	rec := get(t, mux, "/readyz")
	if rec.Code != http.StatusServiceUnavailable || strings.TrimSpace(rec.Body.String()) != "loading" {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}

	loader.Start(context.Background())
	waitForState(t, loader, stateReady)

	if rec := get(t, mux, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("status after load = %d", rec.Code)
	}
}

func TestProfileRoutesOnlyWhenEnabled(t *testing.T) {
	cfg := testConfig(writeContent(t), 10)
	loader := newReadyLoader(t, cfg)

	if rec := get(t, newTestRouter(t, cfg, loader), "/pprof/cmdline"); rec.Code != http.StatusNotFound {
		t.Fatalf("pprof served without --profile: %d", rec.Code)
	}

	cfg.profile = true
	if rec := get(t, newTestRouter(t, cfg, loader), "/pprof/cmdline"); rec.Code != http.StatusOK {
		t.Fatalf("pprof status = %d", rec.Code)
	}
}
