package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wasmlet/wasmlet/internal/config"
	"github.com/wasmlet/wasmlet/internal/guard"
)

// testServer builds a server over a temp project with a 10-byte
// app.wasm artifact and no glue script.
func testServer(t *testing.T, mutate func(cfg *config.Config)) *Server {
	t.Helper()

	projectDir := t.TempDir()
	cfg, err := config.Load(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if mutate != nil {
		mutate(cfg)
	}

	outputDir := cfg.OutputPath()
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		t.Fatal(err)
	}
	artifactPath := filepath.Join(outputDir, "app.wasm")
	if err := os.WriteFile(artifactPath, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	srv, err := New(Options{
		Config:       cfg,
		ArtifactPath: artifactPath,
		Guard:        guard.New(filepath.Join(t.TempDir(), guard.RecordFileName)),
	})
	if err != nil {
		t.Fatal(err)
	}
	return srv
}

func get(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var b strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		b.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return b.String()
}

func TestHandler_EntryPage(t *testing.T) {
	srv := testServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := get(t, ts, "/")
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if out := body(t, resp); !strings.Contains(out, "app.wasm") {
		t.Errorf("entry page should reference the artifact, got:\n%s", out)
	}
}

func TestHandler_ArtifactBytes(t *testing.T) {
	srv := testServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := get(t, ts, "/app.wasm")
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/wasm" {
		t.Errorf("Content-Type = %q, want application/wasm", ct)
	}
	if out := body(t, resp); out != "0123456789" {
		t.Errorf("body = %q, want the artifact bytes", out)
	}
}

func TestHandler_NotFound(t *testing.T) {
	srv := testServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := get(t, ts, "/missing.txt")
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if out := body(t, resp); !strings.Contains(out, "404") {
		t.Errorf("body = %q, should contain 404", out)
	}
}

func TestHandler_ReloadNotWatching(t *testing.T) {
	srv := testServer(t, nil)
	srv.Signal().MarkPending()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := get(t, ts, "/reload-check")
	if out := body(t, resp); out != "not-watching" {
		t.Errorf("body = %q, want not-watching", out)
	}
}

func TestHandler_ReloadConsumeOnRead(t *testing.T) {
	srv := testServer(t, func(cfg *config.Config) {
		cfg.Watch.Enabled = true
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	srv.Signal().MarkPending()

	first := get(t, ts, "/reload-check")
	if first.Header.Get("X-Reload-Needed") != "true" {
		t.Error("first poll should carry X-Reload-Needed")
	}
	if cc := first.Header.Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
	if out := body(t, first); out != "reload" {
		t.Errorf("first poll body = %q, want reload", out)
	}

	second := get(t, ts, "/reload-check")
	if second.Header.Get("X-Reload-Needed") != "" {
		t.Error("second poll should not carry X-Reload-Needed")
	}
	if out := body(t, second); out != "no-reload" {
		t.Errorf("second poll body = %q, want no-reload", out)
	}
}

func TestHandler_ObservesClientsOnce(t *testing.T) {
	srv := testServer(t, func(cfg *config.Config) {
		cfg.Watch.Enabled = true
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Reuse one connection so both requests share a client address.
	client := &http.Client{}
	for i := 0; i < 2; i++ {
		resp, err := client.Get(ts.URL + "/")
		if err != nil {
			t.Fatal(err)
		}
		body(t, resp)
	}

	if n := srv.Signal().ClientCount(); n != 1 {
		t.Errorf("ClientCount() = %d, want 1 after repeated requests", n)
	}
}

func TestHandler_SPAFallback(t *testing.T) {
	srv := testServer(t, func(cfg *config.Config) {
		cfg.SPA = true
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := get(t, ts, "/client/side/route")
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want the entry page", ct)
	}
}

func TestHandler_Metrics(t *testing.T) {
	srv := testServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := get(t, ts, MetricsPath)
	if resp.StatusCode != 200 {
		t.Fatalf("metrics status = %d, want 200", resp.StatusCode)
	}
	body(t, resp)
}

func TestStart_MissingArtifactIsFatal(t *testing.T) {
	projectDir := t.TempDir()
	cfg, err := config.Load(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Port = freePort(t)

	srv, err := New(Options{
		Config:       cfg,
		ArtifactPath: filepath.Join(projectDir, "absent.wasm"),
		Guard:        guard.New(filepath.Join(t.TempDir(), guard.RecordFileName)),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail when the artifact is missing")
	}
}

func TestStart_PortInUseIsFatal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	srv := testServer(t, func(cfg *config.Config) {
		cfg.Host = "127.0.0.1"
		cfg.Port = port
	})

	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail when the port is taken")
	}
}

func TestStart_PublishesAndServes(t *testing.T) {
	port := freePort(t)
	recordPath := filepath.Join(t.TempDir(), guard.RecordFileName)

	projectDir := t.TempDir()
	cfg, err := config.Load(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Host = "127.0.0.1"
	cfg.Port = port

	outputDir := cfg.OutputPath()
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		t.Fatal(err)
	}
	artifactPath := filepath.Join(outputDir, "app.wasm")
	if err := os.WriteFile(artifactPath, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	g := guard.New(recordPath)
	ready := make(chan Session, 1)
	srv, err := New(Options{
		Config:       cfg,
		ArtifactPath: artifactPath,
		Guard:        g,
		OnReady:      func(s Session) { ready <- s },
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	var session Session
	select {
	case session = <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	if session.PID != os.Getpid() {
		t.Errorf("session PID = %d, want %d", session.PID, os.Getpid())
	}
	if session.ID == "" {
		t.Error("session ID should be set")
	}

	pid, ok, err := g.ReadRecord()
	if err != nil || !ok || pid != os.Getpid() {
		t.Errorf("record = (%d, %v, %v), want our PID published", pid, ok, err)
	}

	resp, err := http.Get(cfg.URL() + "/app.wasm")
	if err != nil {
		t.Fatalf("request against running server failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body(t, resp)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned %v after cancellation", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}
