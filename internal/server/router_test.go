package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testRouter builds a router over temp directories with a 10-byte
// artifact named app.wasm.
func testRouter(t *testing.T) (*Router, string) {
	t.Helper()

	outputDir := t.TempDir()
	assetsDir := t.TempDir()

	artifactPath := filepath.Join(outputDir, "app.wasm")
	if err := os.WriteFile(artifactPath, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	rt := NewRouter(nil)
	rt.ArtifactPath = artifactPath
	rt.ArtifactName = "app.wasm"
	rt.OutputDir = outputDir
	rt.EntryPage = []byte("<html>entry</html>")
	rt.Reload = NewSignal()
	rt.Assets = NewAssetResolver(assetsDir, nil)

	return rt, outputDir
}

func TestResolve_EntryPage(t *testing.T) {
	rt, _ := testRouter(t)

	res := rt.Resolve("/", "127.0.0.1:5000")
	if res.Kind != RouteEntryPage || res.Status != 200 {
		t.Fatalf("Resolve(/) = kind %v status %d", res.Kind, res.Status)
	}
	if res.ContentType != mimeHTML {
		t.Errorf("ContentType = %q, want HTML", res.ContentType)
	}
	if string(res.Body) != "<html>entry</html>" {
		t.Errorf("Body = %q", res.Body)
	}
}

func TestResolve_EntryPageRecordsClientInWatchMode(t *testing.T) {
	rt, _ := testRouter(t)
	rt.Watch = true

	rt.Resolve("/", "127.0.0.1:5000")
	rt.Resolve("/", "127.0.0.1:5000")
	rt.Resolve("/", "127.0.0.1:5001")

	clients := rt.Reload.Clients()
	if len(clients) != 2 {
		t.Fatalf("clients = %v, want exactly one entry per address", clients)
	}
}

func TestResolve_EntryPageIgnoresClientWhenNotWatching(t *testing.T) {
	rt, _ := testRouter(t)

	rt.Resolve("/", "127.0.0.1:5000")
	if rt.Reload.ClientCount() != 0 {
		t.Error("clients should not be recorded outside watch mode")
	}
}

func TestResolve_PrimaryArtifact(t *testing.T) {
	rt, _ := testRouter(t)

	res := rt.Resolve("/app.wasm", "c")
	if res.Kind != RoutePrimaryArtifact || res.Status != 200 {
		t.Fatalf("kind %v status %d", res.Kind, res.Status)
	}
	if res.ContentType != mimeWASM {
		t.Errorf("ContentType = %q, want %q", res.ContentType, mimeWASM)
	}
	if len(res.Body) != 10 {
		t.Errorf("Body length = %d, want the 10 artifact bytes", len(res.Body))
	}
}

func TestResolve_GlueScript(t *testing.T) {
	rt, outputDir := testRouter(t)
	rt.GlueName = "app.js"
	if err := os.WriteFile(filepath.Join(outputDir, "app.js"), []byte("glue"), 0644); err != nil {
		t.Fatal(err)
	}

	res := rt.Resolve("/app.js", "c")
	if res.Kind != RouteGlueScript || res.Status != 200 {
		t.Fatalf("kind %v status %d", res.Kind, res.Status)
	}
	if res.ContentType != mimeJS {
		t.Errorf("ContentType = %q, want %q", res.ContentType, mimeJS)
	}
}

func TestResolve_GlueScriptNotConfigured(t *testing.T) {
	rt, outputDir := testRouter(t)
	if err := os.WriteFile(filepath.Join(outputDir, "app.js"), []byte("glue"), 0644); err != nil {
		t.Fatal(err)
	}

	// Without a configured glue name, /app.js falls through to the
	// output directory instead.
	res := rt.Resolve("/app.js", "c")
	if res.Kind != RouteOutputFile {
		t.Errorf("kind = %v, want OutputFile fallthrough", res.Kind)
	}
}

func TestResolve_ReloadNotWatching(t *testing.T) {
	rt, _ := testRouter(t)
	rt.Reload.MarkPending()

	for _, p := range []string{"/reload", "/reload-check"} {
		res := rt.Resolve(p, "c")
		if res.Kind != RouteReloadPoll || res.Status != 200 {
			t.Fatalf("kind %v status %d for %s", res.Kind, res.Status, p)
		}
		if string(res.Body) != "not-watching" {
			t.Errorf("body = %q, want not-watching regardless of flag state", res.Body)
		}
	}

	if !rt.Reload.Pending() {
		t.Error("flag must not be consumed when watch mode is off")
	}
}

func TestResolve_ReloadConsumeOnRead(t *testing.T) {
	rt, _ := testRouter(t)
	rt.Watch = true
	rt.Reload.MarkPending()

	first := rt.Resolve("/reload-check", "c")
	if string(first.Body) != "reload" || !first.ReloadNeeded {
		t.Fatalf("first poll = %q (needed=%v), want reload", first.Body, first.ReloadNeeded)
	}

	second := rt.Resolve("/reload-check", "c")
	if string(second.Body) != "no-reload" || second.ReloadNeeded {
		t.Fatalf("second poll = %q (needed=%v), want no-reload", second.Body, second.ReloadNeeded)
	}
}

func TestResolve_AssetFile(t *testing.T) {
	rt, _ := testRouter(t)
	if err := os.WriteFile(filepath.Join(rt.Assets.Root, "logo.svg"), []byte("<svg/>"), 0644); err != nil {
		t.Fatal(err)
	}

	res := rt.Resolve("/assets/logo.svg", "c")
	if res.Kind != RouteAssetFile || res.Status != 200 {
		t.Fatalf("kind %v status %d", res.Kind, res.Status)
	}
	if res.ContentType != "image/svg+xml" {
		t.Errorf("ContentType = %q", res.ContentType)
	}

	missing := rt.Resolve("/assets/nope.svg", "c")
	if missing.Status != 404 {
		t.Errorf("missing asset status = %d, want 404", missing.Status)
	}
}

func TestResolve_OutputFile(t *testing.T) {
	rt, outputDir := testRouter(t)
	if err := os.Mkdir(filepath.Join(outputDir, "js"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "js", "extra.js"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	res := rt.Resolve("/js/extra.js", "c")
	if res.Kind != RouteOutputFile || res.Status != 200 {
		t.Fatalf("kind %v status %d", res.Kind, res.Status)
	}
	if res.ContentType != mimeJS {
		t.Errorf("ContentType = %q", res.ContentType)
	}
}

func TestResolve_TraversalRejected(t *testing.T) {
	rt, _ := testRouter(t)

	res := rt.Resolve("/../guard.go", "c")
	if res.Kind != RouteNotFound || res.Status != 404 {
		t.Errorf("traversal = kind %v status %d, want NotFound", res.Kind, res.Status)
	}
}

func TestResolve_GeneratedSuffixFallback(t *testing.T) {
	rt, outputDir := testRouter(t)
	if err := os.WriteFile(filepath.Join(outputDir, "mypkg_bg.wasm"), []byte("wasm!"), 0644); err != nil {
		t.Fatal(err)
	}

	// The requested name does not exist; the scan finds the one file
	// with the generated suffix.
	res := rt.Resolve("/some_other_bg.wasm", "c")
	if res.Kind != RoutePrimaryArtifact || res.Status != 200 {
		t.Fatalf("kind %v status %d", res.Kind, res.Status)
	}
	if res.ContentType != mimeWASM {
		t.Errorf("ContentType = %q, want %q", res.ContentType, mimeWASM)
	}
	if string(res.Body) != "wasm!" {
		t.Errorf("Body = %q, want scanned file content", res.Body)
	}
}

func TestResolve_GeneratedSuffixMiss(t *testing.T) {
	rt, _ := testRouter(t)

	res := rt.Resolve("/some_other_bg.wasm", "c")
	if res.Status != 404 {
		t.Errorf("status = %d, want 404 when no suffix match exists", res.Status)
	}
}

func TestResolve_BasenameFallback(t *testing.T) {
	rt, outputDir := testRouter(t)
	if err := os.WriteFile(filepath.Join(outputDir, "styles.css"), []byte("b{}"), 0644); err != nil {
		t.Fatal(err)
	}

	res := rt.Resolve("/deep/nested/styles.css", "c")
	if res.Kind != RouteOutputFile || res.Status != 200 {
		t.Fatalf("kind %v status %d, want basename scan hit", res.Kind, res.Status)
	}
}

func TestResolve_SPAFallback(t *testing.T) {
	rt, _ := testRouter(t)
	rt.SPA = true

	res := rt.Resolve("/client/route", "c")
	if res.Kind != RouteEntryPage || res.Status != 200 {
		t.Fatalf("kind %v status %d, want entry page", res.Kind, res.Status)
	}
	if string(res.Body) != "<html>entry</html>" {
		t.Errorf("Body = %q", res.Body)
	}
}

func TestResolve_NotFound(t *testing.T) {
	rt, _ := testRouter(t)

	res := rt.Resolve("/missing.txt", "c")
	if res.Kind != RouteNotFound || res.Status != 404 {
		t.Fatalf("kind %v status %d", res.Kind, res.Status)
	}
	if !strings.Contains(string(res.Body), "404") {
		t.Errorf("Body = %q, should mention 404", res.Body)
	}
}

func TestRouteKind_String(t *testing.T) {
	tests := []struct {
		kind RouteKind
		want string
	}{
		{RouteEntryPage, "entry_page"},
		{RoutePrimaryArtifact, "primary_artifact"},
		{RouteGlueScript, "glue_script"},
		{RouteReloadPoll, "reload_poll"},
		{RouteAssetFile, "asset_file"},
		{RouteOutputFile, "output_file"},
		{RouteNotFound, "not_found"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
