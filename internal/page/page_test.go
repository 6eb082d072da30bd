package page

import (
	"strings"
	"testing"
)

func TestGenerate_PlainLoader(t *testing.T) {
	html, err := Generate(Params{ArtifactName: "app.wasm"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	out := string(html)
	if !strings.Contains(out, "instantiateStreaming") {
		t.Error("plain loader should use instantiateStreaming")
	}
	if !strings.Contains(out, "app.wasm") {
		t.Error("page should reference the artifact")
	}
	if strings.Contains(out, "reload-check") {
		t.Error("watch client should not be injected when watch is off")
	}
	if !strings.Contains(out, "<title>app.wasm</title>") {
		t.Error("title should default to the artifact name")
	}
}

func TestGenerate_GlueLoader(t *testing.T) {
	html, err := Generate(Params{
		Title:        "demo",
		ArtifactName: "demo_bg.wasm",
		GlueName:     "demo.js",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	out := string(html)
	if !strings.Contains(out, `import init from './demo.js'`) {
		t.Error("glue loader should import the glue script")
	}
	if strings.Contains(out, "instantiateStreaming") {
		t.Error("glue loader should not instantiate the module directly")
	}
	if !strings.Contains(out, "<title>demo</title>") {
		t.Error("explicit title should win")
	}
}

func TestGenerate_WatchClient(t *testing.T) {
	html, err := Generate(Params{
		ArtifactName:   "app.wasm",
		Watch:          true,
		PollIntervalMs: 250,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	out := string(html)
	if !strings.Contains(out, "/reload-check") {
		t.Error("watch client should poll /reload-check")
	}
	if !strings.Contains(out, "location.reload()") {
		t.Error("watch client should reload the page")
	}
	if !strings.Contains(out, "setInterval(poll, 250)") {
		t.Error("poll interval should be honored")
	}
}
