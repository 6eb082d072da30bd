package server

import "testing"

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".wasm", "application/wasm"},
		{"wasm", "application/wasm"},
		{".js", "application/javascript"},
		{".css", "text/css; charset=utf-8"},
		{".html", "text/html; charset=utf-8"},
		{".PNG", "image/png"},
		{".unknown", "application/octet-stream"},
		{"", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := ContentTypeFor(tt.ext); got != tt.want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestContentTypeForPath(t *testing.T) {
	if got := ContentTypeForPath("dist/app_bg.wasm"); got != "application/wasm" {
		t.Errorf("ContentTypeForPath = %q, want application/wasm", got)
	}
	if got := ContentTypeForPath("no-extension"); got != "application/octet-stream" {
		t.Errorf("ContentTypeForPath = %q, want octet-stream", got)
	}
}
