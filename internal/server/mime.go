package server

import (
	"path"
	"strings"
)

// MIME types the dev server cares about explicitly.
const (
	mimeHTML  = "text/html; charset=utf-8"
	mimeWASM  = "application/wasm"
	mimeJS    = "application/javascript"
	mimePlain = "text/plain; charset=utf-8"
	mimeOctet = "application/octet-stream"
)

// contentTypes maps file extensions to MIME types.
var contentTypes = map[string]string{
	".html":  mimeHTML,
	".htm":   mimeHTML,
	".js":    mimeJS,
	".mjs":   mimeJS,
	".css":   "text/css; charset=utf-8",
	".json":  "application/json",
	".wasm":  mimeWASM,
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".svg":   "image/svg+xml",
	".gif":   "image/gif",
	".ico":   "image/x-icon",
	".webp":  "image/webp",
	".txt":   mimePlain,
	".xml":   "application/xml",
	".map":   "application/json",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
}

// ContentTypeFor maps a file extension to a MIME type.
// Unmapped extensions resolve to application/octet-stream, never an error.
func ContentTypeFor(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return mimeOctet
}

// ContentTypeForPath maps a file path to a MIME type via its extension.
func ContentTypeForPath(p string) string {
	return ContentTypeFor(path.Ext(p))
}
