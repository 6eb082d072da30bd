package server

import (
	"log/slog"
	"os"
	"path"
	"strings"
)

// RouteKind tags the outcome of resolving a request path.
type RouteKind int

const (
	RouteEntryPage RouteKind = iota
	RoutePrimaryArtifact
	RouteGlueScript
	RouteReloadPoll
	RouteAssetFile
	RouteOutputFile
	RouteNotFound
)

// String returns the route kind name, used as a metrics label.
func (k RouteKind) String() string {
	switch k {
	case RouteEntryPage:
		return "entry_page"
	case RoutePrimaryArtifact:
		return "primary_artifact"
	case RouteGlueScript:
		return "glue_script"
	case RouteReloadPoll:
		return "reload_poll"
	case RouteAssetFile:
		return "asset_file"
	case RouteOutputFile:
		return "output_file"
	default:
		return "not_found"
	}
}

// Reload poll answers, written verbatim as response bodies.
const (
	answerNotWatching = "not-watching"
	answerReload      = "reload"
	answerNoReload    = "no-reload"
)

// RouteResult is the outcome of resolving a request path.
type RouteResult struct {
	Kind        RouteKind
	Status      int
	ContentType string
	Body        []byte

	// ReloadNeeded is set for RouteReloadPoll when the pending flag
	// was observed (and consumed) by this resolution.
	ReloadNeeded bool

	// Err carries a read failure for an existing file; the request
	// becomes a 500 instead of a 404.
	Err error
}

// Router resolves incoming request paths to content.
//
// Resolution is a pure function of (path, reload state, directory
// contents), except for the two documented mutations: observing the
// client on the entry page in watch mode, and consuming the pending
// flag on a reload poll.
type Router struct {
	// ArtifactPath is the primary WASM artifact on disk.
	ArtifactPath string

	// ArtifactName is its URL-facing file name.
	ArtifactName string

	// GlueName is the optional glue script file name; empty when the
	// build produces a bare module.
	GlueName string

	// OutputDir is served for otherwise-unmatched paths.
	OutputDir string

	// Watch enables reload polling and client observation.
	Watch bool

	// SPA re-serves the entry page for unresolved paths.
	SPA bool

	// EntryPage is the generated entry HTML.
	EntryPage []byte

	// Reload is the shared reload signal.
	Reload *Signal

	// Assets resolves /assets/ requests.
	Assets *AssetResolver

	logger *slog.Logger
}

// NewRouter wires a router; the logger may be nil.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger}
}

// Resolve maps a request path to content, in fixed priority order.
func (rt *Router) Resolve(reqPath, clientAddr string) RouteResult {
	// 1. Entry page.
	if reqPath == "/" {
		if rt.Watch {
			rt.Reload.ObserveClient(clientAddr)
		}
		return RouteResult{
			Kind:        RouteEntryPage,
			Status:      200,
			ContentType: mimeHTML,
			Body:        rt.EntryPage,
		}
	}

	// 2. Primary artifact, by exact file name.
	if reqPath == "/"+rt.ArtifactName {
		return rt.serveFile(RoutePrimaryArtifact, rt.ArtifactPath, mimeWASM)
	}

	// 3. Glue script, only when configured.
	if rt.GlueName != "" && reqPath == "/"+rt.GlueName {
		gluePath := path.Join(path.Dir(rt.ArtifactPath), rt.GlueName)
		return rt.serveFile(RouteGlueScript, gluePath, mimeJS)
	}

	// 4. Reload poll.
	if reqPath == "/reload" || reqPath == "/reload-check" {
		return rt.resolveReload()
	}

	// 5. Static assets, independent of the output directory.
	if name, ok := strings.CutPrefix(reqPath, "/assets/"); ok {
		return rt.resolveAsset(name)
	}

	// 6. Direct file under the output directory.
	if full, ok := resolveOutputFile(rt.OutputDir, reqPath); ok {
		return rt.serveFile(RouteOutputFile, full, ContentTypeForPath(full))
	}

	// 7. Generated-name fallbacks: the exact artifact name is not
	// predictable, so scan for the known suffix, then for the bare
	// basename of common generated files.
	if strings.HasSuffix(reqPath, GeneratedWASMSuffix) {
		if full, ok := findBySuffix(rt.OutputDir, GeneratedWASMSuffix); ok {
			return rt.serveFile(RoutePrimaryArtifact, full, mimeWASM)
		}
	}
	for _, ext := range fallbackScanExts {
		if strings.HasSuffix(reqPath, ext) {
			if full, ok := findByName(rt.OutputDir, path.Base(reqPath)); ok {
				return rt.serveFile(RouteOutputFile, full, ContentTypeForPath(full))
			}
			break
		}
	}

	// 8. SPA fallback keeps client-side routing working.
	if rt.SPA {
		return RouteResult{
			Kind:        RouteEntryPage,
			Status:      200,
			ContentType: mimeHTML,
			Body:        rt.EntryPage,
		}
	}

	return notFound()
}

// resolveReload answers a reload poll, consuming the pending flag.
func (rt *Router) resolveReload() RouteResult {
	if !rt.Watch {
		return RouteResult{
			Kind:        RouteReloadPoll,
			Status:      200,
			ContentType: mimePlain,
			Body:        []byte(answerNotWatching),
		}
	}

	if rt.Reload.Consume() {
		return RouteResult{
			Kind:         RouteReloadPoll,
			Status:       200,
			ContentType:  mimePlain,
			Body:         []byte(answerReload),
			ReloadNeeded: true,
		}
	}
	return RouteResult{
		Kind:        RouteReloadPoll,
		Status:      200,
		ContentType: mimePlain,
		Body:        []byte(answerNoReload),
	}
}

func (rt *Router) resolveAsset(name string) RouteResult {
	data, err := rt.Assets.Resolve(name)
	if err != nil {
		// The diagnostic already distinguished the causes; the HTTP
		// outcome is a 404 either way.
		return RouteResult{
			Kind:        RouteAssetFile,
			Status:      404,
			ContentType: mimePlain,
			Body:        []byte("404 asset not found"),
		}
	}
	return RouteResult{
		Kind:        RouteAssetFile,
		Status:      200,
		ContentType: ContentTypeForPath(name),
		Body:        data,
	}
}

// serveFile reads a file whose existence was decided by routing.
// A read failure here is a request-local 500, never fatal.
func (rt *Router) serveFile(kind RouteKind, filePath, contentType string) RouteResult {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return notFound()
		}
		rt.logger.Error("failed to read file", "path", filePath, "error", err)
		return RouteResult{
			Kind:        kind,
			Status:      500,
			ContentType: mimePlain,
			Body:        []byte("500 internal server error"),
			Err:         err,
		}
	}
	return RouteResult{
		Kind:        kind,
		Status:      200,
		ContentType: contentType,
		Body:        data,
	}
}

func notFound() RouteResult {
	return RouteResult{
		Kind:        RouteNotFound,
		Status:      404,
		ContentType: mimePlain,
		Body:        []byte("404 Not Found"),
	}
}
