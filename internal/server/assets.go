package server

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// GeneratedWASMSuffix is the suffix of glue-generated binaries whose
// exact name is not predictable from configuration (the build tool
// derives it from the crate/module name).
const GeneratedWASMSuffix = "_bg.wasm"

// fallbackScanExts are the extensions for which a basename scan of the
// output directory is attempted when direct resolution misses.
var fallbackScanExts = []string{".js", ".css", ".json", ".wasm"}

// AssetResolver reads files from the fixed assets root directory.
type AssetResolver struct {
	// Root is the assets directory.
	Root string

	logger *slog.Logger
}

// NewAssetResolver creates a resolver for the given root.
func NewAssetResolver(root string, logger *slog.Logger) *AssetResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetResolver{Root: root, logger: logger}
}

// Resolve reads the named asset from the root.
//
// The failure diagnostics distinguish a missing root directory from a
// missing file inside an existing root, but the caller treats both the
// same way: a 404.
func (a *AssetResolver) Resolve(name string) ([]byte, error) {
	rel, ok := sanitizeRelPath(name)
	if !ok {
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(filepath.Join(a.Root, filepath.FromSlash(rel)))
	if err != nil {
		a.diagnose(name, err)
		return nil, err
	}
	return data, nil
}

// diagnose logs whether the root itself or only the file is missing.
func (a *AssetResolver) diagnose(name string, cause error) {
	info, err := os.Stat(a.Root)
	switch {
	case err != nil:
		a.logger.Warn("assets directory does not exist",
			"root", a.Root, "asset", name)
	case !info.IsDir():
		a.logger.Warn("assets path exists but is not a directory",
			"root", a.Root, "asset", name)
	default:
		a.logger.Debug("asset not found within assets directory",
			"root", a.Root, "asset", name, "error", cause)
	}
}

// resolveOutputFile resolves a request path against the output
// directory. It rejects traversal outside the root and only serves
// regular files.
func resolveOutputFile(outputDir, requestPath string) (string, bool) {
	rel, ok := sanitizeRelPath(strings.TrimPrefix(requestPath, "/"))
	if !ok {
		return "", false
	}

	full := filepath.Join(outputDir, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", false
	}
	return full, true
}

// findBySuffix linearly scans dir for the first regular file whose
// name ends with suffix. Used when the generated artifact name is not
// predictable from configuration.
func findBySuffix(dir, suffix string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), suffix) {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

// findByName linearly scans dir for a regular file with the exact
// basename. Used as a last-ditch lookup for common generated files
// requested under a path the build tool did not actually produce.
func findByName(dir, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if entry.Name() == name {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

// sanitizeRelPath returns a clean, slash-separated relative path for a
// requested file. It rejects traversal and absolute-path tricks so
// file serving cannot escape the configured directory.
func sanitizeRelPath(rel string) (string, bool) {
	if rel == "" {
		return "", false
	}

	// Reject NUL early (can appear via %00).
	if strings.IndexByte(rel, 0) != -1 {
		return "", false
	}

	// Reject platform-dependent separators.
	if strings.Contains(rel, "\\") {
		return "", false
	}

	// A leading "/" indicates an absolute-path attempt
	// (e.g. "/assets//etc/passwd" => "/etc/passwd").
	if strings.HasPrefix(rel, "/") {
		return "", false
	}

	// Reject dot-segments before cleaning to avoid "cleaning away"
	// traversal attempts and changing the meaning of the request path.
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == "" || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}

	// Defense-in-depth: reject OS-absolute/volume paths after slash conversion.
	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}

	return clean, true
}
