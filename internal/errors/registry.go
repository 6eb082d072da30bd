package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E101-E199)
	// ============================================

	"E101": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "No wasmlet.json was found in the current directory or any parent directory.",
		Suggestion: "Run wasmlet from your project root, or create a wasmlet.json there.",
	},
	"E102": {
		Category:   CategoryConfig,
		Message:    "Configuration file is not valid JSON",
		Detail:     "wasmlet.json exists but could not be parsed.",
		Suggestion: "Check the file for trailing commas or unquoted keys.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Configuration file already exists",
	},

	// ============================================
	// Server Errors (E201-E299)
	// ============================================

	"E201": {
		Category:   CategoryServer,
		Message:    "Port is already in use",
		Suggestion: "Pass a different port with --port, or stop whatever is bound to it.",
	},
	"E202": {
		Category:   CategoryServer,
		Message:    "WASM artifact not found",
		Detail:     "The compiled module the server was asked to serve does not exist on disk.",
		Suggestion: "Build your project first, or check the path passed to wasmlet run.",
	},
	"E203": {
		Category: CategoryServer,
		Message:  "Failed to bind listener",
	},

	// ============================================
	// Guard Errors (E301-E399)
	// ============================================

	"E301": {
		Category: CategoryGuard,
		Message:  "Instance record is unreadable",
		Detail:   "The PID record left by a previous server could not be read or removed.",
	},
	"E302": {
		Category:   CategoryGuard,
		Message:    "Failed to terminate the running instance",
		Detail:     "A previous wasmlet server is still alive and could not be killed.",
		Suggestion: "Kill the process listed in the record manually, then retry.",
	},

	// ============================================
	// Plugin Errors (E401-E499)
	// ============================================

	"E401": {
		Category: CategoryPlugin,
		Message:  "Plugin installation failed",
	},
	"E402": {
		Category:   CategoryPlugin,
		Message:    "Plugin is not installed",
		Suggestion: "Run 'wasmlet plugin list' to see installed plugins.",
	},
	"E403": {
		Category:   CategoryPlugin,
		Message:    "Go toolchain not found",
		Detail:     "Installing plugins requires the go command on PATH.",
		Suggestion: "Install Go from https://go.dev/dl/",
	},
}

// Register adds or replaces an error template at runtime.
// Intended for tests and embedding tools.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// Lookup returns the template for a code, if registered.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
