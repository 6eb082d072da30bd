package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasmlet/wasmlet/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬ ┬┌─┐┌─┐┌┬┐┬  ┌─┐┌┬┐
  │││├─┤└─┐│││└─┐├┤  │
  └┴┘┴ ┴└─┘┴ ┴┴─┘└─┘ ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "wasmlet",
		Short: "Serve compiled WebAssembly to the browser",
		Long: `Wasmlet is a development server for WebAssembly applications.

Point it at a compiled .wasm artifact and it serves a browser-ready
page around it:

  • Generated entry page that instantiates the module
  • Optional JS glue script next to the artifact
  • Poll-based live reload when watch mode is on
  • Single-instance guard so stale servers never linger
  • SPA fallback for client-side routed apps`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		stopCmd(),
		initCmd(),
		pluginCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
