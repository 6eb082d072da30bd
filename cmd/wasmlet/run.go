package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wasmlet/wasmlet/internal/browser"
	"github.com/wasmlet/wasmlet/internal/config"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/guard"
	"github.com/wasmlet/wasmlet/internal/server"
	"github.com/wasmlet/wasmlet/internal/watch"
)

func runCmd() *cobra.Command {
	var (
		port        int
		host        string
		watchMode   bool
		spa         bool
		openBrowser bool
		glue        string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "run [artifact.wasm]",
		Short: "Start the development server",
		Long: `Start the development server for a compiled WASM artifact.

Without an argument the artifact is discovered in the output
directory. Any already-running instance is displaced first.

Examples:
  wasmlet run
  wasmlet run dist/app.wasm
  wasmlet run --watch --open
  wasmlet run --spa --port=3000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact := ""
			if len(args) == 1 {
				artifact = args[0]
			}
			return runServe(serveFlags{
				artifact:    artifact,
				port:        port,
				host:        host,
				watch:       watchMode,
				spa:         spa,
				openBrowser: openBrowser,
				glue:        glue,
				output:      output,
			})
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from wasmlet.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from wasmlet.json)")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Watch for changes and signal browser reloads")
	cmd.Flags().BoolVar(&spa, "spa", false, "Serve the entry page for unresolved paths")
	cmd.Flags().BoolVarP(&openBrowser, "open", "o", false, "Open browser on start")
	cmd.Flags().StringVar(&glue, "glue", "", "JS glue script name next to the artifact")
	cmd.Flags().StringVar(&output, "output", "", "Output directory (default from wasmlet.json)")

	return cmd
}

type serveFlags struct {
	artifact    string
	port        int
	host        string
	watch       bool
	spa         bool
	openBrowser bool
	glue        string
	output      string
}

func runServe(flags serveFlags) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	// Command-line overrides.
	if flags.port > 0 {
		cfg.Port = flags.port
	}
	if flags.host != "" {
		cfg.Host = flags.host
	}
	if flags.watch {
		cfg.Watch.Enabled = true
	}
	if flags.spa {
		cfg.SPA = true
	}
	if flags.openBrowser {
		cfg.OpenBrowser = true
	}
	if flags.output != "" {
		cfg.Output = flags.output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	artifactPath, err := resolveArtifact(cfg, flags.artifact)
	if err != nil {
		return err
	}
	glueName := resolveGlue(artifactPath, flags.glue)

	printBanner()
	fmt.Println("  run")
	fmt.Println()

	srv, err := server.New(server.Options{
		Config:       cfg,
		ArtifactPath: artifactPath,
		GlueName:     glueName,
		Guard:        guard.New(""),
		OnReady: func(session server.Session) {
			size := int64(0)
			if st, err := os.Stat(session.ArtifactPath); err == nil {
				size = st.Size()
			}
			success("Serving %s (%s)", filepath.Base(session.ArtifactPath), humanSize(size))
			if session.GluePath != "" {
				info("Glue script: %s", filepath.Base(session.GluePath))
			}
			info("Listening on %s (pid %d)", cfg.URL(), session.PID)
			if session.Watch {
				info("Watch mode on; browsers reload on change")
			}
			if cfg.OpenBrowser {
				go browser.Open(cfg.URL())
			}
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		cancel()
	}()

	if cfg.Watch.Enabled {
		if err := startWatcher(ctx, cfg, srv); err != nil {
			warn("Watcher unavailable: %v", err)
		}
	}

	return srv.Start(ctx)
}

// startWatcher marks the reload signal whenever the project changes.
func startWatcher(ctx context.Context, cfg *config.Config, srv *server.Server) error {
	paths := cfg.Watch.Paths
	if len(paths) == 0 {
		paths = []string{cfg.Dir()}
	}
	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond

	w, err := watch.New(watch.Options{
		Paths:    paths,
		Debounce: debounce,
		OnChange: func(changed []string) {
			srv.Signal().MarkPending()
			info("Change detected (%d files), reload pending", len(changed))
		},
	})
	if err != nil {
		return err
	}
	go w.Run(ctx)
	return nil
}

// resolveArtifact picks the WASM artifact to serve: the explicit
// argument when given, otherwise a discovery pass over the output
// directory preferring <name>.wasm.
func resolveArtifact(cfg *config.Config, explicit string) (string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", err
		}
		if info, err := os.Stat(abs); err != nil || info.IsDir() {
			return "", errors.New("E202").WithDetailf("No file at %s.", abs)
		}
		return abs, nil
	}

	outputDir := cfg.OutputPath()
	matches, err := filepath.Glob(filepath.Join(outputDir, "*.wasm"))
	if err != nil || len(matches) == 0 {
		return "", errors.New("E202").
			WithDetailf("No .wasm files in %s.", outputDir).
			WithSuggestion("Compile your project first, or pass the artifact path explicitly.")
	}

	if cfg.Name != "" {
		preferred := filepath.Join(outputDir, cfg.Name+".wasm")
		for _, m := range matches {
			if m == preferred {
				return m, nil
			}
		}
	}
	sort.Strings(matches)
	return matches[0], nil
}

// resolveGlue returns the glue script name: the explicit flag when
// set, otherwise a sibling .js named after the artifact. A
// wasm-bindgen style <name>_bg.wasm pairs with <name>.js.
func resolveGlue(artifactPath, explicit string) string {
	if explicit != "" {
		return explicit
	}

	base := strings.TrimSuffix(filepath.Base(artifactPath), ".wasm")
	base = strings.TrimSuffix(base, "_bg")
	candidate := filepath.Join(filepath.Dir(artifactPath), base+".js")
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return base + ".js"
	}
	return ""
}

// humanSize renders a byte count the way humans read one.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
