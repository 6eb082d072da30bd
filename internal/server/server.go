package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wasmlet/wasmlet/internal/config"
	"github.com/wasmlet/wasmlet/internal/errors"
	"github.com/wasmlet/wasmlet/internal/guard"
	"github.com/wasmlet/wasmlet/internal/page"
)

// MetricsPath is where Prometheus metrics are exposed. It lives under
// an internal prefix so it cannot shadow an output-directory file.
const MetricsPath = "/_wasmlet/metrics"

// Session describes one running server instance.
type Session struct {
	ID           string
	PID          int
	Port         int
	ArtifactPath string
	GluePath     string
	Watch        bool
	OutputDir    string
}

// Options configures the development server.
type Options struct {
	// Config is the project configuration.
	Config *config.Config

	// ArtifactPath is the primary WASM artifact to serve.
	ArtifactPath string

	// GlueName is the optional glue script file name, expected next
	// to the artifact.
	GlueName string

	// Guard enforces the single-instance contract. A nil guard uses
	// the default record location.
	Guard *guard.Guard

	// Logger receives structured server logs.
	Logger *slog.Logger

	// OnReady is called once the listener is bound, before serving.
	OnReady func(Session)
}

// Server is the development server.
//
// Its lifecycle is Starting (guard, port probe, artifact check, bind,
// publish) then Listening until the context is canceled or the process
// is killed. There is no internal stop path beyond context
// cancellation; a displaced instance is cleaned up by the next start.
type Server struct {
	cfg     *config.Config
	options Options
	guard   *guard.Guard
	signal  *Signal
	router  *Router
	logger  *slog.Logger

	httpServer *http.Server
	session    Session
	mu         sync.Mutex
	running    bool
}

// New creates a development server from options.
func New(options Options) (*Server, error) {
	cfg := options.Config
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := options.Guard
	if g == nil {
		g = guard.New("")
	}

	artifactName := filepath.Base(options.ArtifactPath)
	watch := cfg.Watch.Enabled

	entry, err := page.Generate(page.Params{
		Title:        pageTitle(cfg, artifactName),
		ArtifactName: artifactName,
		GlueName:     options.GlueName,
		Watch:        watch,
	})
	if err != nil {
		return nil, errors.Newf(errors.CategoryServer, "failed to generate entry page: %v", err)
	}

	signal := NewSignal()
	router := NewRouter(logger)
	router.ArtifactPath = options.ArtifactPath
	router.ArtifactName = artifactName
	router.GlueName = options.GlueName
	router.OutputDir = cfg.OutputPath()
	router.Watch = watch
	router.SPA = cfg.SPA
	router.EntryPage = entry
	router.Reload = signal
	router.Assets = NewAssetResolver(cfg.AssetsPath(), logger)

	return &Server{
		cfg:     cfg,
		options: options,
		guard:   g,
		signal:  signal,
		router:  router,
		logger:  logger,
	}, nil
}

// Signal returns the reload signal so a rebuild notifier can mark it.
func (s *Server) Signal() *Signal {
	return s.signal
}

// Session returns the session descriptor. Valid once Start has passed
// the Starting phase.
func (s *Server) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Start runs the Starting sequence and then serves until ctx is
// canceled or the listener fails. All Starting failures are fatal and
// returned as coded errors.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	// Displace any prior instance before touching the port.
	if err := s.guard.EnsureSingleInstance(); err != nil {
		return err
	}

	host := s.cfg.Host
	if host == "" {
		host = config.DefaultHost
	}
	if !guard.PortAvailable(host, s.cfg.Port) {
		return errors.New("E201").
			WithDetailf("Port %d is already bound by another process.", s.cfg.Port)
	}

	info, err := os.Stat(s.options.ArtifactPath)
	if err != nil || info.IsDir() {
		return errors.New("E202").
			WithDetailf("No file at %s.", s.options.ArtifactPath)
	}

	// The advisory probe above can lose its race; the real bind is
	// authoritative.
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return errors.New("E203").Wrap(err)
	}

	if err := s.guard.Publish(os.Getpid()); err != nil {
		ln.Close()
		return err
	}

	session := Session{
		ID:           uuid.NewString(),
		PID:          os.Getpid(),
		Port:         s.cfg.Port,
		ArtifactPath: s.options.ArtifactPath,
		Watch:        s.cfg.Watch.Enabled,
		OutputDir:    s.cfg.OutputPath(),
	}
	if s.options.GlueName != "" {
		session.GluePath = filepath.Join(filepath.Dir(s.options.ArtifactPath), s.options.GlueName)
	}
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.logger.Info("server listening",
		"url", s.cfg.URL(),
		"artifact", s.router.ArtifactName,
		"size", info.Size(),
		"pid", session.PID,
		"session", session.ID,
		"watch", session.Watch,
	)

	if s.options.OnReady != nil {
		s.options.OnReady(session)
	}

	s.httpServer = &http.Server{Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.shutdown()
		return nil
	case err := <-errCh:
		if err != nil {
			return errors.New("E203").Wrap(err)
		}
		return nil
	}
}

// shutdown drains the HTTP server. The singleton record stays behind
// on purpose; the next start-up removes it.
func (s *Server) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// Handler builds the HTTP handler stack: panic recovery, tracing,
// request logging, the metrics endpoint, and the route resolution
// chain for everything else.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(tracingMiddleware)
	r.Use(s.logRequests)

	r.Method(http.MethodGet, MetricsPath, promhttp.Handler())
	r.Get("/*", s.handleResolve)
	r.NotFound(s.handleResolve)

	return r
}

// handleResolve funnels every non-metrics request through the router.
// Errors stay request-local: the worst outcome is a 404 or 500 for
// this one client.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := s.router.Resolve(r.URL.Path, r.RemoteAddr)

	if result.Kind == RouteReloadPoll {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		if result.ReloadNeeded {
			w.Header().Set("X-Reload-Needed", "true")
		}
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.WriteHeader(result.Status)
	if _, err := w.Write(result.Body); err != nil {
		// Client went away mid-response; log and move on.
		if result.Kind != RouteReloadPoll {
			s.logger.Debug("failed to write response", "path", r.URL.Path, "error", err)
		}
	}

	serverMetrics().recordRequest(result, time.Since(start).Seconds(), s.signal.ClientCount())

	if result.ReloadNeeded {
		s.logger.Info("reload signal delivered", "client", r.RemoteAddr)
	}
}

// logRequests logs each request, skipping reload poll noise.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/reload") {
			s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "client", r.RemoteAddr)
		}
		next.ServeHTTP(w, r)
	})
}

func pageTitle(cfg *config.Config, artifactName string) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return artifactName
}
