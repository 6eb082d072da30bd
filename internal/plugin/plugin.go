// Package plugin manages externally installed tool plugins. Plugins
// are Go modules installed as standalone binaries into a managed
// directory, tracked in a JSON manifest.
package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/wasmlet/wasmlet/internal/errors"
)

// ManifestName is the manifest file inside the plugin directory.
const ManifestName = "plugins.json"

// Descriptor records one installed plugin.
type Descriptor struct {
	// Name is the short name the plugin is addressed by, the last
	// path element of its module.
	Name string `json:"name"`

	// Module is the full Go module path the plugin was installed from.
	Module string `json:"module"`

	// Version is the module version that was installed.
	Version string `json:"version"`

	// Enabled plugins participate in builds; disabled ones stay
	// installed but inert.
	Enabled bool `json:"enabled"`

	// Binary is the absolute path of the installed executable.
	Binary string `json:"binary"`

	InstalledAt time.Time `json:"installed_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// runner executes an external command. Tests substitute their own.
type runner func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	return cmd.CombinedOutput()
}

// Manager installs and tracks plugins under a single directory.
type Manager struct {
	dir    string
	run    runner
	look   func(file string) (string, error)
	logger *slog.Logger
}

// DefaultDir returns the per-user plugin directory.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".wasmlet", "plugins"), nil
}

// NewManager creates a Manager rooted at dir, creating it if needed.
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0755); err != nil {
		return nil, errors.New("E401").WithDetailf("cannot create plugin directory: %v", err)
	}
	return &Manager{dir: dir, run: execRunner, look: exec.LookPath, logger: logger}, nil
}

func (m *Manager) manifestPath() string {
	return filepath.Join(m.dir, ManifestName)
}

func (m *Manager) binDir() string {
	return filepath.Join(m.dir, "bin")
}

// load reads the manifest. A missing manifest is an empty one.
func (m *Manager) load() ([]Descriptor, error) {
	data, err := os.ReadFile(m.manifestPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("E401").WithDetailf("cannot read plugin manifest: %v", err)
	}
	var plugins []Descriptor
	if err := json.Unmarshal(data, &plugins); err != nil {
		return nil, errors.New("E401").WithDetailf("plugin manifest is corrupt: %v", err)
	}
	return plugins, nil
}

func (m *Manager) save(plugins []Descriptor) error {
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name < plugins[j].Name })
	data, err := json.MarshalIndent(plugins, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.manifestPath(), data, 0644); err != nil {
		return errors.New("E401").WithDetailf("cannot write plugin manifest: %v", err)
	}
	return nil
}

// List returns all installed plugins, sorted by name.
func (m *Manager) List() ([]Descriptor, error) {
	return m.load()
}

// Find returns the descriptor for name, or an E402 error.
func (m *Manager) Find(name string) (Descriptor, error) {
	plugins, err := m.load()
	if err != nil {
		return Descriptor{}, err
	}
	for _, p := range plugins {
		if p.Name == name {
			return p, nil
		}
	}
	return Descriptor{}, errors.New("E402").WithDetailf("no plugin named %q", name)
}

// Install fetches a plugin with `go install`. It accepts either a
// bare module path or module@version; a bare path installs latest.
func (m *Manager) Install(ctx context.Context, spec string) (Descriptor, error) {
	module, version := splitSpec(spec)
	name := moduleName(module)

	if _, err := m.Find(name); err == nil {
		return Descriptor{}, errors.New("E401").
			WithDetailf("plugin %q is already installed", name).
			WithSuggestion("Use 'wasmlet plugin update' to upgrade it.")
	}

	desc, err := m.install(ctx, module, version)
	if err != nil {
		return Descriptor{}, err
	}

	plugins, err := m.load()
	if err != nil {
		return Descriptor{}, err
	}
	plugins = append(plugins, desc)
	if err := m.save(plugins); err != nil {
		return Descriptor{}, err
	}
	m.logger.Info("plugin installed", "name", desc.Name, "module", desc.Module, "version", desc.Version)
	return desc, nil
}

// install runs the toolchain and builds a Descriptor for the result.
func (m *Manager) install(ctx context.Context, module, version string) (Descriptor, error) {
	if _, err := m.look("go"); err != nil {
		return Descriptor{}, errors.New("E403")
	}

	env := []string{"GOBIN=" + m.binDir()}
	out, err := m.run(ctx, env, "go", "install", module+"@"+version)
	if err != nil {
		return Descriptor{}, errors.New("E401").
			WithDetailf("go install %s@%s failed: %v\n%s", module, version, err, strings.TrimSpace(string(out)))
	}

	name := moduleName(module)
	binary := filepath.Join(m.binDir(), name)
	if runtime.GOOS == "windows" {
		binary += ".exe"
	}

	return Descriptor{
		Name:        name,
		Module:      module,
		Version:     version,
		Enabled:     true,
		Binary:      binary,
		InstalledAt: time.Now().UTC(),
	}, nil
}

// Uninstall removes the plugin binary and its manifest entry.
func (m *Manager) Uninstall(name string) error {
	plugins, err := m.load()
	if err != nil {
		return err
	}
	idx := -1
	for i, p := range plugins {
		if p.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.New("E402").WithDetailf("no plugin named %q", name)
	}

	if err := os.Remove(plugins[idx].Binary); err != nil && !os.IsNotExist(err) {
		return errors.New("E401").WithDetailf("cannot remove plugin binary: %v", err)
	}
	plugins = append(plugins[:idx], plugins[idx+1:]...)
	if err := m.save(plugins); err != nil {
		return err
	}
	m.logger.Info("plugin uninstalled", "name", name)
	return nil
}

// Update reinstalls an installed plugin at latest.
func (m *Manager) Update(ctx context.Context, name string) (Descriptor, error) {
	plugins, err := m.load()
	if err != nil {
		return Descriptor{}, err
	}
	for i, p := range plugins {
		if p.Name != name {
			continue
		}
		desc, err := m.install(ctx, p.Module, "latest")
		if err != nil {
			return Descriptor{}, err
		}
		desc.Enabled = p.Enabled
		desc.InstalledAt = p.InstalledAt
		desc.UpdatedAt = time.Now().UTC()
		plugins[i] = desc
		if err := m.save(plugins); err != nil {
			return Descriptor{}, err
		}
		m.logger.Info("plugin updated", "name", name, "version", desc.Version)
		return desc, nil
	}
	return Descriptor{}, errors.New("E402").WithDetailf("no plugin named %q", name)
}

// SetEnabled flips the enabled flag for an installed plugin.
func (m *Manager) SetEnabled(name string, enabled bool) error {
	plugins, err := m.load()
	if err != nil {
		return err
	}
	for i := range plugins {
		if plugins[i].Name == name {
			plugins[i].Enabled = enabled
			return m.save(plugins)
		}
	}
	return errors.New("E402").WithDetailf("no plugin named %q", name)
}

// splitSpec separates module@version, defaulting to latest.
func splitSpec(spec string) (module, version string) {
	if at := strings.LastIndex(spec, "@"); at > 0 {
		return spec[:at], spec[at+1:]
	}
	return spec, "latest"
}

// moduleName is the short plugin name: the final path element, with
// any major-version suffix stripped.
func moduleName(module string) string {
	name := module
	if i := strings.LastIndex(name, "/"); i >= 0 {
		last := name[i+1:]
		if len(last) > 1 && last[0] == 'v' && isDigits(last[1:]) {
			name = name[:i]
			if j := strings.LastIndex(name, "/"); j >= 0 {
				return name[j+1:]
			}
			return name
		}
		return last
	}
	return name
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Describe renders a one-line human summary for listings.
func Describe(d Descriptor) string {
	status := "enabled"
	if !d.Enabled {
		status = "disabled"
	}
	return fmt.Sprintf("%s %s (%s, %s)", d.Name, d.Version, d.Module, status)
}
