package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wasmlet/wasmlet/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "wasmlet.json"

	// DefaultPort is the default development server port.
	DefaultPort = 8080

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"

	// DefaultAssets is the default static assets directory.
	DefaultAssets = "assets"

	// DefaultDebounceMs is the default watch debounce in milliseconds.
	DefaultDebounceMs = 300
)

// Config represents the complete wasmlet.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Port is the development server port.
	Port int `json:"port,omitempty"`

	// Host is the interface the server binds to.
	Host string `json:"host,omitempty"`

	// Output is the build output directory served for unmatched paths.
	Output string `json:"output,omitempty"`

	// Assets is the static assets directory served under /assets/.
	Assets string `json:"assets,omitempty"`

	// SPA re-serves the entry page for unresolved paths so
	// client-side routing keeps working.
	SPA bool `json:"spa,omitempty"`

	// OpenBrowser opens the default browser once the server is up.
	OpenBrowser bool `json:"openBrowser,omitempty"`

	// Watch contains rebuild-watch configuration.
	Watch WatchConfig `json:"watch,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// WatchConfig contains rebuild-watch configuration.
type WatchConfig struct {
	// Enabled turns watch mode on.
	Enabled bool `json:"enabled,omitempty"`

	// DebounceMs coalesces bursts of file events.
	DebounceMs int `json:"debounceMs,omitempty"`

	// Paths are extra directories to watch besides the output dir.
	Paths []string `json:"paths,omitempty"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Port:   DefaultPort,
		Host:   DefaultHost,
		Output: DefaultOutput,
		Assets: DefaultAssets,
		Watch: WatchConfig{
			DebounceMs: DefaultDebounceMs,
		},
	}
}

// Load reads wasmlet.json from the given directory.
// A missing file yields the defaults, not an error.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.configPath = path
			return cfg, nil
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E102").
			WithDetailf("%s could not be parsed.", path).
			Wrap(err)
	}
	cfg.configPath = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromWorkingDir loads configuration starting at the current
// working directory, walking up until a wasmlet.json is found.
// If none exists anywhere, defaults anchored at the working
// directory are returned.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.New("E101").Wrap(err)
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Load(wd)
		}
		dir = parent
	}
}

// Save writes the configuration to its directory.
func (c *Config) Save() error {
	path := c.configPath
	if path == "" {
		path = ConfigFileName
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to an explicit path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E103").Wrap(err)
	}
	data = append(data, '\n')

	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.New("E103").
			WithDetailf("Port %d is outside the valid range 1-65535.", c.Port)
	}
	if c.Watch.DebounceMs < 0 {
		return errors.New("E103").
			WithDetailf("watch.debounceMs must not be negative (got %d).", c.Watch.DebounceMs)
	}
	return nil
}

// Dir returns the directory the config was loaded from.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

// OutputPath returns the absolute-ish path of the output directory.
func (c *Config) OutputPath() string {
	return resolvePath(c.Dir(), c.Output)
}

// AssetsPath returns the path of the static assets directory.
func (c *Config) AssetsPath() string {
	return resolvePath(c.Dir(), c.Assets)
}

// Address returns the host:port the server binds to.
func (c *Config) Address() string {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	return joinHostPort(host, c.Port)
}

// URL returns the browser-facing URL of the server.
func (c *Config) URL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" {
		host = DefaultHost
	}
	return "http://" + joinHostPort(host, c.Port)
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
