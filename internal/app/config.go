package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends.
const (
	StorageFile = "file"
	StorageAPI  = "api"
)

// Duration is a time.Duration written as a string ("30s") in config files.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// CanvasConfig sets the bounds of new canvases.
type CanvasConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// StorageConfig selects where workflows are saved.
type StorageConfig struct {
	Backend     string `toml:"backend"`
	WorkflowDir string `toml:"workflow_dir"`
}

// APIConfig configures the REST save backend.
type APIConfig struct {
	BaseURL    string   `toml:"base_url"`
	Token      string   `toml:"token"`
	RetryCount int      `toml:"retry_count"`
	Timeout    Duration `toml:"timeout"`
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ListenAddr      string   `toml:"listen_addr"`
	LogFormat       string   `toml:"log_format"`
	LogLevel        string   `toml:"log_level"`
	CatalogFile     string   `toml:"catalog_file"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`

	Canvas  CanvasConfig  `toml:"canvas"`
	Storage StorageConfig `toml:"storage"`
	API     APIConfig     `toml:"api"`
}

// DefaultConfig returns the settings used when neither a config file nor a
// flag overrides them.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":8080",
		LogFormat:       "json",
		LogLevel:        "info",
		ShutdownTimeout: Duration{5 * time.Second},
		Canvas:          CanvasConfig{Width: 1200, Height: 800},
		Storage:         StorageConfig{Backend: StorageFile, WorkflowDir: "workflows"},
		API:             APIConfig{RetryCount: 2, Timeout: Duration{10 * time.Second}},
	}
}

// LoadConfigFile overlays the TOML file at path onto base. Unknown keys are
// rejected so typos do not go unnoticed.
func LoadConfigFile(path string, base Config) (Config, error) {
	md, err := toml.DecodeFile(path, &base)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return base, nil
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr is a required configuration field and cannot be empty"))
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat))
	}
	if _, ok := parseLevel(cfg.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel))
	}
	if cfg.Canvas.Width <= 0 || cfg.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size %gx%g must be positive", cfg.Canvas.Width, cfg.Canvas.Height))
	}
	switch cfg.Storage.Backend {
	case StorageFile:
		if cfg.Storage.WorkflowDir == "" {
			errs = append(errs, errors.New("storage.workflow_dir is required for the file backend"))
		}
	case StorageAPI:
		u, err := url.Parse(cfg.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("api.base_url %q must be an absolute http(s) URL", cfg.API.BaseURL))
		}
		if cfg.API.RetryCount < 0 {
			errs = append(errs, errors.New("api.retry_count must not be negative"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
