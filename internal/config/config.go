// Package config builds the immutable run configuration for docker-revive.
//
// Configuration flows through viper with the usual precedence:
// command-line flags override DOCKER_REVIVE_* environment variables,
// which override values from an optional config file, which override
// built-in defaults. The config file may be YAML (parsed with yaml.v3)
// or JSONC (JSON with comments, stripped with tidwall/jsonc before
// decoding) — the extension decides.
//
// The resulting Config value is constructed exactly once at startup and
// threaded into both the availability gate and the decision engine;
// nothing reads ambient process-wide state after that point.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Viper keys. Flags and environment variables bind to these; see
// internal/cli for the flag definitions.
const (
	KeyRetry          = "retry"
	KeyRetryInterval  = "retry-interval"
	KeyMaxWait        = "max-wait"
	KeyForce          = "force"
	KeyContainerPause = "container-pause"
	KeyVerbose        = "verbose"
	KeyLogFile        = "log.file"
	KeyLogMaxSize     = "log.max-size"
	KeyLogDisabled    = "log.disabled"
)

// Defaults. The retry interval and wait budget mirror what a WSL or
// system boot needs: the daemon typically appears within a few seconds,
// but a cold Docker Desktop start can take over a minute.
const (
	DefaultRetryInterval  = 5 * time.Second
	DefaultMaxWait        = 90 * time.Second
	DefaultContainerPause = 250 * time.Millisecond
	DefaultLogMaxSize     = 1 << 20 // 1 MiB
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// DOCKER_REVIVE_MAX_WAIT=120s.
const EnvPrefix = "DOCKER_REVIVE"

// LogConfig configures the durable log sink.
type LogConfig struct {
	// Path is the log file location. Empty means the default location
	// (docker-revive.log in the user's home directory).
	Path string

	// MaxSizeBytes is the size threshold above which the log file is
	// truncated at startup.
	MaxSizeBytes int64

	// Disabled turns durable logging off entirely.
	Disabled bool
}

// Config is the immutable run configuration shared by the availability
// gate and the decision engine.
type Config struct {
	// Retry enables the gate's poll loop. When false the gate performs
	// exactly one pass and any missing tool is fatal.
	Retry bool

	// RetryInterval is the sleep between gate poll iterations.
	RetryInterval time.Duration

	// MaxWait is the wall-clock budget for each readiness group. The
	// two groups each get the full budget; they do not share a clock.
	MaxWait time.Duration

	// Force starts stopped unless-stopped containers regardless of
	// their last exit code.
	Force bool

	// ContainerPause is the fixed pause after each processed container,
	// kept only so interleaved console/log writes stay ordered.
	ContainerPause time.Duration

	// Verbose enables debug-level log lines.
	Verbose bool

	// Log configures the durable log sink.
	Log LogConfig
}

// fileConfig mirrors the config file schema. All fields are pointers so
// that absent keys leave the built-in defaults untouched. Durations are
// strings in Go duration syntax ("5s", "2m30s").
type fileConfig struct {
	Retry          *bool   `yaml:"retry" json:"retry"`
	RetryInterval  *string `yaml:"retryInterval" json:"retryInterval"`
	MaxWait        *string `yaml:"maxWait" json:"maxWait"`
	Force          *bool   `yaml:"force" json:"force"`
	ContainerPause *string `yaml:"containerPause" json:"containerPause"`
	Verbose        *bool   `yaml:"verbose" json:"verbose"`
	Log            struct {
		File     *string `yaml:"file" json:"file"`
		MaxSize  *int64  `yaml:"maxSize" json:"maxSize"`
		Disabled *bool   `yaml:"disabled" json:"disabled"`
	} `yaml:"log" json:"log"`
}

// SetDefaults installs the built-in defaults on a viper instance. The
// CLI calls this before binding flags so that unset flags fall through
// to these values.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRetry, true)
	v.SetDefault(KeyRetryInterval, DefaultRetryInterval)
	v.SetDefault(KeyMaxWait, DefaultMaxWait)
	v.SetDefault(KeyForce, false)
	v.SetDefault(KeyContainerPause, DefaultContainerPause)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyLogFile, defaultLogPath())
	v.SetDefault(KeyLogMaxSize, int64(DefaultLogMaxSize))
	v.SetDefault(KeyLogDisabled, false)

	v.SetEnvPrefix(EnvPrefix)
	// Keys use "-" and "." which are not valid in env var names.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// Load builds the Config from a prepared viper instance and an optional
// config file path. File values are applied as defaults, so flags and
// environment variables still win.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		if err := applyFile(v, configFile); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		Retry:          v.GetBool(KeyRetry),
		RetryInterval:  v.GetDuration(KeyRetryInterval),
		MaxWait:        v.GetDuration(KeyMaxWait),
		Force:          v.GetBool(KeyForce),
		ContainerPause: v.GetDuration(KeyContainerPause),
		Verbose:        v.GetBool(KeyVerbose),
		Log: LogConfig{
			Path:         v.GetString(KeyLogFile),
			MaxSizeBytes: v.GetInt64(KeyLogMaxSize),
			Disabled:     v.GetBool(KeyLogDisabled),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the gate and engine
// cannot work with. Any error here is fatal (exit code 1) before any
// container is touched.
func (c *Config) Validate() error {
	if c.RetryInterval <= 0 {
		return fmt.Errorf("retry interval must be positive, got %s", c.RetryInterval)
	}
	if c.MaxWait <= 0 {
		return fmt.Errorf("max wait must be positive, got %s", c.MaxWait)
	}
	if c.Retry && c.RetryInterval > c.MaxWait {
		return fmt.Errorf("retry interval %s exceeds max wait %s", c.RetryInterval, c.MaxWait)
	}
	if c.ContainerPause < 0 {
		return fmt.Errorf("container pause must not be negative, got %s", c.ContainerPause)
	}
	if c.Log.MaxSizeBytes < 0 {
		return fmt.Errorf("log max size must not be negative, got %d", c.Log.MaxSizeBytes)
	}
	return nil
}

// applyFile decodes the config file and installs its values as viper
// defaults. Decode or duration-parse errors are fatal: a config file
// the user pointed at explicitly must not be half-applied.
func applyFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("cannot parse YAML config %s: %w", path, err)
		}
	case ".json", ".jsonc":
		// jsonc.ToJSON strips comments and trailing commas, producing
		// plain JSON for the standard decoder.
		if err := json.Unmarshal(jsonc.ToJSON(data), &fc); err != nil {
			return fmt.Errorf("cannot parse JSONC config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q (want .yaml, .yml, .json or .jsonc)", filepath.Ext(path))
	}

	return fc.apply(v, path)
}

// apply installs the file's values via SetDefault so flag and env
// overrides keep precedence.
func (fc *fileConfig) apply(v *viper.Viper, path string) error {
	setDuration := func(key string, raw *string) error {
		if raw == nil {
			return nil
		}
		d, err := time.ParseDuration(*raw)
		if err != nil {
			return fmt.Errorf("config file %s: invalid duration for %s: %w", path, key, err)
		}
		v.SetDefault(key, d)
		return nil
	}

	if fc.Retry != nil {
		v.SetDefault(KeyRetry, *fc.Retry)
	}
	if err := setDuration(KeyRetryInterval, fc.RetryInterval); err != nil {
		return err
	}
	if err := setDuration(KeyMaxWait, fc.MaxWait); err != nil {
		return err
	}
	if fc.Force != nil {
		v.SetDefault(KeyForce, *fc.Force)
	}
	if err := setDuration(KeyContainerPause, fc.ContainerPause); err != nil {
		return err
	}
	if fc.Verbose != nil {
		v.SetDefault(KeyVerbose, *fc.Verbose)
	}
	if fc.Log.File != nil {
		v.SetDefault(KeyLogFile, *fc.Log.File)
	}
	if fc.Log.MaxSize != nil {
		v.SetDefault(KeyLogMaxSize, *fc.Log.MaxSize)
	}
	if fc.Log.Disabled != nil {
		v.SetDefault(KeyLogDisabled, *fc.Log.Disabled)
	}
	return nil
}

// defaultLogPath places the log in the user's home directory, falling
// back to the temp directory when the home directory is unavailable
// (e.g. minimal boot environments).
func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "docker-revive.log")
	}
	return filepath.Join(home, ".docker-revive.log")
}
