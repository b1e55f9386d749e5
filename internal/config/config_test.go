package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newViper returns a viper instance with the built-in defaults applied,
// as the CLI does before binding flags.
func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

// writeTempConfig writes a config file with the given name and content
// into a per-test temp dir and returns its path.
func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoad_Defaults verifies the built-in defaults when neither flags,
// environment nor file provide values.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper(), "")

	require.NoError(t, err)
	assert.True(t, cfg.Retry, "retry defaults to on — the tool exists for boot scenarios")
	assert.Equal(t, DefaultRetryInterval, cfg.RetryInterval)
	assert.Equal(t, DefaultMaxWait, cfg.MaxWait)
	assert.False(t, cfg.Force)
	assert.Equal(t, DefaultContainerPause, cfg.ContainerPause)
	assert.False(t, cfg.Log.Disabled)
	assert.Equal(t, int64(DefaultLogMaxSize), cfg.Log.MaxSizeBytes)
	assert.NotEmpty(t, cfg.Log.Path, "a default log path must always be derived")
}

// TestLoad_YAMLFile verifies that a YAML config file overrides the
// built-in defaults.
func TestLoad_YAMLFile(t *testing.T) {
	path := writeTempConfig(t, "revive.yaml", `
retry: false
maxWait: 2m
force: true
log:
  file: /var/log/revive.log
  maxSize: 2048
`)

	cfg, err := Load(newViper(), path)

	require.NoError(t, err)
	assert.False(t, cfg.Retry)
	assert.Equal(t, 2*time.Minute, cfg.MaxWait)
	assert.True(t, cfg.Force)
	assert.Equal(t, "/var/log/revive.log", cfg.Log.Path)
	assert.Equal(t, int64(2048), cfg.Log.MaxSizeBytes)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, DefaultRetryInterval, cfg.RetryInterval)
}

// TestLoad_JSONCFile verifies the JSONC path: comments and trailing
// commas are legal in the config file.
func TestLoad_JSONCFile(t *testing.T) {
	path := writeTempConfig(t, "revive.jsonc", `{
  // wait longer on this slow machine
  "maxWait": "3m",
  "retryInterval": "10s",
  "log": {
    "disabled": true,
  },
}`)

	cfg, err := Load(newViper(), path)

	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, cfg.MaxWait)
	assert.Equal(t, 10*time.Second, cfg.RetryInterval)
	assert.True(t, cfg.Log.Disabled)
}

// TestLoad_FlagsBeatFile verifies precedence: an explicitly set viper
// value (as a bound flag would produce) wins over the config file.
func TestLoad_FlagsBeatFile(t *testing.T) {
	path := writeTempConfig(t, "revive.yaml", "maxWait: 2m\n")

	v := newViper()
	v.Set(KeyMaxWait, 30*time.Second) // simulates a set flag

	cfg, err := Load(v, path)

	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.MaxWait, "explicit values must beat file values")
}

// TestLoad_BadDurationInFile verifies that an unparseable duration in
// the config file is fatal, not silently ignored.
func TestLoad_BadDurationInFile(t *testing.T) {
	path := writeTempConfig(t, "revive.yaml", "maxWait: soon\n")

	_, err := Load(newViper(), path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

// TestLoad_UnsupportedExtension verifies that an unknown config file
// format is rejected rather than guessed at.
func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeTempConfig(t, "revive.toml", "maxWait = '2m'\n")

	_, err := Load(newViper(), path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file extension")
}

// TestLoad_MissingFile verifies that pointing --config at a nonexistent
// file is fatal.
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(newViper(), filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read config file")
}

// TestValidate covers the rejection matrix for values the gate and
// engine cannot work with.
func TestValidate(t *testing.T) {
	valid := Config{
		Retry:         true,
		RetryInterval: 5 * time.Second,
		MaxWait:       90 * time.Second,
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero retry interval", func(c *Config) { c.RetryInterval = 0 }},
		{"negative max wait", func(c *Config) { c.MaxWait = -time.Second }},
		{"interval exceeds budget", func(c *Config) { c.RetryInterval = 2 * c.MaxWait }},
		{"negative pause", func(c *Config) { c.ContainerPause = -time.Millisecond }},
		{"negative log size", func(c *Config) { c.Log.MaxSizeBytes = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestValidate_IntervalOverBudgetAllowedWithoutRetry verifies that the
// interval/budget relation is only enforced when the retry loop is
// actually in use.
func TestValidate_IntervalOverBudgetAllowedWithoutRetry(t *testing.T) {
	cfg := Config{
		Retry:         false,
		RetryInterval: 5 * time.Minute,
		MaxWait:       time.Second,
	}
	assert.NoError(t, cfg.Validate())
}
