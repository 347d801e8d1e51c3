package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyforan/notifyhub/internal/logging"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load(nil)
		require.NoError(t, err)

		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, logging.FormatPlain, cfg.Log.Format)
		assert.Empty(t, cfg.Scenario)
		assert.False(t, cfg.Strict)
	})

	t.Run("FromFile", func(t *testing.T) {
		path := writeConfig(t, "log:\n  level: debug\n  format: json\nscenario: demo.yaml\nstrict: true\n")

		cfg, err := Load(newFlags(t, "--config", path))
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, logging.FormatJSON, cfg.Log.Format)
		assert.Equal(t, "demo.yaml", cfg.Scenario)
		assert.True(t, cfg.Strict)
	})

	t.Run("EnvOverridesFile", func(t *testing.T) {
		path := writeConfig(t, "log:\n  level: debug\n")
		t.Setenv("NOTIFYHUB_LOG_LEVEL", "warn")

		cfg, err := Load(newFlags(t, "--config", path))
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Log.Level)
	})

	t.Run("FlagOverridesEnv", func(t *testing.T) {
		t.Setenv("NOTIFYHUB_STRICT", "false")

		cfg, err := Load(newFlags(t, "--strict", "--log-format", "json"))
		require.NoError(t, err)
		assert.True(t, cfg.Strict)
		assert.Equal(t, logging.FormatJSON, cfg.Log.Format)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
		assert.Error(t, err)
	})

	t.Run("InvalidValuesReportedTogether", func(t *testing.T) {
		_, err := Load(newFlags(t, "--log-level", "loud", "--log-format", "xml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log.level")
		assert.Contains(t, err.Error(), "log.format")
	})
}
