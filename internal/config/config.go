// Package config loads hubdemo settings from defaults, an optional YAML file, NOTIFYHUB_* environment variables
// and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/jeremyforan/notifyhub/internal/logging"
)

const EnvPrefix = "NOTIFYHUB"

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Log Log `mapstructure:"log"`

	// Scenario is a path to a scenario script. Empty runs the built-in walkthrough.
	Scenario string `mapstructure:"scenario"`

	// Strict rejects duplicate attaches and unknown detaches instead of only logging them.
	Strict bool `mapstructure:"strict"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"scenario":   "scenario",
	"strict":     "strict",
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("log-format", logging.FormatPlain, "plain or json")
	fs.String("scenario", "", "path to a scenario script (default: built-in walkthrough)")
	fs.Bool("strict", false, "reject duplicate attaches and unknown detaches")
}

// Load resolves the configuration. fs may be nil; when it is not, flags that were set on the command line
// override every other source and the --config flag names the file to read.
func Load(fs *pflag.FlagSet) (Config, error) {
	var cfg Config

	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatPlain)
	v.SetDefault("scenario", "")
	v.SetDefault("strict", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return cfg, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}

		if path, err := fs.GetString("config"); err == nil && path != "" {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	switch c.Log.Format {
	case logging.FormatPlain, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format: %q is not %q or %q", c.Log.Format, logging.FormatPlain, logging.FormatJSON))
	}

	return errors.Join(errs...)
}

// LoggingOptions converts the log section for the logging package.
func (c Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Format: c.Log.Format}
}
