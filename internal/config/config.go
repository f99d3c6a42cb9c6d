// Package config loads opsdeck settings from ~/.opsdeck/config.yaml and the
// environment. Environment values take priority over the file; defaults fill
// whatever neither sets.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
)

const (
	// HomeEnv overrides the opsdeck home directory
	HomeEnv = "OPSDECK_HOME"

	defaultHomeDir  = ".opsdeck"
	configFileName  = "config.yaml"
	stateFileName   = "state.yaml"
	credentialsFile = "credentials.json"
)

// Config is the resolved client configuration.
type Config struct {
	ServerURL        string        `yaml:"server_url" env:"OPSDECK_SERVER_URL, default=http://localhost:8080"`
	Timeout          time.Duration `yaml:"timeout" env:"OPSDECK_TIMEOUT, default=30s"`
	Retries          uint          `yaml:"retries" env:"OPSDECK_RETRIES, default=2"`
	BootstrapTimeout time.Duration `yaml:"bootstrap_timeout,omitempty" env:"OPSDECK_BOOTSTRAP_TIMEOUT"`

	Log    LogConfig    `yaml:"log"`
	Output OutputConfig `yaml:"output"`

	// Home is where config, state and credentials live; it is never read from the file.
	Home string `yaml:"-"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `yaml:"level" env:"OPSDECK_LOG_LEVEL, default=warn"`
	Format string `yaml:"format" env:"OPSDECK_LOG_FORMAT, default=text"`
}

// OutputConfig controls command output.
type OutputConfig struct {
	Format  string `yaml:"format" env:"OPSDECK_OUTPUT_FORMAT, default=text"`
	NoColor bool   `yaml:"no_color" env:"OPSDECK_NO_COLOR"`
}

// Attempts is the number of tries for idempotent requests.
func (c *Config) Attempts() uint {
	return c.Retries + 1
}

// Path returns the config file path.
func (c *Config) Path() string {
	return filepath.Join(c.Home, configFileName)
}

// StatePath returns the path of the durable client state file.
func (c *Config) StatePath() string {
	return filepath.Join(c.Home, stateFileName)
}

// CredentialsPath returns the path of the stored session cookie.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.Home, credentialsFile)
}

// LoadOptions tunes Load. The zero value reads the real environment.
type LoadOptions struct {
	// Home overrides OPSDECK_HOME (the --home flag)
	Home string

	// Lookuper replaces the process environment (tests)
	Lookuper envconfig.Lookuper
}

// Load resolves the home directory, reads its config file when present, and
// overlays the environment.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	lookuper := opts.Lookuper
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	home, err := resolveHome(opts.Home, lookuper)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Home: home}

	data, err := os.ReadFile(cfg.Path())
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, oderrors.NewFileUnmarshalError(cfg.Path(), "YAML", err)
		}
		cfg.Home = home
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, oderrors.Wrap(oderrors.ErrCodeFileReadFailed, "failed to read config file", err)
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           cfg,
		Lookuper:         lookuper,
		DefaultOverwrite: true,
	}); err != nil {
		return nil, oderrors.Wrap(oderrors.ErrCodeConfigEnv, "invalid environment configuration", err).
			WithSuggestion("Check OPSDECK_* environment variables, e.g. OPSDECK_TIMEOUT=30s")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that the decoders cannot.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return oderrors.New(oderrors.ErrCodeConfigInvalid, "server_url must not be empty").
			WithSuggestion("Set OPSDECK_SERVER_URL or server_url in " + c.Path())
	}
	if c.Timeout < 0 || c.BootstrapTimeout < 0 {
		return oderrors.New(oderrors.ErrCodeConfigInvalid, "timeouts must not be negative")
	}
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return oderrors.New(oderrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid output format: %q", c.Output.Format)).
			WithSuggestion("Use one of: text, json, yaml")
	}
	return nil
}

// Save writes the file-backed settings to the config file.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return oderrors.Wrap(oderrors.ErrCodeFileMarshal, "failed to marshal config", err)
	}
	if err := os.MkdirAll(c.Home, 0o700); err != nil {
		return oderrors.Wrap(oderrors.ErrCodeDirectoryFailed, "failed to create opsdeck home", err)
	}
	if err := os.WriteFile(c.Path(), data, 0o600); err != nil {
		return oderrors.Wrap(oderrors.ErrCodeFileWriteFailed, "failed to write config file", err)
	}
	return nil
}

func resolveHome(flag string, lookuper envconfig.Lookuper) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if home, ok := lookuper.Lookup(HomeEnv); ok && home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", oderrors.Wrap(oderrors.ErrCodeDirectoryFailed, "failed to determine home directory", err).
			WithSuggestion("Set " + HomeEnv + " to choose where opsdeck keeps its files")
	}
	return filepath.Join(userHome, defaultHomeDir), nil
}
