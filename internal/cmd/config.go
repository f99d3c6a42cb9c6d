package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wsciaroni/opsdeck-cli/internal/config"
	oderrors "github.com/wsciaroni/opsdeck-cli/internal/errors"
	"github.com/wsciaroni/opsdeck-cli/internal/ux"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit OpsDeck configuration",
	Long: `Manage OpsDeck configuration stored at ~/.opsdeck/config.yaml

Settings are resolved from flags, then OPSDECK_* environment variables,
then the config file, then built-in defaults.

Examples:
  # View the effective configuration
  opsdeck config view

  # Edit the file in $EDITOR
  opsdeck config edit

  # Get or set a single value
  opsdeck config get server_url
  opsdeck config set server_url https://ops.example.com

  # Show the configuration file path
  opsdeck config path
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the configuration file in $EDITOR",
	Args:  cobra.NoArgs,
	RunE:  runConfigEdit,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value (e.g. log.level)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the file (e.g. output.format json)",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

// loadConfig resolves configuration the way every command does.
func loadConfig(cmd *cobra.Command) (*config.Config, *CommandContext, error) {
	flags, err := NewCommandContext(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create command context: %w", err)
	}
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{Home: flags.Home})
	if err != nil {
		return nil, nil, err
	}
	return cfg, flags, nil
}

// loadFileConfig reads only the config file and defaults, so that saving it
// does not persist environment overrides.
func loadFileConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return config.Load(cmd.Context(), config.LoadOptions{
		Home:     cfg.Home,
		Lookuper: envconfig.MapLookuper(nil),
	})
}

// configView prints the config as YAML in text mode.
type configView struct {
	*config.Config
}

func (v configView) RenderText(w io.Writer, noColor bool) error {
	data, err := yaml.Marshal(v.Config)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "# %s\n%s", v.Path(), data)
	return err
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cfg, flags, err := loadConfig(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	format := cfg.Output.Format
	if flags.Format != "" {
		format = flags.Format
	}
	formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{
		Writer:  cmd.OutOrStdout(),
		NoColor: flags.NoColor || cfg.Output.NoColor,
	})
	if err != nil {
		return err
	}
	return formatter.Format(configView{cfg})
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	cfg, err := loadFileConfig(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}
	if _, err := os.Stat(cfg.Path()); os.IsNotExist(err) {
		if err := cfg.Save(); err != nil {
			return err
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.CommandContext(cmd.Context(), editor, cfg.Path())
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}

	if _, err := loadFileConfig(cmd); err != nil {
		return ux.FormatError(err, "validating edited configuration")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration updated")
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	value, err := getConfigValue(cfg, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadFileConfig(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	if err := setConfigValue(cfg, args[0], args[1]); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return ux.FormatError(err, "saving configuration")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s = %s\n", args[0], args[1])
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}
	fmt.Fprintln(cmd.OutOrStdout(), cfg.Path())
	return nil
}

func unknownKey(key string) error {
	return oderrors.New(oderrors.ErrCodeConfigInvalid, fmt.Sprintf("unknown configuration key: %s", key)).
		WithSuggestion("Known keys: server_url, timeout, retries, bootstrap_timeout, log.level, log.format, output.format, output.no_color")
}

// getConfigValue reads a value using its dotted YAML key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "server_url":
		return cfg.ServerURL, nil
	case "timeout":
		return cfg.Timeout.String(), nil
	case "retries":
		return strconv.FormatUint(uint64(cfg.Retries), 10), nil
	case "bootstrap_timeout":
		return cfg.BootstrapTimeout.String(), nil
	case "log.level":
		return cfg.Log.Level, nil
	case "log.format":
		return cfg.Log.Format, nil
	case "output.format":
		return cfg.Output.Format, nil
	case "output.no_color":
		return strconv.FormatBool(cfg.Output.NoColor), nil
	default:
		return "", unknownKey(key)
	}
}

// setConfigValue parses value into the field named by key.
func setConfigValue(cfg *config.Config, key, value string) error {
	invalid := func(err error) error {
		return oderrors.Wrap(oderrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid value for %s", key), err)
	}

	switch key {
	case "server_url":
		cfg.ServerURL = value
	case "timeout", "bootstrap_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return invalid(err)
		}
		if key == "timeout" {
			cfg.Timeout = d
		} else {
			cfg.BootstrapTimeout = d
		}
	case "retries":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return invalid(err)
		}
		cfg.Retries = uint(n)
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	case "output.format":
		cfg.Output.Format = value
	case "output.no_color":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalid(err)
		}
		cfg.Output.NoColor = b
	default:
		return unknownKey(key)
	}
	return nil
}
