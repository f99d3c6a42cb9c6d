package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds logger settings. Output defaults to stderr; stdout belongs
// to command output.
type Config struct {
	Level  slog.Level
	Format Format
	Output io.Writer
	// Service is attached to every record when non-empty.
	Service string
}

// DefaultConfig logs warnings and above as text, so routine runs stay quiet.
func DefaultConfig() Config {
	return Config{
		Level:   slog.LevelWarn,
		Format:  FormatText,
		Output:  os.Stderr,
		Service: "opsdeck",
	}
}

// FromStrings builds a Config from the log.level and log.format settings.
// Empty strings keep the defaults.
func FromStrings(level, format string) Config {
	cfg := DefaultConfig()
	if level != "" {
		cfg.Level = ParseLevel(level)
	}
	if format != "" {
		cfg.Format = ParseFormat(format)
	}
	return cfg
}

// ParseLevel maps a case-insensitive level name onto slog. Unknown names
// map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat accepts "json"; anything else is text.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}
