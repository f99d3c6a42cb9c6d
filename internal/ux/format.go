// Package ux renders command output as text, JSON or YAML and attaches
// recovery hints to errors.
package ux

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Formats lists the accepted values of output.format.
var Formats = []string{"text", "json", "yaml"}

// TextRenderer is implemented by values with a human-readable form.
type TextRenderer interface {
	RenderText(w io.Writer, noColor bool) error
}

type FormatterOptions struct {
	// Writer defaults to os.Stdout.
	Writer  io.Writer
	NoColor bool
}

// Formatter writes command results in one output format.
type Formatter struct {
	format  string
	w       io.Writer
	noColor bool
}

// NewFormatter accepts "text", "json", "yaml" or "" (text).
func NewFormatter(format string, opts *FormatterOptions) (*Formatter, error) {
	f := &Formatter{format: format, w: os.Stdout}
	if f.format == "" {
		f.format = "text"
	}
	if opts != nil {
		if opts.Writer != nil {
			f.w = opts.Writer
		}
		f.noColor = opts.NoColor
	}

	if !slices.Contains(Formats, f.format) {
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
	return f, nil
}

// Format writes data. In text mode data must be a TextRenderer, a
// fmt.Stringer or a string.
func (f *Formatter) Format(data any) error {
	switch f.format {
	case "json":
		enc := json.NewEncoder(f.w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(f.w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	}

	switch v := data.(type) {
	case TextRenderer:
		return v.RenderText(f.w, f.noColor)
	case string:
		_, err := fmt.Fprintln(f.w, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.w, v.String())
		return err
	default:
		return fmt.Errorf("cannot render %T as text", data)
	}
}
