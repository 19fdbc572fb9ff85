// Package output provides unified output formatting for text, JSON and
// YAML. Every CLI command writes through a Formatter.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// EnvFormat selects the output format when no flag is given
const EnvFormat = "AUDIOPIN_OUTPUT_FORMAT"

// Format represents the output format type
type Format int

const (
	// FormatText is human-readable formatted text (default)
	FormatText Format = iota
	// FormatJSON is machine-readable JSON output
	FormatJSON
	// FormatYAML is YAML output
	FormatYAML
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "text"
	}
}

// ParseFormat parses text, json or yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatText, fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Formatter handles output formatting for commands
type Formatter struct {
	format Format
	writer io.Writer
	pretty bool // For JSON: whether to indent
}

// New creates a new Formatter with the given options
func New(opts ...Option) *Formatter {
	f := &Formatter{
		format: FormatText,
		writer: os.Stdout,
		pretty: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Option is a functional option for Formatter
type Option func(*Formatter)

// WithFormat sets the output format
func WithFormat(format Format) Option {
	return func(f *Formatter) {
		f.format = format
	}
}

// WithWriter sets the output writer
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) {
		f.writer = w
	}
}

// WithPretty sets whether JSON should be indented
func WithPretty(pretty bool) Option {
	return func(f *Formatter) {
		f.pretty = pretty
	}
}

// Format returns the current output format
func (f *Formatter) Format() Format {
	return f.format
}

// IsStructured is true for JSON and YAML
func (f *Formatter) IsStructured() bool {
	return f.format == FormatJSON || f.format == FormatYAML
}

// Writer returns the output writer
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// Structured writes v as JSON or YAML according to the format.
func (f *Formatter) Structured(v interface{}) error {
	if f.format == FormatYAML {
		return WriteYAML(f.writer, v)
	}
	return WriteJSON(f.writer, v, f.pretty)
}

// OutputData writes data in the structured format, or calls textFn.
func (f *Formatter) OutputData(data interface{}, textFn func(w io.Writer) error) error {
	if f.IsStructured() {
		return f.Structured(data)
	}
	return textFn(f.writer)
}

// DetectFormat determines the output format.
// Priority: --format > --json > env var > default text
func DetectFormat(formatFlag string, jsonFlag bool) (Format, error) {
	if formatFlag != "" {
		return ParseFormat(formatFlag)
	}
	if jsonFlag {
		return FormatJSON, nil
	}
	if env := os.Getenv(EnvFormat); env != "" {
		return ParseFormat(env)
	}
	return FormatText, nil
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
