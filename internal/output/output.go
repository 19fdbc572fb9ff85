package output

import "io"

// Result is a command result that renders both as text and as data
type Result interface {
	// Text writes the human-readable form
	Text(w io.Writer) error
	// Data returns the value serialized in JSON/YAML mode
	Data() interface{}
}

// Output writes a Result in the formatter's format
func (f *Formatter) Output(r Result) error {
	if f.IsStructured() {
		return f.Structured(r.Data())
	}
	return r.Text(f.writer)
}

// DefaultFormatter returns a formatter for the --format and --json flags,
// writing to w.
func DefaultFormatter(w io.Writer, formatFlag string, jsonFlag bool) (*Formatter, error) {
	format, err := DetectFormat(formatFlag, jsonFlag)
	if err != nil {
		return nil, err
	}
	return New(WithFormat(format), WithWriter(w)), nil
}
