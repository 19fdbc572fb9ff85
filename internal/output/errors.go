package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/audiopin/internal/tui/theme"
)

// CLIError represents a structured CLI error with remediation hints.
type CLIError struct {
	Message string // What failed
	Cause   string // Why it failed (optional)
	Hint    string // Fastest command/action to fix it (optional)
	Code    string // Error code for programmatic handling (optional)
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// NewCLIError creates a new CLI error with just a message.
func NewCLIError(msg string) *CLIError {
	return &CLIError{Message: msg}
}

// WithCause adds a cause to the error.
func (e *CLIError) WithCause(cause string) *CLIError {
	e.Cause = cause
	return e
}

// WithHint adds a remediation hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// WithCode adds an error code to the error.
func (e *CLIError) WithCode(code string) *CLIError {
	e.Code = code
	return e
}

// ErrorResponse is the structured error format
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// Response converts the error for JSON/YAML output.
func (e *CLIError) Response() ErrorResponse {
	return ErrorResponse{Error: e.Message, Code: e.Code, Details: e.Cause, Hint: e.Hint}
}

func isStderrTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// FormatCLIError formats a CLIError for terminal output.
// Returns plain text if color is false.
func FormatCLIError(e *CLIError, color bool) string {
	var sb strings.Builder

	label := func(s string, c lipgloss.Color, bold bool) string { return s }
	if color {
		label = func(s string, c lipgloss.Color, bold bool) string {
			return lipgloss.NewStyle().Foreground(c).Bold(bold).Render(s)
		}
	}
	t := theme.Current()

	sb.WriteString(label("Error: ", t.Error, true))
	sb.WriteString(e.Message)
	if e.Code != "" {
		sb.WriteString(" ")
		sb.WriteString(label("["+e.Code+"]", t.Overlay, false))
	}
	sb.WriteString("\n")

	if e.Cause != "" {
		sb.WriteString(label("  Cause: ", t.Subtext, false))
		sb.WriteString(e.Cause)
		sb.WriteString("\n")
	}
	if e.Hint != "" {
		sb.WriteString(label("  Hint: ", t.Info, false))
		sb.WriteString(e.Hint)
		sb.WriteString("\n")
	}

	return sb.String()
}

// Report writes err for the user: structured on the formatter's writer in
// JSON/YAML mode, formatted on stderr otherwise.
func (f *Formatter) Report(err error, stderr io.Writer) {
	cliErr, ok := err.(*CLIError)
	if !ok {
		cliErr = NewCLIError(err.Error())
	}
	if f.IsStructured() {
		_ = f.Structured(cliErr.Response())
		return
	}
	color := false
	if stderr == os.Stderr {
		color = isStderrTerminal() && !theme.NoColorEnabled()
	}
	fmt.Fprint(stderr, FormatCLIError(cliErr, color))
}

// Common error hints
var (
	HintConfigNotFound   = "Run 'audiopin config init' to create a default configuration"
	HintConfigInvalid    = "Check config syntax with 'audiopin config show' or edit ~/.config/audiopin/config.toml"
	HintDeviceNotFound   = "Run 'audiopin devices list --all' to see the devices the system reports"
	HintPactlMissing     = "Install pulseaudio-utils (pactl) or set [audio] binary in the config"
	HintWmctrlMissing    = "Install wmctrl or set [window] binary in the config"
	HintLimitReached     = "Remove an entry with 'audiopin prefs remove-device' or 'remove-window' first"
	HintDelayOutOfRange  = "Use a delay between 0 and 60 seconds"
	HintPrefsCorrupt     = "Fix or delete the file shown by 'audiopin prefs path'"
	HintPermissionDenied = "Check file permissions or run with appropriate privileges"
)

// DeviceNotFoundError creates a device-not-found error with hint
func DeviceNotFoundError(name string) *CLIError {
	return NewCLIError(fmt.Sprintf("audio device %q is not available", name)).
		WithCode("DEVICE_NOT_FOUND").
		WithHint(HintDeviceNotFound)
}

// BinaryMissingError creates an error for a missing backend binary
func BinaryMissingError(binary, hint string) *CLIError {
	return NewCLIError(fmt.Sprintf("%s is not installed", binary)).
		WithCode("BACKEND_NOT_INSTALLED").
		WithHint(hint)
}
