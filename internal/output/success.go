package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/audiopin/internal/tui/theme"
)

// Suggestion represents a "what next" command suggestion
type Suggestion struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// PrintSuccessFooter prints a "What's next?" footer to the given writer.
// Skips output if w is not a terminal.
func PrintSuccessFooter(w io.Writer, suggestions ...Suggestion) {
	if len(suggestions) == 0 || !colorWriter(w) {
		return
	}

	t := theme.Current()
	headerStyle := lipgloss.NewStyle().Foreground(t.Subtext).Bold(true)
	cmdStyle := lipgloss.NewStyle().Foreground(t.Info)
	descStyle := lipgloss.NewStyle().Foreground(t.Overlay)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("What's next?"))
	for _, s := range suggestions {
		fmt.Fprintf(w, "  %s  %s\n", cmdStyle.Render(s.Command), descStyle.Render("# "+s.Description))
	}
}

// PrintSuccessCheck prints a success message with a checkmark to the given writer
func PrintSuccessCheck(w io.Writer, msg string) {
	if colorWriter(w) {
		checkStyle := lipgloss.NewStyle().Foreground(theme.Current().Success)
		fmt.Fprintf(w, "%s %s\n", checkStyle.Render("✓"), msg)
		return
	}
	fmt.Fprintf(w, "✓ %s\n", msg)
}

func colorWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) && !theme.NoColorEnabled()
}

// InitSuggestions follow 'audiopin config init'
func InitSuggestions() []Suggestion {
	return []Suggestion{
		{Command: "audiopin devices list --all", Description: "See available audio devices"},
		{Command: "audiopin prefs add-device <name>", Description: "Pin a device to the panel"},
		{Command: "audiopin run", Description: "Start watching"},
	}
}
