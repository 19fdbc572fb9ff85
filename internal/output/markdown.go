package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"

	"github.com/Dicklesworthstone/audiopin/internal/tui/theme"
)

// MarkdownWidth is the wrap width for rendered markdown
const MarkdownWidth = 80

// markdownStyle picks a glamour style: themed on a colour terminal,
// ASCII otherwise so piped output stays plain.
func markdownStyle(w io.Writer) string {
	if !colorWriter(w) {
		return "notty"
	}
	if theme.Current().Dark {
		return "dark"
	}
	return "light"
}

// RenderMarkdown renders md to w through glamour.
func RenderMarkdown(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(markdownStyle(w)),
		glamour.WithWordWrap(MarkdownWidth),
	)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
