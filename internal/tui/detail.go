package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"folio/internal/rows"
)

// detailView renders the selected row's full content as markdown. Remote
// citation rows show their plain text and source path; headings show their
// copy text.
func (m *Model) detailView() string {
	row := m.selectedRow()
	if row == nil {
		return dimStyle.Render("Nothing selected.") + "\n"
	}

	md := detailMarkdown(row)
	rendered := md
	if m.renderer != nil {
		if out, err := m.renderer.Render(md); err == nil {
			rendered = out
		}
	}

	h := m.viewportHeight()
	lines := strings.Split(strings.TrimRight(rendered, "\n"), "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n") + "\n"
}

func detailMarkdown(r *rows.Row) string {
	var b strings.Builder
	switch r.Kind {
	case rows.KindHeading, rows.KindAuthor:
		fmt.Fprintf(&b, "# %s\n\n", r.Label)
		if r.CopyText != "" {
			b.WriteString(r.CopyText + "\n\n")
		}
		fmt.Fprintf(&b, "*Level %d, position %d*\n", r.HeadingLevel, r.HeadingOrder)
	case rows.KindCitation:
		fmt.Fprintf(&b, "# %s\n\n", r.SubLabel)
		b.WriteString(r.Label + "\n\n")
		if r.SourcePath != "" {
			fmt.Fprintf(&b, "*Source: %s*\n", r.SourcePath)
		}
	case rows.KindFile:
		fmt.Fprintf(&b, "# %s\n\n%s\n", r.Label, r.SubLabel)
	case rows.KindFolder:
		fmt.Fprintf(&b, "# %s\n\n%s\n", r.Label, r.SubLabel)
	default:
		b.WriteString(r.Label + "\n")
	}
	return b.String()
}

func (m *Model) initRenderer() {
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		m.renderer = r
	}
}
