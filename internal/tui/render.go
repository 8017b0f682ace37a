package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"folio/internal/rows"
)

const indentStep = "  "

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("folio") + " " + dimStyle.Render("document library") + "\n")
	if m.searching {
		b.WriteString(m.input.View() + "\n")
	}

	if m.showDetail {
		b.WriteString(m.detailView())
	} else {
		b.WriteString(m.listView())
	}

	b.WriteString(m.statusBar())
	return b.String()
}

// listView renders only the rows intersecting the viewport; everything above
// and below stays unrendered.
func (m *Model) listView() string {
	var b strings.Builder
	h := m.viewportHeight()
	if h == 0 {
		return ""
	}

	if len(m.rowList) == 0 {
		msg := "No index yet. Run 'folio index <library>' or point --db at an index."
		if m.inSearchMode() {
			msg = "No matches."
		}
		b.WriteString(dimStyle.Render(msg) + "\n")
		for i := 1; i < h; i++ {
			b.WriteByte('\n')
		}
		return b.String()
	}

	win := m.window()
	lines := 0
	for i := win.Start; i < win.End && lines < h; i++ {
		if i < m.scroll {
			continue // overscan above the viewport
		}
		b.WriteString(m.renderRow(m.rowList[i], i == m.cursor))
		b.WriteByte('\n')
		lines++
	}
	for ; lines < h; lines++ {
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Model) renderRow(r *rows.Row, selected bool) string {
	indent := strings.Repeat(indentStep, r.Depth)

	var marker, label string
	switch r.Kind {
	case rows.KindFolder:
		marker = "▸ "
		if m.folderOpen(r) {
			marker = "▾ "
		}
		label = folderStyle.Render(r.Label)
	case rows.KindFile:
		marker = "▸ "
		if m.exp.FileExpanded(r.FileID) {
			marker = "▾ "
		}
		label = fileStyle.Render(r.Label)
	case rows.KindHeading:
		if r.HasChildren {
			marker = "▾ "
			if m.exp.HeadingCollapsed(r.FileID, r.HeadingOrder) {
				marker = "▸ "
			}
		} else {
			marker = "· "
		}
		label = headingStyle.Render(r.Label)
		if r.Hit != nil {
			label = matchStyle.Render(r.Label)
		}
	case rows.KindAuthor:
		marker = "@ "
		label = matchStyle.Render(r.Label)
	case rows.KindCitation:
		marker = "❝ "
		label = citationStyle.Render(truncate(r.Label, m.width-len(indent)-8))
	case rows.KindLoading:
		marker = m.spinner.View() + " "
		label = dimStyle.Render(r.Label)
	case rows.KindEmpty:
		marker = "  "
		label = dimStyle.Render(r.Label)
	}

	line := indent + marker + label
	if r.SubLabel != "" && r.Kind != rows.KindCitation {
		line += " " + subLabelStyle.Render(r.SubLabel)
	}

	if selected {
		return selectedStyle.Render("›") + line
	}
	return " " + line
}

// folderOpen resolves the expansion marker for both the snapshot folders and
// the remote tag-result block.
func (m *Model) folderOpen(r *rows.Row) bool {
	if r.Key == rows.RemoteFolderKey {
		return m.exp.RemoteExpanded
	}
	return m.exp.FolderExpanded(r.FolderPath)
}

func (m *Model) statusBar() string {
	mode := "browse"
	if m.inSearchMode() {
		mode = "search"
		if m.fileNameOnly {
			mode = "search (files only)"
		}
	}

	left := fmt.Sprintf(" %s • %d rows", mode, len(m.rowList))
	if m.errText != "" {
		left += " • " + errorStyle.Render(m.errText)
	}
	help := "/: search  enter: toggle  K/J: move heading  o: detail  q: quit"

	bar := left
	pad := m.width - lipgloss.Width(left) - lipgloss.Width(help) - 2
	if pad > 0 {
		bar += strings.Repeat(" ", pad) + help
	}
	return statusBarStyle.Width(m.width).Render(bar)
}

func truncate(s string, max int) string {
	if max <= 1 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
