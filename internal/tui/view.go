package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/marmos91/layerscope/pkg/session"
)

// =============================================================================
// Styles
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	crumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("12"))

	danglingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	dangerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		body, _ := m.renderBody()
		b.WriteString(body)
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// syncViewport renders the body into the viewport and scrolls the cursor
// into view.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	body, line := m.renderBody()
	m.viewport.SetContent(body)
	if m.screen == screenConfirm {
		return
	}
	switch {
	case line < m.viewport.YOffset:
		m.viewport.SetYOffset(line)
	case line >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}

func (m Model) renderHeader() string {
	crumbs := []string{"categories"}
	if m.screen != screenCategories && m.list != nil {
		crumbs = append(crumbs, listTitle(m.list))
	}
	if (m.screen == screenNode || (m.screen == screenConfirm && m.confirm.back == screenNode)) && m.node != nil {
		crumbs = append(crumbs, m.node.Node.ID)
	}
	if m.screen == screenConfirm {
		crumbs = append(crumbs, "confirm")
	}
	return titleStyle.Render("layerscope") + "  " + crumbStyle.Render(strings.Join(crumbs, " > "))
}

func (m Model) renderFooter() string {
	var line string
	switch {
	case m.err != nil:
		line = errorStyle.Render("Error: " + m.err.Error())
	case m.status != "":
		line = statusStyle.Render(m.status)
	}

	var help string
	switch m.screen {
	case screenCategories:
		help = "↑/↓ move • enter open • p prune kind • r reload • q quit"
	case screenList:
		help = "↑/↓ move • enter details • d delete • D delete recursive • esc back • q quit"
	case screenNode:
		help = "↑/↓ move • enter follow link • d delete • D delete recursive • esc back • q quit"
	case screenConfirm:
		help = "y remove • n cancel • ↑/↓ scroll"
	}
	return line + "\n" + helpStyle.Render(help)
}

// renderBody renders the active screen and returns the line of the cursor.
func (m Model) renderBody() (string, int) {
	switch m.screen {
	case screenList:
		return m.renderList()
	case screenNode:
		return m.renderNode()
	case screenConfirm:
		return m.renderConfirm(), 0
	default:
		return m.renderCategories()
	}
}

func (m Model) renderCategories() (string, int) {
	var lines []string
	cursorLine := 0
	last := ""
	for i, row := range m.categories {
		if row.category != last {
			if last != "" {
				lines = append(lines, "")
			}
			lines = append(lines, headingStyle.Render(row.category))
			last = row.category
		}
		text := fmt.Sprintf("  %-14s %6d", row.kind, row.count)
		if i == m.catCursor {
			cursorLine = len(lines)
			text = selectedStyle.Render(text)
		} else if row.dangling && row.count > 0 {
			text = danglingStyle.Render(text)
		}
		lines = append(lines, text)
	}
	if len(lines) == 0 {
		lines = append(lines, "The storage graph is empty.")
	}
	return strings.Join(lines, "\n"), cursorLine
}

func listTitle(v *session.ListView) string {
	title := v.Kind.String()
	if title == "" {
		title = "all"
	}
	switch {
	case v.Dangling:
		title += " (dangling)"
	case v.Unreachable:
		title += " (unreachable)"
	}
	return title
}

func (m Model) renderList() (string, int) {
	if m.list == nil || len(m.list.Items) == 0 {
		return "No nodes.", 0
	}
	lines := make([]string, 0, len(m.list.Items)+1)
	lines = append(lines, headingStyle.Render(fmt.Sprintf("%s: %d", listTitle(m.list), len(m.list.Items))))
	cursorLine := 0
	for i, it := range m.list.Items {
		text := itemLine(it)
		if i == m.listCursor {
			cursorLine = len(lines)
			text = selectedStyle.Render(text)
		} else if it.Dangling {
			text = danglingStyle.Render(text)
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n"), cursorLine
}

func itemLine(it session.Item) string {
	line := fmt.Sprintf("  %s  refs=%d deps=%d", it.ID, it.RefCount, it.Deps)
	if it.Label != "" {
		line += "  " + it.Label
	}
	return line
}

func (m Model) renderNode() (string, int) {
	if m.node == nil {
		return "No node selected.", 0
	}
	n := m.node.Node

	lines := []string{
		headingStyle.Render(n.ID),
		fmt.Sprintf("  %-18s %s", "Kind", n.Kind),
		fmt.Sprintf("  %-18s %s", "Size", m.node.Size),
		fmt.Sprintf("  %-18s %t", "Reachable", m.node.Reachable),
		fmt.Sprintf("  %-18s %t", "Dangling", n.IsDangling()),
	}
	for _, p := range n.Paths {
		lines = append(lines, fmt.Sprintf("  %-18s %s", "Path", p))
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  %-18s %s", k, n.Attrs[k]))
	}

	cursorLine := 0
	row := 0
	section := func(title string, items []session.Item) {
		lines = append(lines, "", headingStyle.Render(fmt.Sprintf("%s (%d)", title, len(items))))
		for _, it := range items {
			text := itemLine(it)
			if row == m.nodeCursor {
				cursorLine = len(lines)
				text = selectedStyle.Render(text)
			}
			lines = append(lines, text)
			row++
		}
	}
	section("Depends on", m.node.Deps)
	section("Referenced by", m.node.RDeps)

	return strings.Join(lines, "\n"), cursorLine
}

func (m Model) renderConfirm() string {
	if m.confirm == nil {
		return ""
	}
	plan := m.confirm.plan

	mode := "Remove"
	if plan.Recursive {
		mode = "Recursively remove"
	}
	lines := []string{
		dangerStyle.Render(fmt.Sprintf("%s %s, %s in total?", mode, plural(len(plan.Items), "node"), plan.Size)),
		"",
	}
	for i, it := range plan.Items {
		lines = append(lines, fmt.Sprintf("  %3d. %s", i+1, it.ID))
	}
	return strings.Join(lines, "\n")
}
