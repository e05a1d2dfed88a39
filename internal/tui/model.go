// Package tui implements the interactive storage browser.
//
// The browser is a bubbletea model that turns key presses into session
// commands and renders the views the session returns. It never reads or
// mutates the graph itself, and every command runs to completion inside
// Update before the next key is processed.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marmos91/layerscope/internal/logger"
	"github.com/marmos91/layerscope/pkg/graph"
	"github.com/marmos91/layerscope/pkg/session"
)

// Executor runs session commands. *session.Session satisfies it.
type Executor interface {
	Execute(ctx context.Context, cmd session.Command) (session.View, error)
}

// screen is the active view of the browser.
type screen int

const (
	screenCategories screen = iota
	screenList
	screenNode
	screenConfirm
)

// categoryRow is one selectable kind of the category screen.
type categoryRow struct {
	category string
	dangling bool
	kind     graph.Kind
	count    int
}

// pending is a previewed removal waiting for confirmation.
type pending struct {
	plan    *session.PlanView
	execute session.Command
	back    screen
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx  context.Context
	exec Executor

	screen screen

	categories []categoryRow
	catCursor  int

	list       *session.ListView
	listCursor int

	node       *session.NodeView
	nodeCursor int
	trail      []string

	confirm *pending

	// Removals executed during the session, oldest first.
	removals []*session.RemovalView

	status string
	err    error

	viewport viewport.Model
	width    int
	height   int
	ready    bool
	quitting bool
}

// NewModel creates a browser over exec and loads the category screen.
func NewModel(ctx context.Context, exec Executor) Model {
	m := Model{ctx: ctx, exec: exec, screen: screenCategories}
	m.loadCategories()
	return m
}

// Removals returns the removals executed while browsing.
func (m Model) Removals() []*session.RemovalView {
	return m.removals
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.screen == screenConfirm {
			m.handleConfirmKey(msg)
			m.syncViewport()
			return m, nil
		}

		switch msg.String() {
		case "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "g", "home":
			m.moveTo(0)
		case "G", "end":
			m.moveTo(m.rowCount() - 1)
		case "enter", "right", "l":
			m.open()
		case "esc", "backspace", "left", "h":
			m.back()
		case "d":
			m.previewDelete(false)
		case "D":
			m.previewDelete(true)
		case "p":
			m.previewPrune()
		case "r":
			m.reload()
		}
	}

	m.syncViewport()
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 2
	footerHeight := 3
	viewportHeight := max(height-headerHeight-footerHeight, 1)

	if !m.ready {
		m.viewport = viewport.New(width, viewportHeight)
		m.viewport.YPosition = headerHeight
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = viewportHeight
	}
	m.syncViewport()
}

// run executes cmd and records its error for the footer.
func (m *Model) run(cmd session.Command) session.View {
	v, err := m.exec.Execute(m.ctx, cmd)
	m.err = err
	if err != nil {
		logger.DebugCtx(m.ctx, "browser command failed", logger.Operation(cmd.Name()), logger.Err(err))
		return nil
	}
	return v
}

// =============================================================================
// Navigation
// =============================================================================

func (m *Model) rowCount() int {
	switch m.screen {
	case screenCategories:
		return len(m.categories)
	case screenList:
		if m.list == nil {
			return 0
		}
		return len(m.list.Items)
	case screenNode:
		if m.node == nil {
			return 0
		}
		return len(m.node.Deps) + len(m.node.RDeps)
	}
	return 0
}

func (m *Model) cursor() *int {
	switch m.screen {
	case screenList:
		return &m.listCursor
	case screenNode:
		return &m.nodeCursor
	default:
		return &m.catCursor
	}
}

func (m *Model) move(delta int) {
	m.moveTo(*m.cursor() + delta)
}

func (m *Model) moveTo(row int) {
	c := m.cursor()
	*c = clamp(row, m.rowCount())
}

func clamp(row, n int) int {
	if n == 0 || row < 0 {
		return 0
	}
	if row >= n {
		return n - 1
	}
	return row
}

// open descends into the row under the cursor.
func (m *Model) open() {
	m.status = ""
	switch m.screen {
	case screenCategories:
		if len(m.categories) == 0 {
			return
		}
		row := m.categories[m.catCursor]
		if m.loadList(session.SelectCategory{Kind: row.kind, Dangling: row.dangling}) {
			m.listCursor = 0
			m.screen = screenList
		}
	case screenList:
		if m.list == nil || len(m.list.Items) == 0 {
			return
		}
		m.trail = nil
		if m.loadNode(m.list.Items[m.listCursor].ID) {
			m.screen = screenNode
		}
	case screenNode:
		link, ok := m.selectedLink()
		if !ok {
			return
		}
		from := m.node.Node.ID
		if m.loadNode(link.ID) {
			m.trail = append(m.trail, from)
		}
	}
}

// back returns to the previous node, or to the enclosing screen.
func (m *Model) back() {
	m.status = ""
	switch m.screen {
	case screenList:
		m.screen = screenCategories
	case screenNode:
		if n := len(m.trail); n > 0 {
			prev := m.trail[n-1]
			m.trail = m.trail[:n-1]
			if m.loadNode(prev) {
				return
			}
		}
		m.screen = screenList
	}
}

// selectedLink is the dependency or referrer under the node cursor.
func (m *Model) selectedLink() (session.Item, bool) {
	if m.node == nil {
		return session.Item{}, false
	}
	i := m.nodeCursor
	if i < len(m.node.Deps) {
		return m.node.Deps[i], true
	}
	i -= len(m.node.Deps)
	if i < len(m.node.RDeps) {
		return m.node.RDeps[i], true
	}
	return session.Item{}, false
}

// =============================================================================
// Loading
// =============================================================================

func (m *Model) loadCategories() {
	v, ok := m.run(session.ListCategories{}).(*session.CategoriesView)
	if !ok {
		return
	}
	m.categories = nil
	for _, c := range v.Categories {
		for _, k := range c.Kinds {
			m.categories = append(m.categories, categoryRow{
				category: c.Name,
				dangling: c.Dangling,
				kind:     k.Kind,
				count:    k.Count,
			})
		}
	}
	m.catCursor = clamp(m.catCursor, len(m.categories))
}

func (m *Model) loadList(cmd session.SelectCategory) bool {
	v, ok := m.run(cmd).(*session.ListView)
	if !ok {
		return false
	}
	m.list = v
	m.listCursor = clamp(m.listCursor, len(v.Items))
	return true
}

func (m *Model) loadNode(id string) bool {
	v, ok := m.run(session.ViewNode{ID: id}).(*session.NodeView)
	if !ok {
		return false
	}
	m.node = v
	m.nodeCursor = 0
	return true
}

// reload refreshes every loaded view after the graph changed. A node that
// no longer exists sends the browser back to its list.
func (m *Model) reload() {
	err := m.err
	m.loadCategories()
	if m.list != nil {
		m.loadList(session.SelectCategory{Kind: m.list.Kind, Dangling: m.list.Dangling, Unreachable: m.list.Unreachable})
	}
	if m.screen == screenNode && m.node != nil {
		if !m.loadNode(m.node.Node.ID) {
			m.node = nil
			m.trail = nil
			m.screen = screenList
			m.err = nil
		}
	}
	if err != nil {
		m.err = err
	}
}

// =============================================================================
// Removal
// =============================================================================

// target is the node a delete key applies to on the current screen.
func (m *Model) target() (string, bool) {
	switch m.screen {
	case screenList:
		if m.list != nil && len(m.list.Items) > 0 {
			return m.list.Items[m.listCursor].ID, true
		}
	case screenNode:
		if m.node != nil {
			return m.node.Node.ID, true
		}
	}
	return "", false
}

func (m *Model) previewDelete(recursive bool) {
	id, ok := m.target()
	if !ok {
		return
	}
	plan, ok := m.run(session.PreviewDelete{ID: id, Recursive: recursive}).(*session.PlanView)
	if !ok {
		return
	}
	m.askConfirm(plan, session.Delete{ID: id, Recursive: recursive, Confirmed: true})
}

// previewPrune previews removing every dangling node of the selected kind.
func (m *Model) previewPrune() {
	if m.screen != screenCategories || len(m.categories) == 0 {
		return
	}
	row := m.categories[m.catCursor]
	if !row.dangling {
		m.status = fmt.Sprintf("%s nodes cannot be pruned", row.kind)
		return
	}
	kinds := []graph.Kind{row.kind}
	plan, ok := m.run(session.PreviewPrune{Kinds: kinds}).(*session.PlanView)
	if !ok {
		return
	}
	m.askConfirm(plan, session.Prune{Kinds: kinds, Confirmed: true})
}

func (m *Model) askConfirm(plan *session.PlanView, execute session.Command) {
	if len(plan.Items) == 0 {
		m.status = "Nothing to remove."
		return
	}
	m.confirm = &pending{plan: plan, execute: execute, back: m.screen}
	m.screen = screenConfirm
	m.viewport.GotoTop()
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "y", "Y":
		m.executeRemoval()
	case "n", "N", "esc", "q":
		m.screen = m.confirm.back
		m.confirm = nil
		m.status = "Aborted, nothing was removed."
	case "up", "k":
		m.viewport.LineUp(1)
	case "down", "j":
		m.viewport.LineDown(1)
	}
}

// executeRemoval runs the confirmed command. A failed cascade still returns
// the nodes it removed, so the browser reloads either way.
func (m *Model) executeRemoval() {
	p := m.confirm
	m.confirm = nil
	m.screen = p.back

	v, err := m.exec.Execute(m.ctx, p.execute)
	m.err = err
	if rv, ok := v.(*session.RemovalView); ok {
		m.removals = append(m.removals, rv)
		m.status = fmt.Sprintf("Removed %s (%s).", plural(len(rv.Removed), "node"), rv.Size)
		if rv.Failed != "" {
			m.status += fmt.Sprintf(" Stopped at %s.", rv.Failed)
		}
	}
	if graph.IsNotFoundError(err) {
		m.status = "Node is already gone."
	}
	m.reload()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Run starts the browser on the terminal and blocks until the user quits.
// It returns the removals executed while browsing.
func Run(ctx context.Context, exec Executor, opts ...tea.ProgramOption) ([]*session.RemovalView, error) {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewModel(ctx, exec), opts...)
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("browser: %w", err)
	}
	return final.(Model).Removals(), nil
}
