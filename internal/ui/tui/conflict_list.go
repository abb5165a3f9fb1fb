// Package tui provides interactive terminal UI components using BubbleTea.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/orbitapp/orbitsync/internal/sync"
)

// ConflictAction represents the action to perform after conflict browsing.
type ConflictAction int

const (
	// ConflictActionNone means no action was taken (user quit).
	ConflictActionNone ConflictAction = iota
	// ConflictActionResolve means the user picked strategies and wants to apply.
	ConflictActionResolve
	// ConflictActionCancel means the user cancelled.
	ConflictActionCancel
)

// ConflictListResult contains the result of the browsing interaction.
type ConflictListResult struct {
	Action ConflictAction
	// Strategies holds the chosen resolution strategy per conflict id.
	// Skipped conflicts are absent.
	Strategies map[string]sync.Strategy
}

// conflictPhase represents the current phase of conflict browsing.
type conflictPhase int

const (
	phaseList conflictPhase = iota
	phaseDetail
)

// conflictKeyMap defines the key bindings for conflict browsing.
type conflictKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	App       key.Binding
	External  key.Binding
	LastWrite key.Binding
	Merge     key.Binding
	Skip      key.Binding
	Confirm   key.Binding
	Back      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultConflictKeyMap() conflictKeyMap {
	return conflictKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view details"),
		),
		App: key.NewBinding(
			key.WithKeys("a", "1"),
			key.WithHelp("a/1", "keep local"),
		),
		External: key.NewBinding(
			key.WithKeys("e", "2"),
			key.WithHelp("e/2", "keep remote"),
		),
		LastWrite: key.NewBinding(
			key.WithKeys("l", "3"),
			key.WithHelp("l/3", "last write wins"),
		),
		Merge: key.NewBinding(
			key.WithKeys("m", "4"),
			key.WithHelp("m/4", "merge"),
		),
		Skip: key.NewBinding(
			key.WithKeys("x", "5"),
			key.WithHelp("x/5", "skip"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "apply choices"),
		),
		Back: key.NewBinding(
			key.WithKeys("b", "esc"),
			key.WithHelp("b/esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ConflictListModel is the BubbleTea model for conflict browsing.
type ConflictListModel struct {
	conflicts   []*sync.Conflict
	strategies  map[string]sync.Strategy
	table       table.Model
	viewport    viewport.Model
	keys        conflictKeyMap
	result      ConflictListResult
	phase       conflictPhase
	cursor      int
	showHelp    bool
	confirmMode bool
	width       int
	height      int
	quitting    bool
	ready       bool
}

// Styles for the conflict browsing TUI.
var conflictStyles = struct {
	Title        lipgloss.Style
	Help         lipgloss.Style
	Status       lipgloss.Style
	Local        lipgloss.Style
	Remote       lipgloss.Style
	Context      lipgloss.Style
	Info         lipgloss.Style
	High         lipgloss.Style
	Medium       lipgloss.Style
	Low          lipgloss.Style
	Resolved     lipgloss.Style
	Confirm      lipgloss.Style
	SectionTitle lipgloss.Style
}{
	Title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Help:         lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Status:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
	Local:        lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
	Remote:       lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
	Context:      lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	Info:         lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true),
	High:         lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	Medium:       lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	Low:          lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Resolved:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	Confirm:      lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true).Padding(0, 1),
	SectionTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(1, 0),
}

// NewConflictListModel creates a new conflict browsing model.
func NewConflictListModel(conflicts []*sync.Conflict) ConflictListModel {
	strategies := make(map[string]sync.Strategy)

	columns := []table.Column{
		{Title: "Status", Width: 6},
		{Title: "Entity", Width: 22},
		{Title: "Type", Width: 10},
		{Title: "Priority", Width: 8},
		{Title: "Fields", Width: 24},
		{Title: "Choice", Width: 16},
	}

	rows := make([]table.Row, len(conflicts))
	for i, c := range conflicts {
		rows[i] = buildConflictRow(c, "")
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ConflictListModel{
		conflicts:  conflicts,
		strategies: strategies,
		table:      t,
		keys:       defaultConflictKeyMap(),
		phase:      phaseList,
	}
}

func buildConflictRow(c *sync.Conflict, strategy string) table.Row {
	status := "○"
	if strategy != "" {
		status = "✓"
	}

	choice := "-"
	if strategy != "" {
		choice = strategy
	}

	return table.Row{
		status,
		truncateText(c.AppValue.Title(), 22),
		string(c.EntityType),
		string(c.Priority),
		truncateText(strings.Join(c.Fields(), ", "), 24),
		choice,
	}
}

// Init implements tea.Model.
func (m ConflictListModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ConflictListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.phase {
	case phaseList:
		return m.updateList(msg)
	case phaseDetail:
		return m.updateDetail(msg)
	}
	return m, nil
}

func (m ConflictListModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		newHeight := max(msg.Height-10, 5)
		m.table.SetHeight(newHeight)

	case tea.KeyMsg:
		if m.confirmMode {
			switch msg.String() {
			case "y", "Y":
				m.result = ConflictListResult{
					Action:     ConflictActionResolve,
					Strategies: m.strategies,
				}
				m.quitting = true
				return m, tea.Quit
			case "n", "N", "esc":
				m.confirmMode = false
				return m, nil
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Select):
			if len(m.conflicts) > 0 {
				m.cursor = m.table.Cursor()
				m.phase = phaseDetail
				m.ready = false
				return m, nil
			}

		case key.Matches(msg, m.keys.App):
			m.chooseCurrent(sync.StrategyAppWins)
			return m, nil

		case key.Matches(msg, m.keys.External):
			m.chooseCurrent(sync.StrategyExternalWins)
			return m, nil

		case key.Matches(msg, m.keys.LastWrite):
			m.chooseCurrent(sync.StrategyLastWriteWins)
			return m, nil

		case key.Matches(msg, m.keys.Merge):
			m.chooseCurrent(sync.StrategyMerge)
			return m, nil

		case key.Matches(msg, m.keys.Skip):
			m.chooseCurrent("")
			return m, nil

		case key.Matches(msg, m.keys.Confirm):
			if len(m.strategies) > 0 {
				m.confirmMode = true
				return m, nil
			}

		case key.Matches(msg, m.keys.Back):
			m.result = ConflictListResult{Action: ConflictActionCancel}
			m.quitting = true
			return m, tea.Quit
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ConflictListModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 6
		footerHeight := 4
		viewportHeight := max(msg.Height-headerHeight-footerHeight, 5)

		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, viewportHeight)
			m.viewport.SetContent(m.buildDetailContent())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = viewportHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Back):
			m.phase = phaseList
			return m, nil

		case key.Matches(msg, m.keys.App):
			m.chooseAt(m.cursor, sync.StrategyAppWins)
			m.viewport.SetContent(m.buildDetailContent())
			return m, nil

		case key.Matches(msg, m.keys.External):
			m.chooseAt(m.cursor, sync.StrategyExternalWins)
			m.viewport.SetContent(m.buildDetailContent())
			return m, nil

		case key.Matches(msg, m.keys.LastWrite):
			m.chooseAt(m.cursor, sync.StrategyLastWriteWins)
			m.viewport.SetContent(m.buildDetailContent())
			return m, nil

		case key.Matches(msg, m.keys.Merge):
			m.chooseAt(m.cursor, sync.StrategyMerge)
			m.viewport.SetContent(m.buildDetailContent())
			return m, nil

		case key.Matches(msg, m.keys.Skip):
			m.chooseAt(m.cursor, "")
			m.viewport.SetContent(m.buildDetailContent())
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *ConflictListModel) chooseCurrent(strategy sync.Strategy) {
	m.chooseAt(m.table.Cursor(), strategy)
}

func (m *ConflictListModel) chooseAt(idx int, strategy sync.Strategy) {
	if idx < 0 || idx >= len(m.conflicts) {
		return
	}

	c := m.conflicts[idx]
	if strategy == "" {
		delete(m.strategies, c.ID)
	} else {
		m.strategies[c.ID] = strategy
	}

	m.updateTableRow(idx)
}

func (m *ConflictListModel) updateTableRow(idx int) {
	if idx < 0 || idx >= len(m.conflicts) {
		return
	}

	c := m.conflicts[idx]
	strategy := ""
	if s, ok := m.strategies[c.ID]; ok {
		strategy = string(s)
	}

	rows := m.table.Rows()
	if idx < len(rows) {
		rows[idx] = buildConflictRow(c, strategy)
		m.table.SetRows(rows)
	}
}

func (m ConflictListModel) buildDetailContent() string {
	if m.cursor < 0 || m.cursor >= len(m.conflicts) {
		return "No conflict selected"
	}

	c := m.conflicts[m.cursor]
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	var b strings.Builder

	b.WriteString(conflictStyles.SectionTitle.Render("Conflict Details"))
	b.WriteString("\n")
	b.WriteString(formatDetail("  Entity:   ", fmt.Sprintf("%s (%s)", c.AppValue.Title(), c.EntityType), width))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Service:  %s\n", c.Service))
	b.WriteString(fmt.Sprintf("  Priority: %s\n", m.priorityStyle(c).Render(string(c.Priority))))
	b.WriteString(fmt.Sprintf("  Local edit:  %s\n", c.AppLastModified.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("  Remote edit: %s\n", c.ExternalLastModified.Format("2006-01-02 15:04:05")))

	if s, ok := m.strategies[c.ID]; ok {
		b.WriteString("\n")
		b.WriteString(conflictStyles.Resolved.Render(fmt.Sprintf("  Choice: %s", s)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(conflictStyles.SectionTitle.Render("Differing Fields"))
	b.WriteString("\n")
	for _, d := range c.ConflictFields {
		b.WriteString(conflictStyles.Context.Render(fmt.Sprintf("  %s (%s)", d.Field, d.FieldType)))
		if d.CanMerge {
			b.WriteString(conflictStyles.Info.Render("  mergeable"))
		}
		b.WriteString("\n")
		b.WriteString(conflictStyles.Local.Render("    local:  "))
		b.WriteString(wrapValue(fmt.Sprintf("%v", d.AppValue), 12, width))
		b.WriteString("\n")
		b.WriteString(conflictStyles.Remote.Render("    remote: "))
		b.WriteString(wrapValue(fmt.Sprintf("%v", d.ExternalValue), 12, width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(conflictStyles.Info.Render("Press: a=local, e=remote, l=last write, m=merge, x=skip"))

	return b.String()
}

func (m ConflictListModel) priorityStyle(c *sync.Conflict) lipgloss.Style {
	switch c.Priority {
	case sync.PriorityHigh:
		return conflictStyles.High
	case sync.PriorityMedium:
		return conflictStyles.Medium
	default:
		return conflictStyles.Low
	}
}

// View implements tea.Model.
func (m ConflictListModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.phase {
	case phaseDetail:
		return m.viewDetail()
	default:
		return m.viewList()
	}
}

func (m ConflictListModel) viewList() string {
	var b strings.Builder

	title := conflictStyles.Title.Render("Resolve Sync Conflicts")
	b.WriteString(title)
	b.WriteString("\n\n")

	info := conflictStyles.Info.Render("Pick a strategy per conflict, then press y to apply")
	b.WriteString(info)
	b.WriteString("\n\n")

	if m.confirmMode {
		b.WriteString(m.table.View())
		b.WriteString("\n\n")
		confirmMsg := fmt.Sprintf("Apply %d choice(s)? (y/n)", len(m.strategies))
		b.WriteString(conflictStyles.Confirm.Render(confirmMsg))
		return b.String()
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")

	chosen := len(m.strategies)
	total := len(m.conflicts)
	status := fmt.Sprintf("%d/%d chosen", chosen, total)
	if chosen > 0 {
		status += " • Press y to apply"
	}
	b.WriteString(conflictStyles.Status.Render(status))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderFullHelp())
	} else {
		b.WriteString(m.renderShortHelp())
	}

	return b.String()
}

func (m ConflictListModel) viewDetail() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	entity := ""
	if m.cursor >= 0 && m.cursor < len(m.conflicts) {
		entity = m.conflicts[m.cursor].AppValue.Title()
	}
	title := conflictStyles.Title.Render(fmt.Sprintf("Conflict: %s", entity))
	b.WriteString(title)
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	scrollPercent := int(m.viewport.ScrollPercent() * 100)
	b.WriteString(conflictStyles.Status.Render(fmt.Sprintf("Scroll: %d%%", scrollPercent)))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderFullHelp())
	} else {
		b.WriteString(m.renderDetailShortHelp())
	}

	return b.String()
}

func (m ConflictListModel) renderShortHelp() string {
	keys := []string{
		"↑/↓ navigate",
		"enter details",
		"a local",
		"e remote",
		"l last write",
		"m merge",
		"x skip",
		"? help",
		"q quit",
	}
	return conflictStyles.Help.Render(strings.Join(keys, " • "))
}

func (m ConflictListModel) renderFullHelp() string {
	help := `Navigation:
  ↑/k      Move up
  ↓/j      Move down
  Enter    View conflict details

Strategy:
  a/1      Keep the local version
  e/2      Keep the remote version
  l/3      Keep whichever was edited last
  m/4      Merge both sides where possible
  x/5      Skip this conflict

Actions:
  y        Apply chosen strategies
  b/Esc    Cancel and go back

General:
  ?        Toggle full help
  q        Quit`
	return conflictStyles.Help.Render(help)
}

func (m ConflictListModel) renderDetailShortHelp() string {
	keys := []string{
		"↑/↓ scroll",
		"a local",
		"e remote",
		"l last write",
		"m merge",
		"x skip",
		"b back",
		"? help",
	}
	return conflictStyles.Help.Render(strings.Join(keys, " • "))
}

// Result returns the result of the user interaction.
func (m ConflictListModel) Result() ConflictListResult {
	return m.result
}

// BrowseConflicts runs the interactive conflict browser and returns the
// chosen strategy per conflict id. A cancelled or quit session returns an
// empty map.
func BrowseConflicts(conflicts []*sync.Conflict) (map[string]sync.Strategy, error) {
	if len(conflicts) == 0 {
		return nil, nil
	}

	mdl := NewConflictListModel(conflicts)
	finalModel, err := tea.NewProgram(mdl, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}

	if m, ok := finalModel.(ConflictListModel); ok {
		result := m.Result()
		if result.Action == ConflictActionResolve {
			return result.Strategies, nil
		}
	}

	return nil, nil
}
