// Package tui is an interactive terminal front end for the inventory: a
// sortable, searchable table with add, edit and delete forms.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rl1809/pantry/internal/core/domain"
	"github.com/rl1809/pantry/internal/core/view"
)

// Inventory is the subset of the service the TUI drives.
type Inventory interface {
	ListItems(ctx context.Context) ([]domain.InventoryItem, error)
	AddItem(ctx context.Context, name, rawQuantity, description string) error
	EditItem(ctx context.Context, name, rawQuantity, description string) error
	RemoveItem(ctx context.Context, name string) error
}

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeAdd
	modeEdit
)

const (
	fieldName = iota
	fieldQuantity
	fieldDescription
	fieldCount
)

type itemsLoadedMsg struct {
	items []domain.InventoryItem
	err   error
}

type mutationDoneMsg struct {
	err error
}

type Model struct {
	ctx       context.Context
	inventory Inventory

	state   view.State
	rows    []view.Row
	table   table.Model
	search  textinput.Model
	fields  []textinput.Model
	focus   int
	mode    mode
	loading bool
	err     string
	styles  Styles
}

func New(ctx context.Context, inventory Inventory) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 24},
			{Title: "Quantity", Width: 10},
			{Title: "Description", Width: view.TruncateAt + 4},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	search := textinput.New()
	search.Placeholder = "Search items..."
	search.CharLimit = 64
	search.Width = 40
	search.Cursor.SetMode(cursor.CursorStatic)

	fields := make([]textinput.Model, fieldCount)
	for i, placeholder := range []string{"Name", "Quantity", "Description"} {
		fields[i] = textinput.New()
		fields[i].Placeholder = placeholder
		fields[i].Width = 50
		fields[i].Cursor.SetMode(cursor.CursorStatic)
	}
	fields[fieldQuantity].CharLimit = 9

	return Model{
		ctx:       ctx,
		inventory: inventory,
		state:     view.NewState(nil),
		table:     t,
		search:    search,
		fields:    fields,
		loading:   true,
		styles:    DefaultStyles(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.fetch()
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		items, err := m.inventory.ListItems(m.ctx)
		return itemsLoadedMsg{items: items, err: err}
	}
}

func (m Model) mutate(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return mutationDoneMsg{err: fn(m.ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case itemsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.state = m.state.WithItems(msg.items)
		m.refreshRows()
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.loading = true
		return m, m.fetch()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeAdd, modeEdit:
			return m.updateForm(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		cmd := m.search.Focus()
		return m, cmd
	case "1":
		m.state = m.state.ToggleSort(view.SortName)
		m.refreshRows()
		return m, nil
	case "2":
		m.state = m.state.ToggleSort(view.SortQuantity)
		m.refreshRows()
		return m, nil
	case "enter", " ":
		if row, ok := m.selected(); ok {
			m.state = m.state.ToggleExpanded(row.Name)
			m.refreshRows()
		}
		return m, nil
	case "r":
		m.loading = true
		return m, m.fetch()
	case "a":
		cmd := m.openForm(modeAdd, view.Row{})
		return m, cmd
	case "e":
		if row, ok := m.selected(); ok {
			cmd := m.openForm(modeEdit, row)
			return m, cmd
		}
		return m, nil
	case "d", "delete":
		if row, ok := m.selected(); ok {
			name := row.Name
			return m, m.mutate(func(ctx context.Context) error {
				return m.inventory.RemoveItem(ctx, name)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		m.search.Blur()
		m.mode = modeBrowse
		m.state = m.state.WithSearch("")
		m.refreshRows()
		return m, nil
	case "enter":
		m.search.Blur()
		m.mode = modeBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	// Live filtering on each keystroke.
	m.state = m.state.WithSearch(m.search.Value())
	m.refreshRows()
	return m, cmd
}

func (m *Model) openForm(md mode, row view.Row) tea.Cmd {
	m.mode = md
	m.err = ""
	m.fields[fieldName].SetValue(row.Name)
	m.fields[fieldQuantity].SetValue("")
	m.fields[fieldDescription].SetValue(row.FullDescription)
	m.focus = fieldName
	if md == modeEdit {
		m.fields[fieldQuantity].SetValue(strconv.Itoa(row.Quantity))
		// The name is the storage key and cannot be edited.
		m.focus = fieldQuantity
	}
	return m.focusField()
}

func (m *Model) focusField() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.fields {
		if i == m.focus {
			cmd = m.fields[i].Focus()
		} else {
			m.fields[i].Blur()
		}
	}
	return cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		return m, nil
	case "tab", "down":
		m.focus = m.nextField(1)
		cmd := m.focusField()
		return m, cmd
	case "shift+tab", "up":
		m.focus = m.nextField(-1)
		cmd := m.focusField()
		return m, cmd
	case "enter":
		name := m.fields[fieldName].Value()
		quantity := m.fields[fieldQuantity].Value()
		description := m.fields[fieldDescription].Value()
		add := m.mode == modeAdd
		m.mode = modeBrowse
		return m, m.mutate(func(ctx context.Context) error {
			if add {
				return m.inventory.AddItem(ctx, name, quantity, description)
			}
			return m.inventory.EditItem(ctx, name, quantity, description)
		})
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m Model) nextField(step int) int {
	first := fieldName
	if m.mode == modeEdit {
		first = fieldQuantity
	}
	n := fieldCount - first
	return first + ((m.focus-first+step)%n+n)%n
}

func (m Model) selected() (view.Row, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return view.Row{}, false
	}
	return m.rows[i], true
}

func (m *Model) refreshRows() {
	m.rows = m.state.Rows()
	rows := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		rows = append(rows, table.Row{r.Name, strconv.Itoa(r.Quantity), r.Description})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render(" Pantry Inventory "))
	if m.loading {
		sb.WriteString(m.styles.Muted.Render("  loading..."))
	}
	sb.WriteString("\n\n")

	switch m.mode {
	case modeAdd, modeEdit:
		sb.WriteString(m.renderForm())
	default:
		sb.WriteString(m.renderBrowse())
	}

	if m.err != "" {
		sb.WriteString("\n" + m.styles.Error.Render("Error: "+m.err) + "\n")
	}
	return sb.String()
}

func (m Model) renderBrowse() string {
	var sb strings.Builder

	filter := m.styles.Filter
	if m.mode == modeSearch {
		filter = m.styles.Focused
	}
	sb.WriteString(filter.Render(m.search.View()))
	sort := m.state.Query().Sort
	sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("  sorted by %s (%s)", sort.Field, sort.Direction)))
	sb.WriteString("\n\n")

	sb.WriteString(m.table.View())
	sb.WriteString("\n")

	for _, r := range m.rows {
		if r.Expanded {
			sb.WriteString(m.styles.Detail.Render(r.Name + "\n\n" + r.FullDescription))
			sb.WriteString("\n")
		}
	}

	total := len(m.state.Items())
	if len(m.rows) != total {
		sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("Showing %d of %d items", len(m.rows), total)) + "\n")
	}
	sb.WriteString(m.styles.Muted.Render("[/] search  [1] name  [2] quantity  [enter] expand  [a] add  [e] edit  [d] delete  [r] refresh  [q] quit"))
	return sb.String()
}

func (m Model) renderForm() string {
	var sb strings.Builder
	title := "Add item"
	if m.mode == modeEdit {
		title = "Edit item"
	}
	sb.WriteString(m.styles.Header.Render(title) + "\n\n")

	labels := []string{"Name", "Quantity", "Description"}
	for i, f := range m.fields {
		if m.mode == modeEdit && i == fieldName {
			sb.WriteString(m.styles.Label.Render(labels[i]) + f.Value() + "\n")
			continue
		}
		sb.WriteString(m.styles.Label.Render(labels[i]) + f.View() + "\n")
	}
	sb.WriteString("\n" + m.styles.Muted.Render("[tab] next field  [enter] save  [esc] cancel"))
	return sb.String()
}

// Run starts the interactive program and blocks until the user quits.
func Run(ctx context.Context, inventory Inventory) error {
	_, err := tea.NewProgram(New(ctx, inventory), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
