package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/options"
	"github.com/vk/gridlaunch/internal/registry"
	"github.com/vk/gridlaunch/internal/style"
)

// Outcome is what the user decided when the editor closed.
type Outcome int

const (
	Aborted Outcome = iota
	StartRun
)

type row struct {
	inst *registry.Instance
	prop string
}

// Model is the Bubble Tea model of the editor.
type Model struct {
	rows    []row
	conv    config.Converter
	styles  style.Styles
	cursor  int
	offset  int
	height  int
	editing bool
	input   textinput.Model
	status  string
	failed  bool
	edits   int
	outcome Outcome
}

// NewModel lists every property of every instance of reg.
func NewModel(reg *registry.Registry, conv config.Converter) Model {
	var rows []row
	for _, inst := range reg.Instances() {
		for _, prop := range inst.PropertyNames() {
			rows = append(rows, row{inst: inst, prop: prop})
		}
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 4096
	return Model{
		rows:   rows,
		conv:   conv,
		styles: style.Default(),
		height: 20,
		input:  ti,
	}
}

// Outcome reports how the editor was closed.
func (m Model) Outcome() Outcome {
	return m.outcome
}

// Edits reports how many values were committed.
func (m Model) Edits() int {
	return m.edits
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Title, blank line, status and help take four lines.
		m.height = max(msg.Height-4, 1)
		m.scroll()
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.outcome = Aborted
		return m, tea.Quit
	case "r":
		m.outcome = StartRun
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.rows)-1, 0)
	case "enter":
		if len(m.rows) == 0 {
			return m, nil
		}
		r := m.rows[m.cursor]
		m.editing = true
		m.status = ""
		m.input.SetValue(options.Render(r.inst.Value(r.prop)))
		m.input.CursorEnd()
		return m, m.input.Focus()
	}
	m.scroll()
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.outcome = Aborted
		return m, tea.Quit
	case "esc":
		m.editing = false
		m.input.Blur()
		m.status = "edit cancelled"
		m.failed = false
		return m, nil
	case "enter":
		m.commit()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// commit parses the input with the property's type and stores it. On error
// the editor stays open so the value can be fixed.
func (m *Model) commit() {
	r := m.rows[m.cursor]
	def, _ := r.inst.Property(r.prop)
	name := options.FlagName(r.inst.Name, r.prop)

	val, err := m.conv.ParseValue(context.Background(), m.input.Value(), def.Type)
	if err == nil {
		err = r.inst.Set(r.prop, val, registry.OriginInteractive)
	}
	if err != nil {
		m.status = fmt.Sprintf("%s: %v", name, err)
		m.failed = true
		return
	}
	m.editing = false
	m.input.Blur()
	m.edits++
	m.failed = false
	m.status = fmt.Sprintf("%s = %s", name, options.Render(val))
}

func (m *Model) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

// View implements tea.Model.
func (m Model) View() string {
	st := m.styles
	var b strings.Builder
	b.WriteString(st.Title.Render("gridlaunch: review properties"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		name := options.FlagName(r.inst.Name, r.prop)
		def, _ := r.inst.Property(r.prop)

		marker := "  "
		label := st.Name.Render(name)
		if i == m.cursor {
			marker = "› "
			label = st.Selected.Render(name)
		}
		line := fmt.Sprintf("%s%s %s = ", marker, label, st.Type.Render(def.Type.FriendlyName()))
		if i == m.cursor && m.editing {
			line += m.input.View()
		} else {
			line += options.Render(r.inst.Value(r.prop)) + " " + st.Origin.Render("("+r.inst.Origin(r.prop)+")")
		}
		if def.Deprecated != "" {
			line += " " + st.Deprecated.Render("[deprecated]")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.failed:
		b.WriteString(st.Error.Render(m.status))
	case m.status != "":
		b.WriteString(st.Status.Render(m.status))
	}
	b.WriteString("\n")
	if m.editing {
		b.WriteString(st.Help.Render("enter: apply • esc: cancel"))
	} else {
		b.WriteString(st.Help.Render("↑/↓: move • enter: edit • r: run • q: quit"))
	}
	return b.String()
}
