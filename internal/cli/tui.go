package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/machine"
)

var (
	pickerHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	pickerCursor = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
)

// machineRow summarizes one extracted machine.
type machineRow struct {
	ID          string
	States      int
	Transitions int
	Initial     string
}

// MachineListModel lets the user pick one machine when a script defines
// several. Typing "/" starts a filter on machine IDs.
type MachineListModel struct {
	Rows     []machineRow
	Cursor   int // position in the filtered list
	Selected int // index into Rows, -1 until chosen
	Height   int
	Offset   int

	Filter    string
	filtering bool
	visible   []int
}

// NewMachineListModel builds the picker for defs.
func NewMachineListModel(defs []*machine.Definition) MachineListModel {
	m := MachineListModel{Selected: -1, Height: 15}
	for _, d := range defs {
		m.Rows = append(m.Rows, machineRow{
			ID:          d.ID,
			States:      len(d.Nodes()),
			Transitions: len(d.Transitions()),
			Initial:     d.Initial,
		})
	}
	m.refilter()
	return m
}

// refilter recomputes the visible rows and resets the viewport.
func (m *MachineListModel) refilter() {
	m.visible = nil
	needle := strings.ToLower(m.Filter)
	for i, r := range m.Rows {
		if strings.Contains(strings.ToLower(r.ID), needle) {
			m.visible = append(m.visible, i)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

// move shifts the cursor by delta, keeping it on screen.
func (m *MachineListModel) move(delta int) {
	m.Cursor = max(0, min(m.Cursor+delta, len(m.visible)-1))
	switch {
	case m.Cursor < m.Offset:
		m.Offset = m.Cursor
	case m.Cursor >= m.Offset+m.Height:
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m MachineListModel) Init() tea.Cmd { return nil }

func (m MachineListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-7, 5)
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "/":
			m.filtering = true
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "enter":
			if len(m.visible) > 0 {
				m.Selected = m.visible[m.Cursor]
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m MachineListModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.filtering = false
		m.Filter = ""
	case tea.KeyEnter:
		m.filtering = false
		return m, nil
	case tea.KeyBackspace:
		if m.Filter == "" {
			return m, nil
		}
		r := []rune(m.Filter)
		m.Filter = string(r[:len(r)-1])
	case tea.KeyRunes, tea.KeySpace:
		m.Filter += string(msg.Runes)
	default:
		return m, nil
	}
	m.refilter()
	return m, nil
}

func (m MachineListModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Select Machine") + "\n")
	if m.filtering || m.Filter != "" {
		b.WriteString(StyleHighlight.Render("/"+m.Filter) + "\n\n")
	} else {
		b.WriteString(StyleDim.Render("↑/↓ navigate  / filter  ⏎ select  q quit") + "\n\n")
	}

	var rows [][]string
	end := min(m.Offset+m.Height, len(m.visible))
	for pos := m.Offset; pos < end; pos++ {
		i := m.visible[pos]
		r := m.Rows[i]
		marker := "  "
		if pos == m.Cursor {
			marker = "▸ "
		}
		initial := r.Initial
		if initial == "" {
			initial = "—"
		}
		rows = append(rows, []string{marker, strconv.Itoa(i), r.ID, strconv.Itoa(r.States), strconv.Itoa(r.Transitions), initial})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("", "#", "Machine", "States", "Transitions", "Initial").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row < 0:
				return pickerHeader
			case m.Offset+row == m.Cursor:
				return pickerCursor
			case col >= 3:
				return StyleDim
			}
			return styleValue
		})
	b.WriteString(t.Render() + "\n\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.visible)), len(m.visible))))
	return b.String()
}

// pickMachine runs the picker and returns the index of the chosen machine.
func pickMachine(defs []*machine.Definition) (int, error) {
	final, err := tea.NewProgram(NewMachineListModel(defs)).Run()
	if err != nil {
		return -1, err
	}
	if m, ok := final.(MachineListModel); ok && m.Selected >= 0 {
		return m.Selected, nil
	}
	return -1, errors.New(errors.ErrCodeInvalidInput, "no machine selected")
}
