package debug

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fpgrars/internal/vm"
)

// model is the interactive step debugger's bubbletea model: a pointer
// to the machine, the previous PC (to highlight what just ran), and a
// terminal error if Step ever panics.
type model struct {
	v      *vm.VM
	prevPC uint32
	err    error
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	pcStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
)

func (m model) Init() tea.Cmd { return nil }

// Update steps the VM one instruction per keypress on space/j.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "j":
			if m.v.Halted() {
				return m, nil
			}
			m.prevPC = m.v.PC()
			func() {
				defer func() {
					if r := recover(); r != nil {
						m.err = fmt.Errorf("panic: %v", r)
					}
				}()
				m.v.Step()
			}()
			if m.v.Halted() {
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m model) registerColumn(names []string, get func(int) string, start int) string {
	var b strings.Builder
	for i, name := range names {
		b.WriteString(fmt.Sprintf("%-5s %s\n", name, get(start+i)))
	}
	return b.String()
}

func (m model) status() string {
	cur := m.v.PC()
	pcLine := fmt.Sprintf("pc: 0x%08x (was 0x%08x)", cur, m.prevPC)
	if m.v.Halted() {
		pcLine += "  [halted]"
	}
	return pcStyle.Render(pcLine)
}

func (m model) registers() string {
	names := intRegDumpNames[:]
	col1 := m.registerColumn(names[:16], func(i int) string {
		return fmt.Sprintf("0x%08x", m.v.Int.Get(i))
	}, 0)
	col2 := m.registerColumn(names[16:], func(i int) string {
		return fmt.Sprintf("0x%08x", m.v.Int.Get(i))
	}, 16)
	return lipgloss.JoinHorizontal(lipgloss.Top, col1, "   ", col2)
}

func (m model) disassembly() string {
	idx := m.v.Prog.IndexForAddr(m.v.PC())
	if idx < 0 || idx >= len(m.v.Prog.Text) {
		return "(end of text)"
	}
	return SdumpInstruction(m.v.Prog.Text[idx])
}

func (m model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render("fpgrars debugger  space/j: step, q: quit"),
		m.status(),
		"",
		m.registers(),
		"",
		m.disassembly(),
	)
}

// Run launches the interactive step debugger over v.
func Run(v *vm.VM) error {
	m, err := tea.NewProgram(model{v: v}).Run()
	if err != nil {
		return err
	}
	if fm, ok := m.(model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
