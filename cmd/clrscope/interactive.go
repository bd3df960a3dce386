package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/clrscope/clrscope"
	"github.com/clrscope/clrscope/dump"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	moduleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	addrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectModule modelState = iota
	stateInspect
)

type interactiveModel struct {
	err      error
	target   *dump.Minidump
	filename string
	modules  []clrscope.ModuleInfo
	input    textinput.Model
	dumpText string
	selected int
	state    modelState
}

func newInteractiveModel(filename string) *interactiveModel {
	return &interactiveModel{
		filename: filename,
		state:    stateSelectModule,
	}
}

type loadedMsg struct {
	err     error
	target  *dump.Minidump
	modules []clrscope.ModuleInfo
}

type readResultMsg struct {
	err  error
	addr uint64
	data []byte
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadDump
}

func (m *interactiveModel) loadDump() tea.Msg {
	d, err := dump.Open(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{target: d, modules: d.Modules()}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.target != nil {
				m.target.Close()
			}
			return m, tea.Quit

		case "q":
			if m.state == stateSelectModule {
				if m.target != nil {
					m.target.Close()
				}
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectModule && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectModule && m.selected < len(m.modules)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectModule:
				if len(m.modules) == 0 {
					return m, nil
				}
				m.prepareInput()
				m.state = stateInspect

			case stateInspect:
				return m, m.readMemory
			}

		case "esc":
			if m.state == stateInspect {
				m.state = stateSelectModule
				m.dumpText = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.target = msg.target
		m.modules = msg.modules

	case readResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.dumpText = ""
		} else {
			m.err = nil
			m.dumpText = hexDump(msg.addr, msg.data)
		}
	}

	if m.state == stateInspect {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) prepareInput() {
	ti := textinput.New()
	ti.Prompt = "address: 0x"
	ti.SetValue(fmt.Sprintf("%x", m.modules[m.selected].Base))
	ti.Width = 20
	ti.Focus()
	m.input = ti
	m.dumpText = ""
	m.err = nil
}

func (m *interactiveModel) readMemory() tea.Msg {
	addr, err := parseAddr(m.input.Value())
	if err != nil {
		return readResultMsg{err: err}
	}
	data, err := m.target.ReadBytes(addr, 128)
	if err != nil {
		return readResultMsg{err: err}
	}
	return readResultMsg{addr: addr, data: data}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state == stateSelectModule {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.target == nil {
		return "Loading dump..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("clrscope"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectModule:
		b.WriteString("Select a module:\n\n")
		for i, mod := range m.modules {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatModule(mod)))
			} else {
				b.WriteString(cursor + m.formatModule(mod))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter inspect • q quit"))

	case stateInspect:
		mod := m.modules[m.selected]
		b.WriteString(fmt.Sprintf("Inspecting %s\n\n", moduleStyle.Render(mod.Name)))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n\n")
		} else if m.dumpText != "" {
			b.WriteString(m.dumpText)
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render("enter read • esc back • ctrl+c quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatModule(mod clrscope.ModuleInfo) string {
	return moduleStyle.Render(mod.Name) + "  " +
		addrStyle.Render(fmt.Sprintf("%016x", mod.Base)) +
		fmt.Sprintf("  %x bytes", mod.Size)
}

func runInteractive(filename string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	p := tea.NewProgram(newInteractiveModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
