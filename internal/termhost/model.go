package termhost

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const viewportHeaderHeight = 3

var (
	kindStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RepaintMsg asks the model to re-render from the current tree. The
// Host adapter sends this after every committed mutation batch and on
// RequestPaint.
type RepaintMsg struct{ Root *Instance }

// Model is the Bubble Tea model driving the terminal view. Unlike the
// teacher's tui.Model (which tracks pipeline phase status), this
// model's only state is "what does the committed host tree look
// like", fed entirely by RepaintMsg.
type Model struct {
	root     *Instance
	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
	quitting bool
}

// NewModel returns an empty Model; Adapter.Run wires it to a tea.Program.
func NewModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{spinner: s, viewport: viewport.New(0, 0)}
}

func (m Model) Init() tea.Cmd { return m.spinner.Tick }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RepaintMsg:
		m.root = msg.Root
		m.viewport.SetContent(renderTree(m.root))
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-viewportHeaderHeight, 1)
		m.viewport.SetContent(renderTree(m.root))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	header := dimStyle.Render(m.spinner.View() + " reconciler host — q to quit")
	return header + "\n\n" + m.viewport.View()
}

func renderTree(root *Instance) string {
	if root == nil {
		return dimStyle.Render("(empty tree)")
	}
	var b strings.Builder
	writeInstance(&b, root, 0)
	return b.String()
}

func writeInstance(b *strings.Builder, inst *Instance, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(kindStyle.Render(inst.Kind))
	if inst.Text != "" {
		b.WriteString(" ")
		b.WriteString(textStyle.Render(inst.Text))
	}
	b.WriteString("\n")
	for _, c := range inst.Children {
		writeInstance(b, c, depth+1)
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
