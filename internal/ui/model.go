package ui

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FrameMsg carries a freshly rendered frame into the terminal program.
type FrameMsg string

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))
)

// Model is the bubbletea model. It holds no trading state: keys go out as events,
// frames come back as FrameMsg.
type Model struct {
	input *InputSource
	frame string
	err   error

	logger *slog.Logger
}

// NewModel creates the terminal model.
func NewModel(input *InputSource) *Model {
	return &Model{
		input:  input,
		frame:  "Waiting for first frame...",
		logger: slog.Default().With("module", "ui"),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if _, err := m.input.HandleKey(msg); err != nil {
			// The queue is gone; nothing will ever render again.
			m.logger.Error("Failed to publish key event", slog.String("key", msg.String()), slog.Any("error", err))
			m.err = err
			return m, tea.Quit
		}

	case FrameMsg:
		m.frame = string(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	view := frameStyle.Render(m.frame)
	if m.err != nil {
		view += "\n" + errorStyle.Render(m.err.Error())
	}
	return view
}
