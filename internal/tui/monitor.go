package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kelsos/artisan/internal/presenter"
)

// Monitor hosts the interactive program and forwards effects into it
type Monitor struct {
	program *tea.Program
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// Start prepares the program; effects rendered before this are dropped
func (m *Monitor) Start(model Model, opts ...tea.ProgramOption) {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	m.program = tea.NewProgram(model, opts...)
}

// Render implements presenter.Renderer
func (m *Monitor) Render(effect presenter.Effect) {
	if m.program != nil {
		m.program.Send(EffectMsg{Effect: effect})
	}
}

// Run blocks until the user quits
func (m *Monitor) Run() error {
	if m.program == nil {
		return fmt.Errorf("monitor was not started")
	}

	if _, err := m.program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}
