package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// LoadingScene is the transient scene pushed above a scene with an operation
// in flight. It blocks interaction and never issues operations itself; the
// issuing scene pops it when the completion arrives.
type LoadingScene struct {
	label string
	spin  spinner.Model
}

var _ Scene = (*LoadingScene)(nil)

// NewLoadingScene creates a loading scene with the given label.
func NewLoadingScene(label string) *LoadingScene {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = Styles.Status
	return &LoadingScene{label: label, spin: sp}
}

// Show implements Scene.
func (s *LoadingScene) Show() tea.Cmd {
	return s.spin.Tick
}

// Hide implements Scene.
func (s *LoadingScene) Hide() {}

// Release implements Scene.
func (s *LoadingScene) Release() {}

// Update implements Scene. Only spinner ticks matter; key input is absorbed.
func (s *LoadingScene) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return cmd
	}
	return nil
}

// View implements Scene.
func (s *LoadingScene) View() string {
	return Styles.Box.Render(s.spin.View() + " " + Styles.Normal.Render(s.label+"…"))
}
