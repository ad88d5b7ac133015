package ui

import tea "github.com/charmbracelet/bubbletea"

// Scene is a single full-screen UI state. Scenes are identified by pointer;
// a scene may sit at different stack depths over its lifetime as scenes above
// it come and go.
//
// Show is called whenever the scene becomes the visible top of the stack. It
// must recapture the scene's stack position and refocus its inputs; the
// returned command carries any work the scene wants started on (re)entry,
// such as a spinner tick or a refresh fetch.
//
// Hide is called when another scene is pushed above it (or just before the
// scene is released). The scene stays allocated and keeps its in-progress
// input.
//
// Release is called exactly once, when the scene is permanently removed. It
// must synchronously cancel any operation the scene still has in flight.
type Scene interface {
	Show() tea.Cmd
	Hide()
	Release()

	// Update receives messages only while the scene is top of stack.
	Update(msg tea.Msg) tea.Cmd
	View() string
}
