package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// SceneStack manages the ordered stack of scenes for navigation. Index 0 is
// the root; the last element is the visible, interactive scene. The stack is
// never empty once the root has been pushed.
type SceneStack struct {
	scenes []Scene
}

// NewSceneStack returns an empty stack. The caller must push a root scene
// before the stack is used for navigation.
func NewSceneStack() *SceneStack {
	return &SceneStack{}
}

// Push hides the current top and appends scene, which becomes the new top.
// With replace set, the current top is removed and released first, so the new
// scene occupies its slot instead of layering above it (used to let a
// transient loading scene stand in for the scene that triggered it).
// The returned command is whatever the new scene's Show produced.
func (s *SceneStack) Push(scene Scene, replace bool) tea.Cmd {
	if n := len(s.scenes); n > 0 {
		top := s.scenes[n-1]
		top.Hide()
		if replace {
			s.scenes = s.scenes[:n-1]
			top.Release()
		}
	}
	s.scenes = append(s.scenes, scene)
	return scene.Show()
}

// Pop removes scenes until the top index equals target, then shows the new
// top. A pop to a target at or above the current top index is a no-op, which
// makes duplicate dismiss requests harmless. Within one pop the current top
// is hidden once, every removed scene is released in top-to-bottom order, and
// only the final top is shown.
//
// Popping past the root (target < 0) is a caller bug, not a recoverable
// state, and panics.
func (s *SceneStack) Pop(target int) tea.Cmd {
	if target < 0 {
		panic(fmt.Sprintf("ui: pop past root (target %d, depth %d)", target, len(s.scenes)))
	}
	if len(s.scenes)-1 <= target {
		return nil
	}
	s.scenes[len(s.scenes)-1].Hide()
	for len(s.scenes)-1 > target {
		top := s.scenes[len(s.scenes)-1]
		s.scenes = s.scenes[:len(s.scenes)-1]
		top.Release()
	}
	return s.scenes[len(s.scenes)-1].Show()
}

// Top returns the current top scene, or nil before the root has been pushed.
func (s *SceneStack) Top() Scene {
	if len(s.scenes) == 0 {
		return nil
	}
	return s.scenes[len(s.scenes)-1]
}

// Len returns the number of scenes on the stack.
func (s *SceneStack) Len() int {
	return len(s.scenes)
}

// Teardown releases every scene top-to-bottom, emptying the stack. Used at
// shutdown so outstanding operations are canceled before the program exits.
func (s *SceneStack) Teardown() {
	if n := len(s.scenes); n > 0 {
		s.scenes[n-1].Hide()
	}
	for len(s.scenes) > 0 {
		top := s.scenes[len(s.scenes)-1]
		s.scenes = s.scenes[:len(s.scenes)-1]
		top.Release()
	}
}
