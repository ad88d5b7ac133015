package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"davman/internal/dav"
)

// CollectionsScene lists the principal's calendar collections and is the hub
// the editing scenes are pushed from. It re-fetches on every Show except the
// one immediately following its own fetch completion, so returning from a
// finished create/edit/delete always shows fresh data without fetch loops.
type CollectionsScene struct {
	stack   *SceneStack
	service Service
	guard   opGuard

	items  []dav.Collection
	cursor int
	fresh  bool
	errMsg string
}

var _ Scene = (*CollectionsScene)(nil)

// NewCollectionsScene creates the collections list scene.
func NewCollectionsScene(stack *SceneStack, svc Service) *CollectionsScene {
	return &CollectionsScene{
		stack:   stack,
		service: svc,
		guard:   newOpGuard(),
	}
}

// Show implements Scene.
func (s *CollectionsScene) Show() tea.Cmd {
	s.guard.capture(s.stack)
	if s.fresh {
		s.fresh = false
		return nil
	}
	return s.refresh()
}

// Hide implements Scene.
func (s *CollectionsScene) Hide() {}

// Release implements Scene.
func (s *CollectionsScene) Release() {
	s.guard.release()
}

// refresh issues a list fetch through the guard with a loading scene pushed
// above. Success and failure both pop back to this scene.
func (s *CollectionsScene) refresh() tea.Cmd {
	ctx := s.guard.begin(context.Background())
	op := func() tea.Msg {
		cols, err := s.service.ListCollections(ctx)
		return collectionsLoadedMsg{scene: s, collections: cols, err: err}
	}
	return tea.Batch(s.stack.Push(NewLoadingScene("Loading collections"), false), op)
}

// completeLoad handles the fetch result. The fresh latch stops the Show
// triggered by the pop from immediately fetching again.
func (s *CollectionsScene) completeLoad(msg collectionsLoadedMsg) tea.Cmd {
	pos, live := s.guard.finish()
	if !live {
		return nil
	}
	if msg.err != nil {
		s.errMsg = msg.err.Error()
	} else {
		s.errMsg = ""
		s.items = msg.collections
		if s.cursor >= len(s.items) {
			s.cursor = max(0, len(s.items)-1)
		}
	}
	s.fresh = true
	return s.stack.Pop(pos)
}

// Update implements Scene.
func (s *CollectionsScene) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.items)-1 {
			s.cursor++
		}
	case "r":
		return s.refresh()
	case "n":
		return s.stack.Push(NewCreateCollectionScene(s.stack, s.service), false)
	case "e":
		if col, ok := s.selected(); ok {
			return s.stack.Push(NewEditCollectionScene(s.stack, s.service, col), false)
		}
	case "u":
		if col, ok := s.selected(); ok {
			return s.stack.Push(NewUploadScene(s.stack, s.service, col), false)
		}
	case "d":
		if col, ok := s.selected(); ok {
			return s.stack.Push(NewDeleteScene(s.stack, s.service, col), false)
		}
	case "L":
		s.service.Logout()
		return s.stack.Pop(0)
	case "q":
		return func() tea.Msg { return quitRequestedMsg{} }
	}
	return nil
}

func (s *CollectionsScene) selected() (dav.Collection, bool) {
	if s.cursor < 0 || s.cursor >= len(s.items) {
		return dav.Collection{}, false
	}
	return s.items[s.cursor], true
}

// View implements Scene.
func (s *CollectionsScene) View() string {
	content := Styles.Title.Render("Collections") + "\n\n"
	if len(s.items) == 0 {
		content += Styles.Muted.Render("No collections yet. Press n to create one") + "\n"
	}
	for i, col := range s.items {
		line := col.Name
		if col.Description != "" {
			line += "  " + Styles.Muted.Render(col.Description)
		}
		if i == s.cursor {
			content += Styles.Selected.Render("> "+line) + "\n"
		} else {
			content += Styles.Normal.Render("  "+line) + "\n"
		}
	}
	if s.errMsg != "" {
		content += "\n" + Styles.Error.Render(s.errMsg) + "\n"
	}
	content += "\n" + Styles.Hint.Render("n: new  e: edit  u: upload  d: delete  r: refresh  L: logout  q: quit")
	return Styles.Box.Render(content)
}

// String aids debugging and test failure output.
func (s *CollectionsScene) String() string {
	return fmt.Sprintf("CollectionsScene(%d items)", len(s.items))
}
