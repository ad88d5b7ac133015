package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"davman/internal/dav"
)

// DeleteScene asks for confirmation before deleting a collection.
// Enter or y confirms; Esc or n cancels.
type DeleteScene struct {
	stack   *SceneStack
	service Service
	guard   opGuard

	collection dav.Collection
	errMsg     string
}

var _ Scene = (*DeleteScene)(nil)

// NewDeleteScene creates the delete-confirmation scene for one collection.
func NewDeleteScene(stack *SceneStack, svc Service, col dav.Collection) *DeleteScene {
	return &DeleteScene{
		stack:      stack,
		service:    svc,
		guard:      newOpGuard(),
		collection: col,
	}
}

// Show implements Scene.
func (s *DeleteScene) Show() tea.Cmd {
	s.guard.capture(s.stack)
	return nil
}

// Hide implements Scene.
func (s *DeleteScene) Hide() {}

// Release implements Scene.
func (s *DeleteScene) Release() {
	s.guard.release()
}

// Update implements Scene.
func (s *DeleteScene) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "esc", "n":
		return s.stack.Pop(s.guard.pos - 1)
	case "enter", "y":
		return s.confirm()
	}
	return nil
}

func (s *DeleteScene) confirm() tea.Cmd {
	ctx := s.guard.begin(context.Background())
	href := s.collection.Href
	op := func() tea.Msg {
		err := s.service.DeleteCollection(ctx, href)
		return collectionDeletedMsg{scene: s, err: err}
	}
	return tea.Batch(s.stack.Push(NewLoadingScene("Deleting"), false), op)
}

// completeDelete handles the delete result; same pop depths as every other
// operation scene.
func (s *DeleteScene) completeDelete(msg collectionDeletedMsg) tea.Cmd {
	pos, live := s.guard.finish()
	if !live {
		return nil
	}
	if msg.err != nil {
		s.errMsg = msg.err.Error()
		return s.stack.Pop(pos)
	}
	return s.stack.Pop(pos - 1)
}

// View implements Scene.
func (s *DeleteScene) View() string {
	content := Styles.TitleDanger.Render("Delete collection?") + "\n\n"
	content += Styles.Normal.Render(s.collection.Name)
	if s.collection.Description != "" {
		content += "\n" + Styles.Muted.Render(s.collection.Description)
	}
	content += "\n" + Styles.Muted.Render("All objects in the collection will be removed")
	if s.errMsg != "" {
		content += "\n\n" + Styles.Error.Render(s.errMsg)
	}
	content += "\n\n" + Styles.Hint.Render("y/Enter: delete  Esc: cancel")
	return Styles.BoxDanger.Render(content)
}

// String aids debugging and test failure output.
func (s *DeleteScene) String() string {
	return fmt.Sprintf("DeleteScene(%s)", s.collection.Name)
}
