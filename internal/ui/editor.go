package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"davman/internal/dav"
)

// EditorScene creates a new collection or edits an existing one. An empty
// href means create (extended MKCOL); otherwise the save is a PROPPATCH on
// that href.
type EditorScene struct {
	stack   *SceneStack
	service Service
	guard   opGuard

	href   string
	title  string
	name   textinput.Model
	desc   textinput.Model
	focus  int
	errMsg string
}

var _ Scene = (*EditorScene)(nil)

// NewCreateCollectionScene returns an editor for a new collection.
func NewCreateCollectionScene(stack *SceneStack, svc Service) *EditorScene {
	return newEditorScene(stack, svc, "", "New collection", "", "")
}

// NewEditCollectionScene returns an editor prefilled from an existing
// collection.
func NewEditCollectionScene(stack *SceneStack, svc Service, col dav.Collection) *EditorScene {
	return newEditorScene(stack, svc, col.Href, "Edit collection", col.Name, col.Description)
}

func newEditorScene(stack *SceneStack, svc Service, href, title, name, desc string) *EditorScene {
	ni := textinput.New()
	ni.Placeholder = "name"
	ni.Width = 40
	ni.SetValue(name)

	di := textinput.New()
	di.Placeholder = "description (optional)"
	di.Width = 40
	di.SetValue(desc)

	return &EditorScene{
		stack:   stack,
		service: svc,
		guard:   newOpGuard(),
		href:    href,
		title:   title,
		name:    ni,
		desc:    di,
	}
}

// Show implements Scene.
func (s *EditorScene) Show() tea.Cmd {
	s.guard.capture(s.stack)
	s.focusField(s.focus)
	return textinput.Blink
}

// Hide implements Scene. In-progress input stays on the scene's own models.
func (s *EditorScene) Hide() {
	s.name.Blur()
	s.desc.Blur()
}

// Release implements Scene.
func (s *EditorScene) Release() {
	s.guard.release()
}

// Update implements Scene.
func (s *EditorScene) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return s.stack.Pop(s.guard.pos - 1)
		case "tab", "down", "shift+tab", "up":
			s.focusField((s.focus + 1) % 2)
			return textinput.Blink
		case "enter":
			return s.save()
		}
	}
	var cmd tea.Cmd
	if s.focus == 0 {
		s.name, cmd = s.name.Update(msg)
	} else {
		s.desc, cmd = s.desc.Update(msg)
	}
	return cmd
}

func (s *EditorScene) focusField(i int) {
	s.focus = i
	if i == 0 {
		s.name.Focus()
		s.desc.Blur()
	} else {
		s.name.Blur()
		s.desc.Focus()
	}
}

func (s *EditorScene) save() tea.Cmd {
	name := strings.TrimSpace(s.name.Value())
	if name == "" {
		s.errMsg = "Name is required"
		return nil
	}
	s.errMsg = ""
	desc := strings.TrimSpace(s.desc.Value())

	ctx := s.guard.begin(context.Background())
	href := s.href
	op := func() tea.Msg {
		var err error
		if href == "" {
			err = s.service.CreateCollection(ctx, name, desc)
		} else {
			err = s.service.UpdateCollection(ctx, href, name, desc)
		}
		return collectionSavedMsg{scene: s, err: err}
	}
	return tea.Batch(s.stack.Push(NewLoadingScene("Saving"), false), op)
}

// completeSave handles the save result. Success dismisses both the loading
// scene and this editor, returning to the collections scene beneath (which
// refreshes itself); failure dismisses only the loading scene and the error
// renders here.
func (s *EditorScene) completeSave(msg collectionSavedMsg) tea.Cmd {
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
func (s *EditorScene) View() string {
	content := Styles.Title.Render(s.title) + "\n\n"
	content += s.name.View() + "\n"
	content += s.desc.View() + "\n"
	if s.errMsg != "" {
		content += "\n" + Styles.Error.Render(s.errMsg) + "\n"
	}
	content += "\n" + Styles.Hint.Render("Enter: save  Tab: next field  Esc: cancel")
	return Styles.Box.Render(content)
}
