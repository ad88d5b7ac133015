package ui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"davman/internal/dav"
)

// UploadScene uploads a local .ics file into the selected collection. The
// object is stored under a fresh UUID name so uploads never clobber existing
// objects.
type UploadScene struct {
	stack   *SceneStack
	service Service
	guard   opGuard

	collection dav.Collection
	path       textinput.Model
	errMsg     string
}

var _ Scene = (*UploadScene)(nil)

// NewUploadScene creates the upload scene for one collection.
func NewUploadScene(stack *SceneStack, svc Service, col dav.Collection) *UploadScene {
	pi := textinput.New()
	pi.Placeholder = "/path/to/event.ics"
	pi.Width = 50
	return &UploadScene{
		stack:      stack,
		service:    svc,
		guard:      newOpGuard(),
		collection: col,
		path:       pi,
	}
}

// Show implements Scene.
func (s *UploadScene) Show() tea.Cmd {
	s.guard.capture(s.stack)
	s.path.Focus()
	return textinput.Blink
}

// Hide implements Scene.
func (s *UploadScene) Hide() {
	s.path.Blur()
}

// Release implements Scene.
func (s *UploadScene) Release() {
	s.guard.release()
}

// Update implements Scene.
func (s *UploadScene) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return s.stack.Pop(s.guard.pos - 1)
		case "enter":
			return s.submit()
		}
	}
	var cmd tea.Cmd
	s.path, cmd = s.path.Update(msg)
	return cmd
}

func (s *UploadScene) submit() tea.Cmd {
	path := strings.TrimSpace(s.path.Value())
	if path == "" {
		s.errMsg = "File path is required"
		return nil
	}
	s.errMsg = ""

	ctx := s.guard.begin(context.Background())
	col := s.collection.Href
	op := func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return objectUploadedMsg{scene: s, err: err}
		}
		name := uuid.NewString() + ".ics"
		href, err := s.service.PutObject(ctx, col, name, data)
		return objectUploadedMsg{scene: s, href: href, err: err}
	}
	return tea.Batch(s.stack.Push(NewLoadingScene("Uploading"), false), op)
}

// completeUpload handles the upload result with the usual pop depths:
// success dismisses the loading scene and this scene, failure returns here
// with the error rendered inline.
func (s *UploadScene) completeUpload(msg objectUploadedMsg) tea.Cmd {
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
func (s *UploadScene) View() string {
	content := Styles.Title.Render("Upload to "+s.collection.Name) + "\n\n"
	content += s.path.View() + "\n"
	if s.errMsg != "" {
		content += "\n" + Styles.Error.Render(s.errMsg) + "\n"
	}
	content += "\n" + Styles.Hint.Render("Enter: upload  Esc: cancel")
	return Styles.Box.Render(content)
}

// String aids debugging and test failure output.
func (s *UploadScene) String() string {
	return fmt.Sprintf("UploadScene(%s)", s.collection.Name)
}
