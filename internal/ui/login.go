package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"davman/internal/config"
)

// LoginScene is the permanent root scene (index 0). It stays resident
// beneath the whole session; logout pops back to it.
type LoginScene struct {
	stack   *SceneStack
	service Service
	guard   opGuard

	server   textinput.Model
	username textinput.Model
	password textinput.Model
	focus    int
	errMsg   string
}

var _ Scene = (*LoginScene)(nil)

const loginFields = 3

// NewLoginScene creates the login scene with the server URL and username
// prefilled from config. Both stay editable at sign-in.
func NewLoginScene(stack *SceneStack, svc Service, cfg *config.Config) *LoginScene {
	server := textinput.New()
	server.Placeholder = "https://dav.example.net/"
	server.Width = 40

	user := textinput.New()
	user.Placeholder = "username"
	user.Width = 40

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.Width = 40
	pass.EchoMode = textinput.EchoPassword

	if cfg != nil {
		server.SetValue(cfg.Server.URL)
		user.SetValue(cfg.Server.Username)
	}

	return &LoginScene{
		stack:    stack,
		service:  svc,
		guard:    newOpGuard(),
		server:   server,
		username: user,
		password: pass,
	}
}

// Show implements Scene.
func (s *LoginScene) Show() tea.Cmd {
	s.guard.capture(s.stack)
	s.focusField(s.focus)
	return textinput.Blink
}

// Hide implements Scene. Input values stay on the scene's own models.
func (s *LoginScene) Hide() {
	s.server.Blur()
	s.username.Blur()
	s.password.Blur()
}

// Release implements Scene.
func (s *LoginScene) Release() {
	s.guard.release()
}

// Update implements Scene.
func (s *LoginScene) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			s.focusField((s.focus + 1) % loginFields)
			return textinput.Blink
		case "shift+tab", "up":
			s.focusField((s.focus + loginFields - 1) % loginFields)
			return textinput.Blink
		case "enter":
			return s.submit()
		}
	}
	var cmd tea.Cmd
	switch s.focus {
	case 0:
		s.server, cmd = s.server.Update(msg)
	case 1:
		s.username, cmd = s.username.Update(msg)
	default:
		s.password, cmd = s.password.Update(msg)
	}
	return cmd
}

func (s *LoginScene) focusField(i int) {
	s.focus = i
	for f, in := range []*textinput.Model{&s.server, &s.username, &s.password} {
		if f == i {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

// submit re-points the service at the entered server, then issues the
// sign-in through the guard with a loading scene pushed above.
func (s *LoginScene) submit() tea.Cmd {
	server := strings.TrimSpace(s.server.Value())
	user := strings.TrimSpace(s.username.Value())
	pass := s.password.Value()
	if server == "" {
		s.errMsg = "Server URL is required"
		return nil
	}
	if user == "" {
		s.errMsg = "Username is required"
		return nil
	}
	if err := s.service.SetServer(server); err != nil {
		s.errMsg = err.Error()
		return nil
	}
	s.errMsg = ""

	ctx := s.guard.begin(context.Background())
	op := func() tea.Msg {
		err := s.service.Login(ctx, user, pass)
		return loginDoneMsg{scene: s, err: err}
	}
	return tea.Batch(s.stack.Push(NewLoadingScene("Signing in"), false), op)
}

// completeLogin handles the sign-in result. On success the collections scene
// replace-pushes over the loading slot; on failure we pop back here and the
// stored error is rendered. A result arriving after this scene was released
// is discarded.
func (s *LoginScene) completeLogin(msg loginDoneMsg) tea.Cmd {
	pos, live := s.guard.finish()
	if !live {
		return nil
	}
	if msg.err != nil {
		s.errMsg = msg.err.Error()
		return s.stack.Pop(pos)
	}
	return s.stack.Push(NewCollectionsScene(s.stack, s.service), true)
}

// View implements Scene.
func (s *LoginScene) View() string {
	content := Styles.Title.Render("Sign in") + "\n\n"
	content += s.server.View() + "\n"
	content += s.username.View() + "\n"
	content += s.password.View() + "\n"
	if s.errMsg != "" {
		content += "\n" + Styles.Error.Render(s.errMsg) + "\n"
	}
	content += "\n" + Styles.Hint.Render("Enter: sign in  Tab: next field  Ctrl+C: quit")
	return Styles.Box.Render(content)
}

// String aids debugging and test failure output.
func (s *LoginScene) String() string {
	return fmt.Sprintf("LoginScene(%s)", s.server.Value())
}
