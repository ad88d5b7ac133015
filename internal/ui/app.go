package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"davman/internal/config"
)

// App is the root model. It owns the scene stack and the DAV service and
// routes messages: operation completions go back to the scene that issued
// them, everything else goes to the top of the stack.
type App struct {
	Stack   *SceneStack
	Service Service
	Config  *config.Config

	Width  int
	Height int
}

// NewApp creates the root application model. The stack starts empty; Init
// pushes the login scene as the permanent root.
func NewApp(cfg *config.Config, svc Service) *App {
	return &App{
		Stack:   NewSceneStack(),
		Service: svc,
		Config:  cfg,
	}
}

// Ensure App can be used as tea.Model via adapter.
var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter wraps App to implement tea.Model.
type appModelAdapter struct {
	*App
}

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (a *App) AsTeaModel() tea.Model {
	return &appModelAdapter{App: a}
}

// Init implements tea.Model: push the root scene.
func (a *appModelAdapter) Init() tea.Cmd {
	return a.Stack.Push(NewLoginScene(a.Stack, a.Service, a.Config), false)
}

// Update implements tea.Model. All stack mutation happens synchronously
// inside one Update turn; completions issued earlier arrive here as discrete
// messages and are dispatched to their issuing scene.
func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.Width, a.Height = msg.Width, msg.Height
	case quitRequestedMsg:
		a.Stack.Teardown()
		return a, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.Stack.Teardown()
			return a, tea.Quit
		}
	case loginDoneMsg:
		return a, msg.scene.completeLogin(msg)
	case collectionsLoadedMsg:
		return a, msg.scene.completeLoad(msg)
	case collectionSavedMsg:
		return a, msg.scene.completeSave(msg)
	case objectUploadedMsg:
		return a, msg.scene.completeUpload(msg)
	case collectionDeletedMsg:
		return a, msg.scene.completeDelete(msg)
	}

	top := a.Stack.Top()
	if top == nil {
		return a, nil
	}
	return a, top.Update(msg)
}

// View implements tea.Model: only the top scene is rendered.
func (a *appModelAdapter) View() string {
	top := a.Stack.Top()
	if top == nil {
		return ""
	}
	return top.View()
}
