package ui

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"davman/internal/config"
	"davman/internal/dav"
)

// fakeService is a controllable Service for scene tests. It records calls
// and the context of the most recent operation so tests can assert
// cancellation.
type fakeService struct {
	collections  []dav.Collection
	setServerErr error
	loginErr     error
	listErr      error
	saveErr      error
	deleteErr    error
	putErr       error

	server  string
	lastCtx context.Context
	calls   []string
}

func (f *fakeService) SetServer(rawURL string) error {
	f.calls = append(f.calls, "setserver")
	if f.setServerErr != nil {
		return f.setServerErr
	}
	f.server = rawURL
	return nil
}

func (f *fakeService) Login(ctx context.Context, username, password string) error {
	f.lastCtx = ctx
	f.calls = append(f.calls, "login")
	return f.loginErr
}

func (f *fakeService) Logout() {
	f.calls = append(f.calls, "logout")
}

func (f *fakeService) ListCollections(ctx context.Context) ([]dav.Collection, error) {
	f.lastCtx = ctx
	f.calls = append(f.calls, "list")
	return f.collections, f.listErr
}

func (f *fakeService) CreateCollection(ctx context.Context, name, description string) error {
	f.lastCtx = ctx
	f.calls = append(f.calls, "create")
	return f.saveErr
}

func (f *fakeService) UpdateCollection(ctx context.Context, href, name, description string) error {
	f.lastCtx = ctx
	f.calls = append(f.calls, "update")
	return f.saveErr
}

func (f *fakeService) DeleteCollection(ctx context.Context, href string) error {
	f.lastCtx = ctx
	f.calls = append(f.calls, "delete")
	return f.deleteErr
}

func (f *fakeService) PutObject(ctx context.Context, collectionHref, name string, data []byte) (string, error) {
	f.lastCtx = ctx
	f.calls = append(f.calls, "put")
	return collectionHref + name, f.putErr
}

func (f *fakeService) callCount(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func newTestApp(svc Service) (*App, *appModelAdapter) {
	cfg := &config.Config{}
	cfg.Server.URL = "https://dav.example.net/"
	cfg.Server.Username = "alice"
	a := NewApp(cfg, svc)
	adapter := a.AsTeaModel().(*appModelAdapter)
	adapter.Init() // pushes the login root; the returned blink cmd is cosmetic
	return a, adapter
}

// msgsOf executes a command tree without dispatching, returning the produced
// messages. Used when a test needs to hold a completion back.
func msgsOf(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, msgsOf(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// exec executes a command tree and feeds operation completions back through
// the adapter, simulating the runtime's message loop. Cosmetic messages
// (spinner ticks, cursor blinks) are dropped.
func exec(t *testing.T, adapter *appModelAdapter, cmd tea.Cmd) {
	t.Helper()
	for _, msg := range msgsOf(cmd) {
		switch msg.(type) {
		case loginDoneMsg, collectionsLoadedMsg, collectionSavedMsg,
			objectUploadedMsg, collectionDeletedMsg, quitRequestedMsg:
			_, next := adapter.Update(msg)
			exec(t, adapter, next)
		}
	}
}

// signIn drives the app from the login root to a loaded collections scene.
func signIn(t *testing.T, svc *fakeService, adapter *appModelAdapter) *CollectionsScene {
	t.Helper()
	login := adapter.Stack.Top().(*LoginScene)
	login.username.SetValue("alice")
	login.password.SetValue("secret")
	_, cmd := adapter.Update(keyMsg("enter"))
	exec(t, adapter, cmd)
	cols, ok := adapter.Stack.Top().(*CollectionsScene)
	if !ok {
		t.Fatalf("expected CollectionsScene on top after sign-in, got %T", adapter.Stack.Top())
	}
	return cols
}

func twoCollections() []dav.Collection {
	return []dav.Collection{
		{Href: "/cal/personal/", Name: "Personal"},
		{Href: "/cal/work/", Name: "Work", Description: "shared"},
	}
}

func TestLoginSuccessLandsOnCollections(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)

	cols := signIn(t, svc, adapter)

	// Login stays resident as the root; the loading scene was replaced.
	if a.Stack.Len() != 2 {
		t.Errorf("expected stack [Login, Collections], len %d", a.Stack.Len())
	}
	if len(cols.items) != 2 {
		t.Errorf("expected 2 collections loaded, got %d", len(cols.items))
	}
	if svc.callCount("login") != 1 || svc.callCount("list") != 1 {
		t.Errorf("unexpected calls %v", svc.calls)
	}
}

func TestLoginFailureShowsInlineError(t *testing.T) {
	svc := &fakeService{loginErr: &dav.OperationError{Op: "login", Status: 401, Detail: "authentication failed"}}
	a, adapter := newTestApp(svc)

	login := a.Stack.Top().(*LoginScene)
	login.username.SetValue("alice")
	login.password.SetValue("wrong")
	_, cmd := adapter.Update(keyMsg("enter"))
	exec(t, adapter, cmd)

	if a.Stack.Len() != 1 {
		t.Errorf("expected to return to the login root, len %d", a.Stack.Len())
	}
	if login.errMsg == "" {
		t.Error("expected inline error on the login scene")
	}
}

func TestLoginRequiresUsername(t *testing.T) {
	svc := &fakeService{}
	a, adapter := newTestApp(svc)

	a.Stack.Top().(*LoginScene).username.SetValue("")
	_, cmd := adapter.Update(keyMsg("enter"))

	if cmd != nil {
		t.Error("expected no operation for an empty username")
	}
	if a.Stack.Len() != 1 {
		t.Errorf("expected no navigation, len %d", a.Stack.Len())
	}
	if a.Stack.Top().(*LoginScene).errMsg == "" {
		t.Error("expected a validation message")
	}
}

func TestLoginRequiresServer(t *testing.T) {
	svc := &fakeService{}
	a, adapter := newTestApp(svc)

	a.Stack.Top().(*LoginScene).server.SetValue("")
	_, cmd := adapter.Update(keyMsg("enter"))

	if cmd != nil {
		t.Error("expected no operation for an empty server URL")
	}
	if a.Stack.Top().(*LoginScene).errMsg == "" {
		t.Error("expected a validation message")
	}
	if svc.callCount("setserver") != 0 {
		t.Errorf("empty server must not reach the service, calls %v", svc.calls)
	}
}

func TestLoginUsesEditedServer(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)

	// The config prefill is editable at sign-in.
	login := a.Stack.Top().(*LoginScene)
	if got := login.server.Value(); got != "https://dav.example.net/" {
		t.Fatalf("expected the configured server prefilled, got %q", got)
	}
	login.server.SetValue("https://other.example.net/")
	signIn(t, svc, adapter)

	if svc.server != "https://other.example.net/" {
		t.Errorf("expected the edited server handed to the service, got %q", svc.server)
	}
}

func TestLoginRejectsBadServer(t *testing.T) {
	svc := &fakeService{setServerErr: &dav.OperationError{Op: "set server", Status: 0, Detail: "bad URL"}}
	a, adapter := newTestApp(svc)

	login := a.Stack.Top().(*LoginScene)
	login.server.SetValue("ftp://example.net/")
	_, cmd := adapter.Update(keyMsg("enter"))

	if cmd != nil {
		t.Error("expected no sign-in for a rejected server URL")
	}
	if login.errMsg == "" {
		t.Error("expected the rejection rendered inline")
	}
	if svc.callCount("login") != 0 {
		t.Errorf("rejected server must not sign in, calls %v", svc.calls)
	}
}

func TestCreateCollectionSuccessRefreshesList(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)
	signIn(t, svc, adapter)

	_, cmd := adapter.Update(keyMsg("n"))
	exec(t, adapter, cmd)
	editor := a.Stack.Top().(*EditorScene)
	editor.name.SetValue("Holidays")
	_, cmd = adapter.Update(keyMsg("enter"))
	exec(t, adapter, cmd)

	if _, ok := a.Stack.Top().(*CollectionsScene); !ok {
		t.Fatalf("expected CollectionsScene after successful save, got %T", a.Stack.Top())
	}
	if a.Stack.Len() != 2 {
		t.Errorf("expected stack [Login, Collections], len %d", a.Stack.Len())
	}
	if svc.callCount("create") != 1 {
		t.Errorf("expected one create, calls %v", svc.calls)
	}
	// The collections scene beneath must have refreshed itself.
	if svc.callCount("list") != 2 {
		t.Errorf("expected a refresh after save, calls %v", svc.calls)
	}
}

func TestSaveFailureReturnsToEditor(t *testing.T) {
	svc := &fakeService{
		collections: twoCollections(),
		saveErr:     &dav.OperationError{Op: "create collection", Status: 507},
	}
	a, adapter := newTestApp(svc)
	signIn(t, svc, adapter)

	_, cmd := adapter.Update(keyMsg("n"))
	exec(t, adapter, cmd)
	editor := a.Stack.Top().(*EditorScene)
	editor.name.SetValue("Holidays")
	_, cmd = adapter.Update(keyMsg("enter"))
	exec(t, adapter, cmd)

	if a.Stack.Top() != Scene(editor) {
		t.Fatalf("expected the editor back on top, got %T", a.Stack.Top())
	}
	if editor.errMsg == "" {
		t.Error("expected inline error on the editor")
	}
	// No refresh happened beneath: the user is still editing.
	if svc.callCount("list") != 1 {
		t.Errorf("expected no refresh on failure, calls %v", svc.calls)
	}
}

func TestEditorEscCancelsWithoutSaving(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)
	signIn(t, svc, adapter)

	_, cmd := adapter.Update(keyMsg("e"))
	exec(t, adapter, cmd)
	if _, ok := a.Stack.Top().(*EditorScene); !ok {
		t.Fatalf("expected EditorScene, got %T", a.Stack.Top())
	}
	_, cmd = adapter.Update(keyMsg("esc"))
	exec(t, adapter, cmd)

	if _, ok := a.Stack.Top().(*CollectionsScene); !ok {
		t.Fatalf("expected CollectionsScene after cancel, got %T", a.Stack.Top())
	}
	if svc.callCount("create") != 0 && svc.callCount("update") != 0 {
		t.Errorf("cancel must not save, calls %v", svc.calls)
	}
}

func TestDeleteConfirmed(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)
	signIn(t, svc, adapter)

	_, cmd := adapter.Update(keyMsg("d"))
	exec(t, adapter, cmd)
	if _, ok := a.Stack.Top().(*DeleteScene); !ok {
		t.Fatalf("expected DeleteScene, got %T", a.Stack.Top())
	}
	_, cmd = adapter.Update(keyMsg("y"))
	exec(t, adapter, cmd)

	if _, ok := a.Stack.Top().(*CollectionsScene); !ok {
		t.Fatalf("expected CollectionsScene after delete, got %T", a.Stack.Top())
	}
	if svc.callCount("delete") != 1 {
		t.Errorf("expected one delete, calls %v", svc.calls)
	}
}

func TestDeleteCanceled(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)
	signIn(t, svc, adapter)

	_, cmd := adapter.Update(keyMsg("d"))
	exec(t, adapter, cmd)
	_, cmd = adapter.Update(keyMsg("esc"))
	exec(t, adapter, cmd)

	if _, ok := a.Stack.Top().(*CollectionsScene); !ok {
		t.Fatalf("expected CollectionsScene after cancel, got %T", a.Stack.Top())
	}
	if svc.callCount("delete") != 0 {
		t.Errorf("cancel must not delete, calls %v", svc.calls)
	}
}

func TestUploadSuccess(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)
	signIn(t, svc, adapter)

	path := filepath.Join(t.TempDir(), "event.ics")
	if err := os.WriteFile(path, []byte("BEGIN:VCALENDAR\nEND:VCALENDAR\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, cmd := adapter.Update(keyMsg("u"))
	exec(t, adapter, cmd)
	upload := a.Stack.Top().(*UploadScene)
	upload.path.SetValue(path)
	_, cmd = adapter.Update(keyMsg("enter"))
	exec(t, adapter, cmd)

	if _, ok := a.Stack.Top().(*CollectionsScene); !ok {
		t.Fatalf("expected CollectionsScene after upload, got %T", a.Stack.Top())
	}
	if svc.callCount("put") != 1 {
		t.Errorf("expected one upload, calls %v", svc.calls)
	}
}

func TestUploadMissingFileReturnsToUploadScene(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)
	signIn(t, svc, adapter)

	_, cmd := adapter.Update(keyMsg("u"))
	exec(t, adapter, cmd)
	upload := a.Stack.Top().(*UploadScene)
	upload.path.SetValue(filepath.Join(t.TempDir(), "missing.ics"))
	_, cmd = adapter.Update(keyMsg("enter"))
	exec(t, adapter, cmd)

	if a.Stack.Top() != Scene(upload) {
		t.Fatalf("expected the upload scene back on top, got %T", a.Stack.Top())
	}
	if upload.errMsg == "" {
		t.Error("expected inline error on the upload scene")
	}
	if svc.callCount("put") != 0 {
		t.Errorf("upload must not reach the server, calls %v", svc.calls)
	}
}

func TestLogoutPopsToLogin(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)
	signIn(t, svc, adapter)

	_, cmd := adapter.Update(keyMsg("L"))
	exec(t, adapter, cmd)

	if _, ok := a.Stack.Top().(*LoginScene); !ok {
		t.Fatalf("expected LoginScene after logout, got %T", a.Stack.Top())
	}
	if a.Stack.Len() != 1 {
		t.Errorf("expected only the root after logout, len %d", a.Stack.Len())
	}
	if svc.callCount("logout") != 1 {
		t.Errorf("expected one logout, calls %v", svc.calls)
	}
}

func TestQuitTearsDownStack(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)
	signIn(t, svc, adapter)

	_, cmd := adapter.Update(keyMsg("q"))
	msg := cmd()
	_, quitCmd := adapter.Update(msg)

	if a.Stack.Len() != 0 {
		t.Errorf("expected empty stack after quit, len %d", a.Stack.Len())
	}
	if quitCmd == nil {
		t.Fatal("expected a quit command")
	}
}

// The race the guard exists for: a completion that fires after its scene was
// released must be discarded, its operation context already canceled.
func TestStaleCompletionIsDiscarded(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)
	signIn(t, svc, adapter)

	// Start a save but hold its completion message back, as if the network
	// were still in flight.
	_, cmd := adapter.Update(keyMsg("n"))
	exec(t, adapter, cmd)
	editor := a.Stack.Top().(*EditorScene)
	editor.name.SetValue("Holidays")
	_, cmd = adapter.Update(keyMsg("enter"))
	var held tea.Msg
	for _, msg := range msgsOf(cmd) {
		if _, ok := msg.(collectionSavedMsg); ok {
			held = msg
		}
	}
	if held == nil {
		t.Fatal("expected a held save completion")
	}
	opCtx := svc.lastCtx

	// User forces their way back to the root while the save is outstanding.
	a.Stack.Pop(0)
	if opCtx.Err() != context.Canceled {
		t.Error("releasing the editor must cancel its pending operation")
	}

	// The stale completion now arrives. It must not navigate or mutate.
	lenBefore, callsBefore := a.Stack.Len(), len(svc.calls)
	_, next := adapter.Update(held)
	if next != nil {
		t.Error("stale completion must produce no command")
	}
	if a.Stack.Len() != lenBefore {
		t.Errorf("stale completion mutated the stack: len %d -> %d", lenBefore, a.Stack.Len())
	}
	if len(svc.calls) != callsBefore {
		t.Errorf("stale completion issued calls: %v", svc.calls[callsBefore:])
	}
	if _, ok := a.Stack.Top().(*LoginScene); !ok {
		t.Fatalf("expected LoginScene on top, got %T", a.Stack.Top())
	}
}

func TestRefreshFailureShowsInlineError(t *testing.T) {
	svc := &fakeService{listErr: &dav.OperationError{Op: "list collections", Status: 502}}
	a, adapter := newTestApp(svc)

	login := a.Stack.Top().(*LoginScene)
	login.username.SetValue("alice")
	login.password.SetValue("secret")
	_, cmd := adapter.Update(keyMsg("enter"))
	exec(t, adapter, cmd)

	cols, ok := a.Stack.Top().(*CollectionsScene)
	if !ok {
		t.Fatalf("expected CollectionsScene, got %T", a.Stack.Top())
	}
	if cols.errMsg == "" {
		t.Error("expected inline error on the collections scene")
	}
	if a.Stack.Len() != 2 {
		t.Errorf("failure must not relocate the user, len %d", a.Stack.Len())
	}
}

func TestHideShowPreservesInput(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)
	signIn(t, svc, adapter)

	_, cmd := adapter.Update(keyMsg("n"))
	exec(t, adapter, cmd)
	editor := a.Stack.Top().(*EditorScene)
	editor.name.SetValue("Half-typed na")

	editor.Hide()
	editor.Show()

	if got := editor.name.Value(); got != "Half-typed na" {
		t.Errorf("in-progress input lost across hide/show: %q", got)
	}
}

func TestRefreshKeyRefetches(t *testing.T) {
	svc := &fakeService{collections: twoCollections()}
	a, adapter := newTestApp(svc)
	cols := signIn(t, svc, adapter)

	_, cmd := adapter.Update(keyMsg("r"))
	exec(t, adapter, cmd)

	if svc.callCount("list") != 2 {
		t.Errorf("expected a second fetch, calls %v", svc.calls)
	}
	if a.Stack.Top() != Scene(cols) {
		t.Fatalf("expected the collections scene back on top, got %T", a.Stack.Top())
	}
}
