package ui

import "davman/internal/dav"

// Completion messages for DAV operations. Each carries the scene that issued
// the operation so the app model can hand the result back to it; the scene's
// guard decides whether the result is still wanted.

// loginDoneMsg reports the outcome of the login scene's sign-in.
type loginDoneMsg struct {
	scene *LoginScene
	err   error
}

// collectionsLoadedMsg reports the outcome of a collection list fetch.
type collectionsLoadedMsg struct {
	scene       *CollectionsScene
	collections []dav.Collection
	err         error
}

// collectionSavedMsg reports the outcome of a create or edit save.
type collectionSavedMsg struct {
	scene *EditorScene
	err   error
}

// objectUploadedMsg reports the outcome of an object upload.
type objectUploadedMsg struct {
	scene *UploadScene
	href  string
	err   error
}

// collectionDeletedMsg reports the outcome of a collection delete.
type collectionDeletedMsg struct {
	scene *DeleteScene
	err   error
}

// quitRequestedMsg asks the app to tear the stack down and exit.
type quitRequestedMsg struct{}
