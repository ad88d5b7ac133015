package ui

import (
	"context"

	"davman/internal/dav"
)

// Service is the slice of the DAV client the scenes consume. Network
// operations take a context for cancellation and run inside tea commands, so
// they never complete synchronously within an Update turn. SetServer and
// Logout are synchronous local state changes.
type Service interface {
	SetServer(rawURL string) error
	Login(ctx context.Context, username, password string) error
	Logout()
	ListCollections(ctx context.Context) ([]dav.Collection, error)
	CreateCollection(ctx context.Context, name, description string) error
	UpdateCollection(ctx context.Context, href, name, description string) error
	DeleteCollection(ctx context.Context, href string) error
	PutObject(ctx context.Context, collectionHref, name string, data []byte) (string, error)
}

var _ Service = (*dav.Client)(nil)
