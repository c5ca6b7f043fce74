// Package savedview persists named queries, newest first.
package savedview

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxRecentViews caps the number of stored views.
const MaxRecentViews = 10

// View is a saved query with a display title.
type View struct {
	Title string `json:"title"`
	Query string `json:"query"`
}

var (
	// ErrIndexOutOfRange is returned when a view index does not exist.
	ErrIndexOutOfRange = errors.New("view index out of range")
	// ErrUnknownBackend is returned by Open for unsupported backends.
	ErrUnknownBackend = errors.New("unknown view store backend")
)

// Store persists views. Index 0 is always the most recent view.
type Store interface {
	// List returns all views, newest first.
	List(ctx context.Context) ([]View, error)
	// Save prepends v and drops views beyond MaxRecentViews.
	Save(ctx context.Context, v View) error
	// Delete removes the view at index.
	Delete(ctx context.Context, index int) error
	Close() error
}

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// DefaultPath returns the store file for backend inside dir.
func DefaultPath(dir, backend string) string {
	if backend == BackendSQLite {
		return filepath.Join(dir, "views.sqlite3")
	}
	return filepath.Join(dir, "views.json")
}

// Open opens a store of the given backend at path. An empty backend
// selects BackendJSON.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendJSON:
		return NewFileStore(path), nil
	case BackendSQLite:
		return OpenSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Get returns the view at index.
func Get(ctx context.Context, s Store, index int) (View, error) {
	views, err := s.List(ctx)
	if err != nil {
		return View{}, err
	}
	if index < 0 || index >= len(views) {
		return View{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(views))
	}
	return views[index], nil
}

// prepend returns v followed by at most MaxRecentViews-1 of views.
func prepend(views []View, v View) []View {
	keep := min(len(views), MaxRecentViews-1)
	out := make([]View, 0, keep+1)
	out = append(out, v)
	return append(out, views[:keep]...)
}

func remove(views []View, index int) ([]View, error) {
	if index < 0 || index >= len(views) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(views))
	}
	out := make([]View, 0, len(views)-1)
	out = append(out, views[:index]...)
	return append(out, views[index+1:]...), nil
}
