package savedview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type storeFactory func(t *testing.T, path string) Store

var backends = map[string]struct {
	file    string
	factory storeFactory
}{
	BackendJSON: {"views.json", func(t *testing.T, path string) Store {
		return NewFileStore(path)
	}},
	BackendSQLite: {"views.sqlite3", func(t *testing.T, path string) Store {
		s, err := OpenSQLiteStore(path)
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		return s
	}},
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store, path string, reopen func() Store)) {
	for name, b := range backends {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), b.file)
			s := b.factory(t, path)
			t.Cleanup(func() { s.Close() })
			reopen := func() Store {
				r := b.factory(t, path)
				t.Cleanup(func() { r.Close() })
				return r
			}
			fn(t, s, path, reopen)
		})
	}
}

func titles(views []View) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Title
	}
	return out
}

func TestStoreEmpty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ string, _ func() Store) {
		views, err := s.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if views == nil || len(views) != 0 {
			t.Errorf("expected empty non-nil list, got %#v", views)
		}
	})
}

func TestStoreSaveNewestFirst(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ string, reopen func() Store) {
		ctx := context.Background()
		for _, title := range []string{"one", "two", "three"} {
			if err := s.Save(ctx, View{Title: title, Query: "@" + title}); err != nil {
				t.Fatalf("Save(%s) error = %v", title, err)
			}
		}
		views, err := reopen().List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if got := titles(views); !reflect.DeepEqual(got, []string{"three", "two", "one"}) {
			t.Errorf("expected newest first, got %v", got)
		}
		if views[0].Query != "@three" {
			t.Errorf("expected query @three, got %q", views[0].Query)
		}
	})
}

func TestStoreCapsAtMax(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ string, _ func() Store) {
		ctx := context.Background()
		for i := 0; i < MaxRecentViews+3; i++ {
			if err := s.Save(ctx, View{Title: fmt.Sprintf("v%d", i), Query: "q"}); err != nil {
				t.Fatalf("Save error = %v", err)
			}
		}
		views, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(views) != MaxRecentViews {
			t.Fatalf("expected %d views, got %d", MaxRecentViews, len(views))
		}
		if views[0].Title != "v12" || views[MaxRecentViews-1].Title != "v3" {
			t.Errorf("unexpected window %v", titles(views))
		}
	})
}

func TestStoreDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ string, _ func() Store) {
		ctx := context.Background()
		for _, title := range []string{"a", "b", "c"} {
			if err := s.Save(ctx, View{Title: title}); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.Delete(ctx, 1); err != nil {
			t.Fatalf("Delete(1) error = %v", err)
		}
		views, _ := s.List(ctx)
		if got := titles(views); !reflect.DeepEqual(got, []string{"c", "a"}) {
			t.Errorf("expected [c a], got %v", got)
		}
		for _, idx := range []int{-1, 2, 100} {
			if err := s.Delete(ctx, idx); !errors.Is(err, ErrIndexOutOfRange) {
				t.Errorf("Delete(%d): expected ErrIndexOutOfRange, got %v", idx, err)
			}
		}
		views, _ = s.List(ctx)
		if len(views) != 2 {
			t.Errorf("failed delete changed the store: %v", titles(views))
		}
	})
}

func TestStoreCorruptResets(t *testing.T) {
	for name, b := range backends {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), b.file)
			if err := os.WriteFile(path, []byte("this is not { valid"), 0644); err != nil {
				t.Fatal(err)
			}
			s := b.factory(t, path)
			defer s.Close()

			ctx := context.Background()
			views, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(views) != 0 {
				t.Errorf("expected reset store, got %v", views)
			}
			if err := s.Save(ctx, View{Title: "fresh"}); err != nil {
				t.Fatalf("Save after reset error = %v", err)
			}
			views, _ = s.List(ctx)
			if got := titles(views); !reflect.DeepEqual(got, []string{"fresh"}) {
				t.Errorf("expected [fresh], got %v", got)
			}
		})
	}
}

func TestGet(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "views.json"))
	ctx := context.Background()
	if err := s.Save(ctx, View{Title: "only", Query: "+x"}); err != nil {
		t.Fatal(err)
	}
	v, err := Get(ctx, s, 0)
	if err != nil || v.Query != "+x" {
		t.Errorf("Get(0) = %+v, %v", v, err)
	}
	if _, err := Get(ctx, s, 1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{"", BackendJSON, BackendSQLite} {
		s, err := Open(backend, DefaultPath(dir, backend))
		if err != nil {
			t.Fatalf("Open(%q) error = %v", backend, err)
		}
		s.Close()
	}
	if _, err := Open("redis", "x"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
	if got := DefaultPath("/c", BackendSQLite); got != filepath.Join("/c", "views.sqlite3") {
		t.Errorf("unexpected sqlite path %s", got)
	}
}
