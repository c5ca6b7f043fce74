package savedview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/todoq/pkg/debug"
	"github.com/vanderheijden86/todoq/pkg/metrics"
)

// FileStore keeps views in a JSON array file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) List(ctx context.Context) ([]View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Save(ctx context.Context, v View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	views, err := s.read()
	if err != nil {
		return err
	}
	return s.write(prepend(views, v))
}

func (s *FileStore) Delete(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	views, err := s.read()
	if err != nil {
		return err
	}
	views, err = remove(views, index)
	if err != nil {
		return err
	}
	return s.write(views)
}

func (s *FileStore) Close() error { return nil }

// read loads the views. A corrupt file is discarded and reads as empty.
func (s *FileStore) read() ([]View, error) {
	defer metrics.Timer(metrics.ViewStore)()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []View{}, nil
		}
		return nil, fmt.Errorf("read views: %w", err)
	}
	var views []View
	if err := json.Unmarshal(data, &views); err != nil {
		debug.Log("resetting corrupt view store %s: %v", s.path, err)
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, fmt.Errorf("reset corrupt views: %w", rmErr)
		}
		return []View{}, nil
	}
	if views == nil {
		views = []View{}
	}
	return views, nil
}

func (s *FileStore) write(views []View) error {
	defer metrics.Timer(metrics.ViewStore)()

	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return fmt.Errorf("encode views: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create views dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write views: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace views: %w", err)
	}
	return nil
}
