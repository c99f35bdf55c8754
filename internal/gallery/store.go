package gallery

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"
)

const currentFileVersion = 1

// fileData is the on-disk layout: two parallel sequences plus a header.
type fileData struct {
	Version     int
	Model       string
	SavedAt     time.Time
	Embeddings  [][]float32
	Identifiers []string
}

// Store loads and saves a gallery file. Mutations should go through Update so
// that concurrent invocations don't lose each other's registrations.
type Store struct {
	path        string
	model       string
	lockTimeout time.Duration
}

// NewStore creates a store for the file at path. Galleries created by the store
// are tagged with model; loading a file tagged with another model fails.
func NewStore(path, model string, lockTimeout time.Duration) *Store {
	return &Store{path: path, model: model, lockTimeout: lockTimeout}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file. A missing file yields an empty gallery.
func (s *Store) Load(ctx context.Context) (*Gallery, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "load", Path: s.path, Err: err}
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return New(s.model), nil
	}
	if err != nil {
		return nil, &StorageError{Op: "load", Path: s.path, Err: err}
	}

	var fd fileData
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&fd); err != nil {
		return nil, &StorageError{Op: "load", Path: s.path, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}

	if fd.Version != currentFileVersion {
		return nil, &StorageError{Op: "load", Path: s.path, Err: fmt.Errorf("%w: %d", ErrUnsupportedVersion, fd.Version)}
	}

	if len(fd.Embeddings) != len(fd.Identifiers) {
		return nil, &StorageError{Op: "load", Path: s.path, Err: fmt.Errorf("%w: %d embeddings for %d identifiers",
			ErrCorrupt, len(fd.Embeddings), len(fd.Identifiers))}
	}

	if s.model != "" && fd.Model != "" && fd.Model != s.model {
		return nil, &StorageError{Op: "load", Path: s.path, Err: fmt.Errorf("%w: file has %q, extractor is %q",
			ErrModelMismatch, fd.Model, s.model)}
	}

	g := &Gallery{Model: fd.Model, Entries: make([]Entry, len(fd.Identifiers))}
	if g.Model == "" {
		g.Model = s.model
	}
	for i := range fd.Identifiers {
		g.Entries[i] = Entry{Identifier: fd.Identifiers[i], Embedding: fd.Embeddings[i]}
	}
	return g, nil
}

// Save replaces the backing file with the full gallery. The write is atomic:
// readers see either the old or the new file, never a partial one.
func (s *Store) Save(ctx context.Context, g *Gallery) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: err}
	}

	fd := fileData{
		Version:     currentFileVersion,
		Model:       g.Model,
		SavedAt:     time.Now().UTC(),
		Embeddings:  make([][]float32, len(g.Entries)),
		Identifiers: make([]string, len(g.Entries)),
	}
	for i, e := range g.Entries {
		fd.Embeddings[i] = e.Embedding
		fd.Identifiers[i] = e.Identifier
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(fd); err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: fmt.Errorf("failed to encode gallery: %w", err)}
	}

	if err := s.ensureDir(); err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: err}
	}

	if err := renameio.WriteFile(s.path, buf.Bytes(), 0600); err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

// Update runs load, fn and save while holding an exclusive lock on the gallery.
// Nothing is written if fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(g *Gallery) error) error {
	unlock, err := s.lock(ctx, true)
	if err != nil {
		return err
	}
	defer unlock() //nolint:errcheck

	g, err := s.Load(ctx)
	if err != nil {
		return err
	}

	if err := fn(g); err != nil {
		return err
	}

	return s.Save(ctx, g)
}

// View loads the gallery under a shared lock and passes it to fn. A gallery
// that was never saved is viewed as empty without touching the filesystem.
func (s *Store) View(ctx context.Context, fn func(g *Gallery) error) error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		if err := ctx.Err(); err != nil {
			return &StorageError{Op: "load", Path: s.path, Err: err}
		}
		return fn(New(s.model))
	}

	unlock, err := s.lock(ctx, false)
	if err != nil {
		return err
	}
	defer unlock() //nolint:errcheck

	g, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return fn(g)
}

func (s *Store) lock(ctx context.Context, exclusive bool) (func() error, error) {
	if exclusive {
		if err := s.ensureDir(); err != nil {
			return nil, &StorageError{Op: "lock", Path: s.path, Err: err}
		}
	}

	unlock, err := lockFile(ctx, s.path+".lock", exclusive, s.lockTimeout)
	if err != nil {
		return nil, &StorageError{Op: "lock", Path: s.path, Err: err}
	}
	return unlock, nil
}

func (s *Store) ensureDir() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create gallery directory: %w", err)
	}
	return nil
}
