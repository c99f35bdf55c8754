package gallery

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "known_faces.gob"), "dlib", time.Second)
}

func writeFileData(t *testing.T, path string, fd fileData) {
	t.Helper()
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(fd); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
}

func TestLoad_MissingFileGivesEmptyGallery(t *testing.T) {
	s := newTestStore(t)

	g, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Len() != 0 {
		t.Errorf("expected empty gallery, got %d entries", g.Len())
	}
	if g.Model != "dlib" {
		t.Errorf("expected model dlib, got %q", g.Model)
	}
}

func TestView_MissingGalleryWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deeper")
	s := NewStore(filepath.Join(dir, "faces.gob"), "dlib", time.Second)

	var size int
	var model string
	err := s.View(context.Background(), func(g *Gallery) error {
		size, model = g.Len(), g.Model
		return nil
	})
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if size != 0 || model != "dlib" {
		t.Errorf("expected empty dlib gallery, got %d entries, model %q", size, model)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("view must not create the gallery directory, stat err = %v", err)
	}
}

func TestSaveLoad_RoundTripPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := New("dlib")
	g.Append("S2", []float32{0.5, -0.25, 0.125})
	g.Append("S1", []float32{1, 2, 3})
	g.Append("S3", []float32{-1, 0, 1})

	if err := s.Save(ctx, g); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Len() != g.Len() {
		t.Fatalf("expected %d entries, got %d", g.Len(), loaded.Len())
	}
	for i := range g.Entries {
		want, got := g.Entries[i], loaded.Entries[i]
		if want.Identifier != got.Identifier {
			t.Errorf("entry %d: identifier %q; want %q", i, got.Identifier, want.Identifier)
		}
		for j := range want.Embedding {
			if want.Embedding[j] != got.Embedding[j] {
				t.Errorf("entry %d: embedding[%d] = %f; want %f", i, j, got.Embedding[j], want.Embedding[j])
			}
		}
	}
}

func TestSave_OverwritesWholeFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	big := New("dlib")
	for i := 0; i < 5; i++ {
		big.Append(fmt.Sprintf("S%d", i), []float32{float32(i)})
	}
	if err := s.Save(ctx, big); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	small := New("dlib")
	small.Append("only", []float32{1})
	if err := s.Save(ctx, small); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Len() != 1 || loaded.Entries[0].Identifier != "only" {
		t.Errorf("expected only the last saved gallery, got %v", loaded.Identifiers())
	}
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "faces.gob")
	s := NewStore(path, "dlib", time.Second)

	if err := s.Save(context.Background(), New("dlib")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %v", err)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("definitely not gob"), 0600); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	_, err := s.Load(context.Background())

	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if storageErr.Op != "load" {
		t.Errorf("expected op load, got %q", storageErr.Op)
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoad_EmptyFileIsCorrupt(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), nil, 0600); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	if _, err := s.Load(context.Background()); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoad_MismatchedSequences(t *testing.T) {
	s := newTestStore(t)
	writeFileData(t, s.Path(), fileData{
		Version:     currentFileVersion,
		Model:       "dlib",
		Embeddings:  [][]float32{{1}, {2}},
		Identifiers: []string{"S1"},
	})

	if _, err := s.Load(context.Background()); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	s := newTestStore(t)
	writeFileData(t, s.Path(), fileData{Version: 7, Model: "dlib"})

	if _, err := s.Load(context.Background()); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestLoad_ModelMismatch(t *testing.T) {
	s := newTestStore(t)
	writeFileData(t, s.Path(), fileData{
		Version:     currentFileVersion,
		Model:       "insightface",
		Embeddings:  [][]float32{{1}},
		Identifiers: []string{"S1"},
	})

	if _, err := s.Load(context.Background()); !errors.Is(err, ErrModelMismatch) {
		t.Errorf("expected ErrModelMismatch, got %v", err)
	}
}

func TestUpdate_PersistsMutation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(g *Gallery) error {
		g.Append("S1", []float32{1, 2})
		return nil
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", loaded.Len())
	}
}

func TestUpdate_ErrorSkipsSave(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("rejected")

	err := s.Update(ctx, func(g *Gallery) error {
		g.Append("S1", []float32{1})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	if _, err := os.Stat(s.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no gallery file to be written, stat err = %v", err)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
