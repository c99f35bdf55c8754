//go:build unix

package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestUpdate_ConcurrentWritersDoNotLoseEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	const writers = 10

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			// Separate stores mimic separate processes sharing the file.
			store := NewStore(s.Path(), "dlib", 5*time.Second)
			errs <- store.Update(ctx, func(g *Gallery) error {
				g.Append(fmt.Sprintf("S%d", n), []float32{float32(n)})
				return nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Len() != writers {
		t.Errorf("expected %d entries, got %d", writers, loaded.Len())
	}
}

func TestUpdate_LockTimeout(t *testing.T) {
	s := newTestStore(t)
	s.lockTimeout = 50 * time.Millisecond
	ctx := context.Background()

	unlock, err := lockFile(ctx, s.Path()+".lock", true, time.Second)
	if err != nil {
		t.Fatalf("failed to take lock: %v", err)
	}
	defer unlock()

	err = s.Update(ctx, func(g *Gallery) error { return nil })

	var storageErr *StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != "lock" {
		t.Fatalf("expected lock StorageError, got %v", err)
	}
	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("expected ErrLockTimeout, got %v", err)
	}
}

func TestView_SharedLocksDoNotBlockEachOther(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, New("dlib")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	unlock, err := lockFile(ctx, s.Path()+".lock", false, time.Second)
	if err != nil {
		t.Fatalf("failed to take shared lock: %v", err)
	}
	defer unlock()

	s.lockTimeout = 100 * time.Millisecond
	called := false
	err = s.View(ctx, func(g *Gallery) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if !called {
		t.Error("expected view callback to run")
	}
}
