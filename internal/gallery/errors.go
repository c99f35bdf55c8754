package gallery

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt is returned when the backing file exists but cannot be decoded.
	ErrCorrupt = errors.New("gallery file is corrupt")

	// ErrUnsupportedVersion is returned for files written by an unknown format version.
	ErrUnsupportedVersion = errors.New("unsupported gallery file version")

	// ErrModelMismatch is returned when the file was built by a different extractor model.
	ErrModelMismatch = errors.New("gallery was built with a different extractor model")

	// ErrLockTimeout is returned when the gallery lock cannot be acquired in time.
	ErrLockTimeout = errors.New("timed out waiting for gallery lock")
)

// StorageError reports a failure reading, writing or locking the gallery file.
type StorageError struct {
	Op   string // "load", "save" or "lock"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("gallery %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
