//go:build !unix

package gallery

import (
	"context"
	"time"
)

// lockFile is a no-op on platforms without flock(2); concurrent writers may race.
func lockFile(ctx context.Context, _ string, _ bool, _ time.Duration) (func() error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return func() error { return nil }, nil
}
