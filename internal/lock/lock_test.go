package lock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refresh.lock")

	ctx := context.Background()
	l, err := AcquireContext(ctx, path)
	require.NoError(t, err)
	require.NoError(t, l.Release())

	// Released locks can be taken again.
	l2, err := AcquireContext(ctx, path)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
}

func TestAcquireContextTimesOutWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refresh.lock")

	held, err := AcquireContext(context.Background(), path)
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	_, err = AcquireContext(ctx, path)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refresh.lock")
	guard := Guard(path)

	release, err := guard(context.Background())
	require.NoError(t, err)
	release()

	release, err = guard(context.Background())
	require.NoError(t, err)
	release()
}

func TestReleaseNil(t *testing.T) {
	var l *FileLock
	require.NoError(t, l.Release())
}
