package lock

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"
)

// FileLock provides an exclusive advisory lock.
type FileLock struct {
	f *os.File
}

// AcquireContext polls for the lock until it is free or ctx is done.
func AcquireContext(ctx context.Context, path string) (*FileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return &FileLock{f: f}, nil
		}
		if err != syscall.EWOULDBLOCK {
			_ = f.Close()
			return nil, fmt.Errorf("flock: %w", err)
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *FileLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	if err := syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.f.Close()
		return err
	}
	return l.f.Close()
}

// Guard returns a function that takes the lock at path for the duration of
// one critical section. The returned release func is never nil on success.
func Guard(path string) func(ctx context.Context) (func(), error) {
	return func(ctx context.Context) (func(), error) {
		l, err := AcquireContext(ctx, path)
		if err != nil {
			return nil, err
		}
		return func() { _ = l.Release() }, nil
	}
}
