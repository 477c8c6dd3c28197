package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// fileLock is an advisory flock held on a sidecar lock file
type fileLock struct {
	f *os.File
}

// acquireLock takes a shared or exclusive lock on lockPath.
// It polls with LOCK_NB so that the wait is bounded and cancellable.
func acquireLock(ctx context.Context, lockPath string, exclusive bool, timeout, retry time.Duration) (*fileLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, ErrCreateDir(filepath.Dir(lockPath), err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, ErrLock(lockPath, err)
	}

	how := unix.LOCK_SH | unix.LOCK_NB
	if exclusive {
		how = unix.LOCK_EX | unix.LOCK_NB
	}

	deadline := time.Now().Add(timeout)
	for {
		err := unix.Flock(int(f.Fd()), how)
		if err == nil {
			return &fileLock{f: f}, nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			f.Close()
			return nil, ErrLock(lockPath, err)
		}
		if time.Now().After(deadline) {
			f.Close()
			return nil, ErrLockTimeout(lockPath, timeout)
		}

		select {
		case <-ctx.Done():
			f.Close()
			return nil, ErrLock(lockPath, ctx.Err())
		case <-time.After(retry):
		}
	}
}

// release unlocks and closes the lock file
func (l *fileLock) release() {
	if l == nil || l.f == nil {
		return
	}
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	_ = l.f.Close()
}
