//go:build unix

package filelock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestLockRetriesInterruptedCalls(t *testing.T) {
	path := lockTarget(t)

	const interrupts = 3
	var (
		mu    sync.Mutex
		calls int
	)
	orig := fcntlFlock
	t.Cleanup(func() { fcntlFlock = orig })
	fcntlFlock = func(fd uintptr, cmd int, lk *unix.Flock_t) error {
		// Finalizers of earlier tests may still release their locks.
		if lk.Type != unix.F_WRLCK {
			return orig(fd, cmd, lk)
		}
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n <= interrupts {
			return unix.EINTR
		}
		return orig(fd, cmd, lk)
	}

	h, err := New(path).Writable(true).Lock()
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, interrupts+1, calls)
	mu.Unlock()
	assert.True(t, h.Locked())
	require.NoError(t, h.Unlock())
}

func TestLockReturnsUninterruptedErrors(t *testing.T) {
	path := lockTarget(t)

	orig := fcntlFlock
	t.Cleanup(func() { fcntlFlock = orig })
	fcntlFlock = func(fd uintptr, cmd int, lk *unix.Flock_t) error {
		if lk.Type != unix.F_WRLCK {
			return orig(fd, cmd, lk)
		}
		return unix.ENOLCK
	}

	_, err := New(path).Writable(true).Lock()

	var osErr *OSError
	require.ErrorAs(t, err, &osErr)
	assert.Equal(t, unix.ENOLCK, osErr.Errno)
}
