package filelock

import (
	"errors"
	"os"
	"runtime"
	"syscall"

	"filelocker/logging"
)

// Handle owns an open file and the advisory lock held on it. It is only ever
// returned by a successful Request.Lock.
//
// Read, Write, Seek, ReadAt and WriteAt go straight to the underlying file.
// Once unlocked the file is closed and those calls fail with os.ErrClosed.
//
// A Handle is not safe for concurrent Unlock from several goroutines.
type Handle struct {
	file      *os.File
	path      string
	exclusive bool
	state     lockState
	locked    bool
}

// File returns the locked file. Do not close it directly; use Unlock.
func (h *Handle) File() *os.File { return h.file }

// Name returns the path the Handle was locked with.
func (h *Handle) Name() string { return h.path }

// Fd returns the file descriptor.
func (h *Handle) Fd() uintptr { return h.file.Fd() }

// Locked reports whether the lock is still held.
func (h *Handle) Locked() bool { return h.locked }

// Exclusive reports whether the lock is exclusive (write) rather than shared.
func (h *Handle) Exclusive() bool { return h.exclusive }

func (h *Handle) Read(p []byte) (int, error) { return h.file.Read(p) }

func (h *Handle) Write(p []byte) (int, error) { return h.file.Write(p) }

func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	return h.file.Seek(offset, whence)
}

func (h *Handle) ReadAt(p []byte, off int64) (int, error) { return h.file.ReadAt(p, off) }

func (h *Handle) WriteAt(p []byte, off int64) (int, error) { return h.file.WriteAt(p, off) }

// Unlock releases the lock and closes the file. Only the first call does any
// work; later calls return nil.
func (h *Handle) Unlock() error {
	if h == nil || !h.locked {
		return nil
	}
	h.locked = false
	runtime.SetFinalizer(h, nil)

	err := release(h.file, h.state)
	// Closing the descriptor drops the lock even if the explicit release failed.
	if cerr := h.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &Error{Op: "unlock", Path: h.path, Err: osFailure(err)}
	}

	logging.Logger.Debug("Lock released", "path", h.path)
	return nil
}

// Close is Unlock, so a Handle can be used as an io.Closer.
func (h *Handle) Close() error {
	return h.Unlock()
}

// finalize is the backstop for a Handle dropped without Unlock. There is no
// caller to return an error to, so failures are only logged.
func (h *Handle) finalize() {
	if !h.locked {
		return
	}
	logging.Logger.Warn("Lock handle was not unlocked, releasing", "path", h.path)
	if err := h.Unlock(); err != nil {
		logging.Logger.Warn("Implicit lock release failed", "path", h.path, "error", err)
	}
}

func osFailure(err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return &OSError{Errno: errno}
	}
	return &OSError{Err: err}
}
