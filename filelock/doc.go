// Package filelock provides advisory whole-file locks on POSIX systems using
// fcntl record locking.
//
// A lock is described with a Request and acquired with Lock:
//
//	h, err := filelock.New("state.json").
//		Writable(true).
//		Blocking(true).
//		WithCreate(0o644).
//		Lock()
//	if err != nil {
//		return err
//	}
//	defer h.Unlock()
//
// Writable requests open the file read-write and take an exclusive lock;
// otherwise the file is opened read-only with a shared lock. Non-blocking
// requests that meet a conflicting lock fail with ErrWouldBlock.
//
// Unlock is idempotent. A Handle that is dropped without being unlocked is
// released when it is garbage collected, and the kernel drops the lock when the
// process exits, but callers should not rely on either: use defer or
// Request.Do.
//
// Advisory locks only constrain processes that also take them.
package filelock
