package filelock

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	ErrNotFound         = errors.New("file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrWouldBlock       = errors.New("lock is held by another owner")
)

// OSError carries an OS failure that has no dedicated sentinel.
type OSError struct {
	Errno syscall.Errno
	Err   error // set instead of Errno when the failure has no native code
}

// Code returns the native error code, or 0 when there is none.
func (e *OSError) Code() int {
	return int(e.Errno)
}

func (e *OSError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("os error %d: %s", int(e.Errno), e.Errno.Error())
}

func (e *OSError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Errno
}

// Error records the operation and path that failed while acquiring a lock.
// Err is one of the sentinels above or an *OSError.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsContention reports whether err means the lock was held by someone else.
func IsContention(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}

// IsFileProblem reports whether err is about the file itself rather than the lock.
func IsFileProblem(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrPermissionDenied)
}

// openError classifies a failure returned by os.OpenFile.
func openError(path string, err error) error {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return &Error{Op: "open", Path: path, Err: &OSError{Err: err}}
	}
	switch errno {
	case syscall.ENOENT:
		return &Error{Op: "open", Path: path, Err: ErrNotFound}
	case syscall.EACCES, syscall.EPERM:
		return &Error{Op: "open", Path: path, Err: ErrPermissionDenied}
	default:
		return &Error{Op: "open", Path: path, Err: &OSError{Errno: errno}}
	}
}

// lockError classifies a failure returned by the native lock call.
// For a non-blocking attempt POSIX allows either EAGAIN or EACCES to signal
// a conflicting lock.
func lockError(path string, blocking bool, err error) error {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return &Error{Op: "lock", Path: path, Err: &OSError{Err: err}}
	}
	switch {
	case !blocking && (errno == syscall.EAGAIN || errno == syscall.EACCES):
		return &Error{Op: "lock", Path: path, Err: ErrWouldBlock}
	case errno == syscall.EACCES || errno == syscall.EPERM:
		return &Error{Op: "lock", Path: path, Err: ErrPermissionDenied}
	default:
		return &Error{Op: "lock", Path: path, Err: &OSError{Errno: errno}}
	}
}
