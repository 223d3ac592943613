package filelock

import (
	"errors"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "missing", err: &fs.PathError{Op: "open", Path: "f", Err: syscall.ENOENT}, want: ErrNotFound},
		{name: "access", err: &fs.PathError{Op: "open", Path: "f", Err: syscall.EACCES}, want: ErrPermissionDenied},
		{name: "perm", err: &fs.PathError{Op: "open", Path: "f", Err: syscall.EPERM}, want: ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := openError("f", tt.err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenErrorKeepsOSCode(t *testing.T) {
	err := openError("f", &fs.PathError{Op: "open", Path: "f", Err: syscall.EISDIR})

	var osErr *OSError
	require.ErrorAs(t, err, &osErr)
	assert.Equal(t, int(syscall.EISDIR), osErr.Code())
	assert.ErrorIs(t, err, syscall.EISDIR)
	assert.False(t, IsFileProblem(err))
	assert.False(t, IsContention(err))
}

func TestLockErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		blocking bool
		errno    syscall.Errno
		want     error
	}{
		{name: "non-blocking EAGAIN", blocking: false, errno: syscall.EAGAIN, want: ErrWouldBlock},
		{name: "non-blocking EACCES", blocking: false, errno: syscall.EACCES, want: ErrWouldBlock},
		{name: "blocking EACCES", blocking: true, errno: syscall.EACCES, want: ErrPermissionDenied},
		{name: "EPERM", blocking: false, errno: syscall.EPERM, want: ErrPermissionDenied},
		{name: "deadlock", blocking: true, errno: syscall.EDEADLK, want: syscall.EDEADLK},
		{name: "no locks", blocking: false, errno: syscall.ENOLCK, want: syscall.ENOLCK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := lockError("f", tt.blocking, tt.errno)

			assert.ErrorIs(t, err, tt.want)

			var lockErr *Error
			require.ErrorAs(t, err, &lockErr)
			assert.Equal(t, "lock", lockErr.Op)
			assert.Equal(t, "f", lockErr.Path)
		})
	}
}

func TestOSErrorWithoutErrno(t *testing.T) {
	err := lockError("f", false, errors.ErrUnsupported)

	var osErr *OSError
	require.ErrorAs(t, err, &osErr)
	assert.Equal(t, 0, osErr.Code())
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Op: "lock", Path: "/tmp/x", Err: ErrWouldBlock}
	assert.Equal(t, "lock /tmp/x: lock is held by another owner", err.Error())
}
