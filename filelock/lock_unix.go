//go:build unix

package filelock

import (
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"filelocker/logging"
)

// commands is the family of fcntl commands a lock was taken with. Unlock must
// use the same family, since OFD and classic locks have different owners.
type commands struct {
	set     int
	setWait int
	ofd     bool
}

var classic = commands{set: unix.F_SETLK, setWait: unix.F_SETLKW}

// lockState is what the native layer needs to release a lock later.
type lockState struct {
	cmds commands
}

// wholeFile describes a record lock covering the entire file, including any
// bytes appended after the lock was taken.
func wholeFile(typ int16) unix.Flock_t {
	return unix.Flock_t{Type: typ, Whence: io.SeekStart, Start: 0, Len: 0}
}

// fcntlFlock is the native call, replaceable in tests.
var fcntlFlock = unix.FcntlFlock

// fellBack is set once the kernel has rejected OFD commands.
var fellBack atomic.Bool

// fcntl issues a record lock command, retrying while the call is interrupted
// by a signal.
func fcntl(fd uintptr, cmd int, lk *unix.Flock_t) error {
	for {
		err := fcntlFlock(fd, cmd, lk)
		if err != unix.EINTR {
			return err
		}
		logging.Logger.Debug("Lock call interrupted, retrying", "fd", fd, "cmd", cmd)
	}
}

func validFd(f *os.File) (uintptr, error) {
	fd := f.Fd()
	if int(fd) < 0 {
		return 0, unix.EBADF
	}
	return fd, nil
}

func acquire(f *os.File, exclusive, blocking bool) (lockState, error) {
	fd, err := validFd(f)
	if err != nil {
		return lockState{}, err
	}

	typ := int16(unix.F_RDLCK)
	if exclusive {
		typ = unix.F_WRLCK
	}

	cmds := native
	for {
		lk := wholeFile(typ)
		cmd := cmds.set
		if blocking {
			cmd = cmds.setWait
		}
		err = fcntl(fd, cmd, &lk)
		if err == unix.EINVAL && cmds.ofd {
			// Kernel predates open file description locks.
			logging.Logger.Debug("OFD locks unsupported, using classic record locks", "path", f.Name())
			fellBack.Store(true)
			cmds = classic
			continue
		}
		return lockState{cmds: cmds}, err
	}
}

func release(f *os.File, st lockState) error {
	fd, err := validFd(f)
	if err != nil {
		return err
	}
	lk := wholeFile(unix.F_UNLCK)
	return fcntl(fd, st.cmds.set, &lk)
}

func query(f *os.File, exclusive bool) (Conflict, error) {
	fd, err := validFd(f)
	if err != nil {
		return Conflict{}, err
	}

	typ := int16(unix.F_RDLCK)
	if exclusive {
		typ = unix.F_WRLCK
	}
	lk := wholeFile(typ)
	if err := fcntl(fd, unix.F_GETLK, &lk); err != nil {
		return Conflict{}, err
	}
	if lk.Type == unix.F_UNLCK {
		return Conflict{}, nil
	}

	c := Conflict{Held: true, Exclusive: lk.Type == unix.F_WRLCK}
	// OFD locks report a pid of -1.
	if lk.Pid > 0 {
		c.PID = int(lk.Pid)
	}
	return c, nil
}
