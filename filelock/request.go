package filelock

import (
	"errors"
	"os"
	"runtime"

	"filelocker/logging"
)

// Request describes a lock to take. It is a value: every option returns an
// updated copy, and nothing touches the filesystem until Lock is called.
//
// The zero options are a shared, non-blocking lock on an existing file.
type Request struct {
	path     string
	writable bool
	blocking bool
	create   bool
	perm     os.FileMode
}

// New returns a Request for path with default options.
func New(path string) Request {
	return Request{path: path}
}

// Lock opens path and takes a lock on it in one call.
func Lock(path string, blocking, writable bool) (*Handle, error) {
	return New(path).Blocking(blocking).Writable(writable).Lock()
}

// Writable opens the file read-write and takes an exclusive lock.
// Otherwise the file is opened read-only with a shared lock.
func (r Request) Writable(v bool) Request {
	r.writable = v
	return r
}

// Blocking makes Lock wait for a conflicting lock to be released instead of
// failing with ErrWouldBlock.
func (r Request) Blocking(v bool) Request {
	r.blocking = v
	return r
}

// WithCreate creates the file with perm (before umask) if it does not exist.
// perm may use either the Unix octal bits (0o4755) or os.ModeSetuid,
// os.ModeSetgid and os.ModeSticky for the special bits.
func (r Request) WithCreate(perm os.FileMode) Request {
	r.create = true
	r.perm = createPerm(perm)
	return r
}

// createPerm moves the Unix setuid, setgid and sticky bits to the os.FileMode
// flags os.OpenFile understands; it ignores the raw 0o7000 bits.
func createPerm(perm os.FileMode) os.FileMode {
	mode := perm & (os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky)
	if perm&0o4000 != 0 {
		mode |= os.ModeSetuid
	}
	if perm&0o2000 != 0 {
		mode |= os.ModeSetgid
	}
	if perm&0o1000 != 0 {
		mode |= os.ModeSticky
	}
	return mode
}

// Path returns the path the request will lock.
func (r Request) Path() string {
	return r.path
}

// Lock opens the file and acquires the lock. A Handle is only returned once
// the lock is held; on failure the file is closed again and the error is an
// *Error wrapping ErrNotFound, ErrPermissionDenied, ErrWouldBlock or *OSError.
func (r Request) Lock() (*Handle, error) {
	flags := os.O_RDONLY
	if r.writable {
		flags = os.O_RDWR
	}
	if r.create {
		flags |= os.O_CREATE
	}

	f, err := os.OpenFile(r.path, flags, r.perm)
	if err != nil {
		return nil, openError(r.path, err)
	}

	st, err := acquire(f, r.writable, r.blocking)
	if err != nil {
		f.Close()
		logging.Logger.Debug("Lock not acquired", "path", r.path, "writable", r.writable, "blocking", r.blocking, "error", err)
		return nil, lockError(r.path, r.blocking, err)
	}

	h := &Handle{
		file:      f,
		path:      r.path,
		exclusive: r.writable,
		state:     st,
		locked:    true,
	}
	runtime.SetFinalizer(h, (*Handle).finalize)

	logging.Logger.Debug("Lock acquired", "path", r.path, "writable", r.writable, "blocking", r.blocking)
	return h, nil
}

// Do acquires the lock, calls fn with the Handle and releases the lock when fn
// returns or panics. An unlock failure is returned only if fn succeeded.
func (r Request) Do(fn func(h *Handle) error) (err error) {
	h, err := r.Lock()
	if err != nil {
		return err
	}
	defer func() {
		if uerr := h.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}()
	return fn(h)
}

// Conflict describes a lock that would prevent a request from succeeding.
type Conflict struct {
	Held      bool
	Exclusive bool
	PID       int // 0 when the kernel does not report an owning process
}

// Probe reports whether a lock in the given mode could be taken on path right
// now, without taking it. The answer may be stale by the time it is used.
//
// Probe needs descriptor-owned locks (Linux). Elsewhere closing the query
// descriptor would drop every lock the process holds on the file, so it fails
// with an *OSError wrapping errors.ErrUnsupported.
func Probe(path string, writable bool) (Conflict, error) {
	if !descriptorOwned() {
		return Conflict{}, &Error{Op: "probe", Path: path, Err: &OSError{Err: errors.ErrUnsupported}}
	}

	f, err := os.Open(path)
	if err != nil {
		return Conflict{}, openError(path, err)
	}
	defer f.Close()

	c, err := query(f, writable)
	if err != nil {
		return Conflict{}, &Error{Op: "probe", Path: path, Err: osFailure(err)}
	}
	return c, nil
}
