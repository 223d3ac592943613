//go:build unix && !linux

package filelock

// Classic POSIX record locks are owned by the process. Two Handles for the same
// file inside one process never conflict, and closing any descriptor for the
// file drops every lock the process holds on it.
var native = classic

func descriptorOwned() bool {
	return false
}
