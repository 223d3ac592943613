//go:build linux

package filelock

import "golang.org/x/sys/unix"

// Open file description locks belong to the descriptor, not the process, so
// Handles in the same process exclude each other and closing an unrelated
// descriptor for the same file leaves them in place.
var native = commands{set: unix.F_OFD_SETLK, setWait: unix.F_OFD_SETLKW, ofd: true}

// descriptorOwned reports whether locks taken by this process belong to their
// descriptor. False after falling back to classic commands.
func descriptorOwned() bool {
	return !fellBack.Load()
}
