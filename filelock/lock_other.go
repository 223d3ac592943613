//go:build !unix

package filelock

import (
	"errors"
	"os"
)

type lockState struct{}

func acquire(f *os.File, exclusive, blocking bool) (lockState, error) {
	return lockState{}, errors.ErrUnsupported
}

func release(f *os.File, st lockState) error {
	return errors.ErrUnsupported
}

func query(f *os.File, exclusive bool) (Conflict, error) {
	return Conflict{}, errors.ErrUnsupported
}

func descriptorOwned() bool {
	return false
}
