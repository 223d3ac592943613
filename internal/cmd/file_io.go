package cmd

import (
	"fmt"
	"io"

	"filelocker/filelock"
)

// CatCmd prints a file while holding a shared lock
type CatCmd struct {
	LockFlags `embed:""`

	Path string `arg:"" help:"File to read"`
}

// Run executes the cat command
func (c *CatCmd) Run(cli *CLI) error {
	req, err := c.request(cli, c.Path, false)
	if err != nil {
		return err
	}

	err = req.Do(func(h *filelock.Handle) error {
		if _, err := io.Copy(cli.out(), h); err != nil {
			return fmt.Errorf("failed to read %s: %w", c.Path, err)
		}
		return nil
	})
	if err != nil {
		return lockFailed(c.Path, err)
	}
	return nil
}

// WriteCmd replaces (or appends to) a file with stdin while holding an exclusive lock
type WriteCmd struct {
	LockFlags `embed:""`

	Append bool   `help:"Append instead of truncating" short:"a"`
	Path   string `arg:"" help:"File to write"`
}

// Run executes the write command
func (w *WriteCmd) Run(cli *CLI) error {
	req, err := w.request(cli, w.Path, true)
	if err != nil {
		return err
	}

	err = req.Do(func(h *filelock.Handle) error {
		if w.Append {
			if _, err := h.Seek(0, io.SeekEnd); err != nil {
				return fmt.Errorf("failed to seek to end: %w", err)
			}
		} else if err := h.File().Truncate(0); err != nil {
			return fmt.Errorf("failed to truncate file: %w", err)
		}

		if _, err := io.Copy(h, cli.in()); err != nil {
			return fmt.Errorf("failed to write %s: %w", w.Path, err)
		}
		return h.File().Sync()
	})
	if err != nil {
		return lockFailed(w.Path, err)
	}
	return nil
}
