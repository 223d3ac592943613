package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"

	"filelocker/logging"
)

// RunCmd runs a command while holding a lock
type RunCmd struct {
	LockFlags `embed:""`

	Exclusive bool     `help:"Take an exclusive lock (opens the file read-write)" short:"x"`
	Path      string   `arg:"" help:"File to lock"`
	Command   []string `arg:"" passthrough:"" help:"Command and arguments to run"`
}

// Run executes the run command
func (r *RunCmd) Run(cli *CLI) error {
	// Passthrough args keep the "--" separator
	if len(r.Command) > 0 && r.Command[0] == "--" {
		r.Command = r.Command[1:]
	}
	if len(r.Command) == 0 {
		return fmt.Errorf("no command given")
	}

	req, err := r.request(cli, r.Path, r.Exclusive)
	if err != nil {
		return err
	}

	h, err := req.Lock()
	if err != nil {
		return lockFailed(r.Path, err)
	}
	defer func() {
		if err := h.Unlock(); err != nil {
			logging.Logger.Error("Failed to release lock", "path", r.Path, "error", err)
		}
	}()

	// Lets the child and its logs be correlated with this lock holder
	holder := uuid.New().String()
	logging.Logger.Info("Running command under lock",
		"path", r.Path,
		"exclusive", r.Exclusive,
		"holder", holder,
		"command", r.Command)

	c := exec.Command(r.Command[0], r.Command[1:]...)
	c.Stdin = cli.in()
	c.Stdout = cli.out()
	c.Stderr = os.Stderr
	c.Env = append(os.Environ(),
		"FILELOCKER_HOLDER="+holder,
		"FILELOCKER_PATH="+r.Path,
	)

	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			if code < 0 {
				code = 1 // killed by a signal
			}
			logging.Logger.Info("Command exited", "holder", holder, "code", code)
			return &ExitError{Code: code}
		}
		return fmt.Errorf("failed to run %s: %w", r.Command[0], err)
	}

	logging.Logger.Info("Command exited", "holder", holder, "code", 0)
	return nil
}
