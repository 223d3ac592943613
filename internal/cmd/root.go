package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"filelocker/filelock"
	"filelocker/internal/config"
	"filelocker/logging"
)

// ConflictExitCode is returned when a non-blocking lock is held elsewhere (EX_TEMPFAIL).
const ConflictExitCode = 75

// defaultCreateMode is used for created files when neither --mode nor settings set one
const defaultCreateMode os.FileMode = 0644

// CLI represents the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	Debug       bool             `help:"Enable debug logging to file" short:"d"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000"`

	Run      RunCmd      `cmd:"run" help:"Run a command while holding a lock on a file"`
	Probe    ProbeCmd    `cmd:"probe" help:"Check whether a lock could be taken right now"`
	Cat      CatCmd      `cmd:"cat" help:"Print a file under a shared lock"`
	Write    WriteCmd    `cmd:"write" help:"Write stdin to a file under an exclusive lock"`
	Settings SettingsCmd `cmd:"settings" help:"Show or change settings"`

	// Internal fields (not flags)
	settings *config.Settings `kong:"-"`
	stdin    io.Reader        `kong:"-"`
	stdout   io.Writer        `kong:"-"`
}

// SetSettings sets the settings on the CLI struct
func (c *CLI) SetSettings(settings *config.Settings) {
	c.settings = settings
}

// AfterApply initializes logging after CLI parsing and applies settings
func (c *CLI) AfterApply() error {
	// Precedence: CLI flags > env vars > settings.json > defaults
	if c.settings != nil {
		if c.MaxLogFiles == logging.DefaultMaxLogFiles {
			if _, hasEnv := os.LookupEnv("FILELOCKER_MAX_LOG_FILES"); !hasEnv {
				if c.settings.MaxLogFiles != nil {
					c.MaxLogFiles = *c.settings.MaxLogFiles
				}
			}
		}

		if !c.Debug {
			if _, hasEnv := os.LookupEnv("FILELOCKER_DEBUG"); !hasEnv {
				if c.settings.Debug != nil && *c.settings.Debug {
					c.Debug = true
				}
			}
		}
	}

	logFilePath, err := logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles)
	if err != nil {
		return err
	}

	// Child processes started by "run" append to the same log file
	if c.Debug || c.DebugFile != "" {
		os.Setenv("FILELOCKER_DEBUG", "1")
		if logFilePath != "" {
			os.Setenv("FILELOCKER_DEBUG_FILE", logFilePath)
		}
	}

	return nil
}

func (c *CLI) in() io.Reader {
	if c.stdin != nil {
		return c.stdin
	}
	return os.Stdin
}

func (c *CLI) out() io.Writer {
	if c.stdout != nil {
		return c.stdout
	}
	return os.Stdout
}

// LockFlags are the options shared by every command that takes a lock
type LockFlags struct {
	Wait   bool   `help:"Wait for a conflicting lock to be released instead of failing" short:"w"`
	NoWait bool   `help:"Fail immediately if the lock is held (overrides settings)" name:"no-wait"`
	Create bool   `help:"Create the file if it does not exist" short:"c"`
	Mode   string `help:"Permission bits for a created file, in octal (default from settings or 0644)"`
}

// request builds the lock request for path, filling unset options from settings
func (f *LockFlags) request(cli *CLI, path string, exclusive bool) (filelock.Request, error) {
	blocking := f.Wait
	if !f.Wait && !f.NoWait && cli.settings != nil && cli.settings.Blocking != nil {
		blocking = *cli.settings.Blocking
	}

	req := filelock.New(path).Writable(exclusive).Blocking(blocking)
	if !f.Create {
		return req, nil
	}

	mode := defaultCreateMode
	switch {
	case f.Mode != "":
		m, err := config.ParseFileMode(f.Mode)
		if err != nil {
			return req, err
		}
		mode = m
	case cli.settings != nil && cli.settings.CreateMode != nil:
		mode = os.FileMode(*cli.settings.CreateMode)
	}
	return req.WithCreate(mode), nil
}

// ExitError asks main to exit with Code, printing Err if it is set
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// lockFailed turns a lock error into a user-facing one. Errors that did not
// come from the lock itself are returned unchanged.
func lockFailed(path string, err error) error {
	var lockErr *filelock.Error
	if !errors.As(err, &lockErr) {
		return err
	}

	switch {
	case lockErr.Op == "unlock":
		return fmt.Errorf("failed to release lock on %s: %w", path, err)
	case errors.Is(err, filelock.ErrWouldBlock):
		return &ExitError{Code: ConflictExitCode, Err: fmt.Errorf("%s is locked by another process", path)}
	case errors.Is(err, filelock.ErrNotFound):
		return fmt.Errorf("%s does not exist (use --create to create it)", path)
	case errors.Is(err, filelock.ErrPermissionDenied):
		return fmt.Errorf("permission denied locking %s", path)
	default:
		return fmt.Errorf("failed to lock %s: %w", path, err)
	}
}
