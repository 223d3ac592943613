//go:build unix

package filelock

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	helperEnv         = "FILELOCK_TEST_HELPER"
	helperPathEnv     = "FILELOCK_TEST_PATH"
	helperWritableEnv = "FILELOCK_TEST_WRITABLE"
	helperBlockingEnv = "FILELOCK_TEST_BLOCKING"
	helperHoldEnv     = "FILELOCK_TEST_HOLD"
)

// TestHelperProcess is not a real test. The other tests re-run the test binary
// with it to get a second process that takes locks.
//
// It prints "locked", "wouldblock" or "error: ..." after its attempt. When it
// holds the lock it waits for a line on stdin, unlocks and prints "released".
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}

	h, err := Lock(os.Getenv(helperPathEnv),
		os.Getenv(helperBlockingEnv) == "1",
		os.Getenv(helperWritableEnv) == "1")
	switch {
	case errors.Is(err, ErrWouldBlock):
		fmt.Println("wouldblock")
		os.Exit(0)
	case err != nil:
		fmt.Printf("error: %v\n", err)
		os.Exit(0)
	}
	fmt.Println("locked")

	if os.Getenv(helperHoldEnv) == "1" {
		bufio.NewReader(os.Stdin).ReadString('\n')
	}
	if err := h.Unlock(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(0)
	}
	fmt.Println("released")
	os.Exit(0)
}

type helperOpts struct {
	writable bool
	blocking bool
	hold     bool
}

// otherProcess is a child process taking a lock on a file.
type otherProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
}

func startOther(t *testing.T, path string, opts helperOpts) *otherProcess {
	t.Helper()

	flag := func(v bool) string {
		if v {
			return "1"
		}
		return "0"
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestHelperProcess$")
	cmd.Env = append(os.Environ(),
		helperEnv+"=1",
		helperPathEnv+"="+path,
		helperWritableEnv+"="+flag(opts.writable),
		helperBlockingEnv+"="+flag(opts.blocking),
		helperHoldEnv+"="+flag(opts.hold),
	)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	p := &otherProcess{cmd: cmd, stdin: stdin, lines: make(chan string, 8)}
	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			p.lines <- scanner.Text()
		}
	}()

	t.Cleanup(func() {
		p.stdin.Close()
		if p.cmd.ProcessState == nil {
			p.cmd.Process.Kill()
			p.cmd.Wait()
		}
	})
	return p
}

// expect waits for the next line from the child and checks it.
func (p *otherProcess) expect(t *testing.T, want string, timeout time.Duration) {
	t.Helper()
	select {
	case line, ok := <-p.lines:
		require.True(t, ok, "helper exited before printing %q", want)
		require.Equal(t, want, line)
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for helper to print %q", want)
	}
}

// release tells a holding child to unlock and waits for it to exit.
func (p *otherProcess) release(t *testing.T) {
	t.Helper()
	_, err := io.WriteString(p.stdin, "\n")
	require.NoError(t, err)
	p.expect(t, "released", 5*time.Second)
	require.NoError(t, p.cmd.Wait())
}

// holdInOther starts a child that holds a lock until released.
func holdInOther(t *testing.T, path string, writable bool) *otherProcess {
	t.Helper()
	p := startOther(t, path, helperOpts{writable: writable, hold: true})
	p.expect(t, "locked", 5*time.Second)
	return p
}

// tryInOther makes a single non-blocking attempt in a child and returns what
// it printed first ("locked", "wouldblock" or an error line).
func tryInOther(t *testing.T, path string, writable bool) string {
	t.Helper()
	p := startOther(t, path, helperOpts{writable: writable})
	select {
	case line := <-p.lines:
		p.cmd.Wait()
		return line
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for helper")
		return ""
	}
}

// lockTarget creates an empty file to lock.
func lockTarget(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "target.lock")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	return path
}
