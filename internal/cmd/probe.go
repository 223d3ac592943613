package cmd

import (
	"encoding/json"
	"fmt"

	"filelocker/filelock"
)

// ProbeCmd reports whether a lock is currently obtainable
type ProbeCmd struct {
	Exclusive bool   `help:"Probe for an exclusive lock instead of a shared one" short:"x"`
	Format    string `help:"Output format: text or json" enum:"text,json" default:"text"`
	Path      string `arg:"" help:"File to probe"`
}

type probeResult struct {
	Path      string `json:"path"`
	Held      bool   `json:"held"`
	Exclusive bool   `json:"exclusive,omitempty"`
	PID       int    `json:"pid,omitempty"`
}

// Run executes the probe command. Exits with ConflictExitCode when the lock is
// held, and 1 when the query itself fails.
func (p *ProbeCmd) Run(cli *CLI) error {
	c, err := filelock.Probe(p.Path, p.Exclusive)
	if err != nil {
		return fmt.Errorf("failed to probe %s: %w", p.Path, err)
	}

	res := probeResult{Path: p.Path, Held: c.Held, Exclusive: c.Exclusive, PID: c.PID}
	if p.Format == "json" {
		data, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(cli.out(), string(data))
	} else {
		fmt.Fprintln(cli.out(), describeConflict(res))
	}

	if c.Held {
		return &ExitError{Code: ConflictExitCode}
	}
	return nil
}

func describeConflict(r probeResult) string {
	if !r.Held {
		return fmt.Sprintf("%s: free", r.Path)
	}
	mode := "shared"
	if r.Exclusive {
		mode = "exclusive"
	}
	if r.PID > 0 {
		return fmt.Sprintf("%s: held (%s) by pid %d", r.Path, mode, r.PID)
	}
	return fmt.Sprintf("%s: held (%s)", r.Path, mode)
}
