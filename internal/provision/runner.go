package provision

import (
	"context"
	"os/exec"
)

// Runner abstracts command execution so tests can substitute a fake
// package manager for the real one.
type Runner interface {
	// Run executes name with args and returns the combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}
