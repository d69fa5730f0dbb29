package provision

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Error kinds a provisioning step can fail with.
var (
	// ErrPrivilege indicates insufficient rights for a system install.
	ErrPrivilege = errors.New("insufficient privileges")

	// ErrPackageNotFound indicates a named system package is unavailable.
	ErrPackageNotFound = errors.New("system package not found")

	// ErrDependencyInstall indicates the manifest is missing or an entry
	// could not be resolved.
	ErrDependencyInstall = errors.New("dependency install failed")

	// ErrTargetMissing indicates the executable target path is absent.
	ErrTargetMissing = errors.New("target script not found")
)

// StepError wraps a step failure with the name of the step, so process
// output always identifies what failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

var (
	aptMissingPkgRe = regexp.MustCompile(`Unable to locate package (\S+)`)
	pipMissingRe    = regexp.MustCompile(`No matching distribution found for (\S+)`)
)

// classifyApt maps apt-get output to an error kind.
func classifyApt(out []byte, err error) error {
	s := string(out)
	if strings.Contains(s, "Permission denied") || strings.Contains(s, "are you root?") {
		return fmt.Errorf("%w: %v", ErrPrivilege, err)
	}
	if m := aptMissingPkgRe.FindStringSubmatch(s); m != nil {
		return fmt.Errorf("%w: %s", ErrPackageNotFound, m[1])
	}
	return fmt.Errorf("apt-get: %w: %s", err, firstLine(s))
}

// classifyPip maps pip output to an error kind. Unresolvable entries are
// named so the user knows which manifest line to fix.
func classifyPip(out []byte, err error) error {
	s := string(out)
	if m := pipMissingRe.FindStringSubmatch(s); m != nil {
		return fmt.Errorf("%w: no distribution found for %q", ErrDependencyInstall, m[1])
	}
	if strings.Contains(s, "Could not open requirements file") {
		return fmt.Errorf("%w: could not open manifest", ErrDependencyInstall)
	}
	return fmt.Errorf("%w: %v: %s", ErrDependencyInstall, err, firstLine(s))
}

// firstLine trims command output to a single line for error messages.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
