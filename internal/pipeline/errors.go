package pipeline

import (
	"fmt"
	"strings"
)

// SpawnError means an external process could not be started at all.
type SpawnError struct {
	Stage   string
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s: could not start %s: %v", e.Stage, e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExecError means an external process ran but exited non-zero.
type ExecError struct {
	Stage    string
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s: %s exited with code %d", e.Stage, e.Command, e.ExitCode)
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }

// MissingArtifactError means a stage finished but its expected output file
// is absent (or ambiguous).
type MissingArtifactError struct {
	Stage   string
	Pattern string
	Matches int
}

func (e *MissingArtifactError) Error() string {
	if e.Matches > 1 {
		return fmt.Sprintf("%s: %d files match %s, expected exactly one", e.Stage, e.Matches, e.Pattern)
	}
	return fmt.Sprintf("%s: no file matches %s", e.Stage, e.Pattern)
}

// describeFailure maps low-level failure text to something an end user can
// act on. Unrecognized errors pass through as-is; they are already
// job-scoped and human-readable.
func describeFailure(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "permission denied"):
		return "Storage permission denied. Please contact system administrator."
	case strings.Contains(msg, "no space left"):
		return "Disk space exhausted. Cannot complete download."
	case strings.Contains(msg, "executable file not found"):
		return "A required media tool is not installed on the server."
	default:
		return msg
	}
}
