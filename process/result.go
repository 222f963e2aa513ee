package process

import (
	"bytes"
	"time"
	"unicode/utf8"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}

// maxSummary bounds Summary output so probe reasons stay one log line.
const maxSummary = 200

// Summary returns the last non-empty line of stderr, falling back to stdout.
// It is used as the human-readable reason of a failed check.
func (r *Result) Summary() string {
	if r == nil {
		return ""
	}
	line := lastLine(r.Stderr)
	if line == "" {
		line = lastLine(r.Stdout)
	}
	if len(line) > maxSummary {
		cut := maxSummary
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		line = line[:cut] + "..."
	}
	return line
}

func lastLine(b []byte) string {
	lines := bytes.Split(bytes.TrimSpace(b), []byte("\n"))
	return string(bytes.TrimSpace(lines[len(lines)-1]))
}
