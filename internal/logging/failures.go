package logging

import (
	"fmt"
	"os"
)

// FailureLog records per-row failures in the dataset's fixed one-line
// format. Lines go to the log file and stderr, and are kept in memory so
// the run report can include them.
type FailureLog struct {
	file  *os.File
	lines []string
}

// OpenFailureLog opens (or creates) the failure log at path in append mode.
// An empty path keeps the log in memory and on stderr only.
func OpenFailureLog(path string) (*FailureLog, error) {
	fl := &FailureLog{}

	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("could not open log file %s: %w", path, err)
		}
		fl.file = file
	}

	return fl, nil
}

// Record appends one failure line. The caller formats the line; this type
// only guarantees where it ends up.
func (fl *FailureLog) Record(line string) {
	fl.lines = append(fl.lines, line)
	fmt.Fprintln(os.Stderr, line)
	if fl.file != nil {
		fmt.Fprintln(fl.file, line)
	}
}

// Lines returns every line recorded during this run, in order.
func (fl *FailureLog) Lines() []string {
	out := make([]string, len(fl.lines))
	copy(out, fl.lines)
	return out
}

// Close flushes and closes the underlying file, if any.
func (fl *FailureLog) Close() error {
	if fl.file == nil {
		return nil
	}
	err := fl.file.Close()
	fl.file = nil
	return err
}
