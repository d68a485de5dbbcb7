package main

import (
	"fmt"
	"os"
	"strings"
)

// HeaderLog appends every sent response header to a file, one line each.
// The file is opened and closed around each line so concurrent workers never
// share a descriptor; a line goes out in a single O_APPEND write.
type HeaderLog struct {
	path string
}

func NewHeaderLog(path string) *HeaderLog {
	return &HeaderLog{path: path}
}

func (l *HeaderLog) Path() string {
	return l.path
}

// Append writes header as [field][field]...\n. A nil log or empty path is a no-op.
func (l *HeaderLog) Append(header string) error {
	if l == nil || l.path == "" {
		return nil
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open header log: %w", err)
	}
	_, werr := f.WriteString(FormatLogLine(header))
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("failed to append header log: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("failed to close header log: %w", cerr)
	}
	return nil
}

func FormatLogLine(header string) string {
	var b strings.Builder
	for _, field := range strings.Split(header, "\r\n") {
		if field == "" {
			continue
		}
		b.WriteByte('[')
		b.WriteString(field)
		b.WriteByte(']')
	}
	b.WriteByte('\n')
	return b.String()
}
