// Package progress renders download progress on the terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc is the function used to check if a file descriptor is a
// terminal. It can be overridden for testing.
var IsTerminalFunc = term.IsTerminal

// Enabled reports whether progress output should be rendered at all.
func Enabled() bool {
	return IsTerminalFunc(int(os.Stdout.Fd()))
}

// Writer wraps an io.Writer with progress tracking and display.
type Writer struct {
	writer    io.Writer
	output    io.Writer
	total     int64
	written   int64
	startTime time.Time
	lastPrint time.Time
	mu        sync.Mutex
}

// NewWriter creates a progress writer mirroring everything written to w and
// rendering a progress line on output. If total is <= 0 no percentage is
// shown.
func NewWriter(w io.Writer, total int64, output io.Writer) *Writer {
	return &Writer{
		writer:    w,
		output:    output,
		total:     total,
		startTime: time.Now(),
	}
}

// Write implements io.Writer and updates the progress display.
func (pw *Writer) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	if n > 0 {
		pw.mu.Lock()
		pw.written += int64(n)
		pw.printProgress()
		pw.mu.Unlock()
	}
	return n, err
}

// Finish clears the progress line.
func (pw *Writer) Finish() {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	fmt.Fprintf(pw.output, "\r%s\r", strings.Repeat(" ", 80))
}

// printProgress renders the current state, rate limited to avoid flicker.
func (pw *Writer) printProgress() {
	now := time.Now()
	if now.Sub(pw.lastPrint) < 100*time.Millisecond {
		return
	}
	pw.lastPrint = now

	elapsed := now.Sub(pw.startTime).Seconds()
	if elapsed < 0.1 {
		return
	}
	speed := float64(pw.written) / elapsed

	var line string
	if pw.total > 0 {
		percent := float64(pw.written) / float64(pw.total) * 100
		if percent > 100 {
			percent = 100
		}
		line = fmt.Sprintf("\r%6.1f%%  %s / %s  %s/s",
			percent, formatBytes(pw.written), formatBytes(pw.total), formatBytes(int64(speed)))
	} else {
		line = fmt.Sprintf("\r%s  %s/s", formatBytes(pw.written), formatBytes(int64(speed)))
	}
	fmt.Fprint(pw.output, line)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
