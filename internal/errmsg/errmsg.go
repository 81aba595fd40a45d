// Package errmsg decorates fatal errors with actionable suggestions before
// they reach stderr.
package errmsg

import (
	"errors"
	"net"
	"strings"

	"github.com/jusblock/cxxpm/internal/subproc"
)

// Format returns the error message, followed by possible causes and
// suggestions for the failure classes a user can act on. Unrecognized
// errors pass through unchanged.
func Format(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()

	if errors.Is(err, subproc.ErrExecutableNotFound) {
		return formatMissingExecutable(err, msg)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || isNetworkError(msg) {
		return formatNetworkError(msg)
	}

	if strings.Contains(msg, "SHA3 mismatch") {
		return msg + "\n\nPossible causes:\n" +
			"  - The upstream archive was republished with different contents\n" +
			"  - The download was truncated or tampered with\n" +
			"\nSuggestions:\n" +
			"  - Verify the SHA3 value in the package build file\n" +
			"  - Retry the install; the cached file has been deleted\n"
	}

	return msg
}

func formatMissingExecutable(err error, msg string) string {
	var sb strings.Builder
	sb.WriteString(msg)
	sb.WriteString("\n\nSuggestions:\n")

	switch {
	case strings.Contains(msg, "bash"):
		sb.WriteString("  - Install bash; package build files are POSIX shell fragments\n")
	case strings.Contains(msg, "git"):
		sb.WriteString("  - Install git; this package is distributed as a git checkout\n")
	default:
		sb.WriteString("  - Check that the command is installed and on PATH\n")
	}
	return sb.String()
}

func formatNetworkError(msg string) string {
	return msg + "\n\nPossible causes:\n" +
		"  - Network connectivity issue\n" +
		"  - Download server temporarily unavailable\n" +
		"\nSuggestions:\n" +
		"  - Check your internet connection\n" +
		"  - Try again in a few minutes\n"
}

func isNetworkError(msg string) bool {
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"i/o timeout",
		"TLS handshake",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
