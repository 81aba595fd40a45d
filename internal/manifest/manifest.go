// Package manifest reads and writes the per-prefix integrity record: one
// line per installed file of the form <relative-path>!<sha3-256-hex>.
// The manifest makes installs idempotent and backs --search-path.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jusblock/cxxpm/internal/checksum"
)

// FileName is the manifest file name inside an install prefix.
const FileName = "manifest.txt"

// VerifyBudget bounds the time spent re-hashing files on the install
// fast-path. A cold install is verified fully once; warm re-invocations pay
// at most this much before the package is assumed intact. Tests override it.
const VerifyBudget = 125 * time.Millisecond

// Path returns the manifest location for prefix.
func Path(prefix string) string {
	return filepath.Join(prefix, FileName)
}

// Write walks installDir depth-first and writes the manifest for prefix.
func Write(prefix, installDir string) error {
	f, err := os.Create(Path(prefix))
	if err != nil {
		return fmt.Errorf("can't open manifest file %s: %w", Path(prefix), err)
	}

	w := bufio.NewWriter(f)
	walkErr := writeDir(w, installDir, "")
	if err := w.Flush(); walkErr == nil {
		walkErr = err
	}
	if err := f.Close(); walkErr == nil {
		walkErr = err
	}
	return walkErr
}

func writeDir(w *bufio.Writer, dir, relPath string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		entryRel := filepath.Join(relPath, entry.Name())
		entryAbs := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := writeDir(w, entryAbs, entryRel); err != nil {
				return err
			}
			continue
		}

		hash, err := checksum.File(entryAbs)
		if err != nil {
			return fmt.Errorf("can't hash %s: %w", entryAbs, err)
		}
		if _, err := fmt.Fprintf(w, "%s!%s\n", entryRel, hash); err != nil {
			return err
		}
	}
	return nil
}

// VerifyResult reports the outcome of a fast-path verification.
type VerifyResult struct {
	// Installed is true when nothing mismatched before the manifest ended
	// or the budget ran out.
	Installed bool
	// AllChecked is true when every manifest line was verified.
	AllChecked bool
	// Checked counts the verified files.
	Checked int
	// Elapsed is the time spent hashing.
	Elapsed time.Duration
}

// Verify re-hashes the files listed in the prefix manifest against
// installDir. Damage (broken line, unreadable file, hash mismatch) is
// reported as a warning and makes the package "not installed"; it is never
// fatal — the caller reinstalls destructively.
func Verify(prefix, installDir string, budget time.Duration) VerifyResult {
	f, err := os.Open(Path(prefix))
	if err != nil {
		return VerifyResult{}
	}
	defer f.Close()

	begin := time.Now()
	result := VerifyResult{Installed: true, AllChecked: true}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		relPath, expected, ok := parseLine(scanner.Text())
		if !ok {
			fmt.Fprintf(os.Stderr, "WARNING: broken manifest %s\n", Path(prefix))
			result.Installed = false
			break
		}

		hash, err := checksum.File(filepath.Join(installDir, relPath))
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: can't read package file %s\n", filepath.Join(installDir, relPath))
			result.Installed = false
			break
		}
		if hash != expected {
			fmt.Fprintf(os.Stderr, "WARNING: file %s corrupted, need reinstall\n", filepath.Join(installDir, relPath))
			result.Installed = false
			break
		}

		result.Checked++
		result.Elapsed = time.Since(begin)
		if result.Elapsed >= budget {
			result.AllChecked = false
			break
		}
	}
	result.Elapsed = time.Since(begin)

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: broken manifest %s\n", Path(prefix))
		result.Installed = false
	}
	return result
}

func parseLine(line string) (relPath, hash string, ok bool) {
	pos := strings.IndexByte(line, '!')
	if pos <= 0 || len(line)-pos-1 < checksum.HexLen {
		return "", "", false
	}
	return line[:pos], line[pos+1 : pos+1+checksum.HexLen], true
}

// SearchPath streams the manifest of prefix and returns the full path of
// the unique entry whose relative path ends with suffix. Zero matches and
// multiple matches are errors.
func SearchPath(prefix, suffix string) (string, error) {
	f, err := os.Open(Path(prefix))
	if err != nil {
		return "", fmt.Errorf("manifest not found, package not installed")
	}
	defer f.Close()

	suffix = filepath.FromSlash(suffix)
	var result string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		relPath, _, ok := parseLine(scanner.Text())
		if !ok {
			return "", fmt.Errorf("broken manifest %s", Path(prefix))
		}

		if strings.HasSuffix(relPath, suffix) {
			if result != "" {
				return "", fmt.Errorf("more than one file in package")
			}
			result = filepath.Join(prefix, "install", relPath)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("broken manifest %s: %w", Path(prefix), err)
	}

	if result == "" {
		return "", fmt.Errorf("file not found")
	}
	return result, nil
}
