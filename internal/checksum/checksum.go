// Package checksum computes the SHA-3-256 digests used for archive
// verification, manifest records and install-prefix derivation.
package checksum

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/sha3"
)

// HexLen is the length of a hex-encoded SHA-3-256 digest.
const HexLen = 64

// Sum returns the lowercase hex SHA-3-256 digest of data.
func Sum(data []byte) string {
	h := sha3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// File returns the lowercase hex SHA-3-256 digest of the file contents,
// streaming the file through the hash.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := sha3.New256()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
