package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusblock/cxxpm/internal/checksum"
)

func newInstalledPrefix(t *testing.T, files map[string]string) (prefix, installDir string) {
	t.Helper()
	prefix = t.TempDir()
	installDir = filepath.Join(prefix, "install")
	for rel, content := range files {
		path := filepath.Join(installDir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	require.NoError(t, Write(prefix, installDir))
	return prefix, installDir
}

func TestWriteAndVerify(t *testing.T) {
	t.Parallel()
	prefix, installDir := newInstalledPrefix(t, map[string]string{
		"bin/hw":            "binary",
		"include/hw.h":      "header",
		"lib/cmake/hw.cmake": "module",
	})

	data, err := os.ReadFile(Path(prefix))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
	for _, line := range lines {
		rel, hash, ok := parseLine(line)
		require.True(t, ok, "line %q", line)
		want, err := checksum.File(filepath.Join(installDir, rel))
		require.NoError(t, err)
		assert.Equal(t, want, hash)
	}

	res := Verify(prefix, installDir, VerifyBudget)
	assert.True(t, res.Installed)
	assert.True(t, res.AllChecked)
	assert.Equal(t, 3, res.Checked)
}

func TestVerifyMissingManifest(t *testing.T) {
	t.Parallel()
	res := Verify(t.TempDir(), t.TempDir(), VerifyBudget)
	assert.False(t, res.Installed)
}

func TestVerifyCorruptedFile(t *testing.T) {
	t.Parallel()
	prefix, installDir := newInstalledPrefix(t, map[string]string{"bin/hw": "binary"})
	require.NoError(t, os.WriteFile(filepath.Join(installDir, "bin", "hw"), []byte("Binary"), 0o644))

	res := Verify(prefix, installDir, VerifyBudget)
	assert.False(t, res.Installed)
}

func TestVerifyMissingFile(t *testing.T) {
	t.Parallel()
	prefix, installDir := newInstalledPrefix(t, map[string]string{"bin/hw": "binary"})
	require.NoError(t, os.Remove(filepath.Join(installDir, "bin", "hw")))

	res := Verify(prefix, installDir, VerifyBudget)
	assert.False(t, res.Installed)
}

func TestVerifyBrokenLine(t *testing.T) {
	t.Parallel()
	prefix := t.TempDir()
	require.NoError(t, os.WriteFile(Path(prefix), []byte("no-separator-here\n"), 0o644))
	res := Verify(prefix, filepath.Join(prefix, "install"), VerifyBudget)
	assert.False(t, res.Installed)
}

func TestVerifyBudgetStopsEarly(t *testing.T) {
	t.Parallel()
	files := make(map[string]string, 64)
	for i := 0; i < 64; i++ {
		files[fmt.Sprintf("f%02d", i)] = strings.Repeat("x", 4096)
	}
	prefix, installDir := newInstalledPrefix(t, files)

	res := Verify(prefix, installDir, 0)
	assert.True(t, res.Installed)
	assert.False(t, res.AllChecked)
	assert.Less(t, res.Checked, 64)
}

func TestParseLine(t *testing.T) {
	t.Parallel()
	hash := strings.Repeat("ab", 32)
	rel, h, ok := parseLine("bin/tool!" + hash)
	require.True(t, ok)
	assert.Equal(t, "bin/tool", rel)
	assert.Equal(t, hash, h)

	_, _, ok = parseLine("!" + hash)
	assert.False(t, ok)
	_, _, ok = parseLine("short!abcd")
	assert.False(t, ok)
	_, _, ok = parseLine("")
	assert.False(t, ok)
}

func TestSearchPath(t *testing.T) {
	t.Parallel()
	prefix, _ := newInstalledPrefix(t, map[string]string{
		"include/zlib.h": "z",
		"lib/libz.a":     "a",
	})

	got, err := SearchPath(prefix, "zlib.h")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(prefix, "install", "include", "zlib.h"), got)
}

func TestSearchPathNoMatch(t *testing.T) {
	t.Parallel()
	prefix, _ := newInstalledPrefix(t, map[string]string{"lib/libz.a": "a"})
	_, err := SearchPath(prefix, "nothing.h")
	assert.Error(t, err)
}

func TestSearchPathAmbiguous(t *testing.T) {
	t.Parallel()
	prefix, _ := newInstalledPrefix(t, map[string]string{
		"a/conf.h": "1",
		"b/conf.h": "2",
	})
	_, err := SearchPath(prefix, "conf.h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one file")
}

func TestSearchPathNotInstalled(t *testing.T) {
	t.Parallel()
	_, err := SearchPath(t.TempDir(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not installed")
}
