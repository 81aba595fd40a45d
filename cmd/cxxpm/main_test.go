package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetModeFlags(t *testing.T) {
	t.Helper()
	orig := flags
	t.Cleanup(func() { flags = orig })
	flags.packageList = false
	flags.searchPath = ""
	flags.install = ""
}

func TestSelectModeNone(t *testing.T) {
	resetModeFlags(t)
	_, err := selectMode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must specify mode")
}

func TestSelectModeSingle(t *testing.T) {
	resetModeFlags(t)
	flags.install = "zlib"
	m, err := selectMode()
	require.NoError(t, err)
	assert.Equal(t, modeInstall, m)
}

func TestSelectModeConflict(t *testing.T) {
	resetModeFlags(t)
	flags.packageList = true
	flags.install = "zlib"
	_, err := selectMode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode already specified")
}

func TestSelectModeSearchPath(t *testing.T) {
	resetModeFlags(t)
	flags.searchPath = "zlib"
	m, err := selectMode()
	require.NoError(t, err)
	assert.Equal(t, modeSearchPath, m)
}

func TestFormatPackageLine(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "zlib: 1.3.0* 1.2.13",
		formatPackageLine("zlib", []string{"1.3.0", "1.2.13"}, "1.3.0"))
	assert.Equal(t, "zlib: 1.3.0 1.2.13*",
		formatPackageLine("zlib", []string{"1.3.0", "1.2.13"}, "1.2.13"))
	// Unknown or unresolvable default: nothing is marked.
	assert.Equal(t, "zlib: 1.3.0 1.2.13",
		formatPackageLine("zlib", []string{"1.3.0", "1.2.13"}, ""))
	assert.Equal(t, "zlib: 1.3.0 1.2.13",
		formatPackageLine("zlib", []string{"1.3.0", "1.2.13"}, "9.9.9"))
	assert.Equal(t, "empty: ", formatPackageLine("empty", nil, "1.0"))
}
