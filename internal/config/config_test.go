package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHomeFromEnv(t *testing.T) {
	t.Setenv(EnvHome, "/custom/home")
	home, err := DefaultHome()
	require.NoError(t, err)
	assert.Equal(t, "/custom/home", home)
}

func TestDefaultHomeFromUserHome(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX HOME semantics")
	}
	t.Setenv(EnvHome, "")
	os.Unsetenv(EnvHome)
	t.Setenv("HOME", "/home/tester")
	home, err := DefaultHome()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".cxxpm"), home)
}

func TestNewLayout(t *testing.T) {
	t.Parallel()
	s := New("/h", "")
	assert.Equal(t, filepath.Join("/h", "distr"), s.DistrDir)
	assert.Equal(t, filepath.Join("/h", "self"), s.PackageRoot)
	assert.Equal(t, filepath.Join("/h", "self", "packages"), s.PackagesDir())
	assert.Equal(t, filepath.Join("/h", ".s"), s.SourceDir())
	assert.Equal(t, filepath.Join("/h", ".b"), s.BuildDir())
	assert.Equal(t, "--package-root="+filepath.Join("/h", "self"), s.GlobalArgs)
}

func TestNewExplicitPackageRoot(t *testing.T) {
	t.Parallel()
	s := New("/h", "/opt/pkgs")
	assert.Equal(t, "/opt/pkgs", s.PackageRoot)
	assert.Equal(t, filepath.Join("/opt/pkgs", "packages"), s.PackagesDir())
}

func TestEnsureDirs(t *testing.T) {
	t.Parallel()
	home := filepath.Join(t.TempDir(), "cxxpm-home")
	s := New(home, "")
	require.NoError(t, s.EnsureDirs())
	assert.DirExists(t, s.DistrDir)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `
build_type = "Debug;Release"
build_type_mapping = "Debug:Debug;*:Release"
vs_install_dir = 'C:\VS'
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Debug;Release", f.BuildType)
	assert.Equal(t, "Debug:Debug;*:Release", f.BuildTypeMapping)
	assert.Equal(t, `C:\VS`, f.VSInstallDir)
	assert.Empty(t, f.PackageRoot)
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()
	f, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, File{}, f)
}

func TestLoadFileMalformed(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("build_type = [unclosed"), 0o644))
	_, err := LoadFile(path)
	assert.Error(t, err)
}
