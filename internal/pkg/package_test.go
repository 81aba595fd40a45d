package pkg

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusblock/cxxpm/internal/config"
	"github.com/jusblock/cxxpm/internal/pathcache"
	"github.com/jusblock/cxxpm/internal/subproc"
	"github.com/jusblock/cxxpm/internal/sysinfo"
	"github.com/jusblock/cxxpm/internal/toolchain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newTestRepo creates a package root with one package "zlib" carrying
// meta.build and two version build files.
func newTestRepo(t *testing.T) *config.Settings {
	t.Helper()
	home := t.TempDir()
	settings := config.New(home, "")
	zlibDir := filepath.Join(settings.PackagesDir(), "zlib")
	writeFile(t, filepath.Join(zlibDir, "meta.build"), "DEFAULT_VERSION=1.3.0\n")
	writeFile(t, filepath.Join(zlibDir, "1.3.0.build"),
		"PACKAGE_TYPE=source\nLANGS=C\nTYPE=archive\n")
	writeFile(t, filepath.Join(zlibDir, "1.2.13.build"),
		"PACKAGE_TYPE=source\nLANGS=C\nTYPE=archive\n")
	return settings
}

func skipWithoutBash(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("relies on bash on PATH")
	}
}

func TestLoadRepository(t *testing.T) {
	settings := newTestRepo(t)
	repo, err := LoadRepository(settings, nil)
	require.NoError(t, err)

	p, ok := repo.Get("zlib")
	require.True(t, ok)
	assert.Equal(t, "zlib", p.Name)
	assert.Equal(t, []string{"zlib"}, repo.Names())

	_, ok = repo.Get("missing")
	assert.False(t, ok)
}

func TestLoadRepositoryExtraDir(t *testing.T) {
	settings := newTestRepo(t)
	extra := t.TempDir()
	writeFile(t, filepath.Join(extra, "zlib", "1.4.0.build"), "PACKAGE_TYPE=source\nLANGS=C\n")
	writeFile(t, filepath.Join(extra, "brotli", "meta.build"), "DEFAULT_VERSION=1.1.0\n")
	settings.ExtraPackageDirs = []string{extra}

	repo, err := LoadRepository(settings, nil)
	require.NoError(t, err)

	zlib, ok := repo.Get("zlib")
	require.True(t, ok)
	assert.Equal(t, []string{filepath.Join(extra, "zlib")}, zlib.ExtraPaths)

	_, ok = repo.Get("brotli")
	assert.True(t, ok)
}

func TestLoadRepositoryDuplicateExtraDir(t *testing.T) {
	settings := newTestRepo(t)
	extra := t.TempDir()
	writeFile(t, filepath.Join(extra, "x", "meta.build"), "DEFAULT_VERSION=1\n")
	settings.ExtraPackageDirs = []string{extra, extra}

	_, err := LoadRepository(settings, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "specified twice")
}

func TestInspectDefaultVersion(t *testing.T) {
	skipWithoutBash(t)
	settings := newTestRepo(t)
	repo, err := LoadRepository(settings, nil)
	require.NoError(t, err)
	p, _ := repo.Get("zlib")

	runner := subproc.NewRunner(pathcache.New(), nil)
	require.NoError(t, Inspect(runner, p, "", nil))
	assert.Equal(t, "1.3.0", p.Version)
	assert.False(t, p.IsBinary)
	assert.Equal(t, []toolchain.Language{toolchain.LangC}, p.Languages)
	assert.Equal(t, filepath.Join(p.Path, "1.3.0.build"), p.BuildFile)
}

func TestInspectRequestedVersion(t *testing.T) {
	skipWithoutBash(t)
	settings := newTestRepo(t)
	repo, err := LoadRepository(settings, nil)
	require.NoError(t, err)
	p, _ := repo.Get("zlib")

	runner := subproc.NewRunner(pathcache.New(), nil)
	require.NoError(t, Inspect(runner, p, "1.2.13", nil))
	assert.Equal(t, "1.2.13", p.Version)
}

func TestInspectMissingVersion(t *testing.T) {
	skipWithoutBash(t)
	settings := newTestRepo(t)
	repo, err := LoadRepository(settings, nil)
	require.NoError(t, err)
	p, _ := repo.Get("zlib")

	runner := subproc.NewRunner(pathcache.New(), nil)
	err = Inspect(runner, p, "9.9.9", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build file")
}

func TestInspectBadPackageType(t *testing.T) {
	skipWithoutBash(t)
	settings := newTestRepo(t)
	dir := filepath.Join(settings.PackagesDir(), "bad")
	writeFile(t, filepath.Join(dir, "meta.build"), "DEFAULT_VERSION=1.0\n")
	writeFile(t, filepath.Join(dir, "1.0.build"), "PACKAGE_TYPE=tarball\n")

	repo, err := LoadRepository(settings, nil)
	require.NoError(t, err)
	p, _ := repo.Get("bad")
	runner := subproc.NewRunner(pathcache.New(), nil)
	err = Inspect(runner, p, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'source' or 'binary'")
}

func TestInspectBinary(t *testing.T) {
	skipWithoutBash(t)
	settings := newTestRepo(t)
	dir := filepath.Join(settings.PackagesDir(), "prebuilt")
	writeFile(t, filepath.Join(dir, "meta.build"), "DEFAULT_VERSION=2.0\n")
	writeFile(t, filepath.Join(dir, "2.0.build"), "PACKAGE_TYPE=binary\n")

	repo, err := LoadRepository(settings, nil)
	require.NoError(t, err)
	p, _ := repo.Get("prebuilt")
	runner := subproc.NewRunner(pathcache.New(), nil)
	require.NoError(t, Inspect(runner, p, "", nil))
	assert.True(t, p.IsBinary)
	assert.Empty(t, p.Languages)
}

func TestPrefixBinary(t *testing.T) {
	t.Parallel()
	p := &Package{Name: "prebuilt", Version: "2.0", IsBinary: true}
	got := Prefix("/h", p, &toolchain.Compilers{}, &sysinfo.SystemInfo{}, "Release", nil)
	assert.Equal(t, filepath.Join("/h", "binary-packages", "prebuilt-2.0"), got)
}

func TestPrefixSource(t *testing.T) {
	t.Parallel()
	var compilers toolchain.Compilers
	compilers.Get(toolchain.LangC).ID = "gcc version 13.2.0-x86_64-linux-gnu"
	info := &sysinfo.SystemInfo{TargetSystemName: "Linux", TargetSystemProcessor: "x86_64"}
	p := &Package{Name: "zlib", Version: "1.3.0", Languages: []toolchain.Language{toolchain.LangC}}

	got := Prefix("/h", p, &compilers, info, "Release", nil)
	rel, err := filepath.Rel("/h", got)
	require.NoError(t, err)

	parts := strings.Split(rel, string(filepath.Separator))
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 32)
	assert.Equal(t, "zlib", parts[1])
	assert.True(t, strings.HasPrefix(parts[2], "1.3.0-Release-"))
	assert.Len(t, parts[2], len("1.3.0-Release-")+32)
}

func TestPrefixBuildTypeKeepsToolchainBucket(t *testing.T) {
	t.Parallel()
	var compilers toolchain.Compilers
	compilers.Get(toolchain.LangC).ID = "gcc version 13.2.0-x86_64-linux-gnu"
	info := &sysinfo.SystemInfo{TargetSystemName: "Linux", TargetSystemProcessor: "x86_64"}
	p := &Package{Name: "zlib", Version: "1.3.0", Languages: []toolchain.Language{toolchain.LangC}}

	release := Prefix("/h", p, &compilers, info, "Release", nil)
	debug := Prefix("/h", p, &compilers, info, "Debug", nil)
	assert.NotEqual(t, release, debug)
	// Same toolchain bucket: the directory two levels up is shared.
	assert.Equal(t, filepath.Dir(filepath.Dir(release)), filepath.Dir(filepath.Dir(debug)))
}

func TestPrefixDedupsConsecutiveCompilerIDs(t *testing.T) {
	t.Parallel()
	var compilers toolchain.Compilers
	compilers.Get(toolchain.LangC).ID = "clang-x"
	compilers.Get(toolchain.LangCXX).ID = "clang-x"
	info := &sysinfo.SystemInfo{TargetSystemName: "Linux", TargetSystemProcessor: "x86_64"}

	both := &Package{Name: "p", Version: "1", Languages: []toolchain.Language{toolchain.LangC, toolchain.LangCXX}}
	onlyC := &Package{Name: "p", Version: "1", Languages: []toolchain.Language{toolchain.LangC}}

	assert.Equal(t,
		Prefix("/h", onlyC, &compilers, info, "Release", nil),
		Prefix("/h", both, &compilers, info, "Release", nil))
}

func TestDefaultVersion(t *testing.T) {
	skipWithoutBash(t)
	settings := newTestRepo(t)
	repo, err := LoadRepository(settings, nil)
	require.NoError(t, err)
	p, _ := repo.Get("zlib")

	runner := subproc.NewRunner(pathcache.New(), nil)
	version, err := DefaultVersion(runner, p)
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", version)
}

func TestDefaultVersionMissingMeta(t *testing.T) {
	skipWithoutBash(t)
	settings := newTestRepo(t)
	dir := filepath.Join(settings.PackagesDir(), "nometa")
	writeFile(t, filepath.Join(dir, "1.0.build"), "PACKAGE_TYPE=source\nLANGS=C\n")

	repo, err := LoadRepository(settings, nil)
	require.NoError(t, err)
	p, _ := repo.Get("nometa")

	runner := subproc.NewRunner(pathcache.New(), nil)
	_, err = DefaultVersion(runner, p)
	assert.Error(t, err)
}

func TestAvailableVersions(t *testing.T) {
	settings := newTestRepo(t)
	repo, err := LoadRepository(settings, nil)
	require.NoError(t, err)
	p, _ := repo.Get("zlib")
	writeFile(t, filepath.Join(p.Path, "snapshot.build"), "PACKAGE_TYPE=source\n")

	versions := p.AvailableVersions()
	assert.Equal(t, []string{"1.3.0", "1.2.13", "snapshot"}, versions)
}
