package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListExecutable(t *testing.T) {
	t.Parallel()
	artifacts, err := ParseList([]byte(`[{"type":"executable","name":"hw","path":"bin/hw"}]`))
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, TypeExecutable, artifacts[0].Type)
	assert.Equal(t, "hw", artifacts[0].Name)
	assert.Equal(t, []string{"bin/hw"}, artifacts[0].RelativePaths)
}

func TestParseListSharedLibrary(t *testing.T) {
	t.Parallel()
	data := `[{
		"type": "shared_lib",
		"name": "foo",
		"path": "lib/libfoo.so",
		"dll": "bin/foo.dll",
		"implib": "lib/foo.lib",
		"includes": ["foo_inc"],
		"definitions": ["FOO_SHARED"]
	}]`
	artifacts, err := ParseList([]byte(data))
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	a := artifacts[0]
	assert.Equal(t, TypeSharedLibrary, a.Type)
	assert.Equal(t, []string{"bin/foo.dll"}, a.DllPaths)
	assert.Equal(t, []string{"lib/foo.lib"}, a.ImplibPaths)
	assert.Equal(t, []string{"foo_inc"}, a.IncludeLinks)
	assert.Equal(t, [][]string{{"FOO_SHARED"}}, a.Definitions)
}

func TestParseListSharedLibraryRequiresDllAndImplib(t *testing.T) {
	t.Parallel()
	_, err := ParseList([]byte(`[{"type":"shared_lib","name":"foo","path":"p","implib":"i"}]`))
	assert.Error(t, err)
	_, err = ParseList([]byte(`[{"type":"shared_lib","name":"foo","path":"p","dll":"d"}]`))
	assert.Error(t, err)
}

func TestParseListUnknownType(t *testing.T) {
	t.Parallel()
	_, err := ParseList([]byte(`[{"type":"framework","name":"x","path":"p"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid artifact type")
}

func TestParseListMissingPath(t *testing.T) {
	t.Parallel()
	_, err := ParseList([]byte(`[{"type":"include","name":"x"}]`))
	assert.Error(t, err)
}

func TestParseListLibSet(t *testing.T) {
	t.Parallel()
	artifacts, err := ParseList([]byte(`[{"type":"libset","name":"all","libs":["a","b"]}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, artifacts[0].Libs)

	_, err = ParseList([]byte(`[{"type":"libset","name":"all"}]`))
	assert.Error(t, err)
}

func TestParseListInvalidJSON(t *testing.T) {
	t.Parallel()
	_, err := ParseList([]byte(`{"not":"an array"}`))
	assert.Error(t, err)
	_, err = ParseList([]byte(`[{]`))
	assert.Error(t, err)
}

func mustParseOne(t *testing.T, data string) Artifact {
	t.Helper()
	artifacts, err := ParseList([]byte("[" + data + "]"))
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	return artifacts[0]
}

func TestMergePreservesOrderAndLength(t *testing.T) {
	t.Parallel()
	debug := mustParseOne(t, `{"type":"static_lib","name":"z","path":"lib/zd.a","definitions":["ZDBG"]}`)
	release := mustParseOne(t, `{"type":"static_lib","name":"z","path":"lib/z.a"}`)

	require.NoError(t, debug.Merge(release))
	assert.Equal(t, []string{"lib/zd.a", "lib/z.a"}, debug.RelativePaths)
	assert.Equal(t, [][]string{{"ZDBG"}, nil}, debug.Definitions)
}

func TestMergeSharedLibrary(t *testing.T) {
	t.Parallel()
	a := mustParseOne(t, `{"type":"shared_lib","name":"f","path":"l/fd.so","dll":"b/fd.dll","implib":"l/fd.lib"}`)
	b := mustParseOne(t, `{"type":"shared_lib","name":"f","path":"l/f.so","dll":"b/f.dll","implib":"l/f.lib"}`)

	require.NoError(t, a.Merge(b))
	assert.Equal(t, []string{"b/fd.dll", "b/f.dll"}, a.DllPaths)
	assert.Equal(t, []string{"l/fd.lib", "l/f.lib"}, a.ImplibPaths)
}

func TestMergeTypeOrNameMismatch(t *testing.T) {
	t.Parallel()
	a := mustParseOne(t, `{"type":"executable","name":"x","path":"bin/x"}`)
	b := mustParseOne(t, `{"type":"executable","name":"y","path":"bin/y"}`)
	assert.Error(t, a.Merge(b))

	c := mustParseOne(t, `{"type":"include","name":"x","path":"inc"}`)
	assert.Error(t, a.Merge(c))
}

func TestMergeLibSet(t *testing.T) {
	t.Parallel()
	a := mustParseOne(t, `{"type":"libset","name":"all","libs":["a","b"]}`)
	sameOtherOrder := mustParseOne(t, `{"type":"libset","name":"all","libs":["b","a"]}`)
	require.NoError(t, a.Merge(sameOtherOrder))

	different := mustParseOne(t, `{"type":"libset","name":"all","libs":["a","c"]}`)
	assert.Error(t, a.Merge(different))
}

func TestMergeRejectsMultiConfigOperand(t *testing.T) {
	t.Parallel()
	a := mustParseOne(t, `{"type":"executable","name":"x","path":"bin/x1"}`)
	b := mustParseOne(t, `{"type":"executable","name":"x","path":"bin/x2"}`)
	require.NoError(t, a.Merge(b))
	// a now carries two configurations and is not a valid merge operand.
	c := mustParseOne(t, `{"type":"executable","name":"x","path":"bin/x3"}`)
	assert.Error(t, c.Merge(a))
}

func TestTypeStringRoundTrip(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"include", "static_lib", "shared_lib", "executable", "libset", "cmake_module"} {
		assert.Equal(t, s, TypeFromString(s).String())
	}
	assert.Equal(t, TypeUnknown, TypeFromString("other"))
}
