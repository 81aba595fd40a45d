package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessorRoundTrip(t *testing.T) {
	t.Parallel()
	for _, m := range processorMappings {
		if !m.bidirectional {
			continue
		}
		assert.Equal(t, m.gnuName, GNUProcessorFromNormalized(GNUProcessorToNormalized(m.gnuName)))
		assert.Equal(t, m.normalizedName, GNUProcessorToNormalized(GNUProcessorFromNormalized(m.normalizedName)))
	}
}

func TestProcessorOneWayMappings(t *testing.T) {
	t.Parallel()
	// i386/i486/i586 all normalize to x86, but x86 denormalizes to i686.
	assert.Equal(t, "x86", GNUProcessorToNormalized("i386"))
	assert.Equal(t, "x86", GNUProcessorToNormalized("i586"))
	assert.Equal(t, "i686", GNUProcessorFromNormalized("x86"))
	// Unknown processors pass through.
	assert.Equal(t, "riscv64", GNUProcessorToNormalized("riscv64"))
}

func TestSystemMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		system  string
		subType string
	}{
		{"apple-darwin23.1.0", "Darwin", ""},
		{"linux-gnu", "Linux", ""},
		{"pc-cygwin", "Windows", "cygwin"},
		{"w64-mingw32", "Windows", "mingw-w64"},
		{"unknown-elf", "unknown-elf", ""},
	}
	for _, tt := range tests {
		system, subType := GNUSystemToNormalized(tt.in)
		assert.Equal(t, tt.system, system, "input %q", tt.in)
		assert.Equal(t, tt.subType, subType, "input %q", tt.in)
	}
}

func TestSystemFromNormalized(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "linux-gnu", GNUSystemFromNormalized("Linux", ""))
	assert.Equal(t, "w64-mingw32", GNUSystemFromNormalized("Windows", "mingw-w64"))
	assert.Equal(t, "pc-cygwin", GNUSystemFromNormalized("Windows", "cygwin"))
	// No bidirectional row for an msvc sub-type: passthrough.
	assert.Equal(t, "Windows", GNUSystemFromNormalized("Windows", "msvc"))
}

func TestClangArchFromNormalized(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "arm64", ClangArchFromNormalized("aarch64"))
	assert.Equal(t, "x86_64", ClangArchFromNormalized("x86_64"))
}

func TestOSXArchitectureFromNormalized(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "i686", OSXArchitectureFromNormalized("x86"))
	assert.Equal(t, "arm64", OSXArchitectureFromNormalized("aarch64"))
	assert.Equal(t, "x86_64", OSXArchitectureFromNormalized("x86_64"))
}

const gccBanner = `Using built-in specs.
COLLECT_GCC=gcc
Target: x86_64-linux-gnu
Configured with: ../src/configure -v
Thread model: posix
gcc version 13.2.0 (Ubuntu 13.2.0-4ubuntu3) `

const clangBanner = `Apple clang version 15.0.0 (clang-1500.1.0.2.5)
Target: arm64-apple-darwin23.1.0
Thread model: posix
InstalledDir: /usr/bin`

func TestParseGNUBannerGCC(t *testing.T) {
	t.Parallel()
	id, target, typ := parseGNUBanner(gccBanner)
	assert.Equal(t, CompilerGCC, typ)
	assert.Equal(t, "x86_64-linux-gnu", target)
	assert.Equal(t, "gcc version 13.2.0 (Ubuntu 13.2.0-4ubuntu3)", id)
}

func TestParseGNUBannerClang(t *testing.T) {
	t.Parallel()
	id, target, typ := parseGNUBanner(clangBanner)
	assert.Equal(t, CompilerClang, typ)
	assert.Equal(t, "arm64-apple-darwin23.1.0", target)
	assert.Equal(t, "Apple clang version 15.0.0 (clang-1500.1.0.2.5)", id)
}

func TestParseGNUBannerNotACompiler(t *testing.T) {
	t.Parallel()
	id, _, typ := parseGNUBanner("bash: not a compiler\n")
	assert.Empty(t, id)
	assert.Equal(t, CompilerUnknown, typ)
}
