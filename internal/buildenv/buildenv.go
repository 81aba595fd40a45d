// Package buildenv composes the CXXPM_* environment handed to the shell
// that drives a package build, including the pre-baked CMake and autotools
// argument helpers.
package buildenv

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/jusblock/cxxpm/internal/config"
	"github.com/jusblock/cxxpm/internal/log"
	"github.com/jusblock/cxxpm/internal/pathconv"
	"github.com/jusblock/cxxpm/internal/pkg"
	"github.com/jusblock/cxxpm/internal/sysinfo"
	"github.com/jusblock/cxxpm/internal/toolchain"
)

func addEnv(env []string, name, value string) []string {
	return append(env, name+"="+value)
}

func posix(path string) string {
	return pathconv.Convert(path, pathconv.StylePosix)
}

// Compose returns the ordered NAME=VALUE list supplied to build scripts.
// installDir overrides the install destination for dependency installs that
// fold into an outer package's prefix; empty selects <prefix>/install.
func Compose(p *pkg.Package, settings *config.Settings, info *sysinfo.SystemInfo,
	compilers *toolchain.Compilers, tools *toolchain.Tools,
	buildType, installDir string, logger log.Logger) []string {

	if installDir == "" {
		installDir = filepath.Join(p.Prefix, "install")
	}

	var env []string

	// Global settings.
	env = addEnv(env, "CXXPM_ARGS", settings.GlobalArgs)
	env = addEnv(env, "CXXPM_NPROC", strconv.Itoa(runtime.NumCPU()+1))

	// Toolchain settings.
	env = addEnv(env, "CXXPM_EXECUTABLE", posix(info.Self))
	env = addEnv(env, "CXXPM_SYSTEM_NAME", info.TargetSystemName)
	env = addEnv(env, "CXXPM_SYSTEM_PROCESSOR", info.TargetSystemProcessor)
	env = addEnv(env, "CXXPM_BUILD_TYPE", buildType)
	env = addEnv(env, "CXXPM_SYSTEM_SUBTYPE", info.TargetSystemSubType)
	env = addEnv(env, "CXXPM_MSVC_TOOLSET", info.VSToolsetVersion)

	// Compilers.
	for _, lang := range p.Languages {
		compiler := compilers.Get(lang)
		env = addEnv(env, "CXXPM_COMPILER_"+lang.EnvName()+"_COMMAND", posix(compiler.Command))
		env = addEnv(env, "CXXPM_COMPILER_"+lang.EnvName()+"_TYPE", compiler.Type.String())
	}

	// Tools.
	for _, toolType := range []toolchain.ToolType{toolchain.ToolLinker, toolchain.ToolResourceCompiler} {
		env = addEnv(env, "CXXPM_TOOL_"+toolType.EnvName()+"_COMMAND", posix(tools.Get(toolType).Command))
	}

	// Build systems.
	env = addEnv(env, "CXXPM_CMAKE_CONFIGURE_ARGS", CMakeConfigureArgs(p, compilers, info, buildType))
	env = addEnv(env, "CXXPM_CMAKE_BUILD_ARGS", CMakeBuildArgs(info, buildType))
	env = append(env, autotoolsEnv(info)...)
	if runtime.GOOS == "windows" {
		env = addEnv(env, "CXXPM_MSVC_ARCH", toolchain.VSArch(info.TargetSystemProcessor))
	}

	// Directories.
	env = addEnv(env, "CXXPM_SOURCE_DIR", posix(settings.SourceDir()))
	env = addEnv(env, "CXXPM_BUILD_DIR", posix(settings.BuildDir()))
	env = addEnv(env, "CXXPM_INSTALL_DIR", posix(installDir))
	env = addEnv(env, "CXXPM_PACKAGE_DIR", posix(filepath.Dir(p.BuildFile)))

	// Package settings.
	env = addEnv(env, "CXXPM_PACKAGE_VERSION", p.Version)

	// Platform library naming.
	naming := libraryNaming(info)
	env = addEnv(env, "CXXPM_LIBRARY_PREFIX", naming.libraryPrefix)
	env = addEnv(env, "CXXPM_STATIC_LIBRARY_SUFFIX", naming.staticSuffix)
	env = addEnv(env, "CXXPM_SHARED_LIBRARY_SUFFIX", naming.sharedSuffix)
	env = addEnv(env, "CXXPM_EXECUTABLE_SUFFIX", naming.executableSuffix)

	if logger != nil {
		for _, e := range env {
			logger.Debug("build env", "entry", e)
		}
	}

	return env
}

type naming struct {
	libraryPrefix    string
	staticSuffix     string
	sharedSuffix     string
	executableSuffix string
}

// libraryNaming selects the platform library prefix and suffixes from the
// target system and sub-type.
func libraryNaming(info *sysinfo.SystemInfo) naming {
	switch {
	case info.TargetSystemName == "Windows":
		n := naming{executableSuffix: ".exe"}
		switch {
		case info.TargetSystemSubType == "msvc":
			n.staticSuffix = ".lib"
			n.sharedSuffix = ".dll"
		case strings.HasPrefix(info.TargetSystemSubType, "mingw"):
			n.libraryPrefix = "lib"
			n.staticSuffix = ".a"
			n.sharedSuffix = ".dll"
		case info.TargetSystemSubType == "cygwin":
			n.libraryPrefix = "lib"
			n.staticSuffix = ".a"
			n.sharedSuffix = ".so"
		}
		return n
	case info.TargetSystemName == "Darwin":
		return naming{libraryPrefix: "lib", staticSuffix: ".a", sharedSuffix: ".dylib"}
	default:
		return naming{libraryPrefix: "lib", staticSuffix: ".a", sharedSuffix: ".so"}
	}
}

// autotoolsEnv supplies the GNU-flavour triple helpers used by configure
// scripts.
func autotoolsEnv(info *sysinfo.SystemInfo) []string {
	cpu := toolchain.GNUProcessorFromNormalized(info.TargetSystemProcessor)
	system := toolchain.GNUSystemFromNormalized(info.TargetSystemName, info.TargetSystemSubType)
	clangArch := toolchain.ClangArchFromNormalized(info.TargetSystemProcessor)

	var env []string
	env = addEnv(env, "CXXPM_AUTOTOOLS_PROCESSOR", cpu)
	env = addEnv(env, "CXXPM_AUTOTOOLS_SYSTEM_NAME", system)
	env = addEnv(env, "CXXPM_AUTOTOOLS_HOST", cpu+"-"+system)
	env = addEnv(env, "CXXPM_CLANG_ARCH", clangArch)
	return env
}
