package buildenv

import (
	"os"
	"strings"

	"github.com/jusblock/cxxpm/internal/pathconv"
	"github.com/jusblock/cxxpm/internal/pkg"
	"github.com/jusblock/cxxpm/internal/sysinfo"
	"github.com/jusblock/cxxpm/internal/toolchain"
)

// CMakeConfigureArgs builds the configure argument string exported as
// CXXPM_CMAKE_CONFIGURE_ARGS, wrapped in parentheses so that build scripts
// can splat it into a shell array.
func CMakeConfigureArgs(p *pkg.Package, compilers *toolchain.Compilers, info *sysinfo.SystemInfo, buildType string) string {
	if info.TargetSystemSubType == "msvc" {
		return cmakeMSVCConfigureArgs(info, buildType)
	}

	args := []string{
		"-DCMAKE_BUILD_TYPE=" + buildType,
		"-DCMAKE_SYSTEM_NAME=" + info.TargetSystemName,
		"-DCMAKE_SYSTEM_PROCESSOR=" + info.TargetSystemProcessor,
	}

	if info.TargetSystemName == "Darwin" {
		args = append(args, "-DCMAKE_OSX_ARCHITECTURES="+
			toolchain.OSXArchitectureFromNormalized(info.TargetSystemProcessor))
	}

	for _, lang := range p.Languages {
		compiler := compilers.Get(lang)
		switch lang {
		case toolchain.LangC:
			args = append(args, "-DCMAKE_C_COMPILER="+compiler.Command)
		case toolchain.LangCXX:
			args = append(args, "-DCMAKE_CXX_COMPILER="+compiler.Command)
		}
	}

	return "(" + strings.Join(args, " ") + ")"
}

// cmakeMSVCConfigureArgs selects the Visual Studio generator instead of a
// single-configuration toolchain.
func cmakeMSVCConfigureArgs(info *sysinfo.SystemInfo, buildType string) string {
	args := []string{"-DCMAKE_CONFIGURATION_TYPES=" + buildType}

	if platform := toolchain.VSArch(info.TargetSystemProcessor); platform != "" {
		args = append(args, "-DCMAKE_GENERATOR_PLATFORM="+platform)
	}

	vsInstallDir := os.Getenv("VSINSTALLDIR")
	args = append(args, "-DCMAKE_GENERATOR_INSTANCE=\""+
		pathconv.Convert(vsInstallDir, pathconv.StylePosix)+"\"")

	return "(" + strings.Join(args, " ") + ")"
}

// CMakeBuildArgs builds the CXXPM_CMAKE_BUILD_ARGS string. Only the MSVC
// multi-configuration generator needs per-configuration build flags.
func CMakeBuildArgs(info *sysinfo.SystemInfo, buildType string) string {
	if info.TargetSystemSubType == "msvc" {
		return "(--config " + buildType + ")"
	}
	return ""
}
