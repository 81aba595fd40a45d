package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jusblock/cxxpm/internal/log"
	"github.com/jusblock/cxxpm/internal/subproc"
	"github.com/jusblock/cxxpm/internal/sysinfo"
)

type cpuMapping struct {
	gnuName        string
	normalizedName string
	bidirectional  bool
}

var processorMappings = []cpuMapping{
	{"arm64", "aarch64", true},
	{"i386", "x86", false},
	{"i486", "x86", false},
	{"i586", "x86", false},
	{"i686", "x86", true},
}

type systemMapping struct {
	gnuPrefix     string
	systemName    string
	subSystemName string
	bidirectional bool
}

var systemNameMappings = []systemMapping{
	{"apple-darwin", "Darwin", "", true},
	{"linux-gnu", "Linux", "", true},
	{"pc-cygwin", "Windows", "cygwin", true},
	{"w64-mingw32", "Windows", "mingw-w64", true},
}

// GNUProcessorToNormalized maps a GNU triple processor onto the canonical
// name. Unknown processors pass through.
func GNUProcessorToNormalized(cpu string) string {
	for _, m := range processorMappings {
		if cpu == m.gnuName {
			return m.normalizedName
		}
	}
	return cpu
}

// GNUProcessorFromNormalized is the inverse of GNUProcessorToNormalized for
// bidirectional rows only; other names pass through.
func GNUProcessorFromNormalized(cpu string) string {
	for _, m := range processorMappings {
		if cpu == m.normalizedName && m.bidirectional {
			return m.gnuName
		}
	}
	return cpu
}

// GNUSystemToNormalized matches the system part of a GNU triple against the
// known-prefix table, yielding the canonical system name and sub-type.
func GNUSystemToNormalized(system string) (name, subType string) {
	for _, m := range systemNameMappings {
		if strings.HasPrefix(system, m.gnuPrefix) {
			return m.systemName, m.subSystemName
		}
	}
	return system, ""
}

// GNUSystemFromNormalized maps a canonical (system, subType) pair back to
// the GNU triple suffix for bidirectional rows; other names pass through.
func GNUSystemFromNormalized(system, subType string) string {
	for _, m := range systemNameMappings {
		if system == m.systemName && subType == m.subSystemName && m.bidirectional {
			return m.gnuPrefix
		}
	}
	return system
}

// ClangArchFromNormalized is the -arch spelling clang expects.
func ClangArchFromNormalized(cpu string) string {
	if cpu == "aarch64" {
		return "arm64"
	}
	return cpu
}

// OSXArchitectureFromNormalized is the CMAKE_OSX_ARCHITECTURES spelling.
func OSXArchitectureFromNormalized(cpu string) string {
	switch cpu {
	case "x86":
		return "i686"
	case "aarch64":
		return "arm64"
	}
	return cpu
}

// parseGNUBanner scans the stderr of "<compiler> -v" for the Target: line
// and a gcc/clang banner line. The banner line (trailing space trimmed)
// becomes the id prefix.
func parseGNUBanner(stderr string) (id, target string, typ CompilerType) {
	for _, line := range strings.Split(strings.ReplaceAll(stderr, "\r", "\n"), "\n") {
		if pos := strings.Index(line, "Target: "); pos >= 0 {
			target = line[pos+len("Target: "):]
		}
		if strings.Contains(line, "gcc") {
			typ = CompilerGCC
			id = strings.TrimSuffix(line, " ")
		}
		if strings.Contains(line, "clang") {
			typ = CompilerClang
			id = strings.TrimSuffix(line, " ")
		}
	}
	return id, target, typ
}

// ProbeGNU runs the compiler with -v and fills info from its banner.
// Returns false when the command cannot be run or is not a GNU-style
// compiler.
func ProbeGNU(runner *subproc.Runner, info *CompilerInfo, logger log.Logger) bool {
	res, err := runner.Run(context.Background(), subproc.Opts{
		Dir: ".", Path: info.Command, Args: []string{"-v"},
	})
	if err != nil {
		logger.Debug("can't run compiler", "command", info.Command, "error", err)
		return false
	}
	info.Command = res.FullPath

	id, target, typ := parseGNUBanner(res.Stderr)
	if id == "" {
		return false
	}

	info.Type = typ
	info.ReportedTarget = target
	info.ID = id + "-" + target

	if processor, system, ok := strings.Cut(target, "-"); ok && processor != "" {
		info.DetectedSystemProcessor = GNUProcessorToNormalized(processor)
		info.DetectedSystemName, info.SubType = GNUSystemToNormalized(system)
	}

	if info.Type == CompilerClang && info.DetectedSystemName == "Darwin" {
		if err := probeDarwinMultiArch(runner, info); err != nil {
			logger.Warn("multi-arch probe failed", "command", info.Command, "error", err)
		}
	}

	return true
}

// probeDarwinMultiArch compiles a trivial program with each candidate -arch
// flag; architectures that compile are recorded in DetectedMultiArch.
func probeDarwinMultiArch(runner *subproc.Runner, info *CompilerInfo) error {
	tmpDir := os.Getenv("TMPDIR")
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	srcPath := filepath.Join(tmpDir, "cxxpm-clang-check.c")
	outPath := filepath.Join(tmpDir, "cxxpm-clang-check")

	if err := os.WriteFile(srcPath, []byte("int main(){return 0;}\n"), 0o644); err != nil {
		return fmt.Errorf("can't write probe source: %w", err)
	}
	defer os.Remove(srcPath)
	defer os.Remove(outPath)

	clangArchs := []string{"arm64", "x86_64", "x86"}
	normalized := []string{"aarch64", "x86_64", "x86"}
	for i, arch := range clangArchs {
		_, err := runner.Run(context.Background(), subproc.Opts{
			Dir:       ".",
			Path:      info.Command,
			Args:      []string{"-arch", arch, srcPath, "-o", outPath},
			MustExist: true,
		})
		if err == nil {
			info.DetectedMultiArch = append(info.DetectedMultiArch, normalized[i])
		}
	}

	return nil
}

// searchGNUTools locates the auxiliary tools of a GNU toolchain. For a
// Windows target that is a resource compiler: windres.exe next to the
// compiler when building natively, <triple>-windres from PATH when
// cross-compiling.
func searchGNUTools(runner *subproc.Runner, tools *Tools, compilers *Compilers, info *sysinfo.SystemInfo) error {
	var reportedTarget, compilerDir string
	if c := compilers.Get(LangC); c.ID != "" {
		compilerDir = filepath.Dir(c.Command)
		reportedTarget = c.ReportedTarget
	} else if cpp := compilers.Get(LangCXX); cpp.ID != "" {
		compilerDir = filepath.Dir(cpp.Command)
		reportedTarget = cpp.ReportedTarget
	} else {
		return nil
	}

	if info.TargetSystemName == "Windows" {
		var windres string
		if info.HostSystemName == "Windows" {
			windres = filepath.Join(compilerDir, "windres.exe")
		} else {
			windres = reportedTarget + "-windres"
		}

		res, err := runner.Run(context.Background(), subproc.Opts{
			Dir: ".", Path: windres, Args: []string{"--help"}, MustExist: true,
		})
		if err != nil {
			return fmt.Errorf("resource compiler not usable: %w", err)
		}
		tools.Get(ToolResourceCompiler).Command = res.FullPath
	}

	return nil
}
