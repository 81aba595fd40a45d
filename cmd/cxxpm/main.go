// Command cxxpm is a source-and-binary C/C++ package manager. Given a
// package name and a target toolchain it resolves dependencies, downloads
// distributions, drives builds through per-package shell scripts and emits
// consumer-side CMake glue.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jusblock/cxxpm/internal/buildinfo"
	"github.com/jusblock/cxxpm/internal/errmsg"
	"github.com/jusblock/cxxpm/internal/log"
	"github.com/jusblock/cxxpm/internal/subproc"
)

var flags = struct {
	// Modes.
	packageList bool
	searchPath  string
	install     string

	// Mode arguments.
	exportCMake    string
	file           string
	searchPathType string

	// Toolchain modifiers.
	compilers       []string
	systemName      string
	systemProcessor string
	buildType       string
	buildTypeMap    string
	vsInstallDir    string
	vcToolset       string

	// Package repository modifiers.
	packageRoot        string
	packageExtraDirs   []string
	legacyExtraDirScan bool

	verbose bool
}{
	buildType:      "Release",
	buildTypeMap:   "Debug:Debug;*:Release",
	searchPathType: "native",
}

var rootCmd = &cobra.Command{
	Use:   "cxxpm",
	Short: "A source-and-binary package manager for C/C++ toolchains",
	Long: `cxxpm installs C/C++ packages for a concrete toolchain: it detects and
characterizes the compilers, derives a content-addressed install prefix,
drives the per-package shell build and records the installed tree in a
manifest. Installed packages can be exported as CMake imported targets.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

func init() {
	f := rootCmd.Flags()

	// Modes.
	f.BoolVar(&flags.packageList, "package-list", false, "List known packages and their versions")
	f.StringVar(&flags.searchPath, "search-path", "", "Print the install prefix of a package (or a file inside it with --file)")
	f.StringVar(&flags.install, "install", "", "Install a package")

	// Mode arguments.
	f.StringVar(&flags.exportCMake, "export-cmake", "", "After install, write the CMake glue file to this path")
	f.StringVar(&flags.file, "file", "", "File suffix to resolve inside an installed package manifest")
	f.StringVar(&flags.searchPathType, "search-path-type", flags.searchPathType, "Path style of --search-path output: native, posix or cmake")

	// Toolchain modifiers.
	f.StringArrayVar(&flags.compilers, "compiler", nil, "Compiler command per language, e.g. C:/usr/bin/gcc or C++:clang++")
	f.StringVar(&flags.systemName, "system-name", "", "Target system name (defaults to the host)")
	f.StringVar(&flags.systemProcessor, "system-processor", "", "Target system processor (defaults to the host)")
	f.StringVar(&flags.buildType, "build-type", flags.buildType, "Semicolon-separated list of build configurations")
	f.StringVar(&flags.buildTypeMap, "build-type-mapping", flags.buildTypeMap, "Mapping of configured to canonical build types, e.g. Debug:Debug;*:Release")
	f.StringVar(&flags.vsInstallDir, "vs-install-dir", "", "Visual Studio installation directory")
	f.StringVar(&flags.vcToolset, "vc-toolset", "", "Visual C++ toolset name")

	// Package repository modifiers.
	f.StringVar(&flags.packageRoot, "package-root", "", "Root directory containing packages/ (defaults to <home>/self)")
	f.StringArrayVar(&flags.packageExtraDirs, "package-extra-dir", nil, "Additional package directory (repeatable)")
	f.BoolVar(&flags.legacyExtraDirScan, "legacy-extra-dir-scan", false, "Reproduce the historic extra-dir scan of the package root")

	f.BoolVar(&flags.verbose, "verbose", false, "Verbose diagnostics")

	rootCmd.Version = buildinfo.Version()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func initLogger() {
	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	log.SetDefault(log.New(handler))
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A fatal console signal tears down the whole spawned process tree;
	// the prefix being built is left in an undefined state and the next
	// install recreates it.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived %s, canceling operation...\n", sig)
		cancel()
		subproc.TerminateChildren()

		<-sigChan
		fmt.Fprintln(os.Stderr, "Forced exit")
		os.Exit(1)
	}()

	rootCmd.SetContext(ctx)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", errmsg.Format(err))
		os.Exit(1)
	}
}
