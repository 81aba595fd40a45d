package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jusblock/cxxpm/internal/config"
	"github.com/jusblock/cxxpm/internal/export"
	"github.com/jusblock/cxxpm/internal/fetch"
	"github.com/jusblock/cxxpm/internal/install"
	"github.com/jusblock/cxxpm/internal/log"
	"github.com/jusblock/cxxpm/internal/manifest"
	"github.com/jusblock/cxxpm/internal/pathcache"
	"github.com/jusblock/cxxpm/internal/pathconv"
	"github.com/jusblock/cxxpm/internal/pkg"
	"github.com/jusblock/cxxpm/internal/subproc"
	"github.com/jusblock/cxxpm/internal/sysinfo"
	"github.com/jusblock/cxxpm/internal/toolchain"
)

type mode int

const (
	modeNone mode = iota
	modePackageList
	modeSearchPath
	modeInstall
)

// selectMode enforces that exactly one mode flag is present.
func selectMode() (mode, error) {
	selected := modeNone
	set := func(m mode) error {
		if selected != modeNone {
			return fmt.Errorf("mode already specified")
		}
		selected = m
		return nil
	}

	if flags.packageList {
		if err := set(modePackageList); err != nil {
			return modeNone, err
		}
	}
	if flags.searchPath != "" {
		if err := set(modeSearchPath); err != nil {
			return modeNone, err
		}
	}
	if flags.install != "" {
		if err := set(modeInstall); err != nil {
			return modeNone, err
		}
	}

	if selected == modeNone {
		return modeNone, fmt.Errorf("you must specify mode, see --help")
	}
	return selected, nil
}

// applyConfigFile fills flag defaults from <home>/config.toml for flags the
// user did not pass explicitly.
func applyConfigFile(cmd *cobra.Command, home string) error {
	fileCfg, err := config.LoadFile(filepath.Join(home, config.ConfigFileName))
	if err != nil {
		return err
	}

	apply := func(flagName string, target *string, value string) {
		if value != "" && !cmd.Flags().Changed(flagName) {
			*target = value
		}
	}
	apply("build-type", &flags.buildType, fileCfg.BuildType)
	apply("build-type-mapping", &flags.buildTypeMap, fileCfg.BuildTypeMapping)
	apply("package-root", &flags.packageRoot, fileCfg.PackageRoot)
	apply("vs-install-dir", &flags.vsInstallDir, fileCfg.VSInstallDir)
	apply("vc-toolset", &flags.vcToolset, fileCfg.VCToolset)
	return nil
}

// runtimeState is the per-run context shared by every mode.
type runtimeState struct {
	settings  *config.Settings
	runner    *subproc.Runner
	repo      *pkg.Repository
	sysInfo   sysinfo.SystemInfo
	compilers toolchain.Compilers
	tools     toolchain.Tools
	logger    log.Logger
}

func newRuntimeState(cmd *cobra.Command) (*runtimeState, error) {
	logger := log.Default()

	home, err := config.DefaultHome()
	if err != nil {
		return nil, err
	}
	if err := applyConfigFile(cmd, home); err != nil {
		return nil, err
	}

	settings := config.New(home, flags.packageRoot)
	settings.ExtraPackageDirs = flags.packageExtraDirs
	settings.LegacyExtraDirScan = flags.legacyExtraDirScan

	for _, dir := range []string{settings.PackageRoot, settings.PackagesDir()} {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("path not exists: %s", dir)
		}
	}
	if err := settings.EnsureDirs(); err != nil {
		return nil, err
	}

	state := &runtimeState{
		settings: settings,
		runner:   subproc.NewRunner(pathcache.New(), logger),
		logger:   logger,
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("can't find self cxxpm executable: %w", err)
	}
	state.sysInfo.Self = self
	state.sysInfo.VSInstallDir = flags.vsInstallDir
	state.sysInfo.VCToolset = flags.vcToolset

	if err := setupMSys2(state); err != nil {
		return nil, err
	}

	hostName, err := sysinfo.SystemName(state.runner)
	if err != nil {
		return nil, fmt.Errorf("can't detect system name: %w", err)
	}
	hostProcessor, err := sysinfo.SystemProcessor(state.runner)
	if err != nil {
		return nil, fmt.Errorf("can't detect system processor architecture: %w", err)
	}
	state.sysInfo.HostSystemName = hostName
	state.sysInfo.HostSystemProcessor = hostProcessor

	state.sysInfo.TargetSystemName = hostName
	if flags.systemName != "" {
		state.sysInfo.TargetSystemName = flags.systemName
	}
	state.sysInfo.TargetSystemProcessor = hostProcessor
	if flags.systemProcessor != "" {
		state.sysInfo.TargetSystemProcessor = sysinfo.NormalizeProcessor(flags.systemProcessor)
	}

	state.sysInfo.BuildTypes, err = sysinfo.ParseBuildTypeMapping(flags.buildType, flags.buildTypeMap)
	if err != nil {
		return nil, err
	}

	for _, option := range flags.compilers {
		if err := toolchain.ParseCompilerOption(&state.compilers, option); err != nil {
			return nil, err
		}
	}

	state.repo, err = pkg.LoadRepository(settings, logger)
	if err != nil {
		return nil, err
	}

	return state, nil
}

func run(cmd *cobra.Command) error {
	initLogger()

	selected, err := selectMode()
	if err != nil {
		return err
	}

	state, err := newRuntimeState(cmd)
	if err != nil {
		return err
	}

	switch selected {
	case modePackageList:
		return runPackageList(state)
	case modeSearchPath:
		return runSearchPath(cmd, state)
	case modeInstall:
		return runInstall(cmd, state)
	}
	return nil
}

func runPackageList(state *runtimeState) error {
	for _, name := range state.repo.Names() {
		p, _ := state.repo.Get(name)
		// A package with a broken meta.build is still listed; it just
		// carries no default marker.
		defaultVersion, err := pkg.DefaultVersion(state.runner, p)
		if err != nil {
			state.logger.Warn("can't resolve default version", "package", name, "error", err)
		}
		fmt.Println(formatPackageLine(name, p.AvailableVersions(), defaultVersion))
	}
	return nil
}

// formatPackageLine renders one --package-list line, marking the default
// version with a trailing asterisk: "zlib: 1.3.0* 1.2.13".
func formatPackageLine(name string, versions []string, defaultVersion string) string {
	marked := make([]string, len(versions))
	for i, version := range versions {
		marked[i] = version
		if version == defaultVersion {
			marked[i] += "*"
		}
	}
	return fmt.Sprintf("%s: %s", name, strings.Join(marked, " "))
}

func runSearchPath(cmd *cobra.Command, state *runtimeState) error {
	if len(state.sysInfo.BuildTypes) != 1 {
		return fmt.Errorf("search path mode supports only single build type")
	}

	style := pathconv.ParseStyle(flags.searchPathType)
	if style == pathconv.StyleUnknown {
		return fmt.Errorf("unknown path type: %s", flags.searchPathType)
	}

	p, ok := state.repo.Get(flags.searchPath)
	if !ok {
		return fmt.Errorf("unknown package: %s", flags.searchPath)
	}

	if err := pkg.Inspect(state.runner, p, "", state.logger); err != nil {
		return err
	}
	if err := toolchain.Search(state.runner, p.Languages, &state.compilers, &state.tools, &state.sysInfo, state.logger); err != nil {
		return err
	}
	buildType := state.sysInfo.BuildTypes[0].MappedTo
	pkg.UpdatePrefix(state.settings.HomeDir, p, &state.compilers, &state.sysInfo, buildType, state.logger)

	if flags.file != "" {
		path, err := manifest.SearchPath(p.Prefix, flags.file)
		if err != nil {
			return fmt.Errorf("no file %s in package %s: %w", flags.file, p.Name, err)
		}
		fmt.Println(pathconv.Convert(path, style))
	} else {
		fmt.Println(pathconv.Convert(p.Prefix, style))
	}
	return nil
}

func runInstall(cmd *cobra.Command, state *runtimeState) error {
	p, ok := state.repo.Get(flags.install)
	if !ok {
		return fmt.Errorf("unknown package: %s", flags.install)
	}

	if err := pkg.Inspect(state.runner, p, "", state.logger); err != nil {
		return err
	}
	if err := toolchain.Search(state.runner, p.Languages, &state.compilers, &state.tools, &state.sysInfo, state.logger); err != nil {
		return err
	}

	fetcher := fetch.New(state.runner, state.settings.DistrDir, state.logger)
	engine := install.NewEngine(state.settings, state.runner, fetcher, state.repo,
		&state.sysInfo, &state.compilers, &state.tools, state.logger)

	for _, buildType := range sysinfo.UniqueMappedTypes(state.sysInfo.BuildTypes) {
		pkg.UpdatePrefix(state.settings.HomeDir, p, &state.compilers, &state.sysInfo, buildType, state.logger)
		if err := engine.Install(cmd.Context(), p, buildType); err != nil {
			return err
		}
	}

	if flags.exportCMake != "" {
		exporter := export.New(state.settings, state.runner, &state.sysInfo,
			&state.compilers, &state.tools, state.logger)
		if err := exporter.CMakeExport(cmd.Context(), p, flags.exportCMake); err != nil {
			return err
		}
	}
	return nil
}
