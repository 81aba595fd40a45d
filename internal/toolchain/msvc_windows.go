//go:build windows

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

func vcEnvironmentInitialized() (vsInstallDir string, ok bool) {
	vsInstallDir = os.Getenv("VSINSTALLDIR")
	return vsInstallDir, vsInstallDir != "" && os.Getenv("INCLUDE") != "" && os.Getenv("LIB") != ""
}

// probeCL runs cl with no arguments and parses its banner.
func probeCL(runner *subproc.Runner, info *CompilerInfo) bool {
	info.Command = "cl"
	// cl without arguments exits non-zero but still prints its banner, so
	// the run error only matters when the executable could not be found.
	res, _ := runner.Run(context.Background(), subproc.Opts{Dir: ".", Path: "cl"})
	if res.FullPath == "" {
		return false
	}
	info.Command = res.FullPath

	if id, processor, ok := parseCLBanner(res.Stderr); ok {
		info.ID = id
		info.Type = CompilerMSVC
		info.DetectedSystemProcessor = processor
		info.ReportedTarget = processor + "-pc-windows-msvc"
	}

	info.DetectedSystemName = "Windows"
	info.SubType = "msvc"
	return true
}

// bootstrapMSVCEnv runs vcvarsall.bat for the host/target pair and
// re-imports the resulting environment into this process.
//
// This mutates process-wide state: PATH changes, so the executable cache is
// refreshed before returning. When __VSCMD_PREINIT_PATH is present a
// previous bootstrap already ran; PATH is restored from it first (with the
// MSys2 bin directory re-appended) so that repeated bootstraps are
// idempotent.
func bootstrapMSVCEnv(runner *subproc.Runner, info *sysinfo.SystemInfo) error {
	vcvarsPath := filepath.Join(info.VSInstallDir, "VC", "Auxiliary", "Build", "vcvarsall.bat")
	if _, err := os.Stat(vcvarsPath); err != nil {
		return fmt.Errorf("can't find vcvarsall.bat in VS install directory %s", info.VSInstallDir)
	}

	platform := selectVCVarsPlatform(info)
	if platform == "" {
		return fmt.Errorf("can't initialize environment for host %s and target %s",
			info.HostSystemProcessor, info.TargetSystemProcessor)
	}

	if preinit := os.Getenv("__VSCMD_PREINIT_PATH"); preinit != "" {
		path := preinit
		if info.MSys2Path != "" {
			path += ";" + info.MSys2Path
		}
		os.Setenv("PATH", path)
		runner.Paths().Update()
	}

	arg := fmt.Sprintf("call %q %s & SET & exit 0", vcvarsPath, platform)
	res, err := runner.Run(context.Background(), subproc.Opts{
		Dir: ".", Path: "cmd.exe", Args: []string{"/k", arg}, MustExist: true,
	})
	if err != nil {
		return fmt.Errorf("can't retrieve VS environment variables: %w", err)
	}

	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimRight(line, "\r")
		name, value, ok := strings.Cut(line, "=")
		if !ok || name == "" || value == "" {
			continue
		}
		if err := os.Setenv(name, value); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: can't set environment variable (%s=%s)\n", name, value)
		}
	}
	runner.Paths().Update()

	return nil
}

// probeMSVC attempts to configure an MSVC toolchain: either by bootstrapping
// the environment from a known VS install dir, or by recognizing an already
// initialised vcvars environment. Returns false when MSVC is unavailable.
func probeMSVC(runner *subproc.Runner, info *CompilerInfo, sysInfo *sysinfo.SystemInfo, logger log.Logger) (bool, error) {
	if sysInfo.VSInstallDir != "" {
		if err := bootstrapMSVCEnv(runner, sysInfo); err != nil {
			return false, err
		}

		vsInstallDir, ok := vcEnvironmentInitialized()
		if !ok {
			return false, fmt.Errorf("broken VS installation at %s", sysInfo.VSInstallDir)
		}
		if !probeCL(runner, info) {
			return false, fmt.Errorf("found msvc environment with unknown compiler at %s", vsInstallDir)
		}
		return true, nil
	}

	if vsInstallDir, ok := vcEnvironmentInitialized(); ok {
		if !probeCL(runner, info) {
			return false, fmt.Errorf("found msvc environment with unknown compiler at %s", vsInstallDir)
		}
		return true, nil
	}

	logger.Debug("no MSVC environment detected")
	return false, nil
}

// lookupMSVCVersion fills VSToolsetVersion from the VCToolsVersion variable
// exported by the vcvars environment.
func lookupMSVCVersion(info *sysinfo.SystemInfo) error {
	raw := os.Getenv("VCToolsVersion")
	if raw == "" {
		return fmt.Errorf("can't find environment variable VCToolsVersion")
	}

	version, err := ParseVCToolsVersion(raw)
	if err != nil {
		return err
	}
	info.VSToolsetVersion = version
	return nil
}
