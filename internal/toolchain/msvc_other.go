//go:build !windows

package toolchain

import (
	"fmt"

	"github.com/jusblock/cxxpm/internal/log"
	"github.com/jusblock/cxxpm/internal/subproc"
	"github.com/jusblock/cxxpm/internal/sysinfo"
)

// MSVC only exists on Windows hosts; elsewhere the probe always misses.

func probeMSVC(runner *subproc.Runner, info *CompilerInfo, sysInfo *sysinfo.SystemInfo, logger log.Logger) (bool, error) {
	return false, nil
}

func lookupMSVCVersion(info *sysinfo.SystemInfo) error {
	return fmt.Errorf("msvc toolchain is not available on this platform")
}
