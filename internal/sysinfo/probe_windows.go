//go:build windows

package sysinfo

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/jusblock/cxxpm/internal/subproc"
)

// SystemName returns the literal "Windows".
func SystemName(runner *subproc.Runner) (string, error) {
	return "Windows", nil
}

// Machine codes from the PE spec, as reported by IsWow64Process2 and
// GetNativeSystemInfo.
const (
	imageFileMachineI386  = 0x014c
	imageFileMachineARM   = 0x01c0
	imageFileMachineAMD64 = 0x8664
	imageFileMachineARM64 = 0xaa64

	processorArchitectureIntel = 0
	processorArchitectureARM   = 5
	processorArchitectureAMD64 = 9
	processorArchitectureARM64 = 12
)

var (
	modkernel32           = windows.NewLazySystemDLL("kernel32.dll")
	procIsWow64Process2   = modkernel32.NewProc("IsWow64Process2")
	procGetNativeSysInfo  = modkernel32.NewProc("GetNativeSystemInfo")
)

type systemInfo struct {
	processorArchitecture uint16
	reserved              uint16
	pageSize              uint32
	minAppAddr, maxAppAddr uintptr
	activeProcessorMask   uintptr
	numberOfProcessors    uint32
	processorType         uint32
	allocationGranularity uint32
	processorLevel        uint16
	processorRevision     uint16
}

// SystemProcessor returns the native machine architecture. IsWow64Process2
// is preferred (it reports the real machine even for emulated processes);
// GetNativeSystemInfo is the fallback for older systems.
func SystemProcessor(runner *subproc.Runner) (string, error) {
	if procIsWow64Process2.Find() == nil {
		var processMachine, nativeMachine uint16
		r, _, _ := procIsWow64Process2.Call(
			uintptr(windows.CurrentProcess()),
			uintptr(unsafe.Pointer(&processMachine)),
			uintptr(unsafe.Pointer(&nativeMachine)))
		if r != 0 {
			switch nativeMachine {
			case imageFileMachineAMD64:
				return "x86_64", nil
			case imageFileMachineARM:
				return "arm", nil
			case imageFileMachineARM64:
				return "aarch64", nil
			case imageFileMachineI386:
				return "x86", nil
			}
		}
	}

	var si systemInfo
	procGetNativeSysInfo.Call(uintptr(unsafe.Pointer(&si)))
	switch si.processorArchitecture {
	case processorArchitectureAMD64:
		return "x86_64", nil
	case processorArchitectureARM:
		return "arm", nil
	case processorArchitectureARM64:
		return "aarch64", nil
	case processorArchitectureIntel:
		return "x86", nil
	}
	return "", fmt.Errorf("unknown processor architecture %d", si.processorArchitecture)
}
