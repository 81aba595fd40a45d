package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/jusblock/cxxpm/internal/config"
)

// setupMSys2 locates the bundled MSys2 environment on Windows and appends
// its bin directory to PATH, so that bash and the POSIX userland resolve.
// The bundle lives next to the executable or under <home>/self. Elsewhere
// this is a no-op: bash comes from the system.
func setupMSys2(state *runtimeState) error {
	if runtime.GOOS != "windows" {
		return nil
	}

	bashPath := filepath.Join(filepath.Dir(state.sysInfo.Self), "usr", "bin", "bash.exe")
	if _, err := os.Stat(bashPath); err != nil {
		userHome, err := config.UserHomeDir()
		if err != nil {
			return err
		}
		bashPath = filepath.Join(userHome, ".cxxpm", "self", "usr", "bin", "bash.exe")
		if _, err := os.Stat(bashPath); err != nil {
			return fmt.Errorf("msys2 bundle not found, installation error")
		}
	}

	state.sysInfo.MSys2Path = filepath.Dir(bashPath)
	os.Setenv("PATH", os.Getenv("PATH")+string(os.PathListSeparator)+state.sysInfo.MSys2Path)
	state.runner.Paths().Update()
	return nil
}
