//go:build !windows

package sysinfo

import (
	"context"
	"fmt"

	"github.com/jusblock/cxxpm/internal/subproc"
)

// SystemName returns the host system name as reported by uname -s
// (e.g. "Linux", "Darwin").
func SystemName(runner *subproc.Runner) (string, error) {
	res, err := runner.Run(context.Background(), subproc.Opts{
		Dir: ".", Path: "uname", Args: []string{"-s"}, MustExist: true,
	})
	if err != nil {
		return "", fmt.Errorf("uname -s: %w", err)
	}

	name, single := FirstLine(res.Stdout)
	if name == "" || !single {
		return "", fmt.Errorf("unexpected uname -s output: %q", res.Stdout)
	}
	return name, nil
}

// SystemProcessor returns the normalized host processor as reported by
// uname -m.
func SystemProcessor(runner *subproc.Runner) (string, error) {
	res, err := runner.Run(context.Background(), subproc.Opts{
		Dir: ".", Path: "uname", Args: []string{"-m"}, MustExist: true,
	})
	if err != nil {
		return "", fmt.Errorf("uname -m: %w", err)
	}

	proc, single := FirstLine(res.Stdout)
	if proc == "" || !single {
		return "", fmt.Errorf("unexpected uname -m output: %q", res.Stdout)
	}
	return NormalizeProcessor(proc), nil
}
