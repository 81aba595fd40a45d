// Package subproc spawns the child processes the tool depends on: compilers
// during probing, the shell driving package builds, and the handful of
// external binaries (git, uname) that stay out of process.
//
// Three modes are offered: fully captured output, output teed to a log sink
// and the parent's stdout, and inherited stdio. Every child is attached to a
// process group (POSIX) or job object (Windows) so that the whole tree can
// be torn down when the parent receives a fatal signal.
package subproc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jusblock/cxxpm/internal/log"
	"github.com/jusblock/cxxpm/internal/pathcache"
)

// ErrExecutableNotFound reports a command that could not be resolved
// against PATH.
var ErrExecutableNotFound = errors.New("executable not found")

// Opts describes a single child process invocation.
type Opts struct {
	// Dir is the working directory of the child. Empty means the parent's.
	Dir string

	// Path is the executable: either absolute, or a bare name resolved
	// through the path cache.
	Path string

	// Args are the arguments, excluding the program name.
	Args []string

	// ExtraEnv entries of the form NAME=VALUE are appended to the parent
	// environment; duplicate names take the last-wins value.
	ExtraEnv []string

	// MustExist controls whether a failed executable lookup is reported
	// on stderr with an "ERROR:" prefix. The lookup failure is returned
	// either way.
	MustExist bool
}

// Result carries the outcome of a captured run.
type Result struct {
	// FullPath is the resolved absolute executable path.
	FullPath string
	Stdout   string
	Stderr   string
}

// Runner spawns child processes. It is safe for concurrent use.
type Runner struct {
	paths  *pathcache.Cache
	logger log.Logger
}

// NewRunner creates a Runner resolving bare command names via paths.
func NewRunner(paths *pathcache.Cache, logger log.Logger) *Runner {
	if logger == nil {
		logger = log.NewNoop()
	}
	return &Runner{paths: paths, logger: logger}
}

// Paths exposes the underlying executable cache, for callers that need to
// invalidate it after mutating PATH.
func (r *Runner) Paths() *pathcache.Cache {
	return r.paths
}

func (r *Runner) resolve(opts Opts) (string, error) {
	if filepath.IsAbs(opts.Path) {
		return opts.Path, nil
	}

	full := r.paths.Get(opts.Path)
	if full == "" {
		if opts.MustExist {
			fmt.Fprintf(os.Stderr, "ERROR: can't find executable %s\n", opts.Path)
		}
		return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, opts.Path)
	}
	return full, nil
}

// mergeEnv combines the parent environment with extra NAME=VALUE entries.
// Later entries override earlier ones of the same name.
func mergeEnv(extra []string) []string {
	combined := append(os.Environ(), extra...)

	seen := make(map[string]int, len(combined))
	var merged []string
	for _, entry := range combined {
		name, _, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if idx, dup := seen[name]; dup {
			merged[idx] = entry
			continue
		}
		seen[name] = len(merged)
		merged = append(merged, entry)
	}
	return merged
}

func (r *Runner) command(ctx context.Context, full string, opts Opts) *exec.Cmd {
	cmd := exec.CommandContext(ctx, full, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = mergeEnv(opts.ExtraEnv)
	setGroupAttrs(cmd)
	return cmd
}

// Run executes the child with both output streams captured. A non-zero exit
// status is an error; the captured output is returned in either case.
func (r *Runner) Run(ctx context.Context, opts Opts) (Result, error) {
	full, err := r.resolve(opts)
	if err != nil {
		return Result{}, err
	}

	var stdout, stderr strings.Builder
	cmd := r.command(ctx, full, opts)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running command", "path", full, "args", opts.Args)
	err = startAndWait(cmd)
	res := Result{FullPath: full, Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		return res, fmt.Errorf("%s: %w", full, err)
	}
	return res, nil
}

// RunTee executes the child with stdout and stderr merged and streamed, as
// produced, to both sink and the parent's stdout. Build logs rely on this
// for real-time progress.
func (r *Runner) RunTee(ctx context.Context, opts Opts, sink io.Writer) error {
	full, err := r.resolve(opts)
	if err != nil {
		return err
	}

	cmd := r.command(ctx, full, opts)
	tee := io.MultiWriter(sink, os.Stdout)
	cmd.Stdout = tee
	cmd.Stderr = tee

	r.logger.Debug("running command (teed)", "path", full, "args", opts.Args)
	if err := startAndWait(cmd); err != nil {
		return fmt.Errorf("%s: %w", full, err)
	}
	return nil
}

// RunInherit executes the child with the parent's stdio.
func (r *Runner) RunInherit(ctx context.Context, opts Opts) error {
	full, err := r.resolve(opts)
	if err != nil {
		return err
	}

	cmd := r.command(ctx, full, opts)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	r.logger.Debug("running command (inherited stdio)", "path", full, "args", opts.Args)
	if err := startAndWait(cmd); err != nil {
		return fmt.Errorf("%s: %w", full, err)
	}
	return nil
}

func startAndWait(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	registerChild(cmd)
	defer unregisterChild(cmd)
	return cmd.Wait()
}
