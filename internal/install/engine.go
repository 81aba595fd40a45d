// Package install drives package installation: manifest-based fast-path
// verification, destructive cleanup, the dependency walk, source/binary
// fetch, the shell-driven build and manifest emission.
package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jusblock/cxxpm/internal/buildenv"
	"github.com/jusblock/cxxpm/internal/config"
	"github.com/jusblock/cxxpm/internal/fetch"
	"github.com/jusblock/cxxpm/internal/log"
	"github.com/jusblock/cxxpm/internal/manifest"
	"github.com/jusblock/cxxpm/internal/pathconv"
	"github.com/jusblock/cxxpm/internal/pkg"
	"github.com/jusblock/cxxpm/internal/shellvar"
	"github.com/jusblock/cxxpm/internal/subproc"
	"github.com/jusblock/cxxpm/internal/sysinfo"
	"github.com/jusblock/cxxpm/internal/toolchain"
)

// Engine installs packages. Installs are serial; the engine holds the
// mutable toolchain state shared across the dependency walk.
type Engine struct {
	settings  *config.Settings
	runner    *subproc.Runner
	fetcher   *fetch.Fetcher
	repo      *pkg.Repository
	sysInfo   *sysinfo.SystemInfo
	compilers *toolchain.Compilers
	tools     *toolchain.Tools
	logger    log.Logger

	// verifyBudget bounds the manifest fast-path; overridable in tests.
	verifyBudget time.Duration
}

// NewEngine wires an Engine from the run-wide state.
func NewEngine(settings *config.Settings, runner *subproc.Runner, fetcher *fetch.Fetcher,
	repo *pkg.Repository, sysInfo *sysinfo.SystemInfo,
	compilers *toolchain.Compilers, tools *toolchain.Tools, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNoop()
	}
	return &Engine{
		settings:     settings,
		runner:       runner,
		fetcher:      fetcher,
		repo:         repo,
		sysInfo:      sysInfo,
		compilers:    compilers,
		tools:        tools,
		logger:       logger,
		verifyBudget: manifest.VerifyBudget,
	}
}

// SetVerifyBudget overrides the manifest fast-path budget.
func (e *Engine) SetVerifyBudget(budget time.Duration) {
	e.verifyBudget = budget
}

// Install installs p for buildType. Re-invoking on an installed package
// whose manifest verifies is a no-op.
func (e *Engine) Install(ctx context.Context, p *pkg.Package, buildType string) error {
	return e.install(ctx, p, buildType, "")
}

// install is the recursive worker. A non-empty externalPrefix folds this
// package into the outer package's physical tree: the install directory is
// not re-prepared and no manifest is emitted.
func (e *Engine) install(ctx context.Context, p *pkg.Package, buildType, externalPrefix string) error {
	fmt.Printf("Installing package %s (%s) to %s\n", p.Name, buildType, p.Prefix)

	effectivePrefix := externalPrefix
	if effectivePrefix == "" {
		effectivePrefix = p.Prefix
	}
	installDir := filepath.Join(effectivePrefix, "install")

	// Fast-path: a verifying manifest means the package is installed.
	if res := manifest.Verify(p.Prefix, installDir, e.verifyBudget); res.Installed {
		all := ""
		if res.AllChecked {
			all = "(all!)"
		}
		fmt.Printf("Verified %d%s files in %d milliseconds\n", res.Checked, all, res.Elapsed.Milliseconds())
		fmt.Printf("Package %s seems to be already installed\n", p.Name)
		return nil
	}

	if err := e.removeDirectory(ctx, p.Prefix); err != nil {
		return err
	}

	if !p.IsBinary {
		for _, scratch := range []string{e.settings.SourceDir(), e.settings.BuildDir()} {
			if err := e.removeDirectory(ctx, scratch); err != nil {
				return err
			}
			if err := os.MkdirAll(scratch, 0o755); err != nil {
				return fmt.Errorf("can't create directory at %s: %w", scratch, err)
			}
		}
	}

	if externalPrefix == "" {
		if err := os.MkdirAll(installDir, 0o755); err != nil {
			return fmt.Errorf("can't create directory at %s: %w", installDir, err)
		}
	}

	if err := e.installDepends(ctx, p, buildType, effectivePrefix); err != nil {
		return err
	}

	if err := e.fetchPackage(ctx, p, installDir); err != nil {
		return err
	}

	if !p.IsBinary {
		if err := e.build(ctx, p, buildType, effectivePrefix, installDir); err != nil {
			return err
		}
	}

	if externalPrefix == "" {
		fmt.Println("Create manifest...")
		if err := manifest.Write(p.Prefix, installDir); err != nil {
			return err
		}
	}

	if !p.IsBinary {
		fmt.Println("Cleanup...")
		if err := e.removeDirectory(ctx, e.settings.SourceDir()); err != nil {
			return err
		}
		if err := e.removeDirectory(ctx, e.settings.BuildDir()); err != nil {
			return err
		}
	}

	return nil
}

// installDepends walks the DEPENDS variable and recursively installs every
// dependency into effectivePrefix, so that a composite package occupies one
// flat prefix. Dependency names are whitespace-split; version constraints
// are not interpreted (TODO: correctly parse depends).
func (e *Engine) installDepends(ctx context.Context, p *pkg.Package, buildType, effectivePrefix string) error {
	depends, err := shellvar.LoadOne(e.runner, p.BuildFile, "DEPENDS")
	if err != nil {
		return fmt.Errorf("can't load DEPENDS from %s: %w", p.BuildFile, err)
	}

	for _, name := range strings.Fields(depends) {
		dep, ok := e.repo.Get(name)
		if !ok {
			return fmt.Errorf("%s depends on non-existent package %s", p.Name, name)
		}

		if err := pkg.Inspect(e.runner, dep, "", e.logger); err != nil {
			return err
		}
		if err := toolchain.Search(e.runner, dep.Languages, e.compilers, e.tools, e.sysInfo, e.logger); err != nil {
			return err
		}
		pkg.UpdatePrefix(e.settings.HomeDir, dep, e.compilers, e.sysInfo, buildType, e.logger)

		if err := e.install(ctx, dep, buildType, effectivePrefix); err != nil {
			return err
		}
	}

	return nil
}

// fetchPackage reads the distribution variables and dispatches on TYPE.
// Binary packages carry per-host variable names (<HOST>_<PROC>_TYPE, ...)
// and unpack straight into the install directory.
func (e *Engine) fetchPackage(ctx context.Context, p *pkg.Package, installDir string) error {
	names := []string{"TYPE", "URL", "SHA3", "TAG", "COMMIT"}
	dest := e.settings.SourceDir()
	if p.IsBinary {
		prefix := e.sysInfo.HostSystemName + "_" + e.sysInfo.HostSystemProcessor + "_"
		for i, name := range names {
			names[i] = prefix + name
		}
		dest = installDir
	}

	values, err := shellvar.Load(e.runner, p.BuildFile, names)
	if err != nil {
		return fmt.Errorf("can't load TYPE, URL, SHA3, TAG, COMMIT from %s: %w", p.BuildFile, err)
	}
	distrType, url, sha3, tag, commit := values[0], values[1], values[2], values[3], values[4]

	// A source dependency's cleanup may have taken the scratch directory
	// with it; the destination must exist before extraction or clone.
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("can't create directory at %s: %w", dest, err)
	}

	fmt.Printf("Downloading package %s:%s\n", p.Name, p.Version)
	switch distrType {
	case "archive":
		return e.fetcher.Archive(ctx, url, sha3, dest)
	case "git":
		return e.fetcher.Git(ctx, dest, url, tag, commit)
	default:
		return fmt.Errorf("unsupported type: %s", distrType)
	}
}

// build sources the build file and runs its build function, teeing the
// merged output to <prefix>/build.log and the console.
func (e *Engine) build(ctx context.Context, p *pkg.Package, buildType, effectivePrefix, installDir string) error {
	env := buildenv.Compose(p, e.settings, e.sysInfo, e.compilers, e.tools, buildType, installDir, e.logger)

	fmt.Printf("Build %s\n", p.Name)
	if err := os.MkdirAll(effectivePrefix, 0o755); err != nil {
		return fmt.Errorf("can't create directory at %s: %w", effectivePrefix, err)
	}

	logPath := filepath.Join(effectivePrefix, "build.log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("can't open log file %s: %w", logPath, err)
	}
	defer logFile.Close()

	script := "set -x; set -e; source " +
		pathconv.Convert(p.BuildFile, pathconv.StylePosix) + "; build;"
	err = e.runner.RunTee(ctx, subproc.Opts{
		Dir:       filepath.Dir(p.BuildFile),
		Path:      "bash",
		Args:      []string{"-c", script},
		ExtraEnv:  env,
		MustExist: true,
	}, logFile)
	if err != nil {
		fmt.Fprintf(logFile, "Build command for %s failed\n", p.Name)
		return fmt.Errorf("build command for %s failed: %w", p.Name, err)
	}

	return nil
}

// removeDirectory removes path recursively. The Windows native removal has
// known edge cases (read-only attributes, path length); the bundled shell's
// rm -rf is the fallback.
func (e *Engine) removeDirectory(ctx context.Context, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	err := os.RemoveAll(path)
	if err == nil {
		return nil
	}

	if runtime.GOOS == "windows" {
		if rmErr := e.runner.RunInherit(ctx, subproc.Opts{
			Dir: ".", Path: "rm", Args: []string{"-rf", path}, MustExist: true,
		}); rmErr == nil {
			if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
				return nil
			}
		}
	}

	return fmt.Errorf("can't delete folder %s: %w", path, err)
}
