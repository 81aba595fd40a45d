// Package export inspects an installed package's artifacts under every
// configured build type, folds them into per-configuration artifacts and
// emits the consumer-side CMake glue with imported targets and generator
// expressions.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jusblock/cxxpm/internal/artifact"
	"github.com/jusblock/cxxpm/internal/buildenv"
	"github.com/jusblock/cxxpm/internal/config"
	"github.com/jusblock/cxxpm/internal/log"
	"github.com/jusblock/cxxpm/internal/pathconv"
	"github.com/jusblock/cxxpm/internal/pkg"
	"github.com/jusblock/cxxpm/internal/subproc"
	"github.com/jusblock/cxxpm/internal/sysinfo"
	"github.com/jusblock/cxxpm/internal/toolchain"
)

// Exporter generates consumer build-system glue for installed packages.
type Exporter struct {
	settings  *config.Settings
	runner    *subproc.Runner
	sysInfo   *sysinfo.SystemInfo
	compilers *toolchain.Compilers
	tools     *toolchain.Tools
	logger    log.Logger
}

// New wires an Exporter from the run-wide state.
func New(settings *config.Settings, runner *subproc.Runner, sysInfo *sysinfo.SystemInfo,
	compilers *toolchain.Compilers, tools *toolchain.Tools, logger log.Logger) *Exporter {
	if logger == nil {
		logger = log.NewNoop()
	}
	return &Exporter{
		settings:  settings,
		runner:    runner,
		sysInfo:   sysInfo,
		compilers: compilers,
		tools:     tools,
		logger:    logger,
	}
}

// CMakeExport probes the artifacts function of p once per configured build
// type, merges the results and writes the generated CMake file to
// outputPath. Artifacts must exist on disk; nothing is mutated once
// emission begins.
func (e *Exporter) CMakeExport(ctx context.Context, p *pkg.Package, outputPath string) error {
	artifacts, prefixes, libSet, err := e.collect(ctx, p)
	if err != nil {
		return err
	}

	var out strings.Builder
	out.WriteString("# This is automatically generated file by cxx-pm\n")
	out.WriteString("# Package name: " + p.Name + "\n")
	out.WriteString("# Configurations: ")
	for _, bt := range e.sysInfo.BuildTypes {
		out.WriteString(bt.Name + ";")
	}
	out.WriteString("\n\n")

	for i := range artifacts {
		if err := e.emit(&out, &artifacts[i], artifacts, prefixes, libSet); err != nil {
			return err
		}
	}

	if err := os.WriteFile(outputPath, []byte(out.String()), 0o644); err != nil {
		return fmt.Errorf("can't write export file %s: %w", outputPath, err)
	}
	return nil
}

// collect runs the artifacts probe for every configured build type. The
// first configuration defines the artifact list and the library whitelist;
// each following configuration must produce the same artifacts, in order,
// and is merged ordinally.
func (e *Exporter) collect(ctx context.Context, p *pkg.Package) ([]artifact.Artifact, []string, map[string]struct{}, error) {
	var artifacts []artifact.Artifact
	var prefixes []string
	libSet := make(map[string]struct{})

	for i, bt := range e.sysInfo.BuildTypes {
		env := buildenv.Compose(p, e.settings, e.sysInfo, e.compilers, e.tools, bt.MappedTo, "", e.logger)

		script := "set -x; set -e; source " +
			pathconv.Convert(p.BuildFile, pathconv.StylePosix) + "; artifacts;"
		res, err := e.runner.Run(ctx, subproc.Opts{
			Dir:       filepath.Dir(p.BuildFile),
			Path:      "bash",
			Args:      []string{"-c", script},
			ExtraEnv:  env,
			MustExist: true,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, res.Stderr)
			return nil, nil, nil, fmt.Errorf("can't get build artifacts for %s: %w", p.Name, err)
		}

		parsed, err := artifact.ParseList([]byte(res.Stdout))
		if err != nil {
			return nil, nil, nil, err
		}

		if i == 0 {
			for _, a := range parsed {
				if a.Type == artifact.TypeStaticLibrary || a.Type == artifact.TypeSharedLibrary {
					libSet[a.Name] = struct{}{}
				}
			}
			artifacts = parsed
		} else {
			if len(parsed) != len(artifacts) {
				return nil, nil, nil, fmt.Errorf("%s and %s configurations have a different artifacts number, aborting",
					e.sysInfo.BuildTypes[i-1].Name, bt.Name)
			}
			for j := range parsed {
				if err := artifacts[j].Merge(parsed[j]); err != nil {
					return nil, nil, nil, err
				}
			}
		}

		prefixes = append(prefixes, pkg.Prefix(e.settings.HomeDir, p, e.compilers, e.sysInfo, bt.MappedTo, e.logger))
	}

	// Invariant: every per-configuration vector now has one entry per
	// configured build type.
	return artifacts, prefixes, libSet, nil
}
