// Package pkg models the packages the tool installs: their on-disk
// repository layout, version/build-file resolution and the content-addressed
// install prefix.
package pkg

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jusblock/cxxpm/internal/config"
	"github.com/jusblock/cxxpm/internal/log"
	"github.com/jusblock/cxxpm/internal/shellvar"
	"github.com/jusblock/cxxpm/internal/subproc"
	"github.com/jusblock/cxxpm/internal/toolchain"
)

// Package is a single installable package. Name and Path are filled when the
// repository is loaded; Inspect fills Version, IsBinary, Languages and
// BuildFile; the prefix is derived last, once the toolchain is known.
type Package struct {
	Name string
	Path string

	// ExtraPaths are additional directories that may hold build files for
	// this package.
	ExtraPaths []string

	Version   string
	IsBinary  bool
	Languages []toolchain.Language
	BuildFile string
	Prefix    string
}

// Repository is the set of known packages, keyed by name.
type Repository struct {
	packages map[string]*Package
}

// LoadRepository scans <package-root>/packages plus the configured extra
// package directories. A duplicated extra directory is an error.
//
// The historic scan iterated the package root again for every extra
// directory instead of the extra directory itself; that behaviour is kept
// behind settings.LegacyExtraDirScan.
func LoadRepository(settings *config.Settings, logger log.Logger) (*Repository, error) {
	if logger == nil {
		logger = log.NewNoop()
	}

	packagesDir := settings.PackagesDir()
	repo := &Repository{packages: make(map[string]*Package)}
	if err := repo.scanDir(packagesDir); err != nil {
		return nil, err
	}

	visited := make(map[string]struct{})
	for _, extraDir := range settings.ExtraPackageDirs {
		if _, dup := visited[extraDir]; dup {
			return nil, fmt.Errorf("extra package directory %s specified twice", extraDir)
		}
		visited[extraDir] = struct{}{}

		scanDir := extraDir
		if settings.LegacyExtraDirScan {
			logger.Warn("legacy extra-dir scan enabled; scanning package root instead of extra directory",
				"extra_dir", extraDir)
			scanDir = packagesDir
		}
		if err := repo.scanExtraDir(scanDir); err != nil {
			return nil, err
		}
	}

	return repo, nil
}

func (r *Repository) scanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("can't read package directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		r.packages[name] = &Package{Name: name, Path: filepath.Join(dir, name)}
	}
	return nil
}

func (r *Repository) scanExtraDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("can't read package directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)
		if existing, ok := r.packages[name]; ok {
			existing.ExtraPaths = append(existing.ExtraPaths, path)
		} else {
			r.packages[name] = &Package{Name: name, Path: path}
		}
	}
	return nil
}

// Get returns the named package.
func (r *Repository) Get(name string) (*Package, bool) {
	p, ok := r.packages[name]
	return p, ok
}

// Names returns all package names in sorted order.
func (r *Repository) Names() []string {
	names := make([]string, 0, len(r.packages))
	for name := range r.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultVersion reads the package's DEFAULT_VERSION from its meta.build.
func DefaultVersion(runner *subproc.Runner, p *Package) (string, error) {
	metaBuild := filepath.Join(p.Path, "meta.build")
	version, err := shellvar.LoadOne(runner, metaBuild, "DEFAULT_VERSION")
	if err != nil || version == "" {
		return "", fmt.Errorf("can't load DEFAULT_VERSION from %s", metaBuild)
	}
	return version, nil
}

// Inspect resolves the package version, locates its build file and reads the
// package type and languages. requestedVersion empty selects the package's
// DEFAULT_VERSION.
func Inspect(runner *subproc.Runner, p *Package, requestedVersion string, logger log.Logger) error {
	if logger == nil {
		logger = log.NewNoop()
	}

	version := requestedVersion
	if version == "" {
		defaultVersion, err := DefaultVersion(runner, p)
		if err != nil {
			return err
		}
		logger.Info("resolved default version", "package", p.Name, "version", defaultVersion)
		version = defaultVersion
	}
	p.Version = version

	if !locateBuildFile(p) {
		return fmt.Errorf("package %s does not contain build file for version %s", p.Name, p.Version)
	}

	values, err := shellvar.Load(runner, p.BuildFile, []string{"PACKAGE_TYPE", "LANGS"})
	if err != nil {
		return fmt.Errorf("can't load PACKAGE_TYPE, LANGS variables from %s: %w", p.BuildFile, err)
	}
	packageType, langs := values[0], values[1]

	switch packageType {
	case "":
		return fmt.Errorf("package type not specified in %s", p.BuildFile)
	case "binary":
		p.IsBinary = true
		return nil
	case "source":
		p.IsBinary = false
		p.Languages = nil
		seen := make(map[toolchain.Language]struct{})
		for _, langS := range strings.Split(langs, ",") {
			if langS == "" {
				continue
			}
			lang, ok := toolchain.LanguageFromString(langS)
			if !ok {
				return fmt.Errorf("unsupported language %s", langS)
			}
			if _, dup := seen[lang]; dup {
				continue
			}
			seen[lang] = struct{}{}
			p.Languages = append(p.Languages, lang)
		}
		if len(p.Languages) == 0 {
			return fmt.Errorf("compilers not specified at %s", p.BuildFile)
		}
		return nil
	default:
		return fmt.Errorf("package type can be 'source' or 'binary', %s found", packageType)
	}
}

func locateBuildFile(p *Package) bool {
	candidate := filepath.Join(p.Path, p.Version+".build")
	if _, err := os.Stat(candidate); err == nil {
		p.BuildFile = candidate
		return true
	}

	for _, extraPath := range p.ExtraPaths {
		candidate := filepath.Join(extraPath, p.Version+".build")
		if _, err := os.Stat(candidate); err == nil {
			p.BuildFile = candidate
			return true
		}
	}
	return false
}
