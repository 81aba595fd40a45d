package pkg

import (
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// AvailableVersions lists the versions this package carries build files
// for, across its main path and extra paths. Versions that parse as semver
// come first, newest first; the rest follow in lexical order.
func (p *Package) AvailableVersions() []string {
	seen := make(map[string]struct{})
	var versions []string

	for _, dir := range append([]string{p.Path}, p.ExtraPaths...) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".build") || name == "meta.build" {
				continue
			}
			version := strings.TrimSuffix(name, ".build")
			if _, dup := seen[version]; dup {
				continue
			}
			seen[version] = struct{}{}
			versions = append(versions, version)
		}
	}

	sort.Slice(versions, func(i, j int) bool {
		vi, errI := semver.NewVersion(versions[i])
		vj, errJ := semver.NewVersion(versions[j])
		switch {
		case errI == nil && errJ == nil:
			return vi.GreaterThan(vj)
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return versions[i] < versions[j]
		}
	})

	return versions
}
