// Package sysinfo holds the host/target system view: detected host name and
// processor, the requested target, the toolchain sub-type derived from the
// compilers, and the configured build types.
package sysinfo

import (
	"fmt"
	"strings"
)

// BuildType pairs a user-facing configuration name with the canonical
// configuration the toolchain actually uses.
type BuildType struct {
	// Name is the configured name, e.g. "Profile".
	Name string
	// MappedTo is the canonical name, e.g. "Release".
	MappedTo string
}

// SystemInfo is the merged host/target view built during startup and
// compiler search. It is immutable once the toolchain search completes.
type SystemInfo struct {
	// Self is the absolute path of the running executable.
	Self string

	// MSys2Path is the bin directory of the bundled MSys2 environment
	// (Windows only).
	MSys2Path string

	HostSystemName      string
	HostSystemProcessor string

	TargetSystemName      string
	TargetSystemProcessor string
	// TargetSystemSubType is the secondary classification (msvc,
	// mingw-w64, cygwin) filled in by the compiler search.
	TargetSystemSubType string

	BuildTypes []BuildType

	// MSVC specific.
	VSInstallDir     string
	VCToolset        string
	VSToolsetVersion string
}

// NormalizeProcessor maps vendor processor spellings onto the canonical
// names used throughout the tool. Unknown names pass through unchanged.
func NormalizeProcessor(processor string) string {
	switch processor {
	case "arm64", "ARM64":
		return "aarch64"
	case "AMD64", "x64":
		return "x86_64"
	case "i386", "i686":
		return "x86"
	default:
		return processor
	}
}

// ParseBuildTypeMapping applies mapping (e.g. "Debug:Debug;*:Release") to
// the semicolon-separated buildTypes list. Exactly one "*" default entry is
// required; build types with no explicit mapping map to the default.
func ParseBuildTypeMapping(buildTypes, mapping string) ([]BuildType, error) {
	type rule struct{ from, to string }
	var rules []rule
	var defaultTo string

	for _, entry := range splitNonEmpty(mapping, ";") {
		parts := strings.Split(entry, ":")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid build type mapping format: %s", mapping)
		}

		if parts[0] == "*" {
			if defaultTo != "" {
				return nil, fmt.Errorf("build type mapping contains more than one default mapping: %s", mapping)
			}
			defaultTo = parts[1]
		} else {
			rules = append(rules, rule{from: parts[0], to: parts[1]})
		}
	}
	if defaultTo == "" {
		return nil, fmt.Errorf("build type mapping contains no default mapping: %s", mapping)
	}

	var out []BuildType
	for _, cfg := range splitNonEmpty(buildTypes, ";") {
		mapped := ""
		for _, r := range rules {
			if cfg == r.from {
				mapped = r.to
				break
			}
		}
		if mapped == "" {
			mapped = defaultTo
		}
		out = append(out, BuildType{Name: cfg, MappedTo: mapped})
	}

	return out, nil
}

// UniqueMappedTypes returns the distinct MappedTo values in first-seen order.
func UniqueMappedTypes(buildTypes []BuildType) []string {
	var out []string
	seen := make(map[string]struct{}, len(buildTypes))
	for _, bt := range buildTypes {
		if _, ok := seen[bt.MappedTo]; ok {
			continue
		}
		seen[bt.MappedTo] = struct{}{}
		out = append(out, bt.MappedTo)
	}
	return out
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FirstLine returns the first non-empty \r\n-free line of s, and reports
// whether no other non-empty line follows it. Probe output (uname) is
// expected to be a single line.
func FirstLine(s string) (string, bool) {
	lines := splitNonEmpty(strings.ReplaceAll(s, "\r", "\n"), "\n")
	if len(lines) == 0 {
		return "", false
	}
	return lines[0], len(lines) == 1
}
