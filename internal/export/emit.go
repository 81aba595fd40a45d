package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jusblock/cxxpm/internal/artifact"
	"github.com/jusblock/cxxpm/internal/pathconv"
)

func cmakePath(path string) string {
	return pathconv.Convert(path, pathconv.StyleCMake)
}

// artifactPath resolves and validates the on-disk location of one
// per-configuration artifact file.
func (e *Exporter) artifactPath(prefix, relPath, kind string) (string, error) {
	path := filepath.Join(prefix, "install", relPath)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%s %s not exists", kind, path)
	}
	return cmakePath(path), nil
}

// configExpression renders a per-configuration value: a literal for a
// single configuration, otherwise a generator expression chain of the form
// $<$<CONFIG:X>:payloadX>$<$<CONFIG:Y>:payloadY>.
func (e *Exporter) configExpression(values []string) string {
	if len(e.sysInfo.BuildTypes) == 1 {
		return values[0]
	}

	var out strings.Builder
	for i, bt := range e.sysInfo.BuildTypes {
		out.WriteString("$<$<CONFIG:")
		out.WriteString(bt.Name)
		out.WriteString(">:")
		out.WriteString(values[i])
		out.WriteString(">")
	}
	return out.String()
}

// perConfigPaths validates every configuration's file and returns the
// CMake-style paths, index-aligned with the configured build types.
func (e *Exporter) perConfigPaths(prefixes []string, relPaths []string, kind string) ([]string, error) {
	paths := make([]string, len(prefixes))
	for i := range prefixes {
		path, err := e.artifactPath(prefixes[i], relPaths[i], kind)
		if err != nil {
			return nil, err
		}
		paths[i] = path
	}
	return paths, nil
}

func (e *Exporter) emit(out *strings.Builder, a *artifact.Artifact, all []artifact.Artifact, prefixes []string, libSet map[string]struct{}) error {
	switch a.Type {
	case artifact.TypeIncludeDirectory:
		paths, err := e.perConfigPaths(prefixes, a.RelativePaths, "artifact")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "set(%s %s PARENT_SCOPE)\n", a.Name, e.configExpression(paths))
		return nil

	case artifact.TypeStaticLibrary, artifact.TypeSharedLibrary:
		return e.emitLibrary(out, a, all, prefixes)

	case artifact.TypeExecutable:
		fmt.Fprintf(out, "add_executable(%s IMPORTED)\n", a.Name)
		return e.emitLocations(out, a.Name, "IMPORTED_LOCATION", prefixes, a.RelativePaths, "artifact")

	case artifact.TypeLibSet:
		fmt.Fprintf(out, "set(%s", a.Name)
		for _, lib := range a.Libs {
			if _, ok := libSet[lib]; !ok {
				return fmt.Errorf("libset %s has link to non-existent library %s", a.Name, lib)
			}
			fmt.Fprintf(out, " %s", lib)
		}
		out.WriteString(" PARENT_SCOPE)\n")
		return nil

	case artifact.TypeCMakeModule:
		path, err := e.artifactPath(prefixes[0], a.RelativePaths[0], "artifact")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "include(%s)\n", path)
		return nil
	}

	return nil
}

// emitLocations writes IMPORTED_LOCATION-style properties: a single
// property for one configuration, one suffixed property per configuration
// otherwise.
func (e *Exporter) emitLocations(out *strings.Builder, name, property string, prefixes, relPaths []string, kind string) error {
	if len(e.sysInfo.BuildTypes) == 1 {
		path, err := e.artifactPath(prefixes[0], relPaths[0], kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "set_target_properties(%s PROPERTIES %s %s)\n", name, property, path)
		return nil
	}

	for i, bt := range e.sysInfo.BuildTypes {
		path, err := e.artifactPath(prefixes[i], relPaths[i], kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "set_target_properties(%s  PROPERTIES %s_%s %s)\n",
			name, property, strings.ToUpper(bt.Name), path)
	}
	out.WriteString("\n")
	return nil
}

func (e *Exporter) emitLibrary(out *strings.Builder, a *artifact.Artifact, all []artifact.Artifact, prefixes []string) error {
	libType := "STATIC"
	if a.Type == artifact.TypeSharedLibrary {
		libType = "SHARED"
	}
	fmt.Fprintf(out, "add_library(%s %s IMPORTED GLOBAL)\n", a.Name, libType)

	// On Windows the dll is the runtime artifact and the import library is
	// what the linker consumes.
	windowsShared := a.Type == artifact.TypeSharedLibrary && e.sysInfo.TargetSystemName == "Windows"

	locationPaths := a.RelativePaths
	locationKind := "library artifact"
	if windowsShared {
		locationPaths = a.DllPaths
	}
	if err := e.emitLocations(out, a.Name, "IMPORTED_LOCATION", prefixes, locationPaths, locationKind); err != nil {
		return err
	}

	if windowsShared {
		if err := e.emitLocations(out, a.Name, "IMPORTED_IMPLIB", prefixes, a.ImplibPaths, "implib artifact"); err != nil {
			return err
		}
	}

	if len(a.IncludeLinks) > 0 {
		if err := e.emitIncludeLinks(out, a, all, prefixes); err != nil {
			return err
		}
	}

	return e.emitDefinitions(out, a)
}

// emitIncludeLinks resolves each include link to an IncludeDirectory
// artifact of this run and writes INTERFACE_INCLUDE_DIRECTORIES.
func (e *Exporter) emitIncludeLinks(out *strings.Builder, a *artifact.Artifact, all []artifact.Artifact, prefixes []string) error {
	var linked []*artifact.Artifact
	for _, link := range a.IncludeLinks {
		found := false
		for i := range all {
			if all[i].Type == artifact.TypeIncludeDirectory && all[i].Name == link {
				found = true
				linked = append(linked, &all[i])
			}
		}
		if !found {
			return fmt.Errorf("library %s requires include non-existing include directory %s", a.Name, link)
		}
	}

	var dirs strings.Builder
	for _, inc := range linked {
		dirs.WriteString("\n  ")
		paths := make([]string, len(prefixes))
		for i := range prefixes {
			paths[i] = cmakePath(filepath.Join(prefixes[i], "install", inc.RelativePaths[i]))
		}
		dirs.WriteString(e.configExpression(paths))
	}

	fmt.Fprintf(out, "set_target_properties(%s PROPERTIES INTERFACE_INCLUDE_DIRECTORIES%s\n)\n", a.Name, dirs.String())
	return nil
}

// emitDefinitions writes INTERFACE_COMPILE_DEFINITIONS when any
// configuration declares preprocessor definitions. Each configuration's
// list is quoted and semicolon-joined.
func (e *Exporter) emitDefinitions(out *strings.Builder, a *artifact.Artifact) error {
	hasDefinitions := false
	for _, defs := range a.Definitions {
		if len(defs) > 0 {
			hasDefinitions = true
			break
		}
	}
	if !hasDefinitions {
		return nil
	}

	quoted := make([]string, len(a.Definitions))
	for i, defs := range a.Definitions {
		quoted[i] = "\"" + strings.Join(defs, ";") + "\""
	}

	fmt.Fprintf(out, "set_target_properties(%s PROPERTIES INTERFACE_COMPILE_DEFINITIONS\n  %s\n)\n",
		a.Name, e.configExpression(quoted))
	return nil
}
