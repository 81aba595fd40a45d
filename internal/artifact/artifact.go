// Package artifact models the build products a package declares through its
// artifacts shell function: a tagged record with one entry per build
// configuration, folded together by Merge.
package artifact

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Type tags an artifact kind.
type Type int

const (
	TypeUnknown Type = iota
	TypeIncludeDirectory
	TypeStaticLibrary
	TypeSharedLibrary
	TypeExecutable
	TypeLibSet
	TypeCMakeModule
)

// TypeFromString parses the "type" field of the artifact JSON.
func TypeFromString(s string) Type {
	switch s {
	case "include":
		return TypeIncludeDirectory
	case "static_lib":
		return TypeStaticLibrary
	case "shared_lib":
		return TypeSharedLibrary
	case "executable":
		return TypeExecutable
	case "libset":
		return TypeLibSet
	case "cmake_module":
		return TypeCMakeModule
	}
	return TypeUnknown
}

func (t Type) String() string {
	switch t {
	case TypeIncludeDirectory:
		return "include"
	case TypeStaticLibrary:
		return "static_lib"
	case TypeSharedLibrary:
		return "shared_lib"
	case TypeExecutable:
		return "executable"
	case TypeLibSet:
		return "libset"
	case TypeCMakeModule:
		return "cmake_module"
	}
	return "<unknown>"
}

// Artifact is one logical build product. The per-configuration vectors
// (RelativePaths, DllPaths, ImplibPaths, Definitions) grow by one entry per
// merged configuration and stay index-aligned with the configuration list.
type Artifact struct {
	Type Type
	Name string

	// Libs names the libraries of a libset; identical across
	// configurations.
	Libs []string

	// IncludeLinks names sibling include artifacts a library exports.
	IncludeLinks []string

	RelativePaths []string
	DllPaths      []string
	ImplibPaths   []string
	Definitions   [][]string
}

type jsonArtifact struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Path        *string  `json:"path"`
	Dll         *string  `json:"dll"`
	Implib      *string  `json:"implib"`
	Includes    []string `json:"includes"`
	Definitions []string `json:"definitions"`
	Libs        []string `json:"libs"`
}

// ParseList decodes the JSON array printed by a package's artifacts
// function into single-configuration artifacts.
func ParseList(data []byte) ([]Artifact, error) {
	var raw []jsonArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	artifacts := make([]Artifact, 0, len(raw))
	for _, ja := range raw {
		a, err := fromJSON(ja)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

func fromJSON(ja jsonArtifact) (Artifact, error) {
	if ja.Type == "" || ja.Name == "" {
		return Artifact{}, fmt.Errorf("type and name fields must be non-empty strings")
	}

	a := Artifact{Name: ja.Name, Type: TypeFromString(ja.Type)}
	switch a.Type {
	case TypeUnknown:
		return Artifact{}, fmt.Errorf("invalid artifact type %s", ja.Type)

	case TypeIncludeDirectory, TypeExecutable, TypeCMakeModule:
		if ja.Path == nil {
			return Artifact{}, fmt.Errorf("artifact %s: path field must be a string", ja.Name)
		}
		a.RelativePaths = []string{*ja.Path}

	case TypeStaticLibrary, TypeSharedLibrary:
		if ja.Path == nil {
			return Artifact{}, fmt.Errorf("artifact %s: path field must be a string", ja.Name)
		}
		a.RelativePaths = []string{*ja.Path}
		a.IncludeLinks = ja.Includes
		a.Definitions = [][]string{ja.Definitions}

		if a.Type == TypeSharedLibrary {
			if ja.Dll == nil {
				return Artifact{}, fmt.Errorf("artifact %s: dll field must be a string", ja.Name)
			}
			if ja.Implib == nil {
				return Artifact{}, fmt.Errorf("artifact %s: implib field must be a string", ja.Name)
			}
			a.DllPaths = []string{*ja.Dll}
			a.ImplibPaths = []string{*ja.Implib}
		}

	case TypeLibSet:
		if ja.Libs == nil {
			return Artifact{}, fmt.Errorf("artifact %s: libs field must be an array", ja.Name)
		}
		a.Libs = ja.Libs
	}

	return a, nil
}

// Merge folds a single-configuration artifact into a, appending to the
// per-configuration vectors. Both artifacts must agree on type and name;
// libsets must carry the same set of libraries in every configuration.
func (a *Artifact) Merge(other Artifact) error {
	if a.Type != other.Type || a.Name != other.Name {
		return fmt.Errorf("can't merge artifacts: <%s/%s> and <%s/%s>",
			a.Type, a.Name, other.Type, other.Name)
	}

	switch a.Type {
	case TypeStaticLibrary, TypeSharedLibrary:
		if len(other.RelativePaths) != 1 || len(other.Definitions) != 1 {
			return fmt.Errorf("artifact %s/%s is not a single-configuration artifact", other.Type, other.Name)
		}
		a.RelativePaths = append(a.RelativePaths, other.RelativePaths[0])
		a.Definitions = append(a.Definitions, other.Definitions[0])

		if a.Type == TypeSharedLibrary {
			if len(other.DllPaths) != 1 || len(other.ImplibPaths) != 1 {
				return fmt.Errorf("artifact %s/%s is not a single-configuration artifact", other.Type, other.Name)
			}
			a.DllPaths = append(a.DllPaths, other.DllPaths[0])
			a.ImplibPaths = append(a.ImplibPaths, other.ImplibPaths[0])
		}

	case TypeIncludeDirectory, TypeExecutable, TypeCMakeModule:
		if len(other.RelativePaths) != 1 {
			return fmt.Errorf("artifact %s/%s is not a single-configuration artifact", other.Type, other.Name)
		}
		a.RelativePaths = append(a.RelativePaths, other.RelativePaths[0])

	case TypeLibSet:
		if !sameSet(a.Libs, other.Libs) {
			return fmt.Errorf("artifact %s libs mismatch in different configurations", a.Name)
		}

	default:
		return fmt.Errorf("can't merge artifact of type %s", a.Type)
	}

	return nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
