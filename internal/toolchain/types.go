// Package toolchain discovers and characterizes the C/C++ compilers for a
// requested target, reconciles their reported triples with the target, and
// locates auxiliary tools. The merged result determines the toolchain
// sub-type and ultimately the content-addressed install prefix.
package toolchain

import (
	"fmt"
	"runtime"
	"strings"
)

// Language is a compiled language a package may declare.
type Language int

const (
	LangC Language = iota
	LangCXX
	languageCount
)

// LanguageFromString parses the LANGS spelling ("C" or "C++").
func LanguageFromString(s string) (Language, bool) {
	switch s {
	case "C":
		return LangC, true
	case "C++":
		return LangCXX, true
	}
	return 0, false
}

func (l Language) String() string {
	switch l {
	case LangC:
		return "C"
	case LangCXX:
		return "C++"
	}
	return "<unknown>"
}

// EnvName is the spelling used in CXXPM_COMPILER_* variable names.
func (l Language) EnvName() string {
	switch l {
	case LangC:
		return "C"
	case LangCXX:
		return "CXX"
	}
	return "<unknown>"
}

// CompilerType classifies a detected compiler.
type CompilerType int

const (
	CompilerUnknown CompilerType = iota
	CompilerGCC
	CompilerClang
	CompilerMSVC
)

func (t CompilerType) String() string {
	switch t {
	case CompilerGCC:
		return "gcc"
	case CompilerClang:
		return "clang"
	case CompilerMSVC:
		return "msvc"
	}
	return "<unknown>"
}

// ToolType identifies an auxiliary toolchain tool.
type ToolType int

const (
	ToolLinker ToolType = iota
	ToolResourceCompiler
	toolCount
)

// EnvName is the spelling used in CXXPM_TOOL_* variable names.
func (t ToolType) EnvName() string {
	switch t {
	case ToolLinker:
		return "LINKER"
	case ToolResourceCompiler:
		return "RC"
	}
	return "<unknown>"
}

// CompilerInfo describes one detected compiler. When ID is non-empty the
// probe succeeded: Type is known and ReportedTarget is set.
type CompilerInfo struct {
	// Command is the compiler executable; absolute once probed.
	Command string

	// ID is an opaque stable identifier combining the compiler banner and
	// its reported target, e.g. "gcc version 13.2.0-x86_64-linux-gnu".
	ID string

	Type CompilerType

	// SubType is the target sub-classification contributed by this
	// compiler (msvc, mingw-w64, cygwin), empty otherwise.
	SubType string

	DetectedSystemName      string
	DetectedSystemProcessor string

	// DetectedMultiArch lists additional processors this binary can
	// target. Populated for Darwin Clang.
	DetectedMultiArch []string

	// ReportedTarget is the compiler's own triple string.
	ReportedTarget string
}

// Compilers holds one entry per language, indexed by Language.
type Compilers [languageCount]CompilerInfo

// Get returns the compiler slot for lang.
func (c *Compilers) Get(lang Language) *CompilerInfo {
	return &c[lang]
}

// ToolInfo describes one located auxiliary tool.
type ToolInfo struct {
	Command string
}

// Tools holds one entry per ToolType.
type Tools [toolCount]ToolInfo

// Get returns the tool slot for typ.
func (t *Tools) Get(typ ToolType) *ToolInfo {
	return &t[typ]
}

// ParseCompilerOption handles a --compiler argument of the form
// "<lang>:<command>", e.g. "C++:/usr/bin/clang++". The command may itself
// contain colons (Windows drive letters); only the first colon splits.
func ParseCompilerOption(compilers *Compilers, option string) error {
	langPart, command, ok := strings.Cut(option, ":")
	if !ok || langPart == "" || command == "" {
		return fmt.Errorf("can't parse compiler option: %s", option)
	}

	lang, ok := LanguageFromString(langPart)
	if !ok {
		return fmt.Errorf("unsupported language %s", langPart)
	}

	if runtime.GOOS == "darwin" {
		// The CommandLineTools cc/c++ shims reject -v probing; use the
		// real clang drivers instead.
		switch command {
		case "/Library/Developer/CommandLineTools/usr/bin/cc":
			command = "clang"
		case "/Library/Developer/CommandLineTools/usr/bin/c++":
			command = "clang++"
		}
	}

	compilers.Get(lang).Command = command
	return nil
}
