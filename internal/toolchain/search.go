package toolchain

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/jusblock/cxxpm/internal/log"
	"github.com/jusblock/cxxpm/internal/subproc"
	"github.com/jusblock/cxxpm/internal/sysinfo"
)

func gccName(lang Language) string {
	if lang == LangCXX {
		return "g++"
	}
	return "gcc"
}

func clangName(lang Language) string {
	if lang == LangCXX {
		return "clang++"
	}
	return "clang"
}

func defaultUnixName(lang Language) string {
	if lang == LangCXX {
		return "c++"
	}
	return "cc"
}

// Search finds a usable compiler for every requested language, reconciles
// the detected toolchains against the requested target, and discovers
// auxiliary tools. On success the target sub-type in sysInfo is final.
//
// Search is incremental: languages already probed (non-empty ID) are kept
// as-is, so dependency installs reuse earlier discoveries.
func Search(runner *subproc.Runner, langs []Language, compilers *Compilers, tools *Tools, sysInfo *sysinfo.SystemInfo, logger log.Logger) error {
	for _, lang := range langs {
		info := compilers.Get(lang)
		if info.ID != "" {
			continue
		}

		if info.Command != "" {
			// An explicit command: characterize it.
			if ok, err := probeMSVC(runner, info, sysInfo, logger); err != nil {
				return err
			} else if ok {
				return fmt.Errorf("direct path to MSVC compiler not supported; use the environment from vcvars or --vs-install-dir")
			}
			if ProbeGNU(runner, info, logger) {
				continue
			}
			return fmt.Errorf("can't interact with %s as compiler", info.Command)
		}

		if runtime.GOOS == "windows" {
			// Search priority on Windows: visual studio, gcc, clang.
			if ok, err := probeMSVC(runner, info, sysInfo, logger); err != nil {
				return err
			} else if ok {
				continue
			}

			info.Command = gccName(lang)
			if ProbeGNU(runner, info, logger) {
				continue
			}

			info.Command = clangName(lang)
			if ProbeGNU(runner, info, logger) {
				continue
			}
		} else {
			info.Command = defaultUnixName(lang)
			if ProbeGNU(runner, info, logger) {
				continue
			}
		}

		return fmt.Errorf("can't find %s compiler", lang)
	}

	if err := reconcile(langs, compilers, sysInfo); err != nil {
		return err
	}

	// Auxiliary tools.
	if sysInfo.TargetSystemSubType == "msvc" {
		if err := lookupMSVCVersion(sysInfo); err != nil {
			return err
		}
		return nil
	}
	return searchGNUTools(runner, tools, compilers, sysInfo)
}

// reconcile enforces that every detected compiler agrees with the requested
// target and with the other compilers, and derives the target sub-type.
func reconcile(langs []Language, compilers *Compilers, sysInfo *sysinfo.SystemInfo) error {
	sysInfo.TargetSystemSubType = ""
	for _, lang := range langs {
		info := compilers.Get(lang)

		if info.DetectedSystemName != "" && info.DetectedSystemName != sysInfo.TargetSystemName {
			return fmt.Errorf("target system is %s, %s compiler target is %s",
				sysInfo.TargetSystemName, lang, info.DetectedSystemName)
		}

		if info.DetectedSystemProcessor != "" && info.DetectedSystemProcessor != sysInfo.TargetSystemProcessor {
			if !slices.Contains(info.DetectedMultiArch, sysInfo.TargetSystemProcessor) {
				return fmt.Errorf("target processor is %s, %s compiler target is %s",
					sysInfo.TargetSystemProcessor, lang, info.DetectedSystemProcessor)
			}
		}

		if sysInfo.TargetSystemSubType != "" {
			if sysInfo.TargetSystemSubType != info.SubType {
				other := info.SubType
				if other == "" {
					other = "<none>"
				}
				return fmt.Errorf("compilers with different system subtypes (%s and %s) detected",
					sysInfo.TargetSystemSubType, other)
			}
		} else {
			sysInfo.TargetSystemSubType = info.SubType
		}
	}

	c := compilers.Get(LangC)
	cpp := compilers.Get(LangCXX)
	if c.ID != "" && cpp.ID != "" && (c.Type == CompilerMSVC || cpp.Type == CompilerMSVC) {
		if c.Command != cpp.Command || c.Type != cpp.Type {
			return fmt.Errorf("different C/C++ compilers of MSVC type not supported\nC: %s\nC++: %s",
				c.Command, cpp.Command)
		}
	}

	return nil
}
