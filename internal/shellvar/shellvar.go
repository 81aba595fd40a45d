// Package shellvar reads variables out of package build files. Build files
// are POSIX shell fragments and are never parsed by this tool; bash sources
// them and echoes the requested values back.
package shellvar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jusblock/cxxpm/internal/pathconv"
	"github.com/jusblock/cxxpm/internal/subproc"
)

// Load sources buildFile and returns the values of the named variables, in
// order. Each value is echoed with an "@" terminator so that empty values
// survive the line split; a count mismatch means the file failed to source.
func Load(runner *subproc.Runner, buildFile string, names []string) ([]string, error) {
	var script strings.Builder
	script.WriteString("set -e; source ")
	script.WriteString(pathconv.Convert(buildFile, pathconv.StylePosix))
	script.WriteString("; ")
	for _, name := range names {
		script.WriteString("echo $")
		script.WriteString(name)
		script.WriteString("@; ")
	}

	res, err := runner.Run(context.Background(), subproc.Opts{
		Dir:       filepath.Dir(buildFile),
		Path:      "bash",
		Args:      []string{"-c", script.String()},
		MustExist: true,
	})
	if err != nil {
		if res.Stderr != "" {
			fmt.Fprintln(os.Stderr, res.Stderr)
		}
		return nil, fmt.Errorf("can't source %s: %w", buildFile, err)
	}

	var values []string
	for _, line := range strings.Split(strings.ReplaceAll(res.Stdout, "\r", "\n"), "\n") {
		if line == "" || !strings.HasSuffix(line, "@") {
			continue
		}
		values = append(values, strings.TrimSuffix(line, "@"))
	}

	if len(values) != len(names) {
		return nil, fmt.Errorf("can't load %s from %s", strings.Join(names, ", "), buildFile)
	}
	return values, nil
}

// LoadOne reads a single variable from buildFile.
func LoadOne(runner *subproc.Runner, buildFile, name string) (string, error) {
	values, err := Load(runner, buildFile, []string{name})
	if err != nil {
		return "", err
	}
	return values[0], nil
}
