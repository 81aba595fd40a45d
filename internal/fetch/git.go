package fetch

import (
	"context"
	"fmt"

	"github.com/jusblock/cxxpm/internal/subproc"
)

// Git clones url into dest (which must exist and be empty), optionally
// checking out tag, then hard-resets to commit when one is given.
// A failed reset is reported but does not abort: the clone already matches
// the tag.
func (f *Fetcher) Git(ctx context.Context, dest, url, tag, commit string) error {
	args := []string{"clone", url, "."}
	if tag != "" {
		args = append(args, "-b", tag)
	}

	if err := f.runner.RunInherit(ctx, subproc.Opts{
		Dir: dest, Path: "git", Args: args, MustExist: true,
	}); err != nil {
		return fmt.Errorf("git clone error url: %s tag: %s: %w", url, tag, err)
	}

	if commit != "" {
		if err := f.runner.RunInherit(ctx, subproc.Opts{
			Dir: dest, Path: "git", Args: []string{"reset", "--hard", commit}, MustExist: true,
		}); err != nil {
			f.logger.Warn("git reset hard error", "commit", commit, "error", err)
		}
	}

	return nil
}
