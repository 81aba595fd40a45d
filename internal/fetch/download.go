// Package fetch obtains package sources and binary distributions: archive
// download into the shared cache with SHA-3 verification, extraction across
// the supported archive formats, and git checkouts.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jusblock/cxxpm/internal/checksum"
	"github.com/jusblock/cxxpm/internal/httputil"
	"github.com/jusblock/cxxpm/internal/log"
	"github.com/jusblock/cxxpm/internal/progress"
	"github.com/jusblock/cxxpm/internal/subproc"
)

// Fetcher downloads and unpacks package distributions. Archives are cached
// in distrDir and reused as long as their hash still matches.
type Fetcher struct {
	client   *http.Client
	runner   *subproc.Runner
	logger   log.Logger
	distrDir string
}

// New creates a Fetcher caching downloads under distrDir.
func New(runner *subproc.Runner, distrDir string, logger log.Logger) *Fetcher {
	if logger == nil {
		logger = log.NewNoop()
	}
	return &Fetcher{
		client:   httputil.NewClient(httputil.DefaultOptions()),
		runner:   runner,
		logger:   logger,
		distrDir: distrDir,
	}
}

// FileNameFromURL derives the cached archive filename from the URL tail.
func FileNameFromURL(url string) (string, error) {
	name := url
	if pos := strings.LastIndex(url, "/"); pos >= 0 {
		name = url[pos+1:]
	}
	if len(name) < 2 {
		return "", fmt.Errorf("invalid url: %s", url)
	}
	return name, nil
}

// Archive ensures the archive at url is present in the distr cache with the
// expected SHA-3-256 hash and extracts it into dest.
//
// A cached file whose hash mismatches is deleted and downloaded again; a
// mismatch after download is fatal and the file is removed.
func (f *Fetcher) Archive(ctx context.Context, url, sha3 string, dest string) error {
	if url == "" {
		return fmt.Errorf("URL must be specified for 'archive'")
	}
	if len(sha3) != checksum.HexLen {
		return fmt.Errorf("SHA3 256 bit hash must be specified for 'archive'")
	}

	name, err := FileNameFromURL(url)
	if err != nil {
		return err
	}
	archivePath := filepath.Join(f.distrDir, name)

	cached := false
	if _, err := os.Stat(archivePath); err == nil {
		existing, err := checksum.File(archivePath)
		if err != nil {
			return fmt.Errorf("can't calculate SHA3 hash of %s: %w", archivePath, err)
		}
		if existing == sha3 {
			fmt.Printf("Archive %s already exists\n", archivePath)
			cached = true
		} else {
			fmt.Fprintf(os.Stderr, "WARNING: SHA3 mismatch: sha3(%s)=%s, required %s\n", archivePath, existing, sha3)
			if err := os.Remove(archivePath); err != nil {
				return fmt.Errorf("can't delete file %s: %w", archivePath, err)
			}
		}
	}

	if !cached {
		if err := f.download(ctx, url, archivePath); err != nil {
			return fmt.Errorf("can't download file %s: %w", url, err)
		}

		downloaded, err := checksum.File(archivePath)
		if err != nil {
			return fmt.Errorf("can't calculate SHA3 hash of %s: %w", archivePath, err)
		}
		if downloaded != sha3 {
			os.Remove(archivePath)
			return fmt.Errorf("SHA3 mismatch: sha3(%s)=%s, required %s", archivePath, downloaded, sha3)
		}
	}

	return f.Extract(archivePath, dest)
}

func (f *Fetcher) download(ctx context.Context, url, dst string) error {
	fmt.Printf("Downloading %s\n", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %s", resp.Status)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	var w io.Writer = out
	var pw *progress.Writer
	if progress.Enabled() {
		pw = progress.NewWriter(out, resp.ContentLength, os.Stdout)
		w = pw
	}

	_, copyErr := io.Copy(w, resp.Body)
	if pw != nil {
		pw.Finish()
	}
	closeErr := out.Close()

	if copyErr != nil {
		os.Remove(dst)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(dst)
		return closeErr
	}
	return nil
}
