package fetch

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	lzip "github.com/sorairolake/lzip-go"
	"github.com/ulikunitz/xz"
)

// Extract unpacks archivePath into dest, dispatching on the filename
// suffix. Unknown suffixes are an error naming the file.
func (f *Fetcher) Extract(archivePath, dest string) error {
	name := filepath.Base(archivePath)
	lower := strings.ToLower(name)

	switch {
	case strings.HasSuffix(lower, ".zip"):
		return extractZip(archivePath, dest)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return extractCompressedTar(archivePath, dest, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case strings.HasSuffix(lower, ".tar.bz2"):
		return extractCompressedTar(archivePath, dest, func(r io.Reader) (io.Reader, error) {
			return bzip2.NewReader(r), nil
		})
	case strings.HasSuffix(lower, ".tar.xz"):
		return extractCompressedTar(archivePath, dest, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		})
	case strings.HasSuffix(lower, ".tar.lz"), strings.HasSuffix(lower, ".tar.lzma"):
		return extractCompressedTar(archivePath, dest, func(r io.Reader) (io.Reader, error) {
			return lzip.NewReader(r)
		})
	case strings.HasSuffix(lower, ".tar.zst"):
		return f.extractZstdTar(archivePath, dest)
	default:
		return fmt.Errorf("unknown archive file: %s", archivePath)
	}
}

// extractZstdTar keeps the historic two-phase contract: the zstd stream is
// decoded to a temporary tarball next to the cached archive, then untarred.
func (f *Fetcher) extractZstdTar(archivePath, dest string) error {
	name := filepath.Base(archivePath)
	tmpPath := filepath.Join(f.distrDir, "tmp-"+strings.TrimSuffix(name, ".zst"))
	defer os.Remove(tmpPath)

	in, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("unpacking error: %w", err)
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return fmt.Errorf("unpacking error: %w", err)
	}
	defer dec.Close()

	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("unpacking error: %w", err)
	}
	if _, err := io.Copy(out, dec); err != nil {
		out.Close()
		return fmt.Errorf("unpacking error: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("unpacking error: %w", err)
	}

	return extractCompressedTar(tmpPath, dest, func(r io.Reader) (io.Reader, error) {
		return r, nil
	})
}

func extractCompressedTar(archivePath, dest string, decompress func(io.Reader) (io.Reader, error)) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("unpacking error: %w", err)
	}
	defer file.Close()

	r, err := decompress(file)
	if err != nil {
		return fmt.Errorf("unpacking error: %w", err)
	}

	return extractTar(tar.NewReader(r), dest)
}

func extractTar(tr *tar.Reader, dest string) error {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("unpacking error: %w", err)
		}

		target := filepath.Join(dest, header.Name)
		if !withinDir(target, dest) {
			return fmt.Errorf("archive entry escapes destination: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(header.Mode)&0o777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := checkSymlink(header.Linkname, target, dest); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return err
			}
		}
	}
}

func extractZip(archivePath, dest string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("unpacking error: %w", err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		target := filepath.Join(dest, entry.Name)
		if !withinDir(target, dest) {
			return fmt.Errorf("archive entry escapes destination: %s", entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		in, err := entry.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, entry.Mode()&0o777)
		if err != nil {
			in.Close()
			return err
		}
		_, copyErr := io.Copy(out, in)
		in.Close()
		closeErr := out.Close()
		if copyErr != nil {
			return copyErr
		}
		if closeErr != nil {
			return closeErr
		}
	}

	return nil
}

// withinDir reports whether path stays inside root. The containment test is
// done on the relative path from root: anything that has to climb through
// ".." to be reached is outside. Crafted archive entries must not write
// past the extraction root.
func withinDir(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)))
}

// checkSymlink rejects symlink entries whose target is absolute or would
// resolve outside the extraction root.
func checkSymlink(target, location, root string) error {
	if filepath.IsAbs(target) {
		return fmt.Errorf("absolute symlink target in archive: %s -> %s", location, target)
	}

	if resolved := filepath.Join(filepath.Dir(location), target); !withinDir(resolved, root) {
		return fmt.Errorf("symlink escapes extraction root: %s -> %s", location, target)
	}
	return nil
}
