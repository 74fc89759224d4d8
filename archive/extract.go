// Package archive unpacks the zip and tar archives published alongside
// historical data.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrUnsupportedArchive = errors.New("unsupported archive format")
	ErrUnsafePath         = errors.New("archive entry escapes destination")
)

// Format is a supported archive container
type Format string

const (
	FormatZip   Format = "zip"
	FormatTar   Format = "tar"
	FormatTarGz Format = "tar.gz"
)

// Extensions recognised by HasArchiveExt
var extensions = []string{".zip", ".tar", ".tar.gz", ".tgz"}

// HasArchiveExt reports whether name looks like an archive by its extension
func HasArchiveExt(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Detect sniffs the archive format from the file content
func Detect(path string) (Format, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to detect format of %s: %w", path, err)
	}

	switch {
	case is(mt, "application/zip"):
		return FormatZip, nil
	case is(mt, "application/x-tar"):
		return FormatTar, nil
	case is(mt, "application/gzip"):
		return FormatTarGz, nil
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedArchive, path, mt.String())
}

// is matches mt or any of its ancestors (a jar is also a zip)
func is(mt *mimetype.MIME, mime string) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is(mime) {
			return true
		}
	}
	return false
}

// Extract unpacks archivePath into destDir, creating it if needed, and
// removes the archive once everything has been written. On failure the
// archive is left in place.
func Extract(archivePath, destDir string) error {
	format, err := Detect(archivePath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	switch format {
	case FormatZip:
		err = extractZip(archivePath, destDir)
	case FormatTar:
		err = withFile(archivePath, func(r io.Reader) error { return extractTar(r, destDir) })
	case FormatTarGz:
		err = withFile(archivePath, func(r io.Reader) error {
			gz, err := gzip.NewReader(r)
			if err != nil {
				return err
			}
			defer gz.Close()
			return extractTar(gz, destDir)
		})
	}
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", archivePath, err)
	}

	if err := os.Remove(archivePath); err != nil {
		return fmt.Errorf("failed to remove %s: %w", archivePath, err)
	}
	return nil
}

func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

func extractZip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		target, err := entryPath(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeFile(target, rc, f.Mode().Perm())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTar(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := entryPath(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		default:
			// links and devices are not expected in data archives
		}
	}
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0644
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func entryPath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}
