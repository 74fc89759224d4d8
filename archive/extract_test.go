package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var sampleFiles = map[string]string{
	"cardfiles/ABRFC.qme":   "QME 1 2 3",
	"cardfiles/sub/map.txt": "MAP",
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func tarBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "cardfiles/", Typeflag: tar.TypeDir, Mode: 0755}))
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(body)),
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func requireExtracted(t *testing.T, dest string) {
	t.Helper()
	for name, body := range sampleFiles {
		data, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(name)))
		require.NoError(t, err)
		require.Equal(t, body, string(data))
	}
}

func TestExtract_Zip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "data.zip")
	writeZip(t, archivePath, sampleFiles)

	format, err := Detect(archivePath)
	require.NoError(t, err)
	require.Equal(t, FormatZip, format)

	dest := filepath.Join(dir, "out")
	require.NoError(t, Extract(archivePath, dest))
	requireExtracted(t, dest)

	_, err = os.Stat(archivePath)
	require.True(t, os.IsNotExist(err), "archive should be removed after extraction")
}

func TestExtract_Tar(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "data.tar")
	require.NoError(t, os.WriteFile(archivePath, tarBytes(t, sampleFiles), 0644))

	format, err := Detect(archivePath)
	require.NoError(t, err)
	require.Equal(t, FormatTar, format)

	require.NoError(t, Extract(archivePath, dir))
	requireExtracted(t, dir)
}

func TestExtract_TarGz(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "data.tgz")

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(tarBytes(t, sampleFiles))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0644))

	format, err := Detect(archivePath)
	require.NoError(t, err)
	require.Equal(t, FormatTarGz, format)

	require.NoError(t, Extract(archivePath, dir))
	requireExtracted(t, dir)
}

func TestExtract_Unsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.zip")
	require.NoError(t, os.WriteFile(path, []byte("just some text"), 0644))

	err := Extract(path, dir)
	require.ErrorIs(t, err, ErrUnsupportedArchive)

	_, err = os.Stat(path)
	require.NoError(t, err, "archive must be kept on failure")
}

func TestExtract_RejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")
	writeZip(t, archivePath, map[string]string{"../../escaped.txt": "x"})

	dest := filepath.Join(dir, "out")
	err := Extract(archivePath, dest)
	require.ErrorIs(t, err, ErrUnsafePath)

	_, err = os.Stat(archivePath)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "..", "escaped.txt"))
	require.True(t, os.IsNotExist(err))
}

func TestHasArchiveExt(t *testing.T) {
	require.True(t, HasArchiveExt("a.zip"))
	require.True(t, HasArchiveExt("A.TAR.GZ"))
	require.True(t, HasArchiveExt("b.tgz"))
	require.True(t, HasArchiveExt("c.tar"))
	require.False(t, HasArchiveExt("d.qme"))
	require.False(t, HasArchiveExt("zip"))
}
