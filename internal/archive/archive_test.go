package archive_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/flightprep/internal/archive"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtractZipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "data.zip")
	writeZip(t, zipPath, map[string]string{
		"report.csv":        "a,b\n1,2\n",
		"nested/readme.txt": "hello",
	})

	out := filepath.Join(dir, "extracted")
	files, err := archive.ExtractZip(zipPath, out)
	require.NoError(t, err)
	require.Len(t, files, 2)

	data, err := os.ReadFile(filepath.Join(out, "report.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestExtractZipRejectsCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "broken.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("this is not a zip"), 0o644))

	_, err := archive.ExtractZip(zipPath, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.zip")
}

func TestExtractZipContainsTraversalEntries(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{
		"../escape.txt": "nope",
	})

	out := filepath.Join(dir, "extracted")
	files, err := archive.ExtractZip(zipPath, out)
	require.NoError(t, err)
	require.Len(t, files, 1)
	// The entry lands inside the extraction directory, never above it.
	assert.True(t, strings.HasPrefix(files[0], out+string(os.PathSeparator)))
	_, statErr := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractTarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tarPath := filepath.Join(dir, "states.tar")

	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)
	content := "time,icao24\n100,a0b1c2\n"
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "states/states.csv",
		Mode: 0o644,
		Size: int64(len(content)),
	}))
	_, err := tw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, os.WriteFile(tarPath, buf.Bytes(), 0o644))

	out := filepath.Join(dir, "extracted")
	files, err := archive.ExtractTar(tarPath, out)
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestExtractTarRejectsCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	tarPath := filepath.Join(dir, "broken.tar")
	require.NoError(t, os.WriteFile(tarPath, []byte("short and wrong"), 0o644))

	_, err := archive.ExtractTar(tarPath, filepath.Join(dir, "out"))
	require.Error(t, err)
}

func TestFindByExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"b.csv", "a.csv", "notes.txt", "sub/c.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	found, err := archive.FindByExtension(dir, ".csv")
	require.NoError(t, err)
	require.Len(t, found, 3)
	// Sorted lexically.
	assert.Equal(t, filepath.Join(dir, "a.csv"), found[0])
	assert.Equal(t, filepath.Join(dir, "b.csv"), found[1])
	assert.Equal(t, filepath.Join(dir, "sub", "c.csv"), found[2])
}
