package packaging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentica-backend/internal/services"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("data "+n), 0o644))
	}
}

func TestListSortedAndMissingDir(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.png", "a.csv", ".hidden")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	files, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.png"}, files)

	files, err = List(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestOpenRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "report.pdf")

	path, err := Open(dir, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.pdf"), path)

	for _, name := range []string{"../etc/passwd", "", "..", "sub/x", `a\b`, "missing.txt"} {
		_, err := Open(dir, name)
		assert.True(t, errors.Is(err, services.ErrNotFound), name)
	}
}

func TestBuildZipExcludesItself(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "analysis.csv", "report.pdf")

	path, err := BuildZip(dir)
	require.NoError(t, err)
	// A second build must not nest the first archive.
	path, err = BuildZip(dir)
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"analysis.csv", "report.pdf"}, names)

	files, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"analysis.csv", ArchiveName, "report.pdf"}, files)
}
