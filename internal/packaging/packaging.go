// Package packaging lists, serves and archives the contents of the output
// directory.
package packaging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"

	"sentica-backend/internal/services"
)

// ArchiveName is excluded from its own contents.
const ArchiveName = "outputs.zip"

// List returns the regular, non-hidden files in dir, sorted. A missing dir
// is empty.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			files = append(files, e.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}

// Open resolves name inside dir. Anything that is not a plain file directly
// in dir reports services.ErrNotFound.
func Open(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", services.Wrap(services.ErrNotFound, "outputs", "open", "file not found", nil)
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrNotFound, "outputs", "open", "file not found", err)
	}
	return path, nil
}

// BuildZip archives every regular file in dir into dir/outputs.zip,
// replacing any previous archive.
func BuildZip(dir string) (string, error) {
	files, err := List(dir)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(dir, ArchiveName)
	tmp, err := os.CreateTemp(dir, ".outputs-*.zip")
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	for _, name := range files {
		if name == ArchiveName {
			continue
		}
		if err := addFile(zw, dir, name); err != nil {
			tmp.Close()
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("finish archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("finish archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("replace archive: %w", err)
	}
	return dest, nil
}

func addFile(zw *zip.Writer, dir, name string) error {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	return nil
}
