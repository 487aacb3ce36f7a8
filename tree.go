package epubfix

import (
	"archive/zip"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// workingTree is the private scratch copy of the package contents for the
// duration of one run. It owns every mutation the pipeline performs
// (renames, content transforms, removals); the input archive is never
// touched. Files live on an afero filesystem so tests can run fully
// in memory.
//
// The tree keeps its own path index so traversal order is deterministic
// (sorted by path) regardless of the backing filesystem.
type workingTree struct {
	fs    afero.Fs
	paths map[string]bool
}

func newWorkingTree(fs afero.Fs) *workingTree {
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	return &workingTree{fs: fs, paths: make(map[string]bool)}
}

// populate extracts every file entry of the archive into the tree.
// Unsafe entry paths and oversized entries are fatal: the pipeline must
// abort before any output is produced.
func (t *workingTree) populate(zr *zip.Reader) error {
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
			continue
		}
		if !isSafePath(f.Name) {
			return fmt.Errorf("epubfix: unsafe zip entry path %q: %w", f.Name, ErrInvalidArchive)
		}
		data, err := readZipFile(f)
		if err != nil {
			return err
		}
		if err := t.write(path.Clean(f.Name), data); err != nil {
			return fmt.Errorf("epubfix: populate working tree: %w", err)
		}
	}
	return nil
}

func (t *workingTree) read(name string) ([]byte, error) {
	if !t.paths[name] {
		return nil, ErrFileNotFound
	}
	data, err := afero.ReadFile(t.fs, name)
	if err != nil {
		return nil, fmt.Errorf("epubfix: read %s: %w", name, err)
	}
	return data, nil
}

func (t *workingTree) write(name string, data []byte) error {
	if dir := path.Dir(name); dir != "." {
		if err := t.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := afero.WriteFile(t.fs, name, data, 0o644); err != nil {
		return err
	}
	t.paths[name] = true
	return nil
}

// rename moves a file within the tree, creating the destination directory
// as needed. The caller is responsible for collision checks.
func (t *workingTree) rename(oldName, newName string) error {
	if !t.paths[oldName] {
		return ErrFileNotFound
	}
	if dir := path.Dir(newName); dir != "." {
		if err := t.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := t.fs.Rename(oldName, newName); err != nil {
		return err
	}
	delete(t.paths, oldName)
	t.paths[newName] = true
	return nil
}

func (t *workingTree) remove(name string) error {
	if !t.paths[name] {
		return ErrFileNotFound
	}
	if err := t.fs.Remove(name); err != nil {
		return err
	}
	delete(t.paths, name)
	return nil
}

func (t *workingTree) exists(name string) bool {
	return t.paths[name]
}

func (t *workingTree) size(name string) (int64, error) {
	if !t.paths[name] {
		return 0, ErrFileNotFound
	}
	info, err := t.fs.Stat(name)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// walk returns every file path in the tree, sorted. The sorted order is
// the fixed traversal order the filename restorer depends on.
func (t *workingTree) walk() []string {
	out := make([]string, 0, len(t.paths))
	for p := range t.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// find looks up a file by path, first with an exact match, then falling
// back to a case-insensitive comparison. Returns the actual stored path,
// or empty if no match is found.
func (t *workingTree) find(name string) string {
	if t.paths[name] {
		return name
	}
	lower := strings.ToLower(name)
	for _, p := range t.walk() {
		if strings.ToLower(p) == lower {
			return p
		}
	}
	return ""
}
