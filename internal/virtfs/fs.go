// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package virtfs

import (
	"errors"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/aibor/vfstree/internal/vfs"
)

const (
	dirFileMode     = 0o555
	regularFileMode = 0o444
)

var (
	_ fs.FS        = (*FS)(nil)
	_ fs.ReadDirFS = (*FS)(nil)
	_ fs.StatFS    = (*FS)(nil)
)

// FS is a read-only [fs.FS] backed by a [vfs.Tree].
//
// It does not lock the tree. The tree must not be modified while files
// opened from the FS are in use.
type FS struct {
	tree *vfs.Tree
}

// New creates a new [FS] for the given tree.
func New(tree *vfs.Tree) *FS {
	return &FS{tree: tree}
}

// Open opens the named file or directory.
//
// It returns a [PathError] in case of errors.
func (fsys *FS) Open(name string) (fs.File, error) {
	file, err := fsys.open(name)
	if err != nil {
		return nil, &PathError{
			Op:   "open",
			Path: name,
			Err:  err,
		}
	}

	return file, nil
}

// Stat returns information about the named file or directory.
//
// It returns a [PathError] in case of errors.
func (fsys *FS) Stat(name string) (fs.FileInfo, error) {
	entry, err := fsys.find(name)
	if err != nil {
		return nil, &PathError{
			Op:   "stat",
			Path: name,
			Err:  err,
		}
	}

	return &fileInfo{entry}, nil
}

// ReadDir reads the named directory and returns its entries sorted by
// filename.
//
// It returns a [PathError] in case of errors.
func (fsys *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := fsys.readDir(name)
	if err != nil {
		return nil, &PathError{
			Op:   "readdir",
			Path: name,
			Err:  err,
		}
	}

	return entries, nil
}

func (fsys *FS) open(name string) (fs.File, error) {
	entry, err := fsys.find(name)
	if err != nil {
		return nil, err
	}

	file := &openFile{info: fileInfo{entry}}

	if entry.dir != nil {
		file.cursor = fsys.tree.OpenCursor(entry.dir)
	}

	return file, nil
}

func (fsys *FS) readDir(name string) ([]fs.DirEntry, error) {
	file, err := fsys.open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dir, isDir := file.(fs.ReadDirFile)
	if !isDir {
		return nil, ErrFileNotDir
	}

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})

	return entries, nil
}

// find resolves an [fs.ValidPath] name in the tree. Files are tried first,
// since the tree distinguishes them from directories by the trailing
// separator.
func (fsys *FS) find(name string) (dirEntry, error) {
	if !fs.ValidPath(name) {
		return dirEntry{}, ErrFileInvalid
	}

	if name == "." {
		root, _, err := fsys.tree.LookupDir("", nil, 0)
		if err != nil {
			return dirEntry{}, translate(err)
		}

		return dirEntry{name: ".", dir: root}, nil
	}

	file, exact, err := fsys.tree.LookupFile(name, nil, 0)
	if err == nil {
		return dirEntry{name: path.Base(exact), file: file}, nil
	}

	if !errors.Is(err, vfs.ErrFileNotFound) {
		return dirEntry{}, translate(err)
	}

	dir, exact, err := fsys.tree.LookupDir(name+"/", nil, 0)
	if err != nil {
		return dirEntry{}, translate(err)
	}

	return dirEntry{name: path.Base(exact), dir: dir}, nil
}

// translate maps tree lookup errors to [fs] errors.
func translate(err error) error {
	switch {
	case errors.Is(err, vfs.ErrPathNotFound), errors.Is(err, vfs.ErrFileNotFound):
		return ErrFileNotExist
	case errors.Is(err, vfs.ErrPathTooLong):
		return ErrFileInvalid
	default:
		return err
	}
}
