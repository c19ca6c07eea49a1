// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package virtfs

import (
	"errors"
	"io"
	"io/fs"
	"time"

	"github.com/aibor/vfstree/internal/vfs"
)

var (
	_ fs.FileInfo = (*fileInfo)(nil)
	_ fs.DirEntry = (*dirEntry)(nil)
)

// dirEntry is either a directory or a file of the tree, never both.
type dirEntry struct {
	name string
	dir  *vfs.Dir
	file *vfs.File
}

// entryOf resolves a cursor entry of parent to its node. It returns false if
// the entry vanished from parent.
func entryOf(entry vfs.Entry, parent *vfs.Dir) (*dirEntry, bool) {
	typ := vfs.TypeFile
	if entry.IsDir {
		typ = vfs.TypeDirectory
	}

	node := parent.Find(entry.Name, typ)
	if node == nil {
		return nil, false
	}

	return &dirEntry{
		name: node.Name(),
		dir:  node.Dir(),
		file: node.File(),
	}, true
}

func (e *dirEntry) Name() string   { return e.name }
func (e *dirEntry) IsDir() bool    { return e.dir != nil }
func (e *dirEntry) String() string { return fs.FormatDirEntry(e) }

func (e *dirEntry) Type() fs.FileMode {
	if e.IsDir() {
		return fs.ModeDir
	}

	return 0
}

func (e *dirEntry) Info() (fs.FileInfo, error) {
	return &fileInfo{*e}, nil
}

type fileInfo struct {
	dirEntry
}

func (i *fileInfo) Size() int64 {
	if i.file == nil {
		return 0
	}

	return i.file.Size
}

func (i *fileInfo) ModTime() time.Time {
	if i.file == nil {
		return time.Time{}
	}

	return i.file.ModTime
}

func (i *fileInfo) Mode() fs.FileMode {
	if i.IsDir() {
		return fs.ModeDir | dirFileMode
	}

	return regularFileMode
}

// Sys returns the underlying [*vfs.Dir] or [*vfs.File].
func (i *fileInfo) Sys() any {
	if i.dir != nil {
		return i.dir
	}

	return i.file
}

func (i *fileInfo) String() string { return fs.FormatFileInfo(i) }

var (
	_ fs.File        = (*openFile)(nil)
	_ fs.ReadDirFile = (*openFile)(nil)
)

type openFile struct {
	info   fileInfo
	cursor *vfs.Cursor
}

// Stat implements [fs.File].
func (f *openFile) Stat() (fs.FileInfo, error) {
	return &f.info, nil
}

// Read implements [fs.File].
func (f *openFile) Read([]byte) (int, error) {
	if f.info.IsDir() {
		return 0, &PathError{Op: "read", Path: f.info.name, Err: ErrFileInvalid}
	}

	return 0, &PathError{Op: "read", Path: f.info.name, Err: ErrNoContent}
}

// Close implements [fs.File].
func (f *openFile) Close() error {
	if f.cursor == nil {
		return nil
	}

	return f.cursor.Close() //nolint:wrapcheck
}

// ReadDir implements [fs.ReadDirFile]. Entries are returned in the
// case-insensitive order of the tree.
func (f *openFile) ReadDir(count int) ([]fs.DirEntry, error) {
	if f.cursor == nil {
		return nil, &PathError{Op: "readdir", Path: f.info.name, Err: ErrFileNotDir}
	}

	entries := []fs.DirEntry{}

	for count <= 0 || len(entries) < count {
		entry, err := f.cursor.Next(vfs.Filter{})
		if errors.Is(err, vfs.ErrEndOfDir) {
			break
		}

		if err != nil {
			return entries, &PathError{Op: "readdir", Path: f.info.name, Err: err}
		}

		if dirEntry, exists := entryOf(entry, f.info.dir); exists {
			entries = append(entries, dirEntry)
		}
	}

	if count > 0 && len(entries) == 0 {
		return entries, io.EOF
	}

	return entries, nil
}
