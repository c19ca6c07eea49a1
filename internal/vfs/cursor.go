// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"fmt"
	"path"
	"time"
)

// DirSize is reported as [Entry.Size] for directories.
const DirSize int64 = -1

// Entry is a single result of a directory enumeration.
type Entry struct {
	// Name is the exact-case name.
	Name string

	// IsDir is true for directories.
	IsDir bool

	// Size is [DirSize] for directories.
	Size int64

	// ModTime is zero for directories.
	ModTime time.Time
}

// Filter restricts the entries returned by [Cursor.Next].
type Filter struct {
	// Pattern is a [path.Match] pattern matched case-insensitively against
	// the entry name. Empty matches everything.
	Pattern string

	// DirsOnly skips all files.
	DirsOnly bool
}

// Cursor enumerates a snapshot of the children of a directory taken when it
// was opened. Children added afterwards are not returned. After the
// directory or the tree was cleared, [Cursor.Next] fails with
// [ErrStaleCursor].
type Cursor struct {
	store      *store
	dir        *Dir
	entries    []*Node
	pos        int
	version    uint64
	generation uint64
	closed     bool
}

// OpenDir opens a [Cursor] for the directory at the given path. The path
// follows the rules of [Tree.LookupDir].
func (t *Tree) OpenDir(path string) (*Cursor, error) {
	dir, _, err := t.LookupDir(path, nil, 0)
	if err != nil {
		return nil, err
	}

	return t.OpenCursor(dir), nil
}

// OpenCursor opens a [Cursor] for the given directory.
func (t *Tree) OpenCursor(dir *Dir) *Cursor {
	return &Cursor{
		store:      t.store,
		dir:        dir,
		entries:    dir.children(),
		version:    dir.version,
		generation: t.store.generation,
	}
}

// Len returns the number of entries in the snapshot.
func (c *Cursor) Len() int {
	return len(c.entries)
}

// Next returns the next entry matching the filter. It returns [ErrEndOfDir]
// if no entry is left.
func (c *Cursor) Next(filter Filter) (Entry, error) {
	if c.closed {
		return Entry{}, ErrCursorClosed
	}

	if c.version != c.dir.version || c.generation != c.store.generation {
		return Entry{}, ErrStaleCursor
	}

	var pattern string

	if filter.Pattern != "" {
		pattern = c.store.fold(filter.Pattern)

		_, err := path.Match(pattern, "")
		if err != nil {
			return Entry{}, fmt.Errorf("%w: pattern %q: %w", ErrInvalidPath, filter.Pattern, err)
		}
	}

	for c.pos < len(c.entries) {
		node := c.entries[c.pos]
		c.pos++

		if filter.DirsOnly && !node.IsDir() {
			continue
		}

		if pattern != "" {
			matched, _ := path.Match(pattern, node.key)
			if !matched {
				continue
			}
		}

		return entryOf(node), nil
	}

	return Entry{}, ErrEndOfDir
}

// Close releases the snapshot. Further calls to [Cursor.Next] fail.
func (c *Cursor) Close() error {
	c.entries = nil
	c.closed = true

	return nil
}

func entryOf(node *Node) Entry {
	if node.IsDir() {
		return Entry{
			Name:  node.name,
			IsDir: true,
			Size:  DirSize,
		}
	}

	return Entry{
		Name:    node.name,
		Size:    node.file.Size,
		ModTime: node.file.ModTime,
	}
}
