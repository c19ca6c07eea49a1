// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"errors"
	"io/fs"

	"github.com/aibor/vfstree/internal/arena"
)

var (
	// ErrInvalidPath is returned if a path or name is malformed for the
	// requested operation.
	ErrInvalidPath = fs.ErrInvalid

	// ErrPathTooLong is returned if a path exceeds [MaxPathLen].
	ErrPathTooLong = errors.New("path too long")

	// ErrPathNotFound is returned if an intermediate directory of a path does
	// not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrFileNotFound is returned if the final component of a path does not
	// exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrTypeConflict is returned if creating a node fails because a node
	// with the same name but the other type exists.
	ErrTypeConflict = errors.New("name exists with other type")

	// ErrNoMemory is returned if the arena can not provide storage for a new
	// node or a grown child index.
	ErrNoMemory = arena.ErrOutOfMemory

	// ErrNotInitialized is returned by all operations on a [Tree] before
	// [Tree.Init] was called.
	ErrNotInitialized = errors.New("tree not initialized")

	// ErrAlreadyInitialized is returned by a second [Tree.Init] call.
	ErrAlreadyInitialized = errors.New("tree already initialized")

	// ErrEndOfDir is returned by [Cursor.Next] if no more entries are left.
	ErrEndOfDir = errors.New("end of directory")

	// ErrStaleCursor is returned by [Cursor.Next] if the enumerated directory
	// was cleared after the cursor was opened.
	ErrStaleCursor = errors.New("directory changed since cursor was opened")

	// ErrCursorClosed is returned by [Cursor.Next] after [Cursor.Close].
	ErrCursorClosed = fs.ErrClosed

	// ErrWatch is returned if registering a directory watch fails.
	ErrWatch = errors.New("watch registration failed")
)

// PathError records an error and the operation and path that caused it.
type PathError = fs.PathError

func pathError(op, path string, err error) error {
	return &PathError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
