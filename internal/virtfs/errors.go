// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package virtfs

import (
	"errors"
	"io/fs"
)

var (
	// ErrFileNotExist is returned if a path does not exist in the tree.
	ErrFileNotExist = fs.ErrNotExist

	// ErrFileInvalid is returned if a path is invalid or a file is invalid
	// for the requested operation.
	ErrFileInvalid = fs.ErrInvalid

	// ErrFileNotDir is returned if a file exists but is not a directory.
	ErrFileNotDir = errors.New("not a directory")

	// ErrNoContent is returned when reading a regular file. The tree holds
	// no file content.
	ErrNoContent = errors.New("file content not available")
)

// PathError records an error and the operation and file path that caused it.
type PathError = fs.PathError
