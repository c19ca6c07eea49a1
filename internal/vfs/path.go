// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// Separator separates path components.
	Separator = '/'

	// MaxPathLen is the maximum length of a path in bytes.
	MaxPathLen = 4096

	// MaxNameLen is the maximum length of a single component in bytes.
	MaxNameLen = 255
)

// ValidName checks if name is usable as a single path component.
func ValidName(name string) error {
	switch name {
	case "":
		return fmt.Errorf("%w: empty name", ErrInvalidPath)
	case ".", "..":
		return fmt.Errorf("%w: reserved name %q", ErrInvalidPath, name)
	}

	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: name exceeds %d bytes", ErrInvalidPath, MaxNameLen)
	}

	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: name %q contains separator or NUL", ErrInvalidPath, name)
	}

	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name %q is not valid UTF-8", ErrInvalidPath, name)
	}

	return nil
}

// validPath checks the length and every component of a relative path. A
// single trailing separator is allowed.
func validPath(path string) error {
	if len(path) > MaxPathLen {
		return fmt.Errorf("%w: %d > %d", ErrPathTooLong, len(path), MaxPathLen)
	}

	path = strings.TrimSuffix(path, string(Separator))

	for name := range strings.SplitSeq(path, string(Separator)) {
		err := ValidName(name)
		if err != nil {
			return err
		}
	}

	return nil
}

// IsDirPath returns true if the path denotes a directory, so it is empty or
// ends with a separator.
func IsDirPath(path string) bool {
	return path == "" || path[len(path)-1] == Separator
}
