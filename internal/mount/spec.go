// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mount

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind defines the type of a mount source.
type Kind int

const (
	// KindDir is a real directory.
	KindDir Kind = iota

	// KindArchive is a cpio archive file.
	KindArchive
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// MaxPriority is the highest priority a [Spec] may have.
const MaxPriority = 1<<15 - 1

// Spec describes a single mount.
type Spec struct {
	// Virtual is the directory path in the tree. It is empty for the root,
	// otherwise it ends with a separator.
	Virtual string

	// Source is the real directory or archive file.
	Source string

	Kind Kind

	// Priority is recorded on every file of the mount.
	Priority int

	// Watch enables directory watches. It is ignored for archives.
	Watch bool
}

// ParseSpec parses a mount specification in the format
// "virtual=source[@priority]".
func ParseSpec(s string, kind Kind) (Spec, error) {
	virtual, source, found := strings.Cut(s, "=")
	if !found {
		return Spec{}, fmt.Errorf("%w: %q: missing '='", ErrInvalidSpec, s)
	}

	spec := Spec{
		Virtual: normalizeVirtual(virtual),
		Kind:    kind,
	}

	if at := strings.LastIndexByte(source, '@'); at >= 0 {
		priority, err := strconv.ParseUint(source[at+1:], 10, 64)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %q: priority: %w", ErrInvalidSpec, s, err)
		}

		if priority > MaxPriority {
			return Spec{}, fmt.Errorf("%w: %q: priority exceeds %d", ErrInvalidSpec, s, MaxPriority)
		}

		spec.Priority = int(priority)
		source = source[:at]
	}

	if source == "" {
		return Spec{}, fmt.Errorf("%w: %q: empty source", ErrInvalidSpec, s)
	}

	spec.Source = source

	return spec, nil
}

func normalizeVirtual(virtual string) string {
	virtual = strings.Trim(virtual, "/")
	if virtual == "" {
		return ""
	}

	return virtual + "/"
}

// String returns the Spec in the format accepted by [ParseSpec].
func (s Spec) String() string {
	str := strings.TrimSuffix(s.Virtual, "/") + "=" + s.Source
	if s.Priority != 0 {
		str += "@" + strconv.Itoa(s.Priority)
	}

	return str
}
