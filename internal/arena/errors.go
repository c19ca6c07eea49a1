// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package arena

import "errors"

var (
	// ErrOutOfMemory is returned if the arena limit does not allow another
	// bucket or charge.
	ErrOutOfMemory = errors.New("arena: out of memory")

	// ErrAllocTooLarge is returned if a single allocation does not fit into
	// a bucket.
	ErrAllocTooLarge = errors.New("arena: allocation exceeds bucket size")

	// ErrInvalidSize is returned for allocations of zero or negative size.
	ErrInvalidSize = errors.New("arena: invalid allocation size")
)
