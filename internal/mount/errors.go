// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mount

import "errors"

var (
	// ErrInvalidSpec is returned if a mount specification can not be parsed.
	ErrInvalidSpec = errors.New("invalid mount spec")

	// ErrUnknownKind is returned for a [Kind] no [Source] exists for.
	ErrUnknownKind = errors.New("unknown source kind")
)
