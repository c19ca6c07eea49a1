// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package watch

import "errors"

var (
	// ErrUnsupported is returned by [Notifier.Watch] on platforms without
	// directory notification support.
	ErrUnsupported = errors.ErrUnsupported

	// ErrUnknownHandle is returned by [Notifier.Cancel] for handles that are
	// not registered.
	ErrUnknownHandle = errors.New("unknown watch handle")

	// ErrClosed is returned if the notifier was closed already.
	ErrClosed = errors.New("notifier closed")
)
