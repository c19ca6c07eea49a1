// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package watch notifies about changes in real directories mounted into a
// [vfs.Tree].
//
// A [Notifier] implements [vfs.Watcher]. On Linux it is backed by a single
// inotify file descriptor. On other platforms [Notifier.Supported] returns
// false and the tree skips watching.
//
// Events are only delivered while [Notifier.Run] is running.
package watch
