// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mount populates a [vfs.Tree] from real directories and cpio
// archives.
//
// Sources only provide metadata. Directory sources are listed with
// [fs.WalkDir], archive sources by reading the cpio headers. No file content
// is read.
//
// All sources of a [Mounter.Mount] call are scanned concurrently. The results
// are applied to the tree one after another in the given order, so the first
// mount providing a file keeps it.
package mount
