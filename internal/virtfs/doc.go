// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package virtfs provides an [io/fs.FS] view of a [vfs.Tree]. It can be used
// with [fs.WalkDir], [fs.Glob] and everything else taking an [io/fs.FS].
//
// Names are resolved case-insensitively, so "Data/MAP.xml" opens the same file
// as "data/map.xml". Entries are reported with their exact-case names.
//
// Only metadata is available. Reading a regular file fails with
// [ErrNoContent].
package virtfs
