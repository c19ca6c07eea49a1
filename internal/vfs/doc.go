// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package vfs provides an in-memory tree that indexes real directories and
// archives mounted into one namespace.
//
// Names are matched case-insensitively but stored in the exact case they were
// created with. Each directory keeps its children in an open addressing hash
// table. Nodes are carved from an [arena.Arena] and are never freed one by
// one: a [Tree] is emptied with [Tree.Clear] and its memory is dropped with
// [Tree.Teardown].
//
// Paths use '/' as separator and are relative to the root or to a start
// directory. A path that is empty or ends with a separator denotes a
// directory, any other path a file. Lookups may create missing components:
//
//	tree := vfs.New()
//	_ = tree.Init()
//
//	file, exact, err := tree.LookupFile("Data/Maps/Arena.XML", nil, vfs.CreateMissing)
//
// Enumeration works on a sorted snapshot taken by [Tree.OpenDir].
//
// The package does no locking. Callers that share a tree between goroutines
// must serialize all calls.
package vfs
