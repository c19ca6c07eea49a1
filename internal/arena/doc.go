// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package arena provides a bump allocator over fixed-size buckets.
//
// Memory handed out by an [Arena] can not be freed individually. All of it is
// dropped at once with [Arena.ReleaseAll]. Buckets are linked backwards, so
// releasing walks from the newest bucket to the oldest one.
//
// [Slab] carves typed values from chunks charged against the same arena, so
// a single limit covers raw bytes and structs alike.
package arena
