// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

// MountPoint describes a real directory or archive mounted into the tree. The
// tree does not own it and only compares identity.
type MountPoint struct {
	// ID identifies the mount, usually the real path of its source.
	ID string

	// Priority is used by layers above the tree to resolve overlays.
	Priority int
}

// Ambiguous is set as mount attribution of a directory that more than one
// mount point was mounted at. It is distinct from nil and from any other
// [MountPoint].
var Ambiguous = &MountPoint{ID: "<ambiguous>"}

// String returns the ID of the mount point.
func (m *MountPoint) String() string {
	if m == nil {
		return "<none>"
	}

	return m.ID
}

// WatchHandle identifies a registered directory watch.
type WatchHandle int

// Watcher registers and cancels watches on real directories.
type Watcher interface {
	// Supported returns false if the platform does not support watching.
	Supported() bool

	// Watch registers a watch on the given real directory.
	Watch(path string) (WatchHandle, error)

	// Cancel removes a watch. Errors are not actionable for the tree and
	// are only logged.
	Cancel(handle WatchHandle) error
}
