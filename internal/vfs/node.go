// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"time"
)

// NodeType defines the type of a [Node].
type NodeType int

const (
	// TypeNone is the zero value. Nodes in a child index never have it.
	TypeNone NodeType = iota

	// TypeDirectory is a directory with its own children.
	TypeDirectory

	// TypeFile is a file with metadata only.
	TypeFile
)

// String returns a string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeDirectory:
		return "directory"
	case TypeFile:
		return "file"
	default:
		return "invalid"
	}
}

// Node is a single named entry in the tree. It is either a directory or a
// file, never both. The type never changes once set.
type Node struct {
	typ  NodeType
	name string
	key  string

	dir  *Dir
	file *File
}

// Type returns the type of the node.
func (n *Node) Type() NodeType {
	return n.typ
}

// Name returns the exact-case name as it was given on creation.
func (n *Node) Name() string {
	return n.name
}

// IsDir returns true if the [Node] is a directory.
func (n *Node) IsDir() bool {
	return n.typ == TypeDirectory
}

// IsFile returns true if the [Node] is a file.
func (n *Node) IsFile() bool {
	return n.typ == TypeFile
}

// Dir returns the directory payload. It returns nil for files.
func (n *Node) Dir() *Dir {
	return n.dir
}

// File returns the file payload. It returns nil for directories.
func (n *Node) File() *File {
	return n.file
}

// String returns a string representation of the Node.
func (n *Node) String() string {
	return n.typ.String() + " " + n.name
}

const (
	inArchiveBit = 1 << 15
	priorityMask = inArchiveBit - 1
)

// File holds the metadata of a file node.
type File struct {
	mountPoint *MountPoint

	// ModTime is the modification time reported by the source.
	ModTime time.Time

	// Size is the size in bytes reported by the source.
	Size int64

	// Priority and in-archive flag packed into one word.
	bits uint16
}

// MountPoint returns the mount the file is attributed to. It is nil as long
// as no mount was attributed.
func (f *File) MountPoint() *MountPoint {
	return f.mountPoint
}

// Attribute sets the mount point of the file if none is set yet. It returns
// true if mp was set.
func (f *File) Attribute(mp *MountPoint) bool {
	if f.mountPoint != nil {
		return false
	}

	f.mountPoint = mp

	return true
}

// Priority returns the priority of the file.
func (f *File) Priority() int {
	return int(f.bits & priorityMask)
}

// SetPriority sets the priority. Values are clamped to the range of 0 to
// 32767.
func (f *File) SetPriority(priority int) {
	priority = min(max(priority, 0), priorityMask)
	f.bits = f.bits&inArchiveBit | uint16(priority)
}

// InArchive returns true if the file is served from an archive.
func (f *File) InArchive() bool {
	return f.bits&inArchiveBit != 0
}

// SetInArchive sets whether the file is served from an archive.
func (f *File) SetInArchive(inArchive bool) {
	if inArchive {
		f.bits |= inArchiveBit
	} else {
		f.bits &^= inArchiveBit
	}
}
