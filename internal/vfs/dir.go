// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// LookupFlags modify the behavior of path lookups.
type LookupFlags uint

const (
	// CreateMissing creates missing components on the way.
	CreateMissing LookupFlags = 1 << iota

	// StartDir resolves the path relative to a given directory instead of
	// the root of the tree.
	StartDir
)

// Dir holds the metadata and children of a directory node.
type Dir struct {
	store *store
	node  *Node
	index childIndex

	mountPoint *MountPoint
	watches    []WatchHandle

	// version is bumped on every clear.
	version uint64
}

func (d *Dir) init(s *store, node *Node) {
	d.store = s
	d.node = node
	d.index = childIndex{store: s}
}

// Node returns the node of the directory.
func (d *Dir) Node() *Node {
	return d.node
}

// Len returns the number of children.
func (d *Dir) Len() int {
	return d.index.Len()
}

// MountPoint returns the mount attribution. It is nil if nothing is mounted
// here and [Ambiguous] if more than one mount point was mounted here.
// [Dir.ClearRecursive] resets it to nil, also from [Ambiguous], so the next
// mount after a clear attributes the directory again.
func (d *Dir) MountPoint() *MountPoint {
	return d.mountPoint
}

// IsAmbiguous returns true if the mount attribution is ambiguous.
func (d *Dir) IsAmbiguous() bool {
	return d.mountPoint == Ambiguous
}

// Watched returns true if at least one watch is registered for the directory.
func (d *Dir) Watched() bool {
	return len(d.watches) > 0
}

// Find returns the child with the given name if it exists and has the given
// type. It returns nil otherwise.
func (d *Dir) Find(name string, typ NodeType) *Node {
	node := d.index.find(name)
	if node == nil || node.typ != typ {
		return nil
	}

	return node
}

// Add returns the child with the given name. It is created with the given
// type if it does not exist yet. It fails if the name is not valid or a child
// of the other type exists.
func (d *Dir) Add(name string, typ NodeType) (*Node, error) {
	node, _, err := d.add(name, typ)
	return node, err
}

func (d *Dir) add(name string, typ NodeType) (*Node, bool, error) {
	if typ != TypeDirectory && typ != TypeFile {
		return nil, false, fmt.Errorf("%w: node type %s", ErrInvalidPath, typ)
	}

	err := ValidName(name)
	if err != nil {
		return nil, false, err
	}

	node, created, err := d.index.add(name, typ)
	if err != nil {
		return nil, false, err
	}

	if node.typ != typ {
		return nil, false, fmt.Errorf("%w: %s is a %s", ErrTypeConflict, node.name, node.typ)
	}

	return node, created, nil
}

// Mount records a mount at this directory. The first mount point is kept as
// attribution, every further mount makes the attribution [Ambiguous]. If
// watch is true and a supported [Watcher] is configured, the real path is
// watched. A failing watch fails the whole mount without any change.
func (d *Dir) Mount(realPath string, mp *MountPoint, watch bool) error {
	if mp == nil {
		return fmt.Errorf("%w: mount point is nil", ErrInvalidPath)
	}

	if watch && d.store.watcher != nil && d.store.watcher.Supported() {
		handle, err := d.store.watcher.Watch(realPath)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWatch, realPath, err)
		}

		d.watches = append(d.watches, handle)
	}

	if d.mountPoint == nil {
		d.mountPoint = mp
	} else {
		d.mountPoint = Ambiguous
	}

	return nil
}

// Lookup resolves the given path relative to the directory.
//
// Components followed by a separator are directories, a last component
// without one is a file. The empty path resolves to the directory itself.
// With [CreateMissing] missing components are created. New files inherit the
// mount attribution of their directory. Creation is not rolled back if a later
// component fails.
//
// It returns the node and the path with each component in its stored exact
// case. For directories the exact path ends with a separator.
func (d *Dir) Lookup(path string, flags LookupFlags) (*Node, string, error) {
	if path == "" {
		return d.node, "", nil
	}

	err := validPath(path)
	if err != nil {
		return nil, "", err
	}

	var exact strings.Builder
	exact.Grow(len(path))

	current := d
	rest := path

	for {
		name, tail, isDir := strings.Cut(rest, string(Separator))

		typ := TypeFile
		if isDir {
			typ = TypeDirectory
		}

		node, err := current.step(name, typ, flags)
		if err != nil {
			return nil, "", err
		}

		exact.WriteString(node.name)

		if !isDir {
			return node, exact.String(), nil
		}

		exact.WriteByte(Separator)

		if tail == "" {
			return node, exact.String(), nil
		}

		current = node.dir
		rest = tail
	}
}

func (d *Dir) step(name string, typ NodeType, flags LookupFlags) (*Node, error) {
	if flags&CreateMissing != 0 {
		node, created, err := d.add(name, typ)
		if err != nil {
			return nil, err
		}

		if created && typ == TypeFile && d.mountPoint != Ambiguous {
			node.file.Attribute(d.mountPoint)
		}

		return node, nil
	}

	node := d.Find(name, typ)
	if node != nil {
		return node, nil
	}

	if typ == TypeDirectory {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, name)
	}

	return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
}

// ClearRecursive empties the directory and every directory below it. Each
// registered watch is cancelled. Mount attribution is reset, so the
// directory can be populated again.
func (d *Dir) ClearRecursive() {
	for node := range d.index.all() {
		if node.typ == TypeDirectory {
			node.dir.ClearRecursive()
		}
	}

	d.cancelWatches()
	d.index.clear()
	d.mountPoint = nil
	d.version++
}

func (d *Dir) cancelWatches() {
	for _, handle := range d.watches {
		err := d.store.watcher.Cancel(handle)
		if err != nil {
			d.store.logger.Warn("Failed to cancel directory watch",
				slog.Int("handle", int(handle)),
				slog.Any("error", err))
		}
	}

	d.watches = nil
}

// children returns all children sorted case-insensitively.
func (d *Dir) children() []*Node {
	nodes := slices.Collect(d.index.all())

	slices.SortFunc(nodes, compareNodes)

	return nodes
}

func compareNodes(a, b *Node) int {
	return cmp.Or(
		cmp.Compare(a.key, b.key),
		cmp.Compare(a.name, b.name),
	)
}

// Display writes the tree below the directory to w, files first, then
// subdirectories, each level indented by two more spaces.
func (d *Dir) Display(w io.Writer, indent int) error {
	children := d.children()
	prefix := strings.Repeat("  ", indent)

	for _, node := range children {
		if node.typ != TypeFile {
			continue
		}

		_, err := fmt.Fprintf(w, "%s%s (%d bytes, %s)\n",
			prefix, node.name, node.file.Size, node.file.mountPoint)
		if err != nil {
			return err //nolint:wrapcheck
		}
	}

	for _, node := range children {
		if node.typ != TypeDirectory {
			continue
		}

		_, err := fmt.Fprintf(w, "%s%s/\n", prefix, node.name)
		if err != nil {
			return err //nolint:wrapcheck
		}

		err = node.dir.Display(w, indent+1)
		if err != nil {
			return err
		}
	}

	return nil
}
