// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/aibor/vfstree/internal/arena"
	"golang.org/x/text/cases"
)

// store bundles the state shared by all directories of a [Tree].
type store struct {
	arena   *arena.Arena
	nodes   *arena.Slab[Node]
	dirs    *arena.Slab[Dir]
	files   *arena.Slab[File]
	folder  cases.Caser
	watcher Watcher
	logger  *slog.Logger

	// generation is bumped on every clear and teardown of the tree.
	generation uint64
}

func newStore(a *arena.Arena) *store {
	return &store{
		arena:  a,
		nodes:  arena.NewSlab[Node](a, 0),
		dirs:   arena.NewSlab[Dir](a, 0),
		files:  arena.NewSlab[File](a, 0),
		folder: cases.Fold(),
		logger: slog.Default(),
	}
}

// fold returns the key used for case-insensitive comparison and hashing.
func (s *store) fold(name string) string {
	return s.folder.String(name)
}

func (s *store) newNode(name, key string) (*Node, error) {
	node, err := s.nodes.Get()
	if err != nil {
		return nil, fmt.Errorf("node: %w", err)
	}

	buf, err := s.arena.Allocate(len(name) + len(key))
	if err != nil {
		return nil, fmt.Errorf("node name: %w", err)
	}

	node.name, node.key = inlineStrings(buf, name, key)

	return node, nil
}

// initNode sets the payload and type of a node fresh from [store.newNode].
// The node is left untouched on failure.
func (s *store) initNode(node *Node, typ NodeType) error {
	switch typ {
	case TypeDirectory:
		dir, err := s.dirs.Get()
		if err != nil {
			return fmt.Errorf("directory: %w", err)
		}

		dir.init(s, node)
		node.dir = dir
	case TypeFile:
		file, err := s.files.Get()
		if err != nil {
			return fmt.Errorf("file: %w", err)
		}

		node.file = file
	default:
		return fmt.Errorf("%w: node type %s", ErrInvalidPath, typ)
	}

	node.typ = typ

	return nil
}

// Option configures a [Tree].
type Option func(*Tree)

// WithArena sets the arena nodes are allocated from.
func WithArena(a *arena.Arena) Option {
	return func(t *Tree) {
		t.arena = a
	}
}

// WithWatcher sets the [Watcher] used for mounts that request watching.
func WithWatcher(w Watcher) Option {
	return func(t *Tree) {
		t.watcher = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		t.logger = logger
	}
}

// Tree is the root of a virtual file system namespace. Directories and files
// are indexed case-insensitively while their exact names are preserved.
//
// A Tree is not safe for concurrent use. Callers sharing a tree between
// goroutines must hold a lock around every call.
type Tree struct {
	arena   *arena.Arena
	watcher Watcher
	logger  *slog.Logger

	store       *store
	root        Node
	rootDir     Dir
	initialized bool
}

// New creates a new [Tree]. [Tree.Init] must be called before use.
func New(opts ...Option) *Tree {
	t := &Tree{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.arena == nil {
		t.arena = arena.New(arena.WithLogger(t.logger))
	}

	t.store = newStore(t.arena)
	t.store.watcher = t.watcher
	t.store.logger = t.logger

	return t
}

// Init prepares the root directory. It must be called exactly once before
// any other call and again after [Tree.Teardown].
func (t *Tree) Init() error {
	if t.initialized {
		return ErrAlreadyInitialized
	}

	t.root = Node{
		typ: TypeDirectory,
		dir: &t.rootDir,
	}
	t.rootDir.init(t.store, &t.root)
	t.initialized = true

	t.logger.Debug("Initialized tree")

	return nil
}

// Root returns the root directory. It is nil before [Tree.Init].
func (t *Tree) Root() *Dir {
	if !t.initialized {
		return nil
	}

	return &t.rootDir
}

// Arena returns the arena the tree allocates from.
func (t *Tree) Arena() *arena.Arena {
	return t.arena
}

func (t *Tree) startDir(start *Dir, flags LookupFlags) (*Dir, error) {
	if !t.initialized {
		return nil, ErrNotInitialized
	}

	if flags&StartDir == 0 {
		return &t.rootDir, nil
	}

	if start == nil {
		return nil, fmt.Errorf("%w: start directory is nil", ErrInvalidPath)
	}

	return start, nil
}

// LookupDir resolves a directory path. The path must be empty or end with a
// separator. With [StartDir] the path is resolved relative to start, otherwise
// relative to the root.
//
// It returns the directory and its path in exact case.
func (t *Tree) LookupDir(path string, start *Dir, flags LookupFlags) (*Dir, string, error) {
	dir, err := t.startDir(start, flags)
	if err != nil {
		return nil, "", pathError("lookupdir", path, err)
	}

	if !IsDirPath(path) {
		return nil, "", pathError("lookupdir", path,
			fmt.Errorf("%w: directory path must end with %q", ErrInvalidPath, Separator))
	}

	node, exact, err := dir.Lookup(path, flags)
	if err != nil {
		return nil, "", pathError("lookupdir", path, err)
	}

	return node.dir, exact, nil
}

// LookupFile resolves a file path. The path must not be empty and must not
// end with a separator. With [StartDir] the path is resolved relative to
// start, otherwise relative to the root.
//
// It returns the file and its path in exact case.
func (t *Tree) LookupFile(path string, start *Dir, flags LookupFlags) (*File, string, error) {
	dir, err := t.startDir(start, flags)
	if err != nil {
		return nil, "", pathError("lookupfile", path, err)
	}

	if IsDirPath(path) {
		return nil, "", pathError("lookupfile", path,
			fmt.Errorf("%w: file path must not be empty or end with %q", ErrInvalidPath, Separator))
	}

	node, exact, err := dir.Lookup(path, flags)
	if err != nil {
		return nil, "", pathError("lookupfile", path, err)
	}

	return node.file, exact, nil
}

// AddFile returns the file with the given name in dir, creating it if
// necessary. The name must be a single component.
func (t *Tree) AddFile(dir *Dir, name string) (*File, error) {
	node, err := t.add(dir, name, TypeFile)
	if err != nil {
		return nil, pathError("addfile", name, err)
	}

	return node.file, nil
}

// AddDir returns the directory with the given name in parent, creating it if
// necessary. The name must be a single component.
func (t *Tree) AddDir(parent *Dir, name string) (*Dir, error) {
	node, err := t.add(parent, name, TypeDirectory)
	if err != nil {
		return nil, pathError("adddir", name, err)
	}

	return node.dir, nil
}

func (t *Tree) add(dir *Dir, name string, typ NodeType) (*Node, error) {
	if !t.initialized {
		return nil, ErrNotInitialized
	}

	if dir == nil {
		return nil, fmt.Errorf("%w: directory is nil", ErrInvalidPath)
	}

	return dir.Add(name, typ)
}

// Mount records a mount of the real path at dir. See [Dir.Mount].
func (t *Tree) Mount(dir *Dir, realPath string, mp *MountPoint, watch bool) error {
	if !t.initialized {
		return pathError("mount", realPath, ErrNotInitialized)
	}

	if dir == nil {
		return pathError("mount", realPath,
			fmt.Errorf("%w: directory is nil", ErrInvalidPath))
	}

	err := dir.Mount(realPath, mp, watch)
	if err != nil {
		return pathError("mount", realPath, err)
	}

	t.logger.Debug("Mounted",
		slog.String("source", realPath),
		slog.String("mount", mp.ID),
		slog.Bool("watch", watch),
		slog.Bool("ambiguous", dir.IsAmbiguous()))

	return nil
}

// Clear empties the whole tree and cancels all watches. The root directory
// survives, so the tree can be populated again. Arena memory is not
// released, see [Tree.Teardown].
func (t *Tree) Clear() {
	if !t.initialized {
		return
	}

	t.rootDir.ClearRecursive()
	t.store.generation++

	t.logger.Debug("Cleared tree", slog.Any("arena", t.arena.Stats()))
}

// Teardown clears the tree and releases all arena memory. [Tree.Init] must be
// called again before the tree can be used.
func (t *Tree) Teardown() {
	t.Clear()
	t.arena.ReleaseAll()
	t.store.generation++
	t.root = Node{}
	t.rootDir = Dir{}
	t.initialized = false

	t.logger.Debug("Tore down tree")
}

// Reset tears the tree down and initializes it again. Unlike [Tree.Clear] it
// returns all arena memory, so repopulating starts from an empty arena. Cursors
// opened before become stale.
func (t *Tree) Reset() error {
	t.Teardown()
	return t.Init()
}

// Walk returns an iterator over all nodes below the root, breadth first.
// Each node is yielded with its exact path without trailing separator. The
// tree must not be modified while walking.
func (t *Tree) Walk() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		if !t.initialized {
			return
		}

		type level struct {
			prefix string
			dir    *Dir
		}

		queue := []level{{"", &t.rootDir}}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			for _, node := range current.dir.children() {
				path := current.prefix + node.name
				if !yield(path, node) {
					return
				}

				if node.IsDir() {
					queue = append(queue, level{path + string(Separator), node.dir})
				}
			}
		}
	}
}
