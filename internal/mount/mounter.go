// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"runtime"

	"github.com/aibor/vfstree/internal/vfs"
	"golang.org/x/sync/errgroup"
)

// Stats counts the result of applying mounts.
type Stats struct {
	Mounts int
	Dirs   int
	Files  int

	// Shadowed counts files already provided by an earlier mount.
	Shadowed int

	// Skipped counts entries that could not be added, like a file whose name
	// is taken by a directory.
	Skipped int
}

func (s *Stats) add(other Stats) {
	s.Mounts += other.Mounts
	s.Dirs += other.Dirs
	s.Files += other.Files
	s.Shadowed += other.Shadowed
	s.Skipped += other.Skipped
}

// Option configures a [Mounter].
type Option func(*Mounter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mounter) {
		m.logger = logger
	}
}

// WithSourceFunc replaces the function that creates the [Source] for a
// [Spec]. Default is [SourceOf].
func WithSourceFunc(fn func(Spec) (Source, error)) Option {
	return func(m *Mounter) {
		m.sourceOf = fn
	}
}

// Mounter applies mounts to a [vfs.Tree]. It remembers every applied [Spec]
// for [Mounter.Rescan].
//
// A Mounter is not safe for concurrent use.
type Mounter struct {
	tree     *vfs.Tree
	logger   *slog.Logger
	sourceOf func(Spec) (Source, error)
	specs    []Spec
}

// New creates a new [Mounter] for the given tree.
func New(tree *vfs.Tree, opts ...Option) *Mounter {
	m := &Mounter{
		tree:     tree,
		logger:   slog.Default(),
		sourceOf: SourceOf,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Specs returns all specs applied so far.
func (m *Mounter) Specs() []Spec {
	return m.specs
}

// Mount scans all sources concurrently and applies them in the given order.
// Nothing is applied if any scan fails.
func (m *Mounter) Mount(ctx context.Context, specs ...Spec) (Stats, error) {
	scans, err := m.scan(ctx, specs)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats

	for idx, spec := range specs {
		applied, err := m.apply(spec, scans[idx])
		stats.add(applied)

		if err != nil {
			return stats, fmt.Errorf("mount %s: %w", spec, err)
		}

		m.specs = append(m.specs, spec)
	}

	m.logger.Debug("Mounted sources",
		slog.Int("mounts", stats.Mounts),
		slog.Int("dirs", stats.Dirs),
		slog.Int("files", stats.Files),
		slog.Int("shadowed", stats.Shadowed),
		slog.Int("skipped", stats.Skipped))

	return stats, nil
}

// Rescan resets the tree and applies all previously applied specs again. The
// arena is released before, so repeated rescans do not accumulate memory.
func (m *Mounter) Rescan(ctx context.Context) (Stats, error) {
	err := m.tree.Reset()
	if err != nil {
		return Stats{}, fmt.Errorf("reset tree: %w", err)
	}

	specs := m.specs
	m.specs = nil

	stats, err := m.Mount(ctx, specs...)
	if err != nil {
		// Keep the specs, so a later rescan can retry.
		m.specs = specs
		return stats, err
	}

	return stats, nil
}

func (m *Mounter) scan(ctx context.Context, specs []Spec) ([][]Entry, error) {
	sources := make([]Source, len(specs))

	for idx, spec := range specs {
		source, err := m.sourceOf(spec)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", spec, err)
		}

		sources[idx] = source
	}

	scans := make([][]Entry, len(specs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for idx, source := range sources {
		eg.Go(func() error {
			entries, err := source.Scan(ctx)
			if err != nil {
				return fmt.Errorf("scan %s: %w", specs[idx].Source, err)
			}

			scans[idx] = entries

			return nil
		})
	}

	err := eg.Wait()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return scans, nil
}

type application struct {
	*Mounter

	spec  Spec
	mp    *vfs.MountPoint
	root  *vfs.Dir
	dirs  map[string]*vfs.Dir
	stats Stats
}

func (m *Mounter) apply(spec Spec, entries []Entry) (Stats, error) {
	root, _, err := m.tree.LookupDir(spec.Virtual, nil, vfs.CreateMissing)
	if err != nil {
		return Stats{}, err //nolint:wrapcheck
	}

	a := &application{
		Mounter: m,
		spec:    spec,
		mp:      &vfs.MountPoint{ID: spec.Source, Priority: spec.Priority},
		root:    root,
		dirs:    map[string]*vfs.Dir{},
	}

	err = a.mount(root, spec.Source)
	if err != nil {
		return a.stats, err
	}

	a.stats.Mounts++

	for _, entry := range entries {
		err := a.add(entry)
		if err == nil {
			continue
		}

		if !errors.Is(err, vfs.ErrTypeConflict) && !errors.Is(err, vfs.ErrInvalidPath) {
			return a.stats, err
		}

		a.stats.Skipped++
		a.logger.Warn("Skipped entry",
			slog.String("source", spec.Source),
			slog.String("path", entry.Path),
			slog.Any("error", err))
	}

	return a.stats, nil
}

// mount records the mount at dir. A failing watch degrades to an unwatched
// mount.
func (a *application) mount(dir *vfs.Dir, realPath string) error {
	watch := a.spec.Watch && a.spec.Kind == KindDir

	err := a.tree.Mount(dir, realPath, a.mp, watch)
	if err == nil || !errors.Is(err, vfs.ErrWatch) {
		return err //nolint:wrapcheck
	}

	a.logger.Warn("Failed to watch directory",
		slog.String("path", realPath),
		slog.Any("error", err))

	return a.tree.Mount(dir, realPath, a.mp, false) //nolint:wrapcheck
}

func (a *application) add(entry Entry) error {
	if entry.IsDir {
		_, err := a.dir(entry.Path)
		return err
	}

	parent, err := a.dir(path.Dir(entry.Path))
	if err != nil {
		return err
	}

	file, _, err := a.tree.LookupFile(path.Base(entry.Path), parent, vfs.StartDir|vfs.CreateMissing)
	if err != nil {
		return err //nolint:wrapcheck
	}

	file.Attribute(a.mp)

	if file.MountPoint() != a.mp {
		a.stats.Shadowed++
		return nil
	}

	file.Size = entry.Size
	file.ModTime = entry.ModTime
	file.SetPriority(a.spec.Priority)
	file.SetInArchive(a.spec.Kind == KindArchive)

	a.stats.Files++

	return nil
}

// dir returns the directory for the source relative path, creating and
// mounting it and all its parents if they were not seen yet. Archives may
// list files without listing their directories.
func (a *application) dir(relPath string) (*vfs.Dir, error) {
	if relPath == "." || relPath == "" {
		return a.root, nil
	}

	if dir, exists := a.dirs[relPath]; exists {
		return dir, nil
	}

	parent, err := a.dir(path.Dir(relPath))
	if err != nil {
		return nil, err
	}

	dir, err := a.tree.AddDir(parent, path.Base(relPath))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	realPath := path.Join(a.spec.Source, relPath)
	if a.spec.Kind == KindDir {
		realPath = filepath.Join(a.spec.Source, filepath.FromSlash(relPath))
	}

	err = a.mount(dir, realPath)
	if err != nil {
		return nil, err
	}

	a.dirs[relPath] = dir
	a.stats.Dirs++

	return dir, nil
}
