// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mount_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/aibor/vfstree/internal/arena"
	"github.com/aibor/vfstree/internal/mount"
	"github.com/aibor/vfstree/internal/vfs"
	"github.com/cavaliergopher/cpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource []mount.Entry

func (s staticSource) Scan(context.Context) ([]mount.Entry, error) {
	return s, nil
}

type failingSource struct {
	err error
}

func (s failingSource) Scan(context.Context) ([]mount.Entry, error) {
	return nil, s.err
}

func staticSources(sources map[string]mount.Source) mount.Option {
	return mount.WithSourceFunc(func(spec mount.Spec) (mount.Source, error) {
		source, exists := sources[spec.Source]
		if !exists {
			return nil, mount.ErrUnknownKind
		}

		return source, nil
	})
}

type countingWatcher struct {
	fail    bool
	watched []string
	active  atomic.Int32
}

func (w *countingWatcher) Supported() bool { return true }

func (w *countingWatcher) Watch(path string) (vfs.WatchHandle, error) {
	if w.fail {
		return 0, errors.New("watch limit reached")
	}

	w.watched = append(w.watched, path)
	w.active.Add(1)

	return vfs.WatchHandle(len(w.watched)), nil
}

func (w *countingWatcher) Cancel(vfs.WatchHandle) error {
	w.active.Add(-1)
	return nil
}

func newTree(tb testing.TB, opts ...vfs.Option) *vfs.Tree {
	tb.Helper()

	tree := vfs.New(opts...)
	require.NoError(tb, tree.Init())

	return tree
}

func TestMounter_Mount(t *testing.T) {
	tree := newTree(t)
	mounter := mount.New(tree, staticSources(map[string]mount.Source{
		"base": staticSource{
			{Path: "Maps", IsDir: true},
			{Path: "Maps/Arena.xml", Size: 10, ModTime: testTime},
			{Path: "readme", Size: 1},
		},
		"patch": staticSource{
			{Path: "maps", IsDir: true},
			{Path: "maps/arena.XML", Size: 20},
			{Path: "maps/new.xml", Size: 30},
		},
	}))

	specs := []mount.Spec{
		{Virtual: "data/", Source: "base", Priority: 1},
		{Virtual: "DATA/", Source: "patch", Priority: 2, Kind: mount.KindArchive},
	}

	stats, err := mounter.Mount(t.Context(), specs...)
	require.NoError(t, err)

	expected := mount.Stats{Mounts: 2, Dirs: 2, Files: 3, Shadowed: 1}
	assert.Equal(t, expected, stats)
	assert.Equal(t, specs, mounter.Specs())

	data, exact, err := tree.LookupDir("data/", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "data/", exact)
	assert.True(t, data.IsAmbiguous())

	maps, _, err := tree.LookupDir("data/maps/", nil, 0)
	require.NoError(t, err)
	assert.True(t, maps.IsAmbiguous())

	arena, exact, err := tree.LookupFile("data/maps/arena.xml", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "data/Maps/Arena.xml", exact)
	assert.Equal(t, "base", arena.MountPoint().ID)
	assert.Equal(t, int64(10), arena.Size)
	assert.Equal(t, testTime, arena.ModTime)
	assert.Equal(t, 1, arena.Priority())
	assert.False(t, arena.InArchive())

	added, _, err := tree.LookupFile("data/maps/new.xml", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "patch", added.MountPoint().ID)
	assert.Equal(t, 2, added.Priority())
	assert.True(t, added.InArchive())
}

func TestMounter_MountArchiveWithoutDirs(t *testing.T) {
	tree := newTree(t)
	mounter := mount.New(tree, staticSources(map[string]mount.Source{
		"dir":     staticSource{{Path: "a", IsDir: true}, {Path: "a/one"}},
		"archive": staticSource{{Path: "a/b/two"}},
	}))

	stats, err := mounter.Mount(t.Context(),
		mount.Spec{Source: "dir"},
		mount.Spec{Source: "archive", Kind: mount.KindArchive},
	)
	require.NoError(t, err)
	assert.Equal(t, mount.Stats{Mounts: 2, Dirs: 3, Files: 2}, stats)

	two, _, err := tree.LookupFile("a/b/two", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "archive", two.MountPoint().ID)

	b, _, err := tree.LookupDir("a/b/", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "archive", b.MountPoint().ID)
}

func TestMounter_MountSkipsConflicts(t *testing.T) {
	tree := newTree(t)
	mounter := mount.New(tree, staticSources(map[string]mount.Source{
		"first":  staticSource{{Path: "x"}},
		"second": staticSource{{Path: "X", IsDir: true}, {Path: "X/inner"}, {Path: "ok"}},
	}))

	stats, err := mounter.Mount(t.Context(), mount.Spec{Source: "first"}, mount.Spec{Source: "second"})
	require.NoError(t, err)
	assert.Equal(t, mount.Stats{Mounts: 2, Files: 2, Skipped: 2}, stats)

	_, _, err = tree.LookupFile("x", nil, 0)
	require.NoError(t, err)
}

func TestMounter_MountScanFailure(t *testing.T) {
	tree := newTree(t)
	scanErr := errors.New("disk on fire")
	mounter := mount.New(tree, staticSources(map[string]mount.Source{
		"good": staticSource{{Path: "f"}},
		"bad":  failingSource{err: scanErr},
	}))

	_, err := mounter.Mount(t.Context(), mount.Spec{Source: "good"}, mount.Spec{Source: "bad"})
	require.ErrorIs(t, err, scanErr)

	assert.Equal(t, 0, tree.Root().Len())
	assert.Empty(t, mounter.Specs())

	_, err = mounter.Mount(t.Context(), mount.Spec{Source: "unknown"})
	require.ErrorIs(t, err, mount.ErrUnknownKind)
}

func TestMounter_Watch(t *testing.T) {
	t.Run("every directory", func(t *testing.T) {
		watcher := &countingWatcher{}
		tree := newTree(t, vfs.WithWatcher(watcher))
		mounter := mount.New(tree, staticSources(map[string]mount.Source{
			"/src": staticSource{{Path: "a", IsDir: true}, {Path: "a/b", IsDir: true}},
			"x.a":  staticSource{{Path: "c", IsDir: true}},
		}))

		_, err := mounter.Mount(t.Context(),
			mount.Spec{Source: "/src", Watch: true},
			mount.Spec{Virtual: "arc/", Source: "x.a", Kind: mount.KindArchive, Watch: true},
		)
		require.NoError(t, err)

		assert.Equal(t, []string{"/src", filepath.Join("/src", "a"), filepath.Join("/src", "a", "b")}, watcher.watched)
		assert.Equal(t, int32(3), watcher.active.Load())

		tree.Clear()

		assert.Equal(t, int32(0), watcher.active.Load())
	})

	t.Run("failure degrades", func(t *testing.T) {
		watcher := &countingWatcher{fail: true}
		tree := newTree(t, vfs.WithWatcher(watcher))
		mounter := mount.New(tree, staticSources(map[string]mount.Source{
			"/src": staticSource{{Path: "f"}},
		}))

		stats, err := mounter.Mount(t.Context(), mount.Spec{Source: "/src", Watch: true})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Files)

		assert.False(t, tree.Root().Watched())
		assert.Equal(t, "/src", tree.Root().MountPoint().ID)
	})
}

func TestMounter_Rescan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "first.txt"), []byte("1"), 0o600))

	archive := writeArchiveFile(t,
		archiveMember{name: "pak/inside.bin", mode: cpio.TypeReg | 0o644, body: "abc"},
	)

	tree := newTree(t)
	mounter := mount.New(tree)

	stats, err := mounter.Mount(t.Context(),
		mount.Spec{Virtual: "live/", Source: dir, Kind: mount.KindDir},
		mount.Spec{Virtual: "live/", Source: archive, Kind: mount.KindArchive},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)

	cursor, err := tree.OpenDir("live/")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "second.txt"), []byte("22"), 0o600))

	stats, err = mounter.Rescan(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Files)
	assert.Len(t, mounter.Specs(), 2)

	_, err = cursor.Next(vfs.Filter{})
	require.ErrorIs(t, err, vfs.ErrStaleCursor)

	second, _, err := tree.LookupFile("live/SECOND.txt", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Size)

	inside, _, err := tree.LookupFile("live/pak/inside.bin", nil, 0)
	require.NoError(t, err)
	assert.True(t, inside.InArchive())
	assert.Equal(t, int64(3), inside.Size)
}

func TestMounter_RescanFailureKeepsSpecs(t *testing.T) {
	dir := t.TempDir()
	tree := newTree(t)
	mounter := mount.New(tree)

	_, err := mounter.Mount(t.Context(), mount.Spec{Source: dir})
	require.NoError(t, err)

	require.NoError(t, os.Remove(dir))

	_, err = mounter.Rescan(t.Context())
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Len(t, mounter.Specs(), 1)
}

func TestMounter_RescanReleasesArena(t *testing.T) {
	entries := staticSource{}

	for i := range 10 {
		entries = append(entries, mount.Entry{Path: fmt.Sprintf("dir%d", i), IsDir: true})
	}

	for i := range 200 {
		entries = append(entries, mount.Entry{
			Path: fmt.Sprintf("dir%d/file-%03d.dat", i%10, i),
			Size: int64(i),
		})
	}

	a := arena.New(arena.WithLimit(64 * arena.BucketSize))
	tree := newTree(t, vfs.WithArena(a))
	mounter := mount.New(tree, staticSources(map[string]mount.Source{"base": entries}))

	_, err := mounter.Mount(t.Context(), mount.Spec{Virtual: "data/", Source: "base"})
	require.NoError(t, err)

	used := a.Used()

	for range 50 {
		stats, err := mounter.Rescan(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 200, stats.Files)
		assert.Equal(t, used, a.Used())
	}

	file, _, err := tree.LookupFile("data/DIR3/file-013.dat", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(13), file.Size)
}
