// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/aibor/vfstree/internal/mount"
	"github.com/aibor/vfstree/internal/vfs"
	"github.com/aibor/vfstree/internal/virtfs"
)

// output prints the results requested by the flags.
type output struct {
	tree  *vfs.Tree
	flags *flags
	w     io.Writer
}

func (o *output) print(stats mount.Stats) error {
	mem := o.tree.Arena().Stats()

	slog.Debug("Mounted",
		slog.Int("mounts", stats.Mounts),
		slog.Int("dirs", stats.Dirs),
		slog.Int("files", stats.Files),
		slog.Int("shadowed", stats.Shadowed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("arena_buckets", mem.Buckets),
		slog.Int("arena_in_use", mem.InUse),
		slog.Int("arena_charged", mem.Charged),
	)

	if !o.flags.tree && o.flags.glob == "" && len(o.flags.paths) == 0 {
		return o.printStats(stats)
	}

	if o.flags.tree {
		err := o.tree.Root().Display(o.w, 0)
		if err != nil {
			return fmt.Errorf("display: %w", err)
		}
	}

	if o.flags.glob != "" {
		err := o.printGlob(o.flags.glob)
		if err != nil {
			return err
		}
	}

	var errs []error

	for _, path := range o.flags.paths {
		var err error

		if path == "." || path == "/" {
			path = ""
		}

		if path == "" || vfs.IsDirPath(path) {
			err = o.printDir(path)
		} else {
			err = o.printFile(path)
		}

		if err != nil {
			slog.Error(err.Error())
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %d of %d paths", ErrLookupFailed, len(errs), len(o.flags.paths))
	}

	return nil
}

func (o *output) printStats(stats mount.Stats) error {
	_, err := fmt.Fprintf(o.w,
		"%d mounts, %d dirs, %d files (%d shadowed, %d skipped)\n",
		stats.Mounts, stats.Dirs, stats.Files, stats.Shadowed, stats.Skipped)

	return err //nolint:wrapcheck
}

func (o *output) printGlob(pattern string) error {
	matches, err := fs.Glob(virtfs.New(o.tree), pattern)
	if err != nil {
		return fmt.Errorf("glob: %w", err)
	}

	for _, match := range matches {
		_, err := fmt.Fprintln(o.w, match)
		if err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}

func (o *output) printDir(path string) error {
	dir, exact, err := o.tree.LookupDir(path, nil, 0)
	if err != nil {
		return err //nolint:wrapcheck
	}

	cursor := o.tree.OpenCursor(dir)
	defer cursor.Close()

	if exact == "" {
		exact = "."
	}

	_, err = fmt.Fprintf(o.w, "%s (%s):\n", exact, describeDir(dir))
	if err != nil {
		return err //nolint:wrapcheck
	}

	for {
		entry, err := cursor.Next(o.flags.filter)
		if errors.Is(err, vfs.ErrEndOfDir) {
			return nil
		}

		if err != nil {
			return err //nolint:wrapcheck
		}

		if entry.IsDir {
			_, err = fmt.Fprintf(o.w, "  %s/\n", entry.Name)
		} else {
			_, err = fmt.Fprintf(o.w, "  %s (%d bytes, %s)\n",
				entry.Name, entry.Size, entry.ModTime.Format(time.RFC3339))
		}

		if err != nil {
			return err //nolint:wrapcheck
		}
	}
}

func (o *output) printFile(path string) error {
	file, exact, err := o.tree.LookupFile(path, nil, 0)
	if err != nil {
		return err //nolint:wrapcheck
	}

	source := "dir"
	if file.InArchive() {
		source = "archive"
	}

	_, err = fmt.Fprintf(o.w, "%s (%d bytes, %s, %s %s, priority %d)\n",
		exact,
		file.Size,
		file.ModTime.Format(time.RFC3339),
		source,
		file.MountPoint(),
		file.Priority(),
	)

	return err //nolint:wrapcheck
}

func describeDir(dir *vfs.Dir) string {
	switch {
	case dir.IsAmbiguous():
		return "multiple mounts"
	case dir.Watched():
		return dir.MountPoint().String() + ", watched"
	default:
		return dir.MountPoint().String()
	}
}
