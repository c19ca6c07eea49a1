// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package mount

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/cavaliergopher/cpio"
)

// Entry is a directory or file found in a [Source].
type Entry struct {
	// Path is relative to the source root and uses '/' as separator.
	Path string

	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Source lists the entries of a mount source.
type Source interface {
	Scan(ctx context.Context) ([]Entry, error)
}

// SourceOf returns the [Source] for the given [Spec].
func SourceOf(spec Spec) (Source, error) {
	switch spec.Kind {
	case KindDir:
		return &DirSource{FS: os.DirFS(spec.Source)}, nil
	case KindArchive:
		return &ArchiveSource{Path: spec.Source}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, spec.Kind)
	}
}

// DirSource lists a directory tree. Only directories and regular files are
// returned, everything else is skipped.
type DirSource struct {
	FS fs.FS
}

// Scan walks the whole file system.
func (s *DirSource) Scan(ctx context.Context) ([]Entry, error) {
	entries := []Entry{}

	err := fs.WalkDir(s.FS, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if name == "." {
			return nil
		}

		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err //nolint:wrapcheck
		}

		entry := Entry{
			Path:  name,
			IsDir: d.IsDir(),
		}

		if !entry.IsDir {
			entry.Size = info.Size()
			entry.ModTime = info.ModTime().UTC()
		}

		entries = append(entries, entry)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}

	return entries, nil
}

// ArchiveSource lists the headers of a cpio archive. Only directories and
// regular files are returned.
type ArchiveSource struct {
	Path string
}

// Scan reads all headers of the archive. File bodies are skipped.
func (s *ArchiveSource) Scan(ctx context.Context) ([]Entry, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	return ReadArchive(ctx, file)
}

// ReadArchive lists the headers of the cpio archive read from r.
func ReadArchive(ctx context.Context, r io.Reader) ([]Entry, error) {
	reader := cpio.NewReader(r)
	entries := []Entry{}

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}

		name := archivePath(header.Name)
		if name == "" {
			continue
		}

		mode := header.FileInfo().Mode()

		switch {
		case mode.IsDir():
			entries = append(entries, Entry{Path: name, IsDir: true})
		case mode.IsRegular():
			entries = append(entries, Entry{
				Path:    name,
				Size:    header.Size,
				ModTime: header.ModTime.UTC(),
			})
		}
	}
}

// archivePath cleans an archive member name to a relative path. It returns
// an empty string for the archive root.
func archivePath(name string) string {
	cleaned := path.Clean("/" + name)
	return cleaned[1:]
}
