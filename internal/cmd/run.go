// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aibor/vfstree/internal/arena"
	"github.com/aibor/vfstree/internal/mount"
	"github.com/aibor/vfstree/internal/vfs"
	"github.com/aibor/vfstree/internal/watch"
	"golang.org/x/sync/errgroup"
)

const (
	localConfigFile = ".vfstree-args"

	// settleDelay is the time without further events before a rescan.
	settleDelay = 200 * time.Millisecond
)

// IO provides output details for the command.
type IO struct {
	Stdout io.Writer
	Stderr io.Writer
}

func newFlags(args []string, cfg IO) (*flags, error) {
	args, err := MergedArgs(args, os.DirFS("."), localConfigFile)
	if err != nil {
		return nil, err
	}

	flags, err := parseArgs(args, cfg.Stderr)
	if err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}

	return flags, nil
}

func newTree(flags *flags, notifier *watch.Notifier) (*vfs.Tree, error) {
	logger := slog.Default()

	opts := []vfs.Option{
		vfs.WithLogger(logger),
		vfs.WithArena(arena.New(
			arena.WithLimit(flags.arenaLimit()),
			arena.WithLogger(logger),
		)),
	}

	if notifier != nil {
		opts = append(opts, vfs.WithWatcher(notifier))
	}

	tree := vfs.New(opts...)

	err := tree.Init()
	if err != nil {
		return nil, fmt.Errorf("init tree: %w", err)
	}

	return tree, nil
}

func run(ctx context.Context, flags *flags, cfg IO) error {
	var notifier *watch.Notifier

	if flags.watch {
		var err error

		notifier, err = watch.New(watch.WithLogger(slog.Default()))
		if err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		defer notifier.Close()

		if !notifier.Supported() {
			slog.Warn("Watching is not supported on this platform")
		}
	}

	tree, err := newTree(flags, notifier)
	if err != nil {
		return err
	}
	defer tree.Teardown()

	mounter := mount.New(tree, mount.WithLogger(slog.Default()))

	stats, err := mounter.Mount(ctx, flags.specs...)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	out := &output{tree: tree, flags: flags, w: cfg.Stdout}

	err = out.print(stats)
	if !flags.watch {
		return err
	}

	if err != nil {
		slog.Warn("Output failed", slog.Any("error", err))
	}

	slog.Debug("Watching for changes",
		slog.Int("watches", notifier.Len()))

	return watchLoop(ctx, notifier, func(ctx context.Context) {
		stats, err := mounter.Rescan(ctx)
		if err != nil {
			slog.Error("Rescan failed", slog.Any("error", err))
			return
		}

		err = out.print(stats)
		if err != nil {
			slog.Warn("Output failed", slog.Any("error", err))
		}
	})
}

// watchLoop delivers events of the notifier until the context is cancelled.
// Bursts of events are coalesced into a single call of rescan, once no
// further event arrived for [settleDelay].
func watchLoop(
	ctx context.Context,
	notifier *watch.Notifier,
	rescan func(context.Context),
) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		err := notifier.Run(ctx)
		if err != nil {
			return fmt.Errorf("watcher: %w", err)
		}

		return nil
	})

	eg.Go(func() error {
		var settled <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return nil
			case event, ok := <-notifier.Events():
				if !ok {
					return nil
				}

				slog.Debug("Change detected",
					slog.String("event", event.String()))

				settled = time.After(settleDelay)
			case <-settled:
				settled = nil

				rescan(ctx)
			}
		}
	})

	return eg.Wait() //nolint:wrapcheck
}

func handleParseArgsError(err error) int {
	// [ErrHelp] is returned when help is requested. So exit without error
	// in this case.
	if errors.Is(err, ErrHelp) {
		return 0
	}

	// ParseArgs already prints errors, so we just exit without an error.
	if !errors.Is(err, &ParseArgsError{}) {
		slog.Error(err.Error())
	}

	return -1
}

func handleRunError(err error) int {
	if errors.Is(err, arena.ErrOutOfMemory) {
		slog.Warn("tree exceeds memory limit, consider raising -limit")
	}

	slog.Error(err.Error())

	return -1
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	setupLogging(cfg.Stderr, false)

	flags, err := newFlags(args, cfg)
	if err != nil {
		return handleParseArgsError(err)
	}

	setupLogging(cfg.Stderr, flags.debug)

	err = run(ctx, flags, cfg)
	if err != nil {
		return handleRunError(err)
	}

	return 0
}
