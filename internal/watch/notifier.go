// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package watch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aibor/vfstree/internal/vfs"
)

// Op describes what happened to a directory entry.
type Op uint32

const (
	// Create is set if an entry was created or moved into the directory.
	Create Op = 1 << iota

	// Remove is set if an entry was deleted or moved out of the directory.
	Remove

	// Write is set if an entry was modified or its attributes changed.
	Write

	// Overflow is set if the kernel dropped events. Path and Name are empty.
	Overflow
)

// String returns a string representation of the Op.
func (o Op) String() string {
	names := []string{}

	for _, op := range []struct {
		op   Op
		name string
	}{
		{Create, "create"},
		{Remove, "remove"},
		{Write, "write"},
		{Overflow, "overflow"},
	} {
		if o&op.op != 0 {
			names = append(names, op.name)
		}
	}

	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, "|")
}

// Event is a single change in a watched directory.
type Event struct {
	// Path is the watched real directory.
	Path string

	// Name is the name of the changed entry. It is empty if the directory
	// itself changed.
	Name string

	Op Op
}

// String returns a string representation of the Event.
func (e Event) String() string {
	return fmt.Sprintf("%s %s/%s", e.Op, e.Path, e.Name)
}

// Option configures a [Notifier].
type Option func(*Notifier)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// WithBuffer sets the capacity of the event channel.
func WithBuffer(size int) Option {
	return func(n *Notifier) {
		n.buffer = size
	}
}

type watch struct {
	path string
	refs int

	// gone is set once the kernel dropped the watch itself.
	gone bool
}

// Notifier registers directory watches and delivers their events.
//
// Watch and Cancel may be called concurrently with Run.
type Notifier struct {
	logger *slog.Logger
	buffer int
	events chan Event

	mu      sync.Mutex
	fd      int
	closed  bool
	watches map[vfs.WatchHandle]*watch
}

var _ vfs.Watcher = (*Notifier)(nil)

// New creates a new [Notifier]. It must be closed with [Notifier.Close] if
// [Notifier.Run] is never called.
func New(opts ...Option) (*Notifier, error) {
	n := &Notifier{
		logger:  slog.Default(),
		buffer:  64,
		fd:      -1,
		watches: map[vfs.WatchHandle]*watch{},
	}

	for _, opt := range opts {
		opt(n)
	}

	n.events = make(chan Event, n.buffer)

	err := n.open()
	if err != nil {
		return nil, err
	}

	return n, nil
}

// Supported returns true if the platform supports directory watches.
func (n *Notifier) Supported() bool {
	return supported
}

// Events returns the channel events are delivered on. It is closed when
// [Notifier.Run] returns.
func (n *Notifier) Events() <-chan Event {
	return n.events
}

// Watch registers a watch on the given directory. Watching the same
// directory again returns the same handle, which then must be cancelled as
// many times as it was registered.
func (n *Notifier) Watch(path string) (vfs.WatchHandle, error) {
	if !supported {
		return 0, ErrUnsupported
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return 0, ErrClosed
	}

	wd, err := n.addWatch(path)
	if err != nil {
		return 0, fmt.Errorf("add watch %s: %w", path, err)
	}

	handle := vfs.WatchHandle(wd)

	if w, exists := n.watches[handle]; exists {
		w.refs++
		return handle, nil
	}

	n.watches[handle] = &watch{path: path, refs: 1}

	n.logger.Debug("Added watch",
		slog.String("path", path),
		slog.Int("handle", wd))

	return handle, nil
}

// Cancel releases one registration of the watch.
func (n *Notifier) Cancel(handle vfs.WatchHandle) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	w, exists := n.watches[handle]
	if !exists {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, handle)
	}

	w.refs--
	if w.refs > 0 {
		return nil
	}

	delete(n.watches, handle)

	if n.closed || w.gone {
		return nil
	}

	err := n.removeWatch(int(handle))
	if err != nil {
		return fmt.Errorf("remove watch %s: %w", w.path, err)
	}

	n.logger.Debug("Removed watch",
		slog.String("path", w.path),
		slog.Int("handle", int(handle)))

	return nil
}

// Len returns the number of registered watches.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.watches)
}

// Run delivers events until the context is cancelled or reading fails. It
// closes the notifier and the event channel before it returns, so it must be
// called at most once.
func (n *Notifier) Run(ctx context.Context) error {
	defer close(n.events)
	defer n.Close()

	return n.run(ctx)
}

// Close releases the underlying resources. It is safe to call more than
// once.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}

	n.closed = true

	return n.close()
}

// pathOf returns the path registered for the handle.
func (n *Notifier) pathOf(handle vfs.WatchHandle) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	w, exists := n.watches[handle]
	if !exists {
		return "", false
	}

	return w.path, true
}

// forget marks the watch as removed by the kernel.
func (n *Notifier) forget(handle vfs.WatchHandle) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if w, exists := n.watches[handle]; exists {
		w.gone = true
	}
}

// deliver sends the event unless the context is done first.
func (n *Notifier) deliver(ctx context.Context, event Event) bool {
	select {
	case n.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
