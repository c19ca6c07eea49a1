// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package watch

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aibor/vfstree/internal/vfs"
	"golang.org/x/sys/unix"
)

const supported = true

// pollTimeout is the poll(2) timeout in milliseconds. It bounds the time Run
// needs to notice a cancelled context.
const pollTimeout = 100

const watchMask = unix.IN_CREATE |
	unix.IN_DELETE |
	unix.IN_MOVED_FROM |
	unix.IN_MOVED_TO |
	unix.IN_MODIFY |
	unix.IN_ATTRIB |
	unix.IN_DELETE_SELF |
	unix.IN_MOVE_SELF |
	unix.IN_ONLYDIR

func (n *Notifier) open() error {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return fmt.Errorf("inotify_init1: %w", err)
	}

	n.fd = fd

	return nil
}

func (n *Notifier) addWatch(path string) (int, error) {
	return unix.InotifyAddWatch(n.fd, path, watchMask) //nolint:wrapcheck
}

func (n *Notifier) removeWatch(wd int) error {
	_, err := unix.InotifyRmWatch(n.fd, uint32(wd)) //nolint:gosec
	return err                                      //nolint:wrapcheck
}

func (n *Notifier) close() error {
	err := unix.Close(n.fd)
	n.fd = -1

	return err //nolint:wrapcheck
}

func (n *Notifier) run(ctx context.Context) error {
	n.mu.Lock()
	fd, closed := n.fd, n.closed
	n.mu.Unlock()

	if closed {
		return ErrClosed
	}

	buffer := make([]byte, 64*(unix.SizeofInotifyEvent+unix.NAME_MAX+1))

	for {
		if ctx.Err() != nil {
			return nil
		}

		pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}} //nolint:gosec

		count, err := unix.Poll(pollFds, pollTimeout)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}

			return fmt.Errorf("poll: %w", err)
		}

		if count == 0 {
			continue
		}

		bytesRead, err := unix.Read(fd, buffer)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}

			return fmt.Errorf("read: %w", err)
		}

		for _, raw := range decodeEvents(buffer[:bytesRead]) {
			event, ok := n.translate(raw)
			if !ok {
				continue
			}

			if !n.deliver(ctx, event) {
				return nil
			}
		}
	}
}

func (n *Notifier) translate(raw rawEvent) (Event, bool) {
	if raw.mask&unix.IN_Q_OVERFLOW != 0 {
		n.logger.Warn("Inotify event queue overflowed")
		return Event{Op: Overflow}, true
	}

	handle := vfs.WatchHandle(raw.wd)

	if raw.mask&unix.IN_IGNORED != 0 {
		n.forget(handle)
		return Event{}, false
	}

	path, known := n.pathOf(handle)
	if !known {
		return Event{}, false
	}

	op := opOf(raw.mask)
	if op == 0 {
		return Event{}, false
	}

	n.logger.Debug("Received watch event",
		slog.String("path", path),
		slog.String("name", raw.name),
		slog.String("op", op.String()))

	return Event{Path: path, Name: raw.name, Op: op}, true
}

func opOf(mask uint32) Op {
	var op Op

	if mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0 {
		op |= Create
	}

	if mask&(unix.IN_DELETE|unix.IN_MOVED_FROM|unix.IN_DELETE_SELF|unix.IN_MOVE_SELF) != 0 {
		op |= Remove
	}

	if mask&(unix.IN_MODIFY|unix.IN_ATTRIB) != 0 {
		op |= Write
	}

	return op
}

type rawEvent struct {
	wd   int32
	mask uint32
	name string
}

// decodeEvents parses a buffer of raw inotify events as described in
// inotify(7):
//
//	struct inotify_event {
//	    int32_t  wd;     // offset 0
//	    uint32_t mask;   // offset 4
//	    uint32_t cookie; // offset 8
//	    uint32_t len;    // offset 12
//	    char     name[]; // offset 16, null padded
//	};
//
// A truncated trailing event is dropped.
func decodeEvents(buffer []byte) []rawEvent {
	events := []rawEvent{}
	offset := 0

	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		header := buffer[offset : offset+unix.SizeofInotifyEvent]
		nameLength := int(binary.NativeEndian.Uint32(header[12:16]))

		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}

		events = append(events, rawEvent{
			wd:   int32(binary.NativeEndian.Uint32(header[0:4])), //nolint:gosec
			mask: binary.NativeEndian.Uint32(header[4:8]),
			name: nullTerminated(buffer[offset+unix.SizeofInotifyEvent : offset+eventSize]),
		})

		offset += eventSize
	}

	return events
}

func nullTerminated(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}

	return string(data)
}
