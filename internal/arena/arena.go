// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package arena

import (
	"fmt"
	"log/slog"
	"strconv"
)

const (
	// BucketSize is the size of a single bucket including its back-link.
	BucketSize = 8 << 10

	// ptrSize is the size of the back-link slot and the alignment of every
	// allocation.
	ptrSize = strconv.IntSize / 8

	// MaxAlloc is the largest size a single [Arena.Allocate] call accepts.
	MaxAlloc = BucketSize - ptrSize
)

// bucket is a fixed-size block. The back-link occupies the first
// pointer-sized slot, the rest is handed out by the bump cursor.
type bucket struct {
	prev *bucket
	data [MaxAlloc]byte
}

// Stats describes the current state of an [Arena].
type Stats struct {
	Buckets int
	InUse   int
	Charged int
	Limit   int
}

// Option configures an [Arena].
type Option func(*Arena)

// WithLimit sets the maximum number of bytes the arena may hold, counting
// whole buckets and charged bytes. Zero means unlimited.
func WithLimit(limit int) Option {
	return func(a *Arena) {
		a.limit = limit
	}
}

// WithLogger sets the logger used for reporting invalid allocations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Arena) {
		a.logger = logger
	}
}

// Arena is a bump allocator over a backwards linked list of buckets.
//
// The zero value is not usable, use [New].
type Arena struct {
	current *bucket
	cursor  int
	buckets int
	charged int
	limit   int
	logger  *slog.Logger

	releasers []func()
}

// New creates a new empty [Arena]. No bucket is allocated before the first
// [Arena.Allocate] call.
func New(opts ...Option) *Arena {
	a := &Arena{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func alignUp(size int) int {
	return (size + ptrSize - 1) &^ (ptrSize - 1)
}

// Allocate returns a slice of exactly size bytes carved from the current
// bucket. A new bucket is opened if the rounded request does not fit into
// the remaining space.
func (a *Arena) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	if size > MaxAlloc {
		a.logger.Error("Arena allocation too large",
			slog.Int("size", size),
			slog.Int("max", MaxAlloc))

		return nil, fmt.Errorf("%w: %d > %d", ErrAllocTooLarge, size, MaxAlloc)
	}

	rounded := alignUp(size)

	if a.current == nil || a.cursor+rounded > MaxAlloc {
		err := a.openBucket()
		if err != nil {
			return nil, err
		}
	}

	start := a.cursor
	a.cursor += rounded

	return a.current.data[start : start+size : start+rounded], nil
}

func (a *Arena) openBucket() error {
	if !a.fits(BucketSize) {
		return fmt.Errorf("%w: bucket %d", ErrOutOfMemory, a.buckets+1)
	}

	a.current = &bucket{prev: a.current}
	a.cursor = 0
	a.buckets++

	return nil
}

// SetLimit changes the limit. It does not release anything already held.
func (a *Arena) SetLimit(limit int) {
	a.limit = limit
}

// Used returns the number of bytes counted against the limit.
func (a *Arena) Used() int {
	return a.buckets*BucketSize + a.charged
}

func (a *Arena) fits(n int) bool {
	if a.limit == 0 {
		return true
	}

	return a.buckets*BucketSize+a.charged+n <= a.limit
}

// Charge accounts n bytes of storage that live outside of buckets. It fails
// with [ErrOutOfMemory] if the limit does not allow it.
func (a *Arena) Charge(n int) error {
	if !a.fits(n) {
		return fmt.Errorf("%w: charge %d bytes", ErrOutOfMemory, n)
	}

	a.charged += n

	return nil
}

// Refund returns n previously charged bytes.
func (a *Arena) Refund(n int) {
	a.charged = max(a.charged-n, 0)
}

// ReleaseAll drops every bucket, from the newest to the oldest, and resets
// all registered slabs. The arena can be used again afterwards.
func (a *Arena) ReleaseAll() {
	for a.current != nil {
		prev := a.current.prev
		a.current.prev = nil
		a.current = prev
	}

	for _, release := range a.releasers {
		release()
	}

	a.cursor = 0
	a.buckets = 0
	a.charged = 0
}

// Buckets returns the length of the bucket chain, counted by following the
// back-links.
func (a *Arena) Buckets() int {
	n := 0
	for b := a.current; b != nil; b = b.prev {
		n++
	}

	return n
}

// Stats returns the current usage.
func (a *Arena) Stats() Stats {
	inUse := 0
	if a.buckets > 0 {
		inUse = (a.buckets-1)*MaxAlloc + a.cursor
	}

	return Stats{
		Buckets: a.buckets,
		InUse:   inUse,
		Charged: a.charged,
		Limit:   a.limit,
	}
}

func (a *Arena) onRelease(fn func()) {
	a.releasers = append(a.releasers, fn)
}
