// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package arena

import (
	"unsafe"
)

const defaultChunkLen = 128

// Slab hands out pointers to zeroed values of type T. Values are carved from
// chunks of fixed length, so creating many small values does not cause one
// heap allocation per value. Chunks are charged against the owning [Arena]
// and dropped together with it on [Arena.ReleaseAll].
type Slab[T any] struct {
	arena    *Arena
	chunkLen int
	chunks   [][]T
	next     int
}

// NewSlab creates a [Slab] bound to the given [Arena]. A chunkLen of zero
// selects a default.
func NewSlab[T any](a *Arena, chunkLen int) *Slab[T] {
	if chunkLen <= 0 {
		chunkLen = defaultChunkLen
	}

	s := &Slab[T]{
		arena:    a,
		chunkLen: chunkLen,
	}

	a.onRelease(s.reset)

	return s
}

func (s *Slab[T]) chunkBytes() int {
	var zero T

	return int(unsafe.Sizeof(zero)) * s.chunkLen
}

// Get returns a pointer to a new zero value.
func (s *Slab[T]) Get() (*T, error) {
	if len(s.chunks) == 0 || s.next == s.chunkLen {
		err := s.arena.Charge(s.chunkBytes())
		if err != nil {
			return nil, err
		}

		s.chunks = append(s.chunks, make([]T, s.chunkLen))
		s.next = 0
	}

	v := &s.chunks[len(s.chunks)-1][s.next]
	s.next++

	return v, nil
}

// Len returns the number of values handed out since the last release.
func (s *Slab[T]) Len() int {
	if len(s.chunks) == 0 {
		return 0
	}

	return (len(s.chunks)-1)*s.chunkLen + s.next
}

func (s *Slab[T]) reset() {
	s.chunks = nil
	s.next = 0
}
