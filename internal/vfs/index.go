// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"fmt"
	"iter"
	"strconv"
	"unsafe"
)

const (
	// minIndexCap is the capacity of a child index on first insertion. Must
	// be a power of two.
	minIndexCap = 8

	slotSize = strconv.IntSize / 8
)

// FNV-1a constants for 32-bit hash.
const (
	fnvBasis32 uint32 = 2166136261
	fnvPrime32 uint32 = 16777619
)

// fnv32 computes the FNV-1a hash of an already folded key.
func fnv32(key string) uint32 {
	h := fnvBasis32
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= fnvPrime32
	}

	return h
}

// childIndex maps names to nodes case-insensitively. It is an open
// addressing hash table with linear probing. Entries are never removed one
// by one, so no tombstones are needed.
//
// Capacity is always a power of two and at least twice the number of
// entries. Nodes live in the arena, not in the slot array, so a node pointer
// stays valid when the table grows. Iterators do not.
type childIndex struct {
	store *store
	slots []*Node
	count int
}

// Len returns the number of entries.
func (x *childIndex) Len() int {
	return x.count
}

// Cap returns the current capacity of the slot array.
func (x *childIndex) Cap() int {
	return len(x.slots)
}

// probe returns the slot for key. The node is non-nil if the key exists,
// otherwise the slot is the empty one the key would be inserted at. The
// table must not be empty.
func (x *childIndex) probe(key string) (int, *Node) {
	mask := len(x.slots) - 1
	i := int(fnv32(key)) & mask

	for {
		node := x.slots[i]
		if node == nil || node.key == key {
			return i, node
		}

		i = (i + 1) & mask
	}
}

func (x *childIndex) find(name string) *Node {
	if x.count == 0 {
		return nil
	}

	_, node := x.probe(x.store.fold(name))

	return node
}

// add returns the existing node for name or inserts a new one of the given
// type. The returned bool is true if the node was created. A new node is only
// inserted once its payload is allocated, so on failure the index holds no
// entry for name.
func (x *childIndex) add(name string, typ NodeType) (*Node, bool, error) {
	key := x.store.fold(name)

	if x.count > 0 {
		if _, node := x.probe(key); node != nil {
			return node, false, nil
		}
	}

	if (x.count+1)*2 > len(x.slots) {
		err := x.grow(max(len(x.slots)*2, minIndexCap))
		if err != nil {
			return nil, false, err
		}
	}

	node, err := x.store.newNode(name, key)
	if err != nil {
		return nil, false, err
	}

	err = x.store.initNode(node, typ)
	if err != nil {
		return nil, false, err
	}

	slot, _ := x.probe(key)
	x.slots[slot] = node
	x.count++

	return node, true, nil
}

func (x *childIndex) grow(capacity int) error {
	err := x.store.arena.Charge(capacity * slotSize)
	if err != nil {
		return fmt.Errorf("grow child index to %d: %w", capacity, err)
	}

	old := x.slots
	x.slots = make([]*Node, capacity)
	mask := capacity - 1

	for _, node := range old {
		if node == nil {
			continue
		}

		i := int(fnv32(node.key)) & mask
		for x.slots[i] != nil {
			i = (i + 1) & mask
		}

		x.slots[i] = node
	}

	x.store.arena.Refund(len(old) * slotSize)

	return nil
}

// clear drops the slot array. Nodes are owned by the arena and children are
// not cleared recursively.
func (x *childIndex) clear() {
	x.store.arena.Refund(len(x.slots) * slotSize)
	x.slots = nil
	x.count = 0
}

// indexIterator iterates the occupied slots of a [childIndex]. It must not be
// used after the index grew or was cleared.
type indexIterator struct {
	slots []*Node
	pos   int
}

func (x *childIndex) iterator() indexIterator {
	return indexIterator{slots: x.slots}
}

func (it *indexIterator) next() (*Node, bool) {
	for it.pos < len(it.slots) {
		node := it.slots[it.pos]
		it.pos++

		if node != nil {
			return node, true
		}
	}

	return nil, false
}

// all returns an iterator over all nodes in storage order.
func (x *childIndex) all() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		it := x.iterator()
		for node, ok := it.next(); ok; node, ok = it.next() {
			if !yield(node) {
				return
			}
		}
	}
}

// inlineStrings copies name and key into one arena allocation and returns
// strings backed by it. Arena memory is never written again after this.
func inlineStrings(buf []byte, name, key string) (string, string) {
	copy(buf, name)
	copy(buf[len(name):], key)

	if len(key) == 0 {
		return unsafe.String(&buf[0], len(name)), ""
	}

	return unsafe.String(&buf[0], len(name)),
		unsafe.String(&buf[len(name)], len(key))
}
