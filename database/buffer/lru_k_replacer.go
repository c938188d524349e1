// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package buffer

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
)

// LruKReplacer implements the LRU-K eviction policy. For every tracked frame
// it retains the timestamps of the up to k most recent accesses. Frames with
// fewer than k recorded accesses are preferred victims and evicted in FIFO
// order of their admission; among frames with at least k accesses the one
// whose k-th most recent access lies furthest in the past is evicted first.
//
// Internally, frames are kept in two disjoint pools: a linked list of frames
// still below k accesses, ordered by admission, and a slice of frames with at
// least k accesses, sorted ascending by their backward k-distance. A frame
// with no recorded accesses is in neither pool. All operations are guarded by
// a single mutex; no operation exceeds O(capacity).
type LruKReplacer struct {
	capacity int
	k        int

	clock  uint64 // logical time, advanced once per recorded access
	seq    uint64 // generation counter for aged pool entries
	frames map[FrameId]*frameState
	aged   []agedEntry // ascending by (backward k-distance, seq)
	size   int         // number of evictable tracked frames

	// admission-ordered list of frames with fewer than k accesses,
	// head being the most recently admitted one
	recentHead *frameState
	recentTail *frameState

	mutex sync.Mutex
}

// frameState is the access record of a single tracked frame. A record is
// created on the frame's first access and dropped again on eviction or
// removal.
type frameState struct {
	id        FrameId
	history   []uint64 // the up to k most recent access times, oldest first
	count     int      // accesses recorded since admission
	evictable bool

	// position within the recent pool
	prev, next *frameState

	// key of this frame's entry in the aged pool
	dist uint64
	seq  uint64
}

// agedEntry locates a frame within the aged pool. The seq component makes
// entries with equal distances unique and orders them by insertion.
type agedEntry struct {
	dist uint64 // backward k-distance, the time of the k-th most recent access
	seq  uint64
	id   FrameId
}

func compareAged(a, b agedEntry) int {
	if a.dist != b.dist {
		if a.dist < b.dist {
			return -1
		}
		return 1
	}
	if a.seq != b.seq {
		if a.seq < b.seq {
			return -1
		}
		return 1
	}
	return 0
}

// NewLruKReplacer creates a replacer covering frames [0..capacity] using the
// k most recent accesses of each frame for selecting eviction victims.
func NewLruKReplacer(capacity int, k int) *LruKReplacer {
	if capacity < 1 {
		capacity = 1
	}
	if k < 1 {
		k = 1
	}
	return &LruKReplacer{
		capacity: capacity,
		k:        k,
		frames:   make(map[FrameId]*frameState, capacity),
	}
}

// RecordAccess registers a single access to the given frame at the current
// logical time. The first access of a frame admits it to the replacer,
// evicting another frame first if the evictable set is already at capacity.
func (r *LruKReplacer) RecordAccess(id FrameId, access AccessType) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if id < 0 || int(id) > r.capacity {
		return fmt.Errorf("%w: frame %d, capacity %d", ErrFrameOutOfRange, id, r.capacity)
	}
	r.clock++
	frame, exists := r.frames[id]
	if !exists {
		frame = &frameState{id: id, history: make([]uint64, 0, r.k)}
		r.frames[id] = frame
	}
	if len(frame.history) == r.k {
		copy(frame.history, frame.history[1:])
		frame.history = frame.history[:r.k-1]
	}
	frame.history = append(frame.history, r.clock)
	frame.count++

	if frame.count == 1 {
		if r.size == r.capacity {
			r.evict()
		}
		frame.evictable = true
		r.size++
		r.pushRecent(frame)
	}
	if frame.count == r.k {
		r.removeRecent(frame)
		r.insertAged(frame)
	} else if frame.count > r.k {
		r.removeAged(frame)
		r.insertAged(frame)
	}
	return nil
}

// Evict selects the eviction victim among all evictable frames, drops its
// access record, and returns its identifier. Frames with fewer than k
// accesses are victimized first, oldest admission first; otherwise the frame
// with the largest backward k-distance is chosen. The second return value is
// false if no evictable frame exists.
func (r *LruKReplacer) Evict() (FrameId, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.evict()
}

// evict implements Evict on the already locked replacer state. It is also
// used for the internal eviction making room for newly admitted frames.
func (r *LruKReplacer) evict() (FrameId, bool) {
	for frame := r.recentTail; frame != nil; frame = frame.prev {
		if frame.evictable {
			r.removeRecent(frame)
			r.drop(frame)
			return frame.id, true
		}
	}
	for _, entry := range r.aged {
		frame := r.frames[entry.id]
		if frame.evictable {
			r.removeAged(frame)
			r.drop(frame)
			return frame.id, true
		}
	}
	return 0, false
}

// SetEvictable toggles the eviction eligibility of the given frame. Calls
// for frames without any recorded access are ignored, repeated calls with
// the same flag have no effect.
func (r *LruKReplacer) SetEvictable(id FrameId, evictable bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	frame, exists := r.frames[id]
	if !exists || frame.evictable == evictable {
		return
	}
	frame.evictable = evictable
	if evictable {
		r.size++
	} else {
		r.size--
	}
}

// Remove drops the access record of the given frame without consulting the
// eviction policy. The frame must be evictable; removing a frame that was
// never accessed is a no-op.
func (r *LruKReplacer) Remove(id FrameId) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if id < 0 || int(id) > r.capacity {
		return fmt.Errorf("%w: frame %d, capacity %d", ErrFrameOutOfRange, id, r.capacity)
	}
	frame, exists := r.frames[id]
	if !exists {
		return nil
	}
	if !frame.evictable {
		return fmt.Errorf("%w: frame %d", ErrFrameNotEvictable, id)
	}
	if frame.count < r.k {
		r.removeRecent(frame)
	} else {
		r.removeAged(frame)
	}
	r.drop(frame)
	return nil
}

// Size returns the number of tracked frames that are currently evictable.
func (r *LruKReplacer) Size() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.size
}

func (r *LruKReplacer) drop(frame *frameState) {
	delete(r.frames, frame.id)
	r.size--
}

func (r *LruKReplacer) pushRecent(frame *frameState) {
	frame.prev = nil
	frame.next = r.recentHead
	if r.recentHead != nil {
		r.recentHead.prev = frame
	}
	r.recentHead = frame
	if r.recentTail == nil {
		r.recentTail = frame
	}
}

func (r *LruKReplacer) removeRecent(frame *frameState) {
	if frame.prev != nil {
		frame.prev.next = frame.next
	} else {
		r.recentHead = frame.next
	}
	if frame.next != nil {
		frame.next.prev = frame.prev
	} else {
		r.recentTail = frame.prev
	}
	frame.prev = nil
	frame.next = nil
}

// insertAged adds the frame to the aged pool at the position given by its
// backward k-distance. The strictly increasing seq component places it after
// all present entries with the same distance, so equal distances stay in
// insertion order.
func (r *LruKReplacer) insertAged(frame *frameState) {
	r.seq++
	frame.dist = frame.history[0]
	frame.seq = r.seq
	entry := agedEntry{dist: frame.dist, seq: frame.seq, id: frame.id}
	pos, _ := slices.BinarySearchFunc(r.aged, entry, compareAged)
	r.aged = slices.Insert(r.aged, pos, entry)
}

func (r *LruKReplacer) removeAged(frame *frameState) {
	entry := agedEntry{dist: frame.dist, seq: frame.seq, id: frame.id}
	if pos, found := slices.BinarySearchFunc(r.aged, entry, compareAged); found {
		r.aged = slices.Delete(r.aged, pos, pos+1)
	}
}
