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
	"github.com/Fantom-foundation/Quarry/go/common"
)

// FrameId identifies a single slot of a buffer pool tracked by a Replacer.
// Pools hand out small non-negative identifiers.
type FrameId int

// AccessType describes the kind of operation that touched a page. The
// current policies record accesses uniformly, but the type is part of the
// replacer contract so policies can weight accesses differently in the
// future (a full table scan should ideally not flush the hot set).
type AccessType int

const (
	AccessUnknown AccessType = iota
	AccessLookup
	AccessScan
	AccessIndex
)

const (
	// ErrFrameOutOfRange is returned when an operation addresses a frame
	// identifier outside the range covered by the replacer.
	ErrFrameOutOfRange = common.ConstError("frame id out of range")

	// ErrFrameNotEvictable is returned when removing a frame that is still
	// pinned. Callers have to mark a frame evictable before retiring it.
	ErrFrameNotEvictable = common.ConstError("frame is not evictable")
)

// Replacer selects victim frames to be reclaimed by a buffer pool. All
// operations are safe for concurrent use.
//
// The pool is expected to report every page access through RecordAccess,
// toggle eviction eligibility through SetEvictable whenever a frame's pin
// count leaves or reaches zero, and call Evict when a free frame is needed.
// Remove retires a frame without consulting the eviction policy, for
// instance when the pool shrinks.
type Replacer interface {
	// RecordAccess registers a single access to the given frame. It fails
	// with ErrFrameOutOfRange for invalid frame identifiers; such a failure
	// indicates a bug in the caller.
	RecordAccess(id FrameId, access AccessType) error

	// Evict selects a victim among the evictable frames, forgets its access
	// history, and returns its identifier. The second return value is false
	// if no frame is currently evictable.
	Evict() (FrameId, bool)

	// SetEvictable marks the given frame as a potential eviction victim or
	// protects it from eviction. Calls for frames without recorded accesses
	// are ignored.
	SetEvictable(id FrameId, evictable bool)

	// Remove drops all bookkeeping for the given frame without going through
	// the eviction policy. Removing a frame that is not evictable fails with
	// ErrFrameNotEvictable; removing an untracked frame is a no-op.
	Remove(id FrameId) error

	// Size returns the number of frames that are currently evictable.
	Size() int
}
