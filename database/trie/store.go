// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package trie

import "sync"

// Store arbitrates the current version of a trie among concurrent readers
// and writers. Readers obtain an immutable snapshot and are never blocked by
// writers; writers are serialized so each derives its version from the most
// recent one. Callers wanting to retain history simply keep the Trie values
// returned by Current.
//
// The zero value is a store holding the empty trie.
type Store struct {
	// writeMutex serializes mutators so a writer's read-derive-publish
	// sequence is atomic with respect to other writers.
	writeMutex sync.Mutex
	// rootMutex guards the handover of the current version.
	rootMutex sync.RWMutex
	current   Trie
}

// Current returns the version that is current at the time of the call. The
// returned snapshot stays valid and unchanged regardless of later updates.
func (s *Store) Current() Trie {
	s.rootMutex.RLock()
	defer s.rootMutex.RUnlock()
	return s.current
}

// Remove unbinds the given key in a new version and makes it current.
func (s *Store) Remove(key string) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	s.publish(s.Current().Remove(key))
}

// StoreGet looks up a key in the store's current version. It is equivalent
// to Get on a snapshot obtained through Current.
func StoreGet[T any](s *Store, key string) (T, bool) {
	return Get[T](s.Current(), key)
}

// StorePut binds the given key in a new version and makes it current.
func StorePut[T any](s *Store, key string, value T) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	s.publish(Put(s.Current(), key, value))
}

func (s *Store) publish(t Trie) {
	s.rootMutex.Lock()
	s.current = t
	s.rootMutex.Unlock()
}
