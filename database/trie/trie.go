// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package trie provides a persistent prefix tree mapping string keys to
// values of arbitrary types. Every mutation produces a new Trie version and
// leaves all previously obtained versions untouched. Versions share all
// unmodified subtrees, so a mutation costs O(key length) regardless of the
// overall size of the trie, and a node stays alive exactly as long as some
// version references it.
package trie

import (
	"golang.org/x/exp/maps"
)

// node is a single trie node. Nodes are immutable once linked into a
// published Trie version; updates clone the nodes along the affected path
// and share everything else. The children of a node are keyed by the next
// byte of the key path. A node with hasValue set terminates a stored key.
type node struct {
	children map[byte]*node
	value    any
	hasValue bool
}

// clone creates a shallow copy of this node. The children mapping is copied
// so the clone can be relinked, but all referenced subtrees remain shared.
func (n *node) clone() *node {
	return &node{
		children: maps.Clone(n.children),
		value:    n.value,
		hasValue: n.hasValue,
	}
}

func (n *node) setChild(c byte, child *node) {
	if n.children == nil {
		n.children = map[byte]*node{}
	}
	n.children[c] = child
}

// Trie is one immutable version of the key/value mapping. The zero value is
// the empty trie. Trie values are cheap to copy and safe for concurrent use;
// deriving new versions from the same base on multiple threads is safe as
// well, but deciding which derived version becomes current is up to the
// caller (see Store).
type Trie struct {
	root *node
}

// Get looks up the value stored for the given key in the given version. The
// second return value is false if the key is not present or the stored value
// is not of type T; a type mismatch is deliberately indistinguishable from
// an absent key.
func Get[T any](t Trie, key string) (T, bool) {
	var none T
	cur := t.root
	for i := 0; i < len(key) && cur != nil; i++ {
		cur = cur.children[key[i]]
	}
	if cur == nil || !cur.hasValue {
		return none, false
	}
	value, ok := cur.value.(T)
	if !ok {
		return none, false
	}
	return value, true
}

// Put derives a new version in which the given key is bound to the given
// value, replacing any previous binding. The empty key binds the root
// itself. The receiver version and all other versions remain unchanged.
func Put[T any](t Trie, key string, value T) Trie {
	parents := make([]*node, 0, len(key))
	var cur *node
	if t.root != nil {
		cur = t.root.clone()
	} else {
		cur = &node{}
	}
	for i := 0; i < len(key); i++ {
		parents = append(parents, cur)
		if next := cur.children[key[i]]; next != nil {
			cur = next.clone()
		} else {
			cur = &node{}
		}
	}
	// The terminal node keeps its children, so any longer keys extending
	// this one survive the update.
	cur.value = value
	cur.hasValue = true
	for i := len(key) - 1; i >= 0; i-- {
		parents[i].setChild(key[i], cur)
		cur = parents[i]
	}
	return Trie{root: cur}
}

// Remove derives a new version in which the given key is unbound. If the key
// is not present, the same version is returned without any copying. Nodes
// that end up without value and children are pruned, cascading towards the
// root; removing the last binding yields the empty trie.
func (t Trie) Remove(key string) Trie {
	parents := make([]*node, 0, len(key))
	cur := t.root
	for i := 0; i < len(key); i++ {
		if cur == nil {
			return t
		}
		parents = append(parents, cur)
		cur = cur.children[key[i]]
	}
	if cur == nil || !cur.hasValue {
		return t
	}
	// Strip the value off the terminal node but keep its children; longer
	// keys passing through it stay reachable.
	child := &node{children: cur.children}
	for i := len(parents) - 1; i >= 0; i-- {
		parent := parents[i].clone()
		if child.hasValue || len(child.children) > 0 {
			parent.setChild(key[i], child)
		} else {
			delete(parent.children, key[i])
		}
		child = parent
	}
	if !child.hasValue && len(child.children) == 0 {
		return Trie{}
	}
	return Trie{root: child}
}
