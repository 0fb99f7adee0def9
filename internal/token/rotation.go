// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package token

import (
	"errors"
	"sync"
	"time"

	"github.com/taibuivan/custos/internal/platform/constants"
	"github.com/taibuivan/custos/internal/store"
)

// Node is one entry of the refresh-token rotation chain. Each issued refresh
// token references the token it replaced, forming a per-user singly-linked
// list whose prefix can be revoked as a unit.
type Node struct {
	Subject   string
	CreatedAt time.Time
	Previous  string
}

// snapshotNode is the on-disk shape of a [Node]. The predecessor is null,
// not "", when the node started a chain.
type snapshotNode struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	Previous  *string   `json:"previousToken"`
}

// RotationRegistry tracks every live refresh token and its predecessor so a
// replayed ancestor can be detected and the whole chain mass-invalidated.
type RotationRegistry struct {
	mu        sync.Mutex
	nodes     map[string]Node
	documents *store.Store
	now       func() time.Time
}

// NewRotationRegistry creates an empty registry persisting to the given
// document store. Call [RotationRegistry.Load] before serving requests.
func NewRotationRegistry(documents *store.Store) *RotationRegistry {
	return &RotationRegistry{
		nodes:     make(map[string]Node),
		documents: documents,
		now:       time.Now,
	}
}

// # Chain Operations

// Register inserts a refresh token unconditionally. previous is the token
// the new one replaces; empty for a chain head.
func (r *RotationRegistry) Register(refreshToken, subject, previous string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[refreshToken] = Node{Subject: subject, CreatedAt: r.now(), Previous: previous}
}

// Validate reports whether the token is registered for the subject and
// still inside the refresh horizon. Expired entries are removed on
// observation.
func (r *RotationRegistry) Validate(refreshToken, subject string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[refreshToken]
	if !ok || node.Subject != subject {
		return false
	}
	if r.now().Sub(node.CreatedAt) > constants.RefreshTokenTTL {
		delete(r.nodes, refreshToken)
		return false
	}
	return true
}

// Invalidate deletes the node and cascades along the Previous chain until a
// missing predecessor stops the walk. Invalidating an unknown token is a
// no-op, which makes double invalidation safe.
func (r *RotationRegistry) Invalidate(refreshToken string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := refreshToken
	for current != "" {
		node, ok := r.nodes[current]
		if !ok {
			return
		}
		delete(r.nodes, current)
		current = node.Previous
	}
}

// ClearSubject deletes every node belonging to the subject.
func (r *RotationRegistry) ClearSubject(subject string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, node := range r.nodes {
		if node.Subject == subject {
			delete(r.nodes, token)
		}
	}
}

// Cleanup sweeps nodes past the refresh horizon.
func (r *RotationRegistry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	horizon := r.now()
	for token, node := range r.nodes {
		if horizon.Sub(node.CreatedAt) > constants.RefreshTokenTTL {
			delete(r.nodes, token)
		}
	}
}

// # Persistence

// Save serialises the registry to its snapshot document. Concurrent
// snapshotters are serialised by the registry lock.
func (r *RotationRegistry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]snapshotNode, len(r.nodes))
	for token, node := range r.nodes {
		entry := snapshotNode{Username: node.Subject, CreatedAt: node.CreatedAt}
		if node.Previous != "" {
			previous := node.Previous
			entry.Previous = &previous
		}
		snapshot[token] = entry
	}
	return r.documents.Save(constants.RotationRegistryPath, snapshot)
}

// Load rehydrates the registry from its snapshot document. A missing
// snapshot yields an empty registry.
func (r *RotationRegistry) Load() error {
	snapshot := map[string]snapshotNode{}
	if err := r.documents.Load(constants.RotationRegistryPath, &snapshot); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = make(map[string]Node, len(snapshot))
	for token, entry := range snapshot {
		node := Node{Subject: entry.Username, CreatedAt: entry.CreatedAt}
		if entry.Previous != nil {
			node.Previous = *entry.Previous
		}
		r.nodes[token] = node
	}
	return nil
}
