// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package store implements the document-oriented persistence layer over a
filesystem root.

Every higher layer (user directory, token store, rotation registry, private
resources) addresses documents by a relative slash-separated path. The store
owns the on-disk byte layout; callers own the document schemas.

Architecture:

  - Atomicity: Save writes to a temp file in the target directory and renames
    it into place, so readers never observe a torn document.
  - Not-found: modelled as a distinct error kind ([ErrNotFound]) so loaders
    can translate it to "return default" while other IO errors propagate.
  - Streaming: Walk enumerates the tree breadth-first without loading
    documents, which keeps startup scans cheap.
*/
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound marks a document that does not exist. Callers that can supply
// a default value should test for it with [errors.Is].
var ErrNotFound = errors.New("document not found")

// Store persists JSON documents under a filesystem root.
//
// # Concurrency
//
// Writes to the same document path are serialised with a per-path lock;
// writes to distinct paths proceed in parallel.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Store rooted at dir. The directory is created if missing.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: failed to create root %s: %w", dir, err)
	}
	return &Store{root: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// Root returns the filesystem root of the store.
func (s *Store) Root() string { return s.root }

// # Document Operations

// Load reads the JSON document at path into target.
//
// Returns an error wrapping [ErrNotFound] when the file does not exist;
// missing parent directories are not created on load.
func (s *Store) Load(path string, target any) error {
	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("store: %s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("store: failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("store: failed to decode %s: %w", path, err)
	}
	return nil
}

// LoadRaw reads the raw bytes at path. Rule files are plain text, not JSON.
//
// Returns an error wrapping [ErrNotFound] when the file does not exist.
func (s *Store) LoadRaw(path string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("store: %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("store: failed to read %s: %w", path, err)
	}
	return data, nil
}

// Save atomically replaces the document at path, creating parent directories
// as needed.
func (s *Store) Save(path string, value any) error {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: failed to encode %s: %w", path, err)
	}

	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("store: failed to create parents for %s: %w", path, err)
	}

	// Write-then-rename keeps concurrent readers on a consistent document.
	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return fmt.Errorf("store: failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: failed to flush %s: %w", path, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: failed to replace %s: %w", path, err)
	}
	return nil
}

// Drop removes the document at path. A missing document is a no-op.
func (s *Store) Drop(path string) error {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.resolve(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: failed to remove %s: %w", path, err)
	}
	return nil
}

// Exists reports whether a document is present at path.
func (s *Store) Exists(path string) (bool, error) {
	info, err := os.Stat(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("store: failed to stat %s: %w", path, err)
	}
	return !info.IsDir(), nil
}

// # Tree Enumeration

// WalkFunc receives each entry under the walked prefix. Returning a non-nil
// error stops the walk and propagates the error.
type WalkFunc func(path string, isFile bool) error

// Walk enumerates all entries under prefix breadth-first. The paths passed
// to fn are relative to the store root and slash-separated. A missing prefix
// yields no entries.
func (s *Store) Walk(prefix string, fn WalkFunc) error {
	queue := []string{prefix}

	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(s.resolve(dir))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("store: failed to list %s: %w", dir, err)
		}

		for _, entry := range entries {
			rel := entry.Name()
			if dir != "" {
				rel = dir + "/" + entry.Name()
			}
			if err := fn(rel, !entry.IsDir()); err != nil {
				return err
			}
			if entry.IsDir() {
				queue = append(queue, rel)
			}
		}
	}
	return nil
}

// # Helpers

// resolve maps a relative document path onto the filesystem, refusing to
// escape the root.
func (s *Store) resolve(path string) string {
	clean := filepath.Clean("/" + strings.ReplaceAll(path, "\\", "/"))
	return filepath.Join(s.root, filepath.FromSlash(clean))
}

// pathLock returns the per-path write lock, creating it on first use.
func (s *Store) pathLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[path] = lock
	}
	return lock
}
