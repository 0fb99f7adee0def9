// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package users implements the user directory layered over the document store.

It encodes user records, verification and reset codes, and the role list, and
maps usernames onto the sharded on-disk path scheme.

Architecture:

  - Layout: a user named "alice" lives under users/al/ic/alice/ with
    info.json (the record), tokens.json (issued credentials), and an
    optional access.txt (per-user access rules).
  - Sharding: the two-level prefix split keeps any single directory's
    fanout bounded regardless of the number of accounts.
*/
package users

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/taibuivan/custos/internal/platform/constants"
	"github.com/taibuivan/custos/internal/store"
)

// namePattern is the username contract shared by signup and Save.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// ErrInvalidName is returned when a username violates the pattern.
var ErrInvalidName = errors.New("username must be 3-32 characters of letters, digits, '_' or '-'")

// ValidName reports whether name satisfies the username contract.
func ValidName(name string) bool { return namePattern.MatchString(name) }

// Directory provides access to user records on top of a [*store.Store].
type Directory struct {
	store *store.Store
}

// NewDirectory creates a Directory over the given document store.
func NewDirectory(documentStore *store.Store) *Directory {
	return &Directory{store: documentStore}
}

// # Path Scheme

// ShardPath returns the sharded directory of a user, e.g.
// "users/al/ic/alice" for "alice". Names of length 3 collapse the second
// shard segment to the single remaining character.
func ShardPath(name string) string {
	second := name[2:]
	if len(name) >= 4 {
		second = name[2:4]
	}
	return constants.UsersPrefix + "/" + name[:2] + "/" + second + "/" + name
}

// InfoPath returns the path of a user's record document.
func InfoPath(name string) string { return ShardPath(name) + "/info.json" }

// TokensPath returns the path of a user's token document.
func TokensPath(name string) string { return ShardPath(name) + "/tokens.json" }

// AccessPath returns the path of a user's optional rule file.
func AccessPath(name string) string { return ShardPath(name) + "/access.txt" }

// # Operations

// Get loads a user record and merges in the token document. Returns
// (nil, nil) when no such user exists; a missing token document yields an
// empty token map.
func (d *Directory) Get(name string) (*User, error) {
	if !ValidName(name) {
		return nil, nil
	}

	user := &User{}
	if err := d.store.Load(InfoPath(name), user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	tokens := map[string]TokenEntry{}
	if err := d.store.Load(TokensPath(name), &tokens); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	user.Tokens = tokens
	return user, nil
}

// Save validates the username and persists the record document. Token
// material is persisted separately via [Directory.SaveTokens].
func (d *Directory) Save(user *User) error {
	if !ValidName(user.Name) {
		return fmt.Errorf("users: %q: %w", user.Name, ErrInvalidName)
	}
	return d.store.Save(InfoPath(user.Name), user)
}

// SaveTokens replaces a user's token document.
func (d *Directory) SaveTokens(name string, tokens map[string]TokenEntry) error {
	return d.store.Save(TokensPath(name), tokens)
}

// Delete removes the record and token documents. Unknown users are a no-op.
func (d *Directory) Delete(name string) error {
	if err := d.store.Drop(InfoPath(name)); err != nil {
		return err
	}
	return d.store.Drop(TokensPath(name))
}

// List returns every username in the directory, sorted, by scanning for
// info.json documents under the user tree.
func (d *Directory) List() ([]string, error) {
	var names []string
	err := d.store.Walk(constants.UsersPrefix, func(path string, isFile bool) error {
		if !isFile || !strings.HasSuffix(path, "/info.json") {
			return nil
		}
		segments := strings.Split(path, "/")
		if len(segments) >= 2 {
			names = append(names, segments[len(segments)-2])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Empty reports whether the directory contains no users. Used by the
// first-start bootstrap.
func (d *Directory) Empty() (bool, error) {
	names, err := d.List()
	if err != nil {
		return false, err
	}
	return len(names) == 0, nil
}
