// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package token implements the credential subsystem: the in-memory token store
with its on-disk mirror, and the refresh-token rotation registry.

Architecture:

  - Store: owns per-user tokens.json documents and the access/refresh expiry
    checks. The in-memory map is the state of truth during a run; the disk
    mirror is what survives a restart.
  - RotationRegistry: owns the chain topology of refresh tokens and persists
    its snapshot separately. Cross-references between the two are by token
    string, never by pointer.
*/
package token

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/custos/internal/platform/constants"
	"github.com/taibuivan/custos/internal/store"
	"github.com/taibuivan/custos/internal/users"
)

// # Authentication Failure Kinds

var (
	// ErrTokenUnknown marks a token absent from the store.
	ErrTokenUnknown = errors.New("token unknown")

	// ErrTokenExpired marks a token past its lifetime. The expired record is
	// removed before this error is returned (self-healing).
	ErrTokenExpired = errors.New("token expired")

	// ErrSubjectMissing marks a token whose subject no longer exists. This is
	// a data-integrity signal and is logged by callers.
	ErrSubjectMissing = errors.New("token subject missing")
)

// # Types

// Record is the in-memory state of one issued token.
type Record struct {
	Subject   string
	Time      time.Time
	IsRefresh bool
}

// Pair is a freshly minted access/refresh token pair.
type Pair struct {
	AccessToken   string    `json:"accessToken"`
	RefreshToken  string    `json:"refreshToken"`
	AccessExpiry  time.Time `json:"-"`
	RefreshExpiry time.Time `json:"-"`
	Subject       string    `json:"-"`
}

// randomToken is swappable in tests.
type randomToken func() (string, error)

// Store maps opaque token strings to their records, mirrored per-user on
// disk under tokens.json.
type Store struct {
	mu        sync.RWMutex
	tokens    map[string]Record
	directory *users.Directory
	documents *store.Store
	now       func() time.Time
	random    randomToken
}

// NewStore creates an empty token store over the given directory and
// document store. Call [Store.Load] before serving requests.
func NewStore(directory *users.Directory, documents *store.Store, random randomToken) *Store {
	return &Store{
		tokens:    make(map[string]Record),
		directory: directory,
		documents: documents,
		now:       time.Now,
		random:    random,
	}
}

// # Startup

// Load walks the user tree and rehydrates every tokens.json document into
// the in-memory map.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = make(map[string]Record)
	return s.documents.Walk(constants.UsersPrefix, func(path string, isFile bool) error {
		if !isFile || !strings.HasSuffix(path, "/tokens.json") {
			return nil
		}
		segments := strings.Split(path, "/")
		if len(segments) < 2 {
			return nil
		}
		subject := segments[len(segments)-2]

		entries := map[string]users.TokenEntry{}
		if err := s.documents.Load(path, &entries); err != nil {
			return err
		}
		for token, entry := range entries {
			s.tokens[token] = Record{Subject: subject, Time: entry.Time, IsRefresh: entry.IsRefresh}
		}
		return nil
	})
}

// # Issuance

// Mint generates a fresh token pair for the subject: access expiry now+1h,
// refresh expiry now+30d. Both tokens are recorded in memory and persisted
// to the subject's token document.
func (s *Store) Mint(subject string) (*Pair, error) {
	accessToken, err := s.random()
	if err != nil {
		return nil, fmt.Errorf("token: failed to mint access token: %w", err)
	}
	refreshToken, err := s.random()
	if err != nil {
		return nil, fmt.Errorf("token: failed to mint refresh token: %w", err)
	}

	issuedAt := s.now()

	s.mu.Lock()
	s.tokens[accessToken] = Record{Subject: subject, Time: issuedAt, IsRefresh: false}
	s.tokens[refreshToken] = Record{Subject: subject, Time: issuedAt, IsRefresh: true}
	err = s.persistSubjectLocked(subject)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpiry:  issuedAt.Add(constants.AccessTokenTTL),
		RefreshExpiry: issuedAt.Add(constants.RefreshTokenTTL),
		Subject:       subject,
	}, nil
}

// # Authentication

// Auth resolves a presented token to its user.
//
// Expired tokens are removed from memory and from the subject's token
// document before [ErrTokenExpired] is returned.
func (s *Store) Auth(presented string) (*users.User, error) {
	s.mu.RLock()
	record, ok := s.tokens[presented]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrTokenUnknown
	}

	lifetime := constants.AccessTokenTTL
	if record.IsRefresh {
		lifetime = constants.RefreshTokenTTL
	}
	if s.now().Sub(record.Time) > lifetime {
		s.mu.Lock()
		delete(s.tokens, presented)
		persistErr := s.persistSubjectLocked(record.Subject)
		s.mu.Unlock()
		if persistErr != nil {
			return nil, persistErr
		}
		return nil, ErrTokenExpired
	}

	user, err := s.directory.Get(record.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrSubjectMissing, record.Subject)
	}
	return user, nil
}

// Lookup returns the record for a token without expiry side effects.
func (s *Store) Lookup(presented string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.tokens[presented]
	return record, ok
}

// # Revocation

// ClearSubject removes every token belonging to the subject, in memory and
// on disk.
func (s *Store) ClearSubject(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, record := range s.tokens {
		if record.Subject == subject {
			delete(s.tokens, token)
		}
	}
	return s.persistSubjectLocked(subject)
}

// Forget drops a subject's tokens from memory only. Used when the user's
// documents are already being deleted wholesale.
func (s *Store) Forget(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, record := range s.tokens {
		if record.Subject == subject {
			delete(s.tokens, token)
		}
	}
}

// persistSubjectLocked rewrites the subject's token document from the
// in-memory map. Callers must hold s.mu.
func (s *Store) persistSubjectLocked(subject string) error {
	entries := map[string]users.TokenEntry{}
	for token, record := range s.tokens {
		if record.Subject == subject {
			entries[token] = users.TokenEntry{Time: record.Time, IsRefresh: record.IsRefresh}
		}
	}
	return s.directory.SaveTokens(subject, entries)
}
