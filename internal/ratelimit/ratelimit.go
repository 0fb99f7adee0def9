// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ratelimit implements the sliding-window attempt counter used for
per-IP request limiting and for path-scoped brute-force protection.

Window semantics:

  - The window starts at the first attempt and is not reset while the client
    is over the limit; a blocked client must go quiet for a full window.
  - Release drops a client's record entirely, re-opening the window.
*/
package ratelimit

import (
	"sync"
	"time"
)

// record tracks one client's window.
type record struct {
	first time.Time
	count int
}

// Limiter is a sliding-window counter keyed by client identifier.
//
// # Concurrency
//
// Safe for concurrent use; every request task may call Try.
type Limiter struct {
	mu      sync.Mutex
	records map[string]*record

	max    int
	window time.Duration
	now    func() time.Time
}

// New creates a Limiter allowing max attempts per window.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		records: make(map[string]*record),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

// Try records an attempt for key and reports whether it is allowed.
//
// A fresh key opens a window with count 1. An elapsed window resets to
// count 1. At or above the limit the attempt is refused and the window is
// deliberately left untouched.
func (l *Limiter) Try(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.records[key]
	if !ok || now.Sub(entry.first) > l.window {
		l.records[key] = &record{first: now, count: 1}
		return true
	}
	if entry.count >= l.max {
		return false
	}
	entry.count++
	return true
}

// Release removes the record for key, re-opening its window immediately.
func (l *Limiter) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, key)
}
