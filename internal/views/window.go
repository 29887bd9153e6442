// Viewscope - Video View Tracking and Statistics
// Copyright 2026 O. Kukhariev (kukhariev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kukhariev/viewscope

package views

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrWindowStoreClosed indicates the store has been closed.
var ErrWindowStoreClosed = errors.New("window store is closed")

// WindowStore tracks open view windows per (video, viewer session) in
// BadgerDB. A key present in the store means the viewer is inside the
// dedup window; Badger's TTL expires it without any sweeper of our own.
// File-backed stores survive restarts, so a restart does not double
// count views already inside a window.
type WindowStore struct {
	db     *badger.DB
	window time.Duration
	closed bool
	mu     sync.RWMutex
}

// NewWindowStore opens the dedup token store. An empty path selects an
// in-memory store.
func NewWindowStore(path string, window time.Duration) (*WindowStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	} else {
		opts = badger.DefaultOptions(path).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open window store: %w", err)
	}

	return &WindowStore{db: db, window: window}, nil
}

func (s *WindowStore) makeKey(videoID, viewerSessionID string) []byte {
	return []byte("window:" + videoID + ":" + viewerSessionID)
}

// Touch atomically checks whether the viewer has an open window on the
// video and opens one when not. Returns true when a new window was
// opened, i.e. the ping counts as a fresh view.
func (s *WindowStore) Touch(videoID, viewerSessionID string) (bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return false, ErrWindowStoreClosed
	}
	s.mu.RUnlock()

	key := s.makeKey(videoID, viewerSessionID)

	newView := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		newView = true
		entry := badger.NewEntry(key, []byte{1}).WithTTL(s.window)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return false, fmt.Errorf("touch view window: %w", err)
	}
	return newView, nil
}

// TouchToken atomically records a caller-supplied idempotency token.
// Returns true the first time a token is seen inside the window. A
// repeated token means the caller is retrying a ping whose outcome it
// never saw, so the append must not happen twice.
func (s *WindowStore) TouchToken(token string) (bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return false, ErrWindowStoreClosed
	}
	s.mu.RUnlock()

	key := []byte("token:" + token)

	first := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		first = true
		entry := badger.NewEntry(key, []byte{1}).WithTTL(s.window)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return false, fmt.Errorf("touch idempotency token: %w", err)
	}
	return first, nil
}

// Release closes a window opened by Touch. Used to roll back a window
// when the append that followed it failed, so the retry is counted as
// a fresh view again.
func (s *WindowStore) Release(videoID, viewerSessionID string) error {
	return s.delete(s.makeKey(videoID, viewerSessionID))
}

// ReleaseToken forgets an idempotency token recorded by TouchToken.
// Used to roll back a token when the append it guarded failed, so a
// retry with the same token is not swallowed as a duplicate.
func (s *WindowStore) ReleaseToken(token string) error {
	return s.delete([]byte("token:" + token))
}

func (s *WindowStore) delete(key []byte) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrWindowStoreClosed
	}
	s.mu.RUnlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("release window key: %w", err)
	}
	return nil
}

// RunGC rewrites the Badger value log to reclaim space from expired
// windows. No-op for in-memory stores and when nothing is reclaimable.
func (s *WindowStore) RunGC() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrWindowStoreClosed
	}

	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

// Close closes the underlying Badger database.
func (s *WindowStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
