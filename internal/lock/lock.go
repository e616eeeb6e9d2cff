// Package lock implements per-page shared/exclusive locking with
// bounded-backoff deadlock detection, as required by the buffer pool's
// NO-STEAL/FORCE transaction protocol.
package lock

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/heapdb/heapdb/internal/pageid"
	"github.com/heapdb/heapdb/internal/tuple"
)

// Permission is the access mode requested of the lock manager.
type Permission uint8

const (
	ReadOnly Permission = iota
	ReadWrite
)

// ErrTxnAborted is returned by AcquireLock when the deadlock detector gives
// up on a transaction: the caller must tear the transaction down via
// ReleasePages and roll its writes back.
var ErrTxnAborted = errors.New("lock: transaction aborted by deadlock detection")

const (
	defaultPollInterval    = 2 * time.Millisecond
	defaultDeadlockTimeout = 500 * time.Millisecond
)

type state struct {
	shared    map[tuple.TransactionId]bool
	exclusive tuple.TransactionId
	hasExcl   bool
}

func newState() *state {
	return &state{shared: make(map[tuple.TransactionId]bool)}
}

func (s *state) empty() bool {
	return !s.hasExcl && len(s.shared) == 0
}

// Manager grants per-page S/X locks to transactions.
type Manager struct {
	mu    sync.Mutex
	pages map[pageid.PageId]*state
	// held indexes every (tid, pid) pair a transaction currently holds, so
	// ReleasePages doesn't need to scan every page in the manager.
	held map[tuple.TransactionId]map[pageid.PageId]bool

	pollInterval    time.Duration
	deadlockTimeout time.Duration
}

// NewManager builds a Manager using the default poll interval and deadlock
// timeout.
func NewManager() *Manager {
	return NewManagerWithConfig(defaultPollInterval, defaultDeadlockTimeout)
}

// NewManagerWithConfig builds a Manager with an explicit poll interval and
// deadlock-abort timeout, as loaded from Config.
func NewManagerWithConfig(pollInterval, deadlockTimeout time.Duration) *Manager {
	return &Manager{
		pages:           make(map[pageid.PageId]*state),
		held:            make(map[tuple.TransactionId]map[pageid.PageId]bool),
		pollInterval:    pollInterval,
		deadlockTimeout: deadlockTimeout,
	}
}

// HoldsLock reports whether tid currently holds any lock on pid.
func (m *Manager) HoldsLock(tid tuple.TransactionId, pid pageid.PageId) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[tid][pid]
}

func (m *Manager) canGrant(s *state, tid tuple.TransactionId, perm Permission) bool {
	if perm == ReadOnly {
		if s.hasExcl {
			return s.exclusive == tid
		}
		return true
	}
	// ReadWrite: must be the sole holder (or hold nothing yet).
	if s.hasExcl {
		return s.exclusive == tid
	}
	if len(s.shared) == 0 {
		return true
	}
	return len(s.shared) == 1 && s.shared[tid]
}

func (m *Manager) grant(s *state, tid tuple.TransactionId, pid pageid.PageId, perm Permission) {
	if perm == ReadOnly {
		if !s.hasExcl {
			s.shared[tid] = true
		}
	} else {
		delete(s.shared, tid)
		s.hasExcl = true
		s.exclusive = tid
	}
	if m.held[tid] == nil {
		m.held[tid] = make(map[pageid.PageId]bool)
	}
	m.held[tid][pid] = true
}

// AcquireLock blocks until tid is granted perm on pid, or returns
// ErrTxnAborted once the deadlock threshold elapses.
func (m *Manager) AcquireLock(tid tuple.TransactionId, pid pageid.PageId, perm Permission) error {
	deadline := time.Now().Add(m.deadlockTimeout)
	for {
		m.mu.Lock()
		s, ok := m.pages[pid]
		if !ok {
			s = newState()
			m.pages[pid] = s
		}
		if m.canGrant(s, tid, perm) {
			m.grant(s, tid, pid, perm)
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()

		if time.Now().After(deadline) {
			return errors.WithStack(ErrTxnAborted)
		}
		time.Sleep(m.pollInterval)
	}
}

// ReleasePage drops whatever lock tid holds on pid; a no-op if it holds
// none.
func (m *Manager) ReleasePage(tid tuple.TransactionId, pid pageid.PageId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(tid, pid)
}

func (m *Manager) releaseLocked(tid tuple.TransactionId, pid pageid.PageId) {
	s, ok := m.pages[pid]
	if !ok {
		return
	}
	if s.hasExcl && s.exclusive == tid {
		s.hasExcl = false
	}
	delete(s.shared, tid)
	if s.empty() {
		delete(m.pages, pid)
	}
	delete(m.held[tid], pid)
	if len(m.held[tid]) == 0 {
		delete(m.held, tid)
	}
}

// ReleasePages drops every lock tid holds, across all pages.
func (m *Manager) ReleasePages(tid tuple.TransactionId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pid := range m.held[tid] {
		m.releaseLocked(tid, pid)
	}
}
