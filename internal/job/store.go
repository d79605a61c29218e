// Package job drives anonymization jobs from submission to a materialised
// result and keeps the observable state of each operation slot.
package job

import (
	"slices"
	"sync"

	"github.com/raphaelgruber/anonyfiles-go/internal/models"
)

// Phase is the lifecycle state of an operation slot.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhasePolling    Phase = "polling"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// Snapshot is a copy of one operation slot's state.
type Snapshot struct {
	Operation  models.Operation
	Phase      Phase
	Token      uint64
	JobID      string // active job id, empty once the job is finalized
	LastStatus models.JobStatus
	Polls      int
	Result     models.JobResult
	Error      string
	Loading    bool
}

type slot struct {
	token uint64
	snap  Snapshot
}

// Store holds the state of the anonymize and deanonymize slots.
// Every write is tagged with the token returned by Begin; writes carrying a
// stale token are dropped, so a superseded operation can never overwrite
// the state of its successor.
type Store struct {
	mu      sync.Mutex
	slots   map[models.Operation]*slot
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		slots: make(map[models.Operation]*slot),
		subs:  make(map[int]func(Snapshot)),
	}
}

// getOrCreate returns the slot for op. Caller must hold the lock.
func (s *Store) getOrCreate(op models.Operation) *slot {
	sl, ok := s.slots[op]
	if !ok {
		sl = &slot{snap: Snapshot{Operation: op, Phase: PhaseIdle}}
		s.slots[op] = sl
	}
	return sl
}

// Begin starts a new operation in the slot, invalidating any previous one.
// Result, error and active job id are cleared before the token is returned.
func (s *Store) Begin(op models.Operation) uint64 {
	s.mu.Lock()
	sl := s.getOrCreate(op)
	sl.token++
	sl.snap = Snapshot{
		Operation: op,
		Phase:     PhaseSubmitting,
		Token:     sl.token,
		Loading:   true,
	}
	snap := copySnapshot(sl.snap)
	token := sl.token
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, snap)
	return token
}

// Update applies fn to the slot state if token is still current.
// It reports whether the update was applied.
func (s *Store) Update(op models.Operation, token uint64, fn func(*Snapshot)) bool {
	s.mu.Lock()
	sl := s.getOrCreate(op)
	if sl.token != token {
		s.mu.Unlock()
		return false
	}
	fn(&sl.snap)
	sl.snap.Operation = op
	sl.snap.Token = token
	snap := copySnapshot(sl.snap)
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, snap)
	return true
}

// Current reports whether token identifies the latest operation of the slot.
func (s *Store) Current(op models.Operation, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(op).token == token
}

// Snapshot returns a copy of the slot state.
func (s *Store) Snapshot(op models.Operation) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySnapshot(s.getOrCreate(op).snap)
}

// Subscribe registers fn to receive every state change of any slot.
// fn is called outside the store lock. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// subscribers returns the registered callbacks in registration order.
// Caller must hold the lock.
func (s *Store) subscribers() []func(Snapshot) {
	if len(s.subs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	return fns
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func copySnapshot(s Snapshot) Snapshot {
	s.Result.AuditLog = slices.Clone(s.Result.AuditLog)
	return s
}
