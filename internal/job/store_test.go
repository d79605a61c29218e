package job

import (
	"testing"

	"github.com/raphaelgruber/anonyfiles-go/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestStoreStaleTokenIgnored(t *testing.T) {
	s := NewStore()
	op := models.OperationAnonymize

	first := s.Begin(op)
	second := s.Begin(op)

	applied := s.Update(op, first, func(snap *Snapshot) { snap.Result.Text = "stale" })
	assert.False(t, applied)
	assert.False(t, s.Current(op, first))
	assert.True(t, s.Current(op, second))
	assert.Empty(t, s.Snapshot(op).Result.Text)

	assert.True(t, s.Update(op, second, func(snap *Snapshot) { snap.Result.Text = "fresh" }))
	assert.Equal(t, "fresh", s.Snapshot(op).Result.Text)
}

func TestStoreBeginResets(t *testing.T) {
	s := NewStore()
	op := models.OperationDeanonymize

	token := s.Begin(op)
	s.Update(op, token, func(snap *Snapshot) {
		snap.Phase = PhaseFailed
		snap.Error = "boom"
		snap.JobID = "j1"
		snap.Loading = false
	})

	s.Begin(op)
	snap := s.Snapshot(op)
	assert.Equal(t, PhaseSubmitting, snap.Phase)
	assert.Empty(t, snap.Error)
	assert.Empty(t, snap.JobID)
	assert.True(t, snap.Loading)
	assert.Equal(t, op, snap.Operation)
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore()
	op := models.OperationAnonymize
	token := s.Begin(op)
	s.Update(op, token, func(snap *Snapshot) {
		snap.Result.AuditLog = []models.AuditEntry{{Pattern: "John", Count: 1}}
	})

	snap := s.Snapshot(op)
	snap.Result.AuditLog[0].Pattern = "changed"

	assert.Equal(t, "John", s.Snapshot(op).Result.AuditLog[0].Pattern)
}

func TestStoreSubscribe(t *testing.T) {
	s := NewStore()
	op := models.OperationAnonymize

	var got []Phase
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		// Reading the store from a callback must not deadlock.
		_ = s.Snapshot(snap.Operation)
		got = append(got, snap.Phase)
	})

	token := s.Begin(op)
	s.Update(op, token, func(snap *Snapshot) { snap.Phase = PhaseDone })
	s.Update(op, token+1, func(snap *Snapshot) { snap.Phase = PhaseFailed })
	unsubscribe()
	s.Begin(op)

	assert.Equal(t, []Phase{PhaseSubmitting, PhaseDone}, got)
}

func TestStoreIdleSlot(t *testing.T) {
	s := NewStore()
	snap := s.Snapshot(models.OperationAnonymize)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.False(t, snap.Loading)
}
