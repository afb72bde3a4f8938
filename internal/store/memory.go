package store

import (
	"sync"

	"github.com/couchcryptid/emdat-etl/internal/domain"
	"github.com/couchcryptid/emdat-etl/internal/observability"
)

// Memory holds the current batch. Batches replace each other wholesale and a
// batch carrying an older sequence than the current one is discarded.
type Memory struct {
	mu      sync.RWMutex
	seq     uint64
	batch   *domain.Batch
	byID    map[string]int
	metrics *observability.Metrics
}

// NewMemory creates an empty store. metrics may be nil.
func NewMemory(metrics *observability.Metrics) *Memory {
	return &Memory{byID: map[string]int{}, metrics: metrics}
}

// Replace installs batch as current if seq is newer than the sequence of the
// batch it would replace. It reports whether the batch was installed.
func (m *Memory) Replace(seq uint64, batch domain.Batch) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.batch != nil && seq <= m.seq {
		return false
	}

	byID := make(map[string]int, len(batch.Events))
	for i := range batch.Events {
		if _, dup := byID[batch.Events[i].ID]; !dup {
			byID[batch.Events[i].ID] = i
		}
	}
	m.seq = seq
	m.batch = &batch
	m.byID = byID

	if m.metrics != nil {
		m.metrics.CurrentEvents.Set(float64(len(batch.Events)))
	}
	return true
}

// Sequence returns the sequence of the current batch, or zero when empty.
func (m *Memory) Sequence() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seq
}

// Current returns the installed batch.
func (m *Memory) Current() (domain.Batch, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.batch == nil {
		return domain.Batch{}, false
	}
	return *m.batch, true
}

// Events returns the page of current events matching f and the match count.
func (m *Memory) Events(f Filter) ([]domain.DisasterEvent, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.batch == nil {
		return []domain.DisasterEvent{}, 0
	}
	return f.Apply(m.batch.Events)
}

func (m *Memory) Event(id string) (domain.DisasterEvent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[id]
	if !ok {
		return domain.DisasterEvent{}, false
	}
	return m.batch.Events[i], true
}

// Stats aggregates the current events matching f. Paging is ignored.
func (m *Memory) Stats(f Filter) Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.batch == nil {
		return ComputeStats(nil)
	}
	f.Limit, f.Offset = 0, 0
	matched, _ := f.Apply(m.batch.Events)
	return ComputeStats(matched)
}
