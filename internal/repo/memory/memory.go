package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/bengreen/internal/domain"
)

// DefaultCapacity bounds the history when New gets a non-positive size.
const DefaultCapacity = 1024

// Store is a bounded, in-process run history. Once full, the oldest run is
// dropped for each new one.
type Store struct {
	mu    sync.RWMutex
	limit int
	runs  []domain.Run
}

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		limit: capacity,
		runs:  make([]domain.Run, 0, min(capacity, 128)),
	}
}

func (m *Store) Append(ctx context.Context, r *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = domain.RunID(uuid.NewString())
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	if len(m.runs) == m.limit {
		copy(m.runs, m.runs[1:])
		m.runs = m.runs[:len(m.runs)-1]
	}
	m.runs = append(m.runs, *r)
	return nil
}

func (m *Store) List(ctx context.Context) ([]domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Run, len(m.runs))
	copy(out, m.runs)
	return out, nil
}

func (m *Store) LastByProbe(ctx context.Context, probe string) (*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].Probe == probe {
			r := m.runs[i]
			return &r, nil
		}
	}
	return nil, nil
}
