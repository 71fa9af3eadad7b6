package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/grade-ledger-api/internal/models"
)

// MemoryJournal is a process-local journal for development and tests.
type MemoryJournal struct {
	mu     sync.RWMutex
	events []models.Event
}

// NewMemoryJournal constructs an empty journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Append stores events, enforcing contiguous sequence numbers.
func (j *MemoryJournal) Append(ctx context.Context, events []models.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	next := uint64(len(j.events)) + 1
	for i := range events {
		if events[i].Seq != next+uint64(i) {
			return fmt.Errorf("append event %d: %w", events[i].Seq, ErrSequenceConflict)
		}
	}
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.NewString()
		}
		j.events = append(j.events, events[i])
	}
	return nil
}

// List returns events after filter.AfterSeq in sequence order.
func (j *MemoryJournal) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if filter.AfterSeq >= uint64(len(j.events)) {
		return []models.Event{}, nil
	}
	tail := j.events[filter.AfterSeq:]
	if filter.Limit > 0 && len(tail) > filter.Limit {
		tail = tail[:filter.Limit]
	}
	out := make([]models.Event, len(tail))
	copy(out, tail)
	return out, nil
}
