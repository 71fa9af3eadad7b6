package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
)

// Journal is the append-only, ordered event log backing the ledger.
type Journal interface {
	Append(ctx context.Context, events []models.Event) error
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
}

// EventDispatcher hands committed events to subscribers in commit order.
type EventDispatcher interface {
	Dispatch(events []models.Event)
}

// Decision inspects the current state and returns the events a commit would
// append. It must not mutate st.
type Decision func(st *repository.LedgerState, now time.Time) ([]models.Event, error)

// LedgerOptions wires the coordinator's collaborators.
type LedgerOptions struct {
	Authority  string
	Journal    Journal
	Dispatcher EventDispatcher
	Metrics    *MetricsService
	Logger     *zap.Logger
	Clock      func() time.Time
}

// Ledger serializes every mutation against the in-memory state. A commit
// journals its events before applying them so the state only ever reflects
// what the journal holds. Dispatch happens after the writer lock is
// released; dispatchTurn hands batches to the dispatcher in sequence order.
type Ledger struct {
	mu    sync.RWMutex
	state *repository.LedgerState

	dispatchMu   sync.Mutex
	dispatchTurn *sync.Cond
	nextDispatch uint64

	authority  string
	journal    Journal
	dispatcher EventDispatcher
	metrics    *MetricsService
	logger     *zap.Logger
	clock      func() time.Time
}

// NewLedger constructs an empty ledger owned by the given authority.
func NewLedger(opts LedgerOptions) (*Ledger, error) {
	if models.IsNullIdentity(opts.Authority) {
		return nil, errors.New("ledger authority identity is required")
	}
	if opts.Journal == nil {
		opts.Journal = repository.NewMemoryJournal()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	l := &Ledger{
		state:        repository.NewLedgerState(),
		nextDispatch: 1,
		authority:    opts.Authority,
		journal:      opts.Journal,
		dispatcher:   opts.Dispatcher,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		clock:        opts.Clock,
	}
	l.dispatchTurn = sync.NewCond(&l.dispatchMu)
	return l, nil
}

// Authority returns the identity allowed to manage roles and courses.
func (l *Ledger) Authority() string {
	return l.authority
}

// Sequence returns the last applied event sequence.
func (l *Ledger) Sequence() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Sequence()
}

// Read runs fn against a consistent snapshot of the state.
func (l *Ledger) Read(fn func(st *repository.LedgerState) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(l.state)
}

// Commit runs decide under the writer lock and, when it succeeds, journals
// and applies the returned events, then dispatches them once the lock is
// released. Nothing is applied when any step before apply fails.
func (l *Ledger) Commit(ctx context.Context, actor string, decide Decision) ([]models.Event, error) {
	events, err := l.commit(ctx, actor, decide)
	if len(events) == 0 {
		return nil, err
	}
	if err != nil {
		// a partially applied batch still takes its turn, undelivered
		l.handoff(events[0].Seq, events[len(events)-1].Seq, nil)
		return nil, err
	}
	l.handoff(events[0].Seq, events[len(events)-1].Seq, events)
	return events, nil
}

// commit returns the applied events; on an apply failure that is the
// prefix already folded into the state alongside the error.
func (l *Ledger) commit(ctx context.Context, actor string, decide Decision) ([]models.Event, error) {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock().UTC().Truncate(time.Second)
	events, err := decide(l.state, now)
	if err != nil {
		return nil, l.reject(err, start)
	}
	if len(events) == 0 {
		return nil, nil
	}

	base := l.state.Sequence()
	for i := range events {
		events[i].Seq = base + uint64(i) + 1
		if events[i].ID == "" {
			events[i].ID = uuid.NewString()
		}
		if events[i].Actor == "" {
			events[i].Actor = actor
		}
		if events[i].OccurredAt.IsZero() {
			events[i].OccurredAt = now
		}
	}

	if err := l.journal.Append(ctx, events); err != nil {
		if errors.Is(err, repository.ErrSequenceConflict) {
			return nil, l.reject(appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "journal advanced by another writer"), start)
		}
		return nil, l.reject(appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to journal commit"), start)
	}

	for i, evt := range events {
		if err := l.state.Apply(evt); err != nil {
			l.logger.Error("journaled event could not be applied", zap.Uint64("seq", evt.Seq), zap.String("type", string(evt.Type)), zap.Error(err))
			return events[:i], l.reject(appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply commit"), start)
		}
	}

	for _, evt := range events {
		l.logger.Debug("ledger commit", zap.Uint64("seq", evt.Seq), zap.String("type", string(evt.Type)), zap.String("actor", evt.Actor))
	}
	l.metrics.RecordCommit(events, time.Since(start))
	return events, nil
}

// handoff waits until every batch before first has been handed over, then
// passes events (nil for replayed batches) to the dispatcher. Callers must
// not hold the writer lock.
func (l *Ledger) handoff(first, last uint64, events []models.Event) {
	l.dispatchMu.Lock()
	for l.nextDispatch != first {
		l.dispatchTurn.Wait()
	}
	defer func() {
		l.nextDispatch = last + 1
		l.dispatchTurn.Broadcast()
		l.dispatchMu.Unlock()
	}()
	if l.dispatcher != nil && len(events) > 0 {
		l.dispatcher.Dispatch(events)
	}
}

// Restore replays journaled events past the current sequence. Replayed
// events are not dispatched again.
func (l *Ledger) Restore(ctx context.Context) (int, error) {
	first, applied, err := l.replay(ctx)
	if applied > 0 {
		l.handoff(first, first+uint64(applied)-1, nil)
	}
	return applied, err
}

func (l *Ledger) replay(ctx context.Context) (uint64, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	first := l.state.Sequence() + 1
	events, err := l.journal.List(ctx, models.EventFilter{AfterSeq: l.state.Sequence()})
	if err != nil {
		return first, 0, fmt.Errorf("load journal: %w", err)
	}
	for i, evt := range events {
		if err := l.state.Apply(evt); err != nil {
			l.metrics.SetSequence(l.state.Sequence())
			return first, i, fmt.Errorf("replay journal: %w", err)
		}
	}
	l.metrics.SetSequence(l.state.Sequence())
	if len(events) > 0 {
		l.logger.Info("ledger restored from journal", zap.Int("events", len(events)), zap.Uint64("sequence", l.state.Sequence()))
	}
	return first, len(events), nil
}

// Events returns the journal tail after filter.AfterSeq.
func (l *Ledger) Events(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	events, err := l.journal.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read journal")
	}
	return events, nil
}

func (l *Ledger) reject(err error, start time.Time) error {
	appErr := appErrors.FromError(err)
	if appErr.Status >= 500 {
		l.logger.Error("ledger commit failed", zap.String("code", appErr.Code), zap.Error(err))
	} else {
		l.logger.Info("ledger commit rejected", zap.String("code", appErr.Code), zap.String("reason", appErr.Message))
	}
	l.metrics.RecordRejection(appErr.Code, time.Since(start))
	return err
}
