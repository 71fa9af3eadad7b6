package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/grade-ledger-api/internal/models"
)

const uniqueViolation = "23505"

// EventRepository persists the ledger journal in the ledger_events table.
// The seq primary key rejects a second writer racing for the same slot.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventSchema = `CREATE TABLE IF NOT EXISTS ledger_events (
	seq BIGINT PRIMARY KEY,
	id UUID NOT NULL UNIQUE,
	type TEXT NOT NULL,
	actor TEXT NOT NULL,
	payload JSONB NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the journal table when it does not exist yet.
func (r *EventRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, eventSchema); err != nil {
		return fmt.Errorf("ensure journal schema: %w", err)
	}
	return nil
}

// Append inserts the events of one commit inside a single transaction.
func (r *EventRepository) Append(ctx context.Context, events []models.Event) (err error) {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal append: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO ledger_events (seq, id, type, actor, payload, occurred_at)
	VALUES (:seq, :id, :type, :actor, :payload, :occurred_at)`
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.NewString()
		}
		if _, err = tx.NamedExecContext(ctx, query, events[i]); err != nil {
			if isUniqueViolation(err) {
				err = fmt.Errorf("append event %d: %w", events[i].Seq, ErrSequenceConflict)
				return err
			}
			err = fmt.Errorf("append event %d: %w", events[i].Seq, err)
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit journal append: %w", err)
	}
	return nil
}

// List returns events after filter.AfterSeq in sequence order. A
// non-positive limit returns the whole tail, which replay relies on.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT seq, id, type, actor, payload, occurred_at FROM ledger_events WHERE seq > $1 ORDER BY seq ASC`)
	if filter.Limit > 0 {
		builder.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
	}
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, builder.String(), filter.AfterSeq); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
