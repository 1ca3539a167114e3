package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anyulbade/annotation-payouts/internal/model"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Record stores an incoming event. It reports false when the event id was
// already recorded by an earlier delivery.
func (r *EventRepository) Record(ctx context.Context, e *model.ProcessorEvent) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO processor_events (id, event_type, payment_intent_id, payload)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Type, e.PaymentIntentID, []byte(e.Payload))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*model.ProcessorEvent, error) {
	e := &model.ProcessorEvent{}
	var intentID *string
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, event_type, payment_intent_id, payload, received_at, processed_at
		FROM processor_events WHERE id = $1`, id).
		Scan(&e.ID, &e.Type, &intentID, &payload, &e.ReceivedAt, &e.ProcessedAt)
	if err != nil {
		return nil, translate(err)
	}
	if intentID != nil {
		e.PaymentIntentID = *intentID
	}
	e.Payload = payload
	return e, nil
}

func (r *EventRepository) MarkProcessed(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE processor_events SET processed_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
