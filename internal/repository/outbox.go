package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
)

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

func insertEvent(ctx context.Context, tx *sql.Tx, order *domain.Order, eventType domain.OrderEventType, actor string, at time.Time) error {
	payload, err := json.Marshal(domain.OrderEvent{
		OrderID:        order.ID,
		Code:           order.Code,
		Type:           eventType,
		BuyerID:        order.BuyerID,
		Actor:          actor,
		Status:         order.Status,
		PaymentStatus:  order.PaymentStatus,
		TrackingNumber: order.TrackingNumber,
		OccurredAt:     at,
	})
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4)`,
		order.ID, string(eventType), payload, at)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM outbox_events WHERE processed_at IS NULL ORDER BY id LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed_at = NOW() WHERE id = $1 AND processed_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}
