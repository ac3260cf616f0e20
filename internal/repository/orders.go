package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
)

const orderColumns = `id, code, buyer_id, items, items_total, shipping_cost, grand_total, status, payment_status,
	payment_method, tracking_number, shipping_address, recipient_name, recipient_phone, province_id, city_id,
	estimated_delivery, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order          domain.Order
		itemsJSON      []byte
		paymentMethod  sql.NullString
		trackingNumber sql.NullString
	)
	err := row.Scan(
		&order.ID,
		&order.Code,
		&order.BuyerID,
		&itemsJSON,
		&order.ItemsTotal,
		&order.ShippingCost,
		&order.GrandTotal,
		&order.Status,
		&order.PaymentStatus,
		&paymentMethod,
		&trackingNumber,
		&order.ShippingAddress,
		&order.RecipientName,
		&order.RecipientPhone,
		&order.ProvinceID,
		&order.CityID,
		&order.EstimatedDelivery,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	order.PaymentMethod = domain.PaymentMethod(paymentMethod.String)
	order.TrackingNumber = trackingNumber.String
	return &order, nil
}

// CreateOrder stores the order together with its OrderCreated outbox event.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO orders (id, code, buyer_id, items, product_ids, items_total, shipping_cost, grand_total,
	          status, payment_status, shipping_address, recipient_name, recipient_phone, province_id, city_id,
	          estimated_delivery, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, insertErr := tx.ExecContext(ctx, query,
		order.ID,
		order.Code,
		order.BuyerID,
		itemsJSON,
		pq.Array(order.ProductIDs()),
		order.ItemsTotal,
		order.ShippingCost,
		order.GrandTotal,
		order.Status,
		order.PaymentStatus,
		order.ShippingAddress,
		order.RecipientName,
		order.RecipientPhone,
		order.ProvinceID,
		order.CityID,
		order.EstimatedDelivery,
		order.CreatedAt,
		order.UpdatedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateCode
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}

	if err := insertEvent(ctx, tx, order, domain.OrderEventCreated, order.BuyerID, order.CreatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *Repository) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, fmt.Errorf("query orders by buyer id: %w", err)
	}
	return collectOrders(rows)
}

// ListOrdersByProducts returns orders that contain at least one of the given products, newest first.
func (r *Repository) ListOrdersByProducts(ctx context.Context, productIDs []string) ([]*domain.Order, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE product_ids && $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("query orders by products: %w", err)
	}
	return collectOrders(rows)
}

func collectOrders(rows *sql.Rows) ([]*domain.Order, error) {
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *Repository) ApplyTransition(ctx context.Context, t domain.Transition) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// tracking_number is only ever filled once
	query := `UPDATE orders SET
	              status = $4,
	              payment_status = $5,
	              payment_method = COALESCE(NULLIF($6, ''), payment_method),
	              tracking_number = COALESCE(tracking_number, NULLIF($7, '')),
	              updated_at = $8
	          WHERE id = $1 AND status = $2 AND payment_status = $3
	          RETURNING ` + orderColumns

	order, err := scanOrder(tx.QueryRowContext(ctx, query,
		t.OrderID,
		t.ExpectedStatus,
		t.ExpectedPaymentStatus,
		t.Status,
		t.PaymentStatus,
		string(t.PaymentMethod),
		t.TrackingNumber,
		t.At))
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if e2 := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, t.OrderID).Scan(&exists); e2 != nil {
			return nil, fmt.Errorf("check order exists: %w", e2)
		}
		if !exists {
			return nil, ErrOrderNotFound
		}
		return nil, ErrStaleState
	}
	if err != nil {
		return nil, fmt.Errorf("update order state: %w", err)
	}

	if t.Event != "" {
		if err := insertEvent(ctx, tx, order, t.Event, t.Actor, t.At); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}
