// Package notify watches order lists and raises a notification whenever an
// order's fulfillment status changes between two polls.
package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
)

// Snapshot holds the last observed status per order.
type Snapshot map[uuid.UUID]domain.OrderStatus

type Notification struct {
	OrderID uuid.UUID
	Code    string
	From    domain.OrderStatus
	To      domain.OrderStatus
	Message string
	At      time.Time
}

// Diff compares a fresh poll result against the previous snapshot. Orders seen
// for the first time produce no notification. Orders missing from the poll keep
// their last known status, so a change is still reported when they reappear.
func Diff(prev Snapshot, orders []*domain.Order) ([]Notification, Snapshot) {
	next := make(Snapshot, len(prev)+len(orders))
	for id, status := range prev {
		next[id] = status
	}
	var notes []Notification

	for _, o := range orders {
		if o == nil {
			continue
		}
		next[o.ID] = o.Status

		before, seen := prev[o.ID]
		if !seen || before == o.Status {
			continue
		}
		notes = append(notes, Notification{
			OrderID: o.ID,
			Code:    o.Code,
			From:    before,
			To:      o.Status,
			Message: describe(o),
			At:      o.UpdatedAt,
		})
	}
	return notes, next
}

func describe(o *domain.Order) string {
	switch o.Status {
	case domain.OrderStatusProcess:
		return fmt.Sprintf("Order %s is being processed", o.Code)
	case domain.OrderStatusShipped:
		if o.TrackingNumber != "" {
			return fmt.Sprintf("Order %s has been shipped, tracking number %s", o.Code, o.TrackingNumber)
		}
		return fmt.Sprintf("Order %s has been shipped", o.Code)
	case domain.OrderStatusCompleted:
		return fmt.Sprintf("Order %s is completed", o.Code)
	case domain.OrderStatusCancelled:
		return fmt.Sprintf("Order %s was cancelled", o.Code)
	default:
		return fmt.Sprintf("Order %s is now %s", o.Code, o.Status)
	}
}
