// Package events defines the integration events exchanged between modules
// and the broker contract used to publish them.
package events

import (
	"context"
	"time"
)

// Event is an integration event that can be published to the broker.
type Event interface {
	// EventType is a stable name used for routing, e.g.
	// "product_discount.expired".
	EventType() string
	// Key is the partition key; events with the same key are delivered in
	// order.
	Key() string
}

// Publisher is the message broker contract consumed by domain services.
// Publish must not return before the broker has accepted the event:
// callers rely on completed-publish semantics for at-least-once,
// ordered-after-mutation delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// TypeProductDiscountExpired is the routing name for ProductDiscountExpired.
const TypeProductDiscountExpired = "product_discount.expired"

// ProductDiscountExpired signals that a discount stopped applying to a
// product, either by explicit deletion or because its window elapsed.
// Consumers clear the product's cached discounted price; the producer has
// already cleared it before publishing, so handling is idempotent.
type ProductDiscountExpired struct {
	ID         string
	ProductID  string
	DiscountID string
	OccurredAt time.Time
}

func (ProductDiscountExpired) EventType() string { return TypeProductDiscountExpired }

// Key partitions by product so expiries for one product stay ordered.
func (e ProductDiscountExpired) Key() string { return e.ProductID }
