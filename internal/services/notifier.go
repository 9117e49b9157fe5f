package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/nordiska/pricewatch-backend/internal/domain/pricing"
	"github.com/nordiska/pricewatch-backend/internal/domain/reviews"
)

// Notifier fans pipeline outcomes out to interested listeners. Delivery is
// best effort; the pipeline never fails because a notification did not go
// out.
type Notifier interface {
	ReviewCreated(ctx context.Context, userID uuid.UUID, review *reviews.ProductMatchReview)
	PriceChanged(ctx context.Context, userID uuid.UUID, change *pricing.PriceChange)
}

type nopNotifier struct{}

// NopNotifier is the notifier used when no event bus is configured.
func NopNotifier() Notifier { return nopNotifier{} }

func (nopNotifier) ReviewCreated(context.Context, uuid.UUID, *reviews.ProductMatchReview) {}
func (nopNotifier) PriceChanged(context.Context, uuid.UUID, *pricing.PriceChange)         {}
