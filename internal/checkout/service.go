// Package checkout prices carts against the active promotion set.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/obs"
	"github.com/noah-isme/toko-promo/internal/pricing"
	"github.com/noah-isme/toko-promo/internal/promotion"
)

// ActiveSource supplies the promotions currently in force.
type ActiveSource interface {
	ActivePromotions(ctx context.Context) ([]promotion.Promotion, error)
}

// PromotionSummary is the shopper-facing view of an applied promotion.
type PromotionSummary struct {
	ID    uuid.UUID              `json:"id"`
	Name  string                 `json:"name"`
	Kind  promotion.DiscountKind `json:"kind"`
	Value *decimal.Decimal       `json:"value,omitempty"`
}

// Quote is the outcome of pricing a cart.
type Quote struct {
	Subtotal          decimal.Decimal      `json:"subtotal"`
	DiscountAmount    decimal.Decimal      `json:"discountAmount"`
	FinalAmount       decimal.Decimal      `json:"finalAmount"`
	AppliedPromotions []PromotionSummary   `json:"appliedPromotions"`
	GiftItems         []promotion.GiftLine `json:"giftItems"`
}

// Service computes promotion previews.
type Service struct {
	Catalog ActiveSource
	Engine  promotion.Engine
	Logger  *zerolog.Logger
	Now     func() time.Time
}

// Preview prices lines against the active promotions. A malformed stored promotion
// fails the whole preview with a 500 INVALID_PROMOTION error.
func (s *Service) Preview(ctx context.Context, lines []promotion.CartLine) (Quote, error) {
	if s == nil || s.Catalog == nil {
		return Quote{}, errors.New("checkout service not configured")
	}
	ctx, span := obs.Tracer("checkout").Start(ctx, "promotion.calculate")
	defer span.End()
	span.SetAttributes(attribute.Int("cart.lines", len(lines)))

	active, err := s.Catalog.ActivePromotions(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load active promotions")
		obs.ObserveCalculation("error", 0)
		return Quote{}, fmt.Errorf("load active promotions: %w", err)
	}

	subtotal := pricing.Subtotal(lines)
	start := s.now()
	result, err := s.Engine.Calculate(subtotal, lines, active)
	took := s.now().Sub(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid promotion")
		obs.ObserveCalculation("invalid", took)
		s.logger().Error().Err(err).Int("active", len(active)).Msg("promotion calculation rejected stored data")
		if errors.Is(err, promotion.ErrInvalidPromotion) {
			return Quote{}, common.NewAppError("INVALID_PROMOTION", "a stored promotion is malformed", http.StatusInternalServerError, err)
		}
		return Quote{}, err
	}
	obs.ObserveCalculation("ok", took)

	quote := Quote{
		Subtotal:          result.OriginalTotal,
		DiscountAmount:    result.DiscountAmount,
		FinalAmount:       result.FinalTotal,
		AppliedPromotions: make([]PromotionSummary, 0, len(result.AppliedPromotions)),
		GiftItems:         result.GiftLines,
	}
	if quote.GiftItems == nil {
		quote.GiftItems = []promotion.GiftLine{}
	}
	var gifts, discounts int
	for _, p := range result.AppliedPromotions {
		summary := PromotionSummary{ID: p.ID, Name: p.Name, Kind: p.Kind}
		if p.Kind == promotion.KindDiscountAmount {
			amount := p.Amount()
			summary.Value = &amount
			discounts++
		} else {
			gifts++
		}
		quote.AppliedPromotions = append(quote.AppliedPromotions, summary)
	}
	obs.CountApplied(string(promotion.KindGift), gifts)
	obs.CountApplied(string(promotion.KindDiscountAmount), discounts)

	span.SetAttributes(
		attribute.Int("promotion.active", len(active)),
		attribute.Int("promotion.applied", len(quote.AppliedPromotions)),
		attribute.String("promotion.discount", quote.DiscountAmount.String()),
	)
	s.logger().Debug().
		Int("lines", len(lines)).
		Int("active", len(active)).
		Int("applied", len(quote.AppliedPromotions)).
		Str("subtotal", quote.Subtotal.String()).
		Str("discount", quote.DiscountAmount.String()).
		Str("final", quote.FinalAmount.String()).
		Msg("promotion preview")
	return quote, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *zerolog.Logger {
	return obs.OrNop(s.Logger)
}
