package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-promo/internal/obs"
)

// CacheWarmer reloads the active promotion set into the shared cache.
type CacheWarmer interface {
	WarmActive(ctx context.Context) (int, error)
}

// Handler consumes promotion events in the worker.
type Handler struct {
	Warmer CacheWarmer
	Logger *zerolog.Logger
}

// Register binds the handler to every promotion topic on mux.
func (h Handler) Register(mux *asynq.ServeMux) {
	for _, topic := range DefaultTopics() {
		mux.HandleFunc(topic, h.ProcessTask)
	}
}

// ProcessTask decodes the event and re-warms the active promotion cache.
// Malformed payloads are not retried.
func (h Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var evt PromotionEvent
	if err := json.Unmarshal(task.Payload(), &evt); err != nil {
		return fmt.Errorf("events: decode %s: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	ctx, span := obs.Tracer("events").Start(ctx, "promotion.event "+task.Type(),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("promotion.id", evt.PromotionID.String())),
	)
	defer span.End()

	logger := obs.OrNop(h.Logger)
	if h.Warmer == nil {
		logger.Warn().Str("topic", task.Type()).Msg("no cache warmer configured")
		return nil
	}
	n, err := h.Warmer.WarmActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "warm failed")
		return fmt.Errorf("events: warm active promotions: %w", err)
	}
	logger.Info().
		Str("topic", task.Type()).
		Str("promotion_id", evt.PromotionID.String()).
		Str("actor", evt.Actor).
		Int("active", n).
		Msg("promotion event processed")
	return nil
}
