package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-promo/internal/obs"
)

// PromotionEvent is the task payload describing a catalog write.
type PromotionEvent struct {
	PromotionID uuid.UUID `json:"promotionId"`
	Topic       string    `json:"topic"`
	Actor       string    `json:"actor"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Enqueuer is the subset of *asynq.Client the publisher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Publisher hands promotion events to the task queue.
type Publisher struct {
	Client   Enqueuer
	Queue    string
	MaxRetry int
	Now      func() time.Time
	Logger   *zerolog.Logger
}

// Publish enqueues a PromotionEvent for topic.
func (p *Publisher) Publish(ctx context.Context, topic string, promotionID uuid.UUID, actor string) error {
	if p == nil || p.Client == nil {
		return errors.New("events: publisher not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New("events: topic is required")
	}
	if promotionID == uuid.Nil {
		return errors.New("events: promotion id is required")
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	payload, err := json.Marshal(PromotionEvent{
		PromotionID: promotionID,
		Topic:       topic,
		Actor:       actor,
		OccurredAt:  now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("events: encode payload: %w", err)
	}

	queue := p.Queue
	if queue == "" {
		queue = QueuePromotions
	}
	retry := p.MaxRetry
	if retry <= 0 {
		retry = 5
	}
	info, err := p.Client.EnqueueContext(ctx, asynq.NewTask(topic, payload), asynq.Queue(queue), asynq.MaxRetry(retry))
	obs.CountEvent(topic, err)
	if err != nil {
		return fmt.Errorf("events: enqueue %s: %w", topic, err)
	}
	obs.OrNop(p.Logger).Debug().
		Str("topic", topic).
		Str("promotion_id", promotionID.String()).
		Str("task_id", info.ID).
		Msg("promotion event enqueued")
	return nil
}
