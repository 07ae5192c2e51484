package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists promotions with their condition groups and gift items.
type Store interface {
	Create(ctx context.Context, p Promotion) error
	Update(ctx context.Context, p Promotion) error
	Get(ctx context.Context, id uuid.UUID) (Promotion, error)
	List(ctx context.Context, f ListFilter) ([]Promotion, int, error)
	SoftDelete(ctx context.Context, id uuid.UUID, actor string, at time.Time) error
	ListActive(ctx context.Context) ([]Promotion, error)
}
