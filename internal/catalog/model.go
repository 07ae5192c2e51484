package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-promo/internal/promotion"
)

var (
	// ErrNotFound is returned when a promotion does not exist or was deleted.
	ErrNotFound = errors.New("catalog: promotion not found")
	// ErrInvalidInput wraps authoring rule violations.
	ErrInvalidInput = errors.New("catalog: invalid promotion input")
	// ErrSlugTaken is returned when another live promotion already uses the slug.
	ErrSlugTaken = errors.New("catalog: slug already in use")
)

// Promotion is the persisted promotion: the engine definition plus catalog metadata.
type Promotion struct {
	promotion.Promotion

	Slug         string     `json:"slug"`
	Description  string     `json:"description"`
	ThumbnailURL *string    `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	CreatedBy    string     `json:"createdBy"`
	UpdatedBy    string     `json:"updatedBy"`
	DeletedBy    *string    `json:"deletedBy,omitempty"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// Sort fields accepted by List.
const (
	SortID             = "id"
	SortName           = "name"
	SortCreatedAt      = "created_at"
	SortDiscountAmount = "discount_amount"
	SortStartsAt       = "starts_at"
)

// ListFilter narrows and pages a promotion listing. Page is 1-based.
type ListFilter struct {
	ID        *uuid.UUID
	Name      string
	IsActive  *bool
	Search    string
	Page      int
	Size      int
	Sort      string
	Direction string
}

// Offset returns the row offset for the filter's page.
func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Size
}

// ListResult is one page of promotions.
type ListResult struct {
	Items     []Promotion
	Total     int
	Page      int
	Size      int
	Sort      string
	Direction string
}
