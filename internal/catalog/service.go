package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-promo/internal/events"
	"github.com/noah-isme/toko-promo/internal/lock"
	"github.com/noah-isme/toko-promo/internal/obs"
	"github.com/noah-isme/toko-promo/internal/promotion"
)

// Locker serialises writers of one promotion.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// EventPublisher announces catalog writes.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, promotionID uuid.UUID, actor string) error
}

// Service owns promotion authoring and serves the active set to the checkout.
type Service struct {
	store           Store
	cache           *Cache
	locker          Locker
	lockTTL         time.Duration
	events          EventPublisher
	logger          *zerolog.Logger
	now             func() time.Time
	defaultPageSize int
	maxPageSize     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store           Store
	Cache           *Cache
	Locker          Locker
	LockTTL         time.Duration
	Events          EventPublisher
	Logger          *zerolog.Logger
	Now             func() time.Time
	DefaultPageSize int
	MaxPageSize     int
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	maxSize := cfg.MaxPageSize
	if maxSize < 1 {
		maxSize = 100
	}
	defaultSize := cfg.DefaultPageSize
	if defaultSize < 1 || defaultSize > maxSize {
		defaultSize = min(10, maxSize)
	}
	return &Service{
		store:           cfg.Store,
		cache:           cfg.Cache,
		locker:          cfg.Locker,
		lockTTL:         cfg.LockTTL,
		events:          cfg.Events,
		logger:          obs.OrNop(cfg.Logger),
		now:             now,
		defaultPageSize: defaultSize,
		maxPageSize:     maxSize,
	}, nil
}

// DefaultPageSize is the page size used when a listing does not ask for one.
func (s *Service) DefaultPageSize() int { return s.defaultPageSize }

// MaxPageSize caps the page size of a listing.
func (s *Service) MaxPageSize() int { return s.maxPageSize }

// Create validates in and stores it as a new promotion authored by actor.
func (s *Service) Create(ctx context.Context, actor string, in PromotionInput) (Promotion, error) {
	p, err := s.build(uuid.New(), in)
	if err != nil {
		return Promotion{}, err
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.CreatedBy, p.UpdatedBy = actor, actor

	err = s.store.Create(ctx, p)
	obs.CountWrite("create", err)
	if err != nil {
		return Promotion{}, err
	}
	s.afterWrite(ctx, events.TopicPromotionCreated, p.ID, actor)
	s.logger.Info().Str("promotion_id", p.ID.String()).Str("actor", actor).Str("kind", string(p.Kind)).Msg("promotion created")
	return p, nil
}

// Update replaces promotion id with in. Concurrent writers of the same promotion are serialised.
func (s *Service) Update(ctx context.Context, actor string, id uuid.UUID, in PromotionInput) (Promotion, error) {
	next, err := s.build(id, in)
	if err != nil {
		return Promotion{}, err
	}
	err = s.withLock(ctx, id, func(ctx context.Context) error {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		next.CreatedAt, next.CreatedBy = current.CreatedAt, current.CreatedBy
		next.UpdatedAt, next.UpdatedBy = s.now().UTC(), actor
		return s.store.Update(ctx, next)
	})
	obs.CountWrite("update", err)
	if err != nil {
		return Promotion{}, err
	}
	s.afterWrite(ctx, events.TopicPromotionUpdated, id, actor)
	s.logger.Info().Str("promotion_id", id.String()).Str("actor", actor).Msg("promotion updated")
	return next, nil
}

// Delete soft-deletes promotion id: it is switched off and stamped with actor.
func (s *Service) Delete(ctx context.Context, actor string, id uuid.UUID) error {
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		return s.store.SoftDelete(ctx, id, actor, s.now().UTC())
	})
	obs.CountWrite("delete", err)
	if err != nil {
		return err
	}
	s.afterWrite(ctx, events.TopicPromotionDeleted, id, actor)
	s.logger.Info().Str("promotion_id", id.String()).Str("actor", actor).Msg("promotion deleted")
	return nil
}

// Get returns a live promotion.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Promotion, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return Promotion{}, err
	}
	return p, nil
}

// List returns a page of live promotions. Zero page or size fall back to the defaults.
func (s *Service) List(ctx context.Context, f ListFilter) (ListResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 {
		f.Size = s.defaultPageSize
	}
	if f.Size > s.maxPageSize {
		f.Size = s.maxPageSize
	}
	f.Sort = strings.ToLower(strings.TrimSpace(f.Sort))
	if _, ok := sortColumns[f.Sort]; !ok {
		f.Sort = SortID
	}
	if strings.EqualFold(f.Direction, "desc") {
		f.Direction = "desc"
	} else {
		f.Direction = "asc"
	}

	items, total, err := s.store.List(ctx, f)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total, Page: f.Page, Size: f.Size, Sort: f.Sort, Direction: f.Direction}, nil
}

// ActivePromotions returns the engine definitions of promotions that are switched on and
// inside their validity window now. This is the only filter the engine relies on.
func (s *Service) ActivePromotions(ctx context.Context) ([]promotion.Promotion, error) {
	var defs []promotion.Promotion
	hit, err := s.cache.GetJSON(ctx, ActiveCacheKey, &defs)
	switch {
	case err != nil:
		obs.CountCacheRequest("error")
		s.logger.Warn().Err(err).Msg("active promotion cache read failed")
	case hit:
		obs.CountCacheRequest("hit")
	default:
		obs.CountCacheRequest("miss")
	}
	if err != nil || !hit {
		defs, err = s.loadActive(ctx)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	active := make([]promotion.Promotion, 0, len(defs))
	for _, p := range defs {
		if p.ActiveAt(now) {
			active = append(active, p)
		}
	}
	return active, nil
}

// WarmActive reloads the switched-on set from the store into the cache and reports its size.
func (s *Service) WarmActive(ctx context.Context) (int, error) {
	defs, err := s.loadActive(ctx)
	if err != nil {
		return 0, err
	}
	return len(defs), nil
}

func (s *Service) loadActive(ctx context.Context) ([]promotion.Promotion, error) {
	rows, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active promotions: %w", err)
	}
	defs := make([]promotion.Promotion, 0, len(rows))
	for _, row := range rows {
		defs = append(defs, row.Promotion)
	}
	if err := s.cache.SetJSON(ctx, ActiveCacheKey, defs); err != nil {
		s.logger.Warn().Err(err).Msg("active promotion cache write failed")
	}
	return defs, nil
}

func (s *Service) build(id uuid.UUID, in PromotionInput) (Promotion, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Promotion{}, err
	}
	def := in.Definition(id)
	if err := promotion.Validate(def); err != nil {
		return Promotion{}, invalidInput(map[string]string{"promotion": err.Error()})
	}
	p := Promotion{Promotion: def, Slug: in.Slug, Description: in.Description}
	if in.ThumbnailURL != "" {
		thumb := in.ThumbnailURL
		p.ThumbnailURL = &thumb
	}
	return p, nil
}

func (s *Service) withLock(ctx context.Context, id uuid.UUID, fn func(context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return s.locker.WithLock(ctx, lock.Key("promotion", id.String()), s.lockTTL, fn)
}

// afterWrite drops the cached active set and announces the write. Both are best effort.
func (s *Service) afterWrite(ctx context.Context, topic string, id uuid.UUID, actor string) {
	if err := s.cache.Delete(ctx, ActiveCacheKey); err != nil {
		s.logger.Warn().Err(err).Str("promotion_id", id.String()).Msg("active promotion cache invalidation failed")
	}
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, topic, id, actor); err != nil {
		s.logger.Error().Err(err).Str("topic", topic).Str("promotion_id", id.String()).Msg("publish promotion event")
	}
}
