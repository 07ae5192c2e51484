package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-promo/internal/promotion"
)

const uniqueViolation = "23505"

const promotionColumns = `id, name, slug, description, thumbnail_url, discount_kind, discount_amount::text,
	is_active, starts_at, ends_at, created_at, updated_at, created_by, updated_by, deleted_by, deleted_at`

var sortColumns = map[string]string{
	SortID:             "id",
	SortName:           "name",
	SortCreatedAt:      "created_at",
	SortDiscountAmount: "discount_amount",
	SortStartsAt:       "starts_at",
}

// PgStore implements Store on PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore constructs a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Create inserts the promotion and its children in one transaction.
func (s *PgStore) Create(ctx context.Context, p Promotion) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO promotions (id, name, slug, description, thumbnail_url, discount_kind, discount_amount,
	is_active, starts_at, ends_at, created_at, updated_at, created_by, updated_by)
VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10, $11, $11, $12, $12)`,
			p.ID, p.Name, p.Slug, p.Description, p.ThumbnailURL, string(p.Kind), amountArg(p.DiscountAmount),
			p.IsActive, p.StartsAt, p.EndsAt, p.CreatedAt, p.CreatedBy)
		if err != nil {
			return err
		}
		return insertChildren(ctx, tx, p.Promotion)
	})
	return mapWriteError(err)
}

// Update replaces the promotion row and all of its children.
func (s *PgStore) Update(ctx context.Context, p Promotion) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE promotions SET name = $2, slug = $3, description = $4, thumbnail_url = $5, discount_kind = $6,
	discount_amount = $7::numeric, is_active = $8, starts_at = $9, ends_at = $10, updated_at = $11, updated_by = $12
WHERE id = $1 AND deleted_at IS NULL`,
			p.ID, p.Name, p.Slug, p.Description, p.ThumbnailURL, string(p.Kind), amountArg(p.DiscountAmount),
			p.IsActive, p.StartsAt, p.EndsAt, p.UpdatedAt, p.UpdatedBy)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM promotion_condition_groups WHERE promotion_id = $1`, p.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM promotion_gift_items WHERE promotion_id = $1`, p.ID); err != nil {
			return err
		}
		return insertChildren(ctx, tx, p.Promotion)
	})
	return mapWriteError(err)
}

// Get loads a live promotion.
func (s *PgStore) Get(ctx context.Context, id uuid.UUID) (Promotion, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return Promotion{}, fmt.Errorf("get promotion: %w", err)
	}
	items, err := s.collect(ctx, rows)
	if err != nil {
		return Promotion{}, err
	}
	if len(items) == 0 {
		return Promotion{}, ErrNotFound
	}
	return items[0], nil
}

// List returns one page of live promotions and the total match count.
func (s *PgStore) List(ctx context.Context, f ListFilter) ([]Promotion, int, error) {
	where, args := listWhere(f)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM promotions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count promotions: %w", err)
	}
	if total == 0 {
		return []Promotion{}, 0, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM promotions WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		promotionColumns, where, orderBy(f.Sort, f.Direction), len(args)+1, len(args)+2)
	rows, err := s.pool.Query(ctx, query, append(args, f.Size, f.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list promotions: %w", err)
	}
	items, err := s.collect(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SoftDelete switches the promotion off and stamps who deleted it.
func (s *PgStore) SoftDelete(ctx context.Context, id uuid.UUID, actor string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE promotions SET is_active = false, deleted_by = $2, deleted_at = $3, updated_by = $2, updated_at = $3
WHERE id = $1 AND deleted_at IS NULL`, id, actor, at)
	if err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns switched-on, non-deleted promotions regardless of their validity window.
func (s *PgStore) ListActive(ctx context.Context) ([]Promotion, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE is_active AND deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active promotions: %w", err)
	}
	return s.collect(ctx, rows)
}

func (s *PgStore) collect(ctx context.Context, rows pgx.Rows) ([]Promotion, error) {
	items, err := pgx.CollectRows(rows, scanPromotion)
	if err != nil {
		return nil, fmt.Errorf("scan promotions: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}
	if err := s.loadChildren(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *PgStore) loadChildren(ctx context.Context, items []Promotion) error {
	ids := make([]string, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for i, p := range items {
		ids[i] = p.ID.String()
		index[p.ID] = i
	}

	rows, err := s.pool.Query(ctx, `
SELECT g.promotion_id, g.id, g.operator, d.product_id, d.required_quantity
FROM promotion_condition_groups g
JOIN promotion_condition_details d ON d.group_id = g.id
WHERE g.promotion_id = ANY($1::uuid[])
ORDER BY g.promotion_id, g.position, d.position`, ids)
	if err != nil {
		return fmt.Errorf("load condition groups: %w", err)
	}
	var (
		promotionID, groupID, productID uuid.UUID
		operator                        string
		required                        int
		lastGroup                       uuid.UUID
	)
	_, err = pgx.ForEachRow(rows, []any{&promotionID, &groupID, &operator, &productID, &required}, func() error {
		i, ok := index[promotionID]
		if !ok {
			return nil
		}
		p := &items[i]
		if groupID != lastGroup || len(p.ConditionGroups) == 0 {
			p.ConditionGroups = append(p.ConditionGroups, promotion.ConditionGroup{Operator: promotion.Operator(operator)})
			lastGroup = groupID
		}
		g := &p.ConditionGroups[len(p.ConditionGroups)-1]
		g.Details = append(g.Details, promotion.ConditionDetail{ProductID: productID, RequiredQuantity: required})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan condition groups: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
SELECT promotion_id, product_id, quantity FROM promotion_gift_items
WHERE promotion_id = ANY($1::uuid[])
ORDER BY promotion_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load gift items: %w", err)
	}
	var quantity int
	_, err = pgx.ForEachRow(rows, []any{&promotionID, &productID, &quantity}, func() error {
		if i, ok := index[promotionID]; ok {
			items[i].GiftItems = append(items[i].GiftItems, promotion.GiftLine{ProductID: productID, Quantity: quantity})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan gift items: %w", err)
	}
	return nil
}

func insertChildren(ctx context.Context, tx pgx.Tx, p promotion.Promotion) error {
	batch := &pgx.Batch{}
	for gi, group := range p.ConditionGroups {
		groupID := uuid.New()
		batch.Queue(`INSERT INTO promotion_condition_groups (id, promotion_id, position, operator) VALUES ($1, $2, $3, $4)`,
			groupID, p.ID, gi, string(group.Operator))
		for di, detail := range group.Details {
			batch.Queue(`INSERT INTO promotion_condition_details (group_id, position, product_id, required_quantity) VALUES ($1, $2, $3, $4)`,
				groupID, di, detail.ProductID, detail.RequiredQuantity)
		}
	}
	for i, gift := range p.GiftItems {
		batch.Queue(`INSERT INTO promotion_gift_items (promotion_id, position, product_id, quantity) VALUES ($1, $2, $3, $4)`,
			p.ID, i, gift.ProductID, gift.Quantity)
	}
	if batch.Len() == 0 {
		return nil
	}
	return tx.SendBatch(ctx, batch).Close()
}

func scanPromotion(row pgx.CollectableRow) (Promotion, error) {
	var (
		p      Promotion
		kind   string
		amount *string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.ThumbnailURL, &kind, &amount,
		&p.IsActive, &p.StartsAt, &p.EndsAt, &p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy, &p.DeletedBy, &p.DeletedAt)
	if err != nil {
		return Promotion{}, err
	}
	p.Kind = promotion.DiscountKind(kind)
	if amount != nil {
		value, err := decimal.NewFromString(*amount)
		if err != nil {
			return Promotion{}, fmt.Errorf("promotion %s discount amount: %w", p.ID, err)
		}
		p.DiscountAmount = &value
	}
	return p, nil
}

// listWhere builds the WHERE clause and its positional arguments for f.
func listWhere(f ListFilter) (string, []any) {
	conds := []string{"deleted_at IS NULL"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}
	if f.ID != nil {
		add("id = ?", *f.ID)
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		add("name ILIKE ?", likePattern(name))
	}
	if f.IsActive != nil {
		add("is_active = ?", *f.IsActive)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		add("(name ILIKE ? OR description ILIKE ? OR id::text ILIKE ?)", likePattern(search))
	}
	return strings.Join(conds, " AND "), args
}

func orderBy(sort, direction string) string {
	column, ok := sortColumns[sort]
	if !ok {
		column = "id"
	}
	dir := "ASC"
	if strings.EqualFold(direction, "desc") {
		dir = "DESC"
	}
	if column == "id" {
		return "id " + dir
	}
	return column + " " + dir + " NULLS LAST, id ASC"
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func amountArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrSlugTaken, pgErr.ConstraintName)
	}
	return fmt.Errorf("write promotion: %w", err)
}
