package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-promo/internal/app"
	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/config"
	"github.com/noah-isme/toko-promo/internal/obs"
)

const seedActor = "seeder"

// product returns a stable id so repeated seeds reference the same products.
func product(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("toko-promo/product/"+name))
}

func amount(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func samplePromotions(now time.Time) []catalog.PromotionInput {
	weekEnd := now.Add(7 * 24 * time.Hour)
	return []catalog.PromotionInput{
		{
			Name:           "Kaos Bundle Hemat",
			Description:    "Beli 2 kaos polos, potongan 25.000",
			DiscountKind:   "discount_amount",
			DiscountAmount: amount("25000"),
			ConditionGroups: []catalog.ConditionGroupInput{{
				Details: []catalog.ConditionDetailInput{{ProductID: product("kaos-polos"), RequiredQuantity: 2}},
			}},
		},
		{
			Name:           "Paket Sepatu dan Kaos Kaki",
			DiscountKind:   "discount_amount",
			DiscountAmount: amount("40000"),
			EndsAt:         &weekEnd,
			ConditionGroups: []catalog.ConditionGroupInput{{
				Operator: "all",
				Details: []catalog.ConditionDetailInput{
					{ProductID: product("sepatu-lari"), RequiredQuantity: 1},
					{ProductID: product("kaos-kaki"), RequiredQuantity: 2},
				},
			}},
		},
		{
			Name:         "Gratis Tote Bag",
			DiscountKind: "gift",
			GiftItems:    []catalog.GiftItemInput{{ProductID: product("tote-bag"), Quantity: 1}},
			ConditionGroups: []catalog.ConditionGroupInput{{
				Operator: "any",
				Details: []catalog.ConditionDetailInput{
					{ProductID: product("jaket-denim"), RequiredQuantity: 1},
					{ProductID: product("celana-chino"), RequiredQuantity: 2},
				},
			}},
		},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("component", "seeder").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := app.OpenDatabase(ctx, cfg.DatabaseURL, "toko-promo-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()

	svc, err := catalog.NewService(catalog.ServiceConfig{Store: catalog.NewPgStore(pool), Logger: &logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}

	created := 0
	for _, in := range samplePromotions(time.Now().UTC()) {
		p, err := svc.Create(ctx, seedActor, in)
		switch {
		case errors.Is(err, catalog.ErrSlugTaken):
			logger.Info().Str("name", in.Name).Msg("promotion already seeded")
		case err != nil:
			logger.Fatal().Err(err).Str("name", in.Name).Msg("seed promotion")
		default:
			created++
			logger.Info().Str("id", p.ID.String()).Str("slug", p.Slug).Msg("promotion seeded")
		}
	}
	logger.Info().Int("created", created).Msg("seeding completed")
}
