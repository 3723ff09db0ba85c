// Command seed-db loads menu dishes and coupon data into the database from
// JSON files, creating the schema first when needed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/feastkit/storefront/internal/storage/postgres"
)

type dishJSON struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	CategoryID    string          `json:"category_id"`
	Image         string          `json:"image"`
	Description   string          `json:"description"`
}

type templateJSON struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Value          json.RawMessage `json:"value"`
	UsageRules     json.RawMessage `json:"usage_rules"`
	IssueStartTime *time.Time      `json:"issue_start_time"`
	IssueEndTime   *time.Time      `json:"issue_end_time"`
}

type grantJSON struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TemplateID string    `json:"template_id"`
	Status     string    `json:"status"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type couponsJSON struct {
	Templates []templateJSON `json:"templates"`
	Grants    []grantJSON    `json:"grants"`
}

func main() {
	var (
		databaseURL string
		dishesFile  string
		couponsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&dishesFile, "dishes-file", "db/seed/dishes.json", "path to dishes JSON file")
	flag.StringVar(&couponsFile, "coupons-file", "db/seed/coupons.json", "path to coupons JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, dishesFile, couponsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, dishesFile, couponsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedDishes(ctx, pool, dishesFile); err != nil {
		return errors.Wrap(err, "seed dishes")
	}
	if err := seedCoupons(ctx, pool, couponsFile); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	return nil
}

func seedDishes(ctx context.Context, pool *pgxpool.Pool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	var dishes []dishJSON
	if err := json.Unmarshal(data, &dishes); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}

	const upsertDishSQL = `INSERT INTO dishes (id, name, price, original_price, category_id, image, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, price = EXCLUDED.price,
			original_price = EXCLUDED.original_price, category_id = EXCLUDED.category_id,
			image = EXCLUDED.image, description = EXCLUDED.description,
			updated_at = now()`

	for _, d := range dishes {
		_, err := pool.Exec(ctx, upsertDishSQL,
			d.ID, d.Name, d.Price, d.OriginalPrice, d.CategoryID, d.Image, d.Description)
		if err != nil {
			return errors.Wrapf(err, "upsert dish %s", d.ID)
		}
	}

	slog.Info("dishes seeded", slog.Int("count", len(dishes)))
	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	var c couponsJSON
	if err := json.Unmarshal(data, &c); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}

	const upsertTemplateSQL = `INSERT INTO coupon_templates (id, name, type, value, usage_rules, issue_start_time, issue_end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, type = EXCLUDED.type, value = EXCLUDED.value,
			usage_rules = EXCLUDED.usage_rules,
			issue_start_time = EXCLUDED.issue_start_time, issue_end_time = EXCLUDED.issue_end_time,
			updated_at = now()`

	for _, t := range c.Templates {
		value := t.Value
		if len(value) == 0 {
			value = json.RawMessage(`{}`)
		}
		rules := t.UsageRules
		if len(rules) == 0 {
			rules = json.RawMessage(`[]`)
		}
		_, err := pool.Exec(ctx, upsertTemplateSQL,
			t.ID, t.Name, t.Type, value, rules, t.IssueStartTime, t.IssueEndTime)
		if err != nil {
			return errors.Wrapf(err, "upsert template %s", t.ID)
		}
	}

	const upsertGrantSQL = `INSERT INTO user_coupons (id, user_id, template_id, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`

	for _, g := range c.Grants {
		status := g.Status
		if status == "" {
			status = "UNUSED"
		}
		_, err := pool.Exec(ctx, upsertGrantSQL, g.ID, g.UserID, g.TemplateID, status, g.ExpiresAt)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon grant %s", g.ID)
		}
	}

	slog.Info("coupons seeded",
		slog.Int("templates", len(c.Templates)),
		slog.Int("grants", len(c.Grants)),
	)
	return nil
}
