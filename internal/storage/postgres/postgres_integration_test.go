//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/feastkit/storefront/internal/domain/coupon"
	"github.com/feastkit/storefront/internal/storage/postgres"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "storefront",
				"POSTGRES_PASSWORD": "storefront",
				"POSTGRES_DB":       "storefront",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://storefront:storefront@%s:%s/storefront?sslmode=disable", host, port.Port())

	var pool *pgxpool.Pool
	require.Eventually(t, func() bool {
		pool, err = postgres.NewPool(ctx, dsn)
		if err != nil {
			return false
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return false
		}
		return true
	}, time.Minute, time.Second)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.RunMigrations(ctx, pool))
	return pool
}

func TestCouponRepository(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	expires := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)

	_, err := pool.Exec(ctx, `INSERT INTO coupon_templates (id, name, type, value, usage_rules)
		VALUES ($1, $2, $3, $4, $5)`,
		"t-1", "20% off hot dishes", "PERCENTAGE_DISCOUNT",
		`{"percentage": 20, "max_off": 15}`,
		`[
			{"rule_type": "MINIMUM_SPEND", "params": {"min_spend": 50}},
			{"rule_type": "ITEM_ELIGIBILITY", "params": {"required_categories": [{"id": "hot", "name": "Hot Dishes"}]}}
		]`,
	)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO user_coupons (id, user_id, template_id, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"c-1", "u-1", "t-1", "UNUSED", expires,
	)
	require.NoError(t, err)

	repo := postgres.NewCouponRepository(pool)

	t.Run("ListForUser hydrates the template", func(t *testing.T) {
		coupons, err := repo.ListForUser(ctx, "u-1")
		require.NoError(t, err)
		require.Len(t, coupons, 1)

		c := coupons[0]
		assert.Equal(t, "c-1", c.ID)
		assert.Equal(t, coupon.StatusUnused, c.Status)
		assert.Equal(t, coupon.TypePercentageDiscount, c.Template.Type)
		assert.True(t, c.Template.Value.Percentage.Equal(decimal.NewFromInt(20)))
		assert.True(t, c.Template.Value.MaxOff.Equal(decimal.NewFromInt(15)))

		require.Len(t, c.Template.UsageRules, 2)
		ms, ok := c.Template.UsageRules[0].(coupon.MinimumSpend)
		require.True(t, ok)
		assert.True(t, ms.MinSpend.Equal(decimal.NewFromInt(50)))

		ie, ok := c.Template.UsageRules[1].(coupon.ItemEligibility)
		require.True(t, ok)
		require.Len(t, ie.Categories, 1)
		assert.Equal(t, "hot", ie.Categories[0].ID)
	})

	t.Run("ListForUser for a stranger is empty", func(t *testing.T) {
		coupons, err := repo.ListForUser(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, coupons)
	})

	t.Run("GetByID", func(t *testing.T) {
		c, err := repo.GetByID(ctx, "c-1")
		require.NoError(t, err)
		assert.Equal(t, "u-1", c.UserID)

		_, err = repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, coupon.ErrNotFound)
	})

	t.Run("MarkUsed is single-shot", func(t *testing.T) {
		require.NoError(t, repo.MarkUsed(ctx, "c-1", "order-1"))

		c, err := repo.GetByID(ctx, "c-1")
		require.NoError(t, err)
		assert.Equal(t, coupon.StatusUsed, c.Status)

		assert.ErrorIs(t, repo.MarkUsed(ctx, "c-1", "order-2"), coupon.ErrNotFound)
	})
}

func TestDishRepository(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	for _, row := range [][]any{
		{"dish-1", "Kung Pao Chicken", "28", "32", "hot"},
		{"dish-2", "Rice", "3", nil, "staples"},
	} {
		_, err := pool.Exec(ctx, `INSERT INTO dishes (id, name, price, original_price, category_id)
			VALUES ($1, $2, $3, $4, $5)`, row...)
		require.NoError(t, err)
	}

	repo := postgres.NewDishRepository(pool)

	dishes, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, dishes, 2)

	d, err := repo.GetByID(ctx, "dish-1")
	require.NoError(t, err)
	assert.Equal(t, "Kung Pao Chicken", d.Name)
	assert.True(t, d.Price.Equal(decimal.NewFromInt(28)))
	assert.True(t, d.OriginalPrice.Equal(decimal.NewFromInt(32)))

	// NULL original_price coalesces to zero.
	d, err = repo.GetByID(ctx, "dish-2")
	require.NoError(t, err)
	assert.True(t, d.OriginalPrice.IsZero())

	byIDs, err := repo.GetByIDs(ctx, []string{"dish-1", "dish-2", "missing"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}
