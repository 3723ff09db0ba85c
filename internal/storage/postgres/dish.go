package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastkit/storefront/internal/domain/dish"
)

const (
	listDishesSQL = `SELECT id, name, price, COALESCE(original_price, 0), category_id, image, description
		FROM dishes ORDER BY category_id, name`

	getDishByIDSQL = `SELECT id, name, price, COALESCE(original_price, 0), category_id, image, description
		FROM dishes WHERE id = $1`

	getDishesByIDsSQL = `SELECT id, name, price, COALESCE(original_price, 0), category_id, image, description
		FROM dishes WHERE id = ANY($1)`
)

var _ dish.Repository = (*DishRepository)(nil)

// DishRepository implements dish.Repository backed by PostgreSQL.
type DishRepository struct {
	pool *pgxpool.Pool
}

// NewDishRepository returns a DishRepository that uses the given pool.
func NewDishRepository(pool *pgxpool.Pool) *DishRepository {
	return &DishRepository{pool: pool}
}

// List returns the full menu catalog.
func (r *DishRepository) List(ctx context.Context) ([]dish.Dish, error) {
	rows, err := r.pool.Query(ctx, listDishesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing dishes: %w", err)
	}

	dishes, err := pgx.CollectRows(rows, scanDish)
	if err != nil {
		return nil, fmt.Errorf("listing dishes: %w", err)
	}
	return dishes, nil
}

// GetByID looks up a single dish. Returns dish.ErrNotFound when it does not
// exist.
func (r *DishRepository) GetByID(ctx context.Context, id string) (*dish.Dish, error) {
	rows, err := r.pool.Query(ctx, getDishByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding dish %q: %w", id, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, scanDish)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dish.ErrNotFound
		}
		return nil, fmt.Errorf("finding dish %q: %w", id, err)
	}
	return &d, nil
}

// GetByIDs fetches the given dishes in a single query. Missing IDs are
// silently absent from the result; callers detect them by count.
func (r *DishRepository) GetByIDs(ctx context.Context, ids []string) ([]dish.Dish, error) {
	rows, err := r.pool.Query(ctx, getDishesByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("finding dishes by ids: %w", err)
	}

	dishes, err := pgx.CollectRows(rows, scanDish)
	if err != nil {
		return nil, fmt.Errorf("finding dishes by ids: %w", err)
	}
	return dishes, nil
}

func scanDish(row pgx.CollectableRow) (dish.Dish, error) {
	var d dish.Dish
	err := row.Scan(&d.ID, &d.Name, &d.Price, &d.OriginalPrice, &d.CategoryID, &d.Image, &d.Description)
	return d, err
}
