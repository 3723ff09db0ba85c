package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feastkit/storefront/internal/domain/coupon"
)

const (
	selectCouponSQL = `SELECT uc.id, uc.user_id, uc.status, uc.expires_at,
		t.id, t.name, t.type, t.value, t.usage_rules, t.issue_start_time, t.issue_end_time
		FROM user_coupons uc
		JOIN coupon_templates t ON t.id = uc.template_id`

	listCouponsForUserSQL = selectCouponSQL + `
		WHERE uc.user_id = $1
		ORDER BY uc.expires_at, uc.id`

	getCouponByIDSQL = selectCouponSQL + `
		WHERE uc.id = $1`

	markCouponUsedSQL = `UPDATE user_coupons
		SET status = 'USED', used_at = now(), used_order_id = $2
		WHERE id = $1 AND status = 'UNUSED'`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
// Coupons are returned with their templates fully hydrated from the JSONB
// value and usage_rules columns.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// ListForUser returns every coupon granted to the user, soonest-expiring
// first.
func (r *CouponRepository) ListForUser(ctx context.Context, userID string) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsForUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing coupons for user %q: %w", userID, err)
	}

	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing coupons for user %q: %w", userID, err)
	}
	return coupons, nil
}

// GetByID looks up a single coupon. Returns coupon.ErrNotFound when no such
// coupon exists.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", id, err)
	}
	return &c, nil
}

// MarkUsed transitions an UNUSED coupon to USED, recording the redeeming
// order. Returns coupon.ErrNotFound when the coupon is missing or was
// already redeemed.
func (r *CouponRepository) MarkUsed(ctx context.Context, id, orderID string) error {
	tag, err := r.pool.Exec(ctx, markCouponUsedSQL, id, orderID)
	if err != nil {
		return fmt.Errorf("marking coupon %q used: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c          coupon.Coupon
		status     string
		tmplType   string
		valueRaw   []byte
		rulesRaw   []byte
		issueStart *time.Time
		issueEnd   *time.Time
	)
	err := row.Scan(
		&c.ID, &c.UserID, &status, &c.ExpiresAt,
		&c.Template.ID, &c.Template.Name, &tmplType,
		&valueRaw, &rulesRaw, &issueStart, &issueEnd,
	)
	if err != nil {
		return coupon.Coupon{}, err
	}

	c.Status = coupon.Status(status)
	c.Template.Type = coupon.Type(tmplType)
	c.Template.IssueStart = issueStart
	c.Template.IssueEnd = issueEnd

	if c.Template.Value, err = decodeValue(valueRaw); err != nil {
		return coupon.Coupon{}, fmt.Errorf("hydrating template %q: %w", c.Template.ID, err)
	}
	if c.Template.UsageRules, err = decodeRules(rulesRaw); err != nil {
		return coupon.Coupon{}, fmt.Errorf("hydrating template %q: %w", c.Template.ID, err)
	}
	return c, nil
}
