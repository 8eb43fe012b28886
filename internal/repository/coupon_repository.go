package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-accounts/internal/domain"
)

// CouponRepository manages promotional codes.
type CouponRepository interface {
	Create(ctx context.Context, coupon *domain.Coupon) error
	SetActive(ctx context.Context, id int64, active bool) (*domain.Coupon, error)
	GetByID(ctx context.Context, id int64) (*domain.Coupon, error)
	GetByCode(ctx context.Context, code uuid.UUID) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
}

const couponColumns = `id, title, code, discount_price, start_at, end_at, is_active, created_at`

type couponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository builds repository.
func NewCouponRepository(pool *pgxpool.Pool) CouponRepository {
	return &couponRepository{pool: pool}
}

// Create inserts the coupon, generating a code when none is set.
func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	if coupon.Code == uuid.Nil {
		coupon.Code = uuid.New()
	}
	const query = `
        INSERT INTO coupons (title, code, discount_price, end_at, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, start_at, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		coupon.Title,
		coupon.Code,
		coupon.DiscountPrice,
		coupon.EndAt,
		coupon.IsActive,
	).Scan(&coupon.ID, &coupon.StartAt, &coupon.CreatedAt)
}

func (r *couponRepository) SetActive(ctx context.Context, id int64, active bool) (*domain.Coupon, error) {
	const query = `UPDATE coupons SET is_active=$1 WHERE id=$2 RETURNING ` + couponColumns
	coupon, err := scanCoupon(conn(ctx, r.pool).QueryRow(ctx, query, active, id))
	if err != nil {
		return nil, notFound(err)
	}
	return coupon, nil
}

func (r *couponRepository) GetByID(ctx context.Context, id int64) (*domain.Coupon, error) {
	coupon, err := scanCoupon(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return coupon, nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code uuid.UUID) (*domain.Coupon, error) {
	coupon, err := scanCoupon(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code=$1`, code))
	if err != nil {
		return nil, notFound(err)
	}
	return coupon, nil
}

func (r *couponRepository) List(ctx context.Context) ([]domain.Coupon, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *coupon)
	}
	return result, rows.Err()
}

func scanCoupon(row pgx.Row) (*domain.Coupon, error) {
	var coupon domain.Coupon
	if err := row.Scan(
		&coupon.ID,
		&coupon.Title,
		&coupon.Code,
		&coupon.DiscountPrice,
		&coupon.StartAt,
		&coupon.EndAt,
		&coupon.IsActive,
		&coupon.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &coupon, nil
}
