package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-accounts/internal/api/dto"
	"github.com/spec-kit/support-accounts/internal/domain"
	"github.com/spec-kit/support-accounts/internal/repository"
	apperrors "github.com/spec-kit/support-accounts/pkg/util"
)

// CouponService manages promotional codes. Methods taking a viewer enforce the
// staff gate; the Admin variants are for the operator CLI.
type CouponService struct {
	coupons repository.CouponRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewCouponService builds the service.
func NewCouponService(coupons repository.CouponRepository, logger *zap.Logger) *CouponService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CouponService{coupons: coupons, logger: logger, now: time.Now}
}

// Create issues a new, inactive coupon.
func (s *CouponService) Create(ctx context.Context, viewer domain.Viewer, in dto.CouponInput) (*domain.Coupon, error) {
	if err := requireStaff(viewer); err != nil {
		return nil, err
	}
	return s.AdminCreate(ctx, in)
}

// AdminCreate issues a coupon without a viewer check.
func (s *CouponService) AdminCreate(ctx context.Context, in dto.CouponInput) (*domain.Coupon, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !in.EndAt.After(s.now()) {
		return nil, apperrors.NewFieldError("endAt", "End date must be in the future.")
	}
	coupon := &domain.Coupon{
		Title:         in.Title,
		DiscountPrice: in.DiscountPrice,
		EndAt:         in.EndAt,
	}
	if err := s.coupons.Create(ctx, coupon); err != nil {
		return nil, conflictFromStore(err)
	}
	s.logger.Info("coupon created", zap.Int64("coupon_id", coupon.ID), zap.String("code", coupon.Code.String()))
	return coupon, nil
}

// SetActive toggles the coupon's active flag.
func (s *CouponService) SetActive(ctx context.Context, viewer domain.Viewer, id int64, active bool) (*domain.Coupon, error) {
	if err := requireStaff(viewer); err != nil {
		return nil, err
	}
	return s.AdminSetActive(ctx, id, active)
}

// AdminSetActive toggles the flag without a viewer check.
func (s *CouponService) AdminSetActive(ctx context.Context, id int64, active bool) (*domain.Coupon, error) {
	coupon, err := s.coupons.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.logger.Info("coupon updated", zap.Int64("coupon_id", id), zap.Bool("is_active", active))
	return coupon, nil
}

// List returns every coupon to staff.
func (s *CouponService) List(ctx context.Context, viewer domain.Viewer) ([]domain.Coupon, error) {
	if err := requireStaff(viewer); err != nil {
		return nil, err
	}
	return s.AdminList(ctx)
}

// AdminList returns every coupon.
func (s *CouponService) AdminList(ctx context.Context) ([]domain.Coupon, error) {
	return s.coupons.List(ctx)
}

// ByCode returns a coupon that is currently redeemable. Malformed, inactive
// and expired codes all report ErrNotFound.
func (s *CouponService) ByCode(ctx context.Context, viewer domain.Viewer, code string) (*domain.Coupon, error) {
	if !viewer.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	parsed, err := uuid.Parse(code)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	coupon, err := s.coupons.GetByCode(ctx, parsed)
	if err != nil {
		return nil, err
	}
	if !coupon.Redeemable(s.now()) {
		return nil, domain.ErrNotFound
	}
	return coupon, nil
}

func requireStaff(viewer domain.Viewer) error {
	if !viewer.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !viewer.Active() || !viewer.IsStaff() {
		return apperrors.NewForbidden("staff only")
	}
	return nil
}
