package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-accounts/internal/api/dto"
	"github.com/spec-kit/support-accounts/internal/domain"
	"github.com/spec-kit/support-accounts/internal/testutil"
	apperrors "github.com/spec-kit/support-accounts/pkg/util"
)

func TestCouponLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.store.SeedAccount(t, testutil.Staff)
	alice := f.store.SeedAccount(t)

	coupon, err := f.coupons.Create(ctx, viewerOf(admin), dto.CouponInput{
		Title:         " Spring sale ",
		DiscountPrice: 15,
		EndAt:         time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Spring sale", coupon.Title)
	assert.False(t, coupon.IsActive)
	code := coupon.Code.String()

	_, err = f.coupons.ByCode(ctx, viewerOf(alice), code)
	assert.ErrorIs(t, err, domain.ErrNotFound, "inactive coupons are hidden")

	_, err = f.coupons.SetActive(ctx, viewerOf(admin), coupon.ID, true)
	require.NoError(t, err)

	got, err := f.coupons.ByCode(ctx, viewerOf(alice), code)
	require.NoError(t, err)
	assert.Equal(t, coupon.ID, got.ID)

	f.coupons.now = func() time.Time { return time.Now().Add(72 * time.Hour) }
	_, err = f.coupons.ByCode(ctx, viewerOf(alice), code)
	assert.ErrorIs(t, err, domain.ErrNotFound, "expired coupons are hidden")

	_, err = f.coupons.ByCode(ctx, viewerOf(alice), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.coupons.ByCode(ctx, domain.Anonymous(), code)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCouponStaffGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.store.SeedAccount(t)
	in := dto.CouponInput{Title: "x", DiscountPrice: 1, EndAt: time.Now().Add(time.Hour)}

	_, err := f.coupons.Create(ctx, viewerOf(alice), in)
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = f.coupons.List(ctx, viewerOf(alice))
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = f.coupons.SetActive(ctx, domain.Anonymous(), 1, true)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCouponValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    dto.CouponInput
		field string
	}{
		{"past end", dto.CouponInput{Title: "x", DiscountPrice: 5, EndAt: time.Now().Add(-time.Hour)}, "endAt"},
		{"zero discount", dto.CouponInput{Title: "x", EndAt: time.Now().Add(time.Hour)}, "discountPrice"},
		{"blank title", dto.CouponInput{Title: "  ", DiscountPrice: 5, EndAt: time.Now().Add(time.Hour)}, "title"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.coupons.AdminCreate(ctx, tc.in)
			de := requireCode(t, err, apperrors.CodeValidation)
			assert.Contains(t, de.Details, tc.field)
		})
	}
}

func TestCouponAdminList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second"} {
		_, err := f.coupons.AdminCreate(ctx, dto.CouponInput{Title: title, DiscountPrice: 10, EndAt: time.Now().Add(time.Hour)})
		require.NoError(t, err)
	}
	list, err := f.coupons.AdminList(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)

	_, err = f.coupons.AdminSetActive(ctx, 9999, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
