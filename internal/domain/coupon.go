package domain

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a standalone promotional code with a validity window.
type Coupon struct {
	ID            int64
	Title         string
	Code          uuid.UUID
	DiscountPrice int
	StartAt       time.Time
	EndAt         time.Time
	IsActive      bool
	CreatedAt     time.Time
}

// Redeemable reports whether the coupon is active and inside its window at now.
func (c *Coupon) Redeemable(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	return !now.Before(c.StartAt) && now.Before(c.EndAt)
}
