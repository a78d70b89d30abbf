package validation

import (
	"fmt"
	"time"

	"admin-store/internal/models"

	"github.com/shopspring/decimal"
)

// ValidateCoupon decides whether a coupon applies to an order total at the
// given time and computes the discount. It never mutates the coupon; callers
// that redeem it increment usage_count themselves.
func ValidateCoupon(c models.Coupon, orderTotal float64, now time.Time) models.CouponValidation {
	if c.Status != "" && c.Status != "active" {
		return invalid("Coupon is not active")
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return invalid("Coupon is not yet valid")
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return invalid("Coupon has expired")
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return invalid("Coupon usage limit reached")
	}
	if orderTotal < c.MinimumAmount {
		return invalid(fmt.Sprintf("Minimum order amount of %.2f required", c.MinimumAmount))
	}

	total := decimal.NewFromFloat(orderTotal)
	value := decimal.NewFromFloat(c.Value)

	var discount decimal.Decimal
	switch c.Type {
	case models.CouponTypePercentage:
		discount = total.Mul(value).Div(decimal.NewFromInt(100))
		if c.MaximumDiscount > 0 {
			discount = decimal.Min(discount, decimal.NewFromFloat(c.MaximumDiscount))
		}
	case models.CouponTypeFixed:
		discount = decimal.Min(value, total)
	default:
		return invalid(fmt.Sprintf("Unknown coupon type %q", c.Type))
	}

	amount, _ := discount.Round(2).Float64()
	return models.CouponValidation{Valid: true, Message: "Coupon applied", Discount: amount}
}

func invalid(msg string) models.CouponValidation {
	return models.CouponValidation{Valid: false, Message: msg}
}
