package utils

import (
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

// TaxPercent is applied to the base fare before any discount.
const TaxPercent = 10

// promoPercent maps promo codes to their discount on base fare + tax.
var promoPercent = map[string]int64{
	"FIRST20":   20,
	"STUDENT15": 15,
}

// PromoPercent returns the discount percentage for code. An empty code is
// valid and yields zero.
func PromoPercent(code string) (int64, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return 0, nil
	}
	pct, ok := promoPercent[c]
	if !ok {
		return 0, domain.ValidationError{Field: "promo_code", Msg: "unknown promo code", Err: domain.ErrInvalidPromoCode}
	}
	return pct, nil
}

// ComputePricing returns the fare breakdown for seatCount seats at unitPrice.
// Tax is rounded from the base fare first, then the discount is rounded from
// base fare + tax; both round half up to a whole unit.
func ComputePricing(seatCount int, unitPrice int64, promoCode string) (models.PricingSnapshot, error) {
	if seatCount <= 0 {
		return models.PricingSnapshot{}, domain.ValidationError{Field: "seat_count", Msg: "at least one seat is required"}
	}
	if unitPrice < 0 {
		return models.PricingSnapshot{}, domain.ValidationError{Field: "unit_price", Msg: "must not be negative"}
	}
	pct, err := PromoPercent(promoCode)
	if err != nil {
		return models.PricingSnapshot{}, err
	}

	base := int64(seatCount) * unitPrice
	tax := percentOf(base, TaxPercent)
	subtotal := base + tax
	discount := percentOf(subtotal, pct)

	out := models.PricingSnapshot{
		SeatCount: seatCount,
		UnitPrice: unitPrice,
		BaseFare:  base,
		Tax:       tax,
		Discount:  discount,
		Total:     subtotal - discount,
	}
	if pct > 0 {
		out.PromoCode = strings.ToUpper(strings.TrimSpace(promoCode))
	}
	return out, nil
}

// percentOf rounds amount*pct/100 half up; amount is never negative here.
func percentOf(amount, pct int64) int64 {
	return (amount*pct + 50) / 100
}
