package models

// PricingSnapshot is the fare breakdown for one session, in whole currency units.
type PricingSnapshot struct {
	SeatCount int    `json:"seatCount"`
	UnitPrice int64  `json:"unitPrice"`
	BaseFare  int64  `json:"baseFare"`
	Tax       int64  `json:"tax"`
	Discount  int64  `json:"discount"`
	Total     int64  `json:"total"`
	PromoCode string `json:"promoCode,omitempty"`
}
