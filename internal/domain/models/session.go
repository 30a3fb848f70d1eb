package models

import "time"

// SessionStatus is the lifecycle state of a booking session.
type SessionStatus string

const (
	SessionBuilding                SessionStatus = "building"
	SessionPricedAndReady          SessionStatus = "priced_and_ready"
	SessionAwaitingExternalPayment SessionStatus = "awaiting_external_payment"
	SessionResumed                 SessionStatus = "resumed"
	SessionMaterializing           SessionStatus = "materializing"
	SessionCompleted               SessionStatus = "completed"
	SessionPartiallyFailed         SessionStatus = "partially_failed"
	SessionFailed                  SessionStatus = "failed"
)

// PaymentStarted reports whether the user was already sent to the payment
// provider. From then on the record is the only link between the payment and
// its bookings.
func (s SessionStatus) PaymentStarted() bool {
	switch s {
	case "", SessionBuilding, SessionPricedAndReady:
		return false
	}
	return true
}

// BookingSessionRecord is the durable hand-off object written before the
// payment redirect. ScheduleRef is always set at the top level; Schedule is
// kept for display only.
type BookingSessionRecord struct {
	Token            string                      `json:"token"`
	ScheduleRef      string                      `json:"scheduleRef"`
	TrainRef         string                      `json:"trainRef"`
	Schedule         *ScheduleSnapshot           `json:"schedule,omitempty"`
	Route            Route                       `json:"route"`
	SelectedSeats    []Seat                      `json:"selectedSeats"`
	PassengerInfo    []PassengerRecord           `json:"passengerInfo"`
	Pricing          PricingSnapshot             `json:"pricing"`
	Status           SessionStatus               `json:"status"`
	PaymentSessionID string                      `json:"paymentSessionId,omitempty"`
	Confirmed        map[string]ConfirmedBooking `json:"confirmed,omitempty"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

// PassengerFor returns the record paired with seatID.
func (r BookingSessionRecord) PassengerFor(seatID string) (PassengerRecord, bool) {
	for _, p := range r.PassengerInfo {
		if p.SeatID == seatID {
			return p, true
		}
	}
	return PassengerRecord{}, false
}

// PaymentSummary is sent to the payment provider when a checkout starts.
type PaymentSummary struct {
	Token          string          `json:"token"`
	ScheduleRef    string          `json:"scheduleId"`
	Route          Route           `json:"route"`
	SeatLabels     []string        `json:"seats"`
	PassengerCount int             `json:"passengerCount"`
	Pricing        PricingSnapshot `json:"pricing"`
	PromoCode      string          `json:"promoCode,omitempty"`
	SuccessURL     string          `json:"successUrl,omitempty"`
	CancelURL      string          `json:"cancelUrl,omitempty"`
}

// PaymentSession is the provider's answer to a checkout request.
type PaymentSession struct {
	SessionID   string `json:"sessionId"`
	RedirectURL string `json:"url"`
}

// PaymentVerification is the provider's view of a finished checkout.
type PaymentVerification struct {
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
