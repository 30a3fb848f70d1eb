package services

import (
	"context"
	"fmt"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"
)

// CheckoutRequest is what the review page submits.
type CheckoutRequest struct {
	ScheduleID     string                   `json:"scheduleId"`
	SeatIDs        []string                 `json:"seatIds"`
	PassengerCount int                      `json:"passengerCount"`
	Passengers     []models.PassengerRecord `json:"passengers"`
	PromoCode      string                   `json:"promoCode"`
}

type CheckoutStart struct {
	Token       string                      `json:"token"`
	RedirectURL string                      `json:"redirectUrl"`
	Session     models.BookingSessionRecord `json:"session"`
}

type CheckoutResult struct {
	Materialization MaterializationResult       `json:"materialization"`
	Verification    *models.PaymentVerification `json:"verification,omitempty"`
}

// CheckoutService runs the whole flow: seats and passengers in, payment
// redirect out, and bookings once the provider sends the user back.
type CheckoutService struct {
	Schedules    ScheduleSource
	Payments     PaymentGateway
	Sessions     SessionService
	Forms        PassengerFormService
	Materializer Materializer
	RequestID    string
}

// Start re-checks the seats against live availability, validates the
// passengers, prices the order and hands off to the payment provider. When
// the provider call fails the session stays stored and Start can be retried.
func (s CheckoutService) Start(ctx context.Context, owner string, req CheckoutRequest) (CheckoutStart, error) {
	schedule, layout, err := ScheduleLayout(ctx, s.Schedules, req.ScheduleID)
	if err != nil {
		return CheckoutStart{}, err
	}
	count := req.PassengerCount
	if count <= 0 {
		count = len(req.SeatIDs)
	}
	if count == 0 {
		return CheckoutStart{}, domain.ValidationError{Field: "seats", Msg: "at least one seat is required"}
	}
	sel, err := SelectSeats(layout, count, req.SeatIDs)
	if err != nil {
		return CheckoutStart{}, err
	}
	if !sel.IsComplete() {
		return CheckoutStart{}, domain.ValidationError{
			Field: "seats",
			Msg:   fmt.Sprintf("select %d seat(s) for %d passenger(s)", count, count),
			Err:   domain.ErrSeatCountMismatch,
		}
	}

	key := FormKey(owner, schedule, sel.SeatIDs())
	passengers := req.Passengers
	if len(passengers) == 0 {
		passengers, err = s.Forms.Restore(ctx, key)
		if err != nil {
			return CheckoutStart{}, err
		}
		if passengers == nil {
			return CheckoutStart{}, domain.ValidationError{Field: "passengers", Msg: "passenger details are missing"}
		}
	}
	if err := s.Forms.ValidatePassengers(passengers); err != nil {
		return CheckoutStart{}, err
	}
	if err := s.Forms.Persist(ctx, key, passengers); err != nil {
		return CheckoutStart{}, err
	}

	pricing, err := utils.ComputePricing(len(sel.Seats()), schedule.TicketPrice, req.PromoCode)
	if err != nil {
		return CheckoutStart{}, err
	}

	record, err := s.Sessions.CreateSession(ctx, owner, SessionInput{
		ScheduleRef:   schedule.ID,
		Schedule:      schedule.Snapshot(),
		TrainRef:      schedule.Train.ID,
		Route:         models.Route{From: schedule.Origin, To: schedule.Destination, Date: schedule.Date},
		SelectedSeats: sel.Seats(),
		PassengerInfo: passengers,
		Pricing:       pricing,
	})
	if err != nil {
		return CheckoutStart{}, err
	}

	out := CheckoutStart{Token: record.Token, Session: record}
	redirect, err := s.Sessions.RedirectToPayment(ctx, owner, record)
	if err != nil {
		return out, err
	}
	out.RedirectURL = redirect
	return out, nil
}

// Retry re-opens the payment redirect for the stored session.
func (s CheckoutService) Retry(ctx context.Context, owner string) (CheckoutStart, error) {
	record, err := s.Sessions.Current(ctx, owner)
	if err != nil {
		return CheckoutStart{}, err
	}
	out := CheckoutStart{Token: record.Token, Session: record}
	redirect, err := s.Sessions.RedirectToPayment(ctx, owner, record)
	if err != nil {
		return out, err
	}
	out.RedirectURL = redirect
	return out, nil
}

// Complete resumes the session for token, verifies the payment when it can
// and creates the bookings. Verification failures are logged only.
func (s CheckoutService) Complete(ctx context.Context, owner, token, paymentSessionID string) (CheckoutResult, error) {
	record, err := s.Sessions.ResumeSession(ctx, owner, token)
	if err != nil {
		return CheckoutResult{}, err
	}

	var out CheckoutResult
	sid := utils.FirstNonEmpty(paymentSessionID, record.PaymentSessionID)
	if sid != "" && s.Payments != nil {
		v, err := s.Payments.VerifyPaymentSession(ctx, sid)
		if err != nil {
			utils.LogWarn(s.RequestID, "checkout", "verify_payment", err)
		} else {
			out.Verification = &v
			if st := strings.ToLower(v.Status); st != "" && st != "paid" && st != "complete" {
				utils.LogEvent(s.RequestID, "checkout", "verify_payment", "unexpected status="+v.Status)
			}
		}
	}

	res, err := s.Materializer.Materialize(ctx, owner, record)
	out.Materialization = res
	if res.Status == models.SessionCompleted {
		if rmErr := s.Forms.Store.Remove(ctx, formKeyForRecord(owner, record)); rmErr != nil {
			utils.LogWarn(s.RequestID, "checkout", "clear_passenger_form", rmErr)
		}
	}
	return out, err
}
