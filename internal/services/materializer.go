package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/metrics"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"
)

// PassengerOutcome is the result of booking one seat.
type PassengerOutcome struct {
	SeatID        string                   `json:"seatId"`
	SeatLabel     string                   `json:"seatLabel"`
	SeatNumber    int                      `json:"seatNumber"`
	PassengerName string                   `json:"passengerName"`
	Booking       *models.ConfirmedBooking `json:"booking,omitempty"`
	Skipped       bool                     `json:"skipped,omitempty"`
	Stale         bool                     `json:"stale,omitempty"`
	Error         string                   `json:"error,omitempty"`
	Err           error                    `json:"-"`
}

func (o PassengerOutcome) OK() bool { return o.Booking != nil }

// MaterializationResult lists one outcome per seat in selection order.
type MaterializationResult struct {
	Status    models.SessionStatus      `json:"status"`
	Confirmed []models.ConfirmedBooking `json:"confirmed"`
	Outcomes  []PassengerOutcome        `json:"outcomes"`
}

func (r MaterializationResult) Failed() []PassengerOutcome {
	out := []PassengerOutcome{}
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Materializer turns a resumed session into one booking per passenger.
// Concurrency <= 1 books seats one after another; larger values run at most
// that many requests at once. A failing seat never stops the others.
type Materializer struct {
	Bookings    BookingCreator
	Store       repositories.SessionStore
	Concurrency int
	RequestID   string
	Now         func() time.Time
}

type bookingJob struct {
	index     int
	seat      models.Seat
	passenger models.PassengerRecord
	request   models.BookingRequest
}

// IdempotencyKey is stable for a (session token, seat) pair so a retried
// request cannot create a second booking for the same seat.
func IdempotencyKey(token, seatID string) string {
	sum := blake2b.Sum256([]byte(token + "\x00" + seatID))
	return hex.EncodeToString(sum[:16])
}

func (m Materializer) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

func (m Materializer) Materialize(ctx context.Context, owner string, record models.BookingSessionRecord) (MaterializationResult, error) {
	if record.ScheduleRef == "" {
		return MaterializationResult{}, domain.SessionIntegrityError{Reason: "schedule id could not be recovered"}
	}
	if record.TrainRef == "" {
		return MaterializationResult{}, domain.SessionIntegrityError{Reason: "train id is missing"}
	}
	jobs, err := pairSeats(record)
	if err != nil {
		return MaterializationResult{}, err
	}
	if err := advance(&record, models.SessionMaterializing); err != nil {
		return MaterializationResult{}, err
	}
	if record.Confirmed == nil {
		record.Confirmed = map[string]models.ConfirmedBooking{}
	}
	if err := m.save(ctx, owner, &record); err != nil {
		return MaterializationResult{}, err
	}

	outcomes := make([]PassengerOutcome, len(jobs))
	pending := make([]bookingJob, 0, len(jobs))
	for _, job := range jobs {
		if b, ok := record.Confirmed[job.seat.ID]; ok {
			b := b
			outcomes[job.index] = PassengerOutcome{
				SeatID: job.seat.ID, SeatLabel: job.seat.Label, SeatNumber: job.seat.SeatNumber,
				PassengerName: job.passenger.Name, Booking: &b, Skipped: true,
			}
			metrics.PassengerBookings.WithLabelValues("skipped").Inc()
			continue
		}
		pending = append(pending, job)
	}

	m.run(ctx, pending, outcomes)

	failed := 0
	for _, o := range outcomes {
		if o.OK() {
			record.Confirmed[o.SeatID] = *o.Booking
		} else {
			failed++
		}
	}

	result := MaterializationResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.OK() {
			result.Confirmed = append(result.Confirmed, *o.Booking)
		}
	}
	confirmed := len(result.Confirmed)

	var outcomeErr error
	switch {
	case failed == 0:
		record.Status = models.SessionCompleted
	case confirmed > 0:
		record.Status = models.SessionPartiallyFailed
		outcomeErr = domain.PartialMaterializationError{Confirmed: confirmed, Failed: failed}
	default:
		record.Status = models.SessionFailed
		outcomeErr = domain.TotalMaterializationFailure{PaymentSessionID: record.PaymentSessionID, Failed: failed}
	}
	result.Status = record.Status
	metrics.Materializations.WithLabelValues(string(record.Status)).Inc()
	utils.LogEvent(m.RequestID, "materialize", string(record.Status), fmt.Sprintf("schedule=%s confirmed=%d failed=%d", record.ScheduleRef, confirmed, failed))

	if err := m.save(ctx, owner, &record); err != nil {
		utils.LogWarn(m.RequestID, "materialize", "persist_outcome", err)
		// the slot still says materializing; the caller must not treat this as settled
		return result, domain.InternalError{
			Msg: "booking results could not be saved; contact support before retrying",
			Err: errors.Join(err, outcomeErr),
		}
	}
	if record.Status == models.SessionCompleted {
		if err := m.Store.Remove(ctx, repositories.PendingBookingKey(owner)); err != nil {
			utils.LogWarn(m.RequestID, "materialize", "clear_session", err)
		}
	}
	return result, outcomeErr
}

func (m Materializer) run(ctx context.Context, jobs []bookingJob, outcomes []PassengerOutcome) {
	if m.Concurrency <= 1 {
		for _, job := range jobs {
			outcomes[job.index] = m.book(ctx, job)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(m.Concurrency)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			outcomes[job.index] = m.book(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
}

func (m Materializer) book(ctx context.Context, job bookingJob) PassengerOutcome {
	out := PassengerOutcome{
		SeatID:        job.seat.ID,
		SeatLabel:     job.seat.Label,
		SeatNumber:    job.request.SeatNumber,
		PassengerName: job.request.PassengerName,
	}
	b, err := m.Bookings.CreateBooking(ctx, job.request)
	if err != nil {
		out.Err = err
		out.Error = err.Error()
		out.Stale = domain.IsStaleAvailability(err)
		if out.Stale {
			metrics.PassengerBookings.WithLabelValues("stale").Inc()
		} else {
			metrics.PassengerBookings.WithLabelValues("failed").Inc()
		}
		utils.LogWarn(m.RequestID, "materialize", "create_booking seat="+job.seat.ID, err)
		return out
	}
	out.Booking = &b
	metrics.PassengerBookings.WithLabelValues("confirmed").Inc()
	return out
}

// pairSeats matches every selected seat with its passenger by seat id.
func pairSeats(record models.BookingSessionRecord) ([]bookingJob, error) {
	if len(record.SelectedSeats) == 0 {
		return nil, domain.SessionIntegrityError{Reason: "no seats in booking session"}
	}
	if len(record.SelectedSeats) != len(record.PassengerInfo) {
		return nil, domain.SessionIntegrityError{Reason: "seats and passengers do not match", Err: domain.ErrSeatCountMismatch}
	}
	jobs := make([]bookingJob, 0, len(record.SelectedSeats))
	for i, seat := range record.SelectedSeats {
		p, ok := record.PassengerFor(seat.ID)
		if !ok {
			return nil, domain.SessionIntegrityError{Reason: "no passenger for seat " + seat.ID, Err: domain.ErrSeatCountMismatch}
		}
		num := seat.SeatNumber
		if num == 0 {
			n, err := strconv.Atoi(seat.ID)
			if err != nil {
				return nil, domain.SessionIntegrityError{Reason: "seat " + seat.ID + " has no number", Err: err}
			}
			num = n
		}
		jobs = append(jobs, bookingJob{
			index:     i,
			seat:      seat,
			passenger: p,
			request: models.BookingRequest{
				TrainRef:       record.TrainRef,
				ScheduleRef:    record.ScheduleRef,
				SeatNumber:     num,
				PassengerName:  utils.NormalizeSpace(p.Name),
				PassengerAge:   p.Age,
				IdempotencyKey: IdempotencyKey(record.Token, seat.ID),
			},
		})
	}
	return jobs, nil
}

func (m Materializer) save(ctx context.Context, owner string, record *models.BookingSessionRecord) error {
	record.UpdatedAt = m.now()
	return persistSession(ctx, m.Store, owner, record)
}
