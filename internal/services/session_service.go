package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/metrics"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"
)

// SessionInput is everything collected before the payment redirect.
type SessionInput struct {
	ScheduleRef   string
	Schedule      *models.ScheduleSnapshot
	TrainRef      string
	Route         models.Route
	SelectedSeats []models.Seat
	PassengerInfo []models.PassengerRecord
	Pricing       models.PricingSnapshot
}

// SessionService owns the pendingBooking slot: it writes the record before
// the payment redirect and reads it back when the provider returns.
type SessionService struct {
	Store      repositories.SessionStore
	Payments   PaymentGateway
	SuccessURL string
	CancelURL  string
	RequestID  string

	Now      func() time.Time
	NewToken func() string
}

func (s SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s SessionService) newToken() string {
	if s.NewToken != nil {
		return s.NewToken()
	}
	return uuid.NewString()
}

// NormalizeScheduleRef picks the schedule id: the explicit value first, then
// the snapshot's "_id", "id" and "scheduleId" fields.
func NormalizeScheduleRef(explicit string, snap *models.ScheduleSnapshot) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	if v := snap.PrimaryID(); v != "" {
		return v
	}
	for _, v := range snap.SecondaryIDs() {
		if v != "" {
			return v
		}
	}
	return ""
}

// CreateSession validates the input and stores a new record in the owner's
// pendingBooking slot. A record that already reached the booking stage is
// never overwritten.
func (s SessionService) CreateSession(ctx context.Context, owner string, in SessionInput) (models.BookingSessionRecord, error) {
	if strings.TrimSpace(owner) == "" {
		return models.BookingSessionRecord{}, domain.ValidationError{Field: "owner", Msg: "is required"}
	}
	scheduleRef := NormalizeScheduleRef(in.ScheduleRef, in.Schedule)
	if scheduleRef == "" {
		return models.BookingSessionRecord{}, domain.SessionIntegrityError{Reason: "schedule id is missing"}
	}
	if err := checkSessionInput(in); err != nil {
		return models.BookingSessionRecord{}, err
	}

	key := repositories.PendingBookingKey(owner)
	existing, err := s.load(ctx, key)
	switch {
	case err == nil:
		switch existing.Status {
		case models.SessionResumed, models.SessionMaterializing, models.SessionPartiallyFailed, models.SessionFailed:
			return models.BookingSessionRecord{}, domain.ConflictError{
				Resource: "booking session",
				Msg:      "a paid booking session is still being processed; finish it or contact support",
			}
		}
	case errors.Is(err, repositories.ErrNotFound), domain.IsSessionIntegrity(err):
		// nothing usable stored
	default:
		return models.BookingSessionRecord{}, err
	}

	trainRef := strings.TrimSpace(in.TrainRef)
	if trainRef == "" && in.Schedule != nil {
		trainRef = strings.TrimSpace(in.Schedule.TrainID)
	}
	if trainRef == "" {
		return models.BookingSessionRecord{}, domain.SessionIntegrityError{Reason: "train id is missing"}
	}

	now := s.now()
	record := models.BookingSessionRecord{
		Token:         s.newToken(),
		ScheduleRef:   scheduleRef,
		TrainRef:      trainRef,
		Schedule:      in.Schedule,
		Route:         in.Route,
		SelectedSeats: append([]models.Seat(nil), in.SelectedSeats...),
		PassengerInfo: append([]models.PassengerRecord(nil), in.PassengerInfo...),
		Pricing:       in.Pricing,
		Status:        models.SessionBuilding,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := advance(&record, models.SessionPricedAndReady); err != nil {
		return models.BookingSessionRecord{}, err
	}
	if err := persistSession(ctx, s.Store, owner, &record); err != nil {
		return models.BookingSessionRecord{}, err
	}
	metrics.SessionsCreated.Inc()
	utils.LogEvent(s.RequestID, "session", "create", fmt.Sprintf("schedule=%s seats=%d total=%d", scheduleRef, len(record.SelectedSeats), record.Pricing.Total))
	return record, nil
}

func checkSessionInput(in SessionInput) error {
	if len(in.SelectedSeats) == 0 {
		return domain.ValidationError{Field: "seats", Msg: "at least one seat is required"}
	}
	if len(in.SelectedSeats) != len(in.PassengerInfo) {
		return domain.ValidationError{
			Field: "passengers",
			Msg:   fmt.Sprintf("%d seat(s) selected for %d passenger(s)", len(in.SelectedSeats), len(in.PassengerInfo)),
			Err:   domain.ErrSeatCountMismatch,
		}
	}
	byID := map[string]bool{}
	for _, p := range in.PassengerInfo {
		byID[p.SeatID] = true
	}
	for _, seat := range in.SelectedSeats {
		if !byID[seat.ID] {
			return domain.ValidationError{Field: "passengers", Msg: "no passenger for seat " + seat.Label, Err: domain.ErrSeatCountMismatch}
		}
	}
	if in.Pricing.SeatCount != len(in.SelectedSeats) {
		return domain.ValidationError{Field: "pricing", Msg: "price was computed for a different number of seats"}
	}
	return nil
}

// RedirectToPayment opens a checkout at the payment provider for record and
// returns the provider URL. On failure the stored record is left as it was
// so the user can try again.
func (s SessionService) RedirectToPayment(ctx context.Context, owner string, record models.BookingSessionRecord) (string, error) {
	key := repositories.PendingBookingKey(owner)
	stored, err := s.load(ctx, key)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", domain.SessionIntegrityError{Reason: "no pending booking found", Err: err}
	}
	if err != nil {
		return "", err
	}
	if stored.Token != record.Token {
		return "", domain.SessionIntegrityError{Reason: "booking session was replaced by a newer one"}
	}

	summary := models.PaymentSummary{
		Token:          stored.Token,
		ScheduleRef:    stored.ScheduleRef,
		Route:          stored.Route,
		SeatLabels:     seatLabels(stored.SelectedSeats),
		PassengerCount: len(stored.PassengerInfo),
		Pricing:        stored.Pricing,
		PromoCode:      stored.Pricing.PromoCode,
		SuccessURL:     s.successURL(stored.Token),
		CancelURL:      s.CancelURL,
	}
	if err := advance(&stored, models.SessionAwaitingExternalPayment); err != nil {
		return "", err
	}

	session, err := s.Payments.CreatePaymentSession(ctx, summary)
	if err != nil {
		utils.LogWarn(s.RequestID, "session", "create_payment_session", err)
		return "", err
	}

	stored.PaymentSessionID = session.SessionID
	if err := s.save(ctx, owner, &stored); err != nil {
		return "", err
	}
	utils.LogEvent(s.RequestID, "session", "redirect", "payment_session="+session.SessionID)
	return session.RedirectURL, nil
}

// successURL appends the session token and the provider's session placeholder.
func (s SessionService) successURL(token string) string {
	if s.SuccessURL == "" {
		return ""
	}
	u, err := url.Parse(s.SuccessURL)
	if err != nil {
		return s.SuccessURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	// the placeholder braces must survive unescaped
	return u.String() + "&session_id={CHECKOUT_SESSION_ID}"
}

// ResumeSession reads the pendingBooking slot back after the payment
// redirect. Anything that makes the record unusable is a
// SessionIntegrityError and nothing is changed.
func (s SessionService) ResumeSession(ctx context.Context, owner, token string) (models.BookingSessionRecord, error) {
	key := repositories.PendingBookingKey(owner)
	record, err := s.load(ctx, key)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.BookingSessionRecord{}, domain.SessionIntegrityError{Reason: "no pending booking found; please start your booking again", Err: err}
	}
	if err != nil {
		return models.BookingSessionRecord{}, err
	}
	if strings.TrimSpace(token) == "" || record.Token != strings.TrimSpace(token) {
		return models.BookingSessionRecord{}, domain.SessionIntegrityError{Reason: "booking session does not match this payment"}
	}
	if record.ScheduleRef == "" {
		record.ScheduleRef = NormalizeScheduleRef("", record.Schedule)
	}
	if record.ScheduleRef == "" {
		return models.BookingSessionRecord{}, domain.SessionIntegrityError{Reason: "schedule id could not be recovered"}
	}

	switch {
	case record.Status == models.SessionCompleted:
		return models.BookingSessionRecord{}, domain.ConflictError{Resource: "booking session", Msg: "bookings for this payment were already created"}
	case !record.Status.PaymentStarted():
		return models.BookingSessionRecord{}, domain.ConflictError{Resource: "booking session", Msg: "payment was not started for this booking"}
	}

	if err := advance(&record, models.SessionResumed); err != nil {
		return models.BookingSessionRecord{}, err
	}
	if err := s.save(ctx, owner, &record); err != nil {
		return models.BookingSessionRecord{}, err
	}
	utils.LogEvent(s.RequestID, "session", "resume", "schedule="+record.ScheduleRef)
	return record, nil
}

// Current returns the stored record without changing it.
func (s SessionService) Current(ctx context.Context, owner string) (models.BookingSessionRecord, error) {
	record, err := s.load(ctx, repositories.PendingBookingKey(owner))
	if errors.Is(err, repositories.ErrNotFound) {
		return models.BookingSessionRecord{}, domain.NotFoundError{Resource: "pending booking", Err: err}
	}
	return record, err
}

// Abandon drops the pendingBooking slot. Only allowed before the payment
// redirect; afterwards bookings are cancelled one by one.
func (s SessionService) Abandon(ctx context.Context, owner string) error {
	key := repositories.PendingBookingKey(owner)
	record, err := s.load(ctx, key)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	case domain.IsSessionIntegrity(err):
		// unreadable record, nothing to protect
	case err != nil:
		return err
	default:
		if record.Status.PaymentStarted() {
			return domain.ConflictError{
				Resource: "booking session",
				Msg:      "payment has already started; cancel individual bookings instead",
			}
		}
	}
	if err := s.Store.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove booking session: %w", err)
	}
	utils.LogEvent(s.RequestID, "session", "abandon", "owner="+owner)
	return nil
}

// load decodes the slot. Undecodable data is a SessionIntegrityError;
// ErrNotFound passes through.
func (s SessionService) load(ctx context.Context, key repositories.Key) (models.BookingSessionRecord, error) {
	var record models.BookingSessionRecord
	raw, err := s.Store.Restore(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return record, err
		}
		return record, fmt.Errorf("restore booking session: %w", err)
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return record, domain.SessionIntegrityError{Reason: "stored booking session is unreadable", Err: err}
	}
	return record, nil
}

func (s SessionService) save(ctx context.Context, owner string, record *models.BookingSessionRecord) error {
	record.UpdatedAt = s.now()
	return persistSession(ctx, s.Store, owner, record)
}

func seatLabels(seats []models.Seat) []string {
	out := make([]string, 0, len(seats))
	for _, seat := range seats {
		out = append(out, seat.Label)
	}
	return out
}
