package services

import (
	"context"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"
)

// BookingService handles bookings that already exist at the ticketing API.
type BookingService struct {
	Directory BookingDirectory
	RequestID string
	Now       func() time.Time
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s BookingService) List(ctx context.Context) ([]models.ConfirmedBooking, error) {
	return s.Directory.ListUserBookings(ctx)
}

// Find returns one of the caller's bookings.
func (s BookingService) Find(ctx context.Context, bookingID string) (models.ConfirmedBooking, error) {
	id := strings.TrimSpace(bookingID)
	list, err := s.List(ctx)
	if err != nil {
		return models.ConfirmedBooking{}, err
	}
	for _, b := range list {
		if b.ID == id {
			return b, nil
		}
	}
	return models.ConfirmedBooking{}, domain.NotFoundError{Resource: "booking " + id}
}

// Cancel hanya untuk booking confirmed dengan tanggal keberangkatan di masa depan.
// Booking di hari yang sama diarahkan ke support.
func (s BookingService) Cancel(ctx context.Context, bookingID string) error {
	b, err := s.Find(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.BookingStatus != models.BookingConfirmed {
		return domain.ConflictError{Resource: "booking", Msg: "only confirmed bookings can be cancelled"}
	}
	travel, err := utils.ParseDate(b.TravelDate)
	if err != nil {
		return domain.ValidationError{Field: "travelDate", Msg: "travel date is unknown", Err: err}
	}
	switch utils.CompareDay(travel, s.now()) {
	case -1:
		return domain.ValidationError{Field: "travelDate", Msg: "cannot cancel past bookings"}
	case 0:
		return domain.ConflictError{Resource: "booking", Msg: "same-day bookings can only be cancelled by contacting support"}
	}
	if err := s.Directory.CancelBooking(ctx, b.ID); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "booking", "cancel", "booking_id="+b.ID)
	return nil
}
