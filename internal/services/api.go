package services

import (
	"context"

	"busbooking/internal/domain/models"
)

// ScheduleSource reads schedules and their booked seat numbers.
type ScheduleSource interface {
	GetSchedules(ctx context.Context) ([]models.Schedule, error)
	GetBookedSeats(ctx context.Context, scheduleID string) ([]int, error)
}

// BookingCreator creates one booking per call.
type BookingCreator interface {
	CreateBooking(ctx context.Context, req models.BookingRequest) (models.ConfirmedBooking, error)
}

// BookingDirectory lists and cancels the caller's bookings.
type BookingDirectory interface {
	ListUserBookings(ctx context.Context) ([]models.ConfirmedBooking, error)
	CancelBooking(ctx context.Context, bookingID string) error
}

// PaymentGateway hands off to the external payment provider and back.
type PaymentGateway interface {
	CreatePaymentSession(ctx context.Context, summary models.PaymentSummary) (models.PaymentSession, error)
	VerifyPaymentSession(ctx context.Context, sessionID string) (models.PaymentVerification, error)
}

// TicketingAPI is everything the services need from the external API.
// *clients.APIClient satisfies it.
type TicketingAPI interface {
	ScheduleSource
	BookingCreator
	BookingDirectory
	PaymentGateway
}
