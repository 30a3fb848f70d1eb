package handlers

import (
	"context"

	"busbooking/internal/http/middleware"
	"busbooking/internal/repositories"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

// Handler holds the dependencies shared by every endpoint. Services are built
// per request so each one logs with the caller's request id.
type Handler struct {
	API          services.TicketingAPI
	Store        repositories.SessionStore
	SuccessURL   string
	CancelURL    string
	Concurrency  int
	// JWTSecret signs anonymous client ids.
	JWTSecret []byte
	// StoreCheckFn reports whether the session backend is reachable.
	StoreCheckFn func(ctx context.Context) error
}

func (h *Handler) forms(c *gin.Context) services.PassengerFormService {
	return services.PassengerFormService{Store: h.Store, RequestID: middleware.GetRequestID(c)}
}

func (h *Handler) sessions(c *gin.Context) services.SessionService {
	return services.SessionService{
		Store:      h.Store,
		Payments:   h.API,
		SuccessURL: h.SuccessURL,
		CancelURL:  h.CancelURL,
		RequestID:  middleware.GetRequestID(c),
	}
}

func (h *Handler) checkout(c *gin.Context) services.CheckoutService {
	rid := middleware.GetRequestID(c)
	return services.CheckoutService{
		Schedules: h.API,
		Payments:  h.API,
		Sessions:  h.sessions(c),
		Forms:     h.forms(c),
		Materializer: services.Materializer{
			Bookings:    h.API,
			Store:       h.Store,
			Concurrency: h.Concurrency,
			RequestID:   rid,
		},
		RequestID: rid,
	}
}

func (h *Handler) bookings(c *gin.Context) services.BookingService {
	return services.BookingService{Directory: h.API, RequestID: middleware.GetRequestID(c)}
}
