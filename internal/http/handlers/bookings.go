package handlers

import (
	"net/http"

	"busbooking/internal/http/middleware"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListBookings(c *gin.Context) {
	list, err := h.bookings(c).List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	if err := h.bookings(c).Cancel(c.Request.Context(), c.Param("id")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled"})
}

// BookingTicket renders the e-ticket PDF inline.
func (h *Handler) BookingTicket(c *gin.Context) {
	svc := services.DocsService{Bookings: h.bookings(c), RequestID: middleware.GetRequestID(c)}
	pdfBytes, filename, err := svc.GenerateTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
