package handlers

import (
	"net/http"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListSchedules(c *gin.Context) {
	list, err := h.API.GetSchedules(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": list})
}

// ScheduleLayout returns the seat grid with live availability.
func (h *Handler) ScheduleLayout(c *gin.Context) {
	schedule, seats, err := services.ScheduleLayout(c.Request.Context(), h.API, c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"schedule":       schedule,
		"seats":          seats,
		"rows":           services.SeatRows(seats),
		"availableSeats": schedule.AvailableSeats(),
	})
}

type selectionRequest struct {
	PassengerCount int      `json:"passengerCount"`
	SeatIDs        []string `json:"seatIds"`
	Toggle         string   `json:"toggle"`
}

type selectionResponse struct {
	Selected []models.Seat `json:"selected"`
	SeatIDs  []string      `json:"seatIds"`
	Labels   []string      `json:"labels"`
	Complete bool          `json:"complete"`
	Capacity int           `json:"capacity"`
}

// PreviewSelection replays the current selection against a fresh layout and
// applies one toggle. Booked seats are ignored by the toggle. Nothing is stored.
func (h *Handler) PreviewSelection(c *gin.Context) {
	var req selectionRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	_, layout, err := services.ScheduleLayout(c.Request.Context(), h.API, c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sel, err := services.SelectSeats(layout, req.PassengerCount, req.SeatIDs)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if id := strings.TrimSpace(req.Toggle); id != "" {
		seat, ok := findSeat(layout, id)
		if !ok {
			RespondDomainError(c, domain.ValidationError{Field: "toggle", Msg: "seat " + id + " does not exist"})
			return
		}
		if _, err := sel.Toggle(seat); err != nil {
			RespondDomainError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, selectionResponse{
		Selected: sel.Seats(),
		SeatIDs:  sel.SeatIDs(),
		Labels:   sel.Labels(),
		Complete: sel.IsComplete(),
		Capacity: sel.Capacity(),
	})
}

func findSeat(layout []models.Seat, id string) (models.Seat, bool) {
	for _, s := range layout {
		if s.ID == id {
			return s, true
		}
	}
	return models.Seat{}, false
}
