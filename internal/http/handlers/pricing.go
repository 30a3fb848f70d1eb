package handlers

import (
	"net/http"
	"strings"

	"busbooking/internal/services"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

type quoteRequest struct {
	ScheduleID string `json:"scheduleId"`
	SeatCount  int    `json:"seatCount"`
	UnitPrice  int64  `json:"unitPrice"`
	PromoCode  string `json:"promoCode"`
}

// Quote prices a seat count. The schedule's ticket price wins over unitPrice
// when scheduleId is given.
func (h *Handler) Quote(c *gin.Context) {
	var req quoteRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	unit := req.UnitPrice
	if id := strings.TrimSpace(req.ScheduleID); id != "" {
		schedule, err := services.FindSchedule(c.Request.Context(), h.API, id)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		unit = schedule.TicketPrice
	}
	pricing, err := utils.ComputePricing(req.SeatCount, unit, req.PromoCode)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pricing": pricing,
		"display": gin.H{
			"baseFare": utils.FormatAmount(pricing.BaseFare),
			"tax":      utils.FormatAmount(pricing.Tax),
			"discount": utils.FormatAmount(pricing.Discount),
			"total":    utils.FormatAmount(pricing.Total),
		},
	})
}
