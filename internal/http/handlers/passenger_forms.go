package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/http/middleware"
	"busbooking/internal/repositories"
	"busbooking/internal/services"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
)

type passengerFormRequest struct {
	ScheduleID string                   `json:"scheduleId"`
	SeatIDs    []string                 `json:"seatIds"`
	Passengers []models.PassengerRecord `json:"passengers"`
}

type passengerFieldRequest struct {
	ScheduleID string   `json:"scheduleId"`
	SeatIDs    []string `json:"seatIds"`
	SeatID     string   `json:"seatId"`
	Index      *int     `json:"index"`
	Field      string   `json:"field"`
	Value      string   `json:"value"`
}

func (h *Handler) formKey(c *gin.Context, scheduleID string, seatIDs []string) (repositories.Key, error) {
	schedule, err := services.FindSchedule(c.Request.Context(), h.API, scheduleID)
	if err != nil {
		return repositories.Key{}, err
	}
	return services.FormKey(ownerOf(c), schedule, seatIDs), nil
}

func profileDefaults(c *gin.Context) models.PassengerDefaults {
	rc := middleware.GetRequestContext(c)
	return models.PassengerDefaults{Name: rc.Name, Phone: rc.Phone, Email: rc.Email}
}

// GetPassengerForm restores the saved form for the seat selection, or starts
// a new one. Query: scheduleId, seats=1,2,3, passengers=3.
func (h *Handler) GetPassengerForm(c *gin.Context) {
	seatIDs := utils.SplitSeatList(c.Query("seats"))
	count := len(seatIDs)
	if raw := strings.TrimSpace(c.Query("passengers")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			RespondDomainError(c, domain.ValidationError{Field: "passengers", Msg: "must be a whole number", Err: err})
			return
		}
		count = n
	}
	key, err := h.formKey(c, c.Query("scheduleId"), seatIDs)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	form, err := h.forms(c).Initialize(c.Request.Context(), key, count, seatIDs, profileDefaults(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// PutPassengerForm saves the whole passenger set. Validation happens at checkout.
func (h *Handler) PutPassengerForm(c *gin.Context) {
	var req passengerFormRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	records, err := alignPassengers(req.SeatIDs, req.Passengers)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	key, err := h.formKey(c, req.ScheduleID, req.SeatIDs)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if err := h.forms(c).Persist(c.Request.Context(), key, records); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.PassengerForm{Key: key, Records: records})
}

// PatchPassengerField updates one field, addressed by seatId or index.
func (h *Handler) PatchPassengerField(c *gin.Context) {
	var req passengerFieldRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	key, err := h.formKey(c, req.ScheduleID, req.SeatIDs)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	svc := h.forms(c)
	ctx := c.Request.Context()
	form, err := svc.Initialize(ctx, key, len(req.SeatIDs), req.SeatIDs, profileDefaults(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if req.Index != nil {
		form, err = svc.UpdateAt(ctx, form, *req.Index, req.Field, req.Value)
	} else {
		form, err = svc.Update(ctx, form, strings.TrimSpace(req.SeatID), req.Field, req.Value)
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// ValidatePassengerForm reports every failing field at once.
func (h *Handler) ValidatePassengerForm(c *gin.Context) {
	var req passengerFormRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := services.ValidatePassengers(req.Passengers); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// alignPassengers fills missing seat ids by position and checks that the set
// covers seatIDs exactly.
func alignPassengers(seatIDs []string, passengers []models.PassengerRecord) ([]models.PassengerRecord, error) {
	if len(passengers) != len(seatIDs) {
		return nil, domain.ValidationError{
			Field: "passengers",
			Msg:   fmt.Sprintf("%d passenger(s) for %d seat(s)", len(passengers), len(seatIDs)),
			Err:   domain.ErrSeatCountMismatch,
		}
	}
	want := map[string]bool{}
	for _, id := range seatIDs {
		want[id] = true
	}
	out := make([]models.PassengerRecord, len(passengers))
	for i, p := range passengers {
		if strings.TrimSpace(p.SeatID) == "" {
			p.SeatID = seatIDs[i]
		}
		if !want[p.SeatID] {
			return nil, domain.ValidationError{Field: fmt.Sprintf("passengers[%d].seatId", i), Msg: "seat " + p.SeatID + " is not selected"}
		}
		out[i] = p
	}
	return out, nil
}
