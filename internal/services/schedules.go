package services

import (
	"context"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"
)

// FindSchedule looks a schedule up by id in the full list, the only lookup
// the ticketing API offers.
func FindSchedule(ctx context.Context, src ScheduleSource, scheduleID string) (models.Schedule, error) {
	id := strings.TrimSpace(scheduleID)
	if id == "" {
		return models.Schedule{}, domain.ValidationError{Field: "scheduleId", Msg: "is required"}
	}
	list, err := src.GetSchedules(ctx)
	if err != nil {
		return models.Schedule{}, err
	}
	for _, s := range list {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Schedule{}, domain.NotFoundError{Resource: "schedule " + id}
}

// ScheduleLayout returns the seat grid of scheduleID with live availability.
func ScheduleLayout(ctx context.Context, src ScheduleSource, scheduleID string) (models.Schedule, []models.Seat, error) {
	schedule, err := FindSchedule(ctx, src, scheduleID)
	if err != nil {
		return models.Schedule{}, nil, err
	}
	booked, err := src.GetBookedSeats(ctx, schedule.ID)
	if err != nil {
		return models.Schedule{}, nil, err
	}
	return schedule, GenerateLayout(schedule.TotalSeats, NewSeatSet(booked...)), nil
}

// FormKey is the passenger form slot for a schedule and seat set.
func FormKey(owner string, schedule models.Schedule, seatIDs []string) repositories.Key {
	bus := schedule.Train.ID
	if bus == "" {
		bus = schedule.ID
	}
	return repositories.PassengerInfoKey(owner, bus, seatIDs, schedule.Date)
}

func formKeyForRecord(owner string, record models.BookingSessionRecord) repositories.Key {
	bus := record.TrainRef
	if bus == "" {
		bus = record.ScheduleRef
	}
	ids := make([]string, 0, len(record.SelectedSeats))
	for _, s := range record.SelectedSeats {
		ids = append(ids, s.ID)
	}
	return repositories.PassengerInfoKey(owner, bus, ids, record.Route.Date)
}

// SelectSeats applies seatIDs to a fresh selection over layout, in order.
// Seats that are booked by now are reported as stale.
func SelectSeats(layout []models.Seat, passengerCount int, seatIDs []string) (*SeatSelection, error) {
	byID := make(map[string]models.Seat, len(layout))
	for _, s := range layout {
		byID[s.ID] = s
	}
	if utils.HasDuplicates(seatIDs) {
		return nil, domain.ValidationError{Field: "seats", Msg: "a seat was selected twice"}
	}
	sel := NewSeatSelection(passengerCount)
	for _, raw := range seatIDs {
		id := strings.TrimSpace(raw)
		seat, ok := byID[id]
		if !ok {
			return nil, domain.ValidationError{Field: "seats", Msg: "seat " + id + " does not exist"}
		}
		if !seat.Available {
			return nil, domain.StaleAvailabilityError{SeatNumber: seat.SeatNumber, Msg: "seat " + seat.Label + " was booked by someone else"}
		}
		if _, err := sel.Toggle(seat); err != nil {
			return nil, err
		}
	}
	return sel, nil
}
