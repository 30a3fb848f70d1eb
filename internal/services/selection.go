package services

import (
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

// SeatSelection holds the seats picked for a fixed number of passengers.
// Order of selection is kept.
type SeatSelection struct {
	capacity int
	seats    []models.Seat
}

func NewSeatSelection(passengerCount int) *SeatSelection {
	if passengerCount < 0 {
		passengerCount = 0
	}
	return &SeatSelection{capacity: passengerCount}
}

func (s *SeatSelection) Capacity() int { return s.capacity }

// Toggle adds or removes seat. Unavailable seats are ignored; adding past
// capacity fails and leaves the selection as it was.
func (s *SeatSelection) Toggle(seat models.Seat) ([]models.Seat, error) {
	if !seat.Available {
		return s.Seats(), nil
	}
	for i, cur := range s.seats {
		if cur.ID == seat.ID {
			s.seats = append(s.seats[:i:i], s.seats[i+1:]...)
			return s.Seats(), nil
		}
	}
	if len(s.seats) >= s.capacity {
		return s.Seats(), domain.ValidationError{
			Field: "seats",
			Msg:   "you can only select as many seats as passengers",
			Err:   domain.ErrSeatCapacity,
		}
	}
	s.seats = append(s.seats, seat)
	return s.Seats(), nil
}

func (s *SeatSelection) Clear() {
	s.seats = nil
}

// IsComplete reports whether every passenger has a seat. With no passengers
// the empty selection is complete.
func (s *SeatSelection) IsComplete() bool {
	return len(s.seats) == s.capacity
}

// Seats returns a copy of the selection in selection order.
func (s *SeatSelection) Seats() []models.Seat {
	return append([]models.Seat{}, s.seats...)
}

func (s *SeatSelection) SeatIDs() []string {
	ids := make([]string, 0, len(s.seats))
	for _, seat := range s.seats {
		ids = append(ids, seat.ID)
	}
	return ids
}

// Labels returns the display labels in selection order.
func (s *SeatSelection) Labels() []string {
	out := make([]string, 0, len(s.seats))
	for _, seat := range s.seats {
		out = append(out, seat.Label)
	}
	return out
}
