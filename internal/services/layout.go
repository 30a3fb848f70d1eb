package services

import (
	"strconv"

	"busbooking/internal/domain/models"
)

// SeatsPerRow is fixed: columns 1-2 are window seats, 3-4 aisle seats.
const SeatsPerRow = 4

var columnLetters = [SeatsPerRow]string{"A", "B", "C", "D"}

// SeatSet is a set of booked seat numbers.
type SeatSet map[int]struct{}

func NewSeatSet(nums ...int) SeatSet {
	s := make(SeatSet, len(nums))
	for _, n := range nums {
		s[n] = struct{}{}
	}
	return s
}

func (s SeatSet) Has(n int) bool {
	_, ok := s[n]
	return ok
}

// GenerateLayout builds the seat grid for totalSeats seats numbered from 1.
// Booked numbers outside [1, totalSeats] are ignored; a non-positive total
// yields an empty layout.
func GenerateLayout(totalSeats int, booked SeatSet) []models.Seat {
	if totalSeats <= 0 {
		return []models.Seat{}
	}
	seats := make([]models.Seat, 0, totalSeats)
	for n := 1; n <= totalSeats; n++ {
		row := (n-1)/SeatsPerRow + 1
		col := (n-1)%SeatsPerRow + 1
		pos := models.SeatWindow
		if col > 2 {
			pos = models.SeatAisle
		}
		seats = append(seats, models.Seat{
			ID:         strconv.Itoa(n),
			Label:      strconv.Itoa(row) + columnLetters[col-1],
			SeatNumber: n,
			Row:        row,
			Column:     col,
			Position:   pos,
			Available:  !booked.Has(n),
		})
	}
	return seats
}

// SeatRows groups a layout by row for rendering.
func SeatRows(seats []models.Seat) [][]models.Seat {
	rows := [][]models.Seat{}
	for _, s := range seats {
		if len(rows) < s.Row {
			rows = append(rows, make([]models.Seat, 0, SeatsPerRow))
		}
		rows[s.Row-1] = append(rows[s.Row-1], s)
	}
	return rows
}
