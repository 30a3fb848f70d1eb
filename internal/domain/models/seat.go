package models

type SeatPosition string

const (
	SeatWindow SeatPosition = "window"
	SeatAisle  SeatPosition = "aisle"
)

// Seat is one cell of a generated layout. It is derived from the schedule's
// seat count and booked set and is never stored on its own.
type Seat struct {
	ID         string       `json:"id"`
	Label      string       `json:"label"`
	SeatNumber int          `json:"seatNumber"`
	Row        int          `json:"row"`
	Column     int          `json:"column"`
	Position   SeatPosition `json:"position"`
	Available  bool         `json:"available"`
}
