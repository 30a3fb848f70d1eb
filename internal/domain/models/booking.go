package models

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// BookingRequest is the payload sent to the ticketing API for one passenger.
type BookingRequest struct {
	TrainRef       string `json:"trainId"`
	ScheduleRef    string `json:"scheduleId"`
	SeatNumber     int    `json:"seatNumber"`
	PassengerName  string `json:"passengerName"`
	PassengerAge   int    `json:"passengerAge"`
	IdempotencyKey string `json:"-"`
}

// ConfirmedBooking is a booking created by the ticketing API.
type ConfirmedBooking struct {
	ID            string        `json:"id"`
	TrainRef      string        `json:"trainId"`
	ScheduleRef   string        `json:"scheduleId"`
	SeatNumber    int           `json:"seatNumber"`
	PassengerName string        `json:"passengerName"`
	PassengerAge  int           `json:"passengerAge"`
	BookingStatus BookingStatus `json:"bookingStatus"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TravelDate    string        `json:"travelDate,omitempty"`
	TrainName     string        `json:"trainName,omitempty"`
	From          string        `json:"from,omitempty"`
	To            string        `json:"to,omitempty"`
	DepartureTime string        `json:"departureTime,omitempty"`
}
