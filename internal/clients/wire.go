package clients

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"busbooking/internal/domain/models"
	"busbooking/internal/utils"
)

// The ticketing API is not consistent about ids (Mongo "_id" vs "id") or
// about populating references, so decoding goes through these wire types.

type wireTrain struct {
	MongoID      string `json:"_id"`
	ID           string `json:"id"`
	TrainName    string `json:"trainName"`
	TrainNumber  string `json:"trainNumber"`
	TotalSeats   int    `json:"totalSeats"`
	StartStation string `json:"startStation"`
	EndStation   string `json:"endStation"`
}

func (w wireTrain) id() string {
	if w.MongoID != "" {
		return w.MongoID
	}
	return w.ID
}

// ref decodes a reference that is either a bare id string or a populated object.
type ref struct {
	ID     string
	Object *json.RawMessage
}

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	raw := json.RawMessage(append([]byte(nil), b...))
	r.Object = &raw
	var idOnly struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(b, &idOnly); err != nil {
		return err
	}
	r.ID = idOnly.MongoID
	if r.ID == "" {
		r.ID = idOnly.ID
	}
	return nil
}

func (r ref) train() wireTrain {
	var t wireTrain
	if r.Object != nil {
		_ = json.Unmarshal(*r.Object, &t)
	}
	return t
}

func (r ref) schedule() wireSchedule {
	var s wireSchedule
	if r.Object != nil {
		_ = json.Unmarshal(*r.Object, &s)
	}
	return s
}

// flexInt accepts 2500, 2500.0 and "2500".
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = flexInt(i)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(int64(v + 0.5))
	return nil
}

type wireSchedule struct {
	MongoID        string  `json:"_id"`
	ID             string  `json:"id"`
	Train          ref     `json:"train"`
	Date           string  `json:"date"`
	DepartureTime  string  `json:"departureTime"`
	ArrivalTime    string  `json:"arrivalTime"`
	TicketPrice    flexInt `json:"ticketPrice"`
	AvailableSeats *int    `json:"availableSeats"`
}

func (w wireSchedule) toModel() models.Schedule {
	t := w.Train.train()
	id := w.MongoID
	if id == "" {
		id = w.ID
	}
	date := w.Date
	if i := strings.Index(date, "T"); i > 0 {
		date = date[:i]
	}
	s := models.Schedule{
		ID: id,
		Train: models.Train{
			ID:         w.Train.ID,
			Name:       t.TrainName,
			Number:     t.TrainNumber,
			TotalSeats: t.TotalSeats,
		},
		Origin:        t.StartStation,
		Destination:   t.EndStation,
		Date:          date,
		DepartureTime: w.DepartureTime,
		ArrivalTime:   w.ArrivalTime,
		TicketPrice:   int64(w.TicketPrice),
		TotalSeats:    t.TotalSeats,
	}
	if w.AvailableSeats != nil && s.TotalSeats > 0 {
		s.BookedSeats = s.TotalSeats - *w.AvailableSeats
		if s.BookedSeats < 0 {
			s.BookedSeats = 0
		}
	}
	return s
}

type wireBooking struct {
	MongoID       string `json:"_id"`
	ID            string `json:"id"`
	Train         ref    `json:"train"`
	TrainID       string `json:"trainId"`
	Schedule      ref    `json:"schedule"`
	ScheduleID    string `json:"scheduleId"`
	SeatNumber    int    `json:"seatNumber"`
	PassengerName string `json:"passengerName"`
	PassengerAge  int    `json:"passengerAge"`
	BookingStatus string `json:"bookingStatus"`
	PaymentStatus string `json:"paymentStatus"`
}

func (w wireBooking) toModel() models.ConfirmedBooking {
	id := w.MongoID
	if id == "" {
		id = w.ID
	}
	t := w.Train.train()
	s := w.Schedule.schedule()
	date := s.Date
	if i := strings.Index(date, "T"); i > 0 {
		date = date[:i]
	}
	b := models.ConfirmedBooking{
		ID:            id,
		TrainRef:      utils.FirstNonEmpty(w.Train.ID, w.TrainID),
		ScheduleRef:   utils.FirstNonEmpty(w.Schedule.ID, w.ScheduleID),
		SeatNumber:    w.SeatNumber,
		PassengerName: w.PassengerName,
		PassengerAge:  w.PassengerAge,
		BookingStatus: models.BookingStatus(strings.ToLower(w.BookingStatus)),
		PaymentStatus: models.PaymentStatus(strings.ToLower(w.PaymentStatus)),
		TravelDate:    date,
		TrainName:     t.TrainName,
		From:          t.StartStation,
		To:            t.EndStation,
		DepartureTime: s.DepartureTime,
	}
	if b.BookingStatus == "" {
		b.BookingStatus = models.BookingConfirmed
	}
	return b
}

type wireVerification struct {
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	Amount        flexInt `json:"amount"`
	AmountTotal   flexInt `json:"amount_total"`
	Currency      string  `json:"currency"`
}

func (w wireVerification) toModel() models.PaymentVerification {
	amount := int64(w.Amount)
	if amount == 0 {
		amount = int64(w.AmountTotal)
	}
	return models.PaymentVerification{
		Status:   utils.FirstNonEmpty(w.PaymentStatus, w.Status),
		Amount:   amount,
		Currency: w.Currency,
	}
}

// decodeList accepts a bare array or an object wrapping it under field.
func decodeList[T any](body []byte, field string) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	if body[0] == '[' {
		var out []T
		err := json.Unmarshal(body, &out)
		return out, err
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	raw, ok := env[field]
	if !ok {
		return nil, nil
	}
	var out []T
	err := json.Unmarshal(raw, &out)
	return out, err
}
