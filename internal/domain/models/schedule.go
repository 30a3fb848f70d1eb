package models

import "strings"

// Train is the vehicle operating a schedule.
type Train struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Number     string `json:"number"`
	TotalSeats int    `json:"totalSeats"`
}

// Schedule is one dated run of a train/bus, as read from the ticketing API.
type Schedule struct {
	ID            string `json:"id"`
	Train         Train  `json:"train"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	Date          string `json:"date"` // YYYY-MM-DD
	DepartureTime string `json:"departureTime"`
	ArrivalTime   string `json:"arrivalTime"`
	TicketPrice   int64  `json:"ticketPrice"`
	TotalSeats    int    `json:"totalSeats"`
	BookedSeats   int    `json:"bookedSeats"`
}

// AvailableSeats never goes below zero.
func (s Schedule) AvailableSeats() int {
	if s.BookedSeats >= s.TotalSeats {
		return 0
	}
	return s.TotalSeats - s.BookedSeats
}

// Snapshot returns the schedule in the shape carried inside a session record.
func (s Schedule) Snapshot() *ScheduleSnapshot {
	return &ScheduleSnapshot{
		ID:            s.ID,
		TrainID:       s.Train.ID,
		Date:          s.Date,
		DepartureTime: s.DepartureTime,
		ArrivalTime:   s.ArrivalTime,
		TicketPrice:   s.TicketPrice,
	}
}

// ScheduleSnapshot is the schedule object as the UI carried it through
// navigation. Depending on the page it came from, the identifier may sit in
// "_id", "id" or "scheduleId".
type ScheduleSnapshot struct {
	MongoID       string `json:"_id,omitempty"`
	ID            string `json:"id,omitempty"`
	ScheduleID    string `json:"scheduleId,omitempty"`
	TrainID       string `json:"trainId,omitempty"`
	Date          string `json:"date,omitempty"`
	DepartureTime string `json:"departureTime,omitempty"`
	ArrivalTime   string `json:"arrivalTime,omitempty"`
	TicketPrice   int64  `json:"ticketPrice,omitempty"`
}

// PrimaryID is the "_id" field.
func (s *ScheduleSnapshot) PrimaryID() string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s.MongoID)
}

// SecondaryIDs lists the alternate id fields in lookup order.
func (s *ScheduleSnapshot) SecondaryIDs() []string {
	if s == nil {
		return nil
	}
	return []string{strings.TrimSpace(s.ID), strings.TrimSpace(s.ScheduleID)}
}

// Route is the origin/destination/date triple shown on every step.
type Route struct {
	From string `json:"from"`
	To   string `json:"to"`
	Date string `json:"date"`
}
