package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"busbooking/internal/domain/models"
	"busbooking/internal/repositories"
)

// expiryStore records whether each slot was last written with or without
// expiry. failOn makes the n-th write (1-based) fail.
type expiryStore struct {
	*repositories.MemoryStore
	mu      sync.Mutex
	durable map[string]bool
	writes  int
	failOn  int
}

func newExpiryStore() *expiryStore {
	return &expiryStore{MemoryStore: repositories.NewMemoryStore(), durable: map[string]bool{}}
}

func (s *expiryStore) write(ctx context.Context, key repositories.Key, value []byte, durable bool) error {
	s.mu.Lock()
	s.writes++
	fail := s.failOn > 0 && s.writes == s.failOn
	if !fail {
		s.durable[key.Name] = durable
	}
	s.mu.Unlock()
	if fail {
		return errBoom
	}
	return s.MemoryStore.Persist(ctx, key, value)
}

func (s *expiryStore) Persist(ctx context.Context, key repositories.Key, value []byte) error {
	return s.write(ctx, key, value, false)
}

func (s *expiryStore) PersistDurable(ctx context.Context, key repositories.Key, value []byte) error {
	return s.write(ctx, key, value, true)
}

func (s *expiryStore) isDurable(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durable[name]
}

type fakeAPI struct {
	mu sync.Mutex

	schedules []models.Schedule
	booked    map[string][]int

	createFn    func(req models.BookingRequest) (models.ConfirmedBooking, error)
	created     []models.BookingRequest
	inFlight    int
	maxInFlight int
	delay       time.Duration

	bookings  []models.ConfirmedBooking
	cancelled []string

	paymentErr    error
	summaries     []models.PaymentSummary
	verifyErr     error
	verifications []string
}

func (f *fakeAPI) GetSchedules(context.Context) ([]models.Schedule, error) {
	return f.schedules, nil
}

func (f *fakeAPI) GetBookedSeats(_ context.Context, id string) ([]int, error) {
	return f.booked[id], nil
}

func (f *fakeAPI) CreateBooking(_ context.Context, req models.BookingRequest) (models.ConfirmedBooking, error) {
	f.mu.Lock()
	f.created = append(f.created, req)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.createFn != nil {
		return f.createFn(req)
	}
	return models.ConfirmedBooking{
		ID:            "b-" + strconv.Itoa(req.SeatNumber),
		ScheduleRef:   req.ScheduleRef,
		TrainRef:      req.TrainRef,
		SeatNumber:    req.SeatNumber,
		PassengerName: req.PassengerName,
		PassengerAge:  req.PassengerAge,
		BookingStatus: models.BookingConfirmed,
		PaymentStatus: models.PaymentPaid,
	}, nil
}

func (f *fakeAPI) ListUserBookings(context.Context) ([]models.ConfirmedBooking, error) {
	return f.bookings, nil
}

func (f *fakeAPI) CancelBooking(_ context.Context, id string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeAPI) CreatePaymentSession(_ context.Context, summary models.PaymentSummary) (models.PaymentSession, error) {
	f.summaries = append(f.summaries, summary)
	if f.paymentErr != nil {
		return models.PaymentSession{}, f.paymentErr
	}
	return models.PaymentSession{SessionID: "cs_" + strconv.Itoa(len(f.summaries)), RedirectURL: "https://pay.example/cs"}, nil
}

func (f *fakeAPI) VerifyPaymentSession(_ context.Context, id string) (models.PaymentVerification, error) {
	f.verifications = append(f.verifications, id)
	if f.verifyErr != nil {
		return models.PaymentVerification{}, f.verifyErr
	}
	return models.PaymentVerification{Status: "paid", Amount: 4400, Currency: "pkr"}, nil
}

var errBoom = errors.New("boom")

func testSchedule() models.Schedule {
	return models.Schedule{
		ID:            "sch-1",
		Train:         models.Train{ID: "train-1", Name: "Green Line", Number: "GL-001", TotalSeats: 10},
		Origin:        "Lahore",
		Destination:   "Karachi",
		Date:          "2030-01-15",
		DepartureTime: "08:00",
		TicketPrice:   2500,
		TotalSeats:    10,
	}
}

func validPassenger(seatID, name string) models.PassengerRecord {
	return models.PassengerRecord{
		SeatID:     seatID,
		Name:       name,
		Gender:     models.GenderFemale,
		Age:        30,
		NationalID: "35202-1234567-1",
		Phone:      "03001234567",
		Email:      "p@example.com",
	}
}
