package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/repositories"
)

func resumedRecord(seats int) models.BookingSessionRecord {
	layout := GenerateLayout(10, nil)
	names := []string{"A", "B", "C", "D", "E", "F"}
	rec := models.BookingSessionRecord{
		Token:       "tok-1",
		ScheduleRef: "sch-1",
		TrainRef:    "train-1",
		Status:      models.SessionResumed,
		Route:       models.Route{Date: "2030-01-15"},
	}
	for i := 0; i < seats; i++ {
		rec.SelectedSeats = append(rec.SelectedSeats, layout[i])
		rec.PassengerInfo = append(rec.PassengerInfo, validPassenger(layout[i].ID, names[i]))
	}
	return rec
}

func storeRecord(t *testing.T, store repositories.SessionStore, rec models.BookingSessionRecord) {
	t.Helper()
	require.NoError(t, repositories.PersistJSON(context.Background(), store, repositories.PendingBookingKey("u1"), rec))
}

func loadRecord(t *testing.T, store repositories.SessionStore) (models.BookingSessionRecord, error) {
	t.Helper()
	var rec models.BookingSessionRecord
	err := repositories.RestoreJSON(context.Background(), store, repositories.PendingBookingKey("u1"), &rec)
	return rec, err
}

func TestMaterializeAllSucceedClearsSession(t *testing.T) {
	store := repositories.NewMemoryStore()
	api := &fakeAPI{}
	rec := resumedRecord(2)
	storeRecord(t, store, rec)

	m := Materializer{Bookings: api, Store: store}
	res, err := m.Materialize(context.Background(), "u1", rec)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, res.Status)
	assert.Len(t, res.Confirmed, 2)

	require.Len(t, api.created, 2)
	assert.Equal(t, models.BookingRequest{
		TrainRef: "train-1", ScheduleRef: "sch-1", SeatNumber: 1, PassengerName: "A", PassengerAge: 30,
		IdempotencyKey: IdempotencyKey("tok-1", "1"),
	}, api.created[0])

	_, err = loadRecord(t, store)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestMaterializePartialFailureIsolation(t *testing.T) {
	store := repositories.NewMemoryStore()
	api := &fakeAPI{}
	api.createFn = func(req models.BookingRequest) (models.ConfirmedBooking, error) {
		if req.SeatNumber == 2 {
			return models.ConfirmedBooking{}, domain.StaleAvailabilityError{SeatNumber: 2}
		}
		return models.ConfirmedBooking{ID: "b", SeatNumber: req.SeatNumber, PassengerName: req.PassengerName, BookingStatus: models.BookingConfirmed}, nil
	}
	rec := resumedRecord(3)
	storeRecord(t, store, rec)

	m := Materializer{Bookings: api, Store: store}
	res, err := m.Materialize(context.Background(), "u1", rec)
	require.Error(t, err)
	assert.True(t, domain.IsPartialMaterialization(err))

	var perr domain.PartialMaterializationError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Confirmed)
	assert.Equal(t, 1, perr.Failed)

	require.Len(t, res.Outcomes, 3)
	assert.True(t, res.Outcomes[0].OK())
	assert.False(t, res.Outcomes[1].OK())
	assert.True(t, res.Outcomes[1].Stale)
	assert.NotEmpty(t, res.Outcomes[1].Error)
	assert.True(t, res.Outcomes[2].OK())
	assert.Equal(t, "C", res.Outcomes[2].PassengerName)
	assert.Equal(t, models.SessionPartiallyFailed, res.Status)

	stored, err := loadRecord(t, store)
	require.NoError(t, err, "record kept")
	assert.Equal(t, models.SessionPartiallyFailed, stored.Status)
	assert.Len(t, stored.Confirmed, 2)
}

func TestMaterializeRetrySkipsConfirmedSeats(t *testing.T) {
	store := repositories.NewMemoryStore()
	failSeat2 := true
	api := &fakeAPI{}
	api.createFn = func(req models.BookingRequest) (models.ConfirmedBooking, error) {
		if req.SeatNumber == 2 && failSeat2 {
			return models.ConfirmedBooking{}, errBoom
		}
		return models.ConfirmedBooking{ID: "b", SeatNumber: req.SeatNumber}, nil
	}
	rec := resumedRecord(3)
	storeRecord(t, store, rec)
	m := Materializer{Bookings: api, Store: store}

	_, err := m.Materialize(context.Background(), "u1", rec)
	require.True(t, domain.IsPartialMaterialization(err))

	stored, err := loadRecord(t, store)
	require.NoError(t, err)
	stored.Status = models.SessionResumed
	failSeat2 = false
	api.created = nil

	res, err := m.Materialize(context.Background(), "u1", stored)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, res.Status)
	require.Len(t, api.created, 1)
	assert.Equal(t, 2, api.created[0].SeatNumber)
	assert.True(t, res.Outcomes[0].Skipped)
	assert.Len(t, res.Confirmed, 3)
}

func TestMaterializeTotalFailureKeepsRecord(t *testing.T) {
	store := repositories.NewMemoryStore()
	api := &fakeAPI{createFn: func(models.BookingRequest) (models.ConfirmedBooking, error) {
		return models.ConfirmedBooking{}, errBoom
	}}
	rec := resumedRecord(2)
	rec.PaymentSessionID = "cs_9"
	storeRecord(t, store, rec)

	res, err := Materializer{Bookings: api, Store: store}.Materialize(context.Background(), "u1", rec)
	require.Error(t, err)
	assert.True(t, domain.IsTotalMaterializationFailure(err))
	assert.False(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "cs_9")
	assert.Equal(t, models.SessionFailed, res.Status)
	assert.Empty(t, res.Confirmed)
	assert.Len(t, res.Failed(), 2)

	stored, err := loadRecord(t, store)
	require.NoError(t, err)
	assert.Equal(t, models.SessionFailed, stored.Status)
}

func TestMaterializeIntegrityChecksBeforeAnyCall(t *testing.T) {
	api := &fakeAPI{}
	m := Materializer{Bookings: api, Store: repositories.NewMemoryStore()}

	rec := resumedRecord(2)
	rec.ScheduleRef = ""
	_, err := m.Materialize(context.Background(), "u1", rec)
	assert.True(t, domain.IsSessionIntegrity(err))

	rec = resumedRecord(2)
	rec.PassengerInfo[1].SeatID = "9"
	_, err = m.Materialize(context.Background(), "u1", rec)
	assert.True(t, domain.IsSessionIntegrity(err))

	rec = resumedRecord(2)
	rec.TrainRef = ""
	_, err = m.Materialize(context.Background(), "u1", rec)
	assert.True(t, domain.IsSessionIntegrity(err))

	rec = resumedRecord(2)
	rec.Status = models.SessionAwaitingExternalPayment
	_, err = m.Materialize(context.Background(), "u1", rec)
	assert.True(t, domain.IsConflict(err))

	assert.Empty(t, api.created)
}

func TestMaterializePairsBySeatID(t *testing.T) {
	api := &fakeAPI{}
	rec := resumedRecord(2)
	rec.PassengerInfo[0], rec.PassengerInfo[1] = rec.PassengerInfo[1], rec.PassengerInfo[0]
	m := Materializer{Bookings: api, Store: repositories.NewMemoryStore()}

	_, err := m.Materialize(context.Background(), "u1", rec)
	require.NoError(t, err)
	assert.Equal(t, "A", api.created[0].PassengerName)
	assert.Equal(t, 1, api.created[0].SeatNumber)
	assert.Equal(t, "B", api.created[1].PassengerName)
}

func TestMaterializeBoundedConcurrency(t *testing.T) {
	api := &fakeAPI{delay: 20 * time.Millisecond}
	rec := resumedRecord(6)
	m := Materializer{Bookings: api, Store: repositories.NewMemoryStore(), Concurrency: 2}

	res, err := m.Materialize(context.Background(), "u1", rec)
	require.NoError(t, err)
	assert.Len(t, res.Confirmed, 6)
	assert.LessOrEqual(t, api.maxInFlight, 2)
	for i, o := range res.Outcomes {
		assert.Equal(t, rec.SelectedSeats[i].ID, o.SeatID, "outcomes keep selection order")
	}
}

func TestMaterializeSequentialByDefault(t *testing.T) {
	api := &fakeAPI{delay: 5 * time.Millisecond}
	m := Materializer{Bookings: api, Store: repositories.NewMemoryStore()}

	_, err := m.Materialize(context.Background(), "u1", resumedRecord(3))
	require.NoError(t, err)
	assert.Equal(t, 1, api.maxInFlight)
}

func TestIdempotencyKeyStable(t *testing.T) {
	assert.Equal(t, IdempotencyKey("t", "1"), IdempotencyKey("t", "1"))
	assert.NotEqual(t, IdempotencyKey("t", "1"), IdempotencyKey("t", "2"))
	assert.NotEqual(t, IdempotencyKey("t1", "1"), IdempotencyKey("t", "11"))
	assert.Len(t, IdempotencyKey("t", "1"), 32)
}

func TestMaterializeReportsUnsavedOutcome(t *testing.T) {
	store := newExpiryStore()
	api := &fakeAPI{}
	rec := resumedRecord(2)
	storeRecord(t, store, rec)
	// write 1 is storeRecord, 2 is the materializing save, 3 the outcome
	store.failOn = 3

	res, err := Materializer{Bookings: api, Store: store}.Materialize(context.Background(), "u1", rec)
	require.Error(t, err)
	assert.True(t, domain.IsInternal(err))
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, models.SessionCompleted, res.Status)
	assert.Len(t, res.Confirmed, 2)

	left, err := loadRecord(t, store)
	require.NoError(t, err, "slot is not cleared when the outcome was not saved")
	assert.Equal(t, models.SessionMaterializing, left.Status)
}

func TestMaterializeNormalizesPassengerName(t *testing.T) {
	api := &fakeAPI{}
	rec := resumedRecord(1)
	rec.PassengerInfo[0].Name = "  Ayesha   Khan "

	_, err := Materializer{Bookings: api, Store: repositories.NewMemoryStore()}.Materialize(context.Background(), "u1", rec)
	require.NoError(t, err)
	require.Len(t, api.created, 1)
	assert.Equal(t, "Ayesha Khan", api.created[0].PassengerName)
}
