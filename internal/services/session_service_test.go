package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"
)

func newSessionService(api *fakeAPI, store repositories.SessionStore) SessionService {
	n := 0
	return SessionService{
		Store:      store,
		Payments:   api,
		SuccessURL: "http://localhost:5173/payment-success",
		CancelURL:  "http://localhost:5173/payment-cancel",
		Now:        func() time.Time { return time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC) },
		NewToken: func() string {
			n++
			return "tok-" + string(rune('0'+n))
		},
	}
}

func sessionInput(t *testing.T) SessionInput {
	t.Helper()
	layout := GenerateLayout(10, nil)
	pricing, err := utils.ComputePricing(2, 2500, "FIRST20")
	require.NoError(t, err)
	return SessionInput{
		Schedule:      &models.ScheduleSnapshot{MongoID: "sch-1", TrainID: "train-1", Date: "2030-01-15"},
		Route:         models.Route{From: "Lahore", To: "Karachi", Date: "2030-01-15"},
		SelectedSeats: []models.Seat{layout[0], layout[1]},
		PassengerInfo: []models.PassengerRecord{validPassenger("1", "A"), validPassenger("2", "B")},
		Pricing:       pricing,
	}
}

func TestNormalizeScheduleRefOrder(t *testing.T) {
	snap := &models.ScheduleSnapshot{MongoID: "m", ID: "i", ScheduleID: "s"}
	assert.Equal(t, "x", NormalizeScheduleRef(" x ", snap))
	assert.Equal(t, "m", NormalizeScheduleRef("", snap))
	assert.Equal(t, "i", NormalizeScheduleRef("", &models.ScheduleSnapshot{ID: "i", ScheduleID: "s"}))
	assert.Equal(t, "s", NormalizeScheduleRef("", &models.ScheduleSnapshot{ScheduleID: "s"}))
	assert.Equal(t, "", NormalizeScheduleRef("", nil))
}

func TestCreateSessionStoresTopLevelScheduleRef(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := newSessionService(&fakeAPI{}, store)

	rec, err := svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)
	assert.Equal(t, "sch-1", rec.ScheduleRef)
	assert.Equal(t, "train-1", rec.TrainRef)
	assert.Equal(t, models.SessionPricedAndReady, rec.Status)

	raw, err := store.Restore(ctx, repositories.PendingBookingKey("u1"))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "sch-1", decoded["scheduleRef"])
}

func TestScheduleRefSurvivesWithoutNestedSchedule(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := newSessionService(&fakeAPI{}, store)

	rec, err := svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)
	_, err = svc.RedirectToPayment(ctx, "u1", rec)
	require.NoError(t, err)

	// drop the nested schedule object from the stored record
	key := repositories.PendingBookingKey("u1")
	raw, _ := store.Restore(ctx, key)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	delete(m, "schedule")
	raw, _ = json.Marshal(m)
	require.NoError(t, store.Persist(ctx, key, raw))

	resumed, err := svc.ResumeSession(ctx, "u1", rec.Token)
	require.NoError(t, err)
	assert.Equal(t, "sch-1", resumed.ScheduleRef)
	assert.Nil(t, resumed.Schedule)
	assert.Equal(t, models.SessionResumed, resumed.Status)
}

func TestCreateSessionWithoutScheduleID(t *testing.T) {
	in := sessionInput(t)
	in.Schedule = &models.ScheduleSnapshot{TrainID: "train-1"}
	_, err := newSessionService(&fakeAPI{}, repositories.NewMemoryStore()).CreateSession(context.Background(), "u1", in)
	assert.True(t, domain.IsSessionIntegrity(err))
}

func TestCreateSessionValidatesInput(t *testing.T) {
	svc := newSessionService(&fakeAPI{}, repositories.NewMemoryStore())

	in := sessionInput(t)
	in.PassengerInfo = in.PassengerInfo[:1]
	_, err := svc.CreateSession(context.Background(), "u1", in)
	assert.ErrorIs(t, err, domain.ErrSeatCountMismatch)

	in = sessionInput(t)
	in.PassengerInfo[1].SeatID = "7"
	_, err = svc.CreateSession(context.Background(), "u1", in)
	assert.ErrorIs(t, err, domain.ErrSeatCountMismatch)

	in = sessionInput(t)
	in.Pricing.SeatCount = 3
	_, err = svc.CreateSession(context.Background(), "u1", in)
	assert.True(t, domain.IsValidation(err))

	_, err = svc.CreateSession(context.Background(), "", sessionInput(t))
	assert.True(t, domain.IsValidation(err))
}

func TestRedirectToPayment(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	svc := newSessionService(api, repositories.NewMemoryStore())

	rec, err := svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)
	url, err := svc.RedirectToPayment(ctx, "u1", rec)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs", url)

	require.Len(t, api.summaries, 1)
	sum := api.summaries[0]
	assert.Equal(t, "sch-1", sum.ScheduleRef)
	assert.Equal(t, []string{"1A", "1B"}, sum.SeatLabels)
	assert.Equal(t, int64(4400), sum.Pricing.Total)
	assert.True(t, strings.HasPrefix(sum.SuccessURL, "http://localhost:5173/payment-success?token="+rec.Token))
	assert.True(t, strings.HasSuffix(sum.SuccessURL, "&session_id={CHECKOUT_SESSION_ID}"))

	cur, err := svc.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionAwaitingExternalPayment, cur.Status)
	assert.Equal(t, "cs_1", cur.PaymentSessionID)
}

func TestRedirectToPaymentFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{paymentErr: errBoom}
	svc := newSessionService(api, repositories.NewMemoryStore())

	rec, err := svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)
	_, err = svc.RedirectToPayment(ctx, "u1", rec)
	assert.ErrorIs(t, err, errBoom)

	cur, err := svc.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionPricedAndReady, cur.Status)
	assert.Equal(t, rec.Token, cur.Token)

	api.paymentErr = nil
	_, err = svc.RedirectToPayment(ctx, "u1", cur)
	assert.NoError(t, err)
}

func TestRedirectToPaymentReplacedSession(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService(&fakeAPI{}, repositories.NewMemoryStore())

	first, err := svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)

	_, err = svc.RedirectToPayment(ctx, "u1", first)
	assert.True(t, domain.IsSessionIntegrity(err))
}

func TestResumeSessionFailures(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := newSessionService(&fakeAPI{}, store)

	_, err := svc.ResumeSession(ctx, "u1", "tok-1")
	assert.True(t, domain.IsSessionIntegrity(err), "missing slot")

	require.NoError(t, store.Persist(ctx, repositories.PendingBookingKey("u1"), []byte("garbage")))
	_, err = svc.ResumeSession(ctx, "u1", "tok-1")
	assert.True(t, domain.IsSessionIntegrity(err), "malformed slot")

	rec, err := svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)
	_, err = svc.RedirectToPayment(ctx, "u1", rec)
	require.NoError(t, err)

	_, err = svc.ResumeSession(ctx, "u1", "other-token")
	assert.True(t, domain.IsSessionIntegrity(err), "token mismatch")

	cur, err := svc.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionAwaitingExternalPayment, cur.Status, "failed resume changes nothing")
}

func TestResumeSessionUnrecoverableScheduleRef(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := newSessionService(&fakeAPI{}, store)

	rec := models.BookingSessionRecord{Token: "t", Status: models.SessionAwaitingExternalPayment}
	require.NoError(t, repositories.PersistJSON(ctx, store, repositories.PendingBookingKey("u1"), rec))

	_, err := svc.ResumeSession(ctx, "u1", "t")
	assert.True(t, domain.IsSessionIntegrity(err))
}

func TestResumeSessionBeforePayment(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService(&fakeAPI{}, repositories.NewMemoryStore())
	rec, err := svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)

	_, err = svc.ResumeSession(ctx, "u1", rec.Token)
	assert.True(t, domain.IsConflict(err))
}

func TestAbandonRules(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService(&fakeAPI{}, repositories.NewMemoryStore())

	assert.NoError(t, svc.Abandon(ctx, "u1"), "nothing stored")

	_, err := svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)
	require.NoError(t, svc.Abandon(ctx, "u1"))
	_, err = svc.Current(ctx, "u1")
	assert.True(t, domain.IsNotFound(err))

	rec, err := svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)
	_, err = svc.RedirectToPayment(ctx, "u1", rec)
	require.NoError(t, err)
	assert.True(t, domain.IsConflict(svc.Abandon(ctx, "u1")))
	_, err = svc.Current(ctx, "u1")
	assert.NoError(t, err, "record kept after refused abandon")
}

func TestCreateSessionDoesNotOverwritePaidSession(t *testing.T) {
	ctx := context.Background()
	svc := newSessionService(&fakeAPI{}, repositories.NewMemoryStore())

	rec, err := svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)
	_, err = svc.RedirectToPayment(ctx, "u1", rec)
	require.NoError(t, err)

	// user cancelled at the provider and starts over
	again, err := svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)
	_, err = svc.RedirectToPayment(ctx, "u1", again)
	require.NoError(t, err)
	_, err = svc.ResumeSession(ctx, "u1", again.Token)
	require.NoError(t, err)

	_, err = svc.CreateSession(ctx, "u1", sessionInput(t))
	assert.True(t, domain.IsConflict(err))
}

func TestSessionSlotKeptWithoutExpiryOncePaymentStarts(t *testing.T) {
	ctx := context.Background()
	store := newExpiryStore()
	api := &fakeAPI{createFn: func(models.BookingRequest) (models.ConfirmedBooking, error) {
		return models.ConfirmedBooking{}, errBoom
	}}
	svc := newSessionService(api, store)

	rec, err := svc.CreateSession(ctx, "u1", sessionInput(t))
	require.NoError(t, err)
	assert.False(t, store.isDurable(repositories.PendingBookingName), "unpaid session may expire")

	_, err = svc.RedirectToPayment(ctx, "u1", rec)
	require.NoError(t, err)
	assert.True(t, store.isDurable(repositories.PendingBookingName))

	resumed, err := svc.ResumeSession(ctx, "u1", rec.Token)
	require.NoError(t, err)
	res, err := Materializer{Bookings: api, Store: store}.Materialize(ctx, "u1", resumed)
	require.True(t, domain.IsTotalMaterializationFailure(err))
	assert.Equal(t, models.SessionFailed, res.Status)
	assert.True(t, store.isDurable(repositories.PendingBookingName), "failed record must not expire")
}

func TestCreateSessionRequiresTrainRef(t *testing.T) {
	store := repositories.NewMemoryStore()
	in := sessionInput(t)
	in.Schedule.TrainID = ""
	_, err := newSessionService(&fakeAPI{}, store).CreateSession(context.Background(), "u1", in)
	assert.True(t, domain.IsSessionIntegrity(err))

	_, err = store.Restore(context.Background(), repositories.PendingBookingKey("u1"))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestSuccessURLDropsFragment(t *testing.T) {
	svc := newSessionService(&fakeAPI{}, repositories.NewMemoryStore())
	svc.SuccessURL = "http://localhost:5173/payment-success?ref=app#done"
	assert.Equal(t,
		"http://localhost:5173/payment-success?ref=app&token=tok-1&session_id={CHECKOUT_SESSION_ID}",
		svc.successURL("tok-1"))
}
