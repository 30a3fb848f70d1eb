package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/repositories"
)

var testDefaults = models.PassengerDefaults{Name: "Ayesha", Phone: "0300", Email: "ayesha@example.com"}

func TestPassengerFormInitializeWithDefaults(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := PassengerFormService{Store: store}
	key := repositories.PassengerInfoKey("u1", "train-1", []string{"3", "1"}, "2030-01-15")

	form, err := svc.Initialize(ctx, key, 2, []string{"3", "1"}, testDefaults)
	require.NoError(t, err)
	assert.False(t, form.Restored)
	require.Len(t, form.Records, 2)
	for i, id := range []string{"3", "1"} {
		r := form.Records[i]
		assert.Equal(t, id, r.SeatID)
		assert.Equal(t, "Ayesha", r.Name)
		assert.Equal(t, "0300", r.Phone)
		assert.Equal(t, "ayesha@example.com", r.Email)
		assert.Empty(t, r.Gender)
		assert.Zero(t, r.Age)
	}

	saved, err := svc.Restore(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, form.Records, saved)
}

func TestPassengerFormRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := PassengerFormService{Store: repositories.NewMemoryStore()}
	key := repositories.PassengerInfoKey("u1", "train-1", []string{"1", "2"}, "2030-01-15")
	records := []models.PassengerRecord{validPassenger("1", "A"), validPassenger("2", "B")}

	require.NoError(t, svc.Persist(ctx, key, records))
	got, err := svc.Restore(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	other := repositories.PassengerInfoKey("u1", "train-1", []string{"1", "3"}, "2030-01-15")
	got, err = svc.Restore(ctx, other)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPassengerFormRestoresMatchingSave(t *testing.T) {
	ctx := context.Background()
	svc := PassengerFormService{Store: repositories.NewMemoryStore()}
	key := repositories.PassengerInfoKey("u1", "train-1", []string{"1", "2"}, "2030-01-15")
	require.NoError(t, svc.Persist(ctx, key, []models.PassengerRecord{validPassenger("2", "B"), validPassenger("1", "A")}))

	form, err := svc.Initialize(ctx, key, 2, []string{"1", "2"}, testDefaults)
	require.NoError(t, err)
	assert.True(t, form.Restored)
	assert.Equal(t, "A", form.Records[0].Name, "records follow seat order")
	assert.Equal(t, "B", form.Records[1].Name)
}

func TestPassengerFormDiscardsCountMismatch(t *testing.T) {
	ctx := context.Background()
	svc := PassengerFormService{Store: repositories.NewMemoryStore()}
	key := repositories.PassengerInfoKey("u1", "train-1", []string{"1", "2"}, "2030-01-15")
	require.NoError(t, svc.Persist(ctx, key, []models.PassengerRecord{validPassenger("1", "A")}))

	form, err := svc.Initialize(ctx, key, 2, []string{"1", "2"}, testDefaults)
	require.NoError(t, err)
	assert.False(t, form.Restored)
	assert.Equal(t, "Ayesha", form.Records[0].Name)
	assert.Len(t, form.Records, 2)
}

func TestPassengerFormDiscardsCorruptSave(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := PassengerFormService{Store: store}
	key := repositories.PassengerInfoKey("u1", "train-1", []string{"1"}, "2030-01-15")
	require.NoError(t, store.Persist(ctx, key, []byte("{not json")))

	got, err := svc.Restore(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
	_, err = store.Restore(ctx, key)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPassengerFormInitializeRejectsSeatMismatch(t *testing.T) {
	svc := PassengerFormService{Store: repositories.NewMemoryStore()}
	key := repositories.PassengerInfoKey("u1", "train-1", []string{"1"}, "2030-01-15")
	_, err := svc.Initialize(context.Background(), key, 2, []string{"1"}, testDefaults)
	assert.ErrorIs(t, err, domain.ErrSeatCountMismatch)
}

func TestPassengerFormUpdatePersists(t *testing.T) {
	ctx := context.Background()
	svc := PassengerFormService{Store: repositories.NewMemoryStore()}
	key := repositories.PassengerInfoKey("u1", "train-1", []string{"1", "2"}, "2030-01-15")
	form, err := svc.Initialize(ctx, key, 2, []string{"1", "2"}, testDefaults)
	require.NoError(t, err)

	form, err = svc.Update(ctx, form, "2", "age", "41")
	require.NoError(t, err)
	form, err = svc.UpdateAt(ctx, form, 0, "gender", "Male")
	require.NoError(t, err)
	assert.Equal(t, 41, form.Records[1].Age)
	assert.Equal(t, models.GenderMale, form.Records[0].Gender)

	saved, err := svc.Restore(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, form.Records, saved)

	_, err = svc.Update(ctx, form, "2", "age", "forty")
	assert.True(t, domain.IsValidation(err))
	_, err = svc.Update(ctx, form, "9", "name", "x")
	assert.True(t, domain.IsNotFound(err))
	_, err = svc.UpdateAt(ctx, form, 5, "name", "x")
	assert.True(t, domain.IsValidation(err))
	_, err = svc.Update(ctx, form, "1", "shoe_size", "42")
	assert.True(t, domain.IsValidation(err))
}

func TestValidatePassengersAccepts(t *testing.T) {
	err := ValidatePassengers([]models.PassengerRecord{validPassenger("1", "A"), validPassenger("2", "B")})
	assert.NoError(t, err)
}

func TestValidatePassengersReportsEveryFailure(t *testing.T) {
	bad := models.PassengerRecord{SeatID: "2", Gender: "unknown", Age: 0, NationalID: "123", Email: "nope"}
	err := ValidatePassengers([]models.PassengerRecord{validPassenger("1", "A"), bad})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	msg := err.Error()
	for _, field := range []string{
		"passengers[1].name", "passengers[1].gender", "passengers[1].age",
		"passengers[1].nationalId", "passengers[1].phone", "passengers[1].email",
	} {
		assert.True(t, strings.Contains(msg, field), "missing %s in %q", field, msg)
	}
	assert.False(t, strings.Contains(msg, "passengers[0]"))
}

func TestValidatePassengersRules(t *testing.T) {
	cases := map[string]func(*models.PassengerRecord){
		"age too high":      func(p *models.PassengerRecord) { p.Age = 121 },
		"short national id": func(p *models.PassengerRecord) { p.NationalID = "35202-123456-1" },
		"letters in id":     func(p *models.PassengerRecord) { p.NationalID = "35202123456AB" },
		"email no tld":      func(p *models.PassengerRecord) { p.Email = "a@b" },
		"blank name":        func(p *models.PassengerRecord) { p.Name = "   " },
	}
	for name, mutate := range cases {
		p := validPassenger("1", "A")
		mutate(&p)
		err := ValidatePassengers([]models.PassengerRecord{p})
		var verr domain.ValidationError
		assert.True(t, errors.As(err, &verr), name)
	}

	dup := ValidatePassengers([]models.PassengerRecord{validPassenger("1", "A"), validPassenger("1", "B")})
	assert.ErrorContains(t, dup, "seatId")

	assert.Error(t, ValidatePassengers(nil))
}
