package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"
)

var (
	emailPattern      = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)
	nationalIDPattern = regexp.MustCompile(`^\d{13}$`)
)

// PassengerForm is the editable passenger set for one seat selection.
type PassengerForm struct {
	Key      repositories.Key         `json:"-"`
	Records  []models.PassengerRecord `json:"passengers"`
	Restored bool                     `json:"restored"`
}

// PassengerFormService menyimpan input penumpang per seat agar tidak hilang saat halaman di-refresh.
type PassengerFormService struct {
	Store     repositories.SessionStore
	RequestID string
}

// Initialize returns the saved form for key when it still fits seatIDs,
// otherwise a fresh form prefilled from defaults. A stale saved form is dropped.
func (s PassengerFormService) Initialize(ctx context.Context, key repositories.Key, passengerCount int, seatIDs []string, defaults models.PassengerDefaults) (PassengerForm, error) {
	if passengerCount <= 0 {
		return PassengerForm{}, domain.ValidationError{Field: "passengers", Msg: "at least one passenger is required"}
	}
	if len(seatIDs) != passengerCount {
		return PassengerForm{}, domain.ValidationError{
			Field: "seats",
			Msg:   fmt.Sprintf("%d seat(s) selected for %d passenger(s)", len(seatIDs), passengerCount),
			Err:   domain.ErrSeatCountMismatch,
		}
	}

	saved, err := s.Restore(ctx, key)
	if err != nil {
		return PassengerForm{}, err
	}
	if saved != nil {
		if ordered, ok := matchSeats(saved, seatIDs); ok {
			utils.LogEvent(s.RequestID, "passenger_form", "restore", "key="+key.Name)
			return PassengerForm{Key: key, Records: ordered, Restored: true}, nil
		}
		utils.LogEvent(s.RequestID, "passenger_form", "discard_stale", fmt.Sprintf("key=%s saved=%d want=%d", key.Name, len(saved), passengerCount))
		if err := s.Store.Remove(ctx, key); err != nil {
			utils.LogWarn(s.RequestID, "passenger_form", "discard_stale", err)
		}
	}

	records := make([]models.PassengerRecord, 0, passengerCount)
	for _, id := range seatIDs {
		records = append(records, models.PassengerRecord{
			SeatID: id,
			Name:   strings.TrimSpace(defaults.Name),
			Phone:  strings.TrimSpace(defaults.Phone),
			Email:  strings.TrimSpace(defaults.Email),
		})
	}
	form := PassengerForm{Key: key, Records: records}
	if err := s.Persist(ctx, key, records); err != nil {
		return PassengerForm{}, err
	}
	return form, nil
}

// matchSeats pairs saved records with seatIDs by seat id. It fails when the
// counts differ or any seat has no record.
func matchSeats(saved []models.PassengerRecord, seatIDs []string) ([]models.PassengerRecord, bool) {
	if len(saved) != len(seatIDs) {
		return nil, false
	}
	bySeat := make(map[string]models.PassengerRecord, len(saved))
	for _, r := range saved {
		bySeat[r.SeatID] = r
	}
	out := make([]models.PassengerRecord, 0, len(seatIDs))
	for _, id := range seatIDs {
		r, ok := bySeat[id]
		if !ok {
			return nil, false
		}
		out = append(out, r)
	}
	return out, true
}

// Update sets one field on the record for seatID and re-persists the whole set.
func (s PassengerFormService) Update(ctx context.Context, form PassengerForm, seatID, field, value string) (PassengerForm, error) {
	for i := range form.Records {
		if form.Records[i].SeatID == seatID {
			return s.UpdateAt(ctx, form, i, field, value)
		}
	}
	return form, domain.NotFoundError{Resource: "passenger for seat " + seatID}
}

// UpdateAt is Update addressed by position in the form.
func (s PassengerFormService) UpdateAt(ctx context.Context, form PassengerForm, index int, field, value string) (PassengerForm, error) {
	if index < 0 || index >= len(form.Records) {
		return form, domain.ValidationError{Field: "index", Msg: fmt.Sprintf("passenger %d does not exist", index+1)}
	}
	records := append([]models.PassengerRecord(nil), form.Records...)
	if err := setField(&records[index], field, value); err != nil {
		return form, err
	}
	if err := s.Persist(ctx, form.Key, records); err != nil {
		return form, err
	}
	form.Records = records
	return form, nil
}

func setField(r *models.PassengerRecord, field, value string) error {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "name":
		r.Name = value
	case "gender":
		r.Gender = strings.ToLower(strings.TrimSpace(value))
	case "age":
		v := strings.TrimSpace(value)
		if v == "" {
			r.Age = 0
			return nil
		}
		age, err := strconv.Atoi(v)
		if err != nil {
			return domain.ValidationError{Field: "age", Msg: "must be a whole number", Err: err}
		}
		r.Age = age
	case "nationalid", "national_id", "cnic":
		r.NationalID = value
	case "phone":
		r.Phone = value
	case "email":
		r.Email = value
	default:
		return domain.ValidationError{Field: field, Msg: "unknown passenger field"}
	}
	return nil
}

// Restore returns the saved records for key, or nil when there are none. An
// undecodable entry is removed and treated as missing.
func (s PassengerFormService) Restore(ctx context.Context, key repositories.Key) ([]models.PassengerRecord, error) {
	raw, err := s.Store.Restore(ctx, key)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore passenger form: %w", err)
	}
	var records []models.PassengerRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		utils.LogEvent(s.RequestID, "passenger_form", "discard_corrupt", fmt.Sprintf("key=%s bytes=%d", key.Name, len(raw)))
		if rmErr := s.Store.Remove(ctx, key); rmErr != nil {
			utils.LogWarn(s.RequestID, "passenger_form", "discard_corrupt", rmErr)
		}
		return nil, nil
	}
	return records, nil
}

func (s PassengerFormService) Persist(ctx context.Context, key repositories.Key, records []models.PassengerRecord) error {
	if err := repositories.PersistJSON(ctx, s.Store, key, records); err != nil {
		return fmt.Errorf("persist passenger form: %w", err)
	}
	return nil
}

// ValidatePassengers checks every record and reports all failing fields.
func (s PassengerFormService) ValidatePassengers(records []models.PassengerRecord) error {
	return ValidatePassengers(records)
}

// ValidatePassengers is all-or-nothing: nil only when every record passes.
// Failures are joined so the caller can show them all at once.
func ValidatePassengers(records []models.PassengerRecord) error {
	if len(records) == 0 {
		return domain.ValidationError{Field: "passengers", Msg: "at least one passenger is required"}
	}
	var errs []error
	seen := map[string]bool{}
	for i, r := range records {
		prefix := fmt.Sprintf("passengers[%d].", i)
		fail := func(field, msg string) {
			errs = append(errs, domain.ValidationError{Field: prefix + field, Msg: msg})
		}

		seat := strings.TrimSpace(r.SeatID)
		switch {
		case seat == "":
			fail("seatId", "is required")
		case seen[seat]:
			fail("seatId", "is assigned to more than one passenger")
		default:
			seen[seat] = true
		}
		if strings.TrimSpace(r.Name) == "" {
			fail("name", "is required")
		}
		switch r.Gender {
		case models.GenderMale, models.GenderFemale, models.GenderOther:
		case "":
			fail("gender", "is required")
		default:
			fail("gender", "must be male, female or other")
		}
		if r.Age < 1 || r.Age > 120 {
			fail("age", "must be between 1 and 120")
		}
		nid := strings.NewReplacer("-", "", " ", "").Replace(r.NationalID)
		if nid == "" {
			fail("nationalId", "is required")
		} else if !nationalIDPattern.MatchString(nid) {
			fail("nationalId", "must be a valid 13-digit number")
		}
		if strings.TrimSpace(r.Phone) == "" {
			fail("phone", "is required")
		}
		email := strings.TrimSpace(r.Email)
		if email == "" {
			fail("email", "is required")
		} else if !emailPattern.MatchString(email) {
			fail("email", "must be a valid email address")
		}
	}
	return errors.Join(errs...)
}
