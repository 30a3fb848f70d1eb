package models

// Gender values accepted on the passenger form.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// PassengerRecord holds the form input for the passenger sitting in SeatID.
type PassengerRecord struct {
	SeatID     string `json:"seatId"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	Age        int    `json:"age"`
	NationalID string `json:"nationalId"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// PassengerDefaults prefill a fresh form from the logged-in user's profile.
type PassengerDefaults struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}
