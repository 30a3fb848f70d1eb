package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"busbooking/internal/utils"
)

// ErrNotFound is returned by Restore when the slot is empty or expired.
var ErrNotFound = errors.New("session slot not found")

// SessionStore is durable key/value storage scoped by owner. Values are
// opaque bytes; callers encode them as JSON. Persist applies the backend's
// TTL; PersistDurable keeps the slot until it is removed and clears any TTL
// left by an earlier Persist.
type SessionStore interface {
	Persist(ctx context.Context, key Key, value []byte) error
	PersistDurable(ctx context.Context, key Key, value []byte) error
	Restore(ctx context.Context, key Key) ([]byte, error)
	Remove(ctx context.Context, key Key) error
}

// Key addresses one slot. Build it with PassengerInfoKey or PendingBookingKey.
type Key struct {
	Owner string
	Name  string
}

func (k Key) String() string {
	return k.Owner + ":" + k.Name
}

func (k Key) validate() error {
	if strings.TrimSpace(k.Owner) == "" {
		return errors.New("session key: owner is required")
	}
	if strings.TrimSpace(k.Name) == "" {
		return errors.New("session key: name is required")
	}
	return nil
}

// PendingBookingName is the single hand-off slot per owner.
const PendingBookingName = "pendingBooking"

func PendingBookingKey(owner string) Key {
	return Key{Owner: strings.TrimSpace(owner), Name: PendingBookingName}
}

// PassengerInfoKey identifies the passenger form for one bus, seat set and
// date. Seat ids are sorted so the same set always maps to the same slot.
func PassengerInfoKey(owner, busID string, seatIDs []string, date string) Key {
	name := fmt.Sprintf("passengerInfo_%s_%s_%s",
		strings.TrimSpace(busID),
		strings.Join(utils.SortedSeatIDs(seatIDs), "-"),
		strings.TrimSpace(date),
	)
	return Key{Owner: strings.TrimSpace(owner), Name: name}
}

// PersistJSON encodes v and stores it under key.
func PersistJSON(ctx context.Context, store SessionStore, key Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key.Name, err)
	}
	return store.Persist(ctx, key, raw)
}

// PersistDurableJSON is PersistJSON without expiry.
func PersistDurableJSON(ctx context.Context, store SessionStore, key Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key.Name, err)
	}
	return store.PersistDurable(ctx, key, raw)
}

// RestoreJSON loads key into v. ErrNotFound is passed through unwrapped.
func RestoreJSON(ctx context.Context, store SessionStore, key Key, v any) error {
	raw, err := store.Restore(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key.Name, err)
	}
	return nil
}
