package services

import (
	"context"
	"fmt"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/repositories"
)

// sessionTransitions lists the allowed next states. Resumed is re-entered
// from partially_failed and failed only by an explicit user retry, and from
// materializing when a previous attempt stopped midway.
var sessionTransitions = map[models.SessionStatus][]models.SessionStatus{
	models.SessionBuilding:                {models.SessionPricedAndReady},
	models.SessionPricedAndReady:          {models.SessionAwaitingExternalPayment},
	models.SessionAwaitingExternalPayment: {models.SessionAwaitingExternalPayment, models.SessionResumed},
	models.SessionResumed:                 {models.SessionResumed, models.SessionMaterializing},
	models.SessionMaterializing:           {models.SessionCompleted, models.SessionPartiallyFailed, models.SessionFailed, models.SessionResumed},
	models.SessionPartiallyFailed:         {models.SessionResumed},
	models.SessionFailed:                  {models.SessionResumed},
}

func canTransition(from, to models.SessionStatus) bool {
	for _, next := range sessionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// advance moves record to status or reports a conflict.
func advance(record *models.BookingSessionRecord, to models.SessionStatus) error {
	if !canTransition(record.Status, to) {
		return domain.ConflictError{
			Resource: "booking session",
			Msg:      fmt.Sprintf("cannot move from %s to %s", record.Status, to),
		}
	}
	record.Status = to
	return nil
}

// persistSession writes the owner's pendingBooking slot. Once payment has
// started the slot is written without expiry.
func persistSession(ctx context.Context, store repositories.SessionStore, owner string, record *models.BookingSessionRecord) error {
	key := repositories.PendingBookingKey(owner)
	var err error
	if record.Status.PaymentStarted() {
		err = repositories.PersistDurableJSON(ctx, store, key, record)
	} else {
		err = repositories.PersistJSON(ctx, store, key, record)
	}
	if err != nil {
		return fmt.Errorf("persist booking session: %w", err)
	}
	return nil
}
