package booking

import (
	"servicehub/errs"
	"servicehub/models"
)

// next lists the statuses reachable through Transition. Completion has its own
// path and terminal statuses have none.
var next = map[models.BookingStatus][]models.BookingStatus{
	models.StatusRequested:  {models.StatusAccepted, models.StatusCancelled},
	models.StatusAccepted:   {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress: {models.StatusCancelled},
}

// CanTransition checks that uid may move b to status.
func CanTransition(b *models.Booking, to models.BookingStatus, uid string) error {
	switch to {
	case models.StatusAccepted, models.StatusInProgress:
		if b.WorkerID == "" || uid != b.WorkerID {
			return errs.Unauthorizedf("Unauthorized")
		}
	case models.StatusCancelled:
		if uid != b.CustomerID && (b.WorkerID == "" || uid != b.WorkerID) {
			return errs.Unauthorizedf("Unauthorized")
		}
	case models.StatusCompleted:
		return errs.NotValidf("bookings are completed through completion, not a status change")
	default:
		return errs.NotValidf("unknown booking status %q", to)
	}

	if b.Status.Terminal() {
		return errs.NotValidf("booking is already %s", b.Status)
	}
	for _, allowed := range next[b.Status] {
		if allowed == to {
			return nil
		}
	}
	return errs.NotValidf("cannot change booking from %s to %s", b.Status, to)
}

// CanComplete checks that uid owns b and that b is still open.
func CanComplete(b *models.Booking, uid string) error {
	if uid != b.CustomerID {
		return errs.Unauthorizedf("Unauthorized")
	}
	if b.Status.Terminal() {
		return errs.NotValidf("booking is already %s", b.Status)
	}
	return nil
}
