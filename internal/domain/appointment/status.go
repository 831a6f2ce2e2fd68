package appointment

import "github.com/BruksfildServices01/slot-scheduler/internal/httperr"

// ===============================
// Slot Status
// ===============================

type SlotStatus string

const (
	SlotFree   SlotStatus = "free"
	SlotBooked SlotStatus = "booked"
)

// ===============================
// Validations
// ===============================

// CanBook: só slot livre pode ser reservado.
func CanBook(current SlotStatus) error {
	if current != SlotFree {
		return httperr.ErrBusiness(httperr.CodeSlotUnavailable)
	}
	return nil
}

func InitialStatus() SlotStatus {
	return SlotFree
}
