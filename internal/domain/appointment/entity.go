package appointment

import (
	"time"

	"github.com/BruksfildServices01/slot-scheduler/internal/httperr"
	"github.com/BruksfildServices01/slot-scheduler/internal/models"
)

type SlotFilter struct {
	ProviderID *uint
	From       time.Time
}

type FreeSlot struct {
	ID           uint      `json:"id"`
	ProviderID   uint      `json:"provider_id"`
	ProviderName string    `json:"provider_name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
}

type CalendarEvent struct {
	AppointmentID   uint
	SubscriberID    string
	ProviderID      uint
	Start           time.Time
	End             time.Time
	PlaceholderLink string
}

// ===============================
// Domain Actions
// ===============================

// BuildSlots fatia [start, end) em janelas consecutivas de duration.
// A última janela precisa caber inteira antes de end.
func BuildSlots(
	providerID uint,
	start time.Time,
	end time.Time,
	duration time.Duration,
	max int,
) ([]models.Slot, error) {

	if duration <= 0 || !end.After(start) {
		return nil, httperr.ErrBusiness(httperr.CodeInvalidSlotRange)
	}

	var slots []models.Slot
	for cur := start; !cur.Add(duration).After(end); cur = cur.Add(duration) {
		if max > 0 && len(slots) >= max {
			return nil, httperr.ErrBusiness(httperr.CodeTooManySlots)
		}
		slots = append(slots, models.Slot{
			ProviderID: providerID,
			StartTime:  cur,
			EndTime:    cur.Add(duration),
			Status:     string(InitialStatus()),
		})
	}

	if len(slots) == 0 {
		return nil, httperr.ErrBusiness(httperr.CodeInvalidSlotRange)
	}

	return slots, nil
}

// NewAppointment liga o subscriber ao slot recém reservado.
func NewAppointment(slot *models.Slot, subscriberID string, meetingLink string) *models.Appointment {
	return &models.Appointment{
		SlotID:       slot.ID,
		SubscriberID: subscriberID,
		ProviderID:   slot.ProviderID,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
		MeetingLink:  meetingLink,
	}
}
