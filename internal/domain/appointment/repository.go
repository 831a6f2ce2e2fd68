package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/slot-scheduler/internal/models"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	// -------- Provider --------
	GetProvider(
		ctx context.Context,
		id uint,
	) (*models.Provider, error)

	// -------- Slot (read) --------
	GetSlot(
		ctx context.Context,
		id uint,
	) (*models.Slot, error)

	ListFreeSlots(
		ctx context.Context,
		filter SlotFilter,
	) ([]FreeSlot, error)

	ListProviderSlots(
		ctx context.Context,
		providerID uint,
	) ([]models.Slot, error)

	// -------- Slot (create) --------
	HasSlotOverlap(
		ctx context.Context,
		providerID uint,
		start time.Time,
		end time.Time,
	) (bool, error)

	CreateSlots(
		ctx context.Context,
		slots []models.Slot,
	) error

	// -------- Slot (conditional writes) --------
	// false = nenhuma linha afetada (status já não era o esperado).
	MarkSlotBooked(
		ctx context.Context,
		slotID uint,
	) (bool, error)

	ReleaseSlot(
		ctx context.Context,
		slotID uint,
	) (bool, error)

	// -------- Quota counter (conditional writes) --------
	// ConsumeQuota soma 1 ao contador do período só se used < limit.
	// false = cota esgotada.
	ConsumeQuota(
		ctx context.Context,
		subscriberID string,
		period string,
		limit int,
	) (bool, error)

	// RefundQuota devolve 1 ao contador; false = já estava zerado.
	RefundQuota(
		ctx context.Context,
		subscriberID string,
		period string,
	) (bool, error)

	// -------- Appointment --------
	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	GetAppointmentForSubscriber(
		ctx context.Context,
		appointmentID uint,
		subscriberID string,
	) (*models.Appointment, error)

	DeleteAppointment(
		ctx context.Context,
		appointmentID uint,
	) (bool, error)

	CountAppointmentsInPeriod(
		ctx context.Context,
		subscriberID string,
		start time.Time,
		end time.Time,
	) (int64, error)

	ReplaceMeetingLink(
		ctx context.Context,
		appointmentID uint,
		from string,
		to string,
	) (bool, error)

	// -------- Unit of work --------
	Transaction(
		ctx context.Context,
		fn func(repo Repository) error,
	) error
}

// SubscriptionDirectory expõe o plano de cada subscriber.
type SubscriptionDirectory interface {
	GetPlanTier(ctx context.Context, subscriberID string) (PlanTier, error)
}

// CalendarSync é o serviço externo de calendário. Sempre best-effort.
type CalendarSync interface {
	CreateEvent(ctx context.Context, ev CalendarEvent) (string, error)
	CancelEvent(ctx context.Context, appointmentID uint) error
}

// SubscriberLocker serializa reservas do mesmo subscriber.
type SubscriberLocker interface {
	Lock(ctx context.Context, subscriberID string) (unlock func(), err error)
}
