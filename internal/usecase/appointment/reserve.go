package appointment

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/slot-scheduler/internal/audit"
	"github.com/BruksfildServices01/slot-scheduler/internal/calendar"
	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/slot-scheduler/internal/httperr"
	"github.com/BruksfildServices01/slot-scheduler/internal/models"
)

var errSlotNotReverted = errors.New("compensating slot write affected no rows")

// ======================================================
// OPTIONS
// ======================================================

type ReserveOptions struct {
	// true: reserva + insert numa transação. false: saga com compensação.
	UseTransaction bool
	MeetingLink    func() string
	// Opcional.
	Locker domain.SubscriberLocker
}

// ======================================================
// USE CASE
// ======================================================

type ReserveSlot struct {
	repo     domain.Repository
	quota    *CheckQuota
	audit    *audit.Dispatcher
	calendar *calendar.Dispatcher
	log      *zap.Logger
	opts     ReserveOptions
}

func NewReserveSlot(
	repo domain.Repository,
	quota *CheckQuota,
	audit *audit.Dispatcher,
	calendar *calendar.Dispatcher,
	log *zap.Logger,
	opts ReserveOptions,
) *ReserveSlot {
	return &ReserveSlot{
		repo:     repo,
		quota:    quota,
		audit:    audit,
		calendar: calendar,
		log:      log.Named("reserve"),
		opts:     opts,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *ReserveSlot) Execute(
	ctx context.Context,
	subscriberID string,
	slotID uint,
) (*models.Appointment, error) {

	// --------------------------------------------------
	// 1️⃣ Slot
	// --------------------------------------------------
	slot, err := uc.repo.GetSlot(ctx, slotID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness(httperr.CodeSlotUnavailable)
	}
	if err != nil {
		return nil, err
	}
	if err := domain.CanBook(domain.SlotStatus(slot.Status)); err != nil {
		return nil, err
	}

	// O lock só reduz disputa; a cota é garantida pelo contador no commit.
	if uc.opts.Locker != nil {
		unlock, err := uc.opts.Locker.Lock(ctx, subscriberID)
		switch {
		case err == nil:
			defer unlock()
		case ctx.Err() != nil:
			return nil, httperr.ErrFailure(httperr.CodeReservationFailed, err)
		default:
			uc.log.Warn("subscriber lock unavailable, relying on quota counter",
				zap.String("subscriber_id", subscriberID),
				zap.Error(err),
			)
		}
	}

	// --------------------------------------------------
	// 2️⃣ 3️⃣ Plano + cota do período
	// --------------------------------------------------
	decision, err := uc.quota.Execute(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	if !decision.Eligible {
		if decision.Reason == domain.ReasonTierNotEligible {
			return nil, httperr.ErrBusiness(httperr.CodePlanNotEligible)
		}
		return nil, httperr.ErrBusiness(httperr.CodeQuotaExceeded)
	}

	// --------------------------------------------------
	// 4️⃣ 5️⃣ 6️⃣ Commit: roda até o fim mesmo se o cliente desistir
	// --------------------------------------------------
	ap := domain.NewAppointment(slot, subscriberID, uc.meetingLink())
	if decision.Limit > 0 {
		ap.QuotaPeriod = decision.Period
	}
	commitCtx := context.WithoutCancel(ctx)

	if uc.opts.UseTransaction {
		err = uc.commitTx(commitCtx, ap, decision.Limit)
	} else {
		err = uc.commitSaga(commitCtx, ap, decision.Limit)
	}
	if err != nil {
		if httperr.IsBusiness(err, httperr.CodeSlotUnavailable) {
			uc.audit.Dispatch(audit.Event{
				ProviderID:   slot.ProviderID,
				SubscriberID: subscriberID,
				Action:       audit.ActionConflict,
				Entity:       "slot",
				EntityID:     &slot.ID,
			})
		}
		return nil, err
	}

	// --------------------------------------------------
	// 7️⃣ Auditoria + calendário (fire and forget)
	// --------------------------------------------------
	uc.audit.Dispatch(audit.Event{
		ProviderID:   ap.ProviderID,
		SubscriberID: subscriberID,
		Action:       audit.ActionReserved,
		Entity:       "appointment",
		EntityID:     &ap.ID,
		Metadata:     map[string]any{"slot_id": ap.SlotID},
	})

	uc.calendar.EnqueueCreate(domain.CalendarEvent{
		AppointmentID:   ap.ID,
		SubscriberID:    subscriberID,
		ProviderID:      ap.ProviderID,
		Start:           ap.StartTime,
		End:             ap.EndTime,
		PlaceholderLink: ap.MeetingLink,
	})

	return ap, nil
}

func (uc *ReserveSlot) meetingLink() string {
	if uc.opts.MeetingLink == nil {
		return ""
	}
	return uc.opts.MeetingLink()
}

func (uc *ReserveSlot) commitTx(ctx context.Context, ap *models.Appointment, limit int) error {
	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		if err := consumeQuota(ctx, tx, ap, limit); err != nil {
			return err
		}

		ok, err := tx.MarkSlotBooked(ctx, ap.SlotID)
		if err != nil {
			return err
		}
		if !ok {
			return httperr.ErrBusiness(httperr.CodeSlotUnavailable)
		}
		return tx.CreateAppointment(ctx, ap)
	})

	switch {
	case err == nil:
		return nil
	case httperr.IsBusiness(err, httperr.CodeSlotUnavailable),
		httperr.IsBusiness(err, httperr.CodeQuotaExceeded):
		return err
	case httperr.IsUniqueViolation(err):
		return httperr.ErrBusiness(httperr.CodeSlotUnavailable)
	default:
		uc.log.Warn("reservation rolled back",
			zap.Uint("slot_id", ap.SlotID),
			zap.String("subscriber_id", ap.SubscriberID),
			zap.Error(err),
		)
		return httperr.ErrFailure(httperr.CodeReservationFailed, err)
	}
}

func (uc *ReserveSlot) commitSaga(ctx context.Context, ap *models.Appointment, limit int) error {
	if err := consumeQuota(ctx, uc.repo, ap, limit); err != nil {
		if httperr.IsBusiness(err, httperr.CodeQuotaExceeded) {
			return err
		}
		return httperr.ErrFailure(httperr.CodeReservationFailed, err)
	}

	ok, err := uc.repo.MarkSlotBooked(ctx, ap.SlotID)
	if err != nil || !ok {
		// Compensação: devolve a cota consumida.
		if refundErr := refundQuota(ctx, uc.repo, ap); refundErr != nil {
			return uc.inconsistent(ap, errors.Join(err, refundErr), "quota_usage", "refunded")
		}
		if err != nil {
			return httperr.ErrFailure(httperr.CodeReservationFailed, err)
		}
		return httperr.ErrBusiness(httperr.CodeSlotUnavailable)
	}

	insertErr := uc.repo.CreateAppointment(ctx, ap)
	if insertErr == nil {
		return nil
	}

	// Compensação: slot volta para free e a cota é devolvida.
	released, err := uc.repo.ReleaseSlot(ctx, ap.SlotID)
	if err == nil && !released {
		err = errSlotNotReverted
	}
	if refundErr := refundQuota(ctx, uc.repo, ap); refundErr != nil {
		err = errors.Join(err, refundErr)
	}
	if err != nil {
		return uc.inconsistent(ap, errors.Join(insertErr, err), "slot", string(domain.SlotFree))
	}

	uc.log.Warn("appointment insert failed, slot released",
		zap.Uint("slot_id", ap.SlotID),
		zap.Error(insertErr),
	)
	return httperr.ErrFailure(httperr.CodeReservationFailed, insertErr)
}

func (uc *ReserveSlot) inconsistent(ap *models.Appointment, err error, entity, expected string) error {
	uc.log.Error("compensation failed, reservation left partial state",
		zap.Uint("slot_id", ap.SlotID),
		zap.String("subscriber_id", ap.SubscriberID),
		zap.String("entity", entity),
		zap.Error(err),
	)
	uc.audit.Dispatch(audit.Event{
		ProviderID:   ap.ProviderID,
		SubscriberID: ap.SubscriberID,
		Action:       audit.ActionInconsistentState,
		Entity:       entity,
		EntityID:     &ap.SlotID,
		Metadata: map[string]any{
			"operation":      "reserve",
			"expected_state": expected,
			"quota_period":   ap.QuotaPeriod,
		},
	})
	return httperr.ErrFailure(httperr.CodeInconsistentState, err)
}
