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

type CancelReservation struct {
	repo           domain.Repository
	audit          *audit.Dispatcher
	calendar       *calendar.Dispatcher
	log            *zap.Logger
	useTransaction bool
}

func NewCancelReservation(
	repo domain.Repository,
	audit *audit.Dispatcher,
	calendar *calendar.Dispatcher,
	log *zap.Logger,
	useTransaction bool,
) *CancelReservation {
	return &CancelReservation{
		repo:           repo,
		audit:          audit,
		calendar:       calendar,
		log:            log.Named("cancel"),
		useTransaction: useTransaction,
	}
}

func (uc *CancelReservation) Execute(
	ctx context.Context,
	subscriberID string,
	appointmentID uint,
) error {

	ap, err := uc.repo.GetAppointmentForSubscriber(ctx, appointmentID, subscriberID)
	if errors.Is(err, domain.ErrNotFound) {
		return httperr.ErrBusiness(httperr.CodeNotFound)
	}
	if err != nil {
		return err
	}

	commitCtx := context.WithoutCancel(ctx)
	if uc.useTransaction {
		err = uc.commitTx(commitCtx, ap)
	} else {
		err = uc.commitSaga(commitCtx, ap)
	}
	if err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID:   ap.ProviderID,
		SubscriberID: subscriberID,
		Action:       audit.ActionCancelled,
		Entity:       "appointment",
		EntityID:     &ap.ID,
		Metadata:     map[string]any{"slot_id": ap.SlotID},
	})
	uc.calendar.EnqueueCancel(ap.ID)

	return nil
}

func (uc *CancelReservation) commitTx(ctx context.Context, ap *models.Appointment) error {
	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		released, err := tx.ReleaseSlot(ctx, ap.SlotID)
		if err != nil {
			return err
		}
		if !released {
			// Outro cancelamento chegou antes.
			return httperr.ErrBusiness(httperr.CodeNotFound)
		}

		deleted, err := tx.DeleteAppointment(ctx, ap.ID)
		if err != nil {
			return err
		}
		if !deleted {
			uc.log.Warn("appointment already gone, slot released", zap.Uint("appointment_id", ap.ID))
		}

		err = refundQuota(ctx, tx, ap)
		if errors.Is(err, errQuotaNotRefunded) {
			uc.log.Warn("quota counter already at zero", zap.Uint("appointment_id", ap.ID))
			return nil
		}
		return err
	})

	switch {
	case err == nil:
		return nil
	case httperr.IsBusiness(err, httperr.CodeNotFound):
		return err
	default:
		uc.log.Warn("cancellation rolled back",
			zap.Uint("appointment_id", ap.ID),
			zap.Uint("slot_id", ap.SlotID),
			zap.Error(err),
		)
		return httperr.ErrFailure(httperr.CodeCancellationFailed, err)
	}
}

func (uc *CancelReservation) commitSaga(ctx context.Context, ap *models.Appointment) error {
	released, err := uc.repo.ReleaseSlot(ctx, ap.SlotID)
	if err != nil {
		return httperr.ErrFailure(httperr.CodeCancellationFailed, err)
	}
	if !released {
		return httperr.ErrBusiness(httperr.CodeNotFound)
	}

	deleted, deleteErr := uc.repo.DeleteAppointment(ctx, ap.ID)
	if deleteErr == nil {
		if !deleted {
			uc.log.Warn("appointment already gone, slot released", zap.Uint("appointment_id", ap.ID))
		}
		uc.refundAfterCancel(ctx, ap)
		return nil
	}

	// Compensação: o agendamento continua existindo, então o slot volta a booked.
	rebooked, err := uc.repo.MarkSlotBooked(ctx, ap.SlotID)
	if err == nil && !rebooked {
		err = errSlotNotReverted
	}
	if err != nil {
		uc.log.Error("compensation failed, appointment references a free slot",
			zap.Uint("appointment_id", ap.ID),
			zap.Uint("slot_id", ap.SlotID),
			zap.NamedError("delete_error", deleteErr),
			zap.Error(err),
		)
		uc.audit.Dispatch(audit.Event{
			ProviderID:   ap.ProviderID,
			SubscriberID: ap.SubscriberID,
			Action:       audit.ActionInconsistentState,
			Entity:       "slot",
			EntityID:     &ap.SlotID,
			Metadata:     map[string]any{"operation": "cancel", "expected_status": string(domain.SlotBooked)},
		})
		return httperr.ErrFailure(httperr.CodeInconsistentState, errors.Join(deleteErr, err))
	}

	uc.log.Warn("appointment delete failed, slot re-booked",
		zap.Uint("appointment_id", ap.ID),
		zap.Error(deleteErr),
	)
	return httperr.ErrFailure(httperr.CodeCancellationFailed, deleteErr)
}

// O cancelamento já aconteceu; falha aqui só deixa a cota presa e vira
// evento de auditoria para reconciliação.
func (uc *CancelReservation) refundAfterCancel(ctx context.Context, ap *models.Appointment) {
	err := refundQuota(ctx, uc.repo, ap)
	switch {
	case err == nil:
	case errors.Is(err, errQuotaNotRefunded):
		uc.log.Warn("quota counter already at zero", zap.Uint("appointment_id", ap.ID))
	default:
		uc.log.Error("quota refund failed after cancel",
			zap.Uint("appointment_id", ap.ID),
			zap.String("subscriber_id", ap.SubscriberID),
			zap.String("quota_period", ap.QuotaPeriod),
			zap.Error(err),
		)
		uc.audit.Dispatch(audit.Event{
			ProviderID:   ap.ProviderID,
			SubscriberID: ap.SubscriberID,
			Action:       audit.ActionInconsistentState,
			Entity:       "quota_usage",
			EntityID:     &ap.ID,
			Metadata:     map[string]any{"operation": "cancel", "quota_period": ap.QuotaPeriod},
		})
	}
}
