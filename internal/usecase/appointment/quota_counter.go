package appointment

import (
	"context"
	"errors"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/slot-scheduler/internal/httperr"
	"github.com/BruksfildServices01/slot-scheduler/internal/models"
)

var errQuotaNotRefunded = errors.New("quota refund affected no rows")

// consumeQuota reserva uma unidade do período do agendamento. Planos sem
// limite (QuotaPeriod vazio) não tocam no contador.
func consumeQuota(ctx context.Context, repo domain.Repository, ap *models.Appointment, limit int) error {
	if ap.QuotaPeriod == "" {
		return nil
	}
	ok, err := repo.ConsumeQuota(ctx, ap.SubscriberID, ap.QuotaPeriod, limit)
	if err != nil {
		return err
	}
	if !ok {
		return httperr.ErrBusiness(httperr.CodeQuotaExceeded)
	}
	return nil
}

func refundQuota(ctx context.Context, repo domain.Repository, ap *models.Appointment) error {
	if ap.QuotaPeriod == "" {
		return nil
	}
	ok, err := repo.RefundQuota(ctx, ap.SubscriberID, ap.QuotaPeriod)
	if err != nil {
		return err
	}
	if !ok {
		return errQuotaNotRefunded
	}
	return nil
}
