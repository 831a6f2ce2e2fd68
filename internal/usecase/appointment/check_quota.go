package appointment

import (
	"context"
	"fmt"
	"time"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/slot-scheduler/internal/timezone"
)

// CheckQuota é só leitura: nunca devolve erro de regra de negócio, apenas
// a decisão com o motivo. A garantia de cota fica no commit da reserva
// (contador por período), esta leitura só evita escrita inútil.
type CheckQuota struct {
	repo      domain.Repository
	directory domain.SubscriptionDirectory
	loc       *time.Location
	now       func() time.Time
}

func NewCheckQuota(
	repo domain.Repository,
	directory domain.SubscriptionDirectory,
	billingTimezone string,
) *CheckQuota {
	return &CheckQuota{
		repo:      repo,
		directory: directory,
		loc:       timezone.Location(billingTimezone),
		now:       time.Now,
	}
}

func (uc *CheckQuota) Execute(
	ctx context.Context,
	subscriberID string,
) (domain.QuotaDecision, error) {

	tier, err := uc.directory.GetPlanTier(ctx, subscriberID)
	if err != nil {
		return domain.QuotaDecision{}, fmt.Errorf("get plan tier: %w", err)
	}

	now := uc.now()
	period := timezone.PeriodKey(now, uc.loc)

	if !domain.PolicyFor(tier).Scheduling {
		d := domain.Evaluate(tier, 0)
		d.Period = period
		return d, nil
	}

	start, end := timezone.MonthRange(now, uc.loc)
	used, err := uc.repo.CountAppointmentsInPeriod(ctx, subscriberID, start.UTC(), end.UTC())
	if err != nil {
		return domain.QuotaDecision{}, fmt.Errorf("count appointments: %w", err)
	}

	d := domain.Evaluate(tier, used)
	d.Period = period
	return d, nil
}
