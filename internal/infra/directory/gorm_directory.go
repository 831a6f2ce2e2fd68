package directory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/slot-scheduler/internal/models"
)

// GormDirectory lê o plano na tabela subscriptions.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// Subscriber sem assinatura é tratado como plano free.
func (d *GormDirectory) GetPlanTier(ctx context.Context, subscriberID string) (domain.PlanTier, error) {
	var sub models.Subscription
	err := d.db.WithContext(ctx).
		Where("subscriber_id = ?", subscriberID).
		First(&sub).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.PlanFree, nil
	}
	if err != nil {
		return "", err
	}
	return domain.PlanTier(sub.PlanTier), nil
}

var _ domain.SubscriptionDirectory = (*GormDirectory)(nil)
