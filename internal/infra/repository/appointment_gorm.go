package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/slot-scheduler/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// --------------------------------------------------
// Provider
// --------------------------------------------------

func (r *AppointmentGormRepository) GetProvider(
	ctx context.Context,
	id uint,
) (*models.Provider, error) {

	var p models.Provider
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// --------------------------------------------------
// Slot (read)
// --------------------------------------------------

func (r *AppointmentGormRepository) GetSlot(
	ctx context.Context,
	id uint,
) (*models.Slot, error) {

	var slot models.Slot
	if err := r.db.WithContext(ctx).First(&slot, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &slot, nil
}

func (r *AppointmentGormRepository) ListFreeSlots(
	ctx context.Context,
	filter domain.SlotFilter,
) ([]domain.FreeSlot, error) {

	q := r.db.WithContext(ctx).
		Table("slots").
		Select(
			"slots.id, slots.provider_id, providers.name AS provider_name, " +
				"slots.start_time, slots.end_time, slots.status",
		).
		Joins("JOIN providers ON providers.id = slots.provider_id").
		Where("slots.status = ?", string(domain.SlotFree))

	if filter.ProviderID != nil {
		q = q.Where("slots.provider_id = ?", *filter.ProviderID)
	}
	if !filter.From.IsZero() {
		q = q.Where("slots.start_time >= ?", filter.From)
	}

	var out []domain.FreeSlot
	if err := q.Order("slots.start_time ASC, slots.id ASC").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AppointmentGormRepository) ListProviderSlots(
	ctx context.Context,
	providerID uint,
) ([]models.Slot, error) {

	var slots []models.Slot
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("start_time ASC, id ASC").
		Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

// --------------------------------------------------
// Slot (create)
// --------------------------------------------------

func (r *AppointmentGormRepository) HasSlotOverlap(
	ctx context.Context,
	providerID uint,
	start time.Time,
	end time.Time,
) (bool, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Slot{}).
		Where(
			"provider_id = ? AND start_time < ? AND end_time > ?",
			providerID,
			end,
			start,
		).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *AppointmentGormRepository) CreateSlots(
	ctx context.Context,
	slots []models.Slot,
) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

// --------------------------------------------------
// Slot (conditional writes)
// --------------------------------------------------

// transition é o único ponto de serialização de um slot: o UPDATE só
// acerta a linha se o status atual ainda for "from".
func (r *AppointmentGormRepository) transition(
	ctx context.Context,
	slotID uint,
	from domain.SlotStatus,
	to domain.SlotStatus,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Slot{}).
		Where("id = ? AND status = ?", slotID, string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": r.db.NowFunc(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *AppointmentGormRepository) MarkSlotBooked(
	ctx context.Context,
	slotID uint,
) (bool, error) {
	return r.transition(ctx, slotID, domain.SlotFree, domain.SlotBooked)
}

func (r *AppointmentGormRepository) ReleaseSlot(
	ctx context.Context,
	slotID uint,
) (bool, error) {
	return r.transition(ctx, slotID, domain.SlotBooked, domain.SlotFree)
}

// --------------------------------------------------
// Quota counter (conditional writes)
// --------------------------------------------------

func (r *AppointmentGormRepository) ConsumeQuota(
	ctx context.Context,
	subscriberID string,
	period string,
	limit int,
) (bool, error) {

	// Garante a linha do período; concorrentes caem no DO NOTHING.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.QuotaUsage{SubscriberID: subscriberID, Period: period}).Error; err != nil {
		return false, err
	}

	res := r.db.WithContext(ctx).
		Model(&models.QuotaUsage{}).
		Where("subscriber_id = ? AND period = ? AND used < ?", subscriberID, period, limit).
		Updates(map[string]any{
			"used":       gorm.Expr("used + 1"),
			"updated_at": r.db.NowFunc(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *AppointmentGormRepository) RefundQuota(
	ctx context.Context,
	subscriberID string,
	period string,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.QuotaUsage{}).
		Where("subscriber_id = ? AND period = ? AND used > 0", subscriberID, period).
		Updates(map[string]any{
			"used":       gorm.Expr("used - 1"),
			"updated_at": r.db.NowFunc(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Create(ap).Error
}

func (r *AppointmentGormRepository) GetAppointmentForSubscriber(
	ctx context.Context,
	appointmentID uint,
	subscriberID string,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Where("id = ? AND subscriber_id = ?", appointmentID, subscriberID).
		First(&ap).Error; err != nil {
		return nil, notFound(err)
	}

	return &ap, nil
}

func (r *AppointmentGormRepository) DeleteAppointment(
	ctx context.Context,
	appointmentID uint,
) (bool, error) {

	res := r.db.WithContext(ctx).Delete(&models.Appointment{}, appointmentID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *AppointmentGormRepository) CountAppointmentsInPeriod(
	ctx context.Context,
	subscriberID string,
	start time.Time,
	end time.Time,
) (int64, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where(
			"subscriber_id = ? AND created_at >= ? AND created_at < ?",
			subscriberID,
			start,
			end,
		).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *AppointmentGormRepository) ReplaceMeetingLink(
	ctx context.Context,
	appointmentID uint,
	from string,
	to string,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND meeting_link = ?", appointmentID, from).
		Update("meeting_link", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// --------------------------------------------------
// Unit of work
// --------------------------------------------------

func (r *AppointmentGormRepository) Transaction(
	ctx context.Context,
	fn func(repo domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AppointmentGormRepository{db: tx})
	})
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
