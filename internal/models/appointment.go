package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	SlotID uint `gorm:"uniqueIndex;not null" json:"slot_id"`
	Slot   Slot `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	SubscriberID string `gorm:"size:64;not null;index:idx_appointments_subscriber_created,priority:1" json:"subscriber_id"`
	ProviderID   uint   `gorm:"not null" json:"provider_id"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	MeetingLink string `gorm:"size:2048" json:"meeting_link"`

	// Período cujo contador de cota esta reserva consumiu. Vazio = plano sem limite.
	QuotaPeriod string `gorm:"size:7" json:"-"`

	CreatedAt time.Time `gorm:"index:idx_appointments_subscriber_created,priority:2" json:"created_at"`
}
