package models

import "time"

// Janela de atendimento oferecida por um provider. Só Status muda depois de criada.
type Slot struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ProviderID uint     `gorm:"index:idx_slots_provider_start,priority:1;not null" json:"provider_id"`
	Provider   Provider `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	StartTime time.Time `gorm:"index:idx_slots_provider_start,priority:2;not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status string `gorm:"size:20;not null;default:'free';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
