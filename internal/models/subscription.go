package models

import "time"

// Linha do diretório de assinaturas: subscriber → plano.
type Subscription struct {
	SubscriberID string `gorm:"primaryKey;size:64" json:"subscriber_id"`
	PlanTier     string `gorm:"size:20;not null;default:'free'" json:"plan_tier"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
