package models

import "time"

// Contador de reservas por subscriber e período de cobrança ("2026-10").
// Só muda por UPDATE condicional, nunca por leitura + escrita.
type QuotaUsage struct {
	SubscriberID string `gorm:"primaryKey;size:64" json:"subscriber_id"`
	Period       string `gorm:"primaryKey;size:7" json:"period"`
	Used         int    `gorm:"not null;default:0" json:"used"`

	UpdatedAt time.Time `json:"updated_at"`
}
