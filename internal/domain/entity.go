package domain

import (
	"time"
)

// AppConfig represents an operator preference (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Preference keys kept between sessions.
const (
	PrefOrderSize      = "order_size"
	PrefOrderKindIndex = "order_kind_index"
)
