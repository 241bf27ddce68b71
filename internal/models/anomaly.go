package models

import (
	"time"

	"gorm.io/gorm"
)

// Anomaly is a non-fatal problem met while stopping the helper
type Anomaly struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Message   string         `gorm:"not null" json:"message"`
	Cause     string         `json:"cause,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
