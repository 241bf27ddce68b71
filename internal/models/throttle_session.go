package models

import (
	"time"

	"gorm.io/gorm"
)

// ThrottleSession is one lifetime of the throttling helper
type ThrottleSession struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TargetPID int32          `gorm:"not null" json:"target_pid"`
	HelperPID int            `gorm:"not null" json:"helper_pid"`
	Tool      string         `gorm:"not null" json:"tool"`
	Limit     int            `gorm:"not null" json:"limit"`
	StartedAt time.Time      `gorm:"not null;index" json:"started_at"`
	EndedAt   *time.Time     `gorm:"index" json:"ended_at,omitempty"` // nil while the helper runs
	EndReason string         `json:"end_reason,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Duration returns how long the helper ran. Open sessions are measured up
// to now.
func (s *ThrottleSession) Duration(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	if end.Before(s.StartedAt) {
		return 0
	}
	return end.Sub(s.StartedAt)
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type SessionSummary struct {
	ID        uint       `json:"id"`
	TargetPID int32      `json:"target_pid"`
	HelperPID int        `json:"helper_pid"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	EndReason string     `json:"end_reason,omitempty"`
	Seconds   int64      `json:"seconds"`
}

type Report struct {
	Period       ReportPeriod     `json:"period"`
	Sessions     []SessionSummary `json:"sessions"`
	TotalSeconds int64            `json:"total_seconds"`
	TotalMinutes float64          `json:"total_minutes"`
	TotalHours   float64          `json:"total_hours"`
	AnomalyCount int64            `json:"anomaly_count"`
	GeneratedAt  time.Time        `json:"generated_at"`
}
