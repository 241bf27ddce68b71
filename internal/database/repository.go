package database

import (
	"time"

	"github.com/actionsum/focusgov/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles journal reads and writes
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateSession inserts a session row and fills in its ID
func (r *Repository) CreateSession(session *models.ThrottleSession) error {
	result := r.db.Create(session)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert throttle session")
	}
	return nil
}

// EndSession stamps the end time and reason on an open session
func (r *Repository) EndSession(id uint, endedAt time.Time, reason string) error {
	result := r.db.Model(&models.ThrottleSession{}).
		Where("id = ?", id).
		Updates(map[string]any{"ended_at": endedAt, "end_reason": reason})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to end throttle session")
	}
	if result.RowsAffected == 0 {
		return errors.Errorf("throttle session %d not found", id)
	}
	return nil
}

// GetSession retrieves a session by its ID
func (r *Repository) GetSession(id uint) (*models.ThrottleSession, error) {
	var session models.ThrottleSession
	result := r.db.First(&session, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get throttle session")
	}
	return &session, nil
}

// SessionsBetween returns sessions overlapping [start, end), oldest first.
// Sessions still open count as overlapping.
func (r *Repository) SessionsBetween(start, end time.Time) ([]*models.ThrottleSession, error) {
	var sessions []*models.ThrottleSession
	result := r.db.
		Where("started_at < ?", end).
		Where("(ended_at IS NULL OR ended_at >= ?)", start).
		Order("started_at ASC").
		Find(&sessions)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query throttle sessions")
	}

	return sessions, nil
}

// CreateAnomaly inserts an anomaly row
func (r *Repository) CreateAnomaly(anomaly *models.Anomaly) error {
	result := r.db.Create(anomaly)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert anomaly")
	}
	return nil
}

// AnomalyCountBetween counts anomalies with start <= timestamp < end
func (r *Repository) AnomalyCountBetween(start, end time.Time) (int64, error) {
	var count int64
	result := r.db.Model(&models.Anomaly{}).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Count(&count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to count anomalies")
	}
	return count, nil
}

// CloseDangling ends sessions left open by a governor that died without
// releasing. The helper died with it at an unknown time, so each row is
// closed at its last known time, its start, and counts no throttled time.
func (r *Repository) CloseDangling(reason string) (int64, error) {
	result := r.db.Model(&models.ThrottleSession{}).
		Where("ended_at IS NULL").
		Updates(map[string]any{"ended_at": gorm.Expr("started_at"), "end_reason": reason})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to close dangling sessions")
	}
	return result.RowsAffected, nil
}

// Clear removes every journal row
func (r *Repository) Clear() error {
	if result := r.db.Exec("DELETE FROM throttle_sessions"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear throttle sessions")
	}
	if result := r.db.Exec("DELETE FROM anomalies"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear anomalies")
	}
	return nil
}
