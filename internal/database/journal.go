package database

import (
	"time"

	"github.com/pkg/errors"

	"github.com/actionsum/focusgov/internal/models"
	"github.com/actionsum/focusgov/internal/throttle"
)

// EndReasonAbandoned marks sessions a previous governor never closed
const EndReasonAbandoned = "abandoned"

// Journal records helper sessions and anomalies. It implements
// throttle.Recorder and is only ever written to; the governor never reads
// its state back.
type Journal struct {
	repo  *Repository
	tool  string
	limit int

	openID uint
}

func NewJournal(repo *Repository, tool string, limit int) *Journal {
	return &Journal{repo: repo, tool: tool, limit: limit}
}

// Recover closes sessions that were still open when a previous run died
func (j *Journal) Recover() (int64, error) {
	return j.repo.CloseDangling(EndReasonAbandoned)
}

func (j *Journal) SessionStarted(s throttle.Session) error {
	row := &models.ThrottleSession{
		TargetPID: s.TargetPID,
		HelperPID: s.HelperPID,
		Tool:      j.tool,
		Limit:     j.limit,
		StartedAt: s.StartedAt,
	}
	if err := j.repo.CreateSession(row); err != nil {
		j.openID = 0
		return err
	}
	j.openID = row.ID
	return nil
}

func (j *Journal) SessionEnded(s throttle.Session, endedAt time.Time, reason throttle.StopReason) error {
	if j.openID == 0 {
		return errors.Errorf("no open session recorded for helper %d", s.HelperPID)
	}
	id := j.openID
	j.openID = 0
	return j.repo.EndSession(id, endedAt, string(reason))
}

func (j *Journal) Anomaly(message string, cause error) error {
	row := &models.Anomaly{
		Timestamp: time.Now(),
		Message:   message,
	}
	if cause != nil {
		row.Cause = cause.Error()
	}
	return j.repo.CreateAnomaly(row)
}
