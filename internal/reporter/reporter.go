package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/actionsum/focusgov/internal/models"
	"github.com/actionsum/focusgov/pkg/utils"
)

// Store is the part of the journal the reporter reads
type Store interface {
	SessionsBetween(start, end time.Time) ([]*models.ThrottleSession, error)
	AnomalyCountBetween(start, end time.Time) (int64, error)
}

// Reporter builds history reports from the session journal
type Reporter struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Reporter {
	return &Reporter{
		store: store,
		now:   time.Now,
	}
}

// GenerateReport summarises throttling over the given period. Sessions that
// straddle the period boundary only count the part inside it.
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	now := r.now()
	period, err := Period(periodType, now)
	if err != nil {
		return nil, err
	}

	sessions, err := r.store.SessionsBetween(period.Start, period.End)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sessions")
	}

	anomalies, err := r.store.AnomalyCountBetween(period.Start, period.End)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count anomalies")
	}

	report := &models.Report{
		Period:       *period,
		Sessions:     make([]models.SessionSummary, 0, len(sessions)),
		AnomalyCount: anomalies,
		GeneratedAt:  now,
	}

	for _, s := range sessions {
		seconds := clippedSeconds(s, period, now)
		report.Sessions = append(report.Sessions, models.SessionSummary{
			ID:        s.ID,
			TargetPID: s.TargetPID,
			HelperPID: s.HelperPID,
			StartedAt: s.StartedAt,
			EndedAt:   s.EndedAt,
			EndReason: s.EndReason,
			Seconds:   seconds,
		})
		report.TotalSeconds += seconds
	}

	report.TotalMinutes = float64(report.TotalSeconds) / 60.0
	report.TotalHours = float64(report.TotalSeconds) / 3600.0

	return report, nil
}

func clippedSeconds(s *models.ThrottleSession, period *models.ReportPeriod, now time.Time) int64 {
	start := s.StartedAt
	if start.Before(period.Start) {
		start = period.Start
	}
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	if end.After(period.End) {
		end = period.End
	}
	if !end.After(start) {
		return 0
	}
	return int64(end.Sub(start) / time.Second)
}

// Period returns the calendar range containing now. Weeks start on Monday.
func Period(periodType string, now time.Time) (*models.ReportPeriod, error) {
	var start, end time.Time
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch periodType {
	case "day", "today":
		periodType = "day"
		start = midnight
		end = start.AddDate(0, 0, 1)

	case "week":
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday
		}
		start = midnight.AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, errors.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Throttling Report - %s\n", report.Period.Type)
	fmt.Fprintf(&b, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Throttled: %s (%d sessions)\n", utils.FormatClock(report.TotalSeconds), len(report.Sessions))
	fmt.Fprintf(&b, "Anomalies: %d\n\n", report.AnomalyCount)

	if len(report.Sessions) == 0 {
		b.WriteString("No throttling recorded for this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-17s %-17s %8s %8s %10s  %s\n", "Started", "Ended", "Target", "Helper", "Duration", "Reason")
	b.WriteString(strings.Repeat("-", 80) + "\n")

	for _, s := range report.Sessions {
		ended, reason := "running", s.EndReason
		if s.EndedAt != nil {
			ended = s.EndedAt.Format("2006-01-02 15:04")
		}
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(&b, "%-17s %-17s %8d %8d %10s  %s\n",
			s.StartedAt.Format("2006-01-02 15:04"),
			ended,
			s.TargetPID,
			s.HelperPID,
			utils.FormatRoundedUnit(s.Seconds),
			utils.Truncate(reason, 16))
	}

	return b.String()
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal JSON")
	}
	return string(data), nil
}
