package reporter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actionsum/focusgov/internal/models"
)

type fakeStore struct {
	sessions  []*models.ThrottleSession
	anomalies int64
	err       error

	gotStart, gotEnd time.Time
}

func (f *fakeStore) SessionsBetween(start, end time.Time) ([]*models.ThrottleSession, error) {
	f.gotStart, f.gotEnd = start, end
	return f.sessions, f.err
}

func (f *fakeStore) AnomalyCountBetween(start, end time.Time) (int64, error) {
	return f.anomalies, nil
}

// Wednesday
var fixedNow = time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)

func newTestReporter(store Store) *Reporter {
	r := New(store)
	r.now = func() time.Time { return fixedNow }
	return r
}

func TestPeriod(t *testing.T) {
	tests := []struct {
		name      string
		period    string
		wantType  string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"Day", "day", "day", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)},
		{"Today alias", "today", "day", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)},
		{"Week starts Monday", "week", "week", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"Month", "month", "month", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Period(tt.period, fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, tt.wantStart, p.Start)
			assert.Equal(t, tt.wantEnd, p.End)
		})
	}
}

func TestPeriodSundayBelongsToPreviousWeek(t *testing.T) {
	sunday := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	p, err := Period("week", sunday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), p.Start)
}

func TestPeriodInvalid(t *testing.T) {
	_, err := Period("year", fixedNow)
	assert.Error(t, err)
}

func TestGenerateReportClipsToPeriod(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2026, 3, 11, h, m, 0, 0, time.UTC) }
	ptr := func(v time.Time) *time.Time { return &v }

	store := &fakeStore{
		sessions: []*models.ThrottleSession{
			{ID: 1, TargetPID: 10, HelperPID: 20, StartedAt: at(0, 0).Add(-time.Hour), EndedAt: ptr(at(0, 30)), EndReason: "released"},
			{ID: 2, TargetPID: 10, HelperPID: 21, StartedAt: at(9, 0), EndedAt: ptr(at(9, 10)), EndReason: "killed"},
			{ID: 3, TargetPID: 10, HelperPID: 22, StartedAt: at(15, 0)},
		},
		anomalies: 2,
	}

	report, err := newTestReporter(store).GenerateReport("day")
	require.NoError(t, err)

	assert.Equal(t, at(0, 0), store.gotStart)
	require.Len(t, report.Sessions, 3)
	assert.Equal(t, int64(30*60), report.Sessions[0].Seconds)
	assert.Equal(t, int64(10*60), report.Sessions[1].Seconds)
	assert.Equal(t, int64(30*60), report.Sessions[2].Seconds, "open session runs until now")
	assert.Equal(t, int64(70*60), report.TotalSeconds)
	assert.InDelta(t, 70.0, report.TotalMinutes, 0.001)
	assert.Equal(t, int64(2), report.AnomalyCount)
}

func TestGenerateReportStoreError(t *testing.T) {
	_, err := newTestReporter(&fakeStore{err: errors.New("disk I/O error")}).GenerateReport("week")
	assert.Error(t, err)
}

func TestFormatReportText(t *testing.T) {
	r := newTestReporter(&fakeStore{})

	empty, err := r.GenerateReport("day")
	require.NoError(t, err)
	assert.Contains(t, r.FormatReportText(empty), "No throttling recorded")

	end := fixedNow.Add(-time.Hour)
	full := &models.Report{
		Period: empty.Period,
		Sessions: []models.SessionSummary{
			{TargetPID: 10, HelperPID: 20, StartedAt: end.Add(-2 * time.Hour), EndedAt: &end, EndReason: "released", Seconds: 7200},
			{TargetPID: 10, HelperPID: 21, StartedAt: fixedNow.Add(-time.Minute), Seconds: 60},
		},
		TotalSeconds: 7260,
		AnomalyCount: 1,
	}
	text := r.FormatReportText(full)
	assert.Contains(t, text, "Throttled: 2:01:00 (2 sessions)")
	assert.Contains(t, text, "Anomalies: 1")
	assert.Contains(t, text, "released")
	assert.Contains(t, text, "running")
}

func TestFormatReportJSON(t *testing.T) {
	r := newTestReporter(&fakeStore{anomalies: 3})
	report, err := r.GenerateReport("month")
	require.NoError(t, err)

	out, err := r.FormatReportJSON(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, float64(3), decoded["anomaly_count"])
	assert.Equal(t, "month", decoded["period"].(map[string]any)["type"])
}
