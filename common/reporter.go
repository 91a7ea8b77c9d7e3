package common

import (
	"time"
)

type ReporterState struct {
	Count       uint64
	CountInc    uint64
	ElapsedTime float64
}

// Reporter decides when a long-running loop should emit a progress line:
// after every countThreshold items or every interval, whichever comes first.
type Reporter struct {
	countThreshold uint64
	interval       time.Duration
	format         func(ReporterState) string
	now            func() time.Time

	count           uint64
	startTime       time.Time
	lastReportTime  time.Time
	lastReportCount uint64
}

func NewReporter(countThreshold uint64, interval time.Duration, format func(ReporterState) string) *Reporter {
	return newReporterWithClock(countThreshold, interval, format, time.Now)
}

func newReporterWithClock(countThreshold uint64, interval time.Duration, format func(ReporterState) string, now func() time.Time) *Reporter {
	start := now()
	return &Reporter{
		countThreshold: countThreshold,
		interval:       interval,
		format:         format,
		now:            now,
		startTime:      start,
		lastReportTime: start,
	}
}

func (r *Reporter) Add(count uint64) (bool, string) {
	r.count += count

	countInc := r.count - r.lastReportCount
	elapsed := r.now().Sub(r.lastReportTime).Seconds()
	if (r.countThreshold != 0 && countInc >= r.countThreshold) || elapsed >= r.interval.Seconds() {
		content := r.format(ReporterState{Count: r.count, CountInc: countInc, ElapsedTime: elapsed})
		r.lastReportTime = r.now()
		r.lastReportCount = r.count
		return true, content
	}
	return false, ""
}

// Finish describes the whole run since the reporter was created.
func (r *Reporter) Finish() ReporterState {
	return ReporterState{
		Count:       r.count,
		CountInc:    r.count,
		ElapsedTime: r.now().Sub(r.startTime).Seconds(),
	}
}

func (rs ReporterState) Speed() float64 {
	if rs.ElapsedTime <= 0 {
		return 0
	}
	return float64(rs.CountInc) / rs.ElapsedTime
}
