package schedule

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// purge passes run twice a day, at the top of these hours
var purgeHours = []int{0, 12}

// Schedule decides whether the current wall-clock time falls inside the
// window where reminders may be sent. The periodic worker skips timed runs
// outside the window; one-shot runs are never gated.
type Schedule struct {
	location   *time.Location
	beginHour  int
	endHour    int
	weekends   bool
	alwaysSend bool
}

// Option is a functional option for Schedule configuration
type Option func(*Schedule)

// WithAlertWindow restricts alerting to [begin, end) hours of the day
func WithAlertWindow(begin, end int) Option {
	return func(s *Schedule) {
		s.beginHour = begin
		s.endHour = end
	}
}

// WithWeekends enables alerting on Saturday and Sunday
func WithWeekends(enabled bool) Option {
	return func(s *Schedule) {
		s.weekends = enabled
	}
}

// WithAlwaysSend bypasses the window checks entirely. Intended for
// development and one-shot runs.
func WithAlwaysSend(enabled bool) Option {
	return func(s *Schedule) {
		s.alwaysSend = enabled
	}
}

// New creates a Schedule in the given IANA timezone, e.g. "America/Chicago".
// An empty name means UTC.
func New(timezone string, opts ...Option) (*Schedule, error) {
	loc := time.UTC
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load timezone", goerr.V("timezone", timezone))
		}
	}

	s := &Schedule{
		location:  loc,
		beginHour: 0,
		endHour:   24,
		weekends:  false,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.beginHour < 0 || s.endHour > 24 || s.beginHour >= s.endHour {
		return nil, goerr.New("invalid alert window",
			goerr.V("begin", s.beginHour), goerr.V("end", s.endHour))
	}

	return s, nil
}

// ShouldAlertNow reports whether reminders may be sent at time t
func (s *Schedule) ShouldAlertNow(t time.Time) bool {
	if s.alwaysSend {
		return true
	}

	local := t.In(s.location)

	if !s.weekends {
		switch local.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}

	hour := local.Hour()
	return hour >= s.beginHour && hour < s.endHour
}

// ShouldPurgeNow reports whether a scheduled purge pass is due at time t.
// Purges run during the first worker tick of each purge hour.
func (s *Schedule) ShouldPurgeNow(t time.Time) bool {
	if s.alwaysSend {
		return true
	}

	hour := t.In(s.location).Hour()
	for _, h := range purgeHours {
		if hour == h {
			return true
		}
	}
	return false
}

// Location returns the schedule's timezone
func (s *Schedule) Location() *time.Location {
	return s.location
}
