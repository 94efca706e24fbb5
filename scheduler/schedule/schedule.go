// Package schedule computes the next-run time for a job definition from a
// cron expression, an earliest-start bound, and a jitter window.
//
// Cron parsing is delegated to gorhill/cronexpr, the same dependency the
// original redis-backed job scheduler this package was generalized from
// used to validate schedules before storing them.
package schedule

import (
	"math/rand"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
)

// Schedule is a value object that derives NextRunTime from a cron
// expression, an earliest-start instant, and a jitter window. A Schedule
// with no cron expression is one-shot: it fires once at its earliest-start
// instant (or the Unix epoch if none was given) and is exhausted after.
type Schedule struct {
	cronExpr     string
	parsedCron   *cronexpr.Expression
	earliestStart time.Time
	jitter       time.Duration

	nextRunTime time.Time
	lastRunTime time.Time
	hasLastRun  bool
}

// Option configures a Schedule at construction time.
type Option func(*Schedule)

// WithCron sets the cron expression. Five fields are minute through
// day-of-week; six fields carry a leading seconds field. An expression the
// library cannot parse degrades the Schedule to one-shot instead of
// failing construction.
func WithCron(expr string) Option {
	return func(s *Schedule) {
		s.cronExpr = expr
		toParse := expr
		if len(strings.Fields(expr)) == 6 {
			// cronexpr reads six fields as minute..year; adding a year
			// field makes it read them as second..day-of-week.
			toParse = expr + " *"
		}
		if parsed, err := cronexpr.Parse(toParse); err == nil {
			s.parsedCron = parsed
		}
	}
}

// WithEarliestStart sets the floor instant before which the schedule will
// not compute a NextRunTime.
func WithEarliestStart(t time.Time) Option {
	return func(s *Schedule) {
		s.earliestStart = t.UTC()
	}
}

// WithJitter sets the symmetric random offset window applied to every
// recomputed NextRunTime. Negative durations are treated as zero.
func WithJitter(d time.Duration) Option {
	return func(s *Schedule) {
		if d > 0 {
			s.jitter = d
		}
	}
}

// New builds a Schedule and computes its initial NextRunTime using the
// Unix epoch as the reference instant, per the one-shot/cron invariants
// below. Construction never fails: an invalid or exhausted cron
// expression simply degrades the schedule to its earliest-start instant.
func New(opts ...Option) *Schedule {
	s := &Schedule{}
	for _, opt := range opts {
		opt(s)
	}
	s.recompute(time.Unix(0, 0).UTC())
	return s
}

// NextRunTime returns the instant at which the schedule is next eligible
// to run.
func (s *Schedule) NextRunTime() time.Time {
	return s.nextRunTime
}

// LastRunTime returns the instant the schedule was last marked as run,
// and whether one has been recorded yet.
func (s *Schedule) LastRunTime() (time.Time, bool) {
	return s.lastRunTime, s.hasLastRun
}

// SetLastRunTime records t as the schedule's last-run instant and
// recomputes NextRunTime using t as the reference. This is the hook the
// Scheduler calls at a JobExecution's StartTime, not its FinishTime — see
// the construction sequence on Scheduler.launch.
func (s *Schedule) SetLastRunTime(t time.Time) {
	s.lastRunTime = t.UTC()
	s.hasLastRun = true
	s.recompute(s.lastRunTime)
}

// ClearLastRunTime clears the last-run instant without recomputing
// NextRunTime.
func (s *Schedule) ClearLastRunTime() {
	s.lastRunTime = time.Time{}
	s.hasLastRun = false
}

// HasCron reports whether the schedule carries a (successfully parsed)
// cron expression. A false result means the schedule is a one-shot.
func (s *Schedule) HasCron() bool {
	return s.parsedCron != nil
}

// recompute implements the Schedule invariants:
//   - one-shot: NextRunTime = earliestStart (or epoch floor if unset);
//   - cron-driven: NextRunTime = max(earliestStart, cron.nextAfter(reference)),
//     then offset by a fresh uniform draw in [-jitter, +jitter] if jitter is set.
//
// A cron expression with no future occurrence after reference degrades
// the schedule to one-shot for this computation, per spec.
func (s *Schedule) recompute(reference time.Time) {
	if s.parsedCron == nil {
		s.nextRunTime = s.oneShotInstant()
		return
	}

	next := s.parsedCron.Next(reference)
	if next.IsZero() {
		s.nextRunTime = s.oneShotInstant()
		return
	}

	if next.Before(s.earliestStart) {
		next = s.earliestStart
	}

	if s.jitter > 0 {
		offsetNanos := rand.Int63n(int64(2*s.jitter)+1) - int64(s.jitter)
		next = next.Add(time.Duration(offsetNanos))
	}

	s.nextRunTime = next.UTC()
}

func (s *Schedule) oneShotInstant() time.Time {
	if !s.earliestStart.IsZero() {
		return s.earliestStart
	}
	return time.Unix(0, 0).UTC()
}
