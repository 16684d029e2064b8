// Package gate restricts a periodic job to firing once per intended schedule
// tick, so a job invoked more often than its schedule (or restarted by a
// supervisor) does not double-execute within one period.
package gate

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/webpiratt/autoswap/config"
)

// lookback bounds the backwards search for the most recent firing. Job
// schedules here are minutes-to-hours scale, so two days is generous.
const lookback = 48 * time.Hour

// ScheduleConfigError reports an unknown job name or a malformed recurrence
// expression. The gate fails closed on it.
type ScheduleConfigError struct {
	Job  string
	Expr string
	Err  error
}

func (e *ScheduleConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("no schedule declared for job %q", e.Job)
	}
	return fmt.Sprintf("malformed schedule %q for job %q: %v", e.Expr, e.Job, e.Err)
}

func (e *ScheduleConfigError) Unwrap() error { return e.Err }

type entry struct {
	expr     string
	schedule cron.Schedule
	err      error
}

// Gate holds the parsed per-job schedules handed to it at startup.
type Gate struct {
	entries map[string]entry
	logger  *logrus.Logger
}

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New parses the given job schedules. Malformed expressions are kept as
// failed entries so that ShouldFire fails closed for them instead of
// aborting startup.
func New(logger *logrus.Logger, jobs ...config.JobSchedule) *Gate {
	entries := make(map[string]entry, len(jobs))
	for _, job := range jobs {
		schedule, err := parser.Parse(job.Expr)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"job":  job.Name,
				"expr": job.Expr,
			}).WithError(err).Warn("malformed job schedule")
			entries[job.Name] = entry{expr: job.Expr, err: err}
			continue
		}
		entries[job.Name] = entry{expr: job.Expr, schedule: schedule}
	}
	return &Gate{entries: entries, logger: logger}
}

// ShouldFire reports whether now falls on the job's current schedule tick.
// It brackets now between the most recent past firing and the next future
// one, then requires now's seconds component to match the past firing's, so
// only the first invocation within a tick passes. Unknown jobs and malformed
// expressions fail closed.
func (g *Gate) ShouldFire(jobName string, now time.Time) bool {
	e, ok := g.entries[jobName]
	if !ok {
		g.warn(&ScheduleConfigError{Job: jobName})
		return false
	}
	if e.err != nil {
		g.warn(&ScheduleConfigError{Job: jobName, Expr: e.expr, Err: e.err})
		return false
	}

	previous, ok := previousFiring(e.schedule, now)
	if !ok {
		return false
	}
	next := e.schedule.Next(previous)
	if now.Before(previous) || !now.Before(next) {
		return false
	}
	return now.Second() == previous.Second()
}

func (g *Gate) warn(err *ScheduleConfigError) {
	g.logger.WithField("job", err.Job).Warnf("schedule gate failed closed: %v", err)
}

// previousFiring walks the schedule forward from the lookback horizon and
// returns the last firing instant that is not after now.
func previousFiring(schedule cron.Schedule, now time.Time) (time.Time, bool) {
	t := now.Add(-lookback)
	var previous time.Time
	for {
		n := schedule.Next(t)
		if n.IsZero() || n.After(now) {
			break
		}
		previous = n
		t = n
	}
	return previous, !previous.IsZero()
}
