// Package ledger implements the per-activity, per-day timing state machine.
//
// A record is Idle or Running. Start moves Idle to Running by storing the
// current instant; Stop moves Running back to Idle and appends a Session.
// Nothing ticks: elapsed time is always derived from the clock at the moment
// of the call. All operations address the local calendar day of "now", so a
// run left going past midnight is only visible from the day it started.
package ledger

import (
	"errors"
	"log/slog"
	"time"

	"github.com/Tiliavir/stopwatch/internal/model"
	"github.com/Tiliavir/stopwatch/internal/storage"
	"github.com/Tiliavir/stopwatch/internal/timecalc"
)

var (
	// ErrAlreadyRunning is returned by Start when the activity is running.
	ErrAlreadyRunning = errors.New("already running")
	// ErrNotRunning is returned by Stop when the activity is idle.
	ErrNotRunning = errors.New("not running")
)

// Ledger applies start/stop/status/history to the records in a Store.
type Ledger struct {
	store *storage.Store
	now   func() time.Time
	log   *slog.Logger
}

// New returns a Ledger over store. now defaults to time.Now.
func New(store *storage.Store, now func() time.Time, logger *slog.Logger) *Ledger {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, now: now, log: logger}
}

// StopResult describes a completed Stop.
type StopResult struct {
	Session model.Session
	Total   float64
}

// Status is the state of one activity today.
type Status struct {
	Activity   string
	Running    bool
	StartLabel string
	Elapsed    float64
	Total      float64
	Sessions   int
}

// Summary aggregates one activity's sessions for the day.
type Summary struct {
	Activity string  `json:"activity" yaml:"activity"`
	Sessions int     `json:"sessions" yaml:"sessions"`
	Total    float64 `json:"total" yaml:"total"`
}

// Start begins timing activity and returns the recorded start label. If the
// activity is already running the record is left alone and the returned
// label is the original one, alongside ErrAlreadyRunning.
func (l *Ledger) Start(activity string) (string, error) {
	now := l.now()
	var label string
	err := l.store.Update(activity, now, func(rec *model.Record) (bool, error) {
		if rec.Running() {
			label = rec.StartLabel
			return false, ErrAlreadyRunning
		}
		start := model.EpochOf(now)
		rec.Start = &start
		rec.StartLabel = timecalc.Label(now)
		if rec.Sessions == nil {
			rec.Sessions = []model.Session{}
		}
		label = rec.StartLabel
		return true, nil
	})
	if err == nil {
		l.log.Debug("started activity", "activity", activity, "at", label)
	}
	return label, err
}

// Stop ends the running session of activity, appends it to the day's
// sessions and adds its duration to the total.
func (l *Ledger) Stop(activity string) (StopResult, error) {
	now := l.now()
	var res StopResult
	err := l.store.Update(activity, now, func(rec *model.Record) (bool, error) {
		if !rec.Running() {
			return false, ErrNotRunning
		}
		session := model.Session{
			Start:       rec.StartLabel,
			End:         timecalc.Label(now),
			DurationSec: model.RoundDuration(now.Sub(rec.Start.Time()).Seconds()),
		}
		rec.Sessions = append(rec.Sessions, session)
		rec.Total += session.DurationSec
		rec.Start = nil
		rec.StartLabel = ""

		res = StopResult{Session: session, Total: rec.Total}
		return true, nil
	})
	if err == nil {
		l.log.Debug("stopped activity", "activity", activity, "duration_sec", res.Session.DurationSec)
	}
	return res, err
}

// Status reports every activity recorded today, sorted by name.
func (l *Ledger) Status() ([]Status, error) {
	now := l.now()
	names, err := l.store.Activities(now)
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(names))
	for _, name := range names {
		rec, err := l.store.Load(name, now)
		if err != nil {
			return nil, err
		}
		st := Status{
			Activity: name,
			Running:  rec.Running(),
			Total:    rec.Total,
			Sessions: len(rec.Sessions),
		}
		if st.Running {
			st.StartLabel = rec.StartLabel
			st.Elapsed = now.Sub(rec.Start.Time()).Seconds()
		}
		out = append(out, st)
	}
	return out, nil
}

// History returns today's sessions for activity in stored order together
// with the day's total. An activity that never ran has no sessions.
func (l *Ledger) History(activity string) ([]model.Session, float64, error) {
	rec, err := l.store.Load(activity, l.now())
	if err != nil {
		return nil, 0, err
	}
	return rec.Sessions, rec.Total, nil
}

// Summaries returns the session count and total of every activity today.
func (l *Ledger) Summaries() ([]Summary, error) {
	now := l.now()
	names, err := l.store.Activities(now)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(names))
	for _, name := range names {
		rec, err := l.store.Load(name, now)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{Activity: name, Sessions: len(rec.Sessions), Total: rec.Total})
	}
	return out, nil
}

// Has reports whether the record for (activity, day) already holds a session
// imported under externalID. It never writes.
func (l *Ledger) Has(activity string, day time.Time, externalID string) (bool, error) {
	if externalID == "" {
		return false, nil
	}
	rec, err := l.store.Peek(activity, day)
	if err != nil {
		return false, err
	}
	for _, s := range rec.Sessions {
		if s.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

// Import appends a completed session to activity's record for day unless a
// session with the same external ID is already present. It reports whether
// the session was added. Running state is left untouched.
func (l *Ledger) Import(activity string, day time.Time, session model.Session) (bool, error) {
	added := false
	err := l.store.Update(activity, day, func(rec *model.Record) (bool, error) {
		if session.ExternalID != "" {
			for _, s := range rec.Sessions {
				if s.ExternalID == session.ExternalID {
					return false, nil
				}
			}
		}
		rec.Sessions = append(rec.Sessions, session)
		rec.Total += session.DurationSec
		added = true
		return true, nil
	})
	return added, err
}
