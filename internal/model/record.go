package model

import (
	"math"
	"time"
)

// Epoch is an absolute instant stored as unix seconds with a fractional part.
type Epoch float64

// EpochOf converts t into an Epoch.
func EpochOf(t time.Time) Epoch {
	return Epoch(float64(t.UnixNano()) / 1e9)
}

// Time returns the instant in the local time zone.
func (e Epoch) Time() time.Time {
	sec, frac := math.Modf(float64(e))
	return time.Unix(int64(sec), int64(math.Round(frac*1e9)))
}

// Session is one completed start/stop interval. Sessions are never modified
// once appended to a Record.
type Session struct {
	Start       string  `json:"start" yaml:"start"`
	End         string  `json:"end" yaml:"end"`
	DurationSec float64 `json:"duration_sec" yaml:"duration_sec"`
	ExternalID  string  `json:"external_id,omitempty" yaml:"external_id,omitempty"`
}

// Record is the persisted state of one activity on one calendar day.
// The presence of Start is the only thing that distinguishes a running
// record from an idle one.
type Record struct {
	Start      *Epoch    `json:"start,omitempty"`
	StartLabel string    `json:"start_time_str,omitempty"`
	Sessions   []Session `json:"sessions"`
	Total      float64   `json:"total"`
}

// Running reports whether the activity is currently being timed.
func (r *Record) Running() bool {
	return r.Start != nil
}

// RoundDuration rounds seconds to two decimal places, the precision sessions
// are persisted with.
func RoundDuration(seconds float64) float64 {
	return math.Round(seconds*100) / 100
}
