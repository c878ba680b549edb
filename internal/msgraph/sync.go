package msgraph

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Tiliavir/stopwatch/internal/model"
	"github.com/Tiliavir/stopwatch/internal/timecalc"
)

// Importer appends a completed session to an activity's record for a day,
// reporting false when the session is already present. Has looks up an
// imported session without writing.
type Importer interface {
	Has(activity string, day time.Time, externalID string) (bool, error)
	Import(activity string, day time.Time, session model.Session) (bool, error)
}

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	Activity string
	// Timezone is the IANA zone Graph was asked to report times in.
	Timezone string
	DryRun   bool
	// Out receives one progress line per event.
	Out io.Writer
}

// parseGraphTime parses a Graph dateTime string. Graph returns zone-less
// values like "2026-02-27T09:00:00.0000000" in the requested timezone.
func parseGraphTime(dt, tz string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t, nil
	}

	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// shouldSkip reports whether an event is not time worth importing.
func shouldSkip(event CalendarEvent) bool {
	switch {
	case event.IsCancelled, event.IsAllDay:
		return true
	case event.Sensitivity == "private", event.ShowAs == "free":
		return true
	case event.Start.DateTime == "", event.End.DateTime == "":
		return true
	}
	return false
}

// MapEventToSession converts a Graph event into a completed Session with
// local-time labels. The returned time is the local start instant, which
// decides the day the session is filed under.
func MapEventToSession(event CalendarEvent, timezone string) (model.Session, time.Time, error) {
	zone := timezone
	if zone == "" {
		zone = event.Start.TimeZone
	}
	start, err := parseGraphTime(event.Start.DateTime, zone)
	if err != nil {
		return model.Session{}, time.Time{}, fmt.Errorf("parsing start time: %w", err)
	}
	end, err := parseGraphTime(event.End.DateTime, zone)
	if err != nil {
		return model.Session{}, time.Time{}, fmt.Errorf("parsing end time: %w", err)
	}
	if end.Before(start) {
		return model.Session{}, time.Time{}, errors.New("event ends before it starts")
	}

	start, end = start.Local(), end.Local()
	return model.Session{
		Start:       timecalc.Label(start),
		End:         timecalc.Label(end),
		DurationSec: model.RoundDuration(end.Sub(start).Seconds()),
		ExternalID:  event.ID,
	}, start, nil
}

// SyncEvents imports every eligible event into opts.Activity.
func SyncEvents(imp Importer, events []CalendarEvent, opts SyncOptions) SyncResult {
	var result SyncResult
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	for _, event := range events {
		if shouldSkip(event) {
			continue
		}

		session, start, err := MapEventToSession(event, opts.Timezone)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}
		dur := timecalc.FormatHHMMSS(session.DurationSec)

		exists, err := imp.Has(opts.Activity, start, session.ExternalID)
		if err != nil {
			fmt.Fprintf(out, "  ! Error reading %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}
		if exists {
			fmt.Fprintf(out, "  - Skipped:  %s (already imported)\n", event.Subject)
			result.Skipped++
			continue
		}

		if opts.DryRun {
			fmt.Fprintf(out, "  ~ Would import: %s (%s)\n", event.Subject, dur)
			result.Imported++
			continue
		}

		added, err := imp.Import(opts.Activity, start, session)
		if err != nil {
			fmt.Fprintf(out, "  ! Error saving %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}
		if !added {
			fmt.Fprintf(out, "  - Skipped:  %s (already imported)\n", event.Subject)
			result.Skipped++
			continue
		}
		fmt.Fprintf(out, "  + Imported: %s (%s)\n", event.Subject, dur)
		result.Imported++
	}

	return result
}
