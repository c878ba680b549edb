package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/stopwatch/internal/ledger"
	"github.com/Tiliavir/stopwatch/internal/model"
)

// cli runs commands against a temporary history root with a settable clock.
type cli struct {
	t       *testing.T
	history string
	clock   time.Time
}

func newCLI(t *testing.T, start time.Time) *cli {
	t.Helper()
	c := &cli{t: t, history: t.TempDir(), clock: start}
	t.Setenv("STOPWATCH_CONFIG_DIR", t.TempDir())
	t.Setenv("STOPWATCH_HISTORY_DIR", c.history)

	prev := now
	now = func() time.Time { return c.clock }
	t.Cleanup(func() { now = prev })
	return c
}

func (c *cli) run(args ...string) string {
	c.t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	if err := run(args, &out, &errOut); err != nil {
		c.t.Fatalf("run %v: %v (stderr: %s)", args, err, errOut.String())
	}
	return out.String()
}

// resetFlags clears flag values left over from an earlier run, including
// cobra's per-command help flags.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func (c *cli) advance(d time.Duration) { c.clock = c.clock.Add(d) }

func (c *cli) dayDir() string {
	return filepath.Join(c.history, c.clock.Format("2006-01-02"))
}

func at(h, m, s int) time.Time {
	return time.Date(2026, 2, 27, h, m, s, 0, time.Local)
}

func TestMalformedInputPrintsUsage(t *testing.T) {
	tests := [][]string{
		{},
		{"start"},
		{"stop"},
		{"start", "a", "b"},
		{"stop", "a", "b"},
		{"bogus"},
		{"bogus", "reading"},
		{"start", "--nope", "reading"},
		{"history", "--format", "xml"},
		{"help"},
		{"help", "start"},
		{"completion", "bash"},
		{"--help"},
		{"start", "-h"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			c := newCLI(t, at(10, 0, 0))
			got := c.run(args...)
			if got != usageMessage+"\n" {
				t.Errorf("output = %q, want usage", got)
			}
			if _, err := os.Stat(c.history); err == nil {
				entries, _ := os.ReadDir(c.history)
				if len(entries) != 0 {
					t.Errorf("usage error touched history: %v", entries)
				}
			}
		})
	}
}

func TestStartStopScenario(t *testing.T) {
	c := newCLI(t, at(10, 0, 0))

	if got, want := c.run("start", "reading"), "Started 'reading' at 2026-02-27 10:00:00\n"; got != want {
		t.Errorf("start output = %q, want %q", got, want)
	}
	c.advance(90 * time.Second)
	if got, want := c.run("stop", "reading"), "Stopped 'reading' after 00:01:30 (total 00:01:30)\n"; got != want {
		t.Errorf("stop output = %q, want %q", got, want)
	}

	data, err := os.ReadFile(filepath.Join(c.dayDir(), "reading.json"))
	if err != nil {
		t.Fatalf("reading record: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc["start"]; ok {
		t.Error("idle record still has a start key")
	}
	if _, ok := doc["start_time_str"]; ok {
		t.Error("idle record still has a start_time_str key")
	}
	if doc["total"] != 90.0 {
		t.Errorf("total = %v, want 90", doc["total"])
	}
}

func TestStartTwiceReportsRunning(t *testing.T) {
	c := newCLI(t, at(9, 0, 0))
	c.run("start", "work")
	c.advance(time.Minute)

	if got, want := c.run("start", "work"), "'work' is already running (since 2026-02-27 09:00:00).\n"; got != want {
		t.Errorf("second start output = %q, want %q", got, want)
	}
	c.advance(time.Minute)
	if got, want := c.run("stop", "work"), "Stopped 'work' after 00:02:00 (total 00:02:00)\n"; got != want {
		t.Errorf("stop output = %q, want %q", got, want)
	}
}

func TestStopGhost(t *testing.T) {
	c := newCLI(t, at(9, 0, 0))

	if got, want := c.run("stop", "ghost"), "'ghost' is not running.\n"; got != want {
		t.Errorf("stop output = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(c.dayDir(), "ghost.json")); !os.IsNotExist(err) {
		t.Errorf("ghost record should not exist, stat err = %v", err)
	}
}

func TestStatus(t *testing.T) {
	c := newCLI(t, at(9, 0, 0))

	if got, want := c.run("status"), "No activities recorded today.\n"; got != want {
		t.Errorf("empty status = %q, want %q", got, want)
	}
	// The day directory existing without records is still "none".
	c.run("stop", "ghost")
	if got, want := c.run("status", "ignored"), "No activities recorded today.\n"; got != want {
		t.Errorf("status with empty day dir = %q, want %q", got, want)
	}

	c.run("start", "work")
	c.advance(30 * time.Second)
	c.run("stop", "work")
	c.run("start", "reading")
	c.advance(2*time.Minute + 500*time.Millisecond)

	want := "reading running for 00:02:00 (started 2026-02-27 09:00:30)\n" +
		"work total 00:00:30, 1 sessions\n"
	if got := c.run("status"); got != want {
		t.Errorf("status = %q, want %q", got, want)
	}
}

func TestHistory(t *testing.T) {
	c := newCLI(t, at(10, 0, 0))

	if got, want := c.run("history", "reading"), "No history for 'reading'.\n"; got != want {
		t.Errorf("empty history = %q, want %q", got, want)
	}
	if got, want := c.run("history"), "No activities recorded today.\n"; got != want {
		t.Errorf("empty summary = %q, want %q", got, want)
	}

	for _, d := range []time.Duration{30 * time.Second, 45 * time.Second} {
		c.run("start", "reading")
		c.advance(d)
		c.run("stop", "reading")
		c.advance(time.Minute)
	}
	c.run("start", "work")

	want := "History for 'reading':\n" +
		"  2026-02-27 10:00:00 → 2026-02-27 10:00:30 (00:00:30)\n" +
		"  2026-02-27 10:01:30 → 2026-02-27 10:02:15 (00:00:45)\n"
	if got := c.run("history", "reading"); got != want {
		t.Errorf("history = %q, want %q", got, want)
	}

	want = "All activities today:\n" +
		"  reading: 2 sessions, total 00:01:15\n" +
		"  work: 0 sessions, total 00:00:00\n"
	if got := c.run("history"); got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
	if got := c.run("history", "a", "b"); got != want {
		t.Errorf("history with extra args = %q, want summary %q", got, want)
	}
}

func TestHistoryStructuredFormats(t *testing.T) {
	c := newCLI(t, at(10, 0, 0))
	c.run("start", "reading")
	c.advance(30 * time.Second)
	c.run("stop", "reading")

	var out, errOut bytes.Buffer
	historyFormat = "text"
	if err := run([]string{"history", "reading", "--format", "json"}, &out, &errOut); err != nil {
		t.Fatal(err)
	}
	var h activityHistory
	if err := json.Unmarshal(out.Bytes(), &h); err != nil {
		t.Fatalf("decoding JSON history: %v\n%s", err, out.String())
	}
	want := activityHistory{
		Activity: "reading",
		Sessions: []model.Session{{Start: "2026-02-27 10:00:00", End: "2026-02-27 10:00:30", DurationSec: 30}},
		Total:    30,
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("JSON history mismatch (-want +got):\n%s", diff)
	}

	out.Reset()
	if err := run([]string{"history", "--format", "yaml"}, &out, &errOut); err != nil {
		t.Fatal(err)
	}
	var sums []ledger.Summary
	if err := yaml.Unmarshal(out.Bytes(), &sums); err != nil {
		t.Fatalf("decoding YAML summary: %v\n%s", err, out.String())
	}
	if diff := cmp.Diff([]ledger.Summary{{Activity: "reading", Sessions: 1, Total: 30}}, sums); diff != "" {
		t.Errorf("YAML summary mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordsAreDayScoped(t *testing.T) {
	c := newCLI(t, at(23, 59, 0))
	c.run("start", "night")
	c.advance(2 * time.Minute)

	if got, want := c.run("stop", "night"), "'night' is not running.\n"; got != want {
		t.Errorf("stop after midnight = %q, want %q", got, want)
	}
	if got, want := c.run("history", "night"), "No history for 'night'.\n"; got != want {
		t.Errorf("history after midnight = %q, want %q", got, want)
	}
}
