package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/stopwatch/internal/model"
	"github.com/Tiliavir/stopwatch/internal/timecalc"
)

var historyFormat string

var historyCmd = &cobra.Command{
	Use:   "history [activity]",
	Short: "Show today's sessions for one activity, or a summary of all",
	Args:  cobra.ArbitraryArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyFormat, "format", "text", "Output format: text, json, yaml")
}

// activityHistory is the structured form of a single-activity history.
type activityHistory struct {
	Activity string          `json:"activity" yaml:"activity"`
	Sessions []model.Session `json:"sessions" yaml:"sessions"`
	Total    float64         `json:"total" yaml:"total"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyFormat != "text" && historyFormat != "json" && historyFormat != "yaml" {
		return errUsage
	}
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	// Anything other than exactly one activity lists every activity.
	if len(args) != 1 {
		return printSummaries(out, a)
	}

	activity := args[0]
	sessions, total, err := a.ledger.History(activity)
	if err != nil {
		return err
	}
	if historyFormat != "text" {
		return encode(out, activityHistory{Activity: activity, Sessions: sessions, Total: total})
	}

	if len(sessions) == 0 {
		fmt.Fprintf(out, "No history for %s.\n", a.style.name(activity))
		return nil
	}
	fmt.Fprintf(out, "History for %s:\n", a.style.name(activity))
	for _, s := range sessions {
		fmt.Fprintf(out, "  %s → %s (%s)\n", s.Start, s.End, timecalc.FormatHHMMSS(s.DurationSec))
	}
	return nil
}

func printSummaries(out io.Writer, a *app) error {
	sums, err := a.ledger.Summaries()
	if err != nil {
		return err
	}
	if historyFormat != "text" {
		return encode(out, sums)
	}

	if len(sums) == 0 {
		fmt.Fprintln(out, "No activities recorded today.")
		return nil
	}
	fmt.Fprintln(out, "All activities today:")
	for _, s := range sums {
		fmt.Fprintf(out, "  %s: %d sessions, total %s\n",
			a.style.activity.Render(s.Activity), s.Sessions, timecalc.FormatHHMMSS(s.Total))
	}
	return nil
}

func encode(out io.Writer, v any) error {
	switch historyFormat {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
}
