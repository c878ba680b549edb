package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/stopwatch/internal/msgraph"
	"github.com/Tiliavir/stopwatch/internal/timecalc"
)

var (
	outlookSyncDate     string
	outlookSyncActivity string
	outlookSyncTZ       string
	outlookSyncDryRun   bool
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import a day's Outlook meetings as sessions",
	Args:  exactArgs(0),
	RunE:  runOutlookSync,
}

func init() {
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Day to import (YYYY-MM-DD); defaults to today")
	outlookSyncCmd.Flags().StringVar(&outlookSyncActivity, "activity", "", "Activity that receives the meetings (default from config)")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (default from config)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned imports without writing")
	outlookCmd.AddCommand(outlookSyncCmd)
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	day := now()
	if outlookSyncDate != "" {
		d, err := timecalc.ParseDay(outlookSyncDate)
		if err != nil {
			return err
		}
		day = d
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	activity := outlookSyncActivity
	if activity == "" {
		activity = a.cfg.Outlook.Activity
	}
	timezone := outlookSyncTZ
	if timezone == "" {
		timezone = a.cfg.Outlook.Timezone
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
	}

	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(out, "Importing Outlook events for %s into %s%s...\n\n",
		timecalc.DayKey(day), a.style.name(activity), dryTag)

	ctx := cmd.Context()
	ts, err := msgraph.Authenticate(ctx, a.cfg.Outlook.TenantID, a.cfg.Outlook.ClientID, out)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	client := msgraph.NewClient(ctx, ts)

	events, err := client.GetCalendarView(ctx, timecalc.StartOfDay(day), timecalc.EndOfDay(day), timezone)
	if err != nil {
		return fmt.Errorf("failed to fetch calendar events: %w", err)
	}

	result := msgraph.SyncEvents(a.ledger, events, msgraph.SyncOptions{
		Activity: activity,
		Timezone: timezone,
		DryRun:   outlookSyncDryRun,
		Out:      out,
	})

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  %d imported\n", result.Imported)
	fmt.Fprintf(out, "  %d skipped\n", result.Skipped)
	if result.Errors > 0 {
		return fmt.Errorf("%d events could not be imported", result.Errors)
	}
	return nil
}
