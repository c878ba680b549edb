package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/stopwatch/internal/ledger"
	"github.com/Tiliavir/stopwatch/internal/timecalc"
)

var stopCmd = &cobra.Command{
	Use:   "stop <activity>",
	Short: "Stop timing an activity and record the session",
	Args:  exactArgs(1),
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	activity := args[0]
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	res, err := a.ledger.Stop(activity)
	if errors.Is(err, ledger.ErrNotRunning) {
		fmt.Fprintf(out, "%s is not running.\n", a.style.name(activity))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Stopped %s after %s (total %s)\n",
		a.style.name(activity),
		timecalc.FormatHHMMSS(res.Session.DurationSec),
		timecalc.FormatHHMMSS(res.Total))
	return nil
}
