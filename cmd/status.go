package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/stopwatch/internal/timecalc"
	"github.com/Tiliavir/stopwatch/internal/watch"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's activities",
	Args:  cobra.ArbitraryArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Reprint whenever today's records change")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if err := printStatus(out, a); err != nil {
		return err
	}
	if !statusWatch {
		return nil
	}

	// The day directory is fixed at startup; a watch left running past
	// midnight keeps following the day it began on.
	dir := a.store.DayDir(now())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage error creating %s: %w", dir, err)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var printErr error
	err = watch.Dir(ctx, dir, func() {
		fmt.Fprintln(out)
		if err := printStatus(out, a); err != nil {
			printErr = err
			stop()
		}
	})
	if err != nil {
		return err
	}
	return printErr
}

func printStatus(out io.Writer, a *app) error {
	sts, err := a.ledger.Status()
	if err != nil {
		return err
	}
	if len(sts) == 0 {
		fmt.Fprintln(out, "No activities recorded today.")
		return nil
	}

	for _, st := range sts {
		if st.Running {
			fmt.Fprintf(out, "%s %s for %s %s\n",
				a.style.activity.Render(st.Activity),
				a.style.running.Render("running"),
				timecalc.FormatHHMMSS(st.Elapsed),
				a.style.muted.Render("(started "+st.StartLabel+")"))
			continue
		}
		fmt.Fprintf(out, "%s total %s, %d sessions\n",
			a.style.activity.Render(st.Activity),
			timecalc.FormatHHMMSS(st.Total),
			st.Sessions)
	}
	return nil
}
