package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/stopwatch/internal/ledger"
)

var startCmd = &cobra.Command{
	Use:   "start <activity>",
	Short: "Start timing an activity",
	Args:  exactArgs(1),
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	activity := args[0]
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	label, err := a.ledger.Start(activity)
	if errors.Is(err, ledger.ErrAlreadyRunning) {
		fmt.Fprintf(out, "%s is already running (since %s).\n", a.style.name(activity), label)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Started %s at %s\n", a.style.name(activity), label)
	return nil
}
