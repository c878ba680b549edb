package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/stopwatch/internal/config"
	"github.com/Tiliavir/stopwatch/internal/ledger"
	"github.com/Tiliavir/stopwatch/internal/storage"
)

const usageMessage = "Usage: stopwatch [start|stop|status|history] <activity>"

// errUsage marks a malformed command line. It is answered with the usage
// message and a zero exit code.
var errUsage = errors.New("usage")

// now is the clock every command reads; tests replace it.
var now = time.Now

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "stopwatch",
	Short: "stopwatch – time named activities from the command line",
	Long: `stopwatch starts and stops named activities and keeps one JSON file per
activity per day with every completed session and the day's total.`,
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return errUsage
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out, errOut io.Writer) error {
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	err := rootCmd.Execute()
	if errors.Is(err, errUsage) {
		fmt.Fprintln(out, usageMessage)
		return nil
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log storage activity to stderr")
	rootCmd.SetFlagErrorFunc(func(*cobra.Command, error) error { return errUsage })

	// help, --help and completion answer with the usage line like any other
	// unrecognised input.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), usageMessage)
	})
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "help",
		Hidden: true,
		RunE: func(*cobra.Command, []string) error {
			return errUsage
		},
	})

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(outlookCmd)
	rootCmd.AddCommand(installCmd)
}

// exactArgs is cobra.ExactArgs answering with the usage message.
func exactArgs(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return errUsage
		}
		return nil
	}
}

// app bundles what a command needs once the command line is known to be valid.
type app struct {
	cfg    config.Config
	store  *storage.Store
	ledger *ledger.Ledger
	style  styles
}

func loadApp(cmd *cobra.Command) (*app, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	root := cfg.HistoryDir
	if root == "" {
		if root, err = storage.DefaultRoot(); err != nil {
			return nil, err
		}
	}
	logger.Debug("using history root", "path", root, "lock", cfg.Lock)

	store := storage.New(root, cfg.Lock, logger)
	return &app{
		cfg:    cfg,
		store:  store,
		ledger: ledger.New(store, now, logger),
		style:  newStyles(cmd.OutOrStdout(), cfg.Color),
	}, nil
}
