package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/stopwatch/internal/install"
)

var installTarget string

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Put stopwatch on the PATH",
	Long: `install links the running binary to /usr/local/bin/stopwatch on Linux and
macOS, or writes %USERPROFILE%\stopwatch.bat on Windows.`,
	Args: exactArgs(0),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installTarget, "target", "", "Path of the link or launcher to create")
}

func runInstall(cmd *cobra.Command, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("cannot determine executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	out := cmd.OutOrStdout()

	path, err := install.Install(install.Options{
		GOOS:       runtime.GOOS,
		Executable: exe,
		Target:     installTarget,
		ProfileDir: os.Getenv("USERPROFILE"),
	})
	if errors.Is(err, install.ErrPermission) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Permission denied. Try running with sudo.")
	}
	if err != nil {
		return err
	}

	if runtime.GOOS == "windows" {
		fmt.Fprintf(out, "Batch file created: %s\n", path)
		fmt.Fprintln(out, "Make sure the folder is in your PATH.")
	} else {
		fmt.Fprintf(out, "Symlink created: %s\n", path)
	}
	fmt.Fprintln(out, "Test it with: stopwatch")
	return nil
}
