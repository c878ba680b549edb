// Package install puts the stopwatch executable on the user's PATH: a
// symlink on Linux and macOS, a forwarding batch file on Windows.
package install

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultUnixTarget is where the symlink is created on Linux and macOS.
const DefaultUnixTarget = "/usr/local/bin/stopwatch"

// ErrUnsupportedOS is returned for platforms without an install strategy.
var ErrUnsupportedOS = errors.New("unsupported OS")

// ErrPermission wraps permission failures so callers can suggest sudo.
var ErrPermission = errors.New("permission denied")

// Options describes one installation.
type Options struct {
	// GOOS selects the strategy, normally runtime.GOOS.
	GOOS string
	// Executable is the binary to expose.
	Executable string
	// Target overrides the default link (Unix) or batch file (Windows) path.
	Target string
	// ProfileDir is the user's profile directory, used on Windows when
	// Target is empty.
	ProfileDir string
}

// Install creates the launcher described by opts and returns its path.
func Install(opts Options) (string, error) {
	if _, err := os.Stat(opts.Executable); err != nil {
		return "", fmt.Errorf("executable %s: %w", opts.Executable, err)
	}

	switch opts.GOOS {
	case "linux", "darwin":
		target := opts.Target
		if target == "" {
			target = DefaultUnixTarget
		}
		return target, linkUnix(opts.Executable, target)
	case "windows":
		target := opts.Target
		if target == "" {
			if opts.ProfileDir == "" {
				return "", errors.New("USERPROFILE is not set")
			}
			target = filepath.Join(opts.ProfileDir, "stopwatch.bat")
		}
		return target, writeBatch(opts.Executable, target)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedOS, opts.GOOS)
	}
}

// linkUnix replaces target with a symlink to exe and makes exe executable.
func linkUnix(exe, target string) error {
	if _, err := os.Lstat(target); err == nil {
		if err := os.Remove(target); err != nil {
			return wrapPermission(fmt.Errorf("removing existing %s: %w", target, err))
		}
	}
	if err := os.Symlink(exe, target); err != nil {
		return wrapPermission(fmt.Errorf("creating symlink %s: %w", target, err))
	}

	info, err := os.Stat(exe)
	if err != nil {
		return fmt.Errorf("stat %s: %w", exe, err)
	}
	if err := os.Chmod(exe, info.Mode()|0o111); err != nil {
		return wrapPermission(fmt.Errorf("making %s executable: %w", exe, err))
	}
	return nil
}

// writeBatch writes a launcher that forwards all arguments to exe.
func writeBatch(exe, target string) error {
	script := fmt.Sprintf("@echo off\r\n\"%s\" %%*\r\n", exe)
	if err := os.WriteFile(target, []byte(script), 0o644); err != nil {
		return wrapPermission(fmt.Errorf("writing %s: %w", target, err))
	}
	return nil
}

func wrapPermission(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", ErrPermission, err)
	}
	return err
}
