package install_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Tiliavir/stopwatch/internal/install"
)

func fakeExecutable(t *testing.T) string {
	t.Helper()
	exe := filepath.Join(t.TempDir(), "stopwatch")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return exe
}

func TestInstallUnixSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}
	exe := fakeExecutable(t)
	target := filepath.Join(t.TempDir(), "bin-stopwatch")

	// An existing file at the target is replaced.
	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := install.Install(install.Options{GOOS: "linux", Executable: exe, Target: target})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if got != target {
		t.Errorf("Install path = %q, want %q", got, target)
	}
	dest, err := os.Readlink(target)
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if dest != exe {
		t.Errorf("symlink points to %q, want %q", dest, exe)
	}
	info, err := os.Stat(exe)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&0o100 == 0 {
		t.Errorf("executable mode = %v, want user exec bit", info.Mode())
	}
}

func TestInstallWindowsBatch(t *testing.T) {
	exe := fakeExecutable(t)
	profile := t.TempDir()

	got, err := install.Install(install.Options{GOOS: "windows", Executable: exe, ProfileDir: profile})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if want := filepath.Join(profile, "stopwatch.bat"); got != want {
		t.Errorf("Install path = %q, want %q", got, want)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatal(err)
	}
	want := "@echo off\r\n\"" + exe + "\" %*\r\n"
	if string(data) != want {
		t.Errorf("batch file = %q, want %q", data, want)
	}
}

func TestInstallErrors(t *testing.T) {
	exe := fakeExecutable(t)

	if _, err := install.Install(install.Options{GOOS: "plan9", Executable: exe}); !errors.Is(err, install.ErrUnsupportedOS) {
		t.Errorf("plan9 error = %v, want ErrUnsupportedOS", err)
	}
	if _, err := install.Install(install.Options{GOOS: "linux", Executable: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("expected error for missing executable")
	}
	if _, err := install.Install(install.Options{GOOS: "windows", Executable: exe}); err == nil {
		t.Error("expected error without profile directory")
	}
}
