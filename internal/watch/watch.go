// Package watch notifies about changes to the activity records of a day.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

const recordOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Relevant reports whether ev touches an activity record. Temp files written
// during atomic saves and corrupt-file backups are ignored; the final rename
// onto the record shows up as a Create of the .json name.
func Relevant(ev fsnotify.Event) bool {
	return filepath.Ext(ev.Name) == ".json" && ev.Op&recordOps != 0
}

// Dir calls onChange for every relevant event in dir until ctx is done.
// dir must exist.
func Dir(ctx context.Context, dir string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if Relevant(ev) {
				slog.Debug("record changed", "file", ev.Name, "op", ev.Op.String())
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
}
