package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/Tiliavir/stopwatch/internal/model"
	"github.com/Tiliavir/stopwatch/internal/timecalc"
)

const recordExt = ".json"

// Store addresses activity records under a history root laid out as
// <root>/<YYYY-MM-DD>/<activity>.json.
type Store struct {
	Root string
	// Locking guards each Update with an advisory file lock kept under
	// <root>/.locks so that the day directories only ever hold records.
	Locking bool
	Logger  *slog.Logger
}

// New returns a Store rooted at root.
func New(root string, locking bool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{Root: root, Locking: locking, Logger: logger}
}

// DefaultRoot returns the History directory next to the running executable,
// following symlinks so an installed link still resolves to the real location.
func DefaultRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("cannot determine executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "History"), nil
}

// DayDir returns the directory holding all records for day.
func (s *Store) DayDir(day time.Time) string {
	return filepath.Join(s.Root, timecalc.DayKey(day))
}

// RecordPath returns the record location for (activity, day), creating the
// day directory if needed. Activity names are used verbatim.
func (s *Store) RecordPath(activity string, day time.Time) (string, error) {
	dir := s.DayDir(day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage error creating %s: %w", dir, err)
	}
	return filepath.Join(dir, activity+recordExt), nil
}

// Load returns the record for (activity, day). A missing record is an idle
// record with no sessions.
func (s *Store) Load(activity string, day time.Time) (model.Record, error) {
	path, err := s.RecordPath(activity, day)
	if err != nil {
		return model.Record{}, err
	}
	rec, err := Decode(path)
	if err != nil {
		return model.Record{}, err
	}
	s.Logger.Debug("loaded record", "path", path, "running", rec.Running(), "sessions", len(rec.Sessions))
	return rec, nil
}

// Peek is Load without side effects: the day directory is not created.
func (s *Store) Peek(activity string, day time.Time) (model.Record, error) {
	return Decode(filepath.Join(s.DayDir(day), activity+recordExt))
}

// Save overwrites the record for (activity, day).
func (s *Store) Save(activity string, day time.Time, rec model.Record) error {
	path, err := s.RecordPath(activity, day)
	if err != nil {
		return err
	}
	if err := Encode(path, rec); err != nil {
		return err
	}
	s.Logger.Debug("saved record", "path", path, "running", rec.Running(), "sessions", len(rec.Sessions))
	return nil
}

// Update loads the record for (activity, day), passes it to fn and saves it
// when fn reports a change. Nothing is written when fn returns false or an
// error.
func (s *Store) Update(activity string, day time.Time, fn func(rec *model.Record) (bool, error)) error {
	unlock, err := s.lock(activity, day)
	if err != nil {
		return err
	}
	defer unlock()

	rec, err := s.Load(activity, day)
	if err != nil {
		return err
	}
	changed, err := fn(&rec)
	if err != nil || !changed {
		return err
	}
	return s.Save(activity, day, rec)
}

// Activities lists the activity names that have a record for day, sorted.
// A day without a directory has no activities.
func (s *Store) Activities(day time.Time) ([]string, error) {
	entries, err := os.ReadDir(s.DayDir(day))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error listing %s: %w", s.DayDir(day), err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), recordExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) lock(activity string, day time.Time) (func(), error) {
	if !s.Locking {
		return func() {}, nil
	}
	path := filepath.Join(s.Root, ".locks", timecalc.DayKey(day), activity+".lock")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage error creating lock directory: %w", err)
	}
	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("storage error locking %s: %w", path, err)
	}
	s.Logger.Debug("acquired lock", "path", path)
	return func() {
		if err := fl.Unlock(); err != nil {
			s.Logger.Warn("releasing lock", "path", path, "err", err)
		}
	}, nil
}

// Decode reads the record stored at path. A missing file yields an idle
// record with an empty session list. Corrupt JSON is moved aside to
// <path>.corrupt and reported.
func Decode(path string) (model.Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return model.Record{Sessions: []model.Session{}}, nil
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return model.Record{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	if rec.Sessions == nil {
		rec.Sessions = []model.Session{}
	}
	return rec, nil
}

// Encode writes rec to path in full, replacing any previous content.
func Encode(path string, rec model.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}
