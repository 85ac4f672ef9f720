// Package preset persists the limits last chosen by a user, so the
// interactive tools start where they were left.
package preset

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/npillmayer/scurve"
)

// Default are the limits used when no preset has been saved yet: a move
// saturating both acceleration and velocity.
var Default = scurve.L(1, 0.5, 0.3, 1)

// DefaultPath returns the preset file location in the user's config
// directory, or a file in the working directory if there is none.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		slog.Debug("no user config dir, using working directory", "error", err)
		return "scurve.json"
	}
	return filepath.Join(dir, "scurve", "limits.json")
}

// Exists returns whether the given file exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "could not check preset file stats")
}

func lock(path string) *flock.Flock {
	return flock.New(path + ".lock")
}

// Load reads limits from path. A missing file yields Default. Loaded limits
// are validated.
func Load(path string) (scurve.Limits, error) {
	exists, err := Exists(path)
	if err != nil {
		return Default, err
	}
	if !exists {
		return Default, nil
	}
	fl := lock(path)
	if err := fl.RLock(); err != nil {
		return Default, errors.Wrap(err, "could not lock preset file")
	}
	defer fl.Unlock()
	data, err := os.ReadFile(path)
	if err != nil {
		return Default, errors.Wrap(err, "could not read preset file")
	}
	var l scurve.Limits
	if err := json.Unmarshal(data, &l); err != nil {
		return Default, errors.Wrapf(err, "could not parse preset file %s", path)
	}
	if err := l.Validate(); err != nil {
		return Default, errors.Wrapf(err, "preset file %s", path)
	}
	return l, nil
}

// Save writes limits to path, replacing the file atomically. Invalid limits
// are not saved.
func Save(path string, l scurve.Limits) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "could not create preset directory")
	}
	fl := lock(path)
	if err := fl.Lock(); err != nil {
		return errors.Wrap(err, "could not lock preset file")
	}
	defer fl.Unlock()
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not encode limits")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "could not write preset file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "could not replace preset file")
	}
	slog.Debug("saved preset", "path", path, "limits", l.String())
	return nil
}
