// Package jsonfile persists each record type as a JSON array in its own file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/moby/sys/atomicwriter"
	"github.com/rs/zerolog/log"
)

const backupMarker = ".backup-"

// StorageWriteError wraps any failure to persist a file.
type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("failed to write JSON file %s: %v", e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

// StorageReadError reports a file that holds valid JSON of the wrong shape.
// Such a file is left in place for an operator to repair.
type StorageReadError struct {
	Path string
	Err  error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("failed to decode JSON file %s: %v", e.Path, e.Err)
}

func (e *StorageReadError) Unwrap() error {
	return e.Err
}

var now = time.Now

// ReadJSON decodes the file at path. A missing file is created holding
// defaultValue. A file that is not valid JSON is moved aside to a timestamped
// backup and replaced by defaultValue; valid JSON that does not fit T is
// returned as a *StorageReadError and left untouched.
func ReadJSON[T any](ctx context.Context, path string, defaultValue T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return zero, fmt.Errorf("failed to read JSON file %s: %w", path, err)
		}
		if err := WriteJSON(ctx, path, defaultValue); err != nil {
			return zero, err
		}
		return defaultValue, nil
	}

	if json.Valid(data) {
		var out T
		if err := json.Unmarshal(data, &out); err != nil {
			return zero, &StorageReadError{Path: path, Err: err}
		}
		return out, nil
	}

	log.Warn().Str("path", path).Msg("Corrupted JSON file, restoring defaults")

	if backup, berr := backupFile(path); berr != nil {
		log.Error().Err(berr).Str("path", path).Msg("Failed to back up corrupted file")
	} else {
		log.Info().Str("backup", backup).Msg("Created backup of corrupted file")
	}

	if err := WriteJSON(ctx, path, defaultValue); err != nil {
		return zero, err
	}
	return defaultValue, nil
}

// WriteJSON replaces the file at path with data. The new content is written
// to a temporary sibling and renamed into place, so readers see either the
// old file or the new one.
func WriteJSON[T any](ctx context.Context, path string, data T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return &StorageWriteError{Path: path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &StorageWriteError{Path: path, Err: err}
	}

	if err := atomicwriter.WriteFile(path, payload, 0o644); err != nil {
		return &StorageWriteError{Path: path, Err: err}
	}
	return nil
}

// BackupPath is where a corrupted file at path is moved at time t.
func BackupPath(path string, t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return path + backupMarker + stamp
}

func backupFile(path string) (string, error) {
	backup := BackupPath(path, now())
	if err := os.Rename(path, backup); err != nil {
		return "", err
	}
	return backup, nil
}

// PruneBackups removes corrupted-file backups in dir last modified before
// olderThan and returns how many were removed.
func PruneBackups(dir string, olderThan time.Time) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+backupMarker+"*"))
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if info.IsDir() || !info.ModTime().Before(olderThan) {
			continue
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// collection is one JSON array file plus the lock that serializes its
// read-modify-write cycles within this process.
type collection[T any] struct {
	mu   sync.Mutex
	path string
	seed func() []T
}

func newCollection[T any](path string, seed func() []T) *collection[T] {
	return &collection[T]{path: path, seed: seed}
}

func (c *collection[T]) load(ctx context.Context) ([]T, error) {
	items, err := ReadJSON(ctx, c.path, c.seed())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *collection[T]) save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return WriteJSON(ctx, c.path, items)
}
