// Package history persists the alert history between scheduled runs.
//
// The history is a small JSON file, indented so it stays human-readable and
// diffable — the deployment commits it to version control between runs. An
// absent file is a normal first-run condition, and a corrupt file is
// recovered as an empty history rather than aborting: a duplicate alert is
// preferred over the system going permanently silent.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"freezewatch/internal/types"
)

// FileStore loads and saves the alert history at a fixed path.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a FileStore for the given path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

// Load reads the persisted history. An absent file returns a zero-value
// history; unparseable content is logged and also returns a zero-value
// history. Only an I/O failure on an existing file is returned as an error,
// and even then the zero-value history accompanies it so the caller can
// choose to continue.
func (s *FileStore) Load(ctx context.Context) (types.AlertHistory, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.AlertHistory{}, nil
		}
		return types.AlertHistory{}, types.NewAppError(
			types.ErrCodeInternalHistoryIO,
			fmt.Sprintf("reading history file %s", s.path),
			err,
		)
	}

	var h types.AlertHistory
	if err := json.Unmarshal(data, &h); err != nil {
		s.logger.WarnContext(ctx, "history file corrupt, starting from empty history",
			"path", s.path,
			"error", err,
		)
		return types.AlertHistory{}, nil
	}

	return h, nil
}

// Save overwrites the persisted history atomically: the new content is
// written to a temp file in the same directory, synced, then renamed over
// the target so a crash mid-write leaves the previous valid state intact.
func (s *FileStore) Save(ctx context.Context, h types.AlertHistory) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalHistoryIO,
			"encoding history",
			err,
		)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return types.NewAppError(
			types.ErrCodeInternalHistoryIO,
			fmt.Sprintf("creating temp file in %s", dir),
			err,
		)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return types.NewAppError(
			types.ErrCodeInternalHistoryIO,
			fmt.Sprintf("writing temp history file %s", tmpName),
			err,
		)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return types.NewAppError(
			types.ErrCodeInternalHistoryIO,
			fmt.Sprintf("syncing temp history file %s", tmpName),
			err,
		)
	}
	if err := tmp.Close(); err != nil {
		return types.NewAppError(
			types.ErrCodeInternalHistoryIO,
			fmt.Sprintf("closing temp history file %s", tmpName),
			err,
		)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return types.NewAppError(
			types.ErrCodeInternalHistoryIO,
			fmt.Sprintf("replacing history file %s", s.path),
			err,
		)
	}

	s.logger.InfoContext(ctx, "history saved", "path", s.path)
	return nil
}
