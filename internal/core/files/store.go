// Package files manages uploaded PM files on disk: content-addressed
// storage under a single upload directory plus a scheduled retention
// sweep that removes stale uploads.
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StoredFile describes one retained upload.
type StoredFile struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	Path         string    `json:"-"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Store persists uploads and enforces retention.
type Store struct {
	dir       string
	retention time.Duration
	logger    *logrus.Logger
	cron      *cron.Cron
}

// NewStore creates the upload directory if needed. retentionHours <= 0
// disables the sweep entirely.
func NewStore(dir string, retentionHours int, logger *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{
		dir:       dir,
		retention: time.Duration(retentionHours) * time.Hour,
		logger:    logger,
	}, nil
}

// Save writes the upload under a UUID-prefixed name so concurrent
// uploads of identically named files never collide.
func (s *Store) Save(originalName string, r io.Reader) (*StoredFile, error) {
	id := uuid.New().String()
	name := id + "_" + filepath.Base(originalName)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write upload file: %w", err)
	}

	return &StoredFile{
		ID:           id,
		OriginalName: filepath.Base(originalName),
		Path:         path,
		Size:         size,
		UploadedAt:   time.Now().UTC(),
	}, nil
}

// List returns the retained uploads, newest first.
func (s *Store) List() ([]StoredFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	var files []StoredFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		id, original := splitStoredName(entry.Name())
		files = append(files, StoredFile{
			ID:           id,
			OriginalName: original,
			Path:         filepath.Join(s.dir, entry.Name()),
			Size:         info.Size(),
			UploadedAt:   info.ModTime().UTC(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].UploadedAt.After(files[j].UploadedAt)
	})
	return files, nil
}

// StartSweeper schedules the retention sweep with the given cron
// expression. A sweep also runs immediately so a restart cannot extend
// retention.
func (s *Store) StartSweeper(schedule string) error {
	if s.retention <= 0 {
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return fmt.Errorf("failed to schedule retention sweep: %w", err)
	}
	s.cron.Start()
	go s.Sweep()
	return nil
}

// StopSweeper stops the scheduled sweep, waiting for a running sweep to
// finish.
func (s *Store) StopSweeper() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep deletes uploads older than the retention window.
func (s *Store) Sweep() {
	cutoff := time.Now().Add(-s.retention)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.WithError(err).Error("retention sweep failed to read upload directory")
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
				s.logger.WithError(err).WithField("file", entry.Name()).Warn("failed to remove expired upload")
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("retention sweep removed expired uploads")
	}
}

func splitStoredName(name string) (id, original string) {
	if i := strings.Index(name, "_"); i > 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
