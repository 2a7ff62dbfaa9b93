package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Sternrassler/tracker-feed/pkg/feed"
)

// backupSuffix names the previous generation of the cache file. It is kept
// as the fallback when the canonical file turns out unreadable.
const backupSuffix = ".bak"

type fileCategory struct {
	Newest *time.Time `json:"newest_timestamp"`
	Oldest *time.Time `json:"oldest_timestamp"`
	Count  int        `json:"count"`
}

type fileMetadata struct {
	CreatedAt         *time.Time              `json:"created_at"`
	UpdatedAt         *time.Time              `json:"updated_at"`
	DefaultWindowDays int                     `json:"default_window_days"`
	Categories        map[string]fileCategory `json:"categories"`
}

// cacheFile is the on-disk shape. The legacy flat format carried a single
// top-level timestamp and no metadata object; both shapes decode into this
// struct and the presence of Metadata tells them apart.
type cacheFile struct {
	Metadata  *fileMetadata  `json:"metadata,omitempty"`
	Data      []feed.Torrent `json:"data"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
}

// load populates the store from disk: canonical file first, backup second,
// empty store last. Never returns an error; failures are logged and counted.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info().Str("path", s.path).Msg("No cache file, starting empty")
		return
	}

	if err == nil {
		if lerr := s.loadBytes(data); lerr == nil {
			s.logger.Info().
				Str("path", s.path).
				Int("records", len(s.records)).
				Msg("Cache loaded")
			return
		} else {
			s.logger.Warn().Err(lerr).Str("path", s.path).Msg("Cache file unreadable")
		}
	} else {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Cache file unreadable")
	}

	backupPath := s.path + backupSuffix
	if bdata, berr := os.ReadFile(backupPath); berr == nil {
		if lerr := s.loadBytes(bdata); lerr == nil {
			LoadFallbacks.WithLabelValues("backup").Inc()
			s.logger.Warn().
				Str("path", backupPath).
				Int("records", len(s.records)).
				Msg("Cache restored from backup")
			return
		}
	}

	LoadFallbacks.WithLabelValues("empty").Inc()
	s.logger.Error().Str("path", s.path).Msg("Cache unrecoverable, starting empty")
	s.records = nil
	s.createdAt = time.Time{}
	s.updatedAt = time.Time{}
	s.categories = map[string]CategoryMetadata{}
}

func (s *Store) loadBytes(data []byte) error {
	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode cache file: %w", err)
	}

	s.records = file.Data
	feed.SortByTimestampDesc(s.records)

	// Metadata is derived, never trusted: rebuilding on load guarantees it
	// can never drift from the record set.
	s.categories = rebuildCategoryMetadata(s.records)

	if file.Metadata == nil {
		// Legacy flat format: the single timestamp becomes both created_at
		// and updated_at, the window falls back to the default. Re-saving
		// immediately makes the migration a one-time event.
		if file.Timestamp != nil {
			s.createdAt = *file.Timestamp
			s.updatedAt = *file.Timestamp
		}
		s.windowDays = DefaultWindowDays

		Migrations.Inc()
		s.logger.Info().
			Int("records", len(s.records)).
			Msg("Migrated cache from legacy format")
		s.persistLocked()
		return nil
	}

	if file.Metadata.CreatedAt != nil {
		s.createdAt = *file.Metadata.CreatedAt
	}
	if file.Metadata.UpdatedAt != nil {
		s.updatedAt = *file.Metadata.UpdatedAt
	}
	if file.Metadata.DefaultWindowDays > 0 {
		s.windowDays = file.Metadata.DefaultWindowDays
	}

	return nil
}

// persistLocked writes the store to disk. Must be called with s.mu held (or
// before the store is shared). The write is atomic: serialize to a temp
// file in the same directory, keep the previous file as the backup, rename
// the temp file over the canonical path. A failed write leaves the previous
// durable state intact and the in-memory state stays authoritative.
func (s *Store) persistLocked() {
	if err := s.writeFile(); err != nil {
		PersistErrors.Inc()
		s.logger.Error().Err(err).Str("path", s.path).Msg("Cache persist failed")
	}
}

func (s *Store) writeFile() error {
	file := cacheFile{
		Metadata: &fileMetadata{
			DefaultWindowDays: s.windowDays,
			Categories:        make(map[string]fileCategory, len(s.categories)),
		},
		Data: s.records,
	}
	if file.Data == nil {
		file.Data = []feed.Torrent{}
	}
	if !s.createdAt.IsZero() {
		created := s.createdAt
		file.Metadata.CreatedAt = &created
	}
	if !s.updatedAt.IsZero() {
		updated := s.updatedAt
		file.Metadata.UpdatedAt = &updated
	}
	for cat, meta := range s.categories {
		newest, oldest := meta.Newest, meta.Oldest
		file.Metadata.Categories[cat] = fileCategory{
			Newest: &newest,
			Oldest: &oldest,
			Count:  meta.Count,
		}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp cache file: %w", err)
	}

	// Keep the previous generation around as the corruption fallback.
	if _, err := os.Stat(s.path); err == nil {
		if err := os.Rename(s.path, s.path+backupSuffix); err != nil {
			s.logger.Warn().Err(err).Msg("Could not rotate cache backup")
		}
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace cache file: %w", err)
	}

	return nil
}
