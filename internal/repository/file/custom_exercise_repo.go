// Package file implements the custom exercise store as a JSON document on
// local disk with a parallel backup copy.
//
// Every mutation rewrites the full set. Each copy is written to a temp file
// in the same directory, synced, and renamed over the target, so a reader
// never observes a partially written file. The backup is written first; if
// the process dies between the two renames the backup already holds the new
// set and the primary still holds the previous one, both decodable.
//
// Load order is primary, then backup, then an empty set. Each fallback is
// logged and none is fatal.
package file

import (
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/zeebo/xxh3"
)

// BackupSuffix is appended to the primary path to name the backup copy.
const BackupSuffix = ".bak"

// Store implements repository.CustomExerciseRepository.
type Store struct {
	path       string
	backupPath string
	logger     *slog.Logger

	mu          sync.RWMutex
	records     []domain.Exercise // sorted by name
	fingerprint uint64            // xxh3 of the bytes last read or written
}

var _ repository.CustomExerciseRepository = (*Store)(nil)

// Open loads the store at path, creating its directory if needed. Corrupt or
// missing files never fail Open; only an unusable directory does.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &Store{
		path:       path,
		backupPath: path + BackupSuffix,
		logger:     logger.With("component", "custom-store", "path", path),
	}
	s.records, s.fingerprint = s.load()
	return s, nil
}

// Path returns the primary file path.
func (s *Store) Path() string { return s.path }

// Add inserts a new custom record.
func (s *Store) Add(ctx context.Context, ex domain.Exercise) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ex = normalize(ex)
	if err := repository.Validate(ex); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(ex.ID) >= 0 {
		return repository.ErrDuplicateID
	}
	next := append(cloneAll(s.records), ex)
	return s.commit(next)
}

// Update replaces the custom record with the same id.
func (s *Store) Update(ctx context.Context, ex domain.Exercise) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ex = normalize(ex)
	if err := repository.Validate(ex); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(ex.ID)
	if i < 0 {
		return repository.ErrNotFound
	}
	next := cloneAll(s.records)
	next[i] = ex
	return s.commit(next)
}

// Delete removes the custom record with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	next := make([]domain.Exercise, 0, len(s.records)-1)
	next = append(next, cloneAll(s.records[:i])...)
	next = append(next, cloneAll(s.records[i+1:])...)
	return s.commit(next)
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(_ context.Context, id string) (domain.Exercise, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.records[i].Clone(), true, nil
	}
	return domain.Exercise{}, false, nil
}

// All returns copies of every record, sorted by name.
func (s *Store) All(_ context.Context) ([]domain.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.records), nil
}

// Reload re-reads the files if the primary changed on disk since the last
// read or write. It reports whether the in-memory set was replaced.
// The lock is held throughout so a concurrent commit is never overwritten
// by an older read.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err == nil && xxh3.Hash(data) == s.fingerprint {
		return false, nil
	}
	s.records, s.fingerprint = s.load()
	s.logger.Info("Custom exercises reloaded", "count", len(s.records))
	return true, nil
}

// commit persists next and, only on success, makes it the live set.
// Caller holds s.mu.
func (s *Store) commit(next []domain.Exercise) error {
	sortByName(next)
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("encode custom exercises: %w", err)
	}
	if err := writeAtomic(s.backupPath, data); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("write primary: %w", err)
	}
	s.records = next
	s.fingerprint = xxh3.Hash(data)
	return nil
}

func (s *Store) load() ([]domain.Exercise, uint64) {
	records, fp, err := readSet(s.path)
	if err == nil {
		return records, fp
	}
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("Primary custom exercise file missing, trying backup")
	} else {
		s.logger.Warn("Primary custom exercise file unreadable, trying backup", "error", err)
	}

	records, _, berr := readSet(s.backupPath)
	if berr == nil {
		s.logger.Warn("Recovered custom exercises from backup", "count", len(records))
		// Fingerprint 0 forces the next Reload to re-read the primary.
		return records, 0
	}
	if errors.Is(err, os.ErrNotExist) && errors.Is(berr, os.ErrNotExist) {
		s.logger.Info("No custom exercise file yet, starting empty")
		return nil, 0
	}
	s.logger.Error("Custom exercise backup unreadable, starting empty", "error", berr)
	return nil, 0
}

func readSet(path string) ([]domain.Exercise, uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	var records []domain.Exercise
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, &repository.DecodeError{Source: path, Err: err}
	}
	kept := records[:0]
	for _, r := range records {
		if repository.Validate(r) != nil {
			continue
		}
		kept = append(kept, normalize(r))
	}
	sortByName(kept)
	return kept, xxh3.Hash(data), nil
}

func writeAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func normalize(ex domain.Exercise) domain.Exercise {
	ex = ex.Clone()
	ex.IsCustom = true
	if ex.Equipment == "" {
		ex.Equipment = domain.EquipmentOther
	}
	if ex.Movement == "" {
		ex.Movement = domain.MovementOther
	}
	return ex
}

func sortByName(records []domain.Exercise) {
	sort.SliceStable(records, func(i, j int) bool {
		return domain.LessByName(records[i], records[j])
	})
}

func cloneAll(in []domain.Exercise) []domain.Exercise {
	out := make([]domain.Exercise, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
