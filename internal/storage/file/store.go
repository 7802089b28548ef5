// Package file implements the payment ledger as a single JSON file. The whole
// file is loaded once at startup and rewritten on every mutation, so the file
// stays human-inspectable and safe to hand-edit between writes.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/whaydenschwartz-lang/SeeAgain/internal/domain"
)

type Store struct {
	path   string
	logger *log.Logger

	mu      sync.Mutex
	records map[string]domain.PaymentRecord
}

// Open loads the ledger at path. A missing or unreadable file degrades to an
// empty ledger so the engine still comes up after corruption or first boot.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	s := &Store{
		path:    path,
		logger:  logger,
		records: make(map[string]domain.PaymentRecord),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Printf("WARN: read ledger %s: %v, starting empty", path, err)
		}
		return s, nil
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		logger.Printf("WARN: ledger %s is corrupt: %v, starting empty", path, err)
		s.records = make(map[string]domain.PaymentRecord)
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, jobID string) (domain.PaymentRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[jobID]
	return rec, ok, nil
}

// Put updates the record and rewrites the file before returning. A failed write
// is logged but does not roll back the in-memory state: for the running process
// memory is the source of truth.
func (s *Store) Put(_ context.Context, rec domain.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.JobID] = rec
	if err := s.persist(); err != nil {
		s.logger.Printf("WARN: persist ledger %s: %v", s.path, err)
	}
	return nil
}

func (s *Store) All(_ context.Context) ([]domain.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PaymentRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out, nil
}

// persist writes the full ledger to a temp file, fsyncs it, then renames it
// into place. The rename keeps a crash from leaving a half-written ledger.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ledger-*")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
