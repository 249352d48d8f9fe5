package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/hanscompark/castleblock/pkg/block"
)

// FileStore keeps one JSON file per record under baseDir/<pageID>/. Page
// and block IDs must be validated by the caller; see errors.ValidatePageID
// and errors.ValidateBlockID.
//
// Attributes are written as a versioned document and read back through
// block.Decode, so files written by older releases are default-filled.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store. If baseDir is empty it defaults to
// ~/.local/share/castleblock/blocks.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "castleblock", "blocks")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) pageDir(pageID string) string {
	return filepath.Join(s.baseDir, pageID)
}

func (s *FileStore) recordPath(pageID, blockID string) string {
	return filepath.Join(s.pageDir(pageID), blockID+".json")
}

func (s *FileStore) Get(_ context.Context, pageID, blockID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readRecord(s.recordPath(pageID, blockID))
}

func (s *FileStore) Put(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attrs, err := block.Encode(rec.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	data, err := json.MarshalIndent(fileRecord{Record: *rec, Attributes: attrs}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := os.MkdirAll(s.pageDir(rec.PageID), 0o700); err != nil {
		return fmt.Errorf("create page dir: %w", err)
	}
	if err := os.WriteFile(s.recordPath(rec.PageID, rec.ID), data, 0o600); err != nil {
		return fmt.Errorf("write record file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, pageID, blockID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.recordPath(pageID, blockID))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove record file: %w", err)
	}
	// Drop the page directory once its last block is gone.
	_ = os.Remove(s.pageDir(pageID))
	return nil
}

func (s *FileStore) List(_ context.Context, pageID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.pageDir(pageID))
	if errors.Is(err, fs.ErrNotExist) {
		return []*Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read page dir: %w", err)
	}

	recs := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		rec, err := readRecord(filepath.Join(s.pageDir(pageID), entry.Name()))
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	sortRecords(recs)
	return recs, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory.
func (s *FileStore) Path() string { return s.baseDir }

func readRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}
	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", filepath.Base(path), err)
	}
	attrs, _, err := block.Decode(fr.Attributes)
	if err != nil {
		return nil, fmt.Errorf("decode record %s: %w", filepath.Base(path), err)
	}
	rec := fr.Record
	rec.Attributes = attrs
	return &rec, nil
}

// fileRecord is the on-disk form of a Record.
type fileRecord struct {
	Record
	Attributes json.RawMessage `json:"attributes"`
}

var _ Store = (*FileStore)(nil)
