package state

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultCheckpoint is used before the first successful fetch.
const DefaultCheckpoint = "2000-01-01T00:00:00.000000+00:00"

// IDSet is the set of annotation IDs that already became flashcards.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Merge adds every ID of other to s.
func (s IDSet) Merge(other IDSet) {
	for id := range other {
		s.Add(id)
	}
}

// Sorted returns the IDs in lexical order.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FileStore keeps the checkpoint and the processed-ID set in two flat
// files: a single-line timestamp and a newline-delimited ID list.
type FileStore struct {
	CheckpointPath string
	ProcessedPath  string
}

func NewFileStore(checkpointPath, processedPath string) *FileStore {
	return &FileStore{
		CheckpointPath: checkpointPath,
		ProcessedPath:  processedPath,
	}
}

func (s *FileStore) LoadCheckpoint() (string, error) {
	data, err := os.ReadFile(s.CheckpointPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultCheckpoint, nil
		}
		return "", fmt.Errorf("failed to read checkpoint: %w", err)
	}

	checkpoint := strings.TrimSpace(string(data))
	if checkpoint == "" {
		return DefaultCheckpoint, nil
	}
	return checkpoint, nil
}

func (s *FileStore) SaveCheckpoint(checkpoint string) error {
	if err := writeFileAtomic(s.CheckpointPath, []byte(checkpoint)); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

func (s *FileStore) LoadProcessed() (IDSet, error) {
	f, err := os.Open(s.ProcessedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewIDSet(), nil
		}
		return nil, fmt.Errorf("failed to open processed IDs: %w", err)
	}
	defer f.Close()

	ids := NewIDSet()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			ids.Add(id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read processed IDs: %w", err)
	}

	return ids, nil
}

func (s *FileStore) SaveProcessed(ids IDSet) error {
	var b strings.Builder
	for _, id := range ids.Sorted() {
		b.WriteString(id)
		b.WriteByte('\n')
	}

	if err := writeFileAtomic(s.ProcessedPath, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to write processed IDs: %w", err)
	}
	return nil
}

// writeFileAtomic writes to a sibling temp file and renames it over path,
// so a crash mid-write leaves the previous contents in place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
