package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore keeps the memory in a single indented JSON file.
// There is no locking: one writer per file is assumed.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore returns a FileStore for path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() *Memory {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("memory file not found, starting empty", zap.String("path", s.path))
		} else {
			s.logger.Warn("memory file unreadable, starting empty", zap.String("path", s.path), zap.Error(err))
		}
		return New()
	}

	m := New()
	if err := json.Unmarshal(data, m); err != nil {
		s.logger.Warn("memory file corrupt, starting empty", zap.String("path", s.path), zap.Error(err))
		return New()
	}
	s.logger.Debug("memory loaded", zap.String("path", s.path), zap.Int("keys", m.Len()))
	return m
}

func (s *FileStore) Save(m *Memory) error {
	if m == nil {
		m = New()
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal memory: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create memory directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write memory: %w", err)
	}
	s.logger.Debug("memory saved", zap.String("path", s.path), zap.Int("keys", m.Len()))
	return nil
}

func (s *FileStore) Close() error { return nil }
