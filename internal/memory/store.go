package memory

import (
	"fmt"

	"github.com/fr33kai/Fr3kAi/internal/config"
	"go.uber.org/zap"
)

// Store abstracts durable memory persistence (JSON file, SQLite).
type Store interface {
	// Load returns the persisted memory. It never fails: a missing, unreadable
	// or corrupt store yields an empty Memory.
	Load() *Memory
	// Save overwrites durable storage with the full mapping.
	Save(m *Memory) error
	Close() error
}

// Open builds the Store selected by cfg.Backend at path.
func Open(cfg config.MemoryConfig, path string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(path, logger), nil
	case "sqlite":
		return NewSQLiteStore(path, logger)
	default:
		return nil, fmt.Errorf("unknown memory backend %q (want file or sqlite)", cfg.Backend)
	}
}
