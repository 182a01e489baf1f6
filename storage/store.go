// Package storage persists the working document in an embedded badger
// database under a single fixed key.
package storage

import (
	"condec/diagram"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// Key is the record the document is stored under.
const Key = "condec-diagram"

// ErrNotFound is returned by Get when nothing has been saved.
var ErrNotFound = errors.New("no stored diagram")

// Config holds configuration for a Store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the database in memory; used by tests.
	InMemory bool

	// Logger receives store events and badger's own log output at Warn and
	// above. Nil means slog.Default().
	Logger *slog.Logger
}

// Store reads and writes the document.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLogger adapts slog.Logger to badger's Logger interface. Badger is
// chatty at Info, so that level is sent to Debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens or creates the database.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent storage")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create storage directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(&badgerLogger{logger: logger.With(slog.String("component", "badger"))})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Get returns the stored document. It fails with ErrNotFound when nothing
// is stored and with a decode or validation error when the record is bad.
func (s *Store) Get() (*diagram.Diagram, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", Key, err)
	}

	var d diagram.Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", Key, err)
	}
	if d.Nodes == nil || d.Relations == nil {
		return nil, fmt.Errorf("decode %s: missing nodes or relations", Key)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", Key, err)
	}
	return &d, nil
}

// Load returns the stored document, or diagram.Default when there is none.
// A record that cannot be read is logged and discarded.
func (s *Store) Load() *diagram.Diagram {
	d, err := s.Get()
	switch {
	case err == nil:
		s.logger.Info("diagram loaded",
			slog.Int("nodes", len(d.Nodes)),
			slog.Int("relations", len(d.Relations)))
		return d
	case errors.Is(err, ErrNotFound):
		return diagram.Default()
	default:
		s.logger.Warn("discarding stored diagram", slog.String("error", err.Error()))
		if err := s.Delete(); err != nil {
			s.logger.Warn("failed to delete stored diagram", slog.String("error", err.Error()))
		}
		return diagram.Default()
	}
}

// Save replaces the stored document.
func (s *Store) Save(d *diagram.Diagram) error {
	if d == nil {
		return errors.New("cannot save nil diagram")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode diagram: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Key), data)
	}); err != nil {
		return fmt.Errorf("write %s: %w", Key, err)
	}
	s.logger.Debug("diagram saved", slog.Int("bytes", len(data)))
	return nil
}

// Delete removes the stored document. Deleting nothing is not an error.
func (s *Store) Delete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(Key))
	})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
