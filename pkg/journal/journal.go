// Package journal keeps a durable history of removals in BadgerDB, so that
// what a prune deleted can be reviewed after the fact. Entries are keyed by
// time and stored as JSON.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/marmos91/layerscope/internal/logger"
	"github.com/marmos91/layerscope/pkg/metrics"
)

// Key layout: journal:entry:{unix-nanos, zero padded}:{entry id} -> JSON(Entry)
const prefixEntry = "journal:entry:"

// Status values of an Entry.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusError   = "error"
)

// Removed describes one deleted node.
type Removed struct {
	ID    string   `json:"id" yaml:"id"`
	Kind  string   `json:"kind" yaml:"kind"`
	Paths []string `json:"paths,omitempty" yaml:"paths,omitempty"`
	Bytes int64    `json:"bytes" yaml:"bytes"`
}

// Entry records one executed removal request.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	RunID     string    `json:"run_id" yaml:"run_id"`
	Time      time.Time `json:"time" yaml:"time"`
	Command   string    `json:"command" yaml:"command"`
	BaseDir   string    `json:"base_dir,omitempty" yaml:"base_dir,omitempty"`
	Targets   []string  `json:"targets" yaml:"targets"`
	Recursive bool      `json:"recursive" yaml:"recursive"`
	Status    string    `json:"status" yaml:"status"`
	Removed   []Removed `json:"removed" yaml:"removed"`
	Failed    string    `json:"failed,omitempty" yaml:"failed,omitempty"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Config configures the journal database.
type Config struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string

	// InMemory keeps the journal in memory only (tests).
	InMemory bool

	// SyncWrites fsyncs every append.
	SyncWrites bool

	// ValueLogFileSize caps each value log file. Zero keeps badger's default.
	ValueLogFileSize int64
}

// Store is a BadgerDB-backed journal. Safe for concurrent use.
type Store struct {
	db      *badgerdb.DB
	metrics metrics.JournalMetrics
}

// Open opens (creating if needed) the journal described by cfg. m may be nil.
func Open(cfg Config, m metrics.JournalMetrics) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("journal path is required")
	}

	var opts badgerdb.Options
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create journal directory %s: %w", cfg.Path, err)
		}
		opts = badgerdb.DefaultOptions(cfg.Path)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{})
	if cfg.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(cfg.ValueLogFileSize)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Store{db: db, metrics: m}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores e, assigning its ID and Time when unset.
func (s *Store) Append(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(entryKey(e), data)
	})
	metrics.RecordJournalAppend(s.metrics, err)
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}

	logger.DebugCtx(ctx, "journal entry appended", "entry_id", e.ID, logger.Removed(len(e.Removed)))
	return nil
}

// List returns up to limit entries, newest first. A limit of zero or less
// returns every entry.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result []*Entry
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEntry)
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		// In reverse mode Seek lands on the last key <= the seek key.
		for it.Seek([]byte(prefixEntry + "\xff")); it.ValidForPrefix([]byte(prefixEntry)); it.Next() {
			if limit > 0 && len(result) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				e := &Entry{}
				if err := json.Unmarshal(val, e); err != nil {
					return err
				}
				result = append(result, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	return result, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEntry)
		opts.PrefetchValues = false // keys only

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.RecordEntries(n)
	}
	return n, nil
}

func entryKey(e *Entry) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixEntry, e.Time.UnixNano(), e.ID))
}

// badgerLogger routes BadgerDB's internal logging through the application
// logger. Badger is chatty at info level, so everything below warnings is
// demoted to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	logger.Error("badger: "+fmt.Sprintf(format, args...), logger.Operation("journal"))
}

func (badgerLogger) Warningf(format string, args ...any) {
	logger.Warn("badger: "+fmt.Sprintf(format, args...), logger.Operation("journal"))
}

func (badgerLogger) Infof(format string, args ...any) {
	logger.Debug("badger: "+fmt.Sprintf(format, args...), logger.Operation("journal"))
}

func (badgerLogger) Debugf(format string, args ...any) {
	logger.Debug("badger: "+fmt.Sprintf(format, args...), logger.Operation("journal"))
}
