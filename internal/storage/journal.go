package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal closed")

var keyPrefix = []byte("j/")

// JournalParams are the parameters every journal of a process is opened with.
type JournalParams struct {
	// Dir is the parent directory for on-disk journals. Each journal lives
	// in Dir/<execution id>.
	Dir string
	// InMemory keeps journals entirely in memory; Dir is ignored.
	InMemory bool
	// SyncWrites fsyncs every record on disk-backed journals.
	SyncWrites bool
}

// Validate checks that the parameters can open a journal.
func (p JournalParams) Validate() error {
	if !p.InMemory && p.Dir == "" {
		return fmt.Errorf("journal: dir is required unless in_memory is set")
	}
	return nil
}

// JournalEntry records one append performed by the owning execution context.
type JournalEntry struct {
	Index      int    `json:"index"`
	TaskID     string `json:"task_id"`
	Title      string `json:"title"`
	RecordedAt int64  `json:"recorded_at"` // Unix milliseconds
}

// JournalOption configures OpenJournal.
type JournalOption func(*Journal)

// WithJournalMetrics reports open journals and records to m.
func WithJournalMetrics(m *JournalMetrics) JournalOption {
	return func(j *Journal) {
		j.metrics = m
	}
}

// Journal is a per-execution-context Badger database.
type Journal struct {
	db          *badger.DB
	executionID string
	logger      *slog.Logger
	metrics     *JournalMetrics

	count  atomic.Int64
	closed atomic.Bool
}

// OpenJournal opens the journal of executionID.
func OpenJournal(params JournalParams, executionID string, logger *slog.Logger, opts ...JournalOption) (*Journal, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if executionID == "" {
		return nil, fmt.Errorf("journal: execution id is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("execution_id", executionID)

	var bopts badger.Options
	if params.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(filepath.Join(params.Dir, executionID))
		bopts.SyncWrites = params.SyncWrites
		bopts.ValueLogFileSize = 1 << 20
	}
	// Journals hold a few small records each; keep the footprint per DB low.
	bopts.MemTableSize = 4 << 20
	bopts.ValueThreshold = 64 << 10
	// Without compression Badger needs no block cache.
	bopts.Compression = options.None
	bopts.BlockCacheSize = 0
	bopts.IndexCacheSize = 0
	bopts.NumGoroutines = 1
	bopts.Logger = &badgerLogger{logger: logger}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}

	j := &Journal{
		db:          db,
		executionID: executionID,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(j)
	}

	n, err := j.countKeys()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: count entries: %w", err)
	}
	j.count.Store(int64(n))

	if j.metrics != nil {
		j.metrics.open.Inc()
	}
	logger.Debug("journal opened", "in_memory", params.InMemory, "entries", n)

	return j, nil
}

// ExecutionID returns the execution context this journal belongs to.
func (j *Journal) ExecutionID() string {
	return j.executionID
}

// Record stores entry under its list index.
func (j *Journal) Record(ctx context.Context, entry JournalEntry) error {
	if j.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.Index < 0 {
		return fmt.Errorf("journal: negative index %d", entry.Index)
	}
	if entry.RecordedAt == 0 {
		entry.RecordedAt = time.Now().UnixMilli()
	}

	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("journal: encode entry: %w", err)
	}

	key := entryKey(entry.Index)
	var created bool
	err = j.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			created = true
		} else if err != nil {
			return err
		}
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("journal: record index %d: %w", entry.Index, err)
	}

	if created {
		j.count.Add(1)
		if j.metrics != nil {
			j.metrics.records.Inc()
		}
	}
	return nil
}

// Entries returns every recorded entry ordered by list index.
func (j *Journal) Entries(ctx context.Context) ([]JournalEntry, error) {
	if j.closed.Load() {
		return nil, ErrClosed
	}

	entries := make([]JournalEntry, 0, j.count.Load())
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var e JournalEntry
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("decode entry %x: %w", it.Item().Key(), err)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("journal: scan: %w", err)
	}
	return entries, nil
}

// Count returns the number of recorded entries.
func (j *Journal) Count() int {
	return int(j.count.Load())
}

// Close closes the underlying database. Closing twice is a no-op.
func (j *Journal) Close() error {
	if !j.closed.CompareAndSwap(false, true) {
		return nil
	}
	if j.metrics != nil {
		j.metrics.open.Dec()
	}
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("journal: close db: %w", err)
	}
	j.logger.Debug("journal closed", "entries", j.Count())
	return nil
}

func (j *Journal) countKeys() (int, error) {
	n := 0
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func entryKey(index int) []byte {
	key := make([]byte, len(keyPrefix)+8)
	copy(key, keyPrefix)
	binary.BigEndian.PutUint64(key[len(keyPrefix):], uint64(index))
	return key
}

// JournalMetrics are the Prometheus collectors shared by all journals.
type JournalMetrics struct {
	open    prometheus.Gauge
	records prometheus.Counter
}

// RegisterJournalMetrics creates the journal collectors and registers them.
func RegisterJournalMetrics(reg prometheus.Registerer) *JournalMetrics {
	m := &JournalMetrics{
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tasklist",
			Subsystem: "journal",
			Name:      "open",
			Help:      "Journals currently open.",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tasklist",
			Subsystem: "journal",
			Name:      "records_total",
			Help:      "Entries recorded across all journals.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.open, m.records)
	}
	return m
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// Badger's info output is chatty; keep it at debug.
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
