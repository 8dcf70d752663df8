package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/tidwall/btree"
)

// Store is a set of named records, each guarded by its own RecordLock.
//
// It is safe for concurrent use. Records are spread over shards by key hash; a
// shard lock is held only to insert or look up a record, never while a caller waits
// for admission, so callers working on distinct keys never block each other.
// Records live for the lifetime of the Store; there is no delete.
type Store struct {
	// shards hold the records, selected by key hash.
	shards []*storeShard
	// keys is an ordered index of every created key.
	keys *btree.BTreeG[string]
	// metrics instruments admissions and releases.
	metrics *Metrics
	// logger receives diagnostics.
	logger *slog.Logger
	// maxReaders is the reader capacity of every record lock.
	maxReaders int
	// openTimeout bounds Open; zero waits forever.
	openTimeout time.Duration
	// maxContentBytes caps content; zero means unlimited.
	maxContentBytes uint64
}

// New creates an empty Store configured by cfg. A nil cfg yields defaults.
// It fails only if the metrics cannot be registered with cfg.Registerer.
func New(cfg *Config) (*Store, error) {
	metrics, err := NewMetrics(cfg.getRegisterer())
	if err != nil {
		return nil, fmt.Errorf("register store metrics: %w", err)
	}

	shardCount := cfg.GetShardCount()
	shards := make([]*storeShard, shardCount)

	for i := range shards {
		shards[i] = &storeShard{
			records: make(map[string]*record),
		}
	}

	return &Store{
		shards: shards,
		keys: btree.NewBTreeG(func(a, b string) bool {
			return a < b
		}),
		metrics:         metrics,
		logger:          cfg.getLogger(),
		maxReaders:      cfg.GetMaxReaders(),
		openTimeout:     cfg.getOpenTimeout(),
		maxContentBytes: cfg.getMaxContentBytes(),
	}, nil
}

// MaxReaders returns the per-record reader capacity.
func (s *Store) MaxReaders() int {
	return s.maxReaders
}

// Metrics returns the store instrumentation.
func (s *Store) Metrics() *Metrics {
	return s.metrics
}

// Create adds a closed record holding a copy of content.
// It returns ErrDuplicateKey if key already exists.
func (s *Store) Create(key string, content []byte) error {
	if err := checkContentSize(content, s.maxContentBytes); err != nil {
		return fmt.Errorf("create %q: %w", key, err)
	}

	rec := &record{
		lock:    NewRecordLock(s.maxReaders),
		key:     key,
		content: bytes.Clone(content),
	}

	if !s.shardFor(key).insert(rec) {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}

	s.keys.Set(key)
	s.metrics.Records.Inc()
	s.logger.Debug("record created", "key", key, "bytes", len(content))

	return nil
}

// Open admits the caller to the record under mode and returns a Handle holding a
// snapshot of its content. It blocks until admission, or until the configured
// open timeout elapses.
func (s *Store) Open(key string, mode Mode) (*Handle, error) {
	return s.OpenContext(context.Background(), key, mode)
}

// OpenContext is like Open but also gives up when ctx is done.
//
// Errors:
//   - ErrInvalidMode if mode is neither ModeReadable nor ModeReadWriteable;
//   - ErrNotFound if key does not exist;
//   - ErrOpenCanceled if ctx ends (or the open timeout elapses) before admission.
func (s *Store) OpenContext(ctx context.Context, key string, mode Mode) (*Handle, error) {
	if !mode.admissible() {
		return nil, fmt.Errorf("%w: cannot open %q as %s", ErrInvalidMode, key, mode)
	}

	rec, ok := s.shardFor(key).lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	if s.openTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.openTimeout)
		defer cancel()
	}

	var (
		startedAt = time.Now()
		err       error
	)

	if mode == ModeReadable {
		err = rec.lock.AcquireReadContext(ctx)
	} else {
		err = rec.lock.AcquireWriteContext(ctx)
	}

	if err != nil {
		s.metrics.CanceledOpens.WithLabelValues(mode.String()).Inc()

		return nil, fmt.Errorf("%w: %s %q: %w", ErrOpenCanceled, mode, key, err)
	}

	s.metrics.observeAdmission(mode, time.Since(startedAt))

	// Admission orders this copy after the last committed write.
	return newHandle(s, key, mode, rec.content), nil
}

// Close releases the admission held by h. For a ReadWriteable handle, the handle
// content is committed to the record before the writer admission is released, so
// every later admission observes it.
//
// Close returns ErrInvalidHandle for nil, foreign or already released handles, and
// for a handle whose mode disagrees with the live occupancy of its record. In the
// latter case the handle is still marked released: the admission it claims is not
// held, so there is nothing left to give back.
func (s *Store) Close(h *Handle) error {
	if h == nil {
		return fmt.Errorf("%w: nil handle", ErrInvalidHandle)
	}

	if h.owner != s {
		return fmt.Errorf("%w: %s was issued by another store", ErrInvalidHandle, h)
	}

	if !h.released.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s already released", ErrInvalidHandle, h)
	}

	rec, ok := s.shardFor(h.key).lookup(h.key)
	if !ok {
		return s.rejectClose(h, ModeUnknown)
	}

	// Unreachable for handles issued by Open: a live handle always matches. Never release here.
	actual := rec.mode()
	if actual != h.mode {
		return s.rejectClose(h, actual)
	}

	switch h.mode {
	case ModeReadable:
		rec.lock.ReleaseRead()
	case ModeReadWriteable:
		// The handle is released, so its buffer can be handed over without a copy.
		rec.content = h.content
		h.content = nil

		s.metrics.Commits.Inc()
		rec.lock.ReleaseWrite()
	default:
		return s.rejectClose(h, actual)
	}

	return nil
}

// Status reports the live occupancy of key, or ModeUnknown if the key does not exist.
// It never blocks on admission.
func (s *Store) Status(key string) Mode {
	rec, ok := s.shardFor(key).lookup(key)
	if !ok {
		return ModeUnknown
	}

	return rec.mode()
}

// Exists reports whether key has been created.
func (s *Store) Exists(key string) bool {
	_, ok := s.shardFor(key).lookup(key)

	return ok
}

// Size returns the number of records.
func (s *Store) Size() int {
	var total int
	for _, sh := range s.shards {
		total += sh.recordCount()
	}

	return total
}

// ListKeys returns a snapshot of every key, in ascending order.
func (s *Store) ListKeys() []string {
	return s.ListKeysWithPrefix("", 0)
}

// ListKeysWithPrefix returns keys starting with prefix in ascending order.
// If limit > 0, at most limit keys are returned.
func (s *Store) ListKeysWithPrefix(prefix string, limit int) []string {
	capacity := s.keys.Len()
	if limit > 0 {
		capacity = min(capacity, limit)
	}

	keys := make([]string, 0, capacity)

	s.keys.Ascend(prefix, func(key string) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}

		keys = append(keys, key)

		return limit <= 0 || len(keys) < limit
	})

	return keys
}

// RandomKey returns a random key starting with prefix, or "" when none matches.
func (s *Store) RandomKey(prefix string) string {
	if prefix == "" {
		total := s.keys.Len()
		if total == 0 {
			return ""
		}

		key, _ := s.keys.GetAt(rand.IntN(total)) //nolint:gosec // selection only, not security sensitive

		return key
	}

	matching := s.ListKeysWithPrefix(prefix, 0)
	if len(matching) == 0 {
		return ""
	}

	return matching[rand.IntN(len(matching))] //nolint:gosec // selection only, not security sensitive
}

// rejectClose reports a close whose handle disagrees with the record occupancy.
func (s *Store) rejectClose(h *Handle, actual Mode) error {
	s.metrics.RejectedCloses.Inc()
	s.logger.Error("close rejected: handle mode does not match record occupancy",
		"handle", h.id.String(),
		"key", h.key,
		"handle_mode", h.mode.String(),
		"record_mode", actual.String(),
	)

	return fmt.Errorf("%w: %s held as %s, record is %s", ErrInvalidHandle, h, h.mode, actual)
}
