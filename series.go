package zekta

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Options configures Open.
type Options struct {
	// ValueByteLength is the fixed byte length of every value in the
	// series. Required when creating a new series; when opening an existing
	// one it may be zero (the on-disk config is adopted) or must match it.
	ValueByteLength int

	// MustExist makes Open fail instead of creating a new series when the
	// directory holds no config.
	MustExist bool

	// Logger receives errors from timer-driven flushes, which have no
	// caller to report to. Defaults to a no-op logger.
	Logger *zap.Logger

	// Clock drives the auto-flush and auto-unload timers. Defaults to the
	// wall clock; tests inject a mock.
	Clock clock.Clock
}

// SelectOptions bounds a selection. Both ends are inclusive.
type SelectOptions struct {
	From       float64
	To         float64
	Descending bool
}

// SelectAll selects the whole series in ascending time order.
func SelectAll() SelectOptions {
	return SelectOptions{From: math.Inf(-1), To: math.Inf(1)}
}

// DeleteOptions bounds a deletion. Both ends are inclusive.
type DeleteOptions struct {
	From float64
	To   float64
}

// DeleteAll deletes the whole series.
func DeleteAll() DeleteOptions {
	return DeleteOptions{From: math.Inf(-1), To: math.Inf(1)}
}

// FlushOptions controls Flush. With Unload set, every bucket releases its
// in-memory data after persisting.
type FlushOptions struct {
	Unload bool
}

// Series is a time-ordered collection of fixed-size values partitioned into
// per-time-range bucket files under a directory. All methods are safe for
// concurrent use; operations on the same bucket complete in submission
// order.
type Series struct {
	dir        string
	bucketsDir string
	valueLen   int

	clock   clock.Clock
	logger  *zap.Logger
	metrics *engineMetrics

	mu      sync.Mutex // guards buckets and closed
	buckets []*Bucket  // sorted by id, strictly ascending
	closed  bool
}

// Open loads the series stored in dir, creating it when no config exists
// yet (unless MustExist is set). The directory layout is
// dir/zekta.config.json plus one dir/buckets/<id>.bucket file per non-empty
// bucket.
func Open(dir string, opts Options) (*Series, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	cfg, err := loadConfig(dir)
	switch {
	case err == nil:
		if opts.ValueByteLength != 0 && opts.ValueByteLength != cfg.ValueByteLength {
			return nil, fmt.Errorf("open %s: have %d, config has %d: %w",
				dir, opts.ValueByteLength, cfg.ValueByteLength, ErrIncompatibleConfig)
		}
	case errors.Is(err, fs.ErrNotExist) && !opts.MustExist:
		if opts.ValueByteLength <= 0 {
			return nil, ErrMissingValueByteLength
		}
		cfg = seriesConfig{Version: configVersion, ValueByteLength: opts.ValueByteLength}
		if err := writeConfig(dir, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s := &Series{
		dir:        dir,
		bucketsDir: filepath.Join(dir, bucketsDirName),
		valueLen:   cfg.ValueByteLength,
		clock:      opts.Clock,
		logger:     opts.Logger,
		metrics:    newEngineMetrics(),
	}
	if err := s.scanBuckets(); err != nil {
		return nil, err
	}
	return s, nil
}

// scanBuckets builds an unloaded bucket handle per file in the buckets
// directory. A missing directory means the series has no data yet.
func (s *Series) scanBuckets() error {
	dirents, err := os.ReadDir(s.bucketsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, dirent := range dirents {
		name := dirent.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		id, perr := strconv.ParseInt(stem, 10, 64)
		if perr != nil || id < -maxSafeBucketID || id > maxSafeBucketID {
			return fmt.Errorf("%s: %w", name, ErrBadBucketFile)
		}
		s.buckets = append(s.buckets, newBucket(id, s.bucketsDir, s.valueLen, s.clock, s.logger, s.metrics))
	}

	sort.Slice(s.buckets, func(i, j int) bool { return s.buckets[i].id < s.buckets[j].id })
	return nil
}

// ValueByteLength returns the fixed value length of the series.
func (s *Series) ValueByteLength() int {
	return s.valueLen
}

// Push inserts one entry at time t.
func (s *Series) Push(ctx context.Context, t float64, value []byte) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	b, err := s.getOrCreateBucket(t)
	if err != nil {
		return err
	}
	return b.Push(t, value)
}

// Insert routes a batch of entries to their buckets. The batch is sorted by
// time first; every entry is pushed and all failures are collected.
func (s *Series) Insert(ctx context.Context, entries []Entry) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	tasks := make([]func() error, len(sorted))
	for i, e := range sorted {
		tasks[i] = func() error {
			b, err := s.getOrCreateBucket(e.Time)
			if err != nil {
				return err
			}
			return b.Push(e.Time, e.Value)
		}
	}
	return runSettled(tasks)
}

// Select returns the entries with From <= time <= To across all covered
// buckets, in the requested direction. Buckets are queried in parallel and
// the per-bucket results concatenated in order.
func (s *Series) Select(ctx context.Context, opts SelectOptions) ([]Entry, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	covered := s.coveredBuckets(opts.From, opts.To)
	results := make([][]Entry, len(covered))
	tasks := make([]func() error, len(covered))
	for i, b := range covered {
		tasks[i] = func() error {
			entries, err := b.Select(opts.From, opts.To, opts.Descending)
			results[i] = entries
			return err
		}
	}
	if err := runSettled(tasks); err != nil {
		return nil, err
	}

	var out []Entry
	if opts.Descending {
		for i := len(results) - 1; i >= 0; i-- {
			out = append(out, results[i]...)
		}
	} else {
		for i := range results {
			out = append(out, results[i]...)
		}
	}
	return out, nil
}

// Delete removes the entries with From <= time <= To from every covered
// bucket in parallel.
func (s *Series) Delete(ctx context.Context, opts DeleteOptions) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	covered := s.coveredBuckets(opts.From, opts.To)
	tasks := make([]func() error, len(covered))
	for i, b := range covered {
		tasks[i] = func() error { return b.Delete(opts.From, opts.To) }
	}
	return runSettled(tasks)
}

// Drop truncates every bucket. Bucket handles stay in the series; their
// files are removed on the next flush.
func (s *Series) Drop(ctx context.Context) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	buckets := s.snapshotBuckets()
	tasks := make([]func() error, len(buckets))
	for i, b := range buckets {
		tasks[i] = func() error { return b.Drop() }
	}
	return runSettled(tasks)
}

// Flush persists every dirty bucket in parallel, optionally unloading them.
func (s *Series) Flush(ctx context.Context, opts FlushOptions) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	buckets := s.snapshotBuckets()
	tasks := make([]func() error, len(buckets))
	for i, b := range buckets {
		tasks[i] = func() error { return b.Flush(opts.Unload) }
	}
	return runSettled(tasks)
}

// Close flushes and unloads every bucket and disarms all timers. The series
// rejects further operations.
func (s *Series) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	buckets := make([]*Bucket, len(s.buckets))
	copy(buckets, s.buckets)
	s.mu.Unlock()

	tasks := make([]func() error, len(buckets))
	for i, b := range buckets {
		tasks[i] = func() error { return b.Flush(true) }
	}
	err := runSettled(tasks)

	for _, b := range buckets {
		b.stopTimers()
	}
	return err
}

func (s *Series) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Series) snapshotBuckets() []*Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Bucket, len(s.buckets))
	copy(out, s.buckets)
	return out
}

// getOrCreateBucket returns the bucket covering t, inserting a fresh
// unloaded handle at its sorted position when none exists.
func (s *Series) getOrCreateBucket(t float64) (*Bucket, error) {
	id, err := bucketIDForTime(t)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := searchLowerBound(len(s.buckets), func(i int) int {
		switch bid := s.buckets[i].id; {
		case bid < id:
			return -1
		case bid > id:
			return 1
		default:
			return 0
		}
	})
	if idx < len(s.buckets) && s.buckets[idx].id == id {
		return s.buckets[idx], nil
	}

	b := newBucket(id, s.bucketsDir, s.valueLen, s.clock, s.logger, s.metrics)
	s.buckets = append(s.buckets, nil)
	copy(s.buckets[idx+1:], s.buckets[idx:])
	s.buckets[idx] = b
	return b, nil
}

// coveredBuckets returns the ordered run of bucket handles whose ids fall
// inside the id span of [from, to]. The span is computed in the float
// domain so infinite bounds cover everything; a bucket at the edge of the
// span that the time range misses simply reports no entries.
func (s *Series) coveredBuckets(from, to float64) []*Bucket {
	if math.IsNaN(from) || math.IsNaN(to) || from > to {
		return nil
	}
	fromID := math.Floor(from / TimeRange)
	toID := math.Floor(to / TimeRange)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.buckets)
	lo := searchLowerBound(n, func(i int) int {
		switch bid := float64(s.buckets[i].id); {
		case bid < fromID:
			return -1
		case bid > fromID:
			return 1
		default:
			return 0
		}
	})
	hi := searchLowerBound(n, func(i int) int {
		switch bid := float64(s.buckets[i].id); {
		case bid < toID:
			return -1
		case bid > toID:
			return 1
		default:
			return 0
		}
	})
	if hi++; hi > n {
		hi = n
	}
	if lo >= hi {
		return nil
	}

	out := make([]*Bucket, hi-lo)
	copy(out, s.buckets[lo:hi])
	return out
}
