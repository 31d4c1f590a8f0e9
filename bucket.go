package zekta

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const (
	// autoFlushDelay is how long a loaded bucket may sit before its dirty
	// data is persisted by the flush timer.
	autoFlushDelay = 1000 * time.Millisecond

	// autoUnloadDelay is how long a bucket may sit idle before its
	// in-memory data is flushed and released.
	autoUnloadDelay = 5000 * time.Millisecond

	// maxSafeBucketID bounds bucket ids to the integer range exactly
	// representable in a float64 timestamp.
	maxSafeBucketID = 1<<53 - 1
)

// bucketIDForTime maps a timestamp to its bucket id. Timestamps that do not
// map to a representable id (NaN, infinities, magnitudes past the safe
// integer range) are rejected.
func bucketIDForTime(t float64) (int64, error) {
	id := math.Floor(t / TimeRange)
	if math.IsNaN(id) || id < -maxSafeBucketID || id > maxSafeBucketID {
		return 0, ErrTimeOutOfRange
	}
	return int64(id), nil
}

// Bucket is a single fixed-width time slice of a series, mapped 1:1 to a
// file. Entries are held in a sorted arena while loaded; the file is read
// lazily on the first operation and written back on flush.
//
// Every data operation is serialised by the bucket's lock, so operations
// issued concurrently complete in lock-acquisition order and a select after
// a push observes the pushed entry.
type Bucket struct {
	id       int64
	path     string
	valueLen int

	mu    sync.Mutex
	data  *Buffer // nil while unloaded
	dirty bool

	// Timer generations invalidate callbacks from cancelled arms.
	flushGen    uint64
	unloadGen   uint64
	flushTimer  *clock.Timer
	unloadTimer *clock.Timer

	clock   clock.Clock
	logger  *zap.Logger
	metrics *engineMetrics
}

func newBucket(id int64, bucketsDir string, valueLen int, clk clock.Clock, logger *zap.Logger, metrics *engineMetrics) *Bucket {
	return &Bucket{
		id:       id,
		path:     filepath.Join(bucketsDir, strconv.FormatInt(id, 10)+bucketFileExt),
		valueLen: valueLen,
		clock:    clk,
		logger:   logger,
		metrics:  metrics,
	}
}

// ID returns the bucket id.
func (b *Bucket) ID() int64 {
	return b.id
}

// From returns the inclusive lower time bound of the bucket.
func (b *Bucket) From() float64 {
	return float64(b.id) * TimeRange
}

// To returns the exclusive upper time bound of the bucket.
func (b *Bucket) To() float64 {
	return float64(b.id+1) * TimeRange
}

// Loaded reports whether the bucket's data is materialised in memory.
func (b *Bucket) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data != nil
}

func (b *Bucket) recordLen() int {
	return timeBytes + b.valueLen
}

// Push inserts one entry, keeping the arena sorted by time. Entries with
// equal timestamps stay adjacent but their relative order is unspecified.
func (b *Bucket) Push(t float64, value []byte) error {
	if len(value) != b.valueLen {
		return ErrBadValueLength
	}
	if t < b.From() || t >= b.To() {
		return ErrTimeOutOfRange
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.beginOpLocked()
	defer b.endOpLocked()

	if err := b.ensureLoadedLocked(); err != nil {
		return err
	}
	return b.pushLocked(t, value)
}

// Insert validates and inserts a batch of entries. The batch is sorted by
// time first so consecutive inserts land near each other; no entry is
// inserted when any entry fails validation.
func (b *Bucket) Insert(entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	for _, e := range sorted {
		if len(e.Value) != b.valueLen {
			return ErrBadValueLength
		}
		if e.Time < b.From() || e.Time >= b.To() {
			return ErrTimeOutOfRange
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.beginOpLocked()
	defer b.endOpLocked()

	if err := b.ensureLoadedLocked(); err != nil {
		return err
	}
	for _, e := range sorted {
		if err := b.pushLocked(e.Time, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// Select returns the entries with from <= time <= to, both ends inclusive,
// in ascending or descending time order. A range that misses the bucket
// entirely returns nothing without loading the file.
func (b *Bucket) Select(from, to float64, descending bool) ([]Entry, error) {
	if math.IsNaN(from) || math.IsNaN(to) || from > to || to < b.From() || from >= b.To() {
		return nil, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.beginOpLocked()
	defer b.endOpLocked()

	if err := b.ensureLoadedLocked(); err != nil {
		return nil, err
	}

	lo, hi := b.rangeOffsetsLocked(from, to)
	if lo >= hi {
		return nil, nil
	}

	r := b.recordLen()
	buf := b.data.Bytes()
	entries := make([]Entry, 0, (hi-lo)/r)
	if descending {
		for off := hi - r; off >= lo; off -= r {
			entries = append(entries, b.entryAtLocked(buf, off))
		}
	} else {
		for off := lo; off < hi; off += r {
			entries = append(entries, b.entryAtLocked(buf, off))
		}
	}
	return entries, nil
}

// Delete removes the entries with from <= time <= to, both ends inclusive.
func (b *Bucket) Delete(from, to float64) error {
	if math.IsNaN(from) || math.IsNaN(to) || from > to || to < b.From() || from >= b.To() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.beginOpLocked()
	defer b.endOpLocked()

	if err := b.ensureLoadedLocked(); err != nil {
		return err
	}

	lo, hi := b.rangeOffsetsLocked(from, to)
	if lo == hi {
		return nil
	}

	buf := b.data.Bytes()
	copy(buf[lo:], buf[hi:])
	if err := b.data.Resize(b.data.Len() - (hi - lo)); err != nil {
		return err
	}
	b.dirty = true
	return nil
}

// Drop truncates the bucket to zero entries. The file is removed on the
// next flush.
func (b *Bucket) Drop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beginOpLocked()
	defer b.endOpLocked()

	if err := b.ensureLoadedLocked(); err != nil {
		return err
	}
	if err := b.data.Resize(0); err != nil {
		return err
	}
	b.dirty = true
	return nil
}

// Flush persists the bucket when dirty: the file is rewritten from the
// arena, or removed when the arena is empty. With unload set, the arena is
// released afterwards and the next operation re-reads the file.
func (b *Bucket) Flush(unload bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beginOpLocked()
	defer b.endOpLocked()

	return b.flushLocked(unload)
}

func (b *Bucket) flushLocked(unload bool) error {
	if b.data == nil {
		return nil
	}

	if b.dirty {
		if b.data.Len() == 0 {
			if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return newBucketError("remove", b.path, err)
			}
		} else {
			if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
				return newBucketError("flush", b.path, err)
			}
			if err := os.WriteFile(b.path, b.data.Bytes(), 0o644); err != nil {
				return newBucketError("flush", b.path, err)
			}
		}
		b.dirty = false
		b.metrics.flushes.Inc()
	}

	if unload {
		b.data = nil
		b.metrics.unloads.Inc()
	}
	return nil
}

// ensureLoadedLocked materialises the arena from the bucket file. A missing
// file means the bucket is empty.
func (b *Bucket) ensureLoadedLocked() error {
	if b.data != nil {
		return nil
	}

	data := NewBuffer()
	raw, err := os.ReadFile(b.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return newBucketError("load", b.path, err)
	}
	if len(raw)%b.recordLen() != 0 {
		return newBucketError("load", b.path, ErrCorruptBucketFile)
	}
	if err := data.Resize(len(raw)); err != nil {
		return err
	}
	copy(data.Bytes(), raw)

	b.data = data
	b.metrics.loads.Inc()
	return nil
}

func (b *Bucket) entryAtLocked(buf []byte, off int) Entry {
	value := make([]byte, b.valueLen)
	copy(value, buf[off+timeBytes:off+b.recordLen()])
	return Entry{Time: timeAt(buf, off), Value: value}
}

// insertOffsetLocked returns the byte offset at which an entry with time t
// keeps the arena sorted. Within a run of equal timestamps the offset is
// wherever the search landed.
func (b *Bucket) insertOffsetLocked(t float64) int {
	r := b.recordLen()
	buf := b.data.Bytes()
	n := b.data.Len() / r
	if n == 0 {
		return 0
	}
	if t >= timeAt(buf, (n-1)*r) {
		return n * r
	}
	if t <= timeAt(buf, 0) {
		return 0
	}
	idx := searchLowerBound(n, func(i int) int {
		ti := timeAt(buf, i*r)
		switch {
		case ti < t:
			return -1
		case ti > t:
			return 1
		default:
			return 0
		}
	})
	return idx * r
}

// rangeOffsetsLocked maps the inclusive time range [from, to] to the byte
// span [lo, hi). The search may land anywhere inside a run of equal
// timestamps, so the bounds are widened by linear walks: backward across
// entries equal to from, forward across entries equal to to.
func (b *Bucket) rangeOffsetsLocked(from, to float64) (lo, hi int) {
	r := b.recordLen()
	buf := b.data.Bytes()
	length := b.data.Len()

	lo = b.insertOffsetLocked(from)
	for lo >= r && timeAt(buf, lo-r) == from {
		lo -= r
	}

	hi = b.insertOffsetLocked(to)
	for hi < length && timeAt(buf, hi) == to {
		hi += r
	}
	return lo, hi
}

func (b *Bucket) pushLocked(t float64, value []byte) error {
	r := b.recordLen()
	oldLen := b.data.Len()
	off := b.insertOffsetLocked(t)

	if err := b.data.Resize(oldLen + r); err != nil {
		return err
	}
	buf := b.data.Bytes()
	copy(buf[off+r:], buf[off:oldLen])
	putEntry(buf[off:], t, value)
	b.dirty = true
	return nil
}

// beginOpLocked disarms both auto timers for the duration of an operation.
func (b *Bucket) beginOpLocked() {
	b.flushGen++
	b.unloadGen++
	if b.flushTimer != nil {
		b.flushTimer.Stop()
		b.flushTimer = nil
	}
	if b.unloadTimer != nil {
		b.unloadTimer.Stop()
		b.unloadTimer = nil
	}
}

// endOpLocked re-arms the auto timers while the bucket remains loaded.
func (b *Bucket) endOpLocked() {
	if b.data == nil {
		return
	}
	b.armFlushTimerLocked()
	b.armUnloadTimerLocked()
}

func (b *Bucket) armFlushTimerLocked() {
	b.flushGen++
	gen := b.flushGen
	b.flushTimer = b.clock.AfterFunc(autoFlushDelay, func() {
		b.onAutoFlush(gen)
	})
}

func (b *Bucket) armUnloadTimerLocked() {
	b.unloadGen++
	gen := b.unloadGen
	b.unloadTimer = b.clock.AfterFunc(autoUnloadDelay, func() {
		b.onAutoUnload(gen)
	})
}

// onAutoFlush persists dirty data on the flush interval. The unload timer
// keeps its original deadline so periodic flushes do not keep a bucket
// resident forever.
func (b *Bucket) onAutoFlush(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.flushGen {
		return
	}

	if err := b.flushLocked(false); err != nil {
		b.metrics.flushErrors.Inc()
		b.logger.Error("auto flush failed",
			zap.Int64("bucket", b.id),
			zap.Error(err))
	}
	if b.data != nil {
		b.armFlushTimerLocked()
	}
}

// onAutoUnload flushes and releases an idle bucket.
func (b *Bucket) onAutoUnload(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.unloadGen {
		return
	}

	// Cancel the sibling flush timer; after the unload there is nothing to
	// flush until the next operation reloads the bucket.
	b.flushGen++
	if b.flushTimer != nil {
		b.flushTimer.Stop()
		b.flushTimer = nil
	}

	if err := b.flushLocked(true); err != nil {
		b.metrics.flushErrors.Inc()
		b.logger.Error("auto unload failed",
			zap.Int64("bucket", b.id),
			zap.Error(err))
	}
}

// stopTimers permanently disarms the bucket's timers. Used on close.
func (b *Bucket) stopTimers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beginOpLocked()
}
