package zekta

import (
	"context"
	"encoding/binary"
	"math"
)

// numberByteLength is the encoded width of a float64 value.
const numberByteLength = 8

// NumberEntry is a decoded (time, number) pair.
type NumberEntry struct {
	Time  float64
	Value float64
}

// NumberSeries stores float64 values, encoded as 8 little-endian IEEE-754
// bytes. All storage semantics delegate to the underlying Series.
type NumberSeries struct {
	series *Series
}

// OpenNumberSeries opens or creates a number series in dir.
func OpenNumberSeries(dir string, opts Options) (*NumberSeries, error) {
	opts.ValueByteLength = numberByteLength
	s, err := Open(dir, opts)
	if err != nil {
		return nil, err
	}
	return &NumberSeries{series: s}, nil
}

// Series returns the underlying raw series.
func (n *NumberSeries) Series() *Series {
	return n.series
}

// Push inserts one number at time t.
func (n *NumberSeries) Push(ctx context.Context, t, value float64) error {
	var buf [numberByteLength]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(value))
	return n.series.Push(ctx, t, buf[:])
}

// Insert routes a batch of numbers to their buckets.
func (n *NumberSeries) Insert(ctx context.Context, entries []NumberEntry) error {
	raw := make([]Entry, len(entries))
	for i, e := range entries {
		value := make([]byte, numberByteLength)
		binary.LittleEndian.PutUint64(value, math.Float64bits(e.Value))
		raw[i] = Entry{Time: e.Time, Value: value}
	}
	return n.series.Insert(ctx, raw)
}

// Select returns the decoded entries in the requested range and direction.
func (n *NumberSeries) Select(ctx context.Context, opts SelectOptions) ([]NumberEntry, error) {
	raw, err := n.series.Select(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([]NumberEntry, len(raw))
	for i, e := range raw {
		out[i] = NumberEntry{
			Time:  e.Time,
			Value: math.Float64frombits(binary.LittleEndian.Uint64(e.Value)),
		}
	}
	return out, nil
}

// Delete removes the entries in the inclusive range.
func (n *NumberSeries) Delete(ctx context.Context, opts DeleteOptions) error {
	return n.series.Delete(ctx, opts)
}

// Drop truncates the series.
func (n *NumberSeries) Drop(ctx context.Context) error {
	return n.series.Drop(ctx)
}

// Flush persists every dirty bucket.
func (n *NumberSeries) Flush(ctx context.Context, opts FlushOptions) error {
	return n.series.Flush(ctx, opts)
}

// Close flushes, unloads and disarms timers.
func (n *NumberSeries) Close() error {
	return n.series.Close()
}
