// Package zekta provides an embedded time-series storage engine that
// partitions entries into fixed-width time buckets stored as independent
// binary files.
//
// Each entry is a (time, value) pair: a float64 timestamp and a fixed-size
// byte payload configured per series. Entries are kept sorted by time inside
// each bucket; buckets load lazily on first use, flush automatically after a
// second of inactivity and release their memory after five.
//
// # Basic Usage
//
// Open a series with a 8-byte value length:
//
//	series, err := zekta.Open("/var/lib/zekta/cpu", zekta.Options{ValueByteLength: 8})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer series.Close()
//
// Write entries at arbitrary timestamps:
//
//	err := series.Push(ctx, 1700000000, value)
//
// Select a time range, both ends inclusive:
//
//	entries, err := series.Select(ctx, zekta.SelectOptions{From: 0, To: 1e12})
//
// Or everything, descending:
//
//	opts := zekta.SelectAll()
//	opts.Descending = true
//	entries, err := series.Select(ctx, opts)
//
// # Layout
//
// A series directory holds zekta.config.json with the series value byte
// length, and buckets/<id>.bucket files, each a concatenation of records:
// 8-byte little-endian IEEE-754 time followed by the value bytes. A bucket
// covers times [id*512, (id+1)*512) in whatever unit the caller picks;
// seconds and milliseconds are both common.
//
// # Typed series
//
// NumberSeries stores float64 values and BlobSeries stores variable-length
// content through a content-addressed sha256 blob store, both as thin
// codecs over the raw Series.
package zekta
