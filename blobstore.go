package zekta

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const filesDirName = "files"

// BlobStore is a content-addressed store of opaque byte blobs under
// <dir>/files/<hex-sha256>. Writing the same content twice is a no-op, so
// blobs are shared between entries and survive entry deletion.
type BlobStore struct {
	dir string
}

// NewBlobStore returns a store rooted at dir.
func NewBlobStore(dir string) *BlobStore {
	return &BlobStore{dir: dir}
}

// Put stores content and returns its 32-byte digest.
func (st *BlobStore) Put(content []byte) ([]byte, error) {
	sum := sha256.Sum256(content)
	path := filepath.Join(st.dir, hex.EncodeToString(sum[:]))

	if _, err := os.Stat(path); err == nil {
		return sum[:], nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, err
	}
	return sum[:], nil
}

// Get resolves a digest back to its content.
func (st *BlobStore) Get(digest []byte) ([]byte, error) {
	return os.ReadFile(filepath.Join(st.dir, hex.EncodeToString(digest)))
}

// BlobEntry is a resolved (time, content) pair.
type BlobEntry struct {
	Time    float64
	Content []byte
}

// BlobSeries stores variable-length blobs by keeping their sha256 digests
// as the fixed-size series value and the content in a BlobStore next to the
// bucket files.
type BlobSeries struct {
	series *Series
	store  *BlobStore
}

// OpenBlobSeries opens or creates a blob series in dir.
func OpenBlobSeries(dir string, opts Options) (*BlobSeries, error) {
	opts.ValueByteLength = sha256.Size
	s, err := Open(dir, opts)
	if err != nil {
		return nil, err
	}
	return &BlobSeries{
		series: s,
		store:  NewBlobStore(filepath.Join(dir, filesDirName)),
	}, nil
}

// Series returns the underlying raw series.
func (b *BlobSeries) Series() *Series {
	return b.series
}

// Store returns the underlying blob store.
func (b *BlobSeries) Store() *BlobStore {
	return b.store
}

// Push stores content and inserts its digest at time t.
func (b *BlobSeries) Push(ctx context.Context, t float64, content []byte) error {
	digest, err := b.store.Put(content)
	if err != nil {
		return err
	}
	return b.series.Push(ctx, t, digest)
}

// Select returns the entries in range with their content resolved.
func (b *BlobSeries) Select(ctx context.Context, opts SelectOptions) ([]BlobEntry, error) {
	raw, err := b.series.Select(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([]BlobEntry, len(raw))
	for i, e := range raw {
		content, err := b.store.Get(e.Value)
		if err != nil {
			return nil, err
		}
		out[i] = BlobEntry{Time: e.Time, Content: content}
	}
	return out, nil
}

// Delete removes the entries in the inclusive range. Blob content is
// content-addressed and possibly shared, so it is left in place.
func (b *BlobSeries) Delete(ctx context.Context, opts DeleteOptions) error {
	return b.series.Delete(ctx, opts)
}

// Drop truncates the series, leaving blob content in place.
func (b *BlobSeries) Drop(ctx context.Context) error {
	return b.series.Drop(ctx)
}

// Flush persists every dirty bucket.
func (b *BlobSeries) Flush(ctx context.Context, opts FlushOptions) error {
	return b.series.Flush(ctx, opts)
}

// Close flushes, unloads and disarms timers.
func (b *BlobSeries) Close() error {
	return b.series.Close()
}
