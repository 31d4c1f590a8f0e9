package zekta

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/benbjohnson/clock"
)

func TestNumberSeriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	ns, err := OpenNumberSeries(t.TempDir(), Options{Clock: clock.NewMock()})
	if err != nil {
		t.Fatalf("OpenNumberSeries failed: %v", err)
	}
	defer ns.Close()

	pushes := []NumberEntry{
		{Time: 10, Value: 21.5},
		{Time: 1, Value: -3},
		{Time: 600, Value: 0},
	}
	for _, p := range pushes {
		if err := ns.Push(ctx, p.Time, p.Value); err != nil {
			t.Fatalf("Push(%v) failed: %v", p.Time, err)
		}
	}

	entries, err := ns.Select(ctx, SelectAll())
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	want := []NumberEntry{
		{Time: 1, Value: -3},
		{Time: 10, Value: 21.5},
		{Time: 600, Value: 0},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestNumberSeriesInsertAndDelete(t *testing.T) {
	ctx := context.Background()
	ns, err := OpenNumberSeries(t.TempDir(), Options{Clock: clock.NewMock()})
	if err != nil {
		t.Fatalf("OpenNumberSeries failed: %v", err)
	}
	defer ns.Close()

	err = ns.Insert(ctx, []NumberEntry{
		{Time: 5, Value: 1}, {Time: 15, Value: 2}, {Time: 25, Value: 3},
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := ns.Delete(ctx, DeleteOptions{From: 15, To: 15}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	entries, err := ns.Select(ctx, SelectAll())
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Value != 1 || entries[1].Value != 3 {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestBlobSeriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	bs, err := OpenBlobSeries(dir, Options{Clock: clock.NewMock()})
	if err != nil {
		t.Fatalf("OpenBlobSeries failed: %v", err)
	}
	defer bs.Close()

	if err := bs.Push(ctx, 1, []byte("hello")); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if err := bs.Push(ctx, 600, []byte("a much longer payload than the first")); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	entries, err := bs.Select(ctx, SelectAll())
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !bytes.Equal(entries[0].Content, []byte("hello")) {
		t.Errorf("entry 0 content %q", entries[0].Content)
	}
	if !bytes.Equal(entries[1].Content, []byte("a much longer payload than the first")) {
		t.Errorf("entry 1 content %q", entries[1].Content)
	}
}

func TestBlobSeriesDeduplicatesContent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	bs, err := OpenBlobSeries(dir, Options{Clock: clock.NewMock()})
	if err != nil {
		t.Fatalf("OpenBlobSeries failed: %v", err)
	}
	defer bs.Close()

	for _, ts := range []float64{1, 2, 3} {
		if err := bs.Push(ctx, ts, []byte("same content")); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}

	files, err := os.ReadDir(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("expected a single deduplicated blob, got %d files", len(files))
	}

	entries, err := bs.Select(ctx, SelectAll())
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestBlobStorePutGet(t *testing.T) {
	st := NewBlobStore(t.TempDir())

	digest, err := st.Put([]byte("payload"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if len(digest) != 32 {
		t.Fatalf("expected a 32-byte digest, got %d", len(digest))
	}

	content, err := st.Get(digest)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(content, []byte("payload")) {
		t.Errorf("got %q", content)
	}
}
