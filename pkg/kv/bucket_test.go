package kv

import (
	"bytes"
	"errors"
	"testing"
)

const testPageSz = 8

func newTestState() *State {
	return NewState(testPageSz, 16)
}

func TestNewBucketPutGet(t *testing.T) {
	dir := t.TempDir()
	state := newTestState()

	b, err := NewBucket(dir, "accounts", state)
	if err != nil {
		t.Fatalf("NewBucket() error = %v", err)
	}
	b.SetWritable()
	defer b.Close()

	payload := bytes.Repeat([]byte{0x42}, testPageSz)
	if err := b.Put(0, 0, payload); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got := make([]byte, testPageSz)
	n, err := b.Get(0, 0, got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if n != testPageSz || !bytes.Equal(got, payload) {
		t.Errorf("Get() = %x (n=%d), want %x", got, n, payload)
	}
}

func TestBucketGetMissingKey(t *testing.T) {
	dir := t.TempDir()
	state := newTestState()

	b, err := NewBucket(dir, "accounts", state)
	if err != nil {
		t.Fatalf("NewBucket() error = %v", err)
	}
	defer b.Close()

	_, err = b.Get(0, 0, make([]byte, testPageSz))
	if !IsKeyNotFound(err) {
		t.Errorf("Get() on empty bucket error = %v, want KeyNotFoundError", err)
	}
}

func TestBucketPutNotWritable(t *testing.T) {
	dir := t.TempDir()
	state := newTestState()

	b, err := NewBucket(dir, "accounts", state)
	if err != nil {
		t.Fatalf("NewBucket() error = %v", err)
	}
	defer b.Close()

	err = b.Put(0, 0, bytes.Repeat([]byte{1}, testPageSz))
	if !errors.Is(err, ErrBucketNotWritable) {
		t.Errorf("Put() on non-writable handle error = %v, want ErrBucketNotWritable", err)
	}
}

func TestBucketCopyOnWriteOverwritesInPlace(t *testing.T) {
	dir := t.TempDir()
	state := newTestState()

	b, err := NewBucket(dir, "accounts", state)
	if err != nil {
		t.Fatalf("NewBucket() error = %v", err)
	}
	b.SetWritable()
	defer b.Close()

	first := bytes.Repeat([]byte{0x01}, testPageSz)
	if err := b.Put(0, 0, first); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	valAfterFirst, _ := b.index.Get(0)

	second := bytes.Repeat([]byte{0x02}, testPageSz)
	if err := b.Put(0, 0, second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	valAfterSecond, _ := b.index.Get(0)

	if valAfterFirst.Off != valAfterSecond.Off {
		t.Errorf("same-version overwrite should reuse block: first off %d, second off %d", valAfterFirst.Off, valAfterSecond.Off)
	}

	got := make([]byte, testPageSz)
	if _, err := b.Get(0, 0, got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, second) {
		t.Errorf("Get() after overwrite = %x, want %x", got, second)
	}
}

func TestBucketTruncate(t *testing.T) {
	dir := t.TempDir()
	state := newTestState()

	b, err := NewBucket(dir, "accounts", state)
	if err != nil {
		t.Fatalf("NewBucket() error = %v", err)
	}
	b.SetWritable()
	defer b.Close()

	for k := uint32(0); k < 4; k++ {
		if err := b.Put(k, 0, bytes.Repeat([]byte{byte(k)}, testPageSz)); err != nil {
			t.Fatalf("Put(%d) error = %v", k, err)
		}
	}

	if err := b.Truncate(testPageSz * 2); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}

	if _, err := b.Get(2, 0, make([]byte, testPageSz)); !IsKeyNotFound(err) {
		t.Errorf("Get(2) after Truncate(2 pages) error = %v, want KeyNotFoundError", err)
	}
	if _, err := b.Get(1, 0, make([]byte, testPageSz)); err != nil {
		t.Errorf("Get(1) after Truncate(2 pages) error = %v, want nil (still live)", err)
	}
}

func TestBucketSyncPersistsIndex(t *testing.T) {
	dir := t.TempDir()
	state := newTestState()

	b, err := NewBucket(dir, "accounts", state)
	if err != nil {
		t.Fatalf("NewBucket() error = %v", err)
	}
	b.SetWritable()

	if err := b.Put(0, 0, bytes.Repeat([]byte{9}, testPageSz)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	loaded, err := ReadOnlyBucket(dir, "accounts", state.ActiveVer(), state)
	if err != nil {
		t.Fatalf("ReadOnlyBucket() error = %v", err)
	}
	defer loaded.Close()

	got := make([]byte, testPageSz)
	if _, err := loaded.Get(0, 0, got); err != nil {
		t.Fatalf("Get() on reloaded bucket error = %v", err)
	}
	if !bytes.Equal(got, bytes.Repeat([]byte{9}, testPageSz)) {
		t.Errorf("Get() on reloaded bucket = %x, want 9-filled page", got)
	}
}

func TestWritableBucketLoadsAfterVersionAdvance(t *testing.T) {
	dir := t.TempDir()
	state := newTestState()

	b, err := NewBucket(dir, "accounts", state)
	if err != nil {
		t.Fatalf("NewBucket() error = %v", err)
	}
	b.SetWritable()
	if err := b.Put(0, 0, bytes.Repeat([]byte{3}, testPageSz)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	b.Close()

	// index exists only at version 1; the store has since moved on
	state.AdvanceVer()

	wb, err := WritableBucket(dir, "accounts", state, 1)
	if err != nil {
		t.Fatalf("WritableBucket() error = %v", err)
	}
	defer wb.Close()

	got := make([]byte, testPageSz)
	if _, err := wb.Get(0, 0, got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, bytes.Repeat([]byte{3}, testPageSz)) {
		t.Errorf("Get() = %x, want 3-filled page", got)
	}

	// the reloaded handle is pinned to the new active version
	if err := wb.Put(1, 0, bytes.Repeat([]byte{4}, testPageSz)); err != nil {
		t.Fatalf("Put() after reload error = %v", err)
	}
	val, _ := wb.Locator(1)
	if val.Ver != state.ActiveVer() {
		t.Errorf("new locator ver = %d, want active %d", val.Ver, state.ActiveVer())
	}
}

func TestBucketVerNotWritableAfterCommit(t *testing.T) {
	dir := t.TempDir()
	state := newTestState()

	b, err := NewBucket(dir, "accounts", state)
	if err != nil {
		t.Fatalf("NewBucket() error = %v", err)
	}
	b.SetWritable()
	if err := b.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	state.AdvanceVer()

	err = b.Put(0, 0, bytes.Repeat([]byte{1}, testPageSz))
	var verErr *VerNotWritableError
	if !errors.As(err, &verErr) {
		t.Errorf("Put() after store advanced version error = %v, want VerNotWritableError", err)
	}
}
