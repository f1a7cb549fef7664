package kv

import (
	"path/filepath"
	"testing"
)

func TestNewIndexDefaults(t *testing.T) {
	idx := NewIndex(16)

	if idx.MaxKey() != -1 {
		t.Errorf("MaxKey() = %d, want -1", idx.MaxKey())
	}
	if idx.ActiveVer() != 1 {
		t.Errorf("ActiveVer() = %d, want 1", idx.ActiveVer())
	}
	if idx.Header.MinVer != 1 || idx.Header.MaxVer != 1 {
		t.Errorf("Header = %+v, want MinVer=MaxVer=1", idx.Header)
	}
}

func TestIndexPutGet(t *testing.T) {
	idx := NewIndex(16)
	idx.Put(0, 7)
	idx.Put(3, 9)

	v, ok := idx.Get(0)
	if !ok || v.Off != 7 || v.Ver != 1 {
		t.Fatalf("Get(0) = %+v, %v", v, ok)
	}

	if idx.MaxKey() != 3 {
		t.Errorf("MaxKey() = %d, want 3", idx.MaxKey())
	}
}

func TestIndexTruncate(t *testing.T) {
	idx := NewIndex(16)
	idx.Put(0, 1)
	idx.Put(1, 2)
	idx.Put(2, 3)

	if err := idx.Truncate(1); err != nil {
		t.Fatalf("Truncate(1) error = %v", err)
	}
	if idx.MaxKey() != 0 {
		t.Errorf("MaxKey() after Truncate(1) = %d, want 0", idx.MaxKey())
	}

	v, ok := idx.Get(1)
	if !ok || v.IsAllocated() {
		t.Errorf("Get(1) after truncate = %+v, %v, want deallocated", v, ok)
	}
}

func TestIndexUpdateMinMaxVerEmptyNormalizes(t *testing.T) {
	idx := NewIndex(16)
	idx.SetActiveVer(5)

	stale := idx.updateMinMaxVer()

	if idx.Header.MinVer != 5 || idx.Header.MaxVer != 5 {
		t.Errorf("empty bucket normalization = MinVer %d MaxVer %d, want 5, 5", idx.Header.MinVer, idx.Header.MaxVer)
	}
	if _, ok := idx.Header.VSet[5]; !ok {
		t.Errorf("VSet = %v, want {5}", idx.Header.VSet)
	}
	if len(stale) != 1 || stale[0] != 1 {
		t.Errorf("stale = %v, want [1] (the birth version no longer referenced)", stale)
	}
}

func TestIndexUpdateMinMaxVerReturnsStale(t *testing.T) {
	idx := NewIndex(16)
	idx.Put(0, 1) // ver 1
	idx.SetActiveVer(2)
	idx.Put(1, 2) // ver 2
	idx.Header.VSet = map[uint32]struct{}{1: {}, 2: {}}

	// simulate key 0 being overwritten at ver 2, so ver 1 is no longer referenced
	idx.KMap.Put(0, Value{Off: 1, Ver: 2})

	stale := idx.updateMinMaxVer()
	if len(stale) != 1 || stale[0] != 1 {
		t.Errorf("stale = %v, want [1]", stale)
	}
	if _, ok := idx.Header.VSet[1]; ok {
		t.Errorf("VSet still contains stale version 1: %v", idx.Header.VSet)
	}
}

func TestIndexIteratorYieldsOnlyAllocated(t *testing.T) {
	idx := NewIndex(4)
	idx.Put(0, 1)
	idx.Put(2, 2)
	// key 1 and 3 remain holes in the same slot.

	var got []uint32
	it := idx.Iter(0, 4)
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, k)
	}

	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("iterator yielded %v, want [0 2]", got)
	}
}

func TestIndexIteratorUnbounded(t *testing.T) {
	idx := NewIndex(4)
	idx.Put(5, 1)

	it := idx.Iter(0, 0)
	count := 0
	for {
		_, _, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	if count != 1 {
		t.Errorf("unbounded iterator yielded %d keys, want 1", count)
	}
}

func TestIndexSerializeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bucket_i.1")

	idx := NewIndex(16)
	idx.Put(0, 1)
	idx.Put(10, 2)
	idx.SetActiveVer(1)

	if err := idx.SerializeToPath(path); err != nil {
		t.Fatalf("SerializeToPath() error = %v", err)
	}

	uLen, cLen, got, err := DeserializeFromPath(path)
	if err != nil {
		t.Fatalf("DeserializeFromPath() error = %v", err)
	}
	if uLen <= 0 || cLen <= 0 {
		t.Errorf("sizes = uncompressed %d compressed %d, want both > 0", uLen, cLen)
	}

	if got.MaxKey() != 10 {
		t.Errorf("MaxKey() = %d, want 10", got.MaxKey())
	}
	v, ok := got.Get(0)
	if !ok || v.Off != 1 || v.Ver != 1 {
		t.Errorf("Get(0) after round trip = %+v, %v", v, ok)
	}
	if _, ok := got.Header.VSet[1]; !ok || len(got.Header.VSet) != 1 {
		t.Errorf("VSet after round trip = %v, want {1}", got.Header.VSet)
	}
}

func TestIndexSerializeRoundTripSparseSlots(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bucket_i.1")

	idx := NewIndex(4)
	idx.Put(0, 1)
	idx.Put(9, 2) // slot 2; slot 1 stays absent

	if err := idx.SerializeToPath(path); err != nil {
		t.Fatalf("SerializeToPath() error = %v", err)
	}
	_, _, got, err := DeserializeFromPath(path)
	if err != nil {
		t.Fatalf("DeserializeFromPath() error = %v", err)
	}

	if _, ok := got.Get(5); ok {
		t.Error("Get(5) in the absent middle slot should report ok=false")
	}
	v, ok := got.Get(9)
	if !ok || v.Off != 2 {
		t.Errorf("Get(9) after round trip = %+v, %v", v, ok)
	}

	// a put into the formerly-absent slot must allocate it fresh
	got.Put(6, 3)
	v, ok = got.Get(6)
	if !ok || v.Off != 3 {
		t.Errorf("Get(6) after put into absent slot = %+v, %v", v, ok)
	}
}
