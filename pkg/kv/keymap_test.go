package kv

import "testing"

func TestKeyMapPutGet(t *testing.T) {
	km := NewKeyMap(4)

	km.Put(0, Value{Off: 10, Ver: 1})
	km.Put(5, Value{Off: 20, Ver: 1})

	v, ok := km.Get(0)
	if !ok || v.Off != 10 || v.Ver != 1 {
		t.Fatalf("Get(0) = %+v, %v", v, ok)
	}

	v, ok = km.Get(5)
	if !ok || v.Off != 20 || v.Ver != 1 {
		t.Fatalf("Get(5) = %+v, %v", v, ok)
	}
}

func TestKeyMapGetUntouchedSlot(t *testing.T) {
	km := NewKeyMap(4)

	_, ok := km.Get(100)
	if ok {
		t.Error("Get() on untouched slot should return ok=false")
	}
}

func TestKeyMapGetSparseHole(t *testing.T) {
	km := NewKeyMap(4)
	km.Put(6, Value{Off: 1, Ver: 1})

	// key 4 lives in the same slot as 6 but was never put.
	v, ok := km.Get(4)
	if !ok {
		t.Fatal("Get(4) should report ok=true (slot was allocated)")
	}
	if v.IsAllocated() {
		t.Errorf("Get(4) = %+v, want unallocated hole", v)
	}
}

func TestKeyMapTruncate(t *testing.T) {
	km := NewKeyMap(4)
	km.Put(0, Value{Off: 1, Ver: 1})
	km.Put(1, Value{Off: 2, Ver: 1})
	km.Put(2, Value{Off: 3, Ver: 1})
	km.Put(3, Value{Off: 4, Ver: 1})

	if err := km.Truncate(2); err != nil {
		t.Fatalf("Truncate(2) error = %v", err)
	}

	v, ok := km.Get(1)
	if !ok || !v.IsAllocated() {
		t.Errorf("Get(1) after truncate(2) = %+v, %v, want still allocated", v, ok)
	}

	v, ok = km.Get(2)
	if !ok || v.IsAllocated() {
		t.Errorf("Get(2) after truncate(2) = %+v, %v, want deallocated", v, ok)
	}

	v, ok = km.Get(3)
	if !ok || v.IsAllocated() {
		t.Errorf("Get(3) after truncate(2) = %+v, %v, want deallocated", v, ok)
	}
}

func TestKeyMapTruncateOutOfRange(t *testing.T) {
	km := NewKeyMap(4)
	km.Put(0, Value{Off: 1, Ver: 1})

	if err := km.Truncate(1000); err == nil {
		t.Error("Truncate() with out-of-range slot should error, not grow")
	}
}

func TestKeyMapMinMaxVersionsEmpty(t *testing.T) {
	km := NewKeyMap(4)

	min, max, vset := km.MinMaxVersions()
	if min != ^uint32(0) || max != 0 || len(vset) != 0 {
		t.Errorf("MinMaxVersions() on empty map = (%d, %d, %v)", min, max, vset)
	}
}

func TestKeyMapMinMaxVersionsMixed(t *testing.T) {
	km := NewKeyMap(4)
	km.Put(0, Value{Off: 1, Ver: 3})
	km.Put(1, Value{Off: 2, Ver: 1})
	km.Put(2, Value{Off: 3, Ver: 2})

	min, max, vset := km.MinMaxVersions()
	if min != 1 || max != 3 {
		t.Errorf("MinMaxVersions() = min %d max %d, want 1, 3", min, max)
	}
	for _, want := range []uint32{1, 2, 3} {
		if _, ok := vset[want]; !ok {
			t.Errorf("vset missing version %d: %v", want, vset)
		}
	}
}
