package kv

import "fmt"

// KeyMap is a two-level sparse array mapping a dense integer key space to
// Values: an outer vector of optional Slots, each Slot a dense run of pps
// Values. A key k lives in slot k/pps at position k mod pps.
type KeyMap struct {
	SlotMap []Slot
	PPS     uint32
}

// NewKeyMap returns an empty KeyMap with the given pages-per-slot width.
func NewKeyMap(pps uint32) *KeyMap {
	return &KeyMap{PPS: pps}
}

func allocSlot(pps uint32) Slot {
	return make(Slot, pps)
}

// Put stores val at key, growing the outer vector and allocating the
// target slot on demand.
func (k *KeyMap) Put(key uint32, val Value) {
	slot := key / k.PPS
	if int(slot) >= len(k.SlotMap) {
		grown := make([]Slot, slot+1)
		copy(grown, k.SlotMap)
		k.SlotMap = grown
	}

	if len(k.SlotMap[slot]) == 0 {
		k.SlotMap[slot] = allocSlot(k.PPS)
	}

	slotKey := key % k.PPS
	k.SlotMap[slot][slotKey] = val
}

// Get returns the locator at key. It returns the locator even if
// unallocated; callers filter by Value.IsAllocated. The second return
// value is false only when the slot itself was never touched.
func (k *KeyMap) Get(key uint32) (Value, bool) {
	slot := key / k.PPS
	if int(slot) >= len(k.SlotMap) || len(k.SlotMap[slot]) == 0 {
		return Value{}, false
	}

	slotKey := key % k.PPS
	return k.SlotMap[slot][slotKey], true
}

// Truncate shrinks the outer vector to slot+1 entries (slot = key/pps) and
// deallocates Values at positions [key mod pps, pps) of the final slot.
// An out-of-range slot (beyond the current outer vector) is rejected
// rather than silently growing the map.
func (k *KeyMap) Truncate(key uint32) error {
	slot := key / k.PPS
	if int(slot) >= len(k.SlotMap) {
		return fmt.Errorf("keymap: truncate key %d (slot %d) out of range (have %d slots)", key, slot, len(k.SlotMap))
	}

	k.SlotMap = k.SlotMap[:slot+1]

	slotKey := key % k.PPS
	if tail := k.SlotMap[slot]; tail != nil {
		for i := int(slotKey); i < len(tail); i++ {
			tail[i].Deallocate()
		}
	}
	return nil
}

// MinMaxVersions scans every allocated Value and returns the minimum and
// maximum version it references, along with the set of distinct versions
// referenced (vset). If no Value is allocated, min is returned as
// ^uint32(0) and max as 0 — callers normalize this for an empty bucket.
func (k *KeyMap) MinMaxVersions() (min, max uint32, vset map[uint32]struct{}) {
	vset = make(map[uint32]struct{})
	min = ^uint32(0)
	max = 0

	for _, slot := range k.SlotMap {
		if slot == nil {
			continue
		}
		for _, val := range slot {
			if val.Ver == 0 {
				continue
			}
			vset[val.Ver] = struct{}{}
			if val.Ver < min {
				min = val.Ver
			}
			if val.Ver > max {
				max = val.Ver
			}
		}
	}

	return min, max, vset
}
