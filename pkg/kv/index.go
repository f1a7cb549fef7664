package kv

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"sort"

	"github.com/klauspost/compress/zstd"
)

const indexFormatVer = 1

// IndexHeader carries the store-wide housekeeping fields that travel
// alongside a bucket's KeyMap.
type IndexHeader struct {
	FormatVer uint32
	MinVer    uint32
	MaxVer    uint32
	ActiveVer uint32
	VSet      map[uint32]struct{}
	MaxKey    int64 // -1 when empty
	PPS       uint32
}

func newIndexHeader(pps uint32) IndexHeader {
	return IndexHeader{
		FormatVer: indexFormatVer,
		MinVer:    1,
		MaxVer:    1,
		ActiveVer: 1,
		VSet:      map[uint32]struct{}{1: {}},
		MaxKey:    -1,
		PPS:       pps,
	}
}

// Index is a bucket's KeyMap plus its header, the unit that gets
// serialized to `{name}_i.{ver}`.
type Index struct {
	Header IndexHeader
	KMap   *KeyMap
}

// NewIndex returns a freshly created Index for a bucket with the given
// pages-per-slot width.
func NewIndex(pps uint32) *Index {
	return &Index{
		Header: newIndexHeader(pps),
		KMap:   NewKeyMap(pps),
	}
}

// SetActiveVer is invoked by Bucket when loading, so that subsequent
// Put calls tag locators with the correct version.
func (idx *Index) SetActiveVer(ver uint32) {
	idx.Header.ActiveVer = ver
}

// ActiveVer returns the version new locators are tagged with.
func (idx *Index) ActiveVer() uint32 {
	return idx.Header.ActiveVer
}

// MaxKey returns the largest key ever put, or -1 if the index is empty.
func (idx *Index) MaxKey() int64 {
	return idx.Header.MaxKey
}

// Put records that key now lives at block off in the active version.
func (idx *Index) Put(key uint32, off uint32) {
	val := Value{Off: off, Ver: idx.Header.ActiveVer}

	if int64(key) > idx.Header.MaxKey {
		idx.Header.MaxKey = int64(key)
	}
	idx.KMap.Put(key, val)
}

// Get returns the locator for key, or (Value{}, false) if the key's slot
// was never touched.
func (idx *Index) Get(key uint32) (Value, bool) {
	return idx.KMap.Get(key)
}

// Truncate deallocates keys at and beyond key, and sets MaxKey to key-1.
func (idx *Index) Truncate(key uint32) error {
	if err := idx.KMap.Truncate(key); err != nil {
		return err
	}
	idx.Header.MaxKey = int64(key) - 1
	return nil
}

// updateMinMaxVer recomputes MinVer/MaxVer/VSet from the live KeyMap and
// returns the versions that are no longer referenced (and thus whose
// PageFile can be closed). An empty bucket normalizes MinVer = MaxVer =
// ActiveVer, rather than propagating the sentinel from an empty scan.
func (idx *Index) updateMinMaxVer() []uint32 {
	prevVSet := idx.Header.VSet

	min, max, vset := idx.KMap.MinMaxVersions()
	if len(vset) == 0 {
		min = idx.Header.ActiveVer
		max = idx.Header.ActiveVer
		vset = map[uint32]struct{}{idx.Header.ActiveVer: {}}
	}

	var stale []uint32
	for v := range prevVSet {
		if _, ok := vset[v]; !ok {
			stale = append(stale, v)
		}
	}

	idx.Header.MinVer = min
	idx.Header.MaxVer = max
	idx.Header.VSet = vset

	return stale
}

// IndexIterator lazily walks allocated (key, Value) pairs over [from, to).
// to == 0 means "until the end of the map".
type IndexIterator struct {
	idx   *Index
	key   uint32
	toKey uint32
}

// Iter returns a pull-based iterator yielding only allocated keys.
func (idx *Index) Iter(from, to uint32) *IndexIterator {
	return &IndexIterator{idx: idx, key: from, toKey: to}
}

// Next returns the next allocated (key, Value) pair, or ok=false when the
// iterator is exhausted.
func (it *IndexIterator) Next() (key uint32, val Value, ok bool) {
	for {
		if it.toKey > 0 && it.key >= it.toKey {
			return 0, Value{}, false
		}

		slotIdx := it.key / it.idx.Header.PPS
		if int(slotIdx) >= len(it.idx.KMap.SlotMap) {
			return 0, Value{}, false
		}

		slot := it.idx.KMap.SlotMap[slotIdx]
		if len(slot) == 0 {
			// jump straight to the next slot boundary
			next := (uint64(slotIdx) + 1) * uint64(it.idx.Header.PPS)
			if next > uint64(^uint32(0)) {
				return 0, Value{}, false
			}
			it.key = uint32(next)
			continue
		}

		slotKey := it.key % it.idx.Header.PPS
		if int(slotKey) >= len(slot) {
			return 0, Value{}, false
		}

		v := slot[slotKey]
		k := it.key
		it.key++

		if v.IsAllocated() {
			return k, v, true
		}
	}
}

// gobIndexHeader mirrors IndexHeader with VSet flattened to a slice:
// encoding/gob refuses map[uint32]struct{} (the empty struct has no
// exported fields), so the set crosses the codec as a sorted list.
type gobIndexHeader struct {
	FormatVer uint32
	MinVer    uint32
	MaxVer    uint32
	ActiveVer uint32
	VSet      []uint32
	MaxKey    int64
	PPS       uint32
}

// gobIndex is the shape actually handed to encoding/gob.
type gobIndex struct {
	Header gobIndexHeader
	KMap   *KeyMap
}

// SerializeToPath encodes the Index with gob, compresses it with zstd at
// level 3, and writes it to filepath as
// [uncompressed_len:u64 little-endian][compressed payload], fsync'd.
func (idx *Index) SerializeToPath(filepath string) error {
	gi := gobIndex{
		Header: gobIndexHeader{
			FormatVer: idx.Header.FormatVer,
			MinVer:    idx.Header.MinVer,
			MaxVer:    idx.Header.MaxVer,
			ActiveVer: idx.Header.ActiveVer,
			MaxKey:    idx.Header.MaxKey,
			PPS:       idx.Header.PPS,
		},
		KMap: idx.KMap,
	}
	for v := range idx.Header.VSet {
		gi.Header.VSet = append(gi.Header.VSet, v)
	}
	sort.Slice(gi.Header.VSet, func(i, j int) bool { return gi.Header.VSet[i] < gi.Header.VSet[j] })

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(gi); err != nil {
		return fmt.Errorf("index: gob encode: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(3)))
	if err != nil {
		return fmt.Errorf("index: zstd writer: %w", err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw.Bytes(), nil)

	out := make([]byte, 8+len(compressed))
	binary.LittleEndian.PutUint64(out[:8], uint64(raw.Len()))
	copy(out[8:], compressed)

	return writeFile(filepath, out)
}

// DeserializeFromPath reverses SerializeToPath, returning the decoded
// Index along with its uncompressed and compressed on-disk sizes (used by
// Store.GetIndex / the iview CLI command to report sizes without a full
// Bucket load).
func DeserializeFromPath(filepath string) (uncompressedLen, compressedLen int, idx *Index, err error) {
	buf, err := loadFile(filepath)
	if err != nil {
		return 0, 0, nil, err
	}
	if len(buf) < 8 {
		return 0, 0, nil, fmt.Errorf("index: truncated file %s", filepath)
	}

	uncompressedLen = int(binary.LittleEndian.Uint64(buf[:8]))
	compressed := buf[8:]
	compressedLen = len(compressed)

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("index: zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(compressed, make([]byte, 0, uncompressedLen))
	if err != nil {
		return 0, 0, nil, fmt.Errorf("index: zstd decompress: %w", err)
	}

	var gi gobIndex
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&gi); err != nil {
		return 0, 0, nil, fmt.Errorf("index: gob decode: %w", err)
	}

	header := IndexHeader{
		FormatVer: gi.Header.FormatVer,
		MinVer:    gi.Header.MinVer,
		MaxVer:    gi.Header.MaxVer,
		ActiveVer: gi.Header.ActiveVer,
		VSet:      make(map[uint32]struct{}, len(gi.Header.VSet)),
		MaxKey:    gi.Header.MaxKey,
		PPS:       gi.Header.PPS,
	}
	for _, v := range gi.Header.VSet {
		header.VSet[v] = struct{}{}
	}

	km := gi.KMap
	if km == nil {
		km = NewKeyMap(header.PPS)
	}
	// gob can hand back zero-length inner slices for slots that were nil
	// on the encode side; normalize them back to absent.
	for i, slot := range km.SlotMap {
		if len(slot) == 0 {
			km.SlotMap[i] = nil
		}
	}

	return uncompressedLen, compressedLen, &Index{Header: header, KMap: km}, nil
}
