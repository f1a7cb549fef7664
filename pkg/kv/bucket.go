package kv

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/mojokv/pkg/log"
	"github.com/cuemby/mojokv/pkg/metrics"
)

// Bucket is one logical file: an Index bound to the active version's
// PageFile plus a read-through map of older versions' PageFiles.
type Bucket struct {
	name       string
	rootPath   string
	index      *Index
	filePageSz uint64
	fmap       *bucketFileMap
	isDirty    bool
	isModified bool
	isClosed   bool
	activeVer  uint32 // the version this bucket handle is pinned to

	state    *State
	writable bool
}

func indexPath(rootPath, name string, ver uint32) string {
	return filepath.Join(rootPath, fmt.Sprintf("%s_i.%d", name, ver))
}

func dataPath(rootPath, name string, ver uint32) string {
	return filepath.Join(rootPath, fmt.Sprintf("%s_d.%d", name, ver))
}

// SetWritable marks this bucket handle as accepting writes. It is invoked
// by Store.Open after loading/creating the bucket in write mode.
func (b *Bucket) SetWritable() {
	b.writable = true
}

// ReadOnlyBucket loads a bucket pinned to a specific snapshot version.
func ReadOnlyBucket(rootPath, name string, ver uint32, state *State) (*Bucket, error) {
	log.WithBucket("bucket", name, ver).Debug().Msg("opening bucket readonly")
	return loadBucket(rootPath, name, ver, state)
}

// loadBucket deserializes the Index at ver and opens every PageFile the
// index's vset references, plus the store's current active version (so a
// writable handle loaded at an older birth-version can still append).
func loadBucket(rootPath, name string, ver uint32, state *State) (*Bucket, error) {
	if ver < state.MinVer() || ver > state.ActiveVer() {
		return nil, &VersionNotFoundError{Ver: ver}
	}

	_, _, idx, err := loadIndexAt(rootPath, name, ver)
	if err != nil {
		return nil, err
	}

	fmap, err := newBucketFileMap(rootPath, name, idx.Header.VSet, state.ActiveVer())
	if err != nil {
		return nil, err
	}

	idx.SetActiveVer(state.ActiveVer())

	b := &Bucket{
		name:       name,
		rootPath:   rootPath,
		index:      idx,
		filePageSz: uint64(state.PageSize()) + PageHeaderLen,
		fmap:       fmap,
		activeVer:  state.ActiveVer(),
		state:      state,
	}

	return b, nil
}

// loadIndexAt deserializes the index file for (name, ver). It returns
// BucketNotAtVerError if the file does not exist.
func loadIndexAt(rootPath, name string, ver uint32) (uncompressedLen, compressedLen int, idx *Index, err error) {
	path := indexPath(rootPath, name, ver)
	if !fileExists(path) {
		return 0, 0, nil, &BucketNotAtVerError{Name: name, Ver: ver}
	}
	return DeserializeFromPath(path)
}

// LoadIndex is the public form of loadIndexAt, used by Store.GetIndex and
// the CLI's iview command to report an index's size without opening a
// full Bucket (no data files touched).
func LoadIndex(rootPath, name string, ver uint32) (uncompressedLen, compressedLen int, idx *Index, err error) {
	return loadIndexAt(rootPath, name, ver)
}

// NewBucket creates a brand-new, empty bucket at the store's current
// active version.
func NewBucket(rootPath, name string, state *State) (*Bucket, error) {
	log.WithBucket("bucket", name, state.ActiveVer()).Debug().Msg("creating new bucket")

	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("bucket: mkdir %s: %w", rootPath, err)
	}

	idx := NewIndex(state.PPS())
	fmap, err := newBucketFileMap(rootPath, name, idx.Header.VSet, state.ActiveVer())
	if err != nil {
		return nil, err
	}

	idx.SetActiveVer(state.ActiveVer())

	b := &Bucket{
		name:       name,
		rootPath:   rootPath,
		index:      idx,
		filePageSz: uint64(state.PageSize()) + PageHeaderLen,
		fmap:       fmap,
		activeVer:  state.ActiveVer(),
		state:      state,
	}
	return b, nil
}

// WritableBucket opens (creating if absent) a bucket ready to accept
// writes at the store's active version.
func WritableBucket(rootPath, name string, state *State, loadVer uint32) (*Bucket, error) {
	var (
		b   *Bucket
		err error
	)

	if fileExists(indexPath(rootPath, name, loadVer)) {
		b, err = loadBucket(rootPath, name, loadVer, state)
	} else {
		b, err = NewBucket(rootPath, name, state)
		if err == nil {
			err = b.Sync()
		}
	}
	if err != nil {
		return nil, err
	}

	b.SetWritable()
	return b, nil
}

// MaxKey returns the largest key ever put in this bucket, or -1 if empty.
func (b *Bucket) MaxKey() int64 {
	return b.index.MaxKey()
}

// IsModified reports whether this handle has staged unsynced writes.
func (b *Bucket) IsModified() bool {
	return b.isModified
}

// LogicalSize returns page_size * (max_key + 1): the byte size the shim
// should report as the backing file's size.
func (b *Bucket) LogicalSize() uint64 {
	return uint64(int64(b.state.PageSize()) * (b.index.MaxKey() + 1))
}

// Close releases every open PageFile handle. Safe to call twice.
func (b *Bucket) Close() error {
	if b.isClosed {
		return nil
	}
	if err := b.fmap.close(); err != nil {
		return err
	}
	b.isClosed = true
	return nil
}

// Truncate shrinks the bucket's logical size to newSize bytes.
func (b *Bucket) Truncate(newSize uint64) error {
	b.state.commitMu.RLock()
	defer b.state.commitMu.RUnlock()

	pages := newSize / uint64(b.state.PageSize())
	if err := b.index.Truncate(uint32(pages)); err != nil {
		return err
	}
	b.isModified = true
	return nil
}

func (b *Bucket) putAt(key uint32, pageOff uint64, buf []byte, val Value) error {
	pageStart := uint64(val.Off) * b.filePageSz
	file, err := b.fmap.activeFile(b.state.ActiveVer())
	if err != nil {
		return err
	}
	return file.WriteAt(pageStart, key, pageOff, buf)
}

// Put implements copy-on-write: a page touched for the first time in this
// version (or still owned by an older version) is appended; a page
// already owned by the active version is overwritten in place.
func (b *Bucket) Put(key uint32, pageOff uint64, buf []byte) error {
	if !b.writable {
		return ErrBucketNotWritable
	}

	b.state.commitMu.RLock()
	defer b.state.commitMu.RUnlock()

	if b.activeVer < b.state.ActiveVer() {
		return &VerNotWritableError{BucketVer: b.activeVer, ActiveVer: b.state.ActiveVer()}
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.PutDuration, b.name)

	log.WithBucket("bucket", b.name, b.activeVer).Debug().Uint32("key", key).Uint64("page_off", pageOff).Int("len", len(buf)).Msg("put")

	existing, hasSlot := b.index.Get(key)
	switch {
	case hasSlot && existing.IsAllocated() && existing.Ver == b.state.ActiveVer():
		if err := b.putAt(key, pageOff, buf, existing); err != nil {
			return err
		}
		b.index.Put(key, existing.Off)

	default:
		file, err := b.fmap.activeFile(b.state.ActiveVer())
		if err != nil {
			return err
		}
		writeOff, err := file.Append(key, pageOff, buf, b.filePageSz)
		if err != nil {
			return err
		}
		blockNo := uint32(writeOff / b.filePageSz)
		b.index.Put(key, blockNo)
		metrics.PagesAppendedTotal.WithLabelValues(b.name).Inc()
	}

	b.isDirty = true
	b.isModified = true
	metrics.PutsTotal.WithLabelValues(b.name).Inc()
	metrics.BytesWrittenTotal.WithLabelValues(b.name).Add(float64(len(buf)))

	return nil
}

// Locator returns the raw index entry for key without touching any data
// file, used by introspection tools that only need to know where (or
// whether) a key is stored.
func (b *Bucket) Locator(key uint32) (Value, bool) {
	return b.index.Get(key)
}

// Get reads the bytes stored at key into outBuf, starting at pageOff
// within the page.
func (b *Bucket) Get(key uint32, pageOff uint64, outBuf []byte) (int, error) {
	metrics.GetsTotal.WithLabelValues(b.name).Inc()
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.GetDuration, b.name)

	log.WithBucket("bucket", b.name, b.activeVer).Debug().Uint32("key", key).Uint64("page_off", pageOff).Int("len", len(outBuf)).Msg("get")

	val, hasSlot := b.index.Get(key)
	if !hasSlot || !val.IsAllocated() {
		metrics.KeyNotFoundTotal.WithLabelValues(b.name).Inc()
		return 0, &KeyNotFoundError{Key: key}
	}

	readOff := uint64(val.Off)*b.filePageSz + PageHeaderLen + pageOff

	file, err := b.fmap.file(val.Ver)
	if err != nil {
		return 0, err
	}

	return file.ReadAt(readOff, outBuf)
}

// syncNoCommitLock fsyncs the active data file and re-persists the index
// without taking the store's commit read-lock; Sync wraps it with that
// lock and is its only caller.
func (b *Bucket) syncNoCommitLock() error {
	if !b.writable {
		return ErrStoreNotWritable
	}

	file, err := b.fmap.activeFile(b.state.ActiveVer())
	if err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return err
	}

	stale := b.index.updateMinMaxVer()
	log.WithBucket("bucket", b.name, b.activeVer).Debug().Uints32("stale_versions", stale).Msg("closing versions no longer referenced")
	if err := b.fmap.closeVersions(stale, b.activeVer); err != nil {
		return err
	}

	path := indexPath(b.rootPath, b.name, b.state.ActiveVer())
	if err := b.index.SerializeToPath(path); err != nil {
		return err
	}

	b.isDirty = false
	return nil
}

// Sync flushes the active data file and re-serializes the Index.
func (b *Bucket) Sync() error {
	b.state.commitMu.RLock()
	defer b.state.commitMu.RUnlock()

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SyncDuration)

	return b.syncNoCommitLock()
}

// DeleteVer removes a bucket's index and data files for ver.
func DeleteVer(rootPath, name string, ver uint32) error {
	if err := os.Remove(indexPath(rootPath, name, ver)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("bucket: remove index: %w", err)
	}
	if err := os.Remove(dataPath(rootPath, name, ver)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("bucket: remove data: %w", err)
	}
	return nil
}

// bucketFileMap owns every open PageFile handle for a bucket, keyed by
// the version whose writes they hold.
type bucketFileMap struct {
	name  string
	files map[uint32]*PageFile
}

func newBucketFileMap(rootPath, name string, vset map[uint32]struct{}, activeVer uint32) (*bucketFileMap, error) {
	fm := &bucketFileMap{name: name, files: make(map[uint32]*PageFile)}

	for ver := range vset {
		if ver != activeVer {
			if err := fm.addFile(rootPath, name, ver); err != nil {
				return nil, err
			}
		}
	}

	if err := fm.addFile(rootPath, name, activeVer); err != nil {
		return nil, err
	}

	return fm, nil
}

func (fm *bucketFileMap) addFile(rootPath, name string, ver uint32) error {
	pf, err := OpenPageFile(dataPath(rootPath, name, ver))
	if err != nil {
		return err
	}
	fm.files[ver] = pf
	metrics.OpenPageFiles.WithLabelValues(name).Inc()
	return nil
}

func (fm *bucketFileMap) activeFile(ver uint32) (*PageFile, error) {
	pf, ok := fm.files[ver]
	if !ok {
		return nil, fmt.Errorf("bucket: write version %d not open", ver)
	}
	return pf, nil
}

func (fm *bucketFileMap) file(ver uint32) (*PageFile, error) {
	pf, ok := fm.files[ver]
	if !ok {
		return nil, fmt.Errorf("bucket: read version %d not open", ver)
	}
	return pf, nil
}

func (fm *bucketFileMap) close() error {
	for v, f := range fm.files {
		if err := f.Close(); err != nil {
			return err
		}
		delete(fm.files, v)
		metrics.OpenPageFiles.WithLabelValues(fm.name).Dec()
	}
	return nil
}

func (fm *bucketFileMap) closeVersions(vers []uint32, activeVer uint32) error {
	for _, v := range vers {
		if v == activeVer {
			continue
		}
		if f, ok := fm.files[v]; ok {
			if err := f.Close(); err != nil {
				return err
			}
			delete(fm.files, v)
			metrics.OpenPageFiles.WithLabelValues(fm.name).Dec()
		}
	}
	return nil
}
