package kv

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/cuemby/mojokv/pkg/log"
	"github.com/cuemby/mojokv/pkg/metrics"
)

// BucketOpenMode selects whether Store.Open returns a bucket ready to
// accept writes.
type BucketOpenMode int

const (
	ModeRead BucketOpenMode = iota
	ModeWrite
)

// IsWrite reports whether this mode requests a writable bucket handle.
func (m BucketOpenMode) IsWrite() bool {
	return m == ModeWrite
}

// Store is the top-level coordinator: it sequences bucket opens, enforces
// single-writer commits via a pid-scoped OS lock file, and serves
// readonly snapshots at any committed version.
type Store struct {
	mu sync.RWMutex

	rootPath string
	state    *State
	bmap     *BucketMap
	isWrite  bool

	instanceID uuid.UUID
}

// Exists reports whether name is registered in the bucket map.
func (s *Store) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bmap.Exists(name)
}

// Open returns a bucket handle. In ModeWrite, a store opened readonly
// rejects the call; a bucket not yet present in the bucket map is created
// transparently and registered.
func (s *Store) Open(name string, mode BucketOpenMode) (*Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	compLog := log.WithStore("store", s.rootPath, s.instanceID)
	compLog.Debug().Str("bucket", name).Bool("write_mode", mode.IsWrite()).Bool("store_writable", s.isWrite).Msg("opening bucket")

	if !s.isWrite && mode.IsWrite() {
		return nil, ErrStoreNotWritable
	}

	var (
		b   *Bucket
		err error
	)

	if ver, ok := s.bmap.Get(name); ok {
		b, err = loadBucket(s.rootPath, name, ver, s.state)
	} else {
		if !mode.IsWrite() {
			return nil, &BucketNotAtVerError{Name: name, Ver: s.state.ActiveVer()}
		}
		b, err = NewBucket(s.rootPath, name, s.state)
	}
	if err != nil {
		return nil, err
	}

	if s.isWrite && mode.IsWrite() {
		b.SetWritable()
		if err := b.Sync(); err != nil {
			return nil, err
		}
	}

	if mode.IsWrite() {
		s.bmap.Add(name, s.state.ActiveVer())
		if err := s.syncBmap(); err != nil {
			return nil, err
		}
		metrics.BucketsTotal.Set(float64(len(s.bmap.Buckets)))
	}

	return b, nil
}

// Delete removes name from the bucket map and deletes its index/data
// files at the store's current active version.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	aver := s.state.ActiveVer()
	if err := s.bmap.Delete(s.rootPath, name, aver); err != nil {
		return err
	}
	metrics.BucketsTotal.Set(float64(len(s.bmap.Buckets)))
	return s.syncBmap()
}

// Commit acquires the pid-scoped mojo.lock file, advances the active
// version, and persists State and the new version's BucketMap. Per-bucket
// indexes must already have been persisted by prior Bucket.Sync calls.
func (s *Store) Commit() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CommitDuration)

	compLog := log.WithStore("store", s.rootPath, s.instanceID)
	compLog.Debug().Uint32("ver", s.state.ActiveVer()).Msg("committing store")

	s.state.commitMu.Lock()
	defer s.state.commitMu.Unlock()

	lockPath := filepath.Join(s.rootPath, "mojo.lock")
	fileLock := flock.New(lockPath)

	locked, err := fileLock.TryLock()
	if err != nil {
		return 0, fmt.Errorf("store: acquire commit lock: %w", err)
	}
	if !locked {
		metrics.CommitLockContentionTotal.Inc()
		return 0, ErrCommitLocked
	}
	defer fileLock.Unlock()

	if err := os.WriteFile(lockPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return 0, fmt.Errorf("store: write pid to commit lock: %w", err)
	}
	compLog.Debug().Str("lock", lockPath).Msg("commit lock acquired")

	newVer := s.state.AdvanceVer()

	if err := s.syncState(); err != nil {
		return 0, err
	}
	if err := s.syncBmapAt(newVer); err != nil {
		return 0, err
	}

	metrics.ActiveVersion.Set(float64(newVer))
	metrics.CommitsTotal.Inc()

	compLog.Debug().Uint32("ver", newVer).Msg("commit done")
	return newVer, nil
}

// ActiveVer returns the store's current writable version.
func (s *Store) ActiveVer() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActiveVer()
}

// GetIndex returns a bucket's decoded Index together with its
// compressed/uncompressed on-disk sizes, without opening data files.
func (s *Store) GetIndex(name string) (uncompressedLen, compressedLen int, idx *Index, found bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ver, ok := s.bmap.Get(name)
	if !ok {
		return 0, 0, nil, false, nil
	}

	u, c, idx, err := LoadIndex(s.rootPath, name, ver)
	if err != nil {
		return 0, 0, nil, false, err
	}
	return u, c, idx, true, nil
}

// LoadState reads mojo.state from rootPath.
func LoadState(rootPath string) (*State, error) {
	statePath := filepath.Join(rootPath, "mojo.state")
	return DeserializeStateFromPath(statePath)
}

// ReadOnly opens a store for readonly access, with its bucket map fixed
// at ver.
func ReadOnly(rootPath string, ver uint32) (*Store, error) {
	log.WithComponent("store").Debug().Str("store_path", rootPath).Uint32("ver", ver).Msg("opening store readonly")

	state, err := LoadState(rootPath)
	if err != nil {
		return nil, err
	}
	return loadStore(rootPath, state, ver, false)
}

// Writable opens (creating if create is true and the store does not yet
// exist) a store ready to accept writes. pageSz and pps are mandatory
// when creating a new store.
func Writable(rootPath string, create bool, pageSz, pps *uint32) (*Store, error) {
	initPath := filepath.Join(rootPath, "mojo.init")

	if create && (pageSz == nil || pps == nil) {
		return nil, ErrMissingArgs
	}

	var (
		store *Store
		err   error
	)

	if !fileExists(initPath) {
		if !create {
			return nil, ErrStoreNotFound
		}

		log.WithComponent("store").Debug().Str("store_path", rootPath).Msg("store does not exist, initializing")
		store, err = newStore(rootPath, *pageSz, *pps)
		if err != nil {
			return nil, err
		}
		if err := store.init(); err != nil {
			return nil, err
		}
	} else {
		state, err2 := LoadState(rootPath)
		if err2 != nil {
			return nil, err2
		}
		store, err = loadStore(rootPath, state, state.ActiveVer(), false)
		if err != nil {
			return nil, err
		}
	}

	store.mu.Lock()
	store.isWrite = true
	store.mu.Unlock()

	metrics.ActiveVersion.Set(float64(store.ActiveVer()))
	metrics.BucketsTotal.Set(float64(len(store.bmap.Buckets)))

	return store, nil
}

func loadStore(rootPath string, state *State, ver uint32, isWrite bool) (*Store, error) {
	log.WithComponent("store").Debug().Str("store_path", rootPath).Uint32("ver", ver).Msg("loading store")

	bmap, err := LoadBucketMap(rootPath, ver)
	if err != nil {
		return nil, err
	}

	return &Store{
		rootPath:   rootPath,
		state:      state,
		bmap:       bmap,
		isWrite:    isWrite,
		instanceID: uuid.New(),
	}, nil
}

func newStore(rootPath string, pageSz, pps uint32) (*Store, error) {
	return &Store{
		rootPath:   rootPath,
		state:      NewState(pageSz, pps),
		bmap:       NewBucketMap(),
		isWrite:    false,
		instanceID: uuid.New(),
	}, nil
}

func (s *Store) init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.rootPath, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", s.rootPath, err)
	}
	if err := s.syncState(); err != nil {
		return err
	}
	if err := s.syncBmap(); err != nil {
		return err
	}
	return touchFile(filepath.Join(s.rootPath, "mojo.init"))
}

func (s *Store) syncBmap() error {
	return s.syncBmapAt(s.state.ActiveVer())
}

func (s *Store) syncBmapAt(ver uint32) error {
	path := bmapPath(s.rootPath, ver)
	log.WithComponent("store").Debug().Uint32("ver", ver).Msg("syncing bucket map")
	return s.bmap.SerializeToPath(path)
}

func (s *Store) syncState() error {
	path := filepath.Join(s.rootPath, "mojo.state")
	log.WithComponent("store").Debug().Uint32("ver", s.state.ActiveVer()).Msg("syncing state")
	return s.state.SerializeToPath(path)
}
