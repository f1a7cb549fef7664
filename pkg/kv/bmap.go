package kv

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cuemby/mojokv/pkg/log"
)

// BucketMap maps a bucket name to the store version at which its current
// Index is stored. It is persisted per store version at mojo.bmap.{v}.
type BucketMap struct {
	Buckets map[string]uint32 `json:"buckets"`
}

// NewBucketMap returns an empty BucketMap.
func NewBucketMap() *BucketMap {
	return &BucketMap{Buckets: make(map[string]uint32)}
}

// Add records that name's current index is stored at ver.
func (bm *BucketMap) Add(name string, ver uint32) {
	log.WithBucket("bmap", name, ver).Debug().Msg("registering bucket")
	bm.Buckets[name] = ver
}

// Exists reports whether name is registered.
func (bm *BucketMap) Exists(name string) bool {
	_, ok := bm.Buckets[name]
	return ok
}

// Get returns the version at which name's index is stored.
func (bm *BucketMap) Get(name string) (uint32, bool) {
	v, ok := bm.Buckets[name]
	return v, ok
}

// Delete removes name's entry and deletes its index/data files for ver.
func (bm *BucketMap) Delete(rootPath, name string, ver uint32) error {
	log.WithBucket("bmap", name, ver).Debug().Msg("deleting bucket")
	delete(bm.Buckets, name)
	return DeleteVer(rootPath, name, ver)
}

func bmapPath(rootPath string, ver uint32) string {
	return filepath.Join(rootPath, fmt.Sprintf("mojo.bmap.%d", ver))
}

// SerializeToPath writes the BucketMap as JSON text.
func (bm *BucketMap) SerializeToPath(path string) error {
	buf, err := json.Marshal(bm)
	if err != nil {
		return fmt.Errorf("bmap: marshal: %w", err)
	}
	return writeFile(path, buf)
}

// DeserializeBucketMapFromPath reads a BucketMap previously written by
// SerializeToPath.
func DeserializeBucketMapFromPath(path string) (*BucketMap, error) {
	buf, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	var bm BucketMap
	if err := json.Unmarshal(buf, &bm); err != nil {
		return nil, fmt.Errorf("bmap: unmarshal: %w", err)
	}
	if bm.Buckets == nil {
		bm.Buckets = make(map[string]uint32)
	}
	return &bm, nil
}

// LoadBucketMap reads the BucketMap snapshot for store version ver.
func LoadBucketMap(rootPath string, ver uint32) (*BucketMap, error) {
	path := bmapPath(rootPath, ver)
	log.WithComponent("bmap").Debug().Str("store_path", rootPath).Uint32("ver", ver).Msg("loading bucket map")
	return DeserializeBucketMapFromPath(path)
}
