package kv

import (
	"errors"
	"fmt"
)

// Sentinel errors that carry no payload beyond their meaning.
var (
	ErrBucketNotWritable = errors.New("bucket not writable")
	ErrStoreNotWritable  = errors.New("store not writable")
	ErrStoreNotFound     = errors.New("store not found")
	ErrMissingArgs       = errors.New("missing arguments")
	ErrCommitLocked      = errors.New("commit lock could not be acquired")
	ErrSingleVersion     = errors.New("only single version exists")
)

// KeyNotFoundError is returned when a page key has no allocated locator.
type KeyNotFoundError struct {
	Key uint32
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %d not found", e.Key)
}

// VersionNotFoundError is returned when a requested snapshot version falls
// outside [min_ver, active_ver].
type VersionNotFoundError struct {
	Ver uint32
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %d not found", e.Ver)
}

// BucketNotAtVerError is returned when a bucket has no index file at the
// requested version.
type BucketNotAtVerError struct {
	Name string
	Ver  uint32
}

func (e *BucketNotAtVerError) Error() string {
	return fmt.Sprintf("bucket %s not found at ver=%d", e.Name, e.Ver)
}

// VerNotWritableError is returned when a bucket handle's pinned version has
// fallen behind the store's active version.
type VerNotWritableError struct {
	BucketVer uint32
	ActiveVer uint32
}

func (e *VerNotWritableError) Error() string {
	return fmt.Sprintf("version no longer writable: bucket ver=%d active ver=%d", e.BucketVer, e.ActiveVer)
}

// KeyNotMultipleError is returned when a byte size or offset that must
// land on a page boundary does not.
type KeyNotMultipleError struct {
	Key uint64
}

func (e *KeyNotMultipleError) Error() string {
	return fmt.Sprintf("key %d not a multiple of page size", e.Key)
}

// IsKeyNotFound reports whether err is (or wraps) a KeyNotFoundError.
func IsKeyNotFound(err error) bool {
	var target *KeyNotFoundError
	return errors.As(err, &target)
}
