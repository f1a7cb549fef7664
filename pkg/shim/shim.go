package shim

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cuemby/mojokv/pkg/kv"
	"github.com/cuemby/mojokv/pkg/log"
)

// defaultPPS is used when the host's parameter map omits "pps".
const defaultPPS = 65536

// defaultVer is used when the host's parameter map omits "ver".
const defaultVer = 1

// ErrPageTooLarge is returned by Pread when the caller's buffer exceeds the
// store's page size: a single page read can never span more than one page.
var ErrPageTooLarge = errors.New("shim: read buffer larger than page size")

// ErrPageSizeMissing is returned by ParseOptions when "pagesz" is absent;
// unlike ver and pps it has no default, since it's fixed at store creation.
var ErrPageSizeMissing = errors.New("shim: pagesz parameter is required")

// Options carries the host-supplied parameters that select which store
// version a BlockFile addresses and, on creation, the store's page
// geometry.
type Options struct {
	Ver    uint32
	PageSz uint32
	PPS    uint32
}

// ParseOptions decodes a host parameter map of the form a VFS registration
// hook would pass: "ver" (optional, default 1), "pagesz" (mandatory),
// "pps" (optional, default 65536).
func ParseOptions(params map[string]string) (Options, error) {
	opt := Options{Ver: defaultVer, PPS: defaultPPS}

	if s, ok := params["ver"]; ok {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return Options{}, fmt.Errorf("shim: parse ver: %w", err)
		}
		opt.Ver = uint32(v)
	}

	s, ok := params["pagesz"]
	if !ok {
		return Options{}, ErrPageSizeMissing
	}
	pageSz, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return Options{}, fmt.Errorf("shim: parse pagesz: %w", err)
	}
	opt.PageSz = uint32(pageSz)

	if s, ok := params["pps"]; ok {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return Options{}, fmt.Errorf("shim: parse pps: %w", err)
		}
		opt.PPS = uint32(v)
	}

	return opt, nil
}

// BlockFile adapts one kv.Bucket to byte-offset pread/pwrite.
type BlockFile struct {
	bucket *kv.Bucket
	opt    Options
}

// Open wraps an already-opened bucket for block-device style access.
func Open(bucket *kv.Bucket, opt Options) *BlockFile {
	return &BlockFile{bucket: bucket, opt: opt}
}

// Pread reads len(buf) bytes starting at byte offset off. buf must not
// exceed one page, since a single bucket.Get call never crosses a page
// boundary. Reads into an unallocated page — including any page past the
// bucket's max key — return a zero-filled buf rather than an error.
func (f *BlockFile) Pread(buf []byte, off int64) (int, error) {
	log.WithComponent("shim").Debug().Int64("off", off).Int("len", len(buf)).Msg("pread")

	if len(buf) > int(f.opt.PageSz) {
		return 0, ErrPageTooLarge
	}

	pageOff := off % int64(f.opt.PageSz)
	key := off / int64(f.opt.PageSz)

	n, err := f.bucket.Get(uint32(key), uint64(pageOff), buf)
	if err != nil {
		if kv.IsKeyNotFound(err) {
			n = 0
		} else {
			return 0, fmt.Errorf("shim: pread: %w", err)
		}
	}

	if n < len(buf) {
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
	}

	return n, nil
}

// Pwrite writes buf at byte offset off, splitting at page boundaries so
// each underlying Bucket.Put call stays within one page.
func (f *BlockFile) Pwrite(off int64, buf []byte) error {
	log.WithComponent("shim").Debug().Int64("off", off).Int("len", len(buf)).Msg("pwrite")

	pageOff := off % int64(f.opt.PageSz)
	key := off / int64(f.opt.PageSz)

	s := 0
	for s < len(buf) {
		e := len(buf) - s
		if max := int(f.opt.PageSz) - int(pageOff); e > max {
			e = max
		}

		if err := f.bucket.Put(uint32(key), uint64(pageOff), buf[s:s+e]); err != nil {
			return fmt.Errorf("shim: pwrite: %w", err)
		}

		s += e
		pageOff = 0
		key++
	}

	return nil
}

// FileSize reports page_size*(max_key+1), the logical extent of the
// bucket, independent of sparse holes in its key space.
func (f *BlockFile) FileSize() uint64 {
	return f.bucket.LogicalSize()
}

// Truncate shrinks the bucket's logical size to newSize bytes.
func (f *BlockFile) Truncate(newSize uint64) error {
	log.WithComponent("shim").Debug().Uint64("size", newSize).Msg("truncate")
	return f.bucket.Truncate(newSize)
}

// Sync flushes the bucket's active data file and re-persists its index.
func (f *BlockFile) Sync() error {
	return f.bucket.Sync()
}

// Close releases the underlying bucket's open file handles.
func (f *BlockFile) Close() error {
	return f.bucket.Close()
}
